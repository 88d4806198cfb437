package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// Calendar describes the fixed weekly teaching grid: Days teaching days of
// Periods periods each, except the final day which is cut short at
// ShortDayPeriods. The rest day simply has no slots. DayStart, LessonMinutes
// and RecessMinutes drive the wall-clock times attached to assignments; zero
// values fall back to 08:00, 45 and 10 minutes.
type Calendar struct {
	Days            uint64 `mapstructure:"days"`
	Periods         uint64 `mapstructure:"periods"`
	ShortDayPeriods uint64 `mapstructure:"shortDayPeriods"`
	DayStart        string `mapstructure:"dayStart"`
	LessonMinutes   uint64 `mapstructure:"lessonMinutes"`
	RecessMinutes   uint64 `mapstructure:"recessMinutes"`
}

type Subject struct {
	Id   uint64
	Name string
}

// Teacher availability is indexed [day][period-1]. A nil matrix means the
// teacher is available at every slot. MaxWeeklyHours and MaxDailyHours of 0
// mean unlimited.
type Teacher struct {
	Id             uint64
	Name           string
	MaxWeeklyHours uint64   `mapstructure:"maxWeeklyHours"`
	MaxDailyHours  uint64   `mapstructure:"maxDailyHours"`
	Subjects       []uint64
	Availability   [][]bool
}

type Room struct {
	Id           uint64
	Name         string
	Capacity     uint64
	Availability [][]bool
}

type ClassGroup struct {
	Id       uint64
	Name     string
	Students uint64
}

// Requirement demands exactly WeeklyHours lesson-hours of Subject for
// ClassGroup over the week. Not at least, not at most.
type Requirement struct {
	ClassGroup  uint64 `mapstructure:"classGroup"`
	Subject     uint64
	WeeklyHours uint64 `mapstructure:"weeklyHours"`
}

// Catalogue is the full input snapshot for one solve invocation. The core
// never mutates it and holds no reference to it across invocations.
type Catalogue struct {
	Calendar     Calendar
	Subjects     []Subject
	Teachers     []Teacher
	Rooms        []Room
	ClassGroups  []ClassGroup `mapstructure:"classGroups"`
	Requirements []Requirement
}

func CatalogueFromJson(file string) (Catalogue, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Catalogue{}, err
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Catalogue{}, err
	}

	var catalogue Catalogue
	if err := mapstructure.Decode(inputJson, &catalogue); err != nil {
		return Catalogue{}, err
	}

	return catalogue, nil
}

// catalogueIndex resolves entity ids without assuming they are dense slice
// positions, which the external data layer does not guarantee.
type catalogueIndex struct {
	subjects    map[uint64]*Subject
	teachers    map[uint64]*Teacher
	rooms       map[uint64]*Room
	classGroups map[uint64]*ClassGroup
}

// validate runs the structural checks of the catalogue: duplicate ids,
// dangling references, malformed availability matrices and non-positive
// weekly hours. Every violation becomes one conflict; any conflict means the
// catalogue never reaches variable creation.
func (catalogue *Catalogue) validate(grid *timeGrid) (catalogueIndex, []Conflict) {
	conflicts := make([]Conflict, 0)
	index := catalogueIndex{
		subjects:    make(map[uint64]*Subject, len(catalogue.Subjects)),
		teachers:    make(map[uint64]*Teacher, len(catalogue.Teachers)),
		rooms:       make(map[uint64]*Room, len(catalogue.Rooms)),
		classGroups: make(map[uint64]*ClassGroup, len(catalogue.ClassGroups)),
	}

	duplicate := func(entity string, id uint64) Conflict {
		return Conflict{
			Kind:        ConflictDuplicateId,
			Severity:    SeverityError,
			Description: fmt.Sprintf("duplicate %v id %v", entity, id),
			Entities:    []EntityRef{{Type: entity, Id: id}},
		}
	}

	for i := range catalogue.Subjects {
		subject := &catalogue.Subjects[i]
		if _, ok := index.subjects[subject.Id]; ok {
			conflicts = append(conflicts, duplicate("subject", subject.Id))
			continue
		}
		index.subjects[subject.Id] = subject
	}

	for i := range catalogue.Teachers {
		teacher := &catalogue.Teachers[i]
		if _, ok := index.teachers[teacher.Id]; ok {
			conflicts = append(conflicts, duplicate("teacher", teacher.Id))
			continue
		}
		index.teachers[teacher.Id] = teacher

		for _, subject := range teacher.Subjects {
			if _, ok := index.subjects[subject]; !ok {
				conflicts = append(conflicts, Conflict{
					Kind:        ConflictUnknownReference,
					Severity:    SeverityError,
					Description: fmt.Sprintf("teacher \"%v\" references unknown subject %v", teacher.Name, subject),
					Entities:    []EntityRef{{Type: "teacher", Id: teacher.Id}, {Type: "subject", Id: subject}},
				})
			}
		}

		if teacher.Availability != nil && !grid.matrixFits(teacher.Availability) {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictMalformedMatrix,
				Severity:    SeverityError,
				Description: fmt.Sprintf("teacher \"%v\" availability matrix does not match the calendar grid", teacher.Name),
				Entities:    []EntityRef{{Type: "teacher", Id: teacher.Id}},
			})
		}
	}

	for i := range catalogue.Rooms {
		room := &catalogue.Rooms[i]
		if _, ok := index.rooms[room.Id]; ok {
			conflicts = append(conflicts, duplicate("room", room.Id))
			continue
		}
		index.rooms[room.Id] = room

		if room.Availability != nil && !grid.matrixFits(room.Availability) {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictMalformedMatrix,
				Severity:    SeverityError,
				Description: fmt.Sprintf("room \"%v\" availability matrix does not match the calendar grid", room.Name),
				Entities:    []EntityRef{{Type: "room", Id: room.Id}},
			})
		}
	}

	for i := range catalogue.ClassGroups {
		classGroup := &catalogue.ClassGroups[i]
		if _, ok := index.classGroups[classGroup.Id]; ok {
			conflicts = append(conflicts, duplicate("classGroup", classGroup.Id))
			continue
		}
		index.classGroups[classGroup.Id] = classGroup
	}

	seenRequirements := make(map[[2]uint64]bool, len(catalogue.Requirements))
	for _, requirement := range catalogue.Requirements {
		entities := []EntityRef{
			{Type: "classGroup", Id: requirement.ClassGroup},
			{Type: "subject", Id: requirement.Subject},
		}

		if _, ok := index.classGroups[requirement.ClassGroup]; !ok {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictUnknownReference,
				Severity:    SeverityError,
				Description: fmt.Sprintf("requirement references unknown class group %v", requirement.ClassGroup),
				Entities:    entities,
			})
		}
		if _, ok := index.subjects[requirement.Subject]; !ok {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictUnknownReference,
				Severity:    SeverityError,
				Description: fmt.Sprintf("requirement references unknown subject %v", requirement.Subject),
				Entities:    entities,
			})
		}
		if requirement.WeeklyHours == 0 {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictInvalidHours,
				Severity:    SeverityError,
				Description: fmt.Sprintf("requirement (classGroup %v, subject %v) must demand a positive number of weekly hours", requirement.ClassGroup, requirement.Subject),
				Entities:    entities,
			})
		}

		key := [2]uint64{requirement.ClassGroup, requirement.Subject}
		if seenRequirements[key] {
			conflicts = append(conflicts, Conflict{
				Kind:        ConflictDuplicateId,
				Severity:    SeverityError,
				Description: fmt.Sprintf("duplicate requirement for (classGroup %v, subject %v)", requirement.ClassGroup, requirement.Subject),
				Entities:    entities,
			})
		}
		seenRequirements[key] = true
	}

	return index, conflicts
}

func (index catalogueIndex) subjectName(id uint64) string {
	if subject, ok := index.subjects[id]; ok && subject.Name != "" {
		return subject.Name
	}
	return fmt.Sprintf("subject-%v", id)
}

func (index catalogueIndex) teacherName(id uint64) string {
	if teacher, ok := index.teachers[id]; ok && teacher.Name != "" {
		return teacher.Name
	}
	return fmt.Sprintf("teacher-%v", id)
}

func (index catalogueIndex) classGroupName(id uint64) string {
	if classGroup, ok := index.classGroups[id]; ok && classGroup.Name != "" {
		return classGroup.Name
	}
	return fmt.Sprintf("classGroup-%v", id)
}

// teachesSubject checks the subject competence of a teacher.
func (teacher *Teacher) teachesSubject(subject uint64) bool {
	return lo.Contains(teacher.Subjects, subject)
}

// availableAt treats a nil matrix as full availability.
func availableAt(availability [][]bool, day, period uint64) bool {
	if availability == nil {
		return true
	}
	return availability[day][period-1]
}
