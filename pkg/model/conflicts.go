package model

import (
	"fmt"
	"strings"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// diagnoseNoVariables explains, per requirement that lost every candidate,
// which filtering stage emptied it: subject competence, room capacity or
// availability overlap.
func diagnoseNoVariables(filtered []requirementCandidates, index catalogueIndex) []Conflict {
	conflicts := make([]Conflict, 0)

	for _, candidates := range filtered {
		if len(candidates.tuples) > 0 {
			continue
		}
		requirement := candidates.requirement
		entities := []EntityRef{
			{Type: "classGroup", Id: requirement.ClassGroup},
			{Type: "subject", Id: requirement.Subject},
		}

		switch {
		case len(candidates.eligibleTeachers) == 0:
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictNoTeacher,
				Severity: SeverityError,
				Description: fmt.Sprintf(
					"no teacher is eligible to teach \"%v\" to class group \"%v\"",
					index.subjectName(requirement.Subject),
					index.classGroupName(requirement.ClassGroup),
				),
				Entities: entities,
			})
		case len(candidates.fittingRooms) == 0:
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictNoRoom,
				Severity: SeverityError,
				Description: fmt.Sprintf(
					"no room is large enough for class group \"%v\" (%v students)",
					index.classGroupName(requirement.ClassGroup),
					index.classGroups[requirement.ClassGroup].Students,
				),
				Entities: entities,
			})
		default:
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictNoCombination,
				Severity: SeverityError,
				Description: fmt.Sprintf(
					"teacher and room availability never overlap for \"%v\" of class group \"%v\"",
					index.subjectName(requirement.Subject),
					index.classGroupName(requirement.ClassGroup),
				),
				Entities: entities,
			})
		}
	}

	return conflicts
}

// diagnoseInfeasibility runs static checks over the catalogue and the
// filtered variable set. It never re-runs search, and it always returns at
// least one conflict. On a timeout the findings are warnings: a timeout is
// not a proof of impossibility.
func diagnoseInfeasibility(
	catalogue *Catalogue,
	index catalogueIndex,
	grid *timeGrid,
	filtered []requirementCandidates,
	timedOut bool,
) []Conflict {
	severity := SeverityError
	if timedOut {
		severity = SeverityWarning
	}

	conflicts := make([]Conflict, 0)

	//** A class group cannot demand more hours than the week holds
	hoursPerClass := make(map[uint64]uint64)
	for _, requirement := range catalogue.Requirements {
		hoursPerClass[requirement.ClassGroup] += requirement.WeeklyHours
	}
	for _, classGroup := range catalogue.ClassGroups {
		if hoursPerClass[classGroup.Id] > uint64(len(grid.slots)) {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictClassOverflow,
				Severity: severity,
				Description: fmt.Sprintf(
					"class group \"%v\" demands %v weekly hours but the week only has %v slots",
					index.classGroupName(classGroup.Id),
					hoursPerClass[classGroup.Id],
					len(grid.slots),
				),
				Entities: []EntityRef{{Type: "classGroup", Id: classGroup.Id}},
			})
		}
	}

	conflicts = append(conflicts, diagnoseTeacherSupply(catalogue, index, grid, filtered, severity)...)

	if len(conflicts) == 0 {
		conflicts = append(conflicts, fallbackConflict(catalogue, timedOut))
	}
	return conflicts
}

// diagnoseTeacherSupply compares, per teacher, the demand of requirements
// only that teacher can serve against the teacher's supply: the weekly and
// daily ceilings and, through a maximum bipartite matching of lesson-hours
// onto slots, the actual overlap of availabilities.
func diagnoseTeacherSupply(
	catalogue *Catalogue,
	index catalogueIndex,
	grid *timeGrid,
	filtered []requirementCandidates,
	severity Severity,
) []Conflict {
	conflicts := make([]Conflict, 0)

	for _, teacher := range catalogue.Teachers {
		exclusive := lo.Filter(filtered, func(candidates requirementCandidates, _ int) bool {
			return len(candidates.eligibleTeachers) == 1 && candidates.eligibleTeachers[0] == teacher.Id
		})
		if len(exclusive) == 0 {
			continue
		}

		demand := lo.SumBy(exclusive, func(candidates requirementCandidates) uint64 {
			return candidates.requirement.WeeklyHours
		})

		//** Ceiling check: demand against the configured load limits
		ceiling := uint64(len(grid.slots))
		if teacher.MaxWeeklyHours > 0 && teacher.MaxWeeklyHours < ceiling {
			ceiling = teacher.MaxWeeklyHours
		}
		if teacher.MaxDailyHours > 0 && teacher.MaxDailyHours*grid.calendar.Days < ceiling {
			ceiling = teacher.MaxDailyHours * grid.calendar.Days
		}
		if demand > ceiling {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictTeacherOverload,
				Severity: severity,
				Description: fmt.Sprintf(
					"teacher \"%v\" is the only option for %v weekly hours (%v) but can take at most %v",
					index.teacherName(teacher.Id),
					demand,
					describeRequirements(exclusive, index),
					ceiling,
				),
				Entities: teacherConflictEntities(teacher.Id, exclusive),
			})
			continue
		}

		//** Matching check: every exclusive lesson-hour needs its own slot
		if deficit := matchingDeficit(teacher.Id, exclusive); deficit > 0 {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictTeacherDeficit,
				Severity: severity,
				Description: fmt.Sprintf(
					"teacher \"%v\" cannot cover %v of the %v weekly hours demanded by %v: too few distinct eligible slots",
					index.teacherName(teacher.Id),
					deficit,
					demand,
					describeRequirements(exclusive, index),
				),
				Entities: teacherConflictEntities(teacher.Id, exclusive),
			})
		}
	}

	return conflicts
}

// matchingDeficit builds a bipartite graph from the exclusive lesson-hours
// of one teacher to the slots where some candidate tuple carries them, and
// returns how many hours a largest matching leaves unplaced.
func matchingDeficit(teacherId uint64, exclusive []requirementCandidates) int {
	type lessonHour struct {
		requirement int
		hour        uint64
	}

	slotsPerRequirement := make([]map[uint64]bool, len(exclusive))
	slotSet := make(map[uint64]bool)
	hours := make([]any, 0)
	for i, candidates := range exclusive {
		slotsPerRequirement[i] = make(map[uint64]bool)
		for _, tuple := range candidates.tuples {
			if tuple.teacher != teacherId {
				continue
			}
			slotsPerRequirement[i][tuple.slot.index] = true
			slotSet[tuple.slot.index] = true
		}
		for hour := uint64(0); hour < candidates.requirement.WeeklyHours; hour++ {
			hours = append(hours, lessonHour{requirement: i, hour: hour})
		}
	}
	slots := lo.Map(lo.Keys(slotSet), func(slotIndex uint64, _ int) any { return slotIndex })

	graph, err := bipartitegraph.NewBipartiteGraph(hours, slots, func(hourAny, slotAny any) (bool, error) {
		hour := hourAny.(lessonHour)
		slotIndex := slotAny.(uint64)
		return slotsPerRequirement[hour.requirement][slotIndex], nil
	})
	if err != nil {
		panic(fmt.Sprintf("cannot build lesson-hour matching graph: %v", err))
	}

	return len(hours) - len(graph.LargestMatching())
}

func describeRequirements(exclusive []requirementCandidates, index catalogueIndex) string {
	var builder strings.Builder
	for i, candidates := range exclusive {
		if i > 0 {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "\"%v\" for \"%v\"",
			index.subjectName(candidates.requirement.Subject),
			index.classGroupName(candidates.requirement.ClassGroup),
		)
	}
	return builder.String()
}

func teacherConflictEntities(teacherId uint64, exclusive []requirementCandidates) []EntityRef {
	entities := []EntityRef{{Type: "teacher", Id: teacherId}}
	for _, candidates := range exclusive {
		entities = append(entities, EntityRef{Type: "classGroup", Id: candidates.requirement.ClassGroup})
	}
	return entities
}

func fallbackConflict(catalogue *Catalogue, timedOut bool) Conflict {
	entities := lo.Map(catalogue.ClassGroups, func(classGroup ClassGroup, _ int) EntityRef {
		return EntityRef{Type: "classGroup", Id: classGroup.Id}
	})

	if timedOut {
		return Conflict{
			Kind:        ConflictBudgetExhausted,
			Severity:    SeverityWarning,
			Description: "no assignment was found within the time budget; a larger budget or looser constraints may still yield one",
			Entities:    entities,
		}
	}
	return Conflict{
		Kind:        ConflictSearchExhausted,
		Severity:    SeverityError,
		Description: "the combined constraints admit no assignment, although no single entity explains the conflict on its own",
		Entities:    entities,
	}
}
