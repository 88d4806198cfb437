package model

import "fmt"

// verifyAssignments re-checks every hard constraint against the extracted
// assignment list, independently of the encoder and the search engine. A
// failure here is an internal-consistency bug, never a legitimate outcome.
func verifyAssignments(assignments []Assignment, catalogue *Catalogue, index catalogueIndex, grid *timeGrid) error {
	classAssistance := make(map[[3]uint64]bool)
	teacherAssistance := make(map[[3]uint64]bool)
	roomAssistance := make(map[[3]uint64]bool)
	scheduledHours := make(map[[2]uint64]uint64)
	teacherWeekly := make(map[uint64]uint64)
	teacherDaily := make(map[[2]uint64]uint64)

	for _, assignment := range assignments {
		if !grid.contains(assignment.Day, assignment.Period) {
			return fmt.Errorf("assignment occupies nonexistent slot (day %v, period %v)", assignment.Day, assignment.Period)
		}

		teacher, ok := index.teachers[assignment.Teacher]
		if !ok {
			return fmt.Errorf("assignment references unknown teacher %v", assignment.Teacher)
		}
		room, ok := index.rooms[assignment.Room]
		if !ok {
			return fmt.Errorf("assignment references unknown room %v", assignment.Room)
		}
		classGroup, ok := index.classGroups[assignment.ClassGroup]
		if !ok {
			return fmt.Errorf("assignment references unknown class group %v", assignment.ClassGroup)
		}

		//** Exclusivity
		classKey := [3]uint64{assignment.ClassGroup, assignment.Day, assignment.Period}
		if classAssistance[classKey] {
			return fmt.Errorf("class group %v is double-booked at (day %v, period %v)", assignment.ClassGroup, assignment.Day, assignment.Period)
		}
		classAssistance[classKey] = true

		teacherKey := [3]uint64{assignment.Teacher, assignment.Day, assignment.Period}
		if teacherAssistance[teacherKey] {
			return fmt.Errorf("teacher %v is double-booked at (day %v, period %v)", assignment.Teacher, assignment.Day, assignment.Period)
		}
		teacherAssistance[teacherKey] = true

		roomKey := [3]uint64{assignment.Room, assignment.Day, assignment.Period}
		if roomAssistance[roomKey] {
			return fmt.Errorf("room %v is double-booked at (day %v, period %v)", assignment.Room, assignment.Day, assignment.Period)
		}
		roomAssistance[roomKey] = true

		//** Eligibility rules the filter promised
		if !teacher.teachesSubject(assignment.Subject) {
			return fmt.Errorf("teacher %v does not teach subject %v", assignment.Teacher, assignment.Subject)
		}
		if !availableAt(teacher.Availability, assignment.Day, assignment.Period) {
			return fmt.Errorf("teacher %v is unavailable at (day %v, period %v)", assignment.Teacher, assignment.Day, assignment.Period)
		}
		if !availableAt(room.Availability, assignment.Day, assignment.Period) {
			return fmt.Errorf("room %v is unavailable at (day %v, period %v)", assignment.Room, assignment.Day, assignment.Period)
		}
		if room.Capacity < classGroup.Students {
			return fmt.Errorf("room %v (capacity %v) cannot hold class group %v (%v students)", assignment.Room, room.Capacity, assignment.ClassGroup, classGroup.Students)
		}

		scheduledHours[[2]uint64{assignment.ClassGroup, assignment.Subject}]++
		teacherWeekly[assignment.Teacher]++
		teacherDaily[[2]uint64{assignment.Teacher, assignment.Day}]++
	}

	//** Exact weekly hours, both directions
	required := make(map[[2]uint64]uint64, len(catalogue.Requirements))
	for _, requirement := range catalogue.Requirements {
		required[[2]uint64{requirement.ClassGroup, requirement.Subject}] = requirement.WeeklyHours
	}
	for key, hours := range required {
		if scheduledHours[key] != hours {
			return fmt.Errorf("class group %v got %v hours of subject %v instead of the required %v", key[0], scheduledHours[key], key[1], hours)
		}
	}
	for key := range scheduledHours {
		if _, ok := required[key]; !ok {
			return fmt.Errorf("class group %v was scheduled subject %v without a requirement", key[0], key[1])
		}
	}

	//** Teacher load ceilings
	for _, teacher := range catalogue.Teachers {
		if teacher.MaxWeeklyHours > 0 && teacherWeekly[teacher.Id] > teacher.MaxWeeklyHours {
			return fmt.Errorf("teacher %v exceeds the weekly ceiling: %v > %v", teacher.Id, teacherWeekly[teacher.Id], teacher.MaxWeeklyHours)
		}
		if teacher.MaxDailyHours > 0 {
			for day := uint64(0); day < grid.calendar.Days; day++ {
				if teacherDaily[[2]uint64{teacher.Id, day}] > teacher.MaxDailyHours {
					return fmt.Errorf("teacher %v exceeds the daily ceiling on day %v: %v > %v", teacher.Id, day, teacherDaily[[2]uint64{teacher.Id, day}], teacher.MaxDailyHours)
				}
			}
		}
	}

	return nil
}
