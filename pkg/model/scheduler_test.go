package model

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"shibutz/pkg/sat"
)

// sixDayCalendar is the standard grid of the test catalogues: five full
// days of eight periods and a short final day cut at six.
func sixDayCalendar() Calendar {
	return Calendar{Days: 6, Periods: 8, ShortDayPeriods: 6}
}

// availabilityWindow builds a full-size matrix whose cells are true exactly
// where allowed says so.
func availabilityWindow(calendar Calendar, allowed func(day, period uint64) bool) [][]bool {
	matrix := make([][]bool, calendar.Days)
	for day := range matrix {
		matrix[day] = make([]bool, calendar.Periods)
		for column := range matrix[day] {
			matrix[day][column] = allowed(uint64(day), uint64(column)+1)
		}
	}
	return matrix
}

// singleClassCatalogue demands five weekly hours of one subject for one
// class group, with an unconstrained teacher and room. Ids are deliberately
// sparse.
func singleClassCatalogue() Catalogue {
	return Catalogue{
		Calendar: sixDayCalendar(),
		Subjects: []Subject{{Id: 10, Name: "Mathematics"}},
		Teachers: []Teacher{{Id: 20, Name: "Rivka", Subjects: []uint64{10}}},
		Rooms:    []Room{{Id: 30, Name: "Room A", Capacity: 30}},
		ClassGroups: []ClassGroup{
			{Id: 40, Name: "7-1", Students: 25},
		},
		Requirements: []Requirement{
			{ClassGroup: 40, Subject: 10, WeeklyHours: 5},
		},
	}
}

func newTestScheduler() Scheduler {
	return NewScheduler(sat.NewDPLLSolver(), nil)
}

func TestSolveFeasibleSingleClass(t *testing.T) {
	// Arrange
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusFeasible, result.Status)
	assert.Len(t, result.Assignments, 5)
	assert.Empty(t, result.Conflicts)

	occupied := map[[2]uint64]bool{}
	for _, assignment := range result.Assignments {
		assert.Equal(t, uint64(40), assignment.ClassGroup)
		assert.Equal(t, uint64(10), assignment.Subject)
		assert.Equal(t, uint64(20), assignment.Teacher)
		assert.Equal(t, uint64(30), assignment.Room)
		assert.Less(t, assignment.Day, uint64(6))
		assert.GreaterOrEqual(t, assignment.Period, uint64(1))
		if assignment.Day == 5 {
			assert.LessOrEqual(t, assignment.Period, uint64(6))
		} else {
			assert.LessOrEqual(t, assignment.Period, uint64(8))
		}

		key := [2]uint64{assignment.Day, assignment.Period}
		assert.False(t, occupied[key], "class group double-booked at day %v period %v", assignment.Day, assignment.Period)
		occupied[key] = true
	}

	assert.Greater(t, result.Statistics.Variables, uint64(0))
	assert.Greater(t, result.Statistics.Clauses, uint64(0))
	assert.Greater(t, result.Statistics.WallTime, time.Duration(0))
}

func TestSolveFillsEntireWeekWithoutPhantomSlots(t *testing.T) {
	// Arrange: demand exactly as many hours as the truncated week holds, so
	// a single lesson past the short-day cutoff would make this infeasible.
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()
	catalogue.Requirements[0].WeeklyHours = 46 // 5*8 + 6

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusFeasible, result.Status)
	assert.Len(t, result.Assignments, 46)
	for _, assignment := range result.Assignments {
		if assignment.Day == 5 {
			assert.LessOrEqual(t, assignment.Period, uint64(6))
		}
	}
}

func TestSolveAssignmentsCarryWallClockTimes(t *testing.T) {
	// Arrange
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	for _, assignment := range result.Assignments {
		if assignment.Period == 1 {
			assert.Equal(t, "08:00", assignment.StartTime)
			assert.Equal(t, "08:45", assignment.EndTime)
		}
		assert.NotEmpty(t, assignment.StartTime)
		assert.NotEmpty(t, assignment.EndTime)
	}
}

func TestSolveTeacherWeeklyCeilingInfeasible(t *testing.T) {
	// Arrange: the only competent teacher may work on day 0 only and at most
	// three hours a week, against a five-hour demand.
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()
	catalogue.Teachers[0].MaxWeeklyHours = 3
	catalogue.Teachers[0].Availability = availabilityWindow(catalogue.Calendar, func(day, period uint64) bool {
		return day == 0
	})

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Empty(t, result.Assignments)

	overload, found := lo.Find(result.Conflicts, func(conflict Conflict) bool {
		return conflict.Kind == ConflictTeacherOverload
	})
	assert.True(t, found)
	assert.Equal(t, SeverityError, overload.Severity)
	assert.Contains(t, overload.Entities, EntityRef{Type: "teacher", Id: 20})
}

func TestSolveRoomTooSmallYieldsNoVariables(t *testing.T) {
	// Arrange
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()
	catalogue.Rooms[0].Capacity = 20 // 25 students will not fit

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusNoVariables, result.Status)
	assert.Empty(t, result.Assignments)
	assert.Equal(t, uint64(0), result.Statistics.Branches)

	assert.Len(t, result.Conflicts, 1)
	assert.Equal(t, ConflictNoRoom, result.Conflicts[0].Kind)
	assert.Contains(t, result.Conflicts[0].Entities, EntityRef{Type: "classGroup", Id: 40})
}

// sharedTeacherCatalogue has two class groups competing for one teacher who
// is available for three slots a week while four lesson-hours are demanded.
func sharedTeacherCatalogue() Catalogue {
	calendar := sixDayCalendar()
	return Catalogue{
		Calendar: calendar,
		Subjects: []Subject{{Id: 1, Name: "Physics"}},
		Teachers: []Teacher{{
			Id:       2,
			Name:     "Amir",
			Subjects: []uint64{1},
			Availability: availabilityWindow(calendar, func(day, period uint64) bool {
				return day == 0 && period <= 3
			}),
		}},
		Rooms: []Room{{Id: 3, Name: "Lab", Capacity: 40}},
		ClassGroups: []ClassGroup{
			{Id: 4, Name: "8-1", Students: 30},
			{Id: 5, Name: "8-2", Students: 30},
		},
		Requirements: []Requirement{
			{ClassGroup: 4, Subject: 1, WeeklyHours: 2},
			{ClassGroup: 5, Subject: 1, WeeklyHours: 2},
		},
	}
}

func TestSolveSharedTeacherDeficitInfeasible(t *testing.T) {
	// Arrange
	scheduler := newTestScheduler()
	catalogue := sharedTeacherCatalogue()

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusInfeasible, result.Status)

	deficit, found := lo.Find(result.Conflicts, func(conflict Conflict) bool {
		return conflict.Kind == ConflictTeacherDeficit
	})
	assert.True(t, found)
	assert.Contains(t, deficit.Entities, EntityRef{Type: "teacher", Id: 2})
	assert.Contains(t, deficit.Entities, EntityRef{Type: "classGroup", Id: 4})
	assert.Contains(t, deficit.Entities, EntityRef{Type: "classGroup", Id: 5})
}

func TestSolveTighteningPreservesInfeasibility(t *testing.T) {
	// Arrange: an already infeasible catalogue must stay infeasible under a
	// strictly tighter teacher ceiling.
	scheduler := newTestScheduler()
	catalogue := sharedTeacherCatalogue()
	catalogue.Teachers[0].MaxWeeklyHours = 1

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.NotEmpty(t, result.Conflicts)
}

func TestSolveHoursExceedSlotsFailsBeforeSearch(t *testing.T) {
	// Arrange: the teacher survives filtering with two slots against a
	// four-hour demand.
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()
	catalogue.Requirements[0].WeeklyHours = 4
	catalogue.Teachers[0].Availability = availabilityWindow(catalogue.Calendar, func(day, period uint64) bool {
		return day == 1 && period <= 2
	})

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusInvalidData, result.Status)
	assert.Equal(t, uint64(0), result.Statistics.Branches)

	assert.Len(t, result.Conflicts, 1)
	assert.Equal(t, ConflictHoursExceedSlots, result.Conflicts[0].Kind)
}

func TestSolveInvalidCalendar(t *testing.T) {
	// Arrange
	scheduler := newTestScheduler()

	calendars := map[string]Calendar{
		"zero days":             {Days: 0, Periods: 8, ShortDayPeriods: 6},
		"zero periods":          {Days: 6, Periods: 0, ShortDayPeriods: 6},
		"cutoff at full length": {Days: 6, Periods: 8, ShortDayPeriods: 8},
		"cutoff above length":   {Days: 6, Periods: 8, ShortDayPeriods: 9},
		"zero-length short day": {Days: 6, Periods: 8, ShortDayPeriods: 0},
		"unparseable day start": {Days: 6, Periods: 8, ShortDayPeriods: 6, DayStart: "8 o'clock"},
	}

	for name, calendar := range calendars {
		t.Run(name, func(t *testing.T) {
			catalogue := singleClassCatalogue()
			catalogue.Calendar = calendar

			// Act
			result, err := scheduler.Solve(catalogue, 0)

			// Assert
			assert.Nil(t, err)
			assert.Equal(t, StatusInvalidData, result.Status)
			assert.Len(t, result.Conflicts, 1)
			assert.Equal(t, ConflictInvalidCalendar, result.Conflicts[0].Kind)
		})
	}
}

func TestSolveStructuralConflictsReportedTogether(t *testing.T) {
	// Arrange: a duplicate room id and a requirement for an unknown subject
	// must both be reported in one pass.
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()
	catalogue.Rooms = append(catalogue.Rooms, Room{Id: 30, Name: "Room A again", Capacity: 10})
	catalogue.Requirements = append(catalogue.Requirements, Requirement{ClassGroup: 40, Subject: 99, WeeklyHours: 1})

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusInvalidData, result.Status)
	assert.Equal(t, uint64(0), result.Statistics.Branches)

	kinds := lo.Map(result.Conflicts, func(conflict Conflict, _ int) ConflictKind { return conflict.Kind })
	assert.Contains(t, kinds, ConflictDuplicateId)
	assert.Contains(t, kinds, ConflictUnknownReference)
}

func TestSolveExpiredBudgetReportsTimeout(t *testing.T) {
	// Arrange
	scheduler := newTestScheduler()
	catalogue := singleClassCatalogue()

	// Act
	result, err := scheduler.Solve(catalogue, time.Nanosecond)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusTimeout, result.Status)
	assert.Empty(t, result.Assignments)
	assert.NotEmpty(t, result.Conflicts)
	for _, conflict := range result.Conflicts {
		assert.Equal(t, SeverityWarning, conflict.Severity)
	}
}

func TestSolveWithPortfolioSolver(t *testing.T) {
	// Arrange
	scheduler := NewScheduler(sat.NewPortfolioSolver(4), nil)
	catalogue := singleClassCatalogue()

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusFeasible, result.Status)
	assert.Len(t, result.Assignments, 5)
}

func TestSolveIsRepeatable(t *testing.T) {
	// Arrange: one scheduler instance serves consecutive invocations without
	// carrying state across them.
	scheduler := newTestScheduler()
	feasible := singleClassCatalogue()
	infeasible := sharedTeacherCatalogue()

	// Act
	first, firstErr := scheduler.Solve(feasible, 0)
	second, secondErr := scheduler.Solve(infeasible, 0)
	third, thirdErr := scheduler.Solve(feasible, 0)

	// Assert
	assert.Nil(t, firstErr)
	assert.Nil(t, secondErr)
	assert.Nil(t, thirdErr)
	assert.Equal(t, StatusFeasible, first.Status)
	assert.Equal(t, StatusInfeasible, second.Status)
	assert.Equal(t, StatusFeasible, third.Status)
	assert.Len(t, third.Assignments, 5)
}

func TestSolveTwoClassesShareResourcesWithoutClashes(t *testing.T) {
	// Arrange: two class groups, two teachers, one room. The room forces the
	// groups apart even where both teachers are free.
	calendar := sixDayCalendar()
	catalogue := Catalogue{
		Calendar: calendar,
		Subjects: []Subject{{Id: 1, Name: "History"}, {Id: 2, Name: "Biology"}},
		Teachers: []Teacher{
			{Id: 1, Name: "Noa", Subjects: []uint64{1}},
			{Id: 2, Name: "Dana", Subjects: []uint64{2}},
		},
		Rooms: []Room{{Id: 1, Name: "Room B", Capacity: 35}},
		ClassGroups: []ClassGroup{
			{Id: 1, Name: "9-1", Students: 28},
			{Id: 2, Name: "9-2", Students: 31},
		},
		Requirements: []Requirement{
			{ClassGroup: 1, Subject: 1, WeeklyHours: 3},
			{ClassGroup: 1, Subject: 2, WeeklyHours: 2},
			{ClassGroup: 2, Subject: 1, WeeklyHours: 2},
			{ClassGroup: 2, Subject: 2, WeeklyHours: 3},
		},
	}
	scheduler := newTestScheduler()

	// Act
	result, err := scheduler.Solve(catalogue, 0)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, StatusFeasible, result.Status)
	assert.Len(t, result.Assignments, 10)

	roomOccupied := map[[2]uint64]bool{}
	teacherOccupied := map[[3]uint64]bool{}
	for _, assignment := range result.Assignments {
		slotKey := [2]uint64{assignment.Day, assignment.Period}
		assert.False(t, roomOccupied[slotKey], "room double-booked at day %v period %v", assignment.Day, assignment.Period)
		roomOccupied[slotKey] = true

		teacherKey := [3]uint64{assignment.Teacher, assignment.Day, assignment.Period}
		assert.False(t, teacherOccupied[teacherKey])
		teacherOccupied[teacherKey] = true
	}
}
