package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultDayStart      = "08:00"
	defaultLessonMinutes = 45
	defaultRecessMinutes = 10
)

// slot is one (day, period) cell of the weekly grid. Index is its position
// in the grid's total order, usable directly as an array offset.
type slot struct {
	day    uint64
	period uint64 // 1-based
	index  uint64
}

// timeGrid enumerates the fixed weekly slot space: full days of
// calendar.Periods periods, with the final teaching day truncated at
// calendar.ShortDayPeriods. It is a pure function of the calendar and never
// fails after construction.
type timeGrid struct {
	calendar      Calendar
	slots         []slot
	dayStartTotal uint64 // Minutes since midnight
	lessonMinutes uint64
	recessMinutes uint64
}

func newTimeGrid(calendar Calendar) (*timeGrid, error) {
	if calendar.Days == 0 {
		return nil, fmt.Errorf("calendar must have at least one teaching day")
	} else if calendar.Periods == 0 {
		return nil, fmt.Errorf("calendar must have at least one period per day")
	} else if calendar.ShortDayPeriods == 0 || calendar.ShortDayPeriods >= calendar.Periods {
		return nil, fmt.Errorf("short day cutoff %v must lie strictly between 0 and %v periods", calendar.ShortDayPeriods, calendar.Periods)
	}

	dayStart := calendar.DayStart
	if dayStart == "" {
		dayStart = defaultDayStart
	}
	dayStartTotal, err := parseClock(dayStart)
	if err != nil {
		return nil, fmt.Errorf("cannot parse calendar day start: %w", err)
	}

	grid := &timeGrid{
		calendar:      calendar,
		dayStartTotal: dayStartTotal,
		lessonMinutes: calendar.LessonMinutes,
		recessMinutes: calendar.RecessMinutes,
	}
	if grid.lessonMinutes == 0 {
		grid.lessonMinutes = defaultLessonMinutes
	}
	if grid.recessMinutes == 0 {
		grid.recessMinutes = defaultRecessMinutes
	}

	for day := uint64(0); day < calendar.Days; day++ {
		for period := uint64(1); period <= grid.periodsInDay(day); period++ {
			grid.slots = append(grid.slots, slot{
				day:    day,
				period: period,
				index:  uint64(len(grid.slots)),
			})
		}
	}

	return grid, nil
}

func (grid *timeGrid) periodsInDay(day uint64) uint64 {
	if day == grid.calendar.Days-1 {
		return grid.calendar.ShortDayPeriods
	}
	return grid.calendar.Periods
}

func (grid *timeGrid) contains(day, period uint64) bool {
	return day < grid.calendar.Days && period >= 1 && period <= grid.periodsInDay(day)
}

// slotIndex maps (day, period) to the grid's total order. Only the final day
// is truncated, so every earlier day occupies a full stride of periods.
func (grid *timeGrid) slotIndex(day, period uint64) uint64 {
	return day*grid.calendar.Periods + period - 1
}

// periodSpan returns the wall-clock start and end of a period as HH:MM.
func (grid *timeGrid) periodSpan(period uint64) (start string, end string) {
	startTotal := grid.dayStartTotal + (period-1)*(grid.lessonMinutes+grid.recessMinutes)
	endTotal := startTotal + grid.lessonMinutes
	return formatClock(startTotal), formatClock(endTotal)
}

// matrixFits checks an availability matrix against the grid dimensions: one
// row per teaching day, one column per full-day period. Short-day columns
// past the cutoff are present but never consulted.
func (grid *timeGrid) matrixFits(matrix [][]bool) bool {
	if uint64(len(matrix)) != grid.calendar.Days {
		return false
	}
	for _, row := range matrix {
		if uint64(len(row)) != grid.calendar.Periods {
			return false
		}
	}
	return true
}

func parseClock(clock string) (uint64, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("\"%v\" is not a HH:MM clock time", clock)
	}
	hours, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || hours > 23 {
		return 0, fmt.Errorf("\"%v\" is not a HH:MM clock time", clock)
	}
	minutes, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("\"%v\" is not a HH:MM clock time", clock)
	}
	return hours*60 + minutes, nil
}

func formatClock(total uint64) string {
	return fmt.Sprintf("%02d:%02d", (total/60)%24, total%60)
}
