package model

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestEncodeConstraintsShape(t *testing.T) {
	// Arrange
	catalogue := sharedTeacherCatalogue()
	index, grid := prepare(t, &catalogue)
	filtered := filterEligibility(&catalogue, index, grid)
	arena := buildVariableArena(filtered)

	// Act
	instance, conflicts := encodeConstraints(arena, filtered, index)

	// Assert
	assert.Empty(t, conflicts)
	assert.NotNil(t, instance)
	assert.GreaterOrEqual(t, instance.Variables, arena.count())
	assert.NotEmpty(t, instance.Clauses)

	// Three teacher-slot and three room-slot buckets of two rivals each
	// contribute one pairwise exclusion per bucket
	pairwise := lo.CountBy(instance.Clauses, func(clause []int64) bool {
		return len(clause) == 2 && clause[0] < 0 && clause[1] < 0
	})
	assert.GreaterOrEqual(t, pairwise, 6)

	// Every literal stays within the declared variable range
	for _, clause := range instance.Clauses {
		for _, literal := range clause {
			assert.NotZero(t, literal)
			magnitude := literal
			if magnitude < 0 {
				magnitude = -magnitude
			}
			assert.LessOrEqual(t, magnitude, int64(instance.Variables))
		}
	}
}

func TestEncodeConstraintsRejectsOverdemandedRequirement(t *testing.T) {
	// Arrange: four weekly hours against three eligible slots
	catalogue := sharedTeacherCatalogue()
	catalogue.Requirements[0].WeeklyHours = 4
	index, grid := prepare(t, &catalogue)
	filtered := filterEligibility(&catalogue, index, grid)
	arena := buildVariableArena(filtered)

	// Act
	instance, conflicts := encodeConstraints(arena, filtered, index)

	// Assert
	assert.Nil(t, instance)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, ConflictHoursExceedSlots, conflicts[0].Kind)
	assert.Contains(t, conflicts[0].Entities, EntityRef{Type: "classGroup", Id: 4})
}

func TestEncodeConstraintsSkipsUnlimitedCeilings(t *testing.T) {
	// Arrange: no load ceilings configured; the instance needs no auxiliary
	// counter variables beyond the weekly-hours encodings.
	catalogue := singleClassCatalogue()
	index, grid := prepare(t, &catalogue)
	filtered := filterEligibility(&catalogue, index, grid)
	arena := buildVariableArena(filtered)

	// Act
	unlimited, conflicts := encodeConstraints(arena, filtered, index)
	assert.Empty(t, conflicts)

	catalogue.Teachers[0].MaxWeeklyHours = 10
	limitedIndex, _ := catalogue.validate(grid)
	limited, conflicts := encodeConstraints(arena, filtered, limitedIndex)
	assert.Empty(t, conflicts)

	// Assert: the ceiling adds clauses and counter variables
	assert.Greater(t, len(limited.Clauses), len(unlimited.Clauses))
	assert.Greater(t, limited.Variables, unlimited.Variables)
}
