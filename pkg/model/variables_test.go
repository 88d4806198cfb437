package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildVariableArena(t *testing.T) {
	// Arrange
	catalogue := sharedTeacherCatalogue()
	index, grid := prepare(t, &catalogue)
	filtered := filterEligibility(&catalogue, index, grid)

	// Act
	arena := buildVariableArena(filtered)

	// Assert: two requirements, three eligible slots each, one teacher and
	// one room
	assert.Equal(t, uint64(6), arena.count())
	assert.Len(t, arena.byRequirement[0], 3)
	assert.Len(t, arena.byRequirement[1], 3)

	// Both requirements compete for the teacher at every eligible slot
	for _, gridSlot := range grid.slots[:3] {
		bucket := arena.byTeacherSlot[[2]uint64{2, gridSlot.index}]
		assert.Len(t, bucket, 2)
	}
	assert.Len(t, arena.byTeacher[2], 6)
	assert.Len(t, arena.byTeacherDay[[2]uint64{2, 0}], 6)
	assert.Empty(t, arena.byTeacherDay[[2]uint64{2, 1}])

	// Class-slot buckets never mix class groups
	for key, bucket := range arena.byClassSlot {
		for _, id := range bucket {
			assert.Equal(t, key[0], arena.variable(id).classGroup)
		}
	}
}

func TestVariableIdsAreDenseAndOneBased(t *testing.T) {
	// Arrange
	catalogue := singleClassCatalogue()
	index, grid := prepare(t, &catalogue)
	filtered := filterEligibility(&catalogue, index, grid)

	// Act
	arena := buildVariableArena(filtered)

	// Assert
	for position := int64(1); position <= int64(arena.count()); position++ {
		variable := arena.variable(position)
		assert.Equal(t, position, variable.id)
		assert.Equal(t, uint64(40), variable.classGroup)
		assert.Equal(t, uint64(10), variable.subject)
	}
}

func TestVariableLookupPanicsOutOfRange(t *testing.T) {
	// Arrange
	catalogue := singleClassCatalogue()
	index, grid := prepare(t, &catalogue)
	arena := buildVariableArena(filterEligibility(&catalogue, index, grid))

	// Assert
	assert.Panics(t, func() { arena.variable(0) })
	assert.Panics(t, func() { arena.variable(int64(arena.count()) + 1) })
}
