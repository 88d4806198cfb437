package main

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCatalogue(t *testing.T) {
	// Arrange
	rng := rand.New(rand.NewPCG(7, 0))

	// Act
	catalogue := buildCatalogue(5, rng)

	// Assert
	assert.Len(t, catalogue.Subjects, subjectsPerCatalogue)
	assert.Len(t, catalogue.ClassGroups, 5)
	assert.Len(t, catalogue.Rooms, 5)
	assert.Len(t, catalogue.Requirements, 5*subjectsPerCatalogue)

	// Two teachers per subject cover five class groups
	assert.Len(t, catalogue.Teachers, subjectsPerCatalogue*2)

	teacherIds := map[uint64]bool{}
	for _, teacher := range catalogue.Teachers {
		assert.False(t, teacherIds[teacher.Id], "teacher id %v duplicated", teacher.Id)
		teacherIds[teacher.Id] = true
		assert.Len(t, teacher.Subjects, 1)
		assert.Len(t, teacher.Availability, 6)
		for _, row := range teacher.Availability {
			assert.Len(t, row, 8)
		}
	}

	for _, requirement := range catalogue.Requirements {
		assert.Equal(t, uint64(3), requirement.WeeklyHours)
	}
}
