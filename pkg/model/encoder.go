package model

import (
	"fmt"

	"shibutz/pkg/sat"
)

// encodeConstraints compiles the hard rules over the arena's decision
// variables into one CNF instance:
//
//  1. at most one lesson per (classGroup, slot)
//  2. at most one lesson per (teacher, slot)
//  3. at most one lesson per (room, slot)
//  4. exactly WeeklyHours true variables per requirement
//  5. at most MaxWeeklyHours true variables per teacher, when configured
//  6. at most MaxDailyHours true variables per (teacher, day), when configured
//
// Calendar truncation needs no clause: no variable exists past the cutoff by
// construction. Requirements demanding more hours than their surviving slots
// are rejected here, before any search.
func encodeConstraints(
	arena *variableArena,
	filtered []requirementCandidates,
	index catalogueIndex,
) (*sat.SAT, []Conflict) {
	conflicts := make([]Conflict, 0)
	for _, candidates := range filtered {
		requirement := candidates.requirement
		if requirement.WeeklyHours > candidates.distinctSlots {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictHoursExceedSlots,
				Severity: SeverityError,
				Description: fmt.Sprintf(
					"\"%v\" for class group \"%v\" demands %v weekly hours but only %v eligible slots survive filtering",
					index.subjectName(requirement.Subject),
					index.classGroupName(requirement.ClassGroup),
					requirement.WeeklyHours,
					candidates.distinctSlots,
				),
				Entities: []EntityRef{
					{Type: "classGroup", Id: requirement.ClassGroup},
					{Type: "subject", Id: requirement.Subject},
				},
			})
		}
	}
	if len(conflicts) > 0 {
		return nil, conflicts
	}

	nextVariable := int64(arena.count())
	newVariable := func() int64 {
		nextVariable++
		return nextVariable
	}

	clauses := make([][]int64, 0)

	//** Exclusivity: pairwise mutual exclusion within each bucket
	for _, bucket := range arena.byClassSlot {
		clauses = append(clauses, atMostOnePairwise(bucket)...)
	}
	for _, bucket := range arena.byTeacherSlot {
		clauses = append(clauses, atMostOnePairwise(bucket)...)
	}
	for _, bucket := range arena.byRoomSlot {
		clauses = append(clauses, atMostOnePairwise(bucket)...)
	}

	//** Exact weekly hours per requirement
	for requirementIndex, candidates := range filtered {
		clauses = append(clauses, sat.ExactlyK(
			arena.byRequirement[requirementIndex],
			candidates.requirement.WeeklyHours,
			newVariable,
		)...)
	}

	//** Teacher load ceilings
	for teacherId, bucket := range arena.byTeacher {
		teacher := index.teachers[teacherId]
		if teacher.MaxWeeklyHours > 0 {
			clauses = append(clauses, sat.AtMostK(bucket, teacher.MaxWeeklyHours, newVariable)...)
		}
	}
	for key, bucket := range arena.byTeacherDay {
		teacher := index.teachers[key[0]]
		if teacher.MaxDailyHours > 0 {
			clauses = append(clauses, sat.AtMostK(bucket, teacher.MaxDailyHours, newVariable)...)
		}
	}

	instance := &sat.SAT{
		Variables: uint64(nextVariable),
		Clauses:   clauses,
	}
	return instance, nil
}

// CompileDIMACS compiles the catalogue's constraints and renders them as
// DIMACS CNF, for handing the instance to an external solver. Conditions
// that would fast-fail a solve surface as errors.
func CompileDIMACS(catalogue Catalogue) (string, error) {
	grid, err := newTimeGrid(catalogue.Calendar)
	if err != nil {
		return "", err
	}

	index, structural := catalogue.validate(grid)
	if len(structural) > 0 {
		return "", fmt.Errorf("catalogue failed structural validation with %v conflicts", len(structural))
	}

	filtered := filterEligibility(&catalogue, index, grid)
	for _, candidates := range filtered {
		if len(candidates.tuples) == 0 {
			return "", fmt.Errorf(
				"no eligible combination for subject %v of class group %v",
				candidates.requirement.Subject,
				candidates.requirement.ClassGroup,
			)
		}
	}

	arena := buildVariableArena(filtered)
	instance, hourConflicts := encodeConstraints(arena, filtered, index)
	if len(hourConflicts) > 0 {
		return "", fmt.Errorf("%v requirements demand more hours than their eligible slots", len(hourConflicts))
	}

	return instance.ToDIMACS(), nil
}

func atMostOnePairwise(variables []int64) [][]int64 {
	clauses := make([][]int64, 0, len(variables)*(len(variables)-1)/2)
	for i := range len(variables) - 1 {
		for j := i + 1; j < len(variables); j++ {
			clauses = append(clauses, []int64{-variables[i], -variables[j]})
		}
	}
	return clauses
}
