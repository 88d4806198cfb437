package model

import "github.com/samber/lo"

type candidateTuple struct {
	slot    slot
	teacher uint64
	room    uint64
}

// requirementCandidates holds everything the filter kept for one
// requirement, plus the pruning trace the conflict diagnoser reads when
// nothing survives.
type requirementCandidates struct {
	requirement      Requirement
	tuples           []candidateTuple
	eligibleTeachers []uint64 // Subject-competent teachers, before availability
	fittingRooms     []uint64 // Rooms with enough capacity, before availability
	distinctSlots    uint64   // Slots with at least one surviving tuple
}

// filterEligibility prunes the combinatorial space before any variable is
// created. It is purely exclusionary: it discards tuples that violate subject
// competence, availability or capacity, and never selects anything.
func filterEligibility(catalogue *Catalogue, index catalogueIndex, grid *timeGrid) []requirementCandidates {
	filtered := make([]requirementCandidates, 0, len(catalogue.Requirements))

	for _, requirement := range catalogue.Requirements {
		classGroup := index.classGroups[requirement.ClassGroup]

		candidates := requirementCandidates{requirement: requirement}

		candidates.eligibleTeachers = lo.FilterMap(catalogue.Teachers, func(teacher Teacher, _ int) (uint64, bool) {
			return teacher.Id, teacher.teachesSubject(requirement.Subject)
		})
		candidates.fittingRooms = lo.FilterMap(catalogue.Rooms, func(room Room, _ int) (uint64, bool) {
			return room.Id, room.Capacity >= classGroup.Students
		})

		slotCovered := make([]bool, len(grid.slots))
		for _, gridSlot := range grid.slots {
			for _, teacherId := range candidates.eligibleTeachers {
				teacher := index.teachers[teacherId]
				if !availableAt(teacher.Availability, gridSlot.day, gridSlot.period) {
					continue
				}
				for _, roomId := range candidates.fittingRooms {
					room := index.rooms[roomId]
					if !availableAt(room.Availability, gridSlot.day, gridSlot.period) {
						continue
					}

					candidates.tuples = append(candidates.tuples, candidateTuple{
						slot:    gridSlot,
						teacher: teacherId,
						room:    roomId,
					})
					if !slotCovered[gridSlot.index] {
						slotCovered[gridSlot.index] = true
						candidates.distinctSlots++
					}
				}
			}
		}

		filtered = append(filtered, candidates)
	}

	return filtered
}
