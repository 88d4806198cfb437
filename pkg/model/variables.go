package model

import "fmt"

// decisionVariable is one boolean decision: "this class group takes this
// subject with this teacher in this room at this slot". Owned exclusively by
// the solve invocation that created it.
type decisionVariable struct {
	id          int64 // 1-based SAT variable
	requirement int   // Position within the filtered requirement list
	classGroup  uint64
	subject     uint64
	slot        slot
	teacher     uint64
	room        uint64
}

// variableArena materializes exactly one decision variable per surviving
// eligibility tuple and keeps side tables bucketed by the keys the encoder
// sums over, so no constraint ever re-scans the full variable set.
type variableArena struct {
	variables []decisionVariable

	byRequirement [][]int64
	byClassSlot   map[[2]uint64][]int64 // (classGroup, slot index)
	byTeacherSlot map[[2]uint64][]int64 // (teacher, slot index)
	byRoomSlot    map[[2]uint64][]int64 // (room, slot index)
	byTeacher     map[uint64][]int64
	byTeacherDay  map[[2]uint64][]int64 // (teacher, day)
}

func buildVariableArena(filtered []requirementCandidates) *variableArena {
	arena := &variableArena{
		byRequirement: make([][]int64, len(filtered)),
		byClassSlot:   make(map[[2]uint64][]int64),
		byTeacherSlot: make(map[[2]uint64][]int64),
		byRoomSlot:    make(map[[2]uint64][]int64),
		byTeacher:     make(map[uint64][]int64),
		byTeacherDay:  make(map[[2]uint64][]int64),
	}

	seen := make(map[[4]uint64]bool)
	for requirementIndex, candidates := range filtered {
		for _, tuple := range candidates.tuples {
			key := [4]uint64{uint64(requirementIndex), tuple.slot.index, tuple.teacher, tuple.room}
			if seen[key] {
				panic(fmt.Sprintf("duplicate decision variable for requirement %v, slot %v, teacher %v, room %v", requirementIndex, tuple.slot.index, tuple.teacher, tuple.room))
			}
			seen[key] = true

			variable := decisionVariable{
				id:          int64(len(arena.variables)) + 1,
				requirement: requirementIndex,
				classGroup:  candidates.requirement.ClassGroup,
				subject:     candidates.requirement.Subject,
				slot:        tuple.slot,
				teacher:     tuple.teacher,
				room:        tuple.room,
			}
			arena.variables = append(arena.variables, variable)

			arena.byRequirement[requirementIndex] = append(arena.byRequirement[requirementIndex], variable.id)
			arena.byClassSlot[[2]uint64{variable.classGroup, tuple.slot.index}] = append(arena.byClassSlot[[2]uint64{variable.classGroup, tuple.slot.index}], variable.id)
			arena.byTeacherSlot[[2]uint64{tuple.teacher, tuple.slot.index}] = append(arena.byTeacherSlot[[2]uint64{tuple.teacher, tuple.slot.index}], variable.id)
			arena.byRoomSlot[[2]uint64{tuple.room, tuple.slot.index}] = append(arena.byRoomSlot[[2]uint64{tuple.room, tuple.slot.index}], variable.id)
			arena.byTeacher[tuple.teacher] = append(arena.byTeacher[tuple.teacher], variable.id)
			arena.byTeacherDay[[2]uint64{tuple.teacher, tuple.slot.day}] = append(arena.byTeacherDay[[2]uint64{tuple.teacher, tuple.slot.day}], variable.id)
		}
	}

	return arena
}

func (arena *variableArena) count() uint64 {
	return uint64(len(arena.variables))
}

func (arena *variableArena) variable(id int64) decisionVariable {
	if id < 1 || id > int64(len(arena.variables)) {
		panic(fmt.Sprintf("decision variable %v is out of range", id))
	}
	return arena.variables[id-1]
}
