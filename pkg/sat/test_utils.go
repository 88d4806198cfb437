package sat

import "math/rand/v2"

// GenerateInstance builds a random CNF instance for testing. Every clause is
// guaranteed to be non-empty.
func GenerateInstance(variables uint64, clauses int) *SAT {
	instance := &SAT{
		Variables: variables,
		Clauses:   make([][]int64, clauses),
	}

	randomLiteral := func(variable int64) int64 {
		if rand.Float32() < 0.5 {
			return -variable
		}
		return variable
	}

	for i := range clauses {
		instance.Clauses[i] = make([]int64, 0, variables)
		for variable := int64(1); uint64(variable) <= variables; variable++ {
			if rand.Float32() < 0.5 {
				instance.Clauses[i] = append(instance.Clauses[i], randomLiteral(variable))
			}
		}

		if len(instance.Clauses[i]) == 0 {
			instance.Clauses[i] = append(instance.Clauses[i], randomLiteral(1+rand.Int64N(int64(variables))))
		}
	}

	return instance
}

// AssertSolution checks that the solution is free of duplicates and
// contradictions and satisfies every clause of the instance.
func AssertSolution(instance *SAT, solution Solution) bool {
	literals := make(map[int64]bool, len(solution))
	for _, literal := range solution {
		if literals[literal] || literals[-literal] {
			return false
		}
		literals[literal] = true
	}

	for _, clause := range instance.Clauses {
		satisfied := false
		for _, literal := range clause {
			if literals[literal] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}

	return true
}
