package sat

import "github.com/samber/lo"

// Sequential-counter cardinality encodings (Sinz, 2005). Auxiliary register
// variables are allocated through the newVariable callback, which must return
// a fresh, previously unused variable on every call.

// AtMostK returns clauses enforcing that at most k of the given literals are
// true.
func AtMostK(literals []int64, k uint64, newVariable func() int64) [][]int64 {
	n := uint64(len(literals))
	if k >= n {
		return nil
	}
	if k == 0 {
		return lo.Map(literals, func(literal int64, _ int) []int64 {
			return []int64{-literal}
		})
	}

	// registers[i][j] reads "at least j+1 of the first i+1 literals are true"
	registers := make([][]int64, n-1)
	for i := range registers {
		registers[i] = make([]int64, k)
		for j := range registers[i] {
			registers[i][j] = newVariable()
		}
	}

	clauses := make([][]int64, 0, n*(2*k+1))

	clauses = append(clauses, []int64{-literals[0], registers[0][0]})
	for j := uint64(1); j < k; j++ {
		clauses = append(clauses, []int64{-registers[0][j]})
	}

	for i := uint64(1); i < n-1; i++ {
		clauses = append(clauses,
			[]int64{-literals[i], registers[i][0]},
			[]int64{-registers[i-1][0], registers[i][0]},
		)
		for j := uint64(1); j < k; j++ {
			clauses = append(clauses,
				[]int64{-literals[i], -registers[i-1][j-1], registers[i][j]},
				[]int64{-registers[i-1][j], registers[i][j]},
			)
		}
		clauses = append(clauses, []int64{-literals[i], -registers[i-1][k-1]})
	}

	clauses = append(clauses, []int64{-literals[n-1], -registers[n-2][k-1]})

	return clauses
}

// AtLeastK returns clauses enforcing that at least k of the given literals
// are true. A bound larger than the literal count yields an empty clause,
// making the instance trivially unsatisfiable.
func AtLeastK(literals []int64, k uint64, newVariable func() int64) [][]int64 {
	n := uint64(len(literals))
	if k == 0 {
		return nil
	}
	if k > n {
		return [][]int64{{}}
	}
	if k == n {
		return lo.Map(literals, func(literal int64, _ int) []int64 {
			return []int64{literal}
		})
	}
	if k == 1 {
		clause := make([]int64, len(literals))
		copy(clause, literals)
		return [][]int64{clause}
	}

	// At least k true is at most n-k false
	negated := lo.Map(literals, func(literal int64, _ int) int64 { return -literal })
	return AtMostK(negated, n-k, newVariable)
}

// ExactlyK returns clauses enforcing that exactly k of the given literals are
// true.
func ExactlyK(literals []int64, k uint64, newVariable func() int64) [][]int64 {
	clauses := AtLeastK(literals, k, newVariable)
	return append(clauses, AtMostK(literals, k, newVariable)...)
}
