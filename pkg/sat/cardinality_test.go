package sat

import (
	"context"
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
)

// checkEncoding verifies a cardinality encoding exhaustively: for every
// assignment of the base literals, the clauses (with auxiliary registers left
// free) must be satisfiable exactly when the assignment meets the bound.
func checkEncoding(
	t *testing.T,
	n uint64,
	encode func(literals []int64, newVariable func() int64) [][]int64,
	accepts func(trueCount uint64) bool,
) {
	t.Helper()

	literals := make([]int64, n)
	for i := range literals {
		literals[i] = int64(i + 1)
	}

	nextVariable := int64(n)
	newVariable := func() int64 {
		nextVariable++
		return nextVariable
	}
	clauses := encode(literals, newVariable)

	solver := NewDPLLSolver()
	for mask := uint64(0); mask < 1<<n; mask++ {
		// Force the base assignment with unit clauses
		forced := make([][]int64, 0, len(clauses)+int(n))
		forced = append(forced, clauses...)
		for i := uint64(0); i < n; i++ {
			literal := int64(i + 1)
			if mask&(1<<i) == 0 {
				literal = -literal
			}
			forced = append(forced, []int64{literal})
		}

		instance := &SAT{Variables: uint64(nextVariable), Clauses: forced}
		result, err := solver.Solve(context.Background(), instance)

		assert.Nil(t, err)
		if accepts(uint64(bits.OnesCount64(mask))) {
			assert.Equal(t, Sat, result.Outcome, "mask %b must satisfy the bound", mask)
		} else {
			assert.Equal(t, Unsat, result.Outcome, "mask %b must violate the bound", mask)
		}
	}
}

func TestAtMostK(t *testing.T) {
	for n := uint64(1); n <= 5; n++ {
		for k := uint64(0); k <= n+1; k++ {
			t.Run(fmt.Sprintf("n=%v k=%v", n, k), func(t *testing.T) {
				checkEncoding(t, n,
					func(literals []int64, newVariable func() int64) [][]int64 {
						return AtMostK(literals, k, newVariable)
					},
					func(trueCount uint64) bool { return trueCount <= k },
				)
			})
		}
	}
}

func TestAtLeastK(t *testing.T) {
	for n := uint64(1); n <= 5; n++ {
		for k := uint64(0); k <= n; k++ {
			t.Run(fmt.Sprintf("n=%v k=%v", n, k), func(t *testing.T) {
				checkEncoding(t, n,
					func(literals []int64, newVariable func() int64) [][]int64 {
						return AtLeastK(literals, k, newVariable)
					},
					func(trueCount uint64) bool { return trueCount >= k },
				)
			})
		}
	}
}

func TestAtLeastKUnreachableBound(t *testing.T) {
	// Arrange
	clauses := AtLeastK([]int64{1, 2}, 3, func() int64 { panic("no auxiliary variable expected") })
	instance := &SAT{Variables: 2, Clauses: clauses}

	// Act
	result, err := NewDPLLSolver().Solve(context.Background(), instance)

	// Assert
	assert.Nil(t, err)
	assert.Equal(t, Unsat, result.Outcome)
}

func TestExactlyK(t *testing.T) {
	for n := uint64(1); n <= 5; n++ {
		for k := uint64(0); k <= n; k++ {
			t.Run(fmt.Sprintf("n=%v k=%v", n, k), func(t *testing.T) {
				checkEncoding(t, n,
					func(literals []int64, newVariable func() int64) [][]int64 {
						return ExactlyK(literals, k, newVariable)
					},
					func(trueCount uint64) bool { return trueCount == k },
				)
			})
		}
	}
}

func TestCardinalityWithMixedPolarity(t *testing.T) {
	// Bound over negated literals: at most one of -1, -2, -3
	nextVariable := int64(3)
	newVariable := func() int64 {
		nextVariable++
		return nextVariable
	}
	clauses := AtMostK([]int64{-1, -2, -3}, 1, newVariable)

	solver := NewDPLLSolver()

	t.Run("Two false variables violate the bound", func(t *testing.T) {
		forced := append([][]int64{{-1}, {-2}, {3}}, clauses...)
		instance := &SAT{Variables: uint64(nextVariable), Clauses: forced}

		result, err := solver.Solve(context.Background(), instance)

		assert.Nil(t, err)
		assert.Equal(t, Unsat, result.Outcome)
	})

	t.Run("One false variable meets the bound", func(t *testing.T) {
		forced := append([][]int64{{-1}, {2}, {3}}, clauses...)
		instance := &SAT{Variables: uint64(nextVariable), Clauses: forced}

		result, err := solver.Solve(context.Background(), instance)

		assert.Nil(t, err)
		assert.Equal(t, Sat, result.Outcome)
	})
}
