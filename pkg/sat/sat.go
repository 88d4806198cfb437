package sat

import (
	"fmt"
	"strings"
)

// Solution holds one signed literal per variable: v if the variable is true,
// -v if it is false. A nil solution means no assignment is attached.
type Solution []int64

// SAT is a CNF instance. Variables are numbered from 1 to Variables; a
// positive literal v asserts variable v, a negative literal -v negates it.
type SAT struct {
	Variables uint64
	Clauses   [][]int64
}

func (s SAT) ToDIMACS() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "p cnf %d %d\n", s.Variables, len(s.Clauses))
	for _, clause := range s.Clauses {
		for _, literal := range clause {
			fmt.Fprintf(&builder, "%d ", literal)
		}
		builder.WriteString("0\n")
	}
	return builder.String()
}
