package sat

import "context"

type Outcome int

const (
	// Sat means a satisfying assignment was found; Result.Solution holds it.
	Sat Outcome = iota
	// Unsat means the search space was exhausted and no assignment exists.
	Unsat
	// Unknown means the context expired before a solution was found and
	// unsatisfiability was not proven. It is never a proof of anything.
	Unknown
)

// Result carries the search outcome together with basic search statistics.
// The statistics are diagnostic only and never affect correctness.
type Result struct {
	Outcome      Outcome
	Solution     Solution
	Decisions    uint64
	Conflicts    uint64
	Propagations uint64
}

// Solver decides a CNF instance within the bounds of the given context.
// Implementations must return shortly after the context is cancelled,
// reporting Unknown if neither a solution nor an unsatisfiability proof was
// reached in time.
type Solver interface {
	Solve(ctx context.Context, instance *SAT) (Result, error)
}
