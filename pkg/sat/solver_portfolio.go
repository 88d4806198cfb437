package sat

import (
	"context"
	"runtime"
	"sync"
)

// portfolioSolver races several DPLL workers over the same instance, each
// with a different branching permutation. The first worker to reach a
// definitive outcome (Sat or Unsat) wins and the rest are cancelled. If every
// worker runs out of budget the portfolio reports Unknown.
type portfolioSolver struct {
	workers int
}

func NewPortfolioSolver(workers int) Solver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &portfolioSolver{workers: workers}
}

func (solver *portfolioSolver) Solve(ctx context.Context, instance *SAT) (Result, error) {
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type workerResult struct {
		result Result
		err    error
	}
	results := make(chan workerResult, solver.workers)

	var waitGroup sync.WaitGroup
	for worker := range solver.workers {
		waitGroup.Add(1)
		go func(worker int) {
			defer waitGroup.Done()

			var engine Solver
			if worker == 0 {
				engine = NewDPLLSolver() // Keep one worker on the plain occurrence order
			} else {
				engine = newSeededDPLLSolver(uint64(worker))
			}

			result, err := engine.Solve(workerCtx, instance)
			results <- workerResult{result: result, err: err}
			if err == nil && result.Outcome != Unknown {
				cancel() // First definitive result wins
			}
		}(worker)
	}

	go func() {
		waitGroup.Wait()
		close(results)
	}()

	aggregate := Result{Outcome: Unknown}
	decided := false
	var firstErr error
	for collected := range results {
		if collected.err != nil {
			if firstErr == nil {
				firstErr = collected.err
			}
			continue
		}
		aggregate.Decisions += collected.result.Decisions
		aggregate.Conflicts += collected.result.Conflicts
		aggregate.Propagations += collected.result.Propagations
		if !decided && collected.result.Outcome != Unknown {
			aggregate.Outcome = collected.result.Outcome
			aggregate.Solution = collected.result.Solution
			decided = true
		}
	}

	if !decided && firstErr != nil {
		return Result{}, firstErr
	}
	return aggregate, nil
}
