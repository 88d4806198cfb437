package sat

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"
)

// dpllSolver is an in-process DPLL engine: two-watched-literal unit
// propagation, chronological backtracking and a static branching order by
// occurrence count. It keeps its own copy of the clause set, so a single SAT
// instance can be handed to several solvers at once.
type dpllSolver struct {
	shuffleSeed uint64
	shuffled    bool
}

func NewDPLLSolver() Solver {
	return &dpllSolver{}
}

// newSeededDPLLSolver permutes the branching order with the given seed. Used
// by the portfolio solver to diversify its workers.
func newSeededDPLLSolver(seed uint64) Solver {
	return &dpllSolver{shuffleSeed: seed, shuffled: true}
}

func (solver *dpllSolver) Solve(ctx context.Context, instance *SAT) (Result, error) {
	state, outcome, err := newSearchState(instance)
	if err != nil {
		return Result{}, err
	} else if outcome == Unsat { // Contradiction among unit clauses or an empty clause
		return Result{Outcome: Unsat}, nil
	}

	state.buildOrder(solver.shuffled, solver.shuffleSeed)
	return state.search(ctx)
}

const deadlinePollMask = 255 // Poll the context once every 256 decisions

type searchState struct {
	numVars       uint64
	clauses       [][]int64
	watches       [][]int // Clause indices watching each literal, indexed by encodeLiteral
	assigned      []int8  // Per variable: 1 true, -1 false, 0 unassigned
	assignedCount uint64
	trail         []int64 // Assigned literals in chronological order
	qhead         int     // Propagation frontier within the trail
	order         []int64 // Branching order over variables

	decisions    uint64
	conflicts    uint64
	propagations uint64
}

// Literal encoding for watch-list indexing: positive literals map to even
// indices, negative ones to odd.
func encodeLiteral(literal int64) int64 {
	if literal > 0 {
		return 2 * (literal - 1)
	}
	return 2*(-literal-1) + 1
}

func newSearchState(instance *SAT) (*searchState, Outcome, error) {
	state := &searchState{
		numVars:  instance.Variables,
		clauses:  make([][]int64, 0, len(instance.Clauses)),
		watches:  make([][]int, 2*instance.Variables),
		assigned: make([]int8, instance.Variables+1),
	}

	units := make([]int64, 0)
	for _, clause := range instance.Clauses {
		if len(clause) == 0 {
			return nil, Unsat, nil
		}

		// Deduplicate literals and drop tautological clauses
		seen := make(map[int64]bool, len(clause))
		reduced := make([]int64, 0, len(clause))
		tautology := false
		for _, literal := range clause {
			variable := literal
			if variable < 0 {
				variable = -variable
			}
			if literal == 0 || uint64(variable) > instance.Variables {
				return nil, Unknown, fmt.Errorf("literal %v is out of range for %v variables", literal, instance.Variables)
			}
			if seen[-literal] {
				tautology = true
				break
			}
			if !seen[literal] {
				seen[literal] = true
				reduced = append(reduced, literal)
			}
		}
		if tautology {
			continue
		}

		if len(reduced) == 1 {
			units = append(units, reduced[0])
			continue
		}

		index := len(state.clauses)
		state.clauses = append(state.clauses, reduced)
		state.watches[encodeLiteral(reduced[0])] = append(state.watches[encodeLiteral(reduced[0])], index)
		state.watches[encodeLiteral(reduced[1])] = append(state.watches[encodeLiteral(reduced[1])], index)
	}

	// Assert top-level units before any decision is made
	for _, literal := range units {
		switch state.value(literal) {
		case 1:
			continue
		case -1:
			return nil, Unsat, nil
		}
		state.enqueue(literal)
	}
	if !state.propagate() {
		return nil, Unsat, nil
	}

	return state, Unknown, nil
}

func (state *searchState) buildOrder(shuffle bool, seed uint64) {
	occurrences := make([]uint64, state.numVars+1)
	for _, clause := range state.clauses {
		for _, literal := range clause {
			if literal > 0 {
				occurrences[literal]++
			} else {
				occurrences[-literal]++
			}
		}
	}

	state.order = make([]int64, 0, state.numVars)
	for variable := int64(1); uint64(variable) <= state.numVars; variable++ {
		state.order = append(state.order, variable)
	}
	sort.SliceStable(state.order, func(i, j int) bool {
		return occurrences[state.order[i]] > occurrences[state.order[j]]
	})

	if shuffle {
		generator := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		generator.Shuffle(len(state.order), func(i, j int) {
			state.order[i], state.order[j] = state.order[j], state.order[i]
		})
	}
}

func (state *searchState) value(literal int64) int8 {
	if literal > 0 {
		return state.assigned[literal]
	}
	return -state.assigned[-literal]
}

func (state *searchState) enqueue(literal int64) {
	variable := literal
	polarity := int8(1)
	if literal < 0 {
		variable = -literal
		polarity = -1
	}
	state.assigned[variable] = polarity
	state.assignedCount++
	state.trail = append(state.trail, literal)
}

// undo unwinds the trail down to the given mark and resets the propagation
// frontier to it.
func (state *searchState) undo(mark int) {
	for i := len(state.trail) - 1; i >= mark; i-- {
		literal := state.trail[i]
		if literal > 0 {
			state.assigned[literal] = 0
		} else {
			state.assigned[-literal] = 0
		}
		state.assignedCount--
	}
	state.trail = state.trail[:mark]
	state.qhead = mark
}

// propagate runs two-watched-literal unit propagation from the current
// frontier. Returns false on conflict.
func (state *searchState) propagate() bool {
	for state.qhead < len(state.trail) {
		assertedLiteral := state.trail[state.qhead]
		state.qhead++
		state.propagations++

		falseLiteral := -assertedLiteral
		watchList := state.watches[encodeLiteral(falseLiteral)]

		kept := 0
		for i := 0; i < len(watchList); i++ {
			clauseIndex := watchList[i]
			clause := state.clauses[clauseIndex]

			// Keep the false literal at position 1
			if clause[0] == falseLiteral {
				clause[0], clause[1] = clause[1], clause[0]
			}

			// Clause already satisfied through its other watch
			if state.value(clause[0]) == 1 {
				watchList[kept] = clauseIndex
				kept++
				continue
			}

			// Look for a non-false literal to watch instead
			relocated := false
			for k := 2; k < len(clause); k++ {
				if state.value(clause[k]) != -1 {
					clause[1], clause[k] = clause[k], clause[1]
					state.watches[encodeLiteral(clause[1])] = append(state.watches[encodeLiteral(clause[1])], clauseIndex)
					relocated = true
					break
				}
			}
			if relocated {
				continue
			}

			// Clause is unit or conflicting on its first watch
			watchList[kept] = clauseIndex
			kept++
			switch state.value(clause[0]) {
			case 0:
				state.enqueue(clause[0])
			case -1:
				for i++; i < len(watchList); i++ {
					watchList[kept] = watchList[i]
					kept++
				}
				state.watches[encodeLiteral(falseLiteral)] = watchList[:kept]
				return false
			}
		}
		state.watches[encodeLiteral(falseLiteral)] = watchList[:kept]
	}
	return true
}

func (state *searchState) pickBranchVariable() int64 {
	if state.assignedCount == state.numVars {
		return 0
	}
	for _, variable := range state.order {
		if state.assigned[variable] == 0 {
			return variable
		}
	}
	return 0
}

type decisionFrame struct {
	literal int64
	mark    int
	flipped bool
}

func (state *searchState) search(ctx context.Context) (Result, error) {
	frames := make([]decisionFrame, 0, state.numVars)
	deadline, hasDeadline := ctx.Deadline()

	for {
		if state.decisions&deadlinePollMask == 0 {
			select {
			case <-ctx.Done():
				return state.result(Unknown), nil
			default:
			}
			if hasDeadline && time.Now().After(deadline) {
				return state.result(Unknown), nil
			}
		}

		variable := state.pickBranchVariable()
		if variable == 0 { // Total assignment satisfying every clause
			return state.result(Sat), nil
		}

		state.decisions++
		// Branch negative first: exclusivity-heavy instances keep most
		// variables false in any solution
		frames = append(frames, decisionFrame{literal: -variable, mark: len(state.trail)})
		state.enqueue(-variable)

		for !state.propagate() {
			state.conflicts++

			backtracked := false
			for len(frames) > 0 {
				frame := &frames[len(frames)-1]
				state.undo(frame.mark)
				if !frame.flipped {
					frame.flipped = true
					frame.literal = -frame.literal
					state.enqueue(frame.literal)
					backtracked = true
					break
				}
				frames = frames[:len(frames)-1]
			}
			if !backtracked {
				return state.result(Unsat), nil
			}
		}
	}
}

func (state *searchState) result(outcome Outcome) Result {
	result := Result{
		Outcome:      outcome,
		Decisions:    state.decisions,
		Conflicts:    state.conflicts,
		Propagations: state.propagations,
	}
	if outcome == Sat {
		solution := make(Solution, 0, state.numVars)
		for variable := int64(1); uint64(variable) <= state.numVars; variable++ {
			if state.assigned[variable] == -1 {
				solution = append(solution, -variable)
			} else {
				solution = append(solution, variable)
			}
		}
		result.Solution = solution
	}
	return result
}
