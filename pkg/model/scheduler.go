package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"shibutz/pkg/sat"
)

// SearchMode is a type-level statement about what the search optimizes.
// FeasibilityOnly is the single supported mode: find any assignment
// satisfying every hard constraint, with no preference among valid
// solutions. An objective-driven mode would be an additional value here, not
// a rewrite.
type SearchMode uint8

const FeasibilityOnly SearchMode = iota

// ErrInconsistentSolution marks an internal-consistency failure: the search
// engine produced an assignment the independent validator rejects. It is
// never a legitimate solver outcome.
var ErrInconsistentSolution = errors.New("search produced an assignment that fails independent validation")

// Scheduler turns a catalogue snapshot into a conflict-free weekly timetable
// or a diagnosed failure. Implementations are stateless across invocations
// and never mutate the catalogue; one instance may serve concurrent solves.
type Scheduler interface {
	// Solve runs one bounded feasibility search. Every expected outcome,
	// infeasibility included, travels on the result's status; the returned
	// error is reserved for internal failures. A non-positive time limit
	// means no deadline.
	Solve(catalogue Catalogue, timeLimit time.Duration) (SolveResult, error)
}

func NewScheduler(solver sat.Solver, logger *zap.Logger) Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &satScheduler{
		solver: solver,
		logger: logger,
		mode:   FeasibilityOnly,
	}
}

type satScheduler struct {
	solver sat.Solver
	logger *zap.Logger
	mode   SearchMode
}

func (scheduler *satScheduler) Solve(catalogue Catalogue, timeLimit time.Duration) (SolveResult, error) {
	start := time.Now()

	if scheduler.mode != FeasibilityOnly {
		return SolveResult{}, fmt.Errorf("unsupported search mode %v", scheduler.mode)
	}

	//** Time grid: precondition violations surface before anything else
	grid, err := newTimeGrid(catalogue.Calendar)
	if err != nil {
		return resultWithTime(SolveResult{
			Status: StatusInvalidData,
			Conflicts: []Conflict{{
				Kind:        ConflictInvalidCalendar,
				Severity:    SeverityError,
				Description: err.Error(),
			}},
		}, start), nil
	}

	//** Structural validation of the catalogue snapshot
	index, structural := catalogue.validate(grid)
	if len(structural) > 0 {
		scheduler.logger.Info("catalogue failed structural validation", zap.Int("conflicts", len(structural)))
		return resultWithTime(SolveResult{Status: StatusInvalidData, Conflicts: structural}, start), nil
	}

	//** Eligibility filtering ahead of variable creation
	filtered := filterEligibility(&catalogue, index, grid)
	emptyRequirements := slices.ContainsFunc(filtered, func(candidates requirementCandidates) bool {
		return len(candidates.tuples) == 0
	})
	if emptyRequirements {
		conflicts := diagnoseNoVariables(filtered, index)
		scheduler.logger.Info("requirements with no eligible combinations", zap.Int("conflicts", len(conflicts)))
		return resultWithTime(SolveResult{Status: StatusNoVariables, Conflicts: conflicts}, start), nil
	}

	//** Decision variables and constraint compilation
	arena := buildVariableArena(filtered)
	instance, hourConflicts := encodeConstraints(arena, filtered, index)
	if len(hourConflicts) > 0 {
		scheduler.logger.Info("requirements demand more hours than their eligible slots", zap.Int("conflicts", len(hourConflicts)))
		return resultWithTime(SolveResult{
			Status:     StatusInvalidData,
			Conflicts:  hourConflicts,
			Statistics: Statistics{Variables: arena.count()},
		}, start), nil
	}

	statistics := Statistics{
		Variables: arena.count(),
		Clauses:   uint64(len(instance.Clauses)),
	}
	scheduler.logger.Debug("constraint instance built",
		zap.Uint64("decisionVariables", arena.count()),
		zap.Uint64("satVariables", instance.Variables),
		zap.Uint64("clauses", statistics.Clauses),
	)

	//** Bounded search
	ctx := context.Background()
	if timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeLimit)
		defer cancel()
	}

	searchResult, err := scheduler.solver.Solve(ctx, instance)
	if err != nil {
		return SolveResult{}, fmt.Errorf("search engine failed: %w", err)
	}
	statistics.Branches = searchResult.Decisions
	statistics.Conflicts = searchResult.Conflicts
	statistics.Propagations = searchResult.Propagations

	switch searchResult.Outcome {
	case sat.Sat:
		assignments := extractAssignments(searchResult.Solution, arena, grid)
		if err := verifyAssignments(assignments, &catalogue, index, grid); err != nil {
			return SolveResult{}, fmt.Errorf("%w: %v", ErrInconsistentSolution, err)
		}
		scheduler.logger.Info("feasible timetable found",
			zap.Int("assignments", len(assignments)),
			zap.Uint64("branches", statistics.Branches),
			zap.Duration("wallTime", time.Since(start)),
		)
		return resultWithTime(SolveResult{
			Status:      StatusFeasible,
			Assignments: assignments,
			Statistics:  statistics,
		}, start), nil

	case sat.Unsat:
		conflicts := diagnoseInfeasibility(&catalogue, index, grid, filtered, false)
		scheduler.logger.Info("catalogue proven infeasible", zap.Int("conflicts", len(conflicts)))
		return resultWithTime(SolveResult{
			Status:     StatusInfeasible,
			Conflicts:  conflicts,
			Statistics: statistics,
		}, start), nil

	default:
		conflicts := diagnoseInfeasibility(&catalogue, index, grid, filtered, true)
		scheduler.logger.Info("time budget expired without a solution", zap.Duration("timeLimit", timeLimit))
		return resultWithTime(SolveResult{
			Status:     StatusTimeout,
			Conflicts:  conflicts,
			Statistics: statistics,
		}, start), nil
	}
}

// extractAssignments converts the true-valued decision variables into
// structured lessons, ordered by day, period and class group. Auxiliary
// cardinality registers above the arena are ignored.
func extractAssignments(solution sat.Solution, arena *variableArena, grid *timeGrid) []Assignment {
	assignments := make([]Assignment, 0)
	for _, literal := range solution {
		if literal <= 0 || literal > int64(arena.count()) {
			continue
		}
		variable := arena.variable(literal)
		startTime, endTime := grid.periodSpan(variable.slot.period)

		assignments = append(assignments, Assignment{
			ClassGroup: variable.classGroup,
			Day:        variable.slot.day,
			Period:     variable.slot.period,
			Subject:    variable.subject,
			Teacher:    variable.teacher,
			Room:       variable.room,
			StartTime:  startTime,
			EndTime:    endTime,
		})
	}

	slices.SortFunc(assignments, func(a, b Assignment) int {
		if a.Day != b.Day {
			return int(a.Day) - int(b.Day)
		}
		if a.Period != b.Period {
			return int(a.Period) - int(b.Period)
		}
		return int(a.ClassGroup) - int(b.ClassGroup)
	})
	return assignments
}

func resultWithTime(result SolveResult, start time.Time) SolveResult {
	result.Statistics.WallTime = time.Since(start)
	return result
}
