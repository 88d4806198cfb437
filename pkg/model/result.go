package model

import "time"

// Status is the terminal state of one solve invocation. Infeasibility is an
// expected, common outcome, so every status travels on the result rather
// than as an error.
type Status string

const (
	// StatusOptimal is reserved for a future objective-driven search mode;
	// feasibility-only search never reports it.
	StatusOptimal Status = "optimal"
	// StatusFeasible means a conflict-free assignment was found.
	StatusFeasible Status = "feasible"
	// StatusInfeasible means the search proved no assignment exists.
	StatusInfeasible Status = "infeasible"
	// StatusTimeout means the budget expired before a solution was found and
	// infeasibility was not proven. It must never be presented as a proof of
	// impossibility.
	StatusTimeout Status = "timeout_no_solution"
	// StatusInvalidData means the catalogue failed structural validation or a
	// requirement demands more hours than it has eligible slots. Detected
	// before any search.
	StatusInvalidData Status = "invalid_data"
	// StatusNoVariables means some requirement has no eligible
	// (slot, teacher, room) combination at all. Detected before any search.
	StatusNoVariables Status = "no_variables"
)

// Assignment is one scheduled lesson-hour. Period is 1-based; Day is 0-based
// with day 0 being the first teaching day of the week.
type Assignment struct {
	ClassGroup uint64 `json:"classGroup"`
	Day        uint64 `json:"day"`
	Period     uint64 `json:"period"`
	Subject    uint64 `json:"subject"`
	Teacher    uint64 `json:"teacher"`
	Room       uint64 `json:"room"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

type ConflictKind string

const (
	ConflictInvalidCalendar  ConflictKind = "invalid_calendar"
	ConflictUnknownReference ConflictKind = "unknown_reference"
	ConflictDuplicateId      ConflictKind = "duplicate_id"
	ConflictMalformedMatrix  ConflictKind = "malformed_matrix"
	ConflictInvalidHours     ConflictKind = "invalid_hours"
	ConflictNoTeacher        ConflictKind = "no_eligible_teacher"
	ConflictNoRoom           ConflictKind = "no_fitting_room"
	ConflictNoCombination    ConflictKind = "no_eligible_combination"
	ConflictHoursExceedSlots ConflictKind = "hours_exceed_slots"
	ConflictTeacherOverload  ConflictKind = "teacher_overload"
	ConflictTeacherDeficit   ConflictKind = "teacher_slot_deficit"
	ConflictClassOverflow    ConflictKind = "class_week_overflow"
	ConflictSearchExhausted  ConflictKind = "search_exhausted"
	ConflictBudgetExhausted  ConflictKind = "budget_exhausted"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// EntityRef points at a catalogue entity involved in a conflict, so an
// external caller can highlight the offending configuration.
type EntityRef struct {
	Type string `json:"type"`
	Id   uint64 `json:"id"`
}

type Conflict struct {
	Kind        ConflictKind `json:"kind"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
	Entities    []EntityRef  `json:"entities"`
}

// Statistics describe the search effort. Diagnostic only.
type Statistics struct {
	Variables    uint64        `json:"variables"`
	Clauses      uint64        `json:"clauses"`
	Branches     uint64        `json:"branches"`
	Conflicts    uint64        `json:"conflicts"`
	Propagations uint64        `json:"propagations"`
	WallTime     time.Duration `json:"wallTime"`
}

type SolveResult struct {
	Status      Status       `json:"status"`
	Assignments []Assignment `json:"assignments"`
	Conflicts   []Conflict   `json:"conflicts"`
	Statistics  Statistics   `json:"statistics"`
}
