package sched

import (
	"errors"
	"fmt"
)

// ScheduleErrorCode categorizes scheduling failures.
type ScheduleErrorCode string

const (
	// ErrCodeUnscheduled indicates an operation that has no start time yet
	// was used where a scheduled one is required.
	ErrCodeUnscheduled ScheduleErrorCode = "UNSCHEDULED_OPERATION"

	// ErrCodeMoveOutOfBounds indicates a MoveOperation delta outside
	// [-backward slack, forward slack].
	ErrCodeMoveOutOfBounds ScheduleErrorCode = "MOVE_OUT_OF_BOUNDS"

	// ErrCodeScheduleTimeTooShort indicates SetScheduleTime below the
	// minimum feasible period.
	ErrCodeScheduleTimeTooShort ScheduleErrorCode = "SCHEDULE_TIME_TOO_SHORT"

	// ErrCodeNotCyclic indicates a rotation was requested on a non-cyclic
	// schedule.
	ErrCodeNotCyclic ScheduleErrorCode = "NOT_CYCLIC"

	// ErrCodeBadResolution indicates a time-resolution change by a factor
	// that does not divide every timing value in use.
	ErrCodeBadResolution ScheduleErrorCode = "BAD_RESOLUTION_FACTOR"

	// ErrCodeStalled indicates a resource-constrained list scheduler made
	// no progress for too many consecutive time steps.
	ErrCodeStalled ScheduleErrorCode = "SCHEDULER_STALLED"

	// ErrCodeMissingExecTime indicates operator processes were requested
	// for an operation without a configured execution time.
	ErrCodeMissingExecTime ScheduleErrorCode = "MISSING_EXECUTION_TIME"

	// ErrCodeBudgetExhausted indicates the exact scheduler ran out of its
	// evaluation budget before proving a solution.
	ErrCodeBudgetExhausted ScheduleErrorCode = "BUDGET_EXHAUSTED"

	// ErrCodeInfeasible indicates no schedule exists within the given
	// period and resource constraints.
	ErrCodeInfeasible ScheduleErrorCode = "INFEASIBLE"
)

// ScheduleError is the typed error for schedule construction and mutation
// failures. Bounds violations carry the violating value and the valid
// range so the caller can see how far off the request was.
type ScheduleError struct {
	Code    ScheduleErrorCode
	Message string
	Op      string // offending operation id, if any
	Value   int    // violating value for bounds errors
	Lo, Hi  int    // valid range for bounds errors
}

func (e *ScheduleError) Error() string {
	switch {
	case e.Code == ErrCodeMoveOutOfBounds || e.Code == ErrCodeScheduleTimeTooShort:
		if e.Op != "" {
			return fmt.Sprintf("%s: %s (op=%s, value=%d, valid=[%d, %d])", e.Code, e.Message, e.Op, e.Value, e.Lo, e.Hi)
		}
		return fmt.Sprintf("%s: %s (value=%d, valid=[%d, %d])", e.Code, e.Message, e.Value, e.Lo, e.Hi)
	case e.Op != "":
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsBoundsError reports whether err is a move or schedule-time bounds
// violation. Uses errors.As to handle wrapped errors.
func IsBoundsError(err error) bool {
	var se *ScheduleError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == ErrCodeMoveOutOfBounds || se.Code == ErrCodeScheduleTimeTooShort || se.Code == ErrCodeBadResolution
}

// IsStalled reports whether err is a list-scheduler liveness failure.
func IsStalled(err error) bool {
	var se *ScheduleError
	return errors.As(err, &se) && se.Code == ErrCodeStalled
}
