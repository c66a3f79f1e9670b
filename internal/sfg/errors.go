package sfg

import (
	"errors"
	"fmt"
)

// GraphErrorCode categorizes graph-level failures.
type GraphErrorCode string

const (
	// ErrCodeUnknownOp indicates a lookup of an operation id that does not
	// exist in the graph.
	ErrCodeUnknownOp GraphErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeUnknownPort indicates a port name not declared by the
	// operation it was referenced on.
	ErrCodeUnknownPort GraphErrorCode = "UNKNOWN_PORT"

	// ErrCodeMissingOffset indicates a latency offset was required for a
	// computation but never attached to the port.
	ErrCodeMissingOffset GraphErrorCode = "MISSING_LATENCY_OFFSET"

	// ErrCodeMissingExecTime indicates an operation without a configured
	// execution time was used where one is mandatory.
	ErrCodeMissingExecTime GraphErrorCode = "MISSING_EXECUTION_TIME"

	// ErrCodeEmptyGraph indicates the precedence structure is too small to
	// schedule (fewer than two levels).
	ErrCodeEmptyGraph GraphErrorCode = "EMPTY_GRAPH"

	// ErrCodeInvalidConnection indicates a Connect call that would drive an
	// already-driven input port or reference a port of the wrong direction.
	ErrCodeInvalidConnection GraphErrorCode = "INVALID_CONNECTION"
)

// GraphError is the typed error for all structural graph failures. Every
// instance names the operation (and port, where relevant) it concerns.
type GraphError struct {
	Code    GraphErrorCode
	Message string
	Op      OpID
	Port    string
}

func (e *GraphError) Error() string {
	switch {
	case e.Op != "" && e.Port != "":
		return fmt.Sprintf("%s: %s (op=%s, port=%s)", e.Code, e.Message, e.Op, e.Port)
	case e.Op != "":
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsMissingOffset reports whether err is a missing-latency-offset error.
// Uses errors.As to handle wrapped errors.
func IsMissingOffset(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge) && ge.Code == ErrCodeMissingOffset
}

// IsEmptyGraph reports whether err is an empty/too-small precedence graph
// error.
func IsEmptyGraph(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge) && ge.Code == ErrCodeEmptyGraph
}
