package arch

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes architecture construction and edit failures.
type ErrorCode string

const (
	// ErrCodeHeterogeneous indicates a processing element built over more
	// than one concrete operator type.
	ErrCodeHeterogeneous ErrorCode = "HETEROGENEOUS_TYPES"

	// ErrCodeWrongKind indicates a process of the wrong concrete kind for
	// the resource (an operator process in a memory, or vice versa).
	ErrCodeWrongKind ErrorCode = "WRONG_PROCESS_KIND"

	// ErrCodePortBound indicates a memory configured with fewer ports than
	// the lower bound its collection requires.
	ErrCodePortBound ErrorCode = "PORT_BOUND_VIOLATION"

	// ErrCodeScheduleTimeMismatch indicates resources built over differing
	// schedule times.
	ErrCodeScheduleTimeMismatch ErrorCode = "SCHEDULE_TIME_MISMATCH"

	// ErrCodePortMismatch indicates the union of memory access ports does
	// not exactly cover the union of processing-element ports.
	ErrCodePortMismatch ErrorCode = "PORT_MISMATCH"

	// ErrCodeNotImplemented marks recognized-but-unsupported
	// configurations, kept distinct from generic validation failures.
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// ErrCodeUnknownResource indicates a resource name that is not part of
	// the architecture.
	ErrCodeUnknownResource ErrorCode = "UNKNOWN_RESOURCE"

	// ErrCodeUnknownProcess indicates a process name not found on the
	// resource it was referenced through.
	ErrCodeUnknownProcess ErrorCode = "UNKNOWN_PROCESS"
)

// Error is the typed error for architecture failures. Port-bound
// violations carry the requested value and the computed lower bound.
type Error struct {
	Code     ErrorCode
	Message  string
	Resource string
	Process  string
	Value    int
	Bound    int
}

func (e *Error) Error() string {
	switch {
	case e.Code == ErrCodePortBound:
		return fmt.Sprintf("%s: %s (resource=%s, requested=%d, bound=%d)", e.Code, e.Message, e.Resource, e.Value, e.Bound)
	case e.Process != "" && e.Resource != "":
		return fmt.Sprintf("%s: %s (resource=%s, process=%s)", e.Code, e.Message, e.Resource, e.Process)
	case e.Resource != "":
		return fmt.Sprintf("%s: %s (resource=%s)", e.Code, e.Message, e.Resource)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsNotImplemented reports whether err marks a recognized configuration
// this package does not support yet.
func IsNotImplemented(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == ErrCodeNotImplemented
}
