package process

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes process-collection failures.
type ErrorCode string

const (
	// ErrCodeTooLong indicates a process whose lifetime exceeds the
	// schedule period; it can never fit one cycle of any resource.
	ErrCodeTooLong ErrorCode = "PROCESS_TOO_LONG"

	// ErrCodeUnknownProcess indicates a process that is not a member of
	// the collection it was referenced on.
	ErrCodeUnknownProcess ErrorCode = "UNKNOWN_PROCESS"

	// ErrCodeUnknownStrategy indicates an unrecognized splitting strategy
	// name.
	ErrCodeUnknownStrategy ErrorCode = "UNKNOWN_STRATEGY"

	// ErrCodeMissingPEAssignment indicates a mux-aware strategy was run
	// without the processing-element mapping it requires.
	ErrCodeMissingPEAssignment ErrorCode = "MISSING_PE_ASSIGNMENT"

	// ErrCodeWrongKind indicates a process of the wrong concrete kind for
	// the requested computation (e.g. an operator process in a port
	// split).
	ErrCodeWrongKind ErrorCode = "WRONG_PROCESS_KIND"

	// ErrCodeColoring indicates the underlying coloring strategy failed
	// (budget exhaustion in the exact colorer).
	ErrCodeColoring ErrorCode = "COLORING_FAILED"
)

// Error is the typed error for collection and splitting failures; it
// names the offending process where one exists.
type Error struct {
	Code    ErrorCode
	Message string
	Process string
}

func (e *Error) Error() string {
	if e.Process != "" {
		return fmt.Sprintf("%s: %s (process=%s)", e.Code, e.Message, e.Process)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTooLong reports whether err marks a process outliving the period.
func IsTooLong(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == ErrCodeTooLong
}
