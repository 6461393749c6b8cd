package harness

import (
	"errors"
	"fmt"
)

// RunErrorCode categorizes transaction errors.
type RunErrorCode string

const (
	// ErrCodeFalseNegative indicates a write accepted while the queue held capacity-1 elements.
	ErrCodeFalseNegative RunErrorCode = "FALSE_NEGATIVE"

	// ErrCodeUnderflow indicates a read accepted while the queue was empty.
	ErrCodeUnderflow RunErrorCode = "UNDERFLOW"

	// ErrCodeOrderMismatch indicates a dequeued value that differs from the model.
	ErrCodeOrderMismatch RunErrorCode = "ORDER_MISMATCH"

	// ErrCodeStaleFlag indicates a full or empty flag that stayed set after
	// the synchronizers had settled.
	ErrCodeStaleFlag RunErrorCode = "STALE_FLAG"

	// ErrCodeFraming indicates a dequeued byte that did not survive the
	// serial line.
	ErrCodeFraming RunErrorCode = "FRAMING_ERROR"
)

// RunError is a transaction error detected by the monitors.
type RunError struct {
	Code    RunErrorCode
	Message string

	// Domain is the domain whose edge exposed the error.
	Domain string

	// TimeNs is the simulated time of that edge.
	TimeNs int64
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Domain != "" {
		return fmt.Sprintf("%s: %s (domain=%s, t=%dns)", e.Code, e.Message, e.Domain, e.TimeNs)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the code of the first RunError in err's chain, or "".
func ErrorCode(err error) RunErrorCode {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsFlagError returns true for errors caused by a wrong full or empty flag.
func IsFlagError(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeFalseNegative, ErrCodeUnderflow, ErrCodeStaleFlag:
		return true
	}
	return false
}
