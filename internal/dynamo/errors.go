package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integrator construction and propagation requests.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrInvalidTime indicates a non-finite time, target time or duration.
	ErrInvalidTime = errors.New("dynamo: invalid time (NaN or Inf)")

	// ErrInvalidGrid indicates an empty, non-finite or non-monotonic grid.
	ErrInvalidGrid = errors.New("dynamo: invalid time grid")

	// ErrInvalidTolerance indicates a tolerance that is not finite and positive.
	ErrInvalidTolerance = errors.New("dynamo: tolerance must be finite and positive")

	// ErrInvalidOrder indicates a Taylor order below the supported minimum.
	ErrInvalidOrder = errors.New("dynamo: invalid Taylor order")

	// ErrInvalidStep indicates an unusable step cap or step limit.
	ErrInvalidStep = errors.New("dynamo: invalid step limit")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// UsageError reports a request rejected before any state was touched.
type UsageError struct {
	Op      string
	Detail  string
	Wrapped error
}

func (e *UsageError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Wrapped, e.Detail)
}

func (e *UsageError) Unwrap() error {
	return e.Wrapped
}

// Usagef builds a *UsageError for op wrapping err with a formatted detail.
func Usagef(op string, err error, format string, args ...any) error {
	return &UsageError{Op: op, Detail: fmt.Sprintf(format, args...), Wrapped: err}
}
