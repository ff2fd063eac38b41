package harness

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrAttemptTimeout marks an attempt that was cancelled by the per-test
// deadline. Timeouts consume an attempt and are retried like any failure.
var ErrAttemptTimeout = errors.New("test attempt deadline exceeded")

// InvocationError means the harness could not run the test body at all,
// e.g. the body panicked before producing a result. It is distinct from a
// logical failure and classifies the case as StatusErrored.
type InvocationError struct {
	Value any
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("test body could not be invoked: %v", e.Value)
}

// IsTimeout reports whether err classifies as a deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrAttemptTimeout)
}

// isInvocation reports whether err came from a failed invocation rather
// than from the test logic.
func isInvocation(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie)
}
