package classifier

import (
	"context"
	"fmt"
)

// AttemptError describes one failed attempt. Err is nil when the attempt
// produced a value that was rejected.
type AttemptError struct {
	Attempt int
	Value   string
	Err     error
}

func (e *AttemptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("attempt %d failed: %v", e.Attempt, e.Err)
	}
	return fmt.Sprintf("attempt %d returned invalid value %q", e.Attempt, e.Value)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// Retry calls op up to maxAttempts times and returns the first result accepted
// by valid. When every attempt fails, or ctx is done, it returns fallback.
// Per-attempt failures are collected in order.
func Retry[T any](ctx context.Context, op func(ctx context.Context, attempt int) (T, error), valid func(T) bool, maxAttempts int, fallback T) (T, []error) {
	var failures []error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			failures = append(failures, &AttemptError{Attempt: attempt, Err: err})
			return fallback, failures
		}

		value, err := op(ctx, attempt)
		if err != nil {
			failures = append(failures, &AttemptError{Attempt: attempt, Err: err})
			continue
		}

		if valid(value) {
			return value, failures
		}

		failures = append(failures, &AttemptError{Attempt: attempt, Value: fmt.Sprint(value)})
	}

	return fallback, failures
}
