package httputil

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
)

// RetryableError marks a transient failure. Only errors wrapped in it are
// retried by [Retry].
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy controls how often and how patiently [Retry] tries again.
type Policy struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt; doubles afterwards
	Clock    clock.Clock   // nil means the wall clock
}

// DefaultPolicy is 3 attempts starting at 1 second.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// Retry calls fn until it succeeds, returns a non-retryable error or the
// policy runs out of attempts. It returns the last error, or ctx.Err() when
// the context ends while waiting.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	delay := p.Delay

	var lastErr error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) || i == attempts-1 {
			break
		}

		t := clk.Timer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
			delay *= 2
		}
	}
	return lastErr
}

// IsRetryable reports whether err is wrapped in a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
