package parser

import (
	"context"
	"time"
)

// RetryPolicy wraps a fallible operation with bounded retries and a
// backoff schedule.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the delay after a failed attempt (1-based).
	Backoff func(attempt int) time.Duration
	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is 3 attempts with exponential backoff:
// 2^attempt * 500ms, i.e. ~1s after the first failure, ~2s after the
// second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * 500 * time.Millisecond
		},
	}
}

// Do runs fn up to MaxAttempts times, sleeping between attempts. The
// sleep yields to the context so cancellation is honored mid-backoff.
// After the final attempt the last error is returned, not retried.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Backoff(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
