package enrich

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// MaxRetries is the number of attempts made for one classification.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether err wraps a *RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff doubles from one second per attempt (0-based), caps at 30s and
// adds up to 50% jitter.
func Backoff(attempt int) time.Duration {
	d := maxBackoff
	if attempt < 5 {
		d = min(time.Second<<attempt, maxBackoff)
	}
	return d + rand.N(d/2)
}

// withRetry repeats fn while it returns a retryable error, up to MaxRetries
// attempts, sleeping wait(attempt) in between.
func withRetry[T any](ctx context.Context, wait func(int) time.Duration, fn func() (T, error)) (T, error) {
	for attempt := 0; ; attempt++ {
		out, err := fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			return out, err
		}
		t := time.NewTimer(wait(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			var zero T
			return zero, ctx.Err()
		case <-t.C:
		}
	}
}
