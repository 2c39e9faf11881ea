package postgres

import (
	"context"
	"math/rand"
	"time"
)

// retryExecutor retries a transient write against Postgres with
// exponential backoff and jitter. Adapted from the teacher's
// internal/database/postgres/retry.go RetryExecutor, trimmed to the single
// Execute path the archive Store's Put needs (no circuit breaker: a
// bounded archive write burst is throttled by golang.org/x/time/rate
// before it ever reaches here, so retry only has to absorb transient
// connection blips, not sustained overload).
type retryExecutor struct {
	maxRetries    int
	initialDelay  time.Duration
	maxDelay      time.Duration
	backoffFactor float64
}

func newRetryExecutor() retryExecutor {
	return retryExecutor{
		maxRetries:    3,
		initialDelay:  50 * time.Millisecond,
		maxDelay:      2 * time.Second,
		backoffFactor: 2.0,
	}
}

func (r retryExecutor) Execute(ctx context.Context, op func() error) error {
	delay := r.initialDelay
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if attempt == r.maxRetries {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = time.Duration(float64(delay) * r.backoffFactor)
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
		delay += time.Duration(rand.Float64() * float64(delay) * 0.1)
	}
	return lastErr
}
