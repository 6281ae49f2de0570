// Package retry wraps flaky operations with bounded exponential backoff.
// It is used for navigation, where failures are transient-network-shaped.
// DOM interactions deliberately do not use it; those follow the executor's
// boolean no-throw convention instead, because re-running the same selector
// rarely changes the outcome.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Options controls a retry loop.
type Options struct {
	// MaxRetries is the total number of attempts, not the number of retries
	// after the first attempt. Defaults to 3.
	MaxRetries int
	// BaseDelay seeds the exponential backoff: the wait before attempt n+1
	// is BaseDelay * 2^(n-1). Defaults to 1s.
	BaseDelay time.Duration
	// Sleep is injectable for tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
	return o
}

// Do runs op until it succeeds or the attempt budget is exhausted. The error
// returned after exhaustion wraps the last underlying failure, so callers
// can still match it with errors.Is/As.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("retry aborted before attempt %d: %w", attempt, err)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == opts.MaxRetries {
			break
		}

		delay := opts.BaseDelay * (1 << (attempt - 1))
		if sleepErr := opts.Sleep(ctx, delay); sleepErr != nil {
			return zero, fmt.Errorf("retry aborted during backoff: %w", sleepErr)
		}
	}

	return zero, fmt.Errorf("all %d attempts failed: %w", opts.MaxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
