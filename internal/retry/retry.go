// Package retry runs an operation a bounded number of times with a fixed
// delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned (wrapped) when every attempt failed
var ErrExhausted = errors.New("retries exhausted")

// Policy controls how often an operation is attempted
type Policy struct {
	// Attempts is the total number of attempts, including the first one
	Attempts int

	// Delay is the constant pause between two attempts
	Delay time.Duration

	// OnRetry, if set, is called after each failed attempt that will be retried
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns three attempts one second apart
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Delay: time.Second}
}

// Do calls fn until it succeeds or the policy is exhausted. It waits Delay
// between attempts and never after the last one. Cancelling ctx aborts the wait.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, attempts, lastErr)
}

// Value is Do for operations that produce a result
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func(ctx context.Context, attempt int) error {
		v, err := fn(ctx, attempt)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
