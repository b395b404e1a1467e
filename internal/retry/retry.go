// Package retry runs an operation a bounded number of times with a fixed
// delay between attempts.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried.
type Policy struct {
	// Attempts is the total number of tries. Values below 1 mean a single try.
	Attempts int
	// Delay is waited between two tries.
	Delay time.Duration
	// Retryable filters the errors worth another try. Nil retries every error.
	Retryable func(error) bool
	// OnRetry is called before waiting for the next try.
	OnRetry func(attempt int, err error)
}

// Once is the policy that never retries.
var Once = Policy{Attempts: 1}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. The last error is returned. Waiting is cancelled with ctx.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= attempts || (p.Retryable != nil && !p.Retryable(err)) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
