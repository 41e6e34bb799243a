package scraper

import (
	"context"
	"fmt"
	"time"
)

// retryPolicy runs an operation up to attempts times with a fixed pause between tries.
type retryPolicy struct {
	attempts  int
	delay     time.Duration
	retryable func(error) bool
	onRetry   func(attempt int, err error)
}

func (p retryPolicy) do(ctx context.Context, op func() error) error {
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if p.retryable != nil && !p.retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.onRetry != nil {
			p.onRetry(attempt, err)
		}

		timer := time.NewTimer(p.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
