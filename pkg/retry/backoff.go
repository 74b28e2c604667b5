package retry

import (
	"context"
	"time"
)

// BackoffStrategy picks the extra pause before a retry. The request
// limiter already spaces every Flickr call, so this only adds to that gap.
type BackoffStrategy interface {
	// NextDelay is the pause after failed attempt number attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff pauses the same Delay before every retry. A zero Delay
// retries a failed search page as soon as the limiter allows.
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 || cb.Delay < 0 {
		return 0
	}
	return cb.Delay
}

// Wait sleeps for delay on the wall clock. It returns early with the
// context error when ctx ends; a non-positive delay only reports ctx.Err.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
