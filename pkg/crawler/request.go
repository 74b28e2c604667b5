package crawler

import (
	"context"
	"time"

	"flickrgeo/pkg/logger"
	"flickrgeo/pkg/ratelimit"
	"flickrgeo/pkg/retry"
)

// Paced runs op once between limiter.Wait and limiter.Done, so the next
// paced call starts no sooner than one interval after op returned, whether
// op succeeded or not.
func Paced[T any](ctx context.Context, limiter ratelimit.Limiter, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := limiter.Wait(ctx); err != nil {
		return zero, err
	}
	defer limiter.Done()

	return op(ctx)
}

// requester is the paced, retrying request primitive shared by both phases
type requester struct {
	limiter  ratelimit.Limiter
	clock    ratelimit.Clock
	logger   logger.Logger
	recorder Recorder
}

// attempt policy for one logical request
type policy struct {
	phase       string
	maxAttempts int // 0 retries forever
	retryDelay  time.Duration
	onRetry     func(attempt int, err error)
}

// do runs op through the limiter until it succeeds, the attempts are used
// up or ctx ends. It returns the number of times op was called.
func (r *requester) do(ctx context.Context, p policy, op func(context.Context) error) (int, error) {
	attempts := 0

	cfg := &retry.Config{
		MaxAttempts: p.maxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: p.retryDelay},
		RetryIf:     retry.RetryUnlessCancelled,
		Context:     ctx,
		Sleep:       r.sleep,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if p.onRetry != nil {
				p.onRetry(attempt, err)
			}
		},
	}

	err := retry.Do(func() error {
		issued := false
		start := r.clock.Now()
		_, err := Paced(ctx, r.limiter, func(ctx context.Context) (struct{}, error) {
			issued = true
			attempts++
			return struct{}{}, op(ctx)
		})
		if !issued {
			return err
		}

		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeError
		}
		r.recorder.Request(p.phase, outcome)
		logger.LogRequest(r.logger, p.phase, attempts, r.clock.Now().Sub(start), err)
		return err
	}, cfg)

	return attempts, err
}

// sleep suspends on the requester's clock. A zero delay only checks ctx;
// pacing itself comes from the limiter.
func (r *requester) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return r.clock.Sleep(ctx, d)
}
