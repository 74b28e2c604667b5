package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "flickrgeo/pkg/errors"
	"flickrgeo/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 250 * time.Millisecond}

	assert.Equal(t, time.Duration(0), backoff.NextDelay(0))
	assert.Equal(t, 250*time.Millisecond, backoff.NextDelay(1))
	assert.Equal(t, 250*time.Millisecond, backoff.NextDelay(10))

	negative := &ConstantBackoff{Delay: -time.Second}
	assert.Zero(t, negative.NextDelay(1), "a negative retry delay never shortens the limiter gap")
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	require.NoError(t, Do(op, cfg))
	assert.Equal(t, 3, attempts)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Equal(t, 3, attempts)
}

func TestSingleAttemptReturnsOriginalError(t *testing.T) {
	lookupErr := errs.New(errs.ErrorTypeNetwork, 0, "connection reset")
	sleeps := 0

	cfg := &Config{
		MaxAttempts: 1,
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Sleep: func(ctx context.Context, d time.Duration) error {
			sleeps++
			return nil
		},
	}

	err := Do(func() error { return lookupErr }, cfg)
	assert.Same(t, lookupErr, err)
	assert.Zero(t, sleeps)
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := &errs.Error{
		Type:    errs.ErrorTypeAuth,
		Message: "invalid API key",
		Code:    100,
	}

	op := func() error {
		attempts++
		return authError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	assert.Equal(t, authError, err)
	assert.Equal(t, 1, attempts)
}

func TestForeverRetriesEveryErrorType(t *testing.T) {
	failures := []error{
		errs.New(errs.ErrorTypeNetwork, 0, "reset"),
		errs.New(errs.ErrorTypeAuth, 401, "flaky auth"),
		errs.New(errs.ErrorTypeParsing, 200, "truncated body"),
		errors.New("unknown"),
	}
	attempts := 0
	var delays []time.Duration

	cfg := Forever(5 * time.Millisecond)
	cfg.Logger = logger.NewTestLogger()
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	err := Do(func() error {
		attempts++
		if attempts <= len(failures) {
			return failures[attempts-1]
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, len(failures)+1, attempts)
	assert.Len(t, delays, len(failures))
	for _, d := range delays {
		assert.Equal(t, 5*time.Millisecond, d)
	}
}

func TestForeverStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := Forever(0)
	cfg.Context = ctx
	cfg.Sleep = noSleep

	err := Do(func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 3)
}

func TestOnRetryCallback(t *testing.T) {
	var seen []int
	attempts := 0

	cfg := &Config{
		MaxAttempts: 4,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		OnRetry: func(attempt int, err error, delay time.Duration) {
			seen = append(seen, attempt)
		},
		Sleep: noSleep,
	}

	_ = Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("again")
		}
		return nil
	}, cfg)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeServerError, 503, "unavailable")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeNotFound, 2, "no location")))
	assert.True(t, DefaultRetryIf(errors.New("mystery")))
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
