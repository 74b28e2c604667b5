package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalFirstRequestIsImmediate(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	limiter := NewIntervalWithClock(time.Second, clock)

	require.NoError(t, limiter.Wait(context.Background()))
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, 1, limiter.Waits())
}

func TestIntervalWaitsFromCompletion(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	limiter := NewIntervalWithClock(time.Second, clock)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	clock.Advance(300 * time.Millisecond) // request latency
	limiter.Done()

	require.NoError(t, limiter.Wait(ctx))
	assert.Equal(t, []time.Duration{time.Second}, clock.Sleeps())

	// A slow gap between requests shortens the remaining wait
	limiter.Done()
	clock.Advance(400 * time.Millisecond)
	require.NoError(t, limiter.Wait(ctx))
	assert.Equal(t, []time.Duration{time.Second, 600 * time.Millisecond}, clock.Sleeps())
}

func TestIntervalNoWaitAfterLongGap(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	limiter := NewIntervalWithClock(time.Second, clock)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	limiter.Done()
	clock.Advance(2 * time.Second)

	require.NoError(t, limiter.Wait(ctx))
	assert.Empty(t, clock.Sleeps())
}

func TestIntervalReset(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	limiter := NewIntervalWithClock(time.Second, clock)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx))
	limiter.Done()
	limiter.Reset()

	require.NoError(t, limiter.Wait(ctx))
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, 1, limiter.Waits())
}

func TestIntervalCancelledContext(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	limiter := NewIntervalWithClock(time.Second, clock)

	require.NoError(t, limiter.Wait(context.Background()))
	limiter.Done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
}

func TestSystemClockSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, SystemClock{}.Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SystemClock{}.Sleep(ctx, time.Hour), context.Canceled)
}
