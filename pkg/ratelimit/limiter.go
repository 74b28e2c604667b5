package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval sits just above Flickr's documented one request per second
const DefaultInterval = 1010 * time.Millisecond

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until the rate limit allows another request
	Wait(ctx context.Context) error
	// Done records that the request allowed by the last Wait has finished
	Done()
	// Reset resets the rate limiter state
	Reset()
}

// Interval enforces a fixed minimum delay between the end of one request
// and the start of the next, whatever the outcome of the request was.
type Interval struct {
	interval time.Duration
	clock    Clock
	last     time.Time // completion time of the previous request
	waits    int
	mu       sync.Mutex
}

// NewInterval creates an interval limiter on the system clock
func NewInterval(interval time.Duration) *Interval {
	return NewIntervalWithClock(interval, SystemClock{})
}

// NewIntervalWithClock creates an interval limiter on the given clock
func NewIntervalWithClock(interval time.Duration, clock Clock) *Interval {
	if interval < 0 {
		interval = 0
	}
	return &Interval{
		interval: interval,
		clock:    clock,
	}
}

// Wait blocks until the interval since the previous request has elapsed.
// The first request after creation or Reset is never delayed.
func (l *Interval) Wait(ctx context.Context) error {
	l.mu.Lock()
	last := l.last
	l.waits++
	l.mu.Unlock()

	if last.IsZero() {
		return ctx.Err()
	}

	remaining := l.interval - l.clock.Now().Sub(last)
	if remaining <= 0 {
		return ctx.Err()
	}
	return l.clock.Sleep(ctx, remaining)
}

// Done marks the completion of the current request
func (l *Interval) Done() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = l.clock.Now()
}

// Reset forgets the previous request
func (l *Interval) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.last = time.Time{}
	l.waits = 0
}

// Interval returns the configured minimum spacing
func (l *Interval) Interval() time.Duration {
	return l.interval
}

// Waits returns how many requests have passed through the limiter
func (l *Interval) Waits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waits
}
