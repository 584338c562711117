package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinDash/pkg/util"
)

// Limiter bounds calls to at most max within any trailing window.
type Limiter struct {
	mu       sync.Mutex
	calls    []time.Time // oldest first
	max      int
	window   time.Duration
	clock    util.Clock
	onWait   func(time.Duration)
	onRecord func(time.Time)
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(c util.Clock) Option {
	return func(l *Limiter) { l.clock = util.ClockOrSystem(c) }
}

// WithWaitHook is called with the computed delay every time Acquire has to wait.
func WithWaitHook(fn func(time.Duration)) Option {
	return func(l *Limiter) { l.onWait = fn }
}

// WithRecordHook is called with the timestamp of every admitted call while
// the limiter's lock is held, so calls arrive in window order. fn must not
// call back into the limiter.
func WithRecordHook(fn func(time.Time)) Option {
	return func(l *Limiter) { l.onRecord = fn }
}

// New creates a sliding-window limiter. maxCalls must be at least 1.
func New(maxCalls int, window time.Duration, opts ...Option) *Limiter {
	if maxCalls < 1 {
		panic(fmt.Sprintf("ratelimit: maxCalls must be >= 1, got %d", maxCalls))
	}
	if window <= 0 {
		panic(fmt.Sprintf("ratelimit: window must be positive, got %s", window))
	}
	l := &Limiter{max: maxCalls, window: window, clock: util.SystemClock}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until a call fits in the window, then records it.
// It only fails when ctx ends while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock.Now()
		l.evict(now)
		if len(l.calls) < l.max {
			l.calls = append(l.calls, now)
			if l.onRecord != nil {
				l.onRecord(now)
			}
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()

		if l.onWait != nil {
			l.onWait(wait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(wait):
		}
	}
}

// evict drops timestamps that fell out of the window. Caller holds mu.
func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.calls) && now.Sub(l.calls[i]) >= l.window {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

// Stats is a point-in-time view of the window.
type Stats struct {
	InWindow int           `json:"in_window"`
	MaxCalls int           `json:"max_calls"`
	Window   time.Duration `json:"window"`
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.clock.Now())
	return Stats{InWindow: len(l.calls), MaxCalls: l.max, Window: l.window}
}

// recorded returns a copy of the window, for tests.
func (l *Limiter) recorded() []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]time.Time, len(l.calls))
	copy(out, l.calls)
	return out
}
