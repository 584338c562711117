package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"CoinDash/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func waitForWaiters(t *testing.T, c *util.ManualClock, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Waiters() >= n }, 2*time.Second, time.Millisecond)
}

func TestAcquireWithinBudgetDoesNotWait(t *testing.T) {
	clk := util.NewManualClock(epoch)
	l := New(3, time.Minute, WithClock(clk))
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	assert.Equal(t, 3, l.Stats().InWindow)
}

func TestSecondAcquireWaitsForWindow(t *testing.T) {
	clk := util.NewManualClock(epoch)
	var waited []time.Duration
	l := New(1, 60*time.Second, WithClock(clk), WithWaitHook(func(d time.Duration) { waited = append(waited, d) }))

	require.NoError(t, l.Acquire(context.Background()))
	first := clk.Now()
	clk.Advance(10 * time.Millisecond)

	done := make(chan time.Time, 1)
	go func() {
		_ = l.Acquire(context.Background())
		done <- clk.Now()
	}()
	waitForWaiters(t, clk, 1)

	clk.Advance(59989 * time.Millisecond)
	select {
	case <-done:
		t.Fatalf("acquire completed before the window elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clk.Advance(time.Millisecond)
	select {
	case at := <-done:
		assert.GreaterOrEqual(t, at.Sub(first), 60*time.Second)
		assert.GreaterOrEqual(t, at.Sub(first.Add(10*time.Millisecond)), 59990*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatalf("acquire did not complete after the window elapsed")
	}
	require.Len(t, waited, 1)
	assert.Equal(t, 59990*time.Millisecond, waited[0])
}

func TestAcquireHonoursContext(t *testing.T) {
	clk := util.NewManualClock(epoch)
	l := New(1, time.Minute, WithClock(clk))
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()
	waitForWaiters(t, clk, 1)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatalf("acquire ignored cancellation")
	}
	assert.Equal(t, 1, l.Stats().InWindow)
}

func TestWindowNeverExceedsMax(t *testing.T) {
	const (
		maxCalls = 4
		window   = time.Second
		callers  = 12
	)
	clk := util.NewManualClock(epoch)
	var history []time.Time
	l := New(maxCalls, window, WithClock(clk), WithRecordHook(func(ts time.Time) {
		history = append(history, ts)
	}))

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Acquire(context.Background())
		}()
	}
	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()

	deadline := time.After(5 * time.Second)
loop:
	for {
		select {
		case <-finished:
			break loop
		case <-deadline:
			t.Fatalf("callers did not finish")
		default:
			clk.Advance(50 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}

	got := l.recorded()
	require.LessOrEqual(t, len(got), maxCalls)

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Len(t, history, callers)
	for i, start := range history {
		inWindow := 0
		for _, ts := range history[i:] {
			if ts.Sub(start) < window {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, maxCalls, "window starting at %s", start.Sub(epoch))
	}
}

func TestEvictKeepsOnlyYoungTimestamps(t *testing.T) {
	clk := util.NewManualClock(epoch)
	l := New(5, time.Second, WithClock(clk))
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(context.Background()))
		clk.Advance(300 * time.Millisecond)
	}
	// The last Acquire ran at 1.2s and only evicted the call at 0.
	require.Len(t, l.recorded(), 4)

	// now = epoch+1.5s; calls at .3, .6, .9, 1.2 -> .3 is out once evicted.
	assert.Equal(t, 3, l.Stats().InWindow)
	got := l.recorded()
	require.Len(t, got, 3)
	for _, ts := range got {
		assert.Less(t, clk.Now().Sub(ts), time.Second)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	assert.Panics(t, func() { New(0, time.Second) })
	assert.Panics(t, func() { New(1, 0) })
}
