package ratelimit

import (
	"sync"
	"time"

	"github.com/dshills/surface/internal/platform"
	"github.com/jonboulle/clockwork"
)

// Throttled wraps a callback so that no interval-length window contains
// more than one execution. The first call in a window executes immediately;
// calls arriving inside the window coalesce into one trailing execution
// scheduled for the remainder of the window, carrying the arguments of the
// latest coalesced call. The trailing call is never dropped.
type Throttled[T any] struct {
	clock    platform.Clock
	interval time.Duration
	fn       func(T)

	mu      sync.Mutex
	timer   clockwork.Timer
	pending bool
	arg     T
	lastRun time.Time
	hasRun  bool
	stopped bool
}

// NewThrottled creates a throttled wrapper around fn.
func NewThrottled[T any](clock platform.Clock, interval time.Duration, fn func(T)) (*Throttled[T], error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if fn == nil {
		return nil, ErrNilFunc
	}
	return &Throttled[T]{
		clock:    clock,
		interval: interval,
		fn:       fn,
	}, nil
}

// Call executes fn immediately when outside the current window, otherwise
// coalesces into the trailing execution.
func (t *Throttled[T]) Call(arg T) {
	t.mu.Lock()

	if t.stopped {
		t.mu.Unlock()
		return
	}

	// A trailing execution is already scheduled; latest arguments win.
	if t.pending {
		t.arg = arg
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	if !t.hasRun || now.Sub(t.lastRun) >= t.interval {
		t.hasRun = true
		t.lastRun = now
		t.mu.Unlock()
		t.fn(arg)
		return
	}

	t.pending = true
	t.arg = arg
	remaining := t.interval - now.Sub(t.lastRun)
	if t.timer == nil {
		t.timer = t.clock.AfterFunc(remaining, t.fire)
	} else {
		t.timer.Reset(remaining)
	}
	t.mu.Unlock()
}

// fire executes the trailing call at the window boundary.
func (t *Throttled[T]) fire() {
	t.mu.Lock()
	if t.stopped || !t.pending {
		t.mu.Unlock()
		return
	}
	arg := t.arg
	t.pending = false
	t.hasRun = true
	t.lastRun = t.clock.Now()
	t.mu.Unlock()

	t.fn(arg)
}

// Pending reports whether a trailing execution is scheduled.
func (t *Throttled[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Stop cancels any scheduled trailing execution. Further calls are ignored.
func (t *Throttled[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
	}
}
