package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/surface/internal/platform"
	"github.com/jonboulle/clockwork"
)

// Package errors.
var (
	// ErrInvalidInterval indicates a non-positive rate-limit interval.
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrNilFunc indicates a nil wrapped callback.
	ErrNilFunc = errors.New("callback must not be nil")
)

// Debounced wraps a callback so that only the trailing call in a quiet
// window executes. Every Call resets the pending timer; the callback runs
// once the full interval passes without another call, with the arguments
// of the last call.
type Debounced[T any] struct {
	clock    platform.Clock
	interval time.Duration
	fn       func(T)

	mu      sync.Mutex
	timer   clockwork.Timer
	pending bool
	arg     T
	stopped bool
}

// NewDebounced creates a debounced wrapper around fn.
func NewDebounced[T any](clock platform.Clock, interval time.Duration, fn func(T)) (*Debounced[T], error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if fn == nil {
		return nil, ErrNilFunc
	}
	return &Debounced[T]{
		clock:    clock,
		interval: interval,
		fn:       fn,
	}, nil
}

// Call records a call and resets the quiet-window timer.
func (d *Debounced[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.arg = arg
	d.pending = true

	if d.timer == nil {
		d.timer = d.clock.AfterFunc(d.interval, d.fire)
	} else {
		d.timer.Reset(d.interval)
	}
}

// fire executes the pending call when the quiet window elapses.
func (d *Debounced[T]) fire() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.arg
	d.pending = false
	d.mu.Unlock()

	d.fn(arg)
}

// Flush executes the pending call immediately, if any.
func (d *Debounced[T]) Flush() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.arg
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.fn(arg)
}

// Pending reports whether a call is waiting to execute.
func (d *Debounced[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending execution. Further calls are ignored.
func (d *Debounced[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}
