package platform

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60fps animation-frame cadence.
const DefaultFrameInterval = 16667 * time.Microsecond

// FrameScheduler delivers animation-frame callbacks.
type FrameScheduler interface {
	// Schedule starts delivering frames to fn and returns a stop function.
	// The stop function is idempotent and must be called on teardown so no
	// frame fires against destroyed state.
	Schedule(fn func(now time.Time)) (stop func())
}

// TickerFrames is a FrameScheduler driven by a clock ticker.
type TickerFrames struct {
	clock    Clock
	interval time.Duration
}

// NewTickerFrames creates a frame scheduler ticking at the given interval.
// A non-positive interval falls back to DefaultFrameInterval.
func NewTickerFrames(clock Clock, interval time.Duration) *TickerFrames {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TickerFrames{clock: clock, interval: interval}
}

// Schedule starts the frame loop on its own goroutine.
func (tf *TickerFrames) Schedule(fn func(now time.Time)) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := tf.clock.NewTicker(tf.interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case now := <-ticker.Chan():
				fn(now)
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

// ManualFrames is a FrameScheduler driven explicitly by the caller.
// Intended for tests and for hosts that own their own render loop.
type ManualFrames struct {
	mu sync.Mutex
	fn func(now time.Time)
}

// NewManualFrames creates a manually driven frame scheduler.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{}
}

// Schedule registers the frame callback.
func (mf *ManualFrames) Schedule(fn func(now time.Time)) (stop func()) {
	mf.mu.Lock()
	mf.fn = fn
	mf.mu.Unlock()

	return func() {
		mf.mu.Lock()
		mf.fn = nil
		mf.mu.Unlock()
	}
}

// Fire delivers one frame at the given time. No-op after stop.
func (mf *ManualFrames) Fire(now time.Time) {
	mf.mu.Lock()
	fn := mf.fn
	mf.mu.Unlock()

	if fn != nil {
		fn(now)
	}
}
