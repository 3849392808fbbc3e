package platform

import (
	"sync"
	"time"
)

// LoadTimer reports how long the surface took to become usable.
// LoadTime reports ok=false until load completion has been marked, or when
// the host does not expose load timing at all.
type LoadTimer interface {
	LoadTime() (time.Duration, bool)
}

// StartupTimer measures the delta between construction (navigation start)
// and an explicit load-complete mark (typically the first rendered frame).
type StartupTimer struct {
	mu     sync.Mutex
	clock  Clock
	start  time.Time
	loaded time.Time
	marked bool
}

// NewStartupTimer starts measuring from now.
func NewStartupTimer(clock Clock) *StartupTimer {
	return &StartupTimer{
		clock: clock,
		start: clock.Now(),
	}
}

// MarkLoaded records load completion. Only the first mark is kept.
func (st *StartupTimer) MarkLoaded() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.marked {
		return
	}
	st.loaded = st.clock.Now()
	st.marked = true
}

// LoadTime returns the measured load duration once marked.
func (st *StartupTimer) LoadTime() (time.Duration, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.marked {
		return 0, false
	}
	return st.loaded.Sub(st.start), true
}

// NoLoadTimer is a LoadTimer for hosts without navigation timing.
type NoLoadTimer struct{}

// LoadTime always reports the capability as absent.
func (NoLoadTimer) LoadTime() (time.Duration, bool) {
	return 0, false
}
