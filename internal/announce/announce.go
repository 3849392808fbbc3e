// Package announce delivers prioritized text messages to an
// assistive-technology-observable surface.
//
// Every announcement gets its own single-use delivery region: it is
// attached to the surface, left in place long enough for assistive
// technology to observe the mutation, and detached after a fixed lifetime.
// Overlapping announcements never share a region, so concurrent messages
// cannot overwrite one another mid-flight. Duplicate suppression is a
// platform concern, not this package's.
package announce

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/surface/internal/platform"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrClosed indicates the announcer has been closed.
var ErrClosed = errors.New("announcer closed")

// DefaultLifetime is how long a region stays attached. Long enough for
// assistive technology to observe the mutation, short enough not to
// accumulate regions.
const DefaultLifetime = time.Second

// Priority is the announcement urgency.
type Priority int

const (
	// Polite announcements wait for the assistive technology to go idle.
	Polite Priority = iota
	// Assertive announcements interrupt the assistive technology.
	Assertive
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case Polite:
		return "polite"
	case Assertive:
		return "assertive"
	default:
		return "unknown"
	}
}

// Region is one single-use delivery channel.
type Region struct {
	ID        uuid.UUID
	Message   string
	Priority  Priority
	CreatedAt time.Time
}

// Surface is the host capability that exposes regions to assistive
// technology.
type Surface interface {
	// Attach makes the region observable.
	Attach(region Region)

	// Detach removes the region.
	Detach(id uuid.UUID)
}

// Option configures an Announcer.
type Option func(*Announcer)

// WithClock sets the clock used for region lifetimes.
func WithClock(clock platform.Clock) Option {
	return func(a *Announcer) {
		a.clock = clock
	}
}

// WithLifetime sets how long regions stay attached.
func WithLifetime(d time.Duration) Option {
	return func(a *Announcer) {
		if d > 0 {
			a.lifetime = d
		}
	}
}

// Announcer delivers messages through ephemeral regions on a surface.
type Announcer struct {
	surface  Surface
	clock    platform.Clock
	lifetime time.Duration

	mu     sync.Mutex
	timers map[uuid.UUID]clockwork.Timer
	closed bool
}

// New creates an announcer for the given surface.
func New(surface Surface, opts ...Option) *Announcer {
	a := &Announcer{
		surface:  surface,
		clock:    platform.RealClock(),
		lifetime: DefaultLifetime,
		timers:   make(map[uuid.UUID]clockwork.Timer),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Announce attaches a fresh region carrying the message and schedules its
// removal after the configured lifetime. Two announcements, even with
// identical text, produce two distinct regions.
//
// The region is attached before its teardown timer is armed, so the
// lifetime cannot elapse against a region the surface has not seen yet.
func (a *Announcer) Announce(message string, priority Priority) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	region := Region{
		ID:        uuid.New(),
		Message:   message,
		Priority:  priority,
		CreatedAt: a.clock.Now(),
	}
	a.mu.Unlock()

	a.surface.Attach(region)

	a.mu.Lock()
	if a.closed {
		// Close raced the attach and cannot have seen this region.
		a.mu.Unlock()
		a.surface.Detach(region.ID)
		return ErrClosed
	}
	id := region.ID
	a.timers[id] = a.clock.AfterFunc(a.lifetime, func() {
		a.expire(id)
	})
	a.mu.Unlock()
	return nil
}

// expire tears down a region whose lifetime elapsed.
func (a *Announcer) expire(id uuid.UUID) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if _, ok := a.timers[id]; !ok {
		a.mu.Unlock()
		return
	}
	delete(a.timers, id)
	a.mu.Unlock()

	a.surface.Detach(id)
}

// Live returns the number of currently attached regions.
func (a *Announcer) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}

// Close cancels pending teardowns and detaches all live regions. Further
// announcements are rejected.
func (a *Announcer) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true

	ids := make([]uuid.UUID, 0, len(a.timers))
	for id, timer := range a.timers {
		timer.Stop()
		ids = append(ids, id)
		delete(a.timers, id)
	}
	a.mu.Unlock()

	for _, id := range ids {
		a.surface.Detach(id)
	}
}
