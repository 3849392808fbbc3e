package app

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/surface/internal/announce"
)

// StatusSurface renders announcement regions on the demo's status line.
// Regions attach and detach on the announcer's schedule; the surface only
// keeps them in arrival order and answers "what should the status line say".
type StatusSurface struct {
	mu      sync.Mutex
	regions []announce.Region
}

// NewStatusSurface creates an empty surface.
func NewStatusSurface() *StatusSurface {
	return &StatusSurface{}
}

// Attach makes the region observable.
func (s *StatusSurface) Attach(region announce.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = append(s.regions, region)
}

// Detach removes the region.
func (s *StatusSurface) Detach(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.regions {
		if r.ID == id {
			s.regions = append(s.regions[:i], s.regions[i+1:]...)
			return
		}
	}
}

// Live returns the number of attached regions.
func (s *StatusSurface) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions)
}

// Current returns the message the status line should show: the newest
// assertive region if any are live, otherwise the newest region.
func (s *StatusSurface) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.regions) - 1; i >= 0; i-- {
		if s.regions[i].Priority == announce.Assertive {
			return s.regions[i].Message, true
		}
	}
	if n := len(s.regions); n > 0 {
		return s.regions[n-1].Message, true
	}
	return "", false
}
