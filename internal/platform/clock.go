package platform

import (
	"github.com/jonboulle/clockwork"
)

// Clock is the monotonic clock and timer capability. Production code uses
// the real clock; tests inject clockwork.NewFakeClock() and advance time
// explicitly.
type Clock = clockwork.Clock

// RealClock returns the host's real clock.
func RealClock() Clock {
	return clockwork.NewRealClock()
}
