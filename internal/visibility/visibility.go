// Package visibility triggers a callback the first time a region becomes
// visible. Each region follows a one-shot-then-unobserve discipline: once
// its callback fires the region is forgotten and never re-observed.
package visibility

import (
	"sync"
)

// Callback runs when a region first becomes visible.
type Callback func()

// Observer tracks regions awaiting their first visibility.
type Observer struct {
	mu        sync.Mutex
	callbacks map[string]Callback
}

// NewObserver creates an empty observer.
func NewObserver() *Observer {
	return &Observer{
		callbacks: make(map[string]Callback),
	}
}

// Observe registers a callback for the region. Re-registering a region
// replaces its callback; a region that already fired starts over.
func (o *Observer) Observe(id string, fn Callback) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.callbacks[id] = fn
}

// Unobserve drops the region without firing. Used on teardown.
func (o *Observer) Unobserve(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.callbacks, id)
}

// Observed reports whether the region is awaiting visibility.
func (o *Observer) Observed(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.callbacks[id]
	return ok
}

// Len returns the number of regions awaiting visibility.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.callbacks)
}

// Report delivers a visibility change for the region. The first visible
// report fires the callback and unobserves the region; invisible reports
// and reports for unknown regions are ignored.
func (o *Observer) Report(id string, visible bool) {
	if !visible {
		return
	}

	o.mu.Lock()
	fn, ok := o.callbacks[id]
	if ok {
		delete(o.callbacks, id)
	}
	o.mu.Unlock()

	if ok {
		fn()
	}
}
