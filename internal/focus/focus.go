// Package focus maintains an ordered set of focusable elements within a
// container and provides directional focus movement and a focus trap.
//
// The focus set is a snapshot: it is recomputed only on Refresh, never by
// observing the container. Callers must refresh after any mutation that
// could add or remove focusable elements; trap wraparound always operates
// over the most recent snapshot.
package focus

import (
	"sync"
)

// Element is one potentially focusable item in a container.
type Element interface {
	// Focus moves input focus to the element.
	Focus()

	// Interactive reports whether the element is an interactive control.
	Interactive() bool

	// Disabled reports whether the element is disabled.
	Disabled() bool

	// TabIndex returns the element's explicit tab index. ok is false when
	// no tab index was set.
	TabIndex() (index int, ok bool)

	// Visible reports whether the element has a non-zero layout box.
	Visible() bool
}

// Container supplies the candidate elements in document order.
type Container interface {
	Elements() []Element
}

// Focusable is the fixed predicate deciding whether an element can receive
// focus: it must be visibly rendered and either be an enabled interactive
// control or carry an explicit non-negative tab index.
func Focusable(el Element) bool {
	if !el.Visible() {
		return false
	}
	if el.Interactive() && !el.Disabled() {
		return true
	}
	if idx, ok := el.TabIndex(); ok && idx >= 0 {
		return true
	}
	return false
}

// TabEvent is a Tab-navigation key event presented to the trap.
type TabEvent struct {
	// Backward is true for Shift+Tab.
	Backward bool
}

// Coordinator tracks focus order within one container.
type Coordinator struct {
	mu        sync.Mutex
	container Container
	elements  []Element
	current   int // -1 means no tracked focus
	trapped   bool
}

// Attach creates a coordinator for the container. The focus set is empty
// until the first Refresh.
func Attach(container Container) *Coordinator {
	return &Coordinator{
		container: container,
		current:   -1,
	}
}

// Refresh rescans the container for focusable elements. Must be called
// after any container mutation that could change the focus set. The tracked
// index is preserved when still in range, otherwise cleared.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var elements []Element
	for _, el := range c.container.Elements() {
		if Focusable(el) {
			elements = append(elements, el)
		}
	}
	c.elements = elements

	if c.current >= len(c.elements) {
		c.current = -1
	}
}

// Len returns the size of the current focus set.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.elements)
}

// Current returns the tracked focus index, or -1 when none.
func (c *Coordinator) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// FocusFirst moves focus to the first element. No-op on an empty set.
func (c *Coordinator) FocusFirst() {
	c.focusIndex(func(n, _ int) int { return 0 })
}

// FocusLast moves focus to the last element. No-op on an empty set.
func (c *Coordinator) FocusLast() {
	c.focusIndex(func(n, _ int) int { return n - 1 })
}

// FocusNext moves focus forward with wraparound. With no tracked focus it
// behaves like FocusFirst. No-op on an empty set.
func (c *Coordinator) FocusNext() {
	c.focusIndex(func(n, cur int) int {
		if cur < 0 {
			return 0
		}
		return (cur + 1) % n
	})
}

// FocusPrevious moves focus backward with wraparound. With no tracked focus
// it behaves like FocusLast. No-op on an empty set.
func (c *Coordinator) FocusPrevious() {
	c.focusIndex(func(n, cur int) int {
		if cur < 0 {
			return n - 1
		}
		return (cur - 1 + n) % n
	})
}

// focusIndex applies pick over the snapshot and focuses the result.
func (c *Coordinator) focusIndex(pick func(n, cur int) int) {
	c.mu.Lock()
	if len(c.elements) == 0 {
		c.mu.Unlock()
		return
	}
	idx := pick(len(c.elements), c.current)
	c.current = idx
	el := c.elements[idx]
	c.mu.Unlock()

	el.Focus()
}

// Activate enables the focus trap.
func (c *Coordinator) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trapped = true
}

// Release disables the focus trap, restoring default tab order.
func (c *Coordinator) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trapped = false
}

// Trapped reports whether the trap is active.
func (c *Coordinator) Trapped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trapped
}

// Trap intercepts a Tab-navigation event while the trap is active. Forward
// Tab on the last element redirects to the first; Shift+Tab on the first
// redirects to the last. It returns true when the event was consumed;
// otherwise default navigation should proceed.
func (c *Coordinator) Trap(ev TabEvent) bool {
	c.mu.Lock()
	if !c.trapped || len(c.elements) == 0 {
		c.mu.Unlock()
		return false
	}

	n := len(c.elements)
	var target int
	switch {
	case !ev.Backward && c.current == n-1:
		target = 0
	case ev.Backward && c.current == 0:
		target = n - 1
	default:
		c.mu.Unlock()
		return false
	}

	c.current = target
	el := c.elements[target]
	c.mu.Unlock()

	el.Focus()
	return true
}
