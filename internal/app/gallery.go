package app

import (
	"fmt"
	"sync"

	"github.com/dshills/surface/internal/focus"
)

// Item is one entry in the gallery list. It implements focus.Element so
// the focus coordinator can walk the visible set.
type Item struct {
	mu       sync.Mutex
	key      string
	title    string
	disabled bool
	visible  bool
	focused  bool
	loaded   bool
}

// Key returns the item's cache key.
func (it *Item) Key() string {
	return it.key
}

// Title returns the display title.
func (it *Item) Title() string {
	return it.title
}

// Focus marks the item as holding input focus.
func (it *Item) Focus() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.focused = true
}

// Blur clears input focus.
func (it *Item) Blur() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.focused = false
}

// Focused reports whether the item holds input focus.
func (it *Item) Focused() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.focused
}

// Interactive reports that gallery items are interactive controls.
func (it *Item) Interactive() bool {
	return true
}

// Disabled reports whether the item is disabled.
func (it *Item) Disabled() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.disabled
}

// TabIndex reports that items carry no explicit tab index.
func (it *Item) TabIndex() (int, bool) {
	return 0, false
}

// Visible reports whether the item is inside the rendered window.
func (it *Item) Visible() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.visible
}

// SetVisible records whether the item is inside the rendered window.
func (it *Item) SetVisible(v bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.visible = v
	if !v {
		it.focused = false
	}
}

// MarkLoaded records that the item's resource finished loading.
func (it *Item) MarkLoaded() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.loaded = true
}

// Loaded reports whether the item's resource finished loading.
func (it *Item) Loaded() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.loaded
}

// Gallery is the item list backing the demo. It implements focus.Container
// over the currently visible items.
type Gallery struct {
	items []*Item
}

// NewGallery builds a gallery of n items.
func NewGallery(n int) *Gallery {
	items := make([]*Item, n)
	for i := range items {
		items[i] = &Item{
			key:   fmt.Sprintf("project-%03d", i),
			title: fmt.Sprintf("Project %d", i),
		}
	}
	return &Gallery{items: items}
}

// Len returns the number of items.
func (g *Gallery) Len() int {
	return len(g.items)
}

// Item returns the item at index i.
func (g *Gallery) Item(i int) *Item {
	return g.items[i]
}

// Elements returns the items in document order. The focus coordinator's
// Focusable predicate filters out the invisible ones.
func (g *Gallery) Elements() []focus.Element {
	els := make([]focus.Element, len(g.items))
	for i, it := range g.items {
		els[i] = it
	}
	return els
}

// BlurAll clears focus from every item.
func (g *Gallery) BlurAll() {
	for _, it := range g.items {
		it.Blur()
	}
}

// SetWindow marks items inside [start, end] visible and the rest not.
func (g *Gallery) SetWindow(start, end int) {
	for i, it := range g.items {
		it.SetVisible(i >= start && i <= end)
	}
}
