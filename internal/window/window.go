// Package window computes the visible index range for windowed rendering
// of long lists. Given the list geometry and a scroll offset it returns the
// minimal slice of items that intersects the container, padded by an
// overscan margin.
//
// Compute is pure and synchronous. Callers feeding it from a high-frequency
// scroll stream are expected to rate-limit intake (see internal/ratelimit);
// the latest scroll offset always wins.
package window

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec indicates a spec that violates the geometry constraints.
var ErrInvalidSpec = errors.New("invalid window spec")

// Spec describes the list geometry and scroll position.
type Spec struct {
	// ItemCount is the total number of items. Must be >= 0.
	ItemCount int

	// ItemHeight is the fixed height of one item. Must be > 0.
	ItemHeight int

	// ContainerHeight is the visible height of the container. Must be >= 0.
	ContainerHeight int

	// ScrollOffset is the scroll position. Must be >= 0; values past the end
	// of the content are clamped.
	ScrollOffset int

	// Overscan is the number of extra items rendered on each side of the
	// visible range. Must be >= 0.
	Overscan int
}

// Range is the computed visible window.
type Range struct {
	// Start and End are the first and last visible item indices, inclusive,
	// clamped into [0, ItemCount-1]. Start > End means nothing is visible.
	Start int
	End   int

	// TotalHeight is the full content height (ItemCount * ItemHeight).
	TotalHeight int

	// OffsetY is the translation offset for rendering only the visible
	// slice (Start * ItemHeight).
	OffsetY int
}

// Empty reports whether no items are visible.
func (r Range) Empty() bool {
	return r.Start > r.End
}

// Count returns the number of visible items.
func (r Range) Count() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Compute derives the visible range from a spec.
//
// The start index is floor(scroll/itemHeight) minus overscan; the end index
// is floor((scroll+container)/itemHeight) plus overscan; both are clamped
// into [0, itemCount-1]. An empty list yields an empty range regardless of
// the other inputs. A zero container height degenerates to the single item
// under the scroll offset (plus overscan).
func Compute(s Spec) (Range, error) {
	if s.ItemHeight <= 0 {
		return Range{}, fmt.Errorf("%w: item height %d must be positive", ErrInvalidSpec, s.ItemHeight)
	}
	if s.ItemCount < 0 {
		return Range{}, fmt.Errorf("%w: item count %d must be non-negative", ErrInvalidSpec, s.ItemCount)
	}
	if s.ContainerHeight < 0 {
		return Range{}, fmt.Errorf("%w: container height %d must be non-negative", ErrInvalidSpec, s.ContainerHeight)
	}
	if s.ScrollOffset < 0 {
		return Range{}, fmt.Errorf("%w: scroll offset %d must be non-negative", ErrInvalidSpec, s.ScrollOffset)
	}
	if s.Overscan < 0 {
		return Range{}, fmt.Errorf("%w: overscan %d must be non-negative", ErrInvalidSpec, s.Overscan)
	}

	total := s.ItemCount * s.ItemHeight

	if s.ItemCount == 0 {
		return Range{Start: 0, End: -1, TotalHeight: 0, OffsetY: 0}, nil
	}

	// Clamp scroll into the valid content range.
	scroll := s.ScrollOffset
	maxScroll := total - s.ContainerHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if scroll > maxScroll {
		scroll = maxScroll
	}

	start := scroll/s.ItemHeight - s.Overscan
	if start < 0 {
		start = 0
	}

	end := (scroll+s.ContainerHeight)/s.ItemHeight + s.Overscan
	if end > s.ItemCount-1 {
		end = s.ItemCount - 1
	}

	return Range{
		Start:       start,
		End:         end,
		TotalHeight: total,
		OffsetY:     start * s.ItemHeight,
	}, nil
}
