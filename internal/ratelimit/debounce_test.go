package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// recv waits for an execution to be observed.
func recv(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for execution")
		return 0
	}
}

// expectNone asserts that no execution is observed.
func expectNone(t *testing.T, ch <-chan int) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected execution with arg %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebounceOnlyTrailingCallRuns(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan int, 8)

	d, err := NewDebounced(clock, 20*time.Millisecond, func(v int) { fired <- v })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Calls at t=0, 5, 10ms; the quiet window ends at t=30ms.
	d.Call(0)
	clock.Advance(5 * time.Millisecond)
	d.Call(1)
	clock.Advance(5 * time.Millisecond)
	d.Call(2)

	clock.Advance(19 * time.Millisecond)
	expectNone(t, fired)

	clock.Advance(1 * time.Millisecond)
	if v := recv(t, fired); v != 2 {
		t.Errorf("expected trailing arg 2, got %d", v)
	}

	clock.Advance(100 * time.Millisecond)
	expectNone(t, fired)
}

func TestDebounceEachCallResetsWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan int, 8)

	d, err := NewDebounced(clock, 20*time.Millisecond, func(v int) { fired <- v })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Call(1)
	for i := 0; i < 5; i++ {
		clock.Advance(15 * time.Millisecond)
		d.Call(i + 2)
	}
	expectNone(t, fired)

	clock.Advance(20 * time.Millisecond)
	if v := recv(t, fired); v != 6 {
		t.Errorf("expected arg 6, got %d", v)
	}
}

func TestDebounceStopCancelsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan int, 8)

	d, err := NewDebounced(clock, 20*time.Millisecond, func(v int) { fired <- v })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Call(1)
	clock.Advance(10 * time.Millisecond)
	d.Stop()

	clock.Advance(100 * time.Millisecond)
	expectNone(t, fired)

	// Calls after Stop are ignored.
	d.Call(2)
	clock.Advance(100 * time.Millisecond)
	expectNone(t, fired)
}

func TestDebounceFlush(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fired := make(chan int, 8)

	d, err := NewDebounced(clock, 20*time.Millisecond, func(v int) { fired <- v })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Call(7)
	d.Flush()
	if v := recv(t, fired); v != 7 {
		t.Errorf("expected arg 7, got %d", v)
	}
	if d.Pending() {
		t.Error("expected no pending call after flush")
	}

	// The cleared timer must not fire again.
	clock.Advance(100 * time.Millisecond)
	expectNone(t, fired)

	// Flush without a pending call is a no-op.
	d.Flush()
	expectNone(t, fired)
}

func TestDebounceInvalidArguments(t *testing.T) {
	clock := clockwork.NewFakeClock()

	if _, err := NewDebounced(clock, 0, func(int) {}); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := NewDebounced(clock, -time.Second, func(int) {}); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := NewDebounced[int](clock, time.Second, nil); !errors.Is(err, ErrNilFunc) {
		t.Errorf("expected ErrNilFunc, got %v", err)
	}
}
