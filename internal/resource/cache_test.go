package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRequestDeduplicatesConcurrentLoads(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})

	cache, err := New(func(ctx context.Context, key string) error {
		calls.Add(1)
		<-gate
		return nil
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	const waiters = 10
	errs := make([]error, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = cache.Request(context.Background(), "hero.png")
		}(i)
	}

	// Let the load settle after the waiters have piled up.
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one underlying load, got %d", got)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("waiter %d: unexpected error: %v", i, err)
		}
	}
}

func TestRequestIsIdempotentAfterLoad(t *testing.T) {
	var calls atomic.Int32

	cache, err := New(func(ctx context.Context, key string) error {
		calls.Add(1)
		return nil
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	for i := 0; i < 5; i++ {
		if err := cache.Request(context.Background(), "hero.png"); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("expected one underlying load, got %d", got)
	}
	if !cache.IsLoaded("hero.png") {
		t.Error("expected key to be loaded")
	}
	if cache.IsLoading("hero.png") {
		t.Error("expected no load in flight")
	}
}

func TestFailedLoadIsRetryable(t *testing.T) {
	base := errors.New("connection refused")
	var calls atomic.Int32

	cache, err := New(func(ctx context.Context, key string) error {
		if calls.Add(1) == 1 {
			return base
		}
		return nil
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	reqErr := cache.Request(context.Background(), "hero.png")
	if reqErr == nil {
		t.Fatal("expected first request to fail")
	}

	var loadErr *LoadError
	if !errors.As(reqErr, &loadErr) {
		t.Fatalf("expected *LoadError, got %T", reqErr)
	}
	if loadErr.Key != "hero.png" {
		t.Errorf("expected key hero.png, got %q", loadErr.Key)
	}
	if !errors.Is(reqErr, base) {
		t.Errorf("expected error to wrap the loader failure, got %v", reqErr)
	}

	// The failure must not poison the key.
	if cache.IsLoaded("hero.png") || cache.IsLoading("hero.png") {
		t.Error("expected failed key to be absent from the cache")
	}
	if err := cache.Request(context.Background(), "hero.png"); err != nil {
		t.Errorf("expected retry to succeed, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected two underlying loads, got %d", got)
	}
}

func TestFailureFansOutToAllWaiters(t *testing.T) {
	base := errors.New("not found")
	gate := make(chan struct{})

	cache, err := New(func(ctx context.Context, key string) error {
		<-gate
		return base
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	const waiters = 5
	errs := make([]error, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = cache.Request(context.Background(), "missing.png")
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, base) {
			t.Errorf("waiter %d: expected wrapped loader failure, got %v", i, err)
		}
	}
}

func TestPreloadManyIsAllSettled(t *testing.T) {
	cache, err := New(func(ctx context.Context, key string) error {
		if key == "bad.png" {
			return errors.New("boom")
		}
		return nil
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	keys := []string{"a.png", "bad.png", "b.png", "c.png"}
	results := cache.PreloadMany(context.Background(), keys)

	if len(results) != len(keys) {
		t.Fatalf("expected %d results, got %d", len(keys), len(results))
	}
	for i, r := range results {
		if r.Key != keys[i] {
			t.Errorf("result %d: expected key %q, got %q", i, keys[i], r.Key)
		}
	}
	if results[1].Err == nil {
		t.Error("expected failure for bad.png")
	}
	for _, i := range []int{0, 2, 3} {
		if results[i].Err != nil {
			t.Errorf("expected success for %q, got %v", keys[i], results[i].Err)
		}
		if !cache.IsLoaded(keys[i]) {
			t.Errorf("expected %q to be loaded", keys[i])
		}
	}
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)

	cache, err := New(func(ctx context.Context, key string) error {
		<-gate
		return nil
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cache.Request(ctx, "slow.png")
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cancellation")
	}

	// The in-flight load is untouched by the waiter's cancellation.
	if !cache.IsLoading("slow.png") {
		t.Error("expected load to remain in flight")
	}
}

func TestRequestAfterClose(t *testing.T) {
	cache, err := New(func(ctx context.Context, key string) error { return nil }, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cache.Close()
	cache.Close() // idempotent

	if err := cache.Request(context.Background(), "x.png"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	var calls atomic.Int32

	cache, err := New(func(ctx context.Context, key string) error {
		calls.Add(1)
		return nil
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	if err := cache.Request(context.Background(), "x.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache.Invalidate("x.png")
	if cache.IsLoaded("x.png") {
		t.Error("expected key to be invalidated")
	}
	if err := cache.Request(context.Background(), "x.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected two loads, got %d", got)
	}
}

func TestJoinedFailingLoadIsNotAHit(t *testing.T) {
	gate := make(chan struct{})
	base := errors.New("fetch failed")

	cache, err := New(func(ctx context.Context, key string) error {
		<-gate
		return base
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	const waiters = 4
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cache.Request(context.Background(), "hero.png")
		}()
	}

	// Let the joiners pile onto the single in-flight load, then fail it.
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	stats := cache.Stats()
	if stats.Hits != 0 {
		t.Errorf("expected no hits from a failed shared load, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failures)
	}

	// A successful shared load still counts its joiners as hits.
	gate2 := make(chan struct{})
	healthy, err := New(func(ctx context.Context, key string) error {
		<-gate2
		return nil
	}, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer healthy.Close()

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = healthy.Request(context.Background(), "hero.png")
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(gate2)
	wg.Wait()

	if got := healthy.Stats().Hits; got != waiters-1 {
		t.Errorf("expected %d join hits, got %d", waiters-1, got)
	}
}

func TestStatsCounters(t *testing.T) {
	cache, err := New(func(ctx context.Context, key string) error { return nil }, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cache.Close()

	_ = cache.Request(context.Background(), "a.png")
	_ = cache.Request(context.Background(), "a.png")
	_ = cache.Request(context.Background(), "b.png")

	stats := cache.Stats()
	if stats.Loads != 2 {
		t.Errorf("expected 2 loads, got %d", stats.Loads)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("expected 2 misses, got %d", stats.Misses)
	}
	if stats.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.Entries)
	}

	if _, err := New(nil, DefaultConfig()); !errors.Is(err, ErrNilLoader) {
		t.Errorf("expected ErrNilLoader, got %v", err)
	}
}
