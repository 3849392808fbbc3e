// Package resource deduplicates and tracks asynchronous resource loads.
//
// The cache guarantees at most one concurrent load per key: requests for a
// key with a load in flight share the outcome of that load instead of
// issuing another. Successful loads are terminal; later requests resolve
// immediately without I/O. Failed loads reject every current waiter with
// the same failure and leave the key eligible for a fresh attempt.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dshills/surface/internal/logging"
)

// Package errors.
var (
	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("resource cache closed")

	// ErrNilLoader indicates a nil loader function.
	ErrNilLoader = errors.New("loader must not be nil")
)

// LoadError reports a failed resource load. Every waiter for the failed
// load receives the same LoadError.
type LoadError struct {
	Key string
	Err error
}

// Error returns the error description.
func (e *LoadError) Error() string {
	return fmt.Sprintf("loading resource %q: %v", e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader performs the underlying load for a key. The cache owns
// deduplication and fan-out; the loader owns the I/O.
type Loader func(ctx context.Context, key string) error

// state tracks a cache entry's lifecycle. Failed entries are removed from
// the map, so only loading and loaded entries are represented.
type state int

const (
	stateLoading state = iota
	stateLoaded
)

// entry is the per-key load record. done is closed exactly once, when the
// load settles; err is written before the close and read only after it.
type entry struct {
	state state
	done  chan struct{}
	err   error
}

// Config configures a Cache.
type Config struct {
	// Logger receives load lifecycle messages. Defaults to the null logger.
	Logger *logging.Logger
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{Logger: logging.Null}
}

// Cache deduplicates asynchronous resource loads per key.
type Cache struct {
	mu      sync.Mutex
	loader  Loader
	entries map[string]*entry
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc

	log *logging.Logger

	// Stats
	hits     atomic.Uint64
	misses   atomic.Uint64
	loads    atomic.Uint64
	failures atomic.Uint64
}

// New creates a cache around the given loader.
func New(loader Loader, cfg Config) (*Cache, error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Null
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		loader:  loader,
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
		log:     cfg.Logger.WithComponent("resource"),
	}, nil
}

// Request blocks until the resource for key is available or its load fails.
//
// A loaded key resolves immediately. A key with a load in flight shares
// that load's outcome. Otherwise a new load starts. Cancelling ctx releases
// this caller only; the in-flight load continues for other waiters.
func (c *Cache) Request(ctx context.Context, key string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	e, ok := c.entries[key]
	if ok && e.state == stateLoaded {
		c.hits.Add(1)
		c.mu.Unlock()
		return nil
	}

	joined := ok
	if !ok {
		e = &entry{state: stateLoading, done: make(chan struct{})}
		c.entries[key] = e
		c.misses.Add(1)
		c.loads.Add(1)
		go c.load(key, e)
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		// A joined load counts as a hit only once it settles
		// successfully; its failure is already counted by the load.
		if joined && e.err == nil {
			c.hits.Add(1)
		}
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load performs the underlying load and settles the entry.
func (c *Cache) load(key string, e *entry) {
	err := c.loader(c.ctx, key)

	c.mu.Lock()
	if err != nil {
		e.err = &LoadError{Key: key, Err: err}
		// Remove the entry so a later request starts a fresh attempt.
		delete(c.entries, key)
		c.failures.Add(1)
		c.log.Warn("load failed: key=%s err=%v", key, err)
	} else {
		e.state = stateLoaded
		c.log.Debug("load complete: key=%s", key)
	}
	close(e.done)
	c.mu.Unlock()
}

// Result is the settled outcome of one key in PreloadMany.
type Result struct {
	Key string
	Err error
}

// PreloadMany requests every key and waits for all outcomes. It never
// short-circuits on failure; the returned slice holds one result per key,
// in input order.
func (c *Cache) PreloadMany(ctx context.Context, keys []string) []Result {
	results := make([]Result, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			results[i] = Result{Key: key, Err: c.Request(ctx, key)}
		}(i, key)
	}
	wg.Wait()

	return results
}

// IsLoaded reports whether key has been successfully loaded.
func (c *Cache) IsLoaded(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.state == stateLoaded
}

// IsLoading reports whether a load for key is in flight.
func (c *Cache) IsLoading(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.state == stateLoading
}

// Invalidate removes a loaded key so the next request reloads it.
// A key with a load in flight is left alone.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.state == stateLoaded {
		delete(c.entries, key)
	}
}

// Len returns the number of loaded or loading entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels in-flight loads and rejects further requests.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
}

// Stats holds cache counters. Hits counts requests satisfied without a new
// load: immediate resolutions of loaded keys and joins of in-flight loads
// that settle successfully.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Loads    uint64
	Failures uint64
	Entries  int
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Loads:    c.loads.Load(),
		Failures: c.failures.Load(),
		Entries:  entries,
	}
}
