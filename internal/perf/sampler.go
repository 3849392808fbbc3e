// Package perf samples frame rate, memory usage and load timing into an
// immutable snapshot.
//
// The sampler owns the snapshot; consumers read it through Snapshot() and
// never mutate it. Each publication replaces the snapshot wholesale. Hosts
// without a memory probe or load timer simply leave the corresponding
// fields at their previous values; capability absence is not an error.
package perf

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/surface/internal/logging"
	"github.com/dshills/surface/internal/platform"
)

// Package errors.
var (
	// ErrAlreadyRunning indicates the sampler was started twice.
	ErrAlreadyRunning = errors.New("sampler already running")

	// ErrNotRunning indicates the sampler is not running.
	ErrNotRunning = errors.New("sampler not running")
)

// DefaultMemoryInterval is the default memory sampling cadence.
const DefaultMemoryInterval = 5 * time.Second

// fpsWindow is the minimum elapsed time before an FPS figure is published.
const fpsWindow = time.Second

// MemoryUsage holds memory figures in megabytes.
type MemoryUsage struct {
	UsedMB  float64
	TotalMB float64
	Percent float64
}

// Snapshot is an immutable point-in-time view of surface performance.
type Snapshot struct {
	FPS        int
	LoadTimeMs float64
	Memory     MemoryUsage
}

// Config configures a Sampler. Zero-value fields fall back to production
// defaults.
type Config struct {
	// Clock drives the memory sampling interval. Defaults to the real clock.
	Clock platform.Clock

	// Frames delivers animation-frame ticks. Defaults to a ticker scheduler
	// at the default frame interval.
	Frames platform.FrameScheduler

	// Memory is the memory probe. Defaults to the runtime probe.
	Memory platform.MemoryProbe

	// Load reports load timing. Defaults to no capability.
	Load platform.LoadTimer

	// MemoryInterval is the memory sampling cadence.
	MemoryInterval time.Duration

	// Logger receives sampler lifecycle messages.
	Logger *logging.Logger
}

// Sampler periodically samples performance figures.
type Sampler struct {
	clock       platform.Clock
	frames      platform.FrameScheduler
	probe       platform.MemoryProbe
	load        platform.LoadTimer
	memInterval time.Duration
	log         *logging.Logger

	snap atomic.Pointer[Snapshot]

	mu          sync.Mutex
	running     bool
	frameCount  int
	windowStart time.Time
	loadSampled bool
	stopFrames  func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a sampler from the config.
func New(cfg Config) *Sampler {
	if cfg.Clock == nil {
		cfg.Clock = platform.RealClock()
	}
	if cfg.Frames == nil {
		cfg.Frames = platform.NewTickerFrames(cfg.Clock, 0)
	}
	if cfg.Memory == nil {
		cfg.Memory = platform.NewRuntimeProbe()
	}
	if cfg.Load == nil {
		cfg.Load = platform.NoLoadTimer{}
	}
	if cfg.MemoryInterval <= 0 {
		cfg.MemoryInterval = DefaultMemoryInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Null
	}

	s := &Sampler{
		clock:       cfg.Clock,
		frames:      cfg.Frames,
		probe:       cfg.Memory,
		load:        cfg.Load,
		memInterval: cfg.MemoryInterval,
		log:         cfg.Logger.WithComponent("perf"),
	}
	s.snap.Store(&Snapshot{})
	return s
}

// Start begins the frame loop and the memory sampling interval.
func (s *Sampler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.frameCount = 0
	s.windowStart = s.clock.Now()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.stopFrames = s.frames.Schedule(s.Tick)

	s.wg.Add(1)
	go s.memoryLoop(ctx)
	s.mu.Unlock()

	s.SampleLoadTiming()
	s.log.Debug("sampler started")
	return nil
}

// Stop halts the frame loop and the memory interval. Safe to call once
// after Start; later frames and ticks are discarded.
func (s *Sampler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	stopFrames := s.stopFrames
	cancel := s.cancel
	s.mu.Unlock()

	stopFrames()
	cancel()
	s.wg.Wait()

	s.log.Debug("sampler stopped")
	return nil
}

// Snapshot returns the current performance snapshot.
func (s *Sampler) Snapshot() Snapshot {
	return *s.snap.Load()
}

// Tick records one animation frame. Once at least a second has elapsed
// since the last reset it publishes fps = round(frames*1000/elapsedMs) and
// resets the counter and window.
func (s *Sampler) Tick(now time.Time) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.frameCount++
	elapsed := now.Sub(s.windowStart)
	if elapsed < fpsWindow {
		s.mu.Unlock()
		return
	}

	fps := int(math.Round(float64(s.frameCount) * 1000 / float64(elapsed.Milliseconds())))
	s.frameCount = 0
	s.windowStart = now
	s.publishLocked(func(snap *Snapshot) {
		snap.FPS = fps
	})
	s.mu.Unlock()
}

// SampleMemory reads the memory probe and publishes the figures. When the
// probe reports the capability as absent the previous figures are kept.
func (s *Sampler) SampleMemory() {
	stats, ok := s.probe.Sample()
	if !ok {
		return
	}

	const mb = 1024 * 1024
	usage := MemoryUsage{
		UsedMB:  float64(stats.Used) / mb,
		TotalMB: float64(stats.Total) / mb,
	}
	if stats.Total > 0 {
		usage.Percent = float64(stats.Used) / float64(stats.Total) * 100
	}

	s.mu.Lock()
	s.publishLocked(func(snap *Snapshot) {
		snap.Memory = usage
	})
	s.mu.Unlock()
}

// SampleLoadTiming publishes the load time once it becomes available.
// Only the first successful sample is recorded.
func (s *Sampler) SampleLoadTiming() bool {
	d, ok := s.load.LoadTime()
	if !ok {
		return false
	}

	s.mu.Lock()
	if s.loadSampled {
		s.mu.Unlock()
		return true
	}
	s.loadSampled = true
	s.publishLocked(func(snap *Snapshot) {
		snap.LoadTimeMs = float64(d.Milliseconds())
	})
	s.mu.Unlock()
	return true
}

// publishLocked replaces the snapshot wholesale. Callers hold s.mu.
func (s *Sampler) publishLocked(mutate func(*Snapshot)) {
	next := *s.snap.Load()
	mutate(&next)
	s.snap.Store(&next)
}

// memoryLoop samples memory on the configured interval and retries load
// timing until it becomes available.
func (s *Sampler) memoryLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.memInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.SampleMemory()
			s.mu.Lock()
			sampled := s.loadSampled
			s.mu.Unlock()
			if !sampled {
				s.SampleLoadTiming()
			}
		}
	}
}
