// Package app wires the surface services into an interactive gallery
// browser: a virtual-windowed project list with deduplicated resource
// loads, throttled scrolling, focus trapping, status-line announcements
// and a live performance readout.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/surface/internal/announce"
	"github.com/dshills/surface/internal/config"
	"github.com/dshills/surface/internal/focus"
	"github.com/dshills/surface/internal/logging"
	"github.com/dshills/surface/internal/perf"
	"github.com/dshills/surface/internal/platform"
	"github.com/dshills/surface/internal/ratelimit"
	"github.com/dshills/surface/internal/resource"
	"github.com/dshills/surface/internal/visibility"
	"github.com/dshills/surface/internal/window"
)

// ErrQuit signals a user-requested exit.
var ErrQuit = errors.New("quit requested")

// DefaultItemCount is the gallery size when none is requested.
const DefaultItemCount = 500

// Options are the command-line options.
type Options struct {
	// ConfigPath points at an optional TOML config file.
	ConfigPath string

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string

	// Items is the gallery size.
	Items int
}

// App owns the surface services and the terminal event loop.
type App struct {
	log       *logging.Logger
	clock     platform.Clock
	startup   *platform.StartupTimer
	gallery   *Gallery
	coord     *focus.Coordinator
	cache     *resource.Cache
	status    *StatusSurface
	announcer *announce.Announcer
	frames    *platform.ManualFrames
	sampler   *perf.Sampler
	observer  *visibility.Observer
	scroll    *ratelimit.Throttled[int]
	watcher   *config.Watcher

	mu           sync.Mutex
	cfg          config.Config
	screen       tcell.Screen
	scrollOffset int
	targetOffset int
	marked       bool

	shutdown sync.Once
}

// New builds the application from options.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Items <= 0 {
		opts.Items = DefaultItemCount
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	log := logging.New(logCfg)

	clock := platform.RealClock()

	a := &App{
		log:      log.WithComponent("app"),
		clock:    clock,
		startup:  platform.NewStartupTimer(clock),
		gallery:  NewGallery(opts.Items),
		status:   NewStatusSurface(),
		frames:   platform.NewManualFrames(),
		observer: visibility.NewObserver(),
		cfg:      cfg,
	}
	a.coord = focus.Attach(a.gallery)

	a.cache, err = resource.New(a.loadResource, resource.Config{Logger: log})
	if err != nil {
		return nil, err
	}

	a.announcer = announce.New(a.status,
		announce.WithClock(clock),
		announce.WithLifetime(cfg.Announce.Lifetime()),
	)

	a.sampler = perf.New(perf.Config{
		Clock:          clock,
		Frames:         a.frames,
		Load:           a.startup,
		MemoryInterval: cfg.Perf.MemoryInterval(),
		Logger:         log,
	})

	a.scroll, err = ratelimit.NewThrottled(clock, cfg.RateLimit.ScrollThrottle(), a.commitScroll)
	if err != nil {
		return nil, err
	}

	// Each item loads its resource the first time it scrolls into view.
	for i := 0; i < a.gallery.Len(); i++ {
		it := a.gallery.Item(i)
		a.observer.Observe(it.Key(), func() { go a.loadItem(it) })
	}

	if opts.ConfigPath != "" {
		a.watcher, err = config.NewWatcher(opts.ConfigPath, clock,
			cfg.RateLimit.ReloadDebounce(), a.applyConfig, log)
		if err != nil {
			// Live reload is best-effort; the app runs without it.
			a.log.Warn("config watch unavailable: %v", err)
		}
	}

	return a, nil
}

// loadResource simulates fetching one gallery resource.
func (a *App) loadResource(ctx context.Context, key string) error {
	delay := 20*time.Millisecond + time.Duration(rand.Intn(80))*time.Millisecond
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// loadItem requests the item's resource and marks it loaded.
func (a *App) loadItem(it *Item) {
	if err := a.cache.Request(context.Background(), it.Key()); err != nil {
		a.log.Warn("load failed: key=%s err=%v", it.Key(), err)
		_ = a.announcer.Announce(fmt.Sprintf("Failed to load %s", it.Title()), announce.Assertive)
		return
	}
	it.MarkLoaded()
	a.redraw()
}

// applyConfig installs a reloaded configuration. Only the tunables that
// are read per-frame take effect; intervals fixed at construction keep
// their original values.
func (a *App) applyConfig(cfg config.Config) {
	a.mu.Lock()
	a.cfg.Window = cfg.Window
	a.mu.Unlock()

	a.log.SetLevel(logging.ParseLevel(cfg.Log.Level))
	_ = a.announcer.Announce("Configuration reloaded", announce.Polite)
	a.redraw()
}

// commitScroll is the throttled scroll sink.
func (a *App) commitScroll(offset int) {
	a.mu.Lock()
	a.scrollOffset = offset
	a.mu.Unlock()
	a.redraw()
}

// scrollBy moves the target offset by delta rows, clamped to the content,
// and feeds it through the throttle.
func (a *App) scrollBy(delta int) {
	a.mu.Lock()
	total := a.gallery.Len() * a.cfg.Window.ItemHeight
	a.targetOffset += delta
	if a.targetOffset > total {
		a.targetOffset = total
	}
	if a.targetOffset < 0 {
		a.targetOffset = 0
	}
	target := a.targetOffset
	a.mu.Unlock()

	a.scroll.Call(target)
}

// redraw wakes the event loop for a repaint.
func (a *App) redraw() {
	a.mu.Lock()
	s := a.screen
	a.mu.Unlock()
	if s != nil {
		_ = s.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// Run creates the terminal screen and processes events until quit.
func (a *App) Run() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	return a.RunWithScreen(screen)
}

// RunWithScreen runs the event loop on an existing screen. The caller owns
// the screen's lifecycle.
func (a *App) RunWithScreen(screen tcell.Screen) error {
	a.mu.Lock()
	a.screen = screen
	a.mu.Unlock()

	if err := a.sampler.Start(); err != nil {
		return err
	}

	// Warm the first screenful before the first paint.
	go a.preloadInitial()

	a.log.Info("gallery started: items=%d", a.gallery.Len())

	for {
		a.draw(screen)

		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			// Repaint request; the top of the loop draws.
		case *tcell.EventKey:
			if err := a.handleKey(ev); err != nil {
				return err
			}
		}
	}
}

// preloadInitial warms the cache for the first screenful of items.
func (a *App) preloadInitial() {
	n := 20
	if n > a.gallery.Len() {
		n = a.gallery.Len()
	}
	keys := make([]string, n)
	for i := range keys {
		keys[i] = a.gallery.Item(i).Key()
	}

	for _, res := range a.cache.PreloadMany(context.Background(), keys) {
		if res.Err != nil {
			a.log.Warn("preload failed: key=%s err=%v", res.Key, res.Err)
		}
	}
	a.redraw()
}

// handleKey dispatches one key event.
func (a *App) handleKey(ev *tcell.EventKey) error {
	a.mu.Lock()
	itemHeight := a.cfg.Window.ItemHeight
	a.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyCtrlC:
		return ErrQuit
	case tcell.KeyEscape:
		if a.coord.Trapped() {
			a.coord.Release()
			_ = a.announcer.Announce("Focus released", announce.Polite)
			return nil
		}
		return ErrQuit
	case tcell.KeyTab:
		a.moveFocus(focus.TabEvent{})
		return nil
	case tcell.KeyBacktab:
		a.moveFocus(focus.TabEvent{Backward: true})
		return nil
	case tcell.KeyEnter:
		a.coord.Activate()
		_ = a.announcer.Announce("Focus trapped in visible items", announce.Assertive)
		return nil
	case tcell.KeyUp:
		a.scrollBy(-itemHeight)
		return nil
	case tcell.KeyDown:
		a.scrollBy(itemHeight)
		return nil
	case tcell.KeyPgUp:
		a.scrollBy(-10 * itemHeight)
		return nil
	case tcell.KeyPgDn:
		a.scrollBy(10 * itemHeight)
		return nil
	case tcell.KeyHome:
		a.scrollBy(-a.gallery.Len() * itemHeight)
		return nil
	case tcell.KeyEnd:
		a.scrollBy(a.gallery.Len() * itemHeight)
		return nil
	}

	switch ev.Rune() {
	case 'q':
		return ErrQuit
	case 'i':
		a.invalidateFocused()
	}
	return nil
}

// moveFocus advances focus through the trap when active, otherwise moves
// it directly.
func (a *App) moveFocus(ev focus.TabEvent) {
	a.gallery.BlurAll()
	if !a.coord.Trap(ev) {
		if ev.Backward {
			a.coord.FocusPrevious()
		} else {
			a.coord.FocusNext()
		}
	}
	if it := a.focusedItem(); it != nil {
		_ = a.announcer.Announce(it.Title(), announce.Polite)
	}
	a.redraw()
}

// focusedItem returns the item holding focus, or nil.
func (a *App) focusedItem() *Item {
	for i := 0; i < a.gallery.Len(); i++ {
		if it := a.gallery.Item(i); it.Focused() {
			return it
		}
	}
	return nil
}

// invalidateFocused drops the focused item's cached resource and reloads it.
func (a *App) invalidateFocused() {
	it := a.focusedItem()
	if it == nil {
		return
	}
	a.cache.Invalidate(it.Key())
	_ = a.announcer.Announce(fmt.Sprintf("Reloading %s", it.Title()), announce.Polite)
	go a.loadItem(it)
}

// draw paints one frame.
func (a *App) draw(screen tcell.Screen) {
	a.mu.Lock()
	cfg := a.cfg
	offset := a.scrollOffset
	a.mu.Unlock()

	w, h := screen.Size()
	if h < 3 {
		return
	}
	listHeight := h - 2 // header and status rows

	// Keep the painted offset consistent with the range computation's
	// own clamping.
	if max := a.gallery.Len()*cfg.Window.ItemHeight - listHeight; offset > max {
		offset = max
	}
	if offset < 0 {
		offset = 0
	}

	r, err := window.Compute(window.Spec{
		ItemCount:       a.gallery.Len(),
		ItemHeight:      cfg.Window.ItemHeight,
		ContainerHeight: listHeight,
		ScrollOffset:    offset,
		Overscan:        cfg.Window.Overscan,
	})
	if err != nil {
		a.log.Error("window computation failed: %v", err)
		return
	}

	a.gallery.SetWindow(r.Start, r.End)
	a.coord.Refresh()
	for i := r.Start; i <= r.End; i++ {
		a.observer.Report(a.gallery.Item(i).Key(), true)
	}

	screen.Clear()
	a.drawHeader(screen, w)

	base := tcell.StyleDefault
	for i := r.Start; i >= 0 && i <= r.End; i++ {
		it := a.gallery.Item(i)
		y := 1 + i*cfg.Window.ItemHeight - offset
		if y < 1 || y >= h-1 {
			continue
		}

		style := base
		text := it.Title()
		if !it.Loaded() {
			style = style.Dim(true)
			text += " (loading)"
		}
		if it.Focused() {
			style = style.Reverse(true)
		}
		drawText(screen, 1, y, w-1, style, text)
	}

	a.drawStatus(screen, w, h-1)
	screen.Show()

	now := a.clock.Now()
	a.markLoadedOnce()
	a.frames.Fire(now)
}

// markLoadedOnce marks startup complete on the first painted frame.
func (a *App) markLoadedOnce() {
	a.mu.Lock()
	marked := a.marked
	a.marked = true
	a.mu.Unlock()

	if !marked {
		a.startup.MarkLoaded()
		a.sampler.SampleLoadTiming()
	}
}

// drawHeader paints the title row with the performance readout.
func (a *App) drawHeader(screen tcell.Screen, w int) {
	snap := a.sampler.Snapshot()
	header := fmt.Sprintf(" surface gallery | %d fps | %.1fMB (%.0f%%) | load %.0fms",
		snap.FPS, snap.Memory.UsedMB, snap.Memory.Percent, snap.LoadTimeMs)
	drawText(screen, 0, 0, w, tcell.StyleDefault.Reverse(true), pad(header, w))
}

// drawStatus paints the status row: the live announcement when present,
// otherwise cache statistics.
func (a *App) drawStatus(screen tcell.Screen, w, y int) {
	msg, ok := a.status.Current()
	if !ok {
		stats := a.cache.Stats()
		msg = fmt.Sprintf("cache: %d loaded, %d hits, %d misses, %d failures",
			stats.Entries, stats.Hits, stats.Misses, stats.Failures)
	}
	drawText(screen, 0, y, w, tcell.StyleDefault.Reverse(true), pad(" "+msg, w))
}

// Shutdown stops the services. Safe to call more than once.
func (a *App) Shutdown() {
	a.shutdown.Do(func() {
		if a.watcher != nil {
			_ = a.watcher.Close()
		}
		a.scroll.Stop()
		_ = a.sampler.Stop()
		a.announcer.Close()
		a.cache.Close()
		a.log.Info("gallery stopped")
	})
}

// drawText writes text at (x, y) clipped to maxWidth runes.
func drawText(screen tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			return
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}

// pad right-pads s with spaces to width.
func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
