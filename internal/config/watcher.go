package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/surface/internal/logging"
	"github.com/dshills/surface/internal/platform"
	"github.com/dshills/surface/internal/ratelimit"
)

// ReloadHandler receives a freshly loaded configuration.
type ReloadHandler func(cfg Config)

// Watcher watches a configuration file and delivers debounced reloads.
// Editors typically replace files on save, so the watcher observes the
// parent directory and filters events by name.
type Watcher struct {
	path      string
	fsw       *fsnotify.Watcher
	debounced *ratelimit.Debounced[string]
	handler   ReloadHandler
	log       *logging.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher watches path and calls handler with the reloaded config after
// writes settle for the debounce interval. Reloads that fail to parse or
// validate are logged and dropped; the previous config stays in effect.
func NewWatcher(path string, clock platform.Clock, debounce time.Duration, handler ReloadHandler, log *logging.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, ratelimit.ErrNilFunc
	}
	if log == nil {
		log = logging.Null
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching config directory: %w", err)
	}

	w := &Watcher{
		path:    abs,
		fsw:     fsw,
		handler: handler,
		log:     log.WithComponent("config"),
		done:    make(chan struct{}),
	}

	w.debounced, err = ratelimit.NewDebounced(clock, debounce, w.reload)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// loop filters file events down to the watched path and feeds the debouncer.
func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("config file changed: op=%s", ev.Op.String())
			w.debounced.Call(w.path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error: %v", err)
		}
	}
}

// reload runs on the debounce timer after writes settle.
func (w *Watcher) reload(path string) {
	cfg, err := Load(path)
	if err != nil {
		w.log.Warn("config reload failed: %v", err)
		return
	}
	w.log.Info("config reloaded: %s", path)
	w.handler(cfg)
}

// Close stops watching. Pending debounced reloads are discarded.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	// Stop the debouncer first so a reload timer already armed cannot
	// fire into the handler during or after teardown.
	w.debounced.Stop()
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
