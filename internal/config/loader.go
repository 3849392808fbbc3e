package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// FileSystem abstracts file access for testing.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// osFS is the production file system.
type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the operating-system file system.
func DefaultFS() FileSystem {
	return osFS{}
}

// ParseError reports a malformed configuration file.
type ParseError struct {
	Path string
	Err  error
}

// Error returns the error description.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads configuration from path, applying defaults first and
// environment overrides last. A missing file is not an error; defaults
// and the environment still apply.
func Load(path string) (Config, error) {
	return LoadWithFS(DefaultFS(), path)
}

// LoadWithFS is Load with an injectable file system.
func LoadWithFS(fs FileSystem, path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := fs.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// File doesn't exist; defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, &ParseError{Path: path, Err: err}
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays SURFACE_* environment variables onto the config.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("SURFACE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	intVars := []struct {
		name   string
		target *int
	}{
		{"SURFACE_WINDOW_OVERSCAN", &cfg.Window.Overscan},
		{"SURFACE_WINDOW_ITEM_HEIGHT", &cfg.Window.ItemHeight},
		{"SURFACE_SCROLL_THROTTLE_MS", &cfg.RateLimit.ScrollThrottleMs},
		{"SURFACE_RELOAD_DEBOUNCE_MS", &cfg.RateLimit.ReloadDebounceMs},
		{"SURFACE_ANNOUNCE_LIFETIME_MS", &cfg.Announce.LifetimeMs},
		{"SURFACE_MEMORY_INTERVAL_MS", &cfg.Perf.MemoryIntervalMs},
		{"SURFACE_FRAME_INTERVAL_MS", &cfg.Perf.FrameIntervalMs},
	}

	for _, ev := range intVars {
		v := os.Getenv(ev.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, ev.name, v)
		}
		*ev.target = n
	}

	return nil
}
