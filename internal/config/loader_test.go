package config

import (
	"errors"
	"os"
	"testing"
)

// mapFS is an in-memory file system.
type mapFS map[string][]byte

func (m mapFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithFS(mapFS{}, "missing.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults for a missing file, got %+v", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	fs := mapFS{
		"surface.toml": []byte(`
[window]
overscan = 5

[rate_limit]
scroll_throttle_ms = 100

[announce]
lifetime_ms = 2500
`),
	}

	cfg, err := LoadWithFS(fs, "surface.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Window.Overscan != 5 {
		t.Errorf("expected overscan 5, got %d", cfg.Window.Overscan)
	}
	if cfg.RateLimit.ScrollThrottleMs != 100 {
		t.Errorf("expected 100ms throttle, got %d", cfg.RateLimit.ScrollThrottleMs)
	}
	if cfg.Announce.LifetimeMs != 2500 {
		t.Errorf("expected 2500ms lifetime, got %d", cfg.Announce.LifetimeMs)
	}

	// Unset sections keep their defaults.
	if cfg.Perf.MemoryIntervalMs != Default().Perf.MemoryIntervalMs {
		t.Errorf("expected default memory interval, got %d", cfg.Perf.MemoryIntervalMs)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	fs := mapFS{"bad.toml": []byte("[window\novers can = nope")}

	_, err := LoadWithFS(fs, "bad.toml")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if perr.Path != "bad.toml" {
		t.Errorf("expected path in error, got %q", perr.Path)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	fs := mapFS{
		"surface.toml": []byte("[window]\noverscan = 5\n"),
	}
	t.Setenv("SURFACE_WINDOW_OVERSCAN", "9")
	t.Setenv("SURFACE_LOG_LEVEL", "debug")

	cfg, err := LoadWithFS(fs, "surface.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Window.Overscan != 9 {
		t.Errorf("expected env override 9, got %d", cfg.Window.Overscan)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected env log level, got %q", cfg.Log.Level)
	}
}

func TestEnvNonIntegerFails(t *testing.T) {
	t.Setenv("SURFACE_SCROLL_THROTTLE_MS", "fast")

	_, err := LoadWithFS(mapFS{}, "")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative overscan", func(c *Config) { c.Window.Overscan = -1 }},
		{"zero item height", func(c *Config) { c.Window.ItemHeight = 0 }},
		{"zero throttle", func(c *Config) { c.RateLimit.ScrollThrottleMs = 0 }},
		{"negative debounce", func(c *Config) { c.RateLimit.ReloadDebounceMs = -5 }},
		{"zero lifetime", func(c *Config) { c.Announce.LifetimeMs = 0 }},
		{"zero memory interval", func(c *Config) { c.Perf.MemoryIntervalMs = 0 }},
		{"zero frame interval", func(c *Config) { c.Perf.FrameIntervalMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()
	if cfg.RateLimit.ScrollThrottle().Milliseconds() != int64(cfg.RateLimit.ScrollThrottleMs) {
		t.Error("scroll throttle accessor disagrees with field")
	}
	if cfg.Announce.Lifetime().Milliseconds() != int64(cfg.Announce.LifetimeMs) {
		t.Error("lifetime accessor disagrees with field")
	}
	if cfg.Perf.MemoryInterval().Milliseconds() != int64(cfg.Perf.MemoryIntervalMs) {
		t.Error("memory interval accessor disagrees with field")
	}
}
