// Package config loads surface tunables from TOML files with environment
// overrides and supports debounced live reload.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates a configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all surface tunables.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Window    WindowConfig    `toml:"window"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Announce  AnnounceConfig  `toml:"announce"`
	Perf      PerfConfig      `toml:"perf"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`
}

// WindowConfig configures virtual-window rendering.
type WindowConfig struct {
	// Overscan is the number of extra items rendered on each side of the
	// visible range.
	Overscan int `toml:"overscan"`

	// ItemHeight is the fixed height of one list item.
	ItemHeight int `toml:"item_height"`
}

// RateLimitConfig configures event-stream rate limiting.
type RateLimitConfig struct {
	// ScrollThrottleMs bounds how often scroll input recomputes the window.
	ScrollThrottleMs int `toml:"scroll_throttle_ms"`

	// ReloadDebounceMs is the quiet window before a config reload.
	ReloadDebounceMs int `toml:"reload_debounce_ms"`
}

// ScrollThrottle returns the scroll throttle interval.
func (c RateLimitConfig) ScrollThrottle() time.Duration {
	return time.Duration(c.ScrollThrottleMs) * time.Millisecond
}

// ReloadDebounce returns the reload debounce interval.
func (c RateLimitConfig) ReloadDebounce() time.Duration {
	return time.Duration(c.ReloadDebounceMs) * time.Millisecond
}

// AnnounceConfig configures the announcer.
type AnnounceConfig struct {
	// LifetimeMs is how long an announcement region stays attached.
	LifetimeMs int `toml:"lifetime_ms"`
}

// Lifetime returns the region lifetime.
func (c AnnounceConfig) Lifetime() time.Duration {
	return time.Duration(c.LifetimeMs) * time.Millisecond
}

// PerfConfig configures the performance sampler.
type PerfConfig struct {
	// MemoryIntervalMs is the memory sampling cadence.
	MemoryIntervalMs int `toml:"memory_interval_ms"`

	// FrameIntervalMs is the animation-frame cadence.
	FrameIntervalMs int `toml:"frame_interval_ms"`
}

// MemoryInterval returns the memory sampling interval.
func (c PerfConfig) MemoryInterval() time.Duration {
	return time.Duration(c.MemoryIntervalMs) * time.Millisecond
}

// FrameInterval returns the frame interval.
func (c PerfConfig) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Window: WindowConfig{
			Overscan:   2,
			ItemHeight: 1,
		},
		RateLimit: RateLimitConfig{
			ScrollThrottleMs: 50,
			ReloadDebounceMs: 200,
		},
		Announce: AnnounceConfig{
			LifetimeMs: 1000,
		},
		Perf: PerfConfig{
			MemoryIntervalMs: 5000,
			FrameIntervalMs:  16,
		},
	}
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.Window.Overscan < 0 {
		return fmt.Errorf("%w: window overscan %d must be non-negative", ErrInvalidConfig, c.Window.Overscan)
	}
	if c.Window.ItemHeight <= 0 {
		return fmt.Errorf("%w: window item height %d must be positive", ErrInvalidConfig, c.Window.ItemHeight)
	}
	if c.RateLimit.ScrollThrottleMs <= 0 {
		return fmt.Errorf("%w: scroll throttle %dms must be positive", ErrInvalidConfig, c.RateLimit.ScrollThrottleMs)
	}
	if c.RateLimit.ReloadDebounceMs <= 0 {
		return fmt.Errorf("%w: reload debounce %dms must be positive", ErrInvalidConfig, c.RateLimit.ReloadDebounceMs)
	}
	if c.Announce.LifetimeMs <= 0 {
		return fmt.Errorf("%w: announcement lifetime %dms must be positive", ErrInvalidConfig, c.Announce.LifetimeMs)
	}
	if c.Perf.MemoryIntervalMs <= 0 {
		return fmt.Errorf("%w: memory interval %dms must be positive", ErrInvalidConfig, c.Perf.MemoryIntervalMs)
	}
	if c.Perf.FrameIntervalMs <= 0 {
		return fmt.Errorf("%w: frame interval %dms must be positive", ErrInvalidConfig, c.Perf.FrameIntervalMs)
	}
	return nil
}
