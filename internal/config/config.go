// Package config loads checker settings from an optional JSON file.
package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Threads    int
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Debug      bool

	// RateLimit is requests per second across all workers; 0 means unlimited.
	RateLimit float64
	// Endpoint overrides the availability URL template when non-empty.
	Endpoint string
}

func Default() Config {
	return Config{
		Threads:    3,
		Timeout:    10 * time.Second,
		Retries:    5,
		RetryDelay: 10 * time.Second,
	}
}

// Load reads path through viper and merges it over the defaults. A missing
// or unreadable file yields the defaults.
func Load(path string) Config {
	cfg := Default()
	if path == "" {
		return cfg
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return cfg
	}
	return Merge(cfg, v.AllSettings())
}

// Merge applies the recognised keys of settings onto base. Unknown keys are
// ignored, and values that do not convert or are out of range keep the base value.
func Merge(base Config, settings map[string]any) Config {
	cfg := base

	if raw, ok := settings["threads"]; ok {
		if n, err := cast.ToIntE(raw); err == nil && n >= 1 {
			cfg.Threads = n
		}
	}
	if raw, ok := settings["timeout"]; ok {
		if d, ok := seconds(raw); ok && d > 0 {
			cfg.Timeout = d
		}
	}
	if raw, ok := settings["retries"]; ok {
		if n, err := cast.ToIntE(raw); err == nil && n >= 0 {
			cfg.Retries = n
		}
	}
	if raw, ok := settings["retry_delay"]; ok {
		if d, ok := seconds(raw); ok && d >= 0 {
			cfg.RetryDelay = d
		}
	}
	if raw, ok := settings["debug"]; ok {
		if b, err := cast.ToBoolE(raw); err == nil {
			cfg.Debug = b
		}
	}
	if raw, ok := settings["rate_limit"]; ok {
		if r, err := cast.ToFloat64E(raw); err == nil && r >= 0 {
			cfg.RateLimit = r
		}
	}
	if raw, ok := settings["endpoint"]; ok {
		if s, err := cast.ToStringE(raw); err == nil && s != "" {
			cfg.Endpoint = s
		}
	}

	return cfg
}

func seconds(raw any) (time.Duration, bool) {
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}
