// Package config defines service configuration and its layered loader.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory baseline job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of baseline workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the capacity of the job idempotency set.
	DedupeSize int `koanf:"dedupe_size"`

	// DBPath is the SQLite database file. ":memory:" keeps everything in process.
	DBPath string `koanf:"db_path"`

	// DecayTauDays is the default time constant of POST /v1/decay-blend.
	DecayTauDays float64 `koanf:"decay_tau_days"`

	// RecentTauDays is the time constant of the baseline recent-form window.
	RecentTauDays float64 `koanf:"recent_tau_days"`

	// MaxRosterSize caps the players accepted by one reconcile request.
	MaxRosterSize int `koanf:"max_roster_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		QueueSize:     10_000,
		WorkerCount:   runtime.NumCPU(),
		DedupeSize:    100_000,
		DBPath:        "rinkcast.db",
		DecayTauDays:  30,
		RecentTauDays: 30,
		MaxRosterSize: 40,
	}
}

// Validate reports the first invalid field, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case !(c.DecayTauDays > 0):
		return fmt.Errorf("%w: decay_tau_days must be positive", ErrInvalidConfig)
	case !(c.RecentTauDays > 0):
		return fmt.Errorf("%w: recent_tau_days must be positive", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
