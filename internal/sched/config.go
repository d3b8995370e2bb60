package sched

import (
	"errors"
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors ticksched.yml
//
// Simulated time is carried in 32-bit milliseconds and wraps after about
// 49.7 simulated days of ticking.
type Config struct {
	TickMS         int     `yaml:"tick_ms"`          // 100 (by default)
	QuantumMS      int     `yaml:"quantum_ms"`       // 500 (by default)
	Levels         int     `yaml:"levels"`           // 3 (by default), feedback policy only
	Policy         string  `yaml:"policy"`           // fifo, rr, sjf or mlfq
	SocketPath     string  `yaml:"socket_path"`      // unix socket clients connect to
	WriteTimeoutMS int     `yaml:"write_timeout_ms"` // bound on every write to a client
	Speedup        float64 `yaml:"speedup"`          // simulated ms per real ms
	LogLevel       string  `yaml:"log_level"`
	LogFormat      string  `yaml:"log_format"`
	CSVPath        string  `yaml:"csv_path"`   // optional event log
	HistoryDB      string  `yaml:"history_db"` // optional SQLite retirement history
}

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/tmp/scheduler.sock"

// DefaultConfig is used when the config file is not found.
func DefaultConfig() Config {
	return Config{
		TickMS:         100,
		QuantumMS:      DefaultQuantumMS,
		Levels:         DefaultLevels,
		Policy:         "fifo",
		SocketPath:     DefaultSocketPath,
		WriteTimeoutMS: 250,
		Speedup:        1,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file = defaults only.
// A file that exists but does not parse is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.clamp()
	return cfg, nil
}

// clamp replaces nonsensical values with defaults.
func (c *Config) clamp() {
	def := DefaultConfig()
	if c.TickMS <= 0 {
		c.TickMS = def.TickMS
	}
	if c.QuantumMS <= 0 {
		c.QuantumMS = def.QuantumMS
	}
	if c.Levels <= 0 {
		c.Levels = def.Levels
	}
	if c.Policy == "" {
		c.Policy = def.Policy
	}
	if c.SocketPath == "" {
		c.SocketPath = def.SocketPath
	}
	if c.WriteTimeoutMS <= 0 {
		c.WriteTimeoutMS = def.WriteTimeoutMS
	}
	if c.Speedup <= 0 {
		c.Speedup = def.Speedup
	}
}

// Validate enforces the rules clamping cannot fix. The quantum must be a
// whole number of ticks, otherwise served time would step over the
// preemption boundary and never land on it.
func (c Config) Validate() error {
	if c.TickMS <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMS)
	}
	if c.QuantumMS <= 0 || c.QuantumMS%c.TickMS != 0 {
		return fmt.Errorf("quantum_ms (%d) must be a positive multiple of tick_ms (%d)", c.QuantumMS, c.TickMS)
	}
	if c.Levels < 1 {
		return fmt.Errorf("levels must be at least 1, got %d", c.Levels)
	}
	if _, err := NewPolicy(c); err != nil {
		return err
	}
	return nil
}

// TickInterval is the real time between two simulated ticks.
func (c Config) TickInterval() time.Duration {
	speed := c.Speedup
	if speed <= 0 {
		speed = 1
	}
	d := time.Duration(float64(time.Duration(c.TickMS)*time.Millisecond) / speed)
	if d < time.Microsecond {
		d = time.Microsecond
	}
	return d
}

// WriteTimeout bounds every write to a client connection.
func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}
