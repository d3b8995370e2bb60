package sched

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ticksched.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_OverridesAndClamps(t *testing.T) {
	path := writeConfig(t, `
tick_ms: 50
quantum_ms: 250
policy: mlfq
levels: -2
socket_path: /tmp/other.sock
speedup: 0
csv_path: events.csv
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.TickMS)
	assert.Equal(t, 250, cfg.QuantumMS)
	assert.Equal(t, "mlfq", cfg.Policy)
	assert.Equal(t, DefaultLevels, cfg.Levels, "negative levels fall back to the default")
	assert.Equal(t, "/tmp/other.sock", cfg.SocketPath)
	assert.Equal(t, 1.0, cfg.Speedup)
	assert.Equal(t, "events.csv", cfg.CSVPath)
	assert.Equal(t, 250, cfg.WriteTimeoutMS)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "tick_ms: fast\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"quantum not a multiple of tick", func(c *Config) { c.TickMS = 300 }, true},
		{"quantum equals tick", func(c *Config) { c.TickMS, c.QuantumMS = 250, 250 }, false},
		{"zero tick", func(c *Config) { c.TickMS = 0 }, true},
		{"zero levels", func(c *Config) { c.Levels = 0 }, true},
		{"unknown policy", func(c *Config) { c.Policy = "edf" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTickInterval(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval())

	cfg.Speedup = 10
	assert.Equal(t, 10*time.Millisecond, cfg.TickInterval())

	cfg.Speedup = 1e12
	assert.Equal(t, time.Microsecond, cfg.TickInterval(), "interval never drops to zero")
}
