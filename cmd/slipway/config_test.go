package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./data/slipway.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 20000, cfg.Launches.PortRangeStart)
	assert.Equal(t, 29999, cfg.Launches.PortRangeEnd)
	assert.Equal(t, 15*time.Second, cfg.Reconciler.Interval)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  read_timeout: 60s
  write_timeout: 60s
  shutdown_timeout: 15s

database:
  dsn: "/tmp/test.db"

auth:
  enabled: true

launches:
  port_range_start: 30000
  port_range_end: 30999

log:
  level: "debug"
  format: "text"
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 30000, cfg.Launches.PortRangeStart)
	assert.Equal(t, 30999, cfg.Launches.PortRangeEnd)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("SLIPWAY_SERVER_HOST", "192.168.1.1")
	t.Setenv("SLIPWAY_SERVER_PORT", "3000")
	t.Setenv("SLIPWAY_DATABASE_DSN", "/custom/path.db")
	t.Setenv("SLIPWAY_AUTH_ENABLED", "true")
	t.Setenv("SLIPWAY_LOG_LEVEL", "warn")
	t.Setenv("SLIPWAY_LOG_FORMAT", "text")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.DSN)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err) // Should not error, just use defaults

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidPortRange(t *testing.T) {
	clearEnv(t)

	t.Setenv("SLIPWAY_LAUNCHES_PORT_RANGE_START", "25000")
	t.Setenv("SLIPWAY_LAUNCHES_PORT_RANGE_END", "24000")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		cfg := &Config{
			Log: LogConfig{
				Level:  "info",
				Format: format,
			},
		}

		logger := SetupLogger(cfg)
		assert.NotNil(t, logger)
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	// Unknown levels fall back to info, no panic
	for _, level := range []string{"debug", "info", "warn", "error", "invalid"} {
		cfg := &Config{
			Log: LogConfig{
				Level:  level,
				Format: "json",
			},
		}

		logger := SetupLogger(cfg)
		assert.NotNil(t, logger)
	}
}

// =============================================================================
// Config Validation Tests
// =============================================================================

func TestConfig_Address(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}

	assert.Equal(t, "localhost:8080", cfg.Server.Address())
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SLIPWAY_SERVER_HOST",
		"SLIPWAY_SERVER_PORT",
		"SLIPWAY_DATABASE_DSN",
		"SLIPWAY_AUTH_ENABLED",
		"SLIPWAY_LAUNCHES_PORT_RANGE_START",
		"SLIPWAY_LAUNCHES_PORT_RANGE_END",
		"SLIPWAY_LOG_LEVEL",
		"SLIPWAY_LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
