// Package agent implements the in-container process manager. A supervisor
// process binds the service port once and preforks worker processes that
// share the listener, so a multi-worker HTTP service presents a single
// foreground process to the container runtime.
package agent

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/slipway-sh/slipway/internal/core/manifest"
)

// Defaults applied when the environment does not override them.
const (
	DefaultPort    = 8080
	DefaultWorkers = 1
)

// Environment variables consumed by the chat application in worker mode.
const (
	EnvOllamaURL   = "OLLAMA_URL"
	EnvOllamaModel = "OLLAMA_MODEL"
)

var (
	ErrInvalidPort    = errors.New("PORT must be an integer between 1 and 65535")
	ErrInvalidWorkers = errors.New("WEB_CONCURRENCY must be a positive integer")
)

// Config is the agent configuration, resolved from the environment once at
// startup. The worker count is fixed for the process lifetime.
type Config struct {
	Port        int
	Workers     int
	OllamaURL   string
	OllamaModel string
}

// ConfigFromEnv resolves the agent configuration from process environment
// variables. Unset variables fall back to defaults; set-but-invalid values
// are errors rather than silent fallbacks.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Port:        DefaultPort,
		Workers:     DefaultWorkers,
		OllamaURL:   os.Getenv(EnvOllamaURL),
		OllamaModel: os.Getenv(EnvOllamaModel),
	}

	if raw, ok := os.LookupEnv(manifest.EnvPort); ok {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("%w: got %q", ErrInvalidPort, raw)
		}
		cfg.Port = port
	}

	if raw, ok := os.LookupEnv(manifest.EnvWorkers); ok {
		workers, err := strconv.Atoi(raw)
		if err != nil || workers < 1 {
			return Config{}, fmt.Errorf("%w: got %q", ErrInvalidWorkers, raw)
		}
		cfg.Workers = workers
	}

	return cfg, nil
}

// Addr returns the supervisor bind address. The wildcard host makes the
// service reachable through container port mappings.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
