// Command slipway-agent is the in-container entrypoint for launched
// workloads. Run without flags it acts as the process manager: it binds
// 0.0.0.0:PORT once, forks WEB_CONCURRENCY worker processes that share the
// listener, forwards SIGINT and SIGTERM to them, and exits non-zero the
// moment the bind fails or any worker dies. Restarts are the container
// runtime's job, not the agent's.
//
// Run with --worker it serves the application on the listener inherited
// from the supervisor.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/slipway-sh/slipway/internal/agent"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess     = 0
	ExitConfigError = 1
	ExitBindError   = 2
	ExitWorkerError = 3
	ExitServeError  = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := setupLogger()

	cfg, err := agent.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	if isWorker(args) {
		if err := agent.RunWorker(cfg, logger); err != nil {
			logger.Error("worker failed", "error", err)
			return ExitServeError
		}
		return ExitSuccess
	}

	supervisor := agent.NewSupervisor(cfg, logger)
	if err := supervisor.Run(); err != nil {
		logger.Error("supervisor failed", "error", err)
		switch {
		case errors.Is(err, agent.ErrBindFailed):
			return ExitBindError
		case errors.Is(err, agent.ErrWorkerExited), errors.Is(err, agent.ErrSpawnFailed):
			return ExitWorkerError
		default:
			return ExitWorkerError
		}
	}
	return ExitSuccess
}

// isWorker reports whether the process was forked as a worker.
func isWorker(args []string) bool {
	for _, arg := range args {
		if arg == agent.WorkerFlag {
			return true
		}
	}
	return false
}

// setupLogger builds the agent logger. Worker and supervisor share stdout,
// so both log JSON lines the container runtime can collect as one stream.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if v := os.Getenv("LOG_LEVEL"); v == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
