package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// listenerFD is the file descriptor workers inherit the shared listener on.
// Fd 0-2 are stdio, so the first ExtraFiles entry lands on 3.
const listenerFD = 3

// WorkerFlag marks a child process as a worker.
const WorkerFlag = "--worker"

var (
	ErrBindFailed   = errors.New("failed to bind service port")
	ErrWorkerExited = errors.New("worker exited unexpectedly")
	ErrSpawnFailed  = errors.New("failed to spawn worker")
)

// Supervisor binds the service port and keeps N worker processes on it.
type Supervisor struct {
	cfg    Config
	logger *slog.Logger
}

// NewSupervisor creates a supervisor for the given configuration.
func NewSupervisor(cfg Config, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		logger: logger,
	}
}

// workerExit is one worker leaving, voluntarily or not.
type workerExit struct {
	index int
	err   error
}

// Run binds the port, spawns the workers and blocks in the foreground until
// a shutdown signal arrives or a worker dies. A failed bind and a dead
// worker are both fatal: the caller exits non-zero and the container
// runtime decides whether anything restarts.
func (s *Supervisor) Run() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBindFailed, s.cfg.Addr(), err)
	}
	defer ln.Close()

	lnFile, err := ln.(*net.TCPListener).File()
	if err != nil {
		return fmt.Errorf("%w: cannot share listener: %v", ErrBindFailed, err)
	}
	defer lnFile.Close()

	s.logger.Info("listening", "addr", s.cfg.Addr(), "workers", s.cfg.Workers)

	exits := make(chan workerExit, s.cfg.Workers)
	workers := make([]*exec.Cmd, 0, s.cfg.Workers)

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	for i := 0; i < s.cfg.Workers; i++ {
		cmd := exec.Command(self, WorkerFlag)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = os.Environ()
		cmd.ExtraFiles = []*os.File{lnFile}

		if err := cmd.Start(); err != nil {
			stopWorkers(workers)
			return fmt.Errorf("%w: worker %d: %v", ErrSpawnFailed, i, err)
		}

		s.logger.Info("worker started", "index", i, "pid", cmd.Process.Pid)
		workers = append(workers, cmd)

		index := i
		go func(c *exec.Cmd) {
			exits <- workerExit{index: index, err: c.Wait()}
		}(cmd)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		s.logger.Info("shutting down", "signal", sig.String())
		forwardSignal(workers, sig)
		for range workers {
			<-exits
		}
		return nil

	case exit := <-exits:
		// A worker left on its own. Surface the failure instead of
		// respawning; restarts belong to the orchestrator outside.
		s.logger.Error("worker died", "index", exit.index, "error", exit.err)
		stopWorkers(workers)
		drainExits(exits, len(workers)-1)
		if code := exitCode(exit.err); code > 0 {
			return fmt.Errorf("%w: worker %d exited with code %d", ErrWorkerExited, exit.index, code)
		}
		return fmt.Errorf("%w: worker %d", ErrWorkerExited, exit.index)
	}
}

// forwardSignal relays a shutdown signal to every live worker.
func forwardSignal(workers []*exec.Cmd, sig os.Signal) {
	for _, cmd := range workers {
		if cmd.Process != nil {
			cmd.Process.Signal(sig)
		}
	}
}

// stopWorkers terminates all workers, used when the supervisor is already
// failing and graceful shutdown no longer matters.
func stopWorkers(workers []*exec.Cmd) {
	for _, cmd := range workers {
		if cmd.Process != nil {
			cmd.Process.Signal(syscall.SIGTERM)
		}
	}
}

func drainExits(exits chan workerExit, n int) {
	for i := 0; i < n; i++ {
		<-exits
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 0
}
