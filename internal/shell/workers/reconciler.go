// Package workers contains background workers for slipway.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slipway-sh/slipway/internal/core/domain"
	"github.com/slipway-sh/slipway/internal/shell/docker"
	"github.com/slipway-sh/slipway/internal/shell/store"
)

// ReconcilerConfig configures the reconciler worker.
type ReconcilerConfig struct {
	// Interval is the time between reconcile cycles.
	// Default: 15 seconds.
	Interval time.Duration
}

// DefaultReconcilerConfig returns the default configuration.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Interval: 15 * time.Second,
	}
}

// Reconciler periodically compares active launches against their container
// state and records what actually happened. It never restarts anything:
// a dead container makes the launch stopped or failed, and recovery is an
// external orchestrator's decision.
type Reconciler struct {
	store  store.Store
	docker docker.Client
	config ReconcilerConfig
	logger *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconciler creates a new reconciler worker.
func NewReconciler(s store.Store, d docker.Client, config ReconcilerConfig, logger *slog.Logger) *Reconciler {
	if config.Interval == 0 {
		config.Interval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		store:  s,
		docker: d,
		config: config,
		logger: logger.With("component", "reconciler"),
	}
}

// Start begins the reconciler background goroutine.
func (r *Reconciler) Start() {
	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go r.run()

	r.logger.Info("reconciler started", "interval", r.config.Interval)
}

// Stop gracefully stops the reconciler. It waits for any in-progress cycle
// to complete.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("reconciler stopped")
}

// run is the main loop that reconciles periodically.
func (r *Reconciler) run() {
	defer r.wg.Done()

	// Run immediately on start
	r.RunCycle(r.ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.RunCycle(r.ctx)
		}
	}
}

// RunCycle executes a single reconcile pass over all active launches.
func (r *Reconciler) RunCycle(ctx context.Context) {
	launches, err := r.store.ListActiveLaunches(ctx)
	if err != nil {
		r.logger.Error("failed to list active launches", "error", err)
		return
	}

	for i := range launches {
		if ctx.Err() != nil {
			return
		}
		r.reconcileLaunch(ctx, &launches[i])
	}
}

// reconcileLaunch syncs one launch with its observed container state.
func (r *Reconciler) reconcileLaunch(ctx context.Context, launch *domain.Launch) {
	if launch.ContainerID == "" {
		// Starting but no container yet; the API call is still in flight.
		return
	}

	info, err := r.docker.InspectContainer(launch.ContainerID)
	if err != nil {
		r.logger.Warn("container is gone", "launch_id", launch.ID, "container_id", launch.ContainerID, "error", err)
		r.markFailed(ctx, launch, "container disappeared")
		return
	}

	switch info.Status {
	case docker.ContainerStatusRunning:
		// Matches the expected state for running; starting launches catch
		// up on the next API update.
		return

	case docker.ContainerStatusExited, docker.ContainerStatusDead:
		r.recordExit(ctx, launch, info)

	default:
		r.logger.Debug("container in transient state",
			"launch_id", launch.ID, "status", string(info.Status))
	}
}

// recordExit reflects a dead container into the launch record. Exit code 0
// is a clean stop; anything else is a failure.
func (r *Reconciler) recordExit(ctx context.Context, launch *domain.Launch, info *docker.ContainerInfo) {
	event := domain.NewExitEvent(launch.ID, info.ExitCode,
		fmt.Sprintf("container exited with code %d", info.ExitCode))
	if err := r.store.CreateLaunchEvent(ctx, event); err != nil {
		r.logger.Error("failed to record exit event", "launch_id", launch.ID, "error", err)
	}

	if info.ExitCode == 0 {
		if err := launch.Transition(domain.StatusStopped); err != nil {
			// A launch that never reached running cannot stop cleanly.
			// Fail it instead of retrying the same rejected transition
			// every cycle, which would pin its host port forever.
			if failErr := launch.Fail("container exited before launch became running"); failErr != nil {
				r.logger.Error("failed to transition to stopped", "launch_id", launch.ID, "error", err)
				return
			}
		}
	} else {
		if err := launch.Fail(fmt.Sprintf("container exited with code %d", info.ExitCode)); err != nil {
			r.logger.Error("failed to mark launch failed", "launch_id", launch.ID, "error", err)
			return
		}
	}

	if err := r.store.UpdateLaunch(ctx, launch); err != nil {
		r.logger.Error("failed to update launch", "launch_id", launch.ID, "error", err)
		return
	}

	r.logger.Info("launch reconciled",
		"launch_id", launch.ID,
		"status", string(launch.Status),
		"exit_code", info.ExitCode,
	)
}

// markFailed transitions a launch to failed, best effort.
func (r *Reconciler) markFailed(ctx context.Context, launch *domain.Launch, reason string) {
	if err := launch.Fail(reason); err != nil {
		r.logger.Error("failed to mark launch failed", "launch_id", launch.ID, "error", err)
		return
	}
	if err := r.store.UpdateLaunch(ctx, launch); err != nil {
		r.logger.Error("failed to update launch", "launch_id", launch.ID, "error", err)
	}
}
