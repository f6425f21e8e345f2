package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Launch Errors
// =============================================================================

var (
	ErrWorkloadNotPublished = errors.New("workload is not published")
	ErrWorkloadNoImage      = errors.New("workload has no built image")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidWorkerCount   = errors.New("worker count must be at least 1")
)

// =============================================================================
// Launch Status
// =============================================================================

type LaunchStatus string

const (
	StatusPending  LaunchStatus = "pending"
	StatusBuilding LaunchStatus = "building"
	StatusStarting LaunchStatus = "starting"
	StatusRunning  LaunchStatus = "running"
	StatusStopping LaunchStatus = "stopping"
	StatusStopped  LaunchStatus = "stopped"
	StatusDeleting LaunchStatus = "deleting"
	StatusDeleted  LaunchStatus = "deleted"
	StatusFailed   LaunchStatus = "failed"
)

// validTransitions maps each status to the statuses it may move to.
// There is deliberately no edge out of failed except starting (retry) and
// deleting: recovery by restart is an external orchestrator's job.
var validTransitions = map[LaunchStatus][]LaunchStatus{
	StatusPending:  {StatusBuilding, StatusStarting, StatusDeleting, StatusFailed},
	StatusBuilding: {StatusStarting, StatusFailed, StatusDeleting},
	StatusStarting: {StatusRunning, StatusFailed},
	StatusRunning:  {StatusStopping, StatusStopped, StatusFailed},
	StatusStopping: {StatusStopped, StatusFailed},
	StatusStopped:  {StatusStarting, StatusDeleting},
	StatusDeleting: {StatusDeleted, StatusFailed},
	StatusDeleted:  {},
	StatusFailed:   {StatusStarting, StatusDeleting},
}

// ValidateTransition reports whether a launch may move from one status to
// another.
func ValidateTransition(from, to LaunchStatus) error {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// IsTerminal reports whether a launch in this status will never change again.
func (s LaunchStatus) IsTerminal() bool {
	return s == StatusDeleted
}

// =============================================================================
// Launch
// =============================================================================

// PortMapping represents a host-to-container port mapping.
type PortMapping struct {
	ContainerPort int    `json:"container_port"`
	HostPort      int    `json:"host_port"`
	Protocol      string `json:"protocol"` // tcp, udp
}

// Launch is one supervised instance of a workload: a single container
// running the workload image with a fixed worker count and a bound port.
type Launch struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	WorkloadID      string            `json:"workload_id"`
	WorkloadVersion string            `json:"workload_version"`
	Status          LaunchStatus      `json:"status"`
	ContainerID     string            `json:"container_id,omitempty"`
	ImageTag        string            `json:"image_tag,omitempty"`
	HostPort        int               `json:"host_port,omitempty"`
	ContainerPort   int               `json:"container_port"`
	Workers         int               `json:"workers"`
	Env             map[string]string `json:"env,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	StoppedAt       *time.Time        `json:"stopped_at,omitempty"`
}

// NewLaunch creates a launch for a published workload.
// containerPort and workers come from the workload manifest; workers is
// fixed for the lifetime of the launch.
func NewLaunch(workload Workload, containerPort, workers int, env map[string]string) (*Launch, error) {
	if !workload.Published {
		return nil, ErrWorkloadNotPublished
	}
	if workload.ImageTag == "" {
		return nil, ErrWorkloadNoImage
	}
	if workers < 1 {
		return nil, ErrInvalidWorkerCount
	}

	now := time.Now().UTC()
	return &Launch{
		ID:              uuid.New().String(),
		Name:            GenerateLaunchName(workload.Slug),
		WorkloadID:      workload.ID,
		WorkloadVersion: workload.Version,
		Status:          StatusPending,
		ImageTag:        workload.ImageTag,
		ContainerPort:   containerPort,
		Workers:         workers,
		Env:             env,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GenerateLaunchName produces a unique, human-readable launch name from a
// workload slug.
func GenerateLaunchName(slug string) string {
	return fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
}

// Transition attempts to move the launch to a new status, keeping
// timestamps and the error message consistent.
func (l *Launch) Transition(to LaunchStatus) error {
	if err := ValidateTransition(l.Status, to); err != nil {
		return err
	}

	l.Status = to
	now := time.Now().UTC()
	l.UpdatedAt = now

	switch to {
	case StatusStarting:
		// Clear stale error on retry
		l.ErrorMessage = ""
	case StatusRunning:
		l.StartedAt = &now
	case StatusStopped:
		l.StoppedAt = &now
	}

	return nil
}

// Fail moves the launch to failed with a reason, regardless of the current
// status edge rules for failed being reachable from every non-terminal state.
func (l *Launch) Fail(reason string) error {
	if l.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, StatusFailed)
	}
	now := time.Now().UTC()
	l.Status = StatusFailed
	l.ErrorMessage = reason
	l.UpdatedAt = now
	return nil
}

// IsActive reports whether the launch is expected to have a live container.
func (l *Launch) IsActive() bool {
	switch l.Status {
	case StatusStarting, StatusRunning, StatusStopping:
		return true
	}
	return false
}
