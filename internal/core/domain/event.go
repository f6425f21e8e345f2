package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Launch Events
// =============================================================================

// LaunchEventType identifies a recorded lifecycle event.
type LaunchEventType string

const (
	EventStarted     LaunchEventType = "started"
	EventStopped     LaunchEventType = "stopped"
	EventExited      LaunchEventType = "exited"
	EventStartFailed LaunchEventType = "start_failed"
)

// LaunchEvent records something that happened to a launch. Events are
// append-only; the reconciler and the API handlers write them, the API
// serves them back for debugging.
type LaunchEvent struct {
	ID        string          `json:"id"`
	LaunchID  string          `json:"launch_id"`
	Type      LaunchEventType `json:"type"`
	Message   string          `json:"message,omitempty"`
	ExitCode  *int            `json:"exit_code,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewLaunchEvent creates an event for a launch.
func NewLaunchEvent(launchID string, eventType LaunchEventType, message string) *LaunchEvent {
	return &LaunchEvent{
		ID:        uuid.New().String(),
		LaunchID:  launchID,
		Type:      eventType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// NewExitEvent creates an exit event carrying the container exit code.
func NewExitEvent(launchID string, exitCode int, message string) *LaunchEvent {
	e := NewLaunchEvent(launchID, EventExited, message)
	e.ExitCode = &exitCode
	return e
}
