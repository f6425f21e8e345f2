package launch

import "github.com/slipway-sh/slipway/internal/core/domain"

// =============================================================================
// Launch State Transition Planning
// =============================================================================

// StartPath is the result of planning a launch start operation.
type StartPath struct {
	// Valid indicates whether the start operation can proceed.
	Valid bool

	// Transitions is the sequence of states to transition through.
	// Empty if Valid is false.
	Transitions []domain.LaunchStatus

	// ErrorReason contains the reason why the start is not allowed.
	// Empty if Valid is true.
	ErrorReason string
}

// DetermineStartPath determines the status sequence needed to start a
// launch from its current status.
//
// Valid start paths:
//   - pending → starting (image already built at workload level)
//   - stopped → starting (restart)
//   - failed → starting (retry)
func DetermineStartPath(current domain.LaunchStatus) StartPath {
	switch current {
	case domain.StatusPending, domain.StatusStopped, domain.StatusFailed:
		return StartPath{
			Valid:       true,
			Transitions: []domain.LaunchStatus{domain.StatusStarting},
		}

	case domain.StatusRunning:
		return StartPath{Valid: false, ErrorReason: "launch is already running"}

	case domain.StatusStarting:
		return StartPath{Valid: false, ErrorReason: "launch is already starting"}

	case domain.StatusBuilding:
		return StartPath{Valid: false, ErrorReason: "launch image is still building"}

	case domain.StatusStopping:
		return StartPath{Valid: false, ErrorReason: "launch is currently stopping"}

	case domain.StatusDeleting, domain.StatusDeleted:
		return StartPath{Valid: false, ErrorReason: "launch is deleted"}

	default:
		return StartPath{Valid: false, ErrorReason: "cannot start launch in current state"}
	}
}

// CanStop checks if a launch can be stopped from its current status.
// Only running launches can be stopped.
func CanStop(current domain.LaunchStatus) (bool, string) {
	if current != domain.StatusRunning {
		return false, "launch is not running"
	}
	return true, ""
}

// CanDelete checks if a launch can be deleted from its current status.
// Launches with a live container must be stopped first.
func CanDelete(current domain.LaunchStatus) (bool, string) {
	switch current {
	case domain.StatusStarting, domain.StatusRunning, domain.StatusStopping:
		return false, "launch must be stopped before deletion"
	case domain.StatusDeleting, domain.StatusDeleted:
		return false, "launch is already deleted"
	}
	return true, ""
}
