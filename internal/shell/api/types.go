package api

import "time"

// =============================================================================
// Request Types
// =============================================================================

// CreateWorkloadRequest is the request body for creating a workload.
type CreateWorkloadRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Manifest    string `json:"manifest"`
	Description string `json:"description,omitempty"`
}

// UpdateWorkloadRequest is the request body for updating a workload.
type UpdateWorkloadRequest struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Manifest    string `json:"manifest,omitempty"`
	Description string `json:"description,omitempty"`
}

// BuildWorkloadRequest is the request body for building a workload image.
// Files maps context paths to file content; it must contain the manifest's
// entrypoint file.
type BuildWorkloadRequest struct {
	Files map[string]string `json:"files"`
}

// CreateLaunchRequest is the request body for creating a launch.
type CreateLaunchRequest struct {
	WorkloadID string            `json:"workload_id"`
	Workers    int               `json:"workers,omitempty"`
	HostPort   int               `json:"host_port,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// WorkloadResponse is the response for workload operations.
type WorkloadResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Version     string    `json:"version"`
	Manifest    string    `json:"manifest"`
	ImageTag    string    `json:"image_tag,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListWorkloadsResponse is the response for listing workloads.
type ListWorkloadsResponse struct {
	Workloads []WorkloadResponse `json:"workloads"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// LaunchResponse is the response for launch operations.
type LaunchResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	WorkloadID      string            `json:"workload_id"`
	WorkloadVersion string            `json:"workload_version"`
	Status          string            `json:"status"`
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

// ListLaunchesResponse is the response for listing launches.
type ListLaunchesResponse struct {
	Launches []LaunchResponse `json:"launches"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// LaunchEventResponse is one recorded launch lifecycle event.
type LaunchEventResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLaunchEventsResponse is the response for listing launch events.
type ListLaunchEventsResponse struct {
	Events []LaunchEventResponse `json:"events"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
