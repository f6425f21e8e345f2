package store

import (
	"context"
	"time"

	"github.com/slipway-sh/slipway/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for slipway entities.
type Store interface {
	// Workload operations
	CreateWorkload(ctx context.Context, workload *domain.Workload) error
	GetWorkload(ctx context.Context, id string) (*domain.Workload, error)
	GetWorkloadBySlug(ctx context.Context, slug string) (*domain.Workload, error)
	UpdateWorkload(ctx context.Context, workload *domain.Workload) error
	DeleteWorkload(ctx context.Context, id string) error
	ListWorkloads(ctx context.Context, opts ListOptions) ([]domain.Workload, error)

	// Launch operations
	CreateLaunch(ctx context.Context, launch *domain.Launch) error
	GetLaunch(ctx context.Context, id string) (*domain.Launch, error)
	UpdateLaunch(ctx context.Context, launch *domain.Launch) error
	DeleteLaunch(ctx context.Context, id string) error
	ListLaunches(ctx context.Context, opts ListOptions) ([]domain.Launch, error)
	ListLaunchesByWorkload(ctx context.Context, workloadID string, opts ListOptions) ([]domain.Launch, error)
	ListActiveLaunches(ctx context.Context) ([]domain.Launch, error)
	GetUsedHostPorts(ctx context.Context) ([]int, error)

	// Launch event operations
	CreateLaunchEvent(ctx context.Context, event *domain.LaunchEvent) error
	ListLaunchEvents(ctx context.Context, launchID string, limit int) ([]domain.LaunchEvent, error)

	// API token operations
	CreateAPIToken(ctx context.Context, token *APIToken) error
	GetAPIToken(ctx context.Context, name string) (*APIToken, error)
	DeleteAPIToken(ctx context.Context, name string) error

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// API Tokens
// =============================================================================

// APIToken is a named bearer token for the control API. Only the bcrypt
// hash of the secret is stored.
type APIToken struct {
	Name       string    `json:"name"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
