package primary

import (
	"context"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

// ProjectService defines the primary port for project operations.
type ProjectService interface {
	// CreateProject creates a project owned by the acting supervisor.
	CreateProject(ctx context.Context, req CreateProjectRequest) (*models.Project, error)

	// ListProjects lists projects with optional filters.
	ListProjects(ctx context.Context, filters ProjectFilters) ([]*models.Project, error)

	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, projectID string) (*models.Project, error)

	// ArchiveProject marks a project inactive.
	ArchiveProject(ctx context.Context, projectID string) (*models.Project, error)
}

// CreateProjectRequest contains parameters for creating a project.
type CreateProjectRequest struct {
	Name    string
	Address string
}

// ProjectFilters contains filter options for listing projects.
type ProjectFilters struct {
	OwnerID         string
	IncludeArchived bool
}

// Connectivity describes the live subscription of a dashboard session.
type Connectivity struct {
	ProjectID string
	State     secondary.FeedState
	Err       error
}

// Dashboard defines the primary port for a supervisor session: one project
// at a time, mirrored live into the cache.
type Dashboard interface {
	// SwitchProject tears down the current subscription, clears the cache,
	// subscribes to projectID and hydrates the cache from the backend.
	SwitchProject(ctx context.Context, projectID string) error

	// Connectivity reports the subscription state.
	Connectivity() Connectivity

	// Close ends the session.
	Close() error
}
