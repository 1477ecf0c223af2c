// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives the backend:
// row persistence (RPC), the change stream, attachments and notifications.
package secondary

import (
	"context"
	"errors"

	"github.com/example/siteops/internal/models"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// ProjectRepository defines the secondary port for project persistence.
type ProjectRepository interface {
	// Create persists a new project and returns the canonical row.
	Create(ctx context.Context, project *models.Project) (*models.Project, error)

	// GetByID retrieves a project by its ID.
	GetByID(ctx context.Context, id string) (*models.Project, error)

	// List retrieves projects matching the given filters.
	List(ctx context.Context, filters ProjectFilters) ([]*models.Project, error)

	// Archive marks a project inactive and returns the canonical row.
	Archive(ctx context.Context, id string) (*models.Project, error)
}

// ProjectFilters contains filter options for querying projects.
type ProjectFilters struct {
	OwnerID         string
	IncludeArchived bool
}

// DailyLogRepository defines the secondary port for daily log persistence.
type DailyLogRepository interface {
	// List retrieves every daily log of a project.
	List(ctx context.Context, projectID string) ([]*models.DailyLog, error)

	// Create persists a new log and returns the canonical row.
	Create(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error)

	// Update replaces a log and returns the canonical row.
	Update(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error)

	// Delete removes a log.
	Delete(ctx context.Context, id string) error
}

// ShiftRepository defines the secondary port for shift persistence.
type ShiftRepository interface {
	// List retrieves every shift of a project.
	List(ctx context.Context, projectID string) ([]*models.Shift, error)

	// Create persists a new shift and returns the canonical row.
	Create(ctx context.Context, shift *models.Shift) (*models.Shift, error)

	// Update replaces a shift and returns the canonical row.
	Update(ctx context.Context, shift *models.Shift) (*models.Shift, error)

	// Close writes the closeout fields of a shift that is still active and
	// returns the canonical row.
	Close(ctx context.Context, shift *models.Shift) (*models.Shift, error)

	// Delete removes a shift and its roster.
	Delete(ctx context.Context, id string) error
}

// ShiftWorkerRepository defines the secondary port for shift roster persistence.
type ShiftWorkerRepository interface {
	// List retrieves every worker assignment of a project.
	List(ctx context.Context, projectID string) ([]*models.ShiftWorker, error)

	// Add persists a new assignment and returns the canonical row.
	Add(ctx context.Context, worker *models.ShiftWorker) (*models.ShiftWorker, error)

	// Update replaces an assignment and returns the canonical row.
	Update(ctx context.Context, worker *models.ShiftWorker) (*models.ShiftWorker, error)

	// Remove deletes an assignment.
	Remove(ctx context.Context, id string) error
}

// DocumentRepository defines the secondary port for received documents.
// Documents are created by the AI pipeline, so there is no Create.
type DocumentRepository interface {
	// List retrieves every received document of a project.
	List(ctx context.Context, projectID string) ([]*models.ReceivedDocument, error)

	// Update replaces a document and returns the canonical row.
	Update(ctx context.Context, doc *models.ReceivedDocument) (*models.ReceivedDocument, error)
}

// ContactRepository defines the secondary port for contacts.
type ContactRepository interface {
	List(ctx context.Context, projectID string) ([]*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	Delete(ctx context.Context, id string) error
}

// SubcontractorRepository defines the secondary port for subcontractors.
type SubcontractorRepository interface {
	List(ctx context.Context, projectID string) ([]*models.Subcontractor, error)
	Create(ctx context.Context, sub *models.Subcontractor) (*models.Subcontractor, error)
	Delete(ctx context.Context, id string) error
}

// Backend groups the repositories of one backend implementation.
type Backend struct {
	Projects       ProjectRepository
	DailyLogs      DailyLogRepository
	Shifts         ShiftRepository
	ShiftWorkers   ShiftWorkerRepository
	Documents      DocumentRepository
	Contacts       ContactRepository
	Subcontractors SubcontractorRepository
}
