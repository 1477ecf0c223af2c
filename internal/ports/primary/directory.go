package primary

import (
	"context"

	"github.com/example/siteops/internal/models"
)

// DirectoryService defines the primary port for the project's contacts
// and subcontractors.
type DirectoryService interface {
	CreateContact(ctx context.Context, req ContactRequest) (*models.Contact, error)
	UpdateContact(ctx context.Context, req ContactRequest) (*models.Contact, error)
	DeleteContact(ctx context.Context, contactID string) error
	CreateSubcontractor(ctx context.Context, req SubcontractorRequest) (*models.Subcontractor, error)
	DeleteSubcontractor(ctx context.Context, subcontractorID string) error
}

// ContactRequest contains the fields of a contact. ID is ignored on create.
type ContactRequest struct {
	ID              string
	Name            string `validate:"required"`
	Company         string
	Role            string
	Phone           string
	Email           string `validate:"omitempty,email"`
	SubcontractorID string
}

// SubcontractorRequest contains the fields of a subcontractor.
type SubcontractorRequest struct {
	Name         string `validate:"required"`
	Trade        string
	ContactEmail string `validate:"omitempty,email"`
	Phone        string
}
