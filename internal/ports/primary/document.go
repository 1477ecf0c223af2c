package primary

import (
	"context"

	"github.com/example/siteops/internal/models"
)

// DocumentService defines the primary port for supervisor review of
// received documents.
type DocumentService interface {
	// FileDocument files a document into a folder.
	FileDocument(ctx context.Context, documentID, folderID string) (*models.ReceivedDocument, error)

	// RejectDocument rejects a document with a reason.
	RejectDocument(ctx context.Context, documentID, reason string) (*models.ReceivedDocument, error)

	// FlagForReview sends a document back to needs_review.
	FlagForReview(ctx context.Context, documentID string) (*models.ReceivedDocument, error)

	// AssignToShift links a document to a shift of the same project.
	AssignToShift(ctx context.Context, documentID, shiftID string) (*models.ReceivedDocument, error)
}
