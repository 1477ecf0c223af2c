package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/store"
)

// DocumentAdapter translates review commands to DocumentService calls.
type DocumentAdapter struct {
	service primary.DocumentService
	view    *store.Store
	out     io.Writer
}

// NewDocumentAdapter creates a new DocumentAdapter.
func NewDocumentAdapter(service primary.DocumentService, view *store.Store, out io.Writer) *DocumentAdapter {
	return &DocumentAdapter{service: service, view: view, out: out}
}

// List prints received documents, optionally filtered by status.
func (a *DocumentAdapter) List(status document.Status) []models.ReceivedDocument {
	docs := a.view.Documents()
	if status != "" {
		docs = a.view.DocumentsByStatus(status)
	}
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "No documents found.")
		return docs
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tSTATUS\tTYPE\tCONFIDENCE\tFOLDER")
	fmt.Fprintln(w, "--\t----\t------\t----\t----------\t------")
	for _, d := range docs {
		docType, confidence := "-", "-"
		if c := d.AIClassification; c != nil {
			docType = orDash(c.DocumentType)
			confidence = fmt.Sprintf("%.0f%%", c.Confidence*100)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.FileName, documentStatus(d.Status), docType, confidence, orDash(d.FolderID))
	}
	w.Flush()
	return docs
}

// File files a document into a folder.
func (a *DocumentAdapter) File(ctx context.Context, documentID, folderID string) error {
	doc, err := a.service.FileDocument(ctx, documentID, folderID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Filed %s into %s\n", doc.FileName, doc.FolderID)
	return nil
}

// Reject rejects a document.
func (a *DocumentAdapter) Reject(ctx context.Context, documentID, reason string) error {
	doc, err := a.service.RejectDocument(ctx, documentID, reason)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Rejected %s: %s\n", doc.FileName, doc.RejectionReason)
	return nil
}

// Review sends a document back to needs_review.
func (a *DocumentAdapter) Review(ctx context.Context, documentID string) error {
	doc, err := a.service.FlagForReview(ctx, documentID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s flagged for review\n", doc.FileName)
	return nil
}

// Assign links a document to a shift.
func (a *DocumentAdapter) Assign(ctx context.Context, documentID, shiftID string) error {
	doc, err := a.service.AssignToShift(ctx, documentID, shiftID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s assigned to shift %s\n", doc.FileName, doc.ShiftID)
	return nil
}
