package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/ctxutil"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
)

// DocumentServiceImpl implements the DocumentService interface.
type DocumentServiceImpl struct {
	docRepo secondary.DocumentRepository
	cache   *Reconciler
}

// NewDocumentService creates a new DocumentService with injected dependencies.
func NewDocumentService(docRepo secondary.DocumentRepository, cache *Reconciler) *DocumentServiceImpl {
	return &DocumentServiceImpl{
		docRepo: docRepo,
		cache:   cache,
	}
}

// FileDocument files a document into a folder.
func (s *DocumentServiceImpl) FileDocument(ctx context.Context, documentID, folderID string) (*models.ReceivedDocument, error) {
	return s.review(ctx, "file_document", documentID, document.ReviewContext{
		Target:   document.StatusFiled,
		FolderID: strings.TrimSpace(folderID),
	})
}

// RejectDocument rejects a document with a reason.
func (s *DocumentServiceImpl) RejectDocument(ctx context.Context, documentID, reason string) (*models.ReceivedDocument, error) {
	return s.review(ctx, "reject_document", documentID, document.ReviewContext{
		Target: document.StatusRejected,
		Reason: strings.TrimSpace(reason),
	})
}

// FlagForReview sends a document back to needs_review.
func (s *DocumentServiceImpl) FlagForReview(ctx context.Context, documentID string) (*models.ReceivedDocument, error) {
	return s.review(ctx, "flag_document", documentID, document.ReviewContext{
		Target: document.StatusNeedsReview,
	})
}

// AssignToShift links a document to a shift of the current project.
func (s *DocumentServiceImpl) AssignToShift(ctx context.Context, documentID, shiftID string) (*models.ReceivedDocument, error) {
	current, err := s.cachedDocument(documentID)
	if err != nil {
		return nil, err
	}

	_, shiftExists := s.cache.store.Shift(shiftID)
	guard := document.CanAssignToShift(document.AssignContext{
		DocumentID:  current.ID,
		Current:     current.Status,
		ShiftID:     shiftID,
		ShiftExists: shiftExists,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	current.ShiftID = shiftID
	return s.update(ctx, "assign_document", &current)
}

func (s *DocumentServiceImpl) review(ctx context.Context, action, documentID string, rc document.ReviewContext) (*models.ReceivedDocument, error) {
	current, err := s.cachedDocument(documentID)
	if err != nil {
		return nil, err
	}

	rc.DocumentID = current.ID
	rc.Current = current.Status
	if err := document.CanReview(rc).Error(); err != nil {
		return nil, err
	}

	current.Status = rc.Target
	switch rc.Target {
	case document.StatusFiled:
		current.FolderID = rc.FolderID
		current.RejectionReason = ""
	case document.StatusRejected:
		current.RejectionReason = rc.Reason
	}
	if rc.Target != document.StatusNeedsReview {
		at := s.cache.now().UTC()
		current.ReviewedBy = ctxutil.ActorOrDefault(ctx)
		current.ReviewedAt = &at
	}

	return s.update(ctx, action, &current)
}

func (s *DocumentServiceImpl) update(ctx context.Context, action string, doc *models.ReceivedDocument) (*models.ReceivedDocument, error) {
	updated, err := s.docRepo.Update(ctx, doc)
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to update document: %w", err))
	}
	if err := s.cache.upserted(ctx, action, models.ChangeUpdate, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *DocumentServiceImpl) cachedDocument(id string) (models.ReceivedDocument, error) {
	if _, err := s.cache.project(); err != nil {
		return models.ReceivedDocument{}, err
	}
	doc, ok := s.cache.store.Document(id)
	if !ok {
		return models.ReceivedDocument{}, notCached("document", id)
	}
	return doc, nil
}

var _ primary.DocumentService = (*DocumentServiceImpl)(nil)
