package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
)

var requestValidator = validator.New()

// DirectoryServiceImpl implements the DirectoryService interface.
// Deleting a contact or subcontractor never touches log entries that name
// them; those keep their own copy of the name.
type DirectoryServiceImpl struct {
	contactRepo secondary.ContactRepository
	subRepo     secondary.SubcontractorRepository
	cache       *Reconciler
}

// NewDirectoryService creates a new DirectoryService with injected dependencies.
func NewDirectoryService(
	contactRepo secondary.ContactRepository,
	subRepo secondary.SubcontractorRepository,
	cache *Reconciler,
) *DirectoryServiceImpl {
	return &DirectoryServiceImpl{
		contactRepo: contactRepo,
		subRepo:     subRepo,
		cache:       cache,
	}
}

// CreateContact adds a contact to the current project.
func (s *DirectoryServiceImpl) CreateContact(ctx context.Context, req primary.ContactRequest) (*models.Contact, error) {
	const action = "create_contact"

	projectID, err := s.cache.project()
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := requestValidator.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid contact: %w", err)
	}
	if err := s.checkSubcontractor(req.SubcontractorID); err != nil {
		return nil, err
	}

	created, err := s.contactRepo.Create(ctx, &models.Contact{
		ProjectID:       projectID,
		Name:            req.Name,
		Company:         req.Company,
		Role:            req.Role,
		Phone:           req.Phone,
		Email:           req.Email,
		SubcontractorID: req.SubcontractorID,
	})
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to create contact: %w", err))
	}

	if err := s.cache.upserted(ctx, action, models.ChangeInsert, *created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateContact replaces the fields of a contact.
func (s *DirectoryServiceImpl) UpdateContact(ctx context.Context, req primary.ContactRequest) (*models.Contact, error) {
	const action = "update_contact"

	if _, err := s.cache.project(); err != nil {
		return nil, err
	}
	current, ok := s.cache.store.Contact(req.ID)
	if !ok {
		return nil, notCached("contact", req.ID)
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := requestValidator.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid contact: %w", err)
	}
	if err := s.checkSubcontractor(req.SubcontractorID); err != nil {
		return nil, err
	}

	current.Name = req.Name
	current.Company = req.Company
	current.Role = req.Role
	current.Phone = req.Phone
	current.Email = req.Email
	current.SubcontractorID = req.SubcontractorID

	updated, err := s.contactRepo.Update(ctx, &current)
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to update contact: %w", err))
	}
	if err := s.cache.upserted(ctx, action, models.ChangeUpdate, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteContact removes a contact.
func (s *DirectoryServiceImpl) DeleteContact(ctx context.Context, contactID string) error {
	const action = "delete_contact"

	if _, err := s.cache.project(); err != nil {
		return err
	}
	current, ok := s.cache.store.Contact(contactID)
	if !ok {
		return notCached("contact", contactID)
	}

	if err := s.contactRepo.Delete(ctx, contactID); err != nil {
		return s.cache.fail(action, fmt.Errorf("failed to delete contact: %w", err))
	}
	return s.cache.deleted(ctx, action, current)
}

// CreateSubcontractor adds a subcontractor to the current project.
func (s *DirectoryServiceImpl) CreateSubcontractor(ctx context.Context, req primary.SubcontractorRequest) (*models.Subcontractor, error) {
	const action = "create_subcontractor"

	projectID, err := s.cache.project()
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := requestValidator.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid subcontractor: %w", err)
	}

	created, err := s.subRepo.Create(ctx, &models.Subcontractor{
		ProjectID:    projectID,
		Name:         req.Name,
		Trade:        req.Trade,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
	})
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to create subcontractor: %w", err))
	}

	if err := s.cache.upserted(ctx, action, models.ChangeInsert, *created); err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteSubcontractor removes a subcontractor.
func (s *DirectoryServiceImpl) DeleteSubcontractor(ctx context.Context, subcontractorID string) error {
	const action = "delete_subcontractor"

	if _, err := s.cache.project(); err != nil {
		return err
	}
	current, ok := findSubcontractor(s.cache.store.Subcontractors(), subcontractorID)
	if !ok {
		return notCached("subcontractor", subcontractorID)
	}

	if err := s.subRepo.Delete(ctx, subcontractorID); err != nil {
		return s.cache.fail(action, fmt.Errorf("failed to delete subcontractor: %w", err))
	}
	return s.cache.deleted(ctx, action, current)
}

func (s *DirectoryServiceImpl) checkSubcontractor(id string) error {
	if id == "" {
		return nil
	}
	if _, ok := findSubcontractor(s.cache.store.Subcontractors(), id); !ok {
		return notCached("subcontractor", id)
	}
	return nil
}

func findSubcontractor(subs []models.Subcontractor, id string) (models.Subcontractor, bool) {
	for _, sub := range subs {
		if sub.ID == id {
			return sub, true
		}
	}
	return models.Subcontractor{}, false
}

var _ primary.DirectoryService = (*DirectoryServiceImpl)(nil)
