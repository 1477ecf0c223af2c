package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/siteops/internal/ctxutil"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
)

// ProjectServiceImpl implements the ProjectService interface.
// Projects are not mirrored in the cache; every call goes to the backend.
type ProjectServiceImpl struct {
	projectRepo secondary.ProjectRepository
}

// NewProjectService creates a new ProjectService with injected dependencies.
func NewProjectService(projectRepo secondary.ProjectRepository) *ProjectServiceImpl {
	return &ProjectServiceImpl{projectRepo: projectRepo}
}

// CreateProject creates a project owned by the acting supervisor.
func (s *ProjectServiceImpl) CreateProject(ctx context.Context, req primary.CreateProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("project name is required")
	}

	created, err := s.projectRepo.Create(ctx, &models.Project{
		Name:     name,
		Address:  strings.TrimSpace(req.Address),
		IsActive: true,
		OwnerID:  ctxutil.ActorOrDefault(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

// ListProjects lists projects with optional filters.
func (s *ProjectServiceImpl) ListProjects(ctx context.Context, filters primary.ProjectFilters) ([]*models.Project, error) {
	projects, err := s.projectRepo.List(ctx, secondary.ProjectFilters{
		OwnerID:         filters.OwnerID,
		IncludeArchived: filters.IncludeArchived,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (s *ProjectServiceImpl) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, projectID)
}

// ArchiveProject marks an active project inactive.
func (s *ProjectServiceImpl) ArchiveProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.IsActive {
		return nil, fmt.Errorf("project %s is already archived", projectID)
	}

	archived, err := s.projectRepo.Archive(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to archive project: %w", err)
	}
	return archived, nil
}

var _ primary.ProjectService = (*ProjectServiceImpl)(nil)
