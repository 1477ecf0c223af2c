package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

const projectColumns = "id, name, address, is_active, owner_id, created_at, updated_at"

// ProjectRepository implements secondary.ProjectRepository with SQLite.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new SQLite project repository.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create persists a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	id := project.ID
	if id == "" {
		id = newID()
	}
	ts := now()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, address, is_active, owner_id, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?, ?)",
		id, project.Name, nullString(project.Address), nullString(project.OwnerID), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	project, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// List retrieves projects matching the given filters.
func (r *ProjectRepository) List(ctx context.Context, filters secondary.ProjectFilters) ([]*models.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE 1=1"
	args := []any{}

	if filters.OwnerID != "" {
		query += " AND owner_id = ?"
		args = append(args, filters.OwnerID)
	}
	if !filters.IncludeArchived {
		query += " AND is_active = 1"
	}

	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Archive marks a project inactive.
func (r *ProjectRepository) Archive(ctx context.Context, id string) (*models.Project, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE projects SET is_active = 0, updated_at = ? WHERE id = ?", now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive project: %w", err)
	}
	if err := affectedOne(res, fmt.Errorf("project %s: %w", id, secondary.ErrNotFound)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func scanProject(s scanner) (*models.Project, error) {
	var (
		address sql.NullString
		ownerID sql.NullString
	)

	project := &models.Project{}
	if err := s.Scan(&project.ID, &project.Name, &address, &project.IsActive, &ownerID, &project.CreatedAt, &project.UpdatedAt); err != nil {
		return nil, err
	}

	project.Address = address.String
	project.OwnerID = ownerID.String
	return project, nil
}

var _ secondary.ProjectRepository = (*ProjectRepository)(nil)
