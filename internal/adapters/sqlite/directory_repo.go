package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

const (
	contactColumns       = "id, project_id, name, company, role, phone, email, subcontractor_id, created_at, updated_at, version"
	subcontractorColumns = "id, project_id, name, trade, contact_email, phone, created_at, updated_at, version"
)

// ContactRepository implements secondary.ContactRepository with SQLite.
type ContactRepository struct {
	db      *sql.DB
	changes *ChangeWriter
}

// NewContactRepository creates a new SQLite contact repository.
func NewContactRepository(db *sql.DB, changes *ChangeWriter) *ContactRepository {
	return &ContactRepository{db: db, changes: changes}
}

// List retrieves every contact of a project.
func (r *ContactRepository) List(ctx context.Context, projectID string) ([]*models.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE project_id = ? ORDER BY name", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// GetByID retrieves a contact by its ID.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contact %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// Create persists a new contact.
func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	id := c.ID
	if id == "" {
		id = newID()
	}
	ts := now()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO contacts (id, project_id, name, company, role, phone, email, subcontractor_id, created_at, updated_at, version) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)",
		id, c.ProjectID, c.Name, nullString(c.Company), nullString(c.Role), nullString(c.Phone), nullString(c.Email), nullString(c.SubcontractorID), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.changes.Inserted(ctx, *created)
	return created, nil
}

// Update replaces a contact.
func (r *ContactRepository) Update(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE contacts SET name = ?, company = ?, role = ?, phone = ?, email = ?, subcontractor_id = ?, updated_at = ?, version = version + 1 WHERE id = ?",
		c.Name, nullString(c.Company), nullString(c.Role), nullString(c.Phone), nullString(c.Email), nullString(c.SubcontractorID), now(), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	if err := affectedOne(res, fmt.Errorf("contact %s: %w", c.ID, secondary.ErrNotFound)); err != nil {
		return nil, err
	}

	updated, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	r.changes.Updated(ctx, *updated)
	return updated, nil
}

// Delete removes a contact. Rows that refer to it keep their copy of the name.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	r.changes.Deleted(ctx, *existing)
	return nil
}

func scanContact(s scanner) (*models.Contact, error) {
	var company, role, phone, email, subID sql.NullString

	c := &models.Contact{}
	if err := s.Scan(&c.ID, &c.ProjectID, &c.Name, &company, &role, &phone, &email, &subID, &c.CreatedAt, &c.UpdatedAt, &c.Version); err != nil {
		return nil, err
	}

	c.Company = company.String
	c.Role = role.String
	c.Phone = phone.String
	c.Email = email.String
	c.SubcontractorID = subID.String
	return c, nil
}

// SubcontractorRepository implements secondary.SubcontractorRepository with SQLite.
type SubcontractorRepository struct {
	db      *sql.DB
	changes *ChangeWriter
}

// NewSubcontractorRepository creates a new SQLite subcontractor repository.
func NewSubcontractorRepository(db *sql.DB, changes *ChangeWriter) *SubcontractorRepository {
	return &SubcontractorRepository{db: db, changes: changes}
}

// List retrieves every subcontractor of a project.
func (r *SubcontractorRepository) List(ctx context.Context, projectID string) ([]*models.Subcontractor, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subcontractorColumns+" FROM subcontractors WHERE project_id = ? ORDER BY name", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcontractors: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subcontractor
	for rows.Next() {
		s, err := scanSubcontractor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subcontractor: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// GetByID retrieves a subcontractor by its ID.
func (r *SubcontractorRepository) GetByID(ctx context.Context, id string) (*models.Subcontractor, error) {
	s, err := scanSubcontractor(r.db.QueryRowContext(ctx, "SELECT "+subcontractorColumns+" FROM subcontractors WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subcontractor %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subcontractor: %w", err)
	}
	return s, nil
}

// Create persists a new subcontractor.
func (r *SubcontractorRepository) Create(ctx context.Context, s *models.Subcontractor) (*models.Subcontractor, error) {
	id := s.ID
	if id == "" {
		id = newID()
	}
	ts := now()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO subcontractors (id, project_id, name, trade, contact_email, phone, created_at, updated_at, version) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)",
		id, s.ProjectID, s.Name, nullString(s.Trade), nullString(s.ContactEmail), nullString(s.Phone), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create subcontractor: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.changes.Inserted(ctx, *created)
	return created, nil
}

// Delete removes a subcontractor.
func (r *SubcontractorRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM subcontractors WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete subcontractor: %w", err)
	}
	r.changes.Deleted(ctx, *existing)
	return nil
}

func scanSubcontractor(sc scanner) (*models.Subcontractor, error) {
	var trade, email, phone sql.NullString

	s := &models.Subcontractor{}
	if err := sc.Scan(&s.ID, &s.ProjectID, &s.Name, &trade, &email, &phone, &s.CreatedAt, &s.UpdatedAt, &s.Version); err != nil {
		return nil, err
	}

	s.Trade = trade.String
	s.ContactEmail = email.String
	s.Phone = phone.String
	return s, nil
}

var (
	_ secondary.ContactRepository       = (*ContactRepository)(nil)
	_ secondary.SubcontractorRepository = (*SubcontractorRepository)(nil)
)
