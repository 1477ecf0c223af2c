package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

const shiftWorkerColumns = "id, shift_id, project_id, worker_type, contact_id, name, phone, email, notification_method, notification_status, form_submitted, form_submitted_at, created_at, updated_at, version"

// ShiftWorkerRepository implements secondary.ShiftWorkerRepository with SQLite.
type ShiftWorkerRepository struct {
	db      *sql.DB
	changes *ChangeWriter
}

// NewShiftWorkerRepository creates a new SQLite shift roster repository.
func NewShiftWorkerRepository(db *sql.DB, changes *ChangeWriter) *ShiftWorkerRepository {
	return &ShiftWorkerRepository{db: db, changes: changes}
}

// List retrieves every worker assignment of a project.
func (r *ShiftWorkerRepository) List(ctx context.Context, projectID string) ([]*models.ShiftWorker, error) {
	return listShiftWorkers(ctx, r.db, "project_id", projectID)
}

func listShiftWorkers(ctx context.Context, db *sql.DB, column, value string) ([]*models.ShiftWorker, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+shiftWorkerColumns+" FROM shift_workers WHERE "+column+" = ? ORDER BY created_at",
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift workers: %w", err)
	}
	defer rows.Close()

	var workers []*models.ShiftWorker
	for rows.Next() {
		w, err := scanShiftWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift worker: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// GetByID retrieves an assignment by its ID.
func (r *ShiftWorkerRepository) GetByID(ctx context.Context, id string) (*models.ShiftWorker, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+shiftWorkerColumns+" FROM shift_workers WHERE id = ?", id)
	w, err := scanShiftWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shift worker %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift worker: %w", err)
	}
	return w, nil
}

// Add persists a new assignment. The project is copied from the shift.
func (r *ShiftWorkerRepository) Add(ctx context.Context, w *models.ShiftWorker) (*models.ShiftWorker, error) {
	var projectID string
	err := r.db.QueryRowContext(ctx, "SELECT project_id FROM shifts WHERE id = ?", w.ShiftID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shift %s: %w", w.ShiftID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shift project: %w", err)
	}

	id := w.ID
	if id == "" {
		id = newID()
	}
	method := w.NotificationMethod
	if method == "" {
		method = shift.NotifyNone
	}
	status := w.NotificationStatus
	if status == "" {
		status = shift.NotificationPending
	}
	ts := now()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shift_workers (id, shift_id, project_id, worker_type, contact_id, name, phone, email,
			notification_method, notification_status, form_submitted, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, 1)`,
		id, w.ShiftID, projectID, string(w.WorkerType), nullString(w.ContactID), w.Name, nullString(w.Phone), nullString(w.Email),
		string(method), string(status), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add shift worker: %w", err)
	}

	added, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.changes.Inserted(ctx, *added)
	return added, nil
}

// Update replaces an assignment's contact and notification columns.
func (r *ShiftWorkerRepository) Update(ctx context.Context, w *models.ShiftWorker) (*models.ShiftWorker, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shift_workers SET name = ?, phone = ?, email = ?, notification_method = ?, notification_status = ?,
			form_submitted = ?, form_submitted_at = ?, updated_at = ?, version = version + 1
		WHERE id = ?`,
		w.Name, nullString(w.Phone), nullString(w.Email), string(w.NotificationMethod), string(w.NotificationStatus),
		w.FormSubmitted, nullTime(w.FormSubmittedAt), now(), w.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update shift worker: %w", err)
	}
	if err := affectedOne(res, fmt.Errorf("shift worker %s: %w", w.ID, secondary.ErrNotFound)); err != nil {
		return nil, err
	}

	updated, err := r.GetByID(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	r.changes.Updated(ctx, *updated)
	return updated, nil
}

// Remove deletes an assignment.
func (r *ShiftWorkerRepository) Remove(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM shift_workers WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to remove shift worker: %w", err)
	}

	r.changes.Deleted(ctx, *existing)
	return nil
}

func scanShiftWorker(s scanner) (*models.ShiftWorker, error) {
	var (
		workerType      string
		contactID       sql.NullString
		phone           sql.NullString
		email           sql.NullString
		method          string
		status          string
		formSubmittedAt sql.NullTime
	)

	w := &models.ShiftWorker{}
	err := s.Scan(&w.ID, &w.ShiftID, &w.ProjectID, &workerType, &contactID, &w.Name, &phone, &email,
		&method, &status, &w.FormSubmitted, &formSubmittedAt, &w.CreatedAt, &w.UpdatedAt, &w.Version)
	if err != nil {
		return nil, err
	}

	w.WorkerType = shift.WorkerType(workerType)
	w.ContactID = contactID.String
	w.Phone = phone.String
	w.Email = email.String
	w.NotificationMethod = shift.NotificationMethod(method)
	w.NotificationStatus = shift.NotificationStatus(status)
	w.FormSubmittedAt = timePtr(formSubmittedAt)
	return w, nil
}

var _ secondary.ShiftWorkerRepository = (*ShiftWorkerRepository)(nil)
