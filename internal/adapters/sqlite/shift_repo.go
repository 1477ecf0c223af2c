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

const shiftColumns = "id, project_id, name, scheduled_date, start_time, end_time, status, notes, shift_tasks, shift_notes, custom_categories, closeout_checklist, closeout_notes, closed_at, closed_by, incomplete_reason, created_at, updated_at, version"

// ErrShiftNotActive is returned by Close when the shift left the active
// status before the write landed.
var ErrShiftNotActive = errors.New("shift is no longer active")

// ShiftRepository implements secondary.ShiftRepository with SQLite.
type ShiftRepository struct {
	db      *sql.DB
	changes *ChangeWriter
}

// NewShiftRepository creates a new SQLite shift repository.
func NewShiftRepository(db *sql.DB, changes *ChangeWriter) *ShiftRepository {
	return &ShiftRepository{db: db, changes: changes}
}

// List retrieves every shift of a project.
func (r *ShiftRepository) List(ctx context.Context, projectID string) ([]*models.Shift, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+shiftColumns+" FROM shifts WHERE project_id = ? ORDER BY scheduled_date, name",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []*models.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// GetByID retrieves a shift by its ID.
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*models.Shift, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+shiftColumns+" FROM shifts WHERE id = ?", id)
	s, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shift %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return s, nil
}

// Create persists a new shift.
func (r *ShiftRepository) Create(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	cols, err := encodeShiftLists(s)
	if err != nil {
		return nil, err
	}

	id := s.ID
	if id == "" {
		id = newID()
	}
	status := s.Status
	if status == "" {
		status = shift.InitialStatus()
	}
	ts := now()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shifts (id, project_id, name, scheduled_date, start_time, end_time, status, notes,
			shift_tasks, shift_notes, custom_categories, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		id, s.ProjectID, s.Name, s.ScheduledDate, nullString(s.StartTime), nullString(s.EndTime), string(status), nullString(s.Notes),
		cols.tasks, cols.notes, cols.categories, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.changes.Inserted(ctx, *created)
	return created, nil
}

// Update replaces the planning columns and status of a shift. Closeout
// columns are written by Close, or here when a cancellation stamps them.
func (r *ShiftRepository) Update(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	cols, err := encodeShiftLists(s)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE shifts SET name = ?, scheduled_date = ?, start_time = ?, end_time = ?, status = ?, notes = ?,
			shift_tasks = ?, shift_notes = ?, custom_categories = ?, closed_at = ?, closed_by = ?,
			updated_at = ?, version = version + 1
		WHERE id = ?`,
		s.Name, s.ScheduledDate, nullString(s.StartTime), nullString(s.EndTime), string(s.Status), nullString(s.Notes),
		cols.tasks, cols.notes, cols.categories, nullTime(s.ClosedAt), nullString(s.ClosedBy),
		now(), s.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update shift: %w", err)
	}
	if err := affectedOne(res, fmt.Errorf("shift %s: %w", s.ID, secondary.ErrNotFound)); err != nil {
		return nil, err
	}

	updated, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	r.changes.Updated(ctx, *updated)
	return updated, nil
}

// Close writes the closeout of a shift that is still active.
func (r *ShiftRepository) Close(ctx context.Context, s *models.Shift) (*models.Shift, error) {
	checklist, err := encodeJSON(s.CloseoutChecklist)
	if err != nil {
		return nil, fmt.Errorf("failed to encode closeout checklist: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE shifts SET status = ?, closeout_checklist = ?, closeout_notes = ?, incomplete_reason = ?,
			closed_at = ?, closed_by = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND status = 'active'`,
		string(s.Status), checklist, nullString(s.CloseoutNotes), nullString(s.IncompleteReason),
		nullTime(s.ClosedAt), nullString(s.ClosedBy), now(), s.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to close shift: %w", err)
	}
	if err := affectedOne(res, fmt.Errorf("shift %s: %w", s.ID, ErrShiftNotActive)); err != nil {
		return nil, err
	}

	closed, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	r.changes.Updated(ctx, *closed)
	return closed, nil
}

// Delete removes a shift and its roster. Roster deletes are published
// before the shift's own.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	workers, err := listShiftWorkers(ctx, r.db, "shift_id", id)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM shift_workers WHERE shift_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete shift roster: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM shifts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shift delete: %w", err)
	}

	for _, w := range workers {
		r.changes.Deleted(ctx, *w)
	}
	r.changes.Deleted(ctx, *existing)
	return nil
}

type shiftListColumns struct {
	tasks      string
	notes      string
	categories string
}

func encodeShiftLists(s *models.Shift) (shiftListColumns, error) {
	var cols shiftListColumns
	var err error
	if cols.tasks, err = encodeJSON(s.ShiftTasks); err != nil {
		return cols, fmt.Errorf("failed to encode shift tasks: %w", err)
	}
	if cols.notes, err = encodeJSON(s.ShiftNotes); err != nil {
		return cols, fmt.Errorf("failed to encode shift notes: %w", err)
	}
	if cols.categories, err = encodeJSON(s.CustomCategories); err != nil {
		return cols, fmt.Errorf("failed to encode custom categories: %w", err)
	}
	return cols, nil
}

func scanShift(sc scanner) (*models.Shift, error) {
	var (
		startTime        sql.NullString
		endTime          sql.NullString
		status           string
		notes            sql.NullString
		tasks            sql.NullString
		shiftNotes       sql.NullString
		categories       sql.NullString
		checklist        sql.NullString
		closeoutNotes    sql.NullString
		closedAt         sql.NullTime
		closedBy         sql.NullString
		incompleteReason sql.NullString
	)

	s := &models.Shift{}
	err := sc.Scan(&s.ID, &s.ProjectID, &s.Name, &s.ScheduledDate, &startTime, &endTime, &status, &notes,
		&tasks, &shiftNotes, &categories, &checklist, &closeoutNotes, &closedAt, &closedBy, &incompleteReason,
		&s.CreatedAt, &s.UpdatedAt, &s.Version)
	if err != nil {
		return nil, err
	}

	s.StartTime = startTime.String
	s.EndTime = endTime.String
	s.Status = shift.Status(status)
	s.Notes = notes.String
	s.CloseoutNotes = closeoutNotes.String
	s.ClosedAt = timePtr(closedAt)
	s.ClosedBy = closedBy.String
	s.IncompleteReason = incompleteReason.String

	if err := decodeJSON("shift_tasks", tasks, &s.ShiftTasks); err != nil {
		return nil, err
	}
	if err := decodeJSON("shift_notes", shiftNotes, &s.ShiftNotes); err != nil {
		return nil, err
	}
	if err := decodeJSON("custom_categories", categories, &s.CustomCategories); err != nil {
		return nil, err
	}
	if err := decodeJSON("closeout_checklist", checklist, &s.CloseoutChecklist); err != nil {
		return nil, err
	}
	return s, nil
}

var _ secondary.ShiftRepository = (*ShiftRepository)(nil)
