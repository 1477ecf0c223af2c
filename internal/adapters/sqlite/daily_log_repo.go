package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

const dailyLogColumns = "id, project_id, log_date, log_type, content, metadata, status, created_by, created_at, updated_at, version"

// DailyLogRepository implements secondary.DailyLogRepository with SQLite.
type DailyLogRepository struct {
	db      *sql.DB
	changes *ChangeWriter
}

// NewDailyLogRepository creates a new SQLite daily log repository.
func NewDailyLogRepository(db *sql.DB, changes *ChangeWriter) *DailyLogRepository {
	return &DailyLogRepository{db: db, changes: changes}
}

// List retrieves every log of a project, oldest first.
func (r *DailyLogRepository) List(ctx context.Context, projectID string) ([]*models.DailyLog, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+dailyLogColumns+" FROM daily_logs WHERE project_id = ? ORDER BY log_date, created_at",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DailyLog
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetByID retrieves a log by its ID.
func (r *DailyLogRepository) GetByID(ctx context.Context, id string) (*models.DailyLog, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+dailyLogColumns+" FROM daily_logs WHERE id = ?", id)
	l, err := scanDailyLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("daily log %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily log: %w", err)
	}
	return l, nil
}

// Create persists a new log.
func (r *DailyLogRepository) Create(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	metadata, err := encodeMetadata(log.Metadata)
	if err != nil {
		return nil, err
	}

	id := log.ID
	if id == "" {
		id = newID()
	}
	status := log.Status
	if status == "" {
		status = dailylog.StatusActive
	}
	ts := now()

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO daily_logs (id, project_id, log_date, log_type, content, metadata, status, created_by, created_at, updated_at, version) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)",
		id, log.ProjectID, log.LogDate, string(log.LogType), log.Content, metadata, string(status), nullString(log.CreatedBy), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create daily log: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.changes.Inserted(ctx, *created)
	return created, nil
}

// Update replaces the editable columns of a log and bumps its version.
func (r *DailyLogRepository) Update(ctx context.Context, log *models.DailyLog) (*models.DailyLog, error) {
	metadata, err := encodeMetadata(log.Metadata)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE daily_logs SET log_date = ?, log_type = ?, content = ?, metadata = ?, status = ?, updated_at = ?, version = version + 1 WHERE id = ?",
		log.LogDate, string(log.LogType), log.Content, metadata, string(log.Status), now(), log.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update daily log: %w", err)
	}
	if err := affectedOne(res, fmt.Errorf("daily log %s: %w", log.ID, secondary.ErrNotFound)); err != nil {
		return nil, err
	}

	updated, err := r.GetByID(ctx, log.ID)
	if err != nil {
		return nil, err
	}
	r.changes.Updated(ctx, *updated)
	return updated, nil
}

// Delete removes a log.
func (r *DailyLogRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM daily_logs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete daily log: %w", err)
	}

	r.changes.Deleted(ctx, *existing)
	return nil
}

func encodeMetadata(m dailylog.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(data), nil
}

func scanDailyLog(s scanner) (*models.DailyLog, error) {
	var (
		logType   string
		metadata  string
		status    string
		createdBy sql.NullString
	)

	l := &models.DailyLog{}
	if err := s.Scan(&l.ID, &l.ProjectID, &l.LogDate, &logType, &l.Content, &metadata, &status, &createdBy, &l.CreatedAt, &l.UpdatedAt, &l.Version); err != nil {
		return nil, err
	}

	l.LogType = dailylog.LogType(logType)
	l.Status = dailylog.Status(status)
	l.CreatedBy = createdBy.String

	meta, err := dailylog.DecodeMetadata(l.LogType, json.RawMessage(metadata))
	if err != nil {
		return nil, fmt.Errorf("daily log %s: %w", l.ID, err)
	}
	l.Metadata = meta
	return l, nil
}

var _ secondary.DailyLogRepository = (*DailyLogRepository)(nil)
