package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

const documentColumns = "id, project_id, folder_id, shift_id, file_name, file_path, mime_type, source, status, ai_classification, rejection_reason, reviewed_by, reviewed_at, received_at, updated_at, version"

// DocumentRepository implements secondary.DocumentRepository with SQLite.
// IngestDocument and ClassifyDocument play the part of the AI pipeline.
type DocumentRepository struct {
	db      *sql.DB
	changes *ChangeWriter
}

// NewDocumentRepository creates a new SQLite received-document repository.
func NewDocumentRepository(db *sql.DB, changes *ChangeWriter) *DocumentRepository {
	return &DocumentRepository{db: db, changes: changes}
}

// List retrieves every received document of a project, newest first.
func (r *DocumentRepository) List(ctx context.Context, projectID string) ([]*models.ReceivedDocument, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM received_documents WHERE project_id = ? ORDER BY received_at DESC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.ReceivedDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetByID retrieves a document by its ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.ReceivedDocument, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM received_documents WHERE id = ?", id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// Update writes the review columns of a document.
func (r *DocumentRepository) Update(ctx context.Context, d *models.ReceivedDocument) (*models.ReceivedDocument, error) {
	classification, err := encodeClassification(d.AIClassification)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE received_documents SET folder_id = ?, shift_id = ?, status = ?, ai_classification = ?,
			rejection_reason = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?, version = version + 1
		WHERE id = ?`,
		nullString(d.FolderID), nullString(d.ShiftID), string(d.Status), classification,
		nullString(d.RejectionReason), nullString(d.ReviewedBy), nullTime(d.ReviewedAt), now(), d.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	if err := affectedOne(res, fmt.Errorf("document %s: %w", d.ID, secondary.ErrNotFound)); err != nil {
		return nil, err
	}

	updated, err := r.GetByID(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	r.changes.Updated(ctx, *updated)
	return updated, nil
}

// IngestDocument records a newly received file in processing.
func (r *DocumentRepository) IngestDocument(ctx context.Context, d *models.ReceivedDocument) (*models.ReceivedDocument, error) {
	id := d.ID
	if id == "" {
		id = newID()
	}
	ts := now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO received_documents (id, project_id, file_name, file_path, mime_type, source, status, received_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		id, d.ProjectID, d.FileName, nullString(d.FilePath), nullString(d.MimeType), nullString(d.Source),
		string(document.StatusProcessing), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest document: %w", err)
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.changes.Inserted(ctx, *created)
	return created, nil
}

// ClassifyDocument stores the pipeline's classification. Confident
// classifications with a suggested folder are filed directly; the rest
// wait for review.
func (r *DocumentRepository) ClassifyDocument(ctx context.Context, id string, c models.AIClassification, autoFileAt float64) (*models.ReceivedDocument, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d.AIClassification = &c
	d.Status = document.StatusNeedsReview
	if c.SuggestedFolderID != "" && c.Confidence >= autoFileAt {
		d.Status = document.StatusFiled
		d.FolderID = c.SuggestedFolderID
	}
	return r.Update(ctx, d)
}

func encodeClassification(c *models.AIClassification) (sql.NullString, error) {
	if c == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode classification: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func scanDocument(s scanner) (*models.ReceivedDocument, error) {
	var (
		folderID        sql.NullString
		shiftID         sql.NullString
		filePath        sql.NullString
		mimeType        sql.NullString
		source          sql.NullString
		status          string
		classification  sql.NullString
		rejectionReason sql.NullString
		reviewedBy      sql.NullString
		reviewedAt      sql.NullTime
	)

	d := &models.ReceivedDocument{}
	err := s.Scan(&d.ID, &d.ProjectID, &folderID, &shiftID, &d.FileName, &filePath, &mimeType, &source, &status,
		&classification, &rejectionReason, &reviewedBy, &reviewedAt, &d.ReceivedAt, &d.UpdatedAt, &d.Version)
	if err != nil {
		return nil, err
	}

	d.FolderID = folderID.String
	d.ShiftID = shiftID.String
	d.FilePath = filePath.String
	d.MimeType = mimeType.String
	d.Source = source.String
	d.Status = document.Status(status)
	d.RejectionReason = rejectionReason.String
	d.ReviewedBy = reviewedBy.String
	d.ReviewedAt = timePtr(reviewedAt)

	if classification.Valid {
		d.AIClassification = &models.AIClassification{}
		if err := decodeJSON("ai_classification", classification, d.AIClassification); err != nil {
			return nil, err
		}
	}
	return d, nil
}

var _ secondary.DocumentRepository = (*DocumentRepository)(nil)
