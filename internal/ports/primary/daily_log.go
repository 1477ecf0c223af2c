// Package primary defines the primary ports (driving adapters) of siteops:
// the supervisor actions the CLI and any other front end call.
package primary

import (
	"context"
	"errors"
	"io"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/models"
)

// ErrNoProject is returned by actions issued before a project is selected.
var ErrNoProject = errors.New("no project selected")

// DailyLogService defines the primary port for daily log entries of the
// current project.
type DailyLogService interface {
	// AddDailyLog validates and creates a log entry.
	AddDailyLog(ctx context.Context, req AddDailyLogRequest) (*models.DailyLog, error)

	// UpdateDailyLog replaces the editable fields of a log entry.
	UpdateDailyLog(ctx context.Context, req UpdateDailyLogRequest) (*models.DailyLog, error)

	// DeleteDailyLog removes a log entry.
	DeleteDailyLog(ctx context.Context, logID string) error

	// ToggleIssueStatus moves a site issue to another status.
	ToggleIssueStatus(ctx context.Context, logID string, target dailylog.Status) (*models.DailyLog, error)

	// AttachPhoto uploads a photo and records it on an observation entry.
	AttachPhoto(ctx context.Context, req AttachPhotoRequest) (*models.DailyLog, error)
}

// AddDailyLogRequest contains parameters for creating a log entry.
type AddDailyLogRequest struct {
	LogDate  string // YYYY-MM-DD
	LogType  dailylog.LogType
	Content  string
	Metadata dailylog.Metadata
	Status   dailylog.Status // site issues only; empty means active
}

// UpdateDailyLogRequest contains parameters for editing a log entry.
// Empty fields and a nil Metadata keep the current value.
type UpdateDailyLogRequest struct {
	LogID    string
	LogDate  string
	Content  string
	Metadata dailylog.Metadata
}

// AttachPhotoRequest contains a photo to attach to an observation entry.
type AttachPhotoRequest struct {
	LogID       string
	FileName    string
	ContentType string
	Body        io.Reader
}
