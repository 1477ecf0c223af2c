package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/ctxutil"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
)

// DailyLogServiceImpl implements the DailyLogService interface.
type DailyLogServiceImpl struct {
	logRepo     secondary.DailyLogRepository
	attachments secondary.AttachmentStore
	cache       *Reconciler
}

// NewDailyLogService creates a new DailyLogService with injected dependencies.
// attachments may be nil, in which case AttachPhoto fails.
func NewDailyLogService(
	logRepo secondary.DailyLogRepository,
	attachments secondary.AttachmentStore,
	cache *Reconciler,
) *DailyLogServiceImpl {
	return &DailyLogServiceImpl{
		logRepo:     logRepo,
		attachments: attachments,
		cache:       cache,
	}
}

// AddDailyLog validates and creates a log entry in the current project.
func (s *DailyLogServiceImpl) AddDailyLog(ctx context.Context, req primary.AddDailyLogRequest) (*models.DailyLog, error) {
	const action = "add_daily_log"

	projectID, err := s.cache.project()
	if err != nil {
		return nil, err
	}
	if err := validateDate(req.LogDate); err != nil {
		return nil, err
	}
	logType, err := dailylog.ParseLogType(string(req.LogType))
	if err != nil {
		return nil, err
	}

	meta := req.Metadata
	if meta == nil && logType == dailylog.TypeNote {
		meta = dailylog.NoteMeta{}
	}
	if err := dailylog.ValidateMetadata(logType, meta); err != nil {
		return nil, err
	}

	created, err := s.logRepo.Create(ctx, &models.DailyLog{
		ProjectID: projectID,
		LogDate:   req.LogDate,
		LogType:   logType,
		Content:   strings.TrimSpace(req.Content),
		Metadata:  meta,
		Status:    dailylog.InitialStatus(logType, req.Status),
		CreatedBy: ctxutil.ActorOrDefault(ctx),
	})
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to create daily log: %w", err))
	}

	if err := s.cache.upserted(ctx, action, models.ChangeInsert, *created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateDailyLog replaces the editable fields of a log entry. The log type
// cannot change, so new metadata must match the existing type.
func (s *DailyLogServiceImpl) UpdateDailyLog(ctx context.Context, req primary.UpdateDailyLogRequest) (*models.DailyLog, error) {
	current, err := s.cachedLog(req.LogID)
	if err != nil {
		return nil, err
	}

	if req.LogDate != "" {
		if err := validateDate(req.LogDate); err != nil {
			return nil, err
		}
		current.LogDate = req.LogDate
	}
	if req.Content != "" {
		current.Content = strings.TrimSpace(req.Content)
	}
	if req.Metadata != nil {
		if err := dailylog.ValidateMetadata(current.LogType, req.Metadata); err != nil {
			return nil, err
		}
		current.Metadata = req.Metadata
	}

	return s.update(ctx, "update_daily_log", &current)
}

// DeleteDailyLog removes a log entry.
func (s *DailyLogServiceImpl) DeleteDailyLog(ctx context.Context, logID string) error {
	const action = "delete_daily_log"

	current, err := s.cachedLog(logID)
	if err != nil {
		return err
	}

	if err := s.logRepo.Delete(ctx, logID); err != nil {
		return s.cache.fail(action, fmt.Errorf("failed to delete daily log: %w", err))
	}
	return s.cache.deleted(ctx, action, current)
}

// ToggleIssueStatus moves a site issue to another status.
func (s *DailyLogServiceImpl) ToggleIssueStatus(ctx context.Context, logID string, target dailylog.Status) (*models.DailyLog, error) {
	current, err := s.cachedLog(logID)
	if err != nil {
		return nil, err
	}

	guard := dailylog.CanToggleStatus(dailylog.ToggleContext{
		LogID:   current.ID,
		LogType: current.LogType,
		Current: current.Status,
		Target:  target,
	})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	current.Status = target
	return s.update(ctx, "toggle_issue_status", &current)
}

// AttachPhoto uploads a photo and appends its URL to an observation entry.
func (s *DailyLogServiceImpl) AttachPhoto(ctx context.Context, req primary.AttachPhotoRequest) (*models.DailyLog, error) {
	const action = "attach_photo"

	current, err := s.cachedLog(req.LogID)
	if err != nil {
		return nil, err
	}

	guard := dailylog.CanAttachPhoto(dailylog.AttachContext{LogID: current.ID, LogType: current.LogType})
	if err := guard.Error(); err != nil {
		return nil, err
	}
	if s.attachments == nil {
		return nil, errors.New("no attachment store configured")
	}
	if req.FileName == "" || req.Body == nil {
		return nil, errors.New("photo file is required")
	}

	url, err := s.attachments.Upload(ctx, secondary.Attachment{
		ProjectID:   current.ProjectID,
		LogID:       current.ID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Body:        req.Body,
	})
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to upload photo: %w", err))
	}

	meta, _ := current.Metadata.(dailylog.ObservationMeta)
	meta.PhotoURLs = append(append([]string(nil), meta.PhotoURLs...), url)
	current.Metadata = meta

	return s.update(ctx, action, &current)
}

func (s *DailyLogServiceImpl) update(ctx context.Context, action string, log *models.DailyLog) (*models.DailyLog, error) {
	updated, err := s.logRepo.Update(ctx, log)
	if err != nil {
		return nil, s.cache.fail(action, fmt.Errorf("failed to update daily log: %w", err))
	}
	if err := s.cache.upserted(ctx, action, models.ChangeUpdate, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *DailyLogServiceImpl) cachedLog(id string) (models.DailyLog, error) {
	if _, err := s.cache.project(); err != nil {
		return models.DailyLog{}, err
	}
	log, ok := s.cache.store.DailyLog(id)
	if !ok {
		return models.DailyLog{}, notCached("daily log", id)
	}
	return log, nil
}

func validateDate(date string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return nil
}

var _ primary.DailyLogService = (*DailyLogServiceImpl)(nil)
