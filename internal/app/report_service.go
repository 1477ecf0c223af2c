package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/store"
)

// ReportServiceImpl builds daily reports from the cache.
type ReportServiceImpl struct {
	projectRepo secondary.ProjectRepository
	writer      secondary.ReportWriter
	store       *store.Store
	now         func() time.Time
}

// NewReportService creates a new ReportService with injected dependencies.
func NewReportService(projectRepo secondary.ProjectRepository, writer secondary.ReportWriter, st *store.Store) *ReportServiceImpl {
	return &ReportServiceImpl{
		projectRepo: projectRepo,
		writer:      writer,
		store:       st,
		now:         time.Now,
	}
}

// BuildDailyReport collects the current project's activity for date.
func (s *ReportServiceImpl) BuildDailyReport(ctx context.Context, date string) (*secondary.DailyReport, error) {
	projectID := s.store.ProjectID()
	if projectID == "" {
		return nil, primary.ErrNoProject
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	report := &secondary.DailyReport{
		Project:       *project,
		Date:          date,
		Logs:          s.store.LogsForDate(date),
		TotalManHours: s.store.ManpowerTotals(date).ManHours,
		GeneratedAt:   s.now().UTC(),
	}
	for _, v := range s.store.Shifts() {
		if v.ScheduledDate != date {
			continue
		}
		report.Shifts = append(report.Shifts, secondary.ShiftSummary{
			Shift:          v.Shift,
			WorkerCount:    v.WorkerCount,
			FormsSubmitted: v.FormsSubmitted,
		})
	}
	report.OpenIssues = len(s.store.OpenSiteIssues())
	return report, nil
}

// WriteDailyReport renders the daily report for date to w.
func (s *ReportServiceImpl) WriteDailyReport(ctx context.Context, w io.Writer, date string) error {
	if s.writer == nil {
		return errors.New("no report writer configured")
	}
	report, err := s.BuildDailyReport(ctx, date)
	if err != nil {
		return err
	}
	if err := s.writer.WriteDailyReport(ctx, w, *report); err != nil {
		return fmt.Errorf("failed to write daily report: %w", err)
	}
	return nil
}
