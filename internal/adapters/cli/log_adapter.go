package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/store"
)

// LogAdapter translates daily log commands to DailyLogService calls.
type LogAdapter struct {
	service primary.DailyLogService
	view    *store.Store
	out     io.Writer
}

// NewLogAdapter creates a new LogAdapter.
func NewLogAdapter(service primary.DailyLogService, view *store.Store, out io.Writer) *LogAdapter {
	return &LogAdapter{service: service, view: view, out: out}
}

// Add creates a log entry.
func (a *LogAdapter) Add(ctx context.Context, req primary.AddDailyLogRequest) (*models.DailyLog, error) {
	log, err := a.service.AddDailyLog(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "✓ Added %s entry %s for %s\n", log.LogType, log.ID, log.LogDate)
	return log, nil
}

// List prints the entries of one date, or every entry when date is empty.
func (a *LogAdapter) List(date string) []models.DailyLog {
	logs := a.view.DailyLogs()
	if date != "" {
		logs = a.view.LogsForDate(date)
	}

	if len(logs) == 0 {
		fmt.Fprintln(a.out, "No log entries found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Add one:")
		fmt.Fprintln(a.out, "  siteops log add note --content \"Crane inspection passed\"")
		return logs
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tSTATUS\tCONTENT")
	fmt.Fprintln(w, "--\t----\t----\t------\t-------")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.LogDate, l.LogType, logStatus(l.Status), orDash(l.Content))
	}
	w.Flush()

	if date != "" {
		a.printManpower(date)
	}
	return logs
}

func (a *LogAdapter) printManpower(date string) {
	totals := a.view.ManpowerTotals(date)
	if len(totals.Companies) == 0 {
		return
	}
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Manpower: %d workers, %s man-hours\n", totals.Workers, totals.ManHours)
	for _, c := range totals.Companies {
		fmt.Fprintf(a.out, "  %-24s %3d workers  %s h\n", c.Company, c.Workers, c.ManHours)
	}
}

// Issues prints the open site issues.
func (a *LogAdapter) Issues() []models.DailyLog {
	issues := a.view.OpenSiteIssues()
	if len(issues) == 0 {
		fmt.Fprintln(a.out, "No open site issues.")
		return issues
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSEVERITY\tLOCATION\tCONTENT")
	fmt.Fprintln(w, "--\t----\t--------\t--------\t-------")
	for _, l := range issues {
		meta, _ := l.Metadata.(dailylog.SiteIssueMeta)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.LogDate, severity(meta.Severity), orDash(meta.Location), orDash(l.Content))
	}
	w.Flush()
	return issues
}

// Toggle moves a site issue to target.
func (a *LogAdapter) Toggle(ctx context.Context, logID string, target dailylog.Status) error {
	log, err := a.service.ToggleIssueStatus(ctx, logID, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Issue %s is now %s\n", log.ID, logStatus(log.Status))
	return nil
}

// Delete removes a log entry.
func (a *LogAdapter) Delete(ctx context.Context, logID string) error {
	if err := a.service.DeleteDailyLog(ctx, logID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted entry %s\n", logID)
	return nil
}

// Attach uploads a photo to an observation entry.
func (a *LogAdapter) Attach(ctx context.Context, req primary.AttachPhotoRequest) error {
	log, err := a.service.AttachPhoto(ctx, req)
	if err != nil {
		return err
	}
	meta, _ := log.Metadata.(dailylog.ObservationMeta)
	fmt.Fprintf(a.out, "✓ Attached %s to %s (%d photos)\n", req.FileName, log.ID, len(meta.PhotoURLs))
	return nil
}
