// Package excel renders daily reports as xlsx workbooks.
package excel

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/ports/secondary"
)

const (
	SheetSummary  = "Summary"
	SheetLogs     = "Logs"
	SheetManpower = "Manpower"
	SheetShifts   = "Shifts"
)

var (
	logHeaders      = []string{"Type", "Status", "Content", "Details", "Created By", "Created At"}
	manpowerHeaders = []string{"Company", "Workers", "Hours", "Man-Hours", "Personnel"}
	shiftHeaders    = []string{"Shift", "Start", "End", "Status", "Workers", "Forms Submitted", "Closed By"}
)

// ReportWriter writes secondary.DailyReport values as xlsx workbooks.
type ReportWriter struct{}

// NewReportWriter creates a new excel report writer.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// WriteDailyReport renders report into a four-sheet workbook and writes it to w.
func (r *ReportWriter) WriteDailyReport(ctx context.Context, w io.Writer, report secondary.DailyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, name := range []string{SheetSummary, SheetLogs, SheetManpower, SheetShifts} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}

	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	if err := writeSummary(f, report); err != nil {
		return err
	}
	if err := writeTable(f, header, SheetLogs, logHeaders, logRows(report)); err != nil {
		return err
	}
	if err := writeTable(f, header, SheetManpower, manpowerHeaders, manpowerRows(report)); err != nil {
		return err
	}
	if err := writeTable(f, header, SheetShifts, shiftHeaders, shiftRows(report)); err != nil {
		return err
	}

	if idx, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(idx)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return style, nil
}

func writeSummary(f *excelize.File, report secondary.DailyReport) error {
	rows := [][]interface{}{
		{"Project", report.Project.Name},
		{"Address", report.Project.Address},
		{"Date", report.Date},
		{"Entries", len(report.Logs)},
		{"Shifts", len(report.Shifts)},
		{"Total Man-Hours", report.TotalManHours.String()},
		{"Open Site Issues", report.OpenIssues},
		{"Generated At", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SheetSummary, "A", "B", 24)
}

func writeTable(f *excelize.File, style int, sheet string, headers []string, rows [][]interface{}) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func logRows(report secondary.DailyReport) [][]interface{} {
	rows := make([][]interface{}, 0, len(report.Logs))
	for _, l := range report.Logs {
		rows = append(rows, []interface{}{
			string(l.LogType),
			string(l.Status),
			l.Content,
			Describe(l.Metadata),
			l.CreatedBy,
			l.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func manpowerRows(report secondary.DailyReport) [][]interface{} {
	var rows [][]interface{}
	for _, l := range report.Logs {
		m, ok := l.Metadata.(dailylog.ManpowerMeta)
		if !ok {
			continue
		}
		names := make([]string, 0, len(m.Personnel))
		for _, p := range m.Personnel {
			names = append(names, p.Name)
		}
		rows = append(rows, []interface{}{
			m.Company,
			m.Count,
			m.Hours.String(),
			m.ManHours().String(),
			strings.Join(names, ", "),
		})
	}
	return rows
}

func shiftRows(report secondary.DailyReport) [][]interface{} {
	rows := make([][]interface{}, 0, len(report.Shifts))
	for _, s := range report.Shifts {
		rows = append(rows, []interface{}{
			s.Shift.Name,
			s.Shift.StartTime,
			s.Shift.EndTime,
			string(s.Shift.Status),
			s.WorkerCount,
			s.FormsSubmitted,
			s.Shift.ClosedBy,
		})
	}
	return rows
}

// Describe renders metadata as a one-line summary for the Details column.
func Describe(m dailylog.Metadata) string {
	var d describer
	dailylog.Match(m, &d)
	return strings.Join(d.parts, "; ")
}

type describer struct {
	parts []string
}

func (d *describer) add(label, value string) {
	if value != "" {
		d.parts = append(d.parts, label+": "+value)
	}
}

func (d *describer) Visitor(m dailylog.VisitorMeta) {
	d.add("visitor", m.VisitorName)
	d.add("company", m.Company)
	d.add("purpose", m.Purpose)
	if m.TimeIn != "" || m.TimeOut != "" {
		d.add("time", m.TimeIn+"-"+m.TimeOut)
	}
}

func (d *describer) Delivery(m dailylog.DeliveryMeta) {
	d.add("supplier", m.Supplier)
	d.add("items", m.Items)
	d.add("quantity", m.Quantity)
	d.add("ticket", m.TicketNumber)
}

func (d *describer) SiteIssue(m dailylog.SiteIssueMeta) {
	d.add("severity", string(m.Severity))
	d.add("location", m.Location)
	d.add("assigned", m.AssignedTo)
	d.add("due", m.DueDate)
}

func (d *describer) Manpower(m dailylog.ManpowerMeta) {
	d.add("company", m.Company)
	d.add("workers", strconv.Itoa(m.Count))
	d.add("man-hours", m.ManHours().String())
}

func (d *describer) ScheduleDelay(m dailylog.ScheduleDelayMeta) {
	d.add("reason", m.Reason)
	d.add("days", strconv.Itoa(m.DaysImpacted))
	d.add("activity", m.Activity)
}

func (d *describer) Observation(m dailylog.ObservationMeta) {
	d.add("category", m.Category)
	d.add("location", m.Location)
	if n := len(m.PhotoURLs); n > 0 {
		d.add("photos", strconv.Itoa(n))
	}
}

func (d *describer) Note(m dailylog.NoteMeta) {
	d.add("tags", strings.Join(m.Tags, ","))
}

func (d *describer) MeetingMinutes(m dailylog.MeetingMinutesMeta) {
	d.add("title", m.Title)
	if n := len(m.Attendees); n > 0 {
		d.add("attendees", strconv.Itoa(n))
	}
	if n := len(m.ActionItems); n > 0 {
		d.add("actions", strconv.Itoa(n))
	}
}

var _ secondary.ReportWriter = (*ReportWriter)(nil)
