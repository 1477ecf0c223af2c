package secondary

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
)

// Attachment is a file to upload for a daily log.
type Attachment struct {
	ProjectID   string
	LogID       string
	FileName    string
	ContentType string
	Body        io.Reader
}

// AttachmentStore defines the secondary port for object storage.
type AttachmentStore interface {
	// Upload stores the attachment and returns the URL or path to keep in
	// the log's metadata.
	Upload(ctx context.Context, a Attachment) (string, error)
}

// NotificationReceipt is a delivery report from the notification collaborator.
type NotificationReceipt struct {
	ProjectID string
	ShiftID   string
	WorkerID  string
	Status    shift.NotificationStatus
	At        time.Time
}

// ReceiptHandler consumes one notification receipt.
type ReceiptHandler func(ctx context.Context, r NotificationReceipt) error

// NotificationReceipts defines the secondary port for notification callbacks.
type NotificationReceipts interface {
	// Listen delivers receipts for a project to handler until ctx is done.
	Listen(ctx context.Context, projectID string, handler ReceiptHandler) error
}

// ShiftSummary is one shift line of a daily report.
type ShiftSummary struct {
	Shift          models.Shift
	WorkerCount    int
	FormsSubmitted int
}

// DailyReport is everything recorded for one project on one date.
type DailyReport struct {
	Project       models.Project
	Date          string
	Logs          []models.DailyLog
	Shifts        []ShiftSummary
	TotalManHours decimal.Decimal
	OpenIssues    int
	GeneratedAt   time.Time
}

// ReportWriter defines the secondary port for report rendering.
type ReportWriter interface {
	WriteDailyReport(ctx context.Context, w io.Writer, report DailyReport) error
}
