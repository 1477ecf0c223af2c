package primary

import (
	"context"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
)

// ShiftService defines the primary port for shifts and their rosters.
type ShiftService interface {
	// CreateShift creates a draft shift.
	CreateShift(ctx context.Context, req CreateShiftRequest) (*models.Shift, error)

	// UpdateShift edits the planning fields of a shift that is not closed.
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (*models.Shift, error)

	// DeleteShift removes a shift and its roster.
	DeleteShift(ctx context.Context, shiftID string) error

	// StartShift moves a draft shift to active.
	StartShift(ctx context.Context, shiftID string) (*models.Shift, error)

	// CloseoutShift completes an active shift through the closeout gate.
	CloseoutShift(ctx context.Context, req CloseoutShiftRequest) (*models.Shift, error)

	// CancelShift cancels a draft or active shift.
	CancelShift(ctx context.Context, shiftID string) (*models.Shift, error)

	// AddWorker puts a worker on a shift's roster.
	AddWorker(ctx context.Context, req AddWorkerRequest) (*models.ShiftWorker, error)

	// RemoveWorker takes a worker off a roster.
	RemoveWorker(ctx context.Context, workerID string) error

	// UpdateWorker edits a worker's contact details and notification method.
	UpdateWorker(ctx context.Context, req UpdateWorkerRequest) (*models.ShiftWorker, error)

	// RecordNotificationStatus records a delivery report for a worker.
	RecordNotificationStatus(ctx context.Context, workerID string, status shift.NotificationStatus) (*models.ShiftWorker, error)

	// MarkFormSubmitted records that a worker submitted their shift form.
	MarkFormSubmitted(ctx context.Context, workerID string) (*models.ShiftWorker, error)
}

// CreateShiftRequest contains parameters for creating a shift.
type CreateShiftRequest struct {
	Name             string
	ScheduledDate    string // YYYY-MM-DD
	StartTime        string
	EndTime          string
	Notes            string
	Tasks            []models.ShiftTask
	CustomCategories []string
}

// UpdateShiftRequest contains parameters for editing a shift.
// Empty strings and nil slices keep the current value.
type UpdateShiftRequest struct {
	ShiftID          string
	Name             string
	ScheduledDate    string
	StartTime        string
	EndTime          string
	Notes            string
	Tasks            []models.ShiftTask
	ShiftNotes       []models.ShiftNote
	CustomCategories []string
}

// CloseoutShiftRequest contains the closeout submission for a shift.
type CloseoutShiftRequest struct {
	ShiftID          string
	Checklist        []shift.ChecklistItem
	Notes            string
	IncompleteReason string
}

// AddWorkerRequest contains parameters for adding a worker to a roster.
// Registered workers copy missing contact details from the directory.
type AddWorkerRequest struct {
	ShiftID            string
	WorkerType         shift.WorkerType
	ContactID          string
	Name               string
	Phone              string
	Email              string
	NotificationMethod shift.NotificationMethod
}

// UpdateWorkerRequest contains parameters for editing a roster entry.
// Empty fields keep the current value.
type UpdateWorkerRequest struct {
	WorkerID           string
	Name               string
	Phone              string
	Email              string
	NotificationMethod shift.NotificationMethod
}
