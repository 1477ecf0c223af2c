package models

import (
	"time"

	"github.com/example/siteops/internal/core/shift"
)

// ShiftTask is a unit of work planned for a shift.
type ShiftTask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Completed   bool   `json:"completed"`
}

// ShiftNote is a timestamped remark left on a shift.
type ShiftNote struct {
	Text      string    `json:"text"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Shift is a scheduled work period. ClosedAt is set exactly when Status is
// completed or cancelled.
type Shift struct {
	ID                string                `json:"id"`
	ProjectID         string                `json:"project_id"`
	Name              string                `json:"name"`
	ScheduledDate     string                `json:"scheduled_date"`
	StartTime         string                `json:"start_time,omitempty"`
	EndTime           string                `json:"end_time,omitempty"`
	Status            shift.Status          `json:"status"`
	Notes             string                `json:"notes,omitempty"`
	ShiftTasks        []ShiftTask           `json:"shift_tasks"`
	ShiftNotes        []ShiftNote           `json:"shift_notes"`
	CustomCategories  []string              `json:"custom_categories"`
	CloseoutChecklist []shift.ChecklistItem `json:"closeout_checklist"`
	CloseoutNotes     string                `json:"closeout_notes,omitempty"`
	ClosedAt          *time.Time            `json:"closed_at,omitempty"`
	ClosedBy          string                `json:"closed_by,omitempty"`
	IncompleteReason  string                `json:"incomplete_reason,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Version           int64                 `json:"version,omitempty"`
}

func (s Shift) EntityID() string        { return s.ID }
func (s Shift) EntityProjectID() string { return s.ProjectID }
func (s Shift) EntityVersion() int64    { return s.Version }

// ShiftWorker assigns one worker to a shift. ProjectID is denormalized from
// the shift so the row can be scoped without a lookup.
type ShiftWorker struct {
	ID                 string                   `json:"id"`
	ShiftID            string                   `json:"shift_id"`
	ProjectID          string                   `json:"project_id"`
	WorkerType         shift.WorkerType         `json:"worker_type"`
	ContactID          string                   `json:"contact_id,omitempty"`
	Name               string                   `json:"name"`
	Phone              string                   `json:"phone,omitempty"`
	Email              string                   `json:"email,omitempty"`
	NotificationMethod shift.NotificationMethod `json:"notification_method"`
	NotificationStatus shift.NotificationStatus `json:"notification_status"`
	FormSubmitted      bool                     `json:"form_submitted"`
	FormSubmittedAt    *time.Time               `json:"form_submitted_at,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
	Version            int64                    `json:"version,omitempty"`
}

func (w ShiftWorker) EntityID() string        { return w.ID }
func (w ShiftWorker) EntityProjectID() string { return w.ProjectID }
func (w ShiftWorker) EntityVersion() int64    { return w.Version }
