package shift

import (
	"errors"
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ErrChecklistRequired is returned when a closeout arrives without a checklist.
var ErrChecklistRequired = errors.New("closeout checklist is required")

// TransitionError reports a status change the table does not allow.
type TransitionError struct {
	ShiftID string
	From    Status
	To      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move shift %s from %s to %s", e.ShiftID, e.From, e.To)
}

// IncompleteClosingError is returned when a shift is closed with fewer
// submitted forms than workers and no reason was given.
type IncompleteClosingError struct {
	ShiftID        string
	WorkerCount    int
	FormsSubmitted int
}

func (e *IncompleteClosingError) Error() string {
	return fmt.Sprintf("shift %s has %d of %d forms submitted; an incomplete reason is required to close it",
		e.ShiftID, e.FormsSubmitted, e.WorkerCount)
}

// ChecklistItem is one line of the closeout checklist.
type ChecklistItem struct {
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
	Notes   string `json:"notes,omitempty"`
}

// StatusContext provides context for start/cancel guards.
type StatusContext struct {
	ShiftID string
	Status  Status
}

// CloseoutContext provides context for the closeout gate.
type CloseoutContext struct {
	ShiftID          string
	Status           Status
	WorkerCount      int
	FormsSubmitted   int
	Checklist        []ChecklistItem // nil means no checklist was submitted
	IncompleteReason string
}

// RosterContext provides context for worker roster guards.
type RosterContext struct {
	ShiftID string
	Status  Status
}

// CanStart evaluates whether a shift can be started.
// Rules:
// - Status must be draft
func CanStart(ctx StatusContext) GuardResult {
	if !CanTransition(ctx.Status, StatusActive) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("can only start draft shifts (shift %s is %s)", ctx.ShiftID, ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// CanCancel evaluates whether a shift can be cancelled.
// Rules:
// - Status must be draft or active
func CanCancel(ctx StatusContext) GuardResult {
	if !CanTransition(ctx.Status, StatusCancelled) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot cancel shift %s: it is already %s", ctx.ShiftID, ctx.Status),
		}
	}

	return GuardResult{Allowed: true}
}

// ValidateCloseout evaluates the closeout gate.
// Rules:
// - Status must be active
// - A checklist must be submitted
// - When forms_submitted < worker_count, IncompleteReason must be non-blank
func ValidateCloseout(ctx CloseoutContext) error {
	if !CanTransition(ctx.Status, StatusCompleted) {
		return &TransitionError{ShiftID: ctx.ShiftID, From: ctx.Status, To: StatusCompleted}
	}

	if ctx.Checklist == nil {
		return ErrChecklistRequired
	}

	if ctx.FormsSubmitted < ctx.WorkerCount && strings.TrimSpace(ctx.IncompleteReason) == "" {
		return &IncompleteClosingError{
			ShiftID:        ctx.ShiftID,
			WorkerCount:    ctx.WorkerCount,
			FormsSubmitted: ctx.FormsSubmitted,
		}
	}

	return nil
}

// CanMutateRoster evaluates whether workers can be added, removed or updated.
// Rules:
// - Shift must not be cancelled
func CanMutateRoster(ctx RosterContext) GuardResult {
	if ctx.Status == StatusCancelled {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("shift %s is cancelled; its roster is frozen", ctx.ShiftID),
		}
	}

	return GuardResult{Allowed: true}
}
