// Package shift contains the pure business logic for work shifts: the shift
// status machine, the closeout gate and the worker roster rules.
// This is part of the Functional Core - no I/O, only pure functions.
package shift

import "time"

// Status represents the possible states of a shift.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known shift status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitions is the shift status table.
var transitions = map[Status][]Status{
	StatusDraft:  {StatusActive, StatusCancelled},
	StatusActive: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a shift may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// InitialStatus returns the initial status for a new shift.
func InitialStatus() Status {
	return StatusDraft
}

// TransitionResult captures the new status and the closeout stamp that
// goes with it.
type TransitionResult struct {
	NewStatus Status
	ClosedAt  *time.Time // Set when the new status is terminal
	ClosedBy  string
}

// ApplyTransition returns the result of moving to newStatus.
// Terminal statuses stamp ClosedAt/ClosedBy; the caller passes the clock.
func ApplyTransition(newStatus Status, now time.Time, actor string) TransitionResult {
	result := TransitionResult{NewStatus: newStatus}

	if newStatus.IsTerminal() {
		stamp := now.UTC()
		result.ClosedAt = &stamp
		result.ClosedBy = actor
	}

	return result
}
