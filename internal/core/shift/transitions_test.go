package shift

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusActive, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusCompleted, false},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusDraft, false},
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestApplyTransition(t *testing.T) {
	now := time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name         string
		newStatus    Status
		wantClosedAt bool
	}{
		{"activating does not close", StatusActive, false},
		{"completing stamps closed_at", StatusCompleted, true},
		{"cancelling stamps closed_at", StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ApplyTransition(tt.newStatus, now, "supervisor-1")

			if result.NewStatus != tt.newStatus {
				t.Errorf("NewStatus = %s, want %s", result.NewStatus, tt.newStatus)
			}
			if tt.wantClosedAt {
				if result.ClosedAt == nil || !result.ClosedAt.Equal(now) {
					t.Errorf("ClosedAt = %v, want %v", result.ClosedAt, now)
				}
				if result.ClosedBy != "supervisor-1" {
					t.Errorf("ClosedBy = %q, want supervisor-1", result.ClosedBy)
				}
			} else if result.ClosedAt != nil || result.ClosedBy != "" {
				t.Errorf("expected no closeout stamp, got %v/%q", result.ClosedAt, result.ClosedBy)
			}
		})
	}
}

func TestInitialStatus(t *testing.T) {
	if InitialStatus() != StatusDraft {
		t.Errorf("InitialStatus() = %s, want draft", InitialStatus())
	}
}
