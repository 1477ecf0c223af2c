package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/store"
)

// mockShiftService implements primary.ShiftService for testing
type mockShiftService struct {
	closeoutFn func(ctx context.Context, req primary.CloseoutShiftRequest) (*models.Shift, error)
	addFn      func(ctx context.Context, req primary.AddWorkerRequest) (*models.ShiftWorker, error)

	lastNotify shift.NotificationStatus
}

func (m *mockShiftService) CreateShift(ctx context.Context, req primary.CreateShiftRequest) (*models.Shift, error) {
	return &models.Shift{ID: "SHIFT-1", Name: req.Name, ScheduledDate: req.ScheduledDate, Status: shift.StatusDraft}, nil
}

func (m *mockShiftService) UpdateShift(ctx context.Context, req primary.UpdateShiftRequest) (*models.Shift, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockShiftService) DeleteShift(ctx context.Context, shiftID string) error {
	return nil
}

func (m *mockShiftService) StartShift(ctx context.Context, shiftID string) (*models.Shift, error) {
	return &models.Shift{ID: shiftID, Status: shift.StatusActive}, nil
}

func (m *mockShiftService) CloseoutShift(ctx context.Context, req primary.CloseoutShiftRequest) (*models.Shift, error) {
	if m.closeoutFn != nil {
		return m.closeoutFn(ctx, req)
	}
	return &models.Shift{ID: req.ShiftID, Status: shift.StatusCompleted, IncompleteReason: req.IncompleteReason}, nil
}

func (m *mockShiftService) CancelShift(ctx context.Context, shiftID string) (*models.Shift, error) {
	return &models.Shift{ID: shiftID, Status: shift.StatusCancelled}, nil
}

func (m *mockShiftService) AddWorker(ctx context.Context, req primary.AddWorkerRequest) (*models.ShiftWorker, error) {
	if m.addFn != nil {
		return m.addFn(ctx, req)
	}
	return &models.ShiftWorker{ID: "SW-1", ShiftID: req.ShiftID, Name: req.Name, WorkerType: req.WorkerType}, nil
}

func (m *mockShiftService) RemoveWorker(ctx context.Context, workerID string) error {
	return nil
}

func (m *mockShiftService) UpdateWorker(ctx context.Context, req primary.UpdateWorkerRequest) (*models.ShiftWorker, error) {
	return nil, errors.New("not implemented in adapter")
}

func (m *mockShiftService) RecordNotificationStatus(ctx context.Context, workerID string, status shift.NotificationStatus) (*models.ShiftWorker, error) {
	m.lastNotify = status
	return &models.ShiftWorker{ID: workerID, Name: "Lee", NotificationStatus: status}, nil
}

func (m *mockShiftService) MarkFormSubmitted(ctx context.Context, workerID string) (*models.ShiftWorker, error) {
	return &models.ShiftWorker{ID: workerID, Name: "Lee", FormSubmitted: true}, nil
}

func seededShiftView(t *testing.T) *store.Store {
	closed := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)
	return newView(t,
		models.Shift{ID: "S1", ProjectID: testProject, Name: "Day", ScheduledDate: "2024-05-01", Status: shift.StatusActive,
			ShiftTasks: []models.ShiftTask{{ID: "T1", Description: "Pour slab", Completed: true}}},
		models.Shift{ID: "S2", ProjectID: testProject, Name: "Night", ScheduledDate: "2024-04-30", Status: shift.StatusCompleted,
			StartTime: "19:00", EndTime: "03:00",
			ClosedAt: &closed, ClosedBy: "dana", IncompleteReason: "crane down",
			CloseoutChecklist: []shift.ChecklistItem{{Label: "Site secured", Checked: true}}},
		models.ShiftWorker{ID: "W1", ShiftID: "S1", ProjectID: testProject, Name: "Lee", WorkerType: shift.WorkerAdHoc,
			NotificationMethod: shift.NotifySMS, NotificationStatus: shift.NotificationDelivered, FormSubmitted: true},
		models.ShiftWorker{ID: "W2", ShiftID: "S1", ProjectID: testProject, Name: "Sam", WorkerType: shift.WorkerAdHoc,
			NotificationMethod: shift.NotifyNone, NotificationStatus: shift.NotificationPending},
	)
}

func TestShiftAdapter_List(t *testing.T) {
	var out bytes.Buffer
	adapter := NewShiftAdapter(&mockShiftService{}, seededShiftView(t), &out)

	shifts := adapter.List()

	if len(shifts) != 2 {
		t.Fatalf("expected 2 shifts, got %d", len(shifts))
	}
	if !strings.Contains(out.String(), "1/2") {
		t.Errorf("expected form counts for S1, got: %s", out.String())
	}
}

func TestShiftAdapter_List_Empty(t *testing.T) {
	var out bytes.Buffer
	adapter := NewShiftAdapter(&mockShiftService{}, newView(t), &out)

	adapter.List()

	if !strings.Contains(out.String(), "Create your first shift") {
		t.Errorf("expected hint, got: %s", out.String())
	}
}

func TestShiftAdapter_Show(t *testing.T) {
	tests := []struct {
		name    string
		shiftID string
		want    []string
		absent  []string
		wantErr bool
	}{
		{
			name:    "active shift with roster",
			shiftID: "S1",
			want:    []string{"Name:    Day", "Date:    2024-05-01\n", "✓ Pour slab", "Roster (2):", "Lee", "delivered"},
			absent:  []string{"---", "2024-05-01 -"},
		},
		{
			name:    "closed shift with checklist",
			shiftID: "S2",
			want:    []string{"Date:    2024-04-30 19:00-03:00", "by dana", "✓ Site secured", "Incomplete: crane down", "Roster (0):"},
		},
		{
			name:    "unknown shift",
			shiftID: "S404",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			adapter := NewShiftAdapter(&mockShiftService{}, seededShiftView(t), &out)

			_, err := adapter.Show(tt.shiftID)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected %q in output:\n%s", want, out.String())
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(out.String(), unwanted) {
					t.Errorf("unexpected %q in output:\n%s", unwanted, out.String())
				}
			}
		})
	}
}

func TestTimeRange(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"07:00", "15:30", "07:00-15:30"},
		{"07:00", "", "from 07:00"},
		{"", "15:30", "until 15:30"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := timeRange(tt.start, tt.end); got != tt.want {
			t.Errorf("timeRange(%q, %q) = %q, want %q", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestShiftAdapter_CloseoutIncomplete(t *testing.T) {
	var out bytes.Buffer
	adapter := NewShiftAdapter(&mockShiftService{}, newView(t), &out)

	err := adapter.Closeout(context.Background(), primary.CloseoutShiftRequest{ShiftID: "S1", IncompleteReason: "rain"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "incomplete: rain") {
		t.Errorf("expected incomplete reason, got: %s", out.String())
	}
}

func TestShiftAdapter_CloseoutRejected(t *testing.T) {
	mock := &mockShiftService{
		closeoutFn: func(ctx context.Context, req primary.CloseoutShiftRequest) (*models.Shift, error) {
			return nil, errors.New("checklist incomplete")
		},
	}
	var out bytes.Buffer
	adapter := NewShiftAdapter(mock, newView(t), &out)

	if err := adapter.Closeout(context.Background(), primary.CloseoutShiftRequest{ShiftID: "S1"}); err == nil {
		t.Fatal("expected error")
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got: %s", out.String())
	}
}

func TestShiftAdapter_WorkerCommands(t *testing.T) {
	mock := &mockShiftService{}
	var out bytes.Buffer
	adapter := NewShiftAdapter(mock, newView(t), &out)
	ctx := context.Background()

	if _, err := adapter.AddWorker(ctx, primary.AddWorkerRequest{ShiftID: "S1", Name: "Lee", WorkerType: shift.WorkerAdHoc}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := adapter.Notify(ctx, "SW-1", shift.NotificationSent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.lastNotify != shift.NotificationSent {
		t.Errorf("expected sent, got %s", mock.lastNotify)
	}
	if err := adapter.Submitted(ctx, "SW-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := out.String()
	for _, want := range []string{"Added Lee (ad_hoc) to shift S1", "Lee notification sent", "Form received from Lee"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}
