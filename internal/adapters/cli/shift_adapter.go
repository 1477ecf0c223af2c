package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/store"
)

// ShiftAdapter translates shift and roster commands to ShiftService calls.
type ShiftAdapter struct {
	service primary.ShiftService
	view    *store.Store
	out     io.Writer
}

// NewShiftAdapter creates a new ShiftAdapter.
func NewShiftAdapter(service primary.ShiftService, view *store.Store, out io.Writer) *ShiftAdapter {
	return &ShiftAdapter{service: service, view: view, out: out}
}

// Create creates a draft shift.
func (a *ShiftAdapter) Create(ctx context.Context, req primary.CreateShiftRequest) (*models.Shift, error) {
	sh, err := a.service.CreateShift(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "✓ Created shift %s: %s on %s\n", sh.ID, sh.Name, sh.ScheduledDate)
	fmt.Fprintf(a.out, "  Start it with: siteops shift start %s\n", sh.ID)
	return sh, nil
}

// List prints every cached shift with its roster counts.
func (a *ShiftAdapter) List() []store.ShiftView {
	shifts := a.view.Shifts()
	if len(shifts) == 0 {
		fmt.Fprintln(a.out, "No shifts found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Create your first shift:")
		fmt.Fprintln(a.out, "  siteops shift create \"Day crew\" --date 2024-05-01")
		return shifts
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tNAME\tSTATUS\tWORKERS\tFORMS")
	fmt.Fprintln(w, "--\t----\t----\t------\t-------\t-----")
	for _, s := range shifts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d/%d\n",
			s.ID, s.ScheduledDate, s.Name, shiftStatus(s.Status), s.WorkerCount, s.FormsSubmitted, s.WorkerCount)
	}
	w.Flush()
	return shifts
}

// Show prints one shift with its tasks, closeout and roster.
func (a *ShiftAdapter) Show(shiftID string) (store.ShiftView, error) {
	s, ok := a.view.Shift(shiftID)
	if !ok {
		return store.ShiftView{}, fmt.Errorf("shift %s not found", shiftID)
	}

	fmt.Fprintf(a.out, "\nShift: %s\n", s.ID)
	fmt.Fprintf(a.out, "Name:    %s\n", s.Name)
	fmt.Fprintf(a.out, "Date:    %s\n", strings.TrimSpace(s.ScheduledDate+" "+timeRange(s.StartTime, s.EndTime)))
	fmt.Fprintf(a.out, "Status:  %s\n", shiftStatus(s.Status))
	if s.Notes != "" {
		fmt.Fprintf(a.out, "Notes:   %s\n", s.Notes)
	}

	if len(s.ShiftTasks) > 0 {
		fmt.Fprintln(a.out, "\nTasks:")
		for _, t := range s.ShiftTasks {
			fmt.Fprintf(a.out, "  %s %s\n", check(t.Completed), t.Description)
		}
	}

	if s.ClosedAt != nil {
		fmt.Fprintf(a.out, "\nClosed:  %s by %s\n", s.ClosedAt.Format("2006-01-02 15:04"), orDash(s.ClosedBy))
		for _, item := range s.CloseoutChecklist {
			fmt.Fprintf(a.out, "  %s %s\n", check(item.Checked), item.Label)
		}
		if s.IncompleteReason != "" {
			fmt.Fprintf(a.out, "  Incomplete: %s\n", s.IncompleteReason)
		}
	}

	workers := a.view.ShiftWorkers(s.ID)
	fmt.Fprintf(a.out, "\nRoster (%d):\n", len(workers))
	if len(workers) > 0 {
		w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tTYPE\tNOTIFY\tSTATUS\tFORM")
		for _, wk := range workers {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				wk.ID, wk.Name, wk.WorkerType, wk.NotificationMethod, notificationStatus(wk.NotificationStatus), check(wk.FormSubmitted))
		}
		w.Flush()
	}
	fmt.Fprintln(a.out)
	return s, nil
}

func timeRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + "-" + end
	case start != "":
		return "from " + start
	case end != "":
		return "until " + end
	}
	return ""
}

// Start moves a draft shift to active.
func (a *ShiftAdapter) Start(ctx context.Context, shiftID string) error {
	sh, err := a.service.StartShift(ctx, shiftID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Shift %s is %s\n", sh.ID, shiftStatus(sh.Status))
	return nil
}

// Closeout completes an active shift.
func (a *ShiftAdapter) Closeout(ctx context.Context, req primary.CloseoutShiftRequest) error {
	sh, err := a.service.CloseoutShift(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Shift %s closed out\n", sh.ID)
	if sh.IncompleteReason != "" {
		fmt.Fprintf(a.out, "  %s %s\n", yellow.Sprint("incomplete:"), sh.IncompleteReason)
	}
	return nil
}

// Cancel cancels a draft or active shift.
func (a *ShiftAdapter) Cancel(ctx context.Context, shiftID string) error {
	sh, err := a.service.CancelShift(ctx, shiftID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Shift %s %s\n", sh.ID, shiftStatus(sh.Status))
	return nil
}

// Delete removes a shift.
func (a *ShiftAdapter) Delete(ctx context.Context, shiftID string) error {
	if err := a.service.DeleteShift(ctx, shiftID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted shift %s\n", shiftID)
	return nil
}

// AddWorker puts a worker on a roster.
func (a *ShiftAdapter) AddWorker(ctx context.Context, req primary.AddWorkerRequest) (*models.ShiftWorker, error) {
	wk, err := a.service.AddWorker(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "✓ Added %s (%s) to shift %s as %s\n", wk.Name, wk.WorkerType, wk.ShiftID, wk.ID)
	return wk, nil
}

// RemoveWorker takes a worker off a roster.
func (a *ShiftAdapter) RemoveWorker(ctx context.Context, workerID string) error {
	if err := a.service.RemoveWorker(ctx, workerID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Removed worker %s\n", workerID)
	return nil
}

// Notify records a notification delivery report.
func (a *ShiftAdapter) Notify(ctx context.Context, workerID string, status shift.NotificationStatus) error {
	wk, err := a.service.RecordNotificationStatus(ctx, workerID, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ %s notification %s\n", wk.Name, notificationStatus(wk.NotificationStatus))
	return nil
}

// Submitted records a worker's shift form.
func (a *ShiftAdapter) Submitted(ctx context.Context, workerID string) error {
	wk, err := a.service.MarkFormSubmitted(ctx, workerID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Form received from %s\n", wk.Name)
	return nil
}
