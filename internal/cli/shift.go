package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cliadapter "github.com/example/siteops/internal/adapters/cli"
	"github.com/example/siteops/internal/app"
	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
)

// ShiftCmd returns the shift command
func ShiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Manage shifts and their rosters",
		Long: `Plan shifts, run them and close them out.

Lifecycle: draft → active → completed, with cancel from draft or active.`,
	}
	cmd.AddCommand(shiftCreateCmd())
	cmd.AddCommand(shiftListCmd())
	cmd.AddCommand(shiftShowCmd())
	cmd.AddCommand(shiftStartCmd())
	cmd.AddCommand(shiftCloseoutCmd())
	cmd.AddCommand(shiftCancelCmd())
	cmd.AddCommand(shiftDeleteCmd())
	cmd.AddCommand(workerCmd())
	return cmd
}

func shiftAdapter(d *app.Dashboard) *cliadapter.ShiftAdapter {
	return cliadapter.NewShiftAdapter(d.Shifts, d.Store(), os.Stdout)
}

func shiftCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a draft shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			notes, _ := cmd.Flags().GetString("notes")
			taskDescs, _ := cmd.Flags().GetStringArray("task")
			categories, _ := cmd.Flags().GetStringSlice("category")

			tasks := make([]models.ShiftTask, 0, len(taskDescs))
			for _, desc := range taskDescs {
				tasks = append(tasks, models.ShiftTask{ID: uuid.NewString()[:8], Description: desc})
			}

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			_, err = shiftAdapter(d).Create(ctx, primary.CreateShiftRequest{
				Name:             args[0],
				ScheduledDate:    date,
				StartTime:        start,
				EndTime:          end,
				Notes:            notes,
				Tasks:            tasks,
				CustomCategories: categories,
			})
			return err
		},
	}
	cmd.Flags().String("date", today(), "scheduled date (YYYY-MM-DD)")
	cmd.Flags().String("start", "", "start time (HH:MM)")
	cmd.Flags().String("end", "", "end time (HH:MM)")
	cmd.Flags().String("notes", "", "planning notes")
	cmd.Flags().StringArray("task", nil, "task description (repeatable)")
	cmd.Flags().StringSlice("category", nil, "custom task categories")
	return cmd
}

func shiftListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shifts",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openProject(NewContext())
			if err != nil {
				return err
			}
			shiftAdapter(d).List()
			return nil
		},
	}
}

func shiftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [shift-id]",
		Short: "Show a shift and its roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openProject(NewContext())
			if err != nil {
				return err
			}
			_, err = shiftAdapter(d).Show(args[0])
			return err
		},
	}
}

func shiftStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [shift-id]",
		Short: "Start a draft shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return shiftAdapter(d).Start(ctx, args[0])
		},
	}
}

func shiftCloseoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "closeout [shift-id]",
		Short: "Close out an active shift",
		Long: `Close out an active shift with its closeout checklist.

Every --check item is recorded as done and every --open item as not done.
When workers have not submitted their forms, --reason is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checked, _ := cmd.Flags().GetStringArray("check")
			open, _ := cmd.Flags().GetStringArray("open")
			reason, _ := cmd.Flags().GetString("reason")
			notes, _ := cmd.Flags().GetString("notes")

			if len(checked)+len(open) == 0 {
				return fmt.Errorf("%w\nHint: pass --check or --open for each closeout item", shift.ErrChecklistRequired)
			}

			var checklist []shift.ChecklistItem
			for _, label := range checked {
				checklist = append(checklist, shift.ChecklistItem{Label: label, Checked: true})
			}
			for _, label := range open {
				checklist = append(checklist, shift.ChecklistItem{Label: label})
			}

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return shiftAdapter(d).Closeout(ctx, primary.CloseoutShiftRequest{
				ShiftID:          args[0],
				Checklist:        checklist,
				Notes:            notes,
				IncompleteReason: reason,
			})
		},
	}
	cmd.Flags().StringArray("check", nil, "completed checklist item (repeatable)")
	cmd.Flags().StringArray("open", nil, "checklist item left open (repeatable)")
	cmd.Flags().String("reason", "", "why forms are missing")
	cmd.Flags().String("notes", "", "closeout notes")
	return cmd
}

func shiftCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [shift-id]",
		Short: "Cancel a draft or active shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return shiftAdapter(d).Cancel(ctx, args[0])
		},
	}
}

func shiftDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [shift-id]",
		Short: "Delete a shift and its roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return shiftAdapter(d).Delete(ctx, args[0])
		},
	}
}

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage a shift roster",
	}
	cmd.AddCommand(workerAddCmd())
	cmd.AddCommand(workerRemoveCmd())
	cmd.AddCommand(workerNotifyCmd())
	cmd.AddCommand(workerSubmittedCmd())
	return cmd
}

func workerAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [shift-id]",
		Short: "Add a worker to a shift",
		Long: `Add a registered contact (--contact) or an ad hoc worker (--name).

Registered workers take missing phone and email from the directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contactID, _ := cmd.Flags().GetString("contact")
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			email, _ := cmd.Flags().GetString("email")
			notify, _ := cmd.Flags().GetString("notify")

			workerType := shift.WorkerAdHoc
			if contactID != "" {
				workerType = shift.WorkerRegistered
			} else if name == "" {
				return fmt.Errorf("either --contact or --name is required")
			}

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			_, err = shiftAdapter(d).AddWorker(ctx, primary.AddWorkerRequest{
				ShiftID:            args[0],
				WorkerType:         workerType,
				ContactID:          contactID,
				Name:               name,
				Phone:              phone,
				Email:              email,
				NotificationMethod: shift.NotificationMethod(notify),
			})
			return err
		},
	}
	cmd.Flags().String("contact", "", "directory contact id")
	cmd.Flags().String("name", "", "worker name (ad hoc workers)")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("notify", string(shift.NotifyNone), "notification method (sms, email, none)")
	return cmd
}

func workerRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [worker-id]",
		Short: "Remove a worker from a roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return shiftAdapter(d).RemoveWorker(ctx, args[0])
		},
	}
}

func workerNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify [worker-id] [status]",
		Short: "Record a notification status (sent, delivered, failed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := shift.NotificationStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("invalid notification status: %s\nValid statuses: pending, sent, delivered, failed", args[1])
			}

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return shiftAdapter(d).Notify(ctx, args[0], status)
		},
	}
}

func workerSubmittedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submitted [worker-id]",
		Short: "Record that a worker submitted their shift form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return shiftAdapter(d).Submitted(ctx, args[0])
		},
	}
}
