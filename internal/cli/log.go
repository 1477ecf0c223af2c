package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/siteops/internal/adapters/cli"
	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/ports/primary"
)

// LogCmd returns the log command
func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Manage daily log entries",
		Long: `Record and review the daily site log: visitors, deliveries, site issues,
manpower, schedule delays, observations, notes and meeting minutes.`,
	}
	cmd.AddCommand(logAddCmd())
	cmd.AddCommand(logListCmd())
	cmd.AddCommand(logIssuesCmd())
	cmd.AddCommand(logToggleCmd())
	cmd.AddCommand(logDeleteCmd())
	cmd.AddCommand(logAttachCmd())
	return cmd
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func logAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [type] [content]",
		Short: "Add a log entry",
		Long: `Add a log entry of the given type for a date (default today).

Type-specific fields go in --meta as JSON, for example:
  siteops log add manpower "Framing crew" --meta '{"company":"Acme","count":4,"hours":"8"}'
  siteops log add site_issue "Water at east stair" --severity high`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			rawMeta, _ := cmd.Flags().GetString("meta")
			sev, _ := cmd.Flags().GetString("severity")

			logType, err := dailylog.ParseLogType(args[0])
			if err != nil {
				return err
			}
			content := ""
			if len(args) > 1 {
				content = args[1]
			}

			var meta dailylog.Metadata
			switch {
			case rawMeta != "":
				meta, err = dailylog.DecodeMetadata(logType, []byte(rawMeta))
				if err != nil {
					return err
				}
			case sev != "" && logType == dailylog.TypeSiteIssue:
				meta = dailylog.SiteIssueMeta{Severity: dailylog.Severity(sev)}
			case sev != "":
				return fmt.Errorf("--severity only applies to site_issue entries")
			}

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			_, err = cliadapter.NewLogAdapter(d.DailyLogs, d.Store(), os.Stdout).Add(ctx, primary.AddDailyLogRequest{
				LogDate:  date,
				LogType:  logType,
				Content:  content,
				Metadata: meta,
			})
			return err
		},
	}
	cmd.Flags().String("date", today(), "log date (YYYY-MM-DD)")
	cmd.Flags().String("meta", "", "type-specific fields as JSON")
	cmd.Flags().String("severity", "", "site issue severity (low, medium, high, critical)")
	return cmd
}

func logListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			all, _ := cmd.Flags().GetBool("all")
			if all {
				date = ""
			}

			d, err := openProject(NewContext())
			if err != nil {
				return err
			}
			cliadapter.NewLogAdapter(d.DailyLogs, d.Store(), os.Stdout).List(date)
			return nil
		},
	}
	cmd.Flags().String("date", today(), "log date (YYYY-MM-DD)")
	cmd.Flags().Bool("all", false, "list every date")
	return cmd
}

func logIssuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issues",
		Short: "List open site issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openProject(NewContext())
			if err != nil {
				return err
			}
			cliadapter.NewLogAdapter(d.DailyLogs, d.Store(), os.Stdout).Issues()
			return nil
		},
	}
}

func logToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle [log-id]",
		Short: "Resolve or reopen a site issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}

			target := dailylog.Status(to)
			if target == "" {
				current, ok := d.Store().DailyLog(args[0])
				if !ok {
					return fmt.Errorf("log %s not found", args[0])
				}
				target = dailylog.StatusResolved
				if current.Status == dailylog.StatusResolved {
					target = dailylog.StatusActive
				}
			}
			return cliadapter.NewLogAdapter(d.DailyLogs, d.Store(), os.Stdout).Toggle(ctx, args[0], target)
		},
	}
	cmd.Flags().String("to", "", "target status (active, resolved, continued); default flips active/resolved")
	return cmd
}

func logDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [log-id]",
		Short: "Delete a log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return cliadapter.NewLogAdapter(d.DailyLogs, d.Store(), os.Stdout).Delete(ctx, args[0])
		},
	}
}

func logAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach [log-id] [file]",
		Short: "Attach a photo to an observation entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open photo: %w", err)
			}
			defer f.Close()

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return cliadapter.NewLogAdapter(d.DailyLogs, d.Store(), os.Stdout).Attach(ctx, primary.AttachPhotoRequest{
				LogID:       args[0],
				FileName:    filepath.Base(args[1]),
				ContentType: mime.TypeByExtension(filepath.Ext(args[1])),
				Body:        f,
			})
		},
	}
}
