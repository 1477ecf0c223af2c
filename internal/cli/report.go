package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ReportCmd returns the report command
func ReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the daily report as a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = fmt.Sprintf("daily-report-%s.xlsx", date)
			}

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create report file: %w", err)
			}
			if err := d.Reports.WriteDailyReport(ctx, f, date); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			fmt.Printf("✓ Daily report for %s written to %s\n", date, out)
			return nil
		},
	}
	cmd.Flags().String("date", today(), "report date (YYYY-MM-DD)")
	cmd.Flags().String("out", "", "output file (default daily-report-<date>.xlsx)")
	return cmd
}
