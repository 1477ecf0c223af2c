package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/siteops/internal/cli"
	"github.com/example/siteops/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "siteops",
		Short:   "siteops - daily log, shifts and documents for a construction site",
		Version: version.String(),
		Long: `siteops keeps a supervisor's view of one project in sync with the shared
backend: daily log entries, shift rosters, received documents and the
project directory.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.DetectAndStoreActor()
		},
	}
	cli.AddProjectFlag(rootCmd)

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.ProjectCmd())

	// Site records
	rootCmd.AddCommand(cli.LogCmd())
	rootCmd.AddCommand(cli.ShiftCmd())
	rootCmd.AddCommand(cli.DocCmd())
	rootCmd.AddCommand(cli.ContactCmd())
	rootCmd.AddCommand(cli.SubCmd())

	// Live view and exports
	rootCmd.AddCommand(cli.WatchCmd())
	rootCmd.AddCommand(cli.ReportCmd())

	err := rootCmd.Execute()
	cli.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
