package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/siteops/internal/adapters/postgres"
	"github.com/example/siteops/internal/config"
	"github.com/example/siteops/internal/db"
	"github.com/example/siteops/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize siteops in the current directory",
		Long: `Write .siteops/config.yaml and prepare the configured backend.

With the sqlite backend the local database is created. With the postgres
feed, --triggers installs the NOTIFY triggers on the hosted database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			demo, _ := cmd.Flags().GetBool("demo")
			triggers, _ := cmd.Flags().GetBool("triggers")
			force, _ := cmd.Flags().GetBool("force")

			cfg, err := config.LoadFile(wire.Dir)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backend") {
				cfg.Backend.Driver, _ = cmd.Flags().GetString("backend")
			}
			if cmd.Flags().Changed("feed") {
				cfg.Feed.Driver, _ = cmd.Flags().GetString("feed")
			}
			if cmd.Flags().Changed("actor") {
				cfg.Actor, _ = cmd.Flags().GetString("actor")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Backend.Driver == config.BackendSQLite {
				database, err := db.Open(cfg.Backend.SQLitePath)
				if err != nil {
					return fmt.Errorf("failed to initialize database: %w", err)
				}
				defer database.Close()
				fmt.Printf("✓ Database ready at %s\n", cfg.Backend.SQLitePath)

				if demo {
					if err := db.SeedFixtures(database); err != nil && !force {
						return fmt.Errorf("failed to seed demo project: %w\nHint: the demo may already exist; use --force to continue", err)
					}
					cfg.CurrentProject = db.DemoProjectID
					fmt.Printf("✓ Demo project %s loaded\n", db.DemoProjectID)
				}
			}

			if triggers {
				if cfg.Feed.Driver != config.FeedPostgres {
					return fmt.Errorf("--triggers needs feed.driver postgres, have %q", cfg.Feed.Driver)
				}
				pg, err := postgres.Open(cfg.Feed.PostgresDSN)
				if err != nil {
					return err
				}
				defer pg.Close()
				if err := postgres.InstallTriggers(NewContext(), pg); err != nil {
					return err
				}
				fmt.Println("✓ Change triggers installed")
			}

			if err := config.SaveConfig(wire.Dir, cfg); err != nil {
				return err
			}
			fmt.Printf("✓ Config written to %s\n", config.Path(wire.Dir))
			fmt.Println()
			fmt.Println("Next steps:")
			if cfg.CurrentProject == "" {
				fmt.Println("  siteops project create \"Harbour View\"")
			} else {
				fmt.Println("  siteops log list")
			}
			fmt.Println("  siteops watch")
			return nil
		},
	}

	cmd.Flags().String("backend", config.BackendSQLite, "backend driver (sqlite, rest)")
	cmd.Flags().String("feed", config.FeedMemory, "change feed driver (memory, postgres, nats, redis)")
	cmd.Flags().String("actor", "", "name recorded on created rows")
	cmd.Flags().Bool("demo", false, "seed a demo project (sqlite only)")
	cmd.Flags().Bool("triggers", false, "install postgres NOTIFY triggers")
	cmd.Flags().Bool("force", false, "continue when the demo project already exists")
	return cmd
}
