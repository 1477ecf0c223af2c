package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/siteops/internal/config"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/wire"
)

// ProjectCmd returns the project command
func ProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(projectCreateCmd())
	cmd.AddCommand(projectListCmd())
	cmd.AddCommand(projectArchiveCmd())
	cmd.AddCommand(projectUseCmd())
	return cmd
}

func projectCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, _ := cmd.Flags().GetString("address")
			use, _ := cmd.Flags().GetBool("use")

			adapter, err := wire.ProjectAdapter()
			if err != nil {
				return err
			}
			p, err := adapter.Create(NewContext(), primary.CreateProjectRequest{Name: args[0], Address: address})
			if err != nil {
				return err
			}
			if use {
				return setCurrentProject(p.ID)
			}
			return nil
		},
	}
	cmd.Flags().String("address", "", "site address")
	cmd.Flags().Bool("use", true, "make the new project current")
	return cmd
}

func projectListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			mine, _ := cmd.Flags().GetBool("mine")

			adapter, err := wire.ProjectAdapter()
			if err != nil {
				return err
			}
			filters := primary.ProjectFilters{IncludeArchived: all}
			if mine {
				filters.OwnerID = GetActorID()
			}
			cfg, _ := wire.Config()
			_, err = adapter.List(NewContext(), filters, cfg.CurrentProject)
			return err
		},
	}
	cmd.Flags().Bool("all", false, "include archived projects")
	cmd.Flags().Bool("mine", false, "only projects you own")
	return cmd
}

func projectArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive [project-id]",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ProjectAdapter()
			if err != nil {
				return err
			}
			return adapter.Archive(NewContext(), args[0])
		},
	}
}

func projectUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use [project-id]",
		Short: "Set the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.ProjectAdapter()
			if err != nil {
				return err
			}
			p, err := adapter.Use(NewContext(), args[0])
			if err != nil {
				return err
			}
			return setCurrentProject(p.ID)
		},
	}
}

// setCurrentProject persists projectID in the config file only, so values
// coming from the environment are not written back.
func setCurrentProject(projectID string) error {
	cfg, err := config.LoadFile(wire.Dir)
	if err != nil {
		return err
	}
	cfg.CurrentProject = projectID
	if err := config.SaveConfig(wire.Dir, cfg); err != nil {
		return fmt.Errorf("failed to save current project: %w", err)
	}
	return nil
}
