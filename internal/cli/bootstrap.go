// Package cli provides CLI commands for the siteops application.
package cli

import (
	gocontext "context"
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/siteops/internal/app"
	"github.com/example/siteops/internal/config"
	"github.com/example/siteops/internal/ctxutil"
	"github.com/example/siteops/internal/wire"
)

// globalActorID stores the acting supervisor for the current CLI invocation.
// Set once at startup by DetectAndStoreActor().
var globalActorID string

// DetectAndStoreActor resolves the acting supervisor: the configured actor,
// then the login name. Should be called once at CLI startup in PersistentPreRun.
func DetectAndStoreActor() {
	if cfg, err := config.LoadConfig(wire.Dir); err == nil && cfg.Actor != "" {
		globalActorID = cfg.Actor
		return
	}
	if u, err := user.Current(); err == nil {
		globalActorID = u.Username
	}
}

// GetActorID returns the stored actor ID from CLI startup.
func GetActorID() string {
	return globalActorID
}

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}

// projectFlag is the persistent --project override.
var projectFlag string

// AddProjectFlag registers --project on root.
func AddProjectFlag(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "project to work on (default: current project)")
}

// currentProject returns the project commands operate on.
func currentProject() (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}
	cfg, err := wire.Config()
	if err != nil {
		return "", err
	}
	if cfg.CurrentProject == "" {
		return "", fmt.Errorf("no current project\nHint: run 'siteops project use <id>' or pass --project")
	}
	return cfg.CurrentProject, nil
}

// openProject loads the current project into the session cache. A missing
// live subscription is only a warning for one-shot commands.
func openProject(ctx gocontext.Context) (*app.Dashboard, error) {
	projectID, err := currentProject()
	if err != nil {
		return nil, err
	}
	d, err := wire.Dashboard()
	if err != nil {
		return nil, err
	}

	err = d.SwitchProject(ctx, projectID)
	if errors.Is(err, app.ErrNotLive) {
		wire.Logger().Warn("live updates unavailable", zap.String("project_id", projectID), zap.Error(err))
		return d, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Shutdown releases everything the command opened. Errors are reported on
// stderr and do not change the exit code.
func Shutdown() {
	if err := wire.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
}
