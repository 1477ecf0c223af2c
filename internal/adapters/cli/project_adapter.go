package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
)

// ProjectAdapter translates project commands to ProjectService calls.
type ProjectAdapter struct {
	service primary.ProjectService
	out     io.Writer
}

// NewProjectAdapter creates a new ProjectAdapter.
func NewProjectAdapter(service primary.ProjectService, out io.Writer) *ProjectAdapter {
	return &ProjectAdapter{service: service, out: out}
}

// Create creates a project.
func (a *ProjectAdapter) Create(ctx context.Context, req primary.CreateProjectRequest) (*models.Project, error) {
	p, err := a.service.CreateProject(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "✓ Created project %s: %s\n", p.ID, p.Name)
	return p, nil
}

// List prints projects. current marks the project the CLI is focused on.
func (a *ProjectAdapter) List(ctx context.Context, filters primary.ProjectFilters, current string) ([]*models.Project, error) {
	projects, err := a.service.ListProjects(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Fprintln(a.out, "No projects found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Create your first project:")
		fmt.Fprintln(a.out, "  siteops project create \"Harbour View\" --address \"12 Quay St\"")
		return projects, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tADDRESS\tSTATUS")
	fmt.Fprintln(w, "--\t----\t-------\t------")
	for _, p := range projects {
		status := green.Sprint("active")
		if !p.IsActive {
			status = faint.Sprint("archived")
		}
		marker := ""
		if p.ID == current {
			marker = magenta.Sprint(" ←")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s%s\n", p.ID, p.Name, orDash(p.Address), status, marker)
	}
	w.Flush()
	return projects, nil
}

// Archive marks a project inactive.
func (a *ProjectAdapter) Archive(ctx context.Context, projectID string) error {
	p, err := a.service.ArchiveProject(ctx, projectID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Archived project %s: %s\n", p.ID, p.Name)
	return nil
}

// Use resolves a project before the CLI focuses on it.
func (a *ProjectAdapter) Use(ctx context.Context, projectID string) (*models.Project, error) {
	p, err := a.service.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !p.IsActive {
		fmt.Fprintf(a.out, "%s project %s is archived\n", yellow.Sprint("warning:"), p.ID)
	}
	fmt.Fprintf(a.out, "✓ Now working on %s: %s\n", p.ID, p.Name)
	return p, nil
}
