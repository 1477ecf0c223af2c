package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/siteops/internal/adapters/cli"
	"github.com/example/siteops/internal/app"
	"github.com/example/siteops/internal/core/document"
)

// DocCmd returns the doc command
func DocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Triage received documents",
		Long: `Review documents that arrived by email or upload.

Documents move pending → processing → filed, or to needs_review / rejected.`,
	}
	cmd.AddCommand(docListCmd())
	cmd.AddCommand(docFileCmd())
	cmd.AddCommand(docRejectCmd())
	cmd.AddCommand(docReviewCmd())
	cmd.AddCommand(docAssignCmd())
	return cmd
}

func documentAdapter(d *app.Dashboard) *cliadapter.DocumentAdapter {
	return cliadapter.NewDocumentAdapter(d.Documents, d.Store(), os.Stdout)
}

func docListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List received documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			if status != "" && !document.Status(status).Valid() {
				return fmt.Errorf("invalid status: %s\nValid statuses: pending, processing, filed, needs_review, rejected", status)
			}

			d, err := openProject(NewContext())
			if err != nil {
				return err
			}
			documentAdapter(d).List(document.Status(status))
			return nil
		},
	}
	cmd.Flags().String("status", "", "only documents in this status")
	return cmd
}

func docFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file [document-id] [folder]",
		Short: "File a document into a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return documentAdapter(d).File(ctx, args[0], args[1])
		},
	}
}

func docRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject [document-id]",
		Short: "Reject a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return documentAdapter(d).Reject(ctx, args[0], reason)
		},
	}
	cmd.Flags().String("reason", "", "why the document was rejected")
	return cmd
}

func docReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review [document-id]",
		Short: "Flag a document for manual review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return documentAdapter(d).Review(ctx, args[0])
		},
	}
}

func docAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign [document-id] [shift-id]",
		Short: "Link a document to a shift",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return documentAdapter(d).Assign(ctx, args[0], args[1])
		},
	}
}
