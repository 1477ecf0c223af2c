package cli

import (
	"os"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/siteops/internal/adapters/cli"
	"github.com/example/siteops/internal/app"
	"github.com/example/siteops/internal/ports/primary"
)

func directoryAdapter(d *app.Dashboard) *cliadapter.DirectoryAdapter {
	return cliadapter.NewDirectoryAdapter(d.Directory, d.Store(), os.Stdout)
}

// ContactCmd returns the contact command
func ContactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage the project directory",
	}
	cmd.AddCommand(contactAddCmd())
	cmd.AddCommand(contactEditCmd())
	cmd.AddCommand(contactListCmd())
	cmd.AddCommand(contactDeleteCmd())
	return cmd
}

func contactFlags(cmd *cobra.Command) {
	cmd.Flags().String("company", "", "company name")
	cmd.Flags().String("role", "", "role on site")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("sub", "", "subcontractor id")
}

func contactAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			company, _ := cmd.Flags().GetString("company")
			role, _ := cmd.Flags().GetString("role")
			phone, _ := cmd.Flags().GetString("phone")
			email, _ := cmd.Flags().GetString("email")
			sub, _ := cmd.Flags().GetString("sub")

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return directoryAdapter(d).AddContact(ctx, primary.ContactRequest{
				Name:            args[0],
				Company:         company,
				Role:            role,
				Phone:           phone,
				Email:           email,
				SubcontractorID: sub,
			})
		},
	}
	contactFlags(cmd)
	return cmd
}

func contactEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [contact-id]",
		Short: "Change a contact's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			return directoryAdapter(d).EditContact(ctx, args[0], func(req *primary.ContactRequest) {
				if flags.Changed("name") {
					req.Name, _ = flags.GetString("name")
				}
				if flags.Changed("company") {
					req.Company, _ = flags.GetString("company")
				}
				if flags.Changed("role") {
					req.Role, _ = flags.GetString("role")
				}
				if flags.Changed("phone") {
					req.Phone, _ = flags.GetString("phone")
				}
				if flags.Changed("email") {
					req.Email, _ = flags.GetString("email")
				}
				if flags.Changed("sub") {
					req.SubcontractorID, _ = flags.GetString("sub")
				}
			})
		},
	}
	cmd.Flags().String("name", "", "contact name")
	contactFlags(cmd)
	return cmd
}

func contactListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openProject(NewContext())
			if err != nil {
				return err
			}
			directoryAdapter(d).Contacts()
			return nil
		},
	}
}

func contactDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [contact-id]",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return directoryAdapter(d).DeleteContact(ctx, args[0])
		},
	}
}

// SubCmd returns the sub command
func SubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sub",
		Short: "Manage subcontractors",
	}
	cmd.AddCommand(subAddCmd())
	cmd.AddCommand(subListCmd())
	cmd.AddCommand(subDeleteCmd())
	return cmd
}

func subAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a subcontractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trade, _ := cmd.Flags().GetString("trade")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")

			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return directoryAdapter(d).AddSubcontractor(ctx, primary.SubcontractorRequest{
				Name:         args[0],
				Trade:        trade,
				ContactEmail: email,
				Phone:        phone,
			})
		},
	}
	cmd.Flags().String("trade", "", "trade (framing, electrical, ...)")
	cmd.Flags().String("email", "", "contact email")
	cmd.Flags().String("phone", "", "phone number")
	return cmd
}

func subListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subcontractors",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openProject(NewContext())
			if err != nil {
				return err
			}
			directoryAdapter(d).Subcontractors()
			return nil
		},
	}
}

func subDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [subcontractor-id]",
		Short: "Delete a subcontractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			d, err := openProject(ctx)
			if err != nil {
				return err
			}
			return directoryAdapter(d).DeleteSubcontractor(ctx, args[0])
		},
	}
}
