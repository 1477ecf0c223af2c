package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/store"
)

// DirectoryAdapter translates contact and subcontractor commands to
// DirectoryService calls.
type DirectoryAdapter struct {
	service primary.DirectoryService
	view    *store.Store
	out     io.Writer
}

// NewDirectoryAdapter creates a new DirectoryAdapter.
func NewDirectoryAdapter(service primary.DirectoryService, view *store.Store, out io.Writer) *DirectoryAdapter {
	return &DirectoryAdapter{service: service, view: view, out: out}
}

func (a *DirectoryAdapter) AddContact(ctx context.Context, req primary.ContactRequest) error {
	c, err := a.service.CreateContact(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Added contact %s: %s\n", c.ID, c.Name)
	return nil
}

// EditContact applies changes to a cached contact. fn receives a request
// prefilled from the current row.
func (a *DirectoryAdapter) EditContact(ctx context.Context, contactID string, fn func(*primary.ContactRequest)) error {
	current, ok := a.view.Contact(contactID)
	if !ok {
		return fmt.Errorf("contact %s not found", contactID)
	}
	req := primary.ContactRequest{
		ID:              current.ID,
		Name:            current.Name,
		Company:         current.Company,
		Role:            current.Role,
		Phone:           current.Phone,
		Email:           current.Email,
		SubcontractorID: current.SubcontractorID,
	}
	fn(&req)

	c, err := a.service.UpdateContact(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Updated contact %s: %s\n", c.ID, c.Name)
	return nil
}

func (a *DirectoryAdapter) Contacts() []models.Contact {
	contacts := a.view.Contacts()
	if len(contacts) == 0 {
		fmt.Fprintln(a.out, "No contacts found.")
		return contacts
	}

	subs := make(map[string]string)
	for _, s := range a.view.Subcontractors() {
		subs[s.ID] = s.Name
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tROLE\tPHONE\tEMAIL")
	fmt.Fprintln(w, "--\t----\t-------\t----\t-----\t-----")
	for _, c := range contacts {
		company := c.Company
		if name, ok := subs[c.SubcontractorID]; ok && company == "" {
			company = name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, orDash(company), orDash(c.Role), orDash(c.Phone), orDash(c.Email))
	}
	w.Flush()
	return contacts
}

func (a *DirectoryAdapter) DeleteContact(ctx context.Context, contactID string) error {
	if err := a.service.DeleteContact(ctx, contactID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted contact %s\n", contactID)
	return nil
}

func (a *DirectoryAdapter) AddSubcontractor(ctx context.Context, req primary.SubcontractorRequest) error {
	s, err := a.service.CreateSubcontractor(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Added subcontractor %s: %s\n", s.ID, s.Name)
	return nil
}

func (a *DirectoryAdapter) Subcontractors() []models.Subcontractor {
	subs := a.view.Subcontractors()
	if len(subs) == 0 {
		fmt.Fprintln(a.out, "No subcontractors found.")
		return subs
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRADE\tEMAIL\tPHONE")
	fmt.Fprintln(w, "--\t----\t-----\t-----\t-----")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, orDash(s.Trade), orDash(s.ContactEmail), orDash(s.Phone))
	}
	w.Flush()
	return subs
}

func (a *DirectoryAdapter) DeleteSubcontractor(ctx context.Context, subcontractorID string) error {
	if err := a.service.DeleteSubcontractor(ctx, subcontractorID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Deleted subcontractor %s\n", subcontractorID)
	return nil
}
