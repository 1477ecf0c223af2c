package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/store"
)

type stubDirectory struct {
	primary.DirectoryService
	deleted string
	updated primary.ContactRequest
}

func (s *stubDirectory) UpdateContact(ctx context.Context, req primary.ContactRequest) (*models.Contact, error) {
	s.updated = req
	return &models.Contact{ID: req.ID, Name: req.Name, Phone: req.Phone}, nil
}

func (s *stubDirectory) DeleteContact(ctx context.Context, contactID string) error {
	s.deleted = contactID
	return nil
}

type stubDocuments struct {
	primary.DocumentService
	fileErr error
}

func (s *stubDocuments) FileDocument(ctx context.Context, documentID, folderID string) (*models.ReceivedDocument, error) {
	if s.fileErr != nil {
		return nil, s.fileErr
	}
	return &models.ReceivedDocument{ID: documentID, FileName: "invoice.pdf", FolderID: folderID, Status: document.StatusFiled}, nil
}

type stubProjects struct {
	primary.ProjectService
	projects []*models.Project
}

func (s *stubProjects) ListProjects(ctx context.Context, filters primary.ProjectFilters) ([]*models.Project, error) {
	return s.projects, nil
}

func (s *stubProjects) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	for _, p := range s.projects {
		if p.ID == projectID {
			return p, nil
		}
	}
	return nil, errors.New("project not found")
}

func TestDirectoryAdapter_ContactsShowSubcontractorCompany(t *testing.T) {
	view := newView(t,
		models.Subcontractor{ID: "SUB-1", ProjectID: testProject, Name: "Acme Framing"},
		models.Contact{ID: "C1", ProjectID: testProject, Name: "Lee", SubcontractorID: "SUB-1"},
		models.Contact{ID: "C2", ProjectID: testProject, Name: "Sam", Company: "Self"},
	)
	var out bytes.Buffer
	adapter := NewDirectoryAdapter(&stubDirectory{}, view, &out)

	contacts := adapter.Contacts()

	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if !strings.Contains(out.String(), "Acme Framing") || !strings.Contains(out.String(), "Self") {
		t.Errorf("expected company column, got: %s", out.String())
	}
}

func TestDirectoryAdapter_EditContactKeepsUnchangedFields(t *testing.T) {
	view := newView(t,
		models.Contact{ID: "C1", ProjectID: testProject, Name: "Lee", Company: "Acme", Email: "lee@acme.test"},
	)
	dir := &stubDirectory{}
	var out bytes.Buffer
	adapter := NewDirectoryAdapter(dir, view, &out)

	err := adapter.EditContact(context.Background(), "C1", func(req *primary.ContactRequest) {
		req.Phone = "555-0100"
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.updated.Company != "Acme" || dir.updated.Email != "lee@acme.test" || dir.updated.Phone != "555-0100" {
		t.Errorf("unexpected update request: %+v", dir.updated)
	}
	if !strings.Contains(out.String(), "✓ Updated contact C1") {
		t.Errorf("expected confirmation, got: %s", out.String())
	}
}

func TestDirectoryAdapter_EditContactNotCached(t *testing.T) {
	adapter := NewDirectoryAdapter(&stubDirectory{}, newView(t), &bytes.Buffer{})

	err := adapter.EditContact(context.Background(), "C9", func(*primary.ContactRequest) {})

	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestDirectoryAdapter_DeleteContact(t *testing.T) {
	dir := &stubDirectory{}
	var out bytes.Buffer
	adapter := NewDirectoryAdapter(dir, newView(t), &out)

	if err := adapter.DeleteContact(context.Background(), "C1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.deleted != "C1" {
		t.Errorf("expected C1 deleted, got %q", dir.deleted)
	}
}

func TestDocumentAdapter_List(t *testing.T) {
	view := newView(t,
		models.ReceivedDocument{ID: "D1", ProjectID: testProject, FileName: "invoice.pdf", Status: document.StatusNeedsReview,
			AIClassification: &models.AIClassification{DocumentType: "invoice", Confidence: 0.62}},
		models.ReceivedDocument{ID: "D2", ProjectID: testProject, FileName: "permit.pdf", Status: document.StatusFiled, FolderID: "permits"},
	)
	var out bytes.Buffer
	adapter := NewDocumentAdapter(&stubDocuments{}, view, &out)

	docs := adapter.List(document.StatusNeedsReview)

	if len(docs) != 1 || docs[0].ID != "D1" {
		t.Fatalf("expected only D1, got %+v", docs)
	}
	if !strings.Contains(out.String(), "62%") {
		t.Errorf("expected confidence, got: %s", out.String())
	}
}

func TestDocumentAdapter_File(t *testing.T) {
	var out bytes.Buffer
	adapter := NewDocumentAdapter(&stubDocuments{}, newView(t), &out)

	if err := adapter.File(context.Background(), "D1", "invoices"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Filed invoice.pdf into invoices") {
		t.Errorf("unexpected output: %s", out.String())
	}

	out.Reset()
	adapter = NewDocumentAdapter(&stubDocuments{fileErr: errors.New("processing")}, newView(t), &out)
	if err := adapter.File(context.Background(), "D1", "invoices"); err == nil {
		t.Fatal("expected error")
	}
}

func TestProjectAdapter_ListMarksCurrent(t *testing.T) {
	projects := &stubProjects{projects: []*models.Project{
		{ID: "PRJ-1", Name: "Harbour View", IsActive: true},
		{ID: "PRJ-2", Name: "Old Mill", IsActive: false},
	}}
	var out bytes.Buffer
	adapter := NewProjectAdapter(projects, &out)

	if _, err := adapter.List(context.Background(), primary.ProjectFilters{IncludeArchived: true}, "PRJ-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(out.String(), "\n")
	var harbour, mill string
	for _, l := range lines {
		switch {
		case strings.Contains(l, "PRJ-1"):
			harbour = l
		case strings.Contains(l, "PRJ-2"):
			mill = l
		}
	}
	if !strings.Contains(harbour, "←") {
		t.Errorf("expected current marker on PRJ-1: %q", harbour)
	}
	if !strings.Contains(mill, "archived") || strings.Contains(mill, "←") {
		t.Errorf("unexpected PRJ-2 line: %q", mill)
	}
}

func TestProjectAdapter_UseWarnsOnArchived(t *testing.T) {
	projects := &stubProjects{projects: []*models.Project{{ID: "PRJ-2", Name: "Old Mill"}}}
	var out bytes.Buffer
	adapter := NewProjectAdapter(projects, &out)

	if _, err := adapter.Use(context.Background(), "PRJ-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "warning: project PRJ-2 is archived") {
		t.Errorf("expected archived warning, got: %s", out.String())
	}
	if _, err := adapter.Use(context.Background(), "PRJ-404"); err == nil {
		t.Error("expected unknown project to fail")
	}
}

func TestDescribeEvent(t *testing.T) {
	ins, err := store.Upserted(models.ChangeInsert, models.Contact{ID: "C1", ProjectID: testProject, Name: "Lee"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := DescribeEvent(ins); got != "+ contacts C1 Lee" {
		t.Errorf("unexpected insert line %q", got)
	}

	del, err := store.Deleted(models.ShiftWorker{ID: "W1", ProjectID: testProject, ShiftID: "S1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := DescribeEvent(del); got != "- shift_workers W1 - on S1" {
		t.Errorf("unexpected delete line %q", got)
	}
}
