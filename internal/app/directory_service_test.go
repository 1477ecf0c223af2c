package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
)

func TestCreateContact(t *testing.T) {
	tests := []struct {
		name    string
		req     primary.ContactRequest
		wantErr bool
	}{
		{name: "valid contact", req: primary.ContactRequest{Name: "Dana Reyes", Email: "dana@example.com"}},
		{name: "name required", req: primary.ContactRequest{Name: "  "}, wantErr: true},
		{name: "bad email", req: primary.ContactRequest{Name: "Dana", Email: "not-an-email"}, wantErr: true},
		{name: "unknown subcontractor", req: primary.ContactRequest{Name: "Dana", SubcontractorID: "SUB-404"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, st := newTestCache(t)
			contacts := newMockContactRepository()
			service := NewDirectoryService(contacts, newMockSubcontractorRepository(), cache)

			c, err := service.CreateContact(context.Background(), tt.req)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if contacts.writes != 0 {
					t.Error("expected no backend call")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := st.Contact(c.ID); !ok {
				t.Error("expected contact in cache")
			}
		})
	}
}

func TestDeleteContact_KeepsLogNames(t *testing.T) {
	cache, st := newTestCache(t)
	service := NewDirectoryService(newMockContactRepository(), newMockSubcontractorRepository(), cache)
	seed(t, st,
		models.Contact{ID: "C1", ProjectID: testProject, Name: "Dana Reyes"},
		models.DailyLog{
			ID: "LOG-1", ProjectID: testProject, LogDate: "2024-05-01", LogType: dailylog.TypeManpower, Status: dailylog.StatusActive,
			Metadata: dailylog.ManpowerMeta{
				Company: "Acme", Count: 1, Hours: decimal.NewFromInt(8),
				Personnel: []dailylog.ManpowerPersonnelEntry{{ContactID: "C1", Name: "Dana Reyes", Hours: decimal.NewFromInt(8)}},
			},
		},
	)

	if err := service.DeleteContact(context.Background(), "C1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.Contact("C1"); ok {
		t.Error("expected contact removed")
	}

	log, ok := st.DailyLog("LOG-1")
	if !ok {
		t.Fatal("expected log to survive")
	}
	meta := log.Metadata.(dailylog.ManpowerMeta)
	if meta.Personnel[0].Name != "Dana Reyes" || meta.Personnel[0].ContactID != "C1" {
		t.Errorf("expected log entry untouched, got %+v", meta.Personnel[0])
	}
}

func TestSubcontractors(t *testing.T) {
	cache, st := newTestCache(t)
	subs := newMockSubcontractorRepository()
	service := NewDirectoryService(newMockContactRepository(), subs, cache)
	ctx := context.Background()

	sub, err := service.CreateSubcontractor(ctx, primary.SubcontractorRequest{Name: "Acme Framing", Trade: "framing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, err := service.CreateContact(ctx, primary.ContactRequest{Name: "Lee", SubcontractorID: sub.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.SubcontractorID != sub.ID {
		t.Errorf("expected link to %s", sub.ID)
	}

	if err := service.DeleteSubcontractor(ctx, sub.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(st.Subcontractors()); n != 0 {
		t.Errorf("expected no subcontractors, got %d", n)
	}
	if _, ok := st.Contact(c.ID); !ok {
		t.Error("contact must survive subcontractor deletion")
	}
}
