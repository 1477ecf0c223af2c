package app

import (
	"context"
	"testing"

	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
)

func testDocument(id string, status document.Status) models.ReceivedDocument {
	return models.ReceivedDocument{ID: id, ProjectID: testProject, FileName: id + ".pdf", Status: status, Version: 1}
}

func TestDocumentReview(t *testing.T) {
	tests := []struct {
		name       string
		from       document.Status
		act        func(s *DocumentServiceImpl) (*models.ReceivedDocument, error)
		wantErr    bool
		wantStatus document.Status
		wantStamp  bool
	}{
		{
			name: "file from needs_review",
			from: document.StatusNeedsReview,
			act: func(s *DocumentServiceImpl) (*models.ReceivedDocument, error) {
				return s.FileDocument(context.Background(), "D1", "invoices")
			},
			wantStatus: document.StatusFiled,
			wantStamp:  true,
		},
		{
			name: "file without folder",
			from: document.StatusPending,
			act: func(s *DocumentServiceImpl) (*models.ReceivedDocument, error) {
				return s.FileDocument(context.Background(), "D1", "  ")
			},
			wantErr: true,
		},
		{
			name: "reject with reason",
			from: document.StatusPending,
			act: func(s *DocumentServiceImpl) (*models.ReceivedDocument, error) {
				return s.RejectDocument(context.Background(), "D1", "duplicate")
			},
			wantStatus: document.StatusRejected,
			wantStamp:  true,
		},
		{
			name: "reject without reason",
			from: document.StatusNeedsReview,
			act: func(s *DocumentServiceImpl) (*models.ReceivedDocument, error) {
				return s.RejectDocument(context.Background(), "D1", "")
			},
			wantErr: true,
		},
		{
			name: "reopen filed document",
			from: document.StatusFiled,
			act: func(s *DocumentServiceImpl) (*models.ReceivedDocument, error) {
				return s.FlagForReview(context.Background(), "D1")
			},
			wantStatus: document.StatusNeedsReview,
		},
		{
			name: "processing accepts no review",
			from: document.StatusProcessing,
			act: func(s *DocumentServiceImpl) (*models.ReceivedDocument, error) {
				return s.FileDocument(context.Background(), "D1", "invoices")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, st := newTestCache(t)
			repo := newMockDocumentRepository()
			service := NewDocumentService(repo, cache)
			seed(t, st, testDocument("D1", tt.from))

			doc, err := tt.act(service)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if repo.writes != 0 {
					t.Error("expected no backend call")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.Status != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, doc.Status)
			}
			if got := doc.ReviewedAt != nil; got != tt.wantStamp {
				t.Errorf("reviewed stamp = %v, want %v", got, tt.wantStamp)
			}
			cached, _ := st.Document("D1")
			if cached.Status != tt.wantStatus {
				t.Errorf("cache has %s", cached.Status)
			}
		})
	}
}

func TestAssignToShift(t *testing.T) {
	cache, st := newTestCache(t)
	repo := newMockDocumentRepository()
	service := NewDocumentService(repo, cache)
	seed(t, st,
		testDocument("D1", document.StatusFiled),
		testDocument("D2", document.StatusProcessing),
		models.Shift{ID: "S1", ProjectID: testProject, Name: "Day", ScheduledDate: "2024-05-01", Status: shift.StatusActive},
	)
	ctx := context.Background()

	doc, err := service.AssignToShift(ctx, "D1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ShiftID != "S1" {
		t.Errorf("expected shift S1, got %q", doc.ShiftID)
	}

	if _, err := service.AssignToShift(ctx, "D1", "S404"); err == nil {
		t.Error("expected unknown shift to fail")
	}
	if _, err := service.AssignToShift(ctx, "D2", "S1"); err == nil {
		t.Error("expected processing document to fail")
	}
	if repo.writes != 1 {
		t.Errorf("expected 1 backend write, got %d", repo.writes)
	}
}
