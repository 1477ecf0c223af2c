package models

import (
	"time"

	"github.com/example/siteops/internal/core/document"
)

// AIClassification is the pipeline's verdict on a received document.
type AIClassification struct {
	DocumentType      string            `json:"document_type"`
	Confidence        float64           `json:"confidence"`
	SuggestedFolderID string            `json:"suggested_folder_id,omitempty"`
	Summary           string            `json:"summary,omitempty"`
	Fields            map[string]string `json:"fields,omitempty"`
	Model             string            `json:"model,omitempty"`
}

// ReceivedDocument is an incoming document created by the AI pipeline.
type ReceivedDocument struct {
	ID               string            `json:"id"`
	ProjectID        string            `json:"project_id"`
	FolderID         string            `json:"folder_id,omitempty"`
	ShiftID          string            `json:"shift_id,omitempty"`
	FileName         string            `json:"file_name"`
	FilePath         string            `json:"file_path,omitempty"`
	MimeType         string            `json:"mime_type,omitempty"`
	Source           string            `json:"source,omitempty"`
	Status           document.Status   `json:"status"`
	AIClassification *AIClassification `json:"ai_classification,omitempty"`
	RejectionReason  string            `json:"rejection_reason,omitempty"`
	ReviewedBy       string            `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty"`
	ReceivedAt       time.Time         `json:"received_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Version          int64             `json:"version,omitempty"`
}

func (d ReceivedDocument) EntityID() string        { return d.ID }
func (d ReceivedDocument) EntityProjectID() string { return d.ProjectID }
func (d ReceivedDocument) EntityVersion() int64    { return d.Version }
