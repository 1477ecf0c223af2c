package models

import "time"

// Contact is a reusable person record. Log entries refer to contacts by id
// and keep their own copy of the name.
type Contact struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Name            string    `json:"name"`
	Company         string    `json:"company,omitempty"`
	Role            string    `json:"role,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Email           string    `json:"email,omitempty"`
	SubcontractorID string    `json:"subcontractor_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version,omitempty"`
}

func (c Contact) EntityID() string        { return c.ID }
func (c Contact) EntityProjectID() string { return c.ProjectID }
func (c Contact) EntityVersion() int64    { return c.Version }

// Subcontractor is a company working on the project.
type Subcontractor struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Name         string    `json:"name"`
	Trade        string    `json:"trade,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int64     `json:"version,omitempty"`
}

func (s Subcontractor) EntityID() string        { return s.ID }
func (s Subcontractor) EntityProjectID() string { return s.ProjectID }
func (s Subcontractor) EntityVersion() int64    { return s.Version }
