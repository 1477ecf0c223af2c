package db

import (
	"database/sql"
	"fmt"
	"time"
)

// DemoProjectID is the id of the project created by SeedFixtures.
const DemoProjectID = "PRJ-DEMO"

// SeedFixtures populates the database with a demo project: a day of logs,
// one active shift with a partial roster and a document awaiting review.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC()
	today := now.Format("2006-01-02")

	if _, err := database.Exec(
		"INSERT INTO projects (id, name, address, is_active, owner_id, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?, ?)",
		DemoProjectID, "Harbour View Apartments", "12 Quay St", "supervisor", now, now,
	); err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}

	subs := []struct{ id, name, trade string }{
		{"SUB-001", "Acme Framing", "framing"},
		{"SUB-002", "Bright Electrical", "electrical"},
	}
	for _, s := range subs {
		if _, err := database.Exec(
			"INSERT INTO subcontractors (id, project_id, name, trade, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			s.id, DemoProjectID, s.name, s.trade, now, now,
		); err != nil {
			return fmt.Errorf("seed subcontractors: %w", err)
		}
	}

	contacts := []struct{ id, name, company, subID string }{
		{"CON-001", "Dana Reyes", "Acme Framing", "SUB-001"},
		{"CON-002", "Sam Okafor", "Bright Electrical", "SUB-002"},
	}
	for _, c := range contacts {
		if _, err := database.Exec(
			"INSERT INTO contacts (id, project_id, name, company, subcontractor_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.id, DemoProjectID, c.name, c.company, c.subID, now, now,
		); err != nil {
			return fmt.Errorf("seed contacts: %w", err)
		}
	}

	logs := []struct{ id, logType, content, metadata, status string }{
		{"LOG-001", "manpower", "Framing crew on level 2", `{"company":"Acme Framing","subcontractor_id":"SUB-001","count":4,"hours":"8"}`, "active"},
		{"LOG-002", "site_issue", "Water pooling at east stair", `{"severity":"high","location":"East stair"}`, "active"},
		{"LOG-003", "delivery", "Timber drop", `{"supplier":"Northern Timber","items":"LVL beams","quantity":"24"}`, "active"},
		{"LOG-004", "note", "Crane inspection booked for Friday", `{}`, "active"},
	}
	for _, l := range logs {
		if _, err := database.Exec(
			"INSERT INTO daily_logs (id, project_id, log_date, log_type, content, metadata, status, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			l.id, DemoProjectID, today, l.logType, l.content, l.metadata, l.status, "supervisor", now, now,
		); err != nil {
			return fmt.Errorf("seed daily_logs: %w", err)
		}
	}

	if _, err := database.Exec(
		"INSERT INTO shifts (id, project_id, name, scheduled_date, start_time, end_time, status, shift_tasks, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, 'active', ?, ?, ?)",
		"SHF-001", DemoProjectID, "Day shift", today, "07:00", "15:30",
		`[{"id":"T-1","description":"Frame level 2 walls","category":"framing","completed":false}]`, now, now,
	); err != nil {
		return fmt.Errorf("seed shifts: %w", err)
	}

	workers := []struct {
		id, workerType, contactID, name string
		submitted                       bool
	}{
		{"WRK-001", "registered", "CON-001", "Dana Reyes", true},
		{"WRK-002", "ad_hoc", "", "Lee Park", false},
	}
	for _, w := range workers {
		var contactID any
		if w.contactID != "" {
			contactID = w.contactID
		}
		if _, err := database.Exec(
			"INSERT INTO shift_workers (id, shift_id, project_id, worker_type, contact_id, name, notification_method, notification_status, form_submitted, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, 'sms', 'delivered', ?, ?, ?)",
			w.id, "SHF-001", DemoProjectID, w.workerType, contactID, w.name, w.submitted, now, now,
		); err != nil {
			return fmt.Errorf("seed shift_workers: %w", err)
		}
	}

	if _, err := database.Exec(
		"INSERT INTO received_documents (id, project_id, file_name, file_path, mime_type, source, status, ai_classification, received_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, 'needs_review', ?, ?, ?)",
		"DOC-001", DemoProjectID, "invoice-4471.pdf", "inbox/invoice-4471.pdf", "application/pdf", "email",
		`{"document_type":"invoice","confidence":0.62,"summary":"Northern Timber invoice"}`, now, now,
	); err != nil {
		return fmt.Errorf("seed received_documents: %w", err)
	}

	return nil
}
