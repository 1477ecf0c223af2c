package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs. It reflects the
// state after all migrations and is what tests load into :memory: databases.
//
// When adding columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT,
	is_active INTEGER NOT NULL DEFAULT 1,
	owner_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_logs (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	log_date TEXT NOT NULL,
	log_type TEXT NOT NULL CHECK(log_type IN ('visitor', 'delivery', 'site_issue', 'manpower', 'schedule_delay', 'observation', 'note', 'meeting_minutes')),
	content TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	status TEXT NOT NULL CHECK(status IN ('active', 'resolved', 'continued')) DEFAULT 'active',
	created_by TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_daily_logs_project_date ON daily_logs(project_id, log_date);

CREATE TABLE IF NOT EXISTS shifts (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	scheduled_date TEXT NOT NULL,
	start_time TEXT,
	end_time TEXT,
	status TEXT NOT NULL CHECK(status IN ('draft', 'active', 'completed', 'cancelled')) DEFAULT 'draft',
	notes TEXT,
	shift_tasks TEXT NOT NULL DEFAULT '[]',
	shift_notes TEXT NOT NULL DEFAULT '[]',
	custom_categories TEXT NOT NULL DEFAULT '[]',
	closeout_checklist TEXT,
	closeout_notes TEXT,
	closed_at DATETIME,
	closed_by TEXT,
	incomplete_reason TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_shifts_project ON shifts(project_id);

CREATE TABLE IF NOT EXISTS shift_workers (
	id TEXT PRIMARY KEY,
	shift_id TEXT NOT NULL,
	project_id TEXT NOT NULL,
	worker_type TEXT NOT NULL CHECK(worker_type IN ('registered', 'ad_hoc')),
	contact_id TEXT,
	name TEXT NOT NULL,
	phone TEXT,
	email TEXT,
	notification_method TEXT NOT NULL CHECK(notification_method IN ('sms', 'email', 'none')) DEFAULT 'none',
	notification_status TEXT NOT NULL CHECK(notification_status IN ('pending', 'sent', 'delivered', 'failed')) DEFAULT 'pending',
	form_submitted INTEGER NOT NULL DEFAULT 0,
	form_submitted_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (shift_id) REFERENCES shifts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_shift_workers_project ON shift_workers(project_id);
CREATE INDEX IF NOT EXISTS idx_shift_workers_shift ON shift_workers(shift_id);

CREATE TABLE IF NOT EXISTS received_documents (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	folder_id TEXT,
	shift_id TEXT,
	file_name TEXT NOT NULL,
	file_path TEXT,
	mime_type TEXT,
	source TEXT,
	status TEXT NOT NULL CHECK(status IN ('pending', 'processing', 'filed', 'needs_review', 'rejected')) DEFAULT 'pending',
	ai_classification TEXT,
	rejection_reason TEXT,
	reviewed_by TEXT,
	reviewed_at DATETIME,
	received_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_received_documents_project ON received_documents(project_id);

CREATE TABLE IF NOT EXISTS subcontractors (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	trade TEXT,
	contact_email TEXT,
	phone TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name TEXT NOT NULL,
	company TEXT,
	role TEXT,
	phone TEXT,
	email TEXT,
	subcontractor_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_contacts_project ON contacts(project_id);
`

// InitSchema creates the schema on a fresh database and runs pending
// migrations on an existing one.
func InitSchema(database *sql.DB) error {
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(database)
	}

	// Fresh install: create the current schema and mark every migration applied.
	if _, err := database.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(database); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
func GetSchemaSQL() string {
	return SchemaSQL
}
