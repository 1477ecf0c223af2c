// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the single point where the database schema is loaded for
// tests. Setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema. Do not hardcode CREATE TABLE statements in tests.
package sqlite_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/siteops/internal/adapters/sqlite"
	"github.com/example/siteops/internal/db"
	"github.com/example/siteops/internal/ports/secondary"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// recordingPublisher captures published changes.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []secondary.RawChange
	project []string
}

func (p *recordingPublisher) Publish(_ context.Context, projectID string, change secondary.RawChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	p.project = append(p.project, projectID)
	return nil
}

func (p *recordingPublisher) all() []secondary.RawChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]secondary.RawChange(nil), p.changes...)
}

// setupBackend returns a backend over a fresh database and the publisher
// its writes go to.
func setupBackend(t *testing.T) (*sql.DB, *secondary.Backend, *recordingPublisher) {
	t.Helper()
	testDB := setupTestDB(t)
	pub := &recordingPublisher{}
	return testDB, sqlite.NewBackend(testDB, sqlite.NewChangeWriter(pub, nil)), pub
}

// seedProject inserts a project and returns its ID.
func seedProject(t *testing.T, testDB *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "p1"
	}
	_, err := testDB.Exec(
		"INSERT INTO projects (id, name, is_active, created_at, updated_at) VALUES (?, ?, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
		id, "Project "+id,
	)
	if err != nil {
		t.Fatalf("failed to seed project: %v", err)
	}
	return id
}

// sqlmockTime is a fixed timestamp for mocked rows.
var sqlmockTime = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
