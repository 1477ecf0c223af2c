package sqlite

import (
	"database/sql"

	"github.com/example/siteops/internal/ports/secondary"
)

// NewBackend wires every SQLite repository over one database. Writes are
// published through changes.
func NewBackend(db *sql.DB, changes *ChangeWriter) *secondary.Backend {
	return &secondary.Backend{
		Projects:       NewProjectRepository(db),
		DailyLogs:      NewDailyLogRepository(db, changes),
		Shifts:         NewShiftRepository(db, changes),
		ShiftWorkers:   NewShiftWorkerRepository(db, changes),
		Documents:      NewDocumentRepository(db, changes),
		Contacts:       NewContactRepository(db, changes),
		Subcontractors: NewSubcontractorRepository(db, changes),
	}
}
