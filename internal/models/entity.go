// Package models contains the row types of the siteops backend as they travel
// over the RPC interface and the change stream. Rows are JSON-tagged with the
// backend's snake_case column names.
package models

import (
	"encoding/json"
	"fmt"
)

// Entity is a project-scoped row held in the client cache.
type Entity interface {
	EntityID() string
	EntityProjectID() string
	// EntityVersion is the server-assigned row version; 0 means unversioned.
	EntityVersion() int64
}

// Table names a watched backend table.
type Table string

const (
	TableDailyLogs      Table = "daily_logs"
	TableShifts         Table = "shifts"
	TableShiftWorkers   Table = "shift_workers"
	TableDocuments      Table = "received_documents"
	TableContacts       Table = "contacts"
	TableSubcontractors Table = "subcontractors"
)

// WatchedTables lists every table the client cache mirrors.
var WatchedTables = []Table{
	TableDailyLogs,
	TableShifts,
	TableShiftWorkers,
	TableDocuments,
	TableContacts,
	TableSubcontractors,
}

// Valid reports whether t is a watched table.
func (t Table) Valid() bool {
	for _, known := range WatchedTables {
		if t == known {
			return true
		}
	}
	return false
}

// DecodeRow decodes a JSON row of the given table into its entity type.
func DecodeRow(table Table, raw json.RawMessage) (Entity, error) {
	switch table {
	case TableDailyLogs:
		return decodeRow[DailyLog](raw)
	case TableShifts:
		return decodeRow[Shift](raw)
	case TableShiftWorkers:
		return decodeRow[ShiftWorker](raw)
	case TableDocuments:
		return decodeRow[ReceivedDocument](raw)
	case TableContacts:
		return decodeRow[Contact](raw)
	case TableSubcontractors:
		return decodeRow[Subcontractor](raw)
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

func decodeRow[T Entity](raw json.RawMessage) (Entity, error) {
	var row T
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", row, err)
	}
	return row, nil
}

// Value returns the row a pointer entity points at, so caches and type
// switches only ever see value rows. Nil pointers are rejected.
func Value(e Entity) (Entity, error) {
	switch v := e.(type) {
	case *DailyLog:
		return deref(v)
	case *Shift:
		return deref(v)
	case *ShiftWorker:
		return deref(v)
	case *ReceivedDocument:
		return deref(v)
	case *Contact:
		return deref(v)
	case *Subcontractor:
		return deref(v)
	case nil:
		return nil, fmt.Errorf("nil entity")
	}
	return e, nil
}

func deref[T Entity](p *T) (Entity, error) {
	if p == nil {
		return nil, fmt.Errorf("nil %T", p)
	}
	return *p, nil
}

// TableOf returns the table an entity belongs to. Pointer rows map to the
// table of their value type.
func TableOf(e Entity) (Table, error) {
	row, err := Value(e)
	if err != nil {
		return "", err
	}
	switch row.(type) {
	case DailyLog:
		return TableDailyLogs, nil
	case Shift:
		return TableShifts, nil
	case ShiftWorker:
		return TableShiftWorkers, nil
	case ReceivedDocument:
		return TableDocuments, nil
	case Contact:
		return TableContacts, nil
	case Subcontractor:
		return TableSubcontractors, nil
	}
	return "", fmt.Errorf("no table for %T", e)
}

// ChangeType is the kind of row mutation carried by a change event.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Valid reports whether c is a known change type.
func (c ChangeType) Valid() bool {
	return c == ChangeInsert || c == ChangeUpdate || c == ChangeDelete
}
