// Package store is the client-side cache of one project's activity: daily
// logs, shifts and their rosters, received documents and the contact
// directory. Every mutation goes through a single apply path running on the
// store's own goroutine; readers get copies under a read lock.
package store

import (
	"fmt"

	"github.com/example/siteops/internal/models"
)

// Source tells where an event came from.
type Source string

const (
	SourceStream Source = "stream" // change-stream delivery
	SourceLocal  Source = "local"  // confirmed response to a local write
	SourceLoad   Source = "load"   // initial hydration
)

// Event is a typed row mutation. New carries the row for inserts and
// updates; Old carries at least the key columns for deletes.
type Event struct {
	Type      models.ChangeType
	Table     models.Table
	ProjectID string
	New       models.Entity
	Old       models.Entity
	Source    Source
}

// ID returns the id of the row the event touches.
func (e Event) ID() string {
	if e.New != nil {
		return e.New.EntityID()
	}
	if e.Old != nil {
		return e.Old.EntityID()
	}
	return ""
}

// Version returns the row version carried by the event.
func (e Event) Version() int64 {
	if e.New != nil {
		return e.New.EntityVersion()
	}
	if e.Old != nil {
		return e.Old.EntityVersion()
	}
	return 0
}

// Upserted builds an insert or update event for a confirmed row.
func Upserted(changeType models.ChangeType, row models.Entity) (Event, error) {
	row, err := models.Value(row)
	if err != nil {
		return Event{}, err
	}
	table, err := models.TableOf(row)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      changeType,
		Table:     table,
		ProjectID: row.EntityProjectID(),
		New:       row,
		Source:    SourceLocal,
	}, nil
}

// Deleted builds a delete event for a removed row.
func Deleted(row models.Entity) (Event, error) {
	row, err := models.Value(row)
	if err != nil {
		return Event{}, err
	}
	table, err := models.TableOf(row)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      models.ChangeDelete,
		Table:     table,
		ProjectID: row.EntityProjectID(),
		Old:       row,
		Source:    SourceLocal,
	}, nil
}

// LoadEvents turns a hydration result into insert events.
func LoadEvents[T models.Entity](rows []*T) ([]Event, error) {
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		ev, err := Upserted(models.ChangeInsert, *r)
		if err != nil {
			return nil, fmt.Errorf("failed to build load event: %w", err)
		}
		ev.Source = SourceLoad
		events = append(events, ev)
	}
	return events, nil
}
