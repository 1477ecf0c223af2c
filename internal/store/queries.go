package store

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/models"
)

// Rows are returned by value. Slices inside a row are shared with the cache
// and must not be modified.

// ShiftView is a shift with its roster counters.
type ShiftView struct {
	models.Shift
	WorkerCount    int
	FormsSubmitted int
}

// CompanyManpower is the manpower reported by one company on one date.
type CompanyManpower struct {
	Company  string
	Workers  int
	ManHours decimal.Decimal
}

// ManpowerTotals sums the manpower logs of one date.
type ManpowerTotals struct {
	Date      string
	Workers   int
	ManHours  decimal.Decimal
	Companies []CompanyManpower // in first-reported order
}

// list returns the rows of a table in insertion order that satisfy keep.
func list[T models.Entity](s *Store, table models.Table, keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.tables[table]
	out := make([]T, 0, len(c.rows))
	for _, id := range c.order {
		row, ok := c.rows[id].(T)
		if !ok {
			continue
		}
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func get[T models.Entity](s *Store, table models.Table, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.tables[table].rows[id].(T)
	return row, ok
}

// DailyLogs returns every cached log in arrival order.
func (s *Store) DailyLogs() []models.DailyLog {
	return list[models.DailyLog](s, models.TableDailyLogs, nil)
}

// DailyLog returns one log by id.
func (s *Store) DailyLog(id string) (models.DailyLog, bool) {
	return get[models.DailyLog](s, models.TableDailyLogs, id)
}

// LogsForDate returns the logs dated date (YYYY-MM-DD).
func (s *Store) LogsForDate(date string) []models.DailyLog {
	return list(s, models.TableDailyLogs, func(l models.DailyLog) bool {
		return l.LogDate == date
	})
}

// LogsByType returns the logs of one type on one date.
func (s *Store) LogsByType(date string, t dailylog.LogType) []models.DailyLog {
	return list(s, models.TableDailyLogs, func(l models.DailyLog) bool {
		return l.LogDate == date && l.LogType == t
	})
}

// OpenSiteIssues returns site issues whose status is active, across dates.
func (s *Store) OpenSiteIssues() []models.DailyLog {
	return list(s, models.TableDailyLogs, func(l models.DailyLog) bool {
		return l.LogType == dailylog.TypeSiteIssue && l.Status == dailylog.StatusActive
	})
}

// ManpowerTotals sums count and count × hours over the manpower logs of date.
func (s *Store) ManpowerTotals(date string) ManpowerTotals {
	totals := ManpowerTotals{Date: date, ManHours: decimal.Zero}
	index := make(map[string]int)

	for _, l := range s.LogsByType(date, dailylog.TypeManpower) {
		meta, ok := l.Metadata.(dailylog.ManpowerMeta)
		if !ok {
			continue
		}
		i, seen := index[meta.Company]
		if !seen {
			i = len(totals.Companies)
			index[meta.Company] = i
			totals.Companies = append(totals.Companies, CompanyManpower{Company: meta.Company, ManHours: decimal.Zero})
		}
		hours := meta.ManHours()
		totals.Companies[i].Workers += meta.Count
		totals.Companies[i].ManHours = totals.Companies[i].ManHours.Add(hours)
		totals.Workers += meta.Count
		totals.ManHours = totals.ManHours.Add(hours)
	}
	return totals
}

// Shifts returns every shift with its roster counters, ordered by
// scheduled date then name.
func (s *Store) Shifts() []ShiftView {
	shifts := list[models.Shift](s, models.TableShifts, nil)
	counts := s.rosterCounts()

	views := make([]ShiftView, 0, len(shifts))
	for _, sh := range shifts {
		c := counts[sh.ID]
		views = append(views, ShiftView{Shift: sh, WorkerCount: c.workers, FormsSubmitted: c.forms})
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].ScheduledDate != views[j].ScheduledDate {
			return views[i].ScheduledDate < views[j].ScheduledDate
		}
		return views[i].Name < views[j].Name
	})
	return views
}

// Shift returns one shift with its roster counters.
func (s *Store) Shift(id string) (ShiftView, bool) {
	sh, ok := get[models.Shift](s, models.TableShifts, id)
	if !ok {
		return ShiftView{}, false
	}
	c := s.rosterCounts()[id]
	return ShiftView{Shift: sh, WorkerCount: c.workers, FormsSubmitted: c.forms}, true
}

type rosterCount struct {
	workers int
	forms   int
}

func (s *Store) rosterCounts() map[string]rosterCount {
	counts := make(map[string]rosterCount)
	for _, w := range list[models.ShiftWorker](s, models.TableShiftWorkers, nil) {
		c := counts[w.ShiftID]
		c.workers++
		if w.FormSubmitted {
			c.forms++
		}
		counts[w.ShiftID] = c
	}
	return counts
}

// ShiftWorkers returns the roster of one shift.
func (s *Store) ShiftWorkers(shiftID string) []models.ShiftWorker {
	return list(s, models.TableShiftWorkers, func(w models.ShiftWorker) bool {
		return w.ShiftID == shiftID
	})
}

// ShiftWorker returns one roster entry by id.
func (s *Store) ShiftWorker(id string) (models.ShiftWorker, bool) {
	return get[models.ShiftWorker](s, models.TableShiftWorkers, id)
}

// Documents returns every received document.
func (s *Store) Documents() []models.ReceivedDocument {
	return list[models.ReceivedDocument](s, models.TableDocuments, nil)
}

// Document returns one received document by id.
func (s *Store) Document(id string) (models.ReceivedDocument, bool) {
	return get[models.ReceivedDocument](s, models.TableDocuments, id)
}

// DocumentsByStatus returns the documents in one status.
func (s *Store) DocumentsByStatus(status document.Status) []models.ReceivedDocument {
	return list(s, models.TableDocuments, func(d models.ReceivedDocument) bool {
		return d.Status == status
	})
}

// Contacts returns every contact.
func (s *Store) Contacts() []models.Contact {
	return list[models.Contact](s, models.TableContacts, nil)
}

// Contact returns one contact by id.
func (s *Store) Contact(id string) (models.Contact, bool) {
	return get[models.Contact](s, models.TableContacts, id)
}

// Subcontractors returns every subcontractor.
func (s *Store) Subcontractors() []models.Subcontractor {
	return list[models.Subcontractor](s, models.TableSubcontractors, nil)
}
