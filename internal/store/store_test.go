package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/siteops/internal/core/dailylog"
	"github.com/example/siteops/internal/core/document"
	"github.com/example/siteops/internal/core/shift"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/store"
)

// startStore runs a store scoped to projectID and returns the stream channel.
func startStore(t *testing.T, projectID string, opts ...store.Option) (*store.Store, chan store.Event) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan store.Event)
	s := store.New(opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx, events)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, s.Reset(ctx, projectID))
	return s, events
}

func reconcile(t *testing.T, s *store.Store, changeType models.ChangeType, row models.Entity) bool {
	t.Helper()
	ev, err := store.Upserted(changeType, row)
	require.NoError(t, err)
	applied, err := s.Reconcile(context.Background(), ev)
	require.NoError(t, err)
	return applied
}

func remove(t *testing.T, s *store.Store, row models.Entity) bool {
	t.Helper()
	ev, err := store.Deleted(row)
	require.NoError(t, err)
	applied, err := s.Reconcile(context.Background(), ev)
	require.NoError(t, err)
	return applied
}

func note(id, projectID, date string) models.DailyLog {
	return models.DailyLog{
		ID:        id,
		ProjectID: projectID,
		LogDate:   date,
		LogType:   dailylog.TypeNote,
		Content:   "note " + id,
		Metadata:  dailylog.NoteMeta{},
		Status:    dailylog.StatusActive,
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	s, _ := startStore(t, "p1")
	row := note("log-1", "p1", "2024-05-01")

	assert.True(t, reconcile(t, s, models.ChangeInsert, row))
	assert.True(t, reconcile(t, s, models.ChangeInsert, row))

	logs := s.DailyLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "log-1", logs[0].ID)
}

func TestUpdateThenRead(t *testing.T) {
	s, _ := startStore(t, "p1")
	row := note("log-1", "p1", "2024-05-01")
	reconcile(t, s, models.ChangeInsert, row)

	row.Content = "edited"
	reconcile(t, s, models.ChangeUpdate, row)

	got, ok := s.DailyLog("log-1")
	require.True(t, ok)
	assert.Equal(t, "edited", got.Content)
}

func TestUpdateOfAbsentRowInserts(t *testing.T) {
	s, _ := startStore(t, "p1")

	assert.True(t, reconcile(t, s, models.ChangeUpdate, note("log-1", "p1", "2024-05-01")))
	assert.Equal(t, 1, s.Len(models.TableDailyLogs))
}

func TestPointerRowsAreStoredAsValues(t *testing.T) {
	s, _ := startStore(t, "p1")
	row := note("log-1", "p1", "2024-05-01")

	assert.True(t, reconcile(t, s, models.ChangeInsert, &row))

	got, ok := s.DailyLog("log-1")
	require.True(t, ok)
	assert.Equal(t, "note log-1", got.Content)

	remove(t, s, &row)
	assert.Empty(t, s.DailyLogs())
}

func TestDeleteIsAbsorbed(t *testing.T) {
	s, _ := startStore(t, "p1")
	row := note("log-1", "p1", "2024-05-01")
	reconcile(t, s, models.ChangeInsert, row)

	remove(t, s, row)
	remove(t, s, row)

	assert.Empty(t, s.DailyLogs())
}

func TestInsertionOrderSurvivesUpdates(t *testing.T) {
	s, _ := startStore(t, "p1")
	for _, id := range []string{"a", "b", "c"} {
		reconcile(t, s, models.ChangeInsert, note(id, "p1", "2024-05-01"))
	}
	updated := note("a", "p1", "2024-05-01")
	updated.Content = "changed"
	reconcile(t, s, models.ChangeUpdate, updated)
	remove(t, s, note("b", "p1", ""))

	var ids []string
	for _, l := range s.DailyLogs() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestStreamEventsAreApplied(t *testing.T) {
	s, events := startStore(t, "p1")

	events <- store.Event{
		Type:      models.ChangeInsert,
		Table:     models.TableDailyLogs,
		ProjectID: "p1",
		New:       note("log-1", "p1", "2024-05-01"),
		Source:    store.SourceStream,
	}

	assert.Eventually(t, func() bool {
		return s.Len(models.TableDailyLogs) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEventsOfOtherProjectsAreDropped(t *testing.T) {
	s, _ := startStore(t, "p2")

	assert.False(t, reconcile(t, s, models.ChangeInsert, note("log-1", "p1", "2024-05-01")))
	assert.Empty(t, s.DailyLogs())
}

func TestResetIsolatesProjects(t *testing.T) {
	s, _ := startStore(t, "p1")
	reconcile(t, s, models.ChangeInsert, note("log-1", "p1", "2024-05-01"))

	require.NoError(t, s.Reset(context.Background(), "p2"))

	assert.Equal(t, "p2", s.ProjectID())
	assert.Empty(t, s.DailyLogs())

	// A response to a write issued before the switch arrives late.
	assert.False(t, reconcile(t, s, models.ChangeUpdate, note("log-1", "p1", "2024-05-01")))
	assert.Empty(t, s.DailyLogs())
}

func TestVersionGuard(t *testing.T) {
	s, _ := startStore(t, "p1")

	v2 := note("log-1", "p1", "2024-05-01")
	v2.Version = 2
	v2.Content = "second"
	require.True(t, reconcile(t, s, models.ChangeInsert, v2))

	v1 := v2
	v1.Version = 1
	v1.Content = "first"
	assert.False(t, reconcile(t, s, models.ChangeUpdate, v1), "older version must not overwrite")

	same := v2
	same.Content = "second again"
	assert.True(t, reconcile(t, s, models.ChangeUpdate, same), "equal versions apply")

	got, _ := s.DailyLog("log-1")
	assert.Equal(t, "second again", got.Content)
}

func TestVersionGuardTombstones(t *testing.T) {
	s, _ := startStore(t, "p1")

	row := note("log-1", "p1", "2024-05-01")
	row.Version = 3
	reconcile(t, s, models.ChangeInsert, row)
	remove(t, s, models.DailyLog{ID: "log-1", ProjectID: "p1"})

	late := row
	late.Version = 3
	assert.False(t, reconcile(t, s, models.ChangeUpdate, late), "echo of a deleted version is dropped")

	recreated := row
	recreated.Version = 4
	assert.True(t, reconcile(t, s, models.ChangeInsert, recreated))
}

func TestVersionGuardIgnoresUnversionedRows(t *testing.T) {
	s, _ := startStore(t, "p1")

	row := note("log-1", "p1", "2024-05-01")
	row.Version = 5
	reconcile(t, s, models.ChangeInsert, row)

	plain := row
	plain.Version = 0
	plain.Content = "unversioned"
	assert.True(t, reconcile(t, s, models.ChangeUpdate, plain))
}

func TestVersionGuardDisabled(t *testing.T) {
	s, _ := startStore(t, "p1", store.WithVersionGuard(false))

	row := note("log-1", "p1", "2024-05-01")
	row.Version = 2
	reconcile(t, s, models.ChangeInsert, row)

	older := row
	older.Version = 1
	older.Content = "older"
	assert.True(t, reconcile(t, s, models.ChangeUpdate, older))

	got, _ := s.DailyLog("log-1")
	assert.Equal(t, "older", got.Content)
}

func TestManpowerScenario(t *testing.T) {
	s, _ := startStore(t, "p1")

	reconcile(t, s, models.ChangeInsert, models.DailyLog{
		ID:        "log-1",
		ProjectID: "p1",
		LogDate:   "2024-05-01",
		LogType:   dailylog.TypeManpower,
		Metadata:  dailylog.ManpowerMeta{Company: "Acme", Count: 4, Hours: decimal.NewFromInt(8)},
		Status:    dailylog.StatusActive,
	})
	reconcile(t, s, models.ChangeInsert, note("log-2", "p1", "2024-05-01"))

	logs := s.LogsByType("2024-05-01", dailylog.TypeManpower)
	require.Len(t, logs, 1)
	meta := logs[0].Metadata.(dailylog.ManpowerMeta)
	assert.Equal(t, 4, meta.Count)
	assert.Len(t, s.LogsForDate("2024-05-01"), 2)

	totals := s.ManpowerTotals("2024-05-01")
	assert.Equal(t, 4, totals.Workers)
	assert.True(t, totals.ManHours.Equal(decimal.NewFromInt(32)), "got %s", totals.ManHours)
	require.Len(t, totals.Companies, 1)
	assert.Equal(t, "Acme", totals.Companies[0].Company)

	assert.Equal(t, 0, s.ManpowerTotals("2024-05-02").Workers)
}

func TestOpenSiteIssues(t *testing.T) {
	s, _ := startStore(t, "p1")
	issue := models.DailyLog{
		ID:        "log-1",
		ProjectID: "p1",
		LogDate:   "2024-05-01",
		LogType:   dailylog.TypeSiteIssue,
		Metadata:  dailylog.SiteIssueMeta{Severity: dailylog.SeverityHigh},
		Status:    dailylog.StatusActive,
	}
	reconcile(t, s, models.ChangeInsert, issue)
	reconcile(t, s, models.ChangeInsert, note("log-2", "p1", "2024-05-01"))
	require.Len(t, s.OpenSiteIssues(), 1)

	issue.Status = dailylog.StatusResolved
	reconcile(t, s, models.ChangeUpdate, issue)
	assert.Empty(t, s.OpenSiteIssues())
}

func TestShiftsCarryRosterCounts(t *testing.T) {
	s, _ := startStore(t, "p1")

	reconcile(t, s, models.ChangeInsert, models.Shift{ID: "s-2", ProjectID: "p1", Name: "Night", ScheduledDate: "2024-05-02", Status: shift.StatusDraft})
	reconcile(t, s, models.ChangeInsert, models.Shift{ID: "s-1", ProjectID: "p1", Name: "Day", ScheduledDate: "2024-05-02", Status: shift.StatusActive})
	reconcile(t, s, models.ChangeInsert, models.Shift{ID: "s-0", ProjectID: "p1", Name: "Zulu", ScheduledDate: "2024-05-01", Status: shift.StatusDraft})

	for i, submitted := range []bool{true, true, true, false, false} {
		reconcile(t, s, models.ChangeInsert, models.ShiftWorker{
			ID:            "w-" + string(rune('a'+i)),
			ShiftID:       "s-1",
			ProjectID:     "p1",
			WorkerType:    shift.WorkerAdHoc,
			Name:          "worker",
			FormSubmitted: submitted,
		})
	}

	views := s.Shifts()
	require.Len(t, views, 3)
	assert.Equal(t, []string{"s-0", "s-1", "s-2"}, []string{views[0].ID, views[1].ID, views[2].ID})
	assert.Equal(t, 5, views[1].WorkerCount)
	assert.Equal(t, 3, views[1].FormsSubmitted)

	view, ok := s.Shift("s-1")
	require.True(t, ok)
	assert.Equal(t, 5, view.WorkerCount)
	assert.Len(t, s.ShiftWorkers("s-1"), 5)
	assert.Empty(t, s.ShiftWorkers("s-2"))
}

func TestDocumentsAndDirectory(t *testing.T) {
	s, _ := startStore(t, "p1")

	reconcile(t, s, models.ChangeInsert, models.ReceivedDocument{ID: "d-1", ProjectID: "p1", Status: document.StatusNeedsReview})
	reconcile(t, s, models.ChangeInsert, models.ReceivedDocument{ID: "d-2", ProjectID: "p1", Status: document.StatusFiled})
	reconcile(t, s, models.ChangeInsert, models.Contact{ID: "c-1", ProjectID: "p1", Name: "Dana"})
	reconcile(t, s, models.ChangeInsert, models.Subcontractor{ID: "sub-1", ProjectID: "p1", Name: "Acme"})

	assert.Len(t, s.Documents(), 2)
	assert.Len(t, s.DocumentsByStatus(document.StatusNeedsReview), 1)
	c, ok := s.Contact("c-1")
	require.True(t, ok)
	assert.Equal(t, "Dana", c.Name)
	assert.Len(t, s.Subcontractors(), 1)
}

func TestContactDeletionKeepsLogNames(t *testing.T) {
	s, _ := startStore(t, "p1")

	contact := models.Contact{ID: "c-1", ProjectID: "p1", Name: "Dana"}
	reconcile(t, s, models.ChangeInsert, contact)
	reconcile(t, s, models.ChangeInsert, models.DailyLog{
		ID:        "log-1",
		ProjectID: "p1",
		LogDate:   "2024-05-01",
		LogType:   dailylog.TypeVisitor,
		Metadata:  dailylog.VisitorMeta{ContactID: "c-1", VisitorName: "Dana"},
		Status:    dailylog.StatusActive,
	})

	remove(t, s, contact)

	_, ok := s.Contact("c-1")
	assert.False(t, ok)
	l, ok := s.DailyLog("log-1")
	require.True(t, ok)
	assert.Equal(t, "Dana", l.Metadata.(dailylog.VisitorMeta).VisitorName)
}

func TestLoadHydrates(t *testing.T) {
	s, _ := startStore(t, "p1")

	a := note("log-1", "p1", "2024-05-01")
	b := note("log-2", "p1", "2024-05-01")
	stray := note("log-3", "p9", "2024-05-01")
	events, err := store.LoadEvents([]*models.DailyLog{&a, &b, &stray, nil})
	require.NoError(t, err)

	n, err := s.Load(context.Background(), events...)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Len(models.TableDailyLogs))
}

func TestNotifySeesAppliedEvents(t *testing.T) {
	var seen []string
	s, _ := startStore(t, "p1", store.WithNotify(func(ev store.Event) {
		seen = append(seen, ev.ID())
	}))

	reconcile(t, s, models.ChangeInsert, note("log-1", "p1", "2024-05-01"))
	reconcile(t, s, models.ChangeInsert, note("log-x", "p9", "2024-05-01"))

	// Reconcile returns after the callback ran on the store goroutine.
	assert.Equal(t, []string{"log-1"}, seen)
}

func TestMalformedEventsAreDropped(t *testing.T) {
	s, _ := startStore(t, "p1")

	applied, err := s.Reconcile(context.Background(), store.Event{Type: models.ChangeInsert, Table: models.TableDailyLogs, ProjectID: "p1"})
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = s.Reconcile(context.Background(), store.Event{Type: "truncate", Table: models.TableDailyLogs, ProjectID: "p1", New: note("x", "p1", "")})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRunLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := store.New()

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, nil) }()

	require.NoError(t, s.Reset(ctx, "p1"))
	assert.ErrorIs(t, s.Run(ctx, nil), store.ErrAlreadyRunning)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	_, err := s.Reconcile(context.Background(), store.Event{})
	assert.ErrorIs(t, err, store.ErrStopped)
}
