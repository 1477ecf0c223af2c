package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

type fakeListener struct {
	mu        sync.Mutex
	channels  []string
	listenErr error
	notify    chan *pq.Notification
	callback  pq.EventCallbackType
	closed    bool
}

func (l *fakeListener) Listen(channel string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels = append(l.channels, channel)
	return l.listenErr
}

func (l *fakeListener) NotificationChannel() <-chan *pq.Notification { return l.notify }
func (l *fakeListener) Ping() error                                   { return nil }

func (l *fakeListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("already closed")
	}
	l.closed = true
	close(l.notify)
	return nil
}

func newTestFeed(l *fakeListener) *Feed {
	f := NewFeed("postgres://test", Options{})
	f.dial = func(_ string, _, _ time.Duration, cb pq.EventCallbackType) listener {
		l.callback = cb
		return l
	}
	return f
}

func nextState(t *testing.T, sub secondary.FeedSubscription) secondary.FeedStateChange {
	t.Helper()
	select {
	case sc := <-sub.States():
		return sc
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state")
		return secondary.FeedStateChange{}
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    models.ChangeType
		wantErr bool
	}{
		{name: "insert", payload: `{"table":"daily_logs","action":"INSERT","new":{"id":"l1"}}`, want: models.ChangeInsert},
		{name: "update", payload: `{"table":"shifts","action":"UPDATE","new":{"id":"s1"},"old":{"id":"s1"}}`, want: models.ChangeUpdate},
		{name: "delete", payload: `{"table":"contacts","action":"DELETE","old":{"id":"c1"}}`, want: models.ChangeDelete},
		{name: "truncate is not a row change", payload: `{"table":"contacts","action":"TRUNCATE"}`, wantErr: true},
		{name: "missing table", payload: `{"action":"INSERT"}`, wantErr: true},
		{name: "not json", payload: `hello`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := ParsePayload(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, change.Type)
		})
	}
}

func TestSubscriptionForwardsNotifications(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification, 4)}
	feed := newTestFeed(l)

	sub, err := feed.Subscribe(context.Background(), secondary.FeedRequest{
		Channel:   "project-activity:p1",
		ProjectID: "p1",
		Tables:    []models.Table{models.TableDailyLogs},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"project-activity:p1"}, l.channels)
	assert.Equal(t, secondary.FeedSubscribed, nextState(t, sub).State)

	l.notify <- nil
	l.notify <- &pq.Notification{Extra: `{"table":"contacts","action":"INSERT","new":{"id":"c1"}}`}
	l.notify <- &pq.Notification{Extra: `not json`}
	l.notify <- &pq.Notification{Extra: `{"table":"daily_logs","action":"DELETE","old":{"id":"l1","project_id":"p1"}}`}

	select {
	case change := <-sub.Changes():
		assert.Equal(t, models.TableDailyLogs, change.Table)
		assert.Equal(t, models.ChangeDelete, change.Type)
		assert.JSONEq(t, `{"id":"l1","project_id":"p1"}`, string(change.Old))
	case <-time.After(time.Second):
		t.Fatal("no change forwarded")
	}

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())
	_, ok := <-sub.Changes()
	assert.False(t, ok)
}

func TestConnectionEventsBecomeStates(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification)}
	sub, err := newTestFeed(l).Subscribe(context.Background(), secondary.FeedRequest{Channel: "project-activity:p1"})
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, secondary.FeedSubscribed, nextState(t, sub).State)

	l.callback(pq.ListenerEventDisconnected, errors.New("connection reset"))
	sc := nextState(t, sub)
	assert.Equal(t, secondary.FeedError, sc.State)
	assert.EqualError(t, sc.Err, "connection reset")

	l.callback(pq.ListenerEventReconnected, nil)
	assert.Equal(t, secondary.FeedSubscribed, nextState(t, sub).State)
}

func TestListenFailure(t *testing.T) {
	l := &fakeListener{notify: make(chan *pq.Notification), listenErr: errors.New("permission denied")}
	_, err := newTestFeed(l).Subscribe(context.Background(), secondary.FeedRequest{Channel: "project-activity:p1"})
	require.Error(t, err)
	assert.True(t, l.closed)
}

func TestInstallTriggers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE OR REPLACE FUNCTION siteops_notify_change").WillReturnResult(sqlmock.NewResult(0, 0))
	for _, table := range models.WatchedTables {
		mock.ExpectExec("DROP TRIGGER IF EXISTS siteops_notify_" + string(table)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TRIGGER siteops_notify_" + string(table)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, InstallTriggers(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, TriggerSQL(), "pg_notify('project-activity:' || project")
}

func TestInstallTriggersRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE OR REPLACE FUNCTION").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = InstallTriggers(context.Background(), db)
	assert.ErrorContains(t, err, "failed to install triggers")
	assert.NoError(t, mock.ExpectationsWereMet())
}
