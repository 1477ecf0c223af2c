package memfeed_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/siteops/internal/adapters/memfeed"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

func rawInsert(t *testing.T, row models.Entity) secondary.RawChange {
	t.Helper()
	table, err := models.TableOf(row)
	require.NoError(t, err)
	data, err := json.Marshal(row)
	require.NoError(t, err)
	return secondary.RawChange{Table: table, Type: models.ChangeInsert, New: data}
}

func subscribe(t *testing.T, hub *memfeed.Hub, projectID string, tables ...models.Table) secondary.FeedSubscription {
	t.Helper()
	sub, err := hub.Subscribe(context.Background(), secondary.FeedRequest{ProjectID: projectID, Tables: tables})
	require.NoError(t, err)

	select {
	case sc := <-sub.States():
		assert.Equal(t, secondary.FeedSubscribed, sc.State)
	case <-time.After(time.Second):
		t.Fatal("no subscribed state")
	}
	return sub
}

func TestPublishReachesOnlyTheSameProject(t *testing.T) {
	hub := memfeed.NewHub(0)
	ctx := context.Background()

	a := subscribe(t, hub, "p1")
	b := subscribe(t, hub, "p2")

	require.NoError(t, hub.Publish(ctx, "p1", rawInsert(t, &models.Contact{ID: "c1", ProjectID: "p1", Name: "Dana"})))

	select {
	case rc := <-a.Changes():
		assert.Equal(t, models.TableContacts, rc.Table)
	case <-time.After(time.Second):
		t.Fatal("p1 subscriber got nothing")
	}

	select {
	case rc := <-b.Changes():
		t.Fatalf("p2 subscriber got %+v", rc)
	default:
	}
}

func TestTableFilter(t *testing.T) {
	hub := memfeed.NewHub(4)
	sub := subscribe(t, hub, "p1", models.TableShifts)

	require.NoError(t, hub.Publish(context.Background(), "p1", rawInsert(t, &models.Contact{ID: "c1", ProjectID: "p1", Name: "Dana"})))

	select {
	case rc := <-sub.Changes():
		t.Fatalf("unexpected change %+v", rc)
	default:
	}
}

func TestCloseEndsSubscription(t *testing.T) {
	hub := memfeed.NewHub(1)
	sub := subscribe(t, hub, "p1")
	assert.Equal(t, 1, hub.Subscribers())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, hub.Subscribers())

	_, ok := <-sub.Changes()
	assert.False(t, ok)

	sc, ok := <-sub.States()
	require.True(t, ok)
	assert.Equal(t, secondary.FeedClosed, sc.State)

	// Publishing after close is a no-op.
	require.NoError(t, hub.Publish(context.Background(), "p1", rawInsert(t, &models.Contact{ID: "c1", ProjectID: "p1", Name: "Dana"})))
}

func TestPublishUnblocksOnClose(t *testing.T) {
	hub := memfeed.NewHub(1)
	sub := subscribe(t, hub, "p1")
	ctx := context.Background()
	row := rawInsert(t, &models.Contact{ID: "c1", ProjectID: "p1", Name: "Dana"})

	require.NoError(t, hub.Publish(ctx, "p1", row))

	done := make(chan error, 1)
	go func() { done <- hub.Publish(ctx, "p1", row) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sub.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish stayed blocked after close")
	}
}

func TestHubClose(t *testing.T) {
	hub := memfeed.NewHub(0)
	subscribe(t, hub, "p1")

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Subscribers())

	_, err := hub.Subscribe(context.Background(), secondary.FeedRequest{ProjectID: "p1"})
	assert.ErrorIs(t, err, memfeed.ErrClosed)
}
