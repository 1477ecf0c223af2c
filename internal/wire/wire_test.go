package wire

import (
	"testing"

	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/store"
)

func TestWatch_EveryWatcherSeesEvents(t *testing.T) {
	t.Cleanup(func() {
		watchMu.Lock()
		watchers = nil
		watchMu.Unlock()
	})

	var first, second []string
	Watch(func(ev store.Event) { first = append(first, ev.ID()) })
	Watch(func(ev store.Event) { second = append(second, ev.ID()) })

	ev, err := store.Upserted(models.ChangeInsert, models.Contact{ID: "C1", ProjectID: "PRJ-1", Name: "Lee"})
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	notifyWatchers(ev)

	if len(first) != 1 || first[0] != "C1" {
		t.Errorf("first watcher got %v", first)
	}
	if len(second) != 1 || second[0] != "C1" {
		t.Errorf("second watcher got %v", second)
	}
}

func TestWatch_RegisteringDuringNotifyDoesNotDeadlock(t *testing.T) {
	t.Cleanup(func() {
		watchMu.Lock()
		watchers = nil
		watchMu.Unlock()
	})

	calls := 0
	Watch(func(store.Event) {
		calls++
		Watch(func(store.Event) {})
	})

	ev, err := store.Deleted(models.Contact{ID: "C1", ProjectID: "PRJ-1"})
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	notifyWatchers(ev)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
