// Package realtime bridges a change-stream transport to the store. A
// Listener holds at most one project subscription and turns raw row
// changes into typed store events.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/metrics"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/store"
)

// ChannelPrefix prefixes every project subscription channel.
const ChannelPrefix = "project-activity:"

// ChannelName returns the subscription channel of a project.
func ChannelName(projectID string) string {
	return ChannelPrefix + projectID
}

// StateFunc observes connection state changes. err is set for the error state.
type StateFunc func(projectID string, state secondary.FeedState, err error)

// Options configures a Listener.
type Options struct {
	// Buffer is the capacity of the events channel.
	Buffer  int
	OnState StateFunc
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Handle identifies one subscription.
type Handle struct {
	ID        string
	ProjectID string

	sub    secondary.FeedSubscription
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Listener owns at most one live subscription at a time.
type Listener struct {
	feed    secondary.ChangeFeed
	events  chan store.Event
	onState StateFunc
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex // serializes Subscribe/Unsubscribe
	active *Handle

	stateMu sync.RWMutex
	state   secondary.FeedState
	lastErr error
}

// NewListener creates a listener over feed.
func NewListener(feed secondary.ChangeFeed, opts Options) *Listener {
	return &Listener{
		feed:    feed,
		events:  make(chan store.Event, opts.Buffer),
		onState: opts.OnState,
		logger:  logging.OrNop(opts.Logger).Named("realtime"),
		metrics: opts.Metrics,
		state:   secondary.FeedClosed,
	}
}

// Events returns the channel of decoded events for the active project.
// The channel is never closed.
func (l *Listener) Events() <-chan store.Event {
	return l.events
}

// State returns the current connection state and the last transport error.
func (l *Listener) State() (secondary.FeedState, error) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state, l.lastErr
}

// Active returns the current subscription, or nil.
func (l *Listener) Active() *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Subscribe opens a subscription for projectID. An existing subscription is
// torn down first, and its goroutine has exited before the new one opens.
func (l *Listener) Subscribe(ctx context.Context, projectID string) (*Handle, error) {
	if projectID == "" {
		return nil, errors.New("project id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active != nil {
		l.teardown(l.active)
		l.active = nil
	}

	channel := ChannelName(projectID)
	l.setState(projectID, secondary.FeedConnecting, nil)

	sub, err := l.feed.Subscribe(ctx, secondary.FeedRequest{
		Channel:   channel,
		ProjectID: projectID,
		Tables:    models.WatchedTables,
	})
	if err != nil {
		l.setState(projectID, secondary.FeedError, err)
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		sub:       sub,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	l.active = h

	go l.run(runCtx, h)

	l.logger.Info("subscribed",
		zap.String("channel", channel),
		zap.String("subscription_id", h.ID))
	return h, nil
}

// Unsubscribe tears down h. The subscription goroutine has exited when it
// returns. Unsubscribing a stale or nil handle is a no-op.
func (l *Listener) Unsubscribe(h *Handle) error {
	if h == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active != h {
		return nil
	}
	err := l.teardown(h)
	l.active = nil
	return err
}

// Close tears down the active subscription, if any.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active == nil {
		return nil
	}
	err := l.teardown(l.active)
	l.active = nil
	return err
}

func (l *Listener) teardown(h *Handle) error {
	var err error
	h.once.Do(func() {
		h.cancel()
		err = h.sub.Close()
		<-h.done
		l.setState(h.ProjectID, secondary.FeedClosed, nil)
		l.logger.Info("unsubscribed",
			zap.String("channel", ChannelName(h.ProjectID)),
			zap.String("subscription_id", h.ID))
	})
	return err
}

// run owns one subscription until ctx is cancelled or the transport closes.
func (l *Listener) run(ctx context.Context, h *Handle) {
	defer close(h.done)

	changes := h.sub.Changes()
	states := h.sub.States()

	for changes != nil || states != nil {
		select {
		case <-ctx.Done():
			return

		case sc, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			l.setState(h.ProjectID, sc.State, sc.Err)

		case raw, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			ev, ok := l.decode(h.ProjectID, raw)
			if !ok {
				continue
			}
			select {
			case l.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}

	// The transport ended the subscription on its own.
	if ctx.Err() == nil {
		l.setState(h.ProjectID, secondary.FeedClosed, nil)
	}
}

// decode turns a raw change into a store event, dropping anything that
// does not belong to projectID.
func (l *Listener) decode(projectID string, raw secondary.RawChange) (store.Event, bool) {
	l.metrics.Received(string(raw.Table))
	log := l.logger.With(
		zap.String("table", string(raw.Table)),
		zap.String("type", string(raw.Type)))

	if !raw.Table.Valid() {
		log.Debug("change for unwatched table dropped")
		l.metrics.Discarded(metrics.ReasonUnknownTable)
		return store.Event{}, false
	}
	if !raw.Type.Valid() {
		log.Debug("change with unknown type dropped")
		l.metrics.Discarded(metrics.ReasonMalformed)
		return store.Event{}, false
	}

	ev := store.Event{Type: raw.Type, Table: raw.Table, Source: store.SourceStream}

	var row models.Entity
	var err error
	switch raw.Type {
	case models.ChangeDelete:
		payload := raw.Old
		if isEmpty(payload) {
			payload = raw.New
		}
		row, err = models.DecodeRow(raw.Table, payload)
		ev.Old = row
	default:
		row, err = models.DecodeRow(raw.Table, raw.New)
		ev.New = row
		if raw.Type == models.ChangeUpdate && !isEmpty(raw.Old) {
			if old, oldErr := models.DecodeRow(raw.Table, raw.Old); oldErr == nil {
				ev.Old = old
			}
		}
	}
	if err != nil {
		log.Warn("undecodable change dropped", zap.Error(err))
		l.metrics.Discarded(metrics.ReasonUndecodable)
		return store.Event{}, false
	}

	ev.ProjectID = row.EntityProjectID()
	if ev.ProjectID == "" && raw.Type == models.ChangeDelete {
		// Key-only delete payloads carry no project; the channel scoped them.
		ev.ProjectID = projectID
	}
	if ev.ProjectID != projectID {
		log.Debug("change for another project dropped",
			zap.String("project_id", ev.ProjectID),
			zap.String("subscribed", projectID))
		l.metrics.Discarded(metrics.ReasonOutOfScope)
		return store.Event{}, false
	}

	return ev, true
}

func (l *Listener) setState(projectID string, state secondary.FeedState, err error) {
	l.stateMu.Lock()
	l.state = state
	l.lastErr = err
	l.stateMu.Unlock()

	l.metrics.SetState(string(state))
	if err != nil {
		l.logger.Error("subscription state",
			zap.String("project_id", projectID),
			zap.String("state", string(state)),
			zap.Error(err))
	} else {
		l.logger.Debug("subscription state",
			zap.String("project_id", projectID),
			zap.String("state", string(state)))
	}

	if l.onState != nil {
		l.onState(projectID, state, err)
	}
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
