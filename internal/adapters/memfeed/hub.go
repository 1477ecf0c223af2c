// Package memfeed is an in-process change feed. The sqlite backend
// publishes into a Hub after each committed write and the realtime
// listener subscribes to it, so a single binary gets live updates without
// an external broker.
package memfeed

import (
	"context"
	"errors"
	"sync"

	"github.com/example/siteops/internal/ports/secondary"
)

// DefaultBuffer is the per-subscription change buffer.
const DefaultBuffer = 256

// ErrClosed is returned by Subscribe after the hub is closed.
var ErrClosed = errors.New("memfeed: hub closed")

// Hub fans published changes out to the subscriptions of the same project.
type Hub struct {
	buffer int

	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	closed bool
}

// NewHub creates a hub. buffer <= 0 uses DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[*subscription]struct{}),
	}
}

// Subscribe opens a subscription for req.ProjectID. It is subscribed as
// soon as it is returned.
func (h *Hub) Subscribe(ctx context.Context, req secondary.FeedRequest) (secondary.FeedSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.ProjectID == "" {
		return nil, errors.New("memfeed: project id is required")
	}

	s := &subscription{
		hub:       h,
		projectID: req.ProjectID,
		changes:   make(chan secondary.RawChange, h.buffer),
		states:    make(chan secondary.FeedStateChange, 2),
		closed:    make(chan struct{}),
	}
	if len(req.Tables) > 0 {
		s.tables = make(map[string]bool, len(req.Tables))
		for _, t := range req.Tables {
			s.tables[string(t)] = true
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	h.subs[s] = struct{}{}
	s.states <- secondary.FeedStateChange{State: secondary.FeedSubscribed}
	return s, nil
}

// Publish delivers change to every subscription of projectID. It blocks
// while a subscriber's buffer is full.
func (h *Hub) Publish(ctx context.Context, projectID string, change secondary.RawChange) error {
	h.mu.RLock()
	var targets []*subscription
	for s := range h.subs {
		if s.projectID == projectID && s.wants(string(change.Table)) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if err := s.deliver(ctx, change); err != nil {
			return err
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	return nil
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

type subscription struct {
	hub       *Hub
	projectID string
	tables    map[string]bool

	changes chan secondary.RawChange
	states  chan secondary.FeedStateChange
	closed  chan struct{}
	once    sync.Once

	mu    sync.Mutex // guards sends against channel close
	ended bool
}

func (s *subscription) Changes() <-chan secondary.RawChange      { return s.changes }
func (s *subscription) States() <-chan secondary.FeedStateChange { return s.states }

func (s *subscription) wants(table string) bool {
	return s.tables == nil || s.tables[table]
}

func (s *subscription) deliver(ctx context.Context, change secondary.RawChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil
	}
	select {
	case s.changes <- change:
		return nil
	case <-s.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the subscription. Safe to call more than once.
func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.hub.remove(s)

		s.mu.Lock()
		s.ended = true
		close(s.changes)
		select {
		case s.states <- secondary.FeedStateChange{State: secondary.FeedClosed}:
		default:
		}
		close(s.states)
		s.mu.Unlock()
	})
	return nil
}

var (
	_ secondary.ChangeFeed      = (*Hub)(nil)
	_ secondary.ChangePublisher = (*Hub)(nil)
)
