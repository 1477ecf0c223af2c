// Package postgres implements the change feed over Postgres LISTEN/NOTIFY.
// Row triggers (see TriggerSQL) notify the project's channel with a JSON
// payload per committed write.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

// Payload is the JSON document sent by the notify trigger.
type Payload struct {
	Table  string          `json:"table"`
	Action string          `json:"action"`
	New    json.RawMessage `json:"new,omitempty"`
	Old    json.RawMessage `json:"old,omitempty"`
}

// ParsePayload decodes a notification payload into a RawChange. The
// trigger reports TG_OP, so actions arrive upper-case.
func ParsePayload(data string) (secondary.RawChange, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return secondary.RawChange{}, fmt.Errorf("failed to decode notify payload: %w", err)
	}
	if p.Table == "" {
		return secondary.RawChange{}, errors.New("notify payload has no table")
	}

	change := secondary.RawChange{
		Table: models.Table(p.Table),
		Type:  models.ChangeType(strings.ToLower(p.Action)),
		New:   p.New,
		Old:   p.Old,
	}
	if !change.Type.Valid() {
		return secondary.RawChange{}, fmt.Errorf("unknown notify action %q", p.Action)
	}
	return change, nil
}

// listener is the subset of *pq.Listener the feed uses.
type listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Options configures a Feed.
type Options struct {
	MinReconnect time.Duration
	MaxReconnect time.Duration
	// PingInterval keeps idle connections checked; 0 uses 90s.
	PingInterval time.Duration
	Logger       *zap.Logger
}

// Feed opens one LISTEN connection per subscription.
type Feed struct {
	dsn    string
	opts   Options
	logger *zap.Logger
	dial   func(dsn string, min, max time.Duration, cb pq.EventCallbackType) listener
}

// NewFeed creates a feed for dsn.
func NewFeed(dsn string, opts Options) *Feed {
	if opts.MinReconnect == 0 {
		opts.MinReconnect = 10 * time.Second
	}
	if opts.MaxReconnect == 0 {
		opts.MaxReconnect = time.Minute
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = 90 * time.Second
	}
	return &Feed{
		dsn:    dsn,
		opts:   opts,
		logger: logging.OrNop(opts.Logger).Named("postgres"),
		dial: func(dsn string, min, max time.Duration, cb pq.EventCallbackType) listener {
			return pq.NewListener(dsn, min, max, cb)
		},
	}
}

// Subscribe listens on req.Channel.
func (f *Feed) Subscribe(ctx context.Context, req secondary.FeedRequest) (secondary.FeedSubscription, error) {
	if req.Channel == "" {
		return nil, errors.New("postgres: channel is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &subscription{
		changes: make(chan secondary.RawChange, 64),
		states:  make(chan secondary.FeedStateChange, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  f.logger.With(zap.String("channel", req.Channel)),
	}
	if len(req.Tables) > 0 {
		s.tables = make(map[models.Table]bool, len(req.Tables))
		for _, t := range req.Tables {
			s.tables[t] = true
		}
	}

	s.listener = f.dial(f.dsn, f.opts.MinReconnect, f.opts.MaxReconnect, s.onEvent)
	if err := s.listener.Listen(req.Channel); err != nil {
		s.listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", req.Channel, err)
	}
	s.state(secondary.FeedSubscribed, nil)

	go s.run(f.opts.PingInterval)
	return s, nil
}

type subscription struct {
	listener listener
	tables   map[models.Table]bool
	logger   *zap.Logger

	changes chan secondary.RawChange
	states  chan secondary.FeedStateChange
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex // guards states against close
	closed bool
}

func (s *subscription) Changes() <-chan secondary.RawChange      { return s.changes }
func (s *subscription) States() <-chan secondary.FeedStateChange { return s.states }

// onEvent runs on the pq listener goroutine.
func (s *subscription) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected, pq.ListenerEventReconnected:
		s.state(secondary.FeedSubscribed, nil)
	case pq.ListenerEventDisconnected, pq.ListenerEventConnectionAttemptFailed:
		if err == nil {
			err = errors.New("connection lost")
		}
		s.state(secondary.FeedError, err)
	}
}

func (s *subscription) state(state secondary.FeedState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.states <- secondary.FeedStateChange{State: state, Err: err}:
	default:
		s.logger.Warn("state dropped", zap.String("state", string(state)))
	}
}

func (s *subscription) run(pingInterval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	notifications := s.listener.NotificationChannel()
	for {
		select {
		case <-s.stop:
			return

		case <-ticker.C:
			if err := s.listener.Ping(); err != nil {
				s.logger.Debug("ping failed", zap.Error(err))
			}

		case n, ok := <-notifications:
			if !ok {
				return
			}
			// A nil notification follows a reconnect; anything sent while
			// disconnected is lost and the caller re-hydrates.
			if n == nil {
				continue
			}
			change, err := ParsePayload(n.Extra)
			if err != nil {
				s.logger.Warn("bad notification dropped", zap.Error(err))
				continue
			}
			if s.tables != nil && !s.tables[change.Table] {
				continue
			}
			select {
			case s.changes <- change:
			case <-s.stop:
				return
			}
		}
	}
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.listener.Close()
		<-s.done

		s.mu.Lock()
		s.closed = true
		close(s.changes)
		close(s.states)
		s.mu.Unlock()
	})
	return err
}

var _ secondary.ChangeFeed = (*Feed)(nil)
