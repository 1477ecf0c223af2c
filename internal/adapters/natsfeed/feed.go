// Package natsfeed carries row changes over NATS core subjects
// siteops.changes.<project>.<table>.
package natsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

// SubjectPrefix prefixes every change subject.
const SubjectPrefix = "siteops.changes"

// Subject returns the subject of one table of one project.
func Subject(projectID string, table models.Table) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, token(projectID), table)
}

// ProjectSubject matches every table of a project.
func ProjectSubject(projectID string) string {
	return fmt.Sprintf("%s.%s.*", SubjectPrefix, token(projectID))
}

// token makes an id safe as a single subject token.
func token(id string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(id)
}

// Decode parses a message body.
func Decode(data []byte) (secondary.RawChange, error) {
	var change secondary.RawChange
	if err := json.Unmarshal(data, &change); err != nil {
		return secondary.RawChange{}, fmt.Errorf("failed to decode change: %w", err)
	}
	return change, nil
}

// Connect dials url with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// Feed implements ChangeFeed and ChangePublisher over one connection.
// Connection events are fanned out to every open subscription.
type Feed struct {
	nc     *nats.Conn
	logger *zap.Logger

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

// NewFeed takes over nc's disconnect and reconnect handlers.
func NewFeed(nc *nats.Conn, logger *zap.Logger) *Feed {
	f := &Feed{
		nc:     nc,
		logger: logging.OrNop(logger).Named("nats"),
		subs:   make(map[*subscription]struct{}),
	}
	nc.SetDisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err == nil {
			err = errors.New("disconnected")
		}
		f.broadcast(secondary.FeedError, err)
	})
	nc.SetReconnectHandler(func(_ *nats.Conn) {
		f.broadcast(secondary.FeedSubscribed, nil)
	})
	return f
}

// Publish sends change on the project's table subject.
func (f *Feed) Publish(ctx context.Context, projectID string, change secondary.RawChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	if err := f.nc.Publish(Subject(projectID, change.Table), data); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe listens on every table subject of req.ProjectID.
func (f *Feed) Subscribe(ctx context.Context, req secondary.FeedRequest) (secondary.FeedSubscription, error) {
	if req.ProjectID == "" {
		return nil, errors.New("natsfeed: project id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &subscription{
		feed:    f,
		msgs:    make(chan *nats.Msg, 64),
		changes: make(chan secondary.RawChange, 64),
		states:  make(chan secondary.FeedStateChange, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	sub, err := f.nc.ChanSubscribe(ProjectSubject(req.ProjectID), s.msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	if err := f.nc.FlushWithContext(ctx); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("failed to confirm subscription: %w", err)
	}
	s.sub = sub

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	s.state(secondary.FeedSubscribed, nil)
	go s.run(f.logger.With(zap.String("subject", sub.Subject)))
	return s, nil
}

func (f *Feed) broadcast(state secondary.FeedState, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		s.state(state, err)
	}
}

func (f *Feed) remove(s *subscription) {
	f.mu.Lock()
	delete(f.subs, s)
	f.mu.Unlock()
}

type subscription struct {
	feed *Feed
	sub  *nats.Subscription

	msgs    chan *nats.Msg
	changes chan secondary.RawChange
	states  chan secondary.FeedStateChange
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

func (s *subscription) Changes() <-chan secondary.RawChange      { return s.changes }
func (s *subscription) States() <-chan secondary.FeedStateChange { return s.states }

func (s *subscription) state(state secondary.FeedState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.states <- secondary.FeedStateChange{State: state, Err: err}:
	default:
	}
}

func (s *subscription) run(logger *zap.Logger) {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case msg := <-s.msgs:
			change, err := Decode(msg.Data)
			if err != nil {
				logger.Warn("bad message dropped", zap.Error(err))
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
		s.feed.remove(s)
		err = s.sub.Unsubscribe()
		close(s.stop)
		<-s.done

		s.mu.Lock()
		s.closed = true
		close(s.changes)
		close(s.states)
		s.mu.Unlock()
	})
	if errors.Is(err, nats.ErrConnectionClosed) {
		return nil
	}
	return err
}

var (
	_ secondary.ChangeFeed      = (*Feed)(nil)
	_ secondary.ChangePublisher = (*Feed)(nil)
)
