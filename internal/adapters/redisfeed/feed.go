// Package redisfeed carries row changes over one Redis stream per project.
// Publishers XADD, subscribers XREAD BLOCK from the stream tail.
package redisfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/ports/secondary"
)

const (
	keyPrefix = "siteops:changes:"
	field     = "change"
)

// StreamKey returns the stream of a project.
func StreamKey(projectID string) string {
	return keyPrefix + projectID
}

// Options configures a Feed.
type Options struct {
	// MaxLen caps each stream approximately; 0 uses 10000.
	MaxLen int64
	// Block is the XREAD block timeout; 0 uses 5s.
	Block  time.Duration
	Logger *zap.Logger
}

// Feed implements ChangeFeed and ChangePublisher over a Redis client.
type Feed struct {
	rdb    redis.UniversalClient
	opts   Options
	logger *zap.Logger
}

// NewFeed creates a feed over rdb.
func NewFeed(rdb redis.UniversalClient, opts Options) *Feed {
	if opts.MaxLen == 0 {
		opts.MaxLen = 10000
	}
	if opts.Block == 0 {
		opts.Block = 5 * time.Second
	}
	return &Feed{rdb: rdb, opts: opts, logger: logging.OrNop(opts.Logger).Named("redis")}
}

// NewClient creates a Redis client and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Encode renders change as stream entry values.
func Encode(change secondary.RawChange) (map[string]any, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change: %w", err)
	}
	return map[string]any{field: string(data)}, nil
}

// Decode parses a stream entry.
func Decode(msg redis.XMessage) (secondary.RawChange, error) {
	raw, ok := msg.Values[field].(string)
	if !ok {
		return secondary.RawChange{}, fmt.Errorf("entry %s has no %s field", msg.ID, field)
	}
	var change secondary.RawChange
	if err := json.Unmarshal([]byte(raw), &change); err != nil {
		return secondary.RawChange{}, fmt.Errorf("failed to decode entry %s: %w", msg.ID, err)
	}
	return change, nil
}

// Publish appends change to the project's stream.
func (f *Feed) Publish(ctx context.Context, projectID string, change secondary.RawChange) error {
	values, err := Encode(change)
	if err != nil {
		return err
	}
	err = f.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(projectID),
		MaxLen: f.opts.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe reads the project's stream from its current tail.
func (f *Feed) Subscribe(ctx context.Context, req secondary.FeedRequest) (secondary.FeedSubscription, error) {
	if req.ProjectID == "" {
		return nil, errors.New("redisfeed: project id is required")
	}

	key := StreamKey(req.ProjectID)
	last := "0-0"
	tail, err := f.rdb.XRevRangeN(ctx, key, "+", "-", 1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream tail: %w", err)
	}
	if len(tail) > 0 {
		last = tail[0].ID
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s := &subscription{
		changes: make(chan secondary.RawChange, 64),
		states:  make(chan secondary.FeedStateChange, 8),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.states <- secondary.FeedStateChange{State: secondary.FeedSubscribed}

	go s.run(runCtx, f, key, last, f.logger.With(zap.String("stream", key)))
	return s, nil
}

type subscription struct {
	changes chan secondary.RawChange
	states  chan secondary.FeedStateChange
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) Changes() <-chan secondary.RawChange      { return s.changes }
func (s *subscription) States() <-chan secondary.FeedStateChange { return s.states }

func (s *subscription) state(state secondary.FeedState, err error) {
	select {
	case s.states <- secondary.FeedStateChange{State: state, Err: err}:
	default:
	}
}

// run owns both channels and closes them on exit.
func (s *subscription) run(ctx context.Context, f *Feed, key, last string, logger *zap.Logger) {
	defer close(s.done)
	defer close(s.states)
	defer close(s.changes)

	failing := false
	for ctx.Err() == nil {
		streams, err := f.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{key, last},
			Count:   100,
			Block:   f.opts.Block,
		}).Result()

		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			if !failing {
				failing = true
				s.state(secondary.FeedError, err)
			}
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		if failing {
			failing = false
			s.state(secondary.FeedSubscribed, nil)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				last = msg.ID
				change, err := Decode(msg)
				if err != nil {
					logger.Warn("bad entry dropped", zap.Error(err))
					continue
				}
				select {
				case s.changes <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

var (
	_ secondary.ChangeFeed      = (*Feed)(nil)
	_ secondary.ChangePublisher = (*Feed)(nil)
)
