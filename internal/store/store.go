package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/metrics"
	"github.com/example/siteops/internal/models"
)

var (
	// ErrStopped is returned when the run loop has exited.
	ErrStopped = errors.New("store is not running")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("store is already running")
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = logging.OrNop(l) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithVersionGuard turns the monotonic version guard on or off.
func WithVersionGuard(on bool) Option {
	return func(s *Store) { s.versionGuard = on }
}

// WithNotify registers a callback run on the store goroutine after each
// applied event. It must not call back into Reconcile, Reset or Load.
func WithNotify(fn func(Event)) Option {
	return func(s *Store) { s.notify = append(s.notify, fn) }
}

type rowKey struct {
	table models.Table
	id    string
}

// collection keeps rows in insertion order with an id index.
type collection struct {
	order []string
	rows  map[string]models.Entity
}

func newCollection() *collection {
	return &collection{rows: make(map[string]models.Entity)}
}

func (c *collection) upsert(row models.Entity) {
	id := row.EntityID()
	if _, ok := c.rows[id]; !ok {
		c.order = append(c.order, id)
	}
	c.rows[id] = row
}

func (c *collection) remove(id string) bool {
	if _, ok := c.rows[id]; !ok {
		return false
	}
	delete(c.rows, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

type request struct {
	fn    func() int
	reply chan int
}

// Store is the project-scoped cache. Create it with New and start Run
// before calling Reset, Load or Reconcile.
type Store struct {
	mu         sync.RWMutex
	projectID  string
	tables     map[models.Table]*collection
	tombstones map[rowKey]int64

	versionGuard bool
	logger       *zap.Logger
	metrics      *metrics.Metrics
	notify       []func(Event)

	requests chan request
	done     chan struct{}
	running  atomic.Bool
}

// New creates an empty, unscoped store.
func New(opts ...Option) *Store {
	s := &Store{
		versionGuard: true,
		logger:       zap.NewNop(),
		requests:     make(chan request),
		done:         make(chan struct{}),
	}
	s.clear()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) clear() {
	s.tables = make(map[models.Table]*collection, len(models.WatchedTables))
	for _, t := range models.WatchedTables {
		s.tables[t] = newCollection()
	}
	s.tombstones = make(map[rowKey]int64)
}

// Run is the single writer loop. It applies stream events and local
// requests in arrival order until ctx is done.
func (s *Store) Run(ctx context.Context, events <-chan Event) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.applyAndNotify(ev)
		case req := <-s.requests:
			req.reply <- req.fn()
		}
	}
}

// do runs fn on the run goroutine and waits for its result.
func (s *Store) do(ctx context.Context, fn func() int) (int, error) {
	req := request{fn: fn, reply: make(chan int, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-s.done:
		return 0, ErrStopped
	}
	return <-req.reply, nil
}

// Reset clears the cache and scopes it to projectID. Events for any other
// project are dropped from then on.
func (s *Store) Reset(ctx context.Context, projectID string) error {
	_, err := s.do(ctx, func() int {
		s.mu.Lock()
		s.projectID = projectID
		s.clear()
		s.mu.Unlock()

		for _, t := range models.WatchedTables {
			s.metrics.SetRows(string(t), 0)
		}
		s.logger.Info("cache reset", zap.String("project_id", projectID))
		return 0
	})
	return err
}

// Load applies hydration events and returns how many were applied.
func (s *Store) Load(ctx context.Context, events ...Event) (int, error) {
	return s.do(ctx, func() int {
		applied := 0
		for _, ev := range events {
			if s.applyAndNotify(ev) {
				applied++
			}
		}
		return applied
	})
}

// Reconcile applies the confirmed result of a local write. It reports
// whether the event was applied; a response for a project the store is no
// longer scoped to is dropped.
func (s *Store) Reconcile(ctx context.Context, ev Event) (bool, error) {
	if ev.Source == "" {
		ev.Source = SourceLocal
	}
	n, err := s.do(ctx, func() int {
		if s.applyAndNotify(ev) {
			s.metrics.Reconciled(string(ev.Table))
			return 1
		}
		return 0
	})
	return n == 1, err
}

func (s *Store) applyAndNotify(ev Event) bool {
	if !s.apply(ev) {
		return false
	}
	for _, fn := range s.notify {
		fn(ev)
	}
	return true
}

// apply is the only code that mutates cached rows.
func (s *Store) apply(ev Event) bool {
	if ev.ProjectID == "" {
		if ev.New != nil {
			ev.ProjectID = ev.New.EntityProjectID()
		} else if ev.Old != nil {
			ev.ProjectID = ev.Old.EntityProjectID()
		}
	}

	log := s.logger.With(
		zap.String("table", string(ev.Table)),
		zap.String("type", string(ev.Type)),
		zap.String("id", ev.ID()),
		zap.String("source", string(ev.Source)),
	)

	if !ev.Type.Valid() || ev.ID() == "" {
		s.discard(log, metrics.ReasonMalformed)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.projectID == "" || ev.ProjectID != s.projectID {
		s.discard(log, metrics.ReasonOutOfScope)
		return false
	}

	coll, ok := s.tables[ev.Table]
	if !ok {
		s.discard(log, metrics.ReasonUnknownTable)
		return false
	}

	key := rowKey{table: ev.Table, id: ev.ID()}

	switch ev.Type {
	case models.ChangeInsert, models.ChangeUpdate:
		if ev.New == nil {
			s.discard(log, metrics.ReasonMalformed)
			return false
		}
		if reason := s.guard(coll, key, ev.New.EntityVersion()); reason != "" {
			s.discard(log, reason)
			return false
		}
		coll.upsert(ev.New)
		delete(s.tombstones, key)

	case models.ChangeDelete:
		version := ev.Version()
		if cur, ok := coll.rows[key.id]; ok && cur.EntityVersion() > version {
			version = cur.EntityVersion()
		}
		if !coll.remove(key.id) {
			log.Debug("delete for absent row")
		}
		if s.versionGuard && version > 0 {
			s.tombstones[key] = version
		}
	}

	s.metrics.Applied(string(ev.Table), string(ev.Type), string(ev.Source))
	s.metrics.SetRows(string(ev.Table), len(coll.rows))
	return true
}

// guard returns a discard reason when the version guard rejects an upsert.
// Unversioned rows and equal versions always pass.
func (s *Store) guard(coll *collection, key rowKey, version int64) string {
	if !s.versionGuard || version == 0 {
		return ""
	}
	if cur, ok := coll.rows[key.id]; ok {
		if v := cur.EntityVersion(); v > 0 && version < v {
			return metrics.ReasonStale
		}
	}
	if deletedAt, ok := s.tombstones[key]; ok && version <= deletedAt {
		return metrics.ReasonDeleted
	}
	return ""
}

func (s *Store) discard(log *zap.Logger, reason string) {
	log.Debug("event discarded", zap.String("reason", reason))
	s.metrics.Discarded(reason)
}

// ProjectID returns the project the store is scoped to.
func (s *Store) ProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectID
}

// Len returns the number of cached rows of a table.
func (s *Store) Len(table models.Table) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.tables[table]; ok {
		return len(c.rows)
	}
	return 0
}
