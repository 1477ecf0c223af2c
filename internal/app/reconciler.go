package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/metrics"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/store"
)

// Reconciler feeds confirmed backend rows into the cache. Every action
// service writes through the backend first and only then reconciles, so a
// failed call leaves the cache as it was.
type Reconciler struct {
	store   *store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReconciler creates a Reconciler over st. Logger and metrics may be nil.
func NewReconciler(st *store.Store, logger *zap.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		store:   st,
		logger:  logging.OrNop(logger),
		metrics: m,
		now:     time.Now,
	}
}

// Store returns the cache the reconciler writes to.
func (r *Reconciler) Store() *store.Store {
	return r.store
}

func (r *Reconciler) project() (string, error) {
	id := r.store.ProjectID()
	if id == "" {
		return "", primary.ErrNoProject
	}
	return id, nil
}

func (r *Reconciler) upserted(ctx context.Context, action string, changeType models.ChangeType, row models.Entity) error {
	ev, err := store.Upserted(changeType, row)
	if err != nil {
		return r.fail(action, err)
	}
	return r.reconcile(ctx, action, ev)
}

func (r *Reconciler) deleted(ctx context.Context, action string, row models.Entity) error {
	ev, err := store.Deleted(row)
	if err != nil {
		return r.fail(action, err)
	}
	return r.reconcile(ctx, action, ev)
}

func (r *Reconciler) reconcile(ctx context.Context, action string, ev store.Event) error {
	applied, err := r.store.Reconcile(ctx, ev)
	if err != nil {
		return r.fail(action, fmt.Errorf("failed to reconcile %s: %w", ev.Table, err))
	}
	if !applied {
		r.logger.Debug("confirmed row not applied",
			zap.String("action", action),
			zap.String("table", string(ev.Table)),
			zap.String("id", ev.ID()),
		)
	}
	return nil
}

func (r *Reconciler) fail(action string, err error) error {
	r.metrics.ActionFailed(action)
	r.logger.Debug("action failed", zap.String("action", action), zap.Error(err))
	return err
}

func notCached(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, secondary.ErrNotFound)
}
