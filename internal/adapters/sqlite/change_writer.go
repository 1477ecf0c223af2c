// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/secondary"
)

// ChangeWriter publishes a RawChange for every committed write, standing in
// for the change stream a hosted database would provide. A nil ChangeWriter
// publishes nothing.
type ChangeWriter struct {
	publisher secondary.ChangePublisher
	logger    *zap.Logger
}

// NewChangeWriter creates a ChangeWriter over publisher.
func NewChangeWriter(publisher secondary.ChangePublisher, logger *zap.Logger) *ChangeWriter {
	return &ChangeWriter{
		publisher: publisher,
		logger:    logging.OrNop(logger).Named("sqlite"),
	}
}

// Inserted publishes an insert of row.
func (w *ChangeWriter) Inserted(ctx context.Context, row models.Entity) {
	w.write(ctx, models.ChangeInsert, row)
}

// Updated publishes an update of row.
func (w *ChangeWriter) Updated(ctx context.Context, row models.Entity) {
	w.write(ctx, models.ChangeUpdate, row)
}

// Deleted publishes a delete of row.
func (w *ChangeWriter) Deleted(ctx context.Context, row models.Entity) {
	w.write(ctx, models.ChangeDelete, row)
}

// write never fails the caller: the row is committed, and subscribers that
// miss the change see it on their next hydration.
func (w *ChangeWriter) write(ctx context.Context, changeType models.ChangeType, row models.Entity) {
	if w == nil || w.publisher == nil {
		return
	}

	table, err := models.TableOf(row)
	if err != nil {
		w.logger.Error("cannot publish change", zap.Error(err))
		return
	}

	payload, err := json.Marshal(row)
	if err != nil {
		w.logger.Error("cannot encode change", zap.String("table", string(table)), zap.Error(err))
		return
	}

	change := secondary.RawChange{Table: table, Type: changeType}
	if changeType == models.ChangeDelete {
		change.Old = payload
	} else {
		change.New = payload
	}

	if err := w.publisher.Publish(ctx, row.EntityProjectID(), change); err != nil {
		w.logger.Warn("failed to publish change",
			zap.String("table", string(table)),
			zap.String("id", row.EntityID()),
			zap.Error(err))
	}
}
