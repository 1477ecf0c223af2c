package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/metrics"
	"github.com/example/siteops/internal/models"
	"github.com/example/siteops/internal/ports/primary"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/realtime"
	"github.com/example/siteops/internal/store"
)

// ErrNotLive is returned by SwitchProject when the cache was hydrated but
// the change subscription could not be opened.
var ErrNotLive = errors.New("loaded without live updates")

// DashboardDeps contains the collaborators of a dashboard session.
type DashboardDeps struct {
	Backend     *secondary.Backend
	Store       *store.Store
	Listener    *realtime.Listener
	Attachments secondary.AttachmentStore
	Reports     secondary.ReportWriter
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Dashboard is one supervisor session: it scopes the cache to one project,
// keeps it live through the listener and exposes the action services.
type Dashboard struct {
	backend  *secondary.Backend
	store    *store.Store
	listener *realtime.Listener
	logger   *zap.Logger

	DailyLogs *DailyLogServiceImpl
	Shifts    *ShiftServiceImpl
	Documents *DocumentServiceImpl
	Directory *DirectoryServiceImpl
	Projects  *ProjectServiceImpl
	Reports   *ReportServiceImpl

	mu     sync.Mutex
	handle *realtime.Handle
	cancel context.CancelFunc
	done   chan error
}

// NewDashboard creates a dashboard session. Start must be called before
// SwitchProject.
func NewDashboard(deps DashboardDeps) *Dashboard {
	logger := logging.OrNop(deps.Logger)
	cache := NewReconciler(deps.Store, logger, deps.Metrics)

	return &Dashboard{
		backend:   deps.Backend,
		store:     deps.Store,
		listener:  deps.Listener,
		logger:    logger,
		DailyLogs: NewDailyLogService(deps.Backend.DailyLogs, deps.Attachments, cache),
		Shifts:    NewShiftService(deps.Backend.Shifts, deps.Backend.ShiftWorkers, cache),
		Documents: NewDocumentService(deps.Backend.Documents, cache),
		Directory: NewDirectoryService(deps.Backend.Contacts, deps.Backend.Subcontractors, cache),
		Projects:  NewProjectService(deps.Backend.Projects),
		Reports:   NewReportService(deps.Backend.Projects, deps.Reports, deps.Store),
	}
}

// Store returns the session's cache.
func (d *Dashboard) Store() *store.Store {
	return d.store
}

// Start runs the cache's writer loop on the listener's event channel until
// ctx is done or Close is called.
func (d *Dashboard) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan error, 1)
	go func() {
		d.done <- d.store.Run(runCtx, d.listener.Events())
	}()
}

// SwitchProject moves the session to projectID. The old subscription is
// gone and the cache is empty before anything of the new project arrives.
// The new subscription opens before hydration so no change is missed in
// between; a failed subscription still hydrates, leaving a static cache.
func (d *Dashboard) SwitchProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		return errors.New("project id is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != nil {
		if err := d.listener.Unsubscribe(d.handle); err != nil {
			d.logger.Warn("failed to close subscription", zap.String("project_id", d.handle.ProjectID), zap.Error(err))
		}
		d.handle = nil
	}

	if err := d.store.Reset(ctx, projectID); err != nil {
		return fmt.Errorf("failed to reset cache: %w", err)
	}

	handle, subErr := d.listener.Subscribe(ctx, projectID)
	if subErr == nil {
		d.handle = handle
	}

	n, err := d.hydrate(ctx, projectID)
	if err != nil {
		return err
	}
	d.logger.Info("project loaded", zap.String("project_id", projectID), zap.Int("rows", n))

	if subErr != nil {
		return fmt.Errorf("project %s %w: %w", projectID, ErrNotLive, subErr)
	}
	return nil
}

func (d *Dashboard) hydrate(ctx context.Context, projectID string) (int, error) {
	var events []store.Event

	logs, err := d.backend.DailyLogs.List(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load daily logs: %w", err)
	}
	if events, err = appendLoad(events, logs); err != nil {
		return 0, err
	}

	shifts, err := d.backend.Shifts.List(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load shifts: %w", err)
	}
	if events, err = appendLoad(events, shifts); err != nil {
		return 0, err
	}

	workers, err := d.backend.ShiftWorkers.List(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load shift workers: %w", err)
	}
	if events, err = appendLoad(events, workers); err != nil {
		return 0, err
	}

	docs, err := d.backend.Documents.List(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load documents: %w", err)
	}
	if events, err = appendLoad(events, docs); err != nil {
		return 0, err
	}

	contacts, err := d.backend.Contacts.List(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load contacts: %w", err)
	}
	if events, err = appendLoad(events, contacts); err != nil {
		return 0, err
	}

	subs, err := d.backend.Subcontractors.List(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to load subcontractors: %w", err)
	}
	if events, err = appendLoad(events, subs); err != nil {
		return 0, err
	}

	return d.store.Load(ctx, events...)
}

func appendLoad[T models.Entity](events []store.Event, rows []*T) ([]store.Event, error) {
	loaded, err := store.LoadEvents(rows)
	if err != nil {
		return nil, err
	}
	return append(events, loaded...), nil
}

// Connectivity reports the subscription state of the session.
func (d *Dashboard) Connectivity() primary.Connectivity {
	state, err := d.listener.State()
	return primary.Connectivity{
		ProjectID: d.store.ProjectID(),
		State:     state,
		Err:       err,
	}
}

// Close tears down the subscription and stops the cache's writer loop.
func (d *Dashboard) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.listener.Close()
	d.handle = nil

	if d.cancel != nil {
		d.cancel()
		if runErr := <-d.done; runErr != nil && !errors.Is(runErr, context.Canceled) {
			err = errors.Join(err, runErr)
		}
		d.cancel = nil
	}
	return err
}

var _ primary.Dashboard = (*Dashboard)(nil)
