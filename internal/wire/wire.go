// Package wire provides dependency injection for the siteops application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	cliadapter "github.com/example/siteops/internal/adapters/cli"
	"github.com/example/siteops/internal/adapters/excel"
	"github.com/example/siteops/internal/adapters/filesystem"
	"github.com/example/siteops/internal/adapters/gcs"
	"github.com/example/siteops/internal/adapters/memfeed"
	"github.com/example/siteops/internal/adapters/mqtt"
	"github.com/example/siteops/internal/adapters/natsfeed"
	"github.com/example/siteops/internal/adapters/postgres"
	"github.com/example/siteops/internal/adapters/redisfeed"
	"github.com/example/siteops/internal/adapters/rest"
	"github.com/example/siteops/internal/adapters/sqlite"
	"github.com/example/siteops/internal/app"
	"github.com/example/siteops/internal/config"
	"github.com/example/siteops/internal/db"
	"github.com/example/siteops/internal/logging"
	"github.com/example/siteops/internal/metrics"
	"github.com/example/siteops/internal/ports/secondary"
	"github.com/example/siteops/internal/realtime"
	"github.com/example/siteops/internal/store"
	"github.com/example/siteops/internal/version"
)

var (
	once    sync.Once
	initErr error

	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	dashboard *app.Dashboard
	receipts  *mqtt.Receipts
	closers   []func() error

	watchMu  sync.Mutex
	watchers []func(store.Event)
)

// Dir is the directory configuration is loaded from. It defaults to the
// working directory and must be set before the first call into wire.
var Dir = "."

// Config returns the loaded configuration.
func Config() (*config.Config, error) {
	once.Do(initServices)
	return cfg, initErr
}

// Logger returns the application logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logging.OrNop(logger)
}

// Registry returns the Prometheus registry the metrics are registered on.
func Registry() *prometheus.Registry {
	once.Do(initServices)
	return registry
}

// Dashboard returns the singleton dashboard session with its writer loop running.
func Dashboard() (*app.Dashboard, error) {
	once.Do(initServices)
	return dashboard, initErr
}

// Receipts returns the notification receipt listener, or nil when no broker
// is configured.
func Receipts() secondary.NotificationReceipts {
	once.Do(initServices)
	if receipts == nil {
		return nil
	}
	return receipts
}

// Watch registers fn to run after every applied cache event.
func Watch(fn func(store.Event)) {
	watchMu.Lock()
	defer watchMu.Unlock()
	watchers = append(watchers, fn)
}

func notifyWatchers(ev store.Event) {
	watchMu.Lock()
	fns := slices.Clone(watchers)
	watchMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Shutdown closes the session and every connection opened by wire.
func Shutdown() error {
	var errs []error
	if dashboard != nil {
		errs = append(errs, dashboard.Close())
	}
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i]())
	}
	closers = nil
	if logger != nil {
		_ = logger.Sync()
	}
	return errors.Join(errs...)
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	initErr = build(context.Background())
}

func build(ctx context.Context) error {
	var err error
	cfg, err = config.LoadConfig(Dir)
	if err != nil {
		return err
	}

	logger, err = logging.NewLogger(cfg.Log.Level, cfg.Log.Format, "siteops")
	if err != nil {
		return err
	}
	logger.Debug("starting", zap.String("version", version.String()))

	registry = prometheus.NewRegistry()
	m := metrics.New(registry)

	var hub *memfeed.Hub
	if cfg.Feed.Driver == config.FeedMemory {
		hub = memfeed.NewHub(0)
		closers = append(closers, hub.Close)
	}

	feed, publisher, err := buildFeed(ctx, hub)
	if err != nil {
		return err
	}

	backend, err := buildBackend(publisher)
	if err != nil {
		return err
	}

	attachments, err := buildAttachments(ctx)
	if err != nil {
		return err
	}

	if cfg.Notifications.MQTTBroker != "" {
		receipts, err = mqtt.Connect(mqtt.Config{
			Broker:   cfg.Notifications.MQTTBroker,
			ClientID: cfg.Notifications.ClientID,
			Username: cfg.Notifications.Username,
			Password: cfg.Notifications.Password,
			QoS:      1,
		}, logger)
		if err != nil {
			return err
		}
		closers = append(closers, func() error { receipts.Close(); return nil })
	}

	st := store.New(
		store.WithLogger(logger),
		store.WithMetrics(m),
		store.WithVersionGuard(cfg.Sync.VersionGuard),
		store.WithNotify(notifyWatchers),
	)
	listener := realtime.NewListener(feed, realtime.Options{
		Buffer:  cfg.Sync.EventBuffer,
		Logger:  logger,
		Metrics: m,
	})

	dashboard = app.NewDashboard(app.DashboardDeps{
		Backend:     backend,
		Store:       st,
		Listener:    listener,
		Attachments: attachments,
		Reports:     excel.NewReportWriter(),
		Logger:      logger,
		Metrics:     m,
	})
	dashboard.Start(ctx)
	return nil
}

// buildFeed returns the change feed and, for transports siteops writes to
// itself, the publisher the local backend announces its writes on.
func buildFeed(ctx context.Context, hub *memfeed.Hub) (secondary.ChangeFeed, secondary.ChangePublisher, error) {
	switch cfg.Feed.Driver {
	case config.FeedMemory:
		return hub, hub, nil

	case config.FeedPostgres:
		// The database publishes through its own triggers.
		return postgres.NewFeed(cfg.Feed.PostgresDSN, postgres.Options{Logger: logger}), nil, nil

	case config.FeedNATS:
		nc, err := natsfeed.Connect(cfg.Feed.NATSURL, "siteops")
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() error { nc.Close(); return nil })
		f := natsfeed.NewFeed(nc, logger)
		return f, f, nil

	case config.FeedRedis:
		rdb, err := redisfeed.NewClient(ctx, cfg.Feed.RedisAddr, cfg.Feed.RedisPassword, cfg.Feed.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, rdb.Close)
		f := redisfeed.NewFeed(rdb, redisfeed.Options{Logger: logger})
		return f, f, nil
	}
	return nil, nil, fmt.Errorf("unknown feed driver %q", cfg.Feed.Driver)
}

func buildBackend(publisher secondary.ChangePublisher) (*secondary.Backend, error) {
	switch cfg.Backend.Driver {
	case config.BackendSQLite:
		database, err := db.Open(cfg.Backend.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		closers = append(closers, database.Close)
		return sqlite.NewBackend(database, sqlite.NewChangeWriter(publisher, logger)), nil

	case config.BackendREST:
		client := rest.NewClient(rest.Options{
			BaseURL: cfg.Backend.RESTURL,
			APIKey:  cfg.Backend.APIKey,
			Timeout: cfg.Backend.Timeout,
			Logger:  logger,
		})
		return rest.NewBackend(client), nil
	}
	return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
}

func buildAttachments(ctx context.Context) (secondary.AttachmentStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageGCS:
		s, err := gcs.NewStore(ctx, cfg.Storage.Bucket, "attachments", cfg.Storage.CredentialsFile)
		if err != nil {
			return nil, err
		}
		closers = append(closers, s.Close)
		return s, nil
	default:
		return filesystem.NewAttachmentStore(cfg.Storage.Dir)
	}
}

// ProjectAdapter returns a new ProjectAdapter writing to stdout.
// Project commands work across projects, so no project is loaded.
func ProjectAdapter() (*cliadapter.ProjectAdapter, error) {
	d, err := Dashboard()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewProjectAdapter(d.Projects, os.Stdout), nil
}
