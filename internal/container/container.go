package container

import (
	"context"
	"fmt"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/adapters/memory"
	"github.com/pgocasting/ipatrollersys-sub002/adapters/mongo"
	"github.com/pgocasting/ipatrollersys-sub002/adapters/postgres"
	"github.com/pgocasting/ipatrollersys-sub002/app"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/internal/actionreports"
	"github.com/pgocasting/ipatrollersys-sub002/internal/activity"
	"github.com/pgocasting/ipatrollersys-sub002/internal/config"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/internal/importer"
	"github.com/pgocasting/ipatrollersys-sub002/internal/ingest"
	"github.com/pgocasting/ipatrollersys-sub002/internal/metrics"
	"github.com/pgocasting/ipatrollersys-sub002/internal/migration"
	"github.com/pgocasting/ipatrollersys-sub002/internal/writeback"
	"github.com/pgocasting/ipatrollersys-sub002/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB        *sqlx.DB
	Documents ports.DocumentStore

	// Reconciliation components
	Mapper        *fieldmap.Mapper
	ActionReports *actionreports.Store
	Writer        *writeback.Writer
	Importer      *importer.Pipeline
	Activity      *activity.Logger
	Metrics       *metrics.Metrics
	Service       *app.ReconciliationService

	closers []func(context.Context) error
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// Init opens the configured document store and builds the service graph.
func (c *Container) Init(ctx context.Context) error {
	if err := c.initStore(ctx); err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	c.initServices()
	c.Logger.Info("[Container] initialized with %s backend, %d candidate locations",
		c.Config.Store.Backend, len(c.Config.Reconcile.Candidates))
	return nil
}

// UseDocuments injects a store instead of opening the configured backend.
func (c *Container) UseDocuments(docs ports.DocumentStore) {
	c.Documents = docs
	c.initServices()
}

func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.Store.Backend {
	case config.BackendPostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.NewRunner().Run(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.DB = db
		c.Documents = postgres.NewDocumentStore(db)
		c.closers = append(c.closers, func(context.Context) error { return db.Close() })
	case config.BackendMongo:
		store, disconnect, err := mongo.Connect(ctx, c.Config.Store.MongoURI, c.Config.Store.MongoDatabase)
		if err != nil {
			return err
		}
		c.Documents = store
		c.closers = append(c.closers, disconnect)
	default:
		c.Logger.Warn("[Container] using in-memory document store; data is lost on exit")
		c.Documents = memory.NewDocumentStore()
	}
	return nil
}

func (c *Container) initServices() {
	rc := c.Config.Reconcile

	c.Mapper = fieldmap.NewMapper(datetime.NewResolver())
	c.ActionReports = actionreports.NewStore(c.Documents, rc.CanonicalCollection, c.Logger)
	c.Writer = writeback.NewWriter(c.Documents, c.ActionReports, rc.CanonicalCollection, c.Logger,
		writeback.WithRateLimit(rc.WriteRatePerSec))
	c.Importer = importer.NewPipeline(c.ActionReports, c.Mapper, rc.CanonicalCollection, c.Logger)
	c.Activity = activity.NewLogger(c.Logger, c.Documents, rc.ActivityCollection, rc.ActivityDedupTTL)
	if c.Metrics == nil {
		c.Metrics = metrics.New()
	}

	c.Service = app.NewReconciliationService(app.ReconciliationDeps{
		Ingestor:   ingest.NewIngestor(c.Documents, c.Logger, rc.IngestConcurrency),
		Mapper:     c.Mapper,
		Candidates: Candidates(rc),
		Writer:     c.Writer,
		Importer:   c.Importer,
		Activity:   c.Activity,
		Metrics:    c.Metrics,
		Logger:     c.Logger,
	})
}

// Candidates converts configured locations. The canonical collection is
// always scanned first.
func Candidates(rc config.ReconcileConfig) []ingest.Candidate {
	out := []ingest.Candidate{{Collection: rc.CanonicalCollection}}
	for _, cc := range rc.Candidates {
		if cc.Name == rc.CanonicalCollection {
			if cc.Department != "" {
				out[0].Department = cc.Department
			}
			continue
		}
		out = append(out, ingest.Candidate{Collection: cc.Name, Department: cc.Department})
	}
	return out
}

// Close flushes pending activity writes and releases connections.
func (c *Container) Close(ctx context.Context) error {
	if c.Activity != nil {
		done := make(chan struct{})
		go func() {
			c.Activity.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			c.Logger.Warn("[Container] timed out waiting for activity writes")
		}
	}
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	c.Logger.Sync()
	return firstErr
}
