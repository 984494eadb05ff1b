// Package sqlite implements the persistent key-value store module on
// modernc.org/sqlite (pure Go, no CGO). All collections share one
// records table keyed by (collection, key); an hourly cron job purges
// transient-mode records too old to matter.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/cron"
	"github.com/flemzord/newsclaw/internal/kvstore"
	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite" // SQLite driver registration
)

func init() {
	core.RegisterModule(&Module{})
}

// Compile-time interface guards.
var (
	_ kvstore.Store     = (*collectionStore)(nil)
	_ kvstore.Opener    = (*Module)(nil)
	_ cron.Purger       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// Module is the SQLite-backed key-value store.
type Module struct {
	config    Config
	db        *sql.DB
	logger    *slog.Logger
	scheduler *cron.Scheduler
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "kvstore.sqlite",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sqlite: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. It opens and migrates the
// database and publishes the "kvstore.opener" and "kvstore.collections"
// services.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.logger = ctx.Logger

	if m.config.Path == "" {
		m.config.Path = filepath.Join(ctx.DataDir, defaultDBFile)
	}

	db, err := open(context.Background(), m.config)
	if err != nil {
		return err
	}
	m.db = db

	ctx.RegisterService("kvstore.opener", kvstore.Opener(m))
	ctx.RegisterService("kvstore.collections", kvstore.OpenCollections(m))
	ctx.RegisterService("kvstore.health", m)
	if err := m.newScheduler(ctx); err != nil {
		_ = db.Close()
		m.db = nil
		return err
	}

	m.logger.Info("sqlite kvstore provisioned",
		"path", m.config.Path,
		"wal", m.config.walEnabled(),
	)
	return nil
}

// open creates the database file, applies PRAGMAs and migrates the schema.
func open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}

	// SQLite serialises writers; one connection keeps PRAGMAs consistent.
	db.SetMaxOpenConns(1)

	if cfg.walEnabled() {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if err := m.db.PingContext(context.Background()); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// Start implements core.Starter. It starts ticking the purge job.
func (m *Module) Start() error {
	if m.scheduler == nil {
		return nil
	}
	return m.scheduler.Start()
}

// newScheduler registers the userstates purge job. The scheduler is
// published as "kvstore.scheduler" so maintenance commands can run the
// job without starting the module.
func (m *Module) newScheduler(ctx *core.AppContext) error {
	if !m.config.purgeEnabled() {
		return nil
	}
	s := cron.NewScheduler(m.logger)
	if err := s.RegisterJob(&cron.PurgeJob{
		Purger:       m,
		Collection:   kvstore.CollectionUserStates,
		MaxAge:       m.config.Purge.MaxAge,
		ScheduleExpr: m.config.Purge.Schedule,
		Logger:       m.logger,
	}); err != nil {
		return err
	}
	m.scheduler = s
	ctx.RegisterService("kvstore.scheduler", cron.Runner(s))
	return nil
}

// Stop implements core.Stopper.
func (m *Module) Stop(ctx context.Context) error {
	if m.logger != nil {
		m.logger.Info("sqlite kvstore stopping")
	}
	if m.scheduler != nil {
		_ = m.scheduler.Stop(ctx)
	}
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// HealthCheck pings the database. The gateway reports it on /health.
func (m *Module) HealthCheck(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Collection implements kvstore.Opener.
func (m *Module) Collection(name string) kvstore.Store {
	return &collectionStore{db: m.db, name: name}
}
