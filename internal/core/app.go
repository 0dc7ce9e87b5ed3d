package core

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/xtreamsync/xtreamsync/internal/config"
	"github.com/xtreamsync/xtreamsync/internal/db"
	"github.com/xtreamsync/xtreamsync/internal/jobs"
	"github.com/xtreamsync/xtreamsync/internal/logger"
	"github.com/xtreamsync/xtreamsync/internal/store"
	"github.com/xtreamsync/xtreamsync/internal/syncer"
	"github.com/xtreamsync/xtreamsync/internal/websocket"
	"github.com/xtreamsync/xtreamsync/migrations"
)

// App holds the core components of the application that are shared
// between the server and the CLI. It implements jobs.JobContext.
type App struct {
	config    *config.Config
	db        *sql.DB
	store     *store.Store
	hub       *websocket.Hub
	logger    *log.Logger
	engine    *syncer.Engine
	jobs      *jobs.JobManager
	scheduler *jobs.Scheduler
	version   string
}

// NewApp wires the components around an open, migrated database.
func NewApp(cfg *config.Config, database *sql.DB, hub *websocket.Hub, l *log.Logger, version string) *App {
	st := store.New(database)
	app := &App{
		config:  cfg,
		db:      database,
		store:   st,
		hub:     hub,
		logger:  l,
		engine:  syncer.NewEngine(st, l, cfg, "xtreamsync/"+version),
		version: version,
	}
	app.jobs = jobs.NewManager(app)
	app.scheduler = jobs.NewScheduler(app, app.jobs)
	return app
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running migrations.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	l := logger.New(nil, cfg.Log.Level)

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, migrations.FS); err != nil {
		// We can't proceed without a valid database schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app := NewApp(cfg, database, websocket.NewHub(l), l, version)

	// Runs left behind by a previous process can never finish.
	n, err := app.store.ResetRunningSyncStates()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to reset interrupted syncs: %w", err)
	}
	if n > 0 {
		l.Warn("Reset interrupted sync states", "count", n)
	}

	l.Info("Core application setup complete.", "db", cfg.Database.Path)
	return app, nil
}

func (a *App) Config() *config.Config       { return a.config }
func (a *App) DB() *sql.DB                  { return a.db }
func (a *App) Store() *store.Store          { return a.store }
func (a *App) WsHub() *websocket.Hub        { return a.hub }
func (a *App) Logger() *log.Logger          { return a.logger }
func (a *App) Syncer() jobs.Runner          { return a.engine }
func (a *App) Engine() *syncer.Engine       { return a.engine }
func (a *App) JobManager() *jobs.JobManager { return a.jobs }
func (a *App) Scheduler() *jobs.Scheduler   { return a.scheduler }
func (a *App) Version() string              { return a.version }

// Close stops background work and releases the DB connection.
func (a *App) Close() {
	a.scheduler.Stop()
	a.jobs.StopAll()
	if a.hub != nil {
		a.hub.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
}
