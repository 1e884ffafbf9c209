package core

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/athulyan/docforge-go/internal/analyze"
	"github.com/athulyan/docforge-go/internal/cache"
	"github.com/athulyan/docforge-go/internal/config"
	"github.com/athulyan/docforge-go/internal/db"
	"github.com/athulyan/docforge-go/internal/governor"
	"github.com/athulyan/docforge-go/internal/jobqueue"
	"github.com/athulyan/docforge-go/internal/models"
	"github.com/athulyan/docforge-go/internal/pipeline"
	"github.com/athulyan/docforge-go/internal/storage"
	"github.com/athulyan/docforge-go/internal/store"
	"github.com/athulyan/docforge-go/internal/textract"
	"github.com/athulyan/docforge-go/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	cfg      *config.Config
	database *sql.DB
	store    *store.Store
	cache    *cache.Cache
	backend  storage.Backend
	hub      *websocket.Hub
	pipeline *pipeline.Pipeline
	queue    *jobqueue.Queue
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, running migrations,
// and wiring the processing pipeline.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig wires an App from an already loaded configuration. Tests
// use this to inject temp-dir settings.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	backend, err := storage.FromConfig(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to configure storage: %w", err)
	}

	resultCache, err := cache.New(cfg.Cache.MaxEntries)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	app := &App{
		cfg:      cfg,
		database: database,
		store:    store.New(database),
		cache:    resultCache,
		backend:  backend,
		hub:      websocket.NewHub(),
	}

	// Collaborators are optional; the pipeline skips a stage whose
	// collaborator is absent.
	var extractor textract.Engine
	if cfg.OCR.Endpoint != "" {
		extractor = textract.NewHTTPEngine(cfg.OCR.Endpoint)
	} else {
		log.Println("OCR endpoint not configured, text extraction is disabled.")
	}
	var analyzer analyze.Analyzer
	if cfg.AI.Endpoint != "" {
		analyzer = analyze.NewHTTPAnalyzer(cfg.AI.Endpoint, cfg.AI.APIKey)
	} else {
		log.Println("AI endpoint not configured, document analysis is disabled.")
	}

	app.pipeline = pipeline.New(cfg, backend, app.cache, extractor, analyzer,
		&hubPublisher{hub: app.hub}, app.store)
	app.queue = jobqueue.New(ctx, governor.New(cfg.MaxConcurrency), app.pipeline)

	log.Println("Core application setup complete.")
	return app, nil
}

// Close gracefully closes the application's resources, like the DB
// connection. In-flight jobs are waited out first.
func (a *App) Close() {
	if a.queue != nil {
		a.queue.Wait()
	}
	if a.database != nil {
		a.database.Close()
	}
}

func (a *App) Config() *config.Config       { return a.cfg }
func (a *App) DB() *sql.DB                  { return a.database }
func (a *App) Store() *store.Store          { return a.store }
func (a *App) Cache() *cache.Cache          { return a.cache }
func (a *App) Backend() storage.Backend     { return a.backend }
func (a *App) WsHub() *websocket.Hub        { return a.hub }
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }
func (a *App) Queue() *jobqueue.Queue       { return a.queue }

// hubPublisher adapts the WebSocket hub to the pipeline's publisher shape.
type hubPublisher struct {
	hub *websocket.Hub
}

func (p *hubPublisher) Publish(update models.ProgressUpdate) {
	p.hub.BroadcastJSON(update)
}
