// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app assembles the daemon: config, event bus, backend client,
// case engine, config watcher, and API server.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wingedpig/caseflow/internal/api"
	"github.com/wingedpig/caseflow/internal/backend"
	"github.com/wingedpig/caseflow/internal/config"
	"github.com/wingedpig/caseflow/internal/engine"
	"github.com/wingedpig/caseflow/internal/events"
	"github.com/wingedpig/caseflow/internal/watcher"
)

// App is the main application container.
type App struct {
	mu sync.RWMutex

	configPath string
	version    string
	config     *config.Config

	eventBus      events.EventBus
	backendClient *backend.Client
	engine        *engine.Engine
	configWatcher *watcher.ConfigWatcher
	apiServer     *api.Server

	done     chan struct{}
	stopOnce sync.Once
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	Version    string // Application version string
}

// New creates a new App instance.
func New(opts Options) (*App, error) {
	app := &App{
		configPath: opts.ConfigPath,
		version:    opts.Version,
		done:       make(chan struct{}),
	}

	// Load configuration
	loader := config.NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	app.config = cfg

	// Override host/port if specified
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}

	// Initialize event bus
	app.eventBus = events.NewMemoryEventBus(events.MemoryBusConfig{
		HistoryMaxEvents: cfg.Events.History.MaxEvents,
		HistoryMaxAge:    config.ParseDuration(cfg.Events.History.MaxAge, time.Hour),
	})

	return app, nil
}

// Initialize sets up all components.
func (app *App) Initialize(ctx context.Context) error {
	cfg := app.config

	app.backendClient = backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.BackendTimeout()))
	log.Printf("Using backend at %s", cfg.Backend.BaseURL)

	app.engine = engine.New(app.backendClient, app.eventBus, engine.Options{
		PollInterval: cfg.PollInterval(),
	})

	// Watch cases listed in the config
	for _, caseID := range cfg.Cases {
		if err := app.engine.Watch(caseID); err != nil {
			log.Printf("Warning: failed to watch case %s: %v", caseID, err)
		}
	}
	if len(cfg.Cases) > 0 {
		log.Printf("Watching %d cases from config", len(cfg.Cases))
	}

	// Watch the config file for hot reload
	if !cfg.Watch.Disabled {
		cw, err := watcher.NewConfigWatcher(app.configPath, app.eventBus, cfg.WatchDebounce(), app.configReloaded)
		if err != nil {
			log.Printf("Warning: config watching disabled: %v", err)
		} else {
			app.configWatcher = cw
		}
	}

	app.apiServer = api.NewServer(api.ServerConfig{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		TLSCert: cfg.Server.TLSCert,
		TLSKey:  cfg.Server.TLSKey,
	}, api.Dependencies{
		Engine:   app.engine,
		EventBus: app.eventBus,
		Version:  app.version,
	})

	return nil
}

// configReloaded applies a validated config change to the running daemon.
// Only poll cadence and the watched-case set are hot-reloadable; server
// address changes require a restart.
func (app *App) configReloaded(cfg *config.Config) {
	app.mu.Lock()
	old := app.config
	app.config = cfg
	app.mu.Unlock()

	if cfg.Poll.Interval != old.Poll.Interval {
		log.Printf("Poll interval changed to %s", cfg.Poll.Interval)
		app.engine.SetPollInterval(cfg.PollInterval())
	}

	// Reconcile the watched-case set.
	wanted := make(map[string]bool, len(cfg.Cases))
	for _, id := range cfg.Cases {
		wanted[id] = true
		if err := app.engine.Watch(id); err != nil {
			log.Printf("Warning: failed to watch case %s: %v", id, err)
		}
	}
	had := make(map[string]bool, len(old.Cases))
	for _, id := range old.Cases {
		had[id] = true
	}
	for id := range had {
		// Only drop cases the old config added; cases watched via the API
		// are left alone.
		if !wanted[id] {
			if err := app.engine.Unwatch(id); err != nil {
				log.Printf("Warning: failed to unwatch case %s: %v", id, err)
			}
		}
	}
}

// Run initializes the app and blocks until shutdown.
func (app *App) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting API server on %s:%d", app.config.Server.Host, app.config.Server.Port)
		if err := app.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			log.Printf("Shutting down...")
		case <-app.done:
			log.Printf("Shutdown requested...")
		}
		return app.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown gracefully shuts down all components.
func (app *App) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop accepting new requests first
	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}
	}

	if app.configWatcher != nil {
		app.configWatcher.Close()
	}

	// Stops pollers and cancels generation sessions
	if app.engine != nil {
		app.engine.Close()
	}

	if app.eventBus != nil {
		app.eventBus.Close()
	}

	log.Println("Shutdown complete")
	return nil
}

// Stop signals the app to shut down. Safe to call multiple times.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}

// Engine exposes the case engine, mainly for tests.
func (app *App) Engine() *engine.Engine {
	return app.engine
}

// Config returns the current configuration.
func (app *App) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}
