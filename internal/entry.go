// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/arnstad/mnemo/internal/api"
	"github.com/arnstad/mnemo/internal/mcpserver"
	"github.com/arnstad/mnemo/internal/snapshot"
	"github.com/arnstad/mnemo/internal/sse"
	"github.com/arnstad/mnemo/internal/store"
	pkgconfig "github.com/arnstad/mnemo/pkg/config"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger with a runtime-adjustable level.
	levelVar := new(slog.LevelVar)
	levelVar.Set(cfg.App.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelVar,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("snapshot_backend", cfg.Snapshot.Backend),
		slog.String("snapshot_path", cfg.Snapshot.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize snapshot persistence.
	provider, closeProvider, err := newSnapshotProvider(cfg)
	if err != nil {
		return fmt.Errorf("init snapshot: %w", err)
	}
	defer closeProvider()

	// SSE broker for store mutation events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build the knowledge store and load persisted state.
	st := store.New(provider, logger, store.WithEventCallback(broker.PublishStoreEvent))
	if err := st.Load(); err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	apiRouter := api.NewRouter(st, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the config file for log-level changes.
	if app.configPath != "" {
		configPath := app.configPath
		g.Go(func() error {
			watchConfig(gCtx, configPath, levelVar, logger)
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the store over MCP stdio instead of HTTP.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Log to stderr: stdout belongs to the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	provider, closeProvider, err := newSnapshotProvider(cfg)
	if err != nil {
		return fmt.Errorf("init snapshot: %w", err)
	}
	defer closeProvider()

	st := store.New(provider, logger)
	if err := st.Load(); err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(st).ServeStdio()
}

// newSnapshotProvider builds the configured snapshot backend and a
// close func for it.
func newSnapshotProvider(cfg *Config) (snapshot.Provider, func() error, error) {
	switch cfg.Snapshot.Backend {
	case SnapshotBackendSQLite:
		db, err := snapshot.OpenSQLite(cfg.Snapshot.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		f, err := snapshot.NewFile(cfg.Snapshot.Path)
		if err != nil {
			return nil, nil, err
		}
		return f, func() error { return nil }, nil
	}
}

// watchConfig watches the config file and applies log-level changes
// until ctx is cancelled. Reload failures are logged and ignored so a
// half-saved edit never takes the server down.
func watchConfig(ctx context.Context, path string, levelVar *slog.LevelVar, logger *slog.Logger) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config watcher: init failed", slog.String("error", err.Error()))
		return
	}
	defer w.Close()

	// Watch the directory: editors typically replace the file by rename.
	abs, err := filepath.Abs(path)
	if err != nil {
		logger.Warn("config watcher: resolve path failed", slog.String("error", err.Error()))
		return
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		logger.Warn("config watcher: add failed", slog.String("error", err.Error()))
		return
	}

	logger.Info("config watcher: started", slog.String("path", abs))

	// Debounce bursts of events from a single save.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("config watcher: stopped")
			return

		case <-reloadCh:
			cfg := NewDefaultConfig()
			if err := pkgconfig.Load(abs, cfg); err != nil {
				logger.Warn("config watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			if cfg.App.LogLevel != levelVar.Level() {
				logger.Info("config watcher: log level changed",
					slog.String("from", levelVar.Level().String()),
					slog.String("to", cfg.App.LogLevel.String()))
				levelVar.Set(cfg.App.LogLevel)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Name != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher: error", slog.String("error", err.Error()))
		}
	}
}
