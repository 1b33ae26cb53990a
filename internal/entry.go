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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dagrev/xmap/internal/api"
	"github.com/dagrev/xmap/internal/catalog"
	"github.com/dagrev/xmap/internal/mapservice"
	"github.com/dagrev/xmap/internal/mcpserver"
	"github.com/dagrev/xmap/internal/sse"
	"github.com/dagrev/xmap/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol stream, so logs always go to stderr there.
	logOut := os.Stdout
	if cfg.App.Mode == ModeMCP {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", cfg.App.Mode),
		slog.Any("allowed_dirs", cfg.Workspace.AllowedDirs),
		slog.String("catalog_path", cfg.Catalog.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure allowed directories exist.
	for _, dir := range cfg.Workspace.AllowedDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create allowed dir %s: %w", dir, err)
		}
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Workspace.AllowedDirs)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize the archive catalog.
	db, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	// Run initial reconciliation.
	if err := catalog.Sync(db, store, logger); err != nil {
		logger.Warn("initial catalog sync failed", slog.String("error", err.Error()))
	}

	svc := mapservice.NewService(store, db)

	if cfg.App.Mode == ModeMCP {
		return runMCP(ctx, svc, db, store, logger)
	}
	return runHTTP(ctx, cfg, svc, db, store, logger)
}

// runMCP serves the tool surface over stdio while keeping the catalog
// watcher alive in the background.
func runMCP(ctx context.Context, svc *mapservice.Service, db *catalog.DB, store storage.Provider, logger *slog.Logger) error {
	srv := mcpserver.New(svc)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	g, gCtx := errgroup.WithContext(watchCtx)

	g.Go(func() error {
		if err := catalog.Watch(gCtx, db, store, logger, nil); err != nil {
			logger.Warn("catalog watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting MCP server on stdio")
		err := srv.ServeStdio()
		// Stdin closed: release the watcher so Wait can return.
		stopWatch()
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp server error: %w", err)
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

// runHTTP serves the REST and SSE surfaces.
func runHTTP(ctx context.Context, cfg *Config, svc *mapservice.Service, db *catalog.DB, store storage.Provider, logger *slog.Logger) error {
	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	apiRouter := api.NewRouter(svc, db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := catalog.Watch(gCtx, db, store, logger, func(kind, path string) {
			broker.PublishArchiveEvent(kind, path)
		}); err != nil {
			logger.Warn("catalog watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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
		broker.Close()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
