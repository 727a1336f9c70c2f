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

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/archive"
	"github.com/starford/ansuz/internal/ingest"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/oracle"
	"github.com/starford/ansuz/internal/query"
	"github.com/starford/ansuz/internal/session"
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

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("oracle_model", cfg.Oracle.Model),
		slog.String("archive_path", cfg.Archive.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	registry := session.NewRegistry()
	hub := session.NewHub()
	defer hub.Close()

	var archiveDB *archive.DB
	if cfg.Archive.Enabled() {
		var err error
		archiveDB, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		defer archiveDB.Close()
	}

	oracleClient := oracle.New(oracle.Config{
		BaseURL: cfg.Oracle.BaseURL,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
	})
	if !oracleClient.Configured() {
		logger.Warn("oracle api key not set; ingestion and querying are disabled")
	}

	ingestSvc := ingest.NewService(registry, hub, oracleClient, archiveDB, cfg.Ingest.ChunkerOptions(), logger)
	engine := query.NewEngine(registry, hub, oracleClient, logger)

	handler := api.NewHandler(registry, hub, ingestSvc, engine, archiveDB, oracleClient.Configured())
	apiRouter := api.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

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

	// Drop-directory watcher.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			if err := ingestSvc.Watch(gCtx, cfg.Watch.Dir, cfg.Watch.Session); err != nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
			}
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

// RunMCP starts the MCP server on stdin/stdout with the given options.
// It shares the session registry, oracle, and archive wiring with Run but
// no HTTP surface; events are broadcast to a hub nothing listens on.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// MCP uses stdout for the protocol, so logs go to stderr.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	registry := session.NewRegistry()
	hub := session.NewHub()
	defer hub.Close()

	var archiveDB *archive.DB
	if cfg.Archive.Enabled() {
		var err error
		archiveDB, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		defer archiveDB.Close()
	}

	oracleClient := oracle.New(oracle.Config{
		BaseURL: cfg.Oracle.BaseURL,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
	})
	if !oracleClient.Configured() {
		logger.Warn("oracle api key not set; ingestion and querying are disabled")
	}

	ingestSvc := ingest.NewService(registry, hub, oracleClient, archiveDB, cfg.Ingest.ChunkerOptions(), logger)
	engine := query.NewEngine(registry, hub, oracleClient, logger)

	srv := mcpserver.New(registry, engine, ingestSvc, archiveDB)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
