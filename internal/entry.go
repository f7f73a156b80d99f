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

	"github.com/starford/gebo/internal/api"
	"github.com/starford/gebo/internal/catalog"
	"github.com/starford/gebo/internal/engine"
	"github.com/starford/gebo/internal/linkcheck"
	"github.com/starford/gebo/internal/mcpserver"
	"github.com/starford/gebo/internal/oracle"
	"github.com/starford/gebo/internal/sse"
	"github.com/starford/gebo/internal/urls"
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
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if app.mcpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("link_pattern", cfg.Site.LinkPattern),
		slog.String("oracle_mode", cfg.Oracle.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the document catalog.
	db, err := catalog.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	defer db.Close()

	// URL builder for public document URLs.
	builder, err := urls.NewBuilder(cfg.Site.LinkPattern)
	if err != nil {
		return fmt.Errorf("init url builder: %w", err)
	}

	// Scoring oracle; nil means deterministic fallback everywhere.
	var orc oracle.Oracle
	if cfg.Oracle.Enabled() {
		orc = oracle.NewClient(oracle.ClientConfig{
			APIKey:          cfg.Oracle.APIKey,
			BaseURL:         cfg.Oracle.BaseURL,
			Model:           cfg.Oracle.Model,
			ScoreTimeout:    cfg.Oracle.ScoreTimeoutDuration(),
			ValidateTimeout: cfg.Oracle.ValidateTimeoutDuration(),
		})
	}

	eng := engine.New(db, orc, builder, engine.Limits{
		SuggestionLimit: cfg.Linking.SuggestionLimit,
		MaxCandidates:   cfg.Linking.MaxCandidates,
		RelevanceFloor:  cfg.Linking.RelevanceFloor,
		ContextWindow:   cfg.Linking.ContextWindow,
	})
	checker := linkcheck.New(db, builder)

	// MCP mode runs the stdio transport and nothing else.
	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(db, eng, checker).ServeStdio()
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Build API handler and router.
	h := api.NewHandler(db, eng, checker, broker)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
