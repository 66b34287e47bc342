package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/ds-visualizer/internal/api"
	"github.com/terra-clan/ds-visualizer/internal/assistant"
	"github.com/terra-clan/ds-visualizer/internal/catalog"
	"github.com/terra-clan/ds-visualizer/internal/cleanup"
	"github.com/terra-clan/ds-visualizer/internal/config"
	"github.com/terra-clan/ds-visualizer/internal/events"
	"github.com/terra-clan/ds-visualizer/internal/storage"
	"github.com/terra-clan/ds-visualizer/internal/web"
	"github.com/terra-clan/ds-visualizer/internal/workspace"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("starting ds-visualizer",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"assistant", cfg.Assistant.Provider,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	store, err := storage.Open(initCtx, storage.Options{
		Backend: cfg.Storage.Backend,
		Redis: storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
		Postgres: storage.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
		},
		SQLitePath: cfg.SQLite.Path,
	})
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	slog.Info("store opened", "backend", cfg.Storage.Backend)

	// Schema assistant
	settings := assistant.Settings{
		Provider:    cfg.Assistant.Provider,
		Model:       cfg.Assistant.Model,
		APIKey:      cfg.Assistant.APIKey,
		BaseURL:     cfg.Assistant.BaseURL,
		Temperature: cfg.Assistant.Temperature,
		MaxTokens:   cfg.Assistant.MaxTokens,
	}
	registry := assistant.NewDefaultRegistry(settings)
	generator, err := registry.Select(settings)
	if err != nil {
		slog.Error("failed to select assistant provider", "error", err)
		os.Exit(1)
	}
	if generator.Name() != cfg.Assistant.Provider {
		slog.Warn("no assistant credentials configured, using offline schemas",
			"configured", cfg.Assistant.Provider,
			"available", registry.List(),
		)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := events.NewHub()
	go hub.Run(ctx)

	cat := catalog.Default()
	if cfg.Catalog.File != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.File)
		if err != nil {
			slog.Error("failed to load catalog", "error", err)
			os.Exit(1)
		}
	}
	workspaces := workspace.NewManager(store, workspace.Options{
		Catalog:  cat,
		Notifier: hub,
	})

	// Start cleanup worker
	cleaner := cleanup.NewCleaner(workspaces, cfg.Workspace.IdleTTL, cfg.Workspace.CleanupInterval)
	cleaner.Start(ctx)

	renderer, err := web.NewRenderer(cat)
	if err != nil {
		slog.Error("failed to load page templates", "error", err)
		os.Exit(1)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, cfg.Session, api.Dependencies{
		Catalog:    cat,
		Workspaces: workspaces,
		Store:      store,
		Hub:        hub,
		Renderer:   renderer,
		Generator:  generator,
		Model:      cfg.Assistant.Model,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers and close event streams
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := store.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("ds-visualizer stopped")
}
