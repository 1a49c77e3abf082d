package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gcsrm/recruitment-portal/internal/api"
	"github.com/gcsrm/recruitment-portal/internal/catalog"
	"github.com/gcsrm/recruitment-portal/internal/config"
	"github.com/gcsrm/recruitment-portal/internal/health"
	"github.com/gcsrm/recruitment-portal/internal/locks"
	"github.com/gcsrm/recruitment-portal/internal/recruitment"
	"github.com/gcsrm/recruitment-portal/internal/sheet"
	"github.com/gcsrm/recruitment-portal/internal/storage"
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

	slog.Info("starting recruitment-portal",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"driver", cfg.Database.Driver,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Initialize participant/task store
	repo, err := storage.Open(initCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully", "name", cfg.Database.Name)

	if cfg.Database.AutoMigrate {
		slog.Info("running database migrations")
		if err := storage.Migrate(initCtx, repo); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	if cfg.Catalog.Dir != "" {
		loader := catalog.NewLoader()
		if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
			slog.Warn("failed to load task catalog", "dir", cfg.Catalog.Dir, "error", err)
		} else if _, err := loader.Import(initCtx, repo); err != nil {
			slog.Error("failed to import task catalog", "error", err)
			os.Exit(1)
		}
	}

	registry := health.NewRegistry()
	registry.Register("database", health.CheckerFunc(repo.Ping))

	// Submission locks are shared through Redis when configured
	var locker locks.Locker = locks.NewLocalLocker()
	var redisLocker *locks.RedisLocker
	if cfg.Redis.Address != "" {
		redisLocker, err = locks.NewRedisLocker(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		locker = redisLocker
		registry.Register("redis", redisLocker)
	}

	webhook := sheet.NewClient(cfg.Sheet.WebhookURL, sheet.WithTimeout(cfg.Sheet.Timeout))
	if !webhook.Configured() {
		slog.Warn("sheet webhook URL not set, submissions will be rejected")
	}

	server := api.NewServer(cfg, api.Dependencies{
		Repo:      repo,
		Registrar: recruitment.NewRegistrar(repo, recruitment.WindowFromConfig(cfg.Windows.Registration)),
		Resolver:  recruitment.NewResolver(repo),
		Forwarder: recruitment.NewForwarder(repo, webhook, locker, cfg.Submission.LockTTL,
			recruitment.WindowFromConfig(cfg.Windows.Submission)),
		Health: registry,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
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

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if redisLocker != nil {
		if err := redisLocker.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	if err := repo.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("recruitment-portal stopped")
}
