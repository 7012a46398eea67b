package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vertex/internal/server/api"
	"vertex/internal/server/config"
	"vertex/internal/server/database"
	"vertex/internal/server/service"
	"vertex/internal/server/session"
	"vertex/internal/server/storage"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"base_url", cfg.BaseURL,
		"session_ttl_hours", cfg.SessionTTLHours,
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations complete")

	// Initialize the blob store
	var blobs storage.Store
	var mediaDir string
	switch cfg.StorageBackend {
	case "s3":
		blobs, err = storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
			URLExpiry: cfg.S3URLExpiry(),
		})
		if err != nil {
			slog.Error("failed to initialize s3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage initialized", "bucket", cfg.S3.Bucket)
	default:
		fsStore := storage.NewFileSystemStore(cfg.StoragePath, cfg.BaseURL)
		if err := fsStore.EnsureDir(); err != nil {
			slog.Error("failed to initialize storage", "error", err)
			os.Exit(1)
		}
		blobs = fsStore
		mediaDir = fsStore.BasePath()
		slog.Info("file storage initialized", "path", cfg.StoragePath)
	}

	// Initialize repositories and services
	users := database.NewUserRepository(db)
	files := database.NewFileRepository(db)
	authSvc := service.NewAuthService(users)
	fileSvc := service.NewFileService(files, blobs)

	// Session store, with optional expiry sweep
	sessions := session.NewMemoryStore(cfg.SessionTTL())
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	var sweeper *session.Sweeper
	if cfg.SessionTTL() > 0 {
		sweeper = session.NewSweeper(sessions, cfg.SessionSweepInterval())
		sweeper.Start(sweepCtx)
	}

	// Setup HTTP router
	handler := api.NewHandler(authSvc, fileSvc, sessions, cfg)
	e := api.SetupRouter(handler, cfg, mediaDir)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Stop the session sweeper
	sweepCancel()
	if sweeper != nil {
		sweeper.Wait()
	}

	slog.Info("server exited cleanly")
}
