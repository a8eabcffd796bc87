package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lpreports/fundxtract/internal/artifact"
	"github.com/lpreports/fundxtract/internal/common"
	"github.com/lpreports/fundxtract/internal/extract"
	"github.com/lpreports/fundxtract/internal/llm/gemini"
	"github.com/lpreports/fundxtract/internal/pipeline"
	"github.com/lpreports/fundxtract/internal/repository"
	"github.com/lpreports/fundxtract/internal/server"
)

func main() {
	// .env is optional; real deployments pass the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := repository.Init(ctx, db, logger); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	if err := repository.HealthCheck(ctx, db); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	store := repository.NewSQLStore(db, logger)

	uploads, err := artifact.NewStore(cfg.Storage.UploadDir, logger)
	if err != nil {
		logger.Error("failed to create upload dir", "error", err)
		os.Exit(1)
	}
	outputs, err := artifact.NewStore(cfg.Storage.OutputDir, logger)
	if err != nil {
		logger.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}

	extractor := extract.NewPDFExtractor(logger)
	aiClient := gemini.NewClient(gemini.Config{
		Model:       cfg.Gemini.Model,
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		Temperature: cfg.Gemini.Temperature,
		Timeout:     cfg.Gemini.Timeout,
	}, logger)

	orch := pipeline.NewOrchestrator(store, uploads, outputs, extractor, aiClient,
		cfg.Pipeline.MaxRetries, logger)
	queue := pipeline.NewQueue(orch, logger,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithQueueSize(cfg.Pipeline.QueueSize),
		pipeline.WithProcessTimeout(cfg.Pipeline.ProcessTimeout))
	svc := pipeline.NewService(store, uploads, queue, cfg.Storage.MaxUploadSize, logger)

	srv := server.New(svc, store, uploads, outputs, queue,
		func(ctx context.Context) error { return repository.HealthCheck(ctx, db) },
		server.Options{
			Addr:          cfg.Server.Addr,
			CORSOrigins:   cfg.Server.CORSOrigins,
			MaxUploadSize: cfg.Storage.MaxUploadSize,
		}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("queue shutdown", "error", err)
	}
	logger.Info("stopped")
}
