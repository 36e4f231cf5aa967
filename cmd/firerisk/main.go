package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/fire-risk-service/internal/adapter/http"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/inpe"
	kafkaadapter "github.com/couchcryptid/fire-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/parquet"
	"github.com/couchcryptid/fire-risk-service/internal/config"
	"github.com/couchcryptid/fire-risk-service/internal/model"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
	"github.com/couchcryptid/fire-risk-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	models := model.NewService(cfg.ModelPath, logger, metrics)
	if _, err := models.Reload(); err != nil {
		// Readiness stays failing until POST /api/v1/model/reload succeeds.
		logger.Warn("no model loaded at startup", "path", cfg.ModelPath, "error", err)
	}

	// Archive fetching is feature-flagged via ARCHIVE_ENABLED.
	var fetcher inpe.Fetcher
	if cfg.ArchiveEnabled {
		client, err := inpe.NewClient(inpe.ClientConfig{
			BaseURL: cfg.ArchiveBaseURL,
			Timeout: cfg.ArchiveTimeout,
		}, logger, metrics)
		if err != nil {
			logger.Error("failed to create archive client", "error", err)
			os.Exit(1)
		}
		fetcher = client
		logger.Info("archive fetching enabled", "url", cfg.ArchiveBaseURL, "timeout", cfg.ArchiveTimeout)
	} else {
		logger.Info("archive fetching disabled; serving local daily files only", "dir", cfg.DailyDir)
	}
	archive := inpe.NewArchive(cfg.DailyDir, fetcher, logger, metrics)

	assembler := pipeline.NewPredictionAssembler(parquet.SchemaFile{Path: cfg.TrainingTablePath}, logger, metrics)
	predictor := pipeline.NewPredictor(archive, assembler, models, logger)
	cached := pipeline.NewCachedPredictor(predictor, func() (string, bool) {
		a, err := models.Current()
		if err != nil {
			return "", false
		}
		return a.Version(), true
	}, cfg.PredictionCacheSize, metrics)

	var (
		writer    *kafkaadapter.Writer
		publisher scheduler.Publisher
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaPredictionsTopic)
	}

	var sched *scheduler.Scheduler
	if cfg.ScheduleEnabled {
		sched = scheduler.New(cfg.ScheduleAt, cached, publisher, logger, metrics)
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, models, cached, models, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
