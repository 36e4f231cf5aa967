// Command prepare builds the training table from a folder of historical
// daily hotspot CSVs and writes it as Parquet. The column order of the
// output is the model schema used at prediction time.
//
// Usage:
//
//	go run ./cmd/prepare -data-dir data -out prepared_data/data_prepared.parquet
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/config"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("prepare failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dataDir := flag.String("data-dir", cfg.HistoryDir, "directory of historical daily CSV files")
	out := flag.String("out", cfg.TrainingTablePath, "output Parquet path")
	cutoff := flag.String("cutoff", cfg.DateCutoff.Format(time.DateOnly), "keep rows on or after this date (YYYY-MM-DD)")
	flag.Parse()

	since, err := time.ParseInLocation(time.DateOnly, *cutoff, time.UTC)
	if err != nil {
		return fmt.Errorf("parse -cutoff: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	t, err := pipeline.NewTrainingAssembler(since, logger, metrics).Build(ctx, *dataDir, *out)
	if err != nil {
		return err
	}
	logger.Info("prepare complete",
		"rows", t.Len(),
		"columns", len(t.Names()),
		"out", *out,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return nil
}
