// Command fetch downloads daily hotspot files from the INPE archive into
// the daily directory. By default it fetches the requested day and the day
// before, which is what a prediction for that day needs.
//
// Usage:
//
//	go run ./cmd/fetch -date 20-05-2025 -days 2
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/inpe"
	"github.com/couchcryptid/fire-risk-service/internal/config"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	yesterday := domain.Day(domain.Now()).AddDate(0, 0, -1)
	dateFlag := flag.String("date", yesterday.Format(domain.RequestDateLayout), "last day to fetch (DD-MM-YYYY)")
	days := flag.Int("days", 2, "number of consecutive days to fetch, ending at -date")
	dir := flag.String("dir", cfg.DailyDir, "destination directory")
	baseURL := flag.String("url", cfg.ArchiveBaseURL, "archive directory URL")
	flag.Parse()

	last, err := domain.ParseRequestDate(*dateFlag)
	if err != nil {
		return err
	}
	if *days <= 0 {
		return errors.New("-days must be positive")
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	client, err := inpe.NewClient(inpe.ClientConfig{BaseURL: *baseURL, Timeout: cfg.ArchiveTimeout}, logger, metrics)
	if err != nil {
		return err
	}
	archive := inpe.NewArchive(*dir, client, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var result *multierror.Error
	fetched := 0
	for i := *days - 1; i >= 0; i-- {
		day := last.AddDate(0, 0, -i)
		paths, err := archive.Fetch(ctx, day)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", day.Format(time.DateOnly), err))
			continue
		}
		fetched += len(paths)
	}
	logger.Info("fetch complete", "files", fetched, "dir", *dir)
	return result.ErrorOrNil()
}
