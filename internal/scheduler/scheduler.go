// Package scheduler runs the daily prediction job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
)

// jobTimeout bounds one run, archive downloads included.
const jobTimeout = 10 * time.Minute

// Publisher ships a finished prediction downstream.
type Publisher interface {
	Publish(ctx context.Context, pred *pipeline.Prediction) error
}

// Scheduler predicts for the previous UTC day once a day at a fixed time.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	at         string
	forecaster pipeline.Forecaster
	publisher  Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Scheduler firing daily at at (HH:MM, UTC). publisher may be
// nil, in which case predictions are only computed, which warms the cache.
func New(at string, forecaster pipeline.Forecaster, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		at:         at,
		forecaster: forecaster,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled prediction failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily prediction at %s: %w", s.at, err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "at", s.at)
	return nil
}

// RunOnce predicts for yesterday and publishes the result.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	day := domain.Day(domain.Now()).AddDate(0, 0, -1)
	s.logger.Info("scheduled prediction starting", "date", day.Format(time.DateOnly))

	pred, err := s.forecaster.Predict(ctx, day)
	if err != nil {
		s.metrics.SchedulerRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("predict %s: %w", day.Format(time.DateOnly), err)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, pred); err != nil {
			s.metrics.SchedulerRuns.WithLabelValues("error").Inc()
			return err
		}
	}
	s.metrics.SchedulerRuns.WithLabelValues("success").Inc()
	s.logger.Info("scheduled prediction complete", "date", day.Format(time.DateOnly), "hotspots", len(pred.Records))
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
