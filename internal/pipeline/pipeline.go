// Package pipeline assembles feature tables from daily hotspot files and
// turns them into predictions. Each assembler is an explicit ordered list of
// named stages run by the same logging, metered runner.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// Stage is one named table transform.
type Stage struct {
	Name  string
	Apply func(*table.Table) (*table.Table, error)
}

// Pipeline runs stages in order. A failing stage aborts the run; there is no
// partial output.
type Pipeline struct {
	name    string
	stages  []Stage
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(name string, stages []Stage, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		name:    name,
		stages:  stages,
		logger:  logger.With("pipeline", name),
		metrics: metrics,
	}
}

// StageNames lists the stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run applies every stage to t. Cancellation is checked between stages.
func (p *Pipeline) Run(ctx context.Context, t *table.Table) (*table.Table, error) {
	start := time.Now()
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stageStart := time.Now()
		out, err := s.Apply(t)
		p.metrics.StageDuration.WithLabelValues(p.name, s.Name).Observe(time.Since(stageStart).Seconds())
		if err != nil {
			p.metrics.AssemblyErrors.WithLabelValues(p.name, s.Name).Inc()
			p.logger.Error("stage failed", "stage", s.Name, "rows", t.Len(), "error", err)
			return nil, fmt.Errorf("stage %s: %w", s.Name, err)
		}
		p.logger.Debug("stage complete",
			"stage", s.Name,
			"rows", out.Len(),
			"columns", len(out.Names()),
			"duration", time.Since(stageStart),
		)
		t = out
	}

	p.metrics.RowsProcessed.WithLabelValues(p.name).Add(float64(t.Len()))
	p.logger.Info("pipeline complete", "rows", t.Len(), "columns", len(t.Names()), "duration", time.Since(start))
	return t, nil
}
