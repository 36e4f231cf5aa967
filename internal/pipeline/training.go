package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/parquet"
	"github.com/couchcryptid/fire-risk-service/internal/features"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// ErrEmptyTrainingTable is returned when filtering leaves no rows to persist.
var ErrEmptyTrainingTable = errors.New("training table is empty")

// TrainingStages returns the training feature stages in order. The lag
// stage runs on the risk-filtered rows, so lags only see positive-risk days.
func TrainingStages(cutoff time.Time) []Stage {
	return []Stage{
		{Name: "temporal", Apply: features.EncodeTemporal},
		{Name: "drop_identifiers", Apply: features.DropIdentifiers},
		{Name: "positive_risk", Apply: features.KeepPositiveRisk},
		{Name: "city_lags", Apply: features.BuildCityLags},
		{Name: "categorical", Apply: features.EncodeCategoricals},
		{Name: "select_columns", Apply: features.SelectTrainingColumns},
		{Name: "cutoff", Apply: features.KeepSince(cutoff)},
	}
}

// TrainingAssembler builds the TrainingTable from a folder of historical
// daily files. It is the only writer of the persisted table.
type TrainingAssembler struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewTrainingAssembler returns an assembler keeping rows on or after cutoff.
func NewTrainingAssembler(cutoff time.Time, logger *slog.Logger, metrics *observability.Metrics) *TrainingAssembler {
	return &TrainingAssembler{
		pipeline: New("training", TrainingStages(cutoff), logger, metrics),
		logger:   logger,
	}
}

// Assemble loads dir and runs the training stages.
func (a *TrainingAssembler) Assemble(ctx context.Context, dir string) (*table.Table, error) {
	raw, err := LoadFolder(dir, true)
	if err != nil {
		return nil, err
	}
	a.logger.Info("history loaded", "dir", dir, "rows", raw.Len())

	out, err := a.pipeline.Run(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("assemble training table: %w", err)
	}
	if out.Len() == 0 {
		return nil, ErrEmptyTrainingTable
	}
	return out, nil
}

// Build assembles the TrainingTable and persists it to outPath. The file
// is replaced only after the whole table has been built.
func (a *TrainingAssembler) Build(ctx context.Context, dir, outPath string) (*table.Table, error) {
	out, err := a.Assemble(ctx, dir)
	if err != nil {
		return nil, err
	}
	if err := parquet.WriteFile(outPath, out); err != nil {
		return nil, fmt.Errorf("persist training table: %w", err)
	}
	a.logger.Info("training table written", "path", outPath, "rows", out.Len(), "columns", len(out.Names()))
	return out, nil
}
