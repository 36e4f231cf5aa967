package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/model"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// DailyFileSource resolves the local path of the daily file for a day,
// fetching it first if needed. A day with no file is domain.ErrNotFound.
type DailyFileSource interface {
	DailyFile(ctx context.Context, day time.Time) (string, error)
}

// Scorer predicts one value per row of a reconciled feature table and
// reports the artifact that produced them.
type Scorer interface {
	Score(features *table.Table) ([]float64, *model.Artifact, error)
}

// Prediction is the scored hotspot list for one day.
type Prediction struct {
	Date         time.Time
	ModelVersion string
	Records      []domain.HotspotRecord
}

// Predictor runs the daily prediction flow: resolve the target and
// previous-day files, assemble features, score, and write the predicted
// risco_fogo back onto each hotspot.
type Predictor struct {
	files     DailyFileSource
	assembler *PredictionAssembler
	scorer    Scorer
	logger    *slog.Logger
}

func NewPredictor(files DailyFileSource, assembler *PredictionAssembler, scorer Scorer, logger *slog.Logger) *Predictor {
	return &Predictor{files: files, assembler: assembler, scorer: scorer, logger: logger}
}

// Predict scores every hotspot observed on date.
func (p *Predictor) Predict(ctx context.Context, date time.Time) (*Prediction, error) {
	day := domain.Day(date)

	todayPath, err := p.files.DailyFile(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("resolve daily file for %s: %w", day.Format(time.DateOnly), err)
	}
	prevPath, err := p.files.DailyFile(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("resolve previous-day file for %s: %w", day.Format(time.DateOnly), err)
	}

	recs, today, err := LoadDaily(todayPath)
	if err != nil {
		return nil, err
	}
	_, prev, err := LoadDaily(prevPath)
	if err != nil {
		return nil, err
	}

	featureTable, err := p.assembler.Assemble(ctx, today, prev)
	if err != nil {
		return nil, err
	}
	preds, art, err := p.scorer.Score(featureTable)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	if len(preds) != len(recs) {
		return nil, fmt.Errorf("%w: %d predictions for %d hotspots", domain.ErrSchema, len(preds), len(recs))
	}

	out := make([]domain.HotspotRecord, len(recs))
	for i, r := range recs {
		r.FireRisk = domain.Float(preds[i])
		out[i] = r
	}
	p.logger.Info("prediction complete", "date", day.Format(time.DateOnly), "hotspots", len(out), "model", art.Version())
	return &Prediction{Date: day, ModelVersion: art.Version(), Records: out}, nil
}
