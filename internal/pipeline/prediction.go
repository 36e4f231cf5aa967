package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/features"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// SchemaSource provides the ModelSchema of the persisted training table.
type SchemaSource interface {
	Schema() (domain.ModelSchema, error)
}

// PredictionStages returns the inference stages for one target day. The
// previous day contributes per-city means rather than a calendar lag, which
// differs from how training derives the same columns.
func PredictionStages(prev *table.Table, schema domain.ModelSchema) []Stage {
	return []Stage{
		{Name: "temporal", Apply: features.EncodeTemporal},
		{Name: "day_before", Apply: func(t *table.Table) (*table.Table, error) {
			return features.JoinDayBefore(t, prev)
		}},
		{Name: "categorical", Apply: features.EncodeCategoricals},
		{Name: "reconcile", Apply: func(t *table.Table) (*table.Table, error) {
			return features.Reconcile(t, schema)
		}},
	}
}

// PredictionAssembler builds InferenceTables. It reads the schema on every
// call and never writes it.
type PredictionAssembler struct {
	schema  SchemaSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewPredictionAssembler(schema SchemaSource, logger *slog.Logger, metrics *observability.Metrics) *PredictionAssembler {
	return &PredictionAssembler{schema: schema, logger: logger, metrics: metrics}
}

// Assemble turns today's rows into a model-ready table using prev for the
// day-before features. The result has one row per input row, in order.
func (a *PredictionAssembler) Assemble(ctx context.Context, today, prev *table.Table) (*table.Table, error) {
	schema, err := a.schema.Schema()
	if err != nil {
		return nil, fmt.Errorf("load model schema: %w", err)
	}
	p := New("prediction", PredictionStages(prev, schema), a.logger, a.metrics)
	out, err := p.Run(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("assemble inference table: %w", err)
	}
	return out, nil
}
