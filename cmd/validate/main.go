// Command validate checks that a training table, the model artifact trained
// from it, and optionally a pair of daily files agree with each other. It
// verifies the persisted schema, label and feature invariants, that the
// artifact's features match the schema, and that the inference path can
// reconcile and score a real day.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -table prepared_data/data_prepared.parquet \
//	  -model fire_risk_model.json \
//	  -daily-dir daily_data -date 20-05-2025
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/inpe"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/parquet"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/features"
	"github.com/couchcryptid/fire-risk-service/internal/model"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
	"github.com/couchcryptid/fire-risk-service/internal/pipeline"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	tablePath := flag.String("table", "prepared_data/data_prepared.parquet", "training table Parquet path")
	modelPath := flag.String("model", "fire_risk_model.json", "model artifact path")
	dailyDir := flag.String("daily-dir", "", "directory of daily CSV files (optional)")
	date := flag.String("date", "", "day to score from -daily-dir (DD-MM-YYYY)")
	flag.Parse()

	if *tablePath == "" || *modelPath == "" || (*dailyDir != "") != (*date != "") {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*tablePath, *modelPath, *dailyDir, *date))
}

func run(tablePath, modelPath, dailyDir, date string) int {
	fmt.Println("=== Fire Risk Model Validation ===")
	fmt.Println()

	schema, err := parquet.ReadSchema(tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read schema: %v\n", err)
		return 1
	}
	tbl, err := parquet.ReadTable(tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read training table: %v\n", err)
		return 1
	}
	art, err := model.Load(modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load model: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(schema, tbl),
		validateTrainingRows(tbl),
		validateModel(art, schema),
	}
	if dailyDir != "" {
		phases = append(phases, validateInference(tablePath, art, dailyDir, date))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Training table: %d rows, %d columns; model %s with %d features\n",
		tbl.Len(), len(schema.Columns), art.Version(), len(art.Features))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateSchema checks the persisted column list: base columns present in
// order, indicators after them, and nothing else.
func validateSchema(schema domain.ModelSchema, t *table.Table) *phase {
	p := &phase{name: "Training table schema"}
	if err := schema.Validate(); err != nil {
		p.errorf("%v", err)
		return p
	}

	names := schema.Names()
	base := slices.DeleteFunc(slices.Clone(features.TrainingBaseColumns), func(n string) bool { return n == domain.ColDate })
	if len(names) < len(base) {
		p.errorf("schema has %d columns, want at least %d", len(names), len(base))
		return p
	}
	if !slices.Equal(names[:len(base)], base) {
		p.errorf("leading columns %v, want %v", names[:len(base)], base)
	}
	for _, c := range schema.Columns[len(base):] {
		col, ok := t.Column(c.Name)
		if !ok || !features.IsDummy(col) {
			p.errorf("unexpected column %q (%s) after the base columns", c.Name, c.Type)
		}
	}
	return p
}

// validateTrainingRows checks value-level invariants of the persisted rows.
func validateTrainingRows(t *table.Table) *phase {
	p := &phase{name: "Training table rows"}
	if t.Len() == 0 {
		p.errorf("training table is empty")
		return p
	}
	if risk, ok := t.Column(domain.ColFireRisk); ok {
		bad := 0
		for i := range t.Len() {
			if v, valid := risk.Float(i); !valid || v <= 0 {
				bad++
			}
		}
		if bad > 0 {
			p.errorf("%d rows have %s missing or <= 0", bad, domain.ColFireRisk)
		}
	}
	if cos, ok := t.Column(domain.ColCosDayOfYear); ok {
		for i := range t.Len() {
			if v, valid := cos.Float(i); valid && (v < -1 || v > 1) {
				p.errorf("row %d: %s = %v outside [-1, 1]", i, domain.ColCosDayOfYear, v)
				break
			}
		}
	}
	for _, c := range t.Columns() {
		if n := c.NullCount(); n > 0 && c.Name() != domain.ColDaysWithoutRainDayBefore && c.Name() != domain.ColPrecipitationDayBefore {
			p.errorf("column %q has %d nulls", c.Name(), n)
		}
	}
	return p
}

// validateModel checks the artifact is usable and trained on this schema.
func validateModel(art *model.Artifact, schema domain.ModelSchema) *phase {
	p := &phase{name: "Model artifact alignment"}
	if len(art.Coefficients) != len(art.Features) {
		p.errorf("%d coefficients for %d features", len(art.Coefficients), len(art.Features))
	}
	if math.IsNaN(art.Intercept) || math.IsInf(art.Intercept, 0) {
		p.errorf("intercept is %v", art.Intercept)
	}
	for i, c := range art.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			p.errorf("coefficient %d (%s) is %v", i, art.Features[min(i, len(art.Features)-1)], c)
		}
	}

	want := make([]string, 0, len(schema.Columns))
	for _, c := range schema.Features(domain.ColFireRisk) {
		want = append(want, c.Name)
	}
	if !slices.Equal(art.Features, want) {
		missing, extra := diff(want, art.Features)
		p.errorf("model features differ from schema: missing %s, extra %s", list(missing), list(extra))
	}
	return p
}

// validateInference runs the full prediction path for one day from local
// files and checks one finite prediction per hotspot.
func validateInference(tablePath string, art *model.Artifact, dailyDir, date string) *phase {
	p := &phase{name: "Inference path"}
	day, err := domain.ParseRequestDate(date)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	logger := slog.New(slog.DiscardHandler)
	metrics := observability.NewMetricsForTesting()
	svc := model.NewService("", logger, metrics)
	svc.Set(art)

	predictor := pipeline.NewPredictor(
		inpe.NewArchive(dailyDir, nil, logger, metrics),
		pipeline.NewPredictionAssembler(parquet.SchemaFile{Path: tablePath}, logger, metrics),
		svc,
		logger,
	)
	pred, err := predictor.Predict(context.Background(), day)
	if err != nil {
		p.errorf("predict %s: %v", date, err)
		return p
	}
	for _, r := range pred.Records {
		if r.FireRisk == nil || math.IsNaN(*r.FireRisk) || math.IsInf(*r.FireRisk, 0) {
			p.errorf("hotspot %s has no finite prediction", r.ID)
		}
	}
	fmt.Printf("Scored %d hotspots for %s\n", len(pred.Records), date)
	return p
}

func diff(want, got []string) (missing, extra []string) {
	for _, w := range want {
		if !slices.Contains(got, w) {
			missing = append(missing, w)
		}
	}
	for _, g := range got {
		if !slices.Contains(want, g) {
			extra = append(extra, g)
		}
	}
	return missing, extra
}

func list(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
