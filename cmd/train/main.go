// Command train fits every candidate regressor on the training table,
// prints their scores, and saves the best one as the model artifact.
//
// Usage:
//
//	go run ./cmd/train -table prepared_data/data_prepared.parquet -model fire_risk_model.json
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/parquet"
	"github.com/couchcryptid/fire-risk-service/internal/config"
	"github.com/couchcryptid/fire-risk-service/internal/model"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("train failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	tablePath := flag.String("table", cfg.TrainingTablePath, "training table Parquet path")
	modelPath := flag.String("model", cfg.ModelPath, "output model artifact path")
	validationDays := flag.Int("validation-days", cfg.ValidationDays, "number of trailing distinct days held out for validation")
	flag.Parse()

	if *validationDays <= 0 {
		return fmt.Errorf("-validation-days must be positive")
	}

	logger := observability.NewLogger(cfg)

	t, err := parquet.ReadTable(*tablePath)
	if err != nil {
		return fmt.Errorf("read training table: %w", err)
	}
	logger.Info("training table loaded", "path", *tablePath, "rows", t.Len(), "columns", len(t.Names()))

	best, reports, err := model.NewSelector(*validationDays, logger).Select(t)
	printReports(reports, best)
	if err != nil {
		return err
	}

	if err := best.Save(*modelPath); err != nil {
		return err
	}
	logger.Info("model saved", "path", *modelPath, "model", best.Name, "version", best.Version())
	return nil
}

func printReports(reports []model.Report, best *model.Artifact) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tVAL MSE\tVAL MAE\tVAL R2\tTRAIN MSE\tTRAIN MAE\t")
	for _, r := range reports {
		if r.Err != "" {
			fmt.Fprintf(tw, "%s\trejected: %s\t\t\t\t\t\n", r.Name, r.Err)
			continue
		}
		mark := ""
		if best != nil && r.Name == best.Name {
			mark = " *"
		}
		s := r.Scores
		fmt.Fprintf(tw, "%s%s\t%.5f\t%.5f\t%.4f\t%.5f\t%.5f\t\n",
			r.Name, mark, s.ValMSE, s.ValMAE, s.ValR2, s.TrainMSE, s.TrainMAE)
	}
	tw.Flush() //nolint:errcheck // stdout report
}
