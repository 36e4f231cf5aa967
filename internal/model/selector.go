package model

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/table"
)

// Report describes one candidate's outcome during selection.
type Report struct {
	Name   string `json:"name"`
	Scores Scores `json:"scores"`
	Err    string `json:"error,omitempty"`
}

// Selector fits each candidate on the training table and keeps the one with
// the lowest validation MSE. The validation set is every row whose
// day_of_year is among the last ValidationDays distinct days.
type Selector struct {
	Candidates     []Regressor
	ValidationDays int
	Logger         *slog.Logger
}

// NewSelector returns a Selector over the default candidates.
func NewSelector(validationDays int, logger *slog.Logger) *Selector {
	return &Selector{Candidates: DefaultCandidates(), ValidationDays: validationDays, Logger: logger}
}

type split struct {
	xTrain, xVal *mat.Dense
	yTrain, yVal []float64
}

// Select trains every candidate and returns the winning artifact plus a
// report per candidate in candidate order. Candidates that fail to fit or
// produce non-finite scores are reported and skipped.
func (s *Selector) Select(t *table.Table) (*Artifact, []Report, error) {
	features := make([]string, 0, len(t.Names()))
	for _, n := range t.Names() {
		if n != domain.ColFireRisk {
			features = append(features, n)
		}
	}
	if !t.Has(domain.ColFireRisk) {
		return nil, nil, fmt.Errorf("%w: training table has no %s column", domain.ErrSchema, domain.ColFireRisk)
	}

	sp, err := s.split(t.FillNull(0), features)
	if err != nil {
		return nil, nil, err
	}

	var (
		best    *Artifact
		reports = make([]Report, 0, len(s.Candidates))
	)
	for _, c := range s.Candidates {
		rep := Report{Name: c.Name()}
		fitted, scores, err := evaluate(c, sp)
		if err != nil {
			rep.Err = err.Error()
			s.Logger.Warn("candidate rejected", "model", c.Name(), "error", err)
			reports = append(reports, rep)
			continue
		}
		rep.Scores = scores
		reports = append(reports, rep)
		s.Logger.Info("candidate scored", "model", c.Name(),
			"val_mse", scores.ValMSE, "val_mae", scores.ValMAE, "val_r2", scores.ValR2,
			"train_mse", scores.TrainMSE, "train_mae", scores.TrainMAE)

		if best == nil || scores.ValMSE < best.Scores.ValMSE {
			best = &Artifact{
				ID:       uuid.NewString(),
				Name:     c.Name(),
				Features: features,
				Linear:   fitted,
				Scores:   scores,
			}
		}
	}
	if best == nil {
		return nil, reports, errors.New("no candidate model could be fitted")
	}
	best.TrainedAt = domain.Now()
	return best, reports, nil
}

func evaluate(c Regressor, sp split) (Linear, Scores, error) {
	fitted, err := c.Fit(sp.xTrain, sp.yTrain)
	if err != nil {
		return Linear{}, Scores{}, err
	}
	if !fitted.finite() {
		return Linear{}, Scores{}, errors.New("fit produced non-finite coefficients")
	}
	trainPred, err := fitted.Predict(sp.xTrain)
	if err != nil {
		return Linear{}, Scores{}, err
	}
	valPred, err := fitted.Predict(sp.xVal)
	if err != nil {
		return Linear{}, Scores{}, err
	}
	scores := Scores{
		TrainMAE: MAE(trainPred, sp.yTrain),
		TrainMSE: MSE(trainPred, sp.yTrain),
		ValMAE:   MAE(valPred, sp.yVal),
		ValMSE:   MSE(valPred, sp.yVal),
		ValR2:    R2(valPred, sp.yVal),
	}
	if !scores.finite() {
		return Linear{}, Scores{}, errors.New("non-finite scores")
	}
	return fitted, scores, nil
}

// split orders rows by day_of_year and holds out the last distinct days. The
// number of held-out days is capped so at least one day remains for training.
func (s *Selector) split(t *table.Table, features []string) (split, error) {
	doy, err := Vector(t, domain.ColDayOfYear)
	if err != nil {
		return split{}, err
	}

	order := make([]int, t.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return doy[order[a]] < doy[order[b]] })

	var distinct []float64
	for _, i := range order {
		if len(distinct) == 0 || distinct[len(distinct)-1] != doy[i] {
			distinct = append(distinct, doy[i])
		}
	}
	if len(distinct) < 2 {
		return split{}, fmt.Errorf("%w: need at least two distinct days to validate, have %d", domain.ErrSchema, len(distinct))
	}
	n := s.ValidationDays
	if n <= 0 {
		n = 1
	}
	if n > len(distinct)-1 {
		n = len(distinct) - 1
	}
	threshold := distinct[len(distinct)-n]

	var trainIdx, valIdx []int
	for _, i := range order {
		if doy[i] >= threshold {
			valIdx = append(valIdx, i)
		} else {
			trainIdx = append(trainIdx, i)
		}
	}

	train, val := t.Take(trainIdx), t.Take(valIdx)
	var sp split
	if sp.xTrain, err = Matrix(train, features); err != nil {
		return split{}, err
	}
	if sp.xVal, err = Matrix(val, features); err != nil {
		return split{}, err
	}
	if sp.yTrain, err = Vector(train, domain.ColFireRisk); err != nil {
		return split{}, err
	}
	if sp.yVal, err = Vector(val, domain.ColFireRisk); err != nil {
		return split{}, err
	}
	return sp, nil
}
