package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sajari/regression"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Linear is a fitted linear form: Intercept + sum(Coefficients[j] * x[j]).
type Linear struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Predict scores every row of x.
func (l Linear) Predict(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if cols != len(l.Coefficients) {
		return nil, fmt.Errorf("matrix has %d columns, model has %d coefficients", cols, len(l.Coefficients))
	}
	out := make([]float64, rows)
	beta := mat.NewVecDense(cols, l.Coefficients)
	var yhat mat.VecDense
	yhat.MulVec(x, beta)
	for i := range out {
		out[i] = l.Intercept + yhat.AtVec(i)
	}
	return out, nil
}

func (l Linear) finite() bool {
	if math.IsNaN(l.Intercept) || math.IsInf(l.Intercept, 0) {
		return false
	}
	for _, c := range l.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Regressor is a candidate learning algorithm.
type Regressor interface {
	Name() string
	Fit(x *mat.Dense, y []float64) (Linear, error)
}

// Mean predicts the training mean for every row. It is the baseline every
// other candidate has to beat.
type Mean struct{}

func (Mean) Name() string { return "mean" }

func (Mean) Fit(x *mat.Dense, y []float64) (Linear, error) {
	if len(y) == 0 {
		return Linear{}, errors.New("no training rows")
	}
	_, cols := x.Dims()
	return Linear{Intercept: stat.Mean(y, nil), Coefficients: make([]float64, cols)}, nil
}

// OLS is ordinary least squares.
type OLS struct{}

func (OLS) Name() string { return "linear" }

func (OLS) Fit(x *mat.Dense, y []float64) (Linear, error) {
	rows, cols := x.Dims()
	var r regression.Regression
	r.SetObserved("risco_fogo")
	for j := 0; j < cols; j++ {
		r.SetVar(j, "x"+strconv.Itoa(j))
	}
	for i := 0; i < rows; i++ {
		r.Train(regression.DataPoint(y[i], mat.Row(nil, i, x)))
	}
	if err := r.Run(); err != nil {
		return Linear{}, fmt.Errorf("run regression: %w", err)
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) != cols+1 {
		return Linear{}, fmt.Errorf("regression returned %d coefficients, want %d", len(coeffs), cols+1)
	}
	return Linear{Intercept: coeffs[0], Coefficients: append([]float64(nil), coeffs[1:]...)}, nil
}

// Ridge is L2-regularised least squares on centred features. The intercept
// is not penalised. Lambda must be positive, which also keeps the fit
// well-defined when indicator columns are collinear.
type Ridge struct {
	Lambda float64
}

func (r Ridge) Name() string { return "ridge" }

func (r Ridge) Fit(x *mat.Dense, y []float64) (Linear, error) {
	if r.Lambda <= 0 {
		return Linear{}, fmt.Errorf("ridge lambda must be positive, got %v", r.Lambda)
	}
	rows, cols := x.Dims()
	if rows == 0 {
		return Linear{}, errors.New("no training rows")
	}

	means := make([]float64, cols)
	centred := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		means[j] = stat.Mean(col, nil)
		floats.AddConst(-means[j], col)
		centred.SetCol(j, col)
	}
	yMean := stat.Mean(y, nil)
	yc := append([]float64(nil), y...)
	floats.AddConst(-yMean, yc)

	var gram mat.SymDense
	gram.SymOuterK(1, centred.T())
	for j := 0; j < cols; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.Lambda)
	}
	var rhs mat.VecDense
	rhs.MulVec(centred.T(), mat.NewVecDense(rows, yc))

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return Linear{}, errors.New("ridge system is not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &rhs); err != nil {
		return Linear{}, fmt.Errorf("solve ridge system: %w", err)
	}

	coeffs := make([]float64, cols)
	for j := range coeffs {
		coeffs[j] = beta.AtVec(j)
	}
	return Linear{Intercept: yMean - floats.Dot(coeffs, means), Coefficients: coeffs}, nil
}

// DefaultCandidates is the candidate set used by training.
func DefaultCandidates() []Regressor {
	return []Regressor{Mean{}, OLS{}, Ridge{Lambda: 1}}
}
