package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scores are the evaluation metrics of one fitted candidate.
type Scores struct {
	TrainMAE float64 `json:"train_mae"`
	TrainMSE float64 `json:"train_mse"`
	ValMAE   float64 `json:"val_mae"`
	ValMSE   float64 `json:"val_mse"`
	ValR2    float64 `json:"val_r2"`
}

func (s Scores) finite() bool {
	for _, v := range []float64{s.TrainMAE, s.TrainMSE, s.ValMAE, s.ValMSE} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MAE is the mean absolute error of predicted against actual.
func MAE(predicted, actual []float64) float64 {
	sum := 0.0
	for i := range actual {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(len(actual))
}

// MSE is the mean squared error of predicted against actual.
func MSE(predicted, actual []float64) float64 {
	sum := 0.0
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// R2 is the coefficient of determination. It is NaN when actual is constant.
func R2(predicted, actual []float64) float64 {
	return stat.RSquaredFrom(predicted, actual, nil)
}
