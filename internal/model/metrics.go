package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// R2 calculates the coefficient of determination.
// A constant target scores 1 when predicted exactly and 0 otherwise.
func R2(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	if len(actual) == 1 || stat.Variance(actual, nil) == 0 {
		if MSE(actual, predicted) == 0 {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(predicted, actual, nil)
}

// MSE calculates Mean Squared Error
func MSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return sum / float64(len(actual))
}

// MAE calculates Mean Absolute Error
func MAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// RMSE calculates Root Mean Squared Error
func RMSE(actual, predicted []float64) float64 {
	return math.Sqrt(MSE(actual, predicted))
}

// Evaluation holds the held-out metrics of a fitted model
type Evaluation struct {
	R2   float64 `json:"r2"`
	MSE  float64 `json:"mse"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// Evaluate predicts X with p and scores the predictions against y
func Evaluate(p Predictor, X *mat.Dense, y []float64) (Evaluation, error) {
	pred, err := p.Predict(X)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		R2:   R2(y, pred),
		MSE:  MSE(y, pred),
		MAE:  MAE(y, pred),
		RMSE: RMSE(y, pred),
	}, nil
}

// Map returns the evaluation keyed by metric name
func (e Evaluation) Map() map[string]float64 {
	return map[string]float64{"r2": e.R2, "mse": e.MSE, "mae": e.MAE, "rmse": e.RMSE}
}
