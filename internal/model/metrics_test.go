package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostProcess(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{-3.7, 0},
		{41.4, 41},
		{41.6, 42},
		{0, 0},
		{0.4, 0},
		{2.5, 2},
		{3.5, 4},
		{math.NaN(), 0},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PostProcess(tt.raw), "raw=%v", tt.raw)
	}
}

func TestR2(t *testing.T) {
	actual := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.0, R2(actual, actual), 1e-12)
	assert.InDelta(t, 0.0, R2(actual, []float64{2.5, 2.5, 2.5, 2.5}), 1e-12)
	assert.Less(t, R2(actual, []float64{4, 3, 2, 1}), 0.0)

	assert.Equal(t, 1.0, R2([]float64{3, 3}, []float64{3, 3}))
	assert.Equal(t, 0.0, R2([]float64{3, 3}, []float64{2, 3}))
	assert.Equal(t, 0.0, R2(nil, nil))
}

func TestErrorMetrics(t *testing.T) {
	actual := []float64{1, 2, 3}
	predicted := []float64{2, 2, 1}

	assert.InDelta(t, 5.0/3, MSE(actual, predicted), 1e-12)
	assert.InDelta(t, 1.0, MAE(actual, predicted), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), RMSE(actual, predicted), 1e-12)

	assert.Equal(t, 0.0, MSE(actual, predicted[:2]))
}

func TestEvaluate(t *testing.T) {
	X, y := indexedRows(6)
	p, err := NewMeanTrainer().Fit(X, y, nil)
	require.NoError(t, err)

	eval, err := Evaluate(p, X, y)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, eval.R2, 1e-12)
	assert.InDelta(t, 1.5, eval.MAE, 1e-12)
	assert.Contains(t, eval.Map(), "rmse")
}
