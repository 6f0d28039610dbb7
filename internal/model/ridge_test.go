package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRidgeTrainer_RecoversLinearFunction(t *testing.T) {
	X, y := generateLinearData(200, 3, []float64{2, -1, 0.5}, 0, 7)

	p, err := NewRidgeTrainer().Fit(X, y, Params{ParamAlpha: 1e-6})
	require.NoError(t, err)

	s := p.Snapshot()
	assert.InDelta(t, 3, s.Intercept, 1e-3)
	assert.InDelta(t, 2, s.Coefficients[0], 1e-3)
	assert.InDelta(t, -1, s.Coefficients[1], 1e-3)
	assert.InDelta(t, 0.5, s.Coefficients[2], 1e-3)

	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, R2(y, pred), 1e-6)
}

func TestRidgeTrainer_ConstantAndCollinearColumns(t *testing.T) {
	base, y := generateLinearData(100, 10, []float64{4, 2}, 0.01, 3)

	// third column is constant, fourth is the mean of the first two
	X := mat.NewDense(100, 4, nil)
	for i := 0; i < 100; i++ {
		a, b := base.At(i, 0), base.At(i, 1)
		X.SetRow(i, []float64{a, b, 5, (a + b) / 2})
	}

	p, err := NewRidgeTrainer().Fit(X, y, Params{ParamAlpha: 0.01})
	require.NoError(t, err)

	s := p.Snapshot()
	assert.Equal(t, 0.0, s.Coefficients[2])

	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, R2(y, pred), 0.99)
}

func TestRidgeTrainer_PenaltyShrinks(t *testing.T) {
	X, y := generateLinearData(100, 0, []float64{5}, 0.1, 11)

	small, err := NewRidgeTrainer().Fit(X, y, Params{ParamAlpha: 0.001})
	require.NoError(t, err)
	large, err := NewRidgeTrainer().Fit(X, y, Params{ParamAlpha: 1000})
	require.NoError(t, err)

	assert.Less(t, large.Snapshot().Coefficients[0], small.Snapshot().Coefficients[0])
	assert.Greater(t, large.Snapshot().Coefficients[0], 0.0)
}

func TestRidgeTrainer_InvalidInput(t *testing.T) {
	X, y := generateLinearData(10, 0, []float64{1}, 0, 1)

	_, err := NewRidgeTrainer().Fit(X, y, Params{ParamAlpha: 0})
	assert.Error(t, err)

	_, err = NewRidgeTrainer().Fit(X, y[:5], Params{ParamAlpha: 1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMeanTrainer(t *testing.T) {
	X, y := indexedRows(5)

	p, err := NewMeanTrainer().Fit(X, y, nil)
	require.NoError(t, err)
	assert.Equal(t, "mean", p.Name())

	pred, err := p.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2, 2, 2}, pred)
}

func TestPredict_WrongWidth(t *testing.T) {
	X, y := generateLinearData(10, 0, []float64{1, 2}, 0, 1)
	p, err := NewRidgeTrainer().Fit(X, y, Params{ParamAlpha: 1})
	require.NoError(t, err)

	_, err = p.Predict(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRestore(t *testing.T) {
	X, y := generateLinearData(50, 1, []float64{1, 2, 3}, 0.1, 5)
	p, err := NewRidgeTrainer().Fit(X, y, Params{ParamAlpha: 0.1})
	require.NoError(t, err)

	restored, err := Restore(p.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, "ridge", restored.Name())

	want, _ := p.Predict(X)
	got, err := restored.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestore_Invalid(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"nil", nil},
		{"unknown algorithm", &Snapshot{Algorithm: "xgboost", Features: 1, Coefficients: []float64{1}}},
		{"no features", &Snapshot{Algorithm: "ridge"}},
		{"coefficient count", &Snapshot{Algorithm: "ridge", Features: 2, Coefficients: []float64{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(tt.snap)
			assert.Error(t, err)
		})
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"forest", "mean", "ridge"}, ListTrainers())

	tr, err := GetTrainer("ridge")
	require.NoError(t, err)
	assert.Equal(t, "ridge", tr.Name())

	_, err = GetTrainer("random_forest")
	assert.Error(t, err)
}
