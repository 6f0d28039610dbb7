package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// generateLinearData creates n rows of uniform features and
// y = intercept + X·coef + noise*N(0,1)
func generateLinearData(n int, intercept float64, coef []float64, noise float64, seed int64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, len(coef), nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := intercept
		for j, c := range coef {
			x := rng.Float64()
			X.Set(i, j, x)
			v += c * x
		}
		y[i] = v + noise*rng.NormFloat64()
	}
	return X, y
}

// indexedRows returns an n x 1 matrix and targets that both equal the row index
func indexedRows(n int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y[i] = float64(i)
	}
	return X, y
}
