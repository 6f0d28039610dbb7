package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ParamAlpha is the ridge penalty
const ParamAlpha = "alpha"

// DefaultAlphas is the penalty grid searched when none is configured
var DefaultAlphas = []float64{0.001, 0.01, 0.1, 0.3, 1, 3, 10, 30, 100, 300, 1000, 3000}

// RidgeTrainer fits an L2-penalized linear regression.
//
// Features are standardized before fitting so one penalty applies evenly to
// every column; the intercept is not penalized. Constant columns get a zero
// coefficient. The normal equations (ZᵀZ + αI)β = Zᵀy are solved by Cholesky
// factorization.
type RidgeTrainer struct{}

// NewRidgeTrainer creates a new ridge trainer
func NewRidgeTrainer() *RidgeTrainer {
	return &RidgeTrainer{}
}

func init() {
	RegisterTrainer("ridge", NewRidgeTrainer())
}

// Name returns the algorithm name
func (t *RidgeTrainer) Name() string {
	return "ridge"
}

// Restore rebuilds a fitted model from its snapshot
func (t *RidgeTrainer) Restore(s *Snapshot) (Predictor, error) {
	return restoreLinear(s)
}

// DefaultGrid returns one parameter set per default alpha
func (t *RidgeTrainer) DefaultGrid() []Params {
	return AlphaGrid(DefaultAlphas)
}

// AlphaGrid builds a ridge parameter grid from penalty values
func AlphaGrid(alphas []float64) []Params {
	grid := make([]Params, len(alphas))
	for i, a := range alphas {
		grid[i] = Params{ParamAlpha: a}
	}
	return grid
}

// Fit trains the model
func (t *RidgeTrainer) Fit(X mat.Matrix, y []float64, params Params) (Predictor, error) {
	rows, cols, err := checkTrainingShape(X, y)
	if err != nil {
		return nil, err
	}

	alpha, ok := params[ParamAlpha]
	if !ok {
		alpha = 1
	}
	if alpha <= 0 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("ridge alpha must be positive, got %v", alpha)
	}

	means := make([]float64, cols)
	scales := make([]float64, cols)
	z := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		means[j] = mean
		if std == 0 || math.IsNaN(std) {
			// constant column: leave Z zero so the coefficient stays 0
			continue
		}
		scales[j] = std
		for i, v := range col {
			z.Set(i, j, (v-mean)/std)
		}
	}

	yMean := stat.Mean(y, nil)
	yc := make([]float64, rows)
	for i, v := range y {
		yc[i] = v - yMean
	}

	var gram mat.SymDense
	gram.SymOuterK(1, z.T())
	for j := 0; j < cols; j++ {
		gram.SetSym(j, j, gram.At(j, j)+alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, fmt.Errorf("ridge system is not positive definite (alpha=%v)", alpha)
	}

	var zty mat.VecDense
	zty.MulVec(z.T(), mat.NewVecDense(rows, yc))

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &zty); err != nil {
		return nil, fmt.Errorf("solve ridge system: %w", err)
	}

	// back to the raw feature scale
	coef := make([]float64, cols)
	intercept := yMean
	for j := 0; j < cols; j++ {
		if scales[j] == 0 {
			continue
		}
		coef[j] = beta.AtVec(j) / scales[j]
		intercept -= coef[j] * means[j]
	}

	return newLinearModel(t.Name(), Params{ParamAlpha: alpha}, intercept, coef), nil
}
