package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/ridecast/ridecast/internal/utils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SearchConfig controls the hyperparameter search
type SearchConfig struct {
	Algorithm  string
	Grid       []Params // nil means the trainer's default grid
	Folds      int
	Iterations int
	Seed       int64
}

// DefaultSearchConfig returns the search defaults: forest, 3 folds, 10 sampled
// parameter sets, seed 42
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Algorithm:  utils.DefaultAlgorithm,
		Folds:      utils.DefaultFolds,
		Iterations: utils.DefaultSearchIterations,
		Seed:       utils.DefaultRandomSeed,
	}
}

// Trial is the cross-validated score of one parameter set
type Trial struct {
	Params     Params    `json:"params"`
	Score      float64   `json:"score"`
	FoldScores []float64 `json:"fold_scores"`
}

// SearchResult is the outcome of Search
type SearchResult struct {
	Best       Predictor
	BestParams Params
	BestScore  float64
	Trials     []Trial
}

// Search samples up to Iterations parameter sets from the grid, scores each by
// mean R² over k consecutive folds of the training rows, and refits the best
// one on all rows. Ties keep the earlier trial.
func Search(ctx context.Context, X *mat.Dense, y []float64, cfg SearchConfig) (*SearchResult, error) {
	trainer, err := GetTrainer(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if st, ok := trainer.(SeededTrainer); ok {
		trainer = st.WithSeed(cfg.Seed)
	}

	grid := cfg.Grid
	if len(grid) == 0 {
		grid = trainer.DefaultGrid()
	}
	if len(grid) == 0 {
		return nil, errors.New("empty parameter grid")
	}

	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, rows, len(y))
	}

	folds, err := KFolds(rows, cfg.Folds)
	if err != nil {
		return nil, err
	}

	candidates := sampleGrid(grid, cfg.Iterations, cfg.Seed)

	result := &SearchResult{Trials: make([]Trial, 0, len(candidates))}
	for i, params := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trial, err := crossValidate(trainer, X, y, folds, params)
		if err != nil {
			return nil, fmt.Errorf("trial %d (%v): %w", i, params, err)
		}
		result.Trials = append(result.Trials, trial)

		if i == 0 || trial.Score > result.BestScore {
			result.BestScore = trial.Score
			result.BestParams = trial.Params
		}
	}

	best, err := trainer.Fit(X, y, result.BestParams)
	if err != nil {
		return nil, fmt.Errorf("refit best parameters: %w", err)
	}
	result.Best = best

	return result, nil
}

func crossValidate(trainer Trainer, X *mat.Dense, y []float64, folds []Fold, params Params) (Trial, error) {
	scores := make([]float64, len(folds))
	for f, fold := range folds {
		p, err := trainer.Fit(selectRows(X, fold.Train), selectValues(y, fold.Train), params)
		if err != nil {
			return Trial{}, err
		}
		pred, err := p.Predict(selectRows(X, fold.Test))
		if err != nil {
			return Trial{}, err
		}
		scores[f] = R2(selectValues(y, fold.Test), pred)
	}
	return Trial{Params: params, Score: stat.Mean(scores, nil), FoldScores: scores}, nil
}

// sampleGrid returns the whole grid when it has at most n entries, otherwise n
// distinct entries drawn with the seeded generator.
func sampleGrid(grid []Params, n int, seed int64) []Params {
	if n <= 0 || len(grid) <= n {
		return grid
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(grid))
	out := make([]Params, n)
	for i := 0; i < n; i++ {
		out[i] = grid[perm[i]]
	}
	return out
}
