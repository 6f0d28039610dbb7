// Package model contains the regressors used to predict hourly rental counts,
// the hyperparameter search run at training time and the serializable
// snapshot form persisted as the model artifact.
package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when a matrix does not have the width the
// model was fitted on
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Params holds the hyperparameters of one fit
type Params map[string]float64

// Predictor maps encoded feature rows to raw predictions
type Predictor interface {
	// Name returns the algorithm name
	Name() string
	// Predict returns one raw prediction per row of X
	Predict(X mat.Matrix) ([]float64, error)
	// Snapshot returns the serializable form of the fitted model
	Snapshot() *Snapshot
}

// Trainer fits a Predictor for a given parameter set
type Trainer interface {
	// Name returns the algorithm name
	Name() string
	// Fit trains on X (rows = records) and y
	Fit(X mat.Matrix, y []float64, params Params) (Predictor, error)
	// DefaultGrid returns the parameter sets searched when none are configured
	DefaultGrid() []Params
	// Restore rebuilds a fitted model from its snapshot
	Restore(s *Snapshot) (Predictor, error)
}

// SeededTrainer is implemented by trainers whose fit draws random numbers.
// Search passes its seed through WithSeed.
type SeededTrainer interface {
	WithSeed(seed int64) Trainer
}

var trainerRegistry = make(map[string]Trainer)

// RegisterTrainer adds a trainer to the registry
func RegisterTrainer(name string, trainer Trainer) {
	trainerRegistry[name] = trainer
}

// GetTrainer returns a trainer by name
func GetTrainer(name string) (Trainer, error) {
	if trainer, ok := trainerRegistry[name]; ok {
		return trainer, nil
	}
	return nil, fmt.Errorf("unknown algorithm: %s", name)
}

// ListTrainers returns the registered algorithm names, sorted
func ListTrainers() []string {
	names := make([]string, 0, len(trainerRegistry))
	for name := range trainerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot is the persisted form of a fitted model. Linear models fill
// Intercept and Coefficients, on the scale of the raw (unstandardized)
// features so a prediction is Intercept + x·Coefficients. Tree ensembles
// fill Forest.
type Snapshot struct {
	Algorithm    string             `json:"algorithm"`
	Params       Params             `json:"params,omitempty"`
	Features     int                `json:"features"`
	Intercept    float64            `json:"intercept,omitempty"`
	Coefficients []float64          `json:"coefficients,omitempty"`
	Forest       *ForestSnapshot    `json:"forest,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	TrainedAt    time.Time          `json:"trained_at,omitempty"`
}

// Restore rebuilds a predictor from its snapshot using the trainer
// registered for its algorithm
func Restore(s *Snapshot) (Predictor, error) {
	if s == nil {
		return nil, errors.New("nil model snapshot")
	}
	trainer, err := GetTrainer(s.Algorithm)
	if err != nil {
		return nil, err
	}
	if s.Features <= 0 {
		return nil, fmt.Errorf("model snapshot has %d features", s.Features)
	}
	return trainer.Restore(s)
}

// restoreLinear rebuilds the linear form written by ridge and mean
func restoreLinear(s *Snapshot) (Predictor, error) {
	if len(s.Coefficients) != s.Features {
		return nil, fmt.Errorf("%w: snapshot has %d coefficients for %d features",
			ErrDimensionMismatch, len(s.Coefficients), s.Features)
	}
	return newLinearModel(s.Algorithm, s.Params, s.Intercept, s.Coefficients), nil
}

// linearModel is the fitted form shared by ridge and mean
type linearModel struct {
	algorithm string
	params    Params
	intercept float64
	coef      []float64
}

func newLinearModel(algorithm string, params Params, intercept float64, coef []float64) *linearModel {
	c := make([]float64, len(coef))
	copy(c, coef)
	p := make(Params, len(params))
	for k, v := range params {
		p[k] = v
	}
	return &linearModel{algorithm: algorithm, params: p, intercept: intercept, coef: c}
}

func (m *linearModel) Name() string {
	return m.algorithm
}

func (m *linearModel) Predict(X mat.Matrix) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != len(m.coef) {
		return nil, fmt.Errorf("%w: model expects %d features, got %d", ErrDimensionMismatch, len(m.coef), cols)
	}

	var out mat.VecDense
	out.MulVec(X, mat.NewVecDense(cols, m.coef))

	preds := make([]float64, rows)
	for i := range preds {
		preds[i] = out.AtVec(i) + m.intercept
	}
	return preds, nil
}

func (m *linearModel) Snapshot() *Snapshot {
	s := &Snapshot{
		Algorithm:    m.algorithm,
		Params:       make(Params, len(m.params)),
		Features:     len(m.coef),
		Intercept:    m.intercept,
		Coefficients: make([]float64, len(m.coef)),
	}
	copy(s.Coefficients, m.coef)
	for k, v := range m.params {
		s.Params[k] = v
	}
	return s
}

func checkTrainingShape(X mat.Matrix, y []float64) (int, int, error) {
	rows, cols := X.Dims()
	if rows != len(y) {
		return 0, 0, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, rows, len(y))
	}
	if rows < 2 {
		return 0, 0, fmt.Errorf("need at least 2 rows to fit, have %d", rows)
	}
	return rows, cols, nil
}
