package model

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MeanTrainer predicts the training mean for every row. It is the baseline
// the ridge model is compared against.
type MeanTrainer struct{}

// NewMeanTrainer creates a new baseline trainer
func NewMeanTrainer() *MeanTrainer {
	return &MeanTrainer{}
}

func init() {
	RegisterTrainer("mean", NewMeanTrainer())
}

// Name returns the algorithm name
func (t *MeanTrainer) Name() string {
	return "mean"
}

// Restore rebuilds a fitted model from its snapshot
func (t *MeanTrainer) Restore(s *Snapshot) (Predictor, error) {
	return restoreLinear(s)
}

// DefaultGrid returns a single empty parameter set
func (t *MeanTrainer) DefaultGrid() []Params {
	return []Params{{}}
}

// Fit trains the model
func (t *MeanTrainer) Fit(X mat.Matrix, y []float64, _ Params) (Predictor, error) {
	_, cols, err := checkTrainingShape(X, y)
	if err != nil {
		return nil, err
	}
	return newLinearModel(t.Name(), nil, stat.Mean(y, nil), make([]float64, cols)), nil
}
