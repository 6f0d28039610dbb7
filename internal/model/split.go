package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Split is a train/test partition of a feature matrix
type Split struct {
	XTrain *mat.Dense
	YTrain []float64
	XTest  *mat.Dense
	YTest  []float64
}

// SplitTrainTest shuffles the rows with a seeded generator and holds out
// ceil(testSize*n) of them for testing. The same seed always yields the same
// partition.
func SplitTrainTest(X *mat.Dense, y []float64, testSize float64, seed int64) (*Split, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, rows, len(y))
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(rows)))
	nTrain := rows - nTest
	if nTest < 1 || nTrain < 2 {
		return nil, fmt.Errorf("cannot split %d rows with test size %v", rows, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(rows)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	return &Split{
		XTrain: selectRows(X, trainIdx),
		YTrain: selectValues(y, trainIdx),
		XTest:  selectRows(X, testIdx),
		YTest:  selectValues(y, testIdx),
	}, nil
}

// Fold is one cross-validation partition, as row indices
type Fold struct {
	Train []int
	Test  []int
}

// KFolds splits n rows into k consecutive folds. The first n%k folds hold one
// extra row.
func KFolds(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", n, k)
	}

	folds := make([]Fold, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		end := start + size

		fold := Fold{Train: make([]int, 0, n-size), Test: make([]int, 0, size)}
		for i := 0; i < n; i++ {
			if i >= start && i < end {
				fold.Test = append(fold.Test, i)
			} else {
				fold.Train = append(fold.Train, i)
			}
		}
		folds = append(folds, fold)
		start = end
	}
	return folds, nil
}

func selectRows(X mat.Matrix, idx []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	row := make([]float64, cols)
	for i, r := range idx {
		mat.Row(row, r, X)
		out.SetRow(i, row)
	}
	return out
}

func selectValues(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = values[r]
	}
	return out
}
