package features

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// FeatureMatrix is the encoded training set.
// Y is nil when the records carry no target.
type FeatureMatrix struct {
	X      *mat.Dense
	Y      []float64
	Schema Schema
}

// Rows returns the number of encoded records
func (m *FeatureMatrix) Rows() int {
	r, _ := m.X.Dims()
	return r
}

// BuildFeatureMatrix selects the input columns and one-hot encodes season and
// weathersit, dropping the lowest observed level of each as the reference.
// Pass-through columns keep their InputColumns order and indicator columns
// follow, season first, levels ascending.
func BuildFeatureMatrix(records []EngineeredRecord) (*FeatureMatrix, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records to encode", ErrInvalidInput)
	}

	if err := checkColumnsPresent(records); err != nil {
		return nil, err
	}

	y, err := extractTarget(records)
	if err != nil {
		return nil, err
	}

	categorical := make(map[string]bool, len(CategoricalColumns))
	for _, c := range CategoricalColumns {
		categorical[c] = true
	}

	passthrough := make([]string, 0, len(InputColumns))
	for _, c := range InputColumns {
		if !categorical[c] {
			passthrough = append(passthrough, c)
		}
	}

	schema := Schema{
		Version:         SchemaVersion,
		Categorical:     make(map[string][]int, len(CategoricalColumns)),
		ReferenceLevels: make(map[string]int, len(CategoricalColumns)),
	}
	schema.Columns = append(schema.Columns, passthrough...)

	type indicator struct {
		col   string
		level int
	}
	var indicators []indicator

	for _, c := range CategoricalColumns {
		levels := observedLevels(records, c)
		schema.Categorical[c] = levels
		schema.ReferenceLevels[c] = levels[0]
		for _, lvl := range levels[1:] {
			schema.Columns = append(schema.Columns, IndicatorColumn(c, lvl))
			indicators = append(indicators, indicator{col: c, level: lvl})
		}
	}

	x := mat.NewDense(len(records), len(schema.Columns), nil)
	for i, r := range records {
		for j, c := range passthrough {
			v, _ := r.Value(c)
			x.Set(i, j, v)
		}
		for k, ind := range indicators {
			v, _ := r.Value(ind.col)
			if int(v) == ind.level {
				x.Set(i, len(passthrough)+k, 1)
			}
		}
	}

	return &FeatureMatrix{X: x, Y: y, Schema: schema}, nil
}

// checkColumnsPresent fails when a selected column is absent from every
// record. The lag is the only optional selected column; once any record has
// it, all must.
func checkColumnsPresent(records []EngineeredRecord) error {
	withLag := 0
	for _, r := range records {
		if r.HasLag {
			withLag++
		}
	}
	if withLag == 0 {
		return fmt.Errorf("%w: column %s is missing from every record", ErrInvalidInput, ColPrevDaySameHour)
	}
	if withLag != len(records) {
		return fmt.Errorf("%w: column %s is missing for %d of %d records",
			ErrInvalidInput, ColPrevDaySameHour, len(records)-withLag, len(records))
	}
	return nil
}

func extractTarget(records []EngineeredRecord) ([]float64, error) {
	y := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Cnt != nil {
			y = append(y, *r.Cnt)
		}
	}
	switch len(y) {
	case 0:
		return nil, nil
	case len(records):
		return y, nil
	default:
		return nil, fmt.Errorf("%w: column %s is missing for %d of %d records",
			ErrInvalidInput, ColCnt, len(records)-len(y), len(records))
	}
}

func observedLevels(records []EngineeredRecord, col string) []int {
	seen := make(map[int]bool)
	for _, r := range records {
		v, _ := r.Value(col)
		seen[int(v)] = true
	}
	levels := make([]int, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)
	return levels
}
