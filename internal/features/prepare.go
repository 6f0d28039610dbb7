package features

import (
	"github.com/ridecast/ridecast/internal/utils"
)

// InputOptions controls PrepareInput
type InputOptions struct {
	// LagFallback is used when the record has no prev_day_same_hour
	LagFallback float64
}

// DefaultInputOptions returns the inference defaults
func DefaultInputOptions() InputOptions {
	return InputOptions{LagFallback: utils.DefaultLagFallback}
}

// PreparedInput is a record encoded against a schema
type PreparedInput struct {
	Vector FeatureVector
	// Dropped lists encoded columns the schema does not know
	Dropped []string
	// LagDefaulted is set when LagFallback replaced a missing lag
	LagDefaulted bool
}

// PrepareInput engineers one record and aligns it to the training schema.
//
// Each categorical column contributes a single indicator for the record's own
// level. Reindex then drops the indicator when it is the schema's reference
// level, and fills every schema column the record did not produce with 0, so
// the vector always has exactly the schema's columns in order.
func PrepareInput(r Record, schema Schema, opts InputOptions) (*PreparedInput, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	e := EngineerOne(r)

	defaulted := false
	if r.PrevDaySameHour != nil {
		e.Lag = *r.PrevDaySameHour
	} else {
		e.Lag = opts.LagFallback
		defaulted = true
	}
	e.HasLag = true

	vector, dropped := Reindex(EncodeRecord(e), schema)

	return &PreparedInput{
		Vector:       vector,
		Dropped:      dropped,
		LagDefaulted: defaulted,
	}, nil
}

// EncodeRecord encodes one engineered record by itself: the pass-through
// input columns in order, then one indicator per categorical column.
// The lag column is omitted when the record has no lag.
func EncodeRecord(e EngineeredRecord) FeatureVector {
	categorical := make(map[string]bool, len(CategoricalColumns))
	for _, c := range CategoricalColumns {
		categorical[c] = true
	}

	v := FeatureVector{
		Columns: make([]string, 0, len(InputColumns)+len(CategoricalColumns)),
		Values:  make([]float64, 0, len(InputColumns)+len(CategoricalColumns)),
	}
	for _, c := range InputColumns {
		if categorical[c] {
			continue
		}
		val, ok := e.Value(c)
		if !ok {
			continue
		}
		v.Columns = append(v.Columns, c)
		v.Values = append(v.Values, val)
	}
	for _, c := range CategoricalColumns {
		level, _ := e.Value(c)
		v.Columns = append(v.Columns, IndicatorColumn(c, int(level)))
		v.Values = append(v.Values, 1)
	}
	return v
}
