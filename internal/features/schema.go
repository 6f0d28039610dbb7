package features

import (
	"fmt"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"
)

// SchemaVersion is the version of the column contract written by training
const SchemaVersion = 1

// InputColumns is the fixed, ordered list of columns selected from an
// engineered record before one-hot encoding.
var InputColumns = []string{
	ColSeason, ColYr, ColMnth, ColHoliday, ColWeekday, ColWorkingday, ColWeathersit,
	ColTemp, ColAtemp, ColHum, ColWindspeed, ColHr,
	ColHrSin, ColHrCos, ColTempFeelsLike, ColWeatherComfort,
	ColIsRushHour, ColIsWeekend, ColPrevDaySameHour,
}

// CategoricalColumns are one-hot encoded, in this order
var CategoricalColumns = []string{ColSeason, ColWeathersit}

// Schema is the ordered, named column set fixed at training time.
// Columns is authoritative; the remaining fields describe how it was built.
type Schema struct {
	Version         int              `json:"version"`
	Columns         []string         `json:"columns"`
	Categorical     map[string][]int `json:"categorical,omitempty"`
	ReferenceLevels map[string]int   `json:"reference_levels,omitempty"`
	LagFillValue    *float64         `json:"lag_fill_value,omitempty"`
	CreatedAt       time.Time        `json:"created_at,omitempty"`
}

// NewSchema creates a schema from an ordered column list
func NewSchema(columns []string) Schema {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Schema{Version: SchemaVersion, Columns: cols}
}

// Len returns the number of columns
func (s Schema) Len() int {
	return len(s.Columns)
}

// Index returns the position of a column, or -1
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Validate checks that the schema can be used to align features
func (s Schema) Validate() error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d (want %d)", ErrSchemaMismatch, s.Version, SchemaVersion)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: schema has no columns", ErrSchemaMismatch)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c == "" {
			return fmt.Errorf("%w: schema has an empty column name", ErrSchemaMismatch)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate column %q", ErrSchemaMismatch, c)
		}
		seen[c] = true
	}
	return nil
}

// IndicatorColumn names the one-hot column for a categorical level
func IndicatorColumn(col string, level int) string {
	return col + "_" + strconv.Itoa(level)
}

// FeatureVector is one encoded row with its column names
type FeatureVector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// Len returns the number of columns
func (v FeatureVector) Len() int {
	return len(v.Columns)
}

// Get returns the value of a named column
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, c := range v.Columns {
		if c == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector as a name->value map
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.Columns))
	for i, c := range v.Columns {
		m[c] = v.Values[i]
	}
	return m
}

// Matrix returns the vector as a 1xN matrix
func (v FeatureVector) Matrix() *mat.Dense {
	values := make([]float64, len(v.Values))
	copy(values, v.Values)
	return mat.NewDense(1, len(values), values)
}

// Reindex aligns an encoded row to the schema: the result has exactly the
// schema's columns in the schema's order, schema columns the row does not
// have are 0, and row columns the schema does not have are dropped. The
// dropped column names are returned in row order.
func Reindex(row FeatureVector, schema Schema) (FeatureVector, []string) {
	pos := make(map[string]int, len(schema.Columns))
	for i, c := range schema.Columns {
		pos[c] = i
	}

	out := FeatureVector{
		Columns: make([]string, len(schema.Columns)),
		Values:  make([]float64, len(schema.Columns)),
	}
	copy(out.Columns, schema.Columns)

	var dropped []string
	for i, c := range row.Columns {
		j, ok := pos[c]
		if !ok {
			dropped = append(dropped, c)
			continue
		}
		out.Values[j] = row.Values[i]
	}

	return out, dropped
}
