package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testSnapshot(n int) *model.Snapshot {
	coef := make([]float64, n)
	for i := range coef {
		coef[i] = float64(i + 1)
	}
	return &model.Snapshot{
		Algorithm:    "ridge",
		Params:       model.Params{model.ParamAlpha: 0.1},
		Features:     n,
		Intercept:    10,
		Coefficients: coef,
		Metrics:      map[string]float64{"r2": 0.8},
	}
}

func testSchema() features.Schema {
	s := features.NewSchema([]string{"hr", "temp", "season_2"})
	fill := 142.5
	s.LagFillValue = &fill
	s.ReferenceLevels = map[string]int{"season": 1}
	return s
}

func TestModelRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "models", "bike_model.json")

		require.NoError(t, SaveModel(path, testSnapshot(3), Options{Compress: compress}))

		p, snap, err := LoadModel(path)
		require.NoError(t, err)
		assert.Equal(t, "ridge", p.Name())
		assert.Equal(t, testSnapshot(3).Coefficients, snap.Coefficients)
		assert.Equal(t, 0.8, snap.Metrics["r2"])

		pred, err := p.Predict(mat.NewDense(1, 3, []float64{1, 1, 1}))
		require.NoError(t, err)
		assert.Equal(t, []float64{16}, pred)
	}
}

func TestForestModelRoundTrip(t *testing.T) {
	X := mat.NewDense(40, 3, nil)
	y := make([]float64, 40)
	for i := 0; i < 40; i++ {
		X.SetRow(i, []float64{float64(i % 24), float64(i%5) / 5, float64(i % 2)})
		y[i] = 3*X.At(i, 0) + 50*X.At(i, 1)
	}

	trainer, err := model.GetTrainer("forest")
	require.NoError(t, err)
	fitted, err := trainer.Fit(X, y, model.Params{model.ParamNEstimators: 5})
	require.NoError(t, err)

	for _, compress := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "bike_model.json")
		require.NoError(t, SaveModel(path, fitted.Snapshot(), Options{Compress: compress}))

		p, snap, err := LoadModel(path)
		require.NoError(t, err)
		assert.Equal(t, "forest", p.Name())
		require.NotNil(t, snap.Forest)
		assert.Len(t, snap.Forest.Trees, 5)

		want, err := fitted.Predict(X)
		require.NoError(t, err)
		got, err := p.Predict(X)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSaveModel_CompressedIsSnappyStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, SaveModel(path, testSnapshot(3), Options{Compress: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, snappyStreamHeader, data[:len(snappyStreamHeader)])
}

func TestSchemaRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "feature_columns.json")

		require.NoError(t, SaveSchema(path, testSchema(), Options{Compress: compress}))

		got, err := LoadSchema(path)
		require.NoError(t, err)
		assert.Equal(t, testSchema().Columns, got.Columns)
		assert.Equal(t, 142.5, *got.LagFillValue)
		assert.Equal(t, 1, got.ReferenceLevels["season"])
	}
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadModel(filepath.Join(dir, "nope.json"))
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = LoadSchema(filepath.Join(dir, "nope.json"))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := LoadModel(path)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoadSchema_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cols.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"columns":["a","a"]}`), 0o644))

	_, err := LoadSchema(path)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, features.ErrSchemaMismatch)
}

func TestSaveSchema_RejectsInvalid(t *testing.T) {
	err := SaveSchema(filepath.Join(t.TempDir(), "cols.json"), features.Schema{}, Options{})
	assert.ErrorIs(t, err, features.ErrSchemaMismatch)
}

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	schemaPath := filepath.Join(dir, "cols.json")

	require.NoError(t, SaveModel(modelPath, testSnapshot(3), Options{}))
	require.NoError(t, SaveSchema(schemaPath, testSchema(), Options{Compress: true}))

	b, err := LoadBundle(modelPath, schemaPath)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Schema.Len())
	assert.Equal(t, "ridge", b.Model.Name())
	assert.Equal(t, modelPath, b.ModelPath)
	assert.False(t, b.LoadedAt.IsZero())
}

func TestLoadBundle_ColumnCountMismatch(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	schemaPath := filepath.Join(dir, "cols.json")

	require.NoError(t, SaveModel(modelPath, testSnapshot(5), Options{}))
	require.NoError(t, SaveSchema(schemaPath, testSchema(), Options{}))

	_, err := LoadBundle(modelPath, schemaPath)
	assert.ErrorIs(t, err, features.ErrSchemaMismatch)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestWriteJSON_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveModel(filepath.Join(dir, "m.json"), testSnapshot(1), Options{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
