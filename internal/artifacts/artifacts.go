// Package artifacts persists the fitted model and the training column schema
// and loads them back as a read-only bundle for the serving process.
package artifacts

import (
	"errors"
	"fmt"
	"time"

	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/model"
)

// ErrModelUnavailable is returned when an artifact is missing or unreadable
var ErrModelUnavailable = errors.New("model unavailable")

// Options controls how artifacts are written
type Options struct {
	// Compress writes the JSON payload as a snappy stream
	Compress bool
}

// SaveModel writes a model snapshot
func SaveModel(path string, s *model.Snapshot, opts Options) error {
	if s == nil {
		return errors.New("nil model snapshot")
	}
	return writeJSON(path, s, opts)
}

// LoadModel reads a model snapshot and restores the predictor
func LoadModel(path string) (model.Predictor, *model.Snapshot, error) {
	var s model.Snapshot
	if err := readJSON(path, &s); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	p, err := model.Restore(&s)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, path, err)
	}
	return p, &s, nil
}

// SaveSchema writes the column schema
func SaveSchema(path string, schema features.Schema, opts Options) error {
	if err := schema.Validate(); err != nil {
		return err
	}
	return writeJSON(path, schema, opts)
}

// LoadSchema reads and validates the column schema
func LoadSchema(path string) (features.Schema, error) {
	var schema features.Schema
	if err := readJSON(path, &schema); err != nil {
		return features.Schema{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if err := schema.Validate(); err != nil {
		return features.Schema{}, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, path, err)
	}
	return schema, nil
}

// Bundle is the model and schema pair served together. It is not modified
// after loading and may be shared between goroutines.
type Bundle struct {
	Model      model.Predictor
	Snapshot   *model.Snapshot
	Schema     features.Schema
	ModelPath  string
	SchemaPath string
	LoadedAt   time.Time
}

// LoadBundle loads both artifacts and checks that the model was fitted on the
// schema's column count
func LoadBundle(modelPath, schemaPath string) (*Bundle, error) {
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return nil, err
	}

	p, snap, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}

	if snap.Features != schema.Len() {
		return nil, fmt.Errorf("%w: %w: model has %d features, schema has %d columns",
			ErrModelUnavailable, features.ErrSchemaMismatch, snap.Features, schema.Len())
	}

	return &Bundle{
		Model:      p,
		Snapshot:   snap,
		Schema:     schema,
		ModelPath:  modelPath,
		SchemaPath: schemaPath,
		LoadedAt:   time.Now(),
	}, nil
}
