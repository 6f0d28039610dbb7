package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// EnsureArtifactDirectories creates the directories the artifacts are written to
func (c *Config) EnsureArtifactDirectories() error {
	dirs := []string{
		filepath.Dir(c.Artifacts.ModelPath),
		filepath.Dir(c.Artifacts.SchemaPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// ResolveLagFallback returns the lag value used when a request has none and
// where it came from. trainingFill is the median persisted with the schema,
// nil when the schema has none.
func (c *InferenceConfig) ResolveLagFallback(trainingFill *float64) (float64, string) {
	if c.LagFallbackSource == LagFallbackTraining && trainingFill != nil {
		return *trainingFill, LagFallbackTraining
	}
	return c.LagFallback, LagFallbackConstant
}

// HourInTrainingRange reports whether hr follows the 0-23 convention of the
// training data
func HourInTrainingRange(hr int) bool {
	return hr >= 0 && hr <= 23
}
