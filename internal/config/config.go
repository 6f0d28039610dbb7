package config

import (
	"fmt"
	"time"

	"github.com/ridecast/ridecast/internal/utils"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Training  TrainingConfig  `mapstructure:"training"`
	Inference InferenceConfig `mapstructure:"inference"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AuthConfig guards the /v1 API with static API keys. The dashboard and
// health check stay open.
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"api_keys"`
}

// ArtifactsConfig locates the model and column schema files
type ArtifactsConfig struct {
	ModelPath  string `mapstructure:"model_path"`
	SchemaPath string `mapstructure:"schema_path"`
	Compress   bool   `mapstructure:"compress"` // Write artifacts as snappy streams (loading detects either form)
}

// TrainingConfig controls the training tool
type TrainingConfig struct {
	DataPath   string    `mapstructure:"data_path"`
	Algorithm  string    `mapstructure:"algorithm"` // forest (default), ridge, mean
	TestSize   float64   `mapstructure:"test_size"` // Held-out share, in (0, 1)
	Folds      int       `mapstructure:"folds"`
	Iterations int       `mapstructure:"iterations"` // Parameter sets sampled by the search
	Seed       int64     `mapstructure:"seed"`
	Alphas     []float64 `mapstructure:"alphas"` // Ridge penalty grid; empty uses the built-in grid
}

// Lag fallback sources
const (
	LagFallbackConstant = "constant"
	LagFallbackTraining = "training"
)

// InferenceConfig controls how single records are prepared for prediction
type InferenceConfig struct {
	// LagFallback replaces prev_day_same_hour when the caller does not supply it
	LagFallback float64 `mapstructure:"lag_fallback"`
	// LagFallbackSource is "constant" (use LagFallback) or "training" (use the
	// median persisted in the schema, falling back to LagFallback)
	LagFallbackSource string `mapstructure:"lag_fallback_source"`
	// HourMin and HourMax bound the dashboard hour slider
	HourMin int `mapstructure:"hour_min"`
	HourMax int `mapstructure:"hour_max"`
}

// QueueConfig represents prediction event publishing configuration
type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Subject  string `mapstructure:"subject"`  // NATS subject, Redis stream key or Kafka topic
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	PublishTimeout time.Duration `mapstructure:"publish_timeout"`

	// Redis-specific options
	RedisDB     int   `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisMaxLen int64 `mapstructure:"redis_maxlen"` // Approximate stream cap, 0 for unbounded

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Artifacts.Validate(); err != nil {
		return fmt.Errorf("artifacts config: %w", err)
	}

	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training config: %w", err)
	}

	if err := c.Inference.Validate(); err != nil {
		return fmt.Errorf("inference config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("auth is enabled but no api_keys are configured")
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}

	return nil
}

// Validate validates artifact configuration
func (c *ArtifactsConfig) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("artifacts.model_path is required")
	}

	if c.SchemaPath == "" {
		return fmt.Errorf("artifacts.schema_path is required")
	}

	if c.ModelPath == c.SchemaPath {
		return fmt.Errorf("artifacts.model_path and artifacts.schema_path cannot be the same")
	}

	return nil
}

// Validate validates training configuration
func (c *TrainingConfig) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be between 0 and 1, got %v", c.TestSize)
	}

	if c.Folds < 2 {
		return fmt.Errorf("training.folds must be at least 2")
	}

	if c.Iterations < 1 {
		return fmt.Errorf("training.iterations must be at least 1")
	}

	for _, a := range c.Alphas {
		if a <= 0 {
			return fmt.Errorf("training.alphas must be positive, got %v", a)
		}
	}

	return nil
}

// Validate validates inference configuration
func (c *InferenceConfig) Validate() error {
	if c.LagFallback < 0 {
		return fmt.Errorf("inference.lag_fallback cannot be negative")
	}

	if c.LagFallbackSource != LagFallbackConstant && c.LagFallbackSource != LagFallbackTraining {
		return fmt.Errorf("inference.lag_fallback_source must be '%s' or '%s'", LagFallbackConstant, LagFallbackTraining)
	}

	if c.HourMin > c.HourMax {
		return fmt.Errorf("inference.hour_min cannot exceed inference.hour_max")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch utils.QueueType(c.Type) {
	case utils.QueueTypeNATS, utils.QueueTypeRedis:
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case utils.QueueTypeKafka:
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("queue.kafka_brokers or queue.url is required for kafka")
		}
	case utils.QueueTypeMemory:
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
