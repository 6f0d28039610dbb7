package config

import (
	"fmt"
	"strings"

	"github.com/ridecast/ridecast/internal/utils"
	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("/etc/ridecast") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. RIDECAST_SERVER_HTTP_PORT
	v.SetEnvPrefix("RIDECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	// Artifact defaults
	v.SetDefault("artifacts.model_path", d.Artifacts.ModelPath)
	v.SetDefault("artifacts.schema_path", d.Artifacts.SchemaPath)
	v.SetDefault("artifacts.compress", d.Artifacts.Compress)

	// Training defaults
	v.SetDefault("training.data_path", d.Training.DataPath)
	v.SetDefault("training.algorithm", d.Training.Algorithm)
	v.SetDefault("training.test_size", d.Training.TestSize)
	v.SetDefault("training.folds", d.Training.Folds)
	v.SetDefault("training.iterations", d.Training.Iterations)
	v.SetDefault("training.seed", d.Training.Seed)
	v.SetDefault("training.alphas", []float64{})

	// Inference defaults
	v.SetDefault("inference.lag_fallback", d.Inference.LagFallback)
	v.SetDefault("inference.lag_fallback_source", d.Inference.LagFallbackSource)
	v.SetDefault("inference.hour_min", d.Inference.HourMin)
	v.SetDefault("inference.hour_max", d.Inference.HourMax)

	// Queue defaults
	v.SetDefault("queue.enabled", d.Queue.Enabled)
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.username", "")
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.publish_timeout", d.Queue.PublishTimeout)
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.redis_maxlen", d.Queue.RedisMaxLen)
	v.SetDefault("queue.kafka_brokers", []string{})

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_keys", []string{})

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     8501,
			ReadTimeout:  utils.DefaultRequestTimeout,
			WriteTimeout: utils.DefaultRequestTimeout,
		},
		Artifacts: ArtifactsConfig{
			ModelPath:  "models/bike_model.json",
			SchemaPath: "models/feature_columns.json",
		},
		Training: TrainingConfig{
			DataPath:   "data/hour.csv",
			Algorithm:  utils.DefaultAlgorithm,
			TestSize:   utils.DefaultTestSize,
			Folds:      utils.DefaultFolds,
			Iterations: utils.DefaultSearchIterations,
			Seed:       utils.DefaultRandomSeed,
		},
		Inference: InferenceConfig{
			LagFallback:       utils.DefaultLagFallback,
			LagFallbackSource: LagFallbackConstant,
			HourMin:           utils.MinTrainingHour,
			HourMax:           utils.MaxTrainingHour,
		},
		Queue: QueueConfig{
			Type:           string(utils.QueueTypeNATS),
			URL:            "nats://localhost:4222",
			Subject:        utils.DefaultEventSubject,
			PublishTimeout: utils.EventPublishTimeout,
			RedisMaxLen:    100000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
