package utils

import "time"

// =============================================================================
// Feature Engineering Constants
// =============================================================================

const (
	// HoursPerDay is the period of the cyclical hour encoding
	HoursPerDay = 24

	// LagShift is how many same-hour rows back the lag feature looks (one per day)
	LagShift = 24

	// DefaultLagFallback is the lag value used at inference when the caller supplies none
	DefaultLagFallback = 200.0

	// MinTrainingHour and MaxTrainingHour bound the hour convention of the training data
	MinTrainingHour = 0
	MaxTrainingHour = 23
)

// =============================================================================
// Training Constants
// =============================================================================

const (
	// DefaultTestSize is the share of rows held out for evaluation
	DefaultTestSize = 0.2

	// DefaultFolds is the number of cross-validation folds in the parameter search
	DefaultFolds = 3

	// DefaultSearchIterations is the number of sampled parameter sets
	DefaultSearchIterations = 10

	// DefaultRandomSeed seeds the split and the parameter sampling
	DefaultRandomSeed = 42

	// DefaultAlgorithm is the trainer used when none is configured
	DefaultAlgorithm = "forest"
)

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// EventPublishTimeout bounds publishing one prediction event
	EventPublishTimeout = 2 * time.Second

	// ShutdownTimeout is the graceful shutdown budget for the HTTP server
	ShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (default, for development)
	QueueTypeMemory QueueType = "memory"
)

// DefaultEventSubject is the subject prediction events are published on
const DefaultEventSubject = "ridecast.predictions"

// Version is reported by the health endpoint
const Version = "1.0.0"
