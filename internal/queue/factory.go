package queue

import (
	"fmt"
	"strings"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/utils"
)

// NewPublisher creates a Publisher based on configuration.
// Default is NATS if type is not specified.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}

	subject := cfg.Subject
	if subject == "" {
		subject = utils.DefaultEventSubject
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return newNATSPublisher(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Subjects: []string{subject},
		})

	case utils.QueueTypeRedis:
		return newRedisPublisher(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			MaxLen:   cfg.RedisMaxLen,
		})

	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = strings.Split(cfg.URL, ",")
		}
		return newKafkaPublisher(KafkaConfig{Brokers: brokers})

	case utils.QueueTypeMemory:
		return newMemoryPublisher(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}
