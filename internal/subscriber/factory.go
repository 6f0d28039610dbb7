package subscriber

import (
	"fmt"
	"strings"

	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/utils"
)

// NewSubscriber creates a Subscriber for the configured queue backend
func NewSubscriber(cfg config.QueueConfig, subCfg Config) (Subscriber, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}

	if subCfg.Group == "" || subCfg.Consumer == "" {
		d := DefaultConfig()
		if subCfg.Group == "" {
			subCfg.Group = d.Group
		}
		if subCfg.Consumer == "" {
			subCfg.Consumer = d.Consumer
		}
	}

	switch queueType {
	case utils.QueueTypeNATS:
		return NewNATSSubscriber(cfg.URL, cfg.Username, cfg.Password, subCfg)
	case utils.QueueTypeRedis:
		return NewRedisSubscriber(cfg.URL, cfg.Password, cfg.RedisDB, subCfg)
	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = strings.Split(cfg.URL, ",")
		}
		return NewKafkaSubscriber(brokers, subCfg)
	case utils.QueueTypeMemory:
		return NewMemorySubscriber(), nil
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", queueType)
	}
}
