package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379) or host:port
	Password string // Optional password
	DB       int    // Database number (default: 0)
	MaxLen   int64  // Approximate stream cap, 0 for unbounded
}

// RedisPublisher appends messages to Redis streams named after the subject
type RedisPublisher struct {
	client *redis.Client
	config RedisConfig
}

func newRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{client: client, config: cfg}, nil
}

func (q *RedisPublisher) xaddArgs(subject string, data []byte) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: subject,
		MaxLen: q.config.MaxLen,
		Approx: q.config.MaxLen > 0,
		ID:     "*",
		Values: map[string]interface{}{"data": data},
	}
}

// Publish appends a message to the subject's stream
func (q *RedisPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.client.XAdd(ctx, q.xaddArgs(subject, data)).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", subject, err)
	}
	return nil
}

// PublishBatch publishes multiple messages using a Redis pipeline
func (q *RedisPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	pipe := q.client.Pipeline()
	for _, msg := range messages {
		pipe.XAdd(ctx, q.xaddArgs(msg.Subject, msg.Data))
	}

	cmds, err := pipe.Exec(ctx)
	successCount := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			successCount++
		}
	}
	if err != nil {
		return successCount, fmt.Errorf("failed to execute batch publish: %w", err)
	}
	return successCount, nil
}

// Close closes the Redis connection
func (q *RedisPublisher) Close() error {
	return q.client.Close()
}
