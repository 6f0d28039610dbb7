package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ridecast/ridecast/internal/logging"
)

// RedisSubscriber reads Redis streams named after the subject through a
// consumer group
type RedisSubscriber struct {
	client  *redis.Client
	cfg     Config
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewRedisSubscriber connects to Redis. url is a redis:// URL or host:port.
func NewRedisSubscriber(url, password string, db int, cfg Config) (*RedisSubscriber, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url, Password: password, DB: db}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSubscriber{
		client:  client,
		cfg:     cfg,
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// Subscribe creates the consumer group if needed and starts reading
func (s *RedisSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cancels[subject]; exists {
		return fmt.Errorf("already subscribed to stream: %s", subject)
	}

	err := s.client.XGroupCreateMkStream(ctx, subject, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s.cancels[subject] = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(subCtx, subject, handler)
	}()

	return nil
}

func (s *RedisSubscriber) consume(ctx context.Context, stream string, handler MessageHandler) {
	log := logging.Global().With("component", "subscriber.redis", "stream", stream)

	for ctx.Err() == nil {
		streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.cfg.Group,
			Consumer: s.cfg.Consumer,
			Streams:  []string{stream, ">"},
			Count:    100,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error("Failed to read from stream", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, st := range streams {
			for _, message := range st.Messages {
				data, ok := message.Values["data"].(string)
				if !ok {
					log.Warn("Invalid message format", "id", message.ID)
					s.client.XAck(ctx, stream, s.cfg.Group, message.ID)
					continue
				}

				if err := handler(ctx, stream, []byte(data)); err != nil {
					// left pending for redelivery
					log.Warn("Failed to handle message", "id", message.ID, "error", err)
					continue
				}

				if err := s.client.XAck(ctx, stream, s.cfg.Group, message.ID).Err(); err != nil {
					log.Error("Failed to ACK message", "id", message.ID, "error", err)
				}
			}
		}
	}
}

// Close stops all readers and closes the connection
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	s.wg.Wait()

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	return nil
}
