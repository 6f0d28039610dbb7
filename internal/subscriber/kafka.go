package subscriber

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ridecast/ridecast/internal/logging"
	"github.com/segmentio/kafka-go"
)

// KafkaSubscriber reads Kafka topics named after the subject as a consumer group
type KafkaSubscriber struct {
	brokers []string
	cfg     Config
	readers map[string]*kafka.Reader
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewKafkaSubscriber creates a Kafka subscriber; readers connect on Subscribe
func NewKafkaSubscriber(brokers []string, cfg Config) (*KafkaSubscriber, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	return &KafkaSubscriber{
		brokers: brokers,
		cfg:     cfg,
		readers: make(map[string]*kafka.Reader),
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// Subscribe starts a group reader on the subject's topic
func (s *KafkaSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.readers[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	log := logging.Global().With("component", "subscriber.kafka", "topic", subject)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        s.brokers,
		GroupID:        s.cfg.Group,
		Topic:          subject,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Debug(fmt.Sprintf(msg, args...))
		}),
	})

	subCtx, cancel := context.WithCancel(ctx)
	s.readers[subject] = reader
	s.cancels[subject] = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(subCtx, reader, subject, handler, log)
	}()

	return nil
}

func (s *KafkaSubscriber) consume(ctx context.Context, reader *kafka.Reader, subject string, handler MessageHandler, log *logging.Logger) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to fetch message", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if err := handler(ctx, subject, msg.Value); err != nil {
			// not committed, reprocessed after a rebalance
			log.Warn("Failed to handle message", "offset", msg.Offset, "error", err)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error("Failed to commit message", "offset", msg.Offset, "error", err)
		}
	}
}

// Close stops all readers
func (s *KafkaSubscriber) Close() error {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	readers := s.readers
	s.cancels = make(map[string]context.CancelFunc)
	s.readers = make(map[string]*kafka.Reader)
	s.mu.Unlock()

	s.wg.Wait()

	var firstErr error
	for topic, r := range readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close kafka reader %s: %w", topic, err)
		}
	}
	return firstErr
}
