package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// EventStream is the JetStream stream that captures the event subjects
const EventStream = "ridecast-events"

// NATSConfig represents NATS JetStream configuration
type NATSConfig struct {
	URL      string
	Username string
	Password string
	// Subjects are bound to the event stream so publishes are acknowledged
	Subjects []string
}

// NATSPublisher publishes to NATS JetStream
type NATSPublisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

func newNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{nats.Name("ridecast")}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSPublisherWithConn(conn, cfg.Subjects)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

// newNATSPublisherWithConn wraps an existing connection and makes sure the
// event stream covers subjects
func newNATSPublisherWithConn(conn *nats.Conn, subjects []string) (*NATSPublisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if len(subjects) > 0 {
		if err := EnsureStream(js, subjects); err != nil {
			return nil, err
		}
	}

	return &NATSPublisher{conn: conn, js: js}, nil
}

// EnsureStream creates the event stream or adds missing subjects to it
func EnsureStream(js nats.JetStreamContext, subjects []string) error {
	info, err := js.StreamInfo(EventStream)
	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     EventStream,
			Subjects: subjects,
			Storage:  nats.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", EventStream, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up stream %s: %w", EventStream, err)
	}

	have := make(map[string]bool, len(info.Config.Subjects))
	for _, s := range info.Config.Subjects {
		have[s] = true
	}
	cfg := info.Config
	updated := false
	for _, s := range subjects {
		if !have[s] {
			cfg.Subjects = append(cfg.Subjects, s)
			updated = true
		}
	}
	if updated {
		if _, err := js.UpdateStream(&cfg); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", EventStream, err)
		}
	}
	return nil
}

// Publish publishes a message and waits for the JetStream ack
func (q *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch queues all messages asynchronously and waits for the acks
func (q *NATSPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	futures := make([]nats.PubAckFuture, 0, len(messages))
	for _, msg := range messages {
		future, err := q.js.PublishAsync(msg.Subject, msg.Data)
		if err != nil {
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-q.js.PublishAsyncComplete():
	case <-ctx.Done():
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	successCount := 0
	for _, future := range futures {
		select {
		case <-future.Ok():
			successCount++
		case <-future.Err():
		}
	}
	return successCount, nil
}

// Close drains and closes the connection
func (q *NATSPublisher) Close() error {
	if q.conn.IsClosed() {
		return nil
	}
	return q.conn.Drain()
}
