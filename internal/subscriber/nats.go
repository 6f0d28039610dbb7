package subscriber

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/queue"
)

// NATSSubscriber consumes the JetStream event stream with durable consumers
type NATSSubscriber struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	cfg           Config
	subscriptions map[string]*nats.Subscription
	mu            sync.Mutex
}

// NewNATSSubscriber connects to NATS
func NewNATSSubscriber(url, username, password string, cfg Config) (*NATSSubscriber, error) {
	log := logging.Global().With("component", "subscriber.nats")

	opts := []nats.Option{
		nats.Name("ridecast-" + cfg.Consumer),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if username != "" {
		opts = append(opts, nats.UserInfo(username, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSSubscriber{
		conn:          conn,
		js:            js,
		cfg:           cfg,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// Subscribe binds a durable consumer named after the group and subject.
// Consumers of the same group share the durable, so each event is handled once.
func (s *NATSSubscriber) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	if err := queue.EnsureStream(s.js, []string{subject}); err != nil {
		return err
	}

	durable := durableName(s.cfg.Group, subject)
	log := logging.Global().With("component", "subscriber.nats", "subject", subject)

	sub, err := s.js.QueueSubscribe(subject, s.cfg.Group, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, msg.Subject, msg.Data); err != nil {
			log.Warn("Failed to handle message", "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.BindStream(queue.EventStream),
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.subscriptions[subject] = sub
	log.Info("Subscribed to subject", "durable", durable)
	return nil
}

// durableName builds a consumer name; NATS forbids dots and wildcards in it
func durableName(group, subject string) string {
	r := strings.NewReplacer(".", "_", "*", "all", ">", "rest")
	return group + "-" + r.Replace(subject)
}

// Close unsubscribes and closes the connection. Durable consumers are kept
// so a restarted monitor resumes where it stopped.
func (s *NATSSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		_ = sub.Drain()
	}
	s.subscriptions = make(map[string]*nats.Subscription)

	s.conn.Close()
	return nil
}
