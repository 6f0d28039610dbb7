// Package subscriber consumes prediction events from the queue backends the
// server publishes to.
package subscriber

import (
	"context"
)

// MessageHandler processes one message. A non-nil error leaves the message
// unacknowledged so the backend can redeliver it.
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// Subscriber defines the interface for message subscription
type Subscriber interface {
	// Subscribe starts delivering messages on subject to handler until ctx is
	// done or the subscriber is closed
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error

	// Close stops all subscriptions and releases resources
	Close() error
}

// Config holds common subscriber configuration
type Config struct {
	// Group shares the event stream between consumers of the same group
	Group string
	// Consumer names this consumer within the group
	Consumer string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Group:    "ridecast-monitor",
		Consumer: "monitor-1",
	}
}
