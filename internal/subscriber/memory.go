package subscriber

import (
	"context"
	"fmt"
	"sync"
)

// MemorySubscriber dispatches delivered messages to in-process handlers.
// It is used in development and tests.
type MemorySubscriber struct {
	handlers map[string]MessageHandler
	closed   bool
	mu       sync.RWMutex
}

// NewMemorySubscriber creates an in-memory subscriber
func NewMemorySubscriber() *MemorySubscriber {
	return &MemorySubscriber{handlers: make(map[string]MessageHandler)}
}

// Subscribe registers handler for subject
func (s *MemorySubscriber) Subscribe(_ context.Context, subject string, handler MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("subscriber closed")
	}
	if _, exists := s.handlers[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}
	s.handlers[subject] = handler
	return nil
}

// Deliver hands data to the handler subscribed to subject and returns its
// error. Messages for subjects nobody subscribed to are dropped.
func (s *MemorySubscriber) Deliver(ctx context.Context, subject string, data []byte) error {
	s.mu.RLock()
	handler, ok := s.handlers[subject]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return fmt.Errorf("subscriber closed")
	}
	if !ok {
		return nil
	}
	return handler(ctx, subject, data)
}

// Close removes all subscriptions
func (s *MemorySubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.handlers = make(map[string]MessageHandler)
	return nil
}
