package queue

import (
	"context"
	"fmt"
	"sync"
)

// MemoryPublisher keeps published messages in memory, per subject.
// It is used in development and tests.
type MemoryPublisher struct {
	messages map[string][][]byte
	closed   bool
	mu       sync.RWMutex
}

func newMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{messages: make(map[string][][]byte)}
}

// NewMemoryPublisher creates an in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return newMemoryPublisher()
}

// Publish stores a copy of data under subject
func (q *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("publisher closed")
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	q.messages[subject] = append(q.messages[subject], dataCopy)
	return nil
}

// PublishBatch publishes multiple messages
func (q *MemoryPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	successCount := 0
	for _, msg := range messages {
		if err := q.Publish(ctx, msg.Subject, msg.Data); err != nil {
			return successCount, err
		}
		successCount++
	}
	return successCount, nil
}

// Messages returns the messages published to subject, oldest first
func (q *MemoryPublisher) Messages(subject string) [][]byte {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([][]byte, len(q.messages[subject]))
	copy(out, q.messages[subject])
	return out
}

// Close rejects further publishes
func (q *MemoryPublisher) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
