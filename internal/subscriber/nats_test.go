package subscriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/ridecast/ridecast/internal/config"
	"github.com/ridecast/ridecast/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestNATS(t *testing.T) string {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go ns.Start()
	require.True(t, ns.ReadyForConnections(5*time.Second), "NATS server not ready")

	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns.ClientURL()
}

type collector struct {
	mu   sync.Mutex
	data []string
}

func (c *collector) handle(_ context.Context, _ string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append(c.data, string(data))
	return nil
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.data...)
}

func TestNATSSubscriber_RoundTrip(t *testing.T) {
	url := setupTestNATS(t)
	const subject = "ridecast.predictions"

	pub, err := queue.NewPublisher(config.QueueConfig{Type: "nats", URL: url, Subject: subject})
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// published before the consumer exists; DeliverAll picks them up
	require.NoError(t, pub.Publish(ctx, subject, []byte(`{"prediction":1}`)))

	sub, err := NewSubscriber(config.QueueConfig{Type: "nats", URL: url}, Config{Group: "test", Consumer: "c1"})
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	c := &collector{}
	require.NoError(t, sub.Subscribe(ctx, subject, c.handle))
	assert.Error(t, sub.Subscribe(ctx, subject, c.handle))

	_, err = pub.PublishBatch(ctx, []queue.BatchMessage{
		{Subject: subject, Data: []byte(`{"prediction":2}`)},
		{Subject: subject, Data: []byte(`{"prediction":3}`)},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(c.snapshot()) == 3 }, 5*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t, []string{`{"prediction":1}`, `{"prediction":2}`, `{"prediction":3}`}, c.snapshot())
}

func TestNATSSubscriber_Redelivery(t *testing.T) {
	url := setupTestNATS(t)
	const subject = "ridecast.predictions"

	pub, err := queue.NewPublisher(config.QueueConfig{Type: "nats", URL: url, Subject: subject})
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	sub, err := NewNATSSubscriber(url, "", "", Config{Group: "test", Consumer: "c1"})
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mu sync.Mutex
	attempts := 0
	require.NoError(t, sub.Subscribe(ctx, subject, func(context.Context, string, []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		return nil
	}))

	require.NoError(t, pub.Publish(ctx, subject, []byte("x")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestNewNATSSubscriber_ConnectError(t *testing.T) {
	_, err := NewNATSSubscriber("nats://127.0.0.1:1", "", "", DefaultConfig())
	assert.Error(t, err)
}
