//go:build integration

package consumer_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuflow/internal/platform/kafka/consumer"
	"docuflow/internal/platform/kafka/producer"
	"docuflow/internal/platform/logger"
	"docuflow/pkg/testutil/containers"
)

type collectingHandler struct {
	mu       sync.Mutex
	failures int
	seen     []*consumer.Message
}

func (h *collectingHandler) Handle(_ context.Context, msg *consumer.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, msg)
	if h.failures > 0 {
		h.failures--
		return fmt.Errorf("simulated handler failure")
	}
	return nil
}

func (h *collectingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func runConsumer(t *testing.T, broker, topic string, handler consumer.Handler) {
	t.Helper()

	c, err := consumer.New([]string{broker}, "test-group-"+topic, topic, handler, logger.New("test"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		c.Close()
		<-done
	})
}

func TestQueueRoundTrip(t *testing.T) {
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "docuflow.test." + uuid.NewString()

	p, err := producer.New([]string{broker}, topic)
	require.NoError(t, err)
	defer p.Close()

	handler := &collectingHandler{}
	runConsumer(t, broker, topic, handler)

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, []byte("mail-1"), []byte(`{"n":1}`)))
	require.NoError(t, p.Publish(ctx, []byte("mail-2"), []byte(`{"n":2}`)))

	require.Eventually(t, func() bool {
		return handler.count() >= 2
	}, 30*time.Second, 100*time.Millisecond)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, "mail-1", string(handler.seen[0].Key))
	assert.Equal(t, "mail-2", string(handler.seen[1].Key))
	assert.Equal(t, topic, handler.seen[0].Topic)
}

func TestQueueRedeliversAfterHandlerFailure(t *testing.T) {
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "docuflow.test." + uuid.NewString()

	p, err := producer.New([]string{broker}, topic)
	require.NoError(t, err)
	defer p.Close()

	// First delivery fails; the partition rewinds and redelivers.
	handler := &collectingHandler{failures: 1}
	runConsumer(t, broker, topic, handler)

	require.NoError(t, p.Publish(context.Background(), []byte("mail-1"), []byte(`{"n":1}`)))

	require.Eventually(t, func() bool {
		return handler.count() >= 2
	}, 30*time.Second, 100*time.Millisecond)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	for _, msg := range handler.seen {
		assert.Equal(t, "mail-1", string(msg.Key))
	}
}
