package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/storage/memory"
)

// recordingPublisher запоминает публикации и умеет падать первые failures раз.
type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
	failures  int
}

func (p *recordingPublisher) Publish(event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func (p *recordingPublisher) Published() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.OutboxMessage, len(p.published))
	copy(out, p.published)
	return out
}

func TestWorker_ProcessOncePublishesPendingBatch(t *testing.T) {
	repo := memory.NewOutboxRepository()
	for _, eventType := range []string{"order.created", "order.item_added"} {
		_, err := repo.Enqueue(domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   "order-1",
			EventType:     eventType,
			Payload:       []byte(`{}`),
		})
		require.NoError(t, err)
	}
	publisher := &recordingPublisher{}
	worker := NewWorker(repo, publisher)

	worker.ProcessOnce(context.Background())

	assert.Len(t, publisher.Published(), 2)
	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending, "published messages must be marked sent")
}

func TestWorker_RetriesTransientPublishErrors(t *testing.T) {
	repo := memory.NewOutboxRepository()
	_, err := repo.Enqueue(domain.OutboxMessage{EventType: "order.created", Payload: []byte(`{}`)})
	require.NoError(t, err)

	publisher := &recordingPublisher{failures: 2}
	worker := NewWorker(repo, publisher, WithMaxAttempts(3))
	worker.retryBaseDelay = time.Millisecond

	worker.ProcessOnce(context.Background())

	assert.Len(t, publisher.Published(), 1, "third attempt must succeed")
	pending, _ := repo.PullPending(10)
	assert.Empty(t, pending)
}

func TestWorker_MarksFailedAfterAttemptBudget(t *testing.T) {
	repo := memory.NewOutboxRepository()
	msg, err := repo.Enqueue(domain.OutboxMessage{EventType: "order.created", Payload: []byte(`{}`)})
	require.NoError(t, err)

	publisher := &recordingPublisher{failures: 100}
	worker := NewWorker(repo, publisher, WithMaxAttempts(2))
	worker.retryBaseDelay = time.Millisecond

	worker.ProcessOnce(context.Background())

	assert.Empty(t, publisher.Published())
	pending, _ := repo.PullPending(10)
	assert.Empty(t, pending, "message %s must be parked as failed, not retried forever", msg.ID)
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	repo := memory.NewOutboxRepository()
	worker := NewWorker(repo, &recordingPublisher{}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
