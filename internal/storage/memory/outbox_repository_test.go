package memory

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func TestOutboxRepository_Lifecycle(t *testing.T) {
	repo := NewOutboxRepository()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.created",
		Payload:       []byte(`{"order_id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("enqueue must assign an ID")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, _ = repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("sent message must leave the pending set, got %+v", pending)
	}
}

func TestOutboxRepository_MarkFailedKeepsMessageOutOfPending(t *testing.T) {
	repo := NewOutboxRepository()
	msg, _ := repo.Enqueue(domain.OutboxMessage{EventType: "order.created"})

	if err := repo.MarkFailed(msg.ID); err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}
	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("failed message must not be re-pulled, got %+v", pending)
	}
}

func TestOutboxRepository_PullPendingRespectsLimit(t *testing.T) {
	repo := NewOutboxRepository()
	for i := 0; i < 5; i++ {
		_, _ = repo.Enqueue(domain.OutboxMessage{EventType: "order.created"})
	}

	pending, err := repo.PullPending(3)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(pending))
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected empty backlog, got %d", stats.PendingCount)
	}

	_, _ = repo.Enqueue(domain.OutboxMessage{EventType: "order.created"})
	_, _ = repo.Enqueue(domain.OutboxMessage{EventType: "order.updated"})

	stats, _ = repo.Stats()
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() || stats.OldestPendingAt.After(time.Now().UTC()) {
		t.Fatalf("unexpected oldest pending timestamp: %v", stats.OldestPendingAt)
	}
}

func TestOutboxRepository_MarkUnknownID(t *testing.T) {
	repo := NewOutboxRepository()

	if err := repo.MarkSent("ghost"); err == nil {
		t.Fatal("expected error for unknown message id")
	}
}

func TestTimelineRepository_AppendAndList(t *testing.T) {
	repo := NewTimelineRepository()
	base := time.Now().UTC()

	events := []domain.TimelineEvent{
		{OrderID: "order-1", Type: "order.item_added", Occurred: base.Add(time.Second)},
		{OrderID: "order-1", Type: "order.created", Occurred: base},
		{OrderID: "order-2", Type: "order.created", Occurred: base},
	}
	for _, event := range events {
		if err := repo.Append(event); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	got, err := repo.List("order-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != "order.created" || got[1].Type != "order.item_added" {
		t.Fatalf("expected chronological order, got %+v", got)
	}

	empty, err := repo.List("ghost")
	if err != nil {
		t.Fatalf("list of unknown order failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no events, got %+v", empty)
	}
}
