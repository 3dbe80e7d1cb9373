package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func testOrder(id, userID string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:        id,
		StoreID:   "store-1",
		UserID:    userID,
		Currency:  "USD",
		State:     domain.OrderStateCart,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	order := testOrder("order-1", "u-1", time.Now().UTC())

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(order); err == nil {
		t.Fatal("expected error for duplicate create")
	}

	got, err := repo.Get("order-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != "order-1" || got.Version != 0 {
		t.Fatalf("unexpected order: %+v", got)
	}

	if _, err := repo.Get("ghost"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_GetReturnsIsolatedCopy(t *testing.T) {
	repo := NewOrderRepository()
	order := testOrder("order-1", "u-1", time.Now().UTC())
	_ = order.AddItem(domain.LineItem{ID: "li-1", VariantID: "v-1", Qty: 1, PriceMinor: 100})
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, _ := repo.Get("order-1")
	first.Items[0].Qty = 99

	second, _ := repo.Get("order-1")
	if second.Items[0].Qty != 1 {
		t.Fatalf("repository copy was mutated through a read: %+v", second.Items[0])
	}
}

func TestOrderRepository_SaveOptimisticLocking(t *testing.T) {
	repo := NewOrderRepository()
	order := testOrder("order-1", "u-1", time.Now().UTC())
	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Два читателя берут одну и ту же версию.
	first, _ := repo.Get("order-1")
	second, _ := repo.Get("order-1")

	first.Email = "first@example.com"
	if err := repo.Save(first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second.Email = "second@example.com"
	if err := repo.Save(second); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict for stale writer, got %v", err)
	}

	got, _ := repo.Get("order-1")
	if got.Email != "first@example.com" {
		t.Fatalf("winner's update lost: %+v", got)
	}
	if got.Version != 1 {
		t.Fatalf("expected stored version 1, got %d", got.Version)
	}
}

func TestOrderRepository_SaveUnknownOrder(t *testing.T) {
	repo := NewOrderRepository()

	err := repo.Save(testOrder("ghost", "u-1", time.Now().UTC()))
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ListByUser(t *testing.T) {
	repo := NewOrderRepository()
	base := time.Now().UTC()
	_ = repo.Create(testOrder("order-1", "u-1", base.Add(-2*time.Hour)))
	_ = repo.Create(testOrder("order-2", "u-1", base.Add(-time.Hour)))
	_ = repo.Create(testOrder("order-3", "u-2", base))

	orders, err := repo.ListByUser("u-1", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != "order-2" || orders[1].ID != "order-1" {
		t.Fatalf("expected newest first, got %s, %s", orders[0].ID, orders[1].ID)
	}

	limited, err := repo.ListByUser("u-1", 1)
	if err != nil {
		t.Fatalf("limited list failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "order-2" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}
