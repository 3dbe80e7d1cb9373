package authz

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

type stubStoreProducts struct {
	linked map[string]bool
	err    error
}

func (s *stubStoreProducts) Link(string, string) error                          { return nil }
func (s *stubStoreProducts) Unlink(string, string) (bool, error)                { return false, nil }
func (s *stubStoreProducts) ListByProduct(string) ([]domain.StoreProduct, error) { return nil, nil }

func (s *stubStoreProducts) Linked(storeID, productID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.linked[storeID+"/"+productID], nil
}

func TestGate_AdminBypassesAllPolicies(t *testing.T) {
	gate := NewGate(&stubStoreProducts{})
	admin := Caller{UserID: "u-1", Roles: []string{RoleAdmin}}

	order := &domain.Order{ID: "order-1", UserID: "someone-else"}
	if err := gate.Authorize(context.Background(), ActionUpdate, order, admin); err != nil {
		t.Fatalf("admin must pass any order check: %v", err)
	}
	if err := gate.Authorize(context.Background(), ActionManageCatalog, domain.Store{ID: "s-1"}, admin); err != nil {
		t.Fatalf("admin must pass catalog check: %v", err)
	}
}

func TestGate_GuestCartIsAccessible(t *testing.T) {
	gate := NewGate(&stubStoreProducts{})
	guest := Caller{}

	order := &domain.Order{ID: "order-1"} // UserID пуст — гостевая корзина
	if err := gate.Authorize(context.Background(), ActionUpdate, order, guest); err != nil {
		t.Fatalf("guest cart must be accessible: %v", err)
	}
}

func TestGate_OwnerCanUpdateOwnOrder(t *testing.T) {
	gate := NewGate(&stubStoreProducts{})
	caller := Caller{UserID: "u-1"}

	order := &domain.Order{ID: "order-1", UserID: "u-1"}
	if err := gate.Authorize(context.Background(), ActionUpdate, order, caller); err != nil {
		t.Fatalf("owner must pass: %v", err)
	}
}

func TestGate_ForeignOrderIsForbidden(t *testing.T) {
	gate := NewGate(&stubStoreProducts{})

	order := &domain.Order{ID: "order-1", UserID: "u-1"}
	for _, caller := range []Caller{{UserID: "u-2"}, {}} {
		err := gate.Authorize(context.Background(), ActionUpdate, order, caller)
		if caller.Guest() && order.UserID == "" {
			continue
		}
		if err == nil {
			t.Fatalf("caller %+v must not access foreign order", caller)
		}
		fault := domain.AsFault(err)
		if fault.Kind != domain.FaultAuthorization {
			t.Fatalf("expected authorization fault, got %s", fault.Kind)
		}
	}
}

func TestGate_AnyoneMayCreateOrders(t *testing.T) {
	gate := NewGate(&stubStoreProducts{})

	if err := gate.Authorize(context.Background(), ActionCreate, &domain.Order{}, Caller{}); err != nil {
		t.Fatalf("guest must be able to create orders: %v", err)
	}
}

func TestGate_VariantVisibilityFollowsStoreLink(t *testing.T) {
	gate := NewGate(&stubStoreProducts{linked: map[string]bool{"store-1/p-1": true}})
	caller := Caller{UserID: "u-1"}

	visible := VariantInStore{
		Variant: domain.Variant{ID: "v-1", ProductID: "p-1"},
		StoreID: "store-1",
	}
	if err := gate.Authorize(context.Background(), ActionShow, visible, caller); err != nil {
		t.Fatalf("linked variant must be visible: %v", err)
	}

	hidden := VariantInStore{
		Variant: domain.Variant{ID: "v-2", ProductID: "p-2"},
		StoreID: "store-1",
	}
	err := gate.Authorize(context.Background(), ActionShow, hidden, caller)
	if err == nil {
		t.Fatal("unlinked variant must be hidden")
	}
	if domain.AsFault(err).Kind != domain.FaultAuthorization {
		t.Fatalf("expected authorization fault, got %v", err)
	}
}

func TestGate_NonAdminCannotManageCatalog(t *testing.T) {
	gate := NewGate(&stubStoreProducts{})

	err := gate.Authorize(context.Background(), ActionManageCatalog, domain.Store{ID: "s-1"}, Caller{UserID: "u-1"})
	if err == nil {
		t.Fatal("expected denial for non-admin catalog management")
	}
}
