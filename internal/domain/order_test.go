package domain

import (
	"errors"
	"testing"
	"time"
)

func newCartOrder() *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        "order-1",
		StoreID:   "store-1",
		Currency:  "USD",
		State:     OrderStateCart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrder_AddItemMergesSameVariant(t *testing.T) {
	order := newCartOrder()

	if err := order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 2, PriceMinor: 1000}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := order.AddItem(LineItem{ID: "li-2", VariantID: "v-1", Qty: 3, PriceMinor: 1000}); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(order.Items) != 1 {
		t.Fatalf("expected 1 merged line item, got %d", len(order.Items))
	}
	if order.Items[0].Qty != 5 {
		t.Fatalf("expected merged quantity 5, got %d", order.Items[0].Qty)
	}
}

func TestOrder_AddItemKeepsDistinctOptionsApart(t *testing.T) {
	order := newCartOrder()

	_ = order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 1, Options: map[string]string{"size": "M"}})
	_ = order.AddItem(LineItem{ID: "li-2", VariantID: "v-1", Qty: 1, Options: map[string]string{"size": "L"}})

	if len(order.Items) != 2 {
		t.Fatalf("expected 2 separate line items, got %d", len(order.Items))
	}
}

func TestOrder_AddItemRejectsNonPositiveQuantity(t *testing.T) {
	order := newCartOrder()

	if err := order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 0}); !errors.Is(err, ErrItemQtyInvalid) {
		t.Fatalf("expected ErrItemQtyInvalid, got %v", err)
	}
}

func TestOrder_AddItemRejectsCompletedOrder(t *testing.T) {
	order := newCartOrder()
	order.State = OrderStateComplete

	if err := order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 1}); !errors.Is(err, ErrOrderNotEditable) {
		t.Fatalf("expected ErrOrderNotEditable, got %v", err)
	}
}

func TestOrder_RemoveLineItem(t *testing.T) {
	order := newCartOrder()
	_ = order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 1})
	_ = order.AddItem(LineItem{ID: "li-2", VariantID: "v-2", Qty: 1})

	if err := order.RemoveLineItem("li-1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].ID != "li-2" {
		t.Fatalf("unexpected items after removal: %+v", order.Items)
	}
	if err := order.RemoveLineItem("li-1"); !errors.Is(err, ErrLineItemNotFound) {
		t.Fatalf("expected ErrLineItemNotFound, got %v", err)
	}
}

func TestOrder_SetItemQuantity(t *testing.T) {
	order := newCartOrder()
	_ = order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 1})

	if err := order.SetItemQuantity("li-1", 7); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if order.Items[0].Qty != 7 {
		t.Fatalf("expected quantity 7, got %d", order.Items[0].Qty)
	}
	if err := order.SetItemQuantity("li-1", 0); !errors.Is(err, ErrItemQtyInvalid) {
		t.Fatalf("expected ErrItemQtyInvalid for zero, got %v", err)
	}
	if err := order.SetItemQuantity("missing", 2); !errors.Is(err, ErrLineItemNotFound) {
		t.Fatalf("expected ErrLineItemNotFound, got %v", err)
	}
}

func TestOrder_Totals(t *testing.T) {
	order := newCartOrder()
	_ = order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 2, PriceMinor: 1500})
	_ = order.ApplyCoupon(AppliedCoupon{Code: "ten", DiscountMinor: 1000})

	if got := order.ItemTotalMinor(); got != 3000 {
		t.Fatalf("item total: expected 3000, got %d", got)
	}
	if got := order.AdjustmentTotalMinor(); got != -1000 {
		t.Fatalf("adjustment total: expected -1000, got %d", got)
	}
	if got := order.TotalMinor(); got != 2000 {
		t.Fatalf("total: expected 2000, got %d", got)
	}
}

func TestOrder_TotalNeverNegative(t *testing.T) {
	order := newCartOrder()
	_ = order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 1, PriceMinor: 500})
	_ = order.ApplyCoupon(AppliedCoupon{Code: "huge", DiscountMinor: 10_000})

	if got := order.TotalMinor(); got != 0 {
		t.Fatalf("expected total floored at 0, got %d", got)
	}
}

func TestOrder_EmptyClearsItemsAndCoupons(t *testing.T) {
	order := newCartOrder()
	_ = order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 1, PriceMinor: 100})
	_ = order.ApplyCoupon(AppliedCoupon{Code: "ten", DiscountMinor: 10})

	order.Empty()

	if len(order.Items) != 0 || len(order.Coupons) != 0 {
		t.Fatalf("expected items and coupons cleared, got %d items, %d coupons", len(order.Items), len(order.Coupons))
	}
	if got := order.TotalMinor(); got != 0 {
		t.Fatalf("expected zero total after empty, got %d", got)
	}
}

func TestOrder_ApplyCouponRejectsDuplicateCode(t *testing.T) {
	order := newCartOrder()
	_ = order.ApplyCoupon(AppliedCoupon{Code: "ten", DiscountMinor: 10})

	if err := order.ApplyCoupon(AppliedCoupon{Code: "ten", DiscountMinor: 10}); !errors.Is(err, ErrCouponAlreadyApplied) {
		t.Fatalf("expected ErrCouponAlreadyApplied, got %v", err)
	}
}

func TestOrder_RemoveCoupon(t *testing.T) {
	order := newCartOrder()
	_ = order.ApplyCoupon(AppliedCoupon{Code: "ten", DiscountMinor: 10})

	if err := order.RemoveCoupon("ten"); err != nil {
		t.Fatalf("remove coupon failed: %v", err)
	}
	if err := order.RemoveCoupon("ten"); !errors.Is(err, ErrCouponNotApplied) {
		t.Fatalf("expected ErrCouponNotApplied, got %v", err)
	}
}

func TestOrder_NextStateWalksCheckoutFlow(t *testing.T) {
	order := newCartOrder()

	expected := []OrderState{
		OrderStateAddress, OrderStateDelivery, OrderStatePayment,
		OrderStateConfirm, OrderStateComplete,
	}
	for _, want := range expected {
		next, err := order.NextState()
		if err != nil {
			t.Fatalf("unexpected error in state %s: %v", order.State, err)
		}
		if next != want {
			t.Fatalf("from %s expected next %s, got %s", order.State, want, next)
		}
		order.State = next
	}

	if _, err := order.NextState(); !errors.Is(err, ErrNoFurtherStates) {
		t.Fatalf("expected ErrNoFurtherStates at the end of the flow, got %v", err)
	}
}

func TestOrder_Approve(t *testing.T) {
	order := newCartOrder()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	order.Approve("admin-1", at)

	if order.ApprovedBy != "admin-1" {
		t.Fatalf("expected approver admin-1, got %q", order.ApprovedBy)
	}
	if order.ApprovedAt == nil || !order.ApprovedAt.Equal(at) {
		t.Fatalf("unexpected approval time: %v", order.ApprovedAt)
	}
}

func TestOrder_CloneIsDeep(t *testing.T) {
	order := newCartOrder()
	_ = order.AddItem(LineItem{ID: "li-1", VariantID: "v-1", Qty: 1, Options: map[string]string{"size": "M"}})
	_ = order.ApplyCoupon(AppliedCoupon{Code: "ten", DiscountMinor: 10})
	order.ShipAddress = &Address{Line1: "Main st 1", City: "Riga", CountryCode: "LV"}

	clone := order.Clone()
	clone.Items[0].Qty = 99
	clone.Items[0].Options["size"] = "XL"
	clone.Coupons[0].DiscountMinor = 999
	clone.ShipAddress.City = "Oslo"

	if order.Items[0].Qty != 1 || order.Items[0].Options["size"] != "M" {
		t.Fatalf("clone mutation leaked into original items: %+v", order.Items[0])
	}
	if order.Coupons[0].DiscountMinor != 10 {
		t.Fatalf("clone mutation leaked into original coupons: %+v", order.Coupons[0])
	}
	if order.ShipAddress.City != "Riga" {
		t.Fatalf("clone mutation leaked into original address: %+v", order.ShipAddress)
	}
}
