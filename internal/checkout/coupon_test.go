package checkout

import (
	"context"
	"testing"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

func TestApplyCouponStrategy_AppliesGrant(t *testing.T) {
	order := cartWithItem()
	coupons := &stubCouponService{grant: domain.CouponGrant{Code: "ten", DiscountMinor: 100}}

	result := NewApplyCouponStrategy(coupons).Execute(context.Background(), Context{
		Order:      order,
		CouponCode: "  ten  ",
	})
	if !result.Ok() {
		t.Fatalf("unexpected failure: %v", result.Fault)
	}
	if len(order.Coupons) != 1 || order.Coupons[0].DiscountMinor != 100 {
		t.Fatalf("unexpected coupons: %+v", order.Coupons)
	}
}

func TestApplyCouponStrategy_BlankCode(t *testing.T) {
	result := NewApplyCouponStrategy(&stubCouponService{}).Execute(context.Background(), Context{
		Order:      cartWithItem(),
		CouponCode: "   ",
	})
	if result.Ok() {
		t.Fatal("expected validation failure for blank code")
	}
	if result.Fault.Kind != domain.FaultValidation {
		t.Fatalf("expected validation fault, got %s", result.Fault.Kind)
	}
}

func TestApplyCouponStrategy_ServiceRejection(t *testing.T) {
	coupons := &stubCouponService{err: domain.ErrCouponExpired}

	result := NewApplyCouponStrategy(coupons).Execute(context.Background(), Context{
		Order:      cartWithItem(),
		CouponCode: "old",
	})
	if result.Ok() {
		t.Fatal("expected failure for expired coupon")
	}
	if result.Fault.Kind != domain.FaultBusiness {
		t.Fatalf("expected business fault, got %s", result.Fault.Kind)
	}
}

func TestRemoveCouponStrategy_NoCouponsApplied(t *testing.T) {
	result := NewRemoveCouponStrategy().Execute(context.Background(), Context{Order: cartWithItem()})
	if result.Ok() {
		t.Fatal("expected failure when no coupons are applied")
	}
	if result.Fault.Kind != domain.FaultBusiness {
		t.Fatalf("expected business fault, got %s", result.Fault.Kind)
	}
}

func TestRemoveCouponStrategy_DefaultsToAllCodes(t *testing.T) {
	order := cartWithItem()
	_ = order.ApplyCoupon(domain.AppliedCoupon{Code: "a", DiscountMinor: 10})
	_ = order.ApplyCoupon(domain.AppliedCoupon{Code: "b", DiscountMinor: 20})

	result := NewRemoveCouponStrategy().Execute(context.Background(), Context{Order: order})
	if !result.Ok() {
		t.Fatalf("unexpected failure: %v", result.Fault)
	}
	if len(order.Coupons) != 0 {
		t.Fatalf("expected all coupons removed, got %+v", order.Coupons)
	}
}

func TestRemoveCouponStrategy_SingleUnknownCode(t *testing.T) {
	order := cartWithItem()
	_ = order.ApplyCoupon(domain.AppliedCoupon{Code: "a", DiscountMinor: 10})

	result := NewRemoveCouponStrategy().Execute(context.Background(), Context{
		Order:       order,
		CouponCodes: []string{"missing"},
	})
	if result.Ok() {
		t.Fatal("expected failure for unknown code")
	}
	if result.Fault.Kind != domain.FaultBusiness || result.Fault.Message == "" {
		t.Fatalf("expected direct business fault with message, got %+v", result.Fault)
	}
	if len(order.Coupons) != 1 {
		t.Fatalf("applied coupon must survive, got %+v", order.Coupons)
	}
}

func TestRemoveCouponStrategy_PartialFailureAggregatesErrors(t *testing.T) {
	order := cartWithItem()
	_ = order.ApplyCoupon(domain.AppliedCoupon{Code: "a", DiscountMinor: 10})

	result := NewRemoveCouponStrategy().Execute(context.Background(), Context{
		Order:       order,
		CouponCodes: []string{"a", "missing-1", "missing-2"},
	})
	if result.Ok() {
		t.Fatal("expected aggregated failure")
	}
	// Успешное снятие "a" остаётся в силе.
	if len(order.Coupons) != 0 {
		t.Fatalf("successfully removed code must stay removed, got %+v", order.Coupons)
	}
	if len(result.Fault.Fields) != 2 {
		t.Fatalf("expected per-code error map with 2 entries, got %+v", result.Fault.Fields)
	}
	for _, code := range []string{"missing-1", "missing-2"} {
		if len(result.Fault.Fields[code]) == 0 {
			t.Fatalf("expected error for code %s, got %+v", code, result.Fault.Fields)
		}
	}
}
