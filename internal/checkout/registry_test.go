package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

type stubCouponService struct {
	grant domain.CouponGrant
	err   error
}

func (s *stubCouponService) Validate(_ context.Context, _ domain.Order, code string) (domain.CouponGrant, error) {
	if s.err != nil {
		return domain.CouponGrant{}, s.err
	}
	grant := s.grant
	if grant.Code == "" {
		grant.Code = code
	}
	return grant, nil
}

type stubPaymentVerifier struct {
	err error
}

func (s *stubPaymentVerifier) Authorized(context.Context, domain.Order) error {
	return s.err
}

func TestNewRegistry_DefaultConfigIsComplete(t *testing.T) {
	registry, err := NewRegistry(DefaultConfig(&stubCouponService{}, &stubPaymentVerifier{}))
	if err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	for _, op := range []Operation{
		OpCreate, OpAddItem, OpRemoveLineItem, OpSetQuantity,
		OpNext, OpAdvance, OpComplete, OpUpdate, OpEmpty,
		OpApplyCoupon, OpRemoveCoupon,
	} {
		if _, err := registry.Resolve(op); err != nil {
			t.Fatalf("operation %s is not resolvable: %v", op, err)
		}
	}
}

func TestNewRegistry_RejectsMissingStrategy(t *testing.T) {
	cfg := DefaultConfig(&stubCouponService{}, &stubPaymentVerifier{})
	cfg.ApplyCoupon = nil
	cfg.Empty = nil

	_, err := NewRegistry(cfg)
	if err == nil {
		t.Fatal("expected configuration error for missing strategies")
	}

	var fault *domain.Fault
	if !errors.As(err, &fault) || fault.Kind != domain.FaultConfiguration {
		t.Fatalf("expected configuration fault, got %v", err)
	}
}

func TestRegistry_ResolveUnknownOperation(t *testing.T) {
	registry, err := NewRegistry(DefaultConfig(&stubCouponService{}, &stubPaymentVerifier{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = registry.Resolve(Operation("teleport"))
	if err == nil {
		t.Fatal("expected error for unknown operation")
	}
	var fault *domain.Fault
	if !errors.As(err, &fault) || fault.Kind != domain.FaultConfiguration {
		t.Fatalf("expected configuration fault, got %v", err)
	}
}
