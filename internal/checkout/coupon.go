package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// applyCouponStrategy применяет код купона: валидация и расчёт скидки
// делегируются купонному сервису, заказ получает корректировку только
// при успешной валидации.
type applyCouponStrategy struct {
	coupons domain.CouponService
}

// NewApplyCouponStrategy возвращает стратегию apply_coupon_code по умолчанию.
func NewApplyCouponStrategy(coupons domain.CouponService) Strategy {
	return &applyCouponStrategy{coupons: coupons}
}

func (s *applyCouponStrategy) Execute(ctx context.Context, op Context) Result {
	code := strings.TrimSpace(op.CouponCode)
	if code == "" {
		return Failure(domain.FieldValidationFault("coupon_code", "coupon code is required"))
	}
	if s.coupons == nil {
		return Failure(domain.ConfigurationFault("coupon service is not configured"))
	}

	grant, err := s.coupons.Validate(ctx, *op.Order, code)
	if err != nil {
		return FailureErr(err)
	}

	now := op.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if err := op.Order.ApplyCoupon(domain.AppliedCoupon{
		Code:          grant.Code,
		DiscountMinor: grant.DiscountMinor,
		AppliedAt:     now,
	}); err != nil {
		return FailureErr(err)
	}

	return Success(op.Order)
}

// removeCouponStrategy снимает купоны с заказа. Если коды не указаны,
// снимаются все применённые. Каждый код снимается независимо: успешные
// снятия остаются в силе, ошибки по остальным кодам агрегируются.
type removeCouponStrategy struct{}

// NewRemoveCouponStrategy возвращает стратегию remove_coupon_code по умолчанию.
func NewRemoveCouponStrategy() Strategy {
	return &removeCouponStrategy{}
}

func (s *removeCouponStrategy) Execute(_ context.Context, op Context) Result {
	if len(op.Order.Coupons) == 0 {
		return FailureErr(domain.ErrNoCouponApplied)
	}

	codes := op.CouponCodes
	if len(codes) == 0 {
		codes = op.Order.CouponCodes()
	}

	failed := make(map[string][]string)
	for _, code := range codes {
		if err := op.Order.RemoveCoupon(code); err != nil {
			failed[code] = append(failed[code], err.Error())
		}
	}

	switch {
	case len(failed) == 0:
		return Success(op.Order)
	case len(codes) == 1:
		// Единственный код — отдаём его ошибку напрямую, без карты.
		for code, msgs := range failed {
			return Failure(domain.BusinessFault(fmt.Sprintf("%s: %s", code, strings.Join(msgs, "; "))))
		}
		return Success(op.Order)
	default:
		return Failure(&domain.Fault{Kind: domain.FaultBusiness, Fields: failed})
	}
}

var (
	_ Strategy = (*applyCouponStrategy)(nil)
	_ Strategy = (*removeCouponStrategy)(nil)
)
