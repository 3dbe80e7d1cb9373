package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// createStrategy собирает новый заказ-корзину для магазина.
type createStrategy struct{}

// NewCreateStrategy возвращает стратегию создания заказа по умолчанию.
func NewCreateStrategy() Strategy {
	return &createStrategy{}
}

func (s *createStrategy) Execute(_ context.Context, op Context) Result {
	if op.Store.ID == "" {
		return Failure(domain.FieldValidationFault("store", "store is required"))
	}

	currency := op.Currency
	if currency == "" {
		currency = op.Store.DefaultCurrency
	}
	if currency == "" {
		return Failure(domain.FieldValidationFault("currency", "currency is required"))
	}

	now := op.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	order := domain.Order{
		ID:        uuid.NewString(),
		StoreID:   op.Store.ID,
		UserID:    op.UserID,
		Currency:  currency,
		State:     domain.OrderStateCart,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return FailureErr(errs[0])
	}

	return Success(&order)
}

var _ Strategy = (*createStrategy)(nil)
