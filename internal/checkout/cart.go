package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// addItemStrategy кладёт вариант товара в заказ, сливая повторы.
type addItemStrategy struct{}

// NewAddItemStrategy возвращает стратегию add_item по умолчанию.
func NewAddItemStrategy() Strategy {
	return &addItemStrategy{}
}

func (s *addItemStrategy) Execute(_ context.Context, op Context) Result {
	if op.Variant.ID == "" {
		return FailureErr(domain.ErrVariantNotFound)
	}
	if op.Variant.Currency != "" && op.Variant.Currency != op.Order.Currency {
		return Failure(domain.BusinessFault("variant is not priced in the order currency"))
	}

	now := op.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	item := domain.LineItem{
		ID:         uuid.NewString(),
		VariantID:  op.Variant.ID,
		Qty:        op.Quantity,
		PriceMinor: op.Variant.PriceMinor,
		Options:    op.Options,
		CreatedAt:  now,
	}
	if err := op.Order.AddItem(item); err != nil {
		return FailureErr(err)
	}

	return Success(op.Order)
}

// removeLineItemStrategy удаляет одну позицию заказа.
type removeLineItemStrategy struct{}

// NewRemoveLineItemStrategy возвращает стратегию remove_line_item по умолчанию.
func NewRemoveLineItemStrategy() Strategy {
	return &removeLineItemStrategy{}
}

func (s *removeLineItemStrategy) Execute(_ context.Context, op Context) Result {
	if err := op.Order.RemoveLineItem(op.LineItemID); err != nil {
		return FailureErr(err)
	}
	return Success(op.Order)
}

// setQuantityStrategy выставляет количество позиции. Положительность
// количества проверена оркестратором ещё до авторизации.
type setQuantityStrategy struct{}

// NewSetQuantityStrategy возвращает стратегию set_quantity по умолчанию.
func NewSetQuantityStrategy() Strategy {
	return &setQuantityStrategy{}
}

func (s *setQuantityStrategy) Execute(_ context.Context, op Context) Result {
	if err := op.Order.SetItemQuantity(op.LineItemID, op.Quantity); err != nil {
		return FailureErr(err)
	}
	return Success(op.Order)
}

// emptyStrategy безусловно очищает заказ от позиций и корректировок.
type emptyStrategy struct{}

// NewEmptyStrategy возвращает стратегию empty по умолчанию.
func NewEmptyStrategy() Strategy {
	return &emptyStrategy{}
}

func (s *emptyStrategy) Execute(_ context.Context, op Context) Result {
	op.Order.Empty()
	return Success(op.Order)
}

var (
	_ Strategy = (*addItemStrategy)(nil)
	_ Strategy = (*removeLineItemStrategy)(nil)
	_ Strategy = (*setQuantityStrategy)(nil)
	_ Strategy = (*emptyStrategy)(nil)
)
