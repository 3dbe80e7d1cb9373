package checkout

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// stepRequirement проверяет предусловие перехода на target.
// Каждый шаг оформления требует завершённости предыдущего: позиции до
// address, адрес до delivery, способ доставки до payment, авторизация
// оплаты до confirm, непустой заказ до complete.
func stepRequirement(ctx context.Context, order *domain.Order, target domain.OrderState, payments domain.PaymentVerifier) *domain.Fault {
	switch target {
	case domain.OrderStateAddress:
		if len(order.Items) == 0 {
			return domain.BusinessFault("cannot begin checkout with an empty order")
		}
	case domain.OrderStateDelivery:
		if !order.ShipAddress.Complete() {
			return domain.BusinessFault("shipping address is incomplete")
		}
	case domain.OrderStatePayment:
		if order.DeliveryMethod == "" {
			return domain.BusinessFault("delivery method is not selected")
		}
	case domain.OrderStateConfirm:
		if payments != nil {
			if err := payments.Authorized(ctx, *order); err != nil {
				return domain.AsFault(err)
			}
		}
	case domain.OrderStateComplete:
		if len(order.Items) == 0 {
			return domain.AsFault(domain.ErrOrderEmpty)
		}
	}
	return nil
}

func advanceOne(ctx context.Context, order *domain.Order, payments domain.PaymentVerifier) *domain.Fault {
	next, err := order.NextState()
	if err != nil {
		return domain.AsFault(err)
	}
	if fault := stepRequirement(ctx, order, next, payments); fault != nil {
		return fault
	}
	order.State = next
	return nil
}

// nextStrategy двигает заказ на один шаг оформления вперёд.
type nextStrategy struct {
	payments domain.PaymentVerifier
}

// NewNextStrategy возвращает стратегию next по умолчанию.
func NewNextStrategy(payments domain.PaymentVerifier) Strategy {
	return &nextStrategy{payments: payments}
}

func (s *nextStrategy) Execute(ctx context.Context, op Context) Result {
	if fault := advanceOne(ctx, op.Order, s.payments); fault != nil {
		return Failure(fault)
	}
	return Success(op.Order)
}

// advanceStrategy прогоняет заказ через все шаги, которые сейчас проходимы.
// Останавливается перед complete: завершение — отдельная операция.
type advanceStrategy struct {
	payments domain.PaymentVerifier
}

// NewAdvanceStrategy возвращает стратегию advance по умолчанию.
func NewAdvanceStrategy(payments domain.PaymentVerifier) Strategy {
	return &advanceStrategy{payments: payments}
}

func (s *advanceStrategy) Execute(ctx context.Context, op Context) Result {
	for op.Order.State != domain.OrderStateConfirm {
		if fault := advanceOne(ctx, op.Order, s.payments); fault != nil {
			return Failure(fault)
		}
	}
	return Success(op.Order)
}

// completeStrategy доводит заказ до complete, проходя оставшиеся шаги.
type completeStrategy struct {
	payments domain.PaymentVerifier
}

// NewCompleteStrategy возвращает стратегию complete по умолчанию.
func NewCompleteStrategy(payments domain.PaymentVerifier) Strategy {
	return &completeStrategy{payments: payments}
}

func (s *completeStrategy) Execute(ctx context.Context, op Context) Result {
	if op.Order.State == domain.OrderStateComplete {
		return Failure(domain.BusinessFault("order is already complete"))
	}
	if op.Order.State == domain.OrderStateCanceled {
		return Failure(domain.BusinessFault(fmt.Sprintf("cannot complete order in state %s", op.Order.State)))
	}
	for op.Order.State != domain.OrderStateComplete {
		if fault := advanceOne(ctx, op.Order, s.payments); fault != nil {
			return Failure(fault)
		}
	}
	return Success(op.Order)
}

var (
	_ Strategy = (*nextStrategy)(nil)
	_ Strategy = (*advanceStrategy)(nil)
	_ Strategy = (*completeStrategy)(nil)
)
