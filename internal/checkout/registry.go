package checkout

import (
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// Operation — имя операции жизненного цикла заказа.
type Operation string

const (
	OpCreate         Operation = "create"
	OpAddItem        Operation = "add_item"
	OpRemoveLineItem Operation = "remove_line_item"
	OpSetQuantity    Operation = "set_quantity"
	OpNext           Operation = "next"
	OpAdvance        Operation = "advance"
	OpComplete       Operation = "complete"
	OpUpdate         Operation = "update"
	OpEmpty          Operation = "empty"
	OpApplyCoupon    Operation = "apply_coupon_code"
	OpRemoveCoupon   Operation = "remove_coupon_code"
)

// Config перечисляет стратегию для каждой операции явными полями.
// Подмена бизнес-логики операции — это подмена поля при сборке приложения;
// оркестратор об этом ничего не знает.
type Config struct {
	Create         Strategy
	AddItem        Strategy
	RemoveLineItem Strategy
	SetQuantity    Strategy
	Next           Strategy
	Advance        Strategy
	Complete       Strategy
	Update         Strategy
	Empty          Strategy
	ApplyCoupon    Strategy
	RemoveCoupon   Strategy
}

// DefaultConfig связывает все операции со стратегиями по умолчанию.
func DefaultConfig(coupons domain.CouponService, payments domain.PaymentVerifier) Config {
	return Config{
		Create:         NewCreateStrategy(),
		AddItem:        NewAddItemStrategy(),
		RemoveLineItem: NewRemoveLineItemStrategy(),
		SetQuantity:    NewSetQuantityStrategy(),
		Next:           NewNextStrategy(payments),
		Advance:        NewAdvanceStrategy(payments),
		Complete:       NewCompleteStrategy(payments),
		Update:         NewUpdateStrategy(),
		Empty:          NewEmptyStrategy(),
		ApplyCoupon:    NewApplyCouponStrategy(coupons),
		RemoveCoupon:   NewRemoveCouponStrategy(),
	}
}

// Validate проверяет, что каждая операция привязана к стратегии.
// Вызывается на старте приложения: незаполненный слот — фатальная
// ошибка конфигурации, а не тихий no-op первой пришедшей заявки.
func (c Config) Validate() error {
	var missing []string
	for op, strategy := range c.slots() {
		if strategy == nil {
			missing = append(missing, string(op))
		}
	}
	if len(missing) > 0 {
		return domain.ConfigurationFault(
			fmt.Sprintf("no strategy configured for operations: %s", strings.Join(missing, ", ")),
		)
	}
	return nil
}

func (c Config) slots() map[Operation]Strategy {
	return map[Operation]Strategy{
		OpCreate:         c.Create,
		OpAddItem:        c.AddItem,
		OpRemoveLineItem: c.RemoveLineItem,
		OpSetQuantity:    c.SetQuantity,
		OpNext:           c.Next,
		OpAdvance:        c.Advance,
		OpComplete:       c.Complete,
		OpUpdate:         c.Update,
		OpEmpty:          c.Empty,
		OpApplyCoupon:    c.ApplyCoupon,
		OpRemoveCoupon:   c.RemoveCoupon,
	}
}

// Registry разрешает имя операции в конкретную стратегию.
type Registry struct {
	strategies map[Operation]Strategy
}

// NewRegistry строит реестр из конфигурации, валидируя её целиком.
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry{strategies: cfg.slots()}, nil
}

// Resolve возвращает стратегию операции. Неизвестное или непривязанное имя —
// ошибка конфигурации, она не маскируется под бизнес-ошибку запроса.
func (r *Registry) Resolve(op Operation) (Strategy, error) {
	strategy, ok := r.strategies[op]
	if !ok || strategy == nil {
		return nil, domain.ConfigurationFault(fmt.Sprintf("operation %q is not registered", op))
	}
	return strategy, nil
}
