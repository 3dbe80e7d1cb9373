package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// updateStrategy применяет карту атрибутов к заказу. Allowlist разрешённых
// атрибутов обеспечивает вызывающий (API-слой), не стратегия.
type updateStrategy struct{}

// NewUpdateStrategy возвращает стратегию update по умолчанию.
func NewUpdateStrategy() Strategy {
	return &updateStrategy{}
}

func (s *updateStrategy) Execute(_ context.Context, op Context) Result {
	for name, raw := range op.Attributes {
		switch name {
		case "email":
			value, ok := raw.(string)
			if !ok {
				return Failure(domain.FieldValidationFault("email", "must be a string"))
			}
			op.Order.Email = value
		case "special_instructions":
			value, ok := raw.(string)
			if !ok {
				return Failure(domain.FieldValidationFault("special_instructions", "must be a string"))
			}
			op.Order.SpecialInstructions = value
		case "delivery_method":
			value, ok := raw.(string)
			if !ok {
				return Failure(domain.FieldValidationFault("delivery_method", "must be a string"))
			}
			op.Order.DeliveryMethod = value
		case "ship_address":
			address, fault := decodeAddress(raw)
			if fault != nil {
				return Failure(fault)
			}
			op.Order.ShipAddress = address
		case "currency":
			// Валюта фиксируется при создании заказа.
			return Failure(domain.FieldValidationFault("currency", "currency cannot be changed"))
		default:
			return Failure(domain.FieldValidationFault(name, fmt.Sprintf("attribute %q is not updatable", name)))
		}
	}
	return Success(op.Order)
}

func decodeAddress(raw any) (*domain.Address, *domain.Fault) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, domain.FieldValidationFault("ship_address", "must be an object")
	}
	var address domain.Address
	if err := json.Unmarshal(data, &address); err != nil {
		return nil, domain.FieldValidationFault("ship_address", "must be an address object")
	}
	return &address, nil
}

var _ Strategy = (*updateStrategy)(nil)
