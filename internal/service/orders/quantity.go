package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// coercePositiveQuantity приводит параметр quantity (строка или число из
// JSON) к положительному int32. Отсутствующее, нулевое, отрицательное или
// нечисловое значение — ошибка валидации.
func coercePositiveQuantity(raw any) (int32, *domain.Fault) {
	switch value := raw.(type) {
	case nil:
		return 0, quantityFault("is required")
	case int:
		return checkQuantityRange(int64(value))
	case int32:
		return checkQuantityRange(int64(value))
	case int64:
		return checkQuantityRange(value)
	case float64:
		// encoding/json отдаёт числа как float64; дробное количество невалидно.
		if value != math.Trunc(value) {
			return 0, quantityFault("must be a whole number")
		}
		return checkQuantityRange(int64(value))
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, quantityFault("must be a positive integer")
		}
		return checkQuantityRange(parsed)
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return 0, quantityFault("is required")
		}
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, quantityFault("must be a positive integer")
		}
		return checkQuantityRange(parsed)
	default:
		return 0, quantityFault("must be a positive integer")
	}
}

func checkQuantityRange(value int64) (int32, *domain.Fault) {
	if value <= 0 {
		return 0, quantityFault("must be greater than zero")
	}
	if value > math.MaxInt32 {
		return 0, quantityFault("is too large")
	}
	return int32(value), nil
}

func quantityFault(message string) *domain.Fault {
	return domain.FieldValidationFault("quantity", message)
}
