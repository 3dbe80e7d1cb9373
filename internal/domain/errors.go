package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Ошибка отсутствующего магазина-владельца заказа.
	ErrStoreRequired = errors.New("store is required")
	// Ошибка отсутствующего кода валюты.
	ErrCurrencyRequired = errors.New("currency is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка завершения пустого заказа.
	ErrOrderEmpty = errors.New("order has no line items")
	// Ошибка отрицательной скидки купона.
	ErrCouponDiscountInvalid = errors.New("coupon discount must be non-negative")
	// ErrOrderNotEditable — состав заказа нельзя менять после complete/canceled.
	ErrOrderNotEditable = errors.New("order is no longer editable")
	// ErrNoFurtherStates — у заказа нет следующего шага оформления.
	ErrNoFurtherStates = errors.New("order has no further checkout states")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrLineItemNotFound — позиция не принадлежит заказу.
	ErrLineItemNotFound = errors.New("line item not found")
	// ErrVariantNotFound — вариант товара отсутствует в каталоге.
	ErrVariantNotFound = errors.New("variant not found")
	// ErrStoreNotFound — магазин отсутствует.
	ErrStoreNotFound = errors.New("store not found")
	// ErrProductNotFound — товар отсутствует.
	ErrProductNotFound = errors.New("product not found")

	// ErrCouponAlreadyApplied — купон с таким кодом уже применён к заказу.
	ErrCouponAlreadyApplied = errors.New("coupon code already applied")
	// ErrCouponNotApplied — купон с таким кодом к заказу не применялся.
	ErrCouponNotApplied = errors.New("coupon code not applied to this order")
	// ErrNoCouponApplied — к заказу не применён ни один купон.
	ErrNoCouponApplied = errors.New("no coupon code applied to this order")
	// ErrCouponNotFound — код купона неизвестен.
	ErrCouponNotFound = errors.New("coupon code not found")
	// ErrCouponExpired — срок действия купона истёк.
	ErrCouponExpired = errors.New("coupon code expired")
	// ErrCouponMinOrderValue — не достигнута минимальная сумма заказа для купона.
	ErrCouponMinOrderValue = errors.New("order total below coupon minimum")

	// ErrStoreProductExists — товар уже привязан к магазину.
	ErrStoreProductExists = errors.New("product already listed in store")
	// ErrStoreProductNotFound — связка магазин↔товар отсутствует.
	ErrStoreProductNotFound = errors.New("store product link not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// FaultKind классифицирует ошибку операции для маппинга в ответ API.
type FaultKind string

const (
	// FaultValidation — некорректный или отсутствующий входной параметр.
	FaultValidation FaultKind = "validation"
	// FaultAuthorization — у вызывающего нет прав на операцию.
	FaultAuthorization FaultKind = "authorization"
	// FaultNotFound — заказ/позиция/вариант не найдены.
	FaultNotFound FaultKind = "not_found"
	// FaultBusiness — нарушено бизнес-правило (купон неприменим, переход запрещён).
	FaultBusiness FaultKind = "business_rule"
	// FaultConfiguration — реестр операций сконфигурирован неверно. Фатально
	// на старте, на уровне запроса не перехватывается.
	FaultConfiguration FaultKind = "configuration"
	// FaultInternal — неожиданная внутренняя ошибка (хранилище и т.п.).
	FaultInternal FaultKind = "internal"
)

// Fault — структурированная ошибка операции. Содержит либо одно сообщение,
// либо пофайловую карту ошибок валидации.
type Fault struct {
	Kind    FaultKind
	Message string
	// Fields заполняется для ошибок валидации: поле → список сообщений.
	Fields map[string][]string
}

func (f *Fault) Error() string {
	if f.Message != "" {
		return f.Message
	}
	parts := make([]string, 0, len(f.Fields))
	for field, msgs := range f.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return strings.Join(parts, ", ")
}

// ValidationFault строит ошибку валидации с одним сообщением.
func ValidationFault(message string) *Fault {
	return &Fault{Kind: FaultValidation, Message: message}
}

// FieldValidationFault строит ошибку валидации по конкретному полю.
func FieldValidationFault(field, message string) *Fault {
	return &Fault{
		Kind:   FaultValidation,
		Fields: map[string][]string{field: {message}},
	}
}

// AuthorizationFault строит ошибку отказа в доступе.
func AuthorizationFault(message string) *Fault {
	if message == "" {
		message = "you are not authorized to perform this action"
	}
	return &Fault{Kind: FaultAuthorization, Message: message}
}

// NotFoundFault строит ошибку отсутствующего ресурса.
func NotFoundFault(message string) *Fault {
	return &Fault{Kind: FaultNotFound, Message: message}
}

// BusinessFault строит ошибку нарушенного бизнес-правила.
func BusinessFault(message string) *Fault {
	return &Fault{Kind: FaultBusiness, Message: message}
}

// ConfigurationFault строит фатальную ошибку конфигурации.
func ConfigurationFault(message string) *Fault {
	return &Fault{Kind: FaultConfiguration, Message: message}
}

// AsFault приводит произвольную ошибку к Fault. Известные доменные sentinel
// ошибки получают свой класс, всё остальное скрывается за internal: наружу
// никогда не уходит сырой внутренний сбой.
func AsFault(err error) *Fault {
	if err == nil {
		return nil
	}

	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}

	switch {
	case errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrLineItemNotFound),
		errors.Is(err, ErrVariantNotFound),
		errors.Is(err, ErrStoreNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrStoreProductNotFound):
		return NotFoundFault(err.Error())
	case errors.Is(err, ErrItemQtyInvalid),
		errors.Is(err, ErrCurrencyRequired),
		errors.Is(err, ErrStoreRequired):
		return ValidationFault(err.Error())
	case errors.Is(err, ErrOrderNotEditable),
		errors.Is(err, ErrOrderEmpty),
		errors.Is(err, ErrNoFurtherStates),
		errors.Is(err, ErrCouponAlreadyApplied),
		errors.Is(err, ErrCouponNotApplied),
		errors.Is(err, ErrNoCouponApplied),
		errors.Is(err, ErrCouponNotFound),
		errors.Is(err, ErrCouponExpired),
		errors.Is(err, ErrCouponMinOrderValue),
		errors.Is(err, ErrStoreProductExists):
		return BusinessFault(err.Error())
	default:
		return &Fault{Kind: FaultInternal, Message: "internal error"}
	}
}
