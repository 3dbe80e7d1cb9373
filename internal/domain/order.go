package domain

import "time"

// OrderState описывает шаг жизненного цикла заказа.
type OrderState string

const (
	// OrderStateCart — заказ-корзина, позиции ещё редактируются.
	OrderStateCart OrderState = "cart"
	// OrderStateAddress — покупатель заполняет адрес доставки.
	OrderStateAddress OrderState = "address"
	// OrderStateDelivery — выбирается способ доставки.
	OrderStateDelivery OrderState = "delivery"
	// OrderStatePayment — ожидается авторизация оплаты.
	OrderStatePayment OrderState = "payment"
	// OrderStateConfirm — все шаги пройдены, заказ ждёт подтверждения.
	OrderStateConfirm OrderState = "confirm"
	// OrderStateComplete — заказ оформлен.
	OrderStateComplete OrderState = "complete"
	// OrderStateCanceled — заказ отменён до завершения цикла.
	OrderStateCanceled OrderState = "canceled"
)

// CheckoutFlow — последовательность шагов оформления по умолчанию.
// Конкретная стратегия переходов может подменить её через реестр операций.
var CheckoutFlow = []OrderState{
	OrderStateCart,
	OrderStateAddress,
	OrderStateDelivery,
	OrderStatePayment,
	OrderStateConfirm,
	OrderStateComplete,
}

// LineItem представляет одну позицию заказа.
type LineItem struct {
	// ID позиции нужен для адресной работы с ней (set_quantity, remove).
	ID string
	// VariantID — идентификатор варианта товара из каталога.
	VariantID string
	// Qty — количество единиц, всегда положительное.
	Qty int32
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Options — выбранные опции варианта (размер, цвет и т.п.).
	Options map[string]string
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// AppliedCoupon хранит применённый купон и его корректировку суммы.
type AppliedCoupon struct {
	Code string
	// DiscountMinor — размер скидки в минимальных единицах (неотрицательный).
	DiscountMinor int64
	AppliedAt     time.Time
}

// Address — адрес доставки, заполняется на шаге address.
type Address struct {
	Name        string `json:"name"`
	Line1       string `json:"line1"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	CountryCode string `json:"country_code"`
}

// Complete проверяет, что обязательные поля адреса заполнены.
func (a *Address) Complete() bool {
	return a != nil && a.Line1 != "" && a.City != "" && a.CountryCode != ""
}

// Order агрегирует состояние заказа: позиции, купоны, шаг оформления.
// Валюта задаётся при создании и далее неизменна.
type Order struct {
	ID      string
	StoreID string
	// UserID пуст, пока заказ не привязан к покупателю (гостевая корзина).
	UserID   string
	Currency string
	State    OrderState
	Items    []LineItem
	Coupons  []AppliedCoupon

	Email               string
	SpecialInstructions string
	ShipAddress         *Address
	DeliveryMethod      string

	// ApprovedBy/ApprovedAt заполняются операцией approve.
	ApprovedBy string
	ApprovedAt *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemTotalMinor возвращает сумму позиций без учёта скидок.
func (o *Order) ItemTotalMinor() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Qty) * item.PriceMinor
	}
	return total
}

// AdjustmentTotalMinor возвращает суммарную корректировку купонов (<= 0).
func (o *Order) AdjustmentTotalMinor() int64 {
	var total int64
	for _, coupon := range o.Coupons {
		total -= coupon.DiscountMinor
	}
	return total
}

// TotalMinor — итоговая сумма заказа; скидка не уводит сумму в минус.
func (o *Order) TotalMinor() int64 {
	total := o.ItemTotalMinor() + o.AdjustmentTotalMinor()
	if total < 0 {
		return 0
	}
	return total
}

// Editable сообщает, допускает ли текущий шаг изменение состава заказа.
func (o *Order) Editable() bool {
	return o.State != OrderStateComplete && o.State != OrderStateCanceled
}

// FindLineItem возвращает указатель на позицию заказа по её ID.
func (o *Order) FindLineItem(lineItemID string) *LineItem {
	for i := range o.Items {
		if o.Items[i].ID == lineItemID {
			return &o.Items[i]
		}
	}
	return nil
}

// AddItem добавляет позицию. Повторное добавление того же варианта с теми же
// опциями сливается с существующей позицией вместо создания дубликата.
func (o *Order) AddItem(item LineItem) error {
	if item.Qty <= 0 {
		return ErrItemQtyInvalid
	}
	if !o.Editable() {
		return ErrOrderNotEditable
	}
	for i := range o.Items {
		if o.Items[i].VariantID == item.VariantID && sameOptions(o.Items[i].Options, item.Options) {
			o.Items[i].Qty += item.Qty
			return nil
		}
	}
	o.Items = append(o.Items, item)
	return nil
}

// RemoveLineItem удаляет ровно одну позицию по идентификатору.
func (o *Order) RemoveLineItem(lineItemID string) error {
	if !o.Editable() {
		return ErrOrderNotEditable
	}
	for i := range o.Items {
		if o.Items[i].ID == lineItemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return nil
		}
	}
	return ErrLineItemNotFound
}

// SetItemQuantity выставляет количество существующей позиции.
func (o *Order) SetItemQuantity(lineItemID string, qty int32) error {
	if qty <= 0 {
		return ErrItemQtyInvalid
	}
	if !o.Editable() {
		return ErrOrderNotEditable
	}
	item := o.FindLineItem(lineItemID)
	if item == nil {
		return ErrLineItemNotFound
	}
	item.Qty = qty
	return nil
}

// Empty безусловно очищает позиции и все связанные с ними корректировки.
func (o *Order) Empty() {
	o.Items = nil
	o.Coupons = nil
}

// ApplyCoupon добавляет купон; один код применяется не более одного раза.
func (o *Order) ApplyCoupon(coupon AppliedCoupon) error {
	for _, applied := range o.Coupons {
		if applied.Code == coupon.Code {
			return ErrCouponAlreadyApplied
		}
	}
	o.Coupons = append(o.Coupons, coupon)
	return nil
}

// RemoveCoupon снимает купон вместе с его корректировкой.
func (o *Order) RemoveCoupon(code string) error {
	for i := range o.Coupons {
		if o.Coupons[i].Code == code {
			o.Coupons = append(o.Coupons[:i], o.Coupons[i+1:]...)
			return nil
		}
	}
	return ErrCouponNotApplied
}

// CouponCodes возвращает коды всех применённых купонов.
func (o *Order) CouponCodes() []string {
	codes := make([]string, 0, len(o.Coupons))
	for _, coupon := range o.Coupons {
		codes = append(codes, coupon.Code)
	}
	return codes
}

// Approve помечает заказ одобренным указанным пользователем.
func (o *Order) Approve(userID string, at time.Time) {
	o.ApprovedBy = userID
	approvedAt := at.UTC()
	o.ApprovedAt = &approvedAt
}

// NextState возвращает следующий шаг оформления для текущего состояния.
func (o *Order) NextState() (OrderState, error) {
	for i, state := range CheckoutFlow {
		if state != o.State {
			continue
		}
		if i == len(CheckoutFlow)-1 {
			return "", ErrNoFurtherStates
		}
		return CheckoutFlow[i+1], nil
	}
	return "", ErrNoFurtherStates
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.StoreID == "" {
		errs = append(errs, ErrStoreRequired)
	}
	if o.Currency == "" {
		errs = append(errs, ErrCurrencyRequired)
	}
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}
	if o.State == OrderStateComplete && len(o.Items) == 0 {
		errs = append(errs, ErrOrderEmpty)
	}
	for _, coupon := range o.Coupons {
		if coupon.DiscountMinor < 0 {
			errs = append(errs, ErrCouponDiscountInvalid)
		}
	}

	return errs
}

// Clone возвращает глубокую копию заказа. Стратегии мутируют копию,
// чтобы провалившаяся операция не оставила частичных изменений.
func (o *Order) Clone() Order {
	clone := *o

	clone.Items = make([]LineItem, len(o.Items))
	copy(clone.Items, o.Items)
	for i := range clone.Items {
		if o.Items[i].Options != nil {
			options := make(map[string]string, len(o.Items[i].Options))
			for k, v := range o.Items[i].Options {
				options[k] = v
			}
			clone.Items[i].Options = options
		}
	}

	clone.Coupons = make([]AppliedCoupon, len(o.Coupons))
	copy(clone.Coupons, o.Coupons)

	if o.ShipAddress != nil {
		address := *o.ShipAddress
		clone.ShipAddress = &address
	}
	if o.ApprovedAt != nil {
		approvedAt := *o.ApprovedAt
		clone.ApprovedAt = &approvedAt
	}

	return clone
}

func sameOptions(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
