package checkout

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// Strategy — подключаемая единица бизнес-логики одной операции над заказом.
// Реализация обязана либо полностью применить мутацию к op.Order, либо
// вернуть Failure, не оставив частичных изменений.
type Strategy interface {
	Execute(ctx context.Context, op Context) Result
}

// Context несёт агрегат и входные параметры операции. Поля заполняются
// оркестратором выборочно — каждая стратегия читает только свои.
type Context struct {
	// Order — рабочая копия агрегата; стратегия мутирует именно её.
	Order *domain.Order

	// Параметры create.
	Store    domain.Store
	UserID   string
	Currency string

	// Параметры операций над позициями.
	Variant    domain.Variant
	LineItemID string
	Quantity   int32
	Options    map[string]string

	// Параметры купонных операций.
	CouponCode  string
	CouponCodes []string

	// Параметры update: атрибуты уже пропущены вызывающим через allowlist.
	Attributes map[string]any

	Now time.Time
}

// Result — дискриминированный исход стратегии: обновлённый агрегат либо fault.
type Result struct {
	Order *domain.Order
	Fault *domain.Fault
}

// Success оборачивает успешно обновлённый заказ.
func Success(order *domain.Order) Result {
	return Result{Order: order}
}

// Failure оборачивает ошибку операции.
func Failure(fault *domain.Fault) Result {
	return Result{Fault: fault}
}

// FailureErr приводит произвольную ошибку к fault-исходу.
func FailureErr(err error) Result {
	return Result{Fault: domain.AsFault(err)}
}

// Ok сообщает, успешен ли исход.
func (r Result) Ok() bool {
	return r.Fault == nil
}
