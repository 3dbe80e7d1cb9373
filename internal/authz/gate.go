package authz

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// Action — проверяемое гейтом действие над ресурсом.
type Action string

const (
	// ActionCreate — создание нового заказа.
	ActionCreate Action = "create"
	// ActionUpdate — любая мутация существующего заказа.
	ActionUpdate Action = "update"
	// ActionShow — просмотр ресурса (например, варианта товара).
	ActionShow Action = "show"
	// ActionManageCatalog — управление витриной магазина.
	ActionManageCatalog Action = "manage_catalog"
)

// Caller — вызывающий, восстановленный из контекста аутентификации.
type Caller struct {
	UserID  string
	StoreID string
	Roles   []string
}

// Guest сообщает, является ли вызывающий анонимным гостем.
func (c Caller) Guest() bool {
	return c.UserID == ""
}

// HasRole проверяет наличие роли у вызывающего.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

const (
	// RoleAdmin даёт полный доступ ко всем операциям платформы.
	RoleAdmin = "admin"
)

// VariantInStore — субъект проверки «вариант виден в магазине заказа».
type VariantInStore struct {
	Variant domain.Variant
	StoreID string
}

// Gate отвечает, разрешено ли вызывающему действие над субъектом.
// Вызывается до любой мутирующей делегации; отказ не имеет побочных эффектов.
type Gate interface {
	Authorize(ctx context.Context, action Action, subject any, caller Caller) error
}

// policyGate — политика по умолчанию: админ может всё; покупатель управляет
// своими заказами (и гостевыми корзинами, ещё не привязанными к пользователю);
// вариант виден, если его товар выставлен в магазине заказа.
type policyGate struct {
	storeProducts domain.StoreProductRepository
}

// NewGate создаёт гейт с политикой по умолчанию.
func NewGate(storeProducts domain.StoreProductRepository) Gate {
	return &policyGate{storeProducts: storeProducts}
}

func (g *policyGate) Authorize(_ context.Context, action Action, subject any, caller Caller) error {
	if caller.HasRole(RoleAdmin) {
		return nil
	}

	switch resource := subject.(type) {
	case *domain.Order:
		return g.authorizeOrder(action, resource, caller)
	case VariantInStore:
		return g.authorizeVariant(resource)
	case domain.Store:
		// Витриной магазина управляет только админ (обработано выше).
		return domain.AuthorizationFault("only administrators may manage the store catalog")
	default:
		return domain.AuthorizationFault(fmt.Sprintf("unknown resource %T", subject))
	}
}

func (g *policyGate) authorizeOrder(action Action, order *domain.Order, caller Caller) error {
	switch action {
	case ActionCreate:
		// Заказ может создать любой вызывающий, включая гостя.
		return nil
	case ActionUpdate, ActionShow:
		// Гостевая корзина ещё никому не принадлежит.
		if order.UserID == "" {
			return nil
		}
		if order.UserID == caller.UserID && !caller.Guest() {
			return nil
		}
		return domain.AuthorizationFault("you are not authorized to access this order")
	default:
		return domain.AuthorizationFault(fmt.Sprintf("action %q is not permitted on orders", action))
	}
}

func (g *policyGate) authorizeVariant(subject VariantInStore) error {
	if g.storeProducts == nil {
		return domain.AuthorizationFault("variant visibility cannot be verified")
	}
	linked, err := g.storeProducts.Linked(subject.StoreID, subject.Variant.ProductID)
	if err != nil {
		return err
	}
	if !linked {
		return domain.AuthorizationFault("variant is not available in this store")
	}
	return nil
}

var _ Gate = (*policyGate)(nil)
