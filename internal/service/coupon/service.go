package coupon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// DiscountType — способ расчёта скидки купона.
type DiscountType string

const (
	// DiscountPercent — процент от суммы позиций заказа.
	DiscountPercent DiscountType = "percent"
	// DiscountFixed — фиксированная сумма в минимальных единицах.
	DiscountFixed DiscountType = "fixed"
)

// Rule описывает правила одного купона.
type Rule struct {
	Code         string
	DiscountType DiscountType
	// Value — процент (для percent) или сумма в минимальных единицах (для fixed).
	Value decimal.Decimal
	// MinOrderMinor — минимальная сумма позиций заказа для применения.
	MinOrderMinor int64
	// ExpiresAt — срок действия; нулевое время означает бессрочный купон.
	ExpiresAt time.Time
}

// Service — реализация domain.CouponService над набором правил в памяти.
// Правила подменяемы на лету; внешний промо-движок подключается заменой
// этого сервиса в конфигурации реестра операций.
type Service struct {
	mu    sync.RWMutex
	rules map[string]Rule
	now   func() time.Time
}

// NewService создаёт купонный сервис с начальным набором правил.
func NewService(rules ...Rule) *Service {
	svc := &Service{
		rules: make(map[string]Rule, len(rules)),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, rule := range rules {
		svc.rules[normalizeCode(rule.Code)] = rule
	}
	return svc
}

// Upsert добавляет или обновляет правило купона.
func (s *Service) Upsert(rule Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[normalizeCode(rule.Code)] = rule
}

// Validate проверяет применимость купона к заказу и рассчитывает скидку.
func (s *Service) Validate(_ context.Context, order domain.Order, code string) (domain.CouponGrant, error) {
	s.mu.RLock()
	rule, ok := s.rules[normalizeCode(code)]
	s.mu.RUnlock()

	if !ok {
		return domain.CouponGrant{}, domain.ErrCouponNotFound
	}
	if !rule.ExpiresAt.IsZero() && rule.ExpiresAt.Before(s.now()) {
		return domain.CouponGrant{}, domain.ErrCouponExpired
	}

	itemTotal := order.ItemTotalMinor()
	if itemTotal < rule.MinOrderMinor {
		return domain.CouponGrant{}, domain.ErrCouponMinOrderValue
	}

	return domain.CouponGrant{
		Code:          rule.Code,
		DiscountMinor: discountMinor(rule, itemTotal),
	}, nil
}

// discountMinor рассчитывает скидку в минимальных единицах. Процент
// считается через decimal, чтобы не ловить дрейф float-арифметики.
func discountMinor(rule Rule, itemTotalMinor int64) int64 {
	var discount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercent:
		total := decimal.NewFromInt(itemTotalMinor)
		discount = total.Mul(rule.Value).Div(decimal.NewFromInt(100)).Round(0)
	case DiscountFixed:
		discount = rule.Value
	default:
		return 0
	}

	minor := discount.IntPart()
	if minor < 0 {
		return 0
	}
	if minor > itemTotalMinor {
		return itemTotalMinor
	}
	return minor
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

var _ domain.CouponService = (*Service)(nil)
