package domain

import (
	"context"
	"time"
)

// CouponGrant — результат валидации купона внешним купонным сервисом.
type CouponGrant struct {
	Code string
	// DiscountMinor — рассчитанная скидка для конкретного заказа.
	DiscountMinor int64
}

// CouponService валидирует код купона против заказа и рассчитывает скидку.
// Внутренняя логика (окна действия, лимиты использования) — чёрный ящик.
type CouponService interface {
	// Validate возвращает грант или одну из купонных sentinel-ошибок
	// (ErrCouponNotFound, ErrCouponExpired, ErrCouponMinOrderValue).
	Validate(ctx context.Context, order Order, code string) (CouponGrant, error)
}

// PaymentVerifier отвечает на вопрос, авторизована ли оплата заказа.
// Используется переходом payment → confirm; сам платёжный цикл живёт снаружи.
type PaymentVerifier interface {
	Authorized(ctx context.Context, order Order) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
