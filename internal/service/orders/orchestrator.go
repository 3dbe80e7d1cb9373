package orders

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/authz"
	"github.com/vladislavdragonenkov/commerce/internal/checkout"
	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commerce/internal/metrics"
)

const (
	// Количество попыток сохранения при конфликте версий и базовая задержка
	// для exponential backoff между ними.
	maxSaveRetries = 3
	retryBaseDelay = 10 * time.Millisecond
)

// Orchestrator — тонкий адаптер между входными параметрами операций и
// стратегиями бизнес-логики: снимает вызывающего через гейт авторизации,
// разрешает стратегию по имени операции и приводит исход к единому контракту.
type Orchestrator struct {
	orders   domain.OrderRepository
	stores   domain.StoreRepository
	variants domain.VariantRepository
	registry *checkout.Registry
	gate     authz.Gate
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	producer *kafka.Producer // опциональный Kafka producer
	metrics  *metrics.OperationMetrics
	logger   *log.Entry
}

// Options — необязательные зависимости оркестратора.
type Options struct {
	Outbox   domain.OutboxRepository
	Timeline domain.TimelineRepository
	Producer *kafka.Producer
	Metrics  *metrics.OperationMetrics
	Logger   *log.Entry
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(
	orders domain.OrderRepository,
	stores domain.StoreRepository,
	variants domain.VariantRepository,
	registry *checkout.Registry,
	gate authz.Gate,
	opts Options,
) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &Orchestrator{
		orders:   orders,
		stores:   stores,
		variants: variants,
		registry: registry,
		gate:     gate,
		outbox:   opts.Outbox,
		timeline: opts.Timeline,
		producer: opts.Producer,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// CreateParams — входные параметры операции create.
type CreateParams struct {
	StoreID string
	// UserID — явный владелец заказа; пустое значение означает
	// «взять из контекста аутентификации, иначе гостевая корзина».
	UserID string
	// Currency переопределяет валюту магазина по умолчанию.
	Currency string
}

// Create создаёт новый заказ-корзину в магазине.
func (o *Orchestrator) Create(ctx context.Context, caller authz.Caller, params CreateParams) (domain.Order, error) {
	op := checkout.OpCreate
	if err := o.gate.Authorize(ctx, authz.ActionCreate, &domain.Order{}, caller); err != nil {
		return o.fail(op, err)
	}

	store, err := o.stores.GetStore(params.StoreID)
	if err != nil {
		return o.fail(op, err)
	}

	userID := params.UserID
	if userID == "" {
		// Эффективный владелец: явный параметр, иначе аутентифицированный
		// вызывающий, иначе гостевая корзина без владельца.
		userID = caller.UserID
	}

	strategy, err := o.registry.Resolve(op)
	if err != nil {
		return domain.Order{}, err
	}

	result := strategy.Execute(ctx, checkout.Context{
		Store:    store,
		UserID:   userID,
		Currency: params.Currency,
		Now:      time.Now().UTC(),
	})
	if !result.Ok() {
		return o.fail(op, result.Fault)
	}

	if err := o.orders.Create(*result.Order); err != nil {
		o.logger.WithError(err).Error("failed to persist new order")
		return o.fail(op, err)
	}

	o.recordSuccess(op)
	o.emitEvent(result.Order, kafka.EventTypeOrderCreated, map[string]any{
		"store_id": result.Order.StoreID,
		"user_id":  result.Order.UserID,
		"currency": result.Order.Currency,
	})
	return *result.Order, nil
}

// AddItemParams — входные параметры операции add_item.
type AddItemParams struct {
	OrderID   string
	VariantID string
	// Quantity принимает строку или число, приводимые к положительному int.
	Quantity any
	Options  map[string]string
}

// AddItem кладёт вариант товара в заказ.
func (o *Orchestrator) AddItem(ctx context.Context, caller authz.Caller, params AddItemParams) (domain.Order, error) {
	variant, err := o.variants.GetVariant(params.VariantID)
	if err != nil {
		return o.fail(checkout.OpAddItem, err)
	}

	qty, fault := coercePositiveQuantity(params.Quantity)
	if fault != nil {
		return o.fail(checkout.OpAddItem, fault)
	}

	return o.mutate(ctx, caller, checkout.OpAddItem, params.OrderID, mutation{
		authorize: func(order *domain.Order) error {
			// Для add_item требуются обе проверки: право менять заказ
			// и право видеть вариант в магазине заказа.
			return o.gate.Authorize(ctx, authz.ActionShow, authz.VariantInStore{
				Variant: variant,
				StoreID: order.StoreID,
			}, caller)
		},
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{
				Order:    order,
				Variant:  variant,
				Quantity: qty,
				Options:  params.Options,
			}
		},
		eventType: kafka.EventTypeOrderItemAdded,
		eventPayload: func(order *domain.Order) map[string]any {
			return map[string]any{"variant_id": variant.ID, "quantity": qty}
		},
	})
}

// RemoveLineItem удаляет одну позицию заказа.
func (o *Orchestrator) RemoveLineItem(ctx context.Context, caller authz.Caller, orderID, lineItemID string) (domain.Order, error) {
	return o.mutate(ctx, caller, checkout.OpRemoveLineItem, orderID, mutation{
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{Order: order, LineItemID: lineItemID}
		},
		eventType: kafka.EventTypeOrderItemRemoved,
		eventPayload: func(order *domain.Order) map[string]any {
			return map[string]any{"line_item_id": lineItemID}
		},
	})
}

// SetQuantityParams — входные параметры операции set_quantity.
type SetQuantityParams struct {
	OrderID    string
	LineItemID string
	Quantity   any
}

// SetQuantity выставляет количество позиции. Валидация количества выполняется
// ДО авторизации и делегирования: это осознанный контракт операции — проверка
// дешевле гейта и отваливается первой.
func (o *Orchestrator) SetQuantity(ctx context.Context, caller authz.Caller, params SetQuantityParams) (domain.Order, error) {
	qty, fault := coercePositiveQuantity(params.Quantity)
	if fault != nil {
		return o.fail(checkout.OpSetQuantity, fault)
	}

	return o.mutate(ctx, caller, checkout.OpSetQuantity, params.OrderID, mutation{
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{Order: order, LineItemID: params.LineItemID, Quantity: qty}
		},
		eventType: kafka.EventTypeOrderItemQuantity,
		eventPayload: func(order *domain.Order) map[string]any {
			return map[string]any{"line_item_id": params.LineItemID, "quantity": qty}
		},
	})
}

// Next двигает заказ на следующий шаг оформления.
func (o *Orchestrator) Next(ctx context.Context, caller authz.Caller, orderID string) (domain.Order, error) {
	return o.transition(ctx, caller, checkout.OpNext, orderID)
}

// Advance прогоняет заказ через все проходимые сейчас шаги оформления.
func (o *Orchestrator) Advance(ctx context.Context, caller authz.Caller, orderID string) (domain.Order, error) {
	return o.transition(ctx, caller, checkout.OpAdvance, orderID)
}

// Complete доводит заказ до завершённого состояния.
func (o *Orchestrator) Complete(ctx context.Context, caller authz.Caller, orderID string) (domain.Order, error) {
	return o.transition(ctx, caller, checkout.OpComplete, orderID)
}

func (o *Orchestrator) transition(ctx context.Context, caller authz.Caller, op checkout.Operation, orderID string) (domain.Order, error) {
	eventType := kafka.EventTypeOrderStateChanged
	if op == checkout.OpComplete {
		eventType = kafka.EventTypeOrderCompleted
	}
	return o.mutate(ctx, caller, op, orderID, mutation{
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{Order: order}
		},
		eventType: eventType,
		eventPayload: func(order *domain.Order) map[string]any {
			return map[string]any{"state": string(order.State)}
		},
	})
}

// Approve помечает заказ одобренным текущим вызывающим. Единственная
// операция, которая не идёт через реестр стратегий: после авторизации
// вызывается метод агрегата напрямую.
func (o *Orchestrator) Approve(ctx context.Context, caller authz.Caller, orderID string) (domain.Order, error) {
	op := checkout.Operation("approve")
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		order, err := o.orders.Get(orderID)
		if err != nil {
			return o.fail(op, err)
		}
		if err := o.gate.Authorize(ctx, authz.ActionUpdate, &order, caller); err != nil {
			return o.fail(op, err)
		}

		order.Approve(caller.UserID, time.Now())
		order.UpdatedAt = time.Now().UTC()

		if err := o.orders.Save(order); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxSaveRetries-1 {
				o.backoff(attempt)
				continue
			}
			return o.fail(op, err)
		}

		order.Version++
		o.recordSuccess(op)
		o.emitEvent(&order, kafka.EventTypeOrderApproved, map[string]any{
			"approved_by": order.ApprovedBy,
		})
		return order, nil
	}
	return o.fail(op, domain.ErrOrderVersionConflict)
}

// Empty безусловно очищает заказ от позиций и корректировок.
func (o *Orchestrator) Empty(ctx context.Context, caller authz.Caller, orderID string) (domain.Order, error) {
	return o.mutate(ctx, caller, checkout.OpEmpty, orderID, mutation{
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{Order: order}
		},
		eventType: kafka.EventTypeOrderEmptied,
		eventPayload: func(order *domain.Order) map[string]any {
			return map[string]any{}
		},
	})
}

// Update применяет карту атрибутов, уже отфильтрованную вызывающим
// через allowlist разрешённых атрибутов.
func (o *Orchestrator) Update(ctx context.Context, caller authz.Caller, orderID string, attributes map[string]any) (domain.Order, error) {
	return o.mutate(ctx, caller, checkout.OpUpdate, orderID, mutation{
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{Order: order, Attributes: attributes}
		},
		eventType: kafka.EventTypeOrderUpdated,
		eventPayload: func(order *domain.Order) map[string]any {
			names := make([]string, 0, len(attributes))
			for name := range attributes {
				names = append(names, name)
			}
			return map[string]any{"attributes": names}
		},
	})
}

// ApplyCouponCode применяет код купона к заказу.
func (o *Orchestrator) ApplyCouponCode(ctx context.Context, caller authz.Caller, orderID, couponCode string) (domain.Order, error) {
	return o.mutate(ctx, caller, checkout.OpApplyCoupon, orderID, mutation{
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{Order: order, CouponCode: couponCode, Now: time.Now().UTC()}
		},
		eventType: kafka.EventTypeOrderCouponApplied,
		eventPayload: func(order *domain.Order) map[string]any {
			return map[string]any{"coupon_code": couponCode}
		},
	})
}

// RemoveCouponCode снимает указанные купоны (все применённые, если коды не
// заданы). Снятия применяются независимо: успешные сохраняются даже при
// ошибках по другим кодам, ошибки агрегируются в ответе.
func (o *Orchestrator) RemoveCouponCode(ctx context.Context, caller authz.Caller, orderID string, couponCodes []string) (domain.Order, error) {
	return o.mutate(ctx, caller, checkout.OpRemoveCoupon, orderID, mutation{
		opContext: func(order *domain.Order) checkout.Context {
			return checkout.Context{Order: order, CouponCodes: couponCodes}
		},
		persistPartial: true,
		eventType:      kafka.EventTypeOrderCouponRemoved,
		eventPayload: func(order *domain.Order) map[string]any {
			return map[string]any{"coupon_codes": couponCodes}
		},
	})
}

// Get возвращает заказ после проверки права на просмотр.
func (o *Orchestrator) Get(ctx context.Context, caller authz.Caller, orderID string) (domain.Order, error) {
	order, err := o.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, domain.AsFault(err)
	}
	if err := o.gate.Authorize(ctx, authz.ActionShow, &order, caller); err != nil {
		return domain.Order{}, domain.AsFault(err)
	}
	return order, nil
}

// mutation описывает одну мутирующую операцию для общего конвейера mutate.
type mutation struct {
	// authorize — дополнительная проверка сверх права на изменение заказа.
	authorize func(order *domain.Order) error
	// opContext собирает контекст стратегии поверх рабочей копии заказа.
	opContext func(order *domain.Order) checkout.Context
	// persistPartial сохраняет заказ даже при fault-исходе, если стратегия
	// успела применить часть независимых изменений (политика remove_coupon).
	persistPartial bool
	eventType      kafka.EventType
	eventPayload   func(order *domain.Order) map[string]any
}

// mutate — общий конвейер мутирующих операций: загрузка → авторизация →
// стратегия над копией → optimistic save с retry по конфликту версий.
func (o *Orchestrator) mutate(ctx context.Context, caller authz.Caller, op checkout.Operation, orderID string, m mutation) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordDuration(string(op), time.Since(start))
		}
	}()

	strategy, err := o.registry.Resolve(op)
	if err != nil {
		// Ошибка конфигурации не перехватывается на уровне запроса.
		return domain.Order{}, err
	}

	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		order, err := o.orders.Get(orderID)
		if err != nil {
			return o.fail(op, err)
		}

		if err := o.gate.Authorize(ctx, authz.ActionUpdate, &order, caller); err != nil {
			return o.fail(op, err)
		}
		if m.authorize != nil {
			if err := m.authorize(&order); err != nil {
				return o.fail(op, err)
			}
		}

		working := order.Clone()
		result := strategy.Execute(ctx, m.opContext(&working))

		if !result.Ok() {
			if !m.persistPartial || !couponsChanged(order, working) {
				return o.fail(op, result.Fault)
			}
			// Частичный успех по независимой политике: фиксируем то,
			// что применилось, и возвращаем агрегированную ошибку.
			working.UpdatedAt = time.Now().UTC()
			if err := o.orders.Save(working); err != nil {
				if domain.IsVersionConflict(err) && attempt < maxSaveRetries-1 {
					o.backoff(attempt)
					continue
				}
				return o.fail(op, err)
			}
			o.recordFailure(op)
			o.emitOperationEvent(&working, m)
			return working, result.Fault
		}

		updated := *result.Order
		updated.UpdatedAt = time.Now().UTC()
		if err := o.orders.Save(updated); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxSaveRetries-1 {
				o.logger.WithFields(log.Fields{
					"order_id":  orderID,
					"operation": op,
					"attempt":   attempt + 1,
				}).Warn("version conflict detected, retrying")
				o.backoff(attempt)
				continue
			}
			return o.fail(op, err)
		}

		updated.Version++
		o.recordSuccess(op)
		o.emitOperationEvent(&updated, m)
		return updated, nil
	}

	return o.fail(op, domain.ErrOrderVersionConflict)
}

func couponsChanged(before, after domain.Order) bool {
	return len(before.Coupons) != len(after.Coupons)
}

func (o *Orchestrator) emitOperationEvent(order *domain.Order, m mutation) {
	if m.eventType == "" {
		return
	}
	var payload map[string]any
	if m.eventPayload != nil {
		payload = m.eventPayload(order)
	}
	o.emitEvent(order, m.eventType, payload)
}

// emitEvent кладёт событие в transactional outbox и timeline заказа и,
// если настроен producer, публикует его в Kafka.
func (o *Orchestrator) emitEvent(order *domain.Order, eventType kafka.EventType, payload map[string]any) {
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["order_id"] = order.ID
	payload["ts"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	if o.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   order.ID,
			EventType:     string(eventType),
			Payload:       data,
		}
		if _, err := o.outbox.Enqueue(msg); err != nil {
			o.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"event":    eventType,
			}).Error("enqueue event failed")
		} else if o.metrics != nil {
			o.metrics.RecordOutboxEvent()
		}
	}

	if o.timeline != nil {
		event := domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     string(eventType),
			Occurred: time.Now().UTC(),
		}
		if err := o.timeline.Append(event); err != nil {
			o.logger.WithError(err).WithField("order_id", order.ID).Warn("append timeline event failed")
		} else if o.metrics != nil {
			o.metrics.RecordTimelineEvent()
		}
	}

	if o.producer != nil {
		event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.State), payload)
		if err := o.producer.PublishEvent(kafka.TopicOrderEvents, order.ID, event); err != nil {
			// Kafka опциональна: ошибку логируем, операцию не прерываем.
			o.logger.WithError(err).WithFields(log.Fields{
				"event_type": eventType,
				"order_id":   order.ID,
			}).Warn("failed to publish order event to kafka")
		}
	}
}

func (o *Orchestrator) fail(op checkout.Operation, err error) (domain.Order, error) {
	o.recordFailure(op)
	return domain.Order{}, domain.AsFault(err)
}

func (o *Orchestrator) recordSuccess(op checkout.Operation) {
	if o.metrics != nil {
		o.metrics.RecordOperation(string(op), "success")
	}
}

func (o *Orchestrator) recordFailure(op checkout.Operation) {
	if o.metrics != nil {
		o.metrics.RecordOperation(string(op), "failure")
	}
}

func (o *Orchestrator) backoff(attempt int) {
	time.Sleep(retryBaseDelay * time.Duration(1<<uint(attempt)))
}
