package kafka

import "time"

// EventType определяет тип события платформы.
type EventType string

const (
	// События жизненного цикла заказа.
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderItemAdded     EventType = "order.item_added"
	EventTypeOrderItemRemoved   EventType = "order.item_removed"
	EventTypeOrderItemQuantity  EventType = "order.item_quantity_changed"
	EventTypeOrderStateChanged  EventType = "order.state_changed"
	EventTypeOrderCompleted     EventType = "order.completed"
	EventTypeOrderApproved      EventType = "order.approved"
	EventTypeOrderEmptied       EventType = "order.emptied"
	EventTypeOrderUpdated       EventType = "order.updated"
	EventTypeOrderCouponApplied EventType = "order.coupon_applied"
	EventTypeOrderCouponRemoved EventType = "order.coupon_removed"

	// События каталога.
	EventTypeProductLinked   EventType = "catalog.product_linked"
	EventTypeProductUnlinked EventType = "catalog.product_unlinked"
	EventTypeProductPurged   EventType = "catalog.product_purged"
)

// Topics для Kafka.
const (
	TopicOrderEvents   = "commerce.order.events"
	TopicCatalogEvents = "commerce.catalog.events"
)

// OrderEvent представляет событие заказа.
type OrderEvent struct {
	EventType EventType      `json:"event_type"`
	OrderID   string         `json:"order_id"`
	UserID    string         `json:"user_id,omitempty"`
	State     string         `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// CatalogEvent представляет событие витрины магазина.
type CatalogEvent struct {
	EventType EventType      `json:"event_type"`
	StoreID   string         `json:"store_id"`
	ProductID string         `json:"product_id"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, userID, state string, metadata map[string]any) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		UserID:    userID,
		State:     state,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// NewCatalogEvent создает новое событие каталога.
func NewCatalogEvent(eventType EventType, storeID, productID string, metadata map[string]any) *CatalogEvent {
	return &CatalogEvent{
		EventType: eventType,
		StoreID:   storeID,
		ProductID: productID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
