package catalog

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/authz"
	"github.com/vladislavdragonenkov/commerce/internal/domain"
	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
)

// Manager управляет витриной магазина: связками магазин↔товар.
//
// Unlink — деструктивная операция: снятие последней привязки товара
// необратимо удаляет сам товар (orphan purge). Проверка сиротства и
// удаление выполняются атомарно с удалением связки на уровне репозитория,
// поэтому конкурентный Link в другой магазин не может вклиниться между
// проверкой и удалением.
type Manager struct {
	storeProducts domain.StoreProductRepository
	stores        domain.StoreRepository
	products      domain.ProductRepository
	gate          authz.Gate
	outbox        domain.OutboxRepository
	logger        *log.Entry
}

// NewManager создаёт менеджер витрины.
func NewManager(
	storeProducts domain.StoreProductRepository,
	stores domain.StoreRepository,
	products domain.ProductRepository,
	gate authz.Gate,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Manager {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Manager{
		storeProducts: storeProducts,
		stores:        stores,
		products:      products,
		gate:          gate,
		outbox:        outbox,
		logger:        logger,
	}
}

// Link выставляет товар в магазине. Повторная привязка той же пары —
// нарушение уникальности.
func (m *Manager) Link(ctx context.Context, caller authz.Caller, storeID, productID string) error {
	store, err := m.stores.GetStore(storeID)
	if err != nil {
		return domain.AsFault(err)
	}
	if err := m.gate.Authorize(ctx, authz.ActionManageCatalog, store, caller); err != nil {
		return domain.AsFault(err)
	}
	if _, err := m.products.GetProduct(productID); err != nil {
		return domain.AsFault(err)
	}

	if err := m.storeProducts.Link(storeID, productID); err != nil {
		return domain.AsFault(err)
	}

	m.emitEvent(kafka.EventTypeProductLinked, storeID, productID, nil)
	return nil
}

// Unlink снимает товар с витрины магазина. Если это была последняя привязка
// товара, товар удаляется безвозвратно; возвращает признак удаления.
func (m *Manager) Unlink(ctx context.Context, caller authz.Caller, storeID, productID string) (purged bool, err error) {
	store, storeErr := m.stores.GetStore(storeID)
	if storeErr != nil {
		return false, domain.AsFault(storeErr)
	}
	if err := m.gate.Authorize(ctx, authz.ActionManageCatalog, store, caller); err != nil {
		return false, domain.AsFault(err)
	}

	purged, err = m.storeProducts.Unlink(storeID, productID)
	if err != nil {
		return false, domain.AsFault(err)
	}

	m.emitEvent(kafka.EventTypeProductUnlinked, storeID, productID, nil)
	if purged {
		m.logger.WithFields(log.Fields{
			"store_id":   storeID,
			"product_id": productID,
		}).Info("orphaned product purged")
		m.emitEvent(kafka.EventTypeProductPurged, storeID, productID, map[string]any{
			"reason": "no remaining store listings",
		})
	}
	return purged, nil
}

func (m *Manager) emitEvent(eventType kafka.EventType, storeID, productID string, metadata map[string]any) {
	if m.outbox == nil {
		return
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["store_id"] = storeID
	metadata["product_id"] = productID
	metadata["ts"] = time.Now().UTC().Format(time.RFC3339Nano)

	payload, err := json.Marshal(metadata)
	if err != nil {
		m.logger.WithError(err).Error("marshal catalog event failed")
		return
	}
	if _, err := m.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "store_product",
		AggregateID:   storeID + ":" + productID,
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		m.logger.WithError(err).Error("enqueue catalog event failed")
	}
}
