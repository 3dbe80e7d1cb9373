package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

type storeProductKey struct {
	storeID   string
	productID string
}

// catalogInMemory хранит магазины, товары, варианты и связки магазин↔товар
// под одним мьютексом: так снятие связки, проверка сиротства и удаление
// товара выполняются атомарно, и конкурентный Link не может вклиниться
// между проверкой и удалением.
type catalogInMemory struct {
	mu            sync.RWMutex
	stores        map[string]domain.Store
	products      map[string]domain.Product
	variants      map[string]domain.Variant
	storeProducts map[storeProductKey]domain.StoreProduct
}

// NewCatalogRepository создаёт in-memory каталог для разработки и тестов.
// Возвращаемый тип реализует Store-, Product-, Variant- и
// StoreProductRepository одновременно.
func NewCatalogRepository() *catalogInMemory {
	return &catalogInMemory{
		stores:        make(map[string]domain.Store),
		products:      make(map[string]domain.Product),
		variants:      make(map[string]domain.Variant),
		storeProducts: make(map[storeProductKey]domain.StoreProduct),
	}
}

// AddStore регистрирует магазин.
func (c *catalogInMemory) AddStore(store domain.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores[store.ID] = store
}

// AddProduct регистрирует товар.
func (c *catalogInMemory) AddProduct(product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = product
}

// AddVariant регистрирует вариант товара.
func (c *catalogInMemory) AddVariant(variant domain.Variant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[variant.ID] = variant
}

// GetStore возвращает магазин или ErrStoreNotFound.
func (c *catalogInMemory) GetStore(id string) (domain.Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	store, ok := c.stores[id]
	if !ok {
		return domain.Store{}, domain.ErrStoreNotFound
	}
	return store, nil
}

// GetProduct возвращает товар или ErrProductNotFound.
func (c *catalogInMemory) GetProduct(id string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// GetVariant возвращает вариант или ErrVariantNotFound.
func (c *catalogInMemory) GetVariant(id string) (domain.Variant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	variant, ok := c.variants[id]
	if !ok {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	return variant, nil
}

// Link создаёт связку магазин↔товар; пара уникальна.
func (c *catalogInMemory) Link(storeID, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := storeProductKey{storeID: storeID, productID: productID}
	if _, exists := c.storeProducts[key]; exists {
		return domain.ErrStoreProductExists
	}

	now := time.Now().UTC()
	c.storeProducts[key] = domain.StoreProduct{
		StoreID:   storeID,
		ProductID: productID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.touch(storeID, productID, now)
	return nil
}

// Unlink удаляет связку; последний магазин товара уносит с собой сам товар.
func (c *catalogInMemory) Unlink(storeID, productID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := storeProductKey{storeID: storeID, productID: productID}
	if _, exists := c.storeProducts[key]; !exists {
		return false, domain.ErrStoreProductNotFound
	}
	delete(c.storeProducts, key)

	now := time.Now().UTC()
	c.touch(storeID, productID, now)

	for k := range c.storeProducts {
		if k.productID == productID {
			return false, nil
		}
	}

	// Осиротевший товар удаляется вместе с его вариантами.
	delete(c.products, productID)
	for id, variant := range c.variants {
		if variant.ProductID == productID {
			delete(c.variants, id)
		}
	}
	return true, nil
}

// Linked сообщает, выставлен ли товар в магазине.
func (c *catalogInMemory) Linked(storeID, productID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.storeProducts[storeProductKey{storeID: storeID, productID: productID}]
	return exists, nil
}

// ListByProduct возвращает все связки товара.
func (c *catalogInMemory) ListByProduct(productID string) ([]domain.StoreProduct, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]domain.StoreProduct, 0)
	for key, link := range c.storeProducts {
		if key.productID == productID {
			result = append(result, link)
		}
	}
	return result, nil
}

// touch обновляет UpdatedAt обеих сторон связки для инвалидации кэшей.
func (c *catalogInMemory) touch(storeID, productID string, now time.Time) {
	if store, ok := c.stores[storeID]; ok {
		store.UpdatedAt = now
		c.stores[storeID] = store
	}
	if product, ok := c.products[productID]; ok {
		product.UpdatedAt = now
		c.products[productID] = product
	}
}

var (
	_ domain.StoreRepository        = (*catalogInMemory)(nil)
	_ domain.ProductRepository      = (*catalogInMemory)(nil)
	_ domain.VariantRepository      = (*catalogInMemory)(nil)
	_ domain.StoreProductRepository = (*catalogInMemory)(nil)
)
