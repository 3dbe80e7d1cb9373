package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы покупателя с опциональным ограничением на количество.
	ListByUser(userID string, limit int) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking:
	// при несовпадении версии возвращает ErrOrderVersionConflict.
	Save(order Order) error
}

// StoreRepository — хранилище магазинов.
type StoreRepository interface {
	GetStore(id string) (Store, error)
}

// ProductRepository — хранилище товаров.
type ProductRepository interface {
	GetProduct(id string) (Product, error)
}

// VariantRepository — каталог вариантов товаров.
type VariantRepository interface {
	GetVariant(id string) (Variant, error)
}

// StoreProductRepository управляет связками магазин↔товар.
type StoreProductRepository interface {
	// Link создаёт связку; ErrStoreProductExists при дубликате пары.
	Link(storeID, productID string) error
	// Unlink удаляет связку и, если у товара не осталось ни одной привязки,
	// атомарно с удалением связки удаляет сам товар (orphan purge).
	// Возвращает true, если товар был удалён. Операция необратима.
	Unlink(storeID, productID string) (purged bool, err error)
	// Linked сообщает, выставлен ли товар в магазине.
	Linked(storeID, productID string) (bool, error)
	// ListByProduct возвращает все связки товара.
	ListByProduct(productID string) ([]StoreProduct, error)
}
