package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// CatalogRepository — PostgreSQL-реализация каталога: магазины, товары,
// варианты и связки магазин↔товар. Unlink выполняет orphan purge в одной
// транзакции с блокировкой строки товара, чтобы параллельные unlink разных
// магазинов не потеряли удаление осиротевшего товара.
type CatalogRepository struct {
	store *Store
}

// NewCatalogRepository создаёт репозиторий каталога поверх подключения.
func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

var (
	_ domain.StoreRepository        = (*CatalogRepository)(nil)
	_ domain.ProductRepository      = (*CatalogRepository)(nil)
	_ domain.VariantRepository      = (*CatalogRepository)(nil)
	_ domain.StoreProductRepository = (*CatalogRepository)(nil)
)

// GetStore возвращает магазин по идентификатору.
func (r *CatalogRepository) GetStore(id string) (domain.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var store domain.Store
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, default_currency, created_at, updated_at
		FROM stores WHERE id = $1`, id,
	).Scan(&store.ID, &store.Name, &store.DefaultCurrency, &store.CreatedAt, &store.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Store{}, domain.ErrStoreNotFound
	}
	if err != nil {
		return domain.Store{}, fmt.Errorf("select store: %w", err)
	}
	return store, nil
}

// GetProduct возвращает товар по идентификатору.
func (r *CatalogRepository) GetProduct(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM products WHERE id = $1`, id,
	).Scan(&product.ID, &product.Name, &product.CreatedAt, &product.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

// GetVariant возвращает вариант товара по идентификатору.
func (r *CatalogRepository) GetVariant(id string) (domain.Variant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var variant domain.Variant
	err := r.store.db.QueryRowContext(ctx, `
		SELECT id, product_id, sku, price_minor, currency
		FROM variants WHERE id = $1`, id,
	).Scan(&variant.ID, &variant.ProductID, &variant.SKU, &variant.PriceMinor, &variant.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	if err != nil {
		return domain.Variant{}, fmt.Errorf("select variant: %w", err)
	}
	return variant, nil
}

// Link выставляет товар в магазине. Дубликат пары (store, product)
// отклоняется ограничением уникальности.
func (r *CatalogRepository) Link(storeID, productID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO store_products (store_id, product_id) VALUES ($1, $2)`,
		storeID, productID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStoreProductExists
		}
		return fmt.Errorf("insert store product: %w", err)
	}

	if err := r.touch(ctx, storeID, productID); err != nil {
		return err
	}
	return nil
}

// Unlink снимает товар с витрины магазина. Если это была последняя связка,
// товар удаляется вместе с вариантами в той же транзакции.
func (r *CatalogRepository) Unlink(storeID, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Блокируем строку товара: конкурирующие Unlink/Link этого товара
	// сериализуются, и подсчёт оставшихся связок не гонится с удалением.
	productExists := true
	var lockedID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID,
	).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		productExists = false
	} else if err != nil {
		return false, fmt.Errorf("lock product: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM store_products WHERE store_id = $1 AND product_id = $2`,
		storeID, productID)
	if err != nil {
		return false, fmt.Errorf("delete store product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, domain.ErrStoreProductNotFound
	}

	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM store_products WHERE product_id = $1`, productID,
	).Scan(&remaining); err != nil {
		return false, fmt.Errorf("count remaining links: %w", err)
	}

	purged := false
	if remaining == 0 && productExists {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID); err != nil {
			return false, fmt.Errorf("purge orphan product: %w", err)
		}
		purged = true
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE stores SET updated_at = now() WHERE id = $1`, storeID); err != nil {
		return false, fmt.Errorf("touch store: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return purged, nil
}

// Linked сообщает, выставлен ли товар в магазине.
func (r *CatalogRepository) Linked(storeID, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var linked bool
	err := r.store.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM store_products WHERE store_id = $1 AND product_id = $2
		)`, storeID, productID).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("check store product: %w", err)
	}
	return linked, nil
}

// ListByProduct возвращает все связки товара.
func (r *CatalogRepository) ListByProduct(productID string) ([]domain.StoreProduct, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT store_id, product_id, created_at, updated_at
		FROM store_products WHERE product_id = $1 ORDER BY store_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("select store products: %w", err)
	}
	defer rows.Close()

	var links []domain.StoreProduct
	for rows.Next() {
		var link domain.StoreProduct
		if err := rows.Scan(&link.StoreID, &link.ProductID, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan store product: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store products: %w", err)
	}
	return links, nil
}

// AddStore сохраняет магазин. Используется сидированием и тестами.
func (r *CatalogRepository) AddStore(store domain.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO stores (id, name, default_currency) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, default_currency = EXCLUDED.default_currency, updated_at = now()`,
		store.ID, store.Name, store.DefaultCurrency)
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}
	return nil
}

// AddProduct сохраняет товар. Используется сидированием и тестами.
func (r *CatalogRepository) AddProduct(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO products (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`,
		product.ID, product.Name)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// AddVariant сохраняет вариант товара. Используется сидированием и тестами.
func (r *CatalogRepository) AddVariant(variant domain.Variant) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO variants (id, product_id, sku, price_minor, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, price_minor = EXCLUDED.price_minor, currency = EXCLUDED.currency`,
		variant.ID, variant.ProductID, variant.SKU, variant.PriceMinor, variant.Currency)
	if err != nil {
		return fmt.Errorf("upsert variant: %w", err)
	}
	return nil
}

func (r *CatalogRepository) touch(ctx context.Context, storeID, productID string) error {
	if _, err := r.store.db.ExecContext(ctx,
		`UPDATE stores SET updated_at = now() WHERE id = $1`, storeID); err != nil {
		return fmt.Errorf("touch store: %w", err)
	}
	if _, err := r.store.db.ExecContext(ctx,
		`UPDATE products SET updated_at = now() WHERE id = $1`, productID); err != nil {
		return fmt.Errorf("touch product: %w", err)
	}
	return nil
}
