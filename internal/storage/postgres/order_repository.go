package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// OrderRepository — PostgreSQL-реализация хранилища заказов.
// Optimistic locking строится на колонке version: Save обновляет строку
// условием WHERE version = $n и трактует RowsAffected == 0 как конфликт.
type OrderRepository struct {
	store *Store
}

// NewOrderRepository создаёт репозиторий заказов поверх подключения.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

var _ domain.OrderRepository = (*OrderRepository)(nil)

// Create сохраняет новый заказ вместе с позициями и купонами в одной транзакции.
func (r *OrderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	shipAddress, err := marshalAddress(order.ShipAddress)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, store_id, user_id, currency, state,
			email, special_instructions, ship_address, delivery_method,
			approved_by, approved_at, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		order.ID, order.StoreID, order.UserID, order.Currency, string(order.State),
		order.Email, order.SpecialInstructions, shipAddress, order.DeliveryMethod,
		order.ApprovedBy, order.ApprovedAt, order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertOrderChildren(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

// Get возвращает заказ со всеми позициями и купонами.
func (r *OrderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.scanOrder(r.store.db.QueryRowContext(ctx, `
		SELECT id, store_id, user_id, currency, state,
		       email, special_instructions, ship_address, delivery_method,
		       approved_by, approved_at, version, created_at, updated_at
		FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	if err := r.loadChildren(ctx, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// ListByUser возвращает заказы покупателя, новые первыми.
func (r *OrderRepository) ListByUser(userID string, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, store_id, user_id, currency, state,
		       email, special_instructions, ship_address, delivery_method,
		       approved_by, approved_at, version, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders by user: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if err := r.loadChildren(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Save перезаписывает заказ при совпадении версии. Позиции и купоны
// перезаписываются целиком: их состав в заказе меняется часто, а объёмы малы.
func (r *OrderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	shipAddress, err := marshalAddress(order.ShipAddress)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET
			user_id = $1, state = $2, email = $3, special_instructions = $4,
			ship_address = $5, delivery_method = $6,
			approved_by = $7, approved_at = $8,
			version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11`,
		order.UserID, string(order.State), order.Email, order.SpecialInstructions,
		shipAddress, order.DeliveryMethod,
		order.ApprovedBy, order.ApprovedAt,
		order.UpdatedAt,
		order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check order existence: %w", err)
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_line_items WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete order line items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_coupons WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete order coupons: %w", err)
	}
	if err := insertOrderChildren(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OrderRepository) scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order       domain.Order
		state       string
		shipAddress []byte
		approvedAt  sql.NullTime
	)
	err := row.Scan(
		&order.ID, &order.StoreID, &order.UserID, &order.Currency, &state,
		&order.Email, &order.SpecialInstructions, &shipAddress, &order.DeliveryMethod,
		&order.ApprovedBy, &approvedAt, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	order.State = domain.OrderState(state)
	if approvedAt.Valid {
		t := approvedAt.Time
		order.ApprovedAt = &t
	}
	if len(shipAddress) > 0 {
		var addr domain.Address
		if err := json.Unmarshal(shipAddress, &addr); err != nil {
			return domain.Order{}, fmt.Errorf("decode ship address: %w", err)
		}
		order.ShipAddress = &addr
	}
	return order, nil
}

func (r *OrderRepository) loadChildren(ctx context.Context, order *domain.Order) error {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, variant_id, quantity, price_minor, options, created_at
		FROM order_line_items WHERE order_id = $1 ORDER BY created_at, id`, order.ID)
	if err != nil {
		return fmt.Errorf("select line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item    domain.LineItem
			options []byte
		)
		if err := rows.Scan(&item.ID, &item.VariantID, &item.Qty, &item.PriceMinor, &options, &item.CreatedAt); err != nil {
			return fmt.Errorf("scan line item: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &item.Options); err != nil {
				return fmt.Errorf("decode line item options: %w", err)
			}
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate line items: %w", err)
	}

	couponRows, err := r.store.db.QueryContext(ctx, `
		SELECT code, discount_minor, applied_at
		FROM order_coupons WHERE order_id = $1 ORDER BY applied_at, code`, order.ID)
	if err != nil {
		return fmt.Errorf("select order coupons: %w", err)
	}
	defer couponRows.Close()

	for couponRows.Next() {
		var coupon domain.AppliedCoupon
		if err := couponRows.Scan(&coupon.Code, &coupon.DiscountMinor, &coupon.AppliedAt); err != nil {
			return fmt.Errorf("scan order coupon: %w", err)
		}
		order.Coupons = append(order.Coupons, coupon)
	}
	if err := couponRows.Err(); err != nil {
		return fmt.Errorf("iterate order coupons: %w", err)
	}
	return nil
}

func insertOrderChildren(ctx context.Context, tx *sql.Tx, order domain.Order) error {
	for _, item := range order.Items {
		options, err := json.Marshal(item.Options)
		if err != nil {
			return fmt.Errorf("encode line item options: %w", err)
		}
		if item.Options == nil {
			options = []byte(`{}`)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_line_items (id, order_id, variant_id, quantity, price_minor, options, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			item.ID, order.ID, item.VariantID, item.Qty, item.PriceMinor, options, item.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert line item: %w", err)
		}
	}
	for _, coupon := range order.Coupons {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_coupons (order_id, code, discount_minor, applied_at)
			VALUES ($1,$2,$3,$4)`,
			order.ID, coupon.Code, coupon.DiscountMinor, coupon.AppliedAt,
		); err != nil {
			return fmt.Errorf("insert order coupon: %w", err)
		}
	}
	return nil
}

func marshalAddress(addr *domain.Address) ([]byte, error) {
	if addr == nil {
		return nil, nil
	}
	data, err := json.Marshal(addr)
	if err != nil {
		return nil, fmt.Errorf("encode ship address: %w", err)
	}
	return data, nil
}

// isUniqueViolation распознаёт нарушение уникального ограничения PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
