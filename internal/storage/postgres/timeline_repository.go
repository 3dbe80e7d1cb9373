package postgres

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// TimelineRepository — PostgreSQL-реализация журнала событий заказа.
type TimelineRepository struct {
	store *Store
}

// NewTimelineRepository создаёт репозиторий журнала поверх подключения.
func NewTimelineRepository(store *Store) *TimelineRepository {
	return &TimelineRepository{store: store}
}

var _ domain.TimelineRepository = (*TimelineRepository)(nil)

// Append добавляет событие в журнал заказа.
func (r *TimelineRepository) Append(event domain.TimelineEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO timeline_events (order_id, event_type, details, occurred)
		VALUES ($1, $2, jsonb_build_object('reason', $3::text), $4)`,
		event.OrderID, event.Type, event.Reason, event.Occurred)
	if err != nil {
		return fmt.Errorf("insert timeline event: %w", err)
	}
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *TimelineRepository) List(orderID string) ([]domain.TimelineEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT order_id, event_type, COALESCE(details->>'reason', ''), occurred
		FROM timeline_events
		WHERE order_id = $1
		ORDER BY occurred, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select timeline events: %w", err)
	}
	defer rows.Close()

	var events []domain.TimelineEvent
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(&event.OrderID, &event.Type, &event.Reason, &event.Occurred); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline events: %w", err)
	}
	return events, nil
}
