package store

import (
	"context"
	"time"

	"stocksignals/database"
	"stocksignals/models"
)

// PostgresEventSource reads order-line events written by the webhook ingester.
type PostgresEventSource struct {
	db database.Querier
}

func NewPostgresEventSource(db database.Querier) *PostgresEventSource {
	return &PostgresEventSource{db: db}
}

func (s *PostgresEventSource) QueryEvents(ctx context.Context, shopID string, start, end time.Time) ([]models.OrderEvent, error) {
	query := `
		SELECT event_id, sku, unit, quantity, occurred_at
		FROM order_line_events
		WHERE shop_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at
	`
	rows, err := s.db.Query(ctx, query, shopID, start, end)
	if err != nil {
		return nil, wrapDBError("query order events", err)
	}
	defer rows.Close()

	events := make([]models.OrderEvent, 0)
	for rows.Next() {
		var ev models.OrderEvent
		var sku, unit *string
		if err := rows.Scan(&ev.EventID, &sku, &unit, &ev.Quantity, &ev.OccurredAt); err != nil {
			return nil, wrapDBError("scan order event", err)
		}
		// Missing keys are left empty; the aggregator drops them.
		if sku != nil {
			ev.ProductKey.SKU = *sku
		}
		if unit != nil {
			ev.ProductKey.Unit = *unit
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("read order events", err)
	}
	return events, nil
}
