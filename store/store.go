package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocksignals/analytics"
	"stocksignals/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// EventSource reads order-line events for one shop in [start, end).
type EventSource interface {
	QueryEvents(ctx context.Context, shopID string, start, end time.Time) ([]models.OrderEvent, error)
}

// InventoryStore reads the current stock of a shop. It never writes.
type InventoryStore interface {
	CurrentInventory(ctx context.Context, shopID string) ([]models.InventoryItem, error)
}

// SnapshotStore keeps the append-only snapshot history of each shop.
type SnapshotStore interface {
	// History returns up to limit snapshots, newest first.
	History(ctx context.Context, shopID string, limit int) ([]models.Snapshot, error)
	Append(ctx context.Context, snapshot models.Snapshot) error
}

// ForShop scopes an EventSource to one shop for the analytics aggregator.
func ForShop(src EventSource, shopID string) analytics.EventQuerier {
	return analytics.EventQueryFunc(func(ctx context.Context, start, end time.Time) ([]models.OrderEvent, error) {
		return src.QueryEvents(ctx, shopID, start, end)
	})
}

// wrapDBError marks connectivity failures and timeouts as unavailable so the
// pipeline can tell them apart from an empty result.
func wrapDBError(op string, err error) error {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) ||
		pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %w", op, analytics.ErrDataUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
