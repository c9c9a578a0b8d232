package store

import (
	"context"
	"encoding/json"
	"fmt"

	"stocksignals/database"
	"stocksignals/models"

	"github.com/google/uuid"
)

// PostgresSnapshotStore persists snapshots with their items as jsonb.
type PostgresSnapshotStore struct {
	db database.Querier
}

func NewPostgresSnapshotStore(db database.Querier) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (s *PostgresSnapshotStore) History(ctx context.Context, shopID string, limit int) ([]models.Snapshot, error) {
	query := `
		SELECT id::text, shop_id, captured_at, observation_days, items
		FROM inventory_snapshots
		WHERE shop_id = $1
		ORDER BY captured_at DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, shopID, limit)
	if err != nil {
		return nil, wrapDBError("query snapshots", err)
	}
	defer rows.Close()

	history := make([]models.Snapshot, 0, limit)
	for rows.Next() {
		var snap models.Snapshot
		var id string
		var items []byte
		if err := rows.Scan(&id, &snap.ShopID, &snap.CapturedAt, &snap.ObservationDays, &items); err != nil {
			return nil, wrapDBError("scan snapshot", err)
		}
		if snap.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse snapshot id %q: %w", id, err)
		}
		if err := json.Unmarshal(items, &snap.Items); err != nil {
			return nil, fmt.Errorf("decode snapshot %s items: %w", id, err)
		}
		history = append(history, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("read snapshots", err)
	}
	return history, nil
}

func (s *PostgresSnapshotStore) Append(ctx context.Context, snapshot models.Snapshot) error {
	items, err := json.Marshal(snapshot.Items)
	if err != nil {
		return fmt.Errorf("encode snapshot items: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO inventory_snapshots (id, shop_id, captured_at, observation_days, items)
		VALUES ($1, $2, $3, $4, $5)
	`, snapshot.ID.String(), snapshot.ShopID, snapshot.CapturedAt, snapshot.ObservationDays, items)
	if err != nil {
		return wrapDBError("insert snapshot", err)
	}
	return nil
}
