package store

import (
	"context"

	"stocksignals/database"
	"stocksignals/models"

	"github.com/shopspring/decimal"
)

// PostgresInventoryStore reads shop stock joined with the merchant catalogue.
type PostgresInventoryStore struct {
	db database.Querier
}

func NewPostgresInventoryStore(db database.Querier) *PostgresInventoryStore {
	return &PostgresInventoryStore{db: db}
}

func (s *PostgresInventoryStore) CurrentInventory(ctx context.Context, shopID string) ([]models.InventoryItem, error) {
	query := `
		SELECT COALESCE(i.sku, ''), COALESCE(i.unit_of_sale, ''), i.name, ss.quantity, i.unit_cost, i.selling_price
		FROM shop_stock ss
		JOIN inventory_items i ON ss.inventory_item_id = i.id
		WHERE ss.shop_id = $1 AND i.is_archived = false
		ORDER BY i.sku, i.unit_of_sale
	`
	rows, err := s.db.Query(ctx, query, shopID)
	if err != nil {
		return nil, wrapDBError("query inventory", err)
	}
	defer rows.Close()

	items := make([]models.InventoryItem, 0)
	for rows.Next() {
		var item models.InventoryItem
		var cost, price decimal.NullDecimal
		if err := rows.Scan(&item.ProductKey.SKU, &item.ProductKey.Unit, &item.Name, &item.QuantityOnHand, &cost, &price); err != nil {
			return nil, wrapDBError("scan inventory item", err)
		}
		// Items without a SKU or unit cannot be matched to sales.
		if !item.ProductKey.Valid() {
			continue
		}
		if cost.Valid {
			item.UnitCost = &cost.Decimal
		}
		if price.Valid {
			item.UnitPrice = &price.Decimal
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("read inventory", err)
	}
	return items, nil
}

// ShopBelongsTo reports whether merchantID owns shopID.
func (s *PostgresInventoryStore) ShopBelongsTo(ctx context.Context, shopID, merchantID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM shops WHERE id = $1 AND merchant_id = $2)", shopID, merchantID,
	).Scan(&exists)
	if err != nil {
		return false, wrapDBError("check shop owner", err)
	}
	return exists, nil
}
