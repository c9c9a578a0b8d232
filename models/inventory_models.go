package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductKey identifies a sellable product: a SKU in a specific unit of sale.
type ProductKey struct {
	SKU  string `json:"sku"`
	Unit string `json:"unit"`
}

func (k ProductKey) String() string {
	return k.SKU + "/" + k.Unit
}

// Valid reports whether both halves of the key are present.
func (k ProductKey) Valid() bool {
	return k.SKU != "" && k.Unit != ""
}

// OrderEvent is a single order line received from the commerce platform.
type OrderEvent struct {
	EventID    string     `json:"event_id,omitempty"`
	ProductKey ProductKey `json:"product_key"`
	Quantity   int        `json:"quantity"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// AggregatedSalesRecord is the sales volume of one product within a window.
type AggregatedSalesRecord struct {
	ProductKey     ProductKey `json:"product_key"`
	TotalUnitsSold int        `json:"total_units_sold"`
	OrderCount     int        `json:"order_count"`
	FirstOrderAt   time.Time  `json:"first_order_at"`
	LastOrderAt    time.Time  `json:"last_order_at"`
}

// InventoryItem is the current on-hand state of a product in a shop.
type InventoryItem struct {
	ProductKey     ProductKey       `json:"product_key"`
	Name           string           `json:"name,omitempty"`
	QuantityOnHand int              `json:"quantity_on_hand"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
}

// MarginPercent returns (price - cost) / price as a percentage, or nil when
// either value is missing or the price is zero.
func (i InventoryItem) MarginPercent() *float64 {
	if i.UnitCost == nil || i.UnitPrice == nil || i.UnitPrice.IsZero() {
		return nil
	}
	margin := i.UnitPrice.Sub(*i.UnitCost).Div(*i.UnitPrice).Mul(decimal.NewFromInt(100))
	f := margin.InexactFloat64()
	return &f
}

// VelocityRecord is the sales velocity and depletion estimate of one item.
type VelocityRecord struct {
	ProductKey         ProductKey   `json:"product_key"`
	UnitsSold          int          `json:"units_sold"`
	OrderCount         int          `json:"order_count"`
	DailyVelocity      float64      `json:"daily_velocity"`
	DaysUntilDepletion *int         `json:"days_until_depletion"`
	Confidence         Confidence   `json:"confidence"`
	ObservationDays    int          `json:"observation_days"`
	Source             SourceStatus `json:"source"`
}

// HasSalesData reports whether the velocity was computed from data actually
// read from the event source.
func (v VelocityRecord) HasSalesData() bool {
	return v.Source == SourceOK
}

// EnrichedItem pairs an inventory item with its velocity.
type EnrichedItem struct {
	Item     InventoryItem  `json:"item"`
	Velocity VelocityRecord `json:"velocity"`
}

// Snapshot is a timestamped capture of inventory and velocity for a shop.
// Snapshots are append-only.
type Snapshot struct {
	ID              uuid.UUID      `json:"id"`
	ShopID          string         `json:"shop_id"`
	CapturedAt      time.Time      `json:"captured_at"`
	ObservationDays int            `json:"observation_days"`
	Items           []EnrichedItem `json:"items"`
	FromCache       bool           `json:"from_cache,omitempty"`
}

// NewSnapshot stamps a new snapshot with a fresh ID.
func NewSnapshot(shopID string, capturedAt time.Time, observationDays int, items []EnrichedItem) Snapshot {
	return Snapshot{
		ID:              uuid.New(),
		ShopID:          shopID,
		CapturedAt:      capturedAt,
		ObservationDays: observationDays,
		Items:           items,
	}
}

// Index maps each product key to its entry, keeping the first entry for a
// repeated key as Find does. Build it once when looking up many keys.
func (s Snapshot) Index() map[ProductKey]EnrichedItem {
	index := make(map[ProductKey]EnrichedItem, len(s.Items))
	for _, item := range s.Items {
		if _, seen := index[item.Item.ProductKey]; !seen {
			index[item.Item.ProductKey] = item
		}
	}
	return index
}

// Find returns the entry for key, if the snapshot has one.
func (s Snapshot) Find(key ProductKey) (EnrichedItem, bool) {
	for _, item := range s.Items {
		if item.Item.ProductKey == key {
			return item, true
		}
	}
	return EnrichedItem{}, false
}
