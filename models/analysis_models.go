package models

import "time"

// DeltaRecord is the pointwise change of one product between two snapshots.
// Percent fields are nil when the denominator is zero or no prior record exists.
type DeltaRecord struct {
	ProductKey           ProductKey `json:"product_key"`
	CurrentQty           int        `json:"current_qty"`
	PreviousQty          int        `json:"previous_qty"`
	HasPrevious          bool       `json:"has_previous"`
	QuantityDelta        int        `json:"quantity_delta"`
	QuantityDeltaPercent *float64   `json:"quantity_delta_percent"`
	CurrentVelocity      float64    `json:"current_velocity"`
	PreviousVelocity     *float64   `json:"previous_velocity"`
	VelocityDelta        *float64   `json:"velocity_delta"`
	VelocityDeltaPercent *float64   `json:"velocity_delta_percent"`
	HasAccelerated       bool       `json:"has_accelerated"`
	HasDecelerated       bool       `json:"has_decelerated"`
}

// TrendResult is the trajectory of a metric across recent snapshots.
type TrendResult struct {
	Trend         TrendDirection `json:"trend"`
	Confidence    *float64       `json:"confidence"`
	SnapshotCount int            `json:"snapshot_count"`
}

// VelocityComparison is the outcome of comparing velocity against a prior period.
type VelocityComparison struct {
	Pattern       VelocityPattern `json:"pattern"`
	PercentChange *float64        `json:"percent_change"`
	Message       string          `json:"message"`
}

// HistoryContext carries optional per-item history. Each nil field disables
// the signal rules that depend on it. HistoryPoints is the number of snapshots
// the variance was computed over.
type HistoryContext struct {
	PreviousVelocity *float64     `json:"previous_velocity,omitempty"`
	MarginTrend      *TrendResult `json:"margin_trend,omitempty"`
	VelocityVariance *float64     `json:"velocity_variance,omitempty"`
	HistoryPoints    int          `json:"history_points,omitempty"`
}

// --- Signals ---

type SignalType string

const (
	SignalCriticalDepletion SignalType = "CRITICAL_DEPLETION"
	SignalUrgentReorder     SignalType = "URGENT_REORDER"
	SignalPlanReorder       SignalType = "PLAN_REORDER"
	SignalAcceleratingSales SignalType = "ACCELERATING_SALES"
	SignalDeceleratingSales SignalType = "DECELERATING_SALES"
	SignalStagnantInventory SignalType = "STAGNANT_INVENTORY"
	SignalMarginErosion     SignalType = "MARGIN_EROSION"
	SignalPriceOpportunity  SignalType = "PRICE_OPPORTUNITY"
	SignalAgingStock        SignalType = "AGING_STOCK"
	SignalVolatileDemand    SignalType = "VOLATILE_DEMAND"
)

// SignalEvidence holds the values a signal was derived from. Only the fields
// relevant to the signal type are set.
type SignalEvidence struct {
	QuantityOnHand        *int            `json:"quantity_on_hand,omitempty"`
	DailyVelocity         *float64        `json:"daily_velocity,omitempty"`
	DaysUntilDepletion    *int            `json:"days_until_depletion,omitempty"`
	UnitsSold             *int            `json:"units_sold,omitempty"`
	ObservationDays       *int            `json:"observation_days,omitempty"`
	VelocityChangePercent *float64        `json:"velocity_change_percent,omitempty"`
	VelocityPattern       VelocityPattern `json:"velocity_pattern,omitempty"`
	MarginTrend           *TrendResult    `json:"margin_trend,omitempty"`
	VelocityVariance      *float64        `json:"velocity_variance,omitempty"`
}

// Signal is a typed finding about one product.
type Signal struct {
	Type       SignalType     `json:"type"`
	Severity   Severity       `json:"severity"`
	ProductKey ProductKey     `json:"product_key"`
	Confidence Confidence     `json:"confidence"`
	Message    string         `json:"message"`
	Action     string         `json:"action"`
	Evidence   SignalEvidence `json:"evidence"`
}

// --- Proofs & actions ---

type ClaimType string

const (
	ClaimStockoutRisk    ClaimType = "stockout_risk"
	ClaimVelocityDecline ClaimType = "velocity_decline"
	ClaimVelocityGrowth  ClaimType = "velocity_growth"
)

// ProofObject is an evidence-backed claim about a product.
type ProofObject struct {
	ClaimType    ClaimType          `json:"claim_type"`
	ProductKey   ProductKey         `json:"product_key"`
	ClaimSummary string             `json:"claim_summary"`
	Confidence   Confidence         `json:"confidence"`
	Evidence     map[string]float64 `json:"evidence,omitempty"`
}

type ActionType string

const (
	ActionReorder            ActionType = "REORDER"
	ActionPromoteOrDiscount  ActionType = "PROMOTE_OR_DISCOUNT"
	ActionIncreaseReorderQty ActionType = "INCREASE_REORDER_QTY"
)

// Action is a recommended operational step backed by a proof.
type Action struct {
	Type       ActionType `json:"type"`
	Priority   Severity   `json:"priority"`
	ProductKey ProductKey `json:"product_key"`
	Reason     string     `json:"reason"`
	ClaimType  ClaimType  `json:"claim_type"`
}

// --- Results ---

// AggregationResult is the outcome of aggregating events fetched from a source.
// Status distinguishes "no sales" from "source down".
type AggregationResult struct {
	Status  SourceStatus            `json:"status"`
	Records []AggregatedSalesRecord `json:"records"`
	Error   string                  `json:"error,omitempty"`
}

// OK reports whether the records reflect data actually read from the source.
func (r AggregationResult) OK() bool {
	return r.Status == SourceOK
}

// InsightsReport is the full output of one pipeline run for a shop.
type InsightsReport struct {
	ShopID           string           `json:"shop_id"`
	GeneratedAt      time.Time        `json:"generated_at"`
	ObservationDays  int              `json:"observation_days"`
	SalesStatus      SourceStatus     `json:"sales_status"`
	SalesError       string           `json:"sales_error,omitempty"`
	HistoryStatus    SourceStatus     `json:"history_status"`
	HistoryFromCache bool             `json:"history_from_cache,omitempty"`
	Velocity         []VelocityRecord `json:"velocity"`
	Deltas           []DeltaRecord    `json:"deltas"`
	Signals          []Signal         `json:"signals"`
	Proofs           []ProofObject    `json:"proofs"`
	Actions          []Action         `json:"actions"`
}
