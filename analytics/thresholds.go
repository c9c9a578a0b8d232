package analytics

// Analytics thresholds. These are fixed so that every classification can be
// audited against a known rule; only the observation window is configurable.
const (
	// DefaultObservationDays is the sales window used for velocity.
	DefaultObservationDays = 30

	// Confidence tiers by order count.
	HighConfidenceOrders   = 10
	MediumConfidenceOrders = 5

	// Delta and velocity comparison, in percent.
	AccelerationThresholdPercent = 20.0
	FlatChangeThresholdPercent   = 0.5

	// Trend detection.
	MinTrendSnapshots         = 3
	TrendWindowCap            = 5
	TrendConsistencyThreshold = 0.75

	// Depletion day bands, upper bound inclusive.
	CriticalDepletionDays = 3
	UrgentReorderDays     = 7
	PlanReorderDays       = 14

	// Stock thresholds, in units on hand (strictly greater than).
	AgingStockUnits       = 15
	PriceOpportunityUnits = 20

	// PriceOpportunityMaxVelocity is the exclusive upper bound of daily velocity
	// for a price opportunity.
	PriceOpportunityMaxVelocity = 1.0

	// VolatileVariancePercent is the coefficient of variation above which
	// demand is considered volatile.
	VolatileVariancePercent = 50.0

	// StockoutRiskDays is the depletion horizon for a stockout_risk proof.
	StockoutRiskDays = UrgentReorderDays

	// percentScale sets the resolution (1e-9) percent changes are rounded to
	// before they are compared against a threshold.
	percentScale = 1e9
)
