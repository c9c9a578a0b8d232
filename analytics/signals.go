package analytics

import (
	"fmt"
	"sort"

	"stocksignals/models"
)

// DetectSignals evaluates every rule against one enriched item. Rules are
// independent and more than one may fire. history may be nil; rules that need
// a history field are skipped when it is absent.
func DetectSignals(item models.EnrichedItem, history *models.HistoryContext) []models.Signal {
	signals := make([]models.Signal, 0)
	for _, rule := range signalRules {
		if s, ok := rule(item, history); ok {
			signals = append(signals, s)
		}
	}
	return signals
}

// DetectAllSignals evaluates every item and sorts the result by severity.
// history is keyed by product and may be nil.
func DetectAllSignals(items []models.EnrichedItem, history map[models.ProductKey]models.HistoryContext) []models.Signal {
	all := make([]models.Signal, 0)
	for _, item := range items {
		var h *models.HistoryContext
		if ctx, ok := history[item.Item.ProductKey]; ok {
			h = &ctx
		}
		all = append(all, DetectSignals(item, h)...)
	}
	SortBySeverity(all)
	return all
}

// SortBySeverity orders signals critical first. Signals of equal severity keep
// their relative order.
func SortBySeverity(signals []models.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Severity < signals[j].Severity
	})
}

// FilterBySeverity keeps signals whose severity is one of severities.
func FilterBySeverity(signals []models.Signal, severities ...models.Severity) []models.Signal {
	want := make(map[models.Severity]bool, len(severities))
	for _, s := range severities {
		want[s] = true
	}
	out := make([]models.Signal, 0, len(signals))
	for _, s := range signals {
		if want[s.Severity] {
			out = append(out, s)
		}
	}
	return out
}

// FilterByType keeps signals whose type is one of types.
func FilterByType(signals []models.Signal, types ...models.SignalType) []models.Signal {
	want := make(map[models.SignalType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	out := make([]models.Signal, 0, len(signals))
	for _, s := range signals {
		if want[s.Type] {
			out = append(out, s)
		}
	}
	return out
}

// FilterByMinConfidence keeps signals at or above min.
func FilterByMinConfidence(signals []models.Signal, min models.Confidence) []models.Signal {
	out := make([]models.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Confidence.AtLeast(min) {
			out = append(out, s)
		}
	}
	return out
}

type signalRule func(models.EnrichedItem, *models.HistoryContext) (models.Signal, bool)

var signalRules = []signalRule{
	depletionRule,
	velocityPatternRule,
	stagnantInventoryRule,
	marginErosionRule,
	priceOpportunityRule,
	agingStockRule,
	volatileDemandRule,
}

func depletionRule(e models.EnrichedItem, _ *models.HistoryContext) (models.Signal, bool) {
	v := e.Velocity
	if !v.HasSalesData() || v.DaysUntilDepletion == nil {
		return models.Signal{}, false
	}
	days := *v.DaysUntilDepletion

	var (
		typ      models.SignalType
		severity models.Severity
		action   string
	)
	switch {
	case days <= 0:
		return models.Signal{}, false
	case days <= CriticalDepletionDays:
		typ, severity, action = models.SignalCriticalDepletion, models.SeverityCritical, "Reorder immediately"
	case days <= UrgentReorderDays:
		typ, severity, action = models.SignalUrgentReorder, models.SeverityHigh, "Place a reorder this week"
	case days <= PlanReorderDays:
		typ, severity, action = models.SignalPlanReorder, models.SeverityMedium, "Plan a reorder within two weeks"
	default:
		return models.Signal{}, false
	}

	return models.Signal{
		Type:       typ,
		Severity:   severity,
		ProductKey: e.Item.ProductKey,
		Confidence: v.Confidence,
		Message:    fmt.Sprintf("%s will run out in about %d days at %.2f units/day", e.Item.ProductKey, days, v.DailyVelocity),
		Action:     action,
		Evidence: models.SignalEvidence{
			QuantityOnHand:     intPtr(e.Item.QuantityOnHand),
			DailyVelocity:      floatPtr(v.DailyVelocity),
			DaysUntilDepletion: intPtr(days),
		},
	}, true
}

func velocityPatternRule(e models.EnrichedItem, h *models.HistoryContext) (models.Signal, bool) {
	if h == nil || h.PreviousVelocity == nil || !e.Velocity.HasSalesData() {
		return models.Signal{}, false
	}
	cmp := CompareVelocity(e.Velocity.DailyVelocity, *h.PreviousVelocity)

	s := models.Signal{
		Severity:   models.SeverityMedium,
		ProductKey: e.Item.ProductKey,
		Confidence: e.Velocity.Confidence,
		Message:    cmp.Message,
		Evidence: models.SignalEvidence{
			DailyVelocity:         floatPtr(e.Velocity.DailyVelocity),
			VelocityChangePercent: cmp.PercentChange,
			VelocityPattern:       cmp.Pattern,
		},
	}
	switch cmp.Pattern {
	case models.PatternAccelerating:
		s.Type = models.SignalAcceleratingSales
		s.Action = "Increase reorder quantity to match demand"
	case models.PatternDecelerating:
		s.Type = models.SignalDeceleratingSales
		s.Action = "Reduce reorder quantity and review pricing"
	default:
		return models.Signal{}, false
	}
	return s, true
}

func stagnantInventoryRule(e models.EnrichedItem, _ *models.HistoryContext) (models.Signal, bool) {
	v := e.Velocity
	if !v.HasSalesData() || v.UnitsSold != 0 || e.Item.QuantityOnHand <= 0 {
		return models.Signal{}, false
	}
	return models.Signal{
		Type:       models.SignalStagnantInventory,
		Severity:   models.SeverityHigh,
		ProductKey: e.Item.ProductKey,
		Confidence: zeroSalesConfidence(v.ObservationDays),
		Message:    fmt.Sprintf("%s has %d units on hand and no sales in %d days", e.Item.ProductKey, e.Item.QuantityOnHand, v.ObservationDays),
		Action:     "Review listing visibility and consider a promotion",
		Evidence: models.SignalEvidence{
			QuantityOnHand:  intPtr(e.Item.QuantityOnHand),
			UnitsSold:       intPtr(0),
			ObservationDays: intPtr(v.ObservationDays),
		},
	}, true
}

func marginErosionRule(e models.EnrichedItem, h *models.HistoryContext) (models.Signal, bool) {
	if h == nil || h.MarginTrend == nil || h.MarginTrend.Trend != models.TrendDecreasing {
		return models.Signal{}, false
	}
	trend := *h.MarginTrend
	return models.Signal{
		Type:       models.SignalMarginErosion,
		Severity:   models.SeverityMedium,
		ProductKey: e.Item.ProductKey,
		Confidence: historyConfidence(trend.SnapshotCount),
		Message:    fmt.Sprintf("%s margin has decreased across the last %d snapshots", e.Item.ProductKey, trend.SnapshotCount),
		Action:     "Review supplier cost and selling price",
		Evidence: models.SignalEvidence{
			MarginTrend: &trend,
		},
	}, true
}

func priceOpportunityRule(e models.EnrichedItem, _ *models.HistoryContext) (models.Signal, bool) {
	v := e.Velocity
	if !v.HasSalesData() || e.Item.QuantityOnHand <= PriceOpportunityUnits {
		return models.Signal{}, false
	}
	if v.DailyVelocity <= 0 || v.DailyVelocity >= PriceOpportunityMaxVelocity {
		return models.Signal{}, false
	}
	return models.Signal{
		Type:       models.SignalPriceOpportunity,
		Severity:   models.SeverityMedium,
		ProductKey: e.Item.ProductKey,
		Confidence: v.Confidence,
		Message:    fmt.Sprintf("%s sells %.2f units/day with %d units on hand", e.Item.ProductKey, v.DailyVelocity, e.Item.QuantityOnHand),
		Action:     "Test a price reduction to move stock",
		Evidence: models.SignalEvidence{
			QuantityOnHand: intPtr(e.Item.QuantityOnHand),
			DailyVelocity:  floatPtr(v.DailyVelocity),
		},
	}, true
}

func agingStockRule(e models.EnrichedItem, _ *models.HistoryContext) (models.Signal, bool) {
	v := e.Velocity
	if !v.HasSalesData() || v.UnitsSold != 0 || e.Item.QuantityOnHand <= AgingStockUnits {
		return models.Signal{}, false
	}
	return models.Signal{
		Type:       models.SignalAgingStock,
		Severity:   models.SeverityHigh,
		ProductKey: e.Item.ProductKey,
		Confidence: zeroSalesConfidence(v.ObservationDays),
		Message:    fmt.Sprintf("%s has %d units aging with no sales in %d days", e.Item.ProductKey, e.Item.QuantityOnHand, v.ObservationDays),
		Action:     "Clear aging stock through a bundle or markdown",
		Evidence: models.SignalEvidence{
			QuantityOnHand:  intPtr(e.Item.QuantityOnHand),
			UnitsSold:       intPtr(0),
			ObservationDays: intPtr(v.ObservationDays),
		},
	}, true
}

func volatileDemandRule(e models.EnrichedItem, h *models.HistoryContext) (models.Signal, bool) {
	if h == nil || h.VelocityVariance == nil || *h.VelocityVariance <= VolatileVariancePercent {
		return models.Signal{}, false
	}
	return models.Signal{
		Type:       models.SignalVolatileDemand,
		Severity:   models.SeverityLow,
		ProductKey: e.Item.ProductKey,
		Confidence: historyConfidence(h.HistoryPoints),
		Message:    fmt.Sprintf("%s daily velocity varies %.0f%% across recent snapshots", e.Item.ProductKey, *h.VelocityVariance),
		Action:     "Keep extra safety stock",
		Evidence: models.SignalEvidence{
			VelocityVariance: floatPtr(*h.VelocityVariance),
		},
	}, true
}

// zeroSalesConfidence rates an observed absence of sales by how long it was
// observed for.
func zeroSalesConfidence(observationDays int) models.Confidence {
	switch {
	case observationDays >= DefaultObservationDays:
		return models.ConfidenceHigh
	case observationDays >= PlanReorderDays:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// historyConfidence rates a history-derived finding by its number of points.
func historyConfidence(points int) models.Confidence {
	switch {
	case points >= TrendWindowCap:
		return models.ConfidenceHigh
	case points > MinTrendSnapshots:
		return models.ConfidenceMedium
	case points == MinTrendSnapshots:
		return models.ConfidenceLow
	default:
		return models.ConfidenceNone
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
