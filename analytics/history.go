package analytics

import "stocksignals/models"

// BuildHistory derives the per-item history context for current from prior
// snapshots ordered newest first. current is treated as the newest point of
// each series. Fields without enough data are left nil. A prior velocity
// measured over a different observation window is not reported.
func BuildHistory(current models.Snapshot, history []models.Snapshot) map[models.ProductKey]models.HistoryContext {
	series := make([]models.Snapshot, 0, len(history)+1)
	series = append(series, current)
	series = append(series, history...)
	indexed := indexHistory(series)

	// Metric paths are fixed constants, so resolution cannot fail here.
	margin, _ := ResolveMetric(MetricMarginPercent)

	out := make(map[models.ProductKey]models.HistoryContext, len(current.Items))
	for _, item := range current.Items {
		key := item.Item.ProductKey
		var h models.HistoryContext

		if len(history) > 0 {
			prior, ok := indexed[1][key]
			if ok && prior.Velocity.HasSalesData() && prior.Velocity.ObservationDays == item.Velocity.ObservationDays {
				v := prior.Velocity.DailyVelocity
				h.PreviousVelocity = &v
			}
		}

		if trend := detectTrend(indexed, key, margin); trend.Trend != models.TrendInsufficientData {
			h.MarginTrend = &trend
		}

		h.VelocityVariance, h.HistoryPoints = velocityVariance(indexed, key)

		out[key] = h
	}
	return out
}
