package analytics

import (
	"fmt"

	"stocksignals/models"
)

// BuildProofs turns velocity records and deltas into evidence-backed claims.
// A stockout_risk proof needs a depletion estimate from real sales data; the
// velocity proofs need a delta that crossed the acceleration threshold.
func BuildProofs(velocity []models.VelocityRecord, deltas []models.DeltaRecord) []models.ProofObject {
	proofs := make([]models.ProofObject, 0)
	confidence := make(map[models.ProductKey]models.Confidence, len(velocity))

	for _, v := range velocity {
		confidence[v.ProductKey] = v.Confidence
		if !v.HasSalesData() || v.DaysUntilDepletion == nil {
			continue
		}
		days := *v.DaysUntilDepletion
		if days <= 0 || days > StockoutRiskDays {
			continue
		}
		proofs = append(proofs, models.ProofObject{
			ClaimType:    models.ClaimStockoutRisk,
			ProductKey:   v.ProductKey,
			ClaimSummary: fmt.Sprintf("%s: about %d days of stock left at %.2f units/day", v.ProductKey, days, v.DailyVelocity),
			Confidence:   v.Confidence,
			Evidence: map[string]float64{
				"days_until_depletion": float64(days),
				"daily_velocity":       v.DailyVelocity,
				"order_count":          float64(v.OrderCount),
			},
		})
	}

	for _, d := range deltas {
		if d.VelocityDeltaPercent == nil || d.PreviousVelocity == nil {
			continue
		}
		var claim models.ClaimType
		switch {
		case d.HasDecelerated:
			claim = models.ClaimVelocityDecline
		case d.HasAccelerated:
			claim = models.ClaimVelocityGrowth
		default:
			continue
		}
		proofs = append(proofs, models.ProofObject{
			ClaimType:    claim,
			ProductKey:   d.ProductKey,
			ClaimSummary: fmt.Sprintf("%s: velocity moved %+.1f%% (%.2f -> %.2f units/day)", d.ProductKey, *d.VelocityDeltaPercent, *d.PreviousVelocity, d.CurrentVelocity),
			Confidence:   confidence[d.ProductKey],
			Evidence: map[string]float64{
				"previous_velocity":      *d.PreviousVelocity,
				"current_velocity":       d.CurrentVelocity,
				"velocity_delta_percent": *d.VelocityDeltaPercent,
			},
		})
	}
	return proofs
}
