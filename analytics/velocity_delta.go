package analytics

import (
	"fmt"
	"math"

	"stocksignals/models"
)

// CompareVelocity classifies current daily velocity against a prior period.
// The percent change is nil when the prior velocity is zero.
func CompareVelocity(current, previous float64) models.VelocityComparison {
	if previous == 0 {
		if current == 0 {
			return models.VelocityComparison{
				Pattern: models.PatternNoDemand,
				Message: "No sales in either period",
			}
		}
		return models.VelocityComparison{
			Pattern: models.PatternNewDemand,
			Message: fmt.Sprintf("New demand at %.2f units/day with no sales in the prior period", current),
		}
	}

	pct := roundPercent((current - previous) / previous * 100)
	cmp := models.VelocityComparison{PercentChange: &pct}

	switch {
	case pct > AccelerationThresholdPercent:
		cmp.Pattern = models.PatternAccelerating
		cmp.Message = fmt.Sprintf("Sales velocity up %.1f%% (%.2f -> %.2f units/day)", pct, previous, current)
	case pct < -AccelerationThresholdPercent:
		cmp.Pattern = models.PatternDecelerating
		cmp.Message = fmt.Sprintf("Sales velocity down %.1f%% (%.2f -> %.2f units/day)", math.Abs(pct), previous, current)
	case math.Abs(pct) <= FlatChangeThresholdPercent:
		cmp.Pattern = models.PatternFlat
		cmp.Message = fmt.Sprintf("Sales velocity unchanged at %.2f units/day", current)
	default:
		cmp.Pattern = models.PatternSteady
		cmp.Message = fmt.Sprintf("Sales velocity changed %.1f%% (%.2f -> %.2f units/day)", pct, previous, current)
	}
	return cmp
}
