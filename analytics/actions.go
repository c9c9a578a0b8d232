package analytics

import "stocksignals/models"

var actionTable = map[models.ClaimType]struct {
	action   models.ActionType
	priority models.Severity
}{
	models.ClaimStockoutRisk:    {models.ActionReorder, models.SeverityHigh},
	models.ClaimVelocityDecline: {models.ActionPromoteOrDiscount, models.SeverityMedium},
	models.ClaimVelocityGrowth:  {models.ActionIncreaseReorderQty, models.SeverityLow},
}

// FrameActions maps each proof with a known claim type onto one recommended
// action. Unknown claim types are dropped. The reason is the proof's summary,
// unchanged.
func FrameActions(proofs []models.ProofObject) []models.Action {
	actions := make([]models.Action, 0, len(proofs))
	for _, p := range proofs {
		entry, ok := actionTable[p.ClaimType]
		if !ok {
			continue
		}
		actions = append(actions, models.Action{
			Type:       entry.action,
			Priority:   entry.priority,
			ProductKey: p.ProductKey,
			Reason:     p.ClaimSummary,
			ClaimType:  p.ClaimType,
		})
	}
	return actions
}
