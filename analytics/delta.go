package analytics

import (
	"math"

	"stocksignals/models"
)

// ComputeDeltas compares every product in current against previous. Products
// that only exist in previous are not reported. previous may be nil.
func ComputeDeltas(current models.Snapshot, previous *models.Snapshot) []models.DeltaRecord {
	var index map[models.ProductKey]models.EnrichedItem
	if previous != nil {
		index = previous.Index()
	}

	deltas := make([]models.DeltaRecord, 0, len(current.Items))
	for _, item := range current.Items {
		var prior *models.EnrichedItem
		if p, ok := index[item.Item.ProductKey]; ok {
			prior = &p
		}
		deltas = append(deltas, ComputeDelta(item, prior))
	}
	return deltas
}

// ComputeDelta compares one item against its prior state. A nil prior means no
// prior record existed: previous quantity is reported as zero, but all
// previous-velocity and percent fields stay nil. Velocities measured over
// different observation windows are not compared.
func ComputeDelta(current models.EnrichedItem, prior *models.EnrichedItem) models.DeltaRecord {
	d := models.DeltaRecord{
		ProductKey:      current.Item.ProductKey,
		CurrentQty:      current.Item.QuantityOnHand,
		CurrentVelocity: current.Velocity.DailyVelocity,
	}

	if prior == nil {
		d.QuantityDelta = d.CurrentQty
		return d
	}

	d.HasPrevious = true
	d.PreviousQty = prior.Item.QuantityOnHand
	d.QuantityDelta = d.CurrentQty - d.PreviousQty
	d.QuantityDeltaPercent = percentChange(float64(d.QuantityDelta), float64(d.PreviousQty))

	// Velocity read while the source was down is absent, not zero.
	if !current.Velocity.HasSalesData() || !prior.Velocity.HasSalesData() {
		return d
	}
	if current.Velocity.ObservationDays != prior.Velocity.ObservationDays {
		return d
	}

	prevVelocity := prior.Velocity.DailyVelocity
	velocityDelta := d.CurrentVelocity - prevVelocity
	d.PreviousVelocity = &prevVelocity
	d.VelocityDelta = &velocityDelta
	d.VelocityDeltaPercent = percentChange(velocityDelta, prevVelocity)

	if d.VelocityDeltaPercent != nil {
		d.HasAccelerated = *d.VelocityDeltaPercent > AccelerationThresholdPercent
		d.HasDecelerated = *d.VelocityDeltaPercent < -AccelerationThresholdPercent
	}
	return d
}

func percentChange(delta, base float64) *float64 {
	if base == 0 {
		return nil
	}
	pct := roundPercent(delta / base * 100)
	return &pct
}

// roundPercent drops float noise so that a ratio of integer sales that is
// exactly on a threshold compares as exactly on it.
func roundPercent(pct float64) float64 {
	return math.Round(pct*percentScale) / percentScale
}
