package analytics

import (
	"context"
	"fmt"
	"time"

	"stocksignals/models"
)

// ConfidenceForOrders maps an order count onto a confidence tier. The tier is
// driven by sample size only.
func ConfidenceForOrders(orderCount int) models.Confidence {
	switch {
	case orderCount <= 0:
		return models.ConfidenceNone
	case orderCount >= HighConfidenceOrders:
		return models.ConfidenceHigh
	case orderCount >= MediumConfidenceOrders:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// EnrichVelocity produces one velocity record per inventory item. Items with
// no matching sales get zero velocity, a nil depletion estimate and no
// confidence.
func EnrichVelocity(items []models.InventoryItem, sales []models.AggregatedSalesRecord, observationDays int) ([]models.VelocityRecord, error) {
	if observationDays <= 0 {
		return nil, fmt.Errorf("%w: observation days must be positive, got %d", ErrInvalidWindow, observationDays)
	}

	byKey := make(map[models.ProductKey]models.AggregatedSalesRecord, len(sales))
	for _, s := range sales {
		byKey[s.ProductKey] = s
	}

	records := make([]models.VelocityRecord, 0, len(items))
	for _, item := range items {
		records = append(records, velocityFor(item, byKey[item.ProductKey], observationDays))
	}
	return records, nil
}

// EnrichUnavailable tags every item with status and no velocity. It is used
// when sales data could not be read, so consumers can tell absent velocity
// from a legitimate zero.
func EnrichUnavailable(items []models.InventoryItem, status models.SourceStatus, observationDays int) []models.VelocityRecord {
	records := make([]models.VelocityRecord, 0, len(items))
	for _, item := range items {
		records = append(records, models.VelocityRecord{
			ProductKey:      item.ProductKey,
			Confidence:      models.ConfidenceNone,
			ObservationDays: observationDays,
			Source:          status,
		})
	}
	return records
}

// EnrichFromSource aggregates events for the window ending at now and enriches
// items with the result. When the source fails, every item is still returned,
// tagged with the failure status.
func EnrichFromSource(ctx context.Context, items []models.InventoryItem, src EventQuerier, observationDays int, now time.Time) ([]models.VelocityRecord, models.AggregationResult, error) {
	if observationDays <= 0 {
		return nil, models.AggregationResult{}, fmt.Errorf("%w: observation days must be positive, got %d", ErrInvalidWindow, observationDays)
	}

	start := now.AddDate(0, 0, -observationDays)
	result, err := AggregateFrom(ctx, src, start, now)
	if err != nil {
		return nil, result, err
	}
	if !result.OK() {
		return EnrichUnavailable(items, result.Status, observationDays), result, nil
	}

	records, err := EnrichVelocity(items, result.Records, observationDays)
	return records, result, err
}

func velocityFor(item models.InventoryItem, sales models.AggregatedSalesRecord, observationDays int) models.VelocityRecord {
	rec := models.VelocityRecord{
		ProductKey:      item.ProductKey,
		UnitsSold:       sales.TotalUnitsSold,
		OrderCount:      sales.OrderCount,
		DailyVelocity:   float64(sales.TotalUnitsSold) / float64(observationDays),
		Confidence:      ConfidenceForOrders(sales.OrderCount),
		ObservationDays: observationDays,
		Source:          models.SourceOK,
	}
	if sales.TotalUnitsSold > 0 {
		days := depletionDays(item.QuantityOnHand, sales.TotalUnitsSold, observationDays)
		rec.DaysUntilDepletion = &days
	}
	return rec
}

// depletionDays is ceil(onHand / (unitsSold / observationDays)) computed in
// integers so exact ratios do not round up on float error.
func depletionDays(onHand, unitsSold, observationDays int) int {
	if onHand <= 0 {
		return 0
	}
	num := onHand * observationDays
	return (num + unitsSold - 1) / unitsSold
}
