package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stocksignals/models"
)

// EventQuerier reads order events in [start, end) from an external source.
// An empty slice with a nil error means no sales; an unreachable source must
// return an error wrapping ErrDataUnavailable.
type EventQuerier interface {
	QueryEvents(ctx context.Context, start, end time.Time) ([]models.OrderEvent, error)
}

// EventQueryFunc adapts a function to EventQuerier.
type EventQueryFunc func(ctx context.Context, start, end time.Time) ([]models.OrderEvent, error)

func (f EventQueryFunc) QueryEvents(ctx context.Context, start, end time.Time) ([]models.OrderEvent, error) {
	return f(ctx, start, end)
}

// Aggregate reduces order events into one sales record per product over
// [start, end). Events missing a SKU or unit, or with a non-positive quantity,
// are dropped. Events sharing a non-empty EventID are counted once. The output
// is sorted by product key.
func Aggregate(events []models.OrderEvent, start, end time.Time) ([]models.AggregatedSalesRecord, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	byKey := make(map[models.ProductKey]*models.AggregatedSalesRecord)
	seen := make(map[string]struct{})

	for _, ev := range events {
		if !ev.ProductKey.Valid() || ev.Quantity <= 0 {
			continue
		}
		if ev.OccurredAt.Before(start) || !ev.OccurredAt.Before(end) {
			continue
		}
		if ev.EventID != "" {
			if _, dup := seen[ev.EventID]; dup {
				continue
			}
			seen[ev.EventID] = struct{}{}
		}

		rec, ok := byKey[ev.ProductKey]
		if !ok {
			rec = &models.AggregatedSalesRecord{
				ProductKey:   ev.ProductKey,
				FirstOrderAt: ev.OccurredAt,
				LastOrderAt:  ev.OccurredAt,
			}
			byKey[ev.ProductKey] = rec
		}
		rec.TotalUnitsSold += ev.Quantity
		rec.OrderCount++
		if ev.OccurredAt.Before(rec.FirstOrderAt) {
			rec.FirstOrderAt = ev.OccurredAt
		}
		if ev.OccurredAt.After(rec.LastOrderAt) {
			rec.LastOrderAt = ev.OccurredAt
		}
	}

	records := make([]models.AggregatedSalesRecord, 0, len(byKey))
	for _, rec := range byKey {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return lessKey(records[i].ProductKey, records[j].ProductKey)
	})
	return records, nil
}

// AggregateFrom queries src and aggregates the result. Source failures are
// reported through the result status, never as an empty aggregation. The
// returned error is non-nil only for an invalid window.
func AggregateFrom(ctx context.Context, src EventQuerier, start, end time.Time) (models.AggregationResult, error) {
	if !end.After(start) {
		return models.AggregationResult{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	events, err := src.QueryEvents(ctx, start, end)
	if err != nil {
		return models.AggregationResult{
			Status: StatusFromError(err),
			Error:  err.Error(),
		}, nil
	}

	records, err := Aggregate(events, start, end)
	if err != nil {
		return models.AggregationResult{}, err
	}
	return models.AggregationResult{Status: models.SourceOK, Records: records}, nil
}

func lessKey(a, b models.ProductKey) bool {
	if a.SKU != b.SKU {
		return a.SKU < b.SKU
	}
	return a.Unit < b.Unit
}
