package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stocksignals/analytics"
	"stocksignals/models"
	"stocksignals/store"
)

// ErrSalesUnavailable is returned by CaptureSnapshot when velocity could not
// be computed from real sales data.
var ErrSalesUnavailable = errors.New("sales data unavailable")

// DefaultHistoryLimit is how many prior snapshots feed one analysis.
const DefaultHistoryLimit = 10

type Options struct {
	ObservationDays int
	SourceTimeout   time.Duration
	HistoryLimit    int
}

// Service runs the inventory signal pipeline for one shop at a time.
type Service struct {
	events    store.EventSource
	inventory store.InventoryStore
	snapshots store.SnapshotStore
	opts      Options
}

func NewService(events store.EventSource, inventory store.InventoryStore, snapshots store.SnapshotStore, opts Options) *Service {
	if opts.ObservationDays <= 0 {
		opts.ObservationDays = analytics.DefaultObservationDays
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	return &Service{events: events, inventory: inventory, snapshots: snapshots, opts: opts}
}

func (s *Service) ObservationDays() int {
	return s.opts.ObservationDays
}

func (s *Service) sourceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.SourceTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.SourceTimeout)
}

// Velocity enriches the current inventory of shopID with sales velocity over
// the trailing observation window ending at now.
func (s *Service) Velocity(ctx context.Context, shopID string, now time.Time) ([]models.InventoryItem, []models.VelocityRecord, models.AggregationResult, error) {
	invCtx, cancel := s.sourceContext(ctx)
	items, err := s.inventory.CurrentInventory(invCtx, shopID)
	cancel()
	if err != nil {
		return nil, nil, models.AggregationResult{}, fmt.Errorf("load inventory for shop %s: %w", shopID, err)
	}

	salesCtx, cancel := s.sourceContext(ctx)
	defer cancel()
	velocity, result, err := analytics.EnrichFromSource(salesCtx, items, store.ForShop(s.events, shopID), s.opts.ObservationDays, now)
	if err != nil {
		return nil, nil, result, fmt.Errorf("enrich velocity for shop %s: %w", shopID, err)
	}
	if !result.OK() {
		log.Printf("[INSIGHTS] sales source %s for shop %s: %s", result.Status, shopID, result.Error)
	}
	return items, velocity, result, nil
}

// Analyze runs the full pipeline: velocity, deltas against the latest
// snapshot, signals, proofs and actions. Missing history degrades the report
// but does not fail it. Missing inventory does.
func (s *Service) Analyze(ctx context.Context, shopID string, now time.Time) (models.InsightsReport, error) {
	items, velocity, sales, err := s.Velocity(ctx, shopID, now)
	if err != nil {
		return models.InsightsReport{}, err
	}
	current := models.NewSnapshot(shopID, now, s.opts.ObservationDays, pair(items, velocity))

	report := models.InsightsReport{
		ShopID:          shopID,
		GeneratedAt:     now,
		ObservationDays: s.opts.ObservationDays,
		SalesStatus:     sales.Status,
		SalesError:      sales.Error,
		HistoryStatus:   models.SourceOK,
		Velocity:        velocity,
	}

	histCtx, cancel := s.sourceContext(ctx)
	history, err := s.snapshots.History(histCtx, shopID, s.opts.HistoryLimit)
	cancel()
	if err != nil {
		log.Printf("[INSIGHTS] snapshot history unavailable for shop %s: %v", shopID, err)
		report.HistoryStatus = analytics.StatusFromError(err)
		history = nil
	}

	var previous *models.Snapshot
	if len(history) > 0 {
		previous = &history[0]
		report.HistoryFromCache = previous.FromCache
	}

	report.Deltas = analytics.ComputeDeltas(current, previous)
	report.Signals = analytics.DetectAllSignals(current.Items, analytics.BuildHistory(current, history))
	report.Proofs = analytics.BuildProofs(velocity, report.Deltas)
	report.Actions = analytics.FrameActions(report.Proofs)

	log.Printf("[INSIGHTS] shop %s: %d items, %d signals, %d actions", shopID, len(items), len(report.Signals), len(report.Actions))
	return report, nil
}

// CaptureSnapshot records the current enriched inventory. It refuses to store
// a snapshot whose velocity is not backed by sales data.
func (s *Service) CaptureSnapshot(ctx context.Context, shopID string, now time.Time) (models.Snapshot, error) {
	items, velocity, sales, err := s.Velocity(ctx, shopID, now)
	if err != nil {
		return models.Snapshot{}, err
	}
	if !sales.OK() {
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrSalesUnavailable, sales.Error)
	}

	snap := models.NewSnapshot(shopID, now, s.opts.ObservationDays, pair(items, velocity))
	writeCtx, cancel := s.sourceContext(ctx)
	defer cancel()
	if err := s.snapshots.Append(writeCtx, snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("append snapshot for shop %s: %w", shopID, err)
	}
	log.Printf("[SNAPSHOT] captured %s for shop %s with %d items", snap.ID, shopID, len(snap.Items))
	return snap, nil
}

// Trend classifies one product metric across the stored snapshot history.
func (s *Service) Trend(ctx context.Context, shopID string, key models.ProductKey, metric string) (models.TrendResult, error) {
	if _, err := analytics.ResolveMetric(metric); err != nil {
		return models.TrendResult{}, err
	}

	histCtx, cancel := s.sourceContext(ctx)
	defer cancel()
	history, err := s.snapshots.History(histCtx, shopID, s.opts.HistoryLimit)
	if err != nil {
		return models.TrendResult{}, fmt.Errorf("load snapshot history for shop %s: %w", shopID, err)
	}
	return analytics.DetectTrend(history, key, metric)
}

func pair(items []models.InventoryItem, velocity []models.VelocityRecord) []models.EnrichedItem {
	out := make([]models.EnrichedItem, 0, len(items))
	for i, item := range items {
		out = append(out, models.EnrichedItem{Item: item, Velocity: velocity[i]})
	}
	return out
}
