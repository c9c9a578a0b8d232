package handlers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"stocksignals/analytics"
	"stocksignals/explainer"
	"stocksignals/middleware"
	"stocksignals/models"
	"stocksignals/pipeline"
	"stocksignals/utils"

	"github.com/gofiber/fiber/v2"
)

// InsightsService is the pipeline as seen by the HTTP layer.
type InsightsService interface {
	Analyze(ctx context.Context, shopID string, now time.Time) (models.InsightsReport, error)
	Velocity(ctx context.Context, shopID string, now time.Time) ([]models.InventoryItem, []models.VelocityRecord, models.AggregationResult, error)
	Trend(ctx context.Context, shopID string, key models.ProductKey, metric string) (models.TrendResult, error)
	CaptureSnapshot(ctx context.Context, shopID string, now time.Time) (models.Snapshot, error)
}

// ShopAuthorizer checks shop ownership.
type ShopAuthorizer interface {
	ShopBelongsTo(ctx context.Context, shopID, merchantID string) (bool, error)
}

type InsightsHandler struct {
	service        InsightsService
	shops          ShopAuthorizer
	explainer      explainer.Explainer
	explainTimeout time.Duration
	now            func() time.Time
}

// NewInsightsHandler wires the insights endpoints. exp may be nil, in which
// case explanations are always reported unavailable.
func NewInsightsHandler(service InsightsService, shops ShopAuthorizer, exp explainer.Explainer, explainTimeout time.Duration) *InsightsHandler {
	return &InsightsHandler{
		service:        service,
		shops:          shops,
		explainer:      exp,
		explainTimeout: explainTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// RequireShopOwner rejects requests for shops the merchant does not own.
func (h *InsightsHandler) RequireShopOwner(c *fiber.Ctx) error {
	merchantID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}
	shopID := c.Params("shopId")
	if shopID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "shopId is required"})
	}

	owned, err := h.shops.ShopBelongsTo(c.UserContext(), shopID, merchantID)
	if err != nil {
		log.Printf("[INSIGHTS] shop ownership check failed for shop %s: %v", shopID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{"success": false, "message": "Failed to verify shop access"})
	}
	if !owned {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Shop not found"})
	}
	return c.Next()
}

// HandleGetInsights returns the full report for a shop.
// GET /api/v1/merchant/shops/:shopId/insights?severity=&type=&minConfidence=
func (h *InsightsHandler) HandleGetInsights(c *fiber.Ctx) error {
	filter, err := parseSignalFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	shopID := c.Params("shopId")
	report, err := h.service.Analyze(c.UserContext(), shopID, h.now())
	if err != nil {
		log.Printf("[INSIGHTS] analysis failed for shop %s: %v", shopID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{"success": false, "message": "Failed to analyze inventory"})
	}

	report.Signals = filter.apply(report.Signals)
	report.Velocity = presentVelocity(report.Velocity)
	report.Deltas = presentDeltas(report.Deltas)
	report.Signals = presentSignals(report.Signals)
	report.Proofs = presentProofs(report.Proofs)

	return c.JSON(fiber.Map{"success": true, "data": report})
}

// HandleGetVelocity returns per-item velocity without running the signal rules.
// GET /api/v1/merchant/shops/:shopId/velocity
func (h *InsightsHandler) HandleGetVelocity(c *fiber.Ctx) error {
	shopID := c.Params("shopId")
	_, velocity, sales, err := h.service.Velocity(c.UserContext(), shopID, h.now())
	if err != nil {
		log.Printf("[INSIGHTS] velocity failed for shop %s: %v", shopID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{"success": false, "message": "Failed to compute velocity"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"sales_status": sales.Status,
			"sales_error":  sales.Error,
			"velocity":     presentVelocity(velocity),
		},
	})
}

// HandleGetTrend classifies one product metric across stored snapshots.
// GET /api/v1/merchant/shops/:shopId/trend?sku=&unit=&metric=
func (h *InsightsHandler) HandleGetTrend(c *fiber.Ctx) error {
	key := models.ProductKey{SKU: c.Query("sku"), Unit: c.Query("unit")}
	if !key.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "sku and unit are required"})
	}
	metric := c.Query("metric", analytics.MetricQuantityOnHand)

	trend, err := h.service.Trend(c.UserContext(), c.Params("shopId"), key, metric)
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownMetric) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
				"metrics": analytics.MetricPaths(),
			})
		}
		log.Printf("[INSIGHTS] trend failed for %s: %v", key, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{"success": false, "message": "Failed to load snapshot history"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"product_key": key,
			"metric":      metric,
			"trend":       trend,
		},
	})
}

// HandleCaptureSnapshot stores the current enriched inventory.
// POST /api/v1/merchant/shops/:shopId/snapshots
func (h *InsightsHandler) HandleCaptureSnapshot(c *fiber.Ctx) error {
	shopID := c.Params("shopId")
	snap, err := h.service.CaptureSnapshot(c.UserContext(), shopID, h.now())
	if err != nil {
		log.Printf("[SNAPSHOT] capture failed for shop %s: %v", shopID, err)
		if errors.Is(err, pipeline.ErrSalesUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "Sales data is unavailable; snapshot not captured"})
		}
		return c.Status(statusForError(err)).JSON(fiber.Map{"success": false, "message": "Failed to capture snapshot"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":               snap.ID,
			"captured_at":      snap.CapturedAt,
			"observation_days": snap.ObservationDays,
			"item_count":       len(snap.Items),
		},
	})
}

// HandleExplainActions returns the recommended actions with a prose
// explanation when the explainer answers in time.
// POST /api/v1/merchant/shops/:shopId/actions/explain
func (h *InsightsHandler) HandleExplainActions(c *fiber.Ctx) error {
	shopID := c.Params("shopId")
	report, err := h.service.Analyze(c.UserContext(), shopID, h.now())
	if err != nil {
		log.Printf("[INSIGHTS] analysis failed for shop %s: %v", shopID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{"success": false, "message": "Failed to analyze inventory"})
	}

	data := fiber.Map{
		"actions":            report.Actions,
		"explanation_status": "unavailable",
	}
	if h.explainer != nil {
		exp, err := explainer.WithDeadline(c.UserContext(), h.explainer, report.Actions, h.explainTimeout)
		if err != nil {
			log.Printf("[EXPLAIN] explanation unavailable for shop %s: %v", shopID, err)
		} else {
			data["explanation"] = exp
			data["explanation_status"] = "ok"
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}

type signalFilter struct {
	severities    []models.Severity
	types         []models.SignalType
	minConfidence *models.Confidence
}

func parseSignalFilter(c *fiber.Ctx) (signalFilter, error) {
	var f signalFilter
	for _, s := range splitList(c.Query("severity")) {
		sev, err := models.ParseSeverity(strings.ToLower(s))
		if err != nil {
			return f, err
		}
		f.severities = append(f.severities, sev)
	}
	for _, t := range splitList(c.Query("type")) {
		f.types = append(f.types, models.SignalType(strings.ToUpper(t)))
	}
	if raw := c.Query("minConfidence"); raw != "" {
		conf, err := models.ParseConfidence(strings.ToLower(raw))
		if err != nil {
			return f, err
		}
		f.minConfidence = &conf
	}
	return f, nil
}

func (f signalFilter) apply(signals []models.Signal) []models.Signal {
	if len(f.severities) > 0 {
		signals = analytics.FilterBySeverity(signals, f.severities...)
	}
	if len(f.types) > 0 {
		signals = analytics.FilterByType(signals, f.types...)
	}
	if f.minConfidence != nil {
		signals = analytics.FilterByMinConfidence(signals, *f.minConfidence)
	}
	return signals
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// presentVelocity rounds velocity for display. Stored snapshots keep full
// precision.
func presentVelocity(records []models.VelocityRecord) []models.VelocityRecord {
	out := make([]models.VelocityRecord, len(records))
	for i, r := range records {
		r.DailyVelocity = utils.Round(r.DailyVelocity, 2)
		out[i] = r
	}
	return out
}

func presentDeltas(deltas []models.DeltaRecord) []models.DeltaRecord {
	out := make([]models.DeltaRecord, len(deltas))
	for i, d := range deltas {
		d.CurrentVelocity = utils.Round(d.CurrentVelocity, 2)
		d.PreviousVelocity = utils.RoundPtr(d.PreviousVelocity, 2)
		d.VelocityDelta = utils.RoundPtr(d.VelocityDelta, 2)
		d.VelocityDeltaPercent = utils.RoundPtr(d.VelocityDeltaPercent, 2)
		d.QuantityDeltaPercent = utils.RoundPtr(d.QuantityDeltaPercent, 2)
		out[i] = d
	}
	return out
}

func presentSignals(signals []models.Signal) []models.Signal {
	out := make([]models.Signal, len(signals))
	for i, s := range signals {
		s.Evidence.DailyVelocity = utils.RoundPtr(s.Evidence.DailyVelocity, 2)
		s.Evidence.VelocityChangePercent = utils.RoundPtr(s.Evidence.VelocityChangePercent, 2)
		s.Evidence.VelocityVariance = utils.RoundPtr(s.Evidence.VelocityVariance, 2)
		if s.Evidence.MarginTrend != nil {
			trend := *s.Evidence.MarginTrend
			trend.Confidence = utils.RoundPtr(trend.Confidence, 2)
			s.Evidence.MarginTrend = &trend
		}
		out[i] = s
	}
	return out
}

// presentProofs rounds proof evidence into fresh maps; the report's maps are
// left untouched.
func presentProofs(proofs []models.ProofObject) []models.ProofObject {
	out := make([]models.ProofObject, len(proofs))
	for i, p := range proofs {
		if p.Evidence != nil {
			evidence := make(map[string]float64, len(p.Evidence))
			for k, v := range p.Evidence {
				evidence[k] = utils.Round(v, 2)
			}
			p.Evidence = evidence
		}
		out[i] = p
	}
	return out
}

func statusForError(err error) int {
	if analytics.StatusFromError(err) == models.SourceUnavailable {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
