package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stocksignals/analytics"
	"stocksignals/explainer"
	"stocksignals/models"
	"stocksignals/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mugKey = models.ProductKey{SKU: "MUG-01", Unit: "each"}

type fakeService struct {
	report     models.InsightsReport
	analyzeErr error
	trend      models.TrendResult
	trendErr   error
	captureErr error
}

func (f *fakeService) Analyze(ctx context.Context, shopID string, now time.Time) (models.InsightsReport, error) {
	r := f.report
	r.ShopID = shopID
	return r, f.analyzeErr
}

func (f *fakeService) Velocity(ctx context.Context, shopID string, now time.Time) ([]models.InventoryItem, []models.VelocityRecord, models.AggregationResult, error) {
	return nil, f.report.Velocity, models.AggregationResult{Status: f.report.SalesStatus}, f.analyzeErr
}

func (f *fakeService) Trend(ctx context.Context, shopID string, key models.ProductKey, metric string) (models.TrendResult, error) {
	if _, err := analytics.ResolveMetric(metric); err != nil {
		return models.TrendResult{}, err
	}
	return f.trend, f.trendErr
}

func (f *fakeService) CaptureSnapshot(ctx context.Context, shopID string, now time.Time) (models.Snapshot, error) {
	if f.captureErr != nil {
		return models.Snapshot{}, f.captureErr
	}
	return models.NewSnapshot(shopID, now, 30, []models.EnrichedItem{{}}), nil
}

type ownedShops map[string]string

func (o ownedShops) ShopBelongsTo(ctx context.Context, shopID, merchantID string) (bool, error) {
	return o[shopID] == merchantID, nil
}

type explainFunc func(ctx context.Context, actions []models.Action) (*explainer.Explanation, error)

func (f explainFunc) Explain(ctx context.Context, actions []models.Action) (*explainer.Explanation, error) {
	return f(ctx, actions)
}

func sampleReport() models.InsightsReport {
	days := 4
	return models.InsightsReport{
		SalesStatus:   models.SourceOK,
		HistoryStatus: models.SourceOK,
		Velocity: []models.VelocityRecord{{
			ProductKey:         mugKey,
			DailyVelocity:      7.0 / 3.0,
			DaysUntilDepletion: &days,
			Confidence:         models.ConfidenceHigh,
			Source:             models.SourceOK,
		}},
		Signals: []models.Signal{
			{Type: models.SignalUrgentReorder, Severity: models.SeverityHigh, Confidence: models.ConfidenceHigh, ProductKey: mugKey},
			{Type: models.SignalVolatileDemand, Severity: models.SeverityLow, Confidence: models.ConfidenceLow, ProductKey: mugKey},
		},
		Actions: []models.Action{{
			Type:       models.ActionReorder,
			Priority:   models.SeverityHigh,
			ProductKey: mugKey,
			Reason:     "about 4 days of stock left",
			ClaimType:  models.ClaimStockoutRisk,
		}},
	}
}

func newTestApp(svc InsightsService, exp explainer.Explainer) *fiber.App {
	h := NewInsightsHandler(svc, ownedShops{"shop-1": "merchant-1"}, exp, 50*time.Millisecond)
	h.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", "merchant-1")
		return c.Next()
	})
	app.Get("/shops/:shopId/insights", h.RequireShopOwner, h.HandleGetInsights)
	app.Get("/shops/:shopId/velocity", h.RequireShopOwner, h.HandleGetVelocity)
	app.Get("/shops/:shopId/trend", h.RequireShopOwner, h.HandleGetTrend)
	app.Post("/shops/:shopId/snapshots", h.RequireShopOwner, h.HandleCaptureSnapshot)
	app.Post("/shops/:shopId/actions/explain", h.RequireShopOwner, h.HandleExplainActions)
	return app
}

func do(t *testing.T, app *fiber.App, method, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data in %v", body)
	return data
}

func TestGetInsights(t *testing.T) {
	app := newTestApp(&fakeService{report: sampleReport()}, nil)

	status, body := do(t, app, http.MethodGet, "/shops/shop-1/insights")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	data := dataOf(t, body)
	assert.Equal(t, "shop-1", data["shop_id"])
	signals := data["signals"].([]any)
	assert.Len(t, signals, 2)
	first := signals[0].(map[string]any)
	assert.Equal(t, "high", first["severity"])
	assert.Equal(t, "high", first["confidence"])

	velocity := data["velocity"].([]any)[0].(map[string]any)
	assert.Equal(t, 2.33, velocity["daily_velocity"])
}

func TestGetInsightsRoundsEvidence(t *testing.T) {
	velocity := 7.0 / 3.0
	change := 100.0 / 3.0
	variance := 200.0 / 3.0
	report := sampleReport()
	report.Signals = []models.Signal{{
		Type:       models.SignalAcceleratingSales,
		Severity:   models.SeverityMedium,
		Confidence: models.ConfidenceHigh,
		ProductKey: mugKey,
		Evidence: models.SignalEvidence{
			DailyVelocity:         &velocity,
			VelocityChangePercent: &change,
			VelocityVariance:      &variance,
		},
	}}
	report.Proofs = []models.ProofObject{{
		ClaimType:  models.ClaimVelocityGrowth,
		ProductKey: mugKey,
		Confidence: models.ConfidenceHigh,
		Evidence:   map[string]float64{"daily_velocity": velocity, "velocity_change_percent": change},
	}}
	app := newTestApp(&fakeService{report: report}, nil)

	status, body := do(t, app, http.MethodGet, "/shops/shop-1/insights")
	require.Equal(t, http.StatusOK, status)

	data := dataOf(t, body)
	evidence := data["signals"].([]any)[0].(map[string]any)["evidence"].(map[string]any)
	assert.Equal(t, 2.33, evidence["daily_velocity"])
	assert.Equal(t, 33.33, evidence["velocity_change_percent"])
	assert.Equal(t, 66.67, evidence["velocity_variance"])

	proof := data["proofs"].([]any)[0].(map[string]any)["evidence"].(map[string]any)
	assert.Equal(t, 2.33, proof["daily_velocity"])
	assert.Equal(t, 33.33, proof["velocity_change_percent"])

	assert.Equal(t, velocity, *report.Signals[0].Evidence.DailyVelocity)
	assert.Equal(t, velocity, report.Proofs[0].Evidence["daily_velocity"])
}

func TestGetInsightsFilters(t *testing.T) {
	app := newTestApp(&fakeService{report: sampleReport()}, nil)

	cases := []struct {
		query string
		want  int
	}{
		{"?severity=high", 1},
		{"?severity=critical,low", 1},
		{"?type=volatile_demand", 1},
		{"?minConfidence=medium", 1},
		{"?minConfidence=low&severity=high", 1},
		{"?severity=critical", 0},
	}
	for _, c := range cases {
		status, body := do(t, app, http.MethodGet, "/shops/shop-1/insights"+c.query)
		require.Equal(t, http.StatusOK, status, c.query)
		signals, _ := dataOf(t, body)["signals"].([]any)
		assert.Len(t, signals, c.want, c.query)
	}

	status, body := do(t, app, http.MethodGet, "/shops/shop-1/insights?severity=urgent")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, _ = do(t, app, http.MethodGet, "/shops/shop-1/insights?minConfidence=certain")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestShopOwnership(t *testing.T) {
	app := newTestApp(&fakeService{report: sampleReport()}, nil)
	status, body := do(t, app, http.MethodGet, "/shops/shop-2/insights")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Shop not found", body["message"])
}

func TestGetInsightsInventoryUnavailable(t *testing.T) {
	svc := &fakeService{analyzeErr: fmt.Errorf("load inventory: %w", analytics.ErrDataUnavailable)}
	status, _ := do(t, newTestApp(svc, nil), http.MethodGet, "/shops/shop-1/insights")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	svc.analyzeErr = errors.New("bad column")
	status, _ = do(t, newTestApp(svc, nil), http.MethodGet, "/shops/shop-1/insights")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestGetVelocity(t *testing.T) {
	status, body := do(t, newTestApp(&fakeService{report: sampleReport()}, nil), http.MethodGet, "/shops/shop-1/velocity")
	require.Equal(t, http.StatusOK, status)
	data := dataOf(t, body)
	assert.Equal(t, "ok", data["sales_status"])
	assert.Len(t, data["velocity"], 1)
}

func TestGetTrend(t *testing.T) {
	conf := 1.0
	svc := &fakeService{trend: models.TrendResult{Trend: models.TrendDecreasing, Confidence: &conf, SnapshotCount: 3}}
	app := newTestApp(svc, nil)

	status, body := do(t, app, http.MethodGet, "/shops/shop-1/trend?sku=MUG-01&unit=each")
	require.Equal(t, http.StatusOK, status)
	data := dataOf(t, body)
	assert.Equal(t, analytics.MetricQuantityOnHand, data["metric"])
	trend := data["trend"].(map[string]any)
	assert.Equal(t, "decreasing", trend["trend"])

	status, _ = do(t, app, http.MethodGet, "/shops/shop-1/trend?sku=MUG-01")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, http.MethodGet, "/shops/shop-1/trend?sku=MUG-01&unit=each&metric=nope")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["metrics"])
}

func TestCaptureSnapshot(t *testing.T) {
	status, body := do(t, newTestApp(&fakeService{}, nil), http.MethodPost, "/shops/shop-1/snapshots")
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 1, dataOf(t, body)["item_count"])

	svc := &fakeService{captureErr: fmt.Errorf("%w: dial tcp", pipeline.ErrSalesUnavailable)}
	status, _ = do(t, newTestApp(svc, nil), http.MethodPost, "/shops/shop-1/snapshots")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestExplainActions(t *testing.T) {
	svc := &fakeService{report: sampleReport()}

	t.Run("no explainer", func(t *testing.T) {
		status, body := do(t, newTestApp(svc, nil), http.MethodPost, "/shops/shop-1/actions/explain")
		require.Equal(t, http.StatusOK, status)
		data := dataOf(t, body)
		assert.Equal(t, "unavailable", data["explanation_status"])
		assert.Len(t, data["actions"], 1)
	})

	t.Run("explained", func(t *testing.T) {
		exp := explainFunc(func(ctx context.Context, actions []models.Action) (*explainer.Explanation, error) {
			return &explainer.Explanation{Summary: "Reorder mugs this week."}, nil
		})
		status, body := do(t, newTestApp(svc, exp), http.MethodPost, "/shops/shop-1/actions/explain")
		require.Equal(t, http.StatusOK, status)
		data := dataOf(t, body)
		assert.Equal(t, "ok", data["explanation_status"])
		assert.Equal(t, "Reorder mugs this week.", data["explanation"].(map[string]any)["summary"])
	})

	t.Run("timeout keeps actions", func(t *testing.T) {
		slow := explainFunc(func(ctx context.Context, actions []models.Action) (*explainer.Explanation, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		status, body := do(t, newTestApp(svc, slow), http.MethodPost, "/shops/shop-1/actions/explain")
		require.Equal(t, http.StatusOK, status)
		data := dataOf(t, body)
		assert.Equal(t, "unavailable", data["explanation_status"])
		assert.Len(t, data["actions"], 1)
		assert.Nil(t, data["explanation"])
	})
}
