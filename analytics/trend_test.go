package analytics

import (
	"testing"
	"time"

	"stocksignals/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTrendValuesStrictlyDecreasing(t *testing.T) {
	result := DetectTrendValues([]float64{100, 90, 80})

	assert.Equal(t, models.TrendDecreasing, result.Trend)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 1.0, *result.Confidence)
	assert.Equal(t, 3, result.SnapshotCount)
}

func TestDetectTrendValuesInsufficientData(t *testing.T) {
	for _, values := range [][]float64{nil, {5}, {5, 6}} {
		result := DetectTrendValues(values)
		assert.Equal(t, models.TrendInsufficientData, result.Trend)
		assert.Nil(t, result.Confidence)
	}
}

func TestDetectTrendValuesClassification(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   models.TrendDirection
		conf   *float64
	}{
		{"increasing", []float64{1, 2, 3, 4, 5}, models.TrendIncreasing, floatPtr(1)},
		{"mostly increasing", []float64{1, 2, 3, 2, 4}, models.TrendIncreasing, floatPtr(0.75)},
		{"stable", []float64{4, 4, 4}, models.TrendStable, floatPtr(1)},
		{"mixed", []float64{1, 3, 2, 4}, models.TrendNoClearTrend, nil},
		{"half and half", []float64{1, 2, 1}, models.TrendNoClearTrend, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := DetectTrendValues(tc.values)
			assert.Equal(t, tc.want, result.Trend)
			assert.Equal(t, tc.conf, result.Confidence)
		})
	}
}

func TestDetectTrendValuesCapsWindow(t *testing.T) {
	// Only the last five values count: 9, 8, 7, 6, 5.
	result := DetectTrendValues([]float64{1, 2, 3, 9, 8, 7, 6, 5})
	assert.Equal(t, models.TrendDecreasing, result.Trend)
	assert.Equal(t, 5, result.SnapshotCount)
}

func TestDetectTrendOverHistory(t *testing.T) {
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	// Newest first: stock has been falling 80 <- 90 <- 100.
	history := []models.Snapshot{
		snapshotAt(now, enriched(mugKey, 80, 1)),
		snapshotAt(now.AddDate(0, 0, -7), enriched(mugKey, 90, 1)),
		snapshotAt(now.AddDate(0, 0, -14), enriched(teaKey, 3, 1)),
		snapshotAt(now.AddDate(0, 0, -21), enriched(mugKey, 100, 1)),
	}

	result, err := DetectTrend(history, mugKey, MetricQuantityOnHand)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDecreasing, result.Trend)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 1.0, *result.Confidence)
	assert.Equal(t, 3, result.SnapshotCount)
}

func TestDetectTrendSingleSnapshot(t *testing.T) {
	history := []models.Snapshot{snapshotAt(time.Now(), enriched(mugKey, 10, 1))}

	result, err := DetectTrend(history, mugKey, MetricDailyVelocity)
	require.NoError(t, err)
	assert.Equal(t, models.TrendInsufficientData, result.Trend)
	assert.Nil(t, result.Confidence)
}

func TestDetectTrendSkipsNullValues(t *testing.T) {
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	withMargin := func(cost string) models.EnrichedItem {
		e := enriched(mugKey, 10, 1)
		price := decimal.RequireFromString("10")
		c := decimal.RequireFromString(cost)
		e.Item.UnitPrice = &price
		e.Item.UnitCost = &c
		return e
	}
	history := []models.Snapshot{
		snapshotAt(now, withMargin("7")),
		snapshotAt(now.AddDate(0, 0, -1), enriched(mugKey, 10, 1)),
		snapshotAt(now.AddDate(0, 0, -2), withMargin("6")),
		snapshotAt(now.AddDate(0, 0, -3), withMargin("5")),
	}

	result, err := DetectTrend(history, mugKey, MetricMarginPercent)
	require.NoError(t, err)
	assert.Equal(t, models.TrendDecreasing, result.Trend)
	assert.Equal(t, 3, result.SnapshotCount)
}

func TestDetectTrendUnknownMetric(t *testing.T) {
	_, err := DetectTrend(nil, mugKey, "velocity.nope")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestMetricPathsAreResolvable(t *testing.T) {
	for _, p := range MetricPaths() {
		_, err := ResolveMetric(p)
		assert.NoError(t, err, p)
	}
}

func TestVelocityVariance(t *testing.T) {
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	history := []models.Snapshot{
		snapshotAt(now, enriched(mugKey, 10, 1)),
		snapshotAt(now.AddDate(0, 0, -1), enriched(mugKey, 10, 3)),
		snapshotAt(now.AddDate(0, 0, -2), enriched(mugKey, 10, 1)),
		snapshotAt(now.AddDate(0, 0, -3), enriched(mugKey, 10, 3)),
	}

	cv, points := VelocityVariance(history, mugKey)
	require.NotNil(t, cv)
	assert.Equal(t, 4, points)
	// mean 2, population stddev 1.
	assert.InDelta(t, 50.0, *cv, 1e-9)

	short, points := VelocityVariance(history[:2], mugKey)
	assert.Nil(t, short)
	assert.Equal(t, 2, points)
}
