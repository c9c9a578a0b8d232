package analytics

import (
	"fmt"
	"math"
	"sort"

	"stocksignals/models"
)

// MetricFunc extracts a numeric metric from a snapshot entry. It returns nil
// when the value is absent.
type MetricFunc func(models.EnrichedItem) *float64

// Metric paths accepted by DetectTrend.
const (
	MetricQuantityOnHand     = "inventory.quantity_on_hand"
	MetricDailyVelocity      = "velocity.daily_velocity"
	MetricUnitsSold          = "velocity.units_sold"
	MetricDaysUntilDepletion = "velocity.days_until_depletion"
	MetricMarginPercent      = "item.margin_percent"
)

var metricResolvers = map[string]MetricFunc{
	MetricQuantityOnHand: func(e models.EnrichedItem) *float64 {
		v := float64(e.Item.QuantityOnHand)
		return &v
	},
	MetricDailyVelocity: func(e models.EnrichedItem) *float64 {
		if !e.Velocity.HasSalesData() {
			return nil
		}
		v := e.Velocity.DailyVelocity
		return &v
	},
	MetricUnitsSold: func(e models.EnrichedItem) *float64 {
		if !e.Velocity.HasSalesData() {
			return nil
		}
		v := float64(e.Velocity.UnitsSold)
		return &v
	},
	MetricDaysUntilDepletion: func(e models.EnrichedItem) *float64 {
		if e.Velocity.DaysUntilDepletion == nil {
			return nil
		}
		v := float64(*e.Velocity.DaysUntilDepletion)
		return &v
	},
	MetricMarginPercent: func(e models.EnrichedItem) *float64 {
		return e.Item.MarginPercent()
	},
}

// MetricPaths lists the supported metric paths in sorted order.
func MetricPaths() []string {
	paths := make([]string, 0, len(metricResolvers))
	for p := range metricResolvers {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ResolveMetric returns the extractor for a dotted metric path.
func ResolveMetric(path string) (MetricFunc, error) {
	fn, ok := metricResolvers[path]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, path)
	}
	return fn, nil
}

// DetectTrend classifies the trajectory of one product's metric across a
// snapshot history ordered newest first. Up to TrendWindowCap of the most
// recent non-null values are used.
func DetectTrend(history []models.Snapshot, key models.ProductKey, path string) (models.TrendResult, error) {
	fn, err := ResolveMetric(path)
	if err != nil {
		return models.TrendResult{}, err
	}
	return detectTrend(indexHistory(history), key, fn), nil
}

// indexHistory indexes each snapshot by product key, keeping the order.
func indexHistory(history []models.Snapshot) []map[models.ProductKey]models.EnrichedItem {
	indexed := make([]map[models.ProductKey]models.EnrichedItem, len(history))
	for i, snap := range history {
		indexed[i] = snap.Index()
	}
	return indexed
}

func detectTrend(history []map[models.ProductKey]models.EnrichedItem, key models.ProductKey, fn MetricFunc) models.TrendResult {
	recent := make([]float64, 0, TrendWindowCap)
	for _, snap := range history {
		if len(recent) == TrendWindowCap {
			break
		}
		item, ok := snap[key]
		if !ok {
			continue
		}
		if v := fn(item); v != nil {
			recent = append(recent, *v)
		}
	}

	// DetectTrendValues wants oldest first.
	chronological := make([]float64, len(recent))
	for i, v := range recent {
		chronological[len(recent)-1-i] = v
	}
	return DetectTrendValues(chronological)
}

// DetectTrendValues classifies a series ordered oldest first. At most the last
// TrendWindowCap values are considered. A direction wins when at least
// TrendConsistencyThreshold of the consecutive changes agree with it.
func DetectTrendValues(values []float64) models.TrendResult {
	if len(values) > TrendWindowCap {
		values = values[len(values)-TrendWindowCap:]
	}
	if len(values) < MinTrendSnapshots {
		return models.TrendResult{
			Trend:         models.TrendInsufficientData,
			SnapshotCount: len(values),
		}
	}

	var up, down, flat int
	for i := 1; i < len(values); i++ {
		switch change := values[i] - values[i-1]; {
		case change > 0:
			up++
		case change < 0:
			down++
		default:
			flat++
		}
	}
	total := float64(len(values) - 1)

	result := models.TrendResult{Trend: models.TrendNoClearTrend, SnapshotCount: len(values)}
	for _, candidate := range []struct {
		trend models.TrendDirection
		count int
	}{
		{models.TrendIncreasing, up},
		{models.TrendDecreasing, down},
		{models.TrendStable, flat},
	} {
		if frac := float64(candidate.count) / total; frac >= TrendConsistencyThreshold {
			conf := round2(frac)
			result.Trend = candidate.trend
			result.Confidence = &conf
			return result
		}
	}
	return result
}

// VelocityVariance returns the coefficient of variation, in percent, of one
// product's daily velocity across up to TrendWindowCap recent snapshots, and
// the number of points used. It returns nil when fewer than MinTrendSnapshots
// points exist or the mean is zero.
func VelocityVariance(history []models.Snapshot, key models.ProductKey) (*float64, int) {
	return velocityVariance(indexHistory(history), key)
}

func velocityVariance(history []map[models.ProductKey]models.EnrichedItem, key models.ProductKey) (*float64, int) {
	values := make([]float64, 0, TrendWindowCap)
	for _, snap := range history {
		if len(values) == TrendWindowCap {
			break
		}
		item, ok := snap[key]
		if !ok || !item.Velocity.HasSalesData() {
			continue
		}
		values = append(values, item.Velocity.DailyVelocity)
	}
	if len(values) < MinTrendSnapshots {
		return nil, len(values)
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return nil, len(values)
	}

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	cv := math.Sqrt(sq/float64(len(values))) / mean * 100
	return &cv, len(values)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
