package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// RETAILSCOPE ENGINE TYPES
// ============================================================================
// Intermediate results shared by the aggregator, ranking, insight and
// bucket stages. Render-ready output types live next to their builders.
// ============================================================================

// ============================================================================
// AGGREGATION KEY
// ============================================================================

// AggregationKey identifies one group: one value per grouping dimension.
type AggregationKey struct {
	Dimensions []DimensionID `json:"dimensions"`
	Values     []string      `json:"values"`
}

// String joins the key values with "|".
func (k AggregationKey) String() string {
	return strings.Join(k.Values, "|")
}

// Value returns the key value for dimension, if the key has one.
func (k AggregationKey) Value(dimension DimensionID) (string, bool) {
	for i, d := range k.Dimensions {
		if d == dimension {
			return k.Values[i], true
		}
	}
	return "", false
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// MetricValues holds the computed metrics of a group.
type MetricValues map[Metric]decimal.Decimal

// Get returns the value of metric and whether it was computed.
func (m MetricValues) Get(metric Metric) (decimal.Decimal, bool) {
	v, ok := m[metric]
	return v, ok
}

// Group represents one aggregated key.
// Builders convert these into tables and highlights.
type Group struct {
	Key     AggregationKey `json:"key"`
	Label   string         `json:"label"`
	Count   int            `json:"count"`
	Metrics MetricValues   `json:"metrics"`
	View    RecordView     `json:"-"` // Sub-view for records in this group (zero-copy)
}

// value returns the metric, or zero when the group lacks it.
func (g Group) value(metric Metric) decimal.Decimal {
	if v, ok := g.Metrics[metric]; ok {
		return v
	}
	return decimal.Zero
}

// hasMetric reports whether any group carries metric.
func hasMetric(groups []Group, metric Metric) bool {
	for _, g := range groups {
		if _, ok := g.Metrics[metric]; ok {
			return true
		}
	}
	return false
}
