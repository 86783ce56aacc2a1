package engine

import (
	"github.com/shopspring/decimal"
)

// ============================================================================
// BUCKET COMPLETION — Periodic dimensions in canonical order
// ============================================================================
// Turns the sparse groups of a periodic dimension (weekday, hour, month name)
// into exactly one group per domain value, in domain order. Missing values
// get a zero metric vector and an empty view.
// ============================================================================

// CompleteBuckets returns one group per value of dim's canonical domain.
// Every group must be keyed by dim alone. Groups whose value lies outside
// the domain are discarded and logged.
func CompleteBuckets(groups []Group, dim DimensionID, metrics []Metric, opts ...Option) ([]Group, error) {
	cfg := applyOptions(opts)

	d, ok := cfg.catalog.LookupDimension(dim)
	if !ok {
		return nil, invalidRequest("complete", "unknown dimension %q", dim)
	}
	if !d.Periodic() {
		return nil, invalidRequest("complete", "dimension %q has no canonical domain", dim)
	}

	byValue := make(map[string]Group, len(groups))
	for _, g := range groups {
		if len(g.Key.Dimensions) != 1 || g.Key.Dimensions[0] != dim {
			return nil, invalidRequest("complete", "group %q is not keyed by %s alone", g.Label, dim)
		}
		byValue[g.Key.Values[0]] = g
	}

	completed := make([]Group, 0, len(d.Domain))
	for _, v := range d.Domain {
		if g, found := byValue[v]; found {
			completed = append(completed, g)
			delete(byValue, v)
			continue
		}
		completed = append(completed, zeroGroup(dim, v, metrics))
	}

	for v, g := range byValue {
		cfg.logger.Warn().
			Str("dimension", string(dim)).
			Str("value", v).
			Int("records", g.Count).
			Msg("⚠️ Discarded bucket outside canonical domain")
	}

	return completed, nil
}

func zeroGroup(dim DimensionID, value string, metrics []Metric) Group {
	zeros := make(MetricValues, len(metrics))
	for _, m := range metrics {
		zeros[m] = decimal.Zero
	}
	return Group{
		Key:     AggregationKey{Dimensions: []DimensionID{dim}, Values: []string{value}},
		Label:   value,
		Metrics: zeros,
		View:    emptyView,
	}
}
