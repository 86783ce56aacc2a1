package engine

import (
	"github.com/shopspring/decimal"
)

// Extreme selects the maximum or minimum of a metric.
type Extreme string

const (
	Max Extreme = "max"
	Min Extreme = "min"
)

// Insight is a single headline fact: which key holds the extreme value.
type Insight struct {
	Kind           Extreme         `json:"kind"`
	Dimensions     []DimensionID   `json:"dimensions"`
	DimensionValue string          `json:"dimensionValue"`
	Metric         Metric          `json:"metric"`
	MetricName     string          `json:"metricName"`
	MetricValue    decimal.Decimal `json:"metricValue"`
}

// Extremum returns the group with the largest (Max) or smallest (Min)
// value of metric. On ties the earliest group wins.
// MetricName is the metric's catalog field name.
func Extremum(groups []Group, metric Metric, kind Extreme, opts ...Option) (Insight, error) {
	if kind != Max && kind != Min {
		return Insight{}, invalidRequest("extremum", "unknown kind %q", kind)
	}
	if len(groups) == 0 {
		return Insight{}, emptyResult("extremum", "no groups for %s %s", kind, metric)
	}
	if !hasMetric(groups, metric) {
		return Insight{}, invalidRequest("extremum", "metric %q was not computed", metric)
	}

	best := 0
	for i := 1; i < len(groups); i++ {
		c := groups[i].value(metric).Cmp(groups[best].value(metric))
		if (kind == Max && c > 0) || (kind == Min && c < 0) {
			best = i
		}
	}

	name := string(metric)
	if def, ok := applyOptions(opts).catalog.LookupMetric(metric); ok {
		name = def.Field
	}

	g := groups[best]
	return Insight{
		Kind:           kind,
		Dimensions:     g.Key.Dimensions,
		DimensionValue: g.Label,
		Metric:         metric,
		MetricName:     name,
		MetricValue:    g.value(metric),
	}, nil
}
