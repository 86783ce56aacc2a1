package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// AGGREGATORS — Grouping and Aggregation via RecordView
// ============================================================================
// All functions operate on RecordView, a zero-copy window on to the ledger.
// Grouping produces SubViews (index lists into parent view).
// Group order is first-seen key order; callers rank or complete afterwards.
// ============================================================================

// AggregateSpec is the request for one aggregation pass.
type AggregateSpec struct {
	GroupBy []DimensionID
	Metrics []Metric
	Filters Filters
}

// Aggregate filters view, groups the survivors by spec.GroupBy and computes
// spec.Metrics per group. Empty GroupBy yields a single "Total" group.
// No records after filtering yields no groups and no error.
func Aggregate(view RecordView, spec AggregateSpec, opts ...Option) ([]Group, error) {
	cfg := applyOptions(opts)

	dims, err := cfg.catalog.resolveDimensions("aggregate", spec.GroupBy)
	if err != nil {
		return nil, err
	}
	metrics, err := cfg.catalog.resolveMetrics("aggregate", spec.Metrics)
	if err != nil {
		return nil, err
	}

	filtered, err := applyFilters(view, spec.Filters, cfg.catalog)
	if err != nil {
		return nil, err
	}

	return aggregate(filtered, dims, metrics), nil
}

// aggregate is the pipeline core: group → compute metrics.
func aggregate(view RecordView, dims []Dimension, metrics []MetricDef) []Group {
	if view.Len() == 0 {
		return []Group{}
	}

	var groups []Group
	if len(dims) == 0 {
		groups = []Group{{
			Key:   AggregationKey{},
			Label: "Total",
			View:  view,
		}}
	} else {
		groups = groupBy(view, dims)
	}

	for i := range groups {
		aggregateGroup(&groups[i], metrics)
	}
	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBy(view RecordView, dims []Dimension) []Group {
	ids := make([]DimensionID, len(dims))
	for i, d := range dims {
		ids[i] = d.ID
	}

	grouped := make(map[string][]int)
	keys := make(map[string]AggregationKey)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		item := view.At(i)
		values := make([]string, len(dims))
		for j, d := range dims {
			values[j] = d.Select(item)
		}
		k := strings.Join(values, "\x1f")
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
			keys[k] = AggregationKey{Dimensions: ids, Values: values}
		}
		grouped[k] = append(grouped[k], i)
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		groups = append(groups, Group{
			Key:   keys[k],
			Label: labelFor(keys[k]),
			View:  newSubView(view, grouped[k]),
		})
	}
	return groups
}

func labelFor(key AggregationKey) string {
	if len(key.Values) == 0 {
		return "Total"
	}
	return strings.Join(key.Values, " / ")
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, metrics []MetricDef) {
	group.Count = group.View.Len()
	group.Metrics = make(MetricValues, len(metrics))
	for _, m := range metrics {
		group.Metrics[m.ID] = m.Compute(group.View)
	}
}

// SumRevenue sums TotalAmount across a view.
func SumRevenue(view RecordView) decimal.Decimal {
	total := decimal.Zero
	for i := 0; i < view.Len(); i++ {
		total = total.Add(view.At(i).TotalAmount)
	}
	return total
}

// SumQuantity sums Quantity across a view. Returns reduce the total.
func SumQuantity(view RecordView) decimal.Decimal {
	total := decimal.Zero
	for i := 0; i < view.Len(); i++ {
		total = total.Add(decimal.NewFromInt(view.At(i).Quantity))
	}
	return total
}

// CountItems counts line items.
func CountItems(view RecordView) decimal.Decimal {
	return decimal.NewFromInt(int64(view.Len()))
}

// DistinctInvoices counts distinct invoice ids.
func DistinctInvoices(view RecordView) decimal.Decimal {
	seen := make(map[string]struct{})
	for i := 0; i < view.Len(); i++ {
		seen[view.At(i).InvoiceID] = struct{}{}
	}
	return decimal.NewFromInt(int64(len(seen)))
}

// DistinctCustomers counts distinct customer ids. Guest lines are ignored.
func DistinctCustomers(view RecordView) decimal.Decimal {
	seen := make(map[string]struct{})
	for i := 0; i < view.Len(); i++ {
		item := view.At(i)
		if item.HasCustomer {
			seen[item.CustomerID] = struct{}{}
		}
	}
	return decimal.NewFromInt(int64(len(seen)))
}

// MeanUnitPrice is the arithmetic mean of UnitPrice. Zero for an empty view.
func MeanUnitPrice(view RecordView) decimal.Decimal {
	n := view.Len()
	if n == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for i := 0; i < n; i++ {
		total = total.Add(view.At(i).UnitPrice)
	}
	return total.Div(decimal.NewFromInt(int64(n)))
}

// AverageOrderValue is revenue per distinct invoice. Zero without invoices.
func AverageOrderValue(view RecordView) decimal.Decimal {
	invoices := DistinctInvoices(view)
	if invoices.IsZero() {
		return decimal.Zero
	}
	return SumRevenue(view).Div(invoices)
}

// UniqueValues returns distinct values of a dimension across a view in
// first-seen order.
func UniqueValues(view RecordView, dimension Dimension) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := dimension.Select(view.At(i))
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}
