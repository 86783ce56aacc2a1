package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ============================================================================
// RANKING — Order groups by a metric, truncate, attach shares
// ============================================================================
// Shares are computed against the sum over ALL groups passed in, not just
// the ones that survive the limit. Sorting is stable: equal values keep the
// order the groups arrived in.
// ============================================================================

// Direction is the ranking order.
type Direction string

const (
	Descending Direction = "desc"
	Ascending  Direction = "asc"
)

var hundred = decimal.NewFromInt(100)

// RankedGroup is a group with its 1-based position and share of the total.
type RankedGroup struct {
	Group
	Rank         int             `json:"rank"`
	SharePercent decimal.Decimal `json:"sharePercent"`
}

// RankedView is the ordered, possibly truncated, result of Rank.
type RankedView struct {
	Metric    Metric          `json:"metric"`
	Direction Direction       `json:"direction"`
	Total     decimal.Decimal `json:"total"`
	Groups    []RankedGroup   `json:"groups"`
}

// Rank orders groups by metric and keeps the first limit entries.
// limit == 0 keeps all groups. The input slice is not reordered.
func Rank(groups []Group, metric Metric, dir Direction, limit int) (*RankedView, error) {
	if dir != Descending && dir != Ascending {
		return nil, invalidRequest("rank", "unknown direction %q", dir)
	}
	if limit < 0 {
		return nil, invalidRequest("rank", "negative limit %d", limit)
	}
	if len(groups) == 0 {
		return nil, emptyResult("rank", "no groups to rank by %s", metric)
	}
	if !hasMetric(groups, metric) {
		return nil, invalidRequest("rank", "metric %q was not computed", metric)
	}

	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.value(metric))
	}

	sorted := make([]Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := sorted[i].value(metric).Cmp(sorted[j].value(metric))
		if dir == Ascending {
			return c < 0
		}
		return c > 0
	})

	shares := apportionShares(sorted, metric, total)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	ranked := make([]RankedGroup, len(sorted))
	for i, g := range sorted {
		ranked[i] = RankedGroup{
			Group:        g,
			Rank:         i + 1,
			SharePercent: shares[i],
		}
	}

	return &RankedView{
		Metric:    metric,
		Direction: dir,
		Total:     total,
		Groups:    ranked,
	}, nil
}

// apportionShares gives each group its share of total in hundredths of a
// percent using the largest-remainder method, so the shares of every group
// sum to exactly 100. Each share is within 0.01 of the exact value.
func apportionShares(groups []Group, metric Metric, total decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(groups))
	if total.IsZero() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares
	}

	remainders := make([]decimal.Decimal, len(groups))
	floored := decimal.Zero
	for i, g := range groups {
		exact := g.value(metric).Mul(hundred).Div(total)
		shares[i] = exact.RoundFloor(2)
		remainders[i] = exact.Sub(shares[i])
		floored = floored.Add(shares[i])
	}

	units := int(hundred.Sub(floored).Mul(hundred).Round(0).IntPart())
	if units <= 0 {
		return shares
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	step := decimal.New(1, -2)
	for k := 0; k < units && k < len(order); k++ {
		shares[order[k]] = shares[order[k]].Add(step)
	}
	return shares
}

// SharePercent returns value / total * 100 rounded to 2 places.
// A zero total yields 0.
func SharePercent(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Div(total).Mul(hundred).Round(2)
}
