package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// EXECUTOR TESTS
// ============================================================================

func quietOpts() []Option {
	return []Option{WithLogger(zerolog.Nop())}
}

func TestExecuteScenarioAB(t *testing.T) {
	spec := QuerySpec{
		Name:    "top_countries",
		Title:   "Top countries",
		GroupBy: []DimensionID{DimCountry},
		Metrics: []MetricSpec{{Metric: MetricRevenue}},
		Rank:    &RankSpec{Metric: MetricRevenue, Limit: 1, ShareAs: "RevenuePercentage"},
		Highlights: []HighlightSpec{
			{Kind: Min, Metric: MetricRevenue, Template: "{dimension_value} sold {metric_value}"},
		},
	}

	result, err := Execute(spec, scenarioAB(t), quietOpts()...)
	require.NoError(t, err)

	assert.Equal(t, "top_countries", result.Name)
	assert.Equal(t, 2, result.Records)
	assert.Equal(t, "2011-01", result.Period)
	assert.Len(t, result.Groups, 2, "groups keep every key")
	require.NotNil(t, result.Ranked)
	assert.Equal(t, Descending, result.Ranked.Direction)

	table := result.Table
	assert.Equal(t, "Top countries", table.Title)
	assert.Equal(t, []string{"Country", "Rank", "TotalRevenue", "RevenuePercentage"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "B", table.Rows[0]["Country"])
	assert.Equal(t, 1, table.Rows[0]["Rank"])
	assert.Equal(t, 100.0, table.Rows[0]["TotalRevenue"])
	assert.Equal(t, 86.96, table.Rows[0]["RevenuePercentage"])

	require.Len(t, result.Highlights, 1)
	h := result.Highlights[0]
	assert.Equal(t, "A", h.Insight.DimensionValue, "highlights see groups cut by the limit")
	assert.Equal(t, "A sold £15.00", h.Text)
}

func TestExecuteRenamedMetricsAndCounts(t *testing.T) {
	spec := QuerySpec{
		Name:    "monthly_trend",
		GroupBy: []DimensionID{DimYearMonth},
		Metrics: []MetricSpec{
			{Metric: MetricRevenue},
			{Metric: MetricInvoices, As: "Orders"},
			{Metric: MetricCustomers, As: "Active_Customers"},
			{Metric: MetricAOV},
		},
		Highlights: []HighlightSpec{
			{Kind: Max, Metric: MetricRevenue, Title: "Best month"},
			{Kind: Min, Metric: MetricInvoices, Title: "Quietest month"},
		},
	}

	result, err := Execute(spec, retail(t), quietOpts()...)
	require.NoError(t, err)

	assert.Equal(t, "2010-12 – 2011-01", result.Period)
	assert.Equal(t, []string{"InvoiceYearMonth", "TotalRevenue", "Orders", "Active_Customers", "AOV"}, result.Table.Columns)
	require.Len(t, result.Table.Rows, 2)

	dec := result.Table.Rows[0]
	assert.Equal(t, "2010-12", dec["InvoiceYearMonth"])
	assert.Equal(t, int64(5), dec["Orders"])
	assert.Equal(t, int64(4), dec["Active_Customers"])

	require.Len(t, result.Highlights, 2)
	assert.Equal(t, "Best month", result.Highlights[0].Title)
	assert.Equal(t, "2010-12", result.Highlights[0].Insight.DimensionValue)
	assert.Equal(t, "Lowest Orders: 2011-01 (1)", result.Highlights[1].Text)
}

func TestExecuteHaving(t *testing.T) {
	spec := QuerySpec{
		Name:    "product_scatter",
		GroupBy: []DimensionID{DimProduct},
		Metrics: []MetricSpec{{Metric: MetricRevenue}, {Metric: MetricQuantity}},
		Having:  []Condition{{Metric: MetricRevenue, Op: OpGT, Value: 0}},
	}

	result, err := Execute(spec, retail(t), quietOpts()...)
	require.NoError(t, err)

	for _, row := range result.Table.Rows {
		assert.NotEqual(t, "Discount", row["Description"])
		assert.Greater(t, row["TotalRevenue"].(float64), 0.0)
	}
	assert.Len(t, result.Table.Rows, 6)
}

func TestExecuteCompleteHours(t *testing.T) {
	spec := QuerySpec{
		Name:     "hourly_activity",
		GroupBy:  []DimensionID{DimHour},
		Metrics:  []MetricSpec{{Metric: MetricInvoices, As: "TransactionCount"}},
		Complete: true,
		Filters:  Filters{Include: map[DimensionID][]string{DimDayName: {"Wednesday"}}},
		Highlights: []HighlightSpec{
			{Kind: Max, Metric: MetricInvoices},
		},
	}

	result, err := Execute(spec, retail(t), quietOpts()...)
	require.NoError(t, err)
	require.Len(t, result.Table.Rows, 24)

	for h, row := range result.Table.Rows {
		assert.Equal(t, h, row["Hour"])
	}
	assert.Equal(t, int64(3), result.Table.Rows[8]["TransactionCount"])
	assert.Equal(t, int64(0), result.Table.Rows[0]["TransactionCount"])
	assert.Equal(t, "Highest TransactionCount: 8 (3)", result.Highlights[0].Text)
}

func TestExecuteCompletedHighlightsUseObservedGroups(t *testing.T) {
	view := ledgerOf(t,
		raw("1", "c1", "A", "Mug", "1", "5.00", "2011-01-07 09:00"),
		raw("2", "c2", "A", "Mug", "1", "5.00", "2011-01-03 09:00"),
	)
	spec := QuerySpec{
		Name:     "weekday_activity",
		GroupBy:  []DimensionID{DimDayName},
		Metrics:  []MetricSpec{{Metric: MetricInvoices}},
		Complete: true,
		Highlights: []HighlightSpec{
			{Kind: Max, Metric: MetricInvoices},
			{Kind: Min, Metric: MetricInvoices},
		},
	}

	result, err := Execute(spec, view, quietOpts()...)
	require.NoError(t, err)
	require.Len(t, result.Table.Rows, 7)
	assert.Equal(t, "Monday", result.Table.Rows[0]["DayName"])

	// Friday was seen first; zero-filled days never win.
	require.Len(t, result.Highlights, 2)
	assert.Equal(t, "Friday", result.Highlights[0].Insight.DimensionValue)
	assert.Equal(t, "Friday", result.Highlights[1].Insight.DimensionValue)
}

func TestExecuteCompletedEmptyView(t *testing.T) {
	spec := QuerySpec{
		Name:       "month_activity",
		GroupBy:    []DimensionID{DimMonthName},
		Metrics:    []MetricSpec{{Metric: MetricInvoices}},
		Complete:   true,
		Highlights: []HighlightSpec{{Kind: Max, Metric: MetricInvoices}},
	}

	_, err := Execute(spec, NewSliceView(nil), quietOpts()...)
	assert.True(t, errors.Is(err, ErrEmptyResult))

	spec.Highlights = nil
	spec.Rank = &RankSpec{Metric: MetricInvoices}
	_, err = Execute(spec, NewSliceView(nil), quietOpts()...)
	assert.True(t, errors.Is(err, ErrEmptyResult))

	spec.Rank = nil
	result, err := Execute(spec, NewSliceView(nil), quietOpts()...)
	require.NoError(t, err)
	assert.Len(t, result.Table.Rows, 12, "completion alone still fills the domain")
}

func TestExecuteIdempotent(t *testing.T) {
	view := retail(t)
	spec := QuerySpec{
		Name:       "top_products",
		GroupBy:    []DimensionID{DimProduct},
		Metrics:    []MetricSpec{{Metric: MetricRevenue}, {Metric: MetricMeanPrice}},
		Rank:       &RankSpec{Metric: MetricRevenue, Direction: Descending, Limit: 3},
		Highlights: []HighlightSpec{{Kind: Max, Metric: MetricMeanPrice}},
	}

	first, err := Execute(spec, view, quietOpts()...)
	require.NoError(t, err)
	second, err := Execute(spec, view, quietOpts()...)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, "536365", view.At(0).InvoiceID, "ledger untouched")
}

func TestExecuteEmpty(t *testing.T) {
	nothing := Filters{Include: map[DimensionID][]string{DimCountry: {"Atlantis"}}}

	result, err := Execute(QuerySpec{
		Name:    "plain",
		GroupBy: []DimensionID{DimCountry},
		Metrics: []MetricSpec{{Metric: MetricRevenue}},
		Filters: nothing,
	}, retail(t), quietOpts()...)
	require.NoError(t, err)
	assert.Empty(t, result.Table.Rows)
	assert.Equal(t, "No data", result.Period)

	_, err = Execute(QuerySpec{
		Name:    "ranked",
		GroupBy: []DimensionID{DimCountry},
		Metrics: []MetricSpec{{Metric: MetricRevenue}},
		Filters: nothing,
		Rank:    &RankSpec{Metric: MetricRevenue},
	}, retail(t), quietOpts()...)
	assert.True(t, errors.Is(err, ErrEmptyResult))

	_, err = Execute(QuerySpec{
		Name:       "highlighted",
		GroupBy:    []DimensionID{DimCountry},
		Metrics:    []MetricSpec{{Metric: MetricRevenue}},
		Filters:    nothing,
		Highlights: []HighlightSpec{{Kind: Max, Metric: MetricRevenue}},
	}, retail(t), quietOpts()...)
	assert.True(t, errors.Is(err, ErrEmptyResult))
}

func TestExecuteInvalidRequests(t *testing.T) {
	revenue := []MetricSpec{{Metric: MetricRevenue}}
	country := []DimensionID{DimCountry}

	tests := []struct {
		name string
		spec QuerySpec
	}{
		{"no metrics", QuerySpec{GroupBy: country}},
		{"unknown dimension", QuerySpec{GroupBy: []DimensionID{"planet"}, Metrics: revenue}},
		{"unknown metric", QuerySpec{GroupBy: country, Metrics: []MetricSpec{{Metric: "median"}}}},
		{"duplicate metric", QuerySpec{GroupBy: country, Metrics: []MetricSpec{{Metric: MetricRevenue}, {Metric: MetricRevenue, As: "Again"}}}},
		{"field collision", QuerySpec{GroupBy: country, Metrics: []MetricSpec{{Metric: MetricRevenue, As: "Country"}}}},
		{"rank metric not requested", QuerySpec{GroupBy: country, Metrics: revenue, Rank: &RankSpec{Metric: MetricCount}}},
		{"negative limit", QuerySpec{GroupBy: country, Metrics: revenue, Rank: &RankSpec{Metric: MetricRevenue, Limit: -1}}},
		{"bad direction", QuerySpec{GroupBy: country, Metrics: revenue, Rank: &RankSpec{Metric: MetricRevenue, Direction: "sideways"}}},
		{"complete categorical", QuerySpec{GroupBy: country, Metrics: revenue, Complete: true}},
		{"complete two dimensions", QuerySpec{GroupBy: []DimensionID{DimDayName, DimHour}, Metrics: revenue, Complete: true}},
		{"bad highlight kind", QuerySpec{GroupBy: country, Metrics: revenue, Highlights: []HighlightSpec{{Kind: "median", Metric: MetricRevenue}}}},
		{"highlight metric not requested", QuerySpec{GroupBy: country, Metrics: revenue, Highlights: []HighlightSpec{{Kind: Max, Metric: MetricAOV}}}},
		{"bad operator", QuerySpec{GroupBy: country, Metrics: revenue, Having: []Condition{{Metric: MetricRevenue, Op: "between"}}}},
		{"unknown filter dimension", QuerySpec{GroupBy: country, Metrics: revenue, Filters: Filters{Include: map[DimensionID][]string{"planet": {"Mars"}}}}},
	}

	view := retail(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(tt.spec, view, quietOpts()...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest), "got %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(QuerySpec{Metrics: []MetricSpec{{Metric: MetricCount}}}))
	assert.Error(t, Validate(QuerySpec{}))
}
