package dashboard

import "github.com/spektr-org/retailscope/engine"

// ============================================================================
// DEFAULT DASHBOARD — The retail sales overview
// ============================================================================
// Country, monthly, product and calendar views of a transaction ledger.
// configs/dashboard.example.yaml holds the same panels in file form.
// ============================================================================

const ukCountry = "United Kingdom"

var (
	excludeUK = engine.Filters{Exclude: map[engine.DimensionID][]string{engine.DimCountry: {ukCountry}}}

	countryMetrics = []engine.MetricSpec{
		{Metric: engine.MetricRevenue},
		{Metric: engine.MetricCount},
		{Metric: engine.MetricQuantity},
		{Metric: engine.MetricInvoices},
	}

	trendMetrics = []engine.MetricSpec{
		{Metric: engine.MetricRevenue},
		{Metric: engine.MetricInvoices, As: "Orders"},
		{Metric: engine.MetricCustomers, As: "Active_Customers"},
		{Metric: engine.MetricAOV},
	}

	trendHighlights = []engine.HighlightSpec{
		{Kind: engine.Max, Metric: engine.MetricRevenue, Title: "Best month",
			Template: "Best month: {dimension_value} ({metric_value})"},
		{Kind: engine.Min, Metric: engine.MetricRevenue, Title: "Worst month",
			Template: "Worst month: {dimension_value} ({metric_value})"},
	}

	activityMetrics = []engine.MetricSpec{
		{Metric: engine.MetricInvoices, As: "TransactionCount"},
	}
)

// DefaultConfig returns the built-in dashboard.
func DefaultConfig() *Config {
	return &Config{
		Title:    "Online Retail Sales Dashboard",
		Currency: "£",
		Panels: []Panel{
			{QuerySpec: engine.QuerySpec{
				Name:    "country_presence",
				Title:   "Countries by revenue",
				GroupBy: []engine.DimensionID{engine.DimCountry},
				Metrics: []engine.MetricSpec{
					{Metric: engine.MetricRevenue},
					{Metric: engine.MetricInvoices},
				},
			}},
			{QuerySpec: engine.QuerySpec{
				Name:    "top_countries",
				Title:   "Top 5 countries by revenue",
				GroupBy: []engine.DimensionID{engine.DimCountry},
				Metrics: countryMetrics,
				Rank:    &engine.RankSpec{Metric: engine.MetricRevenue, Direction: engine.Descending, Limit: 5, ShareAs: "RevenuePercentage"},
				Highlights: []engine.HighlightSpec{
					{Kind: engine.Max, Metric: engine.MetricRevenue, Title: "Top market",
						Template: "{dimension_value} leads with {metric_value} in revenue"},
				},
			}},
			{QuerySpec: engine.QuerySpec{
				Name:    "top_countries_ex_uk",
				Title:   "Top 10 countries by revenue (excluding UK)",
				GroupBy: []engine.DimensionID{engine.DimCountry},
				Metrics: countryMetrics,
				Filters: excludeUK,
				Rank:    &engine.RankSpec{Metric: engine.MetricRevenue, Direction: engine.Descending, Limit: 10, ShareAs: "RevenuePercentage"},
				Highlights: []engine.HighlightSpec{
					{Kind: engine.Max, Metric: engine.MetricRevenue, Title: "Top market (excluding UK)",
						Template: "{dimension_value} leads outside the UK with {metric_value} in revenue"},
				},
			}},
			{QuerySpec: engine.QuerySpec{
				Name:    "bottom_countries",
				Title:   "Bottom 5 countries by revenue",
				GroupBy: []engine.DimensionID{engine.DimCountry},
				Metrics: countryMetrics,
				Filters: excludeUK,
				Rank:    &engine.RankSpec{Metric: engine.MetricRevenue, Direction: engine.Ascending, Limit: 5, ShareAs: "RevenuePercentage"},
				Highlights: []engine.HighlightSpec{
					{Kind: engine.Min, Metric: engine.MetricRevenue, Title: "Smallest market"},
				},
			}},
			{QuerySpec: engine.QuerySpec{
				Name:       "monthly_trend",
				Title:      "Monthly revenue trend",
				GroupBy:    []engine.DimensionID{engine.DimYearMonth},
				Metrics:    trendMetrics,
				Highlights: trendHighlights,
			}},
			{
				QuerySpec: engine.QuerySpec{
					Name:       "monthly_trend_by_country",
					Title:      "Monthly revenue trend",
					GroupBy:    []engine.DimensionID{engine.DimYearMonth},
					Metrics:    trendMetrics,
					Highlights: trendHighlights,
				},
				Each: engine.DimCountry,
			},
			{QuerySpec: engine.QuerySpec{
				Name:    "product_revenue",
				Title:   "Top 10 products by revenue",
				GroupBy: []engine.DimensionID{engine.DimProduct},
				Metrics: []engine.MetricSpec{
					{Metric: engine.MetricRevenue},
					{Metric: engine.MetricInvoices},
					{Metric: engine.MetricMeanPrice},
				},
				Rank: &engine.RankSpec{Metric: engine.MetricRevenue, Direction: engine.Descending, Limit: 10},
			}},
			{QuerySpec: engine.QuerySpec{
				Name:    "product_quantity",
				Title:   "Top 10 products by quantity sold",
				GroupBy: []engine.DimensionID{engine.DimProduct},
				Metrics: []engine.MetricSpec{{Metric: engine.MetricQuantity}},
				Rank:    &engine.RankSpec{Metric: engine.MetricQuantity, Direction: engine.Descending, Limit: 10},
			}},
			{QuerySpec: engine.QuerySpec{
				Name:    "product_scatter",
				Title:   "Product revenue vs quantity",
				GroupBy: []engine.DimensionID{engine.DimProduct},
				Metrics: []engine.MetricSpec{
					{Metric: engine.MetricRevenue},
					{Metric: engine.MetricQuantity},
					{Metric: engine.MetricMeanPrice},
				},
				Having: []engine.Condition{{Metric: engine.MetricRevenue, Op: engine.OpGT, Value: 0}},
			}},
			{QuerySpec: engine.QuerySpec{
				Name:     "weekday_activity",
				Title:    "Transactions by day of week",
				GroupBy:  []engine.DimensionID{engine.DimDayName},
				Metrics:  activityMetrics,
				Complete: true,
				Highlights: []engine.HighlightSpec{
					{Kind: engine.Max, Metric: engine.MetricInvoices, Title: "Busiest day"},
				},
			}},
			{
				QuerySpec: engine.QuerySpec{
					Name:     "hourly_activity",
					Title:    "Transactions by hour",
					GroupBy:  []engine.DimensionID{engine.DimHour},
					Metrics:  activityMetrics,
					Complete: true,
					Highlights: []engine.HighlightSpec{
						{Kind: engine.Max, Metric: engine.MetricInvoices, Title: "Peak hour",
							Template: "Peak hour: {dimension_value}:00 ({metric_value} transactions)"},
					},
				},
				Each: engine.DimDayName,
			},
			{QuerySpec: engine.QuerySpec{
				Name:     "month_activity",
				Title:    "Transactions by month",
				GroupBy:  []engine.DimensionID{engine.DimMonthName},
				Metrics:  activityMetrics,
				Complete: true,
				Highlights: []engine.HighlightSpec{
					{Kind: engine.Max, Metric: engine.MetricInvoices, Title: "Busiest month"},
				},
			}},
		},
	}
}
