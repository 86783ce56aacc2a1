package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/retailscope/engine"
	"github.com/spektr-org/retailscope/ledger"
)

// ============================================================================
// FIXTURES
// ============================================================================

func raw(invoice, customer, country, desc, qty, price, date string) ledger.RawRow {
	return ledger.RawRow{
		"InvoiceNo":   invoice,
		"CustomerID":  customer,
		"Country":     country,
		"Description": desc,
		"Quantity":    qty,
		"UnitPrice":   price,
		"InvoiceDate": date,
	}
}

// retailItems spans Wednesday 1 Dec 2010 and Tuesday 4 Jan 2011.
func retailItems(t *testing.T) ([]ledger.LineItem, ledger.Stats) {
	t.Helper()
	rows := []ledger.RawRow{
		raw("536365", "17850", "United Kingdom", "WHITE HANGING HEART T-LIGHT HOLDER", "6", "2.55", "12/1/2010 8:26"),
		raw("536365", "17850", "United Kingdom", "WHITE METAL LANTERN", "6", "3.39", "12/1/2010 8:26"),
		raw("536366", "17850", "United Kingdom", "HAND WARMER UNION JACK", "6", "1.85", "12/1/2010 8:28"),
		raw("536370", "12583", "France", "ALARM CLOCK BAKELIKE PINK", "24", "3.75", "12/1/2010 8:45"),
		raw("536370", "12583", "France", "POSTAGE", "3", "18.00", "12/1/2010 8:45"),
		raw("C536379", "14527", "United Kingdom", "Discount", "-1", "27.50", "12/1/2010 9:41"),
		raw("536527", "12662", "Germany", "SET OF 6 T-LIGHTS SANTA", "6", "2.95", "12/1/2010 13:04"),
		raw("540001", "", "Germany", "WHITE METAL LANTERN", "2", "3.39", "1/4/2011 10:00"),
	}
	batch, err := ledger.NewNormalizer(ledger.WithLogger(zerolog.Nop())).Normalize(rows)
	require.NoError(t, err)
	require.Len(t, batch.Items, len(rows))
	return batch.Items, batch.Stats
}

func quiet(opts ...Option) []Option {
	return append([]Option{WithLogger(zerolog.Nop())}, opts...)
}

func panelNames(r *Report) []string {
	names := make([]string, len(r.Panels))
	for i, p := range r.Panels {
		names[i] = p.Name
	}
	return names
}

// ============================================================================
// BUILD TESTS
// ============================================================================

func TestBuildDefaultDashboard(t *testing.T) {
	items, stats := retailItems(t)

	report, err := Build(context.Background(), DefaultConfig(), items, quiet(WithIngestion(stats), WithConcurrency(3))...)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, report.ID)
	assert.Equal(t, "Online Retail Sales Dashboard", report.Title)
	assert.Equal(t, "2010-12 – 2011-01", report.Period)
	assert.WithinDuration(t, time.Now(), report.GeneratedAt, time.Minute)
	require.NotNil(t, report.Ingestion)
	assert.Equal(t, 8, report.Ingestion.Kept)

	assert.Equal(t, []string{
		"country_presence",
		"top_countries",
		"top_countries_ex_uk",
		"bottom_countries",
		"monthly_trend",
		"monthly_trend_by_country/United Kingdom",
		"monthly_trend_by_country/France",
		"monthly_trend_by_country/Germany",
		"product_revenue",
		"product_quantity",
		"product_scatter",
		"weekday_activity",
		"hourly_activity/Tuesday",
		"hourly_activity/Wednesday",
		"month_activity",
	}, panelNames(report))

	for _, p := range report.Panels {
		assert.Empty(t, p.Error, p.Name)
		require.NotNil(t, p.Result, p.Name)
		require.NotNil(t, p.Table, p.Name)
	}
}

func TestBuildOverview(t *testing.T) {
	items, _ := retailItems(t)

	report, err := Build(context.Background(), DefaultConfig(), items, quiet()...)
	require.NoError(t, err)

	ov := report.Overview
	assert.Equal(t, 8, ov.Records)
	assert.Equal(t, "187.72", ov.Revenue.StringFixed(2))
	assert.Equal(t, int64(6), ov.Invoices)
	assert.Equal(t, int64(4), ov.Customers)
	assert.Equal(t, 3, ov.Countries)
	assert.Equal(t, 7, ov.Products)
}

func TestBuildExpandedPanels(t *testing.T) {
	items, _ := retailItems(t)
	cfg, err := DefaultConfig().Select("monthly_trend_by_country", "hourly_activity")
	require.NoError(t, err)

	report, err := Build(context.Background(), cfg, items, quiet()...)
	require.NoError(t, err)
	require.Len(t, report.Panels, 5)

	germany := report.Panels[2]
	assert.Equal(t, "monthly_trend_by_country", germany.Panel)
	assert.Equal(t, "Germany", germany.Value)
	assert.Equal(t, "Monthly revenue trend (Germany)", germany.Title)
	assert.Equal(t, 2, germany.Records)
	require.Len(t, germany.Table.Rows, 2)
	assert.Equal(t, "2010-12", germany.Table.Rows[0]["InvoiceYearMonth"])

	tuesday := report.Panels[3]
	assert.Equal(t, "Tuesday", tuesday.Value)
	require.Len(t, tuesday.Table.Rows, 24)
	require.Len(t, tuesday.Highlights, 1)
	assert.Equal(t, "Peak hour: 10:00 (1 transactions)", tuesday.Highlights[0].Text)
}

func TestBuildUsesConfigCurrency(t *testing.T) {
	items, _ := retailItems(t)
	cfg, err := DefaultConfig().Select("top_countries")
	require.NoError(t, err)
	cfg.Currency = "$"

	report, err := Build(context.Background(), cfg, items, quiet()...)
	require.NoError(t, err)
	require.Len(t, report.Panels[0].Highlights, 1)
	assert.Equal(t, "France leads with $144.00 in revenue", report.Panels[0].Highlights[0].Text)
}

func TestBuildTopMarketExcludingUK(t *testing.T) {
	items, _ := retailItems(t)
	cfg, err := DefaultConfig().Select("top_countries_ex_uk")
	require.NoError(t, err)

	report, err := Build(context.Background(), cfg, items, quiet()...)
	require.NoError(t, err)
	require.Len(t, report.Panels[0].Highlights, 1)
	assert.Equal(t, "France leads outside the UK with £144.00 in revenue", report.Panels[0].Highlights[0].Text)
}

func TestBuildRecordsEmptyPanels(t *testing.T) {
	items, _ := retailItems(t)
	cfg := &Config{Title: "t", Panels: []Panel{
		{QuerySpec: engine.QuerySpec{
			Name:    "nowhere",
			GroupBy: []engine.DimensionID{engine.DimCountry},
			Metrics: []engine.MetricSpec{{Metric: engine.MetricRevenue}},
			Filters: engine.Filters{}.With(engine.DimCountry, "Narnia"),
			Rank:    &engine.RankSpec{Metric: engine.MetricRevenue, Limit: 5},
		}},
		{QuerySpec: engine.QuerySpec{
			Name:    "everywhere",
			GroupBy: []engine.DimensionID{engine.DimCountry},
			Metrics: []engine.MetricSpec{{Metric: engine.MetricRevenue}},
		}},
	}}

	report, err := Build(context.Background(), cfg, items, quiet()...)
	require.NoError(t, err)
	require.Len(t, report.Panels, 2)

	assert.Nil(t, report.Panels[0].Result)
	assert.NotEmpty(t, report.Panels[0].Error)
	assert.Equal(t, "nowhere", report.Panels[0].Panel)

	assert.Empty(t, report.Panels[1].Error)
	assert.Len(t, report.Panels[1].Table.Rows, 3)
}

func TestBuildEmptyLedger(t *testing.T) {
	report, err := Build(context.Background(), DefaultConfig(), nil, quiet()...)
	require.NoError(t, err)

	assert.Equal(t, "No data", report.Period)
	assert.Equal(t, 0, report.Overview.Records)
	assert.True(t, report.Overview.Revenue.IsZero())
	// Each panels expand to nothing.
	require.Len(t, report.Panels, 10)

	byName := map[string]PanelResult{}
	for _, p := range report.Panels {
		byName[p.Panel] = p
	}
	for _, name := range []string{"top_countries", "monthly_trend", "weekday_activity", "month_activity"} {
		assert.Nil(t, byName[name].Result, name)
		assert.NotEmpty(t, byName[name].Error, name)
	}
	require.NotNil(t, byName["country_presence"].Result)
	assert.Empty(t, byName["country_presence"].Table.Rows)
}

func TestBuildInvalidConfig(t *testing.T) {
	items, _ := retailItems(t)
	cfg := &Config{Panels: []Panel{{QuerySpec: engine.QuerySpec{
		Name:    "bad",
		Metrics: []engine.MetricSpec{{Metric: "margin"}},
	}}}}

	_, err := Build(context.Background(), cfg, items, quiet()...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidRequest))
}

func TestBuildCancelled(t *testing.T) {
	items, _ := retailItems(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, DefaultConfig(), items, quiet()...)
	assert.ErrorIs(t, err, context.Canceled)
}
