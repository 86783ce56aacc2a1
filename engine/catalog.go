package engine

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/retailscope/ledger"
)

// ============================================================================
// CATALOG — Dimensions and metrics known to the engine
// ============================================================================
// A Catalog maps dimension ids to selectors over ledger.LineItem and metric
// ids to reducers over a RecordView. Queries name ids; the catalog supplies
// the field names used in output rows.
//
// Usage:
//   cat := engine.DefaultCatalog().
//       Dimension(engine.Dimension{ID: "customer", Field: "CustomerID", Select: ...})
//
// A catalog is read-only once handed to the engine.
// ============================================================================

// DimensionID names a grouping dimension.
type DimensionID string

const (
	DimCountry   DimensionID = "country"
	DimProduct   DimensionID = "product"
	DimYearMonth DimensionID = "year_month"
	DimDate      DimensionID = "date"
	DimDayName   DimensionID = "day_name"
	DimHour      DimensionID = "hour"
	DimMonthName DimensionID = "month_name"
)

// Canonical domains of the periodic dimensions.
var (
	Weekdays = []string{
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
	}
	MonthNames = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	Hours = func() []string {
		h := make([]string, 24)
		for i := range h {
			h[i] = strconv.Itoa(i)
		}
		return h
	}()
)

// Dimension describes one way to key line items.
type Dimension struct {
	ID DimensionID
	// Field is the output column name.
	Field  string
	Select func(item ledger.LineItem) string

	// Domain is the ordered, closed set of values of a periodic dimension.
	// Nil for categorical dimensions.
	Domain []string

	// Output converts a key value to its output cell. Nil keeps the string.
	Output func(value string) any
}

// Periodic reports whether the dimension has a canonical domain.
func (d Dimension) Periodic() bool { return len(d.Domain) > 0 }

func (d Dimension) cell(value string) any {
	if d.Output == nil {
		return value
	}
	return d.Output(value)
}

// Metric names an aggregate computed per group.
type Metric string

const (
	MetricRevenue   Metric = "revenue"
	MetricCount     Metric = "count"
	MetricInvoices  Metric = "invoices"
	MetricCustomers Metric = "customers"
	MetricMeanPrice Metric = "mean_price"
	MetricQuantity  Metric = "quantity"
	MetricAOV       Metric = "aov"
)

// MetricDef describes how a metric is computed and presented.
type MetricDef struct {
	ID      Metric
	Field   string // default output column name
	Compute func(view RecordView) decimal.Decimal

	// Integral metrics are counts; they render without decimals.
	Integral bool
	// Money metrics render with the currency symbol.
	Money bool
}

// Catalog is the registry of dimensions and metrics.
type Catalog struct {
	dimensions  map[DimensionID]Dimension
	dimOrder    []DimensionID
	metrics     map[Metric]MetricDef
	metricOrder []Metric
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		dimensions: make(map[DimensionID]Dimension),
		metrics:    make(map[Metric]MetricDef),
	}
}

// Dimension registers (or replaces) a dimension. Returns the catalog for chaining.
func (c *Catalog) Dimension(d Dimension) *Catalog {
	if _, exists := c.dimensions[d.ID]; !exists {
		c.dimOrder = append(c.dimOrder, d.ID)
	}
	c.dimensions[d.ID] = d
	return c
}

// Metric registers (or replaces) a metric. Returns the catalog for chaining.
func (c *Catalog) Metric(m MetricDef) *Catalog {
	if _, exists := c.metrics[m.ID]; !exists {
		c.metricOrder = append(c.metricOrder, m.ID)
	}
	c.metrics[m.ID] = m
	return c
}

// LookupDimension returns the dimension registered under id.
func (c *Catalog) LookupDimension(id DimensionID) (Dimension, bool) {
	d, ok := c.dimensions[id]
	return d, ok
}

// LookupMetric returns the metric registered under id.
func (c *Catalog) LookupMetric(id Metric) (MetricDef, bool) {
	m, ok := c.metrics[id]
	return m, ok
}

// Dimensions returns the registered dimension ids in registration order.
func (c *Catalog) Dimensions() []DimensionID {
	return append([]DimensionID(nil), c.dimOrder...)
}

// Metrics returns the registered metric ids in registration order.
func (c *Catalog) Metrics() []Metric {
	return append([]Metric(nil), c.metricOrder...)
}

func (c *Catalog) resolveDimensions(op string, ids []DimensionID) ([]Dimension, error) {
	dims := make([]Dimension, 0, len(ids))
	for _, id := range ids {
		d, ok := c.dimensions[id]
		if !ok {
			return nil, invalidRequest(op, "unknown dimension %q", id)
		}
		dims = append(dims, d)
	}
	return dims, nil
}

func (c *Catalog) resolveMetrics(op string, ids []Metric) ([]MetricDef, error) {
	defs := make([]MetricDef, 0, len(ids))
	for _, id := range ids {
		m, ok := c.metrics[id]
		if !ok {
			return nil, invalidRequest(op, "unknown metric %q", id)
		}
		defs = append(defs, m)
	}
	return defs, nil
}

// ============================================================================
// DEFAULT CATALOG
// ============================================================================

// DefaultCatalog returns a fresh catalog with the retail ledger dimensions
// and metrics.
func DefaultCatalog() *Catalog {
	return NewCatalog().
		Dimension(Dimension{ID: DimCountry, Field: "Country",
			Select: func(it ledger.LineItem) string { return it.Country }}).
		Dimension(Dimension{ID: DimProduct, Field: "Description",
			Select: func(it ledger.LineItem) string { return it.Description }}).
		Dimension(Dimension{ID: DimYearMonth, Field: "InvoiceYearMonth",
			Select: func(it ledger.LineItem) string { return it.YearMonth }}).
		Dimension(Dimension{ID: DimDate, Field: "InvoiceDate",
			Select: func(it ledger.LineItem) string { return it.DateOnly }}).
		Dimension(Dimension{ID: DimDayName, Field: "DayName", Domain: Weekdays,
			Select: func(it ledger.LineItem) string { return it.DayName }}).
		Dimension(Dimension{ID: DimHour, Field: "Hour", Domain: Hours,
			Select: func(it ledger.LineItem) string { return strconv.Itoa(it.Hour) },
			Output: hourCell}).
		Dimension(Dimension{ID: DimMonthName, Field: "InvoiceMonthName", Domain: MonthNames,
			Select: func(it ledger.LineItem) string { return it.MonthName }}).
		Metric(MetricDef{ID: MetricRevenue, Field: "TotalRevenue", Compute: SumRevenue, Money: true}).
		Metric(MetricDef{ID: MetricCount, Field: "TransactionCount", Compute: CountItems, Integral: true}).
		Metric(MetricDef{ID: MetricInvoices, Field: "UniqueInvoices", Compute: DistinctInvoices, Integral: true}).
		Metric(MetricDef{ID: MetricCustomers, Field: "ActiveCustomers", Compute: DistinctCustomers, Integral: true}).
		Metric(MetricDef{ID: MetricMeanPrice, Field: "AvgPrice", Compute: MeanUnitPrice, Money: true}).
		Metric(MetricDef{ID: MetricQuantity, Field: "TotalQuantity", Compute: SumQuantity, Integral: true}).
		Metric(MetricDef{ID: MetricAOV, Field: "AOV", Compute: AverageOrderValue, Money: true})
}

func hourCell(value string) any {
	if h, err := strconv.Atoi(value); err == nil {
		return h
	}
	return value
}

// defaultCatalog backs engine calls made without WithCatalog.
var defaultCatalog = DefaultCatalog()
