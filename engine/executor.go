package engine

import (
	"github.com/shopspring/decimal"
)

// ============================================================================
// EXECUTOR — One parameterized pipeline for every report view
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Validate QuerySpec against the catalog (nothing computed on failure)
//   2. Apply filters → SubView (zero-copy)
//   3. Group and aggregate
//   4. Drop groups failing Having
//   5. (Optional) Complete periodic buckets
//   6. Highlights over all groups
//   7. (Optional) Rank + limit + shares
//   8. Flatten into a Table
//
// Execute is a pure function of its inputs; concurrent calls over the same
// view are safe.
// ============================================================================

// MetricSpec requests one metric, optionally under another output name.
type MetricSpec struct {
	Metric Metric `yaml:"metric" json:"metric"`
	As     string `yaml:"as,omitempty" json:"as,omitempty"`
}

// Comparison operators for Condition.
const (
	OpGT  = "gt"
	OpGTE = "gte"
	OpLT  = "lt"
	OpLTE = "lte"
	OpEQ  = "eq"
	OpNE  = "ne"
)

// Condition keeps groups whose metric compares true against Value.
type Condition struct {
	Metric Metric  `yaml:"metric" json:"metric"`
	Op     string  `yaml:"op" json:"op"`
	Value  float64 `yaml:"value" json:"value"`
}

// RankSpec orders and truncates the groups.
type RankSpec struct {
	Metric    Metric    `yaml:"metric" json:"metric"`
	Direction Direction `yaml:"direction,omitempty" json:"direction,omitempty"` // default desc
	Limit     int       `yaml:"limit,omitempty" json:"limit,omitempty"`         // 0 = all
	ShareAs   string    `yaml:"share_as,omitempty" json:"shareAs,omitempty"`    // default SharePercent
}

// HighlightSpec asks for one extremum sentence.
type HighlightSpec struct {
	Kind     Extreme `yaml:"kind" json:"kind"`
	Metric   Metric  `yaml:"metric" json:"metric"`
	Title    string  `yaml:"title,omitempty" json:"title,omitempty"`
	Template string  `yaml:"template,omitempty" json:"template,omitempty"`
}

// QuerySpec defines what the engine should compute for one report view.
type QuerySpec struct {
	Name       string          `yaml:"name" json:"name"`
	Title      string          `yaml:"title,omitempty" json:"title,omitempty"`
	GroupBy    []DimensionID   `yaml:"group_by,omitempty" json:"groupBy,omitempty"`
	Metrics    []MetricSpec    `yaml:"metrics" json:"metrics"`
	Filters    Filters         `yaml:"filters,omitempty" json:"filters,omitempty"`
	Having     []Condition     `yaml:"having,omitempty" json:"having,omitempty"`
	Complete   bool            `yaml:"complete,omitempty" json:"complete,omitempty"`
	Rank       *RankSpec       `yaml:"rank,omitempty" json:"rank,omitempty"`
	Highlights []HighlightSpec `yaml:"highlights,omitempty" json:"highlights,omitempty"`
}

// Highlight is a rendered extremum.
type Highlight struct {
	Title   string  `json:"title,omitempty"`
	Text    string  `json:"text"`
	Insight Insight `json:"insight"`
}

// Result is the engine's render-ready output.
type Result struct {
	Name       string      `json:"name"`
	Title      string      `json:"title,omitempty"`
	Period     string      `json:"period"`
	Records    int         `json:"records"` // line items after filtering
	Highlights []Highlight `json:"highlights,omitempty"`
	Table      *Table      `json:"table"`

	Groups []Group     `json:"-"` // every group, before ranking
	Ranked *RankedView `json:"-"`
}

// plan is a validated QuerySpec bound to catalog entries.
type plan struct {
	dims    []Dimension
	metrics []MetricDef
	columns []metricColumn
	ids     []Metric
}

func (p *plan) column(m Metric) (metricColumn, bool) {
	for _, c := range p.columns {
		if c.def.ID == m {
			return c, true
		}
	}
	return metricColumn{}, false
}

// Execute runs a QuerySpec against a RecordView and returns a render-ready Result.
//
// Options:
//   - WithCatalog(c):  custom dimensions and metrics
//   - WithLogger(l):   pipeline diagnostics
//   - WithCurrency(s): symbol used in highlight text
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	spec = withDefaults(spec)

	p, err := compile(spec, cfg.catalog)
	if err != nil {
		return nil, err
	}

	// 1. Filter
	filtered, err := applyFilters(view, spec.Filters, cfg.catalog)
	if err != nil {
		return nil, err
	}

	cfg.logger.Debug().
		Str("query", spec.Name).
		Int("records", view.Len()).
		Int("filtered", filtered.Len()).
		Msg("🔧 Executing query")

	// 2. Group and aggregate
	groups := aggregate(filtered, p.dims, p.metrics)

	// 3. Having
	groups = applyHaving(groups, spec.Having)

	// 4. Complete buckets. Facts come from the aggregated groups only, so a
	// zero-filled bucket never wins an extremum.
	observed := groups
	if spec.Complete {
		groups, err = CompleteBuckets(groups, spec.GroupBy[0], p.ids, opts...)
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		Name:    spec.Name,
		Title:   spec.Title,
		Period:  DerivePeriod(filtered),
		Records: filtered.Len(),
		Groups:  groups,
	}

	// 5. Highlights over every observed group, before any limit
	for _, h := range spec.Highlights {
		in, err := Extremum(observed, h.Metric, h.Kind, opts...)
		if err != nil {
			return nil, err
		}
		col, _ := p.column(h.Metric)
		in.MetricName = col.field
		unit := ""
		if col.def.Money {
			unit = cfg.currency
		}
		result.Highlights = append(result.Highlights, Highlight{
			Title:   h.Title,
			Text:    RenderHighlight(h.Template, in, unit),
			Insight: in,
		})
	}

	// 6. Rank
	if spec.Rank != nil {
		if len(observed) == 0 {
			return nil, emptyResult("rank", "no groups to rank by %s", spec.Rank.Metric)
		}
		ranked, err := Rank(groups, spec.Rank.Metric, spec.Rank.Direction, spec.Rank.Limit)
		if err != nil {
			return nil, err
		}
		result.Ranked = ranked
		result.Table = buildRankedTable(spec.Title, p.dims, p.columns, ranked, shareField(spec.Rank))
	} else {
		result.Table = buildTable(spec.Title, p.dims, p.columns, groups)
	}

	cfg.logger.Debug().
		Str("query", spec.Name).
		Int("groups", len(groups)).
		Int("rows", len(result.Table.Rows)).
		Msg("📊 Query complete")

	return result, nil
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks a QuerySpec against the catalog without touching data.
func Validate(spec QuerySpec, opts ...Option) error {
	_, err := compile(withDefaults(spec), applyOptions(opts).catalog)
	return err
}

// withDefaults fills an unset rank direction with Descending.
func withDefaults(spec QuerySpec) QuerySpec {
	if spec.Rank != nil && spec.Rank.Direction == "" {
		r := *spec.Rank
		r.Direction = Descending
		spec.Rank = &r
	}
	return spec
}

func compile(spec QuerySpec, cat *Catalog) (*plan, error) {
	const op = "execute"

	if len(spec.Metrics) == 0 {
		return nil, invalidRequest(op, "query %q requests no metrics", spec.Name)
	}

	dims, err := cat.resolveDimensions(op, spec.GroupBy)
	if err != nil {
		return nil, err
	}

	p := &plan{dims: dims}
	fields := make(map[string]bool)
	for _, d := range dims {
		fields[d.Field] = true
	}

	for _, ms := range spec.Metrics {
		def, ok := cat.LookupMetric(ms.Metric)
		if !ok {
			return nil, invalidRequest(op, "unknown metric %q", ms.Metric)
		}
		if _, dup := p.column(ms.Metric); dup {
			return nil, invalidRequest(op, "metric %q requested twice", ms.Metric)
		}
		field := def.Field
		if ms.As != "" {
			field = ms.As
		}
		if fields[field] {
			return nil, invalidRequest(op, "duplicate output field %q", field)
		}
		fields[field] = true
		p.metrics = append(p.metrics, def)
		p.ids = append(p.ids, def.ID)
		p.columns = append(p.columns, metricColumn{def: def, field: field})
	}

	requested := func(m Metric) bool {
		_, ok := p.column(m)
		return ok
	}

	for _, c := range spec.Having {
		if !requested(c.Metric) {
			return nil, invalidRequest(op, "having uses metric %q which is not requested", c.Metric)
		}
		if _, ok := comparators[c.Op]; !ok {
			return nil, invalidRequest(op, "unknown operator %q", c.Op)
		}
	}

	if spec.Complete {
		if len(dims) != 1 {
			return nil, invalidRequest(op, "bucket completion needs exactly one dimension, got %d", len(dims))
		}
		if !dims[0].Periodic() {
			return nil, invalidRequest(op, "dimension %q has no canonical domain", dims[0].ID)
		}
	}

	if r := spec.Rank; r != nil {
		if !requested(r.Metric) {
			return nil, invalidRequest(op, "rank uses metric %q which is not requested", r.Metric)
		}
		if r.Direction != Descending && r.Direction != Ascending {
			return nil, invalidRequest(op, "unknown direction %q", r.Direction)
		}
		if r.Limit < 0 {
			return nil, invalidRequest(op, "negative limit %d", r.Limit)
		}
		if fields[shareField(r)] || fields["Rank"] {
			return nil, invalidRequest(op, "share or rank field collides with %q", shareField(r))
		}
	}

	for _, h := range spec.Highlights {
		if h.Kind != Max && h.Kind != Min {
			return nil, invalidRequest(op, "unknown highlight kind %q", h.Kind)
		}
		if !requested(h.Metric) {
			return nil, invalidRequest(op, "highlight uses metric %q which is not requested", h.Metric)
		}
	}

	return p, nil
}

func shareField(r *RankSpec) string {
	if r.ShareAs != "" {
		return r.ShareAs
	}
	return "SharePercent"
}

// ============================================================================
// HAVING
// ============================================================================

var comparators = map[string]func(c int) bool{
	OpGT:  func(c int) bool { return c > 0 },
	OpGTE: func(c int) bool { return c >= 0 },
	OpLT:  func(c int) bool { return c < 0 },
	OpLTE: func(c int) bool { return c <= 0 },
	OpEQ:  func(c int) bool { return c == 0 },
	OpNE:  func(c int) bool { return c != 0 },
}

func applyHaving(groups []Group, conditions []Condition) []Group {
	if len(conditions) == 0 {
		return groups
	}
	kept := make([]Group, 0, len(groups))
	for _, g := range groups {
		if satisfies(g, conditions) {
			kept = append(kept, g)
		}
	}
	return kept
}

func satisfies(g Group, conditions []Condition) bool {
	for _, c := range conditions {
		cmp := g.value(c.Metric).Cmp(decimal.NewFromFloat(c.Value))
		if !comparators[c.Op](cmp) {
			return false
		}
	}
	return true
}
