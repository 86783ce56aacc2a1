package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/retailscope/engine"
	"github.com/spektr-org/retailscope/ledger"
)

// ============================================================================
// REPORT BUILDER — Evaluates every panel of a dashboard over one ledger
// ============================================================================
// Panels run concurrently over the same read-only ledger. A panel that
// finds nothing to rank or highlight records the error and the report
// carries on; an invalid panel definition aborts the whole build.
// ============================================================================

// Option configures Build.
type Option func(*options)

type options struct {
	concurrency int
	logger      zerolog.Logger
	engineOpts  []engine.Option
	ingestion   *ledger.Stats
	now         func() time.Time
}

// WithConcurrency bounds the number of panels evaluated at once (default 4).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger for build progress.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEngineOptions passes options through to every engine call.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// WithIngestion attaches the normalization stats of the ledger to the report.
func WithIngestion(stats ledger.Stats) Option {
	return func(o *options) { o.ingestion = &stats }
}

// Overview holds ledger-wide totals.
type Overview struct {
	Records   int             `json:"records"`
	Revenue   decimal.Decimal `json:"revenue"`
	Invoices  int64           `json:"invoices"`
	Customers int64           `json:"customers"`
	Countries int             `json:"countries"`
	Products  int             `json:"products"`
}

// PanelResult is the outcome of one (possibly expanded) panel.
type PanelResult struct {
	*engine.Result
	Panel string `json:"panel"`
	Value string `json:"value,omitempty"` // Each value for expanded panels
	Error string `json:"error,omitempty"`
}

// Report is a complete dashboard evaluation.
type Report struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Currency    string        `json:"currency,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Period      string        `json:"period"`
	Ingestion   *ledger.Stats `json:"ingestion,omitempty"`
	Overview    Overview      `json:"overview"`
	Panels      []PanelResult `json:"panels"`
}

// job is one engine query derived from a panel.
type job struct {
	panel string
	value string
	spec  engine.QuerySpec
}

// Build evaluates cfg over items.
func Build(ctx context.Context, cfg *Config, items []ledger.LineItem, opts ...Option) (*Report, error) {
	o := &options{
		concurrency: 4,
		logger:      log.Logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	engineOpts := append([]engine.Option{engine.WithLogger(o.logger)}, o.engineOpts...)
	if cfg.Currency != "" {
		engineOpts = append(engineOpts, engine.WithCurrency(cfg.Currency))
	}

	if err := cfg.Validate(engineOpts...); err != nil {
		return nil, err
	}

	view := engine.NewSliceView(items)
	overview, err := buildOverview(view, engineOpts)
	if err != nil {
		return nil, err
	}

	jobs, err := expand(cfg, view, engineOpts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:          uuid.New(),
		Title:       cfg.Title,
		Currency:    cfg.Currency,
		GeneratedAt: o.now().UTC(),
		Period:      engine.DerivePeriod(view),
		Ingestion:   o.ingestion,
		Overview:    overview,
		Panels:      make([]PanelResult, len(jobs)),
	}

	o.logger.Info().
		Str("report", report.ID.String()).
		Int("panels", len(jobs)).
		Int("records", view.Len()).
		Msg("🚀 Building dashboard")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := PanelResult{Panel: j.panel, Value: j.value}
			result, err := engine.Execute(j.spec, view, engineOpts...)
			switch {
			case err == nil:
				res.Result = result
			case errors.Is(err, engine.ErrEmptyResult):
				o.logger.Warn().Str("panel", j.spec.Name).Err(err).Msg("⚠️ Panel has no data")
				res.Error = err.Error()
			default:
				return fmt.Errorf("panel %s: %w", j.spec.Name, err)
			}
			report.Panels[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("report", report.ID.String()).
		Msg("✅ Dashboard ready")

	return report, nil
}

// expand turns panels into jobs, fanning out panels with Each.
func expand(cfg *Config, view engine.RecordView, engineOpts []engine.Option) ([]job, error) {
	cat := engine.CatalogOf(engineOpts...)

	var jobs []job
	for _, p := range cfg.Panels {
		if p.Each == "" {
			jobs = append(jobs, job{panel: p.Name, spec: p.QuerySpec})
			continue
		}

		values, err := eachValues(cat, p, view, engineOpts)
		if err != nil {
			return nil, fmt.Errorf("panel %s: %w", p.Name, err)
		}
		for _, v := range values {
			spec := p.QuerySpec
			spec.Name = p.Name + "/" + v
			spec.Title = fmt.Sprintf("%s (%s)", p.Title, v)
			spec.Filters = p.Filters.With(p.Each, v)
			jobs = append(jobs, job{panel: p.Name, value: v, spec: spec})
		}
	}
	return jobs, nil
}

// eachValues lists the values of p.Each present after p's filters: canonical
// order for periodic dimensions, first-seen order otherwise.
func eachValues(cat *engine.Catalog, p Panel, view engine.RecordView, engineOpts []engine.Option) ([]string, error) {
	dim, ok := cat.LookupDimension(p.Each)
	if !ok {
		return nil, fmt.Errorf("%w: unknown each dimension %q", engine.ErrInvalidRequest, p.Each)
	}

	filtered, err := engine.ApplyFilters(view, p.Filters, engineOpts...)
	if err != nil {
		return nil, err
	}
	present := engine.UniqueValues(filtered, dim)
	if !dim.Periodic() {
		return present, nil
	}

	seen := make(map[string]bool, len(present))
	for _, v := range present {
		seen[v] = true
	}
	ordered := make([]string, 0, len(present))
	for _, v := range dim.Domain {
		if seen[v] {
			ordered = append(ordered, v)
		}
	}
	return ordered, nil
}

func buildOverview(view engine.RecordView, engineOpts []engine.Option) (Overview, error) {
	ov := Overview{Records: view.Len(), Revenue: decimal.Zero}
	if view.Len() == 0 {
		return ov, nil
	}

	groups, err := engine.Aggregate(view, engine.AggregateSpec{
		Metrics: []engine.Metric{engine.MetricRevenue, engine.MetricInvoices, engine.MetricCustomers},
	}, engineOpts...)
	if err != nil {
		return ov, err
	}
	total := groups[0].Metrics
	ov.Revenue = total[engine.MetricRevenue]
	ov.Invoices = total[engine.MetricInvoices].IntPart()
	ov.Customers = total[engine.MetricCustomers].IntPart()

	cat := engine.CatalogOf(engineOpts...)
	if d, ok := cat.LookupDimension(engine.DimCountry); ok {
		ov.Countries = len(engine.UniqueValues(view, d))
	}
	if d, ok := cat.LookupDimension(engine.DimProduct); ok {
		ov.Products = len(engine.UniqueValues(view, d))
	}
	return ov, nil
}
