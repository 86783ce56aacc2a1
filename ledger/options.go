package ledger

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ============================================================================
// NORMALIZER OPTIONS — Functional options for NewNormalizer()
// ============================================================================

// DefaultTimeLayouts are tried in order when parsing InvoiceDate.
// The first two match the month/day/year export of the source system.
var DefaultTimeLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Option configures a Normalizer.
type Option func(*config)

type config struct {
	layouts          []string
	location         *time.Location
	strictTimestamps bool
	dropReturns      bool
	logger           zerolog.Logger
}

// WithTimeLayouts replaces the InvoiceDate layouts.
func WithTimeLayouts(layouts ...string) Option {
	return func(c *config) {
		c.layouts = layouts
	}
}

// WithLocation sets the zone used for timestamps without an offset.
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithStrictTimestamps makes an unparsable InvoiceDate abort the pass with
// a *ParseError instead of dropping the row.
func WithStrictTimestamps() Option {
	return func(c *config) {
		c.strictTimestamps = true
	}
}

// WithDropReturns discards rows with a negative quantity.
func WithDropReturns() Option {
	return func(c *config) {
		c.dropReturns = true
	}
}

// WithLogger sets the logger for pass summaries.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		layouts:  DefaultTimeLayouts,
		location: time.UTC,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
