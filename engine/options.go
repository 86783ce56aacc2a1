package engine

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute() and friends
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	catalog  *Catalog
	logger   zerolog.Logger
	currency string // symbol used by highlights and {currency}
}

// WithCatalog replaces the default dimension/metric catalog.
func WithCatalog(c *Catalog) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.catalog = c
		}
	}
}

// WithLogger sets the logger for pipeline diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithCurrency sets the currency symbol for rendered money values (default "£").
func WithCurrency(symbol string) Option {
	return func(cfg *config) {
		cfg.currency = symbol
	}
}

// CatalogOf returns the catalog selected by opts.
func CatalogOf(opts ...Option) *Catalog {
	return applyOptions(opts).catalog
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		catalog:  defaultCatalog,
		logger:   log.Logger,
		currency: "£",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
