package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ============================================================================
// TEXT BUILDER — Highlight sentences and period labels
// ============================================================================
// Placeholders:
//   {dimension_value}  key of the extreme group ("United Kingdom")
//   {metric_value}     formatted value ("£1,234.50", "1,204")
//   {metric_name}      output field name ("TotalRevenue")
//   {currency}         unit passed by the caller
// ============================================================================

const (
	defaultMaxTemplate = "Highest {metric_name}: {dimension_value} ({metric_value})"
	defaultMinTemplate = "Lowest {metric_name}: {dimension_value} ({metric_value})"
)

// RenderHighlight substitutes an insight into template. An empty template
// falls back to a default sentence for the insight's kind. A non-empty unit
// marks the value as money.
func RenderHighlight(template string, in Insight, unit string) string {
	if template == "" {
		template = defaultMaxTemplate
		if in.Kind == Min {
			template = defaultMinTemplate
		}
	}

	value := FormatNumber(in.MetricValue)
	if unit != "" {
		value = FormatMoney(in.MetricValue, unit)
	}

	replacements := map[string]string{
		"{dimension_value}": in.DimensionValue,
		"{metric_value}":    value,
		"{metric_name}":     in.MetricName,
		"{currency}":        unit,
	}

	result := template
	for placeholder, v := range replacements {
		result = strings.ReplaceAll(result, placeholder, v)
	}

	// Safety net: strip unresolved placeholders
	return stripUnresolvedPlaceholders(result)
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return text
	}
	return cleaned
}

// ============================================================================
// NUMBER FORMATTING
// ============================================================================

// FormatNumber renders whole numbers with digit grouping ("12,345") and
// anything else with two decimals ("1,234.57").
func FormatNumber(v decimal.Decimal) string {
	if v.IsInteger() {
		return groupDecimal(v, 0)
	}
	return groupDecimal(v, 2)
}

// FormatMoney renders an amount with unit prefix and two decimals ("£1,234.50").
func FormatMoney(v decimal.Decimal, unit string) string {
	s := groupDecimal(v.Abs(), 2)
	if v.Round(2).IsNegative() {
		return "-" + unit + s
	}
	return unit + s
}

// groupDecimal formats v rounded to places decimals, grouping the integer
// part with English separators.
func groupDecimal(v decimal.Decimal, places int32) string {
	r := v.Round(places)
	negative := r.IsNegative()
	r = r.Abs()

	whole := r.IntPart()
	p := message.NewPrinter(language.English)
	s := p.Sprintf("%d", whole)
	if places > 0 {
		frac := r.Sub(decimal.NewFromInt(whole)).Shift(places).IntPart()
		s += fmt.Sprintf(".%0*d", int(places), frac)
	}
	if negative {
		s = "-" + s
	}
	return s
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable period string from a view:
// "No data", a single "2011-01", or "2010-12 – 2011-12".
func DerivePeriod(view RecordView) string {
	if view.Len() == 0 {
		return "No data"
	}

	var earliest, latest string
	for i := 0; i < view.Len(); i++ {
		m := view.At(i).YearMonth
		if m == "" {
			continue
		}
		if earliest == "" || m < earliest {
			earliest = m
		}
		if latest == "" || m > latest {
			latest = m
		}
	}

	switch {
	case earliest == "":
		return "All time"
	case earliest == latest:
		return earliest
	default:
		return fmt.Sprintf("%s – %s", earliest, latest)
	}
}
