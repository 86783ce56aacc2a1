package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spektr-org/retailscope/schema"
)

// ============================================================================
// NORMALIZER — Raw rows → typed, enriched LineItems
// ============================================================================
// Pipeline per pass:
//   1. Drop exact-duplicate raw rows (first occurrence wins)
//   2. Parse Quantity (integer) and UnitPrice (decimal); drop on failure
//   3. Parse InvoiceDate; drop on failure (or abort in strict mode)
//   4. Optionally drop returns (negative quantity)
//   5. Derive TotalAmount and calendar fields once
//
// Drops are silent for the row but never for the pass: every discarded
// row is counted in Stats.
// ============================================================================

var errEmpty = errors.New("empty value")

// Normalizer turns raw ledger rows into LineItems.
// A Normalizer holds no per-pass state and is safe for concurrent use.
type Normalizer struct {
	cfg *config
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	return &Normalizer{cfg: applyOptions(opts)}
}

// Normalize runs one normalization pass. rows is only read.
func (n *Normalizer) Normalize(rows []RawRow) (*Batch, error) {
	stats := Stats{InputRows: len(rows)}
	items := make([]LineItem, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			stats.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}

		qty, err := parseQuantity(row[schema.ColQuantity])
		if err != nil {
			stats.DroppedQuantity++
			continue
		}
		price, err := parseDecimal(row[schema.ColUnitPrice])
		if err != nil {
			stats.DroppedUnitPrice++
			continue
		}
		ts, err := n.parseTimestamp(row[schema.ColInvoiceDate])
		if err != nil {
			if n.cfg.strictTimestamps {
				return nil, &ParseError{Row: i, Column: schema.ColInvoiceDate, Value: row[schema.ColInvoiceDate], Err: err}
			}
			stats.DroppedTimestamp++
			continue
		}
		if n.cfg.dropReturns && qty < 0 {
			stats.DroppedReturns++
			continue
		}

		items = append(items, newLineItem(row, qty, price, ts))
	}

	stats.Kept = len(items)

	n.cfg.logger.Info().
		Int("input", stats.InputRows).
		Int("duplicates", stats.DuplicateRows).
		Int("dropped", stats.Dropped()).
		Int("kept", stats.Kept).
		Msg("📊 Normalized ledger")
	if stats.Dropped() > 0 {
		n.cfg.logger.Debug().
			Int("quantity", stats.DroppedQuantity).
			Int("unit_price", stats.DroppedUnitPrice).
			Int("timestamp", stats.DroppedTimestamp).
			Int("returns", stats.DroppedReturns).
			Msg("⚠️ Dropped ledger rows")
	}

	return &Batch{Items: items, Stats: stats}, nil
}

// newLineItem builds a LineItem and derives every computed field.
// TotalAmount is always Quantity * UnitPrice; any amount column in the
// source is ignored.
func newLineItem(row RawRow, qty int64, price decimal.Decimal, ts time.Time) LineItem {
	customer := strings.TrimSpace(row[schema.ColCustomerID])
	return LineItem{
		InvoiceID:   strings.TrimSpace(row[schema.ColInvoiceNo]),
		CustomerID:  customer,
		HasCustomer: customer != "",
		Country:     strings.TrimSpace(row[schema.ColCountry]),
		Description: strings.TrimSpace(row[schema.ColDescription]),
		Quantity:    qty,
		UnitPrice:   price,
		Timestamp:   ts,

		TotalAmount: decimal.NewFromInt(qty).Mul(price),
		YearMonth:   ts.Format("2006-01"),
		DateOnly:    ts.Format("2006-01-02"),
		DayName:     ts.Weekday().String(),
		Hour:        ts.Hour(),
		MonthName:   ts.Month().String(),
	}
}

// rowKey builds the identity of a raw row over all of its fields.
func rowKey(row RawRow) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('\x1e')
		b.WriteString(row[k])
		b.WriteByte('\x1f')
	}
	return b.String()
}

// parseQuantity accepts integers and integral decimals ("3", "-2", "3.0")
// that fit in an int64.
func parseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	if q, err := strconv.ParseInt(s, 10, 64); err == nil {
		return q, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity %s is not a whole number", s)
	}
	if !d.BigInt().IsInt64() {
		return 0, fmt.Errorf("quantity %s is out of range", s)
	}
	return d.IntPart(), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errEmpty
	}
	return decimal.NewFromString(s)
}

func (n *Normalizer) parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmpty
	}
	for _, layout := range n.cfg.layouts {
		if t, err := time.ParseInLocation(layout, s, n.cfg.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matches %q", s)
}
