package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// ============================================================================
// HEADER RESOLUTION — Maps raw header cells onto canonical column names
// ============================================================================
// Exports from spreadsheets and databases rarely agree on header spelling:
// "InvoiceNo", "invoice_no", "Invoice No" and a BOM-prefixed "InvoiceNo"
// all name the same column. Matching ignores case, separators and a
// leading byte-order mark.
// ============================================================================

// MissingColumnsError is returned when required columns are absent.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("ledger is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ResolveHeaders maps header positions to canonical column names.
// Unknown headers are left out of the mapping. The first header matching a
// column wins; later duplicates are ignored.
func (c Config) ResolveHeaders(headers []string) (map[int]string, error) {
	byKey := make(map[string]string, len(c.Columns))
	for _, col := range c.Columns {
		byKey[headerKey(col.Name)] = col.Name
	}

	mapping := make(map[int]string, len(headers))
	found := make(map[string]bool, len(c.Columns))
	for i, h := range headers {
		name, ok := byKey[headerKey(h)]
		if !ok || found[name] {
			continue
		}
		mapping[i] = name
		found[name] = true
	}

	var missing []string
	for _, name := range c.RequiredNames() {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return mapping, nil
}

// headerKey reduces a header to its comparison form.
// "Invoice No" → "invoiceno", "\ufeffCustomerID" → "customerid"
func headerKey(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
