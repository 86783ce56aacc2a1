package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// LEDGER TYPES — Raw rows in, typed line items out
// ============================================================================

// RawRow is one untyped ledger row keyed by canonical column name
// (see schema.Ledger). Missing keys read as empty strings.
type RawRow map[string]string

// LineItem is one product line of one invoice, typed and enriched.
// LineItems are values: nothing in this module mutates one after
// normalization.
type LineItem struct {
	InvoiceID   string          `json:"invoiceId"`
	CustomerID  string          `json:"customerId,omitempty"`
	HasCustomer bool            `json:"hasCustomer"`
	Country     string          `json:"country"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Timestamp   time.Time       `json:"timestamp"`

	// Derived at normalization time from Quantity, UnitPrice and Timestamp.
	TotalAmount decimal.Decimal `json:"totalAmount"`
	YearMonth   string          `json:"yearMonth"` // "2011-01"
	DateOnly    string          `json:"dateOnly"`  // "2011-01-04"
	DayName     string          `json:"dayName"`   // "Tuesday"
	Hour        int             `json:"hour"`
	MonthName   string          `json:"monthName"` // "January"
}

// Batch is the output of one normalization pass.
type Batch struct {
	Items []LineItem `json:"items"`
	Stats Stats      `json:"stats"`
}

// Stats accounts for every input row of a normalization pass.
// Kept + Dropped() == InputRows - DuplicateRows.
type Stats struct {
	InputRows        int `json:"inputRows"`
	DuplicateRows    int `json:"duplicateRows"`
	DroppedQuantity  int `json:"droppedQuantity"`
	DroppedUnitPrice int `json:"droppedUnitPrice"`
	DroppedTimestamp int `json:"droppedTimestamp"`
	DroppedReturns   int `json:"droppedReturns"`
	Kept             int `json:"kept"`
}

// Dropped returns the number of unique rows discarded for any reason.
func (s Stats) Dropped() int {
	return s.DroppedQuantity + s.DroppedUnitPrice + s.DroppedTimestamp + s.DroppedReturns
}
