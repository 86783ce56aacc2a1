package schema

// ============================================================================
// SCHEMA — Describes the shape of the retail ledger
// ============================================================================
// The ledger layout is fixed: seven columns, one row per invoice line item.
// Readers (CSV, Postgres) use this to locate columns; the normalizer uses
// the column names as RawRow keys.
// ============================================================================

// Canonical ledger column names.
const (
	ColInvoiceNo   = "InvoiceNo"
	ColCustomerID  = "CustomerID"
	ColCountry     = "Country"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColUnitPrice   = "UnitPrice"
	ColInvoiceDate = "InvoiceDate"
)

// Column kinds.
const (
	KindText      = "text"
	KindInteger   = "integer"
	KindDecimal   = "decimal"
	KindTimestamp = "timestamp"
)

// Config describes the complete shape of a ledger source.
type Config struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []Column `json:"columns"`
}

// Column describes one ledger column.
type Column struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Kind        string `json:"kind"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// Ledger returns the schema of the transactional retail ledger.
// CustomerID is the only optional column: guest checkouts leave it blank.
func Ledger() Config {
	return Config{
		Name:        "Retail Ledger",
		Description: "One row per invoice line item",
		Columns: []Column{
			{Name: ColInvoiceNo, DisplayName: "Invoice", Kind: KindText, Required: true,
				Description: "Invoice identifier, shared by all lines of one invoice"},
			{Name: ColCustomerID, DisplayName: "Customer", Kind: KindText,
				Description: "Customer identifier, blank for guest transactions"},
			{Name: ColCountry, DisplayName: "Country", Kind: KindText, Required: true},
			{Name: ColDescription, DisplayName: "Product", Kind: KindText, Required: true},
			{Name: ColQuantity, DisplayName: "Quantity", Kind: KindInteger, Required: true,
				Description: "Units sold, negative for returns"},
			{Name: ColUnitPrice, DisplayName: "Unit Price", Kind: KindDecimal, Required: true},
			{Name: ColInvoiceDate, DisplayName: "Invoice Date", Kind: KindTimestamp, Required: true},
		},
	}
}

// Names returns all column names in declaration order.
func (c Config) Names() []string {
	names := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		names[i] = col.Name
	}
	return names
}

// RequiredNames returns the names of required columns.
func (c Config) RequiredNames() []string {
	var names []string
	for _, col := range c.Columns {
		if col.Required {
			names = append(names, col.Name)
		}
	}
	return names
}

// Column looks up a column by canonical name.
func (c Config) Column(name string) (Column, bool) {
	for _, col := range c.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}
