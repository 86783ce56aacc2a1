package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerColumns(t *testing.T) {
	sch := Ledger()

	assert.Equal(t, []string{
		ColInvoiceNo, ColCustomerID, ColCountry, ColDescription,
		ColQuantity, ColUnitPrice, ColInvoiceDate,
	}, sch.Names())

	assert.NotContains(t, sch.RequiredNames(), ColCustomerID, "CustomerID is optional")
	assert.Len(t, sch.RequiredNames(), 6)

	col, ok := sch.Column(ColUnitPrice)
	require.True(t, ok)
	assert.Equal(t, KindDecimal, col.Kind)

	_, ok = sch.Column("StockCode")
	assert.False(t, ok)
}

func TestResolveHeadersCanonical(t *testing.T) {
	headers := []string{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"}

	mapping, err := Ledger().ResolveHeaders(headers)
	require.NoError(t, err)

	assert.Equal(t, map[int]string{
		0: ColInvoiceNo,
		2: ColDescription,
		3: ColQuantity,
		4: ColInvoiceDate,
		5: ColUnitPrice,
		6: ColCustomerID,
		7: ColCountry,
	}, mapping, "StockCode is not a ledger column")
}

func TestResolveHeadersLooseSpelling(t *testing.T) {
	headers := []string{"\ufeffinvoice_no", " Customer ID ", "COUNTRY", "description", "quantity", "Unit-Price", "invoice date"}

	mapping, err := Ledger().ResolveHeaders(headers)
	require.NoError(t, err)
	assert.Len(t, mapping, 7)
	assert.Equal(t, ColInvoiceNo, mapping[0])
	assert.Equal(t, ColCustomerID, mapping[1])
	assert.Equal(t, ColUnitPrice, mapping[5])
	assert.Equal(t, ColInvoiceDate, mapping[6])
}

func TestResolveHeadersDuplicateKeepsFirst(t *testing.T) {
	headers := []string{"InvoiceNo", "Country", "Description", "Quantity", "UnitPrice", "InvoiceDate", "country"}

	mapping, err := Ledger().ResolveHeaders(headers)
	require.NoError(t, err)
	assert.Equal(t, ColCountry, mapping[1])
	_, dup := mapping[6]
	assert.False(t, dup)
}

func TestResolveHeadersMissingRequired(t *testing.T) {
	_, err := Ledger().ResolveHeaders([]string{"InvoiceNo", "Country", "Description"})
	require.Error(t, err)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{ColQuantity, ColUnitPrice, ColInvoiceDate}, missing.Missing)
	assert.Contains(t, err.Error(), "Quantity, UnitPrice, InvoiceDate")
}

func TestResolveHeadersOptionalCustomerMissing(t *testing.T) {
	_, err := Ledger().ResolveHeaders([]string{"InvoiceNo", "Country", "Description", "Quantity", "UnitPrice", "InvoiceDate"})
	assert.NoError(t, err)
}

func TestHeaderKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"InvoiceNo", "invoiceno"},
		{"Invoice No", "invoiceno"},
		{"invoice_no", "invoiceno"},
		{"Unit-Price", "unitprice"},
		{"\ufeffCustomerID", "customerid"},
		{"  Country  ", "country"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, headerKey(tt.input), tt.input)
	}
}
