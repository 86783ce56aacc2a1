package engine

import (
	"github.com/shopspring/decimal"
)

// ============================================================================
// TABLE BUILDER — Flat records with stable field names
// ============================================================================
// Column order: dimension fields, Rank (ranked queries), metric fields,
// share field (ranked queries). Cells are plain JSON-friendly values:
// string keys, int hours, int64 counts, float64 amounts.
// ============================================================================

// Row is one flat output record keyed by field name.
type Row map[string]any

// Table is an ordered set of rows sharing the same columns.
type Table struct {
	Title   string   `json:"title,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type metricColumn struct {
	def   MetricDef
	field string
}

func buildTable(title string, dims []Dimension, cols []metricColumn, groups []Group) *Table {
	t := &Table{
		Title:   title,
		Columns: columnNames(dims, cols, ""),
		Rows:    make([]Row, 0, len(groups)),
	}
	for _, g := range groups {
		t.Rows = append(t.Rows, groupRow(g, dims, cols))
	}
	return t
}

func buildRankedTable(title string, dims []Dimension, cols []metricColumn, ranked *RankedView, share string) *Table {
	t := &Table{
		Title:   title,
		Columns: columnNames(dims, cols, share),
		Rows:    make([]Row, 0, len(ranked.Groups)),
	}
	for _, rg := range ranked.Groups {
		row := groupRow(rg.Group, dims, cols)
		row["Rank"] = rg.Rank
		row[share] = rg.SharePercent.InexactFloat64()
		t.Rows = append(t.Rows, row)
	}
	return t
}

func columnNames(dims []Dimension, cols []metricColumn, share string) []string {
	names := make([]string, 0, len(dims)+len(cols)+2)
	for _, d := range dims {
		names = append(names, d.Field)
	}
	if share != "" {
		names = append(names, "Rank")
	}
	for _, c := range cols {
		names = append(names, c.field)
	}
	if share != "" {
		names = append(names, share)
	}
	return names
}

func groupRow(g Group, dims []Dimension, cols []metricColumn) Row {
	row := make(Row, len(dims)+len(cols)+2)
	for i, d := range dims {
		row[d.Field] = d.cell(g.Key.Values[i])
	}
	for _, c := range cols {
		row[c.field] = metricCell(c.def, g.value(c.def.ID))
	}
	return row
}

// metricCell converts a metric to its output value.
func metricCell(def MetricDef, v decimal.Decimal) any {
	switch {
	case def.Integral && v.BigInt().IsInt64():
		return v.IntPart()
	case def.Money:
		return v.Round(2).InexactFloat64()
	default:
		return v.InexactFloat64()
	}
}
