package helpers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spektr-org/retailscope/ledger"
)

// Querier is the subset of *pgx.Conn, *pgxpool.Pool and pgx.Tx used to
// load ledger rows.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadRowsFromPostgres reads every row of table as raw ledger rows.
// The table's column names are resolved like CSV headers; each resolved
// column is selected as text, and NULL cells are left out of the row.
// table may be schema-qualified ("public.online_retail").
func LoadRowsFromPostgres(ctx context.Context, q Querier, table string, opts ...Option) ([]ledger.RawRow, error) {
	cfg := applyOptions(opts)
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()

	// Discover column names without fetching data
	rows, err := q.Query(ctx, "SELECT * FROM "+ident+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	fields := rows.FieldDescriptions()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Name
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}

	mapping, err := cfg.schema.ResolveHeaders(headers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}

	positions := make([]int, 0, len(mapping))
	for pos := range mapping {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	names := make([]string, len(positions))
	selects := make([]string, len(positions))
	for i, pos := range positions {
		names[i] = mapping[pos]
		selects[i] = pgx.Identifier{headers[pos]}.Sanitize() + "::text"
	}

	sql := "SELECT " + strings.Join(selects, ", ") + " FROM " + ident
	rows, err = q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var result []ledger.RawRow
	values := make([]*string, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(ledger.RawRow, len(names))
		for i, v := range values {
			if v != nil {
				row[names[i]] = *v
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}

	cfg.logger.Info().
		Str("table", table).
		Int("rows", len(result)).
		Msg("🐘 Loaded ledger rows from Postgres")

	return result, nil
}
