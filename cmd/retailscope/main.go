package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spektr-org/retailscope/dashboard"
	"github.com/spektr-org/retailscope/engine"
	"github.com/spektr-org/retailscope/helpers"
	"github.com/spektr-org/retailscope/ledger"
	"github.com/spektr-org/retailscope/schema"
)

// ============================================================================
// RETAILSCOPE CLI — Sales dashboards from a transaction ledger
// ============================================================================

const version = "0.1.0"

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	filePath := flag.String("file", "", "Path to ledger CSV (default: Postgres via DATABASE_URL)")
	encoding := flag.String("encoding", "utf-8", "CSV encoding: utf-8, latin1")
	configPath := flag.String("config", "", "Path to dashboard YAML (default: built-in dashboard)")
	panels := flag.String("panel", "", "Comma-separated panel names to run (default: all)")
	format := flag.String("format", "json", "Output format: json, pretty, csv, text")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	strict := flag.Bool("strict-timestamps", false, "Fail on unparsable InvoiceDate instead of dropping the row")
	dropReturns := flag.Bool("drop-returns", false, "Discard lines with a negative quantity")
	concurrency := flag.Int("concurrency", 4, "Panels evaluated in parallel")
	verbose := flag.Bool("verbose", false, "Debug logging")
	list := flag.Bool("list", false, "Print ledger columns, dimensions, metrics and panels, then exit")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `RetailScope — Sales dashboards from a transaction ledger

Usage:
  retailscope --file online_retail.csv --encoding latin1 --format pretty
  retailscope --file online_retail.csv --panel top_countries,monthly_trend --format csv --out report.csv
  retailscope --config configs/dashboard.example.yaml --format text
  retailscope --config configs/dashboard.example.yaml --list

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment (also read from .env):
  DATABASE_URL         Postgres connection string, used when --file is not given
  RETAILSCOPE_TABLE    Ledger table name (default: transactions)

Formats:
  json      Full report as JSON (default)
  pretty    Pretty-printed JSON
  csv       Panel tables as CSV blocks (ready for Sheets/Excel)
  text      Highlights and tables for the terminal
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("retailscope %s\n", version)
		os.Exit(0)
	}

	setupLogging(*verbose)
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("📦 Loaded .env")
	}

	switch *format {
	case "json", "pretty", "csv", "text":
	default:
		fatalf("unknown format %q", *format)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// ── Dashboard ─────────────────────────────────────────────────────────
	cfg := dashboard.DefaultConfig()
	if *configPath != "" {
		loaded, err := dashboard.LoadConfig(*configPath)
		if err != nil {
			fatalf("Failed to load dashboard config: %v", err)
		}
		cfg = loaded
	}
	if *panels != "" {
		selected, err := cfg.Select(splitList(*panels)...)
		if err != nil {
			fatalf("%v", err)
		}
		cfg = selected
	}

	if *list {
		writeCatalog(os.Stdout, cfg)
		return
	}

	// ── Output writer ─────────────────────────────────────────────────────
	writer := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}

	// ── Read ledger ───────────────────────────────────────────────────────
	rows, err := loadRows(ctx, *filePath, *encoding)
	if err != nil {
		fatalf("Failed to load ledger: %v", err)
	}

	var normOpts []ledger.Option
	if *strict {
		normOpts = append(normOpts, ledger.WithStrictTimestamps())
	}
	if *dropReturns {
		normOpts = append(normOpts, ledger.WithDropReturns())
	}
	batch, err := ledger.NewNormalizer(normOpts...).Normalize(rows)
	if err != nil {
		fatalf("Normalization failed: %v", err)
	}

	// ── Build ─────────────────────────────────────────────────────────────
	report, err := dashboard.Build(ctx, cfg, batch.Items,
		dashboard.WithConcurrency(*concurrency),
		dashboard.WithIngestion(batch.Stats),
	)
	if err != nil {
		fatalf("Dashboard failed: %v", err)
	}

	// ── Render output ─────────────────────────────────────────────────────
	switch *format {
	case "csv":
		writeCSV(writer, report)
	case "text":
		writeText(writer, report)
	default:
		writeJSON(writer, report, *format)
	}
	if *outFile != "" {
		log.Info().Str("path", *outFile).Str("format", *format).Msg("📄 Report written")
	}
}

func setupLogging(verbose bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

// loadRows reads the ledger from a CSV file, or from Postgres when no file
// is given.
func loadRows(ctx context.Context, path, encoding string) ([]ledger.RawRow, error) {
	if path != "" {
		enc, err := helpers.EncodingOption(encoding)
		if err != nil {
			return nil, err
		}
		data, err := helpers.LoadFile(path, enc)
		if err != nil {
			return nil, err
		}
		if data.Malformed > 0 {
			log.Warn().Int("lines", data.Malformed).Msg("⚠️ Skipped malformed CSV lines")
		}
		return data.Rows, nil
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("--file or DATABASE_URL is required")
	}
	table := os.Getenv("RETAILSCOPE_TABLE")
	if table == "" {
		table = "transactions"
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	return helpers.LoadRowsFromPostgres(ctx, conn, table)
}

// ============================================================================
// CSV OUTPUT — One block per panel: title line, header, rows
// ============================================================================

func writeCSV(w io.Writer, report *dashboard.Report) {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, p := range report.Panels {
		if i > 0 {
			cw.Write(nil)
		}
		if p.Result == nil {
			cw.Write([]string{p.Panel, p.Error})
			continue
		}
		cw.Write([]string{panelTitle(p)})
		cw.Write(p.Table.Columns)
		for _, row := range p.Table.Rows {
			cw.Write(rowCells(p.Table.Columns, row))
		}
	}
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

func writeText(w io.Writer, report *dashboard.Report) {
	ov := report.Overview
	fmt.Fprintf(w, "%s\n%s\n\n", report.Title, report.Period)
	fmt.Fprintf(w, "Records: %d  Revenue: %s  Invoices: %d  Customers: %d  Countries: %d  Products: %d\n",
		ov.Records, engine.FormatMoney(ov.Revenue, report.Currency), ov.Invoices, ov.Customers, ov.Countries, ov.Products)

	for _, p := range report.Panels {
		fmt.Fprintln(w)
		if p.Result == nil {
			fmt.Fprintf(w, "## %s\n%s\n", p.Panel, p.Error)
			continue
		}
		fmt.Fprintf(w, "## %s\n", panelTitle(p))
		for _, h := range p.Highlights {
			fmt.Fprintf(w, "  * %s\n", h.Text)
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(p.Table.Columns, "\t"))
		for _, row := range p.Table.Rows {
			fmt.Fprintln(tw, strings.Join(rowCells(p.Table.Columns, row), "\t"))
		}
		tw.Flush()
	}
}

// ============================================================================
// CATALOG LISTING — What a dashboard config can refer to
// ============================================================================

func writeCatalog(w io.Writer, cfg *dashboard.Config) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	sch := schema.Ledger()
	fmt.Fprintln(tw, "COLUMN\tKIND\tREQUIRED\tDESCRIPTION")
	for _, name := range sch.Names() {
		col, _ := sch.Column(name)
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", col.Name, col.Kind, col.Required, col.Description)
	}

	cat := engine.CatalogOf()
	fmt.Fprintln(tw, "\nDIMENSION\tFIELD\tBUCKETS")
	for _, id := range cat.Dimensions() {
		d, _ := cat.LookupDimension(id)
		buckets := "-"
		if d.Periodic() {
			buckets = strconv.Itoa(len(d.Domain))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Field, buckets)
	}

	fmt.Fprintln(tw, "\nMETRIC\tFIELD")
	for _, id := range cat.Metrics() {
		m, _ := cat.LookupMetric(id)
		fmt.Fprintf(tw, "%s\t%s\n", m.ID, m.Field)
	}

	fmt.Fprintln(tw, "\nPANEL\tEACH\tTITLE")
	for _, p := range cfg.Panels {
		each := "-"
		if p.Each != "" {
			each = string(p.Each)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, each, p.Title)
	}
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

// ============================================================================
// HELPERS
// ============================================================================

func panelTitle(p dashboard.PanelResult) string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

func rowCells(columns []string, row engine.Row) []string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = fmtCell(row[c])
	}
	return cells
}

func fmtCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return fmtNum(x)
	default:
		return fmt.Sprint(x)
	}
}

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
