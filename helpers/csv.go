package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"

	"github.com/spektr-org/retailscope/ledger"
	"github.com/spektr-org/retailscope/schema"
)

// ============================================================================
// CSV HELPER — Parses a ledger export into []ledger.RawRow
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, HTTP upload).
// This helper maps header cells onto canonical column names using the
// schema and keeps cell text as-is; typing happens in ledger.Normalizer.
// ============================================================================

// Option configures the row loaders.
type Option func(*config)

type config struct {
	schema schema.Config
	latin1 bool
	comma  rune
	logger zerolog.Logger
}

// WithSchema replaces the ledger column schema.
func WithSchema(s schema.Config) Option {
	return func(c *config) { c.schema = s }
}

// WithLatin1 decodes the input as ISO-8859-1 instead of UTF-8.
func WithLatin1() Option {
	return func(c *config) { c.latin1 = true }
}

// WithComma sets the field delimiter (default ',').
func WithComma(r rune) Option {
	return func(c *config) { c.comma = r }
}

// WithLogger sets the logger for load summaries.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		schema: schema.Ledger(),
		comma:  ',',
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Encoding names accepted by EncodingOption.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1"
)

// EncodingOption maps an encoding name to an Option.
func EncodingOption(name string) (Option, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return func(*config) {}, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return WithLatin1(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// CSVData is the outcome of reading one CSV source.
type CSVData struct {
	Headers   []string        `json:"headers"`
	Rows      []ledger.RawRow `json:"-"`
	Malformed int             `json:"malformed"` // lines the CSV reader rejected
}

// ReadCSV reads a ledger CSV. Header cells are resolved against the schema;
// unknown columns are ignored and missing required columns fail the read.
// Lines the CSV reader cannot parse are skipped and counted.
func ReadCSV(r io.Reader, opts ...Option) (*CSVData, error) {
	cfg := applyOptions(opts)

	if cfg.latin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.comma
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	headers := append([]string(nil), header...)

	mapping, err := cfg.schema.ResolveHeaders(headers)
	if err != nil {
		return nil, err
	}

	data := &CSVData{Headers: headers}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				data.Malformed++
				continue // skip malformed rows
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		row := make(ledger.RawRow, len(mapping))
		for i, val := range record {
			if name, ok := mapping[i]; ok {
				row[name] = val
			}
		}
		data.Rows = append(data.Rows, row)
	}

	cfg.logger.Info().
		Int("rows", len(data.Rows)).
		Int("malformed", data.Malformed).
		Msg("📄 Read ledger CSV")

	return data, nil
}

// ParseCSV parses CSV bytes. See ReadCSV.
func ParseCSV(data []byte, opts ...Option) (*CSVData, error) {
	return ReadCSV(bytes.NewReader(data), opts...)
}

// LoadFile reads a ledger CSV from disk.
func LoadFile(path string, opts ...Option) (*CSVData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
