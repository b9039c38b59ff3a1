// Package export writes projection results for inspection outside the
// plotter: a coordinate table and a reproducibility manifest.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	werrors "github.com/r3d91ll/glyph/pkg/errors"
	"github.com/r3d91ll/glyph/pkg/render"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 compliant CSV (comma-separated, quoted strings).
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values instead of comma.
	DialectTSV CSVDialect = "tsv"
)

// ParseDialect validates a dialect name.
func ParseDialect(s string) (CSVDialect, error) {
	switch CSVDialect(s) {
	case DialectStandard, DialectTSV:
		return CSVDialect(s), nil
	}
	return "", werrors.AttachSuggestions(
		werrors.Newf(werrors.ErrExportInvalidDialect, werrors.CategoryConfig, "unknown CSV dialect %q", s).
			WithContext("dialect", s))
}

// CSVConfig specifies options for coordinate export.
type CSVConfig struct {
	// Dialect specifies the CSV format variant.
	// Default: DialectStandard
	Dialect CSVDialect

	// IncludeHeader writes column headers as the first row.
	// Default: true
	IncludeHeader bool

	// Precision is the number of decimal places for coordinates.
	// Default: 6
	Precision int
}

// DefaultCSVConfig returns RFC 4180 output with a header and six decimals.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		Precision:     6,
	}
}

// Columns is the header of the coordinate table.
var Columns = []string{"symbol", "letter", "kind", "x", "y"}

// CSVWriter writes projected points as rows.
type CSVWriter struct {
	config      *CSVConfig
	writer      *csv.Writer
	headerDone  bool
	rowsWritten int
}

// NewCSVWriter creates a CSVWriter on w. A nil config uses DefaultCSVConfig.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		csvWriter.Comma = '\t'
	}

	return &CSVWriter{
		config: config,
		writer: csvWriter,
	}
}

// WriteHeader writes the header row once.
func (cw *CSVWriter) WriteHeader() error {
	if cw.headerDone {
		return nil
	}
	if err := cw.writer.Write(Columns); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to write CSV header")
	}
	cw.headerDone = true
	return nil
}

// Write writes one point, preceded by the header on first use when
// IncludeHeader is set.
func (cw *CSVWriter) Write(p render.Point) error {
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}

	row := []string{
		p.Symbol,
		p.Letter,
		string(p.Kind),
		strconv.FormatFloat(p.X, 'f', cw.config.Precision, 64),
		strconv.FormatFloat(p.Y, 'f', cw.config.Precision, 64),
	}
	if err := cw.writer.Write(row); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to write CSV row").
			WithContext("symbol", p.Symbol)
	}
	cw.rowsWritten++
	return nil
}

// WriteAll writes every point and flushes.
func (cw *CSVWriter) WriteAll(points []render.Point) error {
	for _, p := range points {
		if err := cw.Write(p); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// Flush flushes buffered rows to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to flush CSV writer")
	}
	return nil
}

// RowsWritten returns the number of data rows written, header excluded.
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}
