// =============================================================================
// Glosa Classifier - Loader
// =============================================================================
//
// This module loads the dispute sheet and turns it into cleaned items:
//   1. Read the sheet (.xlsx/.xlsm/.xls workbook or .csv export)
//   2. Normalise headers and check the required columns
//   3. Project the recognised columns; extra columns are ignored
//   4. Drop rows whose status is not on the allow-list
//   5. Clean every cell (see cleaner.go) and derive the display id
//
// Items keep source row order. Optional columns that are absent resolve to
// their defaults for every row.
//
// =============================================================================

package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/csvparser"
	"github.com/ginjaninja78/glosa-classifier/internal/logging"
	"github.com/ginjaninja78/glosa-classifier/internal/types"
	"github.com/ginjaninja78/glosa-classifier/internal/validation"
	"github.com/ginjaninja78/glosa-classifier/internal/xlsxparser"
)

// ErrSheetNotFound is returned (inside a *LoadError) when the sheet is absent.
var ErrSheetNotFound = xlsxparser.ErrSheetNotFound

// =============================================================================
// ERRORS AND STATISTICS
// =============================================================================

// LoadError reports a source that could not be read.
type LoadError struct {
	Path  string
	Sheet string
	Err   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load sheet %q of %s: %v", e.Sheet, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Stats describes what happened to the source rows.
type Stats struct {
	// Source is the loaded file.
	Source string

	// Sheet is the sheet that was read (the file name for .csv sources).
	Sheet string

	// RowsRead is the number of data rows in the sheet.
	RowsRead int

	// EmptyRows is the number of rows without any value.
	EmptyRows int

	// FilteredByStatus is the number of rows dropped by the status allow-list.
	FilteredByStatus int

	// RowsKept is the number of items produced.
	RowsKept int

	// IgnoredColumns are source headers the system does not recognise.
	IgnoredColumns []string

	// MissingOptional are optional registry columns absent from the source.
	MissingOptional []string

	// ParseDefaults counts, per column, the non-blank cells that could not be
	// parsed and resolved to their default.
	ParseDefaults map[string]int
}

// =============================================================================
// LOADER
// =============================================================================

// Loader reads and cleans the dispute sheet.
type Loader struct {
	cfg    config.Config
	logger zerolog.Logger
}

// New creates a Loader.
func New(cfg config.Config, logger zerolog.Logger) *Loader {
	return &Loader{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "loader"),
	}
}

// Load reads the source and returns its cleaned items.
//
// PARAMETERS:
//   - path: The source file.
//   - sheet: The worksheet to read. Empty means the configured default.
//     Ignored for .csv sources.
//
// RETURNS:
//   - The cleaned items in source order.
//   - Load statistics.
//   - A *LoadError if the source cannot be read (wrapping ErrSheetNotFound
//     when the sheet is absent), or a *validation.SchemaError if a required
//     column is missing.
func (l *Loader) Load(path, sheet string) ([]types.ItemRow, Stats, error) {
	if sheet == "" {
		sheet = l.cfg.Input.SheetName
	}

	raw, err := l.readSheet(path, sheet)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{
		Source:        path,
		Sheet:         raw.Name,
		RowsRead:      len(raw.Rows),
		ParseDefaults: make(map[string]int),
	}

	headers := normaliseHeaders(raw.Headers)

	if err := validation.RequireColumns(raw.Name, headers, l.cfg.Rules.RequiredColumns); err != nil {
		return nil, stats, err
	}

	index := columnIndex(headers)
	cols := l.cfg.Columns

	known := make(map[string]bool)
	for _, name := range cols.Source() {
		known[name] = true
		if _, ok := index[name]; !ok {
			stats.MissingOptional = append(stats.MissingOptional, name)
		}
	}
	for _, h := range headers {
		if h != "" && !known[h] {
			stats.IgnoredColumns = append(stats.IgnoredColumns, h)
		}
	}

	// cell returns the named column of a row, or an empty cell when the
	// column is absent.
	cell := func(row []types.Cell, name string) types.Cell {
		if i, ok := index[name]; ok && i < len(row) {
			return row[i]
		}
		return types.Cell{}
	}

	rules := l.cfg.Rules
	items := make([]types.ItemRow, 0, len(raw.Rows))

	for i, row := range raw.Rows {
		if isEmptyRow(row) {
			stats.EmptyRows++
			continue
		}

		status := CleanText(cell(row, cols.Status))
		if !rules.IsValidStatus(status) {
			stats.FilteredByStatus++
			continue
		}

		item := types.ItemRow{
			Series:    CleanText(cell(row, cols.Series)),
			Entity:    CleanText(cell(row, cols.Entity)),
			Status:    status,
			SourceRow: raw.FirstDataRow + i,
		}

		c := cell(row, cols.InvoiceNumber)
		item.InvoiceNumber = ParseInvoiceNumber(c)
		stats.countNull(cols.InvoiceNumber, c, item.InvoiceNumber.Valid)

		c = cell(row, cols.PatientDoc)
		item.PatientDoc = ParseInvoiceNumber(c)
		stats.countNull(cols.PatientDoc, c, item.PatientDoc.Valid)

		c = cell(row, cols.CollectionAccount)
		item.CollectionAccount = ParseAccount(c)
		stats.countNull(cols.CollectionAccount, c, ParseInvoiceNumber(c).Valid)

		c = cell(row, cols.GlossedValue)
		value, ok := parseGlossedValue(c)
		item.GlossedValue = value
		stats.countNull(cols.GlossedValue, c, ok)

		c = cell(row, cols.ObjectionDate)
		item.ObjectionDate = ParseDate(c, rules)
		stats.countNull(cols.ObjectionDate, c, item.ObjectionDate.Valid)

		c = cell(row, cols.ResponseDate)
		item.ResponseDate = ParseDate(c, rules)
		stats.countNull(cols.ResponseDate, c, item.ResponseDate.Valid)

		c = cell(row, cols.FilingDate)
		item.FilingDate = ParseFilingDate(c, rules)
		markedEmpty := c.Kind == types.CellText && rules.NullDateMarker != "" && strings.Contains(c.Raw, rules.NullDateMarker)
		stats.countNull(cols.FilingDate, c, item.FilingDate.Valid || markedEmpty)

		item.InvoiceDisplayID = types.DisplayID(item.Series, item.InvoiceNumber)

		items = append(items, item)
	}
	stats.RowsKept = len(items)

	l.logStats(stats)
	return items, stats, nil
}

// ColumnReport describes how the headers of a source sheet match the
// column registry.
type ColumnReport struct {
	// Sheets are the worksheets of the workbook. Empty for .csv sources.
	Sheets []string

	// Sheet is the inspected sheet.
	Sheet string

	// Rows is the number of data rows.
	Rows int

	// Recognised are the registry columns present, in registry order.
	Recognised []string

	// MissingRequired are required columns absent from the sheet.
	MissingRequired []string

	// MissingOptional are optional columns absent from the sheet.
	MissingOptional []string

	// Ignored are headers the registry does not know.
	Ignored []string
}

// Inspect reads the headers of a source without cleaning any row.
//
// PARAMETERS:
//   - path: The source file.
//   - sheet: The worksheet. Empty means the configured default.
//
// RETURNS:
//   - The column match. A missing required column is reported, not an error.
//   - A *LoadError if the source cannot be read.
func (l *Loader) Inspect(path, sheet string) (ColumnReport, error) {
	if sheet == "" {
		sheet = l.cfg.Input.SheetName
	}

	var report ColumnReport
	if !isDelimited(path) {
		sheets, err := xlsxparser.ListSheets(path)
		if err != nil {
			return report, &LoadError{Path: path, Err: err}
		}
		report.Sheets = sheets
	}

	raw, err := l.readSheet(path, sheet)
	if err != nil {
		return report, err
	}
	report.Sheet = raw.Name
	report.Rows = len(raw.Rows)

	headers := normaliseHeaders(raw.Headers)
	index := columnIndex(headers)

	required := make(map[string]bool, len(l.cfg.Rules.RequiredColumns))
	for _, name := range l.cfg.Rules.RequiredColumns {
		required[name] = true
	}

	known := make(map[string]bool)
	for _, name := range l.cfg.Columns.Source() {
		known[name] = true
		if _, ok := index[name]; ok {
			report.Recognised = append(report.Recognised, name)
		} else if !required[name] {
			report.MissingOptional = append(report.MissingOptional, name)
		}
	}
	report.MissingRequired = validation.MissingColumns(headers, l.cfg.Rules.RequiredColumns)

	for _, h := range headers {
		if h != "" && !known[h] {
			report.Ignored = append(report.Ignored, h)
		}
	}

	return report, nil
}

// readSheet dispatches on the file extension.
func (l *Loader) readSheet(path, sheet string) (*types.Sheet, error) {
	var (
		raw *types.Sheet
		err error
	)

	if isDelimited(path) {
		raw, err = csvparser.ReadSheet(path, l.cfg.Input.CSV)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	} else {
		raw, err = xlsxparser.ReadSheet(path, sheet)
		if err != nil {
			return nil, &LoadError{Path: path, Sheet: sheet, Err: err}
		}
	}

	return raw, nil
}

// logStats writes the load summary.
func (l *Loader) logStats(stats Stats) {
	l.logger.Info().
		Str("source", stats.Source).
		Str("sheet", stats.Sheet).
		Int("rows_read", stats.RowsRead).
		Int("rows_kept", stats.RowsKept).
		Int("filtered_by_status", stats.FilteredByStatus).
		Int("empty_rows", stats.EmptyRows).
		Msg("source loaded")

	if len(stats.IgnoredColumns) > 0 {
		l.logger.Debug().Strs("columns", stats.IgnoredColumns).Msg("ignoring unrecognised columns")
	}
	if len(stats.MissingOptional) > 0 {
		l.logger.Debug().Strs("columns", stats.MissingOptional).Msg("optional columns absent, using defaults")
	}

	columns := make([]string, 0, len(stats.ParseDefaults))
	for col := range stats.ParseDefaults {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	for _, col := range columns {
		l.logger.Debug().
			Str("column", col).
			Int("cells", stats.ParseDefaults[col]).
			Msg("unparseable cells resolved to default")
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// countNull records a non-blank cell that did not parse.
func (s *Stats) countNull(column string, c types.Cell, parsed bool) {
	if parsed || c.IsEmpty() {
		return
	}
	s.ParseDefaults[column]++
}

// isDelimited reports whether path is a delimited text export.
func isDelimited(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return true
	}
	return false
}

// normaliseHeaders trims and NFC-normalises header names.
func normaliseHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = norm.NFC.String(strings.TrimSpace(h))
	}
	return headers
}

// columnIndex maps each header to its first position.
func columnIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return index
}

// isEmptyRow reports whether a row holds no value at all.
func isEmptyRow(row []types.Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() && strings.TrimSpace(c.Raw) != "" {
			return false
		}
	}
	return true
}

// IsSheetNotFound reports whether err means the requested sheet is absent.
func IsSheetNotFound(err error) bool {
	return errors.Is(err, ErrSheetNotFound)
}
