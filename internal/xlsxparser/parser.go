// =============================================================================
// Glosa Classifier - Workbook Reader
// =============================================================================
//
// This module reads one worksheet of a source workbook into a types.Sheet.
// Two container formats are supported:
//   - .xlsx / .xlsm : Office Open XML, read with excelize
//   - .xls          : legacy BIFF workbooks, read with xlsReader
//
// CELL TYPES:
//   The loader needs to know how each cell was stored, because the billing
//   export mixes text and numeric encodings in the same column (filing dates
//   are sometimes text, sometimes serial day numbers). Raw cell values are
//   read without number formatting and tagged with a types.CellKind.
//
//   | Stored as               | CellKind   | Raw                        |
//   |-------------------------|------------|----------------------------|
//   | shared / inline string  | CellText   | the text                   |
//   | number (incl. dates)    | CellNumber | the stored number          |
//   | ISO 8601 date cell      | CellDate   | the ISO text               |
//   | boolean                 | CellBool   | "1" or "0"                 |
//   | blank                   | CellEmpty  | ""                         |
//
//   .xls cells come back as text, so their kind is guessed: numeric text is
//   a CellNumber, except dot-grouped integers such as "1.234", which stay
//   CellText for the loader's separator rule.
//
// The first row of the sheet is the header row. Every data row is padded or
// truncated to the header width. Empty rows are kept so that row numbers in
// log messages match the source.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

// ErrSheetNotFound is returned when the requested worksheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrUnsupportedFormat is returned for file extensions this package cannot read.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// =============================================================================
// PUBLIC API
// =============================================================================

// ReadSheet reads the named worksheet from a workbook.
//
// PARAMETERS:
//   - path: The path to the .xlsx, .xlsm or .xls file.
//   - sheet: The worksheet name (exact match).
//
// RETURNS:
//   - The sheet with its header row and typed data rows.
//   - ErrSheetNotFound (wrapped) if the sheet does not exist, or another
//     error if the file cannot be opened or read.
func ReadSheet(path, sheet string) (*types.Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, sheet)
	case ".xls":
		return readXLS(path, sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ListSheets returns the worksheet names of a workbook in workbook order.
func ListSheets(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()
		return f.GetSheetList(), nil

	case ".xls":
		workbook, err := xls.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		names := make([]string, 0, workbook.GetNumberSheets())
		for i := 0; i < workbook.GetNumberSheets(); i++ {
			s, err := workbook.GetSheet(i)
			if err != nil || s == nil {
				continue
			}
			names = append(names, s.GetName())
		}
		return names, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// =============================================================================
// XLSX
// =============================================================================

// readXLSX reads a sheet with excelize, keeping raw cell values.
func readXLSX(path, sheet string) (*types.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	// RawCellValue skips number formats, so dates come back as serial
	// numbers and amounts without grouping separators.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %q: %w", sheet, err)
	}

	result := &types.Sheet{Name: sheet, FirstDataRow: 2}
	if len(rows) == 0 {
		return result, nil
	}
	result.Headers = trimAll(rows[0])
	width := len(result.Headers)

	result.Rows = make([][]types.Cell, 0, len(rows)-1)
	for r := 1; r < len(rows); r++ {
		raw := rows[r]
		cells := make([]types.Cell, width)
		for c := 0; c < width; c++ {
			if c >= len(raw) || raw[c] == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r+1, err)
			}
			cellType, err := f.GetCellType(sheet, ref)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", ref, err)
			}
			cells[c] = typedCell(cellType, raw[c])
		}
		result.Rows = append(result.Rows, cells)
	}

	return result, nil
}

// typedCell maps an excelize cell type and raw value to a types.Cell.
func typedCell(cellType excelize.CellType, raw string) types.Cell {
	switch cellType {
	case excelize.CellTypeBool:
		return types.Cell{Kind: types.CellBool, Raw: raw}
	case excelize.CellTypeDate:
		return types.Cell{Kind: types.CellDate, Raw: raw}
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// Cells without a type attribute are numbers in the xlsx format,
		// unless a writer stored something else there.
		return numericCell(raw)
	default:
		// Shared strings, inline strings, formula strings and error values.
		return types.TextCell(raw)
	}
}

// =============================================================================
// XLS
// =============================================================================

// readXLS reads a sheet from a legacy BIFF workbook. The format carries no
// reliable cell type through xlsReader's string accessor, so cell kinds are
// guessed from the text (see guessCell).
func readXLS(path, sheet string) (*types.Sheet, error) {
	workbook, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	var names []string
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		s, err := workbook.GetSheet(i)
		if err != nil || s == nil {
			continue
		}
		if s.GetName() != sheet {
			names = append(names, s.GetName())
			continue
		}
		return readXLSSheet(s, sheet)
	}

	return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(names, ", "))
}

// readXLSSheet converts one xlsReader sheet.
func readXLSSheet(s *xls.Sheet, name string) (*types.Sheet, error) {
	var raw [][]string
	for i := 0; i <= int(s.GetNumberRows()); i++ {
		row, err := s.GetRow(i)
		if err != nil || row == nil {
			raw = append(raw, nil)
			continue
		}
		var values []string
		for _, col := range row.GetCols() {
			if col == nil {
				values = append(values, "")
				continue
			}
			values = append(values, col.GetString())
		}
		raw = append(raw, values)
	}

	// Trailing rows past the last populated one are not part of the sheet.
	for len(raw) > 0 && isBlank(raw[len(raw)-1]) {
		raw = raw[:len(raw)-1]
	}

	result := &types.Sheet{Name: name, FirstDataRow: 2}
	if len(raw) == 0 {
		return result, nil
	}
	result.Headers = trimAll(raw[0])
	width := len(result.Headers)

	result.Rows = make([][]types.Cell, 0, len(raw)-1)
	for _, values := range raw[1:] {
		cells := make([]types.Cell, width)
		for c := 0; c < width && c < len(values); c++ {
			cells[c] = guessCell(values[c])
		}
		result.Rows = append(result.Rows, cells)
	}

	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// groupedDigits matches integers written with dot thousands separators,
// such as 1.234 or 12.345.678.
var groupedDigits = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// numericCell tags a value stored in a number record. Values that do not
// parse stay text.
func numericCell(raw string) types.Cell {
	if raw == "" {
		return types.Cell{Kind: types.CellEmpty}
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return types.NumberCell(strings.TrimSpace(raw))
	}
	return types.TextCell(raw)
}

// guessCell tags a value whose storage type is unknown. It is a number when
// it parses as one, except for dot-grouped integers: the billing export
// writes those as text, and the loader strips the separators.
func guessCell(raw string) types.Cell {
	if groupedDigits.MatchString(strings.TrimSpace(raw)) {
		return types.TextCell(raw)
	}
	return numericCell(raw)
}

// trimAll trims the whitespace around each header.
func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// isBlank reports whether every value of a row is empty.
func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
