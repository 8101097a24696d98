// =============================================================================
// Glosa Classifier - Delimited Export Reader
// =============================================================================
//
// This module reads a delimited text export of the dispute sheet into a
// types.Sheet, so that billing exports that never went through a spreadsheet
// can be classified the same way as workbooks. It handles:
//   - Different delimiters (semicolon, comma, pipe, tab)
//   - Legacy single-byte encodings (Windows-1252, ISO-8859-1)
//   - A UTF-8 byte order mark on the first header
//   - Header rows that are not on the first line
//
// Every non-empty value is a text cell: a delimited file carries no type
// information, so the loader's text rules apply to every column.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadSheet reads a delimited export.
//
// PARAMETERS:
//   - filePath: The path to the export.
//   - settings: Delimiter, encoding and header row.
//
// RETURNS:
//   - The sheet, named after the file. Rows are padded or truncated to the
//     header width.
//   - An error if the file cannot be opened, decoded or parsed.
func ReadSheet(filePath string, settings config.CSVSettings) (*types.Sheet, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sheet, err := Parse(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}
	sheet.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return sheet, nil
}

// Parse reads delimited data from r.
func Parse(r io.Reader, settings config.CSVSettings) (*types.Sheet, error) {
	enc, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}

	csvReader := csv.NewReader(r)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	headerRow := settings.HeaderRow
	if headerRow <= 0 {
		headerRow = 1
	}
	if len(allRows) < headerRow {
		return nil, fmt.Errorf("CSV file has no header row (expected on line %d)", headerRow)
	}

	sheet := &types.Sheet{
		Headers:      cleanHeaders(allRows[headerRow-1]),
		FirstDataRow: headerRow + 1,
	}
	width := len(sheet.Headers)

	data := allRows[headerRow:]
	sheet.Rows = make([][]types.Cell, 0, len(data))
	for _, record := range data {
		cells := make([]types.Cell, width)
		for c := 0; c < width && c < len(record); c++ {
			cells[c] = types.TextCell(record[c])
		}
		sheet.Rows = append(sheet.Rows, cells)
	}

	return sheet, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	case ",", "comma":
		reader.Comma = ','
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ';'
		}
	}

	// Billing exports are not strict about field counts or quoting.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Leading spaces are kept: the empty-date marker starts with two.
	reader.TrimLeadingSpace = false
}

// decoderFor returns the encoding for a configured name, or nil for UTF-8.
//
// CUSTOMIZATION: Add additional charmap entries here if an export uses a
// different code page.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-")) {
	case "", "UTF-8", "UTF8":
		return nil, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "ISO-8859-15", "LATIN9":
		return charmap.ISO8859_15, nil
	default:
		return nil, fmt.Errorf("unsupported CSV encoding %q", name)
	}
}

// cleanHeaders trims headers and strips a UTF-8 byte order mark, also when
// it was decoded as Windows-1252 text.
func cleanHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
			h = strings.TrimPrefix(h, "\u00ef\u00bb\u00bf")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
