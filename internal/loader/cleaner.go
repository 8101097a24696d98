// =============================================================================
// Glosa Classifier - Cell Cleaning Rules
// =============================================================================
//
// This module turns raw source cells into typed item fields. The billing
// export is dirty, so every rule resolves bad input to a documented default
// instead of failing:
//
//   | Field               | Bad / blank input resolves to |
//   |---------------------|-------------------------------|
//   | dates               | null                          |
//   | invoice number, doc | null                          |
//   | collection account  | 0 (no account)                |
//   | glossed value       | 0                             |
//
// Numeric-as-text columns carry formatting artifacts from the spreadsheet
// they were copied out of: "." as thousands separator in integers and "," as
// decimal separator in amounts.
//
// =============================================================================

package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

// =============================================================================
// INTEGERS
// =============================================================================

// ParseInvoiceNumber cleans an invoice-number-like cell (invoice number and
// patient document).
//
// EXAMPLE:
//
//	number cell 1234     -> 1234
//	text "1.234"         -> 1234
//	text "FE-1"          -> null
//	blank                -> null
func ParseInvoiceNumber(cell types.Cell) types.NullInt {
	switch cell.Kind {
	case types.CellNumber:
		// Stored numbers never carry separators; a fractional part is
		// truncated.
		f, err := strconv.ParseFloat(strings.TrimSpace(cell.Raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return types.Null[int64]()
		}
		return types.Some(int64(f))

	case types.CellText:
		text := strings.TrimSpace(strings.ReplaceAll(cell.Raw, ".", ""))
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return types.Null[int64]()
		}
		return types.Some(n)

	default:
		return types.Null[int64]()
	}
}

// ParseAccount cleans the collection-account cell. Unparseable and blank
// cells resolve to 0, the "no account" sentinel.
//
// EXAMPLE:
//
//	text "1.234" -> 1234
//	text "N/A"   -> 0
func ParseAccount(cell types.Cell) int64 {
	n := ParseInvoiceNumber(cell)
	if !n.Valid {
		return 0
	}
	return n.V
}

// =============================================================================
// AMOUNTS
// =============================================================================

// ParseGlossedValue cleans the glossed-value cell. Unparseable and blank
// cells resolve to 0.
//
// EXAMPLE:
//
//	text "10,50"  -> 10.5
//	number 2500.5 -> 2500.5
//	text "abc"    -> 0
func ParseGlossedValue(cell types.Cell) decimal.Decimal {
	d, _ := parseGlossedValue(cell)
	return d
}

// parseGlossedValue reports false when a non-blank cell could not be parsed.
func parseGlossedValue(cell types.Cell) (decimal.Decimal, bool) {
	if cell.Kind != types.CellText && cell.Kind != types.CellNumber {
		return decimal.Zero, cell.IsEmpty()
	}
	text := strings.TrimSpace(strings.ReplaceAll(cell.Raw, ",", "."))
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// =============================================================================
// DATES
// =============================================================================

// SerialToDate converts a spreadsheet serial day number to a date. The
// fractional part (time of day) is discarded.
//
// EXAMPLE:
//
//	45356 with epoch 1899-12-30 -> 2024-03-05
func SerialToDate(serial float64, epoch civil.Date) civil.Date {
	return epoch.AddDays(int(math.Floor(serial)))
}

// ParseFilingDate cleans the filing-date cell.
//
// RULES:
//   - text containing the empty-date marker -> null
//   - other text: parsed with the fixed filing-date layout and truncated to
//     its date; null when it does not match
//   - number: serial day number from the epoch
//   - ISO date cell: its date
func ParseFilingDate(cell types.Cell, rules config.Rules) types.NullDate {
	switch cell.Kind {
	case types.CellText:
		if rules.NullDateMarker != "" && strings.Contains(cell.Raw, rules.NullDateMarker) {
			return types.Null[civil.Date]()
		}
		t, err := time.Parse(rules.FilingDateLayout, strings.TrimSpace(cell.Raw))
		if err != nil {
			return types.Null[civil.Date]()
		}
		return types.Some(civil.DateOf(t))

	case types.CellNumber:
		return serialCell(cell, rules)

	case types.CellDate:
		return isoCell(cell)

	default:
		return types.Null[civil.Date]()
	}
}

// ParseDate cleans the objection and response date cells. Text is tried
// against each configured layout in order.
func ParseDate(cell types.Cell, rules config.Rules) types.NullDate {
	switch cell.Kind {
	case types.CellNumber:
		return serialCell(cell, rules)

	case types.CellDate:
		return isoCell(cell)

	case types.CellText:
		text := strings.TrimSpace(cell.Raw)
		for _, layout := range rules.DateLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return types.Some(civil.DateOf(t))
			}
		}
		return types.Null[civil.Date]()

	default:
		return types.Null[civil.Date]()
	}
}

func serialCell(cell types.Cell, rules config.Rules) types.NullDate {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell.Raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return types.Null[civil.Date]()
	}
	return types.Some(SerialToDate(f, rules.Epoch()))
}

func isoCell(cell types.Cell) types.NullDate {
	text := strings.TrimSpace(cell.Raw)
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return types.Some(civil.DateOf(t))
	}
	if dt, err := civil.ParseDateTime(text); err == nil {
		return types.Some(dt.Date)
	}
	if d, err := civil.ParseDate(text); err == nil {
		return types.Some(d)
	}
	return types.Null[civil.Date]()
}

// =============================================================================
// TEXT
// =============================================================================

// CleanText trims a text field and brings it to NFC, so that "Ítem" typed
// with a combining accent matches the precomposed form.
func CleanText(cell types.Cell) string {
	if cell.IsEmpty() {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(cell.Raw))
}
