// =============================================================================
// Glosa Classifier - Shared Types
// =============================================================================
//
// This package contains the types shared by the loader, classifier, report
// builder and renderer, kept here to avoid import cycles:
//   - Sheet / Cell : a rectangular sheet of typed cells, as ingested
//   - ItemRow      : one cleaned invoice line-item
//   - InvoiceKey   : the (series, number, patient document) grouping key
//
// =============================================================================

package types

import (
	"cmp"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// =============================================================================
// NULLABLE VALUES
// =============================================================================

// Nullable is a value that may be absent. The zero value is null.
// Null values always carry the zero V so that Nullable stays usable as a
// map key component.
type Nullable[T any] struct {
	V     T
	Valid bool
}

// Some returns a present value.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{V: v, Valid: true}
}

// Null returns an absent value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{}
}

// NullDate is a calendar date that may be absent.
type NullDate = Nullable[civil.Date]

// NullInt is an integer that may be absent.
type NullInt = Nullable[int64]

// =============================================================================
// INGESTED SHEET
// =============================================================================

// CellKind records how a cell was stored in the source.
type CellKind int

const (
	// CellEmpty is a blank cell.
	CellEmpty CellKind = iota
	// CellText is a string cell; Raw holds the text.
	CellText
	// CellNumber is a numeric cell; Raw holds the stored number (dates are
	// serial day numbers).
	CellNumber
	// CellDate is an ISO 8601 date cell; Raw holds the ISO text.
	CellDate
	// CellBool is a boolean cell; Raw is "1" or "0".
	CellBool
)

// Cell is one ingested cell.
type Cell struct {
	Kind CellKind
	Raw  string
}

// TextCell builds a text cell, or an empty cell for "".
func TextCell(s string) Cell {
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellText, Raw: s}
}

// NumberCell builds a numeric cell.
func NumberCell(raw string) Cell {
	return Cell{Kind: CellNumber, Raw: raw}
}

// IsEmpty reports whether the cell holds nothing.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Sheet is a rectangular table of typed cells.
type Sheet struct {
	// Name is the worksheet name (or the file name for delimited exports).
	Name string

	// Headers are the column names from the header row, as found.
	Headers []string

	// Rows are the data rows. Every row has len(Headers) cells.
	Rows [][]Cell

	// FirstDataRow is the 1-based source row number of Rows[0].
	FirstDataRow int
}

// =============================================================================
// ITEM ROW
// =============================================================================

// InvoiceKey identifies an invoice. Field order is the sort order.
type InvoiceKey struct {
	Series        string
	InvoiceNumber NullInt
	PatientDoc    NullInt
}

// Compare orders keys by series, invoice number, then patient document.
// Nulls sort first.
func (k InvoiceKey) Compare(o InvoiceKey) int {
	if c := cmp.Compare(k.Series, o.Series); c != 0 {
		return c
	}
	if c := CompareNullInt(k.InvoiceNumber, o.InvoiceNumber); c != 0 {
		return c
	}
	return CompareNullInt(k.PatientDoc, o.PatientDoc)
}

// String renders the key for logs.
func (k InvoiceKey) String() string {
	return "(" + strconv.Quote(k.Series) + "," + formatNullInt(k.InvoiceNumber) + "," + formatNullInt(k.PatientDoc) + ")"
}

// ItemRow is one cleaned line of the dispute dataset. Rows are created once
// by the loader and never modified afterwards.
type ItemRow struct {
	Series            string
	InvoiceNumber     NullInt
	PatientDoc        NullInt
	Entity            string
	ObjectionDate     NullDate
	ResponseDate      NullDate
	FilingDate        NullDate
	CollectionAccount int64
	Status            string
	GlossedValue      decimal.Decimal

	// InvoiceDisplayID is Series followed by the invoice number text; empty
	// when the invoice number is null.
	InvoiceDisplayID string

	// SourceRow is the 1-based row number in the source sheet.
	SourceRow int
}

// Key returns the invoice key of the item.
func (r ItemRow) Key() InvoiceKey {
	return InvoiceKey{
		Series:        r.Series,
		InvoiceNumber: r.InvoiceNumber,
		PatientDoc:    r.PatientDoc,
	}
}

// HasAccount reports whether a collection account is assigned (0 is the
// "no account" sentinel).
func (r ItemRow) HasAccount() bool {
	return r.CollectionAccount != 0
}

// HasFilingDate reports whether the item has a filing date.
func (r ItemRow) HasFilingDate() bool {
	return r.FilingDate.Valid
}

// DisplayID derives the invoice display id from a series and invoice number.
func DisplayID(series string, number NullInt) string {
	if !number.Valid {
		return ""
	}
	return series + strconv.FormatInt(number.V, 10)
}

// =============================================================================
// HELPERS
// =============================================================================

// CompareNullInt orders nullable integers with nulls first.
func CompareNullInt(a, b NullInt) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return cmp.Compare(a.V, b.V)
}

func formatNullInt(v NullInt) string {
	if !v.Valid {
		return "null"
	}
	return strconv.FormatInt(v.V, 10)
}

// UniqueKeys returns the distinct invoice keys of items in first-seen order.
func UniqueKeys(items []ItemRow) []InvoiceKey {
	seen := make(map[InvoiceKey]struct{}, len(items))
	keys := make([]InvoiceKey, 0)
	for _, item := range items {
		k := item.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
