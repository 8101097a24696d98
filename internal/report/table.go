package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

// ErrSchemaMismatch is returned when tables with different columns are
// combined.
var ErrSchemaMismatch = errors.New("report schema mismatch")

// =============================================================================
// CELLS
// =============================================================================

// Cell is one typed report value. A null cell still carries its column kind.
type Cell struct {
	Kind    Kind
	Null    bool
	Text    string
	Int     int64
	Date    civil.Date
	Decimal decimal.Decimal
}

// NullCell returns an explicit null of the given kind.
func NullCell(kind Kind) Cell {
	return Cell{Kind: kind, Null: true}
}

// TextCell returns a text value.
func TextCell(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

// IntCell returns an integer value.
func IntCell(n int64) Cell {
	return Cell{Kind: KindInt, Int: n}
}

// NullIntCell converts a nullable integer.
func NullIntCell(n types.NullInt) Cell {
	if !n.Valid {
		return NullCell(KindInt)
	}
	return IntCell(n.V)
}

// DateCell converts a nullable date.
func DateCell(d types.NullDate) Cell {
	if !d.Valid {
		return NullCell(KindDate)
	}
	return Cell{Kind: KindDate, Date: d.V}
}

// DecimalCell returns an amount.
func DecimalCell(d decimal.Decimal) Cell {
	return Cell{Kind: KindDecimal, Decimal: d}
}

// String renders the cell for logs and the console.
func (c Cell) String() string {
	if c.Null {
		return ""
	}
	switch c.Kind {
	case KindInt:
		return fmt.Sprintf("%d", c.Int)
	case KindDate:
		return c.Date.String()
	case KindDecimal:
		return c.Decimal.String()
	default:
		return c.Text
	}
}

// compareCells orders two cells of the same kind with nulls first.
func compareCells(a, b Cell) int {
	switch {
	case a.Null && b.Null:
		return 0
	case a.Null:
		return -1
	case b.Null:
		return 1
	}
	switch a.Kind {
	case KindInt:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		}
		return 0
	case KindDate:
		return a.Date.Compare(b.Date)
	case KindDecimal:
		return a.Decimal.Cmp(b.Decimal)
	default:
		return strings.Compare(a.Text, b.Text)
	}
}

// =============================================================================
// TABLES
// =============================================================================

// Row is one report row; it has one cell per schema column.
type Row []Cell

// Table is a list of rows sharing one schema.
type Table struct {
	Schema Schema
	Rows   []Row
}

// NewTable returns an empty table.
func NewTable(schema Schema) *Table {
	return &Table{Schema: schema}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Value returns the named cell of a row.
func (t *Table) Value(row int, column string) (Cell, bool) {
	i, ok := t.Schema.Index(column)
	if !ok || row < 0 || row >= len(t.Rows) {
		return Cell{}, false
	}
	return t.Rows[row][i], true
}

// Align maps a table onto the target schema by column name. Columns the
// table lacks are filled with explicit nulls of the target kind.
//
// RETURNS:
//   - The aligned table. A table already on the target schema is returned
//     as an equal copy.
//   - ErrSchemaMismatch (wrapped) if the table has a column the target does
//     not know, or a column whose kind differs from the target's.
func Align(target Schema, t *Table) (*Table, error) {
	source := make([]int, len(target.Columns))
	for i, col := range target.Columns {
		j, ok := t.Schema.Index(col.Name)
		if !ok {
			source[i] = -1
			continue
		}
		if t.Schema.Columns[j].Kind != col.Kind {
			return nil, fmt.Errorf("%w: column %q is %s, want %s", ErrSchemaMismatch, col.Name, t.Schema.Columns[j].Kind, col.Kind)
		}
		source[i] = j
	}
	for _, col := range t.Schema.Columns {
		if _, ok := target.Index(col.Name); !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrSchemaMismatch, col.Name)
		}
	}

	aligned := &Table{Schema: target, Rows: make([]Row, len(t.Rows))}
	for r, row := range t.Rows {
		out := make(Row, len(target.Columns))
		for i, col := range target.Columns {
			if source[i] < 0 {
				out[i] = NullCell(col.Kind)
				continue
			}
			out[i] = row[source[i]]
		}
		aligned.Rows[r] = out
	}
	return aligned, nil
}

// Concat appends b's rows to a's. Both must share the same schema.
func Concat(a, b *Table) (*Table, error) {
	if !a.Schema.Equal(b.Schema) {
		return nil, fmt.Errorf("%w: [%s] vs [%s]", ErrSchemaMismatch,
			strings.Join(a.Schema.Names(), ", "), strings.Join(b.Schema.Names(), ", "))
	}
	rows := make([]Row, 0, len(a.Rows)+len(b.Rows))
	rows = append(rows, a.Rows...)
	rows = append(rows, b.Rows...)
	return &Table{Schema: a.Schema, Rows: rows}, nil
}

// Sort orders rows by the invoice key ascending (nulls first), then by the
// row-kind marker descending so the summary row leads its invoice. Rows that
// tie keep their order.
func (t *Table) Sort() {
	keyIdx := make([]int, 0, len(t.Schema.Key))
	for _, name := range t.Schema.Key {
		if i, ok := t.Schema.Index(name); ok {
			keyIdx = append(keyIdx, i)
		}
	}
	kindIdx, hasKind := t.Schema.Index(t.Schema.RowKind)

	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		for _, k := range keyIdx {
			if c := compareCells(a[k], b[k]); c != 0 {
				return c < 0
			}
		}
		if hasKind {
			return compareCells(a[kindIdx], b[kindIdx]) > 0
		}
		return false
	})
}
