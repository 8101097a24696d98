// =============================================================================
// Glosa Classifier - Report Schema
// =============================================================================
//
// Summary rows and detail rows carry different natural fields. Both are
// built against one canonical, ordered list of typed columns so that the two
// can be concatenated into a single sheet. The canonical order is:
//
//   | Group          | Columns                                              |
//   |----------------|------------------------------------------------------|
//   | Identification | series, number, display id, patient doc, entity      |
//   | Dates          | objection, response, filing                          |
//   | Status / value | collection account, status, glossed value            |
//   | Generated      | row kind, total items, four combination counts       |
//
// =============================================================================

package report

import (
	"fmt"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
)

// Kind is the value type of a column.
type Kind int

const (
	// KindText holds strings.
	KindText Kind = iota
	// KindInt holds integers.
	KindInt
	// KindDate holds calendar dates.
	KindDate
	// KindDecimal holds currency amounts.
	KindDecimal
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	case KindDecimal:
		return "decimal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a named, typed report column.
type Column struct {
	Name string
	Kind Kind
}

// Schema is an ordered list of columns plus the roles the sort needs.
type Schema struct {
	Columns []Column

	// Key holds the names of the invoice-key columns, in key order.
	Key []string

	// RowKind is the name of the row-kind marker column.
	RowKind string

	index map[string]int
}

// NewSchema returns the canonical report schema for a column registry.
func NewSchema(cols config.Columns) Schema {
	kinds := map[string]Kind{
		cols.Series:            KindText,
		cols.InvoiceNumber:     KindInt,
		cols.InvoiceDisplay:    KindText,
		cols.PatientDoc:        KindInt,
		cols.Entity:            KindText,
		cols.ObjectionDate:     KindDate,
		cols.ResponseDate:      KindDate,
		cols.FilingDate:        KindDate,
		cols.CollectionAccount: KindInt,
		cols.Status:            KindText,
		cols.GlossedValue:      KindDecimal,
		config.ColRowKind:      KindText,
		config.ColTotalItems:   KindInt,
		config.ColConCCConFR:   KindInt,
		config.ColConCCSinFR:   KindInt,
		config.ColSinCCSinFR:   KindInt,
		config.ColSinCCConFR:   KindInt,
	}

	ordered := cols.Ordered()
	columns := make([]Column, len(ordered))
	for i, name := range ordered {
		columns[i] = Column{Name: name, Kind: kinds[name]}
	}

	return newSchema(columns, cols.InvoiceKey(), config.ColRowKind)
}

func newSchema(columns []Column, key []string, rowKind string) Schema {
	s := Schema{
		Columns: columns,
		Key:     key,
		RowKind: rowKind,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		s.index[c.Name] = i
	}
	return s
}

// Subset returns a schema with only the named columns, in the given order.
// Names the schema does not have are skipped.
func (s Schema) Subset(names ...string) Schema {
	columns := make([]Column, 0, len(names))
	for _, name := range names {
		if i, ok := s.index[name]; ok {
			columns = append(columns, s.Columns[i])
		}
	}
	return newSchema(columns, s.Key, s.RowKind)
}

// Index returns the position of a column.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether two schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i] != o.Columns[i] {
			return false
		}
	}
	return true
}
