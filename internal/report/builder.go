package report

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/glosa-classifier/internal/classifier"
	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

// Builder builds summary/detail tables for one column registry.
type Builder struct {
	cols   config.Columns
	schema Schema
}

// NewBuilder returns a Builder for the canonical schema of cols.
func NewBuilder(cols config.Columns) *Builder {
	return &Builder{cols: cols, schema: NewSchema(cols)}
}

// Schema returns the canonical schema of every table the builder produces.
func (b *Builder) Schema() Schema {
	return b.schema
}

// summary accumulates one invoice.
type summary struct {
	first  types.ItemRow
	counts [4]int64
	total  int64
	sum    decimal.Decimal
}

// Build returns the summary/detail table of one category.
//
// For every invoice it emits one summary row (combination counts, total,
// glossed value sum and the first-seen descriptive fields) followed by one
// detail row per item. Both row kinds are aligned to the canonical schema
// before they are concatenated, and the result is sorted by invoice key with
// the summary row first. Empty input yields an empty table on the same
// schema.
func (b *Builder) Build(items []types.ItemRow) (*Table, error) {
	summaries, order := b.summarise(items)

	summaryTable := b.summaryTable(summaries, order)
	detailTable := b.detailTable(items)

	alignedSummary, err := Align(b.schema, summaryTable)
	if err != nil {
		return nil, err
	}
	alignedDetail, err := Align(b.schema, detailTable)
	if err != nil {
		return nil, err
	}

	table, err := Concat(alignedSummary, alignedDetail)
	if err != nil {
		return nil, err
	}
	table.Sort()
	return table, nil
}

// Build is a convenience wrapper around NewBuilder(cols).Build(items).
func Build(cols config.Columns, items []types.ItemRow) (*Table, error) {
	return NewBuilder(cols).Build(items)
}

// summarise groups items by invoice key in first-seen order.
func (b *Builder) summarise(items []types.ItemRow) (map[types.InvoiceKey]*summary, []types.InvoiceKey) {
	summaries := make(map[types.InvoiceKey]*summary)
	var order []types.InvoiceKey

	for _, item := range items {
		key := item.Key()
		s, ok := summaries[key]
		if !ok {
			s = &summary{first: item, sum: decimal.Zero}
			summaries[key] = s
			order = append(order, key)
		}
		s.counts[classifier.CombinationOf(item)]++
		s.total++
		s.sum = s.sum.Add(item.GlossedValue)
	}

	return summaries, order
}

// summaryTable builds the summary rows on their natural columns.
func (b *Builder) summaryTable(summaries map[types.InvoiceKey]*summary, order []types.InvoiceKey) *Table {
	c := b.cols
	schema := b.schema.Subset(
		c.Series, c.InvoiceNumber, c.PatientDoc,
		c.Entity, c.ObjectionDate, c.ResponseDate, c.FilingDate, c.InvoiceDisplay,
		c.GlossedValue,
		config.ColConCCConFR, config.ColConCCSinFR, config.ColSinCCSinFR, config.ColSinCCConFR,
		config.ColTotalItems, config.ColRowKind,
	)

	table := NewTable(schema)
	for _, key := range order {
		s := summaries[key]
		table.Rows = append(table.Rows, Row{
			TextCell(s.first.Series),
			NullIntCell(s.first.InvoiceNumber),
			NullIntCell(s.first.PatientDoc),
			TextCell(s.first.Entity),
			DateCell(s.first.ObjectionDate),
			DateCell(s.first.ResponseDate),
			DateCell(s.first.FilingDate),
			TextCell(s.first.InvoiceDisplayID),
			DecimalCell(s.sum),
			IntCell(s.counts[classifier.WithAccountWithFiling]),
			IntCell(s.counts[classifier.WithAccountNoFiling]),
			IntCell(s.counts[classifier.NoAccountNoFiling]),
			IntCell(s.counts[classifier.NoAccountWithFiling]),
			IntCell(s.total),
			TextCell(config.RowKindSummary),
		})
	}
	return table
}

// detailTable builds one detail row per item on its natural columns.
func (b *Builder) detailTable(items []types.ItemRow) *Table {
	c := b.cols
	schema := b.schema.Subset(
		c.ObjectionDate, c.Series, c.InvoiceNumber, c.PatientDoc, c.Entity,
		c.GlossedValue, c.Status, c.ResponseDate, c.CollectionAccount, c.FilingDate,
		c.InvoiceDisplay, config.ColRowKind,
	)

	table := NewTable(schema)
	for _, item := range items {
		table.Rows = append(table.Rows, Row{
			DateCell(item.ObjectionDate),
			TextCell(item.Series),
			NullIntCell(item.InvoiceNumber),
			NullIntCell(item.PatientDoc),
			TextCell(item.Entity),
			DecimalCell(item.GlossedValue),
			TextCell(item.Status),
			DateCell(item.ResponseDate),
			IntCell(item.CollectionAccount),
			DateCell(item.FilingDate),
			TextCell(item.InvoiceDisplayID),
			TextCell(config.RowKindDetail),
		})
	}
	return table
}
