// =============================================================================
// Glosa Classifier - Validation Engine
// =============================================================================
//
// This module holds the two correctness checks of a run:
//   1. Schema check   : the source sheet carries every required column
//   2. Partition check: the five categories partition the invoices of the
//                       input, with no overlap and no omission
//
// ERROR HANDLING:
//   - A failed schema check aborts the load (SchemaError).
//   - A failed partition check is reported (InvariantViolation) but does not
//     abort the run: an inspectable report is preferred over no report. The
//     caller decides how loudly to log it.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/glosa-classifier/internal/classifier"
	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

// =============================================================================
// SCHEMA CHECK
// =============================================================================

// SchemaError reports required columns that are absent from the source sheet.
type SchemaError struct {
	// Sheet is the worksheet (or export) that was checked.
	Sheet string

	// Missing are the absent required columns, in configuration order.
	Missing []string

	// Available are the headers that were found.
	Available []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q is missing required column(s): %s", e.Sheet, strings.Join(e.Missing, ", "))
}

// RequireColumns checks that every required column is among the headers.
//
// PARAMETERS:
//   - sheet: The sheet name, used in the error message.
//   - headers: The headers found in the sheet.
//   - required: The required column names.
//
// RETURNS:
//   - nil if all required columns are present, otherwise a *SchemaError.
func RequireColumns(sheet string, headers, required []string) error {
	missing := MissingColumns(headers, required)
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{
		Sheet:     sheet,
		Missing:   missing,
		Available: append([]string(nil), headers...),
	}
}

// MissingColumns returns the wanted columns that are not among the headers.
func MissingColumns(headers, wanted []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, w := range wanted {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	return missing
}

// =============================================================================
// PARTITION CHECK
// =============================================================================

// CategoryCount is the recount of one category.
type CategoryCount struct {
	Category classifier.Category
	Invoices int
	Items    int
}

// PartitionReport is the category recount of one classification.
type PartitionReport struct {
	// Categories holds one entry per category, in order T1..T5.
	Categories []CategoryCount

	// TotalInvoices is the number of distinct invoice keys in the input.
	TotalInvoices int

	// TotalItems is the number of input items.
	TotalItems int

	// SumInvoices is the sum of the per-category distinct invoice counts.
	SumInvoices int

	// SumItems is the sum of the per-category item counts.
	SumItems int

	// Overlaps are keys found in more than one category.
	Overlaps []types.InvoiceKey

	// Missing are input keys found in no category.
	Missing []types.InvoiceKey
}

// OK reports whether the categories partition the input exactly.
func (r *PartitionReport) OK() bool {
	return r.SumInvoices == r.TotalInvoices &&
		r.SumItems == r.TotalItems &&
		len(r.Overlaps) == 0 &&
		len(r.Missing) == 0
}

// Err returns an *InvariantViolation when the partition does not hold.
func (r *PartitionReport) Err() error {
	if r.OK() {
		return nil
	}
	return &InvariantViolation{Report: r}
}

// InvariantViolation reports that the categories do not partition the input.
type InvariantViolation struct {
	Report *PartitionReport
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	r := e.Report
	return fmt.Sprintf(
		"classification invariant violated: categories hold %d invoices (%d items), input has %d invoices (%d items); %d overlapping, %d unclassified",
		r.SumInvoices, r.SumItems, r.TotalInvoices, r.TotalItems, len(r.Overlaps), len(r.Missing),
	)
}

// VerifyPartition recounts a classification against its input.
//
// PARAMETERS:
//   - items: The classified items.
//   - result: The classification of items.
//
// RETURNS:
//   - The recount. Call Err() to turn a violation into an error.
func VerifyPartition(items []types.ItemRow, result *classifier.Result) *PartitionReport {
	inputKeys := types.UniqueKeys(items)
	report := &PartitionReport{
		TotalInvoices: len(inputKeys),
		TotalItems:    len(items),
	}

	owner := make(map[types.InvoiceKey]classifier.Category, len(inputKeys))
	overlapping := make(map[types.InvoiceKey]bool)
	for _, c := range classifier.Categories() {
		keys := result.Keys(c)
		count := CategoryCount{
			Category: c,
			Invoices: len(keys),
			Items:    len(result.Items(c)),
		}
		report.Categories = append(report.Categories, count)
		report.SumInvoices += count.Invoices
		report.SumItems += count.Items

		for _, k := range keys {
			if prev, ok := owner[k]; ok && prev != c && !overlapping[k] {
				overlapping[k] = true
				report.Overlaps = append(report.Overlaps, k)
			}
			owner[k] = c
		}
	}

	for _, k := range inputKeys {
		if _, ok := owner[k]; !ok {
			report.Missing = append(report.Missing, k)
		}
	}

	return report
}

// =============================================================================
// REPORT FORMATTING
// =============================================================================

// Format renders the recount for the console.
//
// PARAMETERS:
//   - sheetNames: The category sheet names in order T1..T5, used as labels.
//
// RETURNS:
//   - A multi-line recount block.
func (r *PartitionReport) Format(sheetNames []string) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Total unique invoices in source: %d\n", r.TotalInvoices))
	for i, count := range r.Categories {
		label := count.Category.String()
		if i < len(sheetNames) {
			label = fmt.Sprintf("%s (%s)", label, sheetNames[i])
		}
		builder.WriteString(fmt.Sprintf("  - %-22s: %d invoices, %d items\n", label, count.Invoices, count.Items))
	}
	builder.WriteString("-----------------------------------------------\n")
	builder.WriteString(fmt.Sprintf("Sum of invoices in categories:   %d\n", r.SumInvoices))

	if r.OK() {
		builder.WriteString("Check passed: every invoice was classified exactly once.\n")
	} else {
		builder.WriteString("WARNING: the category sum does not match the total.\n")
		for _, k := range r.Overlaps {
			builder.WriteString(fmt.Sprintf("  overlapping invoice %s\n", k))
		}
		for _, k := range r.Missing {
			builder.WriteString(fmt.Sprintf("  unclassified invoice %s\n", k))
		}
	}

	return builder.String()
}
