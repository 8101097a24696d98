// =============================================================================
// Glosa Classifier - Classification Engine
// =============================================================================
//
// This module partitions cleaned invoice items into five categories. Two
// predicates are evaluated per item:
//   - has account     : collection_account != 0
//   - has filing date : filing_date is not null
//
// CATEGORIES:
//   | Category | Account | Filing date | Membership                        |
//   |----------|---------|-------------|-----------------------------------|
//   | T1       | yes     | yes         | every item of the invoice agrees  |
//   | T2       | yes     | no          | every item of the invoice agrees  |
//   | T3       | no      | no          | every item of the invoice agrees  |
//   | T4       | no      | yes         | every item of the invoice agrees  |
//   | T5       | mixed   | mixed       | all items of every other invoice  |
//
// A single dissenting item moves the whole invoice to T5. T5 is computed as
// an anti-join on the invoice key against the keys of T1..T4, so it always
// holds every item of a mixed invoice.
//
// Classification is a pure function: the same items always yield the same
// membership, in source order.
//
// =============================================================================

package classifier

import (
	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

// =============================================================================
// PREDICATE COMBINATIONS
// =============================================================================

// Combination is the (has account, has filing date) pair of one item.
type Combination int

const (
	// WithAccountWithFiling: account assigned and filed ("Con CC y Con FR").
	WithAccountWithFiling Combination = iota
	// WithAccountNoFiling: account assigned, not filed ("Con CC y Sin FR").
	WithAccountNoFiling
	// NoAccountNoFiling: neither ("Sin CC y Sin FR").
	NoAccountNoFiling
	// NoAccountWithFiling: filed without an account ("Sin CC y Con FR").
	NoAccountWithFiling
)

// Combinations lists the four combinations in report column order.
func Combinations() []Combination {
	return []Combination{WithAccountWithFiling, WithAccountNoFiling, NoAccountNoFiling, NoAccountWithFiling}
}

// CombinationOf evaluates both predicates on an item.
func CombinationOf(item types.ItemRow) Combination {
	switch {
	case item.HasAccount() && item.HasFilingDate():
		return WithAccountWithFiling
	case item.HasAccount():
		return WithAccountNoFiling
	case item.HasFilingDate():
		return NoAccountWithFiling
	default:
		return NoAccountNoFiling
	}
}

// String returns the report label of the combination.
func (c Combination) String() string {
	switch c {
	case WithAccountWithFiling:
		return "Con CC y Con FR"
	case WithAccountNoFiling:
		return "Con CC y Sin FR"
	case NoAccountNoFiling:
		return "Sin CC y Sin FR"
	case NoAccountWithFiling:
		return "Sin CC y Con FR"
	default:
		return "unknown"
	}
}

// Category returns the pure category of invoices whose items all share c.
func (c Combination) Category() Category {
	return Category(c)
}

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is one of the five output buckets. The numeric values of the
// pure categories match their Combination.
type Category int

const (
	// RadicadasOK (T1): account and filing date on every item.
	RadicadasOK Category = iota
	// ConCCSinFR (T2): account on every item, no filing date on any.
	ConCCSinFR
	// SinCCSinFR (T3): neither on any item.
	SinCCSinFR
	// SinCCConFR (T4): filing date on every item, no account on any.
	SinCCConFR
	// Mixtas (T5): items of one invoice disagree.
	Mixtas
)

// NumCategories is the number of categories.
const NumCategories = 5

// Categories lists the categories in report order T1..T5.
func Categories() []Category {
	return []Category{RadicadasOK, ConCCSinFR, SinCCSinFR, SinCCConFR, Mixtas}
}

// String returns a short label used in logs.
func (c Category) String() string {
	switch c {
	case RadicadasOK:
		return "T1"
	case ConCCSinFR:
		return "T2"
	case SinCCSinFR:
		return "T3"
	case SinCCConFR:
		return "T4"
	case Mixtas:
		return "T5"
	default:
		return "unknown"
	}
}

// IsPure reports whether c is one of T1..T4.
func (c Category) IsPure() bool {
	return c >= RadicadasOK && c < Mixtas
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Result holds the items and distinct invoice keys of every category.
type Result struct {
	items [NumCategories][]types.ItemRow
	keys  [NumCategories][]types.InvoiceKey
}

// Items returns the items of a category in source order.
func (r *Result) Items(c Category) []types.ItemRow {
	if c < 0 || c >= NumCategories {
		return nil
	}
	return r.items[c]
}

// Keys returns the distinct invoice keys of a category in first-seen order.
func (r *Result) Keys(c Category) []types.InvoiceKey {
	if c < 0 || c >= NumCategories {
		return nil
	}
	return r.keys[c]
}

// invoiceState tracks the predicate agreement of one invoice.
type invoiceState struct {
	first Combination
	mixed bool
}

// Classify partitions items into T1..T5.
//
// PARAMETERS:
//   - items: The cleaned items. The slice is not modified.
//
// RETURNS:
//   - The classification. Empty input yields five empty categories.
func Classify(items []types.ItemRow) *Result {
	result := &Result{}

	// Pass 1: per invoice, do all items agree on the predicate pair?
	states := make(map[types.InvoiceKey]*invoiceState)
	for _, item := range items {
		combo := CombinationOf(item)
		key := item.Key()
		state, ok := states[key]
		if !ok {
			states[key] = &invoiceState{first: combo}
			continue
		}
		if state.first != combo {
			state.mixed = true
		}
	}

	// Pass 2: pure categories. An item lands in Ti only when its whole
	// invoice agrees on Ti's pair.
	pure := make(map[types.InvoiceKey]Category, len(states))
	for _, item := range items {
		key := item.Key()
		state := states[key]
		if state.mixed {
			continue
		}
		category := state.first.Category()
		if _, seen := pure[key]; !seen {
			pure[key] = category
			result.keys[category] = append(result.keys[category], key)
		}
		result.items[category] = append(result.items[category], item)
	}

	// Pass 3: T5 is every item whose key is not in the union of pure keys.
	mixedSeen := make(map[types.InvoiceKey]bool)
	for _, item := range items {
		key := item.Key()
		if _, ok := pure[key]; ok {
			continue
		}
		if !mixedSeen[key] {
			mixedSeen[key] = true
			result.keys[Mixtas] = append(result.keys[Mixtas], key)
		}
		result.items[Mixtas] = append(result.items[Mixtas], item)
	}

	return result
}
