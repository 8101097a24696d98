package loader

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

func date(y, m, d int) types.NullDate {
	return types.Some(civil.Date{Year: y, Month: time.Month(m), Day: d})
}

func TestParseInvoiceNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cell types.Cell
		want types.NullInt
	}{
		{"number", types.NumberCell("1234"), types.Some[int64](1234)},
		{"number with fraction", types.NumberCell("1234.9"), types.Some[int64](1234)},
		{"text with thousands dots", types.TextCell("1.234"), types.Some[int64](1234)},
		{"text padded", types.TextCell(" 77 "), types.Some[int64](77)},
		{"garbage", types.TextCell("FE-1"), types.Null[int64]()},
		{"blank", types.Cell{}, types.Null[int64]()},
		{"bool", types.Cell{Kind: types.CellBool, Raw: "1"}, types.Null[int64]()},
	}

	for _, tt := range tests {
		if got := ParseInvoiceNumber(tt.cell); got != tt.want {
			t.Errorf("%s: ParseInvoiceNumber = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestParseAccount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell types.Cell
		want int64
	}{
		{types.TextCell("1.234"), 1234},
		{types.NumberCell("98765"), 98765},
		{types.TextCell("N/A"), 0},
		{types.Cell{}, 0},
	}

	for _, tt := range tests {
		if got := ParseAccount(tt.cell); got != tt.want {
			t.Errorf("ParseAccount(%+v) = %d, want %d", tt.cell, got, tt.want)
		}
	}
}

func TestParseGlossedValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell types.Cell
		want string
	}{
		{types.TextCell("10,50"), "10.5"},
		{types.NumberCell("2500.5"), "2500.5"},
		{types.TextCell("abc"), "0"},
		{types.Cell{}, "0"},
	}

	for _, tt := range tests {
		got := ParseGlossedValue(tt.cell)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseGlossedValue(%+v) = %s, want %s", tt.cell, got, tt.want)
		}
	}
}

func TestParseFilingDate(t *testing.T) {
	t.Parallel()

	rules := config.Default().Rules

	tests := []struct {
		name string
		cell types.Cell
		want types.NullDate
	}{
		{"empty marker", types.TextCell("  -   -"), types.Null[civil.Date]()},
		{"empty marker with time", types.TextCell("  -   -     :  :"), types.Null[civil.Date]()},
		{"timestamp text", types.TextCell("2024-03-05 17:45:00"), date(2024, 3, 5)},
		{"date only text does not match layout", types.TextCell("2024-03-05"), types.Null[civil.Date]()},
		{"serial", types.NumberCell("45356"), date(2024, 3, 5)},
		{"serial with time", types.NumberCell("45356.75"), date(2024, 3, 5)},
		{"iso cell", types.Cell{Kind: types.CellDate, Raw: "2024-03-05T00:00:00Z"}, date(2024, 3, 5)},
		{"blank", types.Cell{}, types.Null[civil.Date]()},
	}

	for _, tt := range tests {
		if got := ParseFilingDate(tt.cell, rules); got != tt.want {
			t.Errorf("%s: ParseFilingDate = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	rules := config.Default().Rules

	tests := []struct {
		name string
		cell types.Cell
		want types.NullDate
	}{
		{"serial", types.NumberCell("45292"), date(2024, 1, 1)},
		{"iso text", types.TextCell("2024-01-01"), date(2024, 1, 1)},
		{"day first text", types.TextCell("31/01/2024"), date(2024, 1, 31)},
		{"unparseable", types.TextCell("ayer"), types.Null[civil.Date]()},
		{"negative serial", types.NumberCell("-3"), types.Null[civil.Date]()},
	}

	for _, tt := range tests {
		if got := ParseDate(tt.cell, rules); got != tt.want {
			t.Errorf("%s: ParseDate = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestSerialToDate(t *testing.T) {
	t.Parallel()

	epoch := civil.Date{Year: 1899, Month: 12, Day: 30}
	if got := SerialToDate(0, epoch); got != epoch {
		t.Fatalf("serial 0 = %v, want epoch", got)
	}
	if got := SerialToDate(1, epoch); got != (civil.Date{Year: 1899, Month: 12, Day: 31}) {
		t.Fatalf("serial 1 = %v", got)
	}
}

func TestCleanTextNormalises(t *testing.T) {
	t.Parallel()

	// "I" followed by a combining acute accent.
	if got := CleanText(types.TextCell(" I\u0301tem ")); got != "\u00cdtem" {
		t.Fatalf("CleanText = %q", got)
	}
}
