package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/types"
)

func TestParseSemicolonUTF8(t *testing.T) {
	t.Parallel()

	input := "\ufefffc_serie;fc_docn;fecha_rep\nFE;1.234;  -   -\nFE;;\n"
	sheet, err := Parse(strings.NewReader(input), config.CSVSettings{Delimiter: ";", Encoding: "UTF-8", HeaderRow: 1})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if diff := cmp.Diff([]string{"fc_serie", "fc_docn", "fecha_rep"}, sheet.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	want := [][]types.Cell{
		{types.TextCell("FE"), types.TextCell("1.234"), types.TextCell("  -   -")},
		{types.TextCell("FE"), {}, {}},
	}
	if diff := cmp.Diff(want, sheet.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if sheet.FirstDataRow != 2 {
		t.Fatalf("FirstDataRow = %d, want 2", sheet.FirstDataRow)
	}
}

func TestParseWindows1252(t *testing.T) {
	t.Parallel()

	// "Clínica" with í encoded as 0xED.
	input := []byte("nom_terce,estatus1\nCl\xednica,AI\n")
	sheet, err := Parse(strings.NewReader(string(input)), config.CSVSettings{Delimiter: "comma", Encoding: "Windows-1252", HeaderRow: 1})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := sheet.Rows[0][0].Raw; got != "Clínica" {
		t.Fatalf("decoded value = %q, want %q", got, "Clínica")
	}
}

func TestParseHeaderRowOffset(t *testing.T) {
	t.Parallel()

	input := "Reporte de glosas\na|b\n1|2\n"
	sheet, err := Parse(strings.NewReader(input), config.CSVSettings{Delimiter: "pipe", HeaderRow: 2})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, sheet.Headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	if sheet.FirstDataRow != 3 || len(sheet.Rows) != 1 {
		t.Fatalf("unexpected data rows: first=%d rows=%d", sheet.FirstDataRow, len(sheet.Rows))
	}
}

func TestParseRejectsUnknownEncoding(t *testing.T) {
	t.Parallel()

	if _, err := Parse(strings.NewReader("a\n"), config.CSVSettings{Encoding: "EBCDIC"}); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestReadSheetNamesSheetAfterFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "glosas_marzo.csv")
	if err := os.WriteFile(path, []byte("a;b\n1;2\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	sheet, err := ReadSheet(path, config.Default().Input.CSV)
	if err != nil {
		t.Fatalf("ReadSheet returned error: %v", err)
	}
	if sheet.Name != "glosas_marzo" {
		t.Fatalf("sheet name = %q", sheet.Name)
	}
}

func TestParseStripsBOMDecodedAsWindows1252(t *testing.T) {
	t.Parallel()

	input := "\xef\xbb\xbffc_serie;fc_docn\nFE;1\n"
	sheet, err := Parse(strings.NewReader(input), config.CSVSettings{Delimiter: ";", Encoding: "Windows-1252", HeaderRow: 1})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if sheet.Headers[0] != "fc_serie" {
		t.Fatalf("first header = %q, want fc_serie", sheet.Headers[0])
	}
}
