package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Hoja1"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for i, row := range rows {
		row := row
		ref, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Hoja1", ref, &row); err != nil {
			t.Fatalf("write row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, "glosas.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), err
}

// The commands share package-level flag state, so these cases run in order.
func TestCommands(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir, [][]interface{}{
		{"fc_serie", "fc_docn", "gl_docn", "estatus1", "gr_docn", "fecha_rep", "vr_glosa"},
		{"A", 100, 1, "AI", 0, 45356, 10},
		{"A", 100, 1, "AI", 0, 45356, 20},
		{"B", 7, 2, "C3", 55, "  -   -", 5},
	})
	output := filepath.Join(dir, "informe.xlsx")

	t.Run("classify", func(t *testing.T) {
		out, err := execute(t, "", "classify", "-i", input, "-o", output, "--sheet", "", "--dry-run=false")
		if err != nil {
			t.Fatalf("classify returned error: %v\n%s", err, out)
		}
		for _, want := range []string{
			"=== Category Recount ===",
			"Check passed",
			"Written:         " + output,
			"4_SinCC_ConFR",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output lacks %q:\n%s", want, out)
			}
		}
	})

	t.Run("dry run", func(t *testing.T) {
		out, err := execute(t, "", "classify", "-i", input, "-o", "", "--dry-run")
		if err != nil {
			t.Fatalf("classify returned error: %v", err)
		}
		if !strings.Contains(out, "Dry run: no report written.") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("cancelled at the prompt", func(t *testing.T) {
		out, err := execute(t, "\n", "classify", "-i", "", "-o", "", "--dry-run=false")
		if err != nil {
			t.Fatalf("cancel should not fail: %v", err)
		}
		if !strings.Contains(out, "Operation cancelled.") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("inspect", func(t *testing.T) {
		out, err := execute(t, "", "inspect", input, "--sheet", "")
		if err != nil {
			t.Fatalf("inspect returned error: %v", err)
		}
		if !strings.Contains(out, "Missing required: -") || !strings.Contains(out, "Sheets:           Hoja1") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("version", func(t *testing.T) {
		out, err := execute(t, "", "version")
		if err != nil || !strings.Contains(out, "Glosa Classifier") {
			t.Fatalf("version: %v\n%s", err, out)
		}
	})
}
