package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/picker"
)

var header = []interface{}{
	"gl_fecha", "fc_serie", "fc_docn", "gl_docn", "nom_terce", "vr_glosa",
	"estatus1", "fecha_gl", "gr_docn", "fecha_rep",
}

// writeSource saves a Hoja1 workbook with the given data rows.
func writeSource(t *testing.T, dir string, rows ...[]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Hoja1"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	all := append([][]interface{}{header}, rows...)
	for i, row := range all {
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

// sampleRows holds one T1 invoice, one T4 invoice and one mixed invoice.
func sampleRows() [][]interface{} {
	return [][]interface{}{
		{45292, "FE", 1, 10, "EPS Sur", "100", "AI", "", 777, "2024-03-05 00:00:00"},
		{45292, "A", 100, 1, "EPS Norte", "10,50", "C1", "", 0, 45356},
		{45292, "A", 100, 1, "EPS Norte", "20", "C1", "", "", 45356},
		{45292, "A", 100, 1, "EPS Norte", "30", "C2", "", 0, 45357},
		{45292, "M", 5, 2, "EPS Este", "1", "CO", "", 9, "  -   -"},
		{45292, "M", 5, 2, "EPS Este", "1", "CO", "", 0, "  -   -"},
		{45292, "Z", 9, 9, "EPS Oeste", "1", "XX", "", 9, 45356},
	}
}

type cancelOutput struct{ input string }

func (c cancelOutput) PickInput() (string, bool, error)       { return c.input, true, nil }
func (cancelOutput) PickOutput(string) (string, bool, error) { return "", false, nil }

func TestRunWritesReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, sampleRows()...)
	output := filepath.Join(dir, "Reporte_Clasificado.xlsx")

	conv := New(config.Default(), picker.Static{Input: input, Output: output}, zerolog.Nop())
	result, err := conv.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.RunID == "" || result.OutputFile != output {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Load.RowsKept != 6 || result.Load.FilteredByStatus != 1 {
		t.Fatalf("unexpected load stats: %+v", result.Load)
	}
	if !result.Partition.OK() || result.Partition.TotalInvoices != 3 {
		t.Fatalf("unexpected recount: %+v", result.Partition)
	}

	wantSheets := []string{"1_RadicadasOK", "4_SinCC_ConFR", "5_Mixtas"}
	if diff := cmp.Diff(wantSheets, result.Render.SheetsWritten); diff != "" {
		t.Fatalf("written sheets mismatch (-want +got):\n%s", diff)
	}

	f, err := excelize.OpenFile(output)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("4_SinCC_ConFR", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("read T4 sheet: %v", err)
	}
	// header + summary + 3 details
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows on the T4 sheet, got %d", len(rows))
	}
	if rows[1][11] != config.RowKindSummary || rows[1][12] != "3" || rows[1][16] != "3" {
		t.Fatalf("unexpected T4 summary row: %v", rows[1])
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, sampleRows()...)

	result, err := New(config.Default(), picker.Static{Input: input}, zerolog.Nop()).
		Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.OutputFile != "" {
		t.Fatalf("dry run reported an output file: %q", result.OutputFile)
	}
	if len(result.Tables) != 5 {
		t.Fatalf("expected 5 tables, got %d", len(result.Tables))
	}
	if result.Tables[3].Sheet != "4_SinCC_ConFR" || result.Tables[3].Table.Len() != 4 {
		t.Fatalf("unexpected T4 table: %s with %d rows", result.Tables[3].Sheet, result.Tables[3].Table.Len())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dry run wrote files: %v", entries)
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	_, err := New(config.Default(), picker.Static{}, zerolog.Nop()).Run(context.Background(), Options{})
	if !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got %v", err)
	}

	dir := t.TempDir()
	input := writeSource(t, dir, sampleRows()...)
	_, err = New(config.Default(), cancelOutput{input: input}, zerolog.Nop()).Run(context.Background(), Options{})
	if !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled on output, got %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Fatalf("cancelled run wrote files: %v", entries)
	}
}

func TestRunNoData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, []interface{}{45292, "Z", 9, 9, "EPS", "1", "XX", "", 9, 45356})

	result, err := New(config.Default(), picker.Static{Input: input}, zerolog.Nop()).Run(context.Background(), Options{})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if result.Load.FilteredByStatus != 1 {
		t.Fatalf("load stats not returned: %+v", result.Load)
	}
}

func TestRunSequentialMatchesParallel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, sampleRows()...)

	parallel, err := New(config.Default(), picker.Static{Input: input}, zerolog.Nop()).
		Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	cfg := config.Default()
	cfg.Processing.MaxConcurrency = 1
	sequential, err := New(cfg, picker.Static{Input: input}, zerolog.Nop()).
		Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("sequential run: %v", err)
	}

	for i := range parallel.Tables {
		p, s := parallel.Tables[i].Table, sequential.Tables[i].Table
		if diff := cmp.Diff(p.Rows, s.Rows); diff != "" {
			t.Fatalf("table %d differs (-parallel +sequential):\n%s", i, diff)
		}
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeSource(t, dir, sampleRows()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.Default(), picker.Static{Input: input, Output: filepath.Join(dir, "r.xlsx")}, zerolog.Nop()).
		Run(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSuggestedOutput(t *testing.T) {
	t.Parallel()

	conv := New(config.Default(), picker.Static{}, zerolog.Nop())
	if got := conv.suggestedOutput("/data/glosas.xlsx"); got != "Reporte_Clasificado.xlsx" {
		t.Fatalf("default suggestion = %q", got)
	}

	cfg := config.Default()
	cfg.Output.FileNameFormat = "Reporte_{input}"
	conv = New(cfg, picker.Static{}, zerolog.Nop())
	if got := conv.suggestedOutput("/data/glosas.xlsx"); got != "Reporte_glosas.xlsx" {
		t.Fatalf("formatted suggestion = %q", got)
	}
}
