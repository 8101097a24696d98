package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if got := cfg.Rules.Epoch(); got != (civil.Date{Year: 1899, Month: 12, Day: 30}) {
		t.Fatalf("unexpected epoch: %v", got)
	}
	want := []string{"1_RadicadasOK", "2_ConCC_SinFR", "3_SinCC_SinFR", "4_SinCC_ConFR", "5_Mixtas"}
	if diff := cmp.Diff(want, cfg.Output.Sheets.Ordered()); diff != "" {
		t.Fatalf("sheet names mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderedColumns(t *testing.T) {
	t.Parallel()

	got := Default().Columns.Ordered()
	want := []string{
		"fc_serie", "fc_docn", "Factura", "gl_docn", "nom_terce",
		"gl_fecha", "fecha_gl", "fecha_rep",
		"gr_docn", "estatus1", "vr_glosa",
		"Tipo de Fila", "Total Items Factura",
		"Con CC y Con FR", "Con CC y Sin FR", "Sin CC y Sin FR", "Sin CC y Con FR",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("column order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissingImplicitFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"), false)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Input.SheetName != "Hoja1" {
		t.Fatalf("expected default sheet, got %q", cfg.Input.SheetName)
	}
}

func TestLoadConfigMissingExplicitFileFails(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), true); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlText := `
input:
  sheet_name: Glosas
rules:
  valid_statuses: [AI, CO]
output:
  display_names:
    vr_glosa: "Valor Objetado"
processing:
  max_concurrency: 2
`
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Input.SheetName != "Glosas" {
		t.Errorf("sheet not overridden: %q", cfg.Input.SheetName)
	}
	if !cfg.Rules.IsValidStatus("CO") || cfg.Rules.IsValidStatus("C1") {
		t.Errorf("statuses not overridden: %v", cfg.Rules.ValidStatuses)
	}
	if got := cfg.Output.DisplayName("vr_glosa"); got != "Valor Objetado" {
		t.Errorf("display name not overridden: %q", got)
	}
	// Untouched entries of the map survive the merge.
	if got := cfg.Output.DisplayName("fc_serie"); got != "Serie" {
		t.Errorf("default display name lost: %q", got)
	}
	if cfg.Processing.MaxConcurrency != 2 {
		t.Errorf("max_concurrency not overridden: %d", cfg.Processing.MaxConcurrency)
	}
	if cfg.Input.CSV.Encoding != "Windows-1252" {
		t.Errorf("csv default lost: %q", cfg.Input.CSV.Encoding)
	}
}

func TestLoadConfigRenamedColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlText := `
columns:
  series: serie
  invoice_display: Fact
output:
  display_names:
    vr_glosa: "Valor Objetado"
`
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	want := []string{"serie", "fc_docn", "gl_docn", "estatus1", "gr_docn", "fecha_rep"}
	if diff := cmp.Diff(want, cfg.Rules.RequiredColumns); diff != "" {
		t.Errorf("required columns not renamed (-want +got):\n%s", diff)
	}
	for column, name := range map[string]string{
		"serie":    "Serie",
		"Fact":     "Fact",
		"vr_glosa": "Valor Objetado",
		"fc_docn":  "N° Factura",
	} {
		if got := cfg.Output.DisplayName(column); got != name {
			t.Errorf("DisplayName(%q) = %q, want %q", column, got, name)
		}
	}
	if _, ok := cfg.Output.DisplayNames["fc_serie"]; ok {
		t.Errorf("display name of the old column kept: %v", cfg.Output.DisplayNames)
	}
}

func TestLoadConfigKeepsExplicitRequiredColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlText := `
columns:
  series: serie
rules:
  required_columns: [serie, fc_docn]
`
	if err := os.WriteFile(path, []byte(yamlText), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"serie", "fc_docn"}, cfg.Rules.RequiredColumns); diff != "" {
		t.Errorf("required columns not kept (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"long sheet name", func(c *Config) { c.Output.Sheets.Mixtas = strings.Repeat("x", 32) }, "exceeds"},
		{"duplicate sheet", func(c *Config) { c.Output.Sheets.Mixtas = c.Output.Sheets.RadicadasOK }, "used twice"},
		{"bad epoch", func(c *Config) { c.Rules.SerialEpoch = "30/12/1899" }, "serial_epoch"},
		{"unknown required column", func(c *Config) { c.Rules.RequiredColumns = []string{"nope"} }, "required column"},
		{"duplicate column", func(c *Config) { c.Columns.Entity = c.Columns.Series }, "registered twice"},
		{"no statuses", func(c *Config) { c.Rules.ValidStatuses = nil }, "valid_statuses"},
		{"source column named like a generated one", func(c *Config) { c.Columns.Entity = ColRowKind }, "reserved"},
		{"invoice display named like a generated one", func(c *Config) { c.Columns.InvoiceDisplay = ColSinCCConFR }, "reserved"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join("..", "..", "config.example.yaml"), true)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("example config drifted from defaults (-default +example):\n%s", diff)
	}
}
