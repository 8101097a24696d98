package picker

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStatic(t *testing.T) {
	t.Parallel()

	if _, ok, err := (Static{}).PickInput(); ok || err != nil {
		t.Fatalf("empty input should cancel, got ok=%v err=%v", ok, err)
	}

	path, ok, err := Static{Input: "glosas.xlsx"}.PickInput()
	if !ok || err != nil || path != "glosas.xlsx" {
		t.Fatalf("PickInput = %q, %v, %v", path, ok, err)
	}

	path, ok, _ = Static{}.PickOutput("Reporte_Clasificado.xlsx")
	if !ok || path != "Reporte_Clasificado.xlsx" {
		t.Fatalf("empty output should accept suggestion, got %q", path)
	}

	path, _, _ = Static{Output: "out/marzo"}.PickOutput("Reporte_Clasificado.xlsx")
	if path != "out/marzo.xlsx" {
		t.Fatalf("output = %q, want out/marzo.xlsx", path)
	}
}

func TestPromptPickInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "glosas.xlsx")
	if err := os.WriteFile(source, []byte("x"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	answers := strings.Join([]string{
		filepath.Join(dir, "notes.pdf"),
		filepath.Join(dir, "missing.xlsx"),
		"  " + source + "  ",
	}, "\n") + "\n"

	var out bytes.Buffer
	path, ok, err := NewPrompt(strings.NewReader(answers), &out).PickInput()
	if err != nil || !ok {
		t.Fatalf("PickInput returned ok=%v err=%v", ok, err)
	}
	if path != source {
		t.Fatalf("path = %q, want %q", path, source)
	}
	if !strings.Contains(out.String(), "Unsupported file type") || !strings.Contains(out.String(), "does not exist") {
		t.Fatalf("expected both rejections in output, got %q", out.String())
	}
}

func TestPromptCancel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty answer", "\n"},
		{"end of input", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, ok, err := NewPrompt(strings.NewReader(tt.input), &bytes.Buffer{}).PickInput()
			if ok || err != nil {
				t.Fatalf("expected cancel, got ok=%v err=%v", ok, err)
			}
		})
	}

	if _, ok, err := NewPrompt(strings.NewReader(""), &bytes.Buffer{}).PickOutput("r.xlsx"); ok || err != nil {
		t.Fatalf("end of input should cancel output pick, got ok=%v err=%v", ok, err)
	}
}

func TestPromptPickOutput(t *testing.T) {
	t.Parallel()

	path, ok, err := NewPrompt(strings.NewReader("\n"), &bytes.Buffer{}).PickOutput("Reporte_Clasificado.xlsx")
	if !ok || err != nil || path != "Reporte_Clasificado.xlsx" {
		t.Fatalf("default not accepted: %q %v %v", path, ok, err)
	}

	path, _, _ = NewPrompt(strings.NewReader("informe"), &bytes.Buffer{}).PickOutput("Reporte_Clasificado.xlsx")
	if path != "informe.xlsx" {
		t.Fatalf("path = %q, want informe.xlsx", path)
	}
}

func TestIsSupportedInput(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]bool{
		"a.xlsx": true,
		"a.XLS":  true,
		"a.csv":  true,
		"a.pdf":  false,
		"a":      false,
	} {
		if got := IsSupportedInput(path); got != want {
			t.Errorf("IsSupportedInput(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestOverride(t *testing.T) {
	t.Parallel()

	p := Override{
		Fallback: NewPrompt(strings.NewReader("\n"), &bytes.Buffer{}),
		Input:    "glosas.csv",
	}

	path, ok, err := p.PickInput()
	if !ok || err != nil || path != "glosas.csv" {
		t.Fatalf("PickInput = %q, %v, %v", path, ok, err)
	}

	// No fixed output: the prompt is asked and its default accepted.
	path, ok, err = p.PickOutput("Reporte_Clasificado.xlsx")
	if !ok || err != nil || path != "Reporte_Clasificado.xlsx" {
		t.Fatalf("PickOutput = %q, %v, %v", path, ok, err)
	}

	p.Output = "salida"
	if path, _, _ = p.PickOutput("Reporte_Clasificado.xlsx"); path != "salida.xlsx" {
		t.Fatalf("fixed output = %q, want salida.xlsx", path)
	}
}
