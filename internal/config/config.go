// =============================================================================
// Glosa Classifier - Configuration Module
// =============================================================================
//
// This module holds the static registry the whole pipeline runs on:
//   - Column names of the source dispute sheet (internal names)
//   - Business rules (valid statuses, empty-date marker, date layouts)
//   - Output sheet names, column ordering and display names
//   - Render formats, processing and logging settings
//
// The built-in defaults reproduce the billing team's spreadsheet layout. A
// YAML file can override any of them. The resulting Config is built once and
// passed by value to every component; nothing in this package is mutable
// package state.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// GENERATED COLUMNS AND ROW KINDS
// =============================================================================
// These names belong to the report schema itself, so they are not
// overridable: the sort contract depends on the marker values.

const (
	// ColRowKind holds the row-kind marker of every report row.
	ColRowKind = "Tipo de Fila"

	// ColTotalItems is the item count of an invoice (summary rows only).
	ColTotalItems = "Total Items Factura"

	// The four predicate-combination counts (summary rows only).
	ColConCCConFR = "Con CC y Con FR"
	ColConCCSinFR = "Con CC y Sin FR"
	ColSinCCSinFR = "Sin CC y Sin FR"
	ColSinCCConFR = "Sin CC y Con FR"

	// RowKindSummary marks the aggregated row of an invoice.
	RowKindSummary = "Resumen Factura"

	// RowKindDetail marks a copied item row.
	RowKindDetail = "Detalle Ítem"
)

// DefaultConfigFile is the file looked up when --config is not given.
const DefaultConfigFile = "config.yaml"

// maxSheetNameLength is the worksheet name limit imposed by the xlsx format.
const maxSheetNameLength = 31

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config is the complete, immutable configuration of one run.
type Config struct {
	// Input controls how the source workbook or export is read.
	Input InputSettings `yaml:"input"`

	// Columns is the column-name registry of the source sheet.
	Columns Columns `yaml:"columns"`

	// Rules holds the business rules applied while cleaning.
	Rules Rules `yaml:"rules"`

	// Output controls the rendered report.
	Output OutputSettings `yaml:"output"`

	// Processing holds pipeline tuning knobs.
	Processing ProcessingSettings `yaml:"processing"`

	// Logging controls the structured logger.
	Logging LoggingSettings `yaml:"logging"`
}

// InputSettings describes the source data.
type InputSettings struct {
	// SheetName is the worksheet read from .xlsx/.xls sources.
	// Default: "Hoja1"
	SheetName string `yaml:"sheet_name"`

	// CSV holds the settings used when the source is a delimited export.
	CSV CSVSettings `yaml:"csv"`
}

// CSVSettings contains settings for parsing delimited exports.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "tab", "pipe", "semicolon".
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// Encoding of the export. Supported: "UTF-8", "ISO-8859-1", "Windows-1252".
	// Default: "Windows-1252"
	Encoding string `yaml:"encoding"`

	// HeaderRow is the 1-based row holding the column names. Data starts on
	// the next row.
	// Default: 1
	HeaderRow int `yaml:"header_row"`
}

// Columns is the column-name registry. Internal names equal the source
// headers of the dispute sheet.
type Columns struct {
	ObjectionDate     string `yaml:"objection_date"`
	Series            string `yaml:"series"`
	InvoiceNumber     string `yaml:"invoice_number"`
	PatientDoc        string `yaml:"patient_doc"`
	Entity            string `yaml:"entity"`
	GlossedValue      string `yaml:"glossed_value"`
	Status            string `yaml:"status"`
	ResponseDate      string `yaml:"response_date"`
	CollectionAccount string `yaml:"collection_account"`
	FilingDate        string `yaml:"filing_date"`

	// InvoiceDisplay is the derived series+number column. It never exists
	// in the source.
	InvoiceDisplay string `yaml:"invoice_display"`
}

// Rules holds the business rules of the cleaning stage.
type Rules struct {
	// ValidStatuses is the allow-list for the status column. Rows with any
	// other status are dropped before classification.
	ValidStatuses []string `yaml:"valid_statuses"`

	// NullDateMarker is the text the billing system writes for "no date" in
	// the filing-date column.
	NullDateMarker string `yaml:"null_date_marker"`

	// FilingDateLayout is the fixed Go time layout of textual filing dates.
	FilingDateLayout string `yaml:"filing_date_layout"`

	// DateLayouts are tried, in order, on textual objection and response dates.
	DateLayouts []string `yaml:"date_layouts"`

	// SerialEpoch is day zero of numeric spreadsheet dates (YYYY-MM-DD).
	SerialEpoch string `yaml:"serial_epoch"`

	// RequiredColumns must be present in the source sheet. Other registry
	// columns are optional and resolve to null/zero when absent.
	RequiredColumns []string `yaml:"required_columns"`
}

// OutputSettings controls the rendered workbook.
type OutputSettings struct {
	// DefaultFileName is proposed by the output picker.
	// Default: "Reporte_Clasificado.xlsx"
	DefaultFileName string `yaml:"default_file_name"`

	// FileNameFormat, when set, replaces DefaultFileName. Placeholders:
	// {uuid}, {timestamp}, {date}, {input}.
	FileNameFormat string `yaml:"file_name_format"`

	// Sheets are the fixed names of the five category sheets.
	Sheets SheetNames `yaml:"sheets"`

	// DisplayNames maps internal column names to report headers. Columns
	// without an entry keep their internal name.
	DisplayNames map[string]string `yaml:"display_names"`

	// Formats are the number formats applied per column family.
	Formats Formats `yaml:"formats"`

	// ColumnWidth is applied to every report column.
	// Default: 18
	ColumnWidth float64 `yaml:"column_width"`
}

// SheetNames are the names of the five category sheets.
type SheetNames struct {
	RadicadasOK string `yaml:"radicadas_ok"`
	ConCCSinFR  string `yaml:"con_cc_sin_fr"`
	SinCCSinFR  string `yaml:"sin_cc_sin_fr"`
	SinCCConFR  string `yaml:"sin_cc_con_fr"`
	Mixtas      string `yaml:"mixtas"`
}

// Formats are spreadsheet number formats.
type Formats struct {
	Currency string `yaml:"currency"`
	Integer  string `yaml:"integer"`
	Date     string `yaml:"date"`
}

// ProcessingSettings holds pipeline tuning knobs.
type ProcessingSettings struct {
	// MaxConcurrency bounds the number of category tables built at once.
	// Set to 1 for sequential processing.
	// Default: 5
	MaxConcurrency int `yaml:"max_concurrency"`
}

// LoggingSettings controls the structured logger.
type LoggingSettings struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "console" (human readable) or "json".
	// Default: "console"
	Format string `yaml:"format"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() Config {
	cols := Columns{
		ObjectionDate:     "gl_fecha",
		Series:            "fc_serie",
		InvoiceNumber:     "fc_docn",
		PatientDoc:        "gl_docn",
		Entity:            "nom_terce",
		GlossedValue:      "vr_glosa",
		Status:            "estatus1",
		ResponseDate:      "fecha_gl",
		CollectionAccount: "gr_docn",
		FilingDate:        "fecha_rep",
		InvoiceDisplay:    "Factura",
	}

	return Config{
		Input: InputSettings{
			SheetName: "Hoja1",
			CSV: CSVSettings{
				Delimiter: ";",
				Encoding:  "Windows-1252",
				HeaderRow: 1,
			},
		},
		Columns: cols,
		Rules: Rules{
			ValidStatuses:    []string{"AI", "C1", "C2", "C3", "CO"},
			NullDateMarker:   "  -   -",
			FilingDateLayout: "2006-01-02 15:04:05",
			DateLayouts: []string{
				"2006-01-02",
				"2006-01-02 15:04:05",
				"2006-01-02T15:04:05",
				"02/01/2006",
			},
			SerialEpoch:     "1899-12-30",
			RequiredColumns: defaultRequiredColumns(cols),
		},
		Output: OutputSettings{
			DefaultFileName: "Reporte_Clasificado.xlsx",
			Sheets: SheetNames{
				RadicadasOK: "1_RadicadasOK",
				ConCCSinFR:  "2_ConCC_SinFR",
				SinCCSinFR:  "3_SinCC_SinFR",
				SinCCConFR:  "4_SinCC_ConFR",
				Mixtas:      "5_Mixtas",
			},
			DisplayNames: defaultDisplayNames(cols),
			Formats: Formats{
				Currency: "$ #,##0",
				Integer:  "0",
				Date:     "dd/mm/yy",
			},
			ColumnWidth: 18,
		},
		Processing: ProcessingSettings{
			MaxConcurrency: 5,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// defaultRequiredColumns lists the columns the classifier cannot run without.
func defaultRequiredColumns(cols Columns) []string {
	return []string{
		cols.Series,
		cols.InvoiceNumber,
		cols.PatientDoc,
		cols.Status,
		cols.CollectionAccount,
		cols.FilingDate,
	}
}

// defaultDisplayNames returns the report headers keyed by the given column
// names. The invoice display column is shown under its own name.
func defaultDisplayNames(cols Columns) map[string]string {
	return map[string]string{
		cols.Series:            "Serie",
		cols.InvoiceNumber:     "N° Factura",
		cols.InvoiceDisplay:    cols.InvoiceDisplay,
		cols.PatientDoc:        "No. Paciente (Gl_docn)",
		cols.Entity:            "Entidad",
		cols.ObjectionDate:     "Fecha Objeción",
		cols.ResponseDate:      "Fecha Contestación",
		cols.FilingDate:        "Fecha Radicado",
		cols.CollectionAccount: "Cuenta de Cobro",
		cols.Status:            "Estatus",
		cols.GlossedValue:      "Valor Glosa",
	}
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// columnBound holds the settings whose defaults are keyed by column name.
// A file that renames columns gets those defaults rebuilt for the new names
// unless it sets them itself.
type columnBound struct {
	Rules struct {
		RequiredColumns []string `yaml:"required_columns"`
	} `yaml:"rules"`
	Output struct {
		DisplayNames map[string]string `yaml:"display_names"`
	} `yaml:"output"`
}

// LoadConfig loads the configuration from a YAML file layered over Default().
//
// PARAMETERS:
//   - configPath: The path to the YAML file.
//   - explicit: Whether the user named the file. A missing implicit file
//     yields the defaults; a missing explicit file is an error.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file cannot be read, parsed or validated.
func LoadConfig(configPath string, explicit bool) (Config, error) {
	config := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return config, nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	var set columnBound
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)
	applyColumnDefaults(&config, set)

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyDefaults restores defaults for values a YAML file blanked out.
func applyDefaults(config *Config) {
	def := Default()

	if config.Input.SheetName == "" {
		config.Input.SheetName = def.Input.SheetName
	}
	if config.Input.CSV.Delimiter == "" {
		config.Input.CSV.Delimiter = def.Input.CSV.Delimiter
	}
	if config.Input.CSV.Encoding == "" {
		config.Input.CSV.Encoding = def.Input.CSV.Encoding
	}
	if config.Input.CSV.HeaderRow <= 0 {
		config.Input.CSV.HeaderRow = def.Input.CSV.HeaderRow
	}
	if config.Columns.InvoiceDisplay == "" {
		config.Columns.InvoiceDisplay = def.Columns.InvoiceDisplay
	}
	if len(config.Rules.ValidStatuses) == 0 {
		config.Rules.ValidStatuses = def.Rules.ValidStatuses
	}
	if config.Rules.FilingDateLayout == "" {
		config.Rules.FilingDateLayout = def.Rules.FilingDateLayout
	}
	if len(config.Rules.DateLayouts) == 0 {
		config.Rules.DateLayouts = def.Rules.DateLayouts
	}
	if config.Rules.SerialEpoch == "" {
		config.Rules.SerialEpoch = def.Rules.SerialEpoch
	}
	if config.Output.DefaultFileName == "" {
		config.Output.DefaultFileName = def.Output.DefaultFileName
	}
	if config.Output.Formats.Currency == "" {
		config.Output.Formats.Currency = def.Output.Formats.Currency
	}
	if config.Output.Formats.Integer == "" {
		config.Output.Formats.Integer = def.Output.Formats.Integer
	}
	if config.Output.Formats.Date == "" {
		config.Output.Formats.Date = def.Output.Formats.Date
	}
	if config.Output.ColumnWidth <= 0 {
		config.Output.ColumnWidth = def.Output.ColumnWidth
	}
	if config.Processing.MaxConcurrency <= 0 {
		config.Processing.MaxConcurrency = def.Processing.MaxConcurrency
	}
	if config.Logging.Level == "" {
		config.Logging.Level = def.Logging.Level
	}
	if config.Logging.Format == "" {
		config.Logging.Format = def.Logging.Format
	}
}

// applyColumnDefaults rebuilds the column-keyed defaults for the merged
// column names. Display names from the file are layered on top.
func applyColumnDefaults(config *Config, set columnBound) {
	if set.Rules.RequiredColumns == nil {
		config.Rules.RequiredColumns = defaultRequiredColumns(config.Columns)
	}

	names := defaultDisplayNames(config.Columns)
	for column, name := range set.Output.DisplayNames {
		names[column] = name
	}
	config.Output.DisplayNames = names
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	source := c.Columns.Source()
	seen := make(map[string]bool, len(source))
	for _, name := range source {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("columns: every source column needs a name")
		}
		if seen[name] {
			return fmt.Errorf("columns: %q is registered twice", name)
		}
		seen[name] = true
	}
	if seen[c.Columns.InvoiceDisplay] {
		return fmt.Errorf("columns: invoice_display %q clashes with a source column", c.Columns.InvoiceDisplay)
	}
	for _, name := range generatedColumns() {
		if seen[name] || c.Columns.InvoiceDisplay == name {
			return fmt.Errorf("columns: %q is reserved for a generated report column", name)
		}
	}

	for _, required := range c.Rules.RequiredColumns {
		if !seen[required] {
			return fmt.Errorf("rules: required column %q is not a registered source column", required)
		}
	}

	if len(c.Rules.ValidStatuses) == 0 {
		return fmt.Errorf("rules: valid_statuses must not be empty")
	}

	if _, err := civil.ParseDate(c.Rules.SerialEpoch); err != nil {
		return fmt.Errorf("rules: serial_epoch: %w", err)
	}

	sheetSeen := make(map[string]bool, 5)
	for _, name := range c.Output.Sheets.Ordered() {
		if name == "" {
			return fmt.Errorf("output: every category sheet needs a name")
		}
		if len([]rune(name)) > maxSheetNameLength {
			return fmt.Errorf("output: sheet name %q exceeds %d characters", name, maxSheetNameLength)
		}
		if strings.ContainsAny(name, `:\/?*[]`) {
			return fmt.Errorf("output: sheet name %q contains a forbidden character", name)
		}
		if sheetSeen[name] {
			return fmt.Errorf("output: sheet name %q is used twice", name)
		}
		sheetSeen[name] = true
	}

	return nil
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Source returns the recognised source columns in sheet order.
func (c Columns) Source() []string {
	return []string{
		c.ObjectionDate,
		c.Series,
		c.InvoiceNumber,
		c.PatientDoc,
		c.Entity,
		c.GlossedValue,
		c.Status,
		c.ResponseDate,
		c.CollectionAccount,
		c.FilingDate,
	}
}

// InvoiceKey returns the columns forming the invoice key, in key order.
func (c Columns) InvoiceKey() []string {
	return []string{c.Series, c.InvoiceNumber, c.PatientDoc}
}

// Dates returns the three date columns.
func (c Columns) Dates() []string {
	return []string{c.ObjectionDate, c.ResponseDate, c.FilingDate}
}

// Integers returns the columns rendered as plain integers.
func (c Columns) Integers() []string {
	return []string{c.InvoiceNumber, c.PatientDoc, c.CollectionAccount}
}

// generatedColumns returns the report columns the pipeline adds itself.
func generatedColumns() []string {
	return []string{
		ColRowKind,
		ColTotalItems,
		ColConCCConFR,
		ColConCCSinFR,
		ColSinCCSinFR,
		ColSinCCConFR,
	}
}

// Ordered returns the canonical report column order.
func (c Columns) Ordered() []string {
	return append([]string{
		// Identification
		c.Series,
		c.InvoiceNumber,
		c.InvoiceDisplay,
		c.PatientDoc,
		c.Entity,
		// Dates
		c.ObjectionDate,
		c.ResponseDate,
		c.FilingDate,
		// Status and value
		c.CollectionAccount,
		c.Status,
		c.GlossedValue,
	}, generatedColumns()...)
}

// Ordered returns the five sheet names in category order T1..T5.
func (s SheetNames) Ordered() []string {
	return []string{s.RadicadasOK, s.ConCCSinFR, s.SinCCSinFR, s.SinCCConFR, s.Mixtas}
}

// Epoch returns the parsed serial epoch. Validate guarantees it parses.
func (r Rules) Epoch() civil.Date {
	d, err := civil.ParseDate(r.SerialEpoch)
	if err != nil {
		return civil.Date{Year: 1899, Month: 12, Day: 30}
	}
	return d
}

// IsValidStatus reports whether status is on the allow-list.
func (r Rules) IsValidStatus(status string) bool {
	for _, s := range r.ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// DisplayName returns the report header of an internal column.
func (o OutputSettings) DisplayName(column string) string {
	if name, ok := o.DisplayNames[column]; ok && name != "" {
		return name
	}
	return column
}
