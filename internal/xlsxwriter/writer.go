// =============================================================================
// Glosa Classifier - Report Writer
// =============================================================================
//
// This module renders the category tables to one workbook, one sheet per
// category:
//
//   | Sheet           | Content                               |
//   |-----------------|---------------------------------------|
//   | 1_RadicadasOK   | T1 summary + detail rows              |
//   | 2_ConCC_SinFR   | T2                                    |
//   | 3_SinCC_SinFR   | T3                                    |
//   | 4_SinCC_ConFR   | T4                                    |
//   | 5_Mixtas        | T5                                    |
//
// FORMATTING:
//   - Headers use the configured display names, bold, with an autofilter
//     and a frozen header row
//   - Glossed value: currency format
//   - Invoice number, patient doc, collection account: plain integer; an
//     account of 0 is written blank
//   - Dates: date format
//   - Everything else: centered text
//
// Empty tables are skipped with a notice. The workbook is written to a
// temporary file and renamed into place, so a failed run never leaves a
// partial report at the destination.
//
// =============================================================================

package xlsxwriter

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/logging"
	"github.com/ginjaninja78/glosa-classifier/internal/report"
	"github.com/ginjaninja78/glosa-classifier/pkg/utils"
)

// ErrNothingToRender is returned when every table is empty.
var ErrNothingToRender = errors.New("every category table is empty")

// =============================================================================
// TYPES
// =============================================================================

// NamedTable is a table with its sheet name.
type NamedTable struct {
	Sheet string
	Table *report.Table
}

// RenderStats describes a written workbook.
type RenderStats struct {
	// Path is the written file.
	Path string

	// SheetsWritten are the sheets in the workbook, in order.
	SheetsWritten []string

	// SheetsSkipped are the sheets left out because their table was empty.
	SheetsSkipped []string

	// RowsWritten is the number of data rows over all sheets.
	RowsWritten int
}

// RenderError reports a failure to write the workbook.
type RenderError struct {
	Path  string
	Sheet string
	Err   error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("failed to render sheet %q of %s: %v", e.Sheet, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to render %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// =============================================================================
// WRITER
// =============================================================================

// Writer renders report tables to xlsx.
type Writer struct {
	cfg    config.Config
	logger zerolog.Logger
}

// New creates a Writer.
func New(cfg config.Config, logger zerolog.Logger) *Writer {
	return &Writer{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "xlsxwriter"),
	}
}

// styles holds the style ids of one workbook.
type styles struct {
	header   int
	text     int
	integer  int
	currency int
	date     int
}

// Render writes the tables to outputPath.
//
// PARAMETERS:
//   - tables: The tables in sheet order. Empty tables are skipped.
//   - outputPath: The destination .xlsx file. An existing file is replaced.
//
// RETURNS:
//   - What was written.
//   - A *RenderError if nothing could be written or the write failed. The
//     destination is untouched in that case.
func (w *Writer) Render(tables []NamedTable, outputPath string) (RenderStats, error) {
	stats := RenderStats{Path: outputPath}

	f := excelize.NewFile()
	defer f.Close()

	st, err := w.createStyles(f)
	if err != nil {
		return stats, &RenderError{Path: outputPath, Err: err}
	}

	defaultSheet := f.GetSheetName(0)
	for _, nt := range tables {
		if nt.Table == nil || nt.Table.Len() == 0 {
			w.logger.Info().Str("sheet", nt.Sheet).Msg("category is empty, sheet skipped")
			stats.SheetsSkipped = append(stats.SheetsSkipped, nt.Sheet)
			continue
		}

		if len(stats.SheetsWritten) == 0 {
			err = f.SetSheetName(defaultSheet, nt.Sheet)
		} else {
			_, err = f.NewSheet(nt.Sheet)
		}
		if err != nil {
			return stats, &RenderError{Path: outputPath, Sheet: nt.Sheet, Err: err}
		}

		if err := w.writeSheet(f, nt.Sheet, nt.Table, st); err != nil {
			return stats, &RenderError{Path: outputPath, Sheet: nt.Sheet, Err: err}
		}

		stats.SheetsWritten = append(stats.SheetsWritten, nt.Sheet)
		stats.RowsWritten += nt.Table.Len()
		w.logger.Debug().Str("sheet", nt.Sheet).Int("rows", nt.Table.Len()).Msg("sheet written")
	}

	if len(stats.SheetsWritten) == 0 {
		return stats, &RenderError{Path: outputPath, Err: ErrNothingToRender}
	}
	f.SetActiveSheet(0)

	tmp, err := utils.TempSibling(outputPath)
	if err != nil {
		return stats, &RenderError{Path: outputPath, Err: err}
	}
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return stats, &RenderError{Path: outputPath, Err: err}
	}
	if err := utils.ReplaceFile(tmp, outputPath); err != nil {
		return stats, &RenderError{Path: outputPath, Err: err}
	}

	w.logger.Info().
		Str("path", outputPath).
		Strs("sheets", stats.SheetsWritten).
		Int("rows", stats.RowsWritten).
		Msg("report written")

	return stats, nil
}

// createStyles registers the workbook styles.
func (w *Writer) createStyles(f *excelize.File) (styles, error) {
	formats := w.cfg.Output.Formats
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	var (
		st  styles
		err error
	)

	if st.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: center}); err != nil {
		return st, err
	}
	if st.text, err = f.NewStyle(&excelize.Style{Alignment: center}); err != nil {
		return st, err
	}
	if st.integer, err = f.NewStyle(&excelize.Style{CustomNumFmt: &formats.Integer}); err != nil {
		return st, err
	}
	if st.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &formats.Currency}); err != nil {
		return st, err
	}
	if st.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &formats.Date, Alignment: center}); err != nil {
		return st, err
	}
	return st, nil
}

// writeSheet writes one table: header, rows, column styles, filter, panes.
func (w *Writer) writeSheet(f *excelize.File, sheet string, table *report.Table, st styles) error {
	columns := table.Schema.Columns
	account := w.cfg.Columns.CollectionAccount

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = w.cfg.Output.DisplayName(col.Name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	values := make([]interface{}, len(columns))
	for r, row := range table.Rows {
		for i, c := range row {
			values[i] = cellValue(c, columns[i].Name == account)
		}
		ref, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, ref, &values); err != nil {
			return err
		}
	}

	lastRow := table.Len() + 1
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.header); err != nil {
		return err
	}
	for i, col := range columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		style := st.text
		switch col.Kind {
		case report.KindInt:
			style = st.integer
		case report.KindDecimal:
			style = st.currency
		case report.KindDate:
			style = st.date
		}
		if err := f.SetCellStyle(sheet, name+"2", fmt.Sprintf("%s%d", name, lastRow), style); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, w.cfg.Output.ColumnWidth); err != nil {
		return err
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue converts a report cell to a value excelize can write. Nulls and
// a zero collection account are written blank.
func cellValue(c report.Cell, isAccount bool) interface{} {
	if c.Null {
		return nil
	}
	switch c.Kind {
	case report.KindInt:
		if isAccount && c.Int == 0 {
			return nil
		}
		return c.Int
	case report.KindDate:
		return c.Date.In(time.UTC)
	case report.KindDecimal:
		return c.Decimal.InexactFloat64()
	default:
		return c.Text
	}
}
