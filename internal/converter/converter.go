// =============================================================================
// Glosa Classifier - Converter Module
// =============================================================================
//
// This module orchestrates one classification run, from picking the source
// sheet to writing the report.
//
// PIPELINE:
//   1. Pick the source file (Picker)
//   2. Load and clean the sheet
//   3. Classify every invoice into T1..T5
//   4. Recount the categories against the input
//   5. Build the five summary/detail tables
//   6. Pick the destination (Picker)
//   7. Render the workbook
//
// CONCURRENCY:
//   The five category tables are independent and are built in parallel,
//   bounded by processing.max_concurrency. Everything else runs in order.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/glosa-classifier/internal/classifier"
	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/loader"
	"github.com/ginjaninja78/glosa-classifier/internal/logging"
	"github.com/ginjaninja78/glosa-classifier/internal/picker"
	"github.com/ginjaninja78/glosa-classifier/internal/report"
	"github.com/ginjaninja78/glosa-classifier/internal/validation"
	"github.com/ginjaninja78/glosa-classifier/internal/xlsxwriter"
	"github.com/ginjaninja78/glosa-classifier/pkg/utils"
)

var (
	// ErrSelectionCancelled is returned when the operator cancels a picker.
	ErrSelectionCancelled = picker.ErrCancelled

	// ErrNoData is returned when no row survives loading.
	ErrNoData = errors.New("processing produced no data")
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Options tune a single run.
type Options struct {
	// Sheet is the worksheet to read. Empty means input.sheet_name.
	Sheet string

	// DryRun stops after the tables are built; nothing is written.
	DryRun bool
}

// Result represents the outcome of a run.
type Result struct {
	// RunID identifies the run in the logs.
	RunID string

	// InputFile is the source that was processed.
	InputFile string

	// OutputFile is the written report. Empty on a dry run.
	OutputFile string

	// Load holds the loader statistics.
	Load loader.Stats

	// Partition is the category recount.
	Partition *validation.PartitionReport

	// Tables are the five category tables in sheet order.
	Tables []xlsxwriter.NamedTable

	// Render describes the written workbook. Zero on a dry run.
	Render xlsxwriter.RenderStats

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the classification pipeline.
type Converter struct {
	cfg    config.Config
	picker picker.Picker
	logger zerolog.Logger
}

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The validated configuration.
//   - p: Supplies the input and output paths.
//   - logger: The base logger. Each run adds its own run id.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg config.Config, p picker.Picker, logger zerolog.Logger) *Converter {
	return &Converter{
		cfg:    cfg,
		picker: p,
		logger: logger,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline once.
//
// RETURNS:
//   - The run result. It is returned alongside ErrNoData and render errors
//     so callers can still print what was loaded.
//   - ErrSelectionCancelled when a picker was cancelled, ErrNoData when no
//     row survived loading, or the load/render error.
func (c *Converter) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.New().String()}
	logger := logging.WithRunID(c.logger, result.RunID)

	// =========================================================================
	// STEP 1: PICK INPUT
	// =========================================================================

	input, ok, err := c.picker.PickInput()
	if err != nil {
		return result, fmt.Errorf("failed to pick input: %w", err)
	}
	if !ok {
		logger.Info().Msg("input selection cancelled")
		return result, ErrSelectionCancelled
	}
	result.InputFile = input

	// =========================================================================
	// STEP 2: LOAD
	// =========================================================================

	items, stats, err := loader.New(c.cfg, logger).Load(input, opts.Sheet)
	result.Load = stats
	if err != nil {
		return result, err
	}
	if len(items) == 0 {
		logger.Warn().Str("input", input).Msg("no rows left after loading")
		return result, ErrNoData
	}

	// =========================================================================
	// STEP 3: CLASSIFY AND RECOUNT
	// =========================================================================

	classification := classifier.Classify(items)
	result.Partition = validation.VerifyPartition(items, classification)
	if err := result.Partition.Err(); err != nil {
		logger.Warn().Err(err).Msg("category recount does not match the source")
	} else {
		logger.Debug().
			Int("invoices", result.Partition.TotalInvoices).
			Int("items", result.Partition.TotalItems).
			Msg("category recount matches the source")
	}

	// =========================================================================
	// STEP 4: BUILD TABLES
	// =========================================================================

	tables, err := c.buildTables(ctx, classification)
	if err != nil {
		return result, err
	}
	result.Tables = tables

	if opts.DryRun {
		result.ProcessingTime = time.Since(start)
		logger.Info().Dur("elapsed", result.ProcessingTime).Msg("dry run, report not written")
		return result, nil
	}

	// =========================================================================
	// STEP 5: PICK OUTPUT AND RENDER
	// =========================================================================

	output, ok, err := c.picker.PickOutput(c.suggestedOutput(input))
	if err != nil {
		return result, fmt.Errorf("failed to pick output: %w", err)
	}
	if !ok {
		logger.Info().Msg("output selection cancelled")
		return result, ErrSelectionCancelled
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	render, err := xlsxwriter.New(c.cfg, logger).Render(tables, output)
	result.Render = render
	if err != nil {
		return result, err
	}
	result.OutputFile = output
	result.ProcessingTime = time.Since(start)

	logger.Info().
		Str("input", input).
		Str("output", output).
		Dur("elapsed", result.ProcessingTime).
		Msg("classification complete")

	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// buildTables builds the five category tables, in sheet order.
func (c *Converter) buildTables(ctx context.Context, classification *classifier.Result) ([]xlsxwriter.NamedTable, error) {
	builder := report.NewBuilder(c.cfg.Columns)
	sheets := c.cfg.Output.Sheets.Ordered()
	categories := classifier.Categories()
	tables := make([]xlsxwriter.NamedTable, len(categories))

	g, ctx := errgroup.WithContext(ctx)
	if limit := c.cfg.Processing.MaxConcurrency; limit > 0 {
		g.SetLimit(limit)
	}

	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			table, err := builder.Build(classification.Items(category))
			if err != nil {
				return fmt.Errorf("failed to build %s table: %w", category, err)
			}
			tables[i] = xlsxwriter.NamedTable{Sheet: sheets[i], Table: table}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// suggestedOutput is the file name proposed by the output picker.
func (c *Converter) suggestedOutput(input string) string {
	if format := c.cfg.Output.FileNameFormat; format != "" {
		return utils.GenerateOutputFileName(format, map[string]string{
			"input": utils.BaseName(input),
		})
	}
	return utils.EnsureExtension(c.cfg.Output.DefaultFileName)
}
