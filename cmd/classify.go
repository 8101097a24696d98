// =============================================================================
// Glosa Classifier - Classify Command
// =============================================================================
//
// This file defines the 'classify' command, which runs the whole pipeline on
// one source sheet and writes the categorised report.
//
// COMMAND USAGE:
//   glosas classify [flags]
//
// FLAGS:
//   --input, -i   : Source sheet (.xlsx, .xlsm, .xls, .csv). Asked for when absent
//   --output, -o  : Report destination. Asked for when absent
//   --sheet       : Worksheet to read (default: input.sheet_name)
//   --dry-run     : Classify and print the recount without writing a report
//
// EXIT STATUS:
//   0 on success and when a selection is cancelled, 1 on any failure.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/converter"
	"github.com/ginjaninja78/glosa-classifier/internal/picker"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputPath  string
	outputPath string
	sheetName  string
	dryRun     bool
)

// =============================================================================
// CLASSIFY COMMAND DEFINITION
// =============================================================================

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a dispute sheet and write the categorised report",
	Long: `The classify command loads the source sheet, keeps the rows with a valid
status (AI, C1, C2, C3, CO), classifies every invoice into T1..T5 and writes
one workbook with a sheet per non-empty category.

Paths not given as flags are asked for on the terminal. An empty answer to
the source question cancels the run; an empty answer to the destination
question accepts the proposed name.

After classification the categories are recounted against the source. A
mismatch is reported as a WARNING but the report is still written.`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClassify(cmd)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Source sheet to classify")
	classifyCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report destination (.xlsx)")
	classifyCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet to read (default from config)")
	classifyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the recount without writing the report")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runClassify(cmd *cobra.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	p := picker.Override{
		Fallback: picker.NewPrompt(cmd.InOrStdin(), out),
		Input:    inputPath,
		Output:   outputPath,
	}

	fmt.Fprintln(out, "=== Glosa Classifier ===")

	conv := converter.New(cfg, p, logger)
	result, err := conv.Run(cmd.Context(), converter.Options{
		Sheet:  sheetName,
		DryRun: dryRun,
	})

	switch {
	case errors.Is(err, converter.ErrSelectionCancelled):
		fmt.Fprintln(out, "Operation cancelled.")
		return nil
	case errors.Is(err, converter.ErrNoData):
		printLoad(out, result)
		return fmt.Errorf("%w: no row of %s has a valid status", err, filepath.Base(result.InputFile))
	case err != nil:
		return err
	}

	printLoad(out, result)
	printRecount(out, cfg, result)

	fmt.Fprintln(out, "\n=== Report ===")
	if dryRun {
		fmt.Fprintln(out, "Dry run: no report written.")
	} else {
		fmt.Fprintf(out, "Written:         %s\n", result.OutputFile)
		fmt.Fprintf(out, "Sheets:          %s\n", strings.Join(result.Render.SheetsWritten, ", "))
		if len(result.Render.SheetsSkipped) > 0 {
			fmt.Fprintf(out, "Skipped (empty): %s\n", strings.Join(result.Render.SheetsSkipped, ", "))
		}
		fmt.Fprintf(out, "Rows written:    %d\n", result.Render.RowsWritten)
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", result.ProcessingTime)

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// printLoad prints what the loader kept.
func printLoad(out io.Writer, result *converter.Result) {
	stats := result.Load
	fmt.Fprintf(out, "Source:          %s (sheet %s)\n", result.InputFile, stats.Sheet)
	fmt.Fprintf(out, "Rows read:       %d\n", stats.RowsRead)
	fmt.Fprintf(out, "Rows kept:       %d\n", stats.RowsKept)
	fmt.Fprintf(out, "Invalid status:  %d\n", stats.FilteredByStatus)
}

// printRecount prints the category recount block.
func printRecount(out io.Writer, cfg config.Config, result *converter.Result) {
	fmt.Fprintln(out, "\n=== Category Recount ===")
	fmt.Fprint(out, result.Partition.Format(cfg.Output.Sheets.Ordered()))
}
