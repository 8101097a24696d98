// =============================================================================
// Glosa Classifier - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command, which shows how a source file
// lines up with the configured columns without classifying anything. Use it
// to find the right --sheet or to see which required column is missing.
//
// COMMAND USAGE:
//   glosas inspect <file> [--sheet NAME]
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/glosa-classifier/internal/loader"
)

var inspectSheet string

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the sheets and recognised columns of a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		report, err := loader.New(cfg, logger).Inspect(args[0], inspectSheet)
		if err != nil {
			return err
		}

		printInspection(cmd.OutOrStdout(), args[0], report)
		if len(report.MissingRequired) > 0 {
			return fmt.Errorf("sheet %q lacks required column(s): %s",
				report.Sheet, strings.Join(report.MissingRequired, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "Worksheet to inspect (default from config)")
}

// printInspection writes the column report.
func printInspection(out io.Writer, path string, report loader.ColumnReport) {
	fmt.Fprintf(out, "=== %s ===\n", path)
	if len(report.Sheets) > 0 {
		fmt.Fprintf(out, "Sheets:           %s\n", strings.Join(report.Sheets, ", "))
	}
	fmt.Fprintf(out, "Inspected sheet:  %s (%d data rows)\n", report.Sheet, report.Rows)
	fmt.Fprintf(out, "Recognised:       %s\n", list(report.Recognised))
	fmt.Fprintf(out, "Missing required: %s\n", list(report.MissingRequired))
	fmt.Fprintf(out, "Missing optional: %s\n", list(report.MissingOptional))
	fmt.Fprintf(out, "Ignored:          %s\n", list(report.Ignored))
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
