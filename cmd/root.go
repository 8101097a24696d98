// =============================================================================
// Glosa Classifier - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand is
// attached here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (glosas)
//   ├── classifyCmd (glosas classify)
//   ├── inspectCmd  (glosas inspect)
//   └── versionCmd  (glosas version)
//
// The root command owns the global flags (--config, --verbose) and builds the
// configuration and logger every subcommand runs with.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/glosa-classifier/internal/config"
	"github.com/ginjaninja78/glosa-classifier/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "glosas",
	Short: "Glosa Classifier - classify disputed invoices by filing status",
	Long: `Glosa Classifier reads a medical-billing dispute sheet (glosas), groups its
items into invoices and sorts every invoice into one of five categories by
whether its items carry a collection account and a filing date:

  T1  1_RadicadasOK   account and filing date on every item
  T2  2_ConCC_SinFR   account, no filing date
  T3  3_SinCC_SinFR   neither
  T4  4_SinCC_ConFR   filing date, no account
  T5  5_Mixtas        items of the invoice disagree

The result is one workbook with a sheet per category, each listing a summary
row per invoice followed by its items.

Example Usage:
  glosas classify                                # Ask for the source and destination
  glosas classify --input glosas.xlsx            # Propose Reporte_Clasificado.xlsx
  glosas classify -i glosas.xlsx -o marzo.xlsx   # No questions asked
  glosas classify -i glosas.xlsx --dry-run       # Print the recount only
  glosas inspect glosas.xlsx                     # Check sheets and columns`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the configuration file; built-in defaults apply when the default file is absent",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// setup loads the configuration and builds the logger of a command. Logs go
// to stderr so stdout carries only the report summary.
func setup(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	explicit := cmd.Flags().Changed("config")

	cfg, err := config.LoadConfig(cfgFile, explicit)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}

	logger, err := logging.New(cfg.Logging, verbose, cmd.ErrOrStderr())
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("logging: %w", err)
	}
	return cfg, logger, nil
}
