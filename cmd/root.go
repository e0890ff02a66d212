// =============================================================================
// Bulk Poster - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'validate', 'post') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (bulkposter)
//   ├── validateCmd (bulkposter validate)
//   ├── renderCmd   (bulkposter render)
//   ├── checkCmd    (bulkposter check)
//   ├── postCmd     (bulkposter post)
//   └── versionCmd  (bulkposter version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (e.g., --config, --verbose)
//   2. Initializing the configuration system (viper)
//   3. Setting up logging (logrus)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/cl-bulk-poster/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging regardless of log_level.
var verbose bool

// metricsFile, when set, receives the run's counters in the Prometheus text
// format once the command finishes.
var metricsFile string

// cfgViper and cfgErr are set by initConfig before any command runs.
var (
	cfgViper *viper.Viper
	cfgErr   error
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "bulkposter",

	Short: "Bulk Poster - Validate and submit posting batches to the bulk posting interface",

	Long: `Bulk Poster reads batches of classified postings from JSON, YAML, CSV or
XLSX files, validates them against the site's categories, areas and attribute
rules, renders them as an RDF/RSS submission document and sends them to the
remote validate or post endpoint.

Key Features:
  - Local validation with precise per-field error reporting
  - Remote validation with preview text before anything goes live
  - Archived submission documents and error logs for every run
  - Concurrent validation of many batch files

Example Usage:
  bulkposter validate batches/*.csv          # Check files locally
  bulkposter render housing.yaml --out x.xml # Write the submission document
  bulkposter check housing.yaml              # Ask the remote service to validate
  bulkposter post housing.yaml               # Post for real`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsFile == "" {
			return nil
		}
		if err := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
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
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&metricsFile,
		"metrics-file",
		"",
		"Write run metrics in the Prometheus text format to this file",
	)
}

// initConfig reads the config file and environment. A missing config.yaml is
// fine as long as the environment supplies what a command needs.
func initConfig() {
	cfgViper, cfgErr = config.NewViper(cfgFile, true)
}

// loadRuntime returns the validated configuration and a logger built from it.
func loadRuntime() (*config.MainConfig, *logrus.Logger, error) {
	if cfgErr != nil {
		return nil, nil, cfgErr
	}

	mainConfig, err := config.LoadMainConfig(cfgViper)
	if err != nil {
		return nil, nil, err
	}

	logger, err := mainConfig.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return mainConfig, logger, nil
}
