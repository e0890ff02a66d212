// =============================================================================
// Bulk Poster - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkposter validate FILE... [flags]
//
// FLAGS:
//   --no-error-log : Do not write error logs to the output directory
//
// Files are validated locally and concurrently, at most max_concurrency at a
// time. Nothing is sent to the remote service. Errors in one file do not
// affect the others; the command fails if any file is invalid.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/cl-bulk-poster/internal/bulkposter"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

// noErrorLog skips writing error logs.
var noErrorLog bool

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate batch files locally",
	Long: `The validate command loads each batch file and checks every posting against
the category, area and attribute rules, as well as name uniqueness within the
batch. No network calls are made.

On error:
  - Every error is printed with the posting it belongs to
  - An error log is written to the output directory
  - Other files are still validated`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(
		&noErrorLog,
		"no-error-log",
		false,
		"Do not write error logs to the output directory",
	)
}

// validateResult is the outcome for one batch file.
type validateResult struct {
	poster *bulkposter.BulkPoster
	err    error
}

func runValidate(cmd *cobra.Command, files []string) error {
	startTime := time.Now()

	mainConfig, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	// Local validation never uses the password.
	account := types.Account{
		Username:  mainConfig.Account.Username,
		AccountID: mainConfig.Account.AccountID,
	}

	results := make([]validateResult, len(files))

	var g errgroup.Group
	g.SetLimit(mainConfig.MaxConcurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			b, err := loadBatch(file, mainConfig, account, logger)
			if err != nil {
				results[i] = validateResult{err: err}
				return nil
			}
			b.ValidatePostings()
			results[i] = validateResult{poster: b}
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	fm := newFileManager(mainConfig)

	failed := 0
	for i, result := range results {
		if result.err != nil {
			failed++
			fmt.Fprintf(out, "  ✗ %v\n", result.err)
			continue
		}

		printErrors(out, files[i], result.poster)
		if result.poster.Valid() {
			continue
		}

		failed++
		if !noErrorLog {
			if err := writeErrorLog(out, fm, files[i], result.poster); err != nil {
				return err
			}
		}
	}

	fmt.Fprintln(out, "\n=== Validation Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", len(files))
	fmt.Fprintf(out, "Valid:           %d\n", len(files)-failed)
	fmt.Fprintf(out, "Invalid:         %d\n", failed)
	fmt.Fprintf(out, "Time elapsed:    %s\n", time.Since(startTime))

	if failed > 0 {
		return fmt.Errorf("%d of %d batch file(s) failed validation", failed, len(files))
	}
	return nil
}
