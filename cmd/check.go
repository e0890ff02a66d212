// =============================================================================
// Bulk Poster - Check Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkposter check FILE
//
// Validates the batch locally, then sends it to the remote validate endpoint
// and prints each posting's verdict and preview. Nothing goes live.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/cl-bulk-poster/internal/xmlreader"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a batch locally and at the remote service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, file string) error {
	startTime := time.Now()

	mainConfig, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	account, err := mainConfig.ResolveAccount()
	if err != nil {
		return err
	}

	b, err := loadBatch(file, mainConfig, account, logger)
	if err != nil {
		return err
	}

	b.Validate(cmd.Context())

	out := cmd.OutOrStdout()
	fm := newFileManager(mainConfig)

	printErrors(out, file, b)
	printStatuses(out, b)

	if err := writeErrorLog(out, fm, file, b); err != nil {
		return err
	}

	kind := xmlreader.ValidationResponse.String()
	if _, err := fm.WriteSummaryLog(runSummary(file, kind, startTime, "", b)); err != nil {
		return err
	}

	if !b.Valid() {
		return fmt.Errorf("%s failed validation", file)
	}
	return nil
}
