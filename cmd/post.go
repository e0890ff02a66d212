// =============================================================================
// Bulk Poster - Post Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkposter post FILE [flags]
//
// FLAGS:
//   --dry-run : Stop after remote validation; nothing goes live
//
// PROCESSING PIPELINE:
//   1. Take the output directory lock so two runs cannot post at once
//   2. Validate locally; stop on any error
//   3. Validate at the remote service; stop on any batch error
//   4. Archive the exact document that will be posted
//   5. Post it and print the receipts
//   6. Write the error log and run summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/cl-bulk-poster/internal/xmlreader"
)

// dryRun stops after remote validation.
var dryRun bool

var postCmd = &cobra.Command{
	Use:   "post FILE",
	Short: "Validate and post a batch file",
	Long: `The post command validates a batch locally and at the remote service and,
if both succeed, posts it for real.

On success:
  - The posted document is archived in the output directory
  - Posting ids and manage URLs are printed and written to a run summary

On error:
  - Nothing is posted
  - An error log is created in the output directory`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPost(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(postCmd)

	postCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Stop after remote validation; nothing goes live",
	)
}

func runPost(cmd *cobra.Command, file string) error {
	startTime := time.Now()

	mainConfig, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	account, err := mainConfig.ResolveAccount()
	if err != nil {
		return err
	}

	fm := newFileManager(mainConfig)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(fm.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", fm.LockPath(), err)
	}
	if !locked {
		return fmt.Errorf("another post run holds %s", fm.LockPath())
	}
	defer lock.Unlock()

	b, err := loadBatch(file, mainConfig, account, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	log := logger.WithField("batch", file)

	// =========================================================================
	// LOCAL VALIDATION
	// =========================================================================

	b.ValidatePostings()
	if !b.Valid() {
		printErrors(out, file, b)
		if err := writeErrorLog(out, fm, file, b); err != nil {
			return err
		}
		return fmt.Errorf("%s failed local validation; nothing was posted", file)
	}

	// =========================================================================
	// REMOTE VALIDATION
	// =========================================================================

	b.ValidateAtRemote(cmd.Context())
	if !b.Valid() {
		printErrors(out, file, b)
		if err := writeErrorLog(out, fm, file, b); err != nil {
			return err
		}
		return fmt.Errorf("%s failed remote validation; nothing was posted", file)
	}

	if dryRun {
		printStatuses(out, b)
		log.Info("dry run: remote validation passed, not posting")
		return nil
	}

	// =========================================================================
	// POST
	// =========================================================================

	documentPath, err := fm.ArchiveDocument(file, xmlreader.PostingResponse.String(), b.SubmissionDocument)
	if err != nil {
		return err
	}
	log.WithField("document", documentPath).Info("submission document archived")

	b.SubmitToRemote(cmd.Context())

	printErrors(out, file, b)
	printStatuses(out, b)

	if err := writeErrorLog(out, fm, file, b); err != nil {
		return err
	}

	summaryPath, err := fm.WriteSummaryLog(runSummary(file, xmlreader.PostingResponse.String(), startTime, documentPath, b))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Summary: %s\n", summaryPath)

	if !b.Valid() {
		return fmt.Errorf("%s could not be posted", file)
	}
	return nil
}
