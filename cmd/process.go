// =============================================================================
// Bulk Poster - Batch Processing Helpers
// =============================================================================
//
// This file holds the pipeline steps shared by the commands:
//
// PROCESSING PIPELINE:
//   1. Load the batch file into postings (internal/loader)
//   2. Bind the postings to the account and endpoints (internal/bulkposter)
//   3. Validate locally and, for check/post, at the remote service
//   4. Report errors and remote statuses on the terminal
//   5. Write error logs and run summaries to the output directory
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/cl-bulk-poster/internal/bulkposter"
	"github.com/ginjaninja78/cl-bulk-poster/internal/config"
	"github.com/ginjaninja78/cl-bulk-poster/internal/loader"
	"github.com/ginjaninja78/cl-bulk-poster/internal/transport"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
	"github.com/ginjaninja78/cl-bulk-poster/pkg/utils"
)

// =============================================================================
// BATCH LOADING
// =============================================================================

// loadBatch reads a batch file and binds it to the account and the
// configured endpoints.
func loadBatch(path string, mainConfig *config.MainConfig, account types.Account, logger *logrus.Logger) (*bulkposter.BulkPoster, error) {
	postings, err := loader.Load(path, loader.Options{CSV: mainConfig.CSVSettings})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return bulkposter.New(account, postings,
		bulkposter.WithEndpoints(bulkposter.Endpoints{
			Validate: mainConfig.Endpoints.Validate,
			Post:     mainConfig.Endpoints.Post,
		}),
		bulkposter.WithTransport(transport.NewHTTP(mainConfig.HTTP.Timeout)),
		bulkposter.WithLogger(logger.WithField("batch", filepath.Base(path))),
	), nil
}

// newFileManager returns the file manager for the configured output dir.
func newFileManager(mainConfig *config.MainConfig) *utils.FileManager {
	return utils.NewFileManager(mainConfig.OutputDir, mainConfig.OutputNameFormat)
}

// =============================================================================
// REPORTING
// =============================================================================

// errorEntries flattens batch and posting errors for the error log. Batch
// errors come first.
func errorEntries(b *bulkposter.BulkPoster) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, e := range b.Errors {
		entries = append(entries, utils.ErrorLogEntry{
			ErrorType: e.Kind.String(),
			Message:   e.Error(),
		})
	}
	for _, p := range b.Postings {
		for _, e := range p.Errors {
			entries = append(entries, utils.ErrorLogEntry{
				Posting:   p.Name,
				ErrorType: e.Kind.String(),
				Message:   e.Error(),
			})
		}
	}
	return entries
}

// printErrors writes one line per error under a header naming the batch.
// It prints a single success line when there is nothing to report.
func printErrors(w io.Writer, path string, b *bulkposter.BulkPoster) {
	entries := errorEntries(b)
	if len(entries) == 0 {
		fmt.Fprintf(w, "  ✓ %s: %d posting(s) valid\n", filepath.Base(path), len(b.Postings))
		return
	}

	fmt.Fprintf(w, "  ✗ %s: %d error(s)\n", filepath.Base(path), len(entries))
	for _, entry := range entries {
		name := entry.Posting
		if name == "" {
			name = "(batch)"
		}
		fmt.Fprintf(w, "      %s: %s\n", name, entry.Message)
	}
}

// printStatuses writes the remote verdict for every posting, with the
// preview rendered as plain text.
func printStatuses(w io.Writer, b *bulkposter.BulkPoster) {
	for _, p := range b.Postings {
		if p.Status == nil {
			fmt.Fprintf(w, "  %s: no status returned\n", p.Name)
			continue
		}

		fmt.Fprintf(w, "  %s: [%s] %s\n", p.Name, p.Status.PostedStatus, p.Status.PostedExplanation)
		if p.Status.Receipt != nil {
			fmt.Fprintf(w, "      posting id: %s\n", p.Status.Receipt.PostingID)
			fmt.Fprintf(w, "      manage:     %s\n", p.Status.Receipt.ManageURL)
		}
		if preview := p.Status.PreviewText(); preview != "" {
			fmt.Fprintf(w, "      preview:    %s\n", preview)
		}
	}
}

// runSummary collects the remote outcome of a batch for the summary log.
func runSummary(path, kind string, start time.Time, documentPath string, b *bulkposter.BulkPoster) utils.RunSummary {
	summary := utils.RunSummary{
		BatchFile:    path,
		Kind:         kind,
		StartTime:    start,
		EndTime:      time.Now(),
		DocumentPath: documentPath,
		ErrorCount:   len(errorEntries(b)),
	}

	for _, p := range b.Postings {
		ps := utils.PostingSummary{Name: p.Name}
		if p.Status != nil {
			ps.PostedStatus = p.Status.PostedStatus
			ps.PostedExplanation = p.Status.PostedExplanation
			if p.Status.Receipt != nil {
				ps.PostingID = p.Status.Receipt.PostingID
				ps.ManageURL = p.Status.Receipt.ManageURL
			}
		}
		summary.Postings = append(summary.Postings, ps)
	}

	return summary
}

// writeErrorLog writes the batch's error log, if any, and tells the user
// where it went.
func writeErrorLog(w io.Writer, fm *utils.FileManager, path string, b *bulkposter.BulkPoster) error {
	logPath, err := fm.WriteErrorLog(path, errorEntries(b))
	if err != nil {
		return err
	}
	if logPath != "" {
		fmt.Fprintf(w, "  Error log: %s\n", logPath)
	}
	return nil
}
