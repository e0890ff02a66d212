// =============================================================================
// Bulk Poster - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the CLI, including:
//   - Directory management
//   - Archival of submission documents
//   - Error log generation
//   - Run summaries with per-posting remote statuses
//   - File naming utilities
//
// ARCHIVAL STRATEGY:
//   - Every document sent to the remote service is written to the output
//     directory under a unique name, so a live posting can be traced back to
//     exactly what was sent
//   - Error logs and summaries are written next to the archived documents
//   - The output directory also holds the lock file that serializes posting
//     runs
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LockFileName is created in the output directory by the post command.
const LockFileName = ".bulkposter.lock"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the CLI.
type FileManager struct {
	// OutputDir receives archives, logs and the lock file.
	OutputDir string

	// NameFormat is the archive file name format. See GenerateOutputFileName.
	NameFormat string
}

// NewFileManager creates a new FileManager.
func NewFileManager(outputDir, nameFormat string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		NameFormat: nameFormat,
	}
}

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// LockPath returns the path of the lock file.
func (fm *FileManager) LockPath() string {
	return filepath.Join(fm.OutputDir, LockFileName)
}

// =============================================================================
// DOCUMENT ARCHIVAL
// =============================================================================

// ArchiveDocument writes a submission document to the output directory.
//
// PARAMETERS:
//   - batchFile: The batch file the document was built from.
//   - kind: "validate" or "post".
//   - document: The rendered document.
//
// RETURNS:
//   - The path of the archived document.
//   - An error if writing fails.
func (fm *FileManager) ArchiveDocument(batchFile, kind string, document []byte) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	name := GenerateOutputFileName(fm.NameFormat, map[string]string{
		"batch": BatchName(batchFile),
		"kind":  kind,
	})
	path := filepath.Join(fm.OutputDir, name)

	if err := os.WriteFile(path, document, 0600); err != nil {
		return "", fmt.Errorf("failed to archive document: %w", err)
	}

	return path, nil
}

// BatchName returns the base name of a batch file without its extension.
func BatchName(batchFile string) string {
	base := filepath.Base(batchFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {batch}     - Batch file name (without extension)
//               {kind}      - "validate" or "post"
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "{batch}_{kind}_{uuid}.xml"
//   params: {"batch": "housing", "kind": "post"}
//   output: "housing_post_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xml"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Placeholder values must not introduce directories.
	result = strings.ReplaceAll(result, string(filepath.Separator), "_")

	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}

	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	// Posting is empty for batch-level errors.
	Posting   string
	ErrorType string
	Message   string
}

// WriteErrorLog writes error entries for one batch file to a log file.
//
// RETURNS:
//   - The path to the error log file, or "" when there was nothing to write.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(batchFile string, entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	now := time.Now()
	logFileName := fmt.Sprintf("%s_errors_%s_%s.txt", BatchName(batchFile), now.Format("20060102_150405"), uuid.New().String()[:8])
	logPath := filepath.Join(fm.OutputDir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Bulk Poster - Error Log\n"+
		"Batch: %s\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		batchFile,
		now.Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		posting := entry.Posting
		if posting == "" {
			posting = "(batch)"
		}
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Posting:        %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n\n",
			i+1, posting, entry.ErrorType, entry.Message)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary describes one remote call for a batch file.
type RunSummary struct {
	BatchFile    string
	Kind         string
	StartTime    time.Time
	EndTime      time.Time
	DocumentPath string
	ErrorCount   int
	Postings     []PostingSummary
}

// PostingSummary is the remote outcome for one posting.
type PostingSummary struct {
	Name              string
	PostedStatus      string
	PostedExplanation string
	PostingID         string
	ManageURL         string
}

// WriteSummaryLog writes a run summary to the output directory.
func (fm *FileManager) WriteSummaryLog(summary RunSummary) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	summaryFileName := fmt.Sprintf("%s_%s_summary_%s.txt",
		BatchName(summary.BatchFile), summary.Kind, summary.EndTime.Format("20060102_150405"))
	summaryPath := filepath.Join(fm.OutputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Bulk Poster - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Batch:          %s\n"+
		"  Kind:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Document:       %s\n"+
		"  Errors:         %d\n\n",
		summary.BatchFile,
		summary.Kind,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.DocumentPath,
		summary.ErrorCount)

	if len(summary.Postings) > 0 {
		writer.WriteString("Postings:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, p := range summary.Postings {
			fmt.Fprintf(writer, "  Name:         %s\n", p.Name)
			fmt.Fprintf(writer, "  Status:       %s\n", p.PostedStatus)
			fmt.Fprintf(writer, "  Explanation:  %s\n", p.PostedExplanation)
			if p.PostingID != "" {
				fmt.Fprintf(writer, "  Posting ID:   %s\n", p.PostingID)
				fmt.Fprintf(writer, "  Manage URL:   %s\n", p.ManageURL)
			}
			writer.WriteString("\n")
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}
