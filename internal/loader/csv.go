package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/cl-bulk-poster/internal/config"
	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
)

// =============================================================================
// CSV BATCH FILES
// =============================================================================

func loadCSV(path string, opts Options) ([]*posting.Posting, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	csvReader := csv.NewReader(bufio.NewReader(file))
	configureReader(csvReader, opts.CSV)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := cleanHeaders(allRows[0])
	if err := checkNameColumn(headers); err != nil {
		return nil, err
	}

	rows := extractDataRows(allRows[1:], headers)
	return rowsToPostings(headers, rows, filepath.Dir(path), opts)
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	// Handle special cases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if r := []rune(settings.Delimiter); len(r) > 0 {
			reader.Comma = r[0]
		} else {
			reader.Comma = ','
		}
	}

	if r := []rune(settings.Comment); len(r) > 0 {
		reader.Comment = r[0]
	}

	// Rows may omit trailing empty columns.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims headers and lower-cases the part before the first ".",
// which is matched against fixed keys. The field part keeps its case since
// some groups use camelCase field names (job_info.partTime).
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if group, field, found := strings.Cut(header, "."); found {
			header = strings.ToLower(group) + "." + field
		} else {
			header = strings.ToLower(header)
		}

		// Keep the column addressable so the row stays aligned.
		if header == "" {
			header = fmt.Sprintf("column_%d", i+1)
		}

		cleaned[i] = header
	}

	return cleaned
}

func checkNameColumn(headers []string) error {
	for _, h := range headers {
		if h == columnName {
			return nil
		}
	}
	return fmt.Errorf("missing %q column", columnName)
}

// extractDataRows converts rows to header -> value maps, skipping empty rows.
func extractDataRows(rows [][]string, headers []string) []map[string]string {
	dataRows := make([]map[string]string, 0, len(rows))

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		rowMap := make(map[string]string, len(headers))
		for colIndex, header := range headers {
			if colIndex < len(row) {
				rowMap[header] = strings.TrimSpace(row[colIndex])
			} else {
				rowMap[header] = ""
			}
		}

		dataRows = append(dataRows, rowMap)
	}

	return dataRows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
