package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
)

// =============================================================================
// XLSX BATCH FILES
// =============================================================================
// The first sheet is read. Its first row holds the headers. Sheets whose
// name starts with "_" are never used, so a workbook can carry notes.

func loadXLSX(path string, opts Options) ([]*posting.Posting, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := ""
	for _, name := range f.GetSheetList() {
		if !strings.HasPrefix(name, "_") {
			sheetName = name
			break
		}
	}
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no usable sheets")
	}

	allRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(allRows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	headers := cleanHeaders(allRows[0])
	if err := checkNameColumn(headers); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheetName, err)
	}

	rows := extractDataRows(allRows[1:], headers)
	return rowsToPostings(headers, rows, filepath.Dir(path), opts)
}
