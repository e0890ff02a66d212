// =============================================================================
// Bulk Poster - Batch Loader
// =============================================================================
//
// This module reads a batch of postings from a file. The format is chosen by
// extension:
//
//   .json         - document form, decoded with go-json
//   .yaml / .yml  - document form, decoded with yaml.v3
//   .csv          - one row per posting
//   .xlsx         - one row per posting, first sheet
//
// DOCUMENT FORM:
//   postings:
//     - name: NYCBrokerHousingSample1
//       required:
//         title: 1 Br Charmer in Chelsea
//         description: posting body goes here
//         category: fee
//         area: nyc
//         reply_email:
//           value: bulkuser@bulkposterz.net
//           privacy: C
//           outside_contact_ok: 0
//       optional:
//         subarea: mnh
//         housing_info: {price: "1450", bedrooms: "0"}
//         images:
//           - {position: 0, data: aGVsbG8=}
//
// ROW FORM (CSV and XLSX):
//   name, title, description, category, area, reply_email.<field>, subarea,
//   neighborhood, price, po_number, <group>.<field>, image or image.<position>
//
//   Empty cells are treated as not supplied. reply_email.outside_contact_ok
//   is read as a number when it parses as one. Every other cell stays text.
//
// Values are never validated here. Unknown optional keys are recorded on the
// posting and reported by validation.
//
// =============================================================================

package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/cl-bulk-poster/internal/config"
	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
	"github.com/ginjaninja78/cl-bulk-poster/internal/schema"
)

// Options control how batch files are read.
type Options struct {
	// CSV applies to .csv files.
	CSV config.CSVSettings

	// Tables are attached to every loaded posting. Nil selects the default
	// tables.
	Tables *schema.Tables
}

// DefaultOptions returns comma-separated CSV and the default tables.
func DefaultOptions() Options {
	return Options{CSV: config.CSVSettings{Delimiter: ","}}
}

// Load reads the batch file at path.
func Load(path string, opts Options) ([]*posting.Posting, error) {
	if opts.Tables == nil {
		opts.Tables = schema.Default()
	}

	var (
		postings []*posting.Posting
		err      error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		postings, err = loadJSON(path, opts)
	case ".yaml", ".yml":
		postings, err = loadYAML(path, opts)
	case ".csv":
		postings, err = loadCSV(path, opts)
	case ".xlsx":
		postings, err = loadXLSX(path, opts)
	default:
		return nil, fmt.Errorf("unsupported batch file type %q", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return postings, nil
}
