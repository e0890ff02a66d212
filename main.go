// =============================================================================
// Bulk Poster - Main Entry Point
// =============================================================================
//
// USAGE:
//   bulkposter validate FILE... - Validate batch files locally
//   bulkposter render FILE      - Print the submission document
//   bulkposter check FILE       - Validate locally and at the remote service
//   bulkposter post FILE        - Validate and post for real
//   bulkposter version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/      : CLI command definitions (Cobra)
//   - internal/ : Posting model, validation, serialization, remote calls
//   - pkg/      : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/cl-bulk-poster/cmd"
)

func main() {
	cmd.Execute()
}
