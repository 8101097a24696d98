// =============================================================================
// Glosa Classifier - Main Entry Point
// =============================================================================
//
// USAGE:
//   glosas classify   - Classify a dispute sheet and write the report
//   glosas inspect    - Show the sheets and columns of a source file
//   glosas version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : loading, classification, aggregation and rendering
//   - pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/glosa-classifier/cmd"
)

func main() {
	cmd.Execute()
}
