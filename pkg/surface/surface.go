// Package surface defines output rendering for TMGate batch reports.
// Implementations handle different output targets: terminal and JSON.
package surface

import (
	"io"

	"github.com/tmgate/tmgate/pkg/batch"
)

// Renderer produces formatted output from a batch Summary.
type Renderer interface {
	// Render writes the formatted batch report to the writer.
	Render(w io.Writer, summary *batch.Summary) error
}
