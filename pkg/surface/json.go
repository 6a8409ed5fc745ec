package surface

import (
	"encoding/json"
	"io"

	"github.com/tmgate/tmgate/pkg/batch"
)

// JSONRenderer marshals a batch Summary to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, summary *batch.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
