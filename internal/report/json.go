package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mentionlens/mentionlens/internal/core"
)

// JSONRenderer emits the aggregate as a machine-readable document: the
// summary counters plus the sorted result list.
type JSONRenderer struct {
	Indent bool
}

// Render writes the JSON document followed by a trailing newline.
func (r *JSONRenderer) Render(w io.Writer, rep *core.Report) error {
	if rep == nil {
		return fmt.Errorf("json renderer: nil report")
	}

	encoder := json.NewEncoder(w)
	if r.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(rep)
}
