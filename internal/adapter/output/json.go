package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/mosoverlay/internal/devices"
)

// JSONFormatter formats devices as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes devices as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, infos []devices.Info) error {
	infos = filter(infos, f.opts)
	if infos == nil {
		infos = []devices.Info{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(infos)
}
