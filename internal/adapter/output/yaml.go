package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/mosoverlay/internal/devices"
)

// YAMLFormatter formats devices as a YAML sequence.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes devices as YAML.
func (f *YAMLFormatter) Format(w io.Writer, infos []devices.Info) error {
	infos = filter(infos, f.opts)
	if infos == nil {
		infos = []devices.Info{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(infos); err != nil {
		return err
	}
	return encoder.Close()
}
