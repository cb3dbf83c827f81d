// Package output renders input device inventories for the command line.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/mosoverlay/internal/devices"
)

// Formatter formats a device inventory for output.
type Formatter interface {
	// Format writes the formatted devices to the writer.
	Format(w io.Writer, infos []devices.Info) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
)

// Formats lists the accepted format names.
func Formats() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want plain, json or yaml)", s)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template    string // Custom per-device template for plain format
	OnlyUsable  bool   // Skip devices that are unreadable or of class other
	ShowSummary bool   // Append a count line to plain output
}

// DefaultFormatterOptions returns the options used by the devices command.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{ShowSummary: true}
}

// filter applies OnlyUsable.
func filter(infos []devices.Info, opts FormatterOptions) []devices.Info {
	if !opts.OnlyUsable {
		return infos
	}
	out := make([]devices.Info, 0, len(infos))
	for _, info := range infos {
		if info.Error == "" && info.Class != devices.ClassOther {
			out = append(out, info)
		}
	}
	return out
}
