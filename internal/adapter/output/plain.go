package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize/english"

	"github.com/jmylchreest/mosoverlay/internal/devices"
)

// PlainFormatter formats devices as aligned text, one per line.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// templateData is what a custom template sees for each device.
type templateData struct {
	Index  int
	Device devices.Info
}

// NewPlainFormatter creates a new plain text formatter. An invalid
// template is ignored in favour of the default layout.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}
	if opts.Template != "" {
		tmpl, err := template.New("plain").Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}
	return f
}

// Format writes devices as plain text.
func (f *PlainFormatter) Format(w io.Writer, infos []devices.Info) error {
	infos = filter(infos, f.opts)

	pathWidth := 0
	for _, info := range infos {
		pathWidth = max(pathWidth, len(info.Path))
	}

	var sb strings.Builder
	for i, info := range infos {
		if f.template != nil {
			if err := f.template.Execute(&sb, templateData{Index: i + 1, Device: info}); err != nil {
				return err
			}
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(formatDevice(info, pathWidth))
	}

	if f.opts.ShowSummary {
		sb.WriteString(Summary(infos) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func formatDevice(info devices.Info, pathWidth int) string {
	if info.Error != "" {
		return fmt.Sprintf("%-*s  %-8s  %s\n", pathWidth, info.Path, "error", info.Error)
	}
	return fmt.Sprintf("%-*s  %-8s  %s\n", pathWidth, info.Path, info.Class, info.Name)
}

// Summary counts devices by class, e.g. "3 devices: 1 keyboard, 2 gamepads".
func Summary(infos []devices.Info) string {
	var keyboards, gamepads, unreadable int
	for _, info := range infos {
		switch {
		case info.Error != "":
			unreadable++
		case info.Class == devices.ClassKeyboard:
			keyboards++
		case info.Class == devices.ClassGamepad:
			gamepads++
		}
	}

	parts := []string{
		english.Plural(keyboards, "keyboard", ""),
		english.Plural(gamepads, "gamepad", ""),
	}
	if unreadable > 0 {
		parts = append(parts, fmt.Sprintf("%d unreadable", unreadable))
	}
	return english.Plural(len(infos), "device", "") + ": " + strings.Join(parts, ", ")
}
