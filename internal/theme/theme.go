package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"regexp"
	"strings"
)

// BaseFontSize is the unscaled font size in pixels. Every size in the
// bundled themes is relative to it.
const BaseFontSize = 18

// ErrUnknownTheme is returned when no user or bundled theme has the name.
var ErrUnknownTheme = errors.New("unknown theme")

// importRegex matches @import "file.css"; @import 'file.css'; and @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// Theme is a fully resolved stylesheet.
type Theme struct {
	Name   string
	Origin string // File path, or "embedded"
	CSS    string
}

// Embedded reports whether the theme came from the binary.
func (t *Theme) Embedded() bool { return t.Origin == "embedded" }

// Resolve finds a theme by name, preferring userDir over the bundled set,
// and inlines its imports. An empty name selects the default theme.
func Resolve(name, userDir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	file := name + ".css"

	if userDir != "" {
		fsys := os.DirFS(userDir)
		if data, err := fs.ReadFile(fsys, file); err == nil {
			return &Theme{
				Name:   name,
				Origin: path.Join(userDir, file),
				CSS:    Inline(fsys, string(data), ".", map[string]bool{file: true}),
			}, nil
		}
	}

	bundled := Embedded()
	data, err := fs.ReadFile(bundled, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, name)
	}
	return &Theme{
		Name:   name,
		Origin: "embedded",
		CSS:    Inline(bundled, string(data), ".", map[string]bool{file: true}),
	}, nil
}

// Inline replaces @import rules with the imported stylesheet, resolved
// relative to dir within fsys. Imports missing from fsys fall back to
// the bundled files so user themes can build on the shared partials.
// Cycles are broken using seen.
func Inline(fsys fs.FS, css, dir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		sub := importRegex.FindStringSubmatch(match)
		target := path.Clean(path.Join(dir, sub[1]))

		if seen[target] {
			return "/* skipped circular import: " + sub[1] + " */"
		}
		seen[target] = true

		src := fsys
		data, err := fs.ReadFile(fsys, target)
		if err != nil {
			src = Embedded()
			if data, err = fs.ReadFile(src, path.Base(target)); err != nil {
				return "/* import failed: " + sub[1] + " */"
			}
			target = path.Base(target)
		}

		return "/* " + sub[1] + " */\n" + Inline(src, string(data), path.Dir(target), seen)
	})
}

// ScaleRule returns a rule setting the overlay's base font size.
func ScaleRule(scale float64) string {
	if scale <= 0 {
		scale = 1
	}
	return fmt.Sprintf("\nwindow.mos-overlay { font-size: %dpx; }\n", int(math.Round(BaseFontSize*scale)))
}

// Stylesheet is the theme followed by the scale rule.
func (t *Theme) Stylesheet(scale float64) string {
	return strings.TrimRight(t.CSS, "\n") + "\n" + ScaleRule(scale)
}
