package theme

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed themes/*.css
var embedded embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

// Embedded returns the bundled themes rooted at their directory.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "themes")
	if err != nil {
		panic(err)
	}
	return sub
}

// Bundled returns the names of the embedded themes. Partials, whose file
// names start with an underscore, are only reachable through @import.
func Bundled() []string {
	entries, err := fs.ReadDir(Embedded(), ".")
	if err != nil {
		return []string{DefaultThemeName}
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, "_") || path.Ext(n) != ".css" {
			continue
		}
		names = append(names, strings.TrimSuffix(n, ".css"))
	}
	sort.Strings(names)
	return names
}
