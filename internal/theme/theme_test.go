package theme

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundled(t *testing.T) {
	names := Bundled()
	assert.Contains(t, names, DefaultThemeName)
	assert.Contains(t, names, "adwaita")
	for _, n := range names {
		assert.NotEqual(t, '_', rune(n[0]), "partial %q listed as a theme", n)
	}
}

func TestResolve_Embedded(t *testing.T) {
	th, err := Resolve("", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultThemeName, th.Name)
	assert.True(t, th.Embedded())
	assert.NotContains(t, th.CSS, "@import")
	assert.Contains(t, th.CSS, ".mos-row") // from the partial
	assert.Contains(t, th.CSS, "#1e6bff")  // selection colour
	assert.Contains(t, th.CSS, "window.mos-overlay")
}

func TestResolve_UserOverridesBundled(t *testing.T) {
	dir := t.TempDir()
	css := "@import \"_base.css\";\n.mos-row { background-color: red; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.css"), []byte(css), 0o644))

	th, err := Resolve("default", dir)
	require.NoError(t, err)

	assert.False(t, th.Embedded())
	assert.Equal(t, filepath.Join(dir, "default.css"), th.Origin)
	assert.Contains(t, th.CSS, "background-color: red")
	assert.Contains(t, th.CSS, ".mos-switch", "bundled partial should be inlined")
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Resolve("nope", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownTheme)
}

func TestInline(t *testing.T) {
	tests := []struct {
		name     string
		files    fstest.MapFS
		css      string
		contains []string
		excludes []string
	}{
		{
			name:     "double quotes",
			files:    fstest.MapFS{"a.css": {Data: []byte(".a{}")}},
			css:      `@import "a.css";`,
			contains: []string{".a{}"},
			excludes: []string{"@import"},
		},
		{
			name:     "url form",
			files:    fstest.MapFS{"a.css": {Data: []byte(".a{}")}},
			css:      `@import url('a.css');`,
			contains: []string{".a{}"},
		},
		{
			name: "nested directory",
			files: fstest.MapFS{
				"sub/a.css": {Data: []byte(`@import "b.css";`)},
				"sub/b.css": {Data: []byte(".b{}")},
			},
			css:      `@import "sub/a.css";`,
			contains: []string{".b{}"},
		},
		{
			name: "cycle",
			files: fstest.MapFS{
				"a.css": {Data: []byte(`@import "b.css";`)},
				"b.css": {Data: []byte(`@import "a.css";`)},
			},
			css:      `@import "a.css";`,
			contains: []string{"skipped circular import: a.css"},
		},
		{
			name:     "missing",
			files:    fstest.MapFS{},
			css:      `@import "missing.css";`,
			contains: []string{"import failed: missing.css"},
		},
		{
			name:     "embedded fallback",
			files:    fstest.MapFS{},
			css:      `@import "_base.css";`,
			contains: []string{".mos-confirm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Inline(tt.files, tt.css, ".", nil)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestScaleRule(t *testing.T) {
	tests := []struct {
		scale float64
		want  string
	}{
		{1, "font-size: 18px"},
		{2, "font-size: 36px"},
		{1.5, "font-size: 27px"},
		{0, "font-size: 18px"},
	}
	for _, tt := range tests {
		assert.Contains(t, ScaleRule(tt.scale), tt.want)
	}

	th := &Theme{CSS: ".x{}\n\n"}
	assert.Equal(t, ".x{}\n"+ScaleRule(2), th.Stylesheet(2))
}
