package theme

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader feeds a resolved theme into a GTK CSS provider.
type Loader struct {
	logger   *slog.Logger
	provider *gtk.CSSProvider
	userDir  string
	theme    *Theme
}

// NewLoader creates a loader reading user themes from ThemesDir.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
	}

	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
		userDir:  dir,
	}
}

// ThemesDir returns the path to the user's themes directory.
func ThemesDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "mosoverlay", "themes"), nil
}

// Load resolves name and loads it scaled into the provider. An unknown
// name falls back to the default theme.
func (l *Loader) Load(name string, scale float64) error {
	t, err := Resolve(name, l.userDir)
	if errors.Is(err, ErrUnknownTheme) {
		l.logger.Warn("theme not found, using default", "theme", name)
		t, err = Resolve(DefaultThemeName, "")
	}
	if err != nil {
		return err
	}

	l.provider.LoadFromString(t.Stylesheet(scale))
	l.theme = t
	l.logger.Info("loaded theme", "name", t.Name, "origin", t.Origin, "scale", scale)
	return nil
}

// Theme returns the loaded theme, or nil before Load.
func (l *Loader) Theme() *Theme {
	return l.theme
}

// Apply attaches the provider to display, or to the default display
// when display is nil.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}
