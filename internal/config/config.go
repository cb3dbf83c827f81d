// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/mosoverlay/internal/combo"
	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/store"
)

// Default configuration values.
const (
	DefaultCooldown        = 800 * time.Millisecond
	DefaultRescanInterval  = 5 * time.Second
	DefaultPollTimeout     = time.Second
	DefaultRefreshInterval = 2500 * time.Millisecond
	DefaultStatusTimeout   = time.Second
	DefaultCommandTimeout  = time.Second
	DefaultRevealDelay     = 2 * time.Second
	DefaultTitle           = "Quick Settings"
	DefaultCloseAppsScript = "/usr/bin/cerrar_apps.sh"
	DefaultSettingsHelper  = "mos-settings"
	DefaultOverlayBinary   = "mosoverlay"
)

// Frontend selects the overlay presentation.
type Frontend string

const (
	FrontendGTK Frontend = "gtk"
	FrontendTUI Frontend = "tui"
)

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// Config is shared by mosoverlay and mosoverlayd.
// Loaded from ~/.config/mosoverlay/config.toml
type Config struct {
	Socket  SocketConfig  `toml:"socket"`
	Daemon  DaemonConfig  `toml:"daemon"`
	Combos  []ComboConfig `toml:"combos"`
	Menu    MenuConfig    `toml:"menu"`
	Overlay OverlayConfig `toml:"overlay"`
	Audio   AudioConfig   `toml:"audio"`
	Theme   ThemeConfig   `toml:"theme"`
	Paths   PathsConfig   `toml:"paths"`
}

// SocketConfig locates the toggle socket.
type SocketConfig struct {
	Path string `toml:"path"`
}

// DaemonConfig contains combo daemon settings.
type DaemonConfig struct {
	Cooldown       Duration `toml:"cooldown"`        // Minimum time between two fires
	RescanInterval Duration `toml:"rescan_interval"` // Hot-plug discovery period
	PollTimeout    Duration `toml:"poll_timeout"`    // Upper bound of one wait
	GrabDevices    bool     `toml:"grab_devices"`    // Exclusive access to devices
	DebugKeys      bool     `toml:"debug_keys"`      // Log every key event
	OverlayCommand []string `toml:"overlay_command"` // Spawned when no overlay listens
	Notify         bool     `toml:"notify"`          // Desktop notification on failures
}

// ComboConfig is one [[combos]] entry.
type ComboConfig struct {
	Label string   `toml:"label"`
	Keys  []string `toml:"keys"` // e.g. ["BTN_SELECT", "BTN_START"]
}

// MenuConfig contains menu behaviour settings.
type MenuConfig struct {
	Wrap            bool     `toml:"wrap"`
	RefreshInterval Duration `toml:"refresh_interval"`
	StatusTimeout   Duration `toml:"status_timeout"`
	CommandTimeout  Duration `toml:"command_timeout"`
	RevealDelay     Duration `toml:"reveal_delay"` // Delay before the first show
}

// OverlayConfig contains presentation settings.
type OverlayConfig struct {
	Frontend      string  `toml:"frontend"` // "gtk" or "tui"
	Title         string  `toml:"title"`
	Scale         float64 `toml:"scale"`
	NerdFont      bool    `toml:"nerd_font"`
	ListenDevices bool    `toml:"listen_devices"` // Detect combos in-process too
}

// AudioConfig contains feedback sound settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-cue sound file paths.
type SoundConfig struct {
	Move     string `toml:"move"`
	Activate string `toml:"activate"`
	Toggle   string `toml:"toggle"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name"`         // Theme name without .css extension
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// PathsConfig locates the files and helpers shared with the rest of
// the appliance.
type PathsConfig struct {
	NightLightMarker string `toml:"night_light_marker"`
	OpenAppsFile     string `toml:"open_apps_file"`
	CloseAppsScript  string `toml:"close_apps_script"`
	SettingsHelper   string `toml:"settings_helper"`
	PulseServer      string `toml:"pulse_server"` // Empty = per-user socket
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Socket: SocketConfig{
			Path: ipc.DefaultSocketPath,
		},
		Daemon: DaemonConfig{
			Cooldown:       Duration(DefaultCooldown),
			RescanInterval: Duration(DefaultRescanInterval),
			PollTimeout:    Duration(DefaultPollTimeout),
		},
		Menu: MenuConfig{
			Wrap:            false,
			RefreshInterval: Duration(DefaultRefreshInterval),
			StatusTimeout:   Duration(DefaultStatusTimeout),
			CommandTimeout:  Duration(DefaultCommandTimeout),
			RevealDelay:     Duration(DefaultRevealDelay),
		},
		Overlay: OverlayConfig{
			Frontend: string(FrontendGTK),
			Title:    DefaultTitle,
			Scale:    1.0,
			NerdFont: true,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  60,
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeDark),
		},
		Paths: PathsConfig{
			NightLightMarker: store.DefaultNightLightMarker,
			OpenAppsFile:     store.DefaultOpenAppsPath,
			CloseAppsScript:  DefaultCloseAppsScript,
			SettingsHelper:   DefaultSettingsHelper,
		},
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "mosoverlay", "config.toml"), nil
}

// LoadConfig loads configuration from path, or from ConfigPath when
// path is empty. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path atomically, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Socket.Path) == "" {
		return errors.New("socket path must not be empty")
	}

	durations := []struct {
		name string
		d    Duration
	}{
		{"daemon.cooldown", c.Daemon.Cooldown},
		{"daemon.rescan_interval", c.Daemon.RescanInterval},
		{"daemon.poll_timeout", c.Daemon.PollTimeout},
		{"menu.refresh_interval", c.Menu.RefreshInterval},
		{"menu.status_timeout", c.Menu.StatusTimeout},
		{"menu.command_timeout", c.Menu.CommandTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.d.Duration())
		}
	}
	if c.Menu.RevealDelay < 0 {
		return fmt.Errorf("menu.reveal_delay must not be negative, got %s", c.Menu.RevealDelay.Duration())
	}

	if _, err := c.ComboDefinitions(); err != nil {
		return err
	}

	switch Frontend(c.Overlay.Frontend) {
	case FrontendGTK, FrontendTUI:
	default:
		return fmt.Errorf("invalid frontend %q, must be %q or %q", c.Overlay.Frontend, FrontendGTK, FrontendTUI)
	}
	if c.Overlay.Scale < 0.5 || c.Overlay.Scale > 4 {
		return fmt.Errorf("scale must be between 0.5 and 4, got %g", c.Overlay.Scale)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	validScheme := false
	for _, s := range ValidColorSchemes() {
		if c.Theme.ColorScheme == string(s) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		return fmt.Errorf("invalid color scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	return nil
}

// ComboDefinitions parses the configured combos. No [[combos]] entries
// means the built-in Select+Start and Ctrl+M.
func (c *Config) ComboDefinitions() ([]combo.Definition, error) {
	if len(c.Combos) == 0 {
		return combo.Defaults(), nil
	}
	defs := make([]combo.Definition, 0, len(c.Combos))
	for i, cc := range c.Combos {
		label := cc.Label
		if label == "" {
			label = fmt.Sprintf("combo%d", i+1)
		}
		def, err := combo.ParseDefinition(label, cc.Keys)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// OverlayCommand returns the argv the daemon spawns when no overlay
// is listening.
func (c *Config) OverlayCommand() []string {
	if len(c.Daemon.OverlayCommand) == 0 {
		return []string{DefaultOverlayBinary}
	}
	return c.Daemon.OverlayCommand
}

// SoundFor returns the sound path for a cue name ("move", "activate",
// "toggle"), expanding ~.
func (c *Config) SoundFor(cue string) string {
	var path string
	switch cue {
	case "move":
		path = c.Audio.Sounds.Move
	case "activate":
		path = c.Audio.Sounds.Activate
	case "toggle":
		path = c.Audio.Sounds.Toggle
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
