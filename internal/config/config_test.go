package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/mosoverlay/internal/evdev"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "/tmp/mos_overlay.sock", cfg.Socket.Path)
	assert.Equal(t, 800*time.Millisecond, cfg.Daemon.Cooldown.Duration())
	assert.Equal(t, 5*time.Second, cfg.Daemon.RescanInterval.Duration())
	assert.Equal(t, time.Second, cfg.Daemon.PollTimeout.Duration())
	assert.False(t, cfg.Daemon.GrabDevices)
	assert.False(t, cfg.Menu.Wrap)
	assert.Equal(t, 2500*time.Millisecond, cfg.Menu.RefreshInterval.Duration())
	assert.Equal(t, "gtk", cfg.Overlay.Frontend)
	assert.Equal(t, "/tmp/nightlight_state", cfg.Paths.NightLightMarker)
	assert.Equal(t, "/tmp/open_apps", cfg.Paths.OpenAppsFile)
	assert.Equal(t, []string{"mosoverlay"}, cfg.OverlayCommand())
	require.NoError(t, cfg.Validate())
}

func TestDefaultCombos(t *testing.T) {
	defs, err := DefaultConfig().ComboDefinitions()
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.True(t, defs[0].Codes.Has(evdev.BtnSelect))
	assert.True(t, defs[0].Codes.Has(evdev.BtnStart))
	assert.True(t, defs[1].Codes.Has(evdev.KeyM))
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_DefaultPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mosoverlay", "config.toml"), path)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("[menu]\nwrap = true\n"), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Menu.Wrap)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[socket]
path = "/run/mos.sock"

[daemon]
cooldown = "1500"
rescan_interval = "10s"
grab_devices = true
overlay_command = ["mosoverlay", "--verbose"]

[[combos]]
label = "guide"
keys = ["BTN_MODE"]

[[combos]]
keys = ["KEY_LEFTCTRL", "KEY_LEFTALT", "KEY_M"]

[menu]
wrap = true
reveal_delay = "0s"

[overlay]
frontend = "tui"
nerd_font = false

[audio]
enabled = true
volume = 30

[audio.sounds]
move = "~/sounds/tick.wav"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/mos.sock", cfg.Socket.Path)
	assert.Equal(t, 1500*time.Millisecond, cfg.Daemon.Cooldown.Duration())
	assert.Equal(t, 10*time.Second, cfg.Daemon.RescanInterval.Duration())
	assert.Equal(t, time.Second, cfg.Daemon.PollTimeout.Duration(), "unset keys keep defaults")
	assert.True(t, cfg.Daemon.GrabDevices)
	assert.Equal(t, []string{"mosoverlay", "--verbose"}, cfg.OverlayCommand())
	assert.True(t, cfg.Menu.Wrap)
	assert.Equal(t, time.Duration(0), cfg.Menu.RevealDelay.Duration())
	assert.Equal(t, "tui", cfg.Overlay.Frontend)
	assert.False(t, cfg.Overlay.NerdFont)
	assert.Equal(t, 30, cfg.Audio.Volume)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "sounds/tick.wav"), cfg.SoundFor("move"))
	assert.Empty(t, cfg.SoundFor("toggle"))

	defs, err := cfg.ComboDefinitions()
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "guide", defs[0].Label)
	assert.Equal(t, "combo2", defs[1].Label)
	assert.Len(t, defs[1].Codes, 3)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty socket", func(c *Config) { c.Socket.Path = " " }},
		{"zero cooldown", func(c *Config) { c.Daemon.Cooldown = 0 }},
		{"negative reveal delay", func(c *Config) { c.Menu.RevealDelay = Duration(-time.Second) }},
		{"unknown key", func(c *Config) { c.Combos = []ComboConfig{{Keys: []string{"BTN_NOPE"}}} }},
		{"empty combo", func(c *Config) { c.Combos = []ComboConfig{{Label: "x"}} }},
		{"frontend", func(c *Config) { c.Overlay.Frontend = "qt" }},
		{"scale", func(c *Config) { c.Overlay.Scale = 0 }},
		{"volume", func(c *Config) { c.Audio.Volume = 101 }},
		{"color scheme", func(c *Config) { c.Theme.ColorScheme = "sepia" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[combos]]\nkeys = [\"KEY_WHAT\"]\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Menu.Wrap = true
	cfg.Daemon.OverlayCommand = []string{"mosoverlay"}
	cfg.Combos = []ComboConfig{{Label: "pad", Keys: []string{"BTN_SELECT", "BTN_START"}}}
	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed away")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDurationUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"800ms", 800 * time.Millisecond, false},
		{"5s", 5 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"250", 250 * time.Millisecond, false},
		{"0", 0, false},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}
