package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/mosoverlay/internal/config"
	"github.com/jmylchreest/mosoverlay/internal/devices"
	"github.com/jmylchreest/mosoverlay/internal/evdev"
	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/process"
)

type emptySource struct{}

func (emptySource) Paths() ([]string, error)            { return nil, nil }
func (emptySource) Open(string) (devices.Device, error) { return nil, os.ErrNotExist }

type fakeSpawner struct {
	spawned []process.Command
	err     error
}

func (s *fakeSpawner) Spawn(c process.Command) error {
	s.spawned = append(s.spawned, c)
	return s.err
}

type fixture struct {
	d       *Daemon
	toggles []string
	spawner *fakeSpawner
	sender  *fakeSender
	now     time.Time
	toggle  error
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	f := &fixture{
		spawner: &fakeSpawner{},
		sender:  &fakeSender{},
		now:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	d, err := New(Options{
		Config: cfg,
		Source: emptySource{},
		Toggle: func(path string) error {
			f.toggles = append(f.toggles, path)
			return f.toggle
		},
		Spawner:    f.spawner,
		Notifier:   NewNotifier(f.sender, testLogger()),
		SpawnGrace: 2 * time.Second,
		Logger:     testLogger(),
	})
	require.NoError(t, err)
	d.now = func() time.Time { return f.now }
	f.d = d
	return f
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Socket.Path = "/tmp/mosoverlay-test.sock"
	cfg.Daemon.OverlayCommand = []string{"mosoverlay", "--frontend", "tui"}
	cfg.Daemon.PollTimeout = config.Duration(10 * time.Millisecond)
	return cfg
}

func (f *fixture) press(codes ...uint16) {
	for _, c := range codes {
		f.d.handleKey(devices.Entry{}, evdev.Event{Type: evdev.EvKey, Code: c, Value: evdev.ValuePress})
	}
	for _, c := range codes {
		f.d.handleKey(devices.Entry{}, evdev.Event{Type: evdev.EvKey, Code: c, Value: evdev.ValueRelease})
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_BadCombo(t *testing.T) {
	cfg := testConfig()
	cfg.Combos = []config.ComboConfig{{Label: "bad", Keys: []string{"NOPE"}}}
	_, err := New(Options{Config: cfg, Source: emptySource{}, Logger: testLogger()})
	assert.Error(t, err)
}

func TestComboSendsToggle(t *testing.T) {
	f := newFixture(t, testConfig())

	f.press(evdev.BtnSelect, evdev.BtnStart)

	assert.Equal(t, []string{"/tmp/mosoverlay-test.sock"}, f.toggles)
	assert.Empty(t, f.spawner.spawned)
	assert.Equal(t, OverlayRunning, f.d.Stats().State)
}

func TestFire(t *testing.T) {
	notRunning := fmt.Errorf("%w: connection refused", ipc.ErrNotRunning)

	tests := []struct {
		name      string
		toggle    error
		spawnErr  error
		wantSpawn bool
		wantState OverlayState
		wantNote  bool
	}{
		{"overlay running", nil, nil, false, OverlayRunning, false},
		{"not running spawns", notRunning, nil, true, OverlayStarting, false},
		{"spawn failure notifies", notRunning, errors.New("not found"), true, OverlayFailed, true},
		{"write failure does not spawn", errors.New("broken pipe"), nil, false, OverlayUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testConfig())
			f.toggle = tt.toggle
			f.spawner.err = tt.spawnErr

			f.d.fire(f.d.Combos()[0])

			if tt.wantSpawn {
				require.Len(t, f.spawner.spawned, 1)
				assert.Equal(t, process.Command{"mosoverlay", "--frontend", "tui"}, f.spawner.spawned[0])
			} else {
				assert.Empty(t, f.spawner.spawned)
			}
			assert.Equal(t, tt.wantState, f.d.Stats().State)
			assert.Equal(t, tt.wantNote, len(f.sender.sent) > 0)
		})
	}
}

func TestFire_NoDuplicateSpawnWhileStarting(t *testing.T) {
	f := newFixture(t, testConfig())
	f.toggle = ipc.ErrNotRunning

	f.d.fire(f.d.Combos()[0])
	f.now = f.now.Add(time.Second)
	f.d.fire(f.d.Combos()[0])
	assert.Len(t, f.spawner.spawned, 1)

	f.now = f.now.Add(2 * time.Second)
	f.d.fire(f.d.Combos()[0])
	assert.Len(t, f.spawner.spawned, 2)
}

func TestDisconnectClearsHeldKeys(t *testing.T) {
	f := newFixture(t, testConfig())

	f.d.handleKey(devices.Entry{}, evdev.Event{Type: evdev.EvKey, Code: evdev.BtnSelect, Value: evdev.ValuePress})
	f.d.handleDisconnect(devices.Entry{})
	f.d.handleKey(devices.Entry{}, evdev.Event{Type: evdev.EvKey, Code: evdev.BtnStart, Value: evdev.ValuePress})

	assert.Empty(t, f.toggles)
}

func TestReload(t *testing.T) {
	f := newFixture(t, testConfig())

	next := testConfig()
	next.Combos = []config.ComboConfig{{Label: "alt-home", Keys: []string{"KEY_LEFTALT", "KEY_HOME"}}}
	require.NoError(t, f.d.Reload(next))

	require.Len(t, f.d.Combos(), 1)
	assert.Equal(t, "alt-home", f.d.Combos()[0].Label)

	f.press(evdev.BtnSelect, evdev.BtnStart)
	assert.Empty(t, f.toggles, "old combo is gone")

	f.press(evdev.KeyLeftAlt, evdev.KeyHome)
	assert.Len(t, f.toggles, 1)

	bad := testConfig()
	bad.Combos = []config.ComboConfig{{Keys: []string{"NOPE"}}}
	assert.Error(t, f.d.Reload(bad))
	assert.Equal(t, "alt-home", f.d.Combos()[0].Label, "rejected reload keeps the previous combos")
}

func TestRun_ReloadsOnConfigChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[daemon]\npoll_timeout = \"10ms\"\n"), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	d, err := New(Options{
		Config:     cfg,
		ConfigPath: path,
		Source:     emptySource{},
		Toggle:     func(string) error { return nil },
		Spawner:    &fakeSpawner{},
		Logger:     testLogger(),
	})
	require.NoError(t, err)
	require.Len(t, d.Combos(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	updated := "[daemon]\npoll_timeout = \"10ms\"\n\n[[combos]]\nlabel = \"alt-home\"\nkeys = [\"KEY_LEFTALT\", \"KEY_HOME\"]\n"
	require.Eventually(t, func() bool {
		// Rewrite until the watcher has picked it up; the first write can
		// race the watcher's start.
		_ = os.WriteFile(path, []byte(updated), 0o644)
		combos := d.Combos()
		return len(combos) == 1 && combos[0].Label == "alt-home"
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
