package audio

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/mosoverlay/internal/config"
)

// Cue identifies a feedback sound.
type Cue int

const (
	CueMove Cue = iota
	CueActivate
	CueToggle
)

func (c Cue) String() string {
	switch c {
	case CueMove:
		return "move"
	case CueActivate:
		return "activate"
	case CueToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// backend is the subset of Player the manager drives.
type backend interface {
	Load(cue Cue, path string) error
	Play(cue Cue) error
	SetVolume(volume float64)
	Close()
}

// Manager maps menu cues to configured sounds.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  backend
	enabled bool
	sounds  map[Cue]string
}

// NewManager creates a manager from the [audio] section. Sounds whose
// files are missing are skipped with a warning.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg *config.Config, player backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		logger: logger,
		player: player,
		sounds: make(map[Cue]string),
	}
	if cfg == nil {
		return m
	}

	m.enabled = cfg.Audio.Enabled
	// Config uses 0-100, player uses 0.0-1.0
	player.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	for _, cue := range []Cue{CueMove, CueActivate, CueToggle} {
		path := cfg.SoundFor(cue.String())
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			logger.Warn("sound file not found", "cue", cue, "path", path)
			continue
		}
		m.sounds[cue] = path
		logger.Debug("loaded sound", "cue", cue, "path", path)
	}
	return m
}

// Enabled reports whether any cue will make a sound.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled && len(m.sounds) > 0
}

// Preload decodes every configured sound ahead of first use. A cue whose
// file cannot be decoded is dropped so later plays stay silent.
func (m *Manager) Preload() {
	if !m.Enabled() {
		return
	}
	m.mu.RLock()
	sounds := make(map[Cue]string, len(m.sounds))
	for cue, path := range m.sounds {
		sounds[cue] = path
	}
	m.mu.RUnlock()

	for cue, path := range sounds {
		m.load(cue, path)
	}
}

// Play plays the sound for cue, if one is configured. A cue not yet
// preloaded is decoded on first use. Playback is asynchronous.
func (m *Manager) Play(cue Cue) {
	m.mu.RLock()
	enabled := m.enabled
	path, ok := m.sounds[cue]
	m.mu.RUnlock()

	if !enabled || !ok {
		return
	}
	err := m.player.Play(cue)
	if errors.Is(err, ErrNotLoaded) && m.load(cue, path) {
		err = m.player.Play(cue)
	}
	if err != nil {
		m.logger.Debug("failed to play cue", "cue", cue, "error", err)
	}
}

func (m *Manager) load(cue Cue, path string) bool {
	if err := m.player.Load(cue, path); err != nil {
		m.logger.Warn("failed to load sound", "cue", cue, "path", path, "error", err)
		m.mu.Lock()
		delete(m.sounds, cue)
		m.mu.Unlock()
		return false
	}
	return true
}

// Close releases the audio device.
func (m *Manager) Close() {
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}
