package audio

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/mosoverlay/internal/config"
)

type fakeBackend struct {
	loaded  map[Cue]string
	played  []Cue
	volume  float64
	closed  bool
	playErr error
	loadErr error
}

func newFakeBackend() *fakeBackend { return &fakeBackend{loaded: map[Cue]string{}} }

func (f *fakeBackend) Load(cue Cue, path string) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded[cue] = path
	return nil
}

func (f *fakeBackend) Play(cue Cue) error {
	if _, ok := f.loaded[cue]; !ok {
		return ErrNotLoaded
	}
	f.played = append(f.played, cue)
	return f.playErr
}

func (f *fakeBackend) SetVolume(v float64) { f.volume = v }
func (f *fakeBackend) Close()              { f.closed = true }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func configWithSounds(t *testing.T, enabled bool) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	tick := filepath.Join(dir, "tick.wav")
	require.NoError(t, os.WriteFile(tick, []byte("RIFF"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Audio.Enabled = enabled
	cfg.Audio.Volume = 50
	cfg.Audio.Sounds.Move = tick
	cfg.Audio.Sounds.Activate = filepath.Join(dir, "missing.wav")
	return cfg, tick
}

func TestManagerPlaysConfiguredCues(t *testing.T) {
	cfg, tick := configWithSounds(t, true)
	fb := newFakeBackend()
	m := newManager(cfg, fb, quiet())

	assert.True(t, m.Enabled())
	assert.InDelta(t, 0.5, fb.volume, 0.0001)

	m.Preload()
	assert.Equal(t, map[Cue]string{CueMove: tick}, fb.loaded)

	m.Play(CueMove)
	m.Play(CueActivate) // file missing
	m.Play(CueToggle)   // not configured
	assert.Equal(t, []Cue{CueMove}, fb.played)

	m.Close()
	assert.True(t, fb.closed)
}

func TestManagerLoadsOnFirstPlay(t *testing.T) {
	cfg, tick := configWithSounds(t, true)
	fb := newFakeBackend()
	m := newManager(cfg, fb, quiet())

	m.Play(CueMove)
	assert.Equal(t, tick, fb.loaded[CueMove])
	assert.Equal(t, []Cue{CueMove}, fb.played)
}

func TestManagerDropsUndecodableCue(t *testing.T) {
	cfg, _ := configWithSounds(t, true)
	fb := newFakeBackend()
	fb.loadErr = errors.New("bad header")
	m := newManager(cfg, fb, quiet())

	m.Preload()
	assert.False(t, m.Enabled())

	fb.loadErr = nil
	m.Play(CueMove)
	assert.Empty(t, fb.played)
}

func TestManagerDisabled(t *testing.T) {
	cfg, _ := configWithSounds(t, false)
	fb := newFakeBackend()
	m := newManager(cfg, fb, quiet())

	assert.False(t, m.Enabled())
	m.Play(CueMove)
	m.Preload()
	assert.Empty(t, fb.played)
	assert.Empty(t, fb.loaded)
}

func TestManagerPlayErrorIsSwallowed(t *testing.T) {
	cfg, _ := configWithSounds(t, true)
	fb := newFakeBackend()
	fb.playErr = errors.New("no device")
	m := newManager(cfg, fb, quiet())
	m.Play(CueMove)
	assert.Len(t, fb.played, 1)
}

func TestManagerNilConfig(t *testing.T) {
	m := newManager(nil, newFakeBackend(), quiet())
	assert.False(t, m.Enabled())
}

func TestCueString(t *testing.T) {
	assert.Equal(t, "move", CueMove.String())
	assert.Equal(t, "activate", CueActivate.String())
	assert.Equal(t, "toggle", CueToggle.String())
	assert.Equal(t, "unknown", Cue(9).String())
}

func TestCueStreamer(t *testing.T) {
	format := beep.Format{SampleRate: 22050, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(format)

	tests := []struct {
		name       string
		rate       beep.SampleRate
		volume     float64
		wantVolume bool
		gain       float64
		silent     bool
	}{
		{name: "full volume same rate", rate: 22050, volume: 1},
		{name: "full volume resampled", rate: 44100, volume: 1},
		{name: "half volume", rate: 22050, volume: 0.5, wantVolume: true, gain: -1},
		{name: "quarter volume resampled", rate: 44100, volume: 0.25, wantVolume: true, gain: -2},
		{name: "muted", rate: 22050, volume: 0, wantVolume: true, silent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cueStreamer(buf, tt.rate, tt.volume)
			v, ok := s.(*effects.Volume)
			require.Equal(t, tt.wantVolume, ok)
			if !ok {
				_, resampled := s.(*beep.Resampler)
				assert.Equal(t, tt.rate != format.SampleRate, resampled)
				return
			}
			assert.InDelta(t, tt.gain, v.Volume, 0.0001)
			assert.Equal(t, tt.silent, v.Silent)
			assert.Equal(t, 2.0, v.Base)
		})
	}
}

func TestPlayerRejectsUnknownFormat(t *testing.T) {
	p := NewPlayer(quiet())
	path := filepath.Join(t.TempDir(), "sound.flac")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.ErrorContains(t, p.Load(CueMove, path), "unsupported audio format")
	assert.ErrorIs(t, p.Play(CueMove), ErrNotLoaded)
}
