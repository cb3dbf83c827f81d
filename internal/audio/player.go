package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ErrNotLoaded is returned by Play for a cue that has no decoded buffer.
var ErrNotLoaded = errors.New("cue not loaded")

type decodeFunc func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decodeFunc{
	".wav": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) },
	".ogg": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return vorbis.Decode(f) },
	".mp3": func(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) },
}

// Player keeps one decoded buffer per cue and plays them on the speaker.
// The speaker is opened at the sample rate of the first cue loaded; later
// cues are resampled to it.
type Player struct {
	mu      sync.Mutex
	logger  *slog.Logger
	volume  float64
	rate    beep.SampleRate
	open    bool
	buffers map[Cue]*beep.Buffer
}

// NewPlayer returns a player at full volume with nothing loaded.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		logger:  logger,
		volume:  1,
		buffers: make(map[Cue]*beep.Buffer),
	}
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = math.Max(0, math.Min(1, volume))
}

// Load decodes the file at path and binds it to cue, replacing any
// buffer the cue had.
func (p *Player) Load(cue Cue, path string) error {
	buf, err := decodeFile(path)
	if err != nil {
		return fmt.Errorf("cue %s: %w", cue, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		rate := buf.Format().SampleRate
		if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
			return fmt.Errorf("open speaker: %w", err)
		}
		p.rate = rate
		p.open = true
		p.logger.Debug("speaker opened", "sample_rate", rate)
	}
	p.buffers[cue] = buf
	p.logger.Debug("cue loaded", "cue", cue, "path", path, "samples", buf.Len())
	return nil
}

// Play starts the buffer for cue and returns immediately.
func (p *Player) Play(cue Cue) error {
	p.mu.Lock()
	buf, ok := p.buffers[cue]
	volume, rate := p.volume, p.rate
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, cue)
	}
	speaker.Play(cueStreamer(buf, rate, volume))
	return nil
}

// Close drops every buffer and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		speaker.Close()
		p.open = false
	}
	clear(p.buffers)
}

// cueStreamer builds the stream for one playback of buf on a speaker
// running at rate. Volume is applied on a base-2 scale, so 0.5 halves
// the amplitude.
func cueStreamer(buf *beep.Buffer, rate beep.SampleRate, volume float64) beep.Streamer {
	var s beep.Streamer = buf.Streamer(0, buf.Len())
	if from := buf.Format().SampleRate; from != rate {
		s = beep.Resample(4, from, rate, s)
	}
	if volume >= 1 {
		return s
	}
	v := &effects.Volume{Streamer: s, Base: 2, Silent: volume <= 0}
	if !v.Silent {
		v.Volume = math.Log2(volume)
	}
	return v
}

func decodeFile(path string) (*beep.Buffer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stream, format, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer func() { _ = stream.Close() }()

	buf := beep.NewBuffer(format)
	buf.Append(stream)
	return buf, nil
}
