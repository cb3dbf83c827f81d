// Package combo detects chorded key and button combinations.
package combo

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmylchreest/mosoverlay/internal/evdev"
)

// DefaultCooldown is the minimum time between two fires.
const DefaultCooldown = 800 * time.Millisecond

// ErrNoDefinitions is returned when a detector is built without combos.
var ErrNoDefinitions = errors.New("no combo definitions")

// Definition is a labelled set of codes that must be held together.
type Definition struct {
	Label string
	Codes evdev.CodeSet
}

// NewDefinition builds a definition from codes. The set must be non-empty.
func NewDefinition(label string, codes ...uint16) (Definition, error) {
	if len(codes) == 0 {
		return Definition{}, fmt.Errorf("combo %q: no keys", label)
	}
	set := evdev.NewCodeSet(codes...)
	if len(set) != len(codes) {
		return Definition{}, fmt.Errorf("combo %q: duplicate keys", label)
	}
	return Definition{Label: label, Codes: set}, nil
}

// ParseDefinition builds a definition from key names like "BTN_START".
func ParseDefinition(label string, names []string) (Definition, error) {
	codes := make([]uint16, 0, len(names))
	for _, n := range names {
		c, err := evdev.CodeByName(n)
		if err != nil {
			return Definition{}, fmt.Errorf("combo %q: %w", label, err)
		}
		codes = append(codes, c)
	}
	return NewDefinition(label, codes...)
}

// Defaults returns the built-in combos: Select+Start on gamepads and
// Ctrl+M on keyboards.
func Defaults() []Definition {
	pad, _ := NewDefinition("gamepad", evdev.BtnSelect, evdev.BtnStart)
	kbd, _ := NewDefinition("keyboard", evdev.KeyLeftCtrl, evdev.KeyM)
	return []Definition{pad, kbd}
}

func (d Definition) String() string {
	names := make([]string, 0, len(d.Codes))
	for _, c := range d.Codes.Sorted() {
		names = append(names, evdev.CodeName(c))
	}
	return d.Label + "(" + strings.Join(names, "+") + ")"
}

// Matches reports whether every code of the definition is pressed.
func (d Definition) Matches(pressed evdev.CodeSet) bool {
	return pressed.Contains(d.Codes)
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// Detector tracks held keys and fires when a definition is satisfied.
// It is not safe for concurrent use; the multiplexer owns it.
type Detector struct {
	definitions []Definition
	cooldown    time.Duration
	onFire      func(Definition)
	now         func() time.Time
	logger      *slog.Logger

	pressed  evdev.CodeSet
	lastFire time.Time
}

// NewDetector creates a detector. onFire runs synchronously on the
// caller's goroutine.
func NewDetector(defs []Definition, cooldown time.Duration, onFire func(Definition), opts ...Option) (*Detector, error) {
	if len(defs) == 0 {
		return nil, ErrNoDefinitions
	}
	for _, def := range defs {
		if len(def.Codes) == 0 {
			return nil, fmt.Errorf("combo %q: no keys", def.Label)
		}
	}
	if cooldown < 0 {
		cooldown = 0
	}

	d := &Detector{
		definitions: defs,
		cooldown:    cooldown,
		onFire:      onFire,
		now:         time.Now,
		logger:      slog.Default(),
		pressed:     make(evdev.CodeSet),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// HandleKey applies one key transition and reports whether a combo fired.
// Repeats are ignored.
func (d *Detector) HandleKey(code uint16, value int32) bool {
	switch value {
	case evdev.ValuePress:
		d.pressed[code] = struct{}{}
	case evdev.ValueRelease:
		delete(d.pressed, code)
	default:
		return false
	}

	for _, def := range d.definitions {
		if !def.Matches(d.pressed) {
			continue
		}

		now := d.now()
		if !d.lastFire.IsZero() && now.Sub(d.lastFire) <= d.cooldown {
			d.logger.Debug("combo inside cooldown", "combo", def.Label)
			return false
		}

		d.lastFire = now
		d.pressed = make(evdev.CodeSet)
		d.logger.Info("combo detected", "combo", def.String())
		if d.onFire != nil {
			d.onFire(def)
		}
		return true
	}
	return false
}

// Reset forgets every held key, e.g. after a device disconnects.
func (d *Detector) Reset() {
	if len(d.pressed) > 0 {
		d.pressed = make(evdev.CodeSet)
	}
}

// Pressed returns the currently held codes in ascending order.
func (d *Detector) Pressed() []uint16 {
	return d.pressed.Sorted()
}
