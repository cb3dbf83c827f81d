package devices

import "github.com/jmylchreest/mosoverlay/internal/evdev"

// Class is the coarse role of an input device.
type Class int

const (
	ClassOther Class = iota
	ClassKeyboard
	ClassGamepad
)

func (c Class) String() string {
	switch c {
	case ClassKeyboard:
		return "keyboard"
	case ClassGamepad:
		return "gamepad"
	default:
		return "other"
	}
}

// MarshalText encodes the class as its name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// gamepadHints are the buttons that mark a device as gamepad-like.
var gamepadHints = evdev.NewCodeSet(
	evdev.BtnGamepad,
	evdev.BtnSouth,
	evdev.BtnEast,
	evdev.BtnNorth,
	evdev.BtnWest,
	evdev.BtnSelect,
	evdev.BtnStart,
)

// keyboardHints must all be present for a device to count as a keyboard.
var keyboardHints = evdev.NewCodeSet(evdev.KeyM, evdev.KeyLeftCtrl)

// Classify decides a device's class from its EV_KEY capabilities.
// Gamepad buttons win over keyboard keys.
func Classify(keys evdev.CodeSet) Class {
	if keys.Intersects(gamepadHints) {
		return ClassGamepad
	}
	if keys.Contains(keyboardHints) {
		return ClassKeyboard
	}
	return ClassOther
}
