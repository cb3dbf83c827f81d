package evdev

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Event types.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvAbs uint16 = 0x03
)

// Key event values.
const (
	ValueRelease int32 = 0
	ValuePress   int32 = 1
	ValueRepeat  int32 = 2
)

// Key and button codes used by the overlay and its default combos.
const (
	KeyEsc       uint16 = 1
	KeyEnter     uint16 = 28
	KeyLeftCtrl  uint16 = 29
	KeyM         uint16 = 50
	KeyLeftAlt   uint16 = 56
	KeySpace     uint16 = 57
	KeyRightCtrl uint16 = 97
	KeyHome      uint16 = 102
	KeyUp        uint16 = 103
	KeyLeft      uint16 = 105
	KeyRight     uint16 = 106
	KeyDown      uint16 = 108
	KeyLeftMeta  uint16 = 125

	BtnGamepad   uint16 = 0x130
	BtnSouth     uint16 = 0x130
	BtnEast      uint16 = 0x131
	BtnC         uint16 = 0x132
	BtnNorth     uint16 = 0x133
	BtnWest      uint16 = 0x134
	BtnZ         uint16 = 0x135
	BtnTL        uint16 = 0x136
	BtnTR        uint16 = 0x137
	BtnTL2       uint16 = 0x138
	BtnTR2       uint16 = 0x139
	BtnSelect    uint16 = 0x13a
	BtnStart     uint16 = 0x13b
	BtnMode      uint16 = 0x13c
	BtnThumbL    uint16 = 0x13d
	BtnThumbR    uint16 = 0x13e
	BtnDpadUp    uint16 = 0x220
	BtnDpadDown  uint16 = 0x221
	BtnDpadLeft  uint16 = 0x222
	BtnDpadRight uint16 = 0x223

	// KeyMax is the highest key code the kernel reports capabilities for.
	KeyMax uint16 = 0x2ff
)

var codeNames = map[string]uint16{
	"KEY_ESC":        KeyEsc,
	"KEY_ENTER":      KeyEnter,
	"KEY_LEFTCTRL":   KeyLeftCtrl,
	"KEY_M":          KeyM,
	"KEY_LEFTALT":    KeyLeftAlt,
	"KEY_SPACE":      KeySpace,
	"KEY_RIGHTCTRL":  KeyRightCtrl,
	"KEY_HOME":       KeyHome,
	"KEY_UP":         KeyUp,
	"KEY_LEFT":       KeyLeft,
	"KEY_RIGHT":      KeyRight,
	"KEY_DOWN":       KeyDown,
	"KEY_LEFTMETA":   KeyLeftMeta,
	"BTN_SOUTH":      BtnSouth,
	"BTN_EAST":       BtnEast,
	"BTN_C":          BtnC,
	"BTN_NORTH":      BtnNorth,
	"BTN_WEST":       BtnWest,
	"BTN_Z":          BtnZ,
	"BTN_TL":         BtnTL,
	"BTN_TR":         BtnTR,
	"BTN_TL2":        BtnTL2,
	"BTN_TR2":        BtnTR2,
	"BTN_SELECT":     BtnSelect,
	"BTN_START":      BtnStart,
	"BTN_MODE":       BtnMode,
	"BTN_THUMBL":     BtnThumbL,
	"BTN_THUMBR":     BtnThumbR,
	"BTN_DPAD_UP":    BtnDpadUp,
	"BTN_DPAD_DOWN":  BtnDpadDown,
	"BTN_DPAD_LEFT":  BtnDpadLeft,
	"BTN_DPAD_RIGHT": BtnDpadRight,
}

// Aliases share a code with a canonical name above.
var codeAliases = map[string]uint16{
	"BTN_GAMEPAD": BtnGamepad,
	"BTN_A":       BtnSouth,
	"BTN_B":       BtnEast,
	"BTN_X":       BtnNorth,
	"BTN_Y":       BtnWest,
}

// CodeByName resolves a key name such as "BTN_START" or "KEY_M".
// Names are case-insensitive; a bare number is accepted as a raw code.
func CodeByName(name string) (uint16, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return 0, fmt.Errorf("empty key name")
	}
	if c, ok := codeNames[n]; ok {
		return c, nil
	}
	if c, ok := codeAliases[n]; ok {
		return c, nil
	}
	if v, err := strconv.ParseUint(n, 0, 16); err == nil && v <= uint64(KeyMax) {
		return uint16(v), nil
	}
	return 0, fmt.Errorf("unknown key name %q", name)
}

// CodeName returns the canonical name for code, or its number in hex.
func CodeName(code uint16) string {
	for name, c := range codeNames {
		if c == code {
			return name
		}
	}
	return fmt.Sprintf("0x%03x", code)
}

// KnownNames returns the sorted list of canonical key names.
func KnownNames() []string {
	names := make([]string, 0, len(codeNames))
	for name := range codeNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CodeSet is a set of key codes.
type CodeSet map[uint16]struct{}

// NewCodeSet builds a set from codes.
func NewCodeSet(codes ...uint16) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is in the set.
func (s CodeSet) Has(code uint16) bool {
	_, ok := s[code]
	return ok
}

// Intersects reports whether any of codes is in the set.
func (s CodeSet) Intersects(codes CodeSet) bool {
	for c := range codes {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// Contains reports whether every code of sub is in the set.
func (s CodeSet) Contains(sub CodeSet) bool {
	for c := range sub {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Sorted returns the codes in ascending order.
func (s CodeSet) Sorted() []uint16 {
	out := make([]uint16, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
