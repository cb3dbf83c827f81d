package overlay

import "github.com/diamondburned/gotk4/pkg/gdk/v4"

// command is what a key press asks of the overlay.
type command int

const (
	cmdNone command = iota
	cmdUp
	cmdDown
	cmdPageUp
	cmdPageDown
	cmdFirst
	cmdLast
	cmdActivate
	cmdBack
	cmdLeft
	cmdRight
)

// pageStep is how far PageUp and PageDown move.
const pageStep = 5

// commandFor maps a key to a command. Gamepads reach the overlay through
// a key mapper, so only keyboard symbols are handled.
func commandFor(keyval uint) command {
	switch keyval {
	case gdk.KEY_Up, gdk.KEY_KP_Up, gdk.KEY_k, gdk.KEY_w:
		return cmdUp
	case gdk.KEY_Down, gdk.KEY_KP_Down, gdk.KEY_j, gdk.KEY_s, gdk.KEY_Tab:
		return cmdDown
	case gdk.KEY_Page_Up:
		return cmdPageUp
	case gdk.KEY_Page_Down:
		return cmdPageDown
	case gdk.KEY_Home:
		return cmdFirst
	case gdk.KEY_End:
		return cmdLast
	case gdk.KEY_Return, gdk.KEY_KP_Enter, gdk.KEY_space:
		return cmdActivate
	case gdk.KEY_Escape, gdk.KEY_BackSpace, gdk.KEY_q:
		return cmdBack
	case gdk.KEY_Left, gdk.KEY_KP_Left, gdk.KEY_h, gdk.KEY_a:
		return cmdLeft
	case gdk.KEY_Right, gdk.KEY_KP_Right, gdk.KEY_l, gdk.KEY_d:
		return cmdRight
	default:
		return cmdNone
	}
}
