package menu

import "github.com/jmylchreest/mosoverlay/internal/process"

// Effect is what activating an item asks the dispatcher to do.
// Effects are plain values; the set of implementations is closed.
type Effect interface {
	isEffect()
}

// None does nothing.
type None struct{}

// Hide withdraws the overlay, keeping the process alive.
type Hide struct{}

// Exit quits the overlay process.
type Exit struct{}

// RunDetached launches each command without waiting for it.
type RunDetached struct {
	Commands []process.Command
}

// RunSequenceAsync runs commands one after another off the UI thread,
// then refreshes the items tagged RefreshTag.
type RunSequenceAsync struct {
	Commands   []process.Command
	RefreshTag string
}

// SuspendForChild hides the overlay while Command runs and shows it again
// with ResumeTo selected once it exits. Activate fills ResumeTo.
type SuspendForChild struct {
	Command  process.Command
	ResumeTo SelectionState
}

// ConfirmThen asks the user to confirm Message before running Command
// detached and quitting.
type ConfirmThen struct {
	Message string
	Command process.Command
}

// Sequence interprets Effects in order.
type Sequence struct {
	Effects []Effect
}

// RegisterApp records ID in the open-apps file.
type RegisterApp struct {
	ID string
}

func (None) isEffect()             {}
func (Hide) isEffect()             {}
func (Exit) isEffect()             {}
func (RunDetached) isEffect()      {}
func (RunSequenceAsync) isEffect() {}
func (SuspendForChild) isEffect()  {}
func (ConfirmThen) isEffect()      {}
func (Sequence) isEffect()         {}
func (RegisterApp) isEffect()      {}
