package menu

// Policy decides what happens when a move runs past either end.
type Policy int

const (
	// Clamp stops at the first and last items.
	Clamp Policy = iota
	// Wrap cycles around.
	Wrap
)

// SelectionState is a snapshot of the selection.
type SelectionState struct {
	Index int
	Count int
}

// Selection is the index into the selectable items.
// 0 <= Index < Count whenever Count > 0.
type Selection struct {
	index  int
	count  int
	policy Policy
}

// NewSelection starts at index 0.
func NewSelection(count int, policy Policy) *Selection {
	if count < 0 {
		count = 0
	}
	return &Selection{count: count, policy: policy}
}

// Index returns the current index.
func (s *Selection) Index() int { return s.index }

// State returns a copy of the selection.
func (s *Selection) State() SelectionState {
	return SelectionState{Index: s.index, Count: s.count}
}

// Move shifts the index by delta under the policy and reports whether it
// changed.
func (s *Selection) Move(delta int) bool {
	if s.count == 0 || delta == 0 {
		return false
	}
	next := s.index + delta
	switch s.policy {
	case Wrap:
		next = ((next % s.count) + s.count) % s.count
	default:
		next = clamp(next, 0, s.count-1)
	}
	return s.Set(next)
}

// Set selects index, clamped into range, and reports whether it changed.
func (s *Selection) Set(index int) bool {
	if s.count == 0 {
		return false
	}
	index = clamp(index, 0, s.count-1)
	if index == s.index {
		return false
	}
	s.index = index
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
