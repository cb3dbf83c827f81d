// Package menu holds the overlay's item table and the selection state
// machine that drives it. It knows nothing about toolkits: frontends
// implement Renderer and interpret the Effects that Activate returns.
package menu

import "errors"

// ErrEmptyMenu is returned when no item is selectable.
var ErrEmptyMenu = errors.New("menu has no selectable items")

// Renderer paints selection changes. Index arguments are action indices,
// not row indices; use Menu.ItemIndex to map them. EnsureVisible must
// defer the scroll computation until layout is complete.
type Renderer interface {
	Highlight(prev, next int)
	EnsureVisible(index int)
	ScrollToTop()
}

// Snapshot holds provider results keyed by action index.
type Snapshot struct {
	Descriptions map[int]string
	Values       map[int]bool
}

// Menu is owned by the UI thread; none of its methods are safe for
// concurrent use except Collect.
type Menu struct {
	items    []Item
	actions  []int
	sel      *Selection
	renderer Renderer
}

// New builds a menu over items.
func New(items []Item, policy Policy) (*Menu, error) {
	var actions []int
	for i, it := range items {
		if it.Selectable() {
			actions = append(actions, i)
		}
	}
	if len(actions) == 0 {
		return nil, ErrEmptyMenu
	}
	return &Menu{
		items:   items,
		actions: actions,
		sel:     NewSelection(len(actions), policy),
	}, nil
}

// SetRenderer attaches the frontend. A nil renderer disables painting.
func (m *Menu) SetRenderer(r Renderer) { m.renderer = r }

// Items returns every row including headers.
func (m *Menu) Items() []Item { return m.items }

// Len returns the number of selectable items.
func (m *Menu) Len() int { return len(m.actions) }

// Action returns the selectable item at action index i.
func (m *Menu) Action(i int) Item { return m.items[m.actions[i]] }

// ItemIndex maps an action index to its row index.
func (m *Menu) ItemIndex(action int) int { return m.actions[action] }

// ActionIndex maps a row index to its action index.
func (m *Menu) ActionIndex(item int) (int, bool) {
	for a, i := range m.actions {
		if i == item {
			return a, true
		}
	}
	return 0, false
}

// Index returns the selected action index.
func (m *Menu) Index() int { return m.sel.Index() }

// State snapshots the selection.
func (m *Menu) State() SelectionState { return m.sel.State() }

// Move shifts the selection by delta. A move that does not change the
// index touches nothing.
func (m *Menu) Move(delta int) bool {
	prev := m.sel.Index()
	if !m.sel.Move(delta) {
		return false
	}
	m.paint(prev)
	return true
}

// Select jumps to action index i, e.g. on pointer hover.
func (m *Menu) Select(i int) bool {
	prev := m.sel.Index()
	if !m.sel.Set(i) {
		return false
	}
	m.paint(prev)
	return true
}

// Activate returns the selected item's effect.
func (m *Menu) Activate() Effect {
	it := m.Action(m.sel.Index())
	if it.Action == nil {
		return None{}
	}
	return m.withResume(it.Action())
}

// Reset selects the first item and scrolls to the top. It always
// repaints since the frontend may have been rebuilt while hidden.
func (m *Menu) Reset() {
	prev := m.sel.Index()
	m.sel.Set(0)
	if m.renderer != nil {
		m.renderer.Highlight(prev, 0)
		m.renderer.ScrollToTop()
	}
}

// Restore reinstates a previous selection, clamping it to the current
// item count.
func (m *Menu) Restore(s SelectionState) {
	prev := m.sel.Index()
	m.sel.Set(s.Index)
	m.paint(prev)
}

// Tagged returns the action indices whose Tag is tag. An empty tag
// matches every refreshable item.
func (m *Menu) Tagged(tag string) []int {
	var out []int
	for a, i := range m.actions {
		it := m.items[i]
		if (tag == "" && it.Refreshable()) || (tag != "" && it.Tag == tag) {
			out = append(out, a)
		}
	}
	return out
}

// Collect evaluates the providers of the items matching tag. It may
// block on external commands and is meant to run off the UI thread.
func (m *Menu) Collect(tag string) Snapshot {
	snap := Snapshot{
		Descriptions: make(map[int]string),
		Values:       make(map[int]bool),
	}
	for _, a := range m.Tagged(tag) {
		it := m.Action(a)
		if it.Describe != nil {
			snap.Descriptions[a] = it.Describe()
		}
		if it.Value != nil {
			snap.Values[a] = it.Value()
		}
	}
	return snap
}

func (m *Menu) paint(prev int) {
	if m.renderer == nil {
		return
	}
	next := m.sel.Index()
	m.renderer.Highlight(prev, next)
	m.renderer.EnsureVisible(next)
}

func (m *Menu) withResume(e Effect) Effect {
	switch v := e.(type) {
	case SuspendForChild:
		v.ResumeTo = m.sel.State()
		return v
	case Sequence:
		out := make([]Effect, len(v.Effects))
		for i, inner := range v.Effects {
			out[i] = m.withResume(inner)
		}
		return Sequence{Effects: out}
	default:
		return e
	}
}
