package menu

// Kind distinguishes headers from selectable actions.
type Kind int

const (
	KindHeader Kind = iota
	KindAction
)

// Icon carries a Nerd Font glyph and a fallback for plain fonts.
type Icon struct {
	NerdFont string
	Fallback string
}

// Glyph picks the variant to display.
func (i Icon) Glyph(nerdFont bool) string {
	if nerdFont && i.NerdFont != "" {
		return i.NerdFont
	}
	return i.Fallback
}

// Item is one row of the menu. Items are immutable once built.
type Item struct {
	Kind        Kind
	Label       string
	Description string
	// Describe, when set, supersedes Description and is re-read on refresh.
	Describe func() string
	Icon     Icon
	Tag      string
	Danger   bool
	// Value makes the item a switch whose state is re-read on refresh.
	Value  func() bool
	Action func() Effect
}

// ItemOption customises an action item.
type ItemOption func(*Item)

// Header builds a non-selectable section title.
func Header(label string) Item {
	return Item{Kind: KindHeader, Label: label}
}

// Action builds a selectable item.
func Action(label string, action func() Effect, opts ...ItemOption) Item {
	it := Item{Kind: KindAction, Label: label, Action: action}
	for _, opt := range opts {
		opt(&it)
	}
	return it
}

func WithDescription(d string) ItemOption {
	return func(it *Item) { it.Description = d }
}

func WithDescriber(fn func() string) ItemOption {
	return func(it *Item) { it.Describe = fn }
}

func WithIcon(nerdFont, fallback string) ItemOption {
	return func(it *Item) { it.Icon = Icon{NerdFont: nerdFont, Fallback: fallback} }
}

func WithTag(tag string) ItemOption {
	return func(it *Item) { it.Tag = tag }
}

func WithValue(fn func() bool) ItemOption {
	return func(it *Item) { it.Value = fn }
}

// Dangerous marks destructive items for distinct styling.
func Dangerous() ItemOption {
	return func(it *Item) { it.Danger = true }
}

// Selectable reports whether the item can hold the selection.
func (it Item) Selectable() bool {
	return it.Kind == KindAction
}

// Togglable reports whether the item renders as a switch.
func (it Item) Togglable() bool {
	return it.Value != nil
}

// Refreshable reports whether the item has providers to re-read.
func (it Item) Refreshable() bool {
	return it.Describe != nil || it.Value != nil
}

// CurrentDescription evaluates the description provider, if any.
// Providers may block; call off the UI thread.
func (it Item) CurrentDescription() string {
	if it.Describe != nil {
		return it.Describe()
	}
	return it.Description
}
