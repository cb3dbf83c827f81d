package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/mosoverlay/internal/menu"
)

// Lines taken by the title bar, the gap below it and the help footer.
const chromeLines = 3

// rowLines is the height of one action: label and description.
const rowLines = 2

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	clockStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAAAAA"))
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	dangerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CF0000"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#1E6BFF")).Foreground(lipgloss.Color("#FFFFFF"))
	onStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	offStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
	confirmStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#CF0000")).Padding(1, 4)
)

type confirmation struct {
	message string
	yes     bool
	done    func(bool)
}

// screen is the terminal rendition of the overlay. It implements
// app.View; every method runs inside the program's Update.
type screen struct {
	items    []menu.Item
	actions  []int // item index per action
	top      []int // first content line per action
	lines    int   // total content lines
	nerdFont bool
	title    string

	selected int
	descs    map[int]string
	values   map[int]bool
	offset   int
	width    int
	height   int
	pending  int // action to scroll to once the size is known, or -1

	visible bool
	quit    bool
	confirm *confirmation
}

func newScreen(items []menu.Item, title string, nerdFont bool) *screen {
	s := &screen{
		items:    items,
		nerdFont: nerdFont,
		title:    title,
		descs:    make(map[int]string),
		values:   make(map[int]bool),
		pending:  -1,
	}
	line := 0
	for i, it := range items {
		if !it.Selectable() {
			if line > 0 {
				line++
			}
			line++
			continue
		}
		s.actions = append(s.actions, i)
		s.top = append(s.top, line)
		if it.Describe == nil {
			s.descs[len(s.actions)-1] = it.Description
		}
		line += rowLines
	}
	s.lines = line
	return s
}

func (s *screen) Highlight(prev, next int) { s.selected = next }

func (s *screen) ScrollToTop() { s.offset = 0 }

// EnsureVisible centres action i. Without a terminal size there is no
// layout yet, so the request waits for the first resize.
func (s *screen) EnsureVisible(i int) {
	if i < 0 || i >= len(s.top) {
		return
	}
	if s.height == 0 {
		s.pending = i
		return
	}
	s.pending = -1
	s.offset = int(menu.ScrollOffset(
		float64(s.top[i]), rowLines,
		float64(s.lines), float64(s.viewport()),
	))
}

func (s *screen) Present() { s.visible = true }
func (s *screen) Focus()   {}
func (s *screen) Quit()    { s.quit = true }

// Withdraw switches to the idle screen. A terminal cannot be hidden.
func (s *screen) Withdraw() {
	s.cancelConfirm()
	s.visible = false
}

func (s *screen) Confirm(message string, done func(bool)) {
	s.cancelConfirm()
	s.confirm = &confirmation{message: message, done: done}
}

func (s *screen) Apply(snap menu.Snapshot) {
	for a, d := range snap.Descriptions {
		s.descs[a] = d
	}
	for a, v := range snap.Values {
		s.values[a] = v
	}
}

func (s *screen) resize(w, h int) {
	s.width, s.height = w, h
	if s.pending >= 0 {
		s.EnsureVisible(s.pending)
	}
}

func (s *screen) viewport() int {
	return max(s.height-chromeLines, 1)
}

// resolve answers the open confirmation.
func (s *screen) resolve(confirmed bool) {
	c := s.confirm
	if c == nil {
		return
	}
	s.confirm = nil
	c.done(confirmed)
}

func (s *screen) cancelConfirm() {
	if s.confirm != nil {
		s.resolve(false)
	}
}

// content renders every menu line, before scrolling.
func (s *screen) content() []string {
	out := make([]string, 0, s.lines)
	a := 0
	for _, it := range s.items {
		if !it.Selectable() {
			if len(out) > 0 {
				out = append(out, "")
			}
			out = append(out, headerStyle.Render(it.Label))
			continue
		}
		out = append(out, s.renderRow(a, it)...)
		a++
	}
	return out
}

func (s *screen) renderRow(a int, it menu.Item) []string {
	label := labelStyle
	if it.Danger {
		label = dangerStyle
	}

	first := " " + it.Icon.Glyph(s.nerdFont) + "  " + label.Render(it.Label)
	if it.Togglable() {
		if s.values[a] {
			first += "  " + onStyle.Render("[ON]")
		} else {
			first += "  " + offStyle.Render("[OFF]")
		}
	}

	desc, ok := s.descs[a]
	if !ok {
		desc = "…"
	}
	second := "     " + descStyle.Render(desc)

	if a == s.selected {
		w := max(s.width, lipgloss.Width(first))
		first = selectedStyle.Width(w).Render(first)
		second = selectedStyle.Width(w).Render(second)
	}
	return []string{first, second}
}

func (s *screen) render(clock, footer string) string {
	if s.confirm != nil {
		return s.renderConfirm()
	}

	var b strings.Builder
	title := titleStyle.Render(s.title)
	gap := max(s.width-lipgloss.Width(title)-lipgloss.Width(clock), 1)
	b.WriteString(title + strings.Repeat(" ", gap) + clockStyle.Render(clock))
	b.WriteString("\n\n")

	lines := s.content()
	end := min(s.offset+s.viewport(), len(lines))
	start := min(s.offset, end)
	b.WriteString(strings.Join(lines[start:end], "\n"))
	for i := end - start; i < s.viewport(); i++ {
		b.WriteString("\n")
	}
	b.WriteString("\n" + footer)
	return b.String()
}

func (s *screen) renderConfirm() string {
	yes, no := " Yes ", " No "
	if s.confirm.yes {
		yes = selectedStyle.Render(yes)
	} else {
		no = selectedStyle.Render(no)
	}
	box := confirmStyle.Render(labelStyle.Render(s.confirm.message) + "\n\n" + yes + "    " + no)
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, box)
}

func (s *screen) renderIdle(footer string) string {
	msg := titleStyle.Render(s.title) + "\n\n" + descStyle.Render("Press enter or the menu combo to open") + "\n\n" + footer
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, msg)
}
