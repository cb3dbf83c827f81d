// Package tui is the BubbleTea frontend for kiosks without a Wayland
// session. It drives the same controller as the GTK overlay.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/mosoverlay/internal/app"
)

// Input receives the user's navigation. app.Controller implements it.
type Input interface {
	Move(delta int)
	Select(i int)
	Activate()
	Hide()
	Toggle()
	Quit()
}

// pageStep is how far PageUp and PageDown move.
const pageStep = 5

// postMsg carries work posted through the scheduler.
type postMsg struct{ fn func() }

type tickMsg time.Time

// Model is the BubbleTea model. The screen it points to is shared with
// the controller, which mutates it only from within Update.
type Model struct {
	screen *screen
	input  Input
	keys   KeyMap
	help   help.Model
	now    func() time.Time
}

func newModel(s *screen, in Input) Model {
	return Model{
		screen: s,
		input:  in,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		now:    time.Now,
	}
}

func tick() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the clock.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case postMsg:
		msg.fn()
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.screen.resize(msg.Width, msg.Height)
	case tickMsg:
		return m, tick()
	case tea.KeyMsg:
		m.handleKey(msg)
	}

	if m.screen.quit {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	if key.Matches(msg, m.keys.Quit) {
		m.input.Quit()
		return
	}

	s := m.screen
	switch {
	case s.confirm != nil:
		m.handleConfirmKey(msg)
	case !s.visible:
		if key.Matches(msg, m.keys.Open) {
			m.input.Toggle()
		}
	default:
		m.handleMenuKey(msg)
	}
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.input.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.input.Move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.input.Move(-pageStep)
	case key.Matches(msg, m.keys.PageDown):
		m.input.Move(pageStep)
	case key.Matches(msg, m.keys.Home):
		m.input.Select(0)
	case key.Matches(msg, m.keys.End):
		m.input.Select(len(m.screen.actions) - 1)
	case key.Matches(msg, m.keys.Activate):
		m.input.Activate()
	case key.Matches(msg, m.keys.Back):
		m.input.Hide()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) {
	c := m.screen.confirm
	switch {
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
		c.yes = true
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
		c.yes = false
	case key.Matches(msg, m.keys.Activate):
		m.screen.resolve(c.yes)
	case key.Matches(msg, m.keys.Back):
		m.screen.resolve(false)
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.screen.width == 0 {
		return "Initializing..."
	}
	if !m.screen.visible && m.screen.confirm == nil {
		return m.screen.renderIdle(m.help.ShortHelpView([]key.Binding{m.keys.Open, m.keys.Quit}))
	}
	return m.screen.render(m.now().Format("15:04"), m.help.View(m.keys))
}

// scheduler posts work into the program's event loop.
type scheduler struct {
	program *tea.Program
}

func (s *scheduler) Post(fn func()) {
	s.program.Send(postMsg{fn: fn})
}

// Run starts the terminal overlay and blocks until it quits or ctx is
// cancelled.
func Run(ctx context.Context, s *app.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := s.Config
	scr := newScreen(s.Menu.Items(), cfg.Overlay.Title, cfg.Overlay.NerdFont)
	sched := &scheduler{}
	ctrl := s.Controller(scr, sched)

	p := tea.NewProgram(newModel(scr, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	sched.program = p

	serveErr := make(chan error, 1)
	go func() {
		err := ctrl.Serve(ctx, s.Serve)
		if err != nil {
			s.Logger.Error("overlay workers failed", "error", err)
			p.Quit()
		}
		serveErr <- err
	}()

	_, err := p.Run()
	cancel()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, <-serveErr)
}
