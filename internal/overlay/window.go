// Package overlay is the GTK4 frontend: a full-screen layer-shell
// surface listing the menu, with an in-window confirmation panel.
package overlay

import (
	"log/slog"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/mosoverlay/internal/menu"
)

const namespace = "mosoverlay"

// Input receives the user's navigation. app.Controller implements it.
type Input interface {
	Move(delta int)
	Select(i int)
	Activate()
	Hide()
}

// Options configures a Window.
type Options struct {
	Title    string
	NerdFont bool
	Logger   *slog.Logger
}

// Window implements app.View on top of a GTK window.
type Window struct {
	app    *gtk.Application
	window *gtk.Window
	logger *slog.Logger
	input  Input

	stack    *gtk.Stack
	scroller *gtk.ScrolledWindow
	list     *gtk.Box
	clock    *gtk.Label
	rows     []*row
	clockID  glib.SourceHandle

	confirm *confirmPanel
}

// NewWindow builds the window for m. It stays hidden until Present.
func NewWindow(app *gtk.Application, m *menu.Menu, opts Options) *Window {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Window{
		app:    app,
		logger: opts.Logger,
	}

	w.window = gtk.NewWindow()
	w.window.SetApplication(app)
	w.window.SetTitle(opts.Title)
	w.window.SetDecorated(false)
	w.window.AddCSSClass("mos-overlay")
	w.initLayerShell()

	w.stack = gtk.NewStack()
	w.stack.SetTransitionType(gtk.StackTransitionTypeCrossfade)
	w.stack.AddNamed(w.buildMenu(m, opts), "menu")

	w.confirm = newConfirmPanel()
	w.stack.AddNamed(w.confirm.root, "confirm")
	w.stack.SetVisibleChildName("menu")

	w.window.SetChild(w.stack)
	w.connectKeys()

	return w
}

func (w *Window) initLayerShell() {
	if !layershell.IsSupported() {
		w.logger.Warn("layer shell not supported, using a fullscreen window")
		w.window.Fullscreen()
		return
	}
	layershell.InitForWindow(w.window)
	layershell.SetLayer(w.window, layershell.LayerShellLayerOverlay)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeBottom, true)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeLeft, true)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeRight, true)
	layershell.SetExclusiveZone(w.window, -1)
	layershell.SetKeyboardMode(w.window, layershell.LayerShellKeyboardModeExclusive)
	layershell.SetNamespace(w.window, namespace)
}

func (w *Window) buildMenu(m *menu.Menu, opts Options) gtk.Widgetter {
	panel := gtk.NewBox(gtk.OrientationVertical, 12)
	panel.AddCSSClass("mos-panel")

	top := gtk.NewBox(gtk.OrientationHorizontal, 0)
	title := gtk.NewLabel(opts.Title)
	title.AddCSSClass("mos-title")
	title.SetHExpand(true)
	title.SetXAlign(0)
	w.clock = gtk.NewLabel(time.Now().Format("15:04"))
	w.clock.AddCSSClass("mos-clock")
	top.Append(title)
	top.Append(w.clock)
	panel.Append(top)

	w.list = gtk.NewBox(gtk.OrientationVertical, 0)
	for i, it := range m.Items() {
		if !it.Selectable() {
			h := gtk.NewLabel(it.Label)
			h.AddCSSClass("mos-header")
			h.SetXAlign(0)
			w.list.Append(h)
			continue
		}
		a, _ := m.ActionIndex(i)
		r := newRow(it, opts.NerdFont)
		w.attachPointer(r, a)
		w.rows = append(w.rows, r)
		w.list.Append(r.root)
	}

	w.scroller = gtk.NewScrolledWindow()
	w.scroller.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	w.scroller.SetVExpand(true)
	w.scroller.SetChild(w.list)
	panel.Append(w.scroller)

	return panel
}

// Bind routes input to in. It must be called before Present.
func (w *Window) Bind(in Input) { w.input = in }

func (w *Window) attachPointer(r *row, action int) {
	motion := gtk.NewEventControllerMotion()
	motion.ConnectEnter(func(x, y float64) {
		if w.input != nil && !w.confirm.active() {
			w.input.Select(action)
		}
	})
	r.root.AddController(motion)

	click := gtk.NewGestureClick()
	click.ConnectReleased(func(nPress int, x, y float64) {
		if w.input == nil || w.confirm.active() {
			return
		}
		w.input.Select(action)
		w.input.Activate()
	})
	r.root.AddController(click)
}

func (w *Window) connectKeys() {
	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		cmd := commandFor(keyval)
		if cmd == cmdNone || w.input == nil {
			return false
		}
		if w.confirm.active() {
			w.confirmKey(cmd)
			return true
		}
		w.menuKey(cmd)
		return true
	})
	w.window.AddController(keys)
}

func (w *Window) menuKey(cmd command) {
	switch cmd {
	case cmdUp, cmdLeft:
		w.input.Move(-1)
	case cmdDown, cmdRight:
		w.input.Move(1)
	case cmdPageUp:
		w.input.Move(-pageStep)
	case cmdPageDown:
		w.input.Move(pageStep)
	case cmdFirst:
		w.input.Select(0)
	case cmdLast:
		w.input.Select(len(w.rows) - 1)
	case cmdActivate:
		w.input.Activate()
	case cmdBack:
		w.input.Hide()
	}
}

func (w *Window) confirmKey(cmd command) {
	switch cmd {
	case cmdLeft, cmdUp:
		w.confirm.choose(true)
	case cmdRight, cmdDown:
		w.confirm.choose(false)
	case cmdActivate:
		w.closeConfirm(w.confirm.yes)
	case cmdBack:
		w.closeConfirm(false)
	}
}

// Present shows the window and starts the clock.
func (w *Window) Present() {
	w.tick()
	if w.clockID == 0 {
		w.clockID = glib.TimeoutSecondsAdd(1, func() bool {
			w.tick()
			return true
		})
	}
	w.window.SetVisible(true)
	w.window.Present()
}

func (w *Window) tick() {
	w.clock.SetText(time.Now().Format("15:04"))
}

// Withdraw hides the window. A pending confirmation counts as declined.
func (w *Window) Withdraw() {
	if w.confirm.active() {
		w.closeConfirm(false)
	}
	if w.clockID != 0 {
		glib.SourceRemove(w.clockID)
		w.clockID = 0
	}
	w.window.SetVisible(false)
}

// Focus raises the window and gives it keyboard focus.
func (w *Window) Focus() {
	w.window.Present()
	if r := w.selectedRow(); r != nil {
		r.root.GrabFocus()
	}
}

// Quit ends the application.
func (w *Window) Quit() {
	w.window.SetVisible(false)
	w.app.Quit()
}

// Confirm swaps the menu for the confirmation panel.
func (w *Window) Confirm(message string, done func(bool)) {
	w.confirm.open(message, done)
	w.stack.SetVisibleChildName("confirm")
}

func (w *Window) closeConfirm(confirmed bool) {
	w.stack.SetVisibleChildName("menu")
	w.confirm.close(confirmed)
}

// Apply writes refreshed descriptions and switch states.
func (w *Window) Apply(snap menu.Snapshot) {
	for a, desc := range snap.Descriptions {
		if a < len(w.rows) {
			w.rows[a].setDescription(desc)
		}
	}
	for a, on := range snap.Values {
		if a < len(w.rows) {
			w.rows[a].setValue(on)
		}
	}
}

// Highlight moves the selected style from prev to next.
func (w *Window) Highlight(prev, next int) {
	if prev >= 0 && prev < len(w.rows) {
		w.rows[prev].setSelected(false)
	}
	if next >= 0 && next < len(w.rows) {
		w.rows[next].setSelected(true)
	}
}

// EnsureVisible centres row i. Before the first layout there is nothing
// to measure, so the scroll is retried once the main loop is idle.
func (w *Window) EnsureVisible(i int) {
	w.ensureVisible(i, true)
}

func (w *Window) ensureVisible(i int, retry bool) {
	if i < 0 || i >= len(w.rows) {
		return
	}
	viewport := float64(w.scroller.Height())
	bounds, ok := w.rows[i].root.ComputeBounds(w.list)
	if !ok || viewport == 0 {
		if retry {
			glib.IdleAdd(func() {
				if w.window.IsVisible() {
					w.ensureVisible(i, false)
				}
			})
		}
		return
	}
	offset := menu.ScrollOffset(
		float64(bounds.Y()), float64(bounds.Height()),
		float64(w.list.Height()), viewport,
	)
	w.scroller.VAdjustment().SetValue(offset)
}

// ScrollToTop resets the scroll position.
func (w *Window) ScrollToTop() {
	w.scroller.VAdjustment().SetValue(0)
}

func (w *Window) selectedRow() *row {
	for _, r := range w.rows {
		if r.selected {
			return r
		}
	}
	return nil
}
