// Package app holds the overlay state shared by the GTK and terminal
// frontends: visibility, selection, status refreshes and effect dispatch.
//
// Every Controller method runs on the frontend's UI thread. Background
// work reaches it only through the Scheduler.
package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/mosoverlay/internal/audio"
	"github.com/jmylchreest/mosoverlay/internal/dispatch"
	"github.com/jmylchreest/mosoverlay/internal/menu"
)

// View is a frontend surface.
type View interface {
	menu.Renderer
	// Present makes the surface visible. The selection has already been
	// reset and painted.
	Present()
	// Withdraw hides the surface without destroying it.
	Withdraw()
	// Focus grabs keyboard input.
	Focus()
	// Quit ends the frontend's main loop.
	Quit()
	// Confirm shows a modal question and calls done on the UI thread.
	Confirm(message string, done func(confirmed bool))
	// Apply shows freshly read descriptions and switch states.
	Apply(snap menu.Snapshot)
}

// Sounds plays feedback cues.
type Sounds interface {
	Play(cue audio.Cue)
}

// Options configures a Controller.
type Options struct {
	Menu           *menu.Menu
	View           View
	Scheduler      dispatch.Scheduler
	Runner         dispatch.Runner
	Apps           dispatch.AppRegistry
	Sounds         Sounds
	CommandTimeout time.Duration
	Logger         *slog.Logger
}

// Controller owns the overlay's UI-thread state.
type Controller struct {
	menu       *menu.Menu
	view       View
	scheduler  dispatch.Scheduler
	dispatcher *dispatch.Dispatcher
	sounds     Sounds
	logger     *slog.Logger

	visible bool
	// inflight holds tags with a read running; true marks the tag dirty so
	// the read is repeated once its result has been applied.
	inflight map[string]bool
	reads    sync.WaitGroup
}

// New creates a controller and attaches the view to the menu.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Controller{
		menu:      opts.Menu,
		view:      opts.View,
		scheduler: opts.Scheduler,
		sounds:    opts.Sounds,
		logger:    opts.Logger,
		inflight:  make(map[string]bool),
	}
	c.dispatcher = dispatch.New(dispatch.Options{
		Surface:        c,
		Scheduler:      opts.Scheduler,
		Runner:         opts.Runner,
		Selection:      c,
		Refresher:      c,
		Apps:           opts.Apps,
		CommandTimeout: opts.CommandTimeout,
		Logger:         opts.Logger,
	})
	c.menu.SetRenderer(opts.View)
	return c
}

// Menu returns the menu being driven.
func (c *Controller) Menu() *menu.Menu { return c.menu }

// Visible reports whether the surface is shown.
func (c *Controller) Visible() bool { return c.visible }

// Show resets the selection, presents the surface and refreshes every
// status item. Showing a visible overlay does nothing.
func (c *Controller) Show() {
	if c.visible {
		return
	}
	c.visible = true
	c.menu.Reset()
	c.view.Present()
	c.Refresh("")
	c.logger.Debug("overlay shown")
}

// Hide withdraws the surface.
func (c *Controller) Hide() {
	if !c.visible {
		return
	}
	c.visible = false
	c.view.Withdraw()
	c.logger.Debug("overlay hidden")
}

// Toggle flips visibility.
func (c *Controller) Toggle() {
	c.play(audio.CueToggle)
	if c.visible {
		c.Hide()
		return
	}
	c.Show()
}

// Quit ends the overlay process.
func (c *Controller) Quit() {
	c.visible = false
	c.view.Quit()
}

// Focus grabs keyboard input.
func (c *Controller) Focus() { c.view.Focus() }

// Confirm asks the view to confirm message.
func (c *Controller) Confirm(message string, done func(bool)) {
	c.view.Confirm(message, done)
}

// Restore reapplies a selection saved before a child program ran.
func (c *Controller) Restore(s menu.SelectionState) { c.menu.Restore(s) }

// Move shifts the selection by delta.
func (c *Controller) Move(delta int) {
	if c.menu.Move(delta) {
		c.play(audio.CueMove)
	}
}

// Select points the selection at action index i, as a pointer hover does.
func (c *Controller) Select(i int) {
	c.menu.Select(i)
}

// Activate runs the selected item's action.
func (c *Controller) Activate() {
	if c.menu.Len() == 0 {
		return
	}
	c.play(audio.CueActivate)
	it := c.menu.Action(c.menu.Index())
	c.logger.Debug("activate", "item", it.Label)
	c.dispatcher.Dispatch(c.menu.Activate())
}

// Refresh re-reads the providers of items tagged tag on a background
// goroutine and applies the result on the UI thread. An empty tag
// refreshes every item. Requests for a tag whose read is still running
// coalesce into one more read after it lands.
func (c *Controller) Refresh(tag string) {
	if _, running := c.inflight[tag]; running {
		c.inflight[tag] = true
		return
	}
	c.inflight[tag] = false

	c.reads.Add(1)
	go func() {
		defer c.reads.Done()
		snap := c.menu.Collect(tag)
		c.scheduler.Post(func() {
			dirty := c.inflight[tag]
			delete(c.inflight, tag)
			c.view.Apply(snap)
			if dirty {
				c.Refresh(tag)
			}
		})
	}()
}

// Wait blocks until background reads and dispatched tasks have posted
// their results.
func (c *Controller) Wait() {
	c.reads.Wait()
	c.dispatcher.Wait()
}

func (c *Controller) play(cue audio.Cue) {
	if c.sounds != nil {
		c.sounds.Play(cue)
	}
}
