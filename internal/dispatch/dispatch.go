// Package dispatch interprets menu effects: it launches processes,
// hides and restores the overlay around child programs and gates
// destructive commands behind a confirmation.
//
// Dispatch must be called on the UI thread. Work that blocks runs on a
// background goroutine and re-enters the UI thread only through the
// Scheduler.
package dispatch

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/mosoverlay/internal/menu"
	"github.com/jmylchreest/mosoverlay/internal/process"
)

// DefaultCommandTimeout bounds each command of a RunSequenceAsync effect.
const DefaultCommandTimeout = time.Second

// Surface is the overlay window as seen by the dispatcher.
type Surface interface {
	Hide()
	Show()
	Quit()
	Focus()
	// Confirm presents a modal question and calls done on the UI thread.
	Confirm(message string, done func(confirmed bool))
}

// Scheduler runs fn on the UI thread.
type Scheduler interface {
	Post(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Post calls f(fn).
func (f SchedulerFunc) Post(fn func()) { f(fn) }

// Runner starts and runs external commands.
type Runner interface {
	Start(c process.Command) (process.Process, error)
	Run(ctx context.Context, c process.Command) error
}

// Selection restores the menu selection after a child exits.
type Selection interface {
	Restore(state menu.SelectionState)
}

// Refresher re-reads the providers of items tagged tag.
type Refresher interface {
	Refresh(tag string)
}

// AppRegistry records launched applications.
type AppRegistry interface {
	Register(id string) error
}

// Options configures a Dispatcher.
type Options struct {
	Surface        Surface
	Scheduler      Scheduler
	Runner         Runner
	Selection      Selection
	Refresher      Refresher
	Apps           AppRegistry
	CommandTimeout time.Duration
	Logger         *slog.Logger
}

// Dispatcher executes effects.
type Dispatcher struct {
	surface        Surface
	scheduler      Scheduler
	runner         Runner
	selection      Selection
	refresher      Refresher
	apps           AppRegistry
	commandTimeout time.Duration
	logger         *slog.Logger

	tasks sync.WaitGroup
}

// New creates a dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	return &Dispatcher{
		surface:        opts.Surface,
		scheduler:      opts.Scheduler,
		runner:         opts.Runner,
		selection:      opts.Selection,
		refresher:      opts.Refresher,
		apps:           opts.Apps,
		commandTimeout: opts.CommandTimeout,
		logger:         opts.Logger,
	}
}

// Dispatch performs e.
func (d *Dispatcher) Dispatch(e menu.Effect) {
	switch v := e.(type) {
	case nil, menu.None:
	case menu.Hide:
		d.surface.Hide()
	case menu.Exit:
		d.surface.Quit()
	case menu.RunDetached:
		for _, c := range v.Commands {
			d.spawn(c)
		}
	case menu.RunSequenceAsync:
		d.runSequence(v)
	case menu.SuspendForChild:
		d.suspend(v)
	case menu.ConfirmThen:
		d.confirm(v)
	case menu.Sequence:
		for _, inner := range v.Effects {
			d.Dispatch(inner)
		}
	case menu.RegisterApp:
		if d.apps == nil {
			return
		}
		if err := d.apps.Register(v.ID); err != nil {
			d.logger.Warn("failed to register app", "app", v.ID, "error", err)
		}
	default:
		d.logger.Warn("unknown effect", "effect", e)
	}
}

// Wait blocks until every background task has posted its completion.
func (d *Dispatcher) Wait() {
	d.tasks.Wait()
}

func newTaskID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// spawn starts c and reaps it in the background. Failures are logged.
func (d *Dispatcher) spawn(c process.Command) {
	p, err := d.runner.Start(c)
	if err != nil {
		d.logger.Warn("failed to launch", "command", c.String(), "error", err)
		return
	}
	go func() { _ = p.Wait() }()
}

func (d *Dispatcher) runSequence(v menu.RunSequenceAsync) {
	id := newTaskID()
	d.logger.Debug("task started", "task", id, "commands", len(v.Commands), "tag", v.RefreshTag)

	d.tasks.Add(1)
	go func() {
		defer d.tasks.Done()
		for _, c := range v.Commands {
			ctx, cancel := context.WithTimeout(context.Background(), d.commandTimeout)
			err := d.runner.Run(ctx, c)
			cancel()
			if err != nil {
				d.logger.Debug("command failed", "task", id, "command", c.String(), "error", err)
			}
		}
		d.logger.Debug("task finished", "task", id)
		if v.RefreshTag != "" && d.refresher != nil {
			d.scheduler.Post(func() { d.refresher.Refresh(v.RefreshTag) })
		}
	}()
}

func (d *Dispatcher) suspend(v menu.SuspendForChild) {
	d.surface.Hide()

	p, err := d.runner.Start(v.Command)
	if err != nil {
		d.logger.Warn("failed to launch child, resuming", "command", v.Command.String(), "error", err)
		d.resume(v.ResumeTo)
		return
	}

	id := newTaskID()
	d.logger.Debug("waiting for child", "task", id, "pid", p.Pid(), "command", v.Command.String())

	d.tasks.Add(1)
	go func() {
		defer d.tasks.Done()
		err := p.Wait()
		d.logger.Debug("child exited", "task", id, "error", err)
		d.scheduler.Post(func() { d.resume(v.ResumeTo) })
	}()
}

func (d *Dispatcher) resume(state menu.SelectionState) {
	d.surface.Show()
	if d.selection != nil {
		d.selection.Restore(state)
	}
	d.surface.Focus()
}

func (d *Dispatcher) confirm(v menu.ConfirmThen) {
	d.surface.Confirm(v.Message, func(confirmed bool) {
		if !confirmed {
			d.logger.Debug("confirmation cancelled", "command", v.Command.String())
			return
		}
		d.spawn(v.Command)
		d.surface.Quit()
	})
}
