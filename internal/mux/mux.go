// Package mux waits on every registered input device and the toggle
// socket at once and dispatches whatever becomes ready.
package mux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jmylchreest/mosoverlay/internal/devices"
	"github.com/jmylchreest/mosoverlay/internal/evdev"
)

const (
	DefaultPollTimeout    = time.Second
	DefaultRescanInterval = 5 * time.Second
)

// Registry is the device set the loop waits on.
type Registry interface {
	Entries() []devices.Entry
	Rescan() int
	Unregister(path string) bool
}

// Listener is a pollable request source such as ipc.Server.
type Listener interface {
	Fd() int
	AcceptOne() ([]byte, error)
}

// Handlers receive dispatched work. All are called on the loop goroutine
// and any may be nil.
type Handlers struct {
	// Key receives EV_KEY events, including repeats.
	Key func(entry devices.Entry, ev evdev.Event)
	// Disconnect runs after a device failed a read and was unregistered.
	Disconnect func(entry devices.Entry)
	// Request receives the payload of one accepted connection.
	Request func(payload []byte)
}

// Options configures a Loop.
type Options struct {
	Registry       Registry
	Listener       Listener
	Handlers       Handlers
	PollTimeout    time.Duration
	RescanInterval time.Duration
	Logger         *slog.Logger
}

// Loop is a single-threaded readiness multiplexer. The wait set is
// rebuilt from the registry at the start of every cycle, so devices
// added or removed during a cycle take effect on the next one.
type Loop struct {
	registry       Registry
	listener       Listener
	handlers       Handlers
	pollTimeout    time.Duration
	rescanInterval time.Duration
	logger         *slog.Logger

	poll     func(fds []unix.PollFd, timeout int) (int, error)
	now      func() time.Time
	lastScan time.Time
}

// New creates a loop.
func New(opts Options) *Loop {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.RescanInterval <= 0 {
		opts.RescanInterval = DefaultRescanInterval
	}
	return &Loop{
		registry:       opts.Registry,
		listener:       opts.Listener,
		handlers:       opts.Handlers,
		pollTimeout:    opts.PollTimeout,
		rescanInterval: opts.RescanInterval,
		logger:         opts.Logger,
		poll:           unix.Poll,
		now:            time.Now,
	}
}

// Run cycles until ctx is cancelled. Cancellation is observed between
// cycles, so it takes effect within one poll timeout.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("multiplexer started")
	defer l.logger.Debug("multiplexer stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := l.Cycle(); err != nil {
			return err
		}
	}
}

type target struct {
	entry    devices.Entry
	listener bool
}

// Cycle runs one rescan check, one wait and one dispatch pass.
func (l *Loop) Cycle() error {
	l.maybeRescan()

	var (
		fds     []unix.PollFd
		targets []target
	)
	if l.registry != nil {
		for _, e := range l.registry.Entries() {
			fd := e.Device.Fd()
			if fd < 0 {
				continue
			}
			fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
			targets = append(targets, target{entry: e})
		}
	}
	if l.listener != nil && l.listener.Fd() >= 0 {
		fds = append(fds, unix.PollFd{Fd: int32(l.listener.Fd()), Events: unix.POLLIN})
		targets = append(targets, target{listener: true})
	}

	n, err := l.poll(fds, int(l.pollTimeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("failed to poll: %w", err)
	}
	if n == 0 {
		return nil
	}

	for i, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		t := targets[i]
		if t.listener {
			l.accept()
			continue
		}
		l.drain(t.entry)
	}
	return nil
}

func (l *Loop) maybeRescan() {
	if l.registry == nil {
		return
	}
	now := l.now()
	if !l.lastScan.IsZero() && now.Sub(l.lastScan) < l.rescanInterval {
		return
	}
	l.lastScan = now
	if added := l.registry.Rescan(); added > 0 {
		l.logger.Debug("rescan added devices", "count", added)
	}
}

func (l *Loop) drain(entry devices.Entry) {
	events, err := entry.Device.ReadEvents()
	for _, ev := range events {
		if ev.Type != evdev.EvKey {
			continue
		}
		if l.handlers.Key != nil {
			l.handlers.Key(entry, ev)
		}
	}
	if err == nil {
		return
	}

	l.logger.Warn("device read failed", "name", entry.Name(), "path", entry.Path(), "error", err)
	l.registry.Unregister(entry.Path())
	if l.handlers.Disconnect != nil {
		l.handlers.Disconnect(entry)
	}
}

func (l *Loop) accept() {
	payload, err := l.listener.AcceptOne()
	if err != nil {
		l.logger.Debug("ipc accept failed", "error", err)
		return
	}
	if l.handlers.Request != nil {
		l.handlers.Request(payload)
	}
}
