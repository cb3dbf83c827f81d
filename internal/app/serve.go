package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/mosoverlay/internal/catalog"
	"github.com/jmylchreest/mosoverlay/internal/combo"
	"github.com/jmylchreest/mosoverlay/internal/devices"
	"github.com/jmylchreest/mosoverlay/internal/evdev"
	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/mux"
	"github.com/jmylchreest/mosoverlay/internal/store"
)

// DefaultRefreshInterval is how often visible status items are re-read.
const DefaultRefreshInterval = 2500 * time.Millisecond

// ServeOptions configures the overlay's background workers.
type ServeOptions struct {
	// Listener receives toggle requests. Required.
	Listener mux.Listener
	// Registry, when set, is watched for combos alongside the listener.
	Registry *devices.Registry
	Combos   []combo.Definition
	Cooldown time.Duration

	PollTimeout     time.Duration
	RescanInterval  time.Duration
	RefreshInterval time.Duration

	// NightMarker is watched for external changes.
	NightMarker string
	// RevealDelay postpones the initial show. Negative keeps the overlay
	// hidden until the first toggle.
	RevealDelay time.Duration
}

// Serve runs the background workers until ctx is cancelled. Everything
// they produce reaches the controller through the scheduler.
func (c *Controller) Serve(ctx context.Context, opts ServeOptions) error {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}

	loop, err := c.newLoop(opts)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error {
		c.refreshLoop(ctx, opts.RefreshInterval)
		return nil
	})

	if opts.NightMarker != "" {
		w, err := store.NewFileWatcher(opts.NightMarker, func(bool) {
			c.scheduler.Post(func() { c.Refresh(catalog.TagNight) })
		}, c.logger)
		if err != nil {
			c.logger.Warn("failed to create marker watcher", "path", opts.NightMarker, "error", err)
		} else if err := w.Start(); err != nil {
			c.logger.Warn("failed to watch marker", "path", opts.NightMarker, "error", err)
		} else {
			g.Go(func() error {
				<-ctx.Done()
				return w.Stop()
			})
		}
	}

	if opts.RevealDelay >= 0 {
		t := time.AfterFunc(opts.RevealDelay, func() {
			c.scheduler.Post(c.Show)
		})
		g.Go(func() error {
			<-ctx.Done()
			t.Stop()
			return nil
		})
	}

	return g.Wait()
}

func (c *Controller) newLoop(opts ServeOptions) (*mux.Loop, error) {
	var handlers mux.Handlers
	handlers.Request = func(payload []byte) {
		if !ipc.IsToggle(payload) {
			c.logger.Debug("ignored ipc payload", "bytes", len(payload))
			return
		}
		c.scheduler.Post(c.Toggle)
	}

	mopts := mux.Options{
		Listener:       opts.Listener,
		PollTimeout:    opts.PollTimeout,
		RescanInterval: opts.RescanInterval,
		Logger:         c.logger,
	}

	if opts.Registry != nil {
		det, err := combo.NewDetector(opts.Combos, opts.Cooldown, func(combo.Definition) {
			c.scheduler.Post(c.Toggle)
		}, combo.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		handlers.Key = func(_ devices.Entry, ev evdev.Event) {
			det.HandleKey(ev.Code, ev.Value)
		}
		handlers.Disconnect = func(devices.Entry) { det.Reset() }
		mopts.Registry = opts.Registry
	}

	mopts.Handlers = handlers
	return mux.New(mopts), nil
}

// refreshLoop re-reads every status item while the overlay is visible.
func (c *Controller) refreshLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.scheduler.Post(func() {
				if c.visible {
					c.Refresh("")
				}
			})
		}
	}
}
