package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/mosoverlay/internal/combo"
	"github.com/jmylchreest/mosoverlay/internal/config"
	"github.com/jmylchreest/mosoverlay/internal/devices"
	"github.com/jmylchreest/mosoverlay/internal/evdev"
	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/mux"
	"github.com/jmylchreest/mosoverlay/internal/process"
	"github.com/jmylchreest/mosoverlay/internal/store"
)

// Spawner starts a detached process.
type Spawner interface {
	Spawn(c process.Command) error
}

// Options configures a Daemon.
type Options struct {
	Config *config.Config
	// ConfigPath is watched for changes when set.
	ConfigPath string
	// Source defaults to the /dev/input event nodes.
	Source devices.Source
	// Toggle defaults to ipc.SendToggle.
	Toggle  func(socketPath string) error
	Spawner Spawner
	// Notifier may be nil.
	Notifier   *Notifier
	SpawnGrace time.Duration
	Logger     *slog.Logger
}

// Daemon turns combos on any attached device into overlay toggles.
type Daemon struct {
	logger     *slog.Logger
	registry   *devices.Registry
	loop       *mux.Loop
	toggle     func(string) error
	spawner    Spawner
	notifier   *Notifier
	tracker    *OverlayTracker
	configPath string
	now        func() time.Time

	mu   sync.Mutex
	cfg  *config.Config
	defs []combo.Definition
	det  *combo.Detector
}

// New creates a daemon from a validated configuration.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, errors.New("daemon: config is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Source == nil {
		opts.Source = devices.EvdevSource{Pattern: evdev.DefaultGlob}
	}
	if opts.Toggle == nil {
		opts.Toggle = ipc.SendToggle
	}
	if opts.Spawner == nil {
		opts.Spawner = process.NewRunner(opts.Logger)
	}

	d := &Daemon{
		logger:     opts.Logger,
		toggle:     opts.Toggle,
		spawner:    opts.Spawner,
		notifier:   opts.Notifier,
		tracker:    NewOverlayTracker(opts.SpawnGrace),
		configPath: opts.ConfigPath,
		now:        time.Now,
	}
	if err := d.apply(opts.Config); err != nil {
		return nil, err
	}

	cfg := opts.Config
	d.registry = devices.NewRegistry(devices.Options{
		Source: opts.Source,
		Grab:   cfg.Daemon.GrabDevices,
		Logger: d.logger,
	})
	d.loop = mux.New(mux.Options{
		Registry: d.registry,
		Handlers: mux.Handlers{
			Key:        d.handleKey,
			Disconnect: d.handleDisconnect,
		},
		PollTimeout:    cfg.Daemon.PollTimeout.Duration(),
		RescanInterval: cfg.Daemon.RescanInterval.Duration(),
		Logger:         d.logger,
	})
	return d, nil
}

// Combos returns the active combo definitions.
func (d *Daemon) Combos() []combo.Definition {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.defs
}

// Stats returns the overlay tracker's statistics.
func (d *Daemon) Stats() Stats {
	return d.tracker.Stats()
}

// Run listens until ctx is cancelled, then releases every device.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.registry.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.loop.Run(ctx) })

	if d.configPath != "" {
		w, err := store.NewFileWatcher(d.configPath, func(exists bool) {
			if exists {
				d.reloadFromFile()
			}
		}, d.logger)
		if err != nil {
			d.logger.Warn("failed to create config watcher", "error", err)
		} else if err := w.Start(); err != nil {
			d.logger.Warn("failed to watch config", "path", d.configPath, "error", err)
		} else {
			g.Go(func() error {
				<-ctx.Done()
				return w.Stop()
			})
		}
	}

	err := g.Wait()
	s := d.tracker.Stats()
	d.logger.Info("daemon stopped", "toggles", s.Toggles, "spawns", s.Spawns, "failures", s.Failures)
	return err
}

// Reload swaps in the combos, cooldown, socket and overlay command from
// cfg. Device grabbing and loop timings keep their startup values.
func (d *Daemon) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return d.apply(cfg)
}

func (d *Daemon) apply(cfg *config.Config) error {
	defs, err := cfg.ComboDefinitions()
	if err != nil {
		return fmt.Errorf("invalid combos: %w", err)
	}
	det, err := combo.NewDetector(defs, cfg.Daemon.Cooldown.Duration(), d.fire, combo.WithLogger(d.logger))
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.cfg = cfg
	d.defs = defs
	d.det = det
	d.mu.Unlock()
	return nil
}

func (d *Daemon) reloadFromFile() {
	cfg, err := config.LoadConfig(d.configPath)
	if err == nil {
		err = d.apply(cfg)
	}
	if err != nil {
		d.logger.Warn("config reload rejected", "error", err)
		d.notifier.NotifyConfigError(err)
		return
	}
	d.logger.Info("config reloaded", "combos", len(d.Combos()))
}

// handleKey runs on the loop goroutine.
func (d *Daemon) handleKey(entry devices.Entry, ev evdev.Event) {
	d.mu.Lock()
	det := d.det
	debug := d.cfg.Daemon.DebugKeys
	d.mu.Unlock()

	if debug {
		d.logger.Debug("key event", "device", entry.Name(), "code", evdev.CodeName(ev.Code), "value", ev.Value)
	}
	det.HandleKey(ev.Code, ev.Value)
}

func (d *Daemon) handleDisconnect(entry devices.Entry) {
	d.mu.Lock()
	det := d.det
	d.mu.Unlock()
	det.Reset()
}

// fire asks the running overlay to toggle, starting one if none listens.
func (d *Daemon) fire(combo.Definition) {
	d.mu.Lock()
	socket := d.cfg.Socket.Path
	cmd := process.Command(d.cfg.OverlayCommand())
	d.mu.Unlock()

	err := d.toggle(socket)
	now := d.now()
	if err == nil {
		d.tracker.Toggled(now)
		return
	}
	if !errors.Is(err, ipc.ErrNotRunning) {
		d.logger.Warn("failed to send toggle", "socket", socket, "error", err)
		return
	}
	if !d.tracker.ShouldSpawn(now) {
		d.logger.Debug("overlay still starting")
		return
	}

	d.logger.Info("overlay not running, starting it", "command", cmd.String())
	if err := d.spawner.Spawn(cmd); err != nil {
		d.tracker.SpawnFailed(now)
		d.logger.Error("failed to start overlay", "error", err)
		d.notifier.NotifySpawnFailed(err)
		return
	}
	d.tracker.Spawned(now)
}
