package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/mosoverlay/internal/audio"
	"github.com/jmylchreest/mosoverlay/internal/catalog"
	"github.com/jmylchreest/mosoverlay/internal/config"
	"github.com/jmylchreest/mosoverlay/internal/devices"
	"github.com/jmylchreest/mosoverlay/internal/dispatch"
	"github.com/jmylchreest/mosoverlay/internal/evdev"
	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/menu"
	"github.com/jmylchreest/mosoverlay/internal/process"
	"github.com/jmylchreest/mosoverlay/internal/status"
	"github.com/jmylchreest/mosoverlay/internal/store"
)

// Session is everything a frontend needs besides its own View and
// Scheduler.
type Session struct {
	Config *config.Config
	Menu   *menu.Menu
	Runner *process.Runner
	Apps   *store.AppRegistry
	Sounds *audio.Manager
	Serve  ServeOptions
	Logger *slog.Logger

	server   *ipc.Server
	registry *devices.Registry
}

// NewSession claims the toggle socket and prepares the menu. It fails
// with ipc.ErrAlreadyRunning when another overlay owns the socket.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	runner := process.NewRunner(logger)
	readers := status.NewReaders(status.Options{
		Exec:        runner,
		Timeout:     cfg.Menu.StatusTimeout.Duration(),
		NightMarker: cfg.Paths.NightLightMarker,
		PulseServer: cfg.Paths.PulseServer,
		Logger:      logger,
	})

	policy := menu.Clamp
	if cfg.Menu.Wrap {
		policy = menu.Wrap
	}
	m, err := menu.New(catalog.Build(catalog.Options{
		Status:          readers,
		NightMarker:     readers.NightMarker(),
		CloseAppsScript: cfg.Paths.CloseAppsScript,
		SettingsHelper:  cfg.Paths.SettingsHelper,
		PulseServer:     readers.PulseServer(),
	}), policy)
	if err != nil {
		return nil, err
	}

	server, err := ipc.Listen(cfg.Socket.Path, logger)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Config: cfg,
		Menu:   m,
		Runner: runner,
		Apps:   store.NewAppRegistry(cfg.Paths.OpenAppsFile),
		Sounds: audio.NewManager(cfg, logger),
		Logger: logger,
		server: server,
		Serve: ServeOptions{
			Listener:        server,
			PollTimeout:     cfg.Daemon.PollTimeout.Duration(),
			RescanInterval:  cfg.Daemon.RescanInterval.Duration(),
			RefreshInterval: cfg.Menu.RefreshInterval.Duration(),
			NightMarker:     readers.NightMarker(),
			RevealDelay:     cfg.Menu.RevealDelay.Duration(),
		},
	}

	if cfg.Overlay.ListenDevices {
		if err := s.listenDevices(); err != nil {
			_ = server.Close()
			return nil, err
		}
	}

	s.Sounds.Preload()
	return s, nil
}

func (s *Session) listenDevices() error {
	defs, err := s.Config.ComboDefinitions()
	if err != nil {
		return fmt.Errorf("invalid combos: %w", err)
	}
	s.registry = devices.NewRegistry(devices.Options{
		Source: devices.EvdevSource{Pattern: evdev.DefaultGlob},
		Logger: s.Logger,
	})
	s.Serve.Registry = s.registry
	s.Serve.Combos = defs
	s.Serve.Cooldown = s.Config.Daemon.Cooldown.Duration()
	return nil
}

// Hidden makes the overlay wait for the first toggle instead of showing
// itself after the reveal delay.
func (s *Session) Hidden() {
	s.Serve.RevealDelay = -1
}

// Controller wires a controller for view, posting work through sched.
func (s *Session) Controller(view View, sched dispatch.Scheduler) *Controller {
	return New(Options{
		Menu:           s.Menu,
		View:           view,
		Scheduler:      sched,
		Runner:         s.Runner,
		Apps:           s.Apps,
		Sounds:         s.Sounds,
		CommandTimeout: s.Config.Menu.CommandTimeout.Duration(),
		Logger:         s.Logger,
	})
}

// Close releases the socket, the devices and the audio output.
func (s *Session) Close() error {
	var errs []error
	if s.server != nil {
		errs = append(errs, s.server.Close())
	}
	if s.registry != nil {
		s.registry.Close()
	}
	s.Sounds.Close()
	return errors.Join(errs...)
}
