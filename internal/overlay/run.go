package overlay

import (
	"context"
	"fmt"
	"os"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/mosoverlay/internal/app"
	"github.com/jmylchreest/mosoverlay/internal/config"
	"github.com/jmylchreest/mosoverlay/internal/theme"
)

const appID = "io.github.jmylchreest.mosoverlay"

// Scheduler posts work to the GTK main loop.
type Scheduler struct{}

// Post runs fn on the main loop once it is idle.
func (Scheduler) Post(fn func()) {
	glib.IdleAdd(fn)
}

// Run starts the GTK application and blocks until it quits or ctx is
// cancelled.
func Run(ctx context.Context, s *app.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := s.Config
	logger := s.Logger

	a := adw.NewApplication(appID, gio.ApplicationNonUnique)

	var started bool
	serveErr := make(chan error, 1)
	a.ConnectActivate(func() {
		if started {
			return
		}
		started = true

		applyColorScheme(config.ColorScheme(cfg.Theme.ColorScheme))

		loader := theme.NewLoader(logger)
		if err := loader.Load(cfg.Theme.Name, cfg.Overlay.Scale); err != nil {
			logger.Warn("failed to load theme", "error", err)
		}
		loader.Apply(nil)

		win := NewWindow(&a.Application, s.Menu, Options{
			Title:    cfg.Overlay.Title,
			NerdFont: cfg.Overlay.NerdFont,
			Logger:   logger,
		})
		ctrl := s.Controller(win, Scheduler{})
		win.Bind(ctrl)

		go func() {
			err := ctrl.Serve(ctx, s.Serve)
			serveErr <- err
			if err != nil {
				logger.Error("overlay workers failed", "error", err)
				glib.IdleAdd(a.Quit)
			}
		}()

		logger.Info("overlay ready", "socket", cfg.Socket.Path)
	})

	go func() {
		<-ctx.Done()
		glib.IdleAdd(a.Quit)
	}()

	status := a.Run([]string{os.Args[0]})
	cancel()

	var err error
	if started {
		err = <-serveErr
	}
	if status != 0 {
		return fmt.Errorf("application exited with status %d", status)
	}
	return err
}

func applyColorScheme(scheme config.ColorScheme) {
	sm := adw.StyleManagerGetDefault()
	switch scheme {
	case config.ColorSchemeLight:
		sm.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		sm.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		sm.SetColorScheme(adw.ColorSchemeDefault)
	}
}
