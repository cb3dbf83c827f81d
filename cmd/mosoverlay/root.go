// Package main provides the CLI entrypoint for mosoverlay.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/mosoverlay/internal/app"
	"github.com/jmylchreest/mosoverlay/internal/config"
	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/overlay"
	"github.com/jmylchreest/mosoverlay/internal/tui"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	rootOpts struct {
		toggle   bool
		frontend string
		hidden   bool
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mosoverlay",
	Short: "Quick settings overlay for kiosk desktops",
	Long: `mosoverlay is a full-screen quick settings menu for appliance-like
Linux desktops.

Running mosoverlay without a subcommand starts the overlay, which listens
for toggle requests on a Unix socket. mosoverlayd sends those requests
when it sees the configured combo on any keyboard or gamepad.

Use --toggle to show or hide a running overlay from a script.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: runOverlay,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/mosoverlay/config.toml)")

	rootCmd.Flags().BoolVarP(&rootOpts.toggle, "toggle", "t", false,
		"Toggle a running overlay and exit")
	rootCmd.Flags().StringVar(&rootOpts.frontend, "frontend", "",
		"Presentation: gtk or tui (default from config)")
	rootCmd.Flags().BoolVar(&rootOpts.hidden, "hidden", false,
		"Start hidden and wait for the first toggle")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	if rootOpts.toggle {
		return ipc.SendToggle(cfg.Socket.Path)
	}

	frontend, err := resolveFrontend(rootOpts.frontend, cfg.Overlay.Frontend, os.Getenv)
	if err != nil {
		return err
	}

	s, err := app.NewSession(cfg, logger)
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		logger.Info("overlay already running, toggling it")
		return ipc.SendToggle(cfg.Socket.Path)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("failed to close session", "error", err)
		}
	}()
	if rootOpts.hidden {
		s.Hidden()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting overlay", "frontend", frontend, "socket", cfg.Socket.Path)
	if frontend == config.FrontendTUI {
		return tui.Run(ctx, s)
	}
	return overlay.Run(ctx, s)
}

// resolveFrontend picks the presentation. The flag wins over the config,
// and gtk falls back to tui when there is no display to connect to.
func resolveFrontend(flag, configured string, getenv func(string) string) (config.Frontend, error) {
	name := configured
	if flag != "" {
		name = flag
	}

	switch f := config.Frontend(name); f {
	case config.FrontendTUI:
		return f, nil
	case config.FrontendGTK:
		if getenv("WAYLAND_DISPLAY") == "" && getenv("DISPLAY") == "" {
			slog.Warn("no display available, using the terminal frontend")
			return config.FrontendTUI, nil
		}
		return f, nil
	default:
		return "", fmt.Errorf("invalid frontend %q, must be %q or %q", name, config.FrontendGTK, config.FrontendTUI)
	}
}
