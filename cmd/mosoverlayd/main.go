// Package main is the entry point for the mosoverlayd combo daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/mosoverlay/internal/config"
	"github.com/jmylchreest/mosoverlay/internal/daemon"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/mosoverlay/config.toml)")
	debug := flag.Bool("debug", false, "Log every key event")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("mosoverlayd version", version)
		os.Exit(0)
	}

	if err := run(*configPath, *debug); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool) error {
	if configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Daemon.DebugKeys = true
	}

	level := slog.LevelInfo
	if cfg.Daemon.DebugKeys {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("starting mosoverlayd", "version", version, "config", configPath)

	var notifier *daemon.Notifier
	if cfg.Daemon.Notify {
		sender, err := daemon.NewDBusSender()
		if err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			defer func() { _ = sender.Close() }()
			notifier = daemon.NewNotifier(sender, logger)
		}
	}

	d, err := daemon.New(daemon.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	for _, def := range d.Combos() {
		logger.Info("combo armed", "label", def.Label, "keys", def.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Run(ctx) })
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
