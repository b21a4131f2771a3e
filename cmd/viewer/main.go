// Package main is the entry point for the orbitview scene viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/app"
	"github.com/Faultbox/orbitview/internal/config"
	"github.com/Faultbox/orbitview/internal/engine/gpu/gldevice"
	"github.com/Faultbox/orbitview/internal/engine/window"
	"github.com/Faultbox/orbitview/internal/logger"
	"github.com/Faultbox/orbitview/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== orbitview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

func run(cfg *config.Config) error {
	win, err := window.New(window.Config{
		Title:      "orbitview",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, logger.Named("window"))
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Close()

	// The device needs the GL context created by the window.
	dev, err := gldevice.New(logger.Named("gl"))
	if err != nil {
		return err
	}
	defer dev.Close()

	vc := app.ViewerConfig(cfg)
	w, h := win.GetSize()
	vc.Width, vc.Height = int32(w), int32(h)

	v := viewer.New(dev, vc, logger.Named("viewer"))
	if err := v.Begin(); err != nil {
		return fmt.Errorf("failed to start viewer: %w", err)
	}
	defer v.Shutdown()

	return app.New(win, v, cfg.Graphics.FPSLimit, logger.Named("app")).Run()
}
