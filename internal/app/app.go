// Package app implements the frame loop that connects the window to the
// viewer core.
package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/config"
	"github.com/Faultbox/orbitview/internal/engine/camera"
	"github.com/Faultbox/orbitview/internal/engine/input"
	"github.com/Faultbox/orbitview/internal/engine/render"
	"github.com/Faultbox/orbitview/internal/viewer"
)

// Surface is the presentation side of a window.
type Surface interface {
	PollEvents() []input.Event
	SwapBuffers()
}

// Core is the subset of the viewer the loop drives.
type Core interface {
	SwitchScene(id string) error
	Tick(t input.Tick) error
	Resize(width, height int32)
	Screenshot() (string, error)
}

// App runs frames until a quit request.
type App struct {
	surface Surface
	core    Core
	ctrl    *input.Controller
	log     *zap.Logger

	frameTime time.Duration // zero means uncapped
	running   bool
}

// New creates an app. fpsLimit <= 0 leaves the frame rate to vsync.
func New(surface Surface, core Core, fpsLimit int, log *zap.Logger) *App {
	a := &App{
		surface: surface,
		core:    core,
		ctrl:    input.NewController(),
		log:     log,
		running: true,
	}
	if fpsLimit > 0 {
		a.frameTime = time.Second / time.Duration(fpsLimit)
	}
	return a
}

// Run steps frames until a quit request or a core error.
func (a *App) Run() error {

	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for a.running {
		start := time.Now()

		if err := a.Step(); err != nil {
			return err
		}

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if a.frameTime > 0 {
			if rest := a.frameTime - time.Since(start); rest > 0 {
				time.Sleep(rest)
			}
		}
	}

	return nil
}

// Step processes one frame: events, requests, tick, present.
func (a *App) Step() error {
	for _, e := range a.surface.PollEvents() {
		a.ctrl.Handle(e)
	}

	if w, h, ok := a.ctrl.Resize(); ok {
		a.core.Resize(int32(w), int32(h))
	}

	for _, r := range a.ctrl.Requests() {
		a.handle(r)
	}
	if !a.running {
		return nil
	}

	if err := a.core.Tick(a.ctrl.Tick()); err != nil {
		return err
	}
	a.surface.SwapBuffers()
	return nil
}

func (a *App) handle(r input.Request) {
	switch r.Command {
	case input.CommandQuit:
		a.running = false
	case input.CommandScreenshot:
		if _, err := a.core.Screenshot(); err != nil {
			a.log.Error("screenshot failed", zap.Error(err))
		}
	case input.CommandScene:
		if err := a.core.SwitchScene(r.Scene); err != nil {
			a.log.Error("scene switch failed", zap.String("scene", r.Scene), zap.Error(err))
		}
	}
}

// Running reports whether the loop continues after the current frame.
func (a *App) Running() bool {
	return a.running
}

// ViewerConfig maps the file configuration onto the viewer core.
func ViewerConfig(cfg *config.Config) viewer.Config {
	opts := render.DefaultOptions()
	opts.DebugLines = cfg.Debug.Lines

	return viewer.Config{
		Width:  int32(cfg.Graphics.Width),
		Height: int32(cfg.Graphics.Height),
		Camera: camera.Config{
			FovYDegrees:      cfg.Camera.FovDegrees,
			Near:             cfg.Camera.Near,
			Far:              cfg.Camera.Far,
			OrbitSensitivity: cfg.Camera.OrbitSensitivity,
			MinRadius:        cfg.Camera.MinRadius,
		},
		Render:         opts,
		DataRoot:       cfg.Data.Root,
		Manifest:       cfg.Data.Manifest,
		ShaderDir:      cfg.Data.ShaderDir,
		StartScene:     cfg.Data.StartScene,
		Watch:          cfg.Data.Watch,
		MaxTextureSize: cfg.Graphics.MaxTextureSize,
		ScreenshotDir:  cfg.Debug.ScreenshotDir,
	}
}
