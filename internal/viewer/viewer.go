// Package viewer is the core entry point: it owns the camera, the render
// context and the scene manager, and advances them one tick at a time.
package viewer

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/assets"
	"github.com/Faultbox/orbitview/internal/engine/camera"
	"github.com/Faultbox/orbitview/internal/engine/debug"
	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/input"
	"github.com/Faultbox/orbitview/internal/engine/render"
	"github.com/Faultbox/orbitview/internal/engine/scene"
	"github.com/Faultbox/orbitview/internal/engine/shaders"
)

// ErrNotStarted is returned by entry points called before Begin.
var ErrNotStarted = errors.New("viewer not started")

// Config holds everything the viewer needs besides the device.
type Config struct {
	Width, Height int32
	Camera        camera.Config
	Render        render.Options

	DataRoot   string
	Manifest   string // relative to DataRoot
	ShaderDir  string // empty uses embedded sources
	StartScene string
	Watch      bool

	MaxTextureSize int
	ScreenshotDir  string
}

// Viewer drives one window's worth of rendering.
type Viewer struct {
	cfg Config
	dev gpu.Device
	log *zap.Logger

	cam     *camera.Trackball
	files   *assets.Manager
	scenes  *scene.Manager
	ctx     *render.Context
	watcher *assets.Watcher
	shots   *debug.ScreenshotCapture

	started bool
}

// New creates a viewer. Nothing touches the device until Begin.
func New(dev gpu.Device, cfg Config, log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.StartScene == "" {
		cfg.StartScene = scene.VoidID
	}
	return &Viewer{cfg: cfg, dev: dev, log: log}
}

// Begin compiles the programs, loads the manifest and switches to the start
// scene. Program failures are fatal; a start scene that fails to load falls
// back to the void scene.
func (v *Viewer) Begin() error {
	if v.started {
		return nil
	}

	v.files = assets.NewManager(assets.DirResolver{Root: v.cfg.DataRoot})
	manifest, err := v.loadManifest()
	if err != nil {
		return err
	}

	aspect := float32(max(v.cfg.Width, 1)) / float32(max(v.cfg.Height, 1))
	v.cam = camera.NewTrackball(v.cfg.Camera, aspect, scene.VoidPreset)

	v.ctx, err = render.NewContext(v.dev, shaders.New(v.cfg.ShaderDir), v.cfg.Width, v.cfg.Height, v.cfg.Render, v.log.Named("render"))
	if err != nil {
		return err
	}

	v.scenes = scene.NewManager(v.dev, v.files, manifest, v.cam, v.log.Named("scene"), scene.Options{
		MaxTextureSize: v.cfg.MaxTextureSize,
	})
	v.shots = debug.NewScreenshotCapture(v.cfg.ScreenshotDir, "orbitview")

	if v.cfg.Watch {
		w, err := assets.Watch(v.cfg.DataRoot, v.files, v.log.Named("watch"))
		if err != nil {
			v.log.Warn("file watching disabled", zap.String("root", v.cfg.DataRoot), zap.Error(err))
		} else {
			v.watcher = w
		}
	}

	v.started = true
	if err := v.SwitchScene(v.cfg.StartScene); err != nil {
		v.log.Warn("start scene unavailable, showing void", zap.String("scene", v.cfg.StartScene), zap.Error(err))
		if err := v.SwitchScene(scene.VoidID); err != nil {
			return err
		}
	}
	return nil
}

// loadManifest reads the scene declarations. A missing manifest leaves only
// the void scene.
func (v *Viewer) loadManifest() (*scene.Manifest, error) {
	if v.cfg.Manifest == "" {
		return &scene.Manifest{}, nil
	}
	data, err := v.files.Load(v.cfg.Manifest)
	if errors.Is(err, fs.ErrNotExist) {
		v.log.Warn("scene manifest not found", zap.String("path", v.cfg.Manifest))
		return &scene.Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := scene.ParseManifest(v.cfg.Manifest, data)
	if err != nil {
		return nil, err
	}
	v.log.Info("scene manifest loaded", zap.Strings("scenes", m.IDs()))
	return m, nil
}

// SwitchScene makes id the active scene. On failure the previous scene
// stays active.
func (v *Viewer) SwitchScene(id string) error {
	if !v.started {
		return ErrNotStarted
	}
	if err := v.scenes.SwitchScene(id); err != nil {
		return err
	}
	v.track()
	return nil
}

// Reload rebuilds the active scene from disk.
func (v *Viewer) Reload() error {
	if !v.started {
		return ErrNotStarted
	}
	if err := v.scenes.Reload(); err != nil {
		return err
	}
	v.track()
	return nil
}

func (v *Viewer) track() {
	if v.watcher == nil {
		return
	}
	if s := v.scenes.Current(); s != nil {
		v.watcher.Track(s.Files)
	}
}

// Tick applies one input record to the camera and renders a frame.
func (v *Viewer) Tick(t input.Tick) error {
	if !v.started {
		return ErrNotStarted
	}
	v.drainReloads()

	v.cam.Update(t)

	s := v.scenes.Current()
	f := render.Frame{Camera: v.cam, Scene: s}
	if sky, ok := v.scenes.Sky(s.ID); ok {
		f.Sky = &sky
	}
	v.ctx.Render(f)
	return nil
}

func (v *Viewer) drainReloads() {
	if v.watcher == nil {
		return
	}
	select {
	case path := <-v.watcher.Reloads():
		v.log.Info("scene file changed, reloading", zap.String("path", path))
		if err := v.Reload(); err != nil {
			v.log.Error("reload failed", zap.Error(err))
		}
	default:
	}
}

// Resize follows a window size change.
func (v *Viewer) Resize(width, height int32) {
	if !v.started || width <= 0 || height <= 0 {
		return
	}
	v.cam.SetAspect(float32(width) / float32(height))
	v.ctx.Resize(width, height)
}

// Screenshot writes the last rendered frame to a PNG and returns its path.
func (v *Viewer) Screenshot() (string, error) {
	if !v.started {
		return "", ErrNotStarted
	}
	pixels, w, h := v.ctx.ReadPixels()
	path, err := v.shots.CaptureFromPixels(pixels, int(w), int(h))
	if err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	v.log.Info("screenshot saved", zap.String("path", path))
	return path, nil
}

// Camera returns the trackball, or nil before Begin.
func (v *Viewer) Camera() *camera.Trackball {
	return v.cam
}

// Scene returns the active scene, or nil before Begin.
func (v *Viewer) Scene() *scene.Scene {
	if v.scenes == nil {
		return nil
	}
	return v.scenes.Current()
}

// Shutdown releases every device resource. The viewer can Begin again.
func (v *Viewer) Shutdown() {
	if !v.started {
		return
	}
	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			v.log.Warn("closing file watcher", zap.Error(err))
		}
		v.watcher = nil
	}
	v.scenes.Release()
	v.ctx.Release()
	v.files.Close()
	v.started = false
	v.log.Info("viewer shut down")
}
