package viewer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/engine/camera"
	"github.com/Faultbox/orbitview/internal/engine/gpu"
	"github.com/Faultbox/orbitview/internal/engine/gpu/gputest"
	"github.com/Faultbox/orbitview/internal/engine/input"
	"github.com/Faultbox/orbitview/internal/engine/render"
	"github.com/Faultbox/orbitview/internal/engine/scene"
)

const manifest = `
scenes:
  room:
    mesh: room.obj
    material: room.mtl
    camera:
      pitch: 0.5
      yaw: 0.25
      radius: 20
      focus: [0, 1, 0]
  broken:
    mesh: missing.obj
    material: room.mtl
`

const roomMTL = `
newmtl solid
Kd 1 1 1
`

const roomOBJ = `
v 0 0 0
v 1 0 0
v 0 1 0
g wall
usemtl solid
f 1 2 3
`

func dataDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range map[string]string{
		"scenes.yaml": manifest,
		"room.mtl":    roomMTL,
		"room.obj":    roomOBJ,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	}
	return root
}

func config(root string) Config {
	return Config{
		Width:         320,
		Height:        240,
		Camera:        camera.DefaultConfig(),
		Render:        render.DefaultOptions(),
		DataRoot:      root,
		Manifest:      "scenes.yaml",
		StartScene:    "room",
		ScreenshotDir: filepath.Join(root, "shots"),
	}
}

func begin(t *testing.T, cfg Config) (*Viewer, *gputest.Recorder) {
	t.Helper()
	dev := gputest.NewRecorder()
	v := New(dev, cfg, zap.NewNop())
	require.NoError(t, v.Begin())
	t.Cleanup(v.Shutdown)
	return v, dev
}

func TestEntryPointsRequireBegin(t *testing.T) {
	v := New(gputest.NewRecorder(), config(t.TempDir()), nil)
	assert.ErrorIs(t, v.SwitchScene("room"), ErrNotStarted)
	assert.ErrorIs(t, v.Tick(input.Tick{}), ErrNotStarted)
	assert.ErrorIs(t, v.Reload(), ErrNotStarted)
	_, err := v.Screenshot()
	assert.ErrorIs(t, err, ErrNotStarted)
	v.Shutdown()
}

func TestBeginLoadsStartScene(t *testing.T) {
	v, _ := begin(t, config(dataDir(t)))
	require.NotNil(t, v.Scene())
	assert.Equal(t, "room", v.Scene().ID)
	assert.InDelta(t, 20, v.Camera().Radius, 1e-6)
}

func TestBeginFallsBackToVoid(t *testing.T) {
	cfg := config(dataDir(t))
	cfg.StartScene = "broken"
	v, _ := begin(t, cfg)
	assert.Equal(t, scene.VoidID, v.Scene().ID)
	assert.Equal(t, scene.VoidPreset.Radius, v.Camera().Radius)
}

func TestBeginWithoutManifest(t *testing.T) {
	cfg := config(t.TempDir())
	cfg.StartScene = ""
	v, _ := begin(t, cfg)
	assert.Equal(t, scene.VoidID, v.Scene().ID)
}

func TestBeginFailsOnShaderError(t *testing.T) {
	dev := gputest.NewRecorder()
	dev.FailCompile = true
	v := New(dev, config(dataDir(t)), nil)

	err := v.Begin()
	var de *gpu.DeviceError
	assert.True(t, errors.As(err, &de))
	assert.ErrorIs(t, v.SwitchScene("room"), ErrNotStarted)
}

func TestTickUpdatesCameraAndRenders(t *testing.T) {
	v, dev := begin(t, config(dataDir(t)))
	yaw := v.Camera().Yaw
	dev.Reset()

	require.NoError(t, v.Tick(input.Tick{Cursor: input.Cursor{DX: 10, Mode: input.ModeOrbit}}))

	assert.NotEqual(t, yaw, v.Camera().Yaw)
	targets := dev.Filter("BindRenderTarget")
	require.Len(t, targets, 2)
	assert.Equal(t, gpu.DefaultTarget, targets[1].Args[0])
}

func TestSwitchToCurrentSceneAllocatesNothing(t *testing.T) {
	v, dev := begin(t, config(dataDir(t)))
	before := dev.TotalAllocations()
	v.Camera().Zoom(40)

	require.NoError(t, v.SwitchScene("room"))
	assert.Equal(t, before, dev.TotalAllocations())
	assert.InDelta(t, 20, v.Camera().Radius, 1e-6)
}

func TestSwitchFailureKeepsScene(t *testing.T) {
	v, _ := begin(t, config(dataDir(t)))
	assert.Error(t, v.SwitchScene("broken"))
	assert.ErrorIs(t, v.SwitchScene("nope"), scene.ErrUnknownScene)
	assert.Equal(t, "room", v.Scene().ID)
}

func TestResize(t *testing.T) {
	v, dev := begin(t, config(dataDir(t)))
	dev.Reset()
	v.Resize(640, 320)
	assert.InDelta(t, 2, v.Camera().Aspect, 1e-6)
	assert.Len(t, dev.Filter("ResizeRenderTarget"), 2)

	dev.Reset()
	v.Resize(0, 100)
	assert.Empty(t, dev.Calls)
}

func TestScreenshot(t *testing.T) {
	cfg := config(dataDir(t))
	v, _ := begin(t, cfg)
	require.NoError(t, v.Tick(input.Tick{}))

	path, err := v.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, cfg.ScreenshotDir, filepath.Dir(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestShutdownReleasesEverything(t *testing.T) {
	dev := gputest.NewRecorder()
	v := New(dev, config(dataDir(t)), nil)
	require.NoError(t, v.Begin())
	v.Shutdown()

	for _, kind := range []string{"program", "texture", "cubemap", "vertexarray", "target"} {
		assert.Zero(t, dev.Live(kind), kind)
	}
	assert.ErrorIs(t, v.Tick(input.Tick{}), ErrNotStarted)
}

func TestWatchReloadsChangedScene(t *testing.T) {
	root := dataDir(t)
	cfg := config(root)
	cfg.Watch = true
	v, _ := begin(t, cfg)
	require.Len(t, v.Scene().Opaque, 1)

	changed := roomOBJ + "g second\nusemtl solid\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "room.obj"), []byte(changed), 0o644))

	assert.Eventually(t, func() bool {
		if err := v.Tick(input.Tick{}); err != nil {
			return false
		}
		return len(v.Scene().Opaque) == 2
	}, 5*time.Second, 20*time.Millisecond)
}
