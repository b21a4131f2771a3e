package app

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitview/internal/config"
	"github.com/Faultbox/orbitview/internal/engine/input"
)

type fakeSurface struct {
	frames [][]input.Event
	swaps  int
}

func (s *fakeSurface) PollEvents() []input.Event {
	if len(s.frames) == 0 {
		return []input.Event{{Type: input.EventQuit}}
	}
	e := s.frames[0]
	s.frames = s.frames[1:]
	return e
}

func (s *fakeSurface) SwapBuffers() { s.swaps++ }

type fakeCore struct {
	ticks    []input.Tick
	scenes   []string
	resized  [][2]int32
	shots    int
	sceneErr error
	tickErr  error
}

func (c *fakeCore) SwitchScene(id string) error {
	c.scenes = append(c.scenes, id)
	return c.sceneErr
}

func (c *fakeCore) Tick(t input.Tick) error {
	c.ticks = append(c.ticks, t)
	return c.tickErr
}

func (c *fakeCore) Resize(w, h int32) { c.resized = append(c.resized, [2]int32{w, h}) }

func (c *fakeCore) Screenshot() (string, error) {
	c.shots++
	return "shot.png", nil
}

func TestRunUntilQuit(t *testing.T) {
	s := &fakeSurface{frames: [][]input.Event{
		nil,
		{{Type: input.EventKeyDown, Key: input.Key1}},
		{{Type: input.EventWindowResize, Width: 800, Height: 600}, {Type: input.EventKeyDown, Key: input.KeyF12}},
	}}
	c := &fakeCore{}

	require.NoError(t, New(s, c, 0, zap.NewNop()).Run())

	assert.Len(t, c.ticks, 3)
	assert.Equal(t, 3, s.swaps)
	assert.Equal(t, []string{"room"}, c.scenes)
	assert.Equal(t, [][2]int32{{800, 600}}, c.resized)
	assert.Equal(t, 1, c.shots)
}

func TestEscapeStopsBeforeTick(t *testing.T) {
	s := &fakeSurface{frames: [][]input.Event{{{Type: input.EventKeyDown, Key: input.KeyEscape}}}}
	c := &fakeCore{}

	require.NoError(t, New(s, c, 0, zap.NewNop()).Run())
	assert.Empty(t, c.ticks)
	assert.Zero(t, s.swaps)
}

func TestOrbitDragReachesCore(t *testing.T) {
	s := &fakeSurface{frames: [][]input.Event{
		{
			{Type: input.EventKeyDown, Key: input.KeyAlt},
			{Type: input.EventMouseDown, Button: input.ButtonLeft, MouseX: 10, MouseY: 10},
		},
		{{Type: input.EventMouseMove, MouseX: 30, MouseY: 5}},
	}}
	c := &fakeCore{}

	require.NoError(t, New(s, c, 0, zap.NewNop()).Run())
	require.Len(t, c.ticks, 2)
	cur := c.ticks[1].Cursor
	assert.Equal(t, input.ModeOrbit, cur.Mode)
	assert.Equal(t, -20, cur.DX)
	assert.Equal(t, 5, cur.DY)
}

func TestSceneErrorDoesNotStopLoop(t *testing.T) {
	s := &fakeSurface{frames: [][]input.Event{{{Type: input.EventKeyDown, Key: input.Key2}}, nil}}
	c := &fakeCore{sceneErr: errors.New("boom")}

	require.NoError(t, New(s, c, 0, zap.NewNop()).Run())
	assert.Len(t, c.ticks, 2)
}

func TestTickErrorStopsLoop(t *testing.T) {
	s := &fakeSurface{frames: [][]input.Event{nil, nil}}
	c := &fakeCore{tickErr: errors.New("not started")}

	err := New(s, c, 0, zap.NewNop()).Run()
	assert.ErrorIs(t, err, c.tickErr)
	assert.Len(t, c.ticks, 1)
}

func TestFPSLimit(t *testing.T) {
	a := New(&fakeSurface{}, &fakeCore{}, 50, zap.NewNop())
	assert.Equal(t, 20*time.Millisecond, a.frameTime)
}

func TestViewerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Root = "/data"
	cfg.Debug.Lines = false
	cfg.Graphics.MaxTextureSize = 1024

	vc := ViewerConfig(cfg)
	assert.Equal(t, int32(1280), vc.Width)
	assert.Equal(t, "/data", vc.DataRoot)
	assert.Equal(t, "scenes.yaml", vc.Manifest)
	assert.Equal(t, "void", vc.StartScene)
	assert.False(t, vc.Render.DebugLines)
	assert.Equal(t, 1024, vc.MaxTextureSize)
	assert.Equal(t, float32(45), vc.Camera.FovYDegrees)
}
