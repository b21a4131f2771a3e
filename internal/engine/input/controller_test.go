package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControllerOrbitRequiresAlt(t *testing.T) {
	c := NewController()
	c.Handle(Event{Type: EventMouseMove, MouseX: 100, MouseY: 100})
	c.Tick()

	c.Handle(Event{Type: EventMouseDown, Button: ButtonLeft, MouseX: 100, MouseY: 100})
	c.Handle(Event{Type: EventMouseMove, MouseX: 110, MouseY: 95})
	tick := c.Tick()
	assert.Equal(t, ModeStagnant, tick.Cursor.Mode)
	assert.Equal(t, -10, tick.Cursor.DX)
	assert.Equal(t, 5, tick.Cursor.DY)

	c.Handle(Event{Type: EventKeyDown, Key: KeyAlt})
	c.Handle(Event{Type: EventMouseMove, MouseX: 120, MouseY: 95})
	tick = c.Tick()
	assert.Equal(t, ModeOrbit, tick.Cursor.Mode)
	assert.Equal(t, -10, tick.Cursor.DX)
	assert.Equal(t, 0, tick.Cursor.DY)
}

func TestControllerPan(t *testing.T) {
	c := NewController()
	c.Handle(Event{Type: EventKeyDown, Key: KeyAlt})
	c.Handle(Event{Type: EventMouseDown, Button: ButtonMiddle, MouseX: 50, MouseY: 50})
	c.Tick()
	c.Handle(Event{Type: EventMouseMove, MouseX: 40, MouseY: 60})
	tick := c.Tick()
	assert.Equal(t, ModePan, tick.Cursor.Mode)
	assert.Equal(t, 10, tick.Cursor.DX)
	assert.Equal(t, -10, tick.Cursor.DY)

	c.Handle(Event{Type: EventMouseUp, Button: ButtonMiddle, MouseX: 40, MouseY: 60})
	tick = c.Tick()
	assert.Equal(t, ModeStagnant, tick.Cursor.Mode)
	assert.Zero(t, tick.Cursor.DX)
}

func TestControllerWheelResetsEachTick(t *testing.T) {
	c := NewController()
	c.Handle(Event{Type: EventMouseWheel, Wheel: 1})
	c.Handle(Event{Type: EventMouseWheel, Wheel: 2})
	assert.Equal(t, 3*WheelScale, c.Tick().Cursor.Wheel)
	assert.Zero(t, c.Tick().Cursor.Wheel)
}

func TestControllerRequests(t *testing.T) {
	c := NewController()
	c.Handle(Event{Type: EventKeyDown, Key: Key1})
	c.Handle(Event{Type: EventKeyDown, Key: KeyF12})
	c.Handle(Event{Type: EventKeyDown, Key: KeyEscape})

	got := c.Requests()
	assert.Equal(t, []Request{
		{Command: CommandScene, Scene: "room"},
		{Command: CommandScreenshot},
		{Command: CommandQuit},
	}, got)
	assert.Empty(t, c.Requests())
}

func TestControllerResize(t *testing.T) {
	c := NewController()
	_, _, ok := c.Resize()
	assert.False(t, ok)

	c.Handle(Event{Type: EventWindowResize, Width: 800, Height: 600})
	w, h, ok := c.Resize()
	assert.True(t, ok)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestCursorModeString(t *testing.T) {
	assert.Equal(t, "orbit", ModeOrbit.String())
	assert.Equal(t, "pan", ModePan.String())
	assert.Equal(t, "stagnant", ModeStagnant.String())
}

func TestWheelNotchIsOneDesktopDelta(t *testing.T) {
	c := NewController()
	c.Handle(Event{Type: EventMouseWheel, Wheel: -1})
	assert.Equal(t, -120, c.Tick().Cursor.Wheel)
}
