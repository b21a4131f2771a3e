// Package input turns raw window events into the per-frame tick record
// consumed by the viewer core.
package input

// CursorMode selects how the camera reacts to cursor motion this frame.
type CursorMode int

const (
	ModeStagnant CursorMode = iota
	ModeOrbit
	ModePan
)

// String returns the mode name.
func (m CursorMode) String() string {
	switch m {
	case ModeOrbit:
		return "orbit"
	case ModePan:
		return "pan"
	default:
		return "stagnant"
	}
}

// Cursor is the normalized cursor state for one tick.
type Cursor struct {
	X, Y   int // absolute position
	DX, DY int // delta since previous tick
	Mode   CursorMode
	Wheel  int // signed wheel delta, reset after each tick
}

// Tick is the per-frame input record.
type Tick struct {
	Cursor Cursor
}

// EventType identifies a window event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Key is a platform-independent key code.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyAlt
	Key0
	Key1
	Key2
	Key3
	KeyF12
)

// Button is a mouse button.
type Button uint8

const (
	ButtonLeft   Button = 1
	ButtonMiddle Button = 2
	ButtonRight  Button = 3
)

// Event represents a processed window event.
type Event struct {
	Type   EventType
	Key    Key
	Width  int
	Height int
	MouseX int
	MouseY int
	Button Button
	Wheel  int
}
