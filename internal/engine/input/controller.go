package input

// WheelScale converts one wheel notch into tick wheel units, matching the
// 120-per-notch delta of desktop wheel messages.
const WheelScale = 120

// Command is a non-camera request raised by a key press.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandScreenshot
	CommandScene
)

// Request is a command decoded from the event stream.
type Request struct {
	Command Command
	Scene   string // set for CommandScene
}

// SceneKeys maps digit keys to scene identifiers.
var SceneKeys = map[Key]string{
	Key0: "void",
	Key1: "room",
	Key2: "primitives",
	Key3: "gallery",
}

// Controller accumulates events between frames and emits one Tick per frame.
type Controller struct {
	x, y     int
	prevX    int
	prevY    int
	wheel    int
	alt      bool
	lmb, mmb bool

	requests []Request
	resize   *[2]int
}

// NewController creates a controller with no buttons held.
func NewController() *Controller {
	return &Controller{}
}

// Handle feeds one event into the controller.
func (c *Controller) Handle(e Event) {
	switch e.Type {
	case EventQuit:
		c.requests = append(c.requests, Request{Command: CommandQuit})
	case EventWindowResize:
		c.resize = &[2]int{e.Width, e.Height}
	case EventKeyDown:
		switch e.Key {
		case KeyAlt:
			c.alt = true
		case KeyEscape:
			c.requests = append(c.requests, Request{Command: CommandQuit})
		case KeyF12:
			c.requests = append(c.requests, Request{Command: CommandScreenshot})
		default:
			if id, ok := SceneKeys[e.Key]; ok {
				c.requests = append(c.requests, Request{Command: CommandScene, Scene: id})
			}
		}
	case EventKeyUp:
		if e.Key == KeyAlt {
			c.alt = false
		}
	case EventMouseMove:
		c.x, c.y = e.MouseX, e.MouseY
	case EventMouseDown:
		c.setButton(e.Button, true)
		c.x, c.y = e.MouseX, e.MouseY
	case EventMouseUp:
		c.setButton(e.Button, false)
		c.x, c.y = e.MouseX, e.MouseY
	case EventMouseWheel:
		c.wheel += e.Wheel * WheelScale
	}
}

func (c *Controller) setButton(b Button, down bool) {
	switch b {
	case ButtonLeft:
		c.lmb = down
	case ButtonMiddle:
		c.mmb = down
	}
}

// Tick builds the record for this frame and resets per-frame state.
// Deltas are previous minus current position, so dragging right yields a
// negative dx.
func (c *Controller) Tick() Tick {
	t := Tick{Cursor: Cursor{X: c.x, Y: c.y, Wheel: c.wheel}}

	if c.lmb || c.mmb {
		t.Cursor.DX = c.prevX - c.x
		t.Cursor.DY = c.prevY - c.y
		switch {
		case c.lmb && c.alt:
			t.Cursor.Mode = ModeOrbit
		case c.mmb && c.alt:
			t.Cursor.Mode = ModePan
		}
	}

	c.prevX, c.prevY = c.x, c.y
	c.wheel = 0
	return t
}

// Requests returns and clears the commands raised since the last call.
func (c *Controller) Requests() []Request {
	r := c.requests
	c.requests = nil
	return r
}

// Resize returns the latest window size reported since the last call.
func (c *Controller) Resize() (width, height int, ok bool) {
	if c.resize == nil {
		return 0, 0, false
	}
	width, height = c.resize[0], c.resize[1]
	c.resize = nil
	return width, height, true
}
