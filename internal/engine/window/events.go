package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/orbitview/internal/engine/input"
)

var scancodes = map[sdl.Scancode]input.Key{
	sdl.SCANCODE_ESCAPE: input.KeyEscape,
	sdl.SCANCODE_LALT:   input.KeyAlt,
	sdl.SCANCODE_RALT:   input.KeyAlt,
	sdl.SCANCODE_0:      input.Key0,
	sdl.SCANCODE_1:      input.Key1,
	sdl.SCANCODE_2:      input.Key2,
	sdl.SCANCODE_3:      input.Key3,
	sdl.SCANCODE_F12:    input.KeyF12,
}

// translateKey maps an SDL scancode to an input key.
func translateKey(sc sdl.Scancode) input.Key {
	if k, ok := scancodes[sc]; ok {
		return k
	}
	return input.KeyUnknown
}

// PollEvents drains the SDL queue and returns the events as input events.
// The slice is reused by the next call.
func (w *Window) PollEvents() []input.Event {
	w.events = w.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.events = append(w.events, input.Event{Type: input.EventQuit})

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				width, height := w.GetSize()
				w.events = append(w.events, input.Event{
					Type:   input.EventWindowResize,
					Width:  width,
					Height: height,
				})
			}

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			t := input.EventKeyUp
			if e.Type == sdl.KEYDOWN {
				t = input.EventKeyDown
			}
			w.events = append(w.events, input.Event{Type: t, Key: translateKey(e.Keysym.Scancode)})

		case *sdl.MouseMotionEvent:
			w.events = append(w.events, input.Event{
				Type:   input.EventMouseMove,
				MouseX: int(e.X),
				MouseY: int(e.Y),
			})

		case *sdl.MouseButtonEvent:
			t := input.EventMouseUp
			if e.Type == sdl.MOUSEBUTTONDOWN {
				t = input.EventMouseDown
			}
			w.events = append(w.events, input.Event{
				Type:   t,
				MouseX: int(e.X),
				MouseY: int(e.Y),
				Button: input.Button(e.Button),
			})

		case *sdl.MouseWheelEvent:
			dy := int(e.Y)
			if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
				dy = -dy
			}
			w.events = append(w.events, input.Event{Type: input.EventMouseWheel, Wheel: dy})
		}
	}

	return w.events
}
