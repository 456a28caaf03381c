package viewer

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/gpubuf"
	"github.com/Faultbox/meshview/internal/engine/input"
)

// Action is a request the loop carries out after input handling.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionOpenDialog
	ActionScreenshot
	ActionResetCamera
	ActionNextShader
	ActionReload
)

// Controls turns input events into camera motion and viewer state. It holds
// no graphics resources.
type Controls struct {
	Camera   *camera.OrbitCamera
	Mode     gpubuf.DrawMode
	ShowBBox bool

	rotating bool
	panning  bool
}

// NewControls returns controls driving cam.
func NewControls(cam *camera.OrbitCamera, mode gpubuf.DrawMode, showBBox bool) *Controls {
	return &Controls{Camera: cam, Mode: mode, ShowBBox: showBBox}
}

// Handle applies e and reports what the loop must do next. Dropped files
// are returned separately.
func (c *Controls) Handle(e input.Event) (Action, string) {
	switch e.Type {
	case input.EventQuit:
		return ActionQuit, ""

	case input.EventDropFile:
		return ActionNone, e.Path

	case input.EventMouseDown:
		switch e.Button {
		case sdl.BUTTON_LEFT:
			c.rotating = true
		case sdl.BUTTON_RIGHT, sdl.BUTTON_MIDDLE:
			c.panning = true
		}

	case input.EventMouseUp:
		switch e.Button {
		case sdl.BUTTON_LEFT:
			c.rotating = false
		case sdl.BUTTON_RIGHT, sdl.BUTTON_MIDDLE:
			c.panning = false
		}

	case input.EventMouseMove:
		dx, dy := float32(e.DeltaX), float32(e.DeltaY)
		if c.rotating {
			c.Camera.Rotate(dx, dy)
		} else if c.panning {
			c.Camera.Pan(dx, dy)
		}

	case input.EventWheel:
		c.Camera.Zoom(e.Wheel)

	case input.EventKeyDown:
		return c.key(e.Key), ""
	}
	return ActionNone, ""
}

func (c *Controls) key(k sdl.Scancode) Action {
	switch k {
	case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
		return ActionQuit
	case sdl.SCANCODE_M:
		c.Mode = c.Mode.Next()
	case sdl.SCANCODE_1:
		c.Mode = gpubuf.ModeWireframe
	case sdl.SCANCODE_2:
		c.Mode = gpubuf.ModeFace
	case sdl.SCANCODE_3:
		c.Mode = gpubuf.ModePoint
	case sdl.SCANCODE_B:
		c.ShowBBox = !c.ShowBBox
	case sdl.SCANCODE_O:
		return ActionOpenDialog
	case sdl.SCANCODE_R:
		return ActionResetCamera
	case sdl.SCANCODE_S:
		return ActionNextShader
	case sdl.SCANCODE_L:
		return ActionReload
	case sdl.SCANCODE_F12:
		return ActionScreenshot
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		c.Camera.Zoom(1)
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		c.Camera.Zoom(-1)
	}
	return ActionNone
}
