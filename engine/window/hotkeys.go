package window

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Bridge hotkeys.
const (
	KeyPause = uint32(glfw.KeyF2)
	KeyTurbo = uint32(glfw.KeyF4)
	KeySave  = uint32(glfw.KeyF5)
)

// Controls are the actions the bridge hotkeys trigger. Nil actions are ignored. Every action runs on the
// window goroutine.
type Controls struct {
	// TogglePause is bound to F2.
	TogglePause func() bool
	// ToggleTurbo is bound to F4.
	ToggleTurbo func() bool
	// Save is bound to F5.
	Save func()
	// PickStart runs when the right mouse button goes down.
	PickStart func(x, y int32)
	// PickEnd runs when the right mouse button is released.
	PickEnd func(x, y int32)
}

// KeyDown dispatches a key press to its action.
func (c Controls) KeyDown(key uint32) {
	switch key {
	case KeyPause:
		if c.TogglePause != nil {
			c.TogglePause()
		}
	case KeyTurbo:
		if c.ToggleTurbo != nil {
			c.ToggleTurbo()
		}
	case KeySave:
		if c.Save != nil {
			c.Save()
		}
	}
}

// Attach registers the controls' key and mouse callbacks on w, replacing any already set.
func (c Controls) Attach(w Window) {
	w.SetKeyDownCallback(c.KeyDown)
	w.SetRightMouseCallback(c.RightMouse)
}

// RightMouse dispatches a right button change to PickStart or PickEnd.
func (c Controls) RightMouse(pressed bool, x, y int32) {
	switch {
	case pressed && c.PickStart != nil:
		c.PickStart(x, y)
	case !pressed && c.PickEnd != nil:
		c.PickEnd(x, y)
	}
}
