package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlsKeyDown(t *testing.T) {
	var pauses, turbos, saves int
	c := Controls{
		TogglePause: func() bool { pauses++; return true },
		ToggleTurbo: func() bool { turbos++; return true },
		Save:        func() { saves++ },
	}
	c.KeyDown(KeyPause)
	c.KeyDown(KeyTurbo)
	c.KeyDown(KeyTurbo)
	c.KeyDown(KeySave)
	c.KeyDown(0)

	assert.Equal(t, 1, pauses)
	assert.Equal(t, 2, turbos)
	assert.Equal(t, 1, saves)

	assert.NotPanics(t, func() { Controls{}.KeyDown(KeySave) })
}

func TestControlsAttach(t *testing.T) {
	w := &glfwWindow{}
	var picked, released bool
	Controls{
		Save:      func() {},
		PickStart: func(x, y int32) { picked = true },
		PickEnd:   func(x, y int32) { released = true },
	}.Attach(w)

	w.onRightMouse(true, 1, 2)
	assert.True(t, picked)
	assert.False(t, released)
	w.onRightMouse(false, 1, 2)
	assert.True(t, released)
	assert.NotNil(t, w.onKeyDown)

	assert.NotPanics(t, func() { Controls{}.RightMouse(true, 0, 0) })
}

func TestTitleWithStatus(t *testing.T) {
	assert.Equal(t, "oxy-rt", titleWithStatus("oxy-rt", ""))
	assert.Equal(t, "oxy-rt [paused]", titleWithStatus("oxy-rt", "paused"))
}

func TestStatusWithoutHandle(t *testing.T) {
	w := &glfwWindow{title: "oxy-rt"}
	assert.NotPanics(t, func() { w.SetStatus("turbo") })
	assert.False(t, w.IsRunning())
	assert.ErrorIs(t, w.Close(), errNotOpen)
}
