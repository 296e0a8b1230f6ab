package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var errNotOpen = errors.New("window is not open")

// open initializes glfw and creates the window with no client API, since wgpu owns the surface.
func (w *glfwWindow) open() error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize glfw: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	handle, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create glfw window: %w", err)
	}
	handle.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)
	handle.SetKeyCallback(w.handleKey)
	handle.SetMouseButtonCallback(w.handleMouseButton)
	handle.SetFramebufferSizeCallback(w.handleFramebufferSize)
	w.handle = handle

	// The framebuffer is larger than the requested size on high-DPI displays.
	w.width, w.height = handle.GetFramebufferSize()
	return nil
}

func (w *glfwWindow) handleKey(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		win.SetShouldClose(true)
		return
	}
	if w.onKeyDown != nil {
		w.onKeyDown(uint32(key))
	}
}

func (w *glfwWindow) handleMouseButton(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonRight || w.onRightMouse == nil {
		return
	}
	x, y := win.GetCursorPos()
	switch action {
	case glfw.Press:
		w.onRightMouse(true, int32(x), int32(y))
	case glfw.Release:
		w.onRightMouse(false, int32(x), int32(y))
	}
}

func (w *glfwWindow) handleFramebufferSize(_ *glfw.Window, width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.handle == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.handle)
}

func (w *glfwWindow) IsRunning() bool {
	return w.handle != nil && !w.closed && !w.handle.ShouldClose()
}

func (w *glfwWindow) Close() error {
	if w.handle == nil {
		return errNotOpen
	}
	if w.closed {
		return nil
	}
	w.closed = true
	w.handle.Destroy()
	glfw.Terminate()
	return nil
}
