// Package window opens the glfw window the bridge presents into and forwards the inputs the bridge reacts to.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is the surface the renderer presents into. Every method except SurfaceDescriptor and Size must be
// called from the goroutine that created the window.
type Window interface {
	// SetUpdateCallback sets the function called after each batch of window events.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the function called when a key is pressed. Held keys do not repeat and Escape
	// closes the window instead.
	//
	// Parameters:
	//   - callback: function receiving the glfw key code
	SetKeyDownCallback(callback func(key uint32))

	// SetRightMouseCallback sets the function called when the right mouse button changes state.
	//
	// Parameters:
	//   - callback: function receiving whether the button is down and the cursor position
	SetRightMouseCallback(callback func(pressed bool, x, y int32))

	// SetStatus shows status after the title, or the bare title when status is empty.
	SetStatus(status string)

	// SurfaceDescriptor returns the platform surface descriptor the wgpu backend renders into.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Size returns the framebuffer size in pixels.
	Size() (width, height int)

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// ProcessMessages polls window events until the window closes, calling the update callback after each
	// poll.
	ProcessMessages()

	// Close destroys the window and terminates glfw.
	Close() error
}

// glfwWindow implements Window on top of GLFW.
type glfwWindow struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int

	handle *glfw.Window
	closed bool

	onUpdate     func()
	onResize     func(width, height int)
	onKeyDown    func(key uint32)
	onRightMouse func(pressed bool, x, y int32)
}

var _ Window = &glfwWindow{}

// NewWindow opens a window. The calling goroutine is locked to its OS thread and must run ProcessMessages.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: if glfw could not be initialized or the window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &glfwWindow{
		title:     "oxy-rt",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 240,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := w.open(); err != nil {
		return nil, fmt.Errorf("open window: %w", err)
	}
	return w, nil
}

func (w *glfwWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *glfwWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *glfwWindow) SetKeyDownCallback(callback func(key uint32)) {
	w.onKeyDown = callback
}

func (w *glfwWindow) SetRightMouseCallback(callback func(pressed bool, x, y int32)) {
	w.onRightMouse = callback
}

func (w *glfwWindow) SetStatus(status string) {
	if w.handle == nil {
		return
	}
	w.handle.SetTitle(titleWithStatus(w.title, status))
}

func (w *glfwWindow) Size() (int, int) {
	return w.width, w.height
}

func (w *glfwWindow) ProcessMessages() {
	for w.IsRunning() {
		glfw.PollEvents()
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func titleWithStatus(title, status string) string {
	if status == "" {
		return title
	}
	return title + " [" + status + "]"
}
