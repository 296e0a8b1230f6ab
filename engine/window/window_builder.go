package window

// WindowBuilderOption is a functional option for configuring a window before it opens.
type WindowBuilderOption func(w *glfwWindow)

// WithTitle sets the window title. Status shown by SetStatus is appended to it.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *glfwWindow) {
		if title != "" {
			w.title = title
		}
	}
}

// WithSize sets the requested window size in screen coordinates. Non-positive values keep the default.
func WithSize(width, height int) WindowBuilderOption {
	return func(w *glfwWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithMinSize sets the smallest size the window can be resized to.
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *glfwWindow) {
		w.minWidth = width
		w.minHeight = height
	}
}
