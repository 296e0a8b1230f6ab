package engine

import (
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"github.com/Carmen-Shannon/oxy-rt/engine/window"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithPacer sets the pacer driving the simulation loop. Without it the engine paces at
// timing.DefaultTickRate on the wall clock.
//
// Parameters:
//   - p: the pacer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPacer(p *timing.Pacer) EngineBuilderOption {
	return func(e *engine) {
		e.pacer = p
	}
}

// WithWindow sets the window whose hotkeys and resize events drive the engine. Without a window the engine
// runs headless until Quit.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPicker sets how a right click picks the texture to highlight and edit.
func WithPicker(p Picker) EngineBuilderOption {
	return func(e *engine) {
		e.picker = p
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimit(fps)
	}
}
