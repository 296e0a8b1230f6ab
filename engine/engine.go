package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/engine/metrics"
	"github.com/Carmen-Shannon/oxy-rt/engine/profiler"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"github.com/Carmen-Shannon/oxy-rt/engine/window"
	"go.uber.org/zap"
)

// engine implements the Engine interface.
// Coordinates the paced simulation, render and window threads.
type engine struct {
	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	renderer renderer.Renderer
	pacer    *timing.Pacer
	logger   *zap.Logger
	picker   Picker

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	tickCallback func(deltaTime float32)
	drawCallback func(r renderer.Renderer)

	ticks   atomic.Uint64
	dropped atomic.Uint64

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Picker maps a window position to the texture drawn there.
type Picker func(x, y int32) (texture.Hash, bool)

// Engine is the main entry point for the bridge.
// It runs the fixed-rate simulation loop that records frames, the render loop that presents them, and the
// window message loop.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer frames are recorded into.
	Renderer() renderer.Renderer

	// Pacer returns the simulation pacer.
	Pacer() *timing.Pacer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickCallback registers the game logic run once per simulation tick. It also runs on ticks whose
	// frame is dropped, but not while paused. Must be called before Run.
	//
	// Parameters:
	//   - callback: function receiving the fixed tick length in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetDrawCallback registers the function that records one frame of draw commands. It runs between
	// StartFrame and EndFrame after the tick callback, unless the pacer marked the frame droppable. Must be
	// called before Run.
	//
	// Parameters:
	//   - callback: function receiving the renderer to record into
	SetDrawCallback(callback func(r renderer.Renderer))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Ticks returns the number of simulation ticks run so far.
	Ticks() uint64

	// DroppedFrames returns the number of ticks whose frame was not recorded.
	DroppedFrames() uint64

	// Run starts the simulation and render loops and blocks until the window closes or Quit is called.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine around r.
//
// Parameters:
//   - r: the renderer frames are recorded into
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r renderer.Renderer, options ...EngineBuilderOption) Engine {
	if r == nil {
		panic("engine requires a renderer")
	}
	e := &engine{
		renderer:    r,
		quitChannel: make(chan struct{}),
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.pacer == nil {
		e.pacer = timing.NewPacer(nil, timing.WithLogger(e.logger))
	}
	e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger.Named("profiler")), profiler.WithStats(e.stats))

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.renderer.Resize(width, height)
		})
		e.controls().Attach(e.window)
	}
	return e
}

// controls binds the bridge hotkeys to the pacer and renderer.
func (e *engine) controls() window.Controls {
	return window.Controls{
		TogglePause: func() bool {
			paused := e.pacer.TogglePause()
			e.showStatus()
			return paused
		},
		ToggleTurbo: func() bool {
			turbo := e.pacer.ToggleTurbo()
			e.showStatus()
			return turbo
		},
		Save: e.renderer.RequestSave,
		PickStart: func(x, y int32) {
			if e.picker != nil {
				h, _ := e.picker(x, y)
				e.renderer.SetPickedTexture(h)
			}
			e.renderer.SetTextureHighlight(true)
		},
		PickEnd: func(x, y int32) {
			e.renderer.SetTextureHighlight(false)
		},
	}
}

// showStatus puts the pacer state in the window title.
func (e *engine) showStatus() {
	if e.window != nil {
		e.window.SetStatus(pacerStatus(e.pacer.Paused(), e.pacer.Turbo()))
	}
}

func pacerStatus(paused, turbo bool) string {
	switch {
	case paused && turbo:
		return "paused, turbo"
	case paused:
		return "paused"
	case turbo:
		return "turbo"
	}
	return ""
}

func (e *engine) stats() []zap.Field {
	s := e.renderer.Stats()
	return []zap.Field{
		zap.Uint64("frame", s.Seq),
		zap.Int("instances", s.Instances),
		zap.Int("lights", s.Lights),
		zap.Int("frame_buffers", s.Frames),
		zap.Uint64("ticks", e.ticks.Load()),
		zap.Uint64("dropped", e.dropped.Load()),
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Pacer() *timing.Pacer {
	return e.pacer
}

func (e *engine) Ticks() uint64 {
	return e.ticks.Load()
}

func (e *engine) DroppedFrames() uint64 {
	return e.dropped.Load()
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	if e.window == nil {
		<-e.quitChannel
	} else {
		closed := false
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				if !closed {
					closed = true
					_ = e.window.Close()
				}
			default:
			}
		})
		e.window.ProcessMessages()
		e.signalQuit()
		if !closed {
			_ = e.window.Close()
		}
	}
	e.wg.Wait()
	e.running.Store(false)
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the simulation and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the paced simulation loop in its own goroutine.
// While paused it only waits; the render loop keeps presenting the last frames.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("simulation goroutine recovered from panic", zap.Any("panic", r), zap.Stack("stack"))
			e.signalQuit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		if e.pacer.Paused() {
			if e.pacer.Turbo() {
				e.pacer.Clock().Sleep(e.pacer.TickDuration())
			} else {
				e.pacer.Wait()
			}
			continue
		}

		start := time.Now()
		e.tick()
		metrics.TickDuration.Observe(time.Since(start).Seconds())
		e.pacer.Wait()
	}
}

// tick runs one simulation step: game logic, frame recording, then the reset of the tick's dynamic lights.
func (e *engine) tick() {
	e.ticks.Add(1)
	if e.tickCallback != nil {
		e.tickCallback(float32(e.pacer.TickDuration().Seconds()))
	}
	if e.pacer.ShouldDrop() {
		e.dropped.Add(1)
	} else {
		e.renderer.StartFrame()
		if e.drawCallback != nil {
			e.drawCallback(e.renderer)
		}
		e.renderer.EndFrame()
	}
	e.renderer.ResetLogicFrame()
}

// handleRender presents the latest frames as fast as the backend allows, or at the configured frame limit.
// Vsync is disabled in turbo mode.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", zap.Any("panic", r), zap.Stack("stack"))
			e.signalQuit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}
		frameStart := time.Now()

		if err := e.renderer.Present(!e.pacer.Turbo()); err != nil {
			e.logger.Warn("present failed", zap.Error(err))
		}

		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickCallback registers the function called each simulation tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetDrawCallback registers the function that records each frame.
func (e *engine) SetDrawCallback(callback func(r renderer.Renderer)) {
	e.drawCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameLimit(fps)
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
