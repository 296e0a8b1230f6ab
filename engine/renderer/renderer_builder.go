package renderer

import (
	"time"

	"github.com/Carmen-Shannon/oxy-rt/engine/mods"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger sets the logger shared by the renderer and its caches.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMeshCacheOptions forwards options to the renderer's mesh cache.
//
// Parameters:
//   - opts: mesh cache builder options
//
// Returns:
//   - RendererBuilderOption: a function that applies the mesh cache options to a renderer
func WithMeshCacheOptions(opts ...mesh.CacheBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.meshOpts = append(r.meshOpts, opts...)
	}
}

// WithMaxInstances sets the largest number of instances a frame may record. Drawing past it panics.
//
// Parameters:
//   - n: the instance limit
//
// Returns:
//   - RendererBuilderOption: a function that applies the instance limit to a renderer
func WithMaxInstances(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.maxInstances = n
		}
	}
}

// WithFrameSlots sets the number of frames the pipeline allocates up front.
func WithFrameSlots(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.frameSlots = n
	}
}

// WithInterpolationWorkers sets the number of pooled interpolation workers.
func WithInterpolationWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithTickDuration sets the simulation tick length used to compute the interpolation factor. It should
// match the pacer's tick.
func WithTickDuration(d time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		if d > 0 {
			r.tick = d
		}
	}
}

// WithClock sets the time source used to stamp and blend frames.
func WithClock(clock timing.Clock) RendererBuilderOption {
	return func(r *renderer) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithModFiles sets the mod files loaded at construction and written by SaveMods.
//
// Parameters:
//   - files: the mod file paths; empty paths are skipped
//
// Returns:
//   - RendererBuilderOption: a function that applies the mod files to a renderer
func WithModFiles(files mods.Files) RendererBuilderOption {
	return func(r *renderer) {
		r.files = files
	}
}

// WithPreload replaces the shader variants compiled at construction. nil disables preloading.
func WithPreload(entries []shader.PreloadEntry) RendererBuilderOption {
	return func(r *renderer) {
		r.preload = entries
	}
}

// WithKnownLayouts restricts the geometry layout names accepted from mod files.
func WithKnownLayouts(names ...string) RendererBuilderOption {
	return func(r *renderer) {
		r.storeOpts = append(r.storeOpts, mods.WithKnownLayouts(names...))
	}
}
