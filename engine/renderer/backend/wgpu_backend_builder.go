package backend

import "go.uber.org/zap"

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent.
	MSAA8x MSAASampleCount = 8
)

// WGPUBackendOption is a functional option applied to a WGPUBackend during construction via NewWGPUBackend.
type WGPUBackendOption func(*WGPUBackend)

// WithMSAA sets the multisample anti-aliasing sample count. When not specified, MSAA is off.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - WGPUBackendOption: a function that applies the MSAA option to a backend
func WithMSAA(count MSAASampleCount) WGPUBackendOption {
	return func(b *WGPUBackend) {
		b.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system.
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - WGPUBackendOption: a function that applies the option to a backend
func WithForceSoftwareRenderer(force bool) WGPUBackendOption {
	return func(b *WGPUBackend) {
		b.forceFallbackAdapter = force
	}
}

// WithVSync sets the initial present mode. Draw switches it whenever its vsync argument changes.
//
// Parameters:
//   - vsync: true to wait for vertical blank, false to present immediately
//
// Returns:
//   - WGPUBackendOption: a function that applies the option to a backend
func WithVSync(vsync bool) WGPUBackendOption {
	return func(b *WGPUBackend) {
		b.vsync = vsync
	}
}

// WithLogger sets the logger used for device and pipeline diagnostics.
func WithLogger(logger *zap.Logger) WGPUBackendOption {
	return func(b *WGPUBackend) {
		if logger != nil {
			b.logger = logger
		}
	}
}
