// Package shader maps combiner program ids to lazily compiled backend shader variants.
package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rt/engine/metrics"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"go.uber.org/zap"
)

// Registry caches programs and their compiled variants. It is owned by the simulation side and is not
// safe for concurrent use.
type Registry struct {
	backend  backend.Backend
	logger   *zap.Logger
	programs map[uint32]*Program
}

// RegistryBuilderOption is a functional option applied to a Registry during construction via NewRegistry.
type RegistryBuilderOption func(*Registry)

// WithLogger sets the logger that reports variants compiled on demand.
func WithLogger(logger *zap.Logger) RegistryBuilderOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry compiling through b.
//
// Parameters:
//   - b: the backend variants are compiled on
//   - opts: functional options
//
// Returns:
//   - *Registry: the registry
func NewRegistry(b backend.Backend, opts ...RegistryBuilderOption) *Registry {
	if b == nil {
		panic("shader registry requires a backend")
	}
	r := &Registry{
		backend:  b,
		logger:   zap.NewNop(),
		programs: make(map[uint32]*Program),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Program returns the program for id, parsing it on first use.
func (r *Registry) Program(id uint32) *Program {
	if p, ok := r.programs[id]; ok {
		return p
	}
	p := ParseProgram(id)
	r.programs[id] = p
	return p
}

// Variant returns the compiled variant of p for key, compiling it synchronously on a miss. Misses are
// logged with a preload entry that would have avoided them.
//
// Parameters:
//   - p: the program, as returned by Program
//   - key: the permutation
//
// Returns:
//   - backend.ShaderID: the compiled variant
//   - error: an error if the backend failed to compile it
func (r *Registry) Variant(p *Program, key VariantKey) (backend.ShaderID, error) {
	if id, ok := p.variants[key]; ok {
		return id, nil
	}
	entry := PreloadEntry{
		ID:          p.id,
		Raytrace:    key.Raytrace(),
		Filter:      key.Filter(),
		HAddr:       key.HAddr(),
		VAddr:       key.VAddr(),
		NormalMap:   key.NormalMap(),
		SpecularMap: key.SpecularMap(),
	}
	r.logger.Info("compiling shader variant on demand",
		zap.String("base_id", fmt.Sprintf("0x%X", p.id)),
		zap.Bool("raytrace", entry.Raytrace),
		zap.Uint8("filter", uint8(entry.Filter)),
		zap.Uint8("h_addr", uint8(entry.HAddr)),
		zap.Uint8("v_addr", uint8(entry.VAddr)),
		zap.Bool("normal_map", entry.NormalMap),
		zap.Bool("specular_map", entry.SpecularMap),
		zap.String("preload", entry.String()),
	)
	return r.compile(p, key, "lazy")
}

func (r *Registry) compile(p *Program, key VariantKey, origin string) (backend.ShaderID, error) {
	id, err := r.backend.CreateShader(backend.ShaderDesc{
		BaseID: p.id,
		Layout: p.Layout(),
		Filter: key.Filter(),
		HAddr:  key.HAddr(),
		VAddr:  key.VAddr(),
		Flags:  key.Flags(),
	})
	if err != nil {
		return 0, fmt.Errorf("shader 0x%X variant %s: %w", p.id, key, err)
	}
	p.variants[key] = id
	metrics.VariantCompiles.WithLabelValues(origin).Inc()
	return id, nil
}

// Preload compiles every entry that is not cached yet.
//
// Parameters:
//   - entries: the permutations to compile
//
// Returns:
//   - error: the first compilation failure
func (r *Registry) Preload(entries []PreloadEntry) error {
	for _, e := range entries {
		p := r.Program(e.ID)
		key := e.Key()
		if _, ok := p.variants[key]; ok {
			continue
		}
		if _, err := r.compile(p, key, "preload"); err != nil {
			return err
		}
	}
	r.logger.Debug("shader variants preloaded", zap.Int("variants", r.VariantCount()))
	return nil
}

// VariantCount returns the number of compiled variants across all programs.
func (r *Registry) VariantCount() int {
	n := 0
	for _, p := range r.programs {
		n += len(p.variants)
	}
	return n
}

// Release destroys every compiled variant.
func (r *Registry) Release() {
	for _, p := range r.programs {
		for key, id := range p.variants {
			r.backend.DestroyShader(id)
			delete(p.variants, key)
		}
	}
}
