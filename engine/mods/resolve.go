package mods

import (
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// highlight is forced onto every instance using the picked texture while highlighting is on.
var highlight = material.Material{
	Enabled:            material.AttributeDiffuseColorMix | material.AttributeSelfLight | material.AttributeLightGroupMaskBits,
	DiffuseColorMix:    mgl32.Vec4{1, 0, 1, 0.5},
	SelfLight:          mgl32.Vec3{1, 1, 1},
	LightGroupMaskBits: 0,
}

// Resolution is the result of layering overrides for one instance.
type Resolution struct {
	Material    material.Material
	NormalMap   texture.Hash
	SpecularMap texture.Hash
	Interpolate bool
}

// NewResolution starts a resolution from the default material.
func NewResolution() Resolution {
	return Resolution{
		Material:    material.Default(),
		Interpolate: true,
	}
}

// Layer applies mod on top of r, field by field. When lights is non-nil and mod carries a light, the light
// is placed by transform and appended to lights.
//
// Parameters:
//   - mod: the override; nil is a no-op
//   - transform: the instance transform used to place the mod's light
//   - lights: the tick's dynamic light list, or nil to suppress light application
func (r *Resolution) Layer(mod *Mod, transform mgl32.Mat4, lights *light.Dynamic) {
	if mod == nil {
		return
	}
	r.Material.Apply(mod.Material)
	if lights != nil && mod.Light != nil {
		lights.Add(*mod.Light, transform)
	}
	if mod.NormalMap != 0 {
		r.NormalMap = mod.NormalMap
	}
	if mod.SpecularMap != 0 {
		r.SpecularMap = mod.SpecularMap
	}
	if !mod.Interpolate {
		r.Interpolate = false
	}
}

// Highlight forces the picked-texture tint onto r.
func (r *Resolution) Highlight() {
	r.Material.Apply(&highlight)
}

// TextureLookup resolves a texture hash through the alias map and returns the canonical hash together with
// its mod, if any.
//
// Parameters:
//   - h: the texture name hash as drawn
//
// Returns:
//   - texture.Hash: the canonical hash
//   - *Mod: the texture mod, or nil
func (s *Store) TextureLookup(h texture.Hash) (texture.Hash, *Mod) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.aliasOf[h]; ok {
		h = c
	}
	return h, s.textures[h]
}

// BuildNodeMod returns the mod for node and, when it carries a light, adds that light to lights placed by
// the node's world transform, which is view⁻¹ × modelview.
//
// Parameters:
//   - node: the graph node
//   - modelview: the node's model-view matrix
//   - invView: the inverse of the current camera view matrix
//   - lights: the tick's dynamic light list
//
// Returns:
//   - *Mod: the node mod, or nil if the node has none
func (s *Store) BuildNodeMod(node NodeID, modelview, invView mgl32.Mat4, lights *light.Dynamic) *Mod {
	m, ok := s.NodeMod(node)
	if !ok {
		return nil
	}
	if m.Light != nil && lights != nil {
		lights.Add(*m.Light, invView.Mul4(modelview))
	}
	return m
}
