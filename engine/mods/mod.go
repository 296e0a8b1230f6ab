// Package mods holds the user-authored overrides ("mods") that change how geometry is shaded: material
// attributes, attached lights, replacement normal and specular maps and per-instance interpolation.
//
// Overrides are keyed three ways. Layout mods are keyed by geometry layout name and are copied onto every
// graph node registered with that layout. Node mods are keyed by an opaque NodeID. Texture mods are keyed by
// the canonical texture name hash, with aliases mapping other names onto a canonical one.
package mods

import (
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
)

// NodeID identifies a scene graph node. The command stream decides what the value means; zero is never
// registered.
type NodeID uint64

// Mod is a single override record. Nil Material or Light means the mod does not touch that aspect.
type Mod struct {
	Material *material.Material
	Light    *light.Light

	// NormalMap and SpecularMap replace the instance's maps when non-zero and a texture with that name
	// hash has been created.
	NormalMap   texture.Hash
	SpecularMap texture.Hash

	// Interpolate lets instances using this mod be blended between simulation ticks.
	Interpolate bool
}

// New returns an empty mod with interpolation enabled.
func New() *Mod {
	return &Mod{Interpolate: true}
}

// Clone returns a deep copy of m.
func (m *Mod) Clone() *Mod {
	if m == nil {
		return nil
	}
	out := *m
	if m.Material != nil {
		mat := *m.Material
		out.Material = &mat
	}
	if m.Light != nil {
		l := *m.Light
		out.Light = &l
	}
	return &out
}

// MergeLayout folds a layout mod into a node mod: material attributes accumulate, the light is replaced.
// Map overrides stay texture-scoped and are not carried over.
//
// Parameters:
//   - layout: the layout mod to fold in
func (m *Mod) MergeLayout(layout *Mod) {
	if layout == nil {
		return
	}
	if layout.Material != nil {
		if m.Material == nil {
			m.Material = &material.Material{}
		}
		m.Material.Merge(layout.Material)
	}
	if layout.Light != nil {
		l := *layout.Light
		m.Light = &l
	}
	if !layout.Interpolate {
		m.Interpolate = false
	}
}

// EnsureMaterial returns m's material override, creating an empty one if m has none.
func (m *Mod) EnsureMaterial() *material.Material {
	if m.Material == nil {
		m.Material = &material.Material{}
	}
	return m.Material
}
