package material

import (
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Attribute is a bitmask naming the Material fields an override sets.
type Attribute uint32

const (
	AttributeNone                    Attribute = 0
	AttributeIgnoreNormalFactor      Attribute = 1 << 0
	AttributeUVDetailScale           Attribute = 1 << 1
	AttributeReflectionFactor        Attribute = 1 << 2
	AttributeReflectionFresnelFactor Attribute = 1 << 3
	AttributeReflectionShineFactor   Attribute = 1 << 4
	AttributeRefractionFactor        Attribute = 1 << 5
	AttributeSpecularColor           Attribute = 1 << 6
	AttributeSpecularExponent        Attribute = 1 << 7
	AttributeSolidAlphaMultiplier    Attribute = 1 << 8
	AttributeShadowAlphaMultiplier   Attribute = 1 << 9
	AttributeDepthBias               Attribute = 1 << 10
	AttributeShadowRayBias           Attribute = 1 << 11
	AttributeSelfLight               Attribute = 1 << 12
	AttributeLightGroupMaskBits      Attribute = 1 << 13
	AttributeDiffuseColorMix         Attribute = 1 << 14
)

// Material describes how the backend shades an instance.
//
// The same type serves as a full material (defaults plus resolved overrides) and as a sparse override,
// in which case Enabled lists the fields that carry meaning. Fog fields are per-draw state copied in by
// the renderer and are never part of an override.
type Material struct {
	Enabled Attribute

	IgnoreNormalFactor      float32
	UVDetailScale           float32
	ReflectionFactor        float32
	ReflectionFresnelFactor float32
	ReflectionShineFactor   float32
	RefractionFactor        float32
	SpecularColor           mgl32.Vec3
	SpecularExponent        float32
	SolidAlphaMultiplier    float32
	ShadowAlphaMultiplier   float32
	DepthBias               float32
	ShadowRayBias           float32
	SelfLight               mgl32.Vec3
	LightGroupMaskBits      uint32
	DiffuseColorMix         mgl32.Vec4

	FogColor   mgl32.Vec3
	FogMul     float32
	FogOffset  float32
	FogEnabled bool
}

// Default returns the base material every instance starts from before overrides are applied.
func Default() Material {
	return Material{
		UVDetailScale:           1,
		ReflectionFresnelFactor: 1,
		SpecularColor:           mgl32.Vec3{1, 1, 1},
		SpecularExponent:        5,
		SolidAlphaMultiplier:    1,
		ShadowAlphaMultiplier:   1,
		LightGroupMaskBits:      light.GroupMaskAll,
		FogColor:                mgl32.Vec3{1, 1, 1},
	}
}

// Apply copies every field enabled in mod onto m. Fields mod does not enable keep their current value.
// The enabled set of m is left untouched; use Merge to accumulate it.
//
// Parameters:
//   - mod: the sparse override to apply
func (m *Material) Apply(mod *Material) {
	if mod == nil {
		return
	}
	e := mod.Enabled
	if e&AttributeIgnoreNormalFactor != 0 {
		m.IgnoreNormalFactor = mod.IgnoreNormalFactor
	}
	if e&AttributeUVDetailScale != 0 {
		m.UVDetailScale = mod.UVDetailScale
	}
	if e&AttributeReflectionFactor != 0 {
		m.ReflectionFactor = mod.ReflectionFactor
	}
	if e&AttributeReflectionFresnelFactor != 0 {
		m.ReflectionFresnelFactor = mod.ReflectionFresnelFactor
	}
	if e&AttributeReflectionShineFactor != 0 {
		m.ReflectionShineFactor = mod.ReflectionShineFactor
	}
	if e&AttributeRefractionFactor != 0 {
		m.RefractionFactor = mod.RefractionFactor
	}
	if e&AttributeSpecularColor != 0 {
		m.SpecularColor = mod.SpecularColor
	}
	if e&AttributeSpecularExponent != 0 {
		m.SpecularExponent = mod.SpecularExponent
	}
	if e&AttributeSolidAlphaMultiplier != 0 {
		m.SolidAlphaMultiplier = mod.SolidAlphaMultiplier
	}
	if e&AttributeShadowAlphaMultiplier != 0 {
		m.ShadowAlphaMultiplier = mod.ShadowAlphaMultiplier
	}
	if e&AttributeDepthBias != 0 {
		m.DepthBias = mod.DepthBias
	}
	if e&AttributeShadowRayBias != 0 {
		m.ShadowRayBias = mod.ShadowRayBias
	}
	if e&AttributeSelfLight != 0 {
		m.SelfLight = mod.SelfLight
	}
	if e&AttributeLightGroupMaskBits != 0 {
		m.LightGroupMaskBits = mod.LightGroupMaskBits
	}
	if e&AttributeDiffuseColorMix != 0 {
		m.DiffuseColorMix = mod.DiffuseColorMix
	}
}

// Merge applies mod and adds its enabled fields to m's enabled set, so m can itself be used as an override.
//
// Parameters:
//   - mod: the sparse override to fold into m
func (m *Material) Merge(mod *Material) {
	if mod == nil {
		return
	}
	m.Apply(mod)
	m.Enabled |= mod.Enabled
}
