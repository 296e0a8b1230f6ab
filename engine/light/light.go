package light

import (
	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// GroupDefault is the light group bit assigned to level lights unless a file overrides it.
	GroupDefault uint32 = 1

	// GroupMaskAll lets a material receive light from every group.
	GroupMaskAll uint32 = 0xFFFFFFFF
)

// Light is a spherical point light as understood by the rendering backend.
//
// Lights are plain values: they are copied into override records, transformed into dynamic lights and
// finally copied into each frame's light list, so no two owners ever share one.
type Light struct {
	// Position is the world-space center of the light.
	Position mgl32.Vec3

	// AttenuationRadius is the distance at which the light contributes no energy.
	AttenuationRadius float32

	// PointRadius is the radius of the emitting sphere, used for soft shadows.
	PointRadius float32

	// DiffuseColor is the RGB color of the diffuse contribution.
	DiffuseColor mgl32.Vec3

	// SpecularColor is the RGB color of the specular contribution.
	SpecularColor mgl32.Vec3

	// ShadowOffset pushes shadow ray origins away from the light along the ray.
	ShadowOffset float32

	// AttenuationExponent shapes the falloff curve between the center and AttenuationRadius.
	AttenuationExponent float32

	// FlickerIntensity randomizes the light's intensity per frame when non-zero.
	FlickerIntensity float32

	// GroupBits selects which materials receive this light (see material light group masks).
	GroupBits uint32
}

// Transformed returns a copy of the light placed by the affine transform m.
// The position is transformed as a point and every distance-like field is scaled by the
// approximate uniform scale of m so lights attached to scaled nodes keep their relative size.
//
// Parameters:
//   - m: the node-to-world transform
//
// Returns:
//   - Light: the transformed copy
func (l Light) Transformed(m mgl32.Mat4) Light {
	out := l
	out.Position = common.TransformPositionAffine(m, l.Position)
	scale := common.AffineScale(m)
	out.AttenuationRadius *= scale
	out.PointRadius *= scale
	out.ShadowOffset *= scale
	return out
}
