// Package frame carries completed simulation ticks to the render goroutine and blends consecutive ticks so
// rendering can run faster than the fixed simulation rate.
package frame

import (
	"time"

	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the perspective camera recorded with a frame.
type Camera struct {
	View       mgl32.Mat4
	FovRadians float32
	Near       float32
	Far        float32
}

// DefaultCamera returns the camera used until the command stream sets one.
func DefaultCamera() Camera {
	return Camera{
		View:       mgl32.Ident4(),
		FovRadians: 0.75,
		Near:       1,
		Far:        1000,
	}
}

// Lerp blends two cameras element-wise.
func (c Camera) Lerp(to Camera, t float32) Camera {
	return Camera{
		View:       common.LerpMat4(c.View, to.View, t),
		FovRadians: common.Lerp(c.FovRadians, to.FovRadians, t),
		Near:       common.Lerp(c.Near, to.Near, t),
		Far:        common.Lerp(c.Far, to.Far, t),
	}
}

// Key identifies an instance across frames: its display list and its position within that list.
type Key struct {
	DisplayList uint32
	Ordinal     uint32
}

// TextureRef names a texture table entry. The zero value references nothing.
type TextureRef struct {
	ID  uint32
	Set bool
}

// Ref returns a reference to texture table entry id.
func Ref(id uint32) TextureRef {
	return TextureRef{ID: id, Set: true}
}

// Instance is one recorded draw. Textures are referenced by texture table entry; the render side resolves
// them to backend textures, since uploads land on the render timeline after the frame was recorded.
type Instance struct {
	Key  Key
	Desc backend.InstanceDesc

	Diffuse  TextureRef
	Normal   TextureRef
	Specular TextureRef

	// TextureHash is the name hash of the diffuse texture as drawn, kept for picking.
	TextureHash texture.Hash

	// Interpolate is false when an override opted the instance out of blending.
	Interpolate bool
}

// Frame is everything one simulation tick produced.
type Frame struct {
	Seq         uint64
	PublishedAt time.Time

	Camera    Camera
	Instances []Instance
	Lights    []light.Light

	// pipeline bookkeeping, guarded by the pipeline's mutex
	pins   int
	pooled bool
}

// Reset clears f for reuse, keeping its storage.
func (f *Frame) Reset() {
	f.Seq = 0
	f.PublishedAt = time.Time{}
	f.Camera = DefaultCamera()
	f.Instances = f.Instances[:0]
	f.Lights = f.Lights[:0]
}

// Add appends an instance and returns its index.
func (f *Frame) Add(inst Instance) int {
	f.Instances = append(f.Instances, inst)
	return len(f.Instances) - 1
}
