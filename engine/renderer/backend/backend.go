// Package backend defines the capability interface the bridge renders through, along with the handle and
// descriptor types shared by every implementation.
package backend

import (
	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshID is an opaque handle to a backend mesh. The zero value means no mesh.
type MeshID uint32

// ShaderID is an opaque handle to a compiled shader variant. The zero value means no shader.
type ShaderID uint32

// TextureID is an opaque handle to a backend texture. The zero value means no texture.
type TextureID uint32

// InstanceID is an opaque handle to a backend instance. The zero value means no instance.
type InstanceID uint32

// Filter selects the texture filter of a shader variant.
type Filter uint8

const (
	FilterPoint Filter = iota
	FilterLinear
)

// Addressing selects how a shader variant samples outside [0, 1] on one axis.
type Addressing uint8

const (
	AddressingWrap Addressing = iota
	AddressingMirror
	AddressingClamp
)

// AddressingFromTileBits converts the clamp/mirror bits of a texture tile into an addressing mode.
// Clamp takes precedence over mirror.
//
// Parameters:
//   - bits: the tile's cms or cmt value (bit 0 = mirror, bit 1 = clamp)
//
// Returns:
//   - Addressing: the matching mode
func AddressingFromTileBits(bits uint32) Addressing {
	switch {
	case bits&2 != 0:
		return AddressingClamp
	case bits&1 != 0:
		return AddressingMirror
	default:
		return AddressingWrap
	}
}

// MeshFlags describe how a mesh will be used.
type MeshFlags uint32

const (
	// MeshRaytrace builds an acceleration structure for the mesh.
	MeshRaytrace MeshFlags = 1 << iota
	// MeshUpdatable allows the mesh to be re-uploaded cheaply every frame.
	MeshUpdatable
)

// ShaderFlags select the pipeline features of a shader variant.
type ShaderFlags uint32

const (
	ShaderRaster ShaderFlags = 1 << iota
	ShaderRaytrace
	ShaderNormalMap
	ShaderSpecularMap
)

// InstanceFlags modify how an instance is drawn.
type InstanceFlags uint32

const (
	// InstanceBackground draws the instance behind the rest of the scene.
	InstanceBackground InstanceFlags = 1 << iota
	// InstanceDoubleSided disables backface culling.
	InstanceDoubleSided
)

// VertexLayout describes the interleaved vertex format produced by the command stream for one shader program.
type VertexLayout struct {
	// UseTexture reports whether each vertex carries a UV pair.
	UseTexture bool
	// NumInputs is the number of per-vertex color inputs (0..4).
	NumInputs uint8
	// UseAlpha reports whether the color inputs carry an alpha channel.
	UseAlpha bool
}

// Stride returns the size of one vertex in bytes: position (xyzw), normal, optional UV and the color inputs.
func (l VertexLayout) Stride() uint32 {
	stride := uint32(16 + 12)
	if l.UseTexture {
		stride += 8
	}
	inputSize := uint32(12)
	if l.UseAlpha {
		inputSize = 16
	}
	return stride + uint32(l.NumInputs)*inputSize
}

// ShaderDesc describes one shader variant to compile.
type ShaderDesc struct {
	// BaseID is the combiner program id the variant was derived from.
	BaseID uint32
	// Layout is the vertex format the variant consumes.
	Layout VertexLayout
	Filter Filter
	HAddr  Addressing
	VAddr  Addressing
	Flags  ShaderFlags
}

// InstanceDesc is the full description of one drawn instance.
type InstanceDesc struct {
	Transform mgl32.Mat4
	Mesh      MeshID
	Shader    ShaderID
	Diffuse   TextureID
	Normal    TextureID
	Specular  TextureID
	Material  material.Material
	Scissor   common.Rect
	Viewport  common.Rect
	Flags     InstanceFlags
}

// Backend is the rendering device the bridge drives. Implementations serialize their own calls and may be
// used from the simulation and render threads concurrently.
type Backend interface {
	// CreateMesh allocates an empty mesh.
	//
	// Parameters:
	//   - flags: how the mesh will be used
	//
	// Returns:
	//   - MeshID: the new mesh handle
	CreateMesh(flags MeshFlags) MeshID

	// SetMesh uploads geometry into a mesh, replacing its previous contents.
	//
	// Parameters:
	//   - id: the mesh to fill
	//   - vertices: interleaved vertex bytes
	//   - vertexCount: number of vertices in vertices
	//   - vertexStride: size of one vertex in bytes
	//   - indices: triangle list indices
	//
	// Returns:
	//   - error: an error if the upload failed
	SetMesh(id MeshID, vertices []byte, vertexCount, vertexStride uint32, indices []uint32) error

	// DestroyMesh releases a mesh.
	DestroyMesh(id MeshID)

	// CreateShader compiles a shader variant.
	//
	// Parameters:
	//   - desc: the variant to compile
	//
	// Returns:
	//   - ShaderID: the compiled variant
	//   - error: an error if compilation failed
	CreateShader(desc ShaderDesc) (ShaderID, error)

	// DestroyShader releases a shader variant.
	DestroyShader(id ShaderID)

	// CreateTexture uploads an RGBA8 texture.
	//
	// Parameters:
	//   - data: the pixels and dimensions
	//
	// Returns:
	//   - TextureID: the new texture
	//   - error: an error if the upload failed
	CreateTexture(data common.TextureStagingData) (TextureID, error)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// CreateInstance allocates an instance slot in the scene.
	CreateInstance() InstanceID

	// SetInstance replaces an instance's description.
	SetInstance(id InstanceID, desc InstanceDesc)

	// DestroyInstance removes an instance from the scene.
	DestroyInstance(id InstanceID)

	// SetViewPerspective sets the camera used by the next Draw.
	//
	// Parameters:
	//   - view: the world-to-view matrix
	//   - fovRadians: vertical field of view
	//   - near: near plane distance
	//   - far: far plane distance
	SetViewPerspective(view mgl32.Mat4, fovRadians, near, far float32)

	// SetLights replaces the scene lights used by the next Draw.
	SetLights(lights []light.Light)

	// Resize reconfigures the output surface.
	Resize(width, height int)

	// Draw renders every instance and presents the result.
	//
	// Parameters:
	//   - vsync: wait for vertical blank before presenting
	//
	// Returns:
	//   - error: an error if the frame could not be rendered
	Draw(vsync bool) error
}
