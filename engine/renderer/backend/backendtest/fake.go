// Package backendtest provides a recording in-memory backend for tests.
package backendtest

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is the recorded state of one fake mesh.
type Mesh struct {
	Flags        backend.MeshFlags
	Uploads      int
	VertexCount  uint32
	VertexStride uint32
	IndexCount   int
	Vertices     []byte
}

// Backend records every call it receives. It is safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	nextID uint32

	Meshes    map[backend.MeshID]*Mesh
	Shaders   map[backend.ShaderID]backend.ShaderDesc
	Textures  map[backend.TextureID]common.TextureStagingData
	Instances map[backend.InstanceID]backend.InstanceDesc

	MeshCreates      int
	MeshUploads      int
	MeshDestroys     int
	ShaderCreates    int
	TextureCreates   int
	InstanceCreates  int
	InstanceDestroys int
	Draws            int

	View   mgl32.Mat4
	Fov    float32
	Lights []light.Light
	VSync  []bool

	// FailShaders makes CreateShader return an error.
	FailShaders bool
}

var _ backend.Backend = &Backend{}

// New creates an empty recording backend.
func New() *Backend {
	return &Backend{
		Meshes:    make(map[backend.MeshID]*Mesh),
		Shaders:   make(map[backend.ShaderID]backend.ShaderDesc),
		Textures:  make(map[backend.TextureID]common.TextureStagingData),
		Instances: make(map[backend.InstanceID]backend.InstanceDesc),
	}
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

func (b *Backend) CreateMesh(flags backend.MeshFlags) backend.MeshID {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := backend.MeshID(b.id())
	b.Meshes[id] = &Mesh{Flags: flags}
	b.MeshCreates++
	return id
}

func (b *Backend) SetMesh(id backend.MeshID, vertices []byte, vertexCount, vertexStride uint32, indices []uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.Meshes[id]
	if !ok {
		return errors.New("unknown mesh")
	}
	m.Uploads++
	m.VertexCount = vertexCount
	m.VertexStride = vertexStride
	m.IndexCount = len(indices)
	m.Vertices = append(m.Vertices[:0], vertices...)
	b.MeshUploads++
	return nil
}

func (b *Backend) DestroyMesh(id backend.MeshID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Meshes, id)
	b.MeshDestroys++
}

func (b *Backend) CreateShader(desc backend.ShaderDesc) (backend.ShaderID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailShaders {
		return 0, errors.New("shader compilation failed")
	}
	id := backend.ShaderID(b.id())
	b.Shaders[id] = desc
	b.ShaderCreates++
	return id, nil
}

func (b *Backend) DestroyShader(id backend.ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Shaders, id)
}

func (b *Backend) CreateTexture(data common.TextureStagingData) (backend.TextureID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := backend.TextureID(b.id())
	b.Textures[id] = data
	b.TextureCreates++
	return id, nil
}

func (b *Backend) DestroyTexture(id backend.TextureID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Textures, id)
}

func (b *Backend) CreateInstance() backend.InstanceID {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := backend.InstanceID(b.id())
	b.Instances[id] = backend.InstanceDesc{}
	b.InstanceCreates++
	return id
}

func (b *Backend) SetInstance(id backend.InstanceID, desc backend.InstanceDesc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Instances[id] = desc
}

func (b *Backend) DestroyInstance(id backend.InstanceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Instances, id)
	b.InstanceDestroys++
}

func (b *Backend) SetViewPerspective(view mgl32.Mat4, fovRadians, near, far float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.View = view
	b.Fov = fovRadians
}

func (b *Backend) SetLights(lights []light.Light) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Lights = append([]light.Light(nil), lights...)
}

func (b *Backend) Resize(width, height int) {}

func (b *Backend) Draw(vsync bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Draws++
	b.VSync = append(b.VSync, vsync)
	return nil
}

// Mesh returns a copy of the recorded state of a mesh, or nil if it does not exist.
func (b *Backend) Mesh(id backend.MeshID) *Mesh {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.Meshes[id]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// Instance returns the last description set on an instance.
func (b *Backend) Instance(id backend.InstanceID) (backend.InstanceDesc, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.Instances[id]
	return d, ok
}
