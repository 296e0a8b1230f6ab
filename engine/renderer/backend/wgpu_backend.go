package backend

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const (
	viewUniformSize     = 80
	instanceUniformSize = 192
	depthFormat         = wgpu.TextureFormatDepth24Plus
)

type wgpuMesh struct {
	flags      MeshFlags
	vertex     *wgpu.Buffer
	index      *wgpu.Buffer
	vertexSize uint64
	indexSize  uint64
	indexCount uint32
}

type pipelineKey struct {
	doubleSided bool
	background  bool
}

type wgpuShader struct {
	desc      ShaderDesc
	module    *wgpu.ShaderModule
	sampler   *wgpu.Sampler
	pipelines map[pipelineKey]*wgpu.RenderPipeline
}

type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type textureBindingKey struct {
	shader   ShaderID
	diffuse  TextureID
	normal   TextureID
	specular TextureID
}

type wgpuInstance struct {
	desc       InstanceDesc
	uniform    *wgpu.Buffer
	uniformBG  *wgpu.BindGroup
	textureBG  *wgpu.BindGroup
	textureKey textureBindingKey
}

// WGPUBackend renders the bridge's scene through WebGPU. It rasterizes every instance with its variant's
// pipeline; raytrace-flagged meshes are drawn in world space and raster ones in screen space.
type WGPUBackend struct {
	mu     sync.Mutex
	logger *zap.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat        wgpu.TextureFormat
	width, height        int
	vsync                bool
	sampleCount          MSAASampleCount
	forceFallbackAdapter bool

	msaaTexture          *wgpu.Texture
	msaaView             *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthView            *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	frameLayout    *wgpu.BindGroupLayout
	instanceLayout *wgpu.BindGroupLayout
	textureLayout  *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	viewBuffer     *wgpu.Buffer
	lightBuffer    *wgpu.Buffer
	frameBindGroup *wgpu.BindGroup
	blank          wgpuTexture

	nextID    uint32
	meshes    map[MeshID]*wgpuMesh
	shaders   map[ShaderID]*wgpuShader
	textures  map[TextureID]*wgpuTexture
	instances map[InstanceID]*wgpuInstance

	view mgl32.Mat4
	fov  float32
	near float32
	far  float32
}

var _ Backend = &WGPUBackend{}

// NewWGPUBackend creates a device for the given surface and configures it to width×height.
//
// Parameters:
//   - surfaceDescriptor: the platform surface to present into
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//   - opts: functional options
//
// Returns:
//   - *WGPUBackend: the ready backend
//   - error: an error if no adapter or device could be acquired
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, opts ...WGPUBackendOption) (*WGPUBackend, error) {
	b := &WGPUBackend{
		logger:      zap.NewNop(),
		sampleCount: MSAAOff,
		meshes:      make(map[MeshID]*wgpuMesh),
		shaders:     make(map[ShaderID]*wgpuShader),
		textures:    make(map[TextureID]*wgpuTexture),
		instances:   make(map[InstanceID]*wgpuInstance),
		view:        mgl32.Ident4(),
		fov:         0.75,
		near:        1,
		far:         1000,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Bridge Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if err := b.initSharedResources(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.configureSurfaceLocked(width, height)
	b.mu.Unlock()
	return b, nil
}

func (b *WGPUBackend) initSharedResources() error {
	var err error
	b.frameLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: viewUniformSize},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("frame layout: %w", err)
	}

	b.instanceLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Instance Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: instanceUniformSize},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("instance layout: %w", err)
	}

	textureEntry := func(binding uint32) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		}
	}
	b.textureLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Texture Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0),
			textureEntry(1),
			textureEntry(2),
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("texture layout: %w", err)
	}

	b.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Bridge Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.frameLayout, b.instanceLayout, b.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}

	b.viewBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "View Buffer",
		Size:  viewUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.lightBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Light Buffer",
		Size:  uint64(light.GPULightHeaderSize + light.MaxLights*(&light.GPULight{}).Size()),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.queue.WriteBuffer(b.lightBuffer, 0, light.MarshalLightBuffer(nil, light.MaxLights))

	b.frameBindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Bind Group",
		Layout: b.frameLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.viewBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: b.lightBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("frame bind group: %w", err)
	}

	blank, err := b.uploadTextureLocked("Blank", common.TextureStagingData{
		Pixels: []byte{0xFF, 0xFF, 0xFF, 0xFF},
		Width:  1,
		Height: 1,
	})
	if err != nil {
		return err
	}
	b.blank = *blank
	return nil
}

// Resize reconfigures the surface. A zero dimension (minimized window) is ignored.
func (b *WGPUBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configureSurfaceLocked(width, height)
}

func (b *WGPUBackend) configureSurfaceLocked(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.width, b.height = width, height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	presentMode := wgpu.PresentModeImmediate
	if b.vsync {
		presentMode = wgpu.PresentModeFifo
	}
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.msaaTexture != nil {
		b.msaaView.Release()
		b.msaaTexture.Release()
		b.msaaTexture, b.msaaView = nil, nil
	}
	if b.depthTexture != nil {
		b.depthView.Release()
		b.depthTexture.Release()
	}

	count := uint32(b.sampleCount)
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	var err error
	if count > 1 {
		b.msaaTexture, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaView, err = b.msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	b.depthTexture, err = b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthView, err = b.depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	storeOp := wgpu.StoreOpStore
	if count > 1 {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *WGPUBackend) newID() uint32 {
	b.nextID++
	return b.nextID
}

func (b *WGPUBackend) CreateMesh(flags MeshFlags) MeshID {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := MeshID(b.newID())
	b.meshes[id] = &wgpuMesh{flags: flags}
	return id
}

func (b *WGPUBackend) SetMesh(id MeshID, vertices []byte, vertexCount, vertexStride uint32, indices []uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.meshes[id]
	if !ok {
		return fmt.Errorf("mesh %d does not exist", id)
	}
	if int(vertexCount*vertexStride) > len(vertices) {
		return fmt.Errorf("mesh %d: %d vertices of %d bytes exceed %d byte buffer", id, vertexCount, vertexStride, len(vertices))
	}
	vertexBytes := vertices[:vertexCount*vertexStride]
	indexBytes := common.SliceToBytes(indices)

	var err error
	if m.vertex, m.vertexSize, err = b.ensureBuffer(m.vertex, m.vertexSize, uint64(len(vertexBytes)), wgpu.BufferUsageVertex, "Vertex"); err != nil {
		return err
	}
	if m.index, m.indexSize, err = b.ensureBuffer(m.index, m.indexSize, uint64(len(indexBytes)), wgpu.BufferUsageIndex, "Index"); err != nil {
		return err
	}
	if len(vertexBytes) > 0 {
		b.queue.WriteBuffer(m.vertex, 0, vertexBytes)
	}
	if len(indexBytes) > 0 {
		b.queue.WriteBuffer(m.index, 0, indexBytes)
	}
	m.indexCount = uint32(len(indices))
	return nil
}

// ensureBuffer returns buf if it can hold size bytes, otherwise a replacement. Updatable meshes are
// re-uploaded in place every frame, so buffers only ever grow.
func (b *WGPUBackend) ensureBuffer(buf *wgpu.Buffer, capacity, size uint64, usage wgpu.BufferUsage, label string) (*wgpu.Buffer, uint64, error) {
	size = (size + 3) &^ 3
	if buf != nil && capacity >= size {
		return buf, capacity, nil
	}
	if buf != nil {
		buf.Release()
	}
	if size == 0 {
		return nil, 0, nil
	}
	created, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Buffer",
		Size:  size,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, err
	}
	return created, size, nil
}

func (b *WGPUBackend) DestroyMesh(id MeshID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.meshes[id]
	if !ok {
		return
	}
	if m.vertex != nil {
		m.vertex.Release()
	}
	if m.index != nil {
		m.index.Release()
	}
	delete(b.meshes, id)
}

func (b *WGPUBackend) CreateShader(desc ShaderDesc) (ShaderID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: shaderLabel(desc),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: shaderSource(desc),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("compile %s: %w", shaderLabel(desc), err)
	}
	sampler, err := b.device.CreateSampler(samplerDescriptor(desc))
	if err != nil {
		module.Release()
		return 0, err
	}

	id := ShaderID(b.newID())
	b.shaders[id] = &wgpuShader{
		desc:      desc,
		module:    module,
		sampler:   sampler,
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
	}
	return id, nil
}

func (b *WGPUBackend) DestroyShader(id ShaderID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.shaders[id]
	if !ok {
		return
	}
	for _, p := range s.pipelines {
		p.Release()
	}
	s.sampler.Release()
	s.module.Release()
	delete(b.shaders, id)
}

// pipelineLocked returns the render pipeline for a variant in the given state, creating it on first use.
func (b *WGPUBackend) pipelineLocked(s *wgpuShader, key pipelineKey) (*wgpu.RenderPipeline, error) {
	if p, ok := s.pipelines[key]; ok {
		return p, nil
	}

	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if s.desc.Layout.UseAlpha {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	cull := wgpu.CullModeBack
	if key.doubleSided {
		cull = wgpu.CullModeNone
	}
	depthCompare := wgpu.CompareFunctionLess
	depthWrite := true
	if key.background {
		depthCompare = wgpu.CompareFunctionAlways
		depthWrite = false
	}

	p, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  shaderLabel(s.desc) + " Render Pipeline",
		Layout: b.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     s.module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout(s.desc.Layout)},
		},
		Fragment: &wgpu.FragmentState{
			Module:     s.module,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cull,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: depthWrite,
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return nil, err
	}
	s.pipelines[key] = p
	return p, nil
}

func (b *WGPUBackend) CreateTexture(data common.TextureStagingData) (TextureID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := TextureID(b.newID())
	t, err := b.uploadTextureLocked(fmt.Sprintf("Texture %d", id), data)
	if err != nil {
		return 0, err
	}
	b.textures[id] = t
	return id, nil
}

func (b *WGPUBackend) uploadTextureLocked(label string, data common.TextureStagingData) (*wgpuTexture, error) {
	if data.Width == 0 || data.Height == 0 || len(data.Pixels) < int(data.Width*data.Height*4) {
		return nil, fmt.Errorf("texture %q: %d bytes do not cover %dx%d RGBA", label, len(data.Pixels), data.Width, data.Height)
	}
	extent := wgpu.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuTexture{texture: tex, view: view}, nil
}

func (b *WGPUBackend) DestroyTexture(id TextureID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.textures[id]
	if !ok {
		return
	}
	t.view.Release()
	t.texture.Release()
	delete(b.textures, id)
	for _, inst := range b.instances {
		k := inst.textureKey
		if k.diffuse == id || k.normal == id || k.specular == id {
			b.releaseTextureBindingLocked(inst)
		}
	}
}

func (b *WGPUBackend) CreateInstance() InstanceID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := InstanceID(b.newID())
	inst := &wgpuInstance{}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("Instance %d Uniform", id),
		Size:  instanceUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	inst.uniform = buf
	inst.uniformBG, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("Instance %d Bind Group", id),
		Layout:  b.instanceLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: buf, Size: wgpu.WholeSize}},
	})
	if err != nil {
		panic(err)
	}
	b.instances[id] = inst
	return id
}

func (b *WGPUBackend) SetInstance(id InstanceID, desc InstanceDesc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inst, ok := b.instances[id]
	if !ok {
		return
	}
	inst.desc = desc
	screenSpace := false
	if s, ok := b.shaders[desc.Shader]; ok {
		screenSpace = s.desc.Flags&ShaderRaytrace == 0
	}
	b.queue.WriteBuffer(inst.uniform, 0, marshalInstanceUniform(desc.Transform, screenSpace, desc.Material))
}

func (b *WGPUBackend) DestroyInstance(id InstanceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	inst, ok := b.instances[id]
	if !ok {
		return
	}
	b.releaseTextureBindingLocked(inst)
	inst.uniformBG.Release()
	inst.uniform.Release()
	delete(b.instances, id)
}

func (b *WGPUBackend) releaseTextureBindingLocked(inst *wgpuInstance) {
	if inst.textureBG != nil {
		inst.textureBG.Release()
		inst.textureBG = nil
	}
	inst.textureKey = textureBindingKey{}
}

// textureBindingLocked returns the instance's texture bind group, rebuilding it when its shader or
// textures changed. Missing textures bind the blank texture.
func (b *WGPUBackend) textureBindingLocked(inst *wgpuInstance, s *wgpuShader) (*wgpu.BindGroup, error) {
	key := textureBindingKey{
		shader:   inst.desc.Shader,
		diffuse:  inst.desc.Diffuse,
		normal:   inst.desc.Normal,
		specular: inst.desc.Specular,
	}
	if inst.textureBG != nil && inst.textureKey == key {
		return inst.textureBG, nil
	}
	b.releaseTextureBindingLocked(inst)

	view := func(id TextureID) *wgpu.TextureView {
		if t, ok := b.textures[id]; ok {
			return t.view
		}
		return b.blank.view
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Instance Texture Bind Group",
		Layout: b.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view(key.diffuse)},
			{Binding: 1, TextureView: view(key.normal)},
			{Binding: 2, TextureView: view(key.specular)},
			{Binding: 3, Sampler: s.sampler},
		},
	})
	if err != nil {
		return nil, err
	}
	inst.textureBG = bg
	inst.textureKey = key
	return bg, nil
}

func (b *WGPUBackend) SetViewPerspective(view mgl32.Mat4, fovRadians, near, far float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.view = view
	b.fov = fovRadians
	b.near = near
	b.far = far
}

func (b *WGPUBackend) SetLights(lights []light.Light) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(b.lightBuffer, 0, light.MarshalLightBuffer(lights, light.MaxLights))
}

// Draw encodes one render pass over every instance (background instances first) and presents it.
func (b *WGPUBackend) Draw(vsync bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.width == 0 || b.height == 0 {
		return nil
	}
	if vsync != b.vsync {
		b.vsync = vsync
		b.configureSurfaceLocked(b.width, b.height)
	}

	aspect := float32(b.width) / float32(b.height)
	proj := common.Perspective(b.fov, aspect, b.near, b.far)
	b.queue.WriteBuffer(b.viewBuffer, 0, marshalViewUniform(proj.Mul4(b.view), common.InverseOrIdentity(b.view).Col(3)))

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetBindGroup(0, b.frameBindGroup, nil)

	for _, id := range b.drawOrderLocked() {
		inst := b.instances[id]
		m, okMesh := b.meshes[inst.desc.Mesh]
		s, okShader := b.shaders[inst.desc.Shader]
		if !okMesh || !okShader || m.indexCount == 0 {
			continue
		}
		key := pipelineKey{
			doubleSided: inst.desc.Flags&InstanceDoubleSided != 0,
			background:  inst.desc.Flags&InstanceBackground != 0,
		}
		p, err := b.pipelineLocked(s, key)
		if err != nil {
			b.logger.Warn("pipeline creation failed", zap.String("variant", shaderLabel(s.desc)), zap.Error(err))
			continue
		}
		textures, err := b.textureBindingLocked(inst, s)
		if err != nil {
			b.logger.Warn("texture binding failed", zap.Uint32("instance", uint32(id)), zap.Error(err))
			continue
		}

		vx, vy, vw, vh := clampRect(inst.desc.Viewport, b.width, b.height)
		if vw == 0 || vh == 0 {
			continue
		}

		pass.SetPipeline(p)
		pass.SetBindGroup(1, inst.uniformBG, nil)
		pass.SetBindGroup(2, textures, nil)
		pass.SetScissorRect(clampRect(inst.desc.Scissor, b.width, b.height))
		pass.SetViewport(float32(vx), float32(vy), float32(vw), float32(vh), 0, 1)
		pass.SetVertexBuffer(0, m.vertex, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(m.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(m.indexCount, 1, 0, 0, 0)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.surface.Present()
	return nil
}

// drawOrderLocked lists instances with background instances first, in creation order within each group.
func (b *WGPUBackend) drawOrderLocked() []InstanceID {
	ids := make([]InstanceID, 0, len(b.instances))
	for id := range b.instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		bi := b.instances[ids[i]].desc.Flags&InstanceBackground != 0
		bj := b.instances[ids[j]].desc.Flags&InstanceBackground != 0
		if bi != bj {
			return bi
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Release frees every GPU resource owned by the backend.
func (b *WGPUBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, inst := range b.instances {
		b.releaseTextureBindingLocked(inst)
		inst.uniformBG.Release()
		inst.uniform.Release()
	}
	for _, s := range b.shaders {
		for _, p := range s.pipelines {
			p.Release()
		}
		s.sampler.Release()
		s.module.Release()
	}
	for _, m := range b.meshes {
		if m.vertex != nil {
			m.vertex.Release()
		}
		if m.index != nil {
			m.index.Release()
		}
	}
	for _, t := range b.textures {
		t.view.Release()
		t.texture.Release()
	}
	b.instances = map[InstanceID]*wgpuInstance{}
	b.shaders = map[ShaderID]*wgpuShader{}
	b.meshes = map[MeshID]*wgpuMesh{}
	b.textures = map[TextureID]*wgpuTexture{}
	b.blank.view.Release()
	b.blank.texture.Release()
	b.frameBindGroup.Release()
	b.viewBuffer.Release()
	b.lightBuffer.Release()
	if b.device != nil {
		b.device.Release()
	}
	b.surface.Release()
	b.adapter.Release()
	b.instance.Release()
}

// clampRect converts a rect into surface-bounded scissor/viewport arguments. An empty rect covers the surface.
func clampRect(r common.Rect, width, height int) (x, y, w, h uint32) {
	if r.W <= 0 || r.H <= 0 {
		return 0, 0, uint32(width), uint32(height)
	}
	x0 := min(max(int(r.X), 0), width)
	y0 := min(max(int(r.Y), 0), height)
	x1 := min(max(int(r.X+r.W), x0), width)
	y1 := min(max(int(r.Y+r.H), y0), height)
	return uint32(x0), uint32(y0), uint32(x1 - x0), uint32(y1 - y0)
}

func putFloats(dst []byte, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// marshalViewUniform lays out the frame's View uniform: view_proj then camera_pos.
func marshalViewUniform(viewProj mgl32.Mat4, cameraPos mgl32.Vec4) []byte {
	buf := make([]byte, viewUniformSize)
	putFloats(buf[0:64], viewProj[:]...)
	putFloats(buf[64:80], cameraPos[:]...)
	return buf
}

// marshalInstanceUniform lays out an Instance uniform: model, screen_space flag, then the GPU material.
func marshalInstanceUniform(transform mgl32.Mat4, screenSpace bool, m material.Material) []byte {
	buf := make([]byte, instanceUniformSize)
	putFloats(buf[0:64], transform[:]...)
	if screenSpace {
		binary.LittleEndian.PutUint32(buf[64:68], 1)
	}
	gpu := material.ToGPUMaterial(m)
	copy(buf[80:], gpu.Marshal())
	return buf
}
