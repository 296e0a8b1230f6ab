package renderer

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/frame"
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/metrics"
	"github.com/Carmen-Shannon/oxy-rt/engine/mods"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/mesh"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultMaxInstances is the largest number of instances one frame may record.
const DefaultMaxInstances = 1024

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend backend.Backend
	logger  *zap.Logger

	names    *texture.NameTable
	textures *texture.Table
	shaders  *shader.Registry
	meshes   *mesh.Cache
	store    *mods.Store
	pipeline *frame.Pipeline
	interp   *frame.Interpolator
	clock    timing.Clock

	// configuration collected from builder options
	meshOpts     []mesh.CacheBuilderOption
	storeOpts    []mods.StoreBuilderOption
	preload      []shader.PreloadEntry
	files        mods.Files
	maxInstances int
	frameSlots   int
	workers      int
	tick         time.Duration

	// simulation side
	current      *frame.Frame
	program      *shader.Program
	levels       *light.Levels
	dynamic      *light.Dynamic
	camera       frame.Camera
	invView      mgl32.Mat4
	scissor      common.Rect
	viewport     common.Rect
	fogColor     mgl32.Vec3
	fogMul       float32
	fogOffset    float32
	background   bool
	nodeMod      *mods.Mod
	displayList  uint32
	ordinals     map[uint32]uint32
	pendingLevel atomic.Pointer[light.Levels]
	saveNext     atomic.Bool

	// shared with the window goroutine
	picked    atomic.Uint64
	highlight atomic.Bool

	// render side
	renderMu   sync.Mutex
	instances  []backend.InstanceID
	lastHashes []texture.Hash
	lastSeq    uint64
	lastLights int
}

// Stats describes the last presented frame.
type Stats struct {
	Seq       uint64
	Instances int
	Lights    int
	// Frames is the number of frame buffers the pipeline has allocated.
	Frames int
}

// Renderer is the draw submission surface of the bridge.
//
// A command stream drives it from a single simulation goroutine: StartFrame, any number of state and draw
// calls, EndFrame. Completed frames are handed to the render side, where Present blends the two most recent
// frames and submits them to the backend. Present runs on its own goroutine.
type Renderer interface {
	// NewTexture registers a texture under its logical name and returns its id.
	NewTexture(name string) uint32

	// SelectTexture binds texture id to tile (0 or 1) and makes the tile current.
	SelectTexture(tile int, id uint32)

	// UploadTexture queues RGBA8 pixels for the texture bound to the current tile. The backend texture is
	// created on the render timeline.
	UploadTexture(rgba []byte, width, height uint32)

	// SetSamplerParams records the filter and clamp/mirror bits of the texture bound to tile.
	SetSamplerParams(tile int, linear bool, cms, cmt uint32)

	// SelectProgram makes the combiner program id current for following draws.
	SelectProgram(id uint32)

	// SetViewport sets the viewport rectangle of following draws.
	SetViewport(x, y, width, height int32)

	// SetScissor sets the scissor rectangle of following draws.
	SetScissor(x, y, width, height int32)

	// SetFog sets the fog color and depth factors copied into every following material.
	SetFog(r, g, b uint8, mul, offset int16)

	// SetCameraPerspective sets the projection from a vertical field of view in degrees.
	SetCameraPerspective(fovDegrees, near, far float32)

	// SetCameraMatrix sets the view matrix.
	SetCameraMatrix(view mgl32.Mat4)

	// SetDisplayList groups following draws for interpolation matching.
	SetDisplayList(id uint32)

	// DrawTrianglesOrtho records screen-space triangles. Before the first perspective draw of a frame they
	// are background geometry.
	//
	// Parameters:
	//   - vertices: interleaved vertex floats in the current program's layout
	//   - numTris: the number of triangles in vertices
	//   - doubleSided: disables backface culling
	//
	// Returns:
	//   - error: if the shader variant or mesh could not be created
	DrawTrianglesOrtho(vertices []float32, numTris int, doubleSided bool) error

	// DrawTrianglesPersp records world-space triangles placed by transform.
	//
	// Parameters:
	//   - vertices: interleaved vertex floats in the current program's layout
	//   - numTris: the number of triangles in vertices
	//   - transform: the instance's model transform
	//   - doubleSided: disables backface culling
	//
	// Returns:
	//   - error: if the shader variant or mesh could not be created
	DrawTrianglesPersp(vertices []float32, numTris int, transform mgl32.Mat4, doubleSided bool) error

	// RegisterLayoutGraphNode rebuilds node's override from the geometry layout's override. Any previous
	// override for node is discarded.
	RegisterLayoutGraphNode(layout string, node mods.NodeID)

	// BuildGraphNodeMod returns node's override and adds its light, placed by modelview, to the tick's
	// dynamic lights.
	BuildGraphNodeMod(node mods.NodeID, modelview mgl32.Mat4) *mods.Mod

	// SetGraphNodeMod makes m the node-scope override of following draws. nil clears it.
	SetGraphNodeMod(m *mods.Mod)

	// SetLevel selects the level lighting area.
	SetLevel(level, area int)

	// StartFrame begins recording a frame and ages the mesh cache.
	StartFrame()

	// EndFrame composes the frame's lights and publishes it to the render side.
	EndFrame()

	// ResetLogicFrame clears the dynamic lights after a simulation tick.
	ResetLogicFrame()

	// SetPickedTexture marks the texture whose name hash is h as picked. Zero clears the pick.
	SetPickedTexture(h texture.Hash)

	// PickedTexture returns the picked texture hash.
	PickedTexture() texture.Hash

	// SetTextureHighlight tints every instance drawn with the picked texture.
	SetTextureHighlight(on bool)

	// PickedTextureMod returns the editable override of the picked texture, creating it if needed.
	PickedTextureMod() *mods.Mod

	// SaveMods writes the layout mods, texture mods and level lights. It must be called from the simulation
	// goroutine; other goroutines use RequestSave.
	SaveMods() error

	// RequestSave saves the mods at the end of the current frame.
	RequestSave()

	// ReloadMods re-reads changed mod files. Safe to call from any goroutine.
	ReloadMods(changed mods.Files)

	// Mods returns the override store.
	Mods() *mods.Store

	// Present draws the latest published frames, blended for the current time.
	//
	// Parameters:
	//   - vsync: wait for vertical blank
	//
	// Returns:
	//   - error: if the backend failed to draw
	Present(vsync bool) error

	// Stats describes the last presented frame.
	Stats() Stats

	// TextureHashAt returns the diffuse texture hash of instance i in the last presented frame.
	TextureHashAt(i int) (texture.Hash, bool)

	// Resize reconfigures the backend surface.
	Resize(width, height int)

	// Release destroys every backend object the renderer created.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer submitting to b. The shader variants named by WithPreload are compiled and
// the mod files named by WithModFiles are loaded before it returns.
//
// Parameters:
//   - b: the rendering backend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: if preloading a shader variant failed
func NewRenderer(b backend.Backend, options ...RendererBuilderOption) (Renderer, error) {
	if b == nil {
		panic("renderer requires a backend")
	}
	r := &renderer{
		backend:      b,
		logger:       zap.NewNop(),
		preload:      shader.DefaultPreload,
		maxInstances: DefaultMaxInstances,
		frameSlots:   frame.DefaultSlots,
		workers:      frame.DefaultWorkers,
		tick:         time.Second / timing.DefaultTickRate,
		clock:        timing.RealClock{},
		camera:       frame.DefaultCamera(),
		invView:      mgl32.Ident4(),
		fogColor:     mgl32.Vec3{1, 1, 1},
		ordinals:     make(map[uint32]uint32),
		dynamic:      light.NewDynamic(light.MaxDynamicLights),
	}
	for _, opt := range options {
		opt(r)
	}

	r.names = texture.NewNameTable()
	r.textures = texture.NewTable(r.names, texture.WithLogger(r.logger))
	r.shaders = shader.NewRegistry(b, shader.WithLogger(r.logger))
	r.pipeline = frame.NewPipeline(r.clock, frame.WithSlots(r.frameSlots), frame.WithLogger(r.logger))
	r.meshes = mesh.NewCache(b, append([]mesh.CacheBuilderOption{
		mesh.WithLogger(r.logger),
		mesh.WithLiveFrames(r.pipeline),
	}, r.meshOpts...)...)
	r.store = mods.NewStore(r.names, append([]mods.StoreBuilderOption{mods.WithLogger(r.logger)}, r.storeOpts...)...)
	r.interp = frame.NewInterpolator(frame.WithWorkers(r.workers), frame.WithInterpolatorLogger(r.logger))

	if err := r.shaders.Preload(r.preload); err != nil {
		return nil, fmt.Errorf("failed to preload shader variants: %w", err)
	}
	r.levels = r.store.LoadAll(r.files)
	return r, nil
}

func (r *renderer) NewTexture(name string) uint32 {
	return r.textures.NewTexture(name)
}

func (r *renderer) SelectTexture(tile int, id uint32) {
	r.textures.Select(tile, id)
}

func (r *renderer) UploadTexture(rgba []byte, width, height uint32) {
	r.textures.Upload(rgba, width, height)
}

func (r *renderer) SetSamplerParams(tile int, linear bool, cms, cmt uint32) {
	r.textures.SetSamplerParams(tile, linear, cms, cmt)
}

func (r *renderer) SelectProgram(id uint32) {
	r.program = r.shaders.Program(id)
}

func (r *renderer) SetViewport(x, y, width, height int32) {
	r.viewport = common.Rect{X: x, Y: y, W: width, H: height}
}

func (r *renderer) SetScissor(x, y, width, height int32) {
	r.scissor = common.Rect{X: x, Y: y, W: width, H: height}
}

func (r *renderer) SetFog(red, green, blue uint8, mul, offset int16) {
	r.fogColor = mgl32.Vec3{float32(red) / 255, float32(green) / 255, float32(blue) / 255}
	r.fogMul = float32(mul)
	r.fogOffset = float32(offset)
}

func (r *renderer) SetCameraPerspective(fovDegrees, near, far float32) {
	r.camera.FovRadians = fovDegrees / 180 * math.Pi
	r.camera.Near = near
	r.camera.Far = far
}

func (r *renderer) SetCameraMatrix(view mgl32.Mat4) {
	r.camera.View = view
	r.invView = common.InverseOrIdentity(view)
}

func (r *renderer) SetDisplayList(id uint32) {
	r.displayList = id
}

func (r *renderer) DrawTrianglesOrtho(vertices []float32, numTris int, doubleSided bool) error {
	return r.drawTriangles(mgl32.Ident4(), vertices, numTris, doubleSided, false)
}

func (r *renderer) DrawTrianglesPersp(vertices []float32, numTris int, transform mgl32.Mat4, doubleSided bool) error {
	r.background = false
	return r.drawTriangles(transform, vertices, numTris, doubleSided, true)
}

// drawTriangles records one instance: it layers the node and texture overrides onto the default material,
// resolves the shader variant and runs the vertices through the mesh cache.
func (r *renderer) drawTriangles(transform mgl32.Mat4, vertices []float32, numTris int, doubleSided, raytrace bool) error {
	if r.current == nil {
		panic("draw outside StartFrame/EndFrame")
	}
	if r.program == nil {
		panic("draw without a selected shader program")
	}
	if len(r.current.Instances) >= r.maxInstances {
		panic(fmt.Sprintf("instance pool overflow: max %d instances per frame", r.maxInstances))
	}

	ordinal := r.ordinals[r.displayList]
	r.ordinals[r.displayList] = ordinal + 1
	inst := frame.Instance{
		Key: frame.Key{DisplayList: r.displayList, Ordinal: ordinal},
		Desc: backend.InstanceDesc{
			Transform: transform,
			Scissor:   r.scissor,
			Viewport:  r.viewport,
		},
	}

	var (
		filter      = backend.FilterPoint
		cms, cmt    uint32
		texMod      *mods.Mod
		highlighted bool
	)
	if r.program.UsesTexture(0) {
		if rec, ok := r.textures.TileRecord(r.textures.CurrentTile()); ok {
			filter, cms, cmt = rec.Filter(), rec.CMS, rec.CMT
			inst.Diffuse = frame.Ref(rec.ID)
			inst.TextureHash = rec.Hash
			_, texMod = r.store.TextureLookup(rec.Hash)
			if r.highlight.Load() && uint64(rec.Hash) == r.picked.Load() {
				highlighted = true
			}
		}
	}

	res := mods.NewResolution()
	res.Layer(r.nodeMod, transform, nil)
	res.Layer(texMod, transform, r.dynamic)
	if highlighted {
		res.Highlight()
	}
	inst.Interpolate = res.Interpolate

	mat := res.Material
	mat.FogColor = r.fogColor
	mat.FogMul = r.fogMul
	mat.FogOffset = r.fogOffset
	mat.FogEnabled = r.program.UsesFog()
	inst.Desc.Material = mat

	normalMap, specularMap := false, false
	if res.NormalMap != 0 {
		if id, ok := r.textures.IDForHash(res.NormalMap); ok {
			inst.Normal = frame.Ref(id)
			normalMap = true
		}
	}
	if res.SpecularMap != 0 {
		if id, ok := r.textures.IDForHash(res.SpecularMap); ok {
			inst.Specular = frame.Ref(id)
			specularMap = true
		}
	}

	key := shader.NewVariantKey(raytrace, filter, backend.AddressingFromTileBits(cms), backend.AddressingFromTileBits(cmt), normalMap, specularMap)
	sh, err := r.shaders.Variant(r.program, key)
	if err != nil {
		return fmt.Errorf("shader variant %s of program 0x%X: %w", key, r.program.ID(), err)
	}
	inst.Desc.Shader = sh

	m, err := r.meshes.Process(vertices, numTris, r.program.Layout(), raytrace)
	if err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	inst.Desc.Mesh = m

	if r.background {
		inst.Desc.Flags |= backend.InstanceBackground
	}
	if doubleSided {
		inst.Desc.Flags |= backend.InstanceDoubleSided
	}
	r.current.Add(inst)
	return nil
}

func (r *renderer) RegisterLayoutGraphNode(layout string, node mods.NodeID) {
	if node == 0 {
		return
	}
	r.store.RegisterNode(node, layout)
}

func (r *renderer) BuildGraphNodeMod(node mods.NodeID, modelview mgl32.Mat4) *mods.Mod {
	return r.store.BuildNodeMod(node, modelview, r.invView, r.dynamic)
}

func (r *renderer) SetGraphNodeMod(m *mods.Mod) {
	r.nodeMod = m
}

func (r *renderer) SetLevel(level, area int) {
	r.levels.Select(level, area)
}

func (r *renderer) StartFrame() {
	if next := r.pendingLevel.Swap(nil); next != nil {
		level, area := r.levels.Selected()
		next.Select(level, area)
		r.levels = next
	}
	r.meshes.StartFrame()
	r.background = true
	r.nodeMod = nil
	r.displayList = 0
	clear(r.ordinals)
	r.current = r.pipeline.Acquire()
}

func (r *renderer) EndFrame() {
	if r.current == nil {
		return
	}
	f := r.current
	r.current = nil

	f.Camera = r.camera
	f.Lights = append(f.Lights[:0], r.levels.Compose(r.dynamic.Lights())...)
	metrics.Instances.Set(float64(len(f.Instances)))
	metrics.Lights.Set(float64(len(f.Lights)))
	r.pipeline.Publish(f)

	if h := texture.Hash(r.picked.Load()); h != 0 {
		if _, created := r.store.EnsureTextureMod(h); created {
			name, _ := r.names.Name(h)
			r.logger.Info("created texture mod for picked texture", zap.String("texture", name))
		}
	}
	if r.saveNext.Swap(false) {
		_ = r.SaveMods()
	}
}

func (r *renderer) ResetLogicFrame() {
	r.dynamic.Reset()
}

func (r *renderer) SetPickedTexture(h texture.Hash) {
	r.picked.Store(uint64(h))
}

func (r *renderer) PickedTexture() texture.Hash {
	return texture.Hash(r.picked.Load())
}

func (r *renderer) SetTextureHighlight(on bool) {
	r.highlight.Store(on)
}

func (r *renderer) PickedTextureMod() *mods.Mod {
	h := r.PickedTexture()
	if h == 0 {
		return nil
	}
	m, _ := r.store.EnsureTextureMod(h)
	return m
}

func (r *renderer) SaveMods() error {
	return r.store.SaveAll(r.files, r.levels)
}

func (r *renderer) RequestSave() {
	r.saveNext.Store(true)
}

func (r *renderer) ReloadMods(changed mods.Files) {
	if levels := r.store.Reload(changed); levels != nil {
		r.pendingLevel.Store(levels)
	}
}

func (r *renderer) Mods() *mods.Store {
	return r.store
}

func (r *renderer) Resize(width, height int) {
	r.backend.Resize(width, height)
}
