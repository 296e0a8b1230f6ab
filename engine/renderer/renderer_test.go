package renderer

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/mods"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// programColor reads one vertex color input: 10 floats per vertex.
	programColor uint32 = 1
	// programTextured samples tile 0: 9 floats per vertex.
	programTextured uint32 = 5
)

func triangle(floatsPerVertex int, seed float32) []float32 {
	v := make([]float32, 3*floatsPerVertex)
	for i := range v {
		v[i] = seed + float32(i)
	}
	return v
}

func newTestRenderer(t *testing.T, opts ...RendererBuilderOption) (*renderer, *backendtest.Backend, *timing.FakeClock) {
	t.Helper()
	b := backendtest.New()
	clock := timing.NewFakeClock(time.Unix(1000, 0), time.Millisecond)
	base := []RendererBuilderOption{WithPreload(nil), WithClock(clock), WithTickDuration(100 * time.Millisecond)}
	r, err := NewRenderer(b, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r.(*renderer), b, clock
}

func reflection(f float32) *mods.Mod {
	m := mods.New()
	m.Material = &material.Material{Enabled: material.AttributeReflectionFactor, ReflectionFactor: f}
	return m
}

func TestBackgroundFlagUntilFirstPerspectiveDraw(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	r.StartFrame()
	r.SelectProgram(programColor)
	require.NoError(t, r.DrawTrianglesOrtho(triangle(10, 0), 1, false))
	require.NoError(t, r.DrawTrianglesPersp(triangle(10, 1), 1, mgl32.Ident4(), true))
	require.NoError(t, r.DrawTrianglesOrtho(triangle(10, 2), 1, false))

	inst := r.current.Instances
	require.Len(t, inst, 3)
	assert.Equal(t, backend.InstanceBackground, inst[0].Desc.Flags)
	assert.Equal(t, backend.InstanceDoubleSided, inst[1].Desc.Flags)
	assert.Zero(t, inst[2].Desc.Flags)
	for i, in := range inst {
		assert.Equal(t, uint32(i), in.Key.Ordinal)
	}
	r.EndFrame()

	r.StartFrame()
	require.NoError(t, r.DrawTrianglesOrtho(triangle(10, 0), 1, false))
	assert.Equal(t, backend.InstanceBackground, r.current.Instances[0].Desc.Flags)
	r.EndFrame()
}

func TestDrawRequiresFrameAndProgram(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	r.SelectProgram(programColor)
	assert.Panics(t, func() { _ = r.DrawTrianglesOrtho(triangle(10, 0), 1, false) })

	r2, _, _ := newTestRenderer(t)
	r2.StartFrame()
	assert.Panics(t, func() { _ = r2.DrawTrianglesOrtho(triangle(10, 0), 1, false) })
}

func TestMaxInstancesPanics(t *testing.T) {
	r, _, _ := newTestRenderer(t, WithMaxInstances(1))
	r.StartFrame()
	r.SelectProgram(programColor)
	require.NoError(t, r.DrawTrianglesOrtho(triangle(10, 0), 1, false))
	assert.Panics(t, func() { _ = r.DrawTrianglesOrtho(triangle(10, 1), 1, false) })
}

func TestTextureModAndHighlight(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	id := r.NewTexture("stone")
	hash := texture.NameHash("stone")
	r.Mods().SetTextureMod(hash, reflection(0.75))

	r.StartFrame()
	r.SelectProgram(programTextured)
	r.SelectTexture(0, id)
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 0), 1, mgl32.Ident4(), false))

	inst := r.current.Instances[0]
	assert.Equal(t, float32(0.75), inst.Desc.Material.ReflectionFactor)
	assert.True(t, inst.Diffuse.Set)
	assert.Equal(t, id, inst.Diffuse.ID)
	assert.Equal(t, hash, inst.TextureHash)

	r.SetPickedTexture(hash)
	r.SetTextureHighlight(true)
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 0), 1, mgl32.Ident4(), false))
	hl := r.current.Instances[1].Desc.Material
	assert.Equal(t, mgl32.Vec4{1, 0, 1, 0.5}, hl.DiffuseColorMix)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, hl.SelfLight)
	assert.Equal(t, float32(0.75), hl.ReflectionFactor)

	r.SetTextureHighlight(false)
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 0), 1, mgl32.Ident4(), false))
	assert.Equal(t, material.Default().DiffuseColorMix, r.current.Instances[2].Desc.Material.DiffuseColorMix)
	r.EndFrame()
}

func TestNodeModLayersUnderTextureMod(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	node := mods.New()
	node.Material = &material.Material{
		Enabled:          material.AttributeReflectionFactor | material.AttributeSpecularExponent,
		ReflectionFactor: 0.1,
		SpecularExponent: 9,
	}
	r.Mods().SetLayoutMod("castle", node)
	r.RegisterLayoutGraphNode("castle", 4)
	id := r.NewTexture("brick")
	r.Mods().SetTextureMod(texture.NameHash("brick"), reflection(0.5))

	r.StartFrame()
	r.SetGraphNodeMod(r.BuildGraphNodeMod(4, mgl32.Ident4()))
	r.SelectProgram(programTextured)
	r.SelectTexture(0, id)
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 0), 1, mgl32.Ident4(), false))

	m := r.current.Instances[0].Desc.Material
	assert.Equal(t, float32(0.5), m.ReflectionFactor)
	assert.Equal(t, float32(9), m.SpecularExponent)
	r.EndFrame()

	r.StartFrame()
	assert.Nil(t, r.nodeMod)
	r.EndFrame()
}

func TestFogFollowsProgram(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	r.StartFrame()
	r.SetFog(255, 0, 51, 100, -50)
	r.SelectProgram(programColor | shader.OptFog)
	require.NoError(t, r.DrawTrianglesPersp(triangle(10, 0), 1, mgl32.Ident4(), false))
	r.SelectProgram(programColor)
	require.NoError(t, r.DrawTrianglesPersp(triangle(10, 0), 1, mgl32.Ident4(), false))

	fogged := r.current.Instances[0].Desc.Material
	assert.True(t, fogged.FogEnabled)
	assert.InDelta(t, 1, fogged.FogColor.X(), 1e-6)
	assert.InDelta(t, 0.2, fogged.FogColor.Z(), 1e-6)
	assert.Equal(t, float32(100), fogged.FogMul)
	assert.Equal(t, float32(-50), fogged.FogOffset)
	assert.False(t, r.current.Instances[1].Desc.Material.FogEnabled)
	r.EndFrame()
}

func TestShaderVariantsCompiledOnce(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	id := r.NewTexture("grass")
	r.StartFrame()
	r.SelectProgram(programTextured)
	r.SelectTexture(0, id)
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 0), 1, mgl32.Ident4(), false))
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 5), 1, mgl32.Ident4(), false))
	assert.Equal(t, 1, b.ShaderCreates)
	assert.Equal(t, r.current.Instances[0].Desc.Shader, r.current.Instances[1].Desc.Shader)

	r.SetSamplerParams(0, true, 2, 0)
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 0), 1, mgl32.Ident4(), false))
	assert.Equal(t, 2, b.ShaderCreates)
	require.NoError(t, r.DrawTrianglesOrtho(triangle(9, 0), 1, false))
	assert.Equal(t, 3, b.ShaderCreates)
	r.EndFrame()
}

func TestShaderFailureIsReturned(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	b.FailShaders = true
	r.StartFrame()
	r.SelectProgram(programColor)
	assert.Error(t, r.DrawTrianglesOrtho(triangle(10, 0), 1, false))
}

func TestPresentResizesInstancePool(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	r.SelectProgram(programColor)

	r.StartFrame()
	for i := range 3 {
		require.NoError(t, r.DrawTrianglesPersp(triangle(10, float32(i)), 1, mgl32.Ident4(), false))
	}
	r.EndFrame()
	require.NoError(t, r.Present(true))
	assert.Equal(t, 3, b.InstanceCreates)
	assert.Len(t, r.instances, 3)

	r.StartFrame()
	require.NoError(t, r.DrawTrianglesPersp(triangle(10, 0), 1, mgl32.Ident4(), false))
	r.EndFrame()
	require.NoError(t, r.Present(false))
	assert.Equal(t, 2, b.InstanceDestroys)
	assert.Len(t, r.instances, 1)
	assert.Equal(t, []bool{true, false}, b.VSync)

	stats := r.Stats()
	assert.Equal(t, uint64(2), stats.Seq)
	assert.Equal(t, 1, stats.Instances)
	assert.Equal(t, len(light.DefaultAreaLights()), stats.Lights)
}

func TestPresentKeepsGeometryOfPublishedFrame(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	r.SelectProgram(programColor)
	first, second := triangle(10, 0), triangle(10, 100)

	r.StartFrame()
	require.NoError(t, r.DrawTrianglesPersp(first, 1, mgl32.Ident4(), false))
	r.EndFrame()
	require.NoError(t, r.Present(true))

	// The next tick records same-shape geometry while frame 1 is still the newest.
	r.StartFrame()
	require.NoError(t, r.DrawTrianglesPersp(second, 1, mgl32.Ident4(), false))
	require.NoError(t, r.Present(true))

	require.Len(t, r.instances, 1)
	desc, ok := b.Instance(r.instances[0])
	require.True(t, ok)
	assert.Equal(t, common.SliceToBytes(first), b.Mesh(desc.Mesh).Vertices)
	r.EndFrame()
	require.NoError(t, r.Present(true))

	r.StartFrame()
	require.NoError(t, r.DrawTrianglesPersp(second, 1, mgl32.Ident4(), false))
	r.EndFrame()

	// Frame 1 has left the pipeline, so its mesh is free for new geometry.
	r.StartFrame()
	third := triangle(10, 200)
	require.NoError(t, r.DrawTrianglesPersp(third, 1, mgl32.Ident4(), false))
	r.EndFrame()
	assert.Equal(t, 2, b.MeshCreates)
	require.NoError(t, r.Present(true))
	desc, ok = b.Instance(r.instances[0])
	require.True(t, ok)
	assert.Equal(t, common.SliceToBytes(third), b.Mesh(desc.Mesh).Vertices)
}

func TestPresentWithoutFramesStillDraws(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	require.NoError(t, r.Present(true))
	assert.Equal(t, 1, b.Draws)
	assert.Zero(t, b.InstanceCreates)
}

func TestPresentResolvesUploadedTextures(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	id := r.NewTexture("wood")
	r.StartFrame()
	r.SelectProgram(programTextured)
	r.SelectTexture(0, id)
	require.NoError(t, r.DrawTrianglesPersp(triangle(9, 0), 1, mgl32.Ident4(), false))
	r.EndFrame()

	require.NoError(t, r.Present(true))
	desc, ok := b.Instance(r.instances[0])
	require.True(t, ok)
	assert.Zero(t, desc.Diffuse)

	r.UploadTexture(make([]byte, 4*2*2), 2, 2)
	require.NoError(t, r.Present(true))
	desc, _ = b.Instance(r.instances[0])
	assert.NotZero(t, desc.Diffuse)
	assert.Equal(t, 1, b.TextureCreates)

	h, ok := r.TextureHashAt(0)
	require.True(t, ok)
	assert.Equal(t, texture.NameHash("wood"), h)
	_, ok = r.TextureHashAt(1)
	assert.False(t, ok)
}

func TestPresentInterpolatesBetweenTicks(t *testing.T) {
	r, b, clock := newTestRenderer(t)
	r.SelectProgram(programColor)
	verts := triangle(10, 0)

	r.StartFrame()
	r.SetCameraMatrix(mgl32.Ident4())
	require.NoError(t, r.DrawTrianglesPersp(verts, 1, mgl32.Translate3D(0, 0, 0), false))
	r.EndFrame()
	clock.Advance(100 * time.Millisecond)

	r.StartFrame()
	r.SetCameraMatrix(mgl32.Translate3D(0, 4, 0))
	require.NoError(t, r.DrawTrianglesPersp(verts, 1, mgl32.Translate3D(10, 0, 0), false))
	r.EndFrame()

	clock.Advance(50 * time.Millisecond)
	require.NoError(t, r.Present(true))
	desc, _ := b.Instance(r.instances[0])
	assert.InDelta(t, 5, desc.Transform.Col(3).X(), 1e-4)
	assert.InDelta(t, 2, b.View.Col(3).Y(), 1e-4)

	clock.Advance(time.Second)
	require.NoError(t, r.Present(true))
	desc, _ = b.Instance(r.instances[0])
	assert.InDelta(t, 10, desc.Transform.Col(3).X(), 1e-4)
}

func TestNodeLightsComposedAndReset(t *testing.T) {
	r, b, _ := newTestRenderer(t)
	lamp := mods.New()
	lamp.Light = &light.Light{AttenuationRadius: 100, DiffuseColor: mgl32.Vec3{1, 1, 0}}
	r.Mods().SetLayoutMod("lamp", lamp)
	r.RegisterLayoutGraphNode("lamp", 9)
	defaults := len(light.DefaultAreaLights())

	r.StartFrame()
	require.NotNil(t, r.BuildGraphNodeMod(9, mgl32.Translate3D(1, 2, 3)))
	r.EndFrame()
	require.NoError(t, r.Present(true))
	require.Len(t, b.Lights, defaults+1)
	assert.InDelta(t, 2, b.Lights[defaults].Position.Y(), 1e-5)

	r.ResetLogicFrame()
	r.StartFrame()
	r.EndFrame()
	require.NoError(t, r.Present(true))
	assert.Len(t, b.Lights, defaults)
}

func TestRegisterLayoutGraphNodeReplaces(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	r.Mods().SetLayoutMod("a", reflection(1))
	r.Mods().SetLayoutMod("b", reflection(2))

	r.RegisterLayoutGraphNode("a", 1)
	first, ok := r.Mods().NodeMod(1)
	require.True(t, ok)
	r.RegisterLayoutGraphNode("b", 1)
	second, ok := r.Mods().NodeMod(1)
	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.Equal(t, float32(2), second.Material.ReflectionFactor)

	r.RegisterLayoutGraphNode("a", 0)
	assert.Equal(t, 1, r.Mods().NodeCount())
}

func TestPickedTextureModCreatedAtEndFrame(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	r.NewTexture("metal")
	h := texture.NameHash("metal")
	r.SetPickedTexture(h)
	assert.Equal(t, h, r.PickedTexture())

	r.StartFrame()
	r.EndFrame()
	m, ok := r.Mods().TextureMod(h)
	require.True(t, ok)
	assert.NotNil(t, m.Material)
	assert.Same(t, m, r.PickedTextureMod())

	r.SetPickedTexture(0)
	assert.Nil(t, r.PickedTextureMod())
}

func TestRequestSaveWritesModsAndReloads(t *testing.T) {
	files := mods.DefaultFiles(t.TempDir())
	r, _, _ := newTestRenderer(t, WithModFiles(files))
	r.NewTexture("lava")
	r.SetPickedTexture(texture.NameHash("lava"))
	m := r.PickedTextureMod()
	m.Material.Enabled |= material.AttributeSelfLight
	m.Material.SelfLight = mgl32.Vec3{1, 0.5, 0}
	r.SetLevel(2, 1)

	r.RequestSave()
	r.StartFrame()
	r.EndFrame()

	loaded, _, _ := newTestRenderer(t, WithModFiles(files))
	got, ok := loaded.Mods().TextureMod(texture.NameHash("lava"))
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, got.Material.SelfLight)

	loaded.SetLevel(2, 1)
	require.NoError(t, loaded.levels.SetArea(2, 1, nil))
	require.NoError(t, r.SaveMods())
	loaded.ReloadMods(mods.Files{LevelLights: files.LevelLights})
	loaded.StartFrame()
	level, area := loaded.levels.Selected()
	assert.Equal(t, 2, level)
	assert.Equal(t, 1, area)
	lights, err := loaded.levels.Area(2, 1)
	require.NoError(t, err)
	assert.Len(t, lights, len(light.DefaultAreaLights()))
	loaded.EndFrame()
}
