package mods

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func reflectionMod(f float32) *Mod {
	m := New()
	m.Material = &material.Material{Enabled: material.AttributeReflectionFactor, ReflectionFactor: f}
	return m
}

func TestTextureLayerBeatsLayoutLayer(t *testing.T) {
	s := NewStore(texture.NewNameTable())
	s.SetLayoutMod("castle", reflectionMod(1))
	node := s.RegisterNode(7, "castle")
	require.NotNil(t, node)

	tex := s.Names().Hash("stone")
	s.SetTextureMod(tex, reflectionMod(2))

	r := NewResolution()
	r.Layer(node, mgl32.Ident4(), nil)
	_, texMod := s.TextureLookup(tex)
	r.Layer(texMod, mgl32.Ident4(), light.NewDynamic(4))

	def := material.Default()
	assert.Equal(t, float32(2), r.Material.ReflectionFactor)
	assert.Equal(t, def.SpecularExponent, r.Material.SpecularExponent)
	assert.Equal(t, def.UVDetailScale, r.Material.UVDetailScale)
	assert.True(t, r.Interpolate)
}

func TestNodeLayerSuppressesLight(t *testing.T) {
	m := New()
	m.Light = &light.Light{DiffuseColor: mgl32.Vec3{1, 0, 0}, AttenuationRadius: 10}
	lights := light.NewDynamic(4)

	r := NewResolution()
	r.Layer(m, mgl32.Ident4(), nil)
	assert.Equal(t, 0, lights.Len())

	r.Layer(m, mgl32.Translate3D(5, 0, 0), lights)
	require.Equal(t, 1, lights.Len())
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, lights.Lights()[0].Position)
}

func TestRegisterNodeReplacesPreviousMod(t *testing.T) {
	s := NewStore(texture.NewNameTable())
	l1 := reflectionMod(1)
	l1.Light = &light.Light{AttenuationRadius: 3}
	s.SetLayoutMod("l1", l1)
	l2 := New()
	l2.Material = &material.Material{Enabled: material.AttributeSpecularExponent, SpecularExponent: 9}
	s.SetLayoutMod("l2", l2)

	s.RegisterNode(1, "l1")
	s.RegisterNode(1, "l2")

	m, ok := s.NodeMod(1)
	require.True(t, ok)
	assert.Nil(t, m.Light)
	assert.Equal(t, material.AttributeSpecularExponent, m.Material.Enabled)
	assert.Equal(t, float32(9), m.Material.SpecularExponent)

	assert.Nil(t, s.RegisterNode(1, "missing"))
	_, ok = s.NodeMod(1)
	assert.False(t, ok)
}

func TestRegisterNodeCopiesLayout(t *testing.T) {
	s := NewStore(texture.NewNameTable())
	layout := reflectionMod(1)
	s.SetLayoutMod("l", layout)
	m := s.RegisterNode(3, "l")
	m.Material.ReflectionFactor = 4
	assert.Equal(t, float32(1), layout.Material.ReflectionFactor)
}

func TestBuildNodeModPlacesLightInWorldSpace(t *testing.T) {
	s := NewStore(texture.NewNameTable())
	layout := New()
	layout.Light = &light.Light{AttenuationRadius: 1}
	s.SetLayoutMod("lamp", layout)
	s.RegisterNode(9, "lamp")

	view := mgl32.Translate3D(0, 0, -10)
	modelview := view.Mul4(mgl32.Translate3D(2, 0, 0))
	lights := light.NewDynamic(4)

	m := s.BuildNodeMod(9, modelview, view.Inv(), lights)
	require.NotNil(t, m)
	require.Equal(t, 1, lights.Len())
	assert.InDelta(t, 2, lights.Lights()[0].Position.X(), 1e-5)
	assert.InDelta(t, 0, lights.Lights()[0].Position.Z(), 1e-5)

	assert.Nil(t, s.BuildNodeMod(10, modelview, view.Inv(), lights))
}

func TestAliasResolution(t *testing.T) {
	s := NewStore(texture.NewNameTable())
	canon := s.Names().Hash("grass")
	alias := s.Names().Hash("grass_old")
	s.SetTextureMod(canon, reflectionMod(1))
	s.AddAlias(alias, canon)

	h, m := s.TextureLookup(alias)
	assert.Equal(t, canon, h)
	assert.NotNil(t, m)

	other := s.Names().Hash("dirt")
	s.AddAlias(alias, other)
	assert.Equal(t, other, s.Canonical(alias))
	assert.Empty(t, s.Aliases(canon))
	assert.Equal(t, []texture.Hash{alias}, s.Aliases(other))
}

func TestHighlight(t *testing.T) {
	r := NewResolution()
	r.Highlight()
	assert.Equal(t, mgl32.Vec4{1, 0, 1, 0.5}, r.Material.DiffuseColorMix)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, r.Material.SelfLight)
	assert.Equal(t, uint32(0), r.Material.LightGroupMaskBits)
}

func TestEnsureTextureMod(t *testing.T) {
	s := NewStore(texture.NewNameTable())
	h := s.Names().Hash("picked")
	m, created := s.EnsureTextureMod(h)
	assert.True(t, created)
	require.NotNil(t, m.Material)
	again, created := s.EnsureTextureMod(h)
	assert.False(t, created)
	assert.Same(t, m, again)
}

func TestTextureModsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, TexturesFile)
	names := texture.NewNameTable()
	s := NewStore(names)

	canon := names.Hash("brick")
	m := reflectionMod(0.5)
	m.SpecularMap = names.Hash("brick_spec")
	m.Interpolate = false
	s.SetTextureMod(canon, m)
	s.AddAlias(names.Hash("brick_alt"), canon)
	require.NoError(t, s.SaveTextureMods(path))

	loaded := NewStore(texture.NewNameTable())
	require.NoError(t, loaded.LoadTextureMods(path))

	h, got := loaded.TextureLookup(texture.NameHash("brick_alt"))
	assert.Equal(t, canon, h)
	require.NotNil(t, got)
	assert.Equal(t, float32(0.5), got.Material.ReflectionFactor)
	assert.Equal(t, texture.NameHash("brick_spec"), got.SpecularMap)
	assert.Zero(t, got.NormalMap)
	assert.False(t, got.Interpolate)
}

func TestLoadGeoLayoutsLegacyFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, GeoLayoutsFile)
	data := `{"geoLayouts":[
		{"name":"tree","materialMod":{"normalMapScale":2,"specularIntensity":0.5},"normalMapMod":{"name":"tree_n"}},
		{"name":"ghost","materialMod":{"reflectionFactor":1}}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewStore(texture.NewNameTable(), WithLogger(zap.New(core)), WithKnownLayouts("tree"))
	require.NoError(t, s.LoadGeoLayouts(path))

	m, ok := s.LayoutMod("tree")
	require.True(t, ok)
	assert.Equal(t, float32(2), m.Material.UVDetailScale)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, m.Material.SpecularColor)
	assert.Equal(t, texture.NameHash("tree_n"), m.NormalMap)

	_, ok = s.LayoutMod("ghost")
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("unknown geometry layout in mod file").Len())
}

func TestLevelLightsRoundTripAndBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LevelLightsFile)

	levels := light.NewLevels()
	require.NoError(t, levels.SetArea(4, 2, []light.Light{{AttenuationRadius: 7, GroupBits: 1}}))
	require.NoError(t, SaveLevelLights(path, levels))

	loaded, err := LoadLevelLights(path, zap.NewNop())
	require.NoError(t, err)
	area, err := loaded.Area(4, 2)
	require.NoError(t, err)
	require.Len(t, area, 1)
	assert.Equal(t, float32(7), area[0].AttenuationRadius)

	bad := `{"levels":[{"id":99,"areas":[{"id":0,"lights":[]}]},{"id":1,"areas":[{"id":0,"lights":[{"attenuationRadius":3}]}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	core, logs := observer.New(zapcore.ErrorLevel)
	loaded, err = LoadLevelLights(path, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
	area, err = loaded.Area(1, 0)
	require.NoError(t, err)
	require.Len(t, area, 1)
	assert.Equal(t, float32(3), area[0].AttenuationRadius)
}

func TestLoadAllMissingFilesWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewStore(texture.NewNameTable(), WithLogger(zap.New(core)))
	levels := s.LoadAll(DefaultFiles(t.TempDir()))
	require.NotNil(t, levels)
	area, err := levels.Area(0, 0)
	require.NoError(t, err)
	assert.Len(t, area, len(light.DefaultAreaLights()))
	assert.Equal(t, 3, logs.FilterMessage("mod file not found, using defaults").Len())
}

func TestSaveAllWritesEveryFile(t *testing.T) {
	files := DefaultFiles(filepath.Join(t.TempDir(), "rt"))
	s := NewStore(texture.NewNameTable())
	s.SetLayoutMod("a", reflectionMod(1))
	require.NoError(t, s.SaveAll(files, light.NewLevels()))
	for _, p := range files.Paths() {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	files := DefaultFiles(t.TempDir())
	s := NewStore(texture.NewNameTable())

	var mu sync.Mutex
	var got []Files
	w, err := NewWatcher(files, func(changed Files) {
		s.Reload(changed)
		mu.Lock()
		got = append(got, changed)
		mu.Unlock()
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	data := `{"textures":[{"name":"water","materialMod":{"refractionFactor":0.25}}]}`
	require.NoError(t, os.WriteFile(files.Textures, []byte(data), 0o644))

	require.Eventually(t, func() bool {
		_, m := s.TextureLookup(texture.NameHash("water"))
		return m != nil
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	assert.Equal(t, files.Textures, got[0].Textures)
	assert.Empty(t, got[0].LevelLights)
}
