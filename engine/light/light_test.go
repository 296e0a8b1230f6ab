package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformedScalesDistances(t *testing.T) {
	src := Light{
		Position:          mgl32.Vec3{1, 0, 0},
		AttenuationRadius: 10,
		PointRadius:       2,
		ShadowOffset:      4,
	}
	m := mgl32.Translate3D(5, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2))

	got := src.Transformed(m)
	assert.True(t, got.Position.ApproxEqual(mgl32.Vec3{7, 0, 0}))
	assert.InDelta(t, 20.0, got.AttenuationRadius, 1e-4)
	assert.InDelta(t, 4.0, got.PointRadius, 1e-4)
	assert.InDelta(t, 8.0, got.ShadowOffset, 1e-4)
	assert.Equal(t, float32(10), src.AttenuationRadius)
}

func TestDynamicOverflowPanics(t *testing.T) {
	d := NewDynamic(2)
	d.Add(Light{}, mgl32.Ident4())
	d.Add(Light{}, mgl32.Ident4())
	assert.Panics(t, func() { d.Add(Light{}, mgl32.Ident4()) })

	d.Reset()
	assert.Equal(t, 0, d.Len())
	assert.NotPanics(t, func() { d.Add(Light{}, mgl32.Ident4()) })
}

func TestLevelsDefaultsAndCompose(t *testing.T) {
	l := NewLevels()
	area, err := l.Area(3, 1)
	require.NoError(t, err)
	require.Len(t, area, 2)
	assert.Equal(t, mgl32.Vec3{0.3, 0.35, 0.45}, area[0].DiffuseColor)
	assert.Equal(t, float32(5000), area[1].PointRadius)

	dyn := []Light{{GroupBits: 7}}
	lights := l.Compose(dyn)
	require.Len(t, lights, 3)
	assert.Equal(t, uint32(7), lights[2].GroupBits)
}

func TestLevelsRangeChecks(t *testing.T) {
	l := NewLevels()
	_, err := l.Area(MaxLevels, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, l.SetArea(0, MaxAreas, nil), ErrOutOfRange)
	assert.ErrorIs(t, l.SetArea(0, 0, make([]Light, MaxLevelLights+1)), ErrOutOfRange)

	l.Select(99, 0)
	lv, a := l.Selected()
	assert.Equal(t, 0, lv)
	assert.Equal(t, 0, a)
}

func TestComposeOverflowPanics(t *testing.T) {
	l := NewLevels()
	assert.Panics(t, func() { l.Compose(make([]Light, MaxLights)) })
}

func TestUnmarshalLegacySpecularIntensity(t *testing.T) {
	var l Light
	require.NoError(t, json.Unmarshal([]byte(`{"position":[1,2,3],"diffuseColor":[1,0.5,0],"specularIntensity":2,"groupBits":4}`), &l))
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, l.SpecularColor)
	assert.Equal(t, uint32(4), l.GroupBits)

	require.NoError(t, json.Unmarshal([]byte(`{"diffuseColor":[1,1,1],"specularIntensity":2,"specularColor":[0.1,0.2,0.3]}`), &l))
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, l.SpecularColor)
}

func TestMarshalWritesSpecularColor(t *testing.T) {
	data, err := json.Marshal(Light{SpecularColor: mgl32.Vec3{1, 2, 3}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"specularColor":[1,2,3]`)
	assert.NotContains(t, string(data), "specularIntensity")
}

func TestMarshalLightBuffer(t *testing.T) {
	buf := MarshalLightBuffer([]Light{{AttenuationRadius: 3}}, 4)
	require.Len(t, buf, GPULightHeaderSize+4*64)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[GPULightHeaderSize+12:GPULightHeaderSize+16])))
}
