package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestTransformPositionAffineAppliesTranslation(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	got := TransformPositionAffine(m, mgl32.Vec3{1, 1, 1})
	assert.True(t, got.ApproxEqual(mgl32.Vec3{2, 3, 4}))

	dir := TransformDirectionAffine(m, mgl32.Vec3{1, 1, 1})
	assert.True(t, dir.ApproxEqual(mgl32.Vec3{1, 1, 1}))
}

func TestAffineScale(t *testing.T) {
	assert.InDelta(t, 1.0, AffineScale(mgl32.Ident4()), 1e-5)
	assert.InDelta(t, 2.0, AffineScale(mgl32.Scale3D(2, 2, 2)), 1e-5)
	assert.InDelta(t, 1.0, AffineScale(mgl32.HomogRotate3DY(1.2)), 1e-5)
}

func TestLerpMat4Endpoints(t *testing.T) {
	a := mgl32.Translate3D(0, 0, 0)
	b := mgl32.Translate3D(10, 0, 0)
	assert.Equal(t, a, LerpMat4(a, b, 0))
	assert.Equal(t, b, LerpMat4(a, b, 1))
	assert.InDelta(t, 5.0, LerpMat4(a, b, 0.5)[12], 1e-6)
}

func TestRectLerp(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}
	b := Rect{X: 10, Y: 20, W: 200, H: 50}
	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assert.Equal(t, Rect{X: 5, Y: 10, W: 150, H: 75}, a.Lerp(b, 0.5))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
}

func TestInverseOrIdentitySingular(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), InverseOrIdentity(mgl32.Mat4{}))
	m := mgl32.Translate3D(1, 2, 3)
	assert.True(t, InverseOrIdentity(m).Mul4(m).ApproxEqualThreshold(mgl32.Ident4(), 1e-5))
}
