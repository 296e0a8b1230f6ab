package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// invSqrt3 normalizes the length of a transformed (1,1,1) vector back to a unit scale factor.
var invSqrt3 = float32(1.0 / math.Sqrt(3))

// TransformPositionAffine applies the affine part of m to the point v (w = 1).
// Matrices are column-major with the translation stored in the fourth column.
//
// Parameters:
//   - m: the affine transform
//   - v: the point to transform
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPositionAffine(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(1)).Vec3()
}

// TransformDirectionAffine applies the linear part of m to the direction v (w = 0).
//
// Parameters:
//   - m: the affine transform
//   - v: the direction to transform
//
// Returns:
//   - mgl32.Vec3: the transformed direction
func TransformDirectionAffine(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

// AffineScale estimates a uniform scale factor for m by transforming a vector that points along all three axes.
// Non-uniformly scaled transforms yield the average stretch.
//
// Parameters:
//   - m: the affine transform
//
// Returns:
//   - float32: 1 for rigid transforms, the approximate uniform scale otherwise
func AffineScale(m mgl32.Mat4) float32 {
	return TransformDirectionAffine(m, mgl32.Vec3{1, 1, 1}).Len() * invSqrt3
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpMat4 interpolates every element of two matrices.
// This is exact for translation and an approximation for rotation, which is acceptable for the
// sub-tick intervals it is used on.
//
// Parameters:
//   - a: the matrix at t = 0
//   - b: the matrix at t = 1
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - mgl32.Mat4: the interpolated matrix
func LerpMat4(a, b mgl32.Mat4, t float32) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range out {
		out[i] = Lerp(a[i], b[i], t)
	}
	return out
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}

// Perspective creates a perspective projection matrix for WebGPU clip space, where depth maps to [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// InverseOrIdentity inverts m, falling back to the identity for singular matrices.
func InverseOrIdentity(m mgl32.Mat4) mgl32.Mat4 {
	if m.Det() == 0 {
		return mgl32.Ident4()
	}
	return m.Inv()
}
