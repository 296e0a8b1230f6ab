// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "math"

// Rect is an integer screen rectangle used for scissor and viewport state.
type Rect struct {
	X, Y, W, H int32
}

// Lerp interpolates each edge of the rectangle and rounds to the nearest pixel.
//
// Parameters:
//   - to: the rectangle at t = 1
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - Rect: the interpolated rectangle
func (r Rect) Lerp(to Rect, t float32) Rect {
	lerp := func(a, b int32) int32 {
		return int32(math.Round(float64(Lerp(float32(a), float32(b), t))))
	}
	return Rect{
		X: lerp(r.X, to.X),
		Y: lerp(r.Y, to.Y),
		W: lerp(r.W, to.W),
		H: lerp(r.H, to.H),
	}
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}
