package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULight is the GPU-aligned representation of a single light.
// Size: 64 bytes (std430 / WGSL aligned), matching the Light struct in the backend's WGSL source.
type GPULight struct {
	Position            [3]float32 // offset  0
	AttenuationRadius   float32    // offset 12
	DiffuseColor        [3]float32 // offset 16
	PointRadius         float32    // offset 28
	SpecularColor       [3]float32 // offset 32
	ShadowOffset        float32    // offset 44
	AttenuationExponent float32    // offset 48
	FlickerIntensity    float32    // offset 52
	GroupBits           uint32     // offset 56
	_pad                uint32     // offset 60
}

// GPULightHeaderSize is the size of the header prepended to the light storage buffer (count + padding).
const GPULightHeaderSize = 16

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	putVec3(buf[0:12], g.Position)
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.AttenuationRadius))
	putVec3(buf[16:28], g.DiffuseColor)
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.PointRadius))
	putVec3(buf[32:44], g.SpecularColor)
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.ShadowOffset))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.AttenuationExponent))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.FlickerIntensity))
	binary.LittleEndian.PutUint32(buf[56:60], g.GroupBits)
	binary.LittleEndian.PutUint32(buf[60:64], 0) // padding
	return buf
}

// ToGPULight converts a Light into its GPU-aligned form.
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position:            l.Position,
		AttenuationRadius:   l.AttenuationRadius,
		DiffuseColor:        l.DiffuseColor,
		PointRadius:         l.PointRadius,
		SpecularColor:       l.SpecularColor,
		ShadowOffset:        l.ShadowOffset,
		AttenuationExponent: l.AttenuationExponent,
		FlickerIntensity:    l.FlickerIntensity,
		GroupBits:           l.GroupBits,
	}
}

// MarshalLightBuffer marshals lights into a storage buffer laid out as:
//
//	[count u32, pad ×3 (16 bytes)] [GPULight × capacity (64 bytes each)]
//
// The buffer always has room for capacity lights so it can be allocated once.
//
// Parameters:
//   - lights: the frame's lights
//   - capacity: the number of light slots in the buffer (lights beyond it are dropped)
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
func MarshalLightBuffer(lights []Light, capacity int) []byte {
	lightSize := (&GPULight{}).Size()
	count := min(len(lights), capacity)

	buf := make([]byte, GPULightHeaderSize+capacity*lightSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(count))

	offset := GPULightHeaderSize
	for _, l := range lights[:count] {
		gpu := ToGPULight(l)
		copy(buf[offset:offset+lightSize], gpu.Marshal())
		offset += lightSize
	}
	return buf
}

func putVec3(dst []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v[2]))
}
