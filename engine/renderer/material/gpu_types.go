package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterial is the GPU-aligned representation of a resolved material.
// Matches the Material struct in the backend's WGSL source.
// Size: 112 bytes (std140 / WGSL uniform aligned).
//
// Layout:
//
//	vec4<f32> diffuse_color_mix    (offset   0)
//	vec3<f32> specular_color       (offset  16)
//	f32       specular_exponent    (offset  28)
//	vec3<f32> self_light           (offset  32)
//	f32       ignore_normal_factor (offset  44)
//	vec3<f32> fog_color            (offset  48)
//	f32       fog_mul              (offset  60)
//	f32       fog_offset           (offset  64)
//	u32       fog_enabled          (offset  68)
//	u32       light_group_mask     (offset  72)
//	f32       uv_detail_scale      (offset  76)
//	f32       solid_alpha          (offset  80)
//	f32       reflection_factor    (offset  84)
//	f32       depth_bias           (offset  88)
//	u32       _pad ×5              (offset  92)
type GPUMaterial struct {
	DiffuseColorMix      [4]float32
	SpecularColor        [3]float32
	SpecularExponent     float32
	SelfLight            [3]float32
	IgnoreNormalFactor   float32
	FogColor             [3]float32
	FogMul               float32
	FogOffset            float32
	FogEnabled           uint32
	LightGroupMaskBits   uint32
	UVDetailScale        float32
	SolidAlphaMultiplier float32
	ReflectionFactor     float32
	DepthBias            float32
	_pad                 [5]uint32
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (112)
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// ToGPUMaterial converts a resolved material into its GPU-aligned form.
func ToGPUMaterial(m Material) GPUMaterial {
	fog := uint32(0)
	if m.FogEnabled {
		fog = 1
	}
	return GPUMaterial{
		DiffuseColorMix:      m.DiffuseColorMix,
		SpecularColor:        m.SpecularColor,
		SpecularExponent:     m.SpecularExponent,
		SelfLight:            m.SelfLight,
		IgnoreNormalFactor:   m.IgnoreNormalFactor,
		FogColor:             m.FogColor,
		FogMul:               m.FogMul,
		FogOffset:            m.FogOffset,
		FogEnabled:           fog,
		LightGroupMaskBits:   m.LightGroupMaskBits,
		UVDetailScale:        m.UVDetailScale,
		SolidAlphaMultiplier: m.SolidAlphaMultiplier,
		ReflectionFactor:     m.ReflectionFactor,
		DepthBias:            m.DepthBias,
	}
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, 112)
	f := func(off int, v float32) { binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v)) }
	for i := range 4 {
		f(i*4, g.DiffuseColorMix[i])
	}
	for i := range 3 {
		f(16+i*4, g.SpecularColor[i])
		f(32+i*4, g.SelfLight[i])
		f(48+i*4, g.FogColor[i])
	}
	f(28, g.SpecularExponent)
	f(44, g.IgnoreNormalFactor)
	f(60, g.FogMul)
	f(64, g.FogOffset)
	binary.LittleEndian.PutUint32(buf[68:72], g.FogEnabled)
	binary.LittleEndian.PutUint32(buf[72:76], g.LightGroupMaskBits)
	f(76, g.UVDetailScale)
	f(80, g.SolidAlphaMultiplier)
	f(84, g.ReflectionFactor)
	f(88, g.DepthBias)
	return buf
}
