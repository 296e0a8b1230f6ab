package backend

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderSourceSpecializesInputs(t *testing.T) {
	src := shaderSource(ShaderDesc{Layout: VertexLayout{UseTexture: true, NumInputs: 2, UseAlpha: true}})
	assert.NotContains(t, src, "{{")
	assert.Contains(t, src, "@location(2) uv: vec2<f32>")
	assert.Contains(t, src, "@location(3) color: vec4<f32>")
	assert.Contains(t, src, "textureSample(diffuse_tex")
	assert.NotContains(t, src, "textureSample(normal_tex")

	plain := shaderSource(ShaderDesc{Flags: ShaderNormalMap | ShaderSpecularMap})
	assert.NotContains(t, plain, "@location(2) uv")
	assert.NotContains(t, plain, "@location(3) color")
	assert.Contains(t, plain, "textureSample(normal_tex")
	assert.Contains(t, plain, "textureSample(specular_tex")
}

func TestVertexBufferLayoutMatchesStride(t *testing.T) {
	l := VertexLayout{UseTexture: true, NumInputs: 3}
	layout := vertexBufferLayout(l)
	assert.Equal(t, uint64(l.Stride()), layout.ArrayStride)
	require.Len(t, layout.Attributes, 4)
	assert.Equal(t, uint64(28), layout.Attributes[2].Offset)
	assert.Equal(t, uint64(36), layout.Attributes[3].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[3].Format)

	bare := vertexBufferLayout(VertexLayout{})
	assert.Len(t, bare.Attributes, 2)
}

func TestSamplerDescriptor(t *testing.T) {
	d := samplerDescriptor(ShaderDesc{Filter: FilterPoint, HAddr: AddressingClamp, VAddr: AddressingMirror})
	assert.Equal(t, wgpu.FilterModeNearest, d.MagFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, d.AddressModeU)
	assert.Equal(t, wgpu.AddressModeMirrorRepeat, d.AddressModeV)

	d = samplerDescriptor(ShaderDesc{Filter: FilterLinear})
	assert.Equal(t, wgpu.FilterModeLinear, d.MinFilter)
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeU)
}
