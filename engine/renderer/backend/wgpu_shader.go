package backend

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/bridge.wgsl
var bridgeSource string

// shaderSource specializes the bridge WGSL for one variant. Only the first color input is consumed; the
// remaining inputs are skipped through the vertex stride.
func shaderSource(desc ShaderDesc) string {
	var inputs, assign strings.Builder
	if desc.Layout.UseTexture {
		inputs.WriteString("    @location(2) uv: vec2<f32>,\n")
		assign.WriteString("    out.uv = in.uv;\n")
	}
	if desc.Layout.NumInputs > 0 {
		if desc.Layout.UseAlpha {
			inputs.WriteString("    @location(3) color: vec4<f32>,\n")
			assign.WriteString("    out.color = in.color;\n")
		} else {
			inputs.WriteString("    @location(3) color: vec3<f32>,\n")
			assign.WriteString("    out.color = vec4<f32>(in.color, 1.0);\n")
		}
	}

	diffuse := ""
	if desc.Layout.UseTexture {
		diffuse = "    base = base * textureSample(diffuse_tex, tex_sampler, uv);\n"
	}
	normal := ""
	if desc.Flags&ShaderNormalMap != 0 {
		normal = "    n = safe_normalize(n + (textureSample(normal_tex, tex_sampler, uv).xyz * 2.0 - 1.0));\n"
	}
	specular := ""
	if desc.Flags&ShaderSpecularMap != 0 {
		specular = "    spec_scale = textureSample(specular_tex, tex_sampler, uv).rgb;\n"
	}

	return strings.NewReplacer(
		"{{VERTEX_INPUTS}}", strings.TrimSuffix(inputs.String(), "\n"),
		"{{VERTEX_ASSIGN}}", strings.TrimSuffix(assign.String(), "\n"),
		"{{SAMPLE_DIFFUSE}}", strings.TrimSuffix(diffuse, "\n"),
		"{{SAMPLE_NORMAL}}", strings.TrimSuffix(normal, "\n"),
		"{{SAMPLE_SPECULAR}}", strings.TrimSuffix(specular, "\n"),
	).Replace(bridgeSource)
}

// shaderLabel names a variant for GPU debugging tools.
func shaderLabel(desc ShaderDesc) string {
	return fmt.Sprintf("variant 0x%X f%d h%d v%d flags%d", desc.BaseID, desc.Filter, desc.HAddr, desc.VAddr, desc.Flags)
}

// vertexBufferLayout mirrors the interleaved layout described by l.
func vertexBufferLayout(l VertexLayout) wgpu.VertexBufferLayout {
	attrs := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 16, ShaderLocation: 1},
	}
	offset := uint64(28)
	if l.UseTexture {
		attrs = append(attrs, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: offset, ShaderLocation: 2})
		offset += 8
	}
	if l.NumInputs > 0 {
		format := wgpu.VertexFormatFloat32x3
		if l.UseAlpha {
			format = wgpu.VertexFormatFloat32x4
		}
		attrs = append(attrs, wgpu.VertexAttribute{Format: format, Offset: offset, ShaderLocation: 3})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(l.Stride()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func addressMode(a Addressing) wgpu.AddressMode {
	switch a {
	case AddressingClamp:
		return wgpu.AddressModeClampToEdge
	case AddressingMirror:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

// samplerDescriptor builds the sampler a variant samples all of its textures with.
func samplerDescriptor(desc ShaderDesc) *wgpu.SamplerDescriptor {
	filter := wgpu.FilterModeNearest
	mip := wgpu.MipmapFilterModeNearest
	if desc.Filter == FilterLinear {
		filter = wgpu.FilterModeLinear
		mip = wgpu.MipmapFilterModeLinear
	}
	return &wgpu.SamplerDescriptor{
		Label:         shaderLabel(desc) + " Sampler",
		AddressModeU:  addressMode(desc.HAddr),
		AddressModeV:  addressMode(desc.VAddr),
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mip,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}
