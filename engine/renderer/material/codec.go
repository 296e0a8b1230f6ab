package material

import (
	"github.com/go-gl/mathgl/mgl32"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// materialJSON is the on-disk shape of a material override. Every key is optional.
type materialJSON struct {
	// Legacy keys, read only.
	NormalMapScale    *float32 `json:"normalMapScale,omitempty"`
	SpecularIntensity *float32 `json:"specularIntensity,omitempty"`

	IgnoreNormalFactor      *float32    `json:"ignoreNormalFactor,omitempty"`
	UVDetailScale           *float32    `json:"uvDetailScale,omitempty"`
	ReflectionFactor        *float32    `json:"reflectionFactor,omitempty"`
	ReflectionFresnelFactor *float32    `json:"reflectionFresnelFactor,omitempty"`
	ReflectionShineFactor   *float32    `json:"reflectionShineFactor,omitempty"`
	RefractionFactor        *float32    `json:"refractionFactor,omitempty"`
	SpecularColor           *[3]float32 `json:"specularColor,omitempty"`
	SpecularExponent        *float32    `json:"specularExponent,omitempty"`
	SolidAlphaMultiplier    *float32    `json:"solidAlphaMultiplier,omitempty"`
	ShadowAlphaMultiplier   *float32    `json:"shadowAlphaMultiplier,omitempty"`
	DepthBias               *float32    `json:"depthBias,omitempty"`
	ShadowRayBias           *float32    `json:"shadowRayBias,omitempty"`
	SelfLight               *[3]float32 `json:"selfLight,omitempty"`
	LightGroupMaskBits      *uint32     `json:"lightGroupMaskBits,omitempty"`
	DiffuseColorMix         *[4]float32 `json:"diffuseColorMix,omitempty"`
}

// MarshalJSON writes only the enabled fields of the override.
func (m Material) MarshalJSON() ([]byte, error) {
	var out materialJSON
	e := m.Enabled
	if e&AttributeIgnoreNormalFactor != 0 {
		out.IgnoreNormalFactor = &m.IgnoreNormalFactor
	}
	if e&AttributeUVDetailScale != 0 {
		out.UVDetailScale = &m.UVDetailScale
	}
	if e&AttributeReflectionFactor != 0 {
		out.ReflectionFactor = &m.ReflectionFactor
	}
	if e&AttributeReflectionFresnelFactor != 0 {
		out.ReflectionFresnelFactor = &m.ReflectionFresnelFactor
	}
	if e&AttributeReflectionShineFactor != 0 {
		out.ReflectionShineFactor = &m.ReflectionShineFactor
	}
	if e&AttributeRefractionFactor != 0 {
		out.RefractionFactor = &m.RefractionFactor
	}
	if e&AttributeSpecularColor != 0 {
		v := [3]float32(m.SpecularColor)
		out.SpecularColor = &v
	}
	if e&AttributeSpecularExponent != 0 {
		out.SpecularExponent = &m.SpecularExponent
	}
	if e&AttributeSolidAlphaMultiplier != 0 {
		out.SolidAlphaMultiplier = &m.SolidAlphaMultiplier
	}
	if e&AttributeShadowAlphaMultiplier != 0 {
		out.ShadowAlphaMultiplier = &m.ShadowAlphaMultiplier
	}
	if e&AttributeDepthBias != 0 {
		out.DepthBias = &m.DepthBias
	}
	if e&AttributeShadowRayBias != 0 {
		out.ShadowRayBias = &m.ShadowRayBias
	}
	if e&AttributeSelfLight != 0 {
		v := [3]float32(m.SelfLight)
		out.SelfLight = &v
	}
	if e&AttributeLightGroupMaskBits != 0 {
		out.LightGroupMaskBits = &m.LightGroupMaskBits
	}
	if e&AttributeDiffuseColorMix != 0 {
		v := [4]float32(m.DiffuseColorMix)
		out.DiffuseColorMix = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a sparse override, enabling each field present in the document.
// The legacy normalMapScale key maps to uvDetailScale and a scalar specularIntensity expands to a grey
// specular color; current keys read afterwards take precedence.
func (m *Material) UnmarshalJSON(data []byte) error {
	var raw materialJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Material{}
	setFloat := func(src *float32, dst *float32, attr Attribute) {
		if src != nil {
			*dst = *src
			m.Enabled |= attr
		}
	}
	setVec3 := func(src *[3]float32, dst *mgl32.Vec3, attr Attribute) {
		if src != nil {
			*dst = mgl32.Vec3(*src)
			m.Enabled |= attr
		}
	}

	setFloat(raw.NormalMapScale, &m.UVDetailScale, AttributeUVDetailScale)
	if raw.SpecularIntensity != nil {
		s := *raw.SpecularIntensity
		m.SpecularColor = mgl32.Vec3{s, s, s}
		m.Enabled |= AttributeSpecularColor
	}

	setFloat(raw.IgnoreNormalFactor, &m.IgnoreNormalFactor, AttributeIgnoreNormalFactor)
	setFloat(raw.UVDetailScale, &m.UVDetailScale, AttributeUVDetailScale)
	setFloat(raw.ReflectionFactor, &m.ReflectionFactor, AttributeReflectionFactor)
	setFloat(raw.ReflectionFresnelFactor, &m.ReflectionFresnelFactor, AttributeReflectionFresnelFactor)
	setFloat(raw.ReflectionShineFactor, &m.ReflectionShineFactor, AttributeReflectionShineFactor)
	setFloat(raw.RefractionFactor, &m.RefractionFactor, AttributeRefractionFactor)
	setVec3(raw.SpecularColor, &m.SpecularColor, AttributeSpecularColor)
	setFloat(raw.SpecularExponent, &m.SpecularExponent, AttributeSpecularExponent)
	setFloat(raw.SolidAlphaMultiplier, &m.SolidAlphaMultiplier, AttributeSolidAlphaMultiplier)
	setFloat(raw.ShadowAlphaMultiplier, &m.ShadowAlphaMultiplier, AttributeShadowAlphaMultiplier)
	setFloat(raw.DepthBias, &m.DepthBias, AttributeDepthBias)
	setFloat(raw.ShadowRayBias, &m.ShadowRayBias, AttributeShadowRayBias)
	setVec3(raw.SelfLight, &m.SelfLight, AttributeSelfLight)
	if raw.LightGroupMaskBits != nil {
		m.LightGroupMaskBits = *raw.LightGroupMaskBits
		m.Enabled |= AttributeLightGroupMaskBits
	}
	if raw.DiffuseColorMix != nil {
		m.DiffuseColorMix = mgl32.Vec4(*raw.DiffuseColorMix)
		m.Enabled |= AttributeDiffuseColorMix
	}
	return nil
}
