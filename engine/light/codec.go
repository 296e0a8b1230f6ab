package light

import (
	"github.com/go-gl/mathgl/mgl32"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// lightJSON is the on-disk shape of a light. Pointer fields distinguish absent keys from zero values.
type lightJSON struct {
	Position            *[3]float32 `json:"position,omitempty"`
	AttenuationRadius   float32     `json:"attenuationRadius"`
	PointRadius         float32     `json:"pointRadius"`
	DiffuseColor        *[3]float32 `json:"diffuseColor,omitempty"`
	SpecularColor       *[3]float32 `json:"specularColor,omitempty"`
	SpecularIntensity   *float32    `json:"specularIntensity,omitempty"`
	ShadowOffset        float32     `json:"shadowOffset"`
	AttenuationExponent float32     `json:"attenuationExponent"`
	FlickerIntensity    float32     `json:"flickerIntensity"`
	GroupBits           uint32      `json:"groupBits"`
}

// MarshalJSON writes the light in its current file format. The legacy specularIntensity key is never written.
func (l Light) MarshalJSON() ([]byte, error) {
	pos := [3]float32(l.Position)
	diffuse := [3]float32(l.DiffuseColor)
	specular := [3]float32(l.SpecularColor)
	return json.Marshal(lightJSON{
		Position:            &pos,
		AttenuationRadius:   l.AttenuationRadius,
		PointRadius:         l.PointRadius,
		DiffuseColor:        &diffuse,
		SpecularColor:       &specular,
		ShadowOffset:        l.ShadowOffset,
		AttenuationExponent: l.AttenuationExponent,
		FlickerIntensity:    l.FlickerIntensity,
		GroupBits:           l.GroupBits,
	})
}

// UnmarshalJSON reads a light. Older files carry a scalar specularIntensity which is expanded to a
// specular color tinted by the diffuse color; an explicit specularColor takes precedence.
func (l *Light) UnmarshalJSON(data []byte) error {
	var raw lightJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = Light{
		AttenuationRadius:   raw.AttenuationRadius,
		PointRadius:         raw.PointRadius,
		ShadowOffset:        raw.ShadowOffset,
		AttenuationExponent: raw.AttenuationExponent,
		FlickerIntensity:    raw.FlickerIntensity,
		GroupBits:           raw.GroupBits,
	}
	if raw.Position != nil {
		l.Position = mgl32.Vec3(*raw.Position)
	}
	if raw.DiffuseColor != nil {
		l.DiffuseColor = mgl32.Vec3(*raw.DiffuseColor)
	}
	if raw.SpecularIntensity != nil {
		l.SpecularColor = l.DiffuseColor.Mul(*raw.SpecularIntensity)
	}
	if raw.SpecularColor != nil {
		l.SpecularColor = mgl32.Vec3(*raw.SpecularColor)
	}
	return nil
}
