package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
)

// VariantKey identifies one permutation of a shader program: ray trace or raster, filter, horizontal and
// vertical addressing, normal map and specular map. The packed form is private to this package.
type VariantKey struct {
	packed uint8
}

const (
	filterCount     = 2
	addressingCount = 3
)

// NewVariantKey packs the six variant axes.
//
// Parameters:
//   - raytrace: compile for the ray tracing path instead of raster
//   - filter: texture filter
//   - hAddr: horizontal addressing
//   - vAddr: vertical addressing
//   - normalMap: sample a normal map
//   - specularMap: sample a specular map
//
// Returns:
//   - VariantKey: the packed key
func NewVariantKey(raytrace bool, filter backend.Filter, hAddr, vAddr backend.Addressing, normalMap, specularMap bool) VariantKey {
	if filter >= filterCount || hAddr >= addressingCount || vAddr >= addressingCount {
		panic(fmt.Sprintf("variant axis out of range: filter %d, h %d, v %d", filter, hAddr, vAddr))
	}
	k := uint8(0)
	if raytrace {
		k = 1
	}
	k += uint8(filter) * 2
	k += uint8(hAddr) * 4
	k += uint8(vAddr) * 4 * addressingCount
	if normalMap {
		k += 4 * addressingCount * addressingCount
	}
	if specularMap {
		k += 8 * addressingCount * addressingCount
	}
	return VariantKey{packed: k}
}

func (k VariantKey) Raytrace() bool { return k.packed%2 == 1 }

func (k VariantKey) Filter() backend.Filter { return backend.Filter(k.packed / 2 % 2) }

func (k VariantKey) HAddr() backend.Addressing {
	return backend.Addressing(k.packed / 4 % addressingCount)
}

func (k VariantKey) VAddr() backend.Addressing {
	return backend.Addressing(k.packed / (4 * addressingCount) % addressingCount)
}

func (k VariantKey) NormalMap() bool {
	return k.packed/(4*addressingCount*addressingCount)%2 == 1
}

func (k VariantKey) SpecularMap() bool {
	return k.packed/(8*addressingCount*addressingCount) == 1
}

// Flags converts the key's pipeline axes into backend shader flags.
func (k VariantKey) Flags() backend.ShaderFlags {
	flags := backend.ShaderRaster
	if k.Raytrace() {
		flags = backend.ShaderRaytrace
	}
	if k.NormalMap() {
		flags |= backend.ShaderNormalMap
	}
	if k.SpecularMap() {
		flags |= backend.ShaderSpecularMap
	}
	return flags
}

func (k VariantKey) String() string {
	return fmt.Sprintf("rt=%t filter=%d h=%d v=%d normal=%t specular=%t",
		k.Raytrace(), k.Filter(), k.HAddr(), k.VAddr(), k.NormalMap(), k.SpecularMap())
}
