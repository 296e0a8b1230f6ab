package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
)

// Combiner selector values inside a program id.
const (
	selectorInput1  = 1
	selectorInput4  = 4
	selectorTexel0  = 5
	selectorTexel0A = 6
	selectorTexel1  = 7
)

// Program option bits.
const (
	OptAlpha       uint32 = 1 << 24
	OptFog         uint32 = 1 << 25
	OptTextureEdge uint32 = 1 << 26
	OptNoise       uint32 = 1 << 27
)

// Program is a combiner program decoded from its bit-packed id, along with the variants compiled from it.
type Program struct {
	id          uint32
	numInputs   uint8
	usesTexture [2]bool
	variants    map[VariantKey]backend.ShaderID
}

// ParseProgram decodes the eight 3-bit combiner selectors of id: four color selectors in bits 0..11 and
// four alpha selectors in bits 12..23. Selectors 1..4 read vertex inputs, 5 and 6 read texture 0, 7 reads
// texture 1.
//
// Parameters:
//   - id: the packed program id
//
// Returns:
//   - *Program: the decoded program with no variants
func ParseProgram(id uint32) *Program {
	p := &Program{
		id:       id,
		variants: make(map[VariantKey]backend.ShaderID),
	}
	for cycle := range 2 {
		for i := range 4 {
			sel := uint8((id >> (cycle*12 + i*3)) & 7)
			switch {
			case sel >= selectorInput1 && sel <= selectorInput4:
				p.numInputs = max(p.numInputs, sel)
			case sel == selectorTexel0 || sel == selectorTexel0A:
				p.usesTexture[0] = true
			case sel == selectorTexel1:
				p.usesTexture[1] = true
			}
		}
	}
	return p
}

func (p *Program) ID() uint32 { return p.id }

// NumInputs returns the number of per-vertex color inputs the program reads.
func (p *Program) NumInputs() uint8 { return p.numInputs }

// UsesTexture reports whether the program samples the given tile. Tiles other than 0 and 1 are a
// programmer error.
func (p *Program) UsesTexture(tile int) bool {
	if tile < 0 || tile > 1 {
		panic(fmt.Sprintf("texture tile %d outside 0..1", tile))
	}
	return p.usesTexture[tile]
}

func (p *Program) UsesAlpha() bool { return p.id&OptAlpha != 0 }

func (p *Program) UsesFog() bool { return p.id&OptFog != 0 }

func (p *Program) TextureEdge() bool { return p.id&OptTextureEdge != 0 }

func (p *Program) Noise() bool { return p.id&OptNoise != 0 }

// Layout returns the interleaved vertex format the command stream emits for this program.
func (p *Program) Layout() backend.VertexLayout {
	return backend.VertexLayout{
		UseTexture: p.usesTexture[0] || p.usesTexture[1],
		NumInputs:  p.numInputs,
		UseAlpha:   p.UsesAlpha(),
	}
}

// VariantCount returns the number of variants compiled for the program.
func (p *Program) VariantCount() int { return len(p.variants) }
