package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
)

// PreloadEntry names one variant to compile at startup.
type PreloadEntry struct {
	ID          uint32
	Raytrace    bool
	Filter      backend.Filter
	HAddr       backend.Addressing
	VAddr       backend.Addressing
	NormalMap   bool
	SpecularMap bool
}

// Key returns the variant key of the entry.
func (e PreloadEntry) Key() VariantKey {
	return NewVariantKey(e.Raytrace, e.Filter, e.HAddr, e.VAddr, e.NormalMap, e.SpecularMap)
}

var filterNames = [...]string{"backend.FilterPoint", "backend.FilterLinear"}

var addressingNames = [...]string{"backend.AddressingWrap", "backend.AddressingMirror", "backend.AddressingClamp"}

// String formats the entry as a DefaultPreload table row.
func (e PreloadEntry) String() string {
	return fmt.Sprintf("{0x%X, %t, %s, %s, %s, %t, %t},",
		e.ID, e.Raytrace, filterNames[e.Filter], addressingNames[e.HAddr], addressingNames[e.VAddr], e.NormalMap, e.SpecularMap)
}

// DefaultPreload lists the variants the game is known to request, so they compile at startup instead of
// stalling the first frame that draws them.
var DefaultPreload = []PreloadEntry{
	{0x1200200, false, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x45, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x200, true, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1200A00, false, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0xA00, false, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x5A00A00, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x5045045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x551, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x200, false, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1A00045, false, backend.FilterLinear, backend.AddressingMirror, backend.AddressingMirror, false, false},
	{0x1A00A00, false, backend.FilterPoint, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1045045, false, backend.FilterPoint, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1045045, false, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x5A00A00, false, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1200045, false, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x45, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x45, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingClamp, false, false},
	{0x45, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingWrap, false, false},
	{0x38D, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x5045045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingClamp, false, false},
	{0x5045045, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x5A00A00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1045045, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1045045, true, backend.FilterLinear, backend.AddressingMirror, backend.AddressingMirror, false, false},
	{0x1045045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1081081, false, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x5045045, true, backend.FilterLinear, backend.AddressingMirror, backend.AddressingMirror, false, false},
	{0x5A00A00, false, backend.FilterPoint, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x5A00A00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingClamp, false, false},
	{0x1200045, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1200200, true, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1A00A6F, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1045045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingClamp, false, false},
	{0xA00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x3200045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x3200045, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingWrap, false, false},
	{0x3200200, true, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x3200A00, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x7A00A00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x7A00A00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingClamp, false, false},
	{0x7A00A00, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x120038D, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1200A00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x3200045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingClamp, false, false},
	{0x3200045, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x38D, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x5200200, true, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x5A00A00, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingWrap, false, false},
	{0x1045A00, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1045045, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingWrap, false, false},
	{0x1200045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1141045, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x1200045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingClamp, false, false},
	{0xA00, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x3200A00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1045045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, true, false},
	{0x9200200, true, backend.FilterPoint, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x920038D, true, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x9200A00, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
	{0x1A00045, false, backend.FilterLinear, backend.AddressingClamp, backend.AddressingClamp, false, false},
	{0x9200045, true, backend.FilterLinear, backend.AddressingWrap, backend.AddressingWrap, false, false},
}
