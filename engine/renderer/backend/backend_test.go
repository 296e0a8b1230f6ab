package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressingFromTileBits(t *testing.T) {
	assert.Equal(t, AddressingWrap, AddressingFromTileBits(0))
	assert.Equal(t, AddressingMirror, AddressingFromTileBits(1))
	assert.Equal(t, AddressingClamp, AddressingFromTileBits(2))
	assert.Equal(t, AddressingClamp, AddressingFromTileBits(3))
}

func TestVertexLayoutStride(t *testing.T) {
	assert.Equal(t, uint32(28), VertexLayout{}.Stride())
	assert.Equal(t, uint32(36), VertexLayout{UseTexture: true}.Stride())
	assert.Equal(t, uint32(36+2*16), VertexLayout{UseTexture: true, NumInputs: 2, UseAlpha: true}.Stride())
	assert.Equal(t, uint32(28+12), VertexLayout{NumInputs: 1}.Stride())
}
