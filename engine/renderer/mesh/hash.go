// Package mesh deduplicates per-draw vertex data by content and promotes geometry that keeps reappearing
// into an immutable static tier.
package mesh

import (
	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/cespare/xxhash/v2"
)

// Hash is the content identity of a vertex buffer.
type Hash uint64

// HashBytes returns the XXH64 (seed 0) of b. Equal byte sequences always hash equal, across calls and runs.
func HashBytes(b []byte) Hash {
	return Hash(xxhash.Sum64(b))
}

// HashVertices hashes the raw bytes of an interleaved float vertex buffer.
func HashVertices(vertices []float32) Hash {
	return HashBytes(common.SliceToBytes(vertices))
}
