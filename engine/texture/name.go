// Package texture tracks the textures the command stream creates: their stable name hashes, sampler state
// per tile and the backend textures uploaded for them on the render timeline.
package texture

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Hash is the stable identity of a texture's logical name. Zero means no texture.
type Hash uint64

// nameSeed keeps texture name hashes in a different domain from vertex content hashes.
const nameSeed = 0x6F78792D74657821

// NameHash hashes a texture name. The result is stable across runs so it can key on-disk overrides.
func NameHash(name string) Hash {
	d := xxhash.NewWithSeed(nameSeed)
	_, _ = d.WriteString(name)
	return Hash(d.Sum64())
}

// NameTable remembers every name that was hashed so hashes can be turned back into names when saving.
// It is safe for concurrent use.
type NameTable struct {
	mu     sync.RWMutex
	names  map[Hash]string
	hashes map[string]Hash
}

// NewNameTable creates an empty table.
func NewNameTable() *NameTable {
	return &NameTable{
		names:  make(map[Hash]string),
		hashes: make(map[string]Hash),
	}
}

// Hash returns NameHash(name) and records the pair in both directions.
func (t *NameTable) Hash(name string) Hash {
	h := NameHash(name)
	t.mu.Lock()
	t.names[h] = name
	t.hashes[name] = h
	t.mu.Unlock()
	return h
}

// Name returns the name recorded for h.
func (t *NameTable) Name(h Hash) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.names[h]
	return name, ok
}

// Lookup returns the hash recorded for name without recording anything.
func (t *NameTable) Lookup(name string) (Hash, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.hashes[name]
	return h, ok
}

// Len returns the number of recorded names.
func (t *NameTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}
