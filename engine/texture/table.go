package texture

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-rt/engine/metrics"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"go.uber.org/zap"
)

// Tiles is the number of texture tiles a draw can sample.
const Tiles = 2

// Record is one texture created by the command stream.
type Record struct {
	ID     uint32
	Hash   Hash
	Linear bool
	CMS    uint32
	CMT    uint32
	// Texture is the uploaded backend texture, or zero until the first upload is drained.
	Texture backend.TextureID
}

// Filter returns the record's texture filter.
func (r Record) Filter() backend.Filter {
	if r.Linear {
		return backend.FilterLinear
	}
	return backend.FilterPoint
}

// Table maps command-stream texture ids to records. Tile selection and sampler state are simulation-side;
// Drain runs on the render side and publishes backend textures under the table lock.
type Table struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	names   *NameTable
	records []Record
	byHash  map[Hash]uint32

	current     [Tiles]uint32
	currentTile int

	uploads UploadQueue
}

// TableBuilderOption is a functional option applied to a Table during construction via NewTable.
type TableBuilderOption func(*Table)

// WithLogger sets the logger used for failed uploads.
func WithLogger(logger *zap.Logger) TableBuilderOption {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTable creates an empty table recording names into names.
//
// Parameters:
//   - names: the shared name table
//   - opts: functional options
//
// Returns:
//   - *Table: the table
func NewTable(names *NameTable, opts ...TableBuilderOption) *Table {
	if names == nil {
		panic("texture table requires a name table")
	}
	t := &Table{
		logger: zap.NewNop(),
		names:  names,
		byHash: make(map[Hash]uint32),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func checkTile(tile int) {
	if tile < 0 || tile >= Tiles {
		panic(fmt.Sprintf("texture tile %d outside 0..%d", tile, Tiles-1))
	}
}

// NewTexture registers a texture under its logical name and returns its sequential id.
func (t *Table) NewTexture(name string) uint32 {
	h := t.names.Hash(name)
	t.mu.Lock()
	defer t.mu.Unlock()
	id := uint32(len(t.records))
	t.records = append(t.records, Record{ID: id, Hash: h})
	t.byHash[h] = id
	return id
}

// Select binds texture id to tile and makes tile the target of the next Upload.
func (t *Table) Select(tile int, id uint32) {
	checkTile(tile)
	t.current[tile] = id
	t.currentTile = tile
}

// CurrentTile returns the tile most recently passed to Select.
func (t *Table) CurrentTile() int {
	return t.currentTile
}

// Selected returns the texture id bound to tile.
func (t *Table) Selected(tile int) uint32 {
	checkTile(tile)
	return t.current[tile]
}

// Upload queues RGBA8 pixels for the texture bound to the current tile.
func (t *Table) Upload(rgba []byte, width, height uint32) {
	t.uploads.Push(t.current[t.currentTile], rgba, width, height)
}

// SetSamplerParams records the filter and clamp/mirror bits of the texture bound to tile.
func (t *Table) SetSamplerParams(tile int, linear bool, cms, cmt uint32) {
	checkTile(tile)
	id := t.current[tile]
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) >= len(t.records) {
		return
	}
	r := &t.records[id]
	r.Linear = linear
	r.CMS = cms
	r.CMT = cmt
}

// Record returns the record for id.
func (t *Table) Record(id uint32) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.records) {
		return Record{}, false
	}
	return t.records[id], true
}

// TileRecord returns the record bound to tile.
func (t *Table) TileRecord(tile int) (Record, bool) {
	checkTile(tile)
	return t.Record(t.current[tile])
}

// IDForHash returns the texture id registered under a name hash.
func (t *Table) IDForHash(h Hash) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byHash[h]
	return id, ok
}

// BackendTexture returns the uploaded backend texture for id, or zero.
func (t *Table) BackendTexture(id uint32) backend.TextureID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.records) {
		return 0
	}
	return t.records[id].Texture
}

// PendingUploads returns the number of uploads not yet drained.
func (t *Table) PendingUploads() int {
	return t.uploads.Len()
}

// Drain creates backend textures for every queued upload. A texture uploaded again replaces and destroys
// its previous backend texture.
//
// Parameters:
//   - b: the backend to create textures on
//
// Returns:
//   - int: the number of textures created
func (t *Table) Drain(b backend.Backend) int {
	created := 0
	for _, u := range t.uploads.Drain() {
		tex, err := b.CreateTexture(u.Data)
		if err != nil {
			t.logger.Warn("texture upload failed", zap.Uint32("texture", u.ID), zap.Error(err))
			continue
		}
		t.mu.Lock()
		if int(u.ID) >= len(t.records) {
			t.mu.Unlock()
			b.DestroyTexture(tex)
			continue
		}
		old := t.records[u.ID].Texture
		t.records[u.ID].Texture = tex
		t.mu.Unlock()
		if old != 0 {
			b.DestroyTexture(old)
		}
		created++
		metrics.TextureUploads.Inc()
	}
	return created
}

// Release destroys every uploaded backend texture.
func (t *Table) Release(b backend.Backend) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.records {
		if t.records[i].Texture != 0 {
			b.DestroyTexture(t.records[i].Texture)
			t.records[i].Texture = 0
		}
	}
}
