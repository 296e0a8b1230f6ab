package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/metrics"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend"
	"go.uber.org/zap"
)

// Tier is the storage class of a cached mesh.
type Tier uint8

const (
	// TierDynamic meshes are updatable and re-keyed onto new content when recycled.
	TierDynamic Tier = iota
	// TierStatic meshes are uploaded once and never change.
	TierStatic
)

func (t Tier) String() string {
	if t == TierStatic {
		return "static"
	}
	return "dynamic"
}

// Defaults for the cache's promotion and aging policy.
const (
	DefaultRequiredFrames        = 3
	DefaultMaxPromotionsPerFrame = 1
	DefaultDynamicLifetime       = 30
	DefaultStaticLifetime        = 900
)

// Record is the cache's view of one backend mesh.
type Record struct {
	Hash         Hash
	VertexCount  uint32
	VertexStride uint32
	IndexCount   uint32
	Raytrace     bool
	Tier         Tier
	Lifetime     int
	// LastFrame is the cache frame the record was last drawn in.
	LastFrame uint64
	Mesh      backend.MeshID
}

func (r *Record) sameShape(vertexCount, vertexStride, indexCount uint32, raytrace bool) bool {
	return r.VertexCount == vertexCount &&
		r.VertexStride == vertexStride &&
		r.IndexCount == indexCount &&
		r.Raytrace == raytrace
}

// LiveFrames reports which published frames the render side may still read. Frames are numbered from 1 in
// the order they were recorded, matching the cache's StartFrame count.
type LiveFrames interface {
	// OldestLiveSeq returns the oldest frame still readable by the render side. ok is false when no frame is.
	OldestLiveSeq() (seq uint64, ok bool)
}

type usage struct {
	counter int
	seen    bool
}

// Cache owns every backend mesh the bridge draws with. It is used from the simulation side only.
type Cache struct {
	backend backend.Backend
	logger  *zap.Logger

	requiredFrames  int
	maxPromotions   int
	dynamicLifetime int
	staticLifetime  int

	dynamic  map[Hash]*Record
	static   map[Hash]*Record
	retired  []*Record
	usage    map[Hash]*usage
	promoted int
	indices  []uint32

	live       LiveFrames
	frame      uint64
	oldestLive uint64
	anyLive    bool
}

// CacheBuilderOption is a functional option applied to a Cache during construction via NewCache.
type CacheBuilderOption func(*Cache)

// WithRequiredFrames sets how many uses a mesh needs before it may be promoted to the static tier.
func WithRequiredFrames(n int) CacheBuilderOption {
	return func(c *Cache) {
		c.requiredFrames = n
	}
}

// WithMaxPromotionsPerFrame caps the static meshes created per frame.
func WithMaxPromotionsPerFrame(n int) CacheBuilderOption {
	return func(c *Cache) {
		c.maxPromotions = n
	}
}

// WithDynamicLifetime sets how many frames an unused dynamic mesh survives.
func WithDynamicLifetime(frames int) CacheBuilderOption {
	return func(c *Cache) {
		c.dynamicLifetime = frames
	}
}

// WithStaticLifetime sets how many frames an unused static mesh survives.
func WithStaticLifetime(frames int) CacheBuilderOption {
	return func(c *Cache) {
		c.staticLifetime = frames
	}
}

// WithLiveFrames makes the cache keep every mesh a live frame references. Without it a mesh is only protected
// during the frame that drew it.
func WithLiveFrames(l LiveFrames) CacheBuilderOption {
	return func(c *Cache) {
		c.live = l
	}
}

// WithLogger sets the logger for promotions and evictions.
func WithLogger(logger *zap.Logger) CacheBuilderOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache creates an empty cache allocating meshes on b.
//
// Parameters:
//   - b: the backend that owns the mesh memory
//   - opts: functional options
//
// Returns:
//   - *Cache: the cache
func NewCache(b backend.Backend, opts ...CacheBuilderOption) *Cache {
	if b == nil {
		panic("mesh cache requires a backend")
	}
	c := &Cache{
		backend:         b,
		logger:          zap.NewNop(),
		requiredFrames:  DefaultRequiredFrames,
		maxPromotions:   DefaultMaxPromotionsPerFrame,
		dynamicLifetime: DefaultDynamicLifetime,
		staticLifetime:  DefaultStaticLifetime,
		dynamic:         make(map[Hash]*Record),
		static:          make(map[Hash]*Record),
		usage:           make(map[Hash]*usage),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process returns the backend mesh for a vertex buffer, uploading, recycling or promoting as needed.
//
// Parameters:
//   - vertices: interleaved vertex floats in layout's format
//   - numTris: the triangle count the buffer was emitted with
//   - layout: the vertex format of the current shader program
//   - raytrace: whether the mesh takes part in ray tracing
//
// Returns:
//   - backend.MeshID: the mesh to draw
//   - error: an error if the backend rejected an upload
func (c *Cache) Process(vertices []float32, numTris int, layout backend.VertexLayout, raytrace bool) (backend.MeshID, error) {
	stride := layout.Stride()
	size := uint32(len(vertices) * 4)
	if numTris < 0 || size%stride != 0 {
		panic(fmt.Sprintf("mesh of %d bytes with %d triangles does not fit stride %d", size, numTris, stride))
	}
	vertexCount := size / stride
	indexCount := uint32(numTris) * 3
	if vertexCount != indexCount {
		panic(fmt.Sprintf("mesh has %d triangles but %d vertices of stride %d", numTris, vertexCount, stride))
	}
	raw := common.SliceToBytes(vertices)
	key := HashBytes(raw)

	if r, ok := c.static[key]; ok {
		r.LastFrame = c.frame
		r.Lifetime = c.staticLifetime
		return r.Mesh, nil
	}

	u, ok := c.usage[key]
	if !ok {
		u = &usage{}
		c.usage[key] = u
	}
	u.counter = min(u.counter+1, c.requiredFrames+1)
	u.seen = true

	if u.counter > c.requiredFrames && c.promoted < c.maxPromotions {
		return c.promote(key, raw, vertexCount, stride, indexCount, raytrace)
	}

	if r, ok := c.dynamic[key]; ok {
		r.LastFrame = c.frame
		r.Lifetime = c.dynamicLifetime
		return r.Mesh, nil
	}

	r := c.recycle(key, vertexCount, stride, indexCount, raytrace)
	if r == nil {
		flags := backend.MeshFlags(0)
		if raytrace {
			flags = backend.MeshRaytrace | backend.MeshUpdatable
		}
		r = &Record{
			Hash:         key,
			VertexCount:  vertexCount,
			VertexStride: stride,
			IndexCount:   indexCount,
			Raytrace:     raytrace,
			Tier:         TierDynamic,
			Mesh:         c.backend.CreateMesh(flags),
		}
		c.dynamic[key] = r
		metrics.MeshEvents.WithLabelValues("create").Inc()
	}
	r.LastFrame = c.frame
	r.Lifetime = c.dynamicLifetime
	if err := c.backend.SetMesh(r.Mesh, raw, vertexCount, stride, c.indexList(indexCount)); err != nil {
		return 0, fmt.Errorf("upload dynamic mesh %016x: %w", uint64(key), err)
	}
	metrics.MeshEvents.WithLabelValues("upload").Inc()
	return r.Mesh, nil
}

func (c *Cache) promote(key Hash, raw []byte, vertexCount, stride, indexCount uint32, raytrace bool) (backend.MeshID, error) {
	flags := backend.MeshFlags(0)
	if raytrace {
		flags = backend.MeshRaytrace
	}
	r := &Record{
		Hash:         key,
		VertexCount:  vertexCount,
		VertexStride: stride,
		IndexCount:   indexCount,
		Raytrace:     raytrace,
		Tier:         TierStatic,
		Lifetime:     c.staticLifetime,
		LastFrame:    c.frame,
		Mesh:         c.backend.CreateMesh(flags),
	}
	if err := c.backend.SetMesh(r.Mesh, raw, vertexCount, stride, c.indexList(indexCount)); err != nil {
		c.backend.DestroyMesh(r.Mesh)
		return 0, fmt.Errorf("upload static mesh %016x: %w", uint64(key), err)
	}
	c.static[key] = r
	c.promoted++
	// The dynamic copy leaves the index now and is destroyed once no live frame draws it.
	if old, ok := c.dynamic[key]; ok {
		delete(c.dynamic, key)
		c.retired = append(c.retired, old)
	}
	metrics.MeshEvents.WithLabelValues("promote").Inc()
	c.logger.Debug("mesh promoted", zap.Uint64("hash", uint64(key)), zap.Uint32("vertices", vertexCount))
	return r.Mesh, nil
}

// recycle moves an idle dynamic record of the same shape onto key.
func (c *Cache) recycle(key Hash, vertexCount, stride, indexCount uint32, raytrace bool) *Record {
	for oldKey, r := range c.dynamic {
		if c.busy(r) || !r.sameShape(vertexCount, stride, indexCount, raytrace) {
			continue
		}
		delete(c.dynamic, oldKey)
		r.Hash = key
		c.dynamic[key] = r
		metrics.MeshEvents.WithLabelValues("recycle").Inc()
		return r
	}
	return nil
}

// busy reports whether r is drawn by the frame being recorded or by a frame the render side may still read.
func (c *Cache) busy(r *Record) bool {
	return r.LastFrame == c.frame || (c.anyLive && r.LastFrame >= c.oldestLive)
}

// indexList returns the shared sequential triangle list, grown to at least n entries.
func (c *Cache) indexList(n uint32) []uint32 {
	for i := uint32(len(c.indices)); i < n; i++ {
		c.indices = append(c.indices, i)
	}
	return c.indices[:n]
}

// StartFrame begins the next frame and ages every record once: usage counters decay, and records whose
// lifetime ran out are destroyed unless a live frame still draws them. Dynamic meshes not drawn by a live
// frame become free for recycling. The per-frame promotion budget is reset.
func (c *Cache) StartFrame() {
	c.frame++
	c.anyLive = false
	if c.live != nil {
		c.oldestLive, c.anyLive = c.live.OldestLiveSeq()
	}

	for key, u := range c.usage {
		switch {
		case u.seen:
			u.seen = false
		case u.counter > 0:
			u.counter--
		default:
			delete(c.usage, key)
		}
	}

	for key, r := range c.static {
		if r.Lifetime > 0 {
			r.Lifetime--
			continue
		}
		if c.busy(r) {
			continue
		}
		c.backend.DestroyMesh(r.Mesh)
		delete(c.static, key)
		metrics.MeshEvents.WithLabelValues("evict_static").Inc()
	}

	for key, r := range c.dynamic {
		if r.Lifetime > 0 {
			r.Lifetime--
			continue
		}
		if c.busy(r) {
			continue
		}
		c.backend.DestroyMesh(r.Mesh)
		delete(c.dynamic, key)
		metrics.MeshEvents.WithLabelValues("evict_dynamic").Inc()
	}

	kept := c.retired[:0]
	for _, r := range c.retired {
		if c.busy(r) {
			kept = append(kept, r)
			continue
		}
		c.backend.DestroyMesh(r.Mesh)
		metrics.MeshEvents.WithLabelValues("retire").Inc()
	}
	clear(c.retired[len(kept):])
	c.retired = kept

	c.promoted = 0
	metrics.MeshRecords.WithLabelValues(TierStatic.String()).Set(float64(len(c.static)))
	metrics.MeshRecords.WithLabelValues(TierDynamic.String()).Set(float64(len(c.dynamic)))
}

// Lookup returns the record stored for key in the given tier.
func (c *Cache) Lookup(tier Tier, key Hash) (Record, bool) {
	m := c.dynamic
	if tier == TierStatic {
		m = c.static
	}
	r, ok := m[key]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Len returns the number of records in a tier.
func (c *Cache) Len(tier Tier) int {
	if tier == TierStatic {
		return len(c.static)
	}
	return len(c.dynamic)
}

// Retired returns the number of promoted dynamic meshes waiting for the render side to stop drawing them.
func (c *Cache) Retired() int {
	return len(c.retired)
}

// Release destroys every cached mesh.
func (c *Cache) Release() {
	for key, r := range c.static {
		c.backend.DestroyMesh(r.Mesh)
		delete(c.static, key)
	}
	for key, r := range c.dynamic {
		c.backend.DestroyMesh(r.Mesh)
		delete(c.dynamic, key)
	}
	for _, r := range c.retired {
		c.backend.DestroyMesh(r.Mesh)
	}
	c.retired = nil
	clear(c.usage)
}
