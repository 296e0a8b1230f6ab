package mods

import (
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"go.uber.org/zap"
)

// Store holds every override by scope. Readers on the simulation goroutine and reloads from the file
// watcher may run concurrently; the store serializes them.
//
// Mods handed out by the store are shared. Callers that need to edit one in place (the picking editor)
// do so on the simulation goroutine, which is also the only reader during draws.
type Store struct {
	mu sync.RWMutex

	layouts  map[string]*Mod
	textures map[texture.Hash]*Mod
	nodes    map[NodeID]*Mod

	// aliasOf maps an alias name hash onto its canonical texture hash; aliases is the reverse index
	// used when saving.
	aliasOf map[texture.Hash]texture.Hash
	aliases map[texture.Hash][]texture.Hash

	// known restricts layout mods loaded from files to these names when non-empty.
	known map[string]struct{}

	names  *texture.NameTable
	logger *zap.Logger
}

// StoreBuilderOption configures a Store.
type StoreBuilderOption func(*Store)

// WithLogger sets the logger used by the store and its file loaders.
func WithLogger(logger *zap.Logger) StoreBuilderOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithKnownLayouts restricts the layout names accepted from mod files. Entries naming any other layout are
// logged and skipped.
func WithKnownLayouts(names ...string) StoreBuilderOption {
	return func(s *Store) {
		s.known = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.known[n] = struct{}{}
		}
	}
}

// NewStore creates an empty store. names records texture names for hashes seen in mod files so they can
// be written back out.
//
// Parameters:
//   - names: the shared texture name table
//   - opts: builder options
//
// Returns:
//   - *Store: the new store
func NewStore(names *texture.NameTable, opts ...StoreBuilderOption) *Store {
	if names == nil {
		panic("mods: name table is required")
	}
	s := &Store{
		layouts:  make(map[string]*Mod),
		textures: make(map[texture.Hash]*Mod),
		nodes:    make(map[NodeID]*Mod),
		aliasOf:  make(map[texture.Hash]texture.Hash),
		aliases:  make(map[texture.Hash][]texture.Hash),
		names:    names,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Names returns the texture name table the store records into.
func (s *Store) Names() *texture.NameTable {
	return s.names
}

// LayoutMod returns the mod registered for a geometry layout name.
func (s *Store) LayoutMod(name string) (*Mod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.layouts[name]
	return m, ok
}

// SetLayoutMod registers or replaces a layout mod. A nil mod removes it.
func (s *Store) SetLayoutMod(name string, m *Mod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == nil {
		delete(s.layouts, name)
		return
	}
	s.layouts[name] = m
}

// LayoutNames returns the registered layout names in sorted order.
func (s *Store) LayoutNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// TextureMod returns the mod for a canonical texture hash. Aliases are not followed; see Canonical.
func (s *Store) TextureMod(h texture.Hash) (*Mod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.textures[h]
	return m, ok
}

// SetTextureMod registers or replaces the mod for a canonical texture hash. A nil mod removes it.
func (s *Store) SetTextureMod(h texture.Hash, m *Mod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == nil {
		delete(s.textures, h)
		return
	}
	s.textures[h] = m
}

// EnsureTextureMod returns the mod for h, creating it when none exists. The returned mod always carries a
// material override, empty if it had none, so an editor can fill it in.
//
// Parameters:
//   - h: the canonical texture hash
//
// Returns:
//   - *Mod: the existing or new mod
//   - bool: true if the mod was created
func (s *Store) EnsureTextureMod(h texture.Hash) (*Mod, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.textures[h]; ok {
		m.EnsureMaterial()
		return m, false
	}
	m := New()
	m.EnsureMaterial()
	s.textures[h] = m
	return m, true
}

// TextureHashes returns the hashes that carry a texture mod in ascending order.
func (s *Store) TextureHashes() []texture.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]texture.Hash, 0, len(s.textures))
	for h := range s.textures {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddAlias makes alias resolve to canonical. Re-adding an alias moves it to the new canonical hash.
func (s *Store) AddAlias(alias, canonical texture.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addAliasLocked(alias, canonical)
}

func (s *Store) addAliasLocked(alias, canonical texture.Hash) {
	if prev, ok := s.aliasOf[alias]; ok {
		if prev == canonical {
			return
		}
		s.aliases[prev] = removeHash(s.aliases[prev], alias)
		if len(s.aliases[prev]) == 0 {
			delete(s.aliases, prev)
		}
	}
	s.aliasOf[alias] = canonical
	s.aliases[canonical] = append(s.aliases[canonical], alias)
}

func removeHash(list []texture.Hash, h texture.Hash) []texture.Hash {
	for i, v := range list {
		if v == h {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Canonical resolves h through the alias map. Hashes without an alias resolve to themselves.
func (s *Store) Canonical(h texture.Hash) texture.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.aliasOf[h]; ok {
		return c
	}
	return h
}

// Aliases returns the alias hashes that resolve to canonical, in the order they were added.
func (s *Store) Aliases(canonical texture.Hash) []texture.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]texture.Hash(nil), s.aliases[canonical]...)
}

// RegisterNode binds a graph node to a geometry layout. Any mod previously built for the node is discarded
// first, since node identities are reused. When the layout has a mod, a fresh node mod is built from it.
//
// Parameters:
//   - node: the graph node
//   - layout: the geometry layout name; empty only discards
//
// Returns:
//   - *Mod: the node's new mod, or nil when the layout has none
func (s *Store) RegisterNode(node NodeID, layout string) *Mod {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, node)
	if layout == "" {
		return nil
	}
	lm, ok := s.layouts[layout]
	if !ok {
		return nil
	}
	m := &Mod{Interpolate: true}
	m.MergeLayout(lm)
	s.nodes[node] = m
	return m
}

// NodeMod returns the mod built for a graph node.
func (s *Store) NodeMod(node NodeID) (*Mod, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.nodes[node]
	return m, ok
}

// ForgetNode discards the mod built for a graph node.
func (s *Store) ForgetNode(node NodeID) {
	s.mu.Lock()
	delete(s.nodes, node)
	s.mu.Unlock()
}

// NodeCount returns the number of nodes that carry a mod.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// replaceTextures swaps the texture scope and alias maps wholesale, as a reload does.
func (s *Store) replaceTextures(textures map[texture.Hash]*Mod, aliasPairs [][2]texture.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textures = textures
	s.aliasOf = make(map[texture.Hash]texture.Hash)
	s.aliases = make(map[texture.Hash][]texture.Hash)
	for _, p := range aliasPairs {
		s.addAliasLocked(p[0], p[1])
	}
}

// replaceLayouts swaps the layout scope wholesale. Node mods already built keep their contents.
func (s *Store) replaceLayouts(layouts map[string]*Mod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts = layouts
}
