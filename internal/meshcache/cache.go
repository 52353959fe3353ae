// Package meshcache memoizes parsed model meshes by file path under a
// memory budget, so a model file loaded by many shapes is parsed once.
package meshcache

import (
	"container/list"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/mesh"
)

// Default cache configuration constants.
const (
	// DefaultMaxSizeMB is the default maximum cache size in megabytes.
	DefaultMaxSizeMB = 64
	// bytesPerMB is the number of bytes in a megabyte.
	bytesPerMB = 1024 * 1024
)

// LoadFunc parses the model at path.
type LoadFunc func(path string, smooth bool) (*mesh.Mesh, error)

type key struct {
	path   string
	smooth bool
}

// Cache is an LRU cache of meshes keyed by cleaned file path and normal
// mode. It is safe for concurrent use.
//
// Meshes are copied on the way in and on the way out: callers own what
// they get and may hand it to an upload.
type Cache struct {
	mu      sync.Mutex
	entries map[key]*entry
	lru     *list.List // front = most recent
	size    int64
	maxSize int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type entry struct {
	key     key
	mesh    *mesh.Mesh
	size    int64
	element *list.Element
}

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Size is the current memory usage in bytes.
	Size int64
	// MaxSize is the memory budget in bytes.
	MaxSize int64
	// Entries is the number of cached meshes.
	Entries int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// Evictions is the number of entries evicted or invalidated.
	Evictions uint64
}

// New creates a cache with a budget of maxSizeMB megabytes.
// If maxSizeMB <= 0, DefaultMaxSizeMB is used.
func New(maxSizeMB int) *Cache {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSizeMB
	}
	return newWithBytes(int64(maxSizeMB) * bytesPerMB)
}

func newWithBytes(maxSize int64) *Cache {
	return &Cache{
		entries: make(map[key]*entry),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns a copy of the mesh cached for path.
func (c *Cache) Get(path string, smooth bool) (*mesh.Mesh, bool) {
	k := key{path: filepath.Clean(path), smooth: smooth}

	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	c.lru.MoveToFront(e.element)
	m := e.mesh.Clone()
	c.mu.Unlock()

	c.hits.Add(1)
	return m, true
}

// Put stores a copy of m. Meshes larger than the whole budget are not
// cached. Least recently used entries are evicted to make room.
func (c *Cache) Put(path string, smooth bool, m *mesh.Mesh) {
	if m == nil {
		return
	}
	size := m.SizeBytes()
	if size <= 0 || size > c.maxSize {
		return
	}
	k := key{path: filepath.Clean(path), smooth: smooth}
	stored := m.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[k]; ok {
		c.remove(existing)
	}
	c.evictUntilSize(c.maxSize - size)

	e := &entry{key: k, mesh: stored, size: size}
	e.element = c.lru.PushFront(e)
	c.entries[k] = e
	c.size += size
}

// Load returns the cached mesh for path or parses it with load and caches
// the result. Parse errors are not cached.
func (c *Cache) Load(path string, smooth bool, load LoadFunc) (*mesh.Mesh, error) {
	if m, ok := c.Get(path, smooth); ok {
		return m, nil
	}
	m, err := load(path, smooth)
	if err != nil {
		return nil, err
	}
	c.Put(path, smooth, m)
	g3d.Logger().Debug("meshcache: model parsed", "path", path, "vertices", m.VertexCount(), "bytes", m.SizeBytes())
	return m, nil
}

// Invalidate drops every entry for path and reports how many were dropped.
func (c *Cache) Invalidate(path string) int {
	path = filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, smooth := range []bool{false, true} {
		if e, ok := c.entries[key{path: path, smooth: smooth}]; ok {
			c.remove(e)
			c.evictions.Add(1)
			n++
		}
	}
	return n
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := uint64(len(c.entries)); n > 0 {
		c.evictions.Add(n)
	}
	c.entries = make(map[key]*entry)
	c.lru.Init()
	c.size = 0
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Size returns the current memory usage in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	s := Stats{Size: c.size, MaxSize: c.maxSize, Entries: len(c.entries)}
	c.mu.Unlock()
	s.Hits = c.hits.Load()
	s.Misses = c.misses.Load()
	s.Evictions = c.evictions.Load()
	return s
}

// evictUntilSize removes least recently used entries until size <= target.
// Must be called with c.mu held.
func (c *Cache) evictUntilSize(target int64) {
	for c.size > target {
		back := c.lru.Back()
		if back == nil {
			return
		}
		c.remove(back.Value.(*entry))
		c.evictions.Add(1)
	}
}

// remove unlinks e. Must be called with c.mu held.
func (c *Cache) remove(e *entry) {
	c.lru.Remove(e.element)
	delete(c.entries, e.key)
	c.size -= e.size
}
