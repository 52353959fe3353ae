package render

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/load"
	"github.com/gogpu/g3d/mesh"
)

// ContextID identifies a rendering context. GPU objects are only valid in
// the context (or share group) that created them, so cached geometry is
// keyed by it.
type ContextID uint64

// GeometryKind names a canonical mesh shared by every shape of that kind.
type GeometryKind string

type cacheKey struct {
	ctx  ContextID
	kind GeometryKind
}

type cacheEntry struct {
	buffer    *GeometryBuffer
	pending   *load.Pending[Device]
	instances int
}

// GeometryCacheStats contains cache statistics.
type GeometryCacheStats struct {
	// Entries is the number of live entries.
	Entries int
	// Hits is the number of Acquire calls that found an entry.
	Hits uint64
	// Misses is the number of Acquire calls that built a new entry.
	Misses uint64
}

// GeometryCache shares one GeometryBuffer per (context, kind) among all
// instances of a shape kind. An entry lives while at least one instance
// holds it. It is safe for concurrent use.
type GeometryCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewGeometryCache creates an empty cache.
func NewGeometryCache() *GeometryCache {
	return &GeometryCache{entries: make(map[cacheKey]*cacheEntry)}
}

// Acquire returns the shared buffer for (ctx, kind), retained for the
// caller, who must balance it with Release on the buffer and on the cache.
//
// On a miss factory builds the canonical mesh and Acquire also returns the
// pending upload of the new buffer; the caller pushes it to the context
// queue once. On a hit the returned pending is nil. An invalid mesh is
// reported as an error wrapping mesh.ErrInvalidMesh and nothing is cached.
//
// factory runs with the cache locked and must not call back into it.
func (c *GeometryCache) Acquire(ctx ContextID, kind GeometryKind, factory func() *mesh.Mesh) (*GeometryBuffer, *load.Pending[Device], error) {
	key := cacheKey{ctx: ctx, kind: kind}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.instances++
		c.hits.Add(1)
		g3d.Logger().Debug("render: geometry cache hit", "context", ctx, "kind", kind, "instances", e.instances)
		return e.buffer.Retain(), nil, nil
	}

	m := factory()
	if m == nil {
		return nil, nil, fmt.Errorf("render: %s geometry: %w: nil mesh", kind, mesh.ErrInvalidMesh)
	}
	if err := m.Validate(); err != nil {
		return nil, nil, fmt.Errorf("render: %s geometry: %w", kind, err)
	}

	buf := NewGeometryBuffer(fmt.Sprintf("%s#%d", kind, ctx))
	p := NewMeshUpload(buf, m)
	c.entries[key] = &cacheEntry{buffer: buf, pending: p, instances: 1}
	c.misses.Add(1)
	g3d.Logger().Debug("render: geometry cache miss", "context", ctx, "kind", kind, "vertices", m.VertexCount())
	return buf.Retain(), p.Clone(), nil
}

// Release drops one instance of (ctx, kind). The last instance erases the
// entry and releases the entry's pending and buffer references. Unknown
// keys are ignored.
func (c *GeometryCache) Release(ctx ContextID, kind GeometryKind) {
	c.release(ctx, kind, nil)
}

// ReleaseBuffer is Release for the instance that acquired buf. It is
// ignored when the entry for (ctx, kind) no longer holds buf, which happens
// after a Purge erased the entry buf came from and a later Acquire created
// a new one.
func (c *GeometryCache) ReleaseBuffer(ctx ContextID, kind GeometryKind, buf *GeometryBuffer) {
	if buf == nil {
		return
	}
	c.release(ctx, kind, buf)
}

func (c *GeometryCache) release(ctx ContextID, kind GeometryKind, buf *GeometryBuffer) {
	key := cacheKey{ctx: ctx, kind: kind}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || (buf != nil && e.buffer != buf) {
		c.mu.Unlock()
		return
	}
	e.instances--
	if e.instances > 0 {
		c.mu.Unlock()
		return
	}
	delete(c.entries, key)
	c.mu.Unlock()

	e.drop()
	g3d.Logger().Debug("render: geometry cache entry erased", "context", ctx, "kind", kind)
}

// Purge erases every entry of ctx regardless of its instance count and
// returns how many entries were erased. Instances still holding a buffer
// keep it alive until they release it.
func (c *GeometryCache) Purge(ctx ContextID) int {
	c.mu.Lock()
	var dropped []*cacheEntry
	for key, e := range c.entries {
		if key.ctx == ctx {
			dropped = append(dropped, e)
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	for _, e := range dropped {
		e.drop()
	}
	if len(dropped) > 0 {
		g3d.Logger().Debug("render: geometry cache purged", "context", ctx, "entries", len(dropped))
	}
	return len(dropped)
}

// Len returns the number of entries.
func (c *GeometryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RefCount returns the number of instances holding (ctx, kind), or 0 when
// there is no entry.
func (c *GeometryCache) RefCount(ctx ContextID, kind GeometryKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[cacheKey{ctx: ctx, kind: kind}]; ok {
		return e.instances
	}
	return 0
}

// Stats returns a snapshot of the cache statistics.
func (c *GeometryCache) Stats() GeometryCacheStats {
	return GeometryCacheStats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func (e *cacheEntry) drop() {
	e.pending.Release()
	e.buffer.Release()
}
