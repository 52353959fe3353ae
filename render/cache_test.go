package render

import (
	"errors"
	"testing"

	"github.com/gogpu/g3d/load"
	"github.com/gogpu/g3d/mesh"
)

const kindBox GeometryKind = "box"

func TestGeometryCacheSharesBuffer(t *testing.T) {
	c := NewGeometryCache()
	calls := 0
	factory := func() *mesh.Mesh {
		calls++
		return mesh.UnitBox()
	}

	b1, p1, err := c.Acquire(1, kindBox, factory)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if p1.Empty() {
		t.Fatal("first Acquire returned no pending")
	}
	b2, p2, err := c.Acquire(1, kindBox, factory)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if p2 != nil {
		t.Error("second Acquire returned a pending")
	}
	if b1 != b2 {
		t.Error("instances of one kind got different buffers")
	}
	if calls != 1 {
		t.Errorf("factory called %d times, want 1", calls)
	}
	if c.Len() != 1 || c.RefCount(1, kindBox) != 2 {
		t.Errorf("Len = %d RefCount = %d, want 1 and 2", c.Len(), c.RefCount(1, kindBox))
	}
	if b1.RefCount() != 3 {
		t.Errorf("buffer RefCount = %d, want 3 (entry and two instances)", b1.RefCount())
	}

	c.Release(1, kindBox)
	b2.Release()
	if c.Len() != 1 || c.RefCount(1, kindBox) != 1 {
		t.Errorf("after first release Len = %d RefCount = %d, want 1 and 1", c.Len(), c.RefCount(1, kindBox))
	}

	c.Release(1, kindBox)
	b1.Release()
	if c.Len() != 0 || c.RefCount(1, kindBox) != 0 {
		t.Errorf("after last release Len = %d, want 0", c.Len())
	}
	if b1.State() != StateReleased {
		t.Errorf("buffer state = %v, want Released", b1.State())
	}
	p1.Release()

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Entries != 0 {
		t.Errorf("Stats = %+v, want 1 hit 1 miss 0 entries", s)
	}
}

func TestGeometryCacheKeysByContext(t *testing.T) {
	c := NewGeometryCache()
	b1, _, _ := c.Acquire(1, kindBox, mesh.UnitBox)
	b2, _, _ := c.Acquire(2, kindBox, mesh.UnitBox)
	b3, _, _ := c.Acquire(1, "sphere", mesh.UnitSphere)
	if b1 == b2 || b1 == b3 {
		t.Error("different keys share a buffer")
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestGeometryCacheInvalidMesh(t *testing.T) {
	c := NewGeometryCache()
	tests := []struct {
		name    string
		factory func() *mesh.Mesh
	}{
		{"nil", func() *mesh.Mesh { return nil }},
		{"no indices", func() *mesh.Mesh { return &mesh.Mesh{Vertices: mesh.UnitBox().Vertices} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, p, err := c.Acquire(1, kindBox, tt.factory)
			if !errors.Is(err, mesh.ErrInvalidMesh) {
				t.Errorf("error = %v, want ErrInvalidMesh", err)
			}
			if b != nil || p != nil {
				t.Error("Acquire returned resources with an error")
			}
			if c.Len() != 0 {
				t.Errorf("Len = %d, want 0", c.Len())
			}
		})
	}
}

func TestGeometryCacheReleaseUnknown(t *testing.T) {
	c := NewGeometryCache()
	c.Release(7, kindBox)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestGeometryCacheUploadOnce(t *testing.T) {
	dev := NewHeadlessDevice()
	c := NewGeometryCache()
	q := load.NewQueue[Device]()

	b1, p, err := c.Acquire(1, kindBox, mesh.UnitBox)
	if err != nil {
		t.Fatal(err)
	}
	q.Push(p)
	p.Release()
	b2, _, _ := c.Acquire(1, kindBox, mesh.UnitBox)

	stats, err := q.Drain(dev)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if stats.Uploaded != 1 {
		t.Errorf("Uploaded = %d, want 1", stats.Uploaded)
	}
	if !b1.Ready() || !b2.Ready() {
		t.Error("shared buffer not resident after drain")
	}
	if n := dev.Stats().BuffersCreated; n != 4 {
		t.Errorf("BuffersCreated = %d, want 4", n)
	}

	for _, b := range []*GeometryBuffer{b1, b2} {
		c.Release(1, kindBox)
		b.Release()
	}
	if n := dev.Stats().BuffersLive; n != 0 {
		t.Errorf("BuffersLive = %d, want 0", n)
	}
}

func TestGeometryCacheReleasedBeforeDrain(t *testing.T) {
	dev := NewHeadlessDevice()
	c := NewGeometryCache()
	q := load.NewQueue[Device]()

	b, p, _ := c.Acquire(1, kindBox, mesh.UnitBox)
	q.Push(p)
	p.Release()
	c.Release(1, kindBox)
	b.Release()

	stats, err := q.Drain(dev)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Discarded != 1 || stats.Uploaded != 0 {
		t.Errorf("stats = %+v, want 1 discarded", stats)
	}
	if dev.Stats().BuffersCreated != 0 {
		t.Error("cancelled geometry reached the device")
	}
}

func TestGeometryCachePurge(t *testing.T) {
	c := NewGeometryCache()
	b1, p1, _ := c.Acquire(1, kindBox, mesh.UnitBox)
	c.Acquire(1, "sphere", mesh.UnitSphere)
	c.Acquire(2, kindBox, mesh.UnitBox)

	if n := c.Purge(1); n != 2 {
		t.Errorf("Purge = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if b1.RefCount() != 1 {
		t.Errorf("buffer RefCount = %d, want 1 (instance only)", b1.RefCount())
	}
	if p1.RefCount() != 1 {
		t.Errorf("pending RefCount = %d, want 1", p1.RefCount())
	}

	c.Release(1, kindBox)
	b1.Release()
	if b1.State() != StateReleased {
		t.Errorf("state = %v, want Released", b1.State())
	}
}

func TestGeometryCacheReleaseBufferAfterPurge(t *testing.T) {
	c := NewGeometryCache()
	old, p1, _ := c.Acquire(1, kindBox, mesh.UnitBox)
	defer p1.Release()
	c.Purge(1)

	fresh, p2, _ := c.Acquire(1, kindBox, mesh.UnitBox)
	defer p2.Release()
	if fresh == old {
		t.Fatal("Acquire after Purge returned the purged buffer")
	}

	c.ReleaseBuffer(1, kindBox, old)
	old.Release()
	if got := c.RefCount(1, kindBox); got != 1 {
		t.Errorf("RefCount after stale release = %d, want 1", got)
	}
	if fresh.State() == StateReleased {
		t.Error("stale release dropped the new entry's buffer")
	}

	c.ReleaseBuffer(1, kindBox, nil)
	if got := c.RefCount(1, kindBox); got != 1 {
		t.Errorf("RefCount after nil release = %d, want 1", got)
	}

	c.ReleaseBuffer(1, kindBox, fresh)
	fresh.Release()
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if fresh.State() != StateReleased {
		t.Errorf("state = %v, want Released", fresh.State())
	}
}
