package meshcache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/g3d/mesh"
)

const triangleOBJ = `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

func TestGetPut(t *testing.T) {
	c := New(0)
	_, ok := c.Get("model.obj", true)
	assert.False(t, ok)

	box := mesh.UnitBox()
	c.Put("./models/../model.obj", true, box)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, box.SizeBytes(), c.Size())

	got, ok := c.Get("model.obj", true)
	require.True(t, ok)
	assert.Equal(t, box.Vertices, got.Vertices)

	got.Vertices[0].X = 100
	again, _ := c.Get("model.obj", true)
	assert.NotEqual(t, float32(100), again.Vertices[0].X, "Get must return a copy")

	_, ok = c.Get("model.obj", false)
	assert.False(t, ok, "smooth and flat variants are separate entries")

	s := c.Stats()
	assert.Equal(t, uint64(2), s.Hits)
	assert.Equal(t, uint64(2), s.Misses)
	assert.Equal(t, int64(DefaultMaxSizeMB*bytesPerMB), s.MaxSize)
}

func TestEviction(t *testing.T) {
	box := mesh.UnitBox()
	c := newWithBytes(2 * box.SizeBytes())

	c.Put("a.obj", false, box)
	c.Put("b.obj", false, box)
	_, _ = c.Get("a.obj", false)
	c.Put("c.obj", false, box)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("b.obj", false)
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a.obj", false)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestPutTooLarge(t *testing.T) {
	box := mesh.UnitBox()
	c := newWithBytes(box.SizeBytes() - 1)
	c.Put("big.obj", false, box)
	assert.Equal(t, 0, c.Len())
}

func TestPutReplaces(t *testing.T) {
	c := New(1)
	c.Put("m.obj", false, mesh.UnitBox())
	c.Put("m.obj", false, mesh.UnitSphere())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, mesh.UnitSphere().SizeBytes(), c.Size())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte(triangleOBJ), 0o600))

	c := New(1)
	calls := 0
	load := func(p string, smooth bool) (*mesh.Mesh, error) {
		calls++
		return mesh.LoadOBJ(p, smooth)
	}

	m1, err := c.Load(path, false, load)
	require.NoError(t, err)
	m2, err := c.Load(path, false, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, m1.VertexCount())
	assert.Equal(t, m1.Vertices, m2.Vertices)
}

func TestLoadErrorNotCached(t *testing.T) {
	c := New(1)
	boom := errors.New("boom")
	_, err := c.Load("x.obj", false, func(string, bool) (*mesh.Mesh, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(1)
	c.Put("m.obj", false, mesh.UnitBox())
	c.Put("m.obj", true, mesh.UnitBox())
	c.Put("n.obj", true, mesh.UnitBox())

	assert.Equal(t, 2, c.Invalidate("./m.obj"))
	assert.Equal(t, 0, c.Invalidate("m.obj"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Size())
	assert.Equal(t, uint64(3), c.Stats().Evictions)
}

func TestWatchInvalidatesChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte(triangleOBJ), 0o600))

	c := New(1)
	_, err := c.Load(path, false, mesh.LoadOBJ)
	require.NoError(t, err)

	changed := make(chan string, 8)
	w, err := c.Watch(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(path))

	require.NoError(t, os.WriteFile(path, []byte(triangleOBJ+"f 3 2 1\n"), 0o600))

	select {
	case p := <-changed:
		assert.Equal(t, filepath.Clean(path), p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	_, ok := c.Get(path, false)
	assert.False(t, ok, "changed file should be dropped from the cache")

	m, err := c.Load(path, false, mesh.LoadOBJ)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TriangleCount())
}

func TestWatcherCloseIdempotent(t *testing.T) {
	w, err := New(1).Watch(nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWatcherConcurrentClose(t *testing.T) {
	w, err := New(1).Watch(nil)
	require.NoError(t, err)
	require.NoError(t, w.Add(filepath.Join(t.TempDir(), "model.obj")))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = w.Close()
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
