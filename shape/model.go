package shape

import (
	"path/filepath"

	"github.com/gogpu/g3d/internal/meshcache"
	"github.com/gogpu/g3d/mesh"
	"github.com/gogpu/g3d/render"
)

// models memoizes parsed model files for LoadModel.
var models = meshcache.New(meshcache.DefaultMaxSizeMB)

// Model is an object with its own geometry.
type Model struct {
	Object
	source string
}

// NewModel creates a model drawing a copy of m, which must be valid.
func NewModel(ctx *render.Context, m *mesh.Mesh) (*Model, error) {
	return newModel(ctx, "model", m)
}

// LoadModel creates a model from a Wavefront OBJ file. Each file is parsed
// once per normal mode; later loads reuse the parsed mesh.
func LoadModel(ctx *render.Context, path string, smooth bool) (*Model, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	m, err := models.Load(path, smooth, mesh.LoadOBJ)
	if err != nil {
		return nil, err
	}
	md, err := newModel(ctx, filepath.Base(path), m)
	if err != nil {
		return nil, err
	}
	md.source = path
	return md, nil
}

func newModel(ctx *render.Context, label string, m *mesh.Mesh) (*Model, error) {
	md := &Model{}
	if err := md.initUnique(ctx, label, m); err != nil {
		return nil, err
	}
	return md, nil
}

// Clone returns a model drawing the same GPU geometry as m. The geometry is
// uploaded once however many clones exist.
func (m *Model) Clone() (*Model, error) {
	out := &Model{source: m.source}
	if err := m.cloneInto(&out.Object); err != nil {
		return nil, err
	}
	return out, nil
}

// SetMesh replaces the model geometry with a copy of msh, which must be
// valid. Clones made earlier keep drawing the old geometry.
func (m *Model) SetMesh(msh *mesh.Mesh) error {
	if err := m.setMesh("model", msh); err != nil {
		return err
	}
	m.source = ""
	return nil
}

// Source returns the file the model was loaded from, or "".
func (m *Model) Source() string { return m.source }

// ModelCacheStats returns the statistics of the parsed model cache.
func ModelCacheStats() meshcache.Stats { return models.Stats() }

// WatchModels drops parsed models from the cache when their files change,
// so the next LoadModel sees the new contents. Already created models are
// not affected. Close the returned watcher to stop.
func WatchModels(paths ...string) (*meshcache.Watcher, error) {
	w, err := models.Watch(nil)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return w, nil
}
