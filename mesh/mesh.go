package mesh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/g3d"
)

// ErrInvalidMesh is returned when a mesh fails validation.
var ErrInvalidMesh = errors.New("mesh: invalid mesh")

// Mesh is indexed triangle geometry.
//
// Vertices, Normals and TexCoords are parallel per-vertex arrays; TexCoords
// is optional. Every consecutive triple of Indices forms one triangle.
//
// A Mesh owns its slices. Use Clone to copy it and Take to move it.
type Mesh struct {
	Vertices  []g3d.Vec3
	Normals   []g3d.Vec3
	TexCoords []g3d.Vec2
	Indices   []uint32
}

// New returns a mesh holding copies of the given arrays.
//
// When normals is nil and the indices are in range, smooth normals are
// synthesized: the mesh is expanded to a triangle soup, normals are derived
// from the faces and the result is indexed again. The returned mesh is not
// validated; call Validate before uploading it.
func New(vertices, normals []g3d.Vec3, texCoords []g3d.Vec2, indices []uint32) *Mesh {
	m := &Mesh{
		Vertices:  slices.Clone(vertices),
		Normals:   slices.Clone(normals),
		TexCoords: slices.Clone(texCoords),
		Indices:   slices.Clone(indices),
	}
	if normals != nil || len(indices) == 0 || len(indices)%3 != 0 || !m.indicesInRange() {
		return m
	}
	if texCoords != nil && len(texCoords) != len(vertices) {
		return m
	}
	soup := m.Unindex()
	soup.Normals = SmoothNormals(soup.Vertices)
	return soup.BuildIndices()
}

// FromTriangles builds an indexed mesh from a triangle soup: every three
// consecutive vertices form one triangle. Normals are synthesized (smooth or
// flat) and identical corners are merged.
func FromTriangles(vertices []g3d.Vec3, texCoords []g3d.Vec2, smooth bool) (*Mesh, error) {
	if len(vertices) == 0 || len(vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d soup vertices is not a positive multiple of 3", ErrInvalidMesh, len(vertices))
	}
	if texCoords != nil && len(texCoords) != len(vertices) {
		return nil, fmt.Errorf("%w: %d texture coordinates for %d vertices", ErrInvalidMesh, len(texCoords), len(vertices))
	}
	var normals []g3d.Vec3
	if smooth {
		normals = SmoothNormals(vertices)
	} else {
		normals = FlatNormals(vertices)
	}
	soup := &Mesh{Vertices: vertices, Normals: normals, TexCoords: texCoords}
	return soup.BuildIndices(), nil
}

// FromTrianglesWithNormals builds an indexed mesh from a triangle soup whose
// normals are already known.
func FromTrianglesWithNormals(vertices, normals []g3d.Vec3, texCoords []g3d.Vec2) (*Mesh, error) {
	if len(vertices) == 0 || len(vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d soup vertices is not a positive multiple of 3", ErrInvalidMesh, len(vertices))
	}
	if len(normals) != len(vertices) {
		return nil, fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidMesh, len(normals), len(vertices))
	}
	if texCoords != nil && len(texCoords) != len(vertices) {
		return nil, fmt.Errorf("%w: %d texture coordinates for %d vertices", ErrInvalidMesh, len(texCoords), len(vertices))
	}
	soup := &Mesh{Vertices: vertices, Normals: normals, TexCoords: texCoords}
	return soup.BuildIndices(), nil
}

// Validate reports why m cannot be uploaded, or nil if it is valid.
func (m *Mesh) Validate() error {
	switch {
	case m == nil:
		return fmt.Errorf("%w: nil mesh", ErrInvalidMesh)
	case len(m.Vertices) == 0:
		return fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	case len(m.Normals) == 0:
		return fmt.Errorf("%w: no normals", ErrInvalidMesh)
	case len(m.Indices) == 0:
		return fmt.Errorf("%w: no indices", ErrInvalidMesh)
	case len(m.Indices)%3 != 0:
		return fmt.Errorf("%w: index count %d is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	case len(m.Normals) != len(m.Vertices):
		return fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidMesh, len(m.Normals), len(m.Vertices))
	case m.TexCoords != nil && len(m.TexCoords) != len(m.Vertices):
		return fmt.Errorf("%w: %d texture coordinates for %d vertices", ErrInvalidMesh, len(m.TexCoords), len(m.Vertices))
	case !m.indicesInRange():
		return fmt.Errorf("%w: index out of range for %d vertices", ErrInvalidMesh, len(m.Vertices))
	}
	return nil
}

// Valid reports whether m has vertices, normals and indices, a whole number
// of triangles, matching per-vertex array lengths and in-range indices.
func (m *Mesh) Valid() bool {
	return m.Validate() == nil
}

func (m *Mesh) indicesInRange() bool {
	n := uint32(len(m.Vertices))
	for _, i := range m.Indices {
		if i >= n {
			return false
		}
	}
	return true
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// HasTexCoords reports whether the mesh carries texture coordinates.
func (m *Mesh) HasTexCoords() bool { return len(m.TexCoords) > 0 }

// SizeBytes returns the size of the vertex, normal, texture coordinate and
// index data as uploaded to the GPU.
func (m *Mesh) SizeBytes() int64 {
	return int64(len(m.Vertices))*12 + int64(len(m.Normals))*12 +
		int64(len(m.TexCoords))*8 + int64(len(m.Indices))*4
}

// Bounds returns the axis-aligned bounding box of the vertices.
// An empty mesh has zero bounds.
func (m *Mesh) Bounds() (lo, hi g3d.Vec3) {
	if len(m.Vertices) == 0 {
		return g3d.Vec3{}, g3d.Vec3{}
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:  slices.Clone(m.Vertices),
		Normals:   slices.Clone(m.Normals),
		TexCoords: slices.Clone(m.TexCoords),
		Indices:   slices.Clone(m.Indices),
	}
}

// Take moves the contents of m into a new mesh and leaves m empty.
func (m *Mesh) Take() *Mesh {
	out := &Mesh{
		Vertices:  m.Vertices,
		Normals:   m.Normals,
		TexCoords: m.TexCoords,
		Indices:   m.Indices,
	}
	m.Reset()
	return out
}

// Reset empties m.
func (m *Mesh) Reset() {
	*m = Mesh{}
}
