package mesh

import "github.com/gogpu/g3d"

// corner identifies a vertex by everything that is uploaded for it.
type corner struct {
	pos, normal g3d.Vec3
	tex         g3d.Vec2
}

// BuildIndices returns an indexed copy of m in which identical corners
// (same position, normal and texture coordinate) share one vertex. An
// already indexed mesh is expanded first. Vertex order follows first
// appearance. Per-vertex arrays whose length does not match the vertex
// count are dropped. A mesh with out-of-range indices is returned as an
// unchanged copy, which Validate reports.
func (m *Mesh) BuildIndices() *Mesh {
	if !m.indicesInRange() {
		return m.Clone()
	}
	soup := m
	if len(m.Indices) > 0 {
		soup = m.Unindex()
	}
	n := len(soup.Vertices)
	hasNormals := len(soup.Normals) == n
	hasTex := len(soup.TexCoords) == n && n > 0

	out := &Mesh{
		Vertices: make([]g3d.Vec3, 0, n),
		Indices:  make([]uint32, n),
	}
	if hasNormals {
		out.Normals = make([]g3d.Vec3, 0, n)
	}
	if hasTex {
		out.TexCoords = make([]g3d.Vec2, 0, n)
	}

	table := make(map[corner]uint32, n)
	for i := range n {
		key := corner{pos: soup.Vertices[i]}
		if hasNormals {
			key.normal = soup.Normals[i]
		}
		if hasTex {
			key.tex = soup.TexCoords[i]
		}
		k, ok := table[key]
		if !ok {
			k = uint32(len(out.Vertices))
			table[key] = k
			out.Vertices = append(out.Vertices, key.pos)
			if hasNormals {
				out.Normals = append(out.Normals, key.normal)
			}
			if hasTex {
				out.TexCoords = append(out.TexCoords, key.tex)
			}
		}
		out.Indices[i] = k
	}
	return out
}

// Unindex expands m into a triangle soup with one vertex per index.
// A mesh without indices is copied as is. Indices must be in range.
// Per-vertex arrays whose length does not match the vertex count are
// dropped.
func (m *Mesh) Unindex() *Mesh {
	if len(m.Indices) == 0 {
		return m.Clone()
	}
	out := &Mesh{Vertices: make([]g3d.Vec3, len(m.Indices))}
	if m.Normals != nil && len(m.Normals) == len(m.Vertices) {
		out.Normals = make([]g3d.Vec3, len(m.Indices))
	}
	if m.TexCoords != nil && len(m.TexCoords) == len(m.Vertices) {
		out.TexCoords = make([]g3d.Vec2, len(m.Indices))
	}
	for i, idx := range m.Indices {
		out.Vertices[i] = m.Vertices[idx]
		if out.Normals != nil {
			out.Normals[i] = m.Normals[idx]
		}
		if out.TexCoords != nil {
			out.TexCoords[i] = m.TexCoords[idx]
		}
	}
	return out
}
