package mesh

import (
	"errors"
	"testing"

	"github.com/gogpu/g3d"
)

// stripVertices are four side faces of a unit cube, four vertices each.
var stripVertices = []g3d.Vec3{
	{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: 0.5}, {X: -0.5, Y: -0.5, Z: 0.5},
	{X: 0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: 0.5, Z: -0.5}, {X: 0.5, Y: 0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5},
	{X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 0.5},
	{X: -0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: -0.5, Z: -0.5}, {X: -0.5, Y: -0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5},
}

var stripNormals = []g3d.Vec3{
	{Y: -1}, {Y: -1}, {Y: -1}, {Y: -1},
	{X: 1}, {X: 1}, {X: 1}, {X: 1},
	{Y: 1}, {Y: 1}, {Y: 1}, {Y: 1},
	{X: -1}, {X: -1}, {X: -1}, {X: -1},
}

var stripTexCoords = []g3d.Vec2{
	{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
}

var stripIndices = []uint32{
	0, 1, 2, 2, 3, 0,
	4, 5, 6, 6, 7, 4,
	8, 9, 10, 10, 11, 8,
	12, 13, 14, 14, 15, 12,
}

func TestMeshValidity(t *testing.T) {
	tests := []struct {
		name string
		m    *Mesh
		want bool
	}{
		{"full", New(stripVertices, stripNormals, stripTexCoords, stripIndices), true},
		{"no texcoords", New(stripVertices, stripNormals, nil, stripIndices), true},
		{"23 indices", New(stripVertices, stripNormals, stripTexCoords, stripIndices[:23]), false},
		{"empty", &Mesh{}, false},
		{"index out of range", New(stripVertices, stripNormals, nil, []uint32{0, 1, 16}), false},
		{"normal count mismatch", New(stripVertices, stripNormals[:15], nil, stripIndices), false},
		{"texcoord count mismatch", New(stripVertices, stripNormals, stripTexCoords[:4], stripIndices), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v (Validate: %v)", got, tt.want, tt.m.Validate())
			}
			if err := tt.m.Validate(); err != nil && !errors.Is(err, ErrInvalidMesh) {
				t.Errorf("Validate() = %v, want wrapped ErrInvalidMesh", err)
			}
		})
	}
}

func TestMeshNilValidate(t *testing.T) {
	var m *Mesh
	if err := m.Validate(); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("nil Validate() = %v, want ErrInvalidMesh", err)
	}
}

func TestNewCopiesInput(t *testing.T) {
	verts := append([]g3d.Vec3(nil), stripVertices...)
	m := New(verts, stripNormals, nil, stripIndices)
	verts[0] = g3d.V3(9, 9, 9)
	if m.Vertices[0] == verts[0] {
		t.Error("New() aliased the caller's vertex slice")
	}
}

func TestNewSynthesizesNormals(t *testing.T) {
	m := New(stripVertices, nil, nil, stripIndices)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	// Adjacent side faces meet at 90°, beyond the crease angle, so every
	// corner keeps its face normal.
	for i, idx := range m.Indices {
		want := stripNormals[stripIndices[i]]
		if got := m.Normals[idx]; !got.ApproxEqual(want, 1e-6) {
			t.Fatalf("normal of corner %d = %v, want %v", i, got, want)
		}
	}
}

func TestMeshClone(t *testing.T) {
	m1 := New(stripVertices, stripNormals, stripTexCoords, stripIndices)
	m2 := m1.Clone()
	if !m2.Valid() {
		t.Fatal("clone is not valid")
	}
	m2.Vertices[0] = g3d.V3(7, 7, 7)
	m2.Indices[0] = 3
	if m1.Vertices[0] == m2.Vertices[0] || m1.Indices[0] == m2.Indices[0] {
		t.Error("Clone() shares storage with the original")
	}
	if !m1.Valid() {
		t.Error("original became invalid after clone was modified")
	}
}

func TestMeshTake(t *testing.T) {
	m3 := New(stripVertices, stripNormals, nil, stripIndices)
	m5 := m3.Take()
	if m3.Valid() {
		t.Error("source is still valid after Take()")
	}
	if m3.VertexCount() != 0 || m3.TriangleCount() != 0 {
		t.Errorf("source has %d vertices, %d triangles after Take(), want 0, 0", m3.VertexCount(), m3.TriangleCount())
	}
	if !m5.Valid() {
		t.Errorf("destination invalid after Take(): %v", m5.Validate())
	}
}

func TestMeshCounts(t *testing.T) {
	m := New(stripVertices, stripNormals, stripTexCoords, stripIndices)
	if got := m.VertexCount(); got != 16 {
		t.Errorf("VertexCount() = %d, want 16", got)
	}
	if got := m.TriangleCount(); got != 8 {
		t.Errorf("TriangleCount() = %d, want 8", got)
	}
	if got, want := m.SizeBytes(), int64(16*12+16*12+16*8+24*4); got != want {
		t.Errorf("SizeBytes() = %d, want %d", got, want)
	}
	lo, hi := m.Bounds()
	if lo != g3d.V3(-0.5, -0.5, -0.5) || hi != g3d.V3(0.5, 0.5, 0.5) {
		t.Errorf("Bounds() = %v, %v", lo, hi)
	}
}

func TestFromTriangles(t *testing.T) {
	// A unit square as two triangles sharing an edge.
	soup := []g3d.Vec3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0},
	}
	m, err := FromTriangles(soup, nil, true)
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	if got := m.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4 after merging shared corners", got)
	}
	if got := len(m.Indices); got != 6 {
		t.Errorf("index count = %d, want 6", got)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	if _, err := FromTriangles(soup[:5], nil, true); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("FromTriangles(5 vertices) error = %v, want ErrInvalidMesh", err)
	}
	if _, err := FromTriangles(soup, make([]g3d.Vec2, 2), false); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("FromTriangles(short texcoords) error = %v, want ErrInvalidMesh", err)
	}
}

func TestBuildIndicesKeepsDistinctTexCoords(t *testing.T) {
	soup := &Mesh{
		Vertices:  []g3d.Vec3{{}, {X: 1}, {Y: 1}, {}, {X: 1}, {Y: 1}},
		Normals:   []g3d.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}},
		TexCoords: []g3d.Vec2{{}, {X: 1}, {Y: 1}, {X: 0.5}, {X: 1}, {Y: 1}},
	}
	m := soup.BuildIndices()
	if got := m.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4 (first corner differs only in texcoord)", got)
	}
	back := m.Unindex()
	for i := range soup.Vertices {
		if back.Vertices[i] != soup.Vertices[i] || back.TexCoords[i] != soup.TexCoords[i] {
			t.Errorf("Unindex()[%d] = %v/%v, want %v/%v", i, back.Vertices[i], back.TexCoords[i], soup.Vertices[i], soup.TexCoords[i])
		}
	}
}

func TestBuildIndicesMismatchedArrays(t *testing.T) {
	tests := []struct {
		name string
		m    *Mesh
	}{
		{"short normals", &Mesh{
			Vertices: []g3d.Vec3{{}, {X: 1}, {Y: 1}},
			Normals:  []g3d.Vec3{{Z: 1}},
			Indices:  []uint32{0, 1, 2},
		}},
		{"short texcoords", &Mesh{
			Vertices:  []g3d.Vec3{{}, {X: 1}, {Y: 1}},
			Normals:   []g3d.Vec3{{Z: 1}, {Z: 1}, {Z: 1}},
			TexCoords: []g3d.Vec2{{}, {X: 1}},
			Indices:   []uint32{0, 1, 2},
		}},
		{"index out of range", &Mesh{
			Vertices: []g3d.Vec3{{}, {X: 1}, {Y: 1}},
			Normals:  []g3d.Vec3{{Z: 1}, {Z: 1}, {Z: 1}},
			Indices:  []uint32{0, 1, 5},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.m.BuildIndices()
			if got := len(m.Vertices); got != 3 {
				t.Errorf("len(Vertices) = %d, want 3", got)
			}
			if len(m.TexCoords) != 0 && len(m.TexCoords) != len(m.Vertices) {
				t.Errorf("len(TexCoords) = %d, want 0 or %d", len(m.TexCoords), len(m.Vertices))
			}
		})
	}

	m := (&Mesh{
		Vertices: []g3d.Vec3{{}, {X: 1}, {Y: 1}},
		Normals:  []g3d.Vec3{{Z: 1}},
		Indices:  []uint32{0, 1, 2},
	}).BuildIndices()
	if m.Normals != nil {
		t.Errorf("Normals = %v, want dropped", m.Normals)
	}
	if !errors.Is(m.Validate(), ErrInvalidMesh) {
		t.Errorf("Validate() = %v, want ErrInvalidMesh", m.Validate())
	}
}
