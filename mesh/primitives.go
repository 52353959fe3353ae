package mesh

import (
	"slices"

	"github.com/chewxy/math32"

	"github.com/gogpu/g3d"
)

// Tessellation defaults for the canonical primitives.
const (
	CylinderSegments = 32
	SphereFragments  = 8
)

// faceUV is the texture coordinate of each quad corner, in corner order.
var faceUV = [4]g3d.Vec2{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}

// quadIndices appends the two triangles of the quad starting at base.
func quadIndices(dst []uint32, base uint32) []uint32 {
	return append(dst, base, base+1, base+2, base+2, base+3, base)
}

// Box returns an axis-aligned box centered at the origin with extents
// length (X), breadth (Y) and height (Z). Every face has its own four
// vertices so edges stay sharp: 24 vertices, 36 indices.
func Box(length, breadth, height float32) *Mesh {
	l, b, h := length/2, breadth/2, height/2
	m := &Mesh{
		Vertices:  make([]g3d.Vec3, 0, 24),
		Normals:   make([]g3d.Vec3, 0, 24),
		TexCoords: make([]g3d.Vec2, 0, 24),
		Indices:   make([]uint32, 0, 36),
	}
	face := func(n g3d.Vec3, corners [4]g3d.Vec3) {
		base := uint32(len(m.Vertices))
		for k, c := range corners {
			m.Vertices = append(m.Vertices, c)
			m.Normals = append(m.Normals, n)
			m.TexCoords = append(m.TexCoords, faceUV[k])
		}
		m.Indices = quadIndices(m.Indices, base)
	}
	for _, s := range [2]float32{-1, 1} {
		face(g3d.V3(s, 0, 0), [4]g3d.Vec3{
			{X: s * l, Y: s * b, Z: -h},
			{X: s * l, Y: s * b, Z: h},
			{X: s * l, Y: -s * b, Z: h},
			{X: s * l, Y: -s * b, Z: -h},
		})
	}
	for _, s := range [2]float32{-1, 1} {
		face(g3d.V3(0, s, 0), [4]g3d.Vec3{
			{X: -s * l, Y: s * b, Z: -h},
			{X: -s * l, Y: s * b, Z: h},
			{X: s * l, Y: s * b, Z: h},
			{X: s * l, Y: s * b, Z: -h},
		})
	}
	for _, s := range [2]float32{-1, 1} {
		face(g3d.V3(0, 0, s), [4]g3d.Vec3{
			{X: l, Y: -s * b, Z: s * h},
			{X: l, Y: s * b, Z: s * h},
			{X: -l, Y: s * b, Z: s * h},
			{X: -l, Y: -s * b, Z: s * h},
		})
	}
	return m
}

// UnitBox returns the 1x1x1 box shared by every cube instance.
func UnitBox() *Mesh { return Box(1, 1, 1) }

// Cylinder returns a closed cylinder along Z centered at the origin.
//
// Each of the segments contributes four rim vertices (bottom cap, bottom
// side, top side, top cap) so caps and side keep separate normals; two
// pole vertices close the caps.
func Cylinder(diameter, length float32, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	r, h := diameter/2, length/2
	n := uint32(segments)
	m := &Mesh{
		Vertices:  make([]g3d.Vec3, 0, 4*segments+2),
		Normals:   make([]g3d.Vec3, 0, 4*segments+2),
		TexCoords: make([]g3d.Vec2, 0, 4*segments+2),
		Indices:   make([]uint32, 0, 12*segments),
	}
	add := func(p, nrm g3d.Vec3, uv g3d.Vec2) {
		m.Vertices = append(m.Vertices, p)
		m.Normals = append(m.Normals, nrm)
		m.TexCoords = append(m.TexCoords, uv)
	}
	down, up := g3d.V3(0, 0, -1), g3d.V3(0, 0, 1)
	for i := range segments {
		u := float32(i) / float32(segments)
		s, c := math32.Sincos(2 * math32.Pi * u)
		capUV := g3d.V2(0.5+0.5*c, 0.5+0.5*s)
		side := g3d.V3(c, s, 0)
		add(g3d.V3(r*c, r*s, -h), down, capUV)
		add(g3d.V3(r*c, r*s, -h), side, g3d.V2(u, 0))
		add(g3d.V3(r*c, r*s, h), side, g3d.V2(u, 1))
		add(g3d.V3(r*c, r*s, h), up, capUV)
	}
	poleDown, poleUp := 4*n, 4*n+1
	add(g3d.V3(0, 0, -h), down, g3d.V2(0.5, 0.5))
	add(g3d.V3(0, 0, h), up, g3d.V2(0.5, 0.5))

	for i := range n {
		prev := ((i + n - 1) % n) * 4
		cur := i * 4
		m.Indices = append(m.Indices,
			prev, poleDown, cur,
			prev+2, prev+1, cur+1,
			cur+1, cur+2, prev+2,
			prev+3, cur+3, poleUp,
		)
	}
	return m
}

// UnitCylinder returns the unit-diameter, unit-length cylinder shared by
// every cylinder instance.
func UnitCylinder() *Mesh { return Cylinder(1, 1, CylinderSegments) }

// cubeFace is one face of the cube projected onto the sphere: outward
// normal n and in-plane axes u, v with u × v = n.
type cubeFace struct {
	n, u, v g3d.Vec3
}

var sphereFaces = [6]cubeFace{
	{n: g3d.V3(1, 0, 0), u: g3d.V3(0, 1, 0), v: g3d.V3(0, 0, 1)},
	{n: g3d.V3(-1, 0, 0), u: g3d.V3(0, 0, 1), v: g3d.V3(0, 1, 0)},
	{n: g3d.V3(0, 1, 0), u: g3d.V3(0, 0, 1), v: g3d.V3(1, 0, 0)},
	{n: g3d.V3(0, -1, 0), u: g3d.V3(1, 0, 0), v: g3d.V3(0, 0, 1)},
	{n: g3d.V3(0, 0, 1), u: g3d.V3(1, 0, 0), v: g3d.V3(0, 1, 0)},
	{n: g3d.V3(0, 0, -1), u: g3d.V3(0, 1, 0), v: g3d.V3(1, 0, 0)},
}

// Sphere returns a sphere centered at the origin built by subdividing each
// cube face into fragments x fragments quads and projecting the grid onto
// the sphere. Normals are the unit positions; texture coordinates are
// equirectangular.
func Sphere(diameter float32, fragments int) *Mesh {
	if fragments < 1 {
		fragments = 1
	}
	r := diameter / 2
	side := fragments + 1
	m := &Mesh{
		Vertices:  make([]g3d.Vec3, 0, 6*side*side),
		Normals:   make([]g3d.Vec3, 0, 6*side*side),
		TexCoords: make([]g3d.Vec2, 0, 6*side*side),
		Indices:   make([]uint32, 0, 36*fragments*fragments),
	}
	step := 2 / float32(fragments)
	for _, f := range sphereFaces {
		base := uint32(len(m.Vertices))
		for b := range side {
			for a := range side {
				p := f.n.Add(f.u.Mul(float32(a)*step - 1)).Add(f.v.Mul(float32(b)*step - 1))
				n := p.Normalize()
				m.Vertices = append(m.Vertices, n.Mul(r))
				m.Normals = append(m.Normals, n)
				m.TexCoords = append(m.TexCoords, g3d.V2(
					0.5+math32.Atan2(n.Y, n.X)/(2*math32.Pi),
					0.5+math32.Asin(max(-1, min(1, n.Z)))/math32.Pi,
				))
			}
		}
		w := uint32(side)
		for b := range uint32(fragments) {
			for a := range uint32(fragments) {
				i0 := base + b*w + a
				i1 := i0 + 1
				i2 := i1 + w
				i3 := i0 + w
				m.Indices = append(m.Indices, i0, i1, i2, i2, i3, i0)
			}
		}
	}
	return m
}

// UnitSphere returns the unit-diameter sphere shared by every sphere
// instance.
func UnitSphere() *Mesh { return Sphere(1, SphereFragments) }

// Beam returns a unit box spanning X in [0, 1] and Y, Z in [-0.5, 0.5].
// Scaled by (length, thickness, thickness) and rotated onto a direction it
// renders a solid 3D line segment starting at the origin.
func Beam() *Mesh {
	m := Box(1, 1, 1)
	for i := range m.Vertices {
		m.Vertices[i].X += 0.5
	}
	return m
}

// Plane returns a width x height rectangle in the XY plane facing +Z.
func Plane(width, height float32) *Mesh {
	w, h := width/2, height/2
	return &Mesh{
		Vertices:  []g3d.Vec3{{X: w, Y: -h}, {X: w, Y: h}, {X: -w, Y: h}, {X: -w, Y: -h}},
		Normals:   []g3d.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}},
		TexCoords: slices.Clone(faceUV[:]),
		Indices:   []uint32{0, 1, 2, 2, 3, 0},
	}
}
