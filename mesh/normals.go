package mesh

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/g3d"
)

// SmoothingThreshold is the cosine of the crease angle (30°). Faces meeting
// at a shared position are averaged only when their normals are closer than
// this.
const SmoothingThreshold = 0.866025

// FaceNormal returns the unit normal of the triangle (a, b, c) with
// counter-clockwise winding. Degenerate triangles yield the zero vector.
func FaceNormal(a, b, c g3d.Vec3) g3d.Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// FlatNormals assigns every corner of each triangle of the soup its face
// normal. len(vertices) must be a multiple of 3.
func FlatNormals(vertices []g3d.Vec3) []g3d.Vec3 {
	normals := make([]g3d.Vec3, len(vertices))
	for i := 0; i+2 < len(vertices); i += 3 {
		n := FaceNormal(vertices[i], vertices[i+1], vertices[i+2])
		normals[i], normals[i+1], normals[i+2] = n, n, n
	}
	return normals
}

// SmoothNormals computes per-corner normals for a triangle soup.
//
// Corners are grouped by exact position. A corner whose position appears
// once keeps its face normal. Otherwise its normal is the sum of the face
// normals of every triangle at that position whose normal lies within the
// crease angle of its own face, each weighted by that triangle's interior
// angle at the position, then renormalized.
func SmoothNormals(vertices []g3d.Vec3) []g3d.Vec3 {
	count := len(vertices) - len(vertices)%3
	faces := make([]g3d.Vec3, count/3)
	angles := make([]float32, count)
	shared := make(map[g3d.Vec3][]int, count)

	for i := 0; i < count; i += 3 {
		p0, p1, p2 := vertices[i], vertices[i+1], vertices[i+2]
		faces[i/3] = FaceNormal(p0, p1, p2)
		angles[i] = cornerAngle(p1.Sub(p0), p2.Sub(p0))
		angles[i+1] = cornerAngle(p2.Sub(p1), p0.Sub(p1))
		angles[i+2] = cornerAngle(p0.Sub(p2), p1.Sub(p2))
		for k := i; k < i+3; k++ {
			shared[vertices[k]] = append(shared[vertices[k]], k)
		}
	}

	normals := make([]g3d.Vec3, len(vertices))
	for i := range count {
		n1 := faces[i/3]
		group := shared[vertices[i]]
		if len(group) == 1 {
			normals[i] = n1
			continue
		}
		var sum g3d.Vec3
		for _, k := range group {
			n2 := faces[k/3]
			if n1.Dot(n2) > SmoothingThreshold {
				sum = sum.Add(n2.Mul(angles[k]))
			}
		}
		normals[i] = sum.Normalize()
	}
	return normals
}

// cornerAngle returns the angle between two edges leaving the same corner.
func cornerAngle(u, v g3d.Vec3) float32 {
	l := u.Length() * v.Length()
	if l == 0 {
		return 0
	}
	c := u.Dot(v) / l
	return math32.Acos(max(-1, min(1, c)))
}
