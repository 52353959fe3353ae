package g3d

import "github.com/chewxy/math32"

// Mat3 is a 3x3 matrix in row-major order: m[row][col].
type Mat3 [3][3]float32

// Mat4 is a 4x4 matrix in row-major order: m[row][col].
//
// Affine transforms keep their translation in the last column:
//
//	| r00 r01 r02 tx |
//	| r10 r11 r12 ty |
//	| r20 r21 r22 tz |
//	|  0   0   0   1 |
type Mat4 [4][4]float32

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns m * n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for i := range 3 {
		for j := range 3 {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return r
}

// MulVec returns m * v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	var r Mat3
	for i := range 3 {
		for j := range 3 {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat3) ApproxEqual(n Mat3, eps float32) bool {
	for i := range 3 {
		for j := range 3 {
			if math32.Abs(m[i][j]-n[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

// Translation4 returns a translation matrix.
func Translation4(t Vec3) Mat4 {
	m := Identity4()
	m[0][3] = t.X
	m[1][3] = t.Y
	m[2][3] = t.Z
	return m
}

// Scale4 returns a scaling matrix.
func Scale4(s Vec3) Mat4 {
	m := Identity4()
	m[0][0] = s.X
	m[1][1] = s.Y
	m[2][2] = s.Z
	return m
}

// Rotation4 embeds a 3x3 rotation into a 4x4 matrix.
func Rotation4(r Mat3) Mat4 {
	m := Identity4()
	for i := range 3 {
		for j := range 3 {
			m[i][j] = r[i][j]
		}
	}
	return m
}

// Mul returns m * n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var r Mat4
	for i := range 4 {
		for j := range 4 {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j] + m[i][3]*n[3][j]
		}
	}
	return r
}

// TransformPoint applies m to the point p (w = 1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// Upper3 returns the upper-left 3x3 block.
func (m Mat4) Upper3() Mat3 {
	var r Mat3
	for i := range 3 {
		for j := range 3 {
			r[i][j] = m[i][j]
		}
	}
	return r
}

// ColumnMajor returns the matrix flattened column by column, the layout
// expected by WGSL mat4x4<f32> uniforms.
func (m Mat4) ColumnMajor() [16]float32 {
	var out [16]float32
	for j := range 4 {
		for i := range 4 {
			out[j*4+i] = m[i][j]
		}
	}
	return out
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat4) ApproxEqual(n Mat4, eps float32) bool {
	for i := range 4 {
		for j := range 4 {
			if math32.Abs(m[i][j]-n[i][j]) > eps {
				return false
			}
		}
	}
	return true
}
