package g3d

// Transform places a scene node in world space.
//
// The model matrix is M = T * R * S where the diagonal S (per-axis scale
// times per-axis shape dimensions) is folded into the columns of the
// rotation:
//
//	M[i][j] = R[i][j] * scale[j] * dims[j]   (i, j < 3)
//	M[i][3] = translation[i]
//
// Every setter recomputes the matrix immediately, so ModelMatrix always
// reflects the latest call. The zero value is not ready for use; call
// NewTransform.
type Transform struct {
	translation Vec3
	rotation    Mat3
	scale       Vec3
	dims        Vec3
	model       Mat4
}

// NewTransform returns an identity transform with unit scale and unit
// dimensions.
func NewTransform() Transform {
	t := Transform{
		rotation: Identity3(),
		scale:    Vec3{1, 1, 1},
		dims:     Vec3{1, 1, 1},
	}
	t.update()
	return t
}

// SetTranslation sets the node position.
func (t *Transform) SetTranslation(p Vec3) {
	t.translation = p
	t.model[0][3] = p.X
	t.model[1][3] = p.Y
	t.model[2][3] = p.Z
}

// Translate moves the node by d.
func (t *Transform) Translate(d Vec3) {
	t.SetTranslation(t.translation.Add(d))
}

// Translation returns the node position.
func (t *Transform) Translation() Vec3 {
	return t.translation
}

// SetRotation sets the orientation from ZYX Euler angles.
func (t *Transform) SetRotation(e Euler) {
	t.rotation = e.Matrix()
	t.update()
}

// SetRotationMatrix sets the orientation from a pure rotation matrix.
func (t *Transform) SetRotationMatrix(r Mat3) {
	t.rotation = r
	t.update()
}

// Rotation recovers the orientation from the model matrix, dividing the
// folded scale back out of each column. Axes with zero scale keep their
// stored rotation column.
func (t *Transform) Rotation() Euler {
	return EulerFromMatrix(t.RotationMatrix())
}

// RotationMatrix returns the pure rotation part of the model matrix.
func (t *Transform) RotationMatrix() Mat3 {
	r := t.rotation
	for j := range 3 {
		f := t.scale.Elem(j) * t.dims.Elem(j)
		if f == 0 {
			continue
		}
		for i := range 3 {
			r[i][j] = t.model[i][j] / f
		}
	}
	return r
}

// SetScale sets the per-axis scale.
func (t *Transform) SetScale(s Vec3) {
	t.scale = s
	t.update()
}

// SetUniformScale sets the same scale on all three axes.
func (t *Transform) SetUniformScale(s float32) {
	t.SetScale(Vec3{s, s, s})
}

// Scale returns the per-axis scale.
func (t *Transform) Scale() Vec3 {
	return t.scale
}

// SetDimensions sets the shape extents folded into the same matrix slots as
// the scale. Shapes built on a canonical unit mesh use it to stretch the
// mesh to their size.
func (t *Transform) SetDimensions(d Vec3) {
	t.dims = d
	t.update()
}

// Dimensions returns the shape extents.
func (t *Transform) Dimensions() Vec3 {
	return t.dims
}

// ModelMatrix returns the current model matrix.
func (t *Transform) ModelMatrix() Mat4 {
	return t.model
}

// NormalMatrix returns the inverse transpose of the upper 3x3 block of the
// model matrix, used to transform normals. Zero-extent axes are left
// unscaled.
func (t *Transform) NormalMatrix() Mat3 {
	n := t.rotation
	for j := range 3 {
		f := t.scale.Elem(j) * t.dims.Elem(j)
		if f == 0 {
			continue
		}
		for i := range 3 {
			n[i][j] /= f
		}
	}
	return n
}

func (t *Transform) update() {
	for i := range 3 {
		for j := range 3 {
			t.model[i][j] = t.rotation[i][j] * t.scale.Elem(j) * t.dims.Elem(j)
		}
	}
	t.model[0][3] = t.translation.X
	t.model[1][3] = t.translation.Y
	t.model[2][3] = t.translation.Z
	t.model[3] = [4]float32{0, 0, 0, 1}
}
