package shape

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/mesh"
	"github.com/gogpu/g3d/render"
)

// Cube is a box with independent length (X), breadth (Y) and height (Z).
type Cube struct {
	Object
}

// NewCube creates a cube of the given dimensions centered at the origin.
func NewCube(ctx *render.Context, length, breadth, height float32) (*Cube, error) {
	c := &Cube{}
	if err := c.initShared(ctx, KindCube, mesh.UnitBox); err != nil {
		return nil, err
	}
	c.SetSize(length, breadth, height)
	return c, nil
}

// Clone returns a cube sharing c's geometry and texture, with the same
// size, transform and color.
func (c *Cube) Clone() (*Cube, error) {
	out := &Cube{}
	if err := c.cloneInto(&out.Object); err != nil {
		return nil, err
	}
	return out, nil
}

// SetSize sets the cube dimensions.
func (c *Cube) SetSize(length, breadth, height float32) {
	c.SetDimensions(g3d.V3(length, breadth, height))
}

// Size returns the cube dimensions.
func (c *Cube) Size() (length, breadth, height float32) {
	d := c.Dimensions()
	return d.X, d.Y, d.Z
}

// Cylinder is a closed cylinder along its local Z axis.
type Cylinder struct {
	Object
}

// NewCylinder creates a cylinder centered at the origin.
func NewCylinder(ctx *render.Context, diameter, length float32) (*Cylinder, error) {
	c := &Cylinder{}
	if err := c.initShared(ctx, KindCylinder, mesh.UnitCylinder); err != nil {
		return nil, err
	}
	c.SetDimensions(g3d.V3(diameter, diameter, length))
	return c, nil
}

// Clone returns a copy of c sharing its geometry and texture.
func (c *Cylinder) Clone() (*Cylinder, error) {
	out := &Cylinder{}
	if err := c.cloneInto(&out.Object); err != nil {
		return nil, err
	}
	return out, nil
}

// SetDiameter sets the cylinder diameter.
func (c *Cylinder) SetDiameter(d float32) {
	c.SetDimensions(g3d.V3(d, d, c.Dimensions().Z))
}

// Diameter returns the cylinder diameter.
func (c *Cylinder) Diameter() float32 { return c.Dimensions().X }

// SetLength sets the cylinder length.
func (c *Cylinder) SetLength(l float32) {
	d := c.Dimensions()
	c.SetDimensions(g3d.V3(d.X, d.Y, l))
}

// Length returns the cylinder length.
func (c *Cylinder) Length() float32 { return c.Dimensions().Z }

// Sphere is a sphere centered on its translation.
type Sphere struct {
	Object
}

// NewSphere creates a sphere centered at the origin.
func NewSphere(ctx *render.Context, diameter float32) (*Sphere, error) {
	s := &Sphere{}
	if err := s.initShared(ctx, KindSphere, mesh.UnitSphere); err != nil {
		return nil, err
	}
	s.SetDiameter(diameter)
	return s, nil
}

// Clone returns a copy of s sharing its geometry and texture.
func (s *Sphere) Clone() (*Sphere, error) {
	out := &Sphere{}
	if err := s.cloneInto(&out.Object); err != nil {
		return nil, err
	}
	return out, nil
}

// SetDiameter sets the sphere diameter.
func (s *Sphere) SetDiameter(d float32) {
	s.SetDimensions(g3d.V3(d, d, d))
}

// Diameter returns the sphere diameter.
func (s *Sphere) Diameter() float32 { return s.Dimensions().X }

// Line is a solid segment of square cross-section between two points.
//
// The endpoints and thickness drive the transform: translation is the
// first point, rotation turns the local X axis onto the segment and the
// dimensions are (length, thickness, thickness). Setting the rotation or
// translation directly moves the segment away from its endpoints until
// the next SetPoints or SetThickness.
type Line struct {
	Object
	p1, p2    g3d.Vec3
	thickness float32
}

// NewLine creates a line from p1 to p2.
func NewLine(ctx *render.Context, thickness float32, p1, p2 g3d.Vec3) (*Line, error) {
	l := &Line{}
	if err := l.initShared(ctx, KindLine, mesh.Beam); err != nil {
		return nil, err
	}
	l.thickness = thickness
	l.SetPoints(p1, p2)
	return l, nil
}

// Clone returns a copy of l with the same endpoints and thickness.
func (l *Line) Clone() (*Line, error) {
	out := &Line{p1: l.p1, p2: l.p2, thickness: l.thickness}
	if err := l.cloneInto(&out.Object); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPoints moves both endpoints.
func (l *Line) SetPoints(p1, p2 g3d.Vec3) {
	l.p1, l.p2 = p1, p2
	l.place()
}

// SetPoint1 moves the first endpoint.
func (l *Line) SetPoint1(p g3d.Vec3) { l.SetPoints(p, l.p2) }

// SetPoint2 moves the second endpoint.
func (l *Line) SetPoint2(p g3d.Vec3) { l.SetPoints(l.p1, p) }

// Points returns the endpoints.
func (l *Line) Points() (p1, p2 g3d.Vec3) { return l.p1, l.p2 }

// SetThickness sets the cross-section edge length.
func (l *Line) SetThickness(t float32) {
	l.thickness = t
	l.place()
}

// Thickness returns the cross-section edge length.
func (l *Line) Thickness() float32 { return l.thickness }

func (l *Line) place() {
	d := l.p2.Sub(l.p1)
	length := d.Length()
	var e g3d.Euler
	if length > 0 {
		u := d.Mul(1 / length)
		e.Pitch = -math32.Asin(max(-1, min(1, u.Z)))
		e.Yaw = math32.Atan2(u.Y, u.X)
	}
	l.SetTranslation(l.p1)
	l.SetRotation(e)
	l.SetDimensions(g3d.V3(length, l.thickness, l.thickness))
}
