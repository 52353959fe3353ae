package g3d

import "github.com/chewxy/math32"

// gimbalEpsilon is the |cos(pitch)| below which the roll and yaw axes are
// treated as aligned.
const gimbalEpsilon = 0.001

// Euler is an orientation as three angles in radians, applied in ZYX order:
// the matrix is Rz(Yaw) * Ry(Pitch) * Rx(Roll).
type Euler struct {
	Roll  float32 // about X
	Pitch float32 // about Y
	Yaw   float32 // about Z
}

// Matrix returns the rotation matrix for e.
func (e Euler) Matrix() Mat3 {
	s1, c1 := math32.Sincos(e.Roll)
	s2, c2 := math32.Sincos(e.Pitch)
	s3, c3 := math32.Sincos(e.Yaw)
	return Mat3{
		{c2 * c3, s1*s2*c3 - c1*s3, c1*s2*c3 + s1*s3},
		{c2 * s3, s1*s2*s3 + c1*c3, c1*s2*s3 - s1*c3},
		{-s2, s1 * c2, c1 * c2},
	}
}

// EulerFromMatrix recovers ZYX angles from a pure rotation matrix.
//
// Pitch is taken from asin, so it always lies in [-π/2, π/2]. At gimbal lock
// (pitch = ±π/2) roll and yaw rotate about the same axis and only their
// combination is observable; the returned angles use Roll = 0 and fold the
// whole rotation into Yaw.
func EulerFromMatrix(r Mat3) Euler {
	pitch := -math32.Asin(clampUnit(r[2][0]))
	c2 := math32.Cos(pitch)
	if math32.Abs(c2) > gimbalEpsilon {
		return Euler{
			Roll:  math32.Atan2(r[2][1]/c2, r[2][2]/c2),
			Pitch: pitch,
			Yaw:   math32.Atan2(r[1][0]/c2, r[0][0]/c2),
		}
	}
	var yaw float32
	if pitch > 0 {
		yaw = math32.Atan2(-r[0][1], r[0][2])
	} else {
		yaw = math32.Atan2(-r[0][1], -r[0][2])
	}
	return Euler{Roll: 0, Pitch: pitch, Yaw: yaw}
}

func clampUnit(v float32) float32 {
	return max(-1, min(1, v))
}
