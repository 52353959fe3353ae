package g3d

import (
	"testing"
)

func TestMat3Mul(t *testing.T) {
	a := Mat3{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	if got := a.Mul(Identity3()); got != a {
		t.Errorf("a * I = %v, want %v", got, a)
	}
	b := Mat3{{0, 1, 0}, {1, 0, 0}, {0, 0, 1}}
	want := Mat3{{2, 1, 3}, {5, 4, 6}, {8, 7, 9}}
	if got := a.Mul(b); got != want {
		t.Errorf("a * swapXY = %v, want %v", got, want)
	}
	if got := a.Transpose().Transpose(); got != a {
		t.Errorf("double transpose = %v, want %v", got, a)
	}
}

func TestMat4Compose(t *testing.T) {
	trs := Translation4(V3(1, 2, 3)).Mul(Scale4(V3(2, 2, 2)))
	got := trs.TransformPoint(V3(1, 1, 1))
	if want := V3(3, 4, 5); got != want {
		t.Errorf("TransformPoint = %v, want %v", got, want)
	}

	rz := Rotation4(Euler{Yaw: pi / 2}.Matrix())
	got = rz.TransformPoint(V3(1, 0, 0))
	if !got.ApproxEqual(V3(0, 1, 0), 1e-6) {
		t.Errorf("yaw 90° of +X = %v, want +Y", got)
	}
}

func TestMat4ColumnMajor(t *testing.T) {
	m := Translation4(V3(7, 8, 9))
	cm := m.ColumnMajor()
	if cm[12] != 7 || cm[13] != 8 || cm[14] != 9 || cm[15] != 1 {
		t.Errorf("translation column = %v, want [7 8 9 1]", cm[12:])
	}
	if cm[0] != 1 || cm[5] != 1 || cm[10] != 1 {
		t.Errorf("diagonal = %v %v %v, want 1 1 1", cm[0], cm[5], cm[10])
	}
}
