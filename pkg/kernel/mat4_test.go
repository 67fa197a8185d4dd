package kernel

import (
	"math"
	"testing"
)

func vecClose(a, b [3]float64, tol float64) bool {
	for k := 0; k < 3; k++ {
		if math.Abs(a[k]-b[k]) > tol {
			return false
		}
	}
	return true
}

func TestIdentityMulPoint(t *testing.T) {
	p := [3]float64{1.5, -2, 7}
	if got := Identity().MulPoint(p); got != p {
		t.Errorf("Identity().MulPoint(%v) = %v", p, got)
	}
}

func TestTranslationMulPoint(t *testing.T) {
	m := Translation(1, 2, 3)
	got := m.MulPoint([3]float64{10, 20, 30})
	want := [3]float64{11, 22, 33}
	if !vecClose(got, want, 1e-12) {
		t.Errorf("MulPoint = %v, want %v", got, want)
	}
}

func TestRotationAboutZ(t *testing.T) {
	m := RotationAbout([3]float64{0, 0, 1}, 90)
	got := m.MulPoint([3]float64{1, 0, 0})
	want := [3]float64{0, 1, 0}
	if !vecClose(got, want, 1e-12) {
		t.Errorf("90 deg about Z: (1,0,0) -> %v, want %v", got, want)
	}
}

func TestRotationAboutArbitraryAxis(t *testing.T) {
	// 120 deg about (1,1,1) cycles the basis vectors.
	m := RotationAbout([3]float64{1, 1, 1}, 120)
	got := m.MulPoint([3]float64{1, 0, 0})
	want := [3]float64{0, 1, 0}
	if !vecClose(got, want, 1e-12) {
		t.Errorf("120 deg about (1,1,1): (1,0,0) -> %v, want %v", got, want)
	}
}

func TestRotationAboutZeroAxis(t *testing.T) {
	m := RotationAbout([3]float64{0, 0, 0}, 45)
	if !m.ApproxEqual(Identity(), 1e-12) {
		t.Errorf("zero axis rotation = %v, want identity", m)
	}
}

func TestMulOrder(t *testing.T) {
	// Column-vector convention: (T*R) rotates first, then translates.
	rot := RotationAbout([3]float64{0, 0, 1}, 90)
	trans := Translation(10, 0, 0)

	got := trans.Mul(rot).MulPoint([3]float64{1, 0, 0})
	want := [3]float64{10, 1, 0}
	if !vecClose(got, want, 1e-12) {
		t.Errorf("T*R point = %v, want %v", got, want)
	}

	got = rot.Mul(trans).MulPoint([3]float64{1, 0, 0})
	want = [3]float64{0, 11, 0}
	if !vecClose(got, want, 1e-12) {
		t.Errorf("R*T point = %v, want %v", got, want)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		axis  [3]float64
		angle float64
		trans [3]float64
	}{
		{"identity", [3]float64{0, 0, 1}, 0, [3]float64{0, 0, 0}},
		{"pure translation", [3]float64{0, 0, 1}, 0, [3]float64{4, -5, 6}},
		{"quarter turn Z", [3]float64{0, 0, 1}, 90, [3]float64{1, 2, 3}},
		{"odd axis", [3]float64{1, 2, -0.5}, 37, [3]float64{-2, 0, 9}},
		{"half turn X", [3]float64{1, 0, 0}, 180, [3]float64{0, 0, 0}},
		{"half turn diagonal", [3]float64{1, 1, 0}, 180, [3]float64{5, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Translation(tt.trans[0], tt.trans[1], tt.trans[2]).
				Mul(RotationAbout(tt.axis, tt.angle))
			axis, angle, trans := m.Decompose()
			rebuilt := Translation(trans[0], trans[1], trans[2]).
				Mul(RotationAbout(axis, angle))
			if !m.ApproxEqual(rebuilt, 1e-9) {
				t.Errorf("rebuilt matrix differs:\n  orig    %v\n  rebuilt %v", m, rebuilt)
			}
			if !vecClose(trans, tt.trans, 1e-9) {
				t.Errorf("translation = %v, want %v", trans, tt.trans)
			}
		})
	}
}

func TestDecomposeIdentityAngle(t *testing.T) {
	_, angle, trans := Identity().Decompose()
	if angle != 0 {
		t.Errorf("identity angle = %g, want 0", angle)
	}
	if trans != [3]float64{} {
		t.Errorf("identity translation = %v, want zero", trans)
	}
}

func TestApproxEqual(t *testing.T) {
	a := RotationAbout([3]float64{0, 1, 0}, 30)
	b := a
	b[3] += 1e-12
	if !a.ApproxEqual(b, 1e-9) {
		t.Error("ApproxEqual = false for near-identical matrices")
	}
	b[3] += 1
	if a.ApproxEqual(b, 1e-9) {
		t.Error("ApproxEqual = true for distinct matrices")
	}
}
