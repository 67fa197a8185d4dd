package kernel

import "math"

// Mat4 is a 4x4 affine transform, row-major, applied to column
// vectors: world = M * local. Mul composes so that m.Mul(o) applies o
// first, then m.
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a transform moving by (x, y, z).
func Translation(x, y, z float64) Mat4 {
	return Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

// RotationAbout returns a right-handed rotation of angleDeg degrees
// about the given axis through the origin. The axis is normalized; a
// zero axis yields the identity.
func RotationAbout(axis [3]float64, angleDeg float64) Mat4 {
	n := norm3(axis)
	if n == 0 {
		return Identity()
	}
	ux, uy, uz := axis[0]/n, axis[1]/n, axis[2]/n
	rad := angleDeg * math.Pi / 180
	c := math.Cos(rad)
	s := math.Sin(rad)
	k := 1 - c
	return Mat4{
		c + ux*ux*k, ux*uy*k - uz*s, ux*uz*k + uy*s, 0,
		uy*ux*k + uz*s, c + uy*uy*k, uy*uz*k - ux*s, 0,
		uz*ux*k - uy*s, uz*uy*k + ux*s, c + uz*uz*k, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for j := 0; j < 4; j++ {
				sum += m[r*4+j] * o[j*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// MulPoint applies the transform to a point.
func (m Mat4) MulPoint(p [3]float64) [3]float64 {
	return [3]float64{
		m[0]*p[0] + m[1]*p[1] + m[2]*p[2] + m[3],
		m[4]*p[0] + m[5]*p[1] + m[6]*p[2] + m[7],
		m[8]*p[0] + m[9]*p[1] + m[10]*p[2] + m[11],
	}
}

// ApproxEqual reports whether every element of m and o is within tol.
func (m Mat4) ApproxEqual(o Mat4, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > tol {
			return false
		}
	}
	return true
}

// Decompose splits a rigid transform into an axis-angle rotation and a
// translation. Results are undefined for transforms carrying scale or
// shear.
func (m Mat4) Decompose() (axis [3]float64, angleDeg float64, translation [3]float64) {
	translation = [3]float64{m[3], m[7], m[11]}

	trace := m[0] + m[5] + m[10]
	cosA := (trace - 1) / 2
	if cosA > 1 {
		cosA = 1
	} else if cosA < -1 {
		cosA = -1
	}
	angle := math.Acos(cosA)

	const eps = 1e-9
	switch {
	case angle < eps:
		// No rotation; axis is arbitrary.
		return [3]float64{0, 0, 1}, 0, translation

	case math.Pi-angle < eps:
		// 180 degrees: R = 2*u*uT - I, recover u from the largest
		// diagonal of (R + I) / 2.
		bx := (m[0] + 1) / 2
		by := (m[5] + 1) / 2
		bz := (m[10] + 1) / 2
		switch {
		case bx >= by && bx >= bz:
			ux := math.Sqrt(bx)
			axis = [3]float64{ux, m[1] / 2 / ux, m[2] / 2 / ux}
		case by >= bz:
			uy := math.Sqrt(by)
			axis = [3]float64{m[4] / 2 / uy, uy, m[6] / 2 / uy}
		default:
			uz := math.Sqrt(bz)
			axis = [3]float64{m[8] / 2 / uz, m[9] / 2 / uz, uz}
		}
		return axis, 180, translation

	default:
		s := 2 * math.Sin(angle)
		axis = [3]float64{
			(m[9] - m[6]) / s,
			(m[2] - m[8]) / s,
			(m[4] - m[1]) / s,
		}
		return axis, angle * 180 / math.Pi, translation
	}
}
