package kernel

import "math"

// SegmentKind distinguishes profile segment shapes.
type SegmentKind string

const (
	SegmentLine SegmentKind = "line"
	SegmentArc  SegmentKind = "arc"
)

// Segment is one edge of a closed 2D profile in sketch-plane
// coordinates. Center and CCW apply to arcs only.
type Segment struct {
	Kind   SegmentKind
	Start  [2]float64
	End    [2]float64
	Center [2]float64
	CCW    bool
}

// Profile is the planar input to the sketch-based constructors: a
// closed loop of segments on a plane embedded in 3D.
type Profile struct {
	Origin   [3]float64
	XDir     [3]float64
	YDir     [3]float64
	Segments []Segment
}

// Basis returns the orthonormalized plane basis: XDir is normalized,
// YDir is made perpendicular to it, and the plane normal is their
// cross product. Degenerate bases fall back to the world axes.
func (p Profile) Basis() (x, y, n [3]float64) {
	x = p.XDir
	if norm3(x) == 0 {
		x = [3]float64{1, 0, 0}
	}
	x = scale3(x, 1/norm3(x))

	y = p.YDir
	y = sub3(y, scale3(x, dot3(y, x)))
	if norm3(y) == 0 {
		// YDir parallel to XDir or zero; pick any perpendicular.
		y = cross3([3]float64{0, 0, 1}, x)
		if norm3(y) == 0 {
			y = cross3([3]float64{0, 1, 0}, x)
		}
	}
	y = scale3(y, 1/norm3(y))
	n = cross3(x, y)
	return x, y, n
}

// PlaneTransform returns the rigid transform mapping sketch-plane
// coordinates (u, v, 0) into world space.
func (p Profile) PlaneTransform() Mat4 {
	x, y, n := p.Basis()

	return Mat4{
		x[0], y[0], n[0], p.Origin[0],
		x[1], y[1], n[1], p.Origin[1],
		x[2], y[2], n[2], p.Origin[2],
		0, 0, 0, 1,
	}
}

// Points flattens the profile into polygon vertices. Lines contribute
// their start point; arcs contribute their start plus interior samples
// at a density of arcSegments chords per full circle. The loop closure
// back to the first point is implicit.
func (p Profile) Points(arcSegments int) [][2]float64 {
	if arcSegments < 8 {
		arcSegments = 8
	}
	var pts [][2]float64
	for _, seg := range p.Segments {
		pts = append(pts, seg.Start)
		if seg.Kind != SegmentArc {
			continue
		}
		r0 := math.Hypot(seg.Start[0]-seg.Center[0], seg.Start[1]-seg.Center[1])
		r1 := math.Hypot(seg.End[0]-seg.Center[0], seg.End[1]-seg.Center[1])
		if r0 == 0 && r1 == 0 {
			continue
		}
		a0 := math.Atan2(seg.Start[1]-seg.Center[1], seg.Start[0]-seg.Center[0])
		a1 := math.Atan2(seg.End[1]-seg.Center[1], seg.End[0]-seg.Center[0])
		if seg.CCW && a1 <= a0 {
			a1 += 2 * math.Pi
		} else if !seg.CCW && a1 >= a0 {
			a1 -= 2 * math.Pi
		}
		sweep := a1 - a0
		steps := int(math.Ceil(math.Abs(sweep) / (2 * math.Pi) * float64(arcSegments)))
		if steps < 2 {
			steps = 2
		}
		for i := 1; i < steps; i++ {
			t := float64(i) / float64(steps)
			a := a0 + sweep*t
			r := r0 + (r1-r0)*t
			pts = append(pts, [2]float64{
				seg.Center[0] + r*math.Cos(a),
				seg.Center[1] + r*math.Sin(a),
			})
		}
	}
	return pts
}

func scale3(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}
