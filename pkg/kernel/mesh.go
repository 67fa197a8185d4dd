package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering and export.
// All arrays are flat: positions has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Positions []float32 `json:"positions"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals   []float32 `json:"normals,omitempty"`
	Indices   []uint32  `json:"indices"` // [i0,i1,i2, ...] triangles
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// vertex returns position i as a float64 triple.
func (m *Mesh) vertex(i uint32) [3]float64 {
	return [3]float64{
		float64(m.Positions[3*i]),
		float64(m.Positions[3*i+1]),
		float64(m.Positions[3*i+2]),
	}
}

// Triangle returns the corner positions of triangle t.
func (m *Mesh) Triangle(t int) (a, b, c [3]float64) {
	return m.vertex(m.Indices[3*t]), m.vertex(m.Indices[3*t+1]), m.vertex(m.Indices[3*t+2])
}

// BoundingBox returns the axis-aligned bounds of all positions.
// Returns zeros for an empty mesh.
func (m *Mesh) BoundingBox() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	min = m.vertex(0)
	max = min
	for i := 1; i < m.VertexCount(); i++ {
		v := m.vertex(uint32(i))
		for k := 0; k < 3; k++ {
			if v[k] < min[k] {
				min[k] = v[k]
			}
			if v[k] > max[k] {
				max[k] = v[k]
			}
		}
	}
	return min, max
}

// Volume returns the enclosed volume of a closed mesh, computed with
// the divergence theorem over signed tetrahedra. Winding-insensitive.
func (m *Mesh) Volume() float64 {
	var v float64
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		v += signedTetraVolume(a, b, c)
	}
	return math.Abs(v)
}

// SurfaceArea returns the total area of all triangles.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		ab := sub3(b, a)
		ac := sub3(c, a)
		area += norm3(cross3(ab, ac)) / 2
	}
	return area
}

// CenterOfMass returns the volume centroid of a closed mesh, assuming
// uniform density. Returns the origin for a degenerate mesh.
func (m *Mesh) CenterOfMass() [3]float64 {
	var total float64
	var acc [3]float64
	for t := 0; t < m.TriangleCount(); t++ {
		a, b, c := m.Triangle(t)
		v := signedTetraVolume(a, b, c)
		total += v
		// Centroid of the tetrahedron (origin, a, b, c).
		for k := 0; k < 3; k++ {
			acc[k] += v * (a[k] + b[k] + c[k]) / 4
		}
	}
	if total == 0 {
		return [3]float64{}
	}
	for k := 0; k < 3; k++ {
		acc[k] /= total
	}
	return acc
}

// signedTetraVolume is the signed volume of the tetrahedron spanned by
// the origin and triangle (a, b, c).
func signedTetraVolume(a, b, c [3]float64) float64 {
	return dot3(a, cross3(b, c)) / 6
}

func sub3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm3(a [3]float64) float64 {
	return math.Sqrt(dot3(a, a))
}
