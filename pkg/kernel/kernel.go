// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling, boolean operations and mesh
// extraction behind this interface, so the evaluator and the rest of
// the system never depend on a particular backend.
//
// Solids are native resources owned by their creator: every Solid
// obtained from a Kernel or from another Solid must be released
// exactly once. The evaluator tracks all intermediates in an arena and
// bulk-releases them at the end of each evaluation, including on error
// paths.
package kernel

// Solid is an opaque handle to a geometry kernel solid. Operations
// return new solids; the receiver stays valid until released.
//
// Measure methods (Volume, SurfaceArea, CenterOfMass, NumTriangles)
// are derived from the extracted mesh and return zero values when
// meshing fails; Mesh carries the error.
type Solid interface {
	// Booleans
	Union(other Solid) Solid
	Difference(other Solid) Solid
	Intersection(other Solid) Solid

	// Transforms
	Translate(x, y, z float64) Solid
	Rotate(x, y, z float64) Solid // Euler angles in degrees, X then Y then Z
	Scale(x, y, z float64) Solid  // negative factors mirror
	Transform(m Mat4) Solid       // rigid placement transform

	// Features. These can be geometrically infeasible for the given
	// operand; they return an error instead of a degenerate solid.
	Shell(thickness float64) (Solid, error)
	Fillet(radius float64) (Solid, error)
	Chamfer(distance float64) (Solid, error)

	// Patterns. The first copy is the untransformed receiver.
	LinearPattern(dir [3]float64, count int, spacing float64) Solid
	CircularPattern(axisOrigin, axisDir [3]float64, count int, angleDeg float64) Solid

	// Mesh extraction and measures
	Mesh() (*Mesh, error)
	BoundingBox() (min, max [3]float64)
	Volume() float64
	SurfaceArea() float64
	CenterOfMass() [3]float64
	IsEmpty() bool
	NumTriangles() int

	// Release frees the backend resources behind this solid. The
	// solid must not be used afterwards.
	Release()
}

// PatternStep returns the per-copy angle in degrees for a circular
// pattern. Full circles divide evenly so the last copy does not land
// on the first; partial sweeps place the last copy at the sweep end.
// Backends share this so pattern layouts agree across kernels.
func PatternStep(count int, angleDeg float64) float64 {
	if count <= 1 {
		return 0
	}
	if angleDeg >= 360 || angleDeg <= -360 {
		return angleDeg / float64(count)
	}
	return angleDeg / float64(count-1)
}

// Kernel is the abstract geometry kernel: a factory for solids.
type Kernel interface {
	// Primitives. Cube sits with its minimum corner at the origin;
	// cylinder, sphere and cone are centered at the origin with their
	// axis along Z. segments = 0 means the backend default.
	Cube(x, y, z float64) (Solid, error)
	Cylinder(radius, height float64, segments int) (Solid, error)
	Sphere(radius float64, segments int) (Solid, error)
	Cone(bottomRadius, topRadius, height float64, segments int) (Solid, error)
	Empty() Solid

	// Sketch-based constructors. The profile plane basis is
	// orthonormalized before use.
	Extrude(p Profile, direction [3]float64) (Solid, error)
	Revolve(p Profile, axisOrigin, axisDir [3]float64, angleDeg float64) (Solid, error)
	SweepLine(p Profile, start, end [3]float64, twistDeg, scaleStart, scaleEnd float64) (Solid, error)
	SweepHelix(p Profile, radius, pitch, height, turns, twistDeg, scaleStart, scaleEnd float64) (Solid, error)
	Loft(profiles []Profile, closed bool) (Solid, error)
}
