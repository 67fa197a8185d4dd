// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Solids are lazy: the
// SDF tree is built immediately, marching cubes runs once on first
// mesh access and the result is memoized on the solid.
package sdfx

import (
	"fmt"
	"math"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/perran/datum/pkg/kernel"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*SdfxKernel)(nil)
	_ kernel.Solid  = (*sdfxSolid)(nil)
)

const (
	// defaultMeshCells controls marching cubes tessellation resolution.
	defaultMeshCells = 200
	// profileArcChords is the chord count for a full circle when
	// flattening sketch arcs into polygon vertices.
	profileArcChords = 64
	// helixSegmentsPerTurn is the chord density of the helix sweep
	// approximation.
	helixSegmentsPerTurn = 24
	// helixOverlap stretches each helix chord segment so adjacent
	// pieces fuse in the union.
	helixOverlap = 1.2
	// relScaleFloor keeps tapered sweeps from collapsing to a true
	// apex, which the scale extrusion cannot evaluate.
	relScaleFloor = 1e-3
)

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a kernel meshing at the default resolution.
func New() *SdfxKernel {
	return &SdfxKernel{cells: defaultMeshCells}
}

// NewWithResolution returns a kernel meshing with the given marching
// cubes cell count. Lower counts keep tests fast.
func NewWithResolution(cells int) *SdfxKernel {
	if cells < 8 {
		cells = 8
	}
	return &SdfxKernel{cells: cells}
}

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid. A nil field
// is the empty solid.
type sdfxSolid struct {
	sdf    sdf.SDF3
	cells  int
	mesh   *kernel.Mesh
	meshed bool
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3, cells int) *sdfxSolid {
	return &sdfxSolid{sdf: s, cells: cells}
}

// unwrap extracts the backing solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// --- Booleans ---

func (s *sdfxSolid) Union(other kernel.Solid) kernel.Solid {
	o := unwrap(other)
	if s.sdf == nil {
		return wrap(o.sdf, s.cells)
	}
	if o.sdf == nil {
		return wrap(s.sdf, s.cells)
	}
	return wrap(sdf.Union3D(s.sdf, o.sdf), s.cells)
}

func (s *sdfxSolid) Difference(other kernel.Solid) kernel.Solid {
	o := unwrap(other)
	if s.sdf == nil {
		return wrap(nil, s.cells)
	}
	if o.sdf == nil {
		return wrap(s.sdf, s.cells)
	}
	return wrap(sdf.Difference3D(s.sdf, o.sdf), s.cells)
}

func (s *sdfxSolid) Intersection(other kernel.Solid) kernel.Solid {
	o := unwrap(other)
	if s.sdf == nil || o.sdf == nil {
		return wrap(nil, s.cells)
	}
	return wrap(sdf.Intersect3D(s.sdf, o.sdf), s.cells)
}

// --- Transforms ---

func (s *sdfxSolid) Translate(x, y, z float64) kernel.Solid {
	if s.sdf == nil {
		return wrap(nil, s.cells)
	}
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(s.sdf, m), s.cells)
}

// Rotate rotates by Euler angles (degrees), X then Y then Z.
func (s *sdfxSolid) Rotate(x, y, z float64) kernel.Solid {
	if s.sdf == nil {
		return wrap(nil, s.cells)
	}
	m := sdf.RotateZ(radians(z)).Mul(sdf.RotateY(radians(y))).Mul(sdf.RotateX(radians(x)))
	return wrap(sdf.Transform3D(s.sdf, m), s.cells)
}

func (s *sdfxSolid) Scale(x, y, z float64) kernel.Solid {
	// A zero factor makes the transform singular.
	if s.sdf == nil || x == 0 || y == 0 || z == 0 {
		return wrap(nil, s.cells)
	}
	m := sdf.Scale3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(s.sdf, m), s.cells)
}

func (s *sdfxSolid) Transform(m kernel.Mat4) kernel.Solid {
	if s.sdf == nil {
		return wrap(nil, s.cells)
	}
	axis, angleDeg, tr := m.Decompose()
	r := sdf.Rotate3d(v3.Vec{X: axis[0], Y: axis[1], Z: axis[2]}, radians(angleDeg))
	t := sdf.Translate3d(v3.Vec{X: tr[0], Y: tr[1], Z: tr[2]})
	return wrap(sdf.Transform3D(s.sdf, t.Mul(r)), s.cells)
}

// --- Features ---

func (s *sdfxSolid) minExtent() float64 {
	if s.sdf == nil {
		return 0
	}
	bb := s.sdf.BoundingBox()
	return math.Min(bb.Max.X-bb.Min.X, math.Min(bb.Max.Y-bb.Min.Y, bb.Max.Z-bb.Min.Z))
}

// Shell hollows the solid keeping the outer surface exact: the inward
// offset is subtracted. sdf.Shell3D thickens the boundary on both
// sides, which would grow the outer dimensions.
func (s *sdfxSolid) Shell(thickness float64) (kernel.Solid, error) {
	if s.sdf == nil {
		return nil, fmt.Errorf("shell: empty solid")
	}
	if thickness <= 0 {
		return nil, fmt.Errorf("shell: thickness must be positive, got %g", thickness)
	}
	if 2*thickness >= s.minExtent() {
		return nil, fmt.Errorf("shell: thickness %g too large for extent %g", thickness, s.minExtent())
	}
	inner := sdf.Offset3D(s.sdf, -thickness)
	return wrap(sdf.Difference3D(s.sdf, inner), s.cells), nil
}

// Fillet rounds convex edges by eroding then dilating at the given
// radius. Features thinner than the radius are lost, hence the extent
// check.
func (s *sdfxSolid) Fillet(radius float64) (kernel.Solid, error) {
	if s.sdf == nil {
		return nil, fmt.Errorf("fillet: empty solid")
	}
	if radius <= 0 {
		return nil, fmt.Errorf("fillet: radius must be positive, got %g", radius)
	}
	if 2*radius >= s.minExtent() {
		return nil, fmt.Errorf("fillet: radius %g too large for extent %g", radius, s.minExtent())
	}
	return wrap(sdf.Offset3D(sdf.Offset3D(s.sdf, -radius), radius), s.cells), nil
}

// Chamfer breaks edges at the given distance. The distance field has
// no flat-bevel operator, so the break is rendered as a round of the
// same size.
func (s *sdfxSolid) Chamfer(distance float64) (kernel.Solid, error) {
	if s.sdf == nil {
		return nil, fmt.Errorf("chamfer: empty solid")
	}
	if distance <= 0 {
		return nil, fmt.Errorf("chamfer: distance must be positive, got %g", distance)
	}
	if 2*distance >= s.minExtent() {
		return nil, fmt.Errorf("chamfer: distance %g too large for extent %g", distance, s.minExtent())
	}
	return wrap(sdf.Offset3D(sdf.Offset3D(s.sdf, -distance), distance), s.cells), nil
}

// --- Patterns ---

func (s *sdfxSolid) LinearPattern(dir [3]float64, count int, spacing float64) kernel.Solid {
	if s.sdf == nil || count <= 1 {
		return wrap(s.sdf, s.cells)
	}
	n := math.Sqrt(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2])
	if n == 0 {
		return wrap(s.sdf, s.cells)
	}
	// LineOf3D steps by (p1-p0)/len(pattern): the last copy lands at
	// (count-1)*spacing, the first stays in place.
	p1 := v3.Vec{
		X: dir[0] / n * spacing * float64(count),
		Y: dir[1] / n * spacing * float64(count),
		Z: dir[2] / n * spacing * float64(count),
	}
	return wrap(sdf.LineOf3D(s.sdf, v3.Vec{}, p1, strings.Repeat("x", count)), s.cells)
}

func (s *sdfxSolid) CircularPattern(axisOrigin, axisDir [3]float64, count int, angleDeg float64) kernel.Solid {
	if s.sdf == nil || count <= 1 {
		return wrap(s.sdf, s.cells)
	}
	axis, ok := unit(axisDir)
	if !ok {
		return wrap(s.sdf, s.cells)
	}
	// Full circles about the world Z axis evaluate in constant time
	// through rotational symmetry.
	if axisOrigin == [3]float64{} && axis.X == 0 && axis.Y == 0 && math.Abs(angleDeg) >= 360 {
		return wrap(sdf.RotateCopy3D(s.sdf, count), s.cells)
	}
	step := radians(kernel.PatternStep(count, angleDeg))
	origin := v3.Vec{X: axisOrigin[0], Y: axisOrigin[1], Z: axisOrigin[2]}
	back := v3.Vec{X: -axisOrigin[0], Y: -axisOrigin[1], Z: -axisOrigin[2]}
	copies := make([]sdf.SDF3, count)
	copies[0] = s.sdf
	for i := 1; i < count; i++ {
		m := sdf.Translate3d(origin).
			Mul(sdf.Rotate3d(axis, step*float64(i))).
			Mul(sdf.Translate3d(back))
		copies[i] = sdf.Transform3D(s.sdf, m)
	}
	return wrap(sdf.Union3D(copies...), s.cells)
}

// --- Mesh and measures ---

func (s *sdfxSolid) buildMesh() {
	if s.meshed {
		return
	}
	s.meshed = true
	if s.sdf == nil {
		s.mesh = &kernel.Mesh{}
		return
	}
	bb := s.sdf.BoundingBox()
	if bb.Min.X >= bb.Max.X || bb.Min.Y >= bb.Max.Y || bb.Min.Z >= bb.Max.Z {
		s.mesh = &kernel.Mesh{}
		return
	}

	renderer := render.NewMarchingCubesUniform(s.cells)
	triangles := render.ToTriangles(s.sdf, renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	positions := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Flat shading: one face normal per triangle.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			positions = append(positions, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	s.mesh = &kernel.Mesh{
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
	}
}

func (s *sdfxSolid) Mesh() (*kernel.Mesh, error) {
	s.buildMesh()
	return s.mesh, nil
}

func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	if s.sdf == nil {
		return min, max
	}
	bb := s.sdf.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

func (s *sdfxSolid) Volume() float64 {
	m, _ := s.Mesh()
	return m.Volume()
}

func (s *sdfxSolid) SurfaceArea() float64 {
	m, _ := s.Mesh()
	return m.SurfaceArea()
}

func (s *sdfxSolid) CenterOfMass() [3]float64 {
	m, _ := s.Mesh()
	return m.CenterOfMass()
}

func (s *sdfxSolid) IsEmpty() bool {
	if s.sdf == nil {
		return true
	}
	m, _ := s.Mesh()
	return m.IsEmpty()
}

func (s *sdfxSolid) NumTriangles() int {
	m, _ := s.Mesh()
	return m.TriangleCount()
}

func (s *sdfxSolid) Release() {
	s.sdf = nil
	s.mesh = nil
	s.meshed = false
}

// --- Primitive constructors ---

// Cube creates a box with its minimum corner at the origin so that
// placement translations read naturally. sdf.Box3D centers the box, so
// it is shifted by half-dimensions.
func (k *SdfxKernel) Cube(x, y, z float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("cube: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m), k.cells), nil
}

// Cylinder creates a Z-axis cylinder centered at the origin. The
// segments parameter is ignored since the SDF surface is smooth.
func (k *SdfxKernel) Cylinder(radius, height float64, segments int) (kernel.Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return wrap(s, k.cells), nil
}

func (k *SdfxKernel) Sphere(radius float64, segments int) (kernel.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sphere: %w", err)
	}
	return wrap(s, k.cells), nil
}

func (k *SdfxKernel) Cone(bottomRadius, topRadius, height float64, segments int) (kernel.Solid, error) {
	s, err := sdf.Cone3D(height, bottomRadius, topRadius, 0)
	if err != nil {
		return nil, fmt.Errorf("cone: %w", err)
	}
	return wrap(s, k.cells), nil
}

func (k *SdfxKernel) Empty() kernel.Solid {
	return wrap(nil, k.cells)
}

// --- Sketch-based constructors ---

// profilePolygon flattens a profile loop into a 2D polygon SDF in
// sketch-plane coordinates. Winding is normalized to anticlockwise,
// which Polygon2D treats as solid.
func profilePolygon(p kernel.Profile) (sdf.SDF2, error) {
	pts := p.Points(profileArcChords)
	if len(pts) < 3 {
		return nil, fmt.Errorf("profile needs at least 3 points, got %d", len(pts))
	}
	if signedArea(pts) < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	vs := make([]v2.Vec, len(pts))
	for i, pt := range pts {
		vs[i] = v2.Vec{X: pt[0], Y: pt[1]}
	}
	return sdf.Polygon2D(vs)
}

func signedArea(pts [][2]float64) float64 {
	a := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return a / 2
}

func unit(v [3]float64) (v3.Vec, bool) {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return v3.Vec{}, false
	}
	return v3.Vec{X: v[0] / n, Y: v[1] / n, Z: v[2] / n}, true
}

// rotateTo returns the rotation taking unit vector a onto unit vector b.
func rotateTo(a, b v3.Vec) sdf.M44 {
	axis := v3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
	sin := math.Sqrt(axis.X*axis.X + axis.Y*axis.Y + axis.Z*axis.Z)
	cos := a.X*b.X + a.Y*b.Y + a.Z*b.Z
	if sin < 1e-12 {
		if cos > 0 {
			return sdf.RotateZ(0)
		}
		// Opposite vectors: half turn about any perpendicular.
		perp := v3.Vec{X: -a.Y, Y: a.X}
		if perp.X == 0 && perp.Y == 0 {
			perp = v3.Vec{X: 1}
		}
		return sdf.Rotate3d(perp, math.Pi)
	}
	return sdf.Rotate3d(v3.Vec{X: axis.X / sin, Y: axis.Y / sin, Z: axis.Z / sin}, math.Atan2(sin, cos))
}

// planePlacement converts the profile's plane transform into an sdfx
// matrix, composed from primitive rotations and translations.
func planePlacement(p kernel.Profile) sdf.M44 {
	axis, angleDeg, tr := p.PlaneTransform().Decompose()
	r := sdf.Rotate3d(v3.Vec{X: axis[0], Y: axis[1], Z: axis[2]}, radians(angleDeg))
	return sdf.Translate3d(v3.Vec{X: tr[0], Y: tr[1], Z: tr[2]}).Mul(r)
}

// Extrude builds a prism from the profile along the direction vector.
// The prism length is the vector's magnitude. Directions off the plane
// normal tilt the prism; the cross-section stays the sketch profile.
func (k *SdfxKernel) Extrude(p kernel.Profile, direction [3]float64) (kernel.Solid, error) {
	poly, err := profilePolygon(p)
	if err != nil {
		return nil, fmt.Errorf("extrude: %w", err)
	}
	h := math.Sqrt(direction[0]*direction[0] + direction[1]*direction[1] + direction[2]*direction[2])
	if h == 0 {
		return nil, fmt.Errorf("extrude: direction is zero")
	}

	// Express the direction in plane coordinates; the extrusion runs
	// along plane Z before placement.
	bx, by, bn := p.Basis()
	dp := [3]float64{
		direction[0]*bx[0] + direction[1]*bx[1] + direction[2]*bx[2],
		direction[0]*by[0] + direction[1]*by[1] + direction[2]*by[2],
		direction[0]*bn[0] + direction[1]*bn[1] + direction[2]*bn[2],
	}
	du, _ := unit(dp)

	prism := sdf.Extrude3D(poly, h)
	place := planePlacement(p).
		Mul(rotateTo(v3.Vec{Z: 1}, du)).
		Mul(sdf.Translate3d(v3.Vec{Z: h / 2}))
	return wrap(sdf.Transform3D(prism, place), k.cells), nil
}

// Revolve sweeps the profile about the axis line. The profile is
// flattened into (radial, axial) coordinates, so the sketch plane's
// own orientation about the axis is not preserved for partial sweeps.
func (k *SdfxKernel) Revolve(p kernel.Profile, axisOrigin, axisDir [3]float64, angleDeg float64) (kernel.Solid, error) {
	axis, ok := unit(axisDir)
	if !ok {
		return nil, fmt.Errorf("revolve: axis is zero")
	}
	pts := p.Points(profileArcChords)
	if len(pts) < 3 {
		return nil, fmt.Errorf("revolve: profile needs at least 3 points, got %d", len(pts))
	}

	m := p.PlaneTransform()
	flat := make([][2]float64, len(pts))
	for i, pt := range pts {
		w := m.MulPoint([3]float64{pt[0], pt[1], 0})
		rel := [3]float64{w[0] - axisOrigin[0], w[1] - axisOrigin[1], w[2] - axisOrigin[2]}
		along := rel[0]*axis.X + rel[1]*axis.Y + rel[2]*axis.Z
		rx := rel[0] - along*axis.X
		ry := rel[1] - along*axis.Y
		rz := rel[2] - along*axis.Z
		flat[i] = [2]float64{math.Sqrt(rx*rx + ry*ry + rz*rz), along}
	}
	if signedArea(flat) < 0 {
		for i, j := 0, len(flat)-1; i < j; i, j = i+1, j-1 {
			flat[i], flat[j] = flat[j], flat[i]
		}
	}
	vs := make([]v2.Vec, len(flat))
	for i, f := range flat {
		vs[i] = v2.Vec{X: f[0], Y: f[1]}
	}
	poly, err := sdf.Polygon2D(vs)
	if err != nil {
		return nil, fmt.Errorf("revolve: %w", err)
	}

	var sor sdf.SDF3
	sweep := math.Abs(angleDeg)
	if sweep >= 360 {
		sor, err = sdf.Revolve3D(poly)
	} else {
		sor, err = sdf.RevolveTheta3D(poly, radians(sweep))
	}
	if err != nil {
		return nil, fmt.Errorf("revolve: %w", err)
	}

	// The revolution is about world Z at the origin; carry it onto the
	// axis line.
	place := sdf.Translate3d(v3.Vec{X: axisOrigin[0], Y: axisOrigin[1], Z: axisOrigin[2]}).
		Mul(rotateTo(v3.Vec{Z: 1}, axis))
	return wrap(sdf.Transform3D(sor, place), k.cells), nil
}

// sweepExtrude picks the extrusion variant for the given twist and
// relative end scale.
func sweepExtrude(poly sdf.SDF2, h, twistRad, rel float64) sdf.SDF3 {
	switch {
	case twistRad != 0 && rel != 1:
		return sdf.ScaleTwistExtrude3D(poly, h, twistRad, v2.Vec{X: rel, Y: rel})
	case twistRad != 0:
		return sdf.TwistExtrude3D(poly, h, twistRad)
	case rel != 1:
		return sdf.ScaleExtrude3D(poly, h, v2.Vec{X: rel, Y: rel})
	default:
		return sdf.Extrude3D(poly, h)
	}
}

// SweepLine sweeps the profile along the straight path from start to
// end, with the cross-section perpendicular to the path.
func (k *SdfxKernel) SweepLine(p kernel.Profile, start, end [3]float64, twistDeg, scaleStart, scaleEnd float64) (kernel.Solid, error) {
	d := [3]float64{end[0] - start[0], end[1] - start[1], end[2] - start[2]}
	du, ok := unit(d)
	if !ok {
		return nil, fmt.Errorf("sweep: path has zero length")
	}
	if scaleStart <= 0 {
		return nil, fmt.Errorf("sweep: scale_start must be positive, got %g", scaleStart)
	}
	if scaleEnd < 0 {
		return nil, fmt.Errorf("sweep: scale_end must not be negative, got %g", scaleEnd)
	}
	poly, err := profilePolygon(p)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	if scaleStart != 1 {
		poly = sdf.Transform2D(poly, sdf.Scale2d(v2.Vec{X: scaleStart, Y: scaleStart}))
	}
	rel := scaleEnd / scaleStart
	if rel < relScaleFloor {
		rel = relScaleFloor
	}
	h := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	prism := sweepExtrude(poly, h, radians(twistDeg), rel)
	place := sdf.Translate3d(v3.Vec{X: start[0], Y: start[1], Z: start[2]}).
		Mul(rotateTo(v3.Vec{Z: 1}, du)).
		Mul(sdf.Translate3d(v3.Vec{Z: h / 2}))
	return wrap(sdf.Transform3D(prism, place), k.cells), nil
}

// SweepHelix sweeps the profile along a Z-axis helix of the given
// radius, approximated by straight chord segments. Twist and scale are
// interpolated per segment.
func (k *SdfxKernel) SweepHelix(p kernel.Profile, radius, pitch, height, turns, twistDeg, scaleStart, scaleEnd float64) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sweep: helix radius must be positive, got %g", radius)
	}
	if turns == 0 {
		if pitch <= 0 || height <= 0 {
			return nil, fmt.Errorf("sweep: helix needs turns, or pitch and height")
		}
		turns = height / pitch
	}
	if height == 0 {
		height = pitch * turns
	}
	if height <= 0 || turns <= 0 {
		return nil, fmt.Errorf("sweep: helix extent is degenerate")
	}
	if scaleStart <= 0 {
		return nil, fmt.Errorf("sweep: scale_start must be positive, got %g", scaleStart)
	}
	poly, err := profilePolygon(p)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}

	segs := int(math.Ceil(turns * helixSegmentsPerTurn))
	if segs < 2 {
		segs = 2
	}
	parts := make([]sdf.SDF3, 0, segs)
	for i := 0; i < segs; i++ {
		t0 := float64(i) / float64(segs)
		t1 := float64(i+1) / float64(segs)
		a0 := 2 * math.Pi * turns * t0
		a1 := 2 * math.Pi * turns * t1
		p0 := v3.Vec{X: radius * math.Cos(a0), Y: radius * math.Sin(a0), Z: height * t0}
		p1 := v3.Vec{X: radius * math.Cos(a1), Y: radius * math.Sin(a1), Z: height * t1}
		chord := [3]float64{p1.X - p0.X, p1.Y - p0.Y, p1.Z - p0.Z}
		du, ok := unit(chord)
		if !ok {
			continue
		}
		clen := math.Sqrt(chord[0]*chord[0] + chord[1]*chord[1] + chord[2]*chord[2])

		tm := (t0 + t1) / 2
		sc := scaleStart + (scaleEnd-scaleStart)*tm
		if sc < relScaleFloor {
			sc = relScaleFloor
		}
		m2 := sdf.Rotate2d(radians(twistDeg) * tm).Mul(sdf.Scale2d(v2.Vec{X: sc, Y: sc}))
		seg := sdf.Extrude3D(sdf.Transform2D(poly, m2), clen*helixOverlap)

		mid := v3.Vec{X: (p0.X + p1.X) / 2, Y: (p0.Y + p1.Y) / 2, Z: (p0.Z + p1.Z) / 2}
		m := sdf.Translate3d(mid).Mul(rotateTo(v3.Vec{Z: 1}, du))
		parts = append(parts, sdf.Transform3D(seg, m))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("sweep: helix produced no segments")
	}
	return wrap(sdf.Union3D(parts...), k.cells), nil
}

// Loft blends consecutive profiles pairwise along the chord between
// their plane origins. closed adds a final blend from the last profile
// back to the first.
func (k *SdfxKernel) Loft(profiles []kernel.Profile, closed bool) (kernel.Solid, error) {
	if len(profiles) < 2 {
		return nil, fmt.Errorf("loft: need at least 2 profiles, got %d", len(profiles))
	}
	polys := make([]sdf.SDF2, len(profiles))
	for i, p := range profiles {
		poly, err := profilePolygon(p)
		if err != nil {
			return nil, fmt.Errorf("loft profile %d: %w", i, err)
		}
		polys[i] = poly
	}

	var parts []sdf.SDF3
	blend := func(i, j int) error {
		oi, oj := profiles[i].Origin, profiles[j].Origin
		d := [3]float64{oj[0] - oi[0], oj[1] - oi[1], oj[2] - oi[2]}
		du, ok := unit(d)
		if !ok {
			return fmt.Errorf("loft: profiles %d and %d share an origin", i, j)
		}
		h := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
		seg, err := sdf.Loft3D(polys[i], polys[j], h, 0)
		if err != nil {
			return fmt.Errorf("loft: %w", err)
		}
		mid := v3.Vec{X: (oi[0] + oj[0]) / 2, Y: (oi[1] + oj[1]) / 2, Z: (oi[2] + oj[2]) / 2}
		m := sdf.Translate3d(mid).Mul(rotateTo(v3.Vec{Z: 1}, du))
		parts = append(parts, sdf.Transform3D(seg, m))
		return nil
	}
	for i := 0; i+1 < len(profiles); i++ {
		if err := blend(i, i+1); err != nil {
			return nil, err
		}
	}
	if closed && len(profiles) > 2 {
		if err := blend(len(profiles)-1, 0); err != nil {
			return nil, err
		}
	}
	if len(parts) == 1 {
		return wrap(parts[0], k.cells), nil
	}
	return wrap(sdf.Union3D(parts...), k.cells), nil
}
