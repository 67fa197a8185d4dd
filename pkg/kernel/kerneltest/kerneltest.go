// Package kerneltest provides an instrumented in-memory geometry
// kernel for tests. Solids carry axis-aligned bounds only and meshes
// are synthesized boxes, so geometric assertions stay cheap and exact.
// The kernel counts constructor and operation calls plus solid
// lifetimes, letting tests verify evaluation caching and that every
// solid is released exactly once.
package kerneltest

import (
	"fmt"
	"math"

	"github.com/perran/datum/pkg/kernel"
)

// Kernel implements kernel.Kernel over axis-aligned bounds.
type Kernel struct {
	// Calls counts invocations by operation name ("cube", "union",
	// "mesh", ...).
	Calls map[string]int
	// Fail forces the named constructor to return the given error.
	Fail map[string]error

	Created        int
	Released       int
	DoubleReleased int
}

func New() *Kernel {
	return &Kernel{
		Calls: make(map[string]int),
		Fail:  make(map[string]error),
	}
}

// Live reports how many solids have been created but not yet released.
func (k *Kernel) Live() int { return k.Created - k.Released }

func (k *Kernel) count(name string) error {
	k.Calls[name]++
	return k.Fail[name]
}

// Solid is a box-bounded fake solid.
type Solid struct {
	k        *Kernel
	min, max [3]float64
	empty    bool
	released bool
}

func (k *Kernel) newSolid(min, max [3]float64) *Solid {
	k.Created++
	return &Solid{k: k, min: min, max: max}
}

func (k *Kernel) newEmpty() *Solid {
	k.Created++
	return &Solid{k: k, empty: true}
}

// Bounds returns the raw bounds for test assertions.
func (s *Solid) Bounds() (min, max [3]float64) { return s.min, s.max }

func (s *Solid) copySolid() *Solid {
	if s.empty {
		return s.k.newEmpty()
	}
	return s.k.newSolid(s.min, s.max)
}

func (s *Solid) corners() [8][3]float64 {
	lo, hi := s.min, s.max
	return [8][3]float64{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]},
		{hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]},
		{hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
}

func (s *Solid) transformed(m kernel.Mat4) *Solid {
	if s.empty {
		return s.k.newEmpty()
	}
	var lo, hi [3]float64
	for i, c := range s.corners() {
		p := m.MulPoint(c)
		if i == 0 {
			lo, hi = p, p
			continue
		}
		for a := 0; a < 3; a++ {
			lo[a] = math.Min(lo[a], p[a])
			hi[a] = math.Max(hi[a], p[a])
		}
	}
	return s.k.newSolid(lo, hi)
}

// --- Booleans ---

func (s *Solid) Union(other kernel.Solid) kernel.Solid {
	s.k.count("union")
	o := other.(*Solid)
	switch {
	case s.empty && o.empty:
		return s.k.newEmpty()
	case s.empty:
		return o.copySolid()
	case o.empty:
		return s.copySolid()
	}
	var lo, hi [3]float64
	for a := 0; a < 3; a++ {
		lo[a] = math.Min(s.min[a], o.min[a])
		hi[a] = math.Max(s.max[a], o.max[a])
	}
	return s.k.newSolid(lo, hi)
}

// Difference keeps the receiver's bounds; subtraction can only shrink
// a solid, and box bounds cannot express the cavity.
func (s *Solid) Difference(other kernel.Solid) kernel.Solid {
	s.k.count("difference")
	return s.copySolid()
}

func (s *Solid) Intersection(other kernel.Solid) kernel.Solid {
	s.k.count("intersection")
	o := other.(*Solid)
	if s.empty || o.empty {
		return s.k.newEmpty()
	}
	var lo, hi [3]float64
	for a := 0; a < 3; a++ {
		lo[a] = math.Max(s.min[a], o.min[a])
		hi[a] = math.Min(s.max[a], o.max[a])
		if lo[a] >= hi[a] {
			return s.k.newEmpty()
		}
	}
	return s.k.newSolid(lo, hi)
}

// --- Transforms ---

func (s *Solid) Translate(x, y, z float64) kernel.Solid {
	s.k.count("translate")
	if s.empty {
		return s.k.newEmpty()
	}
	return s.k.newSolid(
		[3]float64{s.min[0] + x, s.min[1] + y, s.min[2] + z},
		[3]float64{s.max[0] + x, s.max[1] + y, s.max[2] + z},
	)
}

func (s *Solid) Rotate(x, y, z float64) kernel.Solid {
	s.k.count("rotate")
	m := kernel.RotationAbout([3]float64{0, 0, 1}, z).
		Mul(kernel.RotationAbout([3]float64{0, 1, 0}, y)).
		Mul(kernel.RotationAbout([3]float64{1, 0, 0}, x))
	return s.transformed(m)
}

func (s *Solid) Scale(x, y, z float64) kernel.Solid {
	s.k.count("scale")
	if s.empty {
		return s.k.newEmpty()
	}
	f := [3]float64{x, y, z}
	var lo, hi [3]float64
	for a := 0; a < 3; a++ {
		p, q := s.min[a]*f[a], s.max[a]*f[a]
		lo[a] = math.Min(p, q)
		hi[a] = math.Max(p, q)
	}
	return s.k.newSolid(lo, hi)
}

func (s *Solid) Transform(m kernel.Mat4) kernel.Solid {
	s.k.count("transform")
	return s.transformed(m)
}

// --- Features ---

func (s *Solid) minExtent() float64 {
	e := s.max[0] - s.min[0]
	for a := 1; a < 3; a++ {
		if d := s.max[a] - s.min[a]; d < e {
			e = d
		}
	}
	return e
}

func (s *Solid) Shell(thickness float64) (kernel.Solid, error) {
	s.k.count("shell")
	if s.empty {
		return nil, fmt.Errorf("shell: empty solid")
	}
	if thickness <= 0 || 2*thickness >= s.minExtent() {
		return nil, fmt.Errorf("shell: thickness %g infeasible for extent %g", thickness, s.minExtent())
	}
	return s.copySolid(), nil
}

func (s *Solid) Fillet(radius float64) (kernel.Solid, error) {
	s.k.count("fillet")
	if s.empty {
		return nil, fmt.Errorf("fillet: empty solid")
	}
	if radius <= 0 || 2*radius >= s.minExtent() {
		return nil, fmt.Errorf("fillet: radius %g infeasible for extent %g", radius, s.minExtent())
	}
	return s.copySolid(), nil
}

func (s *Solid) Chamfer(distance float64) (kernel.Solid, error) {
	s.k.count("chamfer")
	if s.empty {
		return nil, fmt.Errorf("chamfer: empty solid")
	}
	if distance <= 0 || 2*distance >= s.minExtent() {
		return nil, fmt.Errorf("chamfer: distance %g infeasible for extent %g", distance, s.minExtent())
	}
	return s.copySolid(), nil
}

// --- Patterns ---

func (s *Solid) LinearPattern(dir [3]float64, count int, spacing float64) kernel.Solid {
	s.k.count("linear_pattern")
	if s.empty || count <= 1 {
		return s.copySolid()
	}
	n := math.Sqrt(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2])
	if n == 0 {
		return s.copySolid()
	}
	shift := spacing * float64(count-1) / n
	var lo, hi [3]float64
	for a := 0; a < 3; a++ {
		lo[a] = math.Min(s.min[a], s.min[a]+dir[a]*shift)
		hi[a] = math.Max(s.max[a], s.max[a]+dir[a]*shift)
	}
	return s.k.newSolid(lo, hi)
}

func (s *Solid) CircularPattern(axisOrigin, axisDir [3]float64, count int, angleDeg float64) kernel.Solid {
	s.k.count("circular_pattern")
	if s.empty || count <= 1 {
		return s.copySolid()
	}
	step := kernel.PatternStep(count, angleDeg)
	lo, hi := s.min, s.max
	for i := 1; i < count; i++ {
		m := kernel.Translation(axisOrigin[0], axisOrigin[1], axisOrigin[2]).
			Mul(kernel.RotationAbout(axisDir, step*float64(i))).
			Mul(kernel.Translation(-axisOrigin[0], -axisOrigin[1], -axisOrigin[2]))
		for _, c := range s.corners() {
			p := m.MulPoint(c)
			for a := 0; a < 3; a++ {
				lo[a] = math.Min(lo[a], p[a])
				hi[a] = math.Max(hi[a], p[a])
			}
		}
	}
	return s.k.newSolid(lo, hi)
}

// --- Mesh and measures ---

func (s *Solid) Mesh() (*kernel.Mesh, error) {
	s.k.count("mesh")
	if s.empty {
		return &kernel.Mesh{}, nil
	}
	m := &kernel.Mesh{
		Indices: []uint32{
			0, 2, 1, 0, 3, 2,
			4, 5, 6, 4, 6, 7,
			0, 1, 5, 0, 5, 4,
			3, 7, 6, 3, 6, 2,
			0, 4, 7, 0, 7, 3,
			1, 2, 6, 1, 6, 5,
		},
	}
	for _, c := range s.corners() {
		m.Positions = append(m.Positions, float32(c[0]), float32(c[1]), float32(c[2]))
	}
	return m, nil
}

func (s *Solid) BoundingBox() (min, max [3]float64) { return s.min, s.max }

func (s *Solid) Volume() float64 {
	if s.empty {
		return 0
	}
	return (s.max[0] - s.min[0]) * (s.max[1] - s.min[1]) * (s.max[2] - s.min[2])
}

func (s *Solid) SurfaceArea() float64 {
	if s.empty {
		return 0
	}
	a := s.max[0] - s.min[0]
	b := s.max[1] - s.min[1]
	c := s.max[2] - s.min[2]
	return 2 * (a*b + a*c + b*c)
}

func (s *Solid) CenterOfMass() [3]float64 {
	if s.empty {
		return [3]float64{}
	}
	return [3]float64{
		(s.min[0] + s.max[0]) / 2,
		(s.min[1] + s.max[1]) / 2,
		(s.min[2] + s.max[2]) / 2,
	}
}

func (s *Solid) IsEmpty() bool { return s.empty }

func (s *Solid) NumTriangles() int {
	if s.empty {
		return 0
	}
	return 12
}

func (s *Solid) Release() {
	if s.released {
		s.k.DoubleReleased++
		return
	}
	s.released = true
	s.k.Released++
}

// --- Constructors ---

func (k *Kernel) Cube(x, y, z float64) (kernel.Solid, error) {
	if err := k.count("cube"); err != nil {
		return nil, err
	}
	return k.newSolid([3]float64{}, [3]float64{x, y, z}), nil
}

func (k *Kernel) Cylinder(radius, height float64, segments int) (kernel.Solid, error) {
	if err := k.count("cylinder"); err != nil {
		return nil, err
	}
	h := height / 2
	return k.newSolid([3]float64{-radius, -radius, -h}, [3]float64{radius, radius, h}), nil
}

func (k *Kernel) Sphere(radius float64, segments int) (kernel.Solid, error) {
	if err := k.count("sphere"); err != nil {
		return nil, err
	}
	return k.newSolid([3]float64{-radius, -radius, -radius}, [3]float64{radius, radius, radius}), nil
}

func (k *Kernel) Cone(bottomRadius, topRadius, height float64, segments int) (kernel.Solid, error) {
	if err := k.count("cone"); err != nil {
		return nil, err
	}
	r := math.Max(bottomRadius, topRadius)
	h := height / 2
	return k.newSolid([3]float64{-r, -r, -h}, [3]float64{r, r, h}), nil
}

func (k *Kernel) Empty() kernel.Solid {
	k.count("empty")
	return k.newEmpty()
}

func (k *Kernel) profileBounds(p kernel.Profile) (lo, hi [3]float64, err error) {
	pts := p.Points(16)
	if len(pts) == 0 {
		return lo, hi, fmt.Errorf("profile has no segments")
	}
	m := p.PlaneTransform()
	for i, pt := range pts {
		w := m.MulPoint([3]float64{pt[0], pt[1], 0})
		if i == 0 {
			lo, hi = w, w
			continue
		}
		for a := 0; a < 3; a++ {
			lo[a] = math.Min(lo[a], w[a])
			hi[a] = math.Max(hi[a], w[a])
		}
	}
	return lo, hi, nil
}

func (k *Kernel) Extrude(p kernel.Profile, direction [3]float64) (kernel.Solid, error) {
	if err := k.count("extrude"); err != nil {
		return nil, err
	}
	lo, hi, err := k.profileBounds(p)
	if err != nil {
		return nil, fmt.Errorf("extrude: %w", err)
	}
	for a := 0; a < 3; a++ {
		lo[a] = math.Min(lo[a], lo[a]+direction[a])
		hi[a] = math.Max(hi[a], hi[a]+direction[a])
	}
	return k.newSolid(lo, hi), nil
}

func (k *Kernel) Revolve(p kernel.Profile, axisOrigin, axisDir [3]float64, angleDeg float64) (kernel.Solid, error) {
	if err := k.count("revolve"); err != nil {
		return nil, err
	}
	lo, hi, err := k.profileBounds(p)
	if err != nil {
		return nil, fmt.Errorf("revolve: %w", err)
	}
	corners := (&Solid{min: lo, max: hi}).corners()
	acc, accHi := lo, hi
	const samples = 8
	for i := 1; i <= samples; i++ {
		a := angleDeg * float64(i) / samples
		m := kernel.Translation(axisOrigin[0], axisOrigin[1], axisOrigin[2]).
			Mul(kernel.RotationAbout(axisDir, a)).
			Mul(kernel.Translation(-axisOrigin[0], -axisOrigin[1], -axisOrigin[2]))
		for _, c := range corners {
			p := m.MulPoint(c)
			for x := 0; x < 3; x++ {
				acc[x] = math.Min(acc[x], p[x])
				accHi[x] = math.Max(accHi[x], p[x])
			}
		}
	}
	return k.newSolid(acc, accHi), nil
}

func (k *Kernel) SweepLine(p kernel.Profile, start, end [3]float64, twistDeg, scaleStart, scaleEnd float64) (kernel.Solid, error) {
	if err := k.count("sweep_line"); err != nil {
		return nil, err
	}
	if scaleStart <= 0 || scaleEnd < 0 {
		return nil, fmt.Errorf("sweep: scale factors %g..%g out of range", scaleStart, scaleEnd)
	}
	lo, hi, err := k.profileBounds(p)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	var alo, ahi [3]float64
	for a := 0; a < 3; a++ {
		alo[a] = math.Min(lo[a]+start[a], lo[a]+end[a])
		ahi[a] = math.Max(hi[a]+start[a], hi[a]+end[a])
	}
	return k.newSolid(alo, ahi), nil
}

func (k *Kernel) SweepHelix(p kernel.Profile, radius, pitch, height, turns, twistDeg, scaleStart, scaleEnd float64) (kernel.Solid, error) {
	if err := k.count("sweep_helix"); err != nil {
		return nil, err
	}
	if scaleStart <= 0 || scaleEnd < 0 {
		return nil, fmt.Errorf("sweep: scale factors %g..%g out of range", scaleStart, scaleEnd)
	}
	pts := p.Points(16)
	if len(pts) == 0 {
		return nil, fmt.Errorf("sweep: profile has no segments")
	}
	e := 0.0
	for _, pt := range pts {
		e = math.Max(e, math.Max(math.Abs(pt[0]), math.Abs(pt[1])))
	}
	h := height
	if h == 0 {
		h = pitch * turns
	}
	r := radius + e
	return k.newSolid([3]float64{-r, -r, -e}, [3]float64{r, r, h + e}), nil
}

func (k *Kernel) Loft(profiles []kernel.Profile, closed bool) (kernel.Solid, error) {
	if err := k.count("loft"); err != nil {
		return nil, err
	}
	if len(profiles) < 2 {
		return nil, fmt.Errorf("loft: need at least 2 profiles, got %d", len(profiles))
	}
	var lo, hi [3]float64
	for i, p := range profiles {
		plo, phi, err := k.profileBounds(p)
		if err != nil {
			return nil, fmt.Errorf("loft profile %d: %w", i, err)
		}
		if i == 0 {
			lo, hi = plo, phi
			continue
		}
		for a := 0; a < 3; a++ {
			lo[a] = math.Min(lo[a], plo[a])
			hi[a] = math.Max(hi[a], phi[a])
		}
	}
	return k.newSolid(lo, hi), nil
}

var (
	_ kernel.Kernel = (*Kernel)(nil)
	_ kernel.Solid  = (*Solid)(nil)
)
