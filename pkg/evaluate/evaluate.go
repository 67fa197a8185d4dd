// Package evaluate turns a document's CSG graph into renderable
// triangle meshes.
//
// Each scene root is walked depth-first and materialized through the
// kernel. Results are memoized by node id for the duration of one
// Evaluate call, so a node shared by several parents is built exactly
// once. Every solid the walk creates is released in bulk when the call
// returns, on error paths included; only plain mesh data survives.
package evaluate

import (
	"fmt"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/kernel"
	"github.com/perran/datum/pkg/kinematics"
)

// Evaluate materializes every scene root of d into a mesh and detects
// clashes between the resulting parts. A document with part instances
// evaluates in assembly mode: one scene part per instance, posed by the
// kinematics solver.
//
// Structural problems (missing references, a non-sketch node fed to a
// sketch-consuming op, a bad joint graph) fail the whole call with a
// typed error naming the offending id; no partial scene is returned.
func Evaluate(d *doc.Document, k kernel.Kernel) (*Scene, error) {
	ev := &evaluator{
		doc:    d,
		kernel: k,
		memo:   make(map[doc.NodeID]kernel.Solid),
	}
	defer ev.releaseAll()

	if d.IsAssembly() {
		return ev.assemblyScene()
	}
	return ev.partScene()
}

type evaluator struct {
	doc    *doc.Document
	kernel kernel.Kernel
	memo   map[doc.NodeID]kernel.Solid
	arena  []kernel.Solid
}

// track registers a solid for bulk release when the evaluate call ends.
// Every solid obtained from the kernel passes through here exactly
// once.
func (ev *evaluator) track(s kernel.Solid) kernel.Solid {
	ev.arena = append(ev.arena, s)
	return s
}

func (ev *evaluator) releaseAll() {
	for _, s := range ev.arena {
		s.Release()
	}
	ev.arena = nil
}

func (ev *evaluator) partScene() (*Scene, error) {
	scene := &Scene{}
	var solids []kernel.Solid
	for _, root := range ev.doc.Roots {
		s, err := ev.evaluateNode(root.Root)
		if err != nil {
			return nil, fmt.Errorf("evaluate: root %d: %w", root.Root, err)
		}
		mesh, err := s.Mesh()
		if err != nil {
			return nil, fmt.Errorf("evaluate: meshing root %d: %w", root.Root, err)
		}
		scene.Parts = append(scene.Parts, Part{
			Root:     root.Root,
			Name:     ev.doc.Get(root.Root).Name,
			Material: root.Material,
			Mesh:     mesh,
		})
		solids = append(solids, s)
	}
	if err := ev.findClashes(scene, solids); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return scene, nil
}

func (ev *evaluator) assemblyScene() (*Scene, error) {
	poses, err := kinematics.Solve(ev.doc.Instances, ev.doc.Joints, nil)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	scene := &Scene{}
	var solids []kernel.Solid
	for _, inst := range ev.doc.Instances {
		def := ev.doc.PartDefs[inst.Def]
		if def == nil {
			return nil, fmt.Errorf("evaluate: instance %d: unknown part definition %q", inst.ID, inst.Def)
		}
		base, err := ev.evaluateNode(def.Root)
		if err != nil {
			return nil, fmt.Errorf("evaluate: instance %d: %w", inst.ID, err)
		}
		posed := ev.track(base.Transform(poses[inst.ID]))
		mesh, err := posed.Mesh()
		if err != nil {
			return nil, fmt.Errorf("evaluate: meshing instance %d: %w", inst.ID, err)
		}
		name := inst.Name
		if name == "" {
			name = def.Name
		}
		scene.Parts = append(scene.Parts, Part{
			Root:     def.Root,
			Name:     name,
			Material: def.Material,
			Mesh:     mesh,
			Instance: inst.ID,
		})
		solids = append(solids, posed)
	}
	if err := ev.findClashes(scene, solids); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return scene, nil
}

// evaluateNode returns the solid for a node, building it on first use
// and serving repeats from the memo.
func (ev *evaluator) evaluateNode(id doc.NodeID) (kernel.Solid, error) {
	if s, ok := ev.memo[id]; ok {
		return s, nil
	}
	n := ev.doc.Get(id)
	if n == nil {
		return nil, &MissingNodeError{ID: id}
	}
	s, err := ev.buildOp(n)
	if err != nil {
		return nil, err
	}
	ev.memo[id] = s
	return s, nil
}

// buildOp dispatches one node to the kernel. The switch is exhaustive
// over the closed op set; child errors bubble unwrapped because they
// already name their own node.
func (ev *evaluator) buildOp(n *doc.Node) (kernel.Solid, error) {
	switch o := n.Op.(type) {
	case doc.CubeOp:
		s, err := ev.kernel.Cube(o.Size.X, o.Size.Y, o.Size.Z)
		return ev.done(n, s, err)
	case doc.CylinderOp:
		s, err := ev.kernel.Cylinder(o.Radius, o.Height, o.Segments)
		return ev.done(n, s, err)
	case doc.SphereOp:
		s, err := ev.kernel.Sphere(o.Radius, o.Segments)
		return ev.done(n, s, err)
	case doc.ConeOp:
		s, err := ev.kernel.Cone(o.BottomRadius, o.TopRadius, o.Height, o.Segments)
		return ev.done(n, s, err)
	case doc.EmptyOp:
		return ev.track(ev.kernel.Empty()), nil

	case doc.UnionOp:
		a, b, err := ev.pair(o.A, o.B)
		if err != nil {
			return nil, err
		}
		return ev.track(a.Union(b)), nil
	case doc.DifferenceOp:
		a, b, err := ev.pair(o.A, o.B)
		if err != nil {
			return nil, err
		}
		return ev.track(a.Difference(b)), nil
	case doc.IntersectionOp:
		a, b, err := ev.pair(o.A, o.B)
		if err != nil {
			return nil, err
		}
		return ev.track(a.Intersection(b)), nil

	case doc.TranslateOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		return ev.track(c.Translate(o.Offset.X, o.Offset.Y, o.Offset.Z)), nil
	case doc.RotateOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		return ev.track(c.Rotate(o.Angles.X, o.Angles.Y, o.Angles.Z)), nil
	case doc.ScaleOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		return ev.track(c.Scale(o.Factor.X, o.Factor.Y, o.Factor.Z)), nil

	case doc.ShellOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		s, err := c.Shell(o.Thickness)
		return ev.done(n, s, err)
	case doc.FilletOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		s, err := c.Fillet(o.Radius)
		return ev.done(n, s, err)
	case doc.ChamferOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		s, err := c.Chamfer(o.Distance)
		return ev.done(n, s, err)

	case doc.LinearPatternOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		return ev.track(c.LinearPattern(vec(o.Direction), o.Count, o.Spacing)), nil
	case doc.CircularPatternOp:
		c, err := ev.evaluateNode(o.Child)
		if err != nil {
			return nil, err
		}
		return ev.track(c.CircularPattern(vec(o.AxisOrigin), vec(o.AxisDir), o.Count, o.AngleDeg)), nil

	case doc.SketchOp:
		return nil, &SketchAsSolidError{ID: n.ID}

	case doc.ExtrudeOp:
		p, err := ev.resolveProfile(n, o.Sketch)
		if err != nil {
			return nil, err
		}
		s, err := ev.kernel.Extrude(p, vec(o.Direction))
		return ev.done(n, s, err)
	case doc.RevolveOp:
		p, err := ev.resolveProfile(n, o.Sketch)
		if err != nil {
			return nil, err
		}
		axis := o.AxisDir
		if axis == (doc.Vec3{}) {
			axis = doc.Vec3{Y: 1}
		}
		s, err := ev.kernel.Revolve(p, vec(o.AxisOrigin), vec(axis), o.AngleDeg)
		return ev.done(n, s, err)
	case doc.SweepOp:
		p, err := ev.resolveProfile(n, o.Sketch)
		if err != nil {
			return nil, err
		}
		// Both scales zero means unset: sweep at natural size.
		start, end := o.ScaleStart, o.ScaleEnd
		if start == 0 && end == 0 {
			start, end = 1, 1
		}
		var s kernel.Solid
		if o.Path.Kind == doc.PathHelix {
			s, err = ev.kernel.SweepHelix(p, o.Path.Radius, o.Path.Pitch, o.Path.Height, o.Path.Turns, o.TwistDeg, start, end)
		} else {
			s, err = ev.kernel.SweepLine(p, vec(o.Path.Start), vec(o.Path.End), o.TwistDeg, start, end)
		}
		return ev.done(n, s, err)
	case doc.LoftOp:
		profiles := make([]kernel.Profile, len(o.Sketches))
		for i, ref := range o.Sketches {
			p, err := ev.resolveProfile(n, ref)
			if err != nil {
				return nil, err
			}
			profiles[i] = p
		}
		s, err := ev.kernel.Loft(profiles, o.Closed)
		return ev.done(n, s, err)
	}
	return nil, fmt.Errorf("node %d: unhandled op %s", n.ID, doc.OpType(n.Op))
}

// pair evaluates both operands of a boolean.
func (ev *evaluator) pair(a, b doc.NodeID) (kernel.Solid, kernel.Solid, error) {
	sa, err := ev.evaluateNode(a)
	if err != nil {
		return nil, nil, err
	}
	sb, err := ev.evaluateNode(b)
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

// done tracks a freshly built solid, or attaches the requesting node to
// the kernel's error.
func (ev *evaluator) done(n *doc.Node, s kernel.Solid, err error) (kernel.Solid, error) {
	if err != nil {
		return nil, fmt.Errorf("%s node %d: %w", doc.OpType(n.Op), n.ID, err)
	}
	return ev.track(s), nil
}

// resolveProfile reads the sketch node referenced by a sketch-consuming
// op and converts it to a kernel profile.
func (ev *evaluator) resolveProfile(n *doc.Node, ref doc.NodeID) (kernel.Profile, error) {
	sn := ev.doc.Get(ref)
	if sn == nil {
		return kernel.Profile{}, &MissingNodeError{ID: ref}
	}
	sk, ok := sn.Op.(doc.SketchOp)
	if !ok {
		return kernel.Profile{}, &NotASketchError{
			Node: n.ID,
			Op:   doc.OpType(n.Op),
			Ref:  ref,
			Got:  doc.OpType(sn.Op),
		}
	}

	p := kernel.Profile{
		Origin:   vec(sk.Origin),
		XDir:     vec(sk.XDir),
		YDir:     vec(sk.YDir),
		Segments: make([]kernel.Segment, len(sk.Segments)),
	}
	for i, seg := range sk.Segments {
		kind := kernel.SegmentLine
		if seg.Kind == doc.SegmentArc {
			kind = kernel.SegmentArc
		}
		p.Segments[i] = kernel.Segment{
			Kind:   kind,
			Start:  [2]float64{seg.Start.X, seg.Start.Y},
			End:    [2]float64{seg.End.X, seg.End.Y},
			Center: [2]float64{seg.Center.X, seg.Center.Y},
			CCW:    seg.CCW,
		}
	}
	return p, nil
}

func vec(v doc.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
