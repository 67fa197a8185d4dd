// Package session owns a live document and exposes the undoable
// mutation API over it.
//
// Every mutation snapshots the document before changing it, so undo
// always lands on a known-good state. Mutations report failure with
// sentinel returns (false, zero ids) instead of errors: a refused edit
// leaves the document, the undo stack and the redo stack untouched.
// Feature operations that depend on geometry (shell, fillet, chamfer,
// patterns) are probed against the kernel on a clone first and refused
// when the kernel cannot realize them.
package session

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/evaluate"
	"github.com/perran/datum/pkg/history"
	"github.com/perran/datum/pkg/kernel"
)

// Session binds a document to a kernel and an undo history.
type Session struct {
	doc    *doc.Document
	hist   *history.History
	kernel kernel.Kernel
}

// New starts a session over a fresh empty document.
func New(k kernel.Kernel) *Session {
	return Open(doc.New(), k)
}

// Open starts a session over an existing document, e.g. one loaded
// from disk or produced by the script engine. The history starts
// empty.
func Open(d *doc.Document, k kernel.Kernel) *Session {
	return &Session{
		doc:    d,
		hist:   history.New(history.DefaultLimit),
		kernel: k,
	}
}

// Document returns the current document. Callers must treat it as
// read-only; edits go through the mutation API.
func (s *Session) Document() *doc.Document { return s.doc }

// Evaluate runs the evaluator over the current document.
func (s *Session) Evaluate() (*evaluate.Scene, error) {
	return evaluate.Evaluate(s.doc, s.kernel)
}

// --- History ---

// PushUndoSnapshot records the current state. Interactive drags call
// it once at gesture start and then mutate with skipUndo set, so a
// whole gesture undoes in one step.
func (s *Session) PushUndoSnapshot() bool { return s.push() }

func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// Undo restores the most recent snapshot. It reports false when there
// is nothing to undo.
func (s *Session) Undo() bool {
	cur, err := json.Marshal(s.doc)
	if err != nil {
		return false
	}
	prev, ok := s.hist.Undo(cur)
	if !ok {
		return false
	}
	return s.restore(prev)
}

// Redo restores the most recently undone state.
func (s *Session) Redo() bool {
	cur, err := json.Marshal(s.doc)
	if err != nil {
		return false
	}
	next, ok := s.hist.Redo(cur)
	if !ok {
		return false
	}
	return s.restore(next)
}

func (s *Session) push() bool {
	b, err := json.Marshal(s.doc)
	if err != nil {
		return false
	}
	s.hist.Push(b)
	return true
}

func (s *Session) restore(b []byte) bool {
	d := doc.New()
	if err := json.Unmarshal(b, d); err != nil {
		return false
	}
	s.doc = d
	return true
}

// --- Part mutations ---

// AddPrimitive inserts a generator node and registers it as a new
// scene root. A blank name gets a generated one. Returns the new node
// id, zero when op is not a primitive generator.
func (s *Session) AddPrimitive(name string, op doc.Op, material doc.MaterialKey) doc.NodeID {
	switch op.(type) {
	case doc.CubeOp, doc.CylinderOp, doc.SphereOp, doc.ConeOp, doc.EmptyOp:
	default:
		return 0
	}
	if !s.push() {
		return 0
	}
	n := s.doc.NewNode(name, op)
	if n.Name == "" {
		n.Name = fmt.Sprintf("%s %d", doc.OpType(op), n.ID)
	}
	s.doc.AddRoot(n.ID, material)
	return n.ID
}

// RemovePart unregisters a scene root and prunes nodes no other root,
// part definition or sketch reference still reaches.
func (s *Session) RemovePart(id doc.NodeID) bool {
	if !s.isRoot(id) {
		return false
	}
	if !s.push() {
		return false
	}
	s.doc.RemoveRoot(id)
	s.doc.PruneUnreachable()
	return true
}

// RenamePart sets a node's display name.
func (s *Session) RenamePart(id doc.NodeID, name string) bool {
	n := s.doc.Get(id)
	if n == nil {
		return false
	}
	if !s.push() {
		return false
	}
	n.Name = name
	return true
}

// UpdatePrimitiveOp replaces a node's op, e.g. after a dimension edit.
// Node references in the new op must resolve and must not route back
// to the node itself; the graph stays acyclic.
func (s *Session) UpdatePrimitiveOp(id doc.NodeID, op doc.Op, skipUndo bool) bool {
	n := s.doc.Get(id)
	if n == nil {
		return false
	}
	for _, c := range doc.Children(op) {
		if s.doc.Get(c) == nil {
			return false
		}
		if s.nodeReaches(c, id) {
			return false
		}
	}
	if !skipUndo && !s.push() {
		return false
	}
	n.Op = op
	return true
}

// SetTranslation positions a part. A translate node is updated in
// place; any other node is wrapped in a new translate node that takes
// over its scene root entries. The returned id is the node carrying
// the translation; callers keep it for the next call of a drag.
func (s *Session) SetTranslation(id doc.NodeID, offset doc.Vec3, skipUndo bool) (doc.NodeID, bool) {
	n := s.doc.Get(id)
	if n == nil {
		return 0, false
	}
	if !skipUndo && !s.push() {
		return 0, false
	}
	if t, ok := n.Op.(doc.TranslateOp); ok {
		t.Offset = offset
		n.Op = t
		return id, true
	}
	w := s.doc.NewNode(n.Name, doc.TranslateOp{Child: id, Offset: offset})
	s.repointRoots(id, w.ID)
	return w.ID, true
}

// SetRotation orients a part, Euler degrees applied X then Y then Z.
// Wrapping works as in SetTranslation.
func (s *Session) SetRotation(id doc.NodeID, angles doc.Vec3, skipUndo bool) (doc.NodeID, bool) {
	n := s.doc.Get(id)
	if n == nil {
		return 0, false
	}
	if !skipUndo && !s.push() {
		return 0, false
	}
	if r, ok := n.Op.(doc.RotateOp); ok {
		r.Angles = angles
		n.Op = r
		return id, true
	}
	w := s.doc.NewNode(n.Name, doc.RotateOp{Child: id, Angles: angles})
	s.repointRoots(id, w.ID)
	return w.ID, true
}

// SetScale scales a part about the origin. Negative factors mirror.
// Wrapping works as in SetTranslation.
func (s *Session) SetScale(id doc.NodeID, factor doc.Vec3, skipUndo bool) (doc.NodeID, bool) {
	n := s.doc.Get(id)
	if n == nil {
		return 0, false
	}
	if !skipUndo && !s.push() {
		return 0, false
	}
	if sc, ok := n.Op.(doc.ScaleOp); ok {
		sc.Factor = factor
		n.Op = sc
		return id, true
	}
	w := s.doc.NewNode(n.Name, doc.ScaleOp{Child: id, Factor: factor})
	s.repointRoots(id, w.ID)
	return w.ID, true
}

// MirrorPart adds a mirrored copy of a part as a new scene root. The
// axis picks the mirror plane normal through the origin. The copy
// shares the source subgraph, so later edits to the source mirror too.
func (s *Session) MirrorPart(id doc.NodeID, axis doc.Vec3) (doc.NodeID, bool) {
	n := s.doc.Get(id)
	if n == nil {
		return 0, false
	}
	factor := doc.Vec3{X: 1, Y: 1, Z: 1}
	switch {
	case axis.X != 0:
		factor.X = -1
	case axis.Y != 0:
		factor.Y = -1
	case axis.Z != 0:
		factor.Z = -1
	default:
		return 0, false
	}
	if !s.push() {
		return 0, false
	}
	name := "mirror"
	if n.Name != "" {
		name = n.Name + " mirror"
	}
	m := s.doc.NewNode(name, doc.ScaleOp{Child: id, Factor: factor})
	s.doc.AddRoot(m.ID, s.materialOf(id))
	return m.ID, true
}

// --- Feature operations ---
//
// These may be geometrically infeasible (a shell thicker than its
// body, a fillet larger than an edge). Each one is applied to a clone
// and test-evaluated; only a clone the kernel accepts replaces the
// document.

// ApplyShell hollows a part, leaving walls of the given thickness.
func (s *Session) ApplyShell(id doc.NodeID, thickness float64) (doc.NodeID, bool) {
	return s.applyFeature(id, doc.ShellOp{Child: id, Thickness: thickness})
}

// ApplyFillet rounds a part's edges.
func (s *Session) ApplyFillet(id doc.NodeID, radius float64) (doc.NodeID, bool) {
	return s.applyFeature(id, doc.FilletOp{Child: id, Radius: radius})
}

// ApplyChamfer bevels a part's edges.
func (s *Session) ApplyChamfer(id doc.NodeID, distance float64) (doc.NodeID, bool) {
	return s.applyFeature(id, doc.ChamferOp{Child: id, Distance: distance})
}

// ApplyLinearPattern repeats a part along a direction.
func (s *Session) ApplyLinearPattern(id doc.NodeID, dir doc.Vec3, count int, spacing float64) (doc.NodeID, bool) {
	if count < 2 {
		return 0, false
	}
	return s.applyFeature(id, doc.LinearPatternOp{Child: id, Direction: dir, Count: count, Spacing: spacing})
}

// ApplyCircularPattern repeats a part about an axis.
func (s *Session) ApplyCircularPattern(id doc.NodeID, axisOrigin, axisDir doc.Vec3, count int, angleDeg float64) (doc.NodeID, bool) {
	if count < 2 {
		return 0, false
	}
	return s.applyFeature(id, doc.CircularPatternOp{
		Child:      id,
		AxisOrigin: axisOrigin,
		AxisDir:    axisDir,
		Count:      count,
		AngleDeg:   angleDeg,
	})
}

func (s *Session) applyFeature(id doc.NodeID, op doc.Op) (doc.NodeID, bool) {
	n := s.doc.Get(id)
	if n == nil {
		return 0, false
	}
	trial, err := s.doc.Clone()
	if err != nil {
		return 0, false
	}
	w := trial.NewNode(n.Name, op)
	for i, r := range trial.Roots {
		if r.Root == id {
			trial.Roots[i].Root = w.ID
		}
	}
	if _, err := evaluate.Evaluate(trial, s.kernel); err != nil {
		return 0, false
	}
	if !s.push() {
		return 0, false
	}
	s.doc = trial
	return w.ID, true
}

// --- Assembly mutations ---

// AddPartDef registers reusable geometry that instances can place.
func (s *Session) AddPartDef(id doc.PartDefID, name string, root doc.NodeID, material doc.MaterialKey) bool {
	if id == "" || s.doc.Get(root) == nil {
		return false
	}
	if _, exists := s.doc.PartDefs[id]; exists {
		return false
	}
	if !s.push() {
		return false
	}
	s.doc.PartDefs[id] = &doc.PartDef{Name: name, Root: root, Material: material}
	return true
}

// AddInstance places a part definition into the assembly.
func (s *Session) AddInstance(def doc.PartDefID, name string) (doc.InstanceID, bool) {
	if _, ok := s.doc.PartDefs[def]; !ok {
		return 0, false
	}
	if !s.push() {
		return 0, false
	}
	return s.doc.NewInstance(def, name).ID, true
}

// RemoveInstance drops an instance and every joint touching it.
func (s *Session) RemoveInstance(id doc.InstanceID) bool {
	if s.doc.Instance(id) == nil {
		return false
	}
	if !s.push() {
		return false
	}
	s.doc.RemoveInstance(id)
	return true
}

// AddJoint connects child to parent (ground when parent is nil). The
// edit is refused when it would give child a second incoming joint or
// close a loop in the joint graph.
func (s *Session) AddJoint(parent *doc.InstanceID, child doc.InstanceID, kind doc.JointKind, axis, parentAnchor, childAnchor doc.Vec3) (doc.JointID, bool) {
	if s.doc.Instance(child) == nil {
		return 0, false
	}
	if parent != nil && s.doc.Instance(*parent) == nil {
		return 0, false
	}
	for _, j := range s.doc.Joints {
		if j.Child == child {
			return 0, false
		}
	}
	if parent != nil && s.reaches(*parent, child) {
		return 0, false
	}
	if !s.push() {
		return 0, false
	}
	j := s.doc.NewJoint(parent, child, kind)
	j.Axis = axis
	j.ParentAnchor = parentAnchor
	j.ChildAnchor = childAnchor
	return j.ID, true
}

// SetJointState drives a joint, e.g. from a slider in the UI.
func (s *Session) SetJointState(id doc.JointID, state [3]float64, skipUndo bool) bool {
	j := s.doc.Joint(id)
	if j == nil {
		return false
	}
	if !skipUndo && !s.push() {
		return false
	}
	j.State = state
	return true
}

// reaches reports whether target sits on from's chain of parents. The
// visited set keeps the walk finite on documents whose joints did not
// all come through AddJoint.
func (s *Session) reaches(from, target doc.InstanceID) bool {
	incoming := make(map[doc.InstanceID]*doc.Joint, len(s.doc.Joints))
	for _, j := range s.doc.Joints {
		incoming[j.Child] = j
	}
	visited := make(map[doc.InstanceID]bool)
	at := &from
	for at != nil && !visited[*at] {
		if *at == target {
			return true
		}
		visited[*at] = true
		j := incoming[*at]
		if j == nil {
			return false
		}
		at = j.Parent
	}
	return false
}

// --- helpers ---

func (s *Session) isRoot(id doc.NodeID) bool {
	for _, r := range s.doc.Roots {
		if r.Root == id {
			return true
		}
	}
	return false
}

// nodeReaches reports whether target is reachable from node from
// through op references.
func (s *Session) nodeReaches(from, target doc.NodeID) bool {
	visited := make(map[doc.NodeID]bool)
	stack := []doc.NodeID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		if n := s.doc.Get(id); n != nil {
			stack = append(stack, doc.Children(n.Op)...)
		}
	}
	return false
}

func (s *Session) materialOf(id doc.NodeID) doc.MaterialKey {
	for _, r := range s.doc.Roots {
		if r.Root == id {
			return r.Material
		}
	}
	return ""
}

func (s *Session) repointRoots(from, to doc.NodeID) {
	for i, r := range s.doc.Roots {
		if r.Root == from {
			s.doc.Roots[i].Root = to
		}
	}
}
