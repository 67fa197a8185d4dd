package session_test

import (
	"bytes"
	"fmt"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/history"
	"github.com/perran/datum/pkg/kernel/kerneltest"
	"github.com/perran/datum/pkg/session"
)

func block(side float64) doc.CubeOp {
	return doc.CubeOp{Size: doc.Vec3{X: side, Y: side, Z: side}}
}

func marshal(t *testing.T, s *session.Session) []byte {
	t.Helper()
	b, err := json.Marshal(s.Document())
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	return b
}

func TestAddPrimitiveUndoRedoRoundTrip(t *testing.T) {
	s := session.New(kerneltest.New())
	initial := marshal(t, s)

	const n = 5
	for i := 0; i < n; i++ {
		if id := s.AddPrimitive("", block(10), "steel"); id == 0 {
			t.Fatalf("AddPrimitive #%d refused", i+1)
		}
	}
	final := marshal(t, s)
	if bytes.Equal(initial, final) {
		t.Fatal("mutations did not change the serialized document")
	}

	for i := 0; i < n; i++ {
		if !s.Undo() {
			t.Fatalf("undo #%d failed", i+1)
		}
	}
	if got := marshal(t, s); !bytes.Equal(got, initial) {
		t.Errorf("after %d undos document is not byte-identical to the initial state", n)
	}

	for i := 0; i < n; i++ {
		if !s.Redo() {
			t.Fatalf("redo #%d failed", i+1)
		}
	}
	if got := marshal(t, s); !bytes.Equal(got, final) {
		t.Errorf("after %d redos document is not byte-identical to the final state", n)
	}
	if s.Redo() {
		t.Error("redo past the newest state succeeded")
	}
}

// One mutation over the cap evicts the oldest snapshot, so a full
// rewind stops at the state after the first mutation, not the empty
// document.
func TestUndoDepthBounded(t *testing.T) {
	s := session.New(kerneltest.New())
	var afterFirst []byte
	for i := 0; i <= history.DefaultLimit; i++ {
		if id := s.AddPrimitive(fmt.Sprintf("part %d", i), block(1), "steel"); id == 0 {
			t.Fatalf("AddPrimitive #%d refused", i+1)
		}
		if i == 0 {
			afterFirst = marshal(t, s)
		}
	}

	undos := 0
	for s.Undo() {
		undos++
	}
	if undos != history.DefaultLimit {
		t.Fatalf("performed %d undos, want %d", undos, history.DefaultLimit)
	}
	if got := marshal(t, s); !bytes.Equal(got, afterFirst) {
		t.Error("deep rewind did not land on the state after the first mutation")
	}
	if s.Document().NodeCount() != 1 {
		t.Errorf("rewound document has %d nodes, want 1", s.Document().NodeCount())
	}
}

func TestAddPrimitiveRejectsComposites(t *testing.T) {
	s := session.New(kerneltest.New())
	if id := s.AddPrimitive("bad", doc.TranslateOp{Child: 1}, "steel"); id != 0 {
		t.Fatalf("composite op accepted as primitive, id %d", id)
	}
	if s.CanUndo() {
		t.Error("refused mutation left an undo snapshot")
	}
	if s.Document().NodeCount() != 0 {
		t.Error("refused mutation changed the document")
	}
}

func TestShellFeasibilitySentinel(t *testing.T) {
	s := session.New(kerneltest.New())
	id := s.AddPrimitive("block", block(10), "steel")

	// Walls would meet in the middle: refused, nothing recorded.
	if fid, ok := s.ApplyShell(id, 6); ok {
		t.Fatalf("infeasible shell accepted as node %d", fid)
	}
	if s.Document().NodeCount() != 1 {
		t.Fatalf("refused shell changed the document: %d nodes", s.Document().NodeCount())
	}

	fid, ok := s.ApplyShell(id, 1)
	if !ok {
		t.Fatal("feasible shell refused")
	}
	if s.Document().Roots[0].Root != fid {
		t.Errorf("scene root is %d, want the shell node %d", s.Document().Roots[0].Root, fid)
	}
	sh, okOp := s.Document().Get(fid).Op.(doc.ShellOp)
	if !okOp || sh.Child != id || sh.Thickness != 1 {
		t.Errorf("shell node op = %#v, want child %d thickness 1", s.Document().Get(fid).Op, id)
	}

	if !s.Undo() {
		t.Fatal("undo after shell failed")
	}
	if s.Document().Roots[0].Root != id {
		t.Error("undo did not restore the original scene root")
	}
}

func TestFeatureFeasibilityTable(t *testing.T) {
	cases := []struct {
		name  string
		apply func(s *session.Session, id doc.NodeID, v float64) (doc.NodeID, bool)
		bad   float64
		good  float64
	}{
		{
			"fillet",
			func(s *session.Session, id doc.NodeID, v float64) (doc.NodeID, bool) { return s.ApplyFillet(id, v) },
			7, 2,
		},
		{
			"chamfer",
			func(s *session.Session, id doc.NodeID, v float64) (doc.NodeID, bool) { return s.ApplyChamfer(id, v) },
			7, 2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := session.New(kerneltest.New())
			id := s.AddPrimitive("block", block(10), "steel")
			if _, ok := tc.apply(s, id, tc.bad); ok {
				t.Errorf("%s %g on a 10mm block accepted", tc.name, tc.bad)
			}
			if _, ok := tc.apply(s, id, tc.good); !ok {
				t.Errorf("%s %g on a 10mm block refused", tc.name, tc.good)
			}
		})
	}
}

func TestPatternsRequireTwoCopies(t *testing.T) {
	s := session.New(kerneltest.New())
	id := s.AddPrimitive("block", block(5), "steel")

	if _, ok := s.ApplyLinearPattern(id, doc.Vec3{X: 1}, 1, 10); ok {
		t.Error("single-copy linear pattern accepted")
	}
	pid, ok := s.ApplyLinearPattern(id, doc.Vec3{X: 1}, 4, 10)
	if !ok {
		t.Fatal("linear pattern refused")
	}
	if s.Document().Roots[0].Root != pid {
		t.Error("pattern did not take over the scene root")
	}

	if _, ok := s.ApplyCircularPattern(pid, doc.Vec3{}, doc.Vec3{Z: 1}, 1, 360); ok {
		t.Error("single-copy circular pattern accepted")
	}
	if _, ok := s.ApplyCircularPattern(pid, doc.Vec3{}, doc.Vec3{Z: 1}, 6, 360); !ok {
		t.Error("circular pattern refused")
	}
}

func TestTransformSettersWrapOnce(t *testing.T) {
	s := session.New(kerneltest.New())
	id := s.AddPrimitive("block", block(2), "steel")

	tid, ok := s.SetTranslation(id, doc.Vec3{X: 5}, false)
	if !ok || tid == id {
		t.Fatalf("SetTranslation = (%d, %t), want a fresh wrapper", tid, ok)
	}
	if s.Document().Roots[0].Root != tid {
		t.Error("wrapper did not take over the scene root")
	}

	again, ok := s.SetTranslation(tid, doc.Vec3{X: 9}, false)
	if !ok || again != tid {
		t.Fatalf("second SetTranslation = (%d, %t), want in-place update of %d", again, ok, tid)
	}
	if s.Document().NodeCount() != 2 {
		t.Errorf("document has %d nodes after two translations, want 2", s.Document().NodeCount())
	}
	op := s.Document().Get(tid).Op.(doc.TranslateOp)
	if op.Offset.X != 9 || op.Child != id {
		t.Errorf("translate op = %+v, want offset x 9 over node %d", op, id)
	}

	rid, ok := s.SetRotation(tid, doc.Vec3{Z: 90}, false)
	if !ok || rid == tid {
		t.Fatalf("SetRotation = (%d, %t), want a rotate wrapper", rid, ok)
	}
	if s.Document().Roots[0].Root != rid {
		t.Error("rotate wrapper did not take over the scene root")
	}
}

func TestSkipUndoBatchesDrag(t *testing.T) {
	s := session.New(kerneltest.New())
	id := s.AddPrimitive("block", block(2), "steel")
	before := marshal(t, s)

	if !s.PushUndoSnapshot() {
		t.Fatal("gesture-start snapshot failed")
	}
	target := id
	for x := 1; x <= 20; x++ {
		next, ok := s.SetTranslation(target, doc.Vec3{X: float64(x)}, true)
		if !ok {
			t.Fatalf("drag frame %d refused", x)
		}
		target = next
	}

	if !s.Undo() {
		t.Fatal("undo after drag failed")
	}
	if got := marshal(t, s); !bytes.Equal(got, before) {
		t.Error("one undo did not rewind the whole drag")
	}
}

func TestRemovePartPrunesUnreachable(t *testing.T) {
	s := session.New(kerneltest.New())
	id := s.AddPrimitive("block", block(4), "steel")
	mid, ok := s.MirrorPart(id, doc.Vec3{X: 1})
	if !ok {
		t.Fatal("MirrorPart refused")
	}

	if s.RemovePart(mid + 100) {
		t.Error("removing a non-root id succeeded")
	}
	if !s.RemovePart(mid) {
		t.Fatal("RemovePart refused the mirror root")
	}
	// The mirror node goes; the shared blank survives as the original
	// part.
	if s.Document().Get(mid) != nil {
		t.Error("mirror node survived its removal")
	}
	if s.Document().Get(id) == nil {
		t.Error("shared source node was pruned while still a root")
	}

	if !s.RemovePart(id) {
		t.Fatal("RemovePart refused the last root")
	}
	if s.Document().NodeCount() != 0 {
		t.Errorf("document has %d nodes after removing every part", s.Document().NodeCount())
	}
}

func TestMirrorSharesSubgraph(t *testing.T) {
	s := session.New(kerneltest.New())
	id := s.AddPrimitive("bracket", block(4), "alu")
	mid, ok := s.MirrorPart(id, doc.Vec3{Y: 1})
	if !ok {
		t.Fatal("MirrorPart refused")
	}

	sc, okOp := s.Document().Get(mid).Op.(doc.ScaleOp)
	if !okOp || sc.Factor.Y != -1 || sc.Factor.X != 1 || sc.Child != id {
		t.Errorf("mirror op = %#v, want y flip over node %d", s.Document().Get(mid).Op, id)
	}
	if got := s.Document().Roots[1].Material; got != "alu" {
		t.Errorf("mirror material = %q, want alu inherited", got)
	}

	k := kerneltest.New()
	s2 := session.Open(s.Document(), k)
	if _, err := s2.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if k.Calls["cube"] != 1 {
		t.Errorf("shared blank built %d times, want 1", k.Calls["cube"])
	}
}

func TestRenameAndResize(t *testing.T) {
	s := session.New(kerneltest.New())
	id := s.AddPrimitive("block", block(2), "steel")

	if !s.RenamePart(id, "plate") {
		t.Fatal("RenamePart refused")
	}
	if s.Document().Get(id).Name != "plate" {
		t.Error("rename did not stick")
	}

	if !s.UpdatePrimitiveOp(id, block(8), false) {
		t.Fatal("UpdatePrimitiveOp refused a resize")
	}
	if got := s.Document().Get(id).Op.(doc.CubeOp).Size.X; got != 8 {
		t.Errorf("size = %g, want 8", got)
	}

	if s.UpdatePrimitiveOp(id, doc.UnionOp{A: id, B: id}, false) {
		t.Error("self-referencing op accepted")
	}
	if s.UpdatePrimitiveOp(id, doc.TranslateOp{Child: 77}, false) {
		t.Error("op with a dangling reference accepted")
	}
}

func TestAssemblyEdits(t *testing.T) {
	s := session.New(kerneltest.New())
	root := s.AddPrimitive("plate blank", block(10), "steel")

	if s.AddPartDef("plate", "plate", 999, "steel") {
		t.Error("part definition with a dangling root accepted")
	}
	if !s.AddPartDef("plate", "plate", root, "steel") {
		t.Fatal("AddPartDef refused")
	}
	if s.AddPartDef("plate", "second", root, "steel") {
		t.Error("duplicate part definition id accepted")
	}

	if _, ok := s.AddInstance("ghost", ""); ok {
		t.Error("instance of an unknown definition accepted")
	}
	base, ok := s.AddInstance("plate", "base")
	if !ok {
		t.Fatal("AddInstance refused")
	}
	arm, ok := s.AddInstance("plate", "arm")
	if !ok {
		t.Fatal("AddInstance refused")
	}

	jid, ok := s.AddJoint(&base, arm, doc.JointRevolute, doc.Vec3{Z: 1}, doc.Vec3{X: 10}, doc.Vec3{})
	if !ok {
		t.Fatal("AddJoint refused")
	}
	if _, ok := s.AddJoint(nil, arm, doc.JointFixed, doc.Vec3{}, doc.Vec3{}, doc.Vec3{}); ok {
		t.Error("second incoming joint accepted")
	}
	if _, ok := s.AddJoint(&arm, base, doc.JointFixed, doc.Vec3{}, doc.Vec3{}, doc.Vec3{}); ok {
		t.Error("joint closing a loop accepted")
	}

	if !s.SetJointState(jid, [3]float64{45, 0, 0}, false) {
		t.Fatal("SetJointState refused")
	}
	if got := s.Document().Joint(jid).State[0]; got != 45 {
		t.Errorf("joint state = %g, want 45", got)
	}
	if s.SetJointState(jid+100, [3]float64{}, false) {
		t.Error("driving an unknown joint succeeded")
	}

	if !s.RemoveInstance(arm) {
		t.Fatal("RemoveInstance refused")
	}
	if len(s.Document().Joints) != 0 {
		t.Errorf("%d joints survived removing their instance", len(s.Document().Joints))
	}
}

func TestOpenExistingDocument(t *testing.T) {
	d := doc.New()
	n := d.NewNode("blank", block(3))
	d.AddRoot(n.ID, "steel")

	s := session.Open(d, kerneltest.New())
	if s.CanUndo() {
		t.Error("fresh session reports undoable history")
	}
	scene, err := s.Evaluate()
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(scene.Parts) != 1 {
		t.Errorf("got %d parts, want 1", len(scene.Parts))
	}
}
