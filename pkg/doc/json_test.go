package doc

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

// buildKitchenSink creates a document exercising every op variant plus
// materials, part definitions, instances and joints.
func buildKitchenSink() *Document {
	d := New()
	d.Materials = DefaultMaterials()

	cube := d.NewNode("cube", CubeOp{Size: Vec3{X: 20, Y: 20, Z: 20}})
	cyl := d.NewNode("cyl", CylinderOp{Radius: 10, Height: 20, Segments: 32})
	sph := d.NewNode("sph", SphereOp{Radius: 8})
	cone := d.NewNode("cone", ConeOp{BottomRadius: 10, TopRadius: 2, Height: 15})
	empty := d.NewNode("", EmptyOp{})

	tr := d.NewNode("", TranslateOp{Child: cube.ID, Offset: Vec3{X: 1, Y: 2, Z: 3}})
	rot := d.NewNode("", RotateOp{Child: cyl.ID, Angles: Vec3{Z: 45}})
	sc := d.NewNode("", ScaleOp{Child: sph.ID, Factor: Vec3{X: 1, Y: 1, Z: 2}})
	sh := d.NewNode("", ShellOp{Child: cone.ID, Thickness: 1.5})
	fl := d.NewNode("", FilletOp{Child: tr.ID, Radius: 2})
	ch := d.NewNode("", ChamferOp{Child: rot.ID, Distance: 1})
	lp := d.NewNode("", LinearPatternOp{Child: sc.ID, Direction: Vec3{X: 1}, Count: 4, Spacing: 25})
	cp := d.NewNode("", CircularPatternOp{Child: sh.ID, AxisDir: Vec3{Z: 1}, Count: 6, AngleDeg: 360})

	un := d.NewNode("", UnionOp{A: fl.ID, B: ch.ID})
	df := d.NewNode("", DifferenceOp{A: un.ID, B: lp.ID})
	in := d.NewNode("", IntersectionOp{A: df.ID, B: cp.ID})

	sk := d.NewNode("profile", SketchOp{
		XDir: Vec3{X: 1},
		YDir: Vec3{Y: 1},
		Segments: []SketchSegment{
			{Kind: SegmentLine, Start: Vec2{X: 0, Y: 0}, End: Vec2{X: 10, Y: 0}},
			{Kind: SegmentArc, Start: Vec2{X: 10, Y: 0}, End: Vec2{X: 10, Y: 10}, Center: Vec2{X: 10, Y: 5}, CCW: true},
			{Kind: SegmentLine, Start: Vec2{X: 10, Y: 10}, End: Vec2{X: 0, Y: 0}},
		},
	})
	sk2 := d.NewNode("profile2", SketchOp{
		Origin: Vec3{Z: 30},
		XDir:   Vec3{X: 1},
		YDir:   Vec3{Y: 1},
		Segments: []SketchSegment{
			{Kind: SegmentLine, Start: Vec2{X: 0, Y: 0}, End: Vec2{X: 5, Y: 0}},
			{Kind: SegmentLine, Start: Vec2{X: 5, Y: 0}, End: Vec2{X: 5, Y: 5}},
			{Kind: SegmentLine, Start: Vec2{X: 5, Y: 5}, End: Vec2{X: 0, Y: 0}},
		},
	})
	ex := d.NewNode("", ExtrudeOp{Sketch: sk.ID, Direction: Vec3{Z: 12}})
	rv := d.NewNode("", RevolveOp{Sketch: sk.ID, AxisOrigin: Vec3{X: -5}, AxisDir: Vec3{Y: 1}, AngleDeg: 270})
	sw := d.NewNode("", SweepOp{
		Sketch:     sk.ID,
		Path:       SweepPath{Kind: PathHelix, Radius: 15, Height: 40, Turns: 5},
		ScaleStart: 1,
		ScaleEnd:   0.5,
	})
	lf := d.NewNode("", LoftOp{Sketches: []NodeID{sk.ID, sk2.ID}, Closed: false})

	top := d.NewNode("top", UnionOp{A: in.ID, B: ex.ID})
	_ = empty
	_ = sw
	_ = lf

	d.AddRoot(top.ID, "steel")
	d.AddRoot(rv.ID, DefaultMaterial)

	d.PartDefs["widget"] = &PartDef{Name: "widget", Root: top.ID, Material: "steel"}
	base := d.NewInstance("widget", "base")
	armInst := d.NewInstance("widget", "arm")
	j := d.NewJoint(&base.ID, armInst.ID, JointCylindrical)
	j.Axis = Vec3{Z: 1}
	j.ParentAnchor = Vec3{X: 10}
	j.ChildAnchor = Vec3{X: -10}
	j.State = [3]float64{90, 5, 0}

	return d
}

func TestDocumentJSON_RoundTrip(t *testing.T) {
	d := buildKitchenSink()

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	restored := New()
	if err := json.Unmarshal(b, restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if restored.NodeCount() != d.NodeCount() {
		t.Fatalf("restored NodeCount() = %d, want %d", restored.NodeCount(), d.NodeCount())
	}
	if len(restored.Roots) != len(d.Roots) {
		t.Fatalf("restored roots = %d, want %d", len(restored.Roots), len(d.Roots))
	}
	if len(restored.Instances) != 2 || len(restored.Joints) != 1 {
		t.Fatalf("restored instances/joints = %d/%d, want 2/1", len(restored.Instances), len(restored.Joints))
	}

	j := restored.Joints[0]
	if j.Kind != JointCylindrical || j.State[0] != 90 || j.State[1] != 5 {
		t.Errorf("joint round trip lost state: kind=%s state=%v", j.Kind, j.State)
	}
	if j.Parent == nil || *j.Parent != restored.Instances[0].ID {
		t.Errorf("joint parent round trip failed: %v", j.Parent)
	}

	for id, n := range d.Nodes {
		rn := restored.Get(id)
		if rn == nil {
			t.Fatalf("node %d missing after round trip", id)
		}
		if OpType(rn.Op) != OpType(n.Op) {
			t.Errorf("node %d op = %s, want %s", id, OpType(rn.Op), OpType(n.Op))
		}
	}

	// A sampled op survives with its payload intact.
	var sweep SweepOp
	found := false
	for _, n := range restored.Nodes {
		if sw, ok := n.Op.(SweepOp); ok {
			sweep, found = sw, true
		}
	}
	if !found {
		t.Fatalf("no sweep op after round trip")
	}
	if sweep.Path.Kind != PathHelix || sweep.Path.Radius != 15 || sweep.Path.Turns != 5 || sweep.ScaleEnd != 0.5 {
		t.Errorf("sweep payload = %+v, want helix r=15 turns=5 scaleEnd=0.5", sweep)
	}
}

func TestDocumentJSON_Deterministic(t *testing.T) {
	d := buildKitchenSink()

	b1, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	b2, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("second Marshal() error: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Errorf("repeated marshal of the same document differs")
	}

	restored := New()
	if err := json.Unmarshal(b1, restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	b3, err := json.Marshal(restored)
	if err != nil {
		t.Fatalf("Marshal() of restored error: %v", err)
	}
	if !bytes.Equal(b1, b3) {
		t.Errorf("marshal -> unmarshal -> marshal is not byte-stable")
	}
}

func TestDocumentJSON_VecArrayForm(t *testing.T) {
	d := New()
	n := d.NewNode("", TranslateOp{Child: 1, Offset: Vec3{X: 1, Y: 2, Z: 3}})
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(b), `"offset":[1,2,3]`) {
		t.Errorf("vectors must serialize as arrays, got %s", b)
	}
	if !strings.Contains(string(b), `"type":"translate"`) {
		t.Errorf("op must carry a type tag, got %s", b)
	}
}

func TestDocumentJSON_UnknownOpType(t *testing.T) {
	blob := []byte(`{"nodes":{"1":{"id":1,"op":{"type":"torus","major":10}}},"roots":[],"materials":{},"next_id":1}`)
	d := New()
	err := json.Unmarshal(blob, d)
	if err == nil {
		t.Fatalf("Unmarshal() accepted an unknown op type")
	}
	if !strings.Contains(err.Error(), "torus") {
		t.Errorf("error %q does not name the unknown op type", err)
	}
}

func TestDocumentJSON_MissingTypeTag(t *testing.T) {
	blob := []byte(`{"nodes":{"1":{"id":1,"op":{"size":[1,1,1]}}},"roots":[],"materials":{},"next_id":1}`)
	d := New()
	if err := json.Unmarshal(blob, d); err == nil {
		t.Fatalf("Unmarshal() accepted an op without a type tag")
	}
}

func TestDocumentJSON_CounterSurvivesHandEditedFile(t *testing.T) {
	// next_id lower than the highest node id must not cause reuse.
	blob := []byte(`{"nodes":{"7":{"id":7,"op":{"type":"empty"}}},"roots":[],"materials":{},"next_id":1}`)
	d := New()
	if err := json.Unmarshal(blob, d); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	n := d.NewNode("", EmptyOp{})
	if n.ID <= 7 {
		t.Errorf("allocated id %d collides with existing node 7", n.ID)
	}
}
