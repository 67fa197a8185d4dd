package doc

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// hasError returns true if errs contains at least one error-severity
// finding whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one
// warning-severity finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tier 1: structural
// ---------------------------------------------------------------------------

func TestValidate_ValidDocument(t *testing.T) {
	d, _ := buildBracket()
	errs := Validate(d)
	if len(errs) != 0 {
		for _, e := range errs {
			t.Errorf("unexpected validation finding: %s", e)
		}
	}
}

func TestValidate_EmptyDocument(t *testing.T) {
	d := New()
	if errs := Validate(d); len(errs) != 0 {
		t.Errorf("Validate(empty) = %v, want none", errs)
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	d := New()
	a := d.NewNode("a", TranslateOp{Offset: Vec3{X: 1}})
	b := d.NewNode("b", TranslateOp{Child: a.ID})
	// Close the loop a -> b -> a.
	a.Op = TranslateOp{Child: b.ID, Offset: Vec3{X: 1}}
	d.AddRoot(a.ID, DefaultMaterial)

	errs := Validate(d)
	if !hasError(errs, "cycle") {
		t.Errorf("Validate() missed the cycle: %v", errs)
	}
}

func TestValidate_SelfReference(t *testing.T) {
	d := New()
	n := d.NewNode("loop", ShellOp{Thickness: 1})
	n.Op = ShellOp{Child: n.ID, Thickness: 1}
	d.AddRoot(n.ID, DefaultMaterial)

	if errs := Validate(d); !hasError(errs, "cycle") {
		t.Errorf("Validate() missed the self-reference: %v", errs)
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	d := New()
	n := d.NewNode("", TranslateOp{Child: 999, Offset: Vec3{X: 1}})
	d.AddRoot(n.ID, DefaultMaterial)

	errs := Validate(d)
	if !hasError(errs, "999") {
		t.Errorf("Validate() missed the dangling reference: %v", errs)
	}
}

func TestValidate_MissingRoot(t *testing.T) {
	d := New()
	d.AddRoot(42, DefaultMaterial)
	if errs := Validate(d); !hasError(errs, "does not exist") {
		t.Errorf("Validate() missed the missing root: %v", errs)
	}
}

func TestValidate_SketchAsRoot(t *testing.T) {
	d := New()
	sk := d.NewNode("sk", SketchOp{
		XDir: Vec3{X: 1}, YDir: Vec3{Y: 1},
		Segments: []SketchSegment{
			{Kind: SegmentLine, Start: Vec2{}, End: Vec2{X: 5}},
			{Kind: SegmentLine, Start: Vec2{X: 5}, End: Vec2{X: 5, Y: 5}},
			{Kind: SegmentLine, Start: Vec2{X: 5, Y: 5}, End: Vec2{}},
		},
	})
	d.AddRoot(sk.ID, DefaultMaterial)

	if errs := Validate(d); !hasError(errs, "produces no solid") {
		t.Errorf("Validate() accepted a sketch as scene root: %v", errs)
	}
}

func TestValidate_ExtrudeOfNonSketch(t *testing.T) {
	d := New()
	cube := d.NewNode("cube", CubeOp{Size: Vec3{X: 10, Y: 10, Z: 10}})
	ex := d.NewNode("", ExtrudeOp{Sketch: cube.ID, Direction: Vec3{Z: 5}})
	d.AddRoot(ex.ID, DefaultMaterial)

	errs := Validate(d)
	if !hasError(errs, "not sketch2d") {
		t.Errorf("Validate() missed extrude of a non-sketch: %v", errs)
	}
}

func TestValidate_OrphanWarning(t *testing.T) {
	d, _ := buildBracket()
	d.NewNode("stray", SphereOp{Radius: 3})

	errs := Validate(d)
	if !hasWarning(errs, "orphan") {
		t.Errorf("Validate() missed the orphan node: %v", errs)
	}
}

// ---------------------------------------------------------------------------
// Tier 1: assembly layer
// ---------------------------------------------------------------------------

func buildAssembly() *Document {
	d := New()
	body := d.NewNode("body", CubeOp{Size: Vec3{X: 10, Y: 10, Z: 10}})
	d.Materials = DefaultMaterials()
	d.PartDefs["body"] = &PartDef{Name: "body", Root: body.ID, Material: DefaultMaterial}
	return d
}

func TestValidate_UnknownPartDef(t *testing.T) {
	d := buildAssembly()
	d.NewInstance("ghost", "g1")
	if errs := Validate(d); !hasError(errs, `part definition "ghost"`) {
		t.Errorf("Validate() missed the unknown part definition: %v", errs)
	}
}

func TestValidate_JointUnknownInstance(t *testing.T) {
	d := buildAssembly()
	base := d.NewInstance("body", "base")
	d.NewJoint(&base.ID, 777, JointFixed)
	if errs := Validate(d); !hasError(errs, "777") {
		t.Errorf("Validate() missed the unknown joint child: %v", errs)
	}
}

func TestValidate_DoubleIncomingJoint(t *testing.T) {
	d := buildAssembly()
	a := d.NewInstance("body", "a")
	b := d.NewInstance("body", "b")
	c := d.NewInstance("body", "c")
	d.NewJoint(&a.ID, c.ID, JointFixed)
	d.NewJoint(&b.ID, c.ID, JointFixed)

	if errs := Validate(d); !hasError(errs, "more than one incoming joint") {
		t.Errorf("Validate() missed the doubly-jointed instance: %v", errs)
	}
}

func TestValidate_JointCycle(t *testing.T) {
	d := buildAssembly()
	a := d.NewInstance("body", "a")
	b := d.NewInstance("body", "b")
	d.NewJoint(&a.ID, b.ID, JointFixed)
	d.NewJoint(&b.ID, a.ID, JointFixed)

	if errs := Validate(d); !hasError(errs, "joint cycle") {
		t.Errorf("Validate() missed the joint cycle: %v", errs)
	}
}

func TestValidate_ZeroJointAxis(t *testing.T) {
	d := buildAssembly()
	a := d.NewInstance("body", "a")
	b := d.NewInstance("body", "b")
	d.NewJoint(&a.ID, b.ID, JointRevolute) // axis left zero

	if errs := Validate(d); !hasError(errs, "zero axis") {
		t.Errorf("Validate() missed the zero joint axis: %v", errs)
	}
}

// ---------------------------------------------------------------------------
// Tier 2: geometric
// ---------------------------------------------------------------------------

func TestValidateAll_Geometry(t *testing.T) {
	tests := []struct {
		name    string
		op      Op
		substr  string
		warning bool
	}{
		{"negative cube", CubeOp{Size: Vec3{X: -1, Y: 10, Z: 10}}, "must be positive", false},
		{"zero cylinder radius", CylinderOp{Radius: 0, Height: 5}, "radius", false},
		{"two segments", CylinderOp{Radius: 5, Height: 5, Segments: 2}, "segments", false},
		{"flat cone", ConeOp{BottomRadius: 5, TopRadius: 1, Height: 0}, "height", false},
		{"zero scale", ScaleOp{Child: 1, Factor: Vec3{X: 1, Y: 0, Z: 1}}, "non-zero", false},
		{"thin shell", ShellOp{Child: 1, Thickness: -2}, "thickness", false},
		{"pattern count", LinearPatternOp{Child: 1, Direction: Vec3{X: 1}, Count: 0, Spacing: 5}, "count", false},
		{"pattern overlap", LinearPatternOp{Child: 1, Direction: Vec3{X: 1}, Count: 3, Spacing: 0}, "coincide", true},
		{"empty sketch", SketchOp{XDir: Vec3{X: 1}, YDir: Vec3{Y: 1}}, "no segments", false},
		{"revolve angle", RevolveOp{Sketch: 2, AxisDir: Vec3{Y: 1}, AngleDeg: 0}, "angle", false},
		{"over-revolve", RevolveOp{Sketch: 2, AxisDir: Vec3{Y: 1}, AngleDeg: 540}, "clamped", true},
		{"degenerate sweep", SweepOp{Sketch: 2, Path: SweepPath{Kind: PathLine}}, "coincide", false},
		{"helix radius", SweepOp{Sketch: 2, Path: SweepPath{Kind: PathHelix, Turns: 3, Height: 10}}, "helix radius", false},
		{"single loft", LoftOp{Sketches: []NodeID{2}}, "at least 2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			d.NewNode("anchor", CubeOp{Size: Vec3{X: 1, Y: 1, Z: 1}}) // id 1
			d.NewNode("sk", SketchOp{ // id 2
				XDir: Vec3{X: 1}, YDir: Vec3{Y: 1},
				Segments: []SketchSegment{
					{Kind: SegmentLine, Start: Vec2{}, End: Vec2{X: 1}},
					{Kind: SegmentLine, Start: Vec2{X: 1}, End: Vec2{X: 1, Y: 1}},
					{Kind: SegmentLine, Start: Vec2{X: 1, Y: 1}, End: Vec2{}},
				},
			})
			d.NewNode(tt.name, tt.op)

			res := ValidateAll(d)
			if tt.warning {
				found := false
				for _, w := range res.Warnings {
					if strings.Contains(w.Message, tt.substr) {
						found = true
					}
				}
				if !found {
					t.Errorf("ValidateAll() warnings = %v, want one containing %q", res.Warnings, tt.substr)
				}
				return
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e.Message, tt.substr) {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidateAll() errors = %v, want one containing %q", res.Errors, tt.substr)
			}
		})
	}
}

func TestValidateAll_OpenProfileWarning(t *testing.T) {
	d := New()
	d.NewNode("open", SketchOp{
		XDir: Vec3{X: 1}, YDir: Vec3{Y: 1},
		Segments: []SketchSegment{
			{Kind: SegmentLine, Start: Vec2{}, End: Vec2{X: 10}},
			{Kind: SegmentLine, Start: Vec2{X: 10}, End: Vec2{X: 10, Y: 10}},
			// Gap: never returns to the start point.
		},
	})
	res := ValidateAll(d)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, "not closed") {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateAll() missed the open profile: %+v", res.Warnings)
	}
}

func TestValidateAll_UnknownMaterialWarning(t *testing.T) {
	d, root := buildBracket()
	d.Roots[0] = SceneRoot{Root: root, Material: "unobtainium"}
	res := ValidateAll(d)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, "unobtainium") {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateAll() missed the unknown material: %+v", res.Warnings)
	}
}
