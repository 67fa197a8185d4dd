package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/evaluate"
	"github.com/perran/datum/pkg/kernel"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDocumentScript(t *testing.T) {
	path := writeTemp(t, "block.datum", `(part "block" (cube :size 10))`)

	d, warnings, err := loadDocument(path)
	if err != nil {
		t.Fatalf("loadDocument: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if d.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", d.NodeCount())
	}
	if len(d.Roots) != 1 || d.Roots[0].Material != doc.DefaultMaterial {
		t.Errorf("roots = %v, want one default-material root", d.Roots)
	}
}

func TestLoadDocumentScriptError(t *testing.T) {
	path := writeTemp(t, "broken.datum", `(cube :size`)

	_, _, err := loadDocument(path)
	if err == nil {
		t.Fatal("expected script error")
	}
	if !strings.Contains(err.Error(), "broken.datum") {
		t.Errorf("error should name the file, got %v", err)
	}
}

func TestLoadDocumentJSON(t *testing.T) {
	src := doc.New()
	n := src.NewNode("block", doc.CubeOp{Size: doc.Vec3{X: 10, Y: 20, Z: 30}})
	src.AddRoot(n.ID, "steel")
	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := writeTemp(t, "block.json", string(data))

	d, warnings, err := loadDocument(path)
	if err != nil {
		t.Fatalf("loadDocument: %v", err)
	}
	if warnings != nil {
		t.Errorf("JSON load produced warnings: %v", warnings)
	}
	if d.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", d.NodeCount())
	}
	op, ok := d.Get(d.Roots[0].Root).Op.(doc.CubeOp)
	if !ok || op.Size != (doc.Vec3{X: 10, Y: 20, Z: 30}) {
		t.Errorf("root op = %#v, want the saved cube", d.Get(d.Roots[0].Root).Op)
	}

	// Documents saved without a material table get the built-ins.
	if _, ok := d.Materials["steel"]; !ok {
		t.Error("expected default material table to be seeded")
	}
}

func TestLoadDocumentMissingFile(t *testing.T) {
	if _, _, err := loadDocument(filepath.Join(t.TempDir(), "absent.datum")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Upper Arm", "upper-arm"},
		{"boss_plate-2", "boss_plate-2"},
		{"  ", ""},
		{"Ø!?", ""},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPartFileName(t *testing.T) {
	if got := partFileName("out.stl", 2, "Boss Plate"); got != "out-boss-plate.stl" {
		t.Errorf("named part = %q", got)
	}
	if got := partFileName("out.stl", 3, ""); got != "out-part3.stl" {
		t.Errorf("unnamed part = %q", got)
	}
}

func TestMass(t *testing.T) {
	steel := doc.MaterialDef{Name: "Steel", Color: "#888", Density: 7.85}
	if got := mass(1000, steel); got != 7.85 {
		t.Errorf("mass(1000mm3, steel) = %f g, want 7.85", got)
	}
}

func TestPrintScene(t *testing.T) {
	tri := &kernel.Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
	scene := &evaluate.Scene{
		Parts: []evaluate.Part{
			{Name: "bracket", Material: "steel", Mesh: tri},
			{Material: doc.DefaultMaterial, Mesh: tri},
		},
		Clashes: []evaluate.Clash{{A: 0, B: 1, Mesh: tri}},
	}

	var buf bytes.Buffer
	printScene(&buf, scene)
	out := buf.String()

	if !strings.Contains(out, `"bracket"`) || !strings.Contains(out, "material=steel") {
		t.Errorf("missing part line:\n%s", out)
	}
	if !strings.Contains(out, "(unnamed)") {
		t.Errorf("unnamed part should be labeled:\n%s", out)
	}
	if !strings.Contains(out, `"bracket" overlaps "part 1"`) {
		t.Errorf("missing clash line:\n%s", out)
	}
}
