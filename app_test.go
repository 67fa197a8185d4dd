package main

import (
	"os"
	"testing"
)

// TestE2EBracketExample exercises the full pipeline: script source →
// engine → document → evaluate → meshes. This is the same path that
// the Wails Evaluate binding takes, but without the Wails runtime.
func TestE2EBracketExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/bracket.datum")
	if err != nil {
		t.Fatalf("failed to read bracket.datum: %v", err)
	}

	result := app.Evaluate(string(source))

	// No errors expected.
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if len(result.Warnings) > 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}

	m := result.Meshes[0]
	if m.PartName != "bracket" {
		t.Errorf("expected part name 'bracket', got %q", m.PartName)
	}
	if len(m.Vertices) == 0 {
		t.Error("bracket mesh has no vertices")
	}
	if len(m.Normals) == 0 {
		t.Error("bracket mesh has no normals")
	}
	if len(m.Indices) == 0 {
		t.Error("bracket mesh has no indices")
	}

	// The bracket is steel, so it shows the steel color rather than a
	// palette slot.
	if m.Color != "#8a8f98" {
		t.Errorf("expected steel color #8a8f98, got %q", m.Color)
	}
}

// TestE2EFlangeExample runs the revolve-based example end to end.
func TestE2EFlangeExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/flange.datum")
	if err != nil {
		t.Fatalf("failed to read flange.datum: %v", err)
	}

	result := app.Evaluate(string(source))

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if m.PartName != "flange" {
		t.Errorf("expected part name 'flange', got %q", m.PartName)
	}
	if len(m.Indices) == 0 {
		t.Error("flange mesh has no triangles")
	}
	if m.Color != "#b0805a" {
		t.Errorf("expected bronze color #b0805a, got %q", m.Color)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input
// gracefully: no parts is a warning, not an error.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected the no-part warning, got %v", result.Warnings)
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(part "test"`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESingleCube ensures a minimal single-part source renders one
// mesh with the first palette color.
func TestE2ESingleCube(t *testing.T) {
	app := NewApp()
	result := app.Evaluate(`(part "slab" (cube :size (vec3 40 30 10)))`)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "slab" {
		t.Errorf("expected part name 'slab', got %q", result.Meshes[0].PartName)
	}
	if result.Meshes[0].Color != colorPalette[0] {
		t.Errorf("expected palette color %s, got %q", colorPalette[0], result.Meshes[0].Color)
	}
}
