package doc

import (
	"strings"
	"testing"
)

func TestLoadPalette(t *testing.T) {
	src := `
materials:
  steel:
    name: Steel
    color: "#8a8f98"
    density: 7.85
  nylon:
    name: Nylon
    color: "#f0ead6"
    density: 1.15
`
	palette, err := LoadPalette(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadPalette() error: %v", err)
	}
	if len(palette) != 2 {
		t.Fatalf("LoadPalette() returned %d materials, want 2", len(palette))
	}
	steel := palette["steel"]
	if steel.Color != "#8a8f98" || steel.Density != 7.85 {
		t.Errorf("steel = %+v, want color #8a8f98 density 7.85", steel)
	}
}

func TestLoadPalette_MissingColor(t *testing.T) {
	src := `
materials:
  ghost:
    name: Ghost
`
	if _, err := LoadPalette(strings.NewReader(src)); err == nil {
		t.Fatalf("LoadPalette() accepted a material without a color")
	}
}

func TestLoadPalette_Empty(t *testing.T) {
	if _, err := LoadPalette(strings.NewReader("materials: {}\n")); err == nil {
		t.Fatalf("LoadPalette() accepted an empty palette")
	}
}

func TestDefaultMaterials(t *testing.T) {
	m := DefaultMaterials()
	def, ok := m[DefaultMaterial]
	if !ok {
		t.Fatalf("DefaultMaterials() missing %q", DefaultMaterial)
	}
	if def.Color == "" {
		t.Errorf("default material has no color")
	}
}
