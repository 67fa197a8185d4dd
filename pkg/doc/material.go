package doc

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// MaterialKey names a material in the document's material table.
type MaterialKey string

// DefaultMaterial is the key assigned to parts created without an
// explicit material.
const DefaultMaterial MaterialKey = "default"

// MaterialDef describes how a material renders and weighs. Density is
// in g/cm3 and feeds mass property reporting; Color is a hex string
// for the renderer.
type MaterialDef struct {
	Name    string  `json:"name" yaml:"name"`
	Color   string  `json:"color" yaml:"color"`
	Density float64 `json:"density,omitempty" yaml:"density,omitempty"`
}

// DefaultMaterials returns the built-in material table seeded into new
// documents.
func DefaultMaterials() map[MaterialKey]MaterialDef {
	return map[MaterialKey]MaterialDef{
		DefaultMaterial: {Name: "Default", Color: "#4a90d9", Density: 1.0},
		"steel":         {Name: "Steel", Color: "#8a8f98", Density: 7.85},
		"aluminum":      {Name: "Aluminum", Color: "#c8ccd0", Density: 2.70},
		"brass":         {Name: "Brass", Color: "#c9a227", Density: 8.50},
		"abs":           {Name: "ABS", Color: "#e8e4d8", Density: 1.05},
	}
}

// paletteFile is the on-disk YAML shape of a material palette.
type paletteFile struct {
	Materials map[MaterialKey]MaterialDef `yaml:"materials"`
}

// LoadPalette reads a YAML material palette. Entries replace built-ins
// with the same key when merged into a document.
func LoadPalette(r io.Reader) (map[MaterialKey]MaterialDef, error) {
	var pf paletteFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	if len(pf.Materials) == 0 {
		return nil, fmt.Errorf("palette: no materials defined")
	}
	for key, def := range pf.Materials {
		if def.Color == "" {
			return nil, fmt.Errorf("palette: material %q has no color", key)
		}
	}
	return pf.Materials, nil
}
