package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/engine"
	"github.com/perran/datum/pkg/evaluate"
	"github.com/perran/datum/pkg/export"
	"github.com/perran/datum/pkg/kernel"
)

// printWarnings writes script lint warnings, one per line.
func printWarnings(w io.Writer, warnings []engine.EvalWarning) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning.Message)
	}
}

// printScene writes a one-line summary per part plus any clashes.
func printScene(w io.Writer, scene *evaluate.Scene) {
	for _, p := range scene.Parts {
		name := p.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "part %-20q material=%-10s triangles=%-8d volume=%.1fmm3\n",
			name, p.Material, p.Mesh.TriangleCount(), p.Mesh.Volume())
	}
	for _, c := range scene.Clashes {
		fmt.Fprintf(w, "clash: %q overlaps %q by %.1fmm3\n",
			partLabel(scene, c.A), partLabel(scene, c.B), c.Mesh.Volume())
	}
}

func partLabel(scene *evaluate.Scene, idx int) string {
	name := scene.Parts[idx].Name
	if name == "" {
		return fmt.Sprintf("part %d", idx)
	}
	return name
}

// mass converts a mesh volume in mm3 and a density in g/cm3 to grams.
func mass(volume float64, def doc.MaterialDef) float64 {
	return volume / 1000 * def.Density
}

// writeSceneSTL merges every part mesh into one binary STL file.
func writeSceneSTL(path string, scene *evaluate.Scene) error {
	meshes := make([]*kernel.Mesh, 0, len(scene.Parts))
	for _, p := range scene.Parts {
		meshes = append(meshes, p.Mesh)
	}
	return export.WriteSTLFile(path, meshes...)
}

// partFileName derives a per-part output path from the merged output
// path, e.g. bracket.stl -> bracket-boss.stl.
func partFileName(base string, idx int, name string) string {
	stem := strings.TrimSuffix(base, ".stl")
	slug := slugify(name)
	if slug == "" {
		slug = fmt.Sprintf("part%d", idx)
	}
	return fmt.Sprintf("%s-%s.stl", stem, slug)
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
