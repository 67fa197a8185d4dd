package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perran/datum/pkg/evaluate"
)

var infoCmd = &cobra.Command{
	Use:   "info <script|document>",
	Short: "Report mass properties and clashes",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	d, warnings, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), warnings)

	scene, err := evaluate.Evaluate(d, buildKernel(cmd))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for i, p := range scene.Parts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("part %d", i)
		}
		vol := p.Mesh.Volume()
		com := p.Mesh.CenterOfMass()
		min, max := p.Mesh.BoundingBox()
		def := d.Materials[p.Material]

		fmt.Fprintf(w, "%s\n", name)
		fmt.Fprintf(w, "  material:      %s (%.2f g/cm3)\n", p.Material, def.Density)
		fmt.Fprintf(w, "  volume:        %.1f mm3\n", vol)
		fmt.Fprintf(w, "  surface area:  %.1f mm2\n", p.Mesh.SurfaceArea())
		fmt.Fprintf(w, "  mass:          %.2f g\n", mass(vol, def))
		fmt.Fprintf(w, "  center:        (%.2f %.2f %.2f)\n", com[0], com[1], com[2])
		fmt.Fprintf(w, "  bounds:        (%.1f %.1f %.1f) to (%.1f %.1f %.1f)\n",
			min[0], min[1], min[2], max[0], max[1], max[2])
	}

	if len(scene.Clashes) == 0 {
		fmt.Fprintf(w, "\nno clashes\n")
		return nil
	}
	fmt.Fprintf(w, "\n%d clash(es)\n", len(scene.Clashes))
	for _, c := range scene.Clashes {
		fmt.Fprintf(w, "  %q overlaps %q by %.1f mm3\n",
			partLabel(scene, c.A), partLabel(scene, c.B), c.Mesh.Volume())
	}
	return nil
}
