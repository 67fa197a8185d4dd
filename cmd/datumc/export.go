package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/perran/datum/pkg/evaluate"
	"github.com/perran/datum/pkg/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <script|document>",
	Short: "Evaluate and write the scene as binary STL",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "output file (default: input name with .stl)")
	exportCmd.Flags().Bool("separate", false, "write one STL per part instead of a merged file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	d, warnings, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), warnings)

	scene, err := evaluate.Evaluate(d, buildKernel(cmd))
	if err != nil {
		return err
	}
	if len(scene.Parts) == 0 {
		return fmt.Errorf("export: %s evaluates to an empty scene", args[0])
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".stl"
	}

	if separate, _ := cmd.Flags().GetBool("separate"); separate {
		for i, p := range scene.Parts {
			path := partFileName(out, i, p.Name)
			if err := export.WriteSTLFile(path, p.Mesh); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d triangles)\n", path, p.Mesh.TriangleCount())
		}
		return nil
	}

	if err := writeSceneSTL(out, scene); err != nil {
		return err
	}
	total := 0
	for _, p := range scene.Parts {
		total += p.Mesh.TriangleCount()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d parts, %d triangles)\n", out, len(scene.Parts), total)
	return nil
}
