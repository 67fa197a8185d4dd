package main

import (
	"github.com/spf13/cobra"

	"github.com/perran/datum/pkg/evaluate"
)

var evalCmd = &cobra.Command{
	Use:   "eval <script|document>",
	Short: "Evaluate a script or document and print the scene",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	d, warnings, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), warnings)

	scene, err := evaluate.Evaluate(d, buildKernel(cmd))
	if err != nil {
		return err
	}
	printScene(cmd.OutOrStdout(), scene)
	return nil
}
