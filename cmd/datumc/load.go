package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/engine"
	"github.com/perran/datum/pkg/kernel"
	"github.com/perran/datum/pkg/kernel/sdfx"
)

// loadDocument reads either a modeling script or a saved JSON document,
// decided by the file extension. Script lint warnings come back for the
// caller to surface; loading a JSON document produces none.
func loadDocument(path string) (*doc.Document, []engine.EvalWarning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		d := doc.New()
		if err := json.Unmarshal(data, d); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if d.Materials == nil {
			d.Materials = doc.DefaultMaterials()
		}
		return d, nil, nil
	}

	res, err := engine.NewEngine().Evaluate(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", path, err)
	}
	if len(res.Errors) > 0 {
		return nil, nil, scriptError(path, res.Errors)
	}
	return res.Document, res.Warnings, nil
}

// scriptError folds script errors into a single error, one per line.
func scriptError(path string, errs []engine.EvalError) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", path)
	for _, e := range errs {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return errors.New(b.String())
}

func buildKernel(cmd *cobra.Command) kernel.Kernel {
	return sdfx.NewWithResolution(meshCells(cmd))
}
