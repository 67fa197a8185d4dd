package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/evaluate"
	"github.com/perran/datum/pkg/kinematics"
)

var poseCmd = &cobra.Command{
	Use:   "pose <document> <rig.toml>",
	Short: "Apply a rig file to an assembly and report instance poses",
	Long: `pose drives the joint states of an assembly document from a TOML rig
file and solves the resulting instance transforms.

A rig file holds one [[joints]] entry per joint to drive:

	[[joints]]
	joint = 2        # or: name = "hinge"
	angle = 45.0     # degrees (revolute, cylindrical)
	offset = 12.5    # mm (slider, cylindrical)
	euler = [10, 0, 0]  # degrees (ball)`,
	Args: cobra.ExactArgs(2),
	RunE: runPose,
}

func init() {
	poseCmd.Flags().String("save", "", "write the posed document back out as JSON")
	poseCmd.Flags().String("stl", "", "export the posed assembly as binary STL")
	rootCmd.AddCommand(poseCmd)
}

// rigFile is the TOML shape of a pose rig: each entry drives the state
// of one joint, looked up by id or name.
type rigFile struct {
	Joints []rigEntry `toml:"joints"`
}

type rigEntry struct {
	Joint  int64     `toml:"joint"`
	Name   string    `toml:"name"`
	Angle  *float64  `toml:"angle"`
	Offset *float64  `toml:"offset"`
	Euler  []float64 `toml:"euler"`
}

func runPose(cmd *cobra.Command, args []string) error {
	d, _, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	if !d.IsAssembly() {
		return fmt.Errorf("pose: %s has no part instances", args[0])
	}

	rigData, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("pose: read rig: %w", err)
	}
	var rig rigFile
	if err := toml.Unmarshal(rigData, &rig); err != nil {
		return fmt.Errorf("pose: parse %s: %w", args[1], err)
	}
	if err := applyRig(d, rig); err != nil {
		return err
	}

	poses, err := kinematics.Solve(d.Instances, d.Joints, nil)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, inst := range d.Instances {
		m := poses[inst.ID]
		axis, angle, tr := m.Decompose()
		fmt.Fprintf(w, "%-16s at (%.2f %.2f %.2f)", instLabel(d, inst), tr[0], tr[1], tr[2])
		if angle != 0 {
			fmt.Fprintf(w, " rotated %.1f deg about (%.2f %.2f %.2f)", angle, axis[0], axis[1], axis[2])
		}
		fmt.Fprintln(w)
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Errorf("pose: encode document: %w", err)
		}
		if err := os.WriteFile(save, data, 0o644); err != nil {
			return fmt.Errorf("pose: save: %w", err)
		}
		fmt.Fprintf(w, "saved %s\n", save)
	}
	if stl, _ := cmd.Flags().GetString("stl"); stl != "" {
		scene, err := evaluate.Evaluate(d, buildKernel(cmd))
		if err != nil {
			return err
		}
		if err := writeSceneSTL(stl, scene); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", stl)
	}
	return nil
}

func applyRig(d *doc.Document, rig rigFile) error {
	for i, entry := range rig.Joints {
		j, err := findJoint(d, entry)
		if err != nil {
			return fmt.Errorf("pose: entry %d: %w", i+1, err)
		}
		if err := applyEntry(j, entry); err != nil {
			return fmt.Errorf("pose: entry %d: %w", i+1, err)
		}
	}
	return nil
}

func findJoint(d *doc.Document, entry rigEntry) (*doc.Joint, error) {
	if entry.Joint != 0 {
		if j := d.Joint(doc.JointID(entry.Joint)); j != nil {
			return j, nil
		}
		return nil, fmt.Errorf("no joint with id %d", entry.Joint)
	}
	if entry.Name != "" {
		for _, j := range d.Joints {
			if j.Name == entry.Name {
				return j, nil
			}
		}
		return nil, fmt.Errorf("no joint named %q", entry.Name)
	}
	return nil, fmt.Errorf("joint id or name required")
}

// applyEntry writes the entry's values into the joint state, rejecting
// fields the joint kind has no degree of freedom for.
func applyEntry(j *doc.Joint, entry rigEntry) error {
	switch j.Kind {
	case doc.JointFixed:
		if entry.Angle != nil || entry.Offset != nil || entry.Euler != nil {
			return fmt.Errorf("joint %d is fixed and takes no state", j.ID)
		}
	case doc.JointRevolute:
		if entry.Offset != nil || entry.Euler != nil {
			return fmt.Errorf("joint %d is revolute; only angle applies", j.ID)
		}
		if entry.Angle != nil {
			j.State[0] = *entry.Angle
		}
	case doc.JointSlider:
		if entry.Angle != nil || entry.Euler != nil {
			return fmt.Errorf("joint %d is a slider; only offset applies", j.ID)
		}
		if entry.Offset != nil {
			j.State[0] = *entry.Offset
		}
	case doc.JointCylindrical:
		if entry.Euler != nil {
			return fmt.Errorf("joint %d is cylindrical; angle and offset apply", j.ID)
		}
		if entry.Angle != nil {
			j.State[0] = *entry.Angle
		}
		if entry.Offset != nil {
			j.State[1] = *entry.Offset
		}
	case doc.JointBall:
		if entry.Angle != nil || entry.Offset != nil {
			return fmt.Errorf("joint %d is a ball joint; only euler applies", j.ID)
		}
		if entry.Euler != nil {
			if len(entry.Euler) != 3 {
				return fmt.Errorf("joint %d: euler needs 3 angles, got %d", j.ID, len(entry.Euler))
			}
			copy(j.State[:], entry.Euler)
		}
	}
	return nil
}

func instLabel(d *doc.Document, inst *doc.PartInstance) string {
	if inst.Name != "" {
		return inst.Name
	}
	if def := d.PartDefs[inst.Def]; def != nil && def.Name != "" {
		return def.Name
	}
	return fmt.Sprintf("instance %d", inst.ID)
}
