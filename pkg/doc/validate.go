package doc

import "fmt"

// ValidationSeverity indicates whether a validation finding blocks
// evaluation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if document-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %d: %s", e.Severity, e.NodeID, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Validate runs the Tier 1 structural checks on the document and
// returns a slice of findings. An empty slice means the document is
// structurally sound. This function is read-only.
func Validate(d *Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(d)...)
	errs = append(errs, validateReferences(d)...)
	errs = append(errs, validateRoots(d)...)
	errs = append(errs, validateSketchRefs(d)...)
	errs = append(errs, validateAssembly(d)...)
	return errs
}

// ValidateAll runs every validation tier (structural, geometric) and
// returns a ValidationResult with separated errors and warnings.
func ValidateAll(d *Document) ValidationResult {
	tier1 := Validate(d)
	tier2Errs, tier2Warnings := validateGeometry(d)

	var result ValidationResult
	for _, e := range tier1 {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	result.Errors = append(result.Errors, tier2Errs...)
	result.Warnings = append(result.Warnings, tier2Warnings...)
	return result
}

// validateDAG checks for reference cycles using DFS with 3-color
// marking. White (0) = unvisited, gray (1) = in current DFS path,
// black (2) = fully explored. A gray node reached again is a cycle.
func validateDAG(d *Document) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int) // default zero = white
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %d references itself transitively", id),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := d.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, childID := range Children(node.Op) {
			if visit(childID) {
				return true
			}
		}

		color[id] = black
		return false
	}

	// Start DFS from every node to catch disconnected components.
	for id := range d.Nodes {
		if color[id] == white {
			if visit(id) {
				// One cycle error is sufficient; stop early.
				break
			}
		}
	}

	return errs
}

// validateReferences checks that every node id referenced by an op
// resolves to a node in the table.
func validateReferences(d *Document) []ValidationError {
	var errs []ValidationError
	for _, node := range d.Nodes {
		for _, childID := range Children(node.Op) {
			if _, ok := d.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("%s references node %d which does not exist", OpType(node.Op), childID),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateRoots checks that scene roots and part definition roots
// reference existing non-sketch nodes, and warns about orphan nodes
// unreachable from any of them.
func validateRoots(d *Document) []ValidationError {
	var errs []ValidationError

	checkRoot := func(id NodeID, what string) {
		node, ok := d.Nodes[id]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("%s references node %d which does not exist", what, id),
				Severity: SeverityError,
			})
			return
		}
		if _, isSketch := node.Op.(SketchOp); isSketch {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s is a sketch2d, which produces no solid geometry", what),
				Severity: SeverityError,
			})
		}
	}

	for _, r := range d.Roots {
		checkRoot(r.Root, "scene root")
	}
	for defID, def := range d.PartDefs {
		checkRoot(def.Root, fmt.Sprintf("part definition %q root", defID))
	}

	if len(d.Nodes) == 0 {
		return errs
	}

	seen := d.reachable()
	for id, node := range d.Nodes {
		if !seen[id] {
			name := node.Name
			if name == "" {
				name = fmt.Sprintf("node %d", id)
			}
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s is not reachable from any root (orphan)", name),
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateSketchRefs checks that every sketch reference of an extrude,
// revolve, sweep or loft points at a sketch2d node. The evaluator
// enforces this again at evaluation time; catching it here lets the
// editor flag the node before an evaluate is attempted.
func validateSketchRefs(d *Document) []ValidationError {
	var errs []ValidationError

	check := func(by *Node, id NodeID) {
		ref, ok := d.Nodes[id]
		if !ok {
			return // dangling, reported by validateReferences
		}
		if _, isSketch := ref.Op.(SketchOp); !isSketch {
			errs = append(errs, ValidationError{
				NodeID: by.ID,
				Message: fmt.Sprintf("%s references node %d which is %s, not sketch2d",
					OpType(by.Op), id, OpType(ref.Op)),
				Severity: SeverityError,
			})
		}
	}

	for _, node := range d.Nodes {
		switch op := node.Op.(type) {
		case ExtrudeOp:
			check(node, op.Sketch)
		case RevolveOp:
			check(node, op.Sketch)
		case SweepOp:
			check(node, op.Sketch)
		case LoftOp:
			for _, sid := range op.Sketches {
				check(node, sid)
			}
		}
	}

	return errs
}

// validateAssembly checks the assembly layer: instances must reference
// existing part definitions, joints must reference existing instances,
// and the joint graph over instances must be a forest rooted at ground
// (no cycles, at most one incoming joint per instance).
func validateAssembly(d *Document) []ValidationError {
	var errs []ValidationError

	instances := make(map[InstanceID]bool, len(d.Instances))
	for _, inst := range d.Instances {
		instances[inst.ID] = true
		if _, ok := d.PartDefs[inst.Def]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("instance %d references part definition %q which does not exist", inst.ID, inst.Def),
				Severity: SeverityError,
			})
		}
	}

	incoming := make(map[InstanceID]*Joint)
	for _, j := range d.Joints {
		if !instances[j.Child] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("joint %d child references instance %d which does not exist", j.ID, j.Child),
				Severity: SeverityError,
			})
		}
		if j.Parent != nil && !instances[*j.Parent] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("joint %d parent references instance %d which does not exist", j.ID, *j.Parent),
				Severity: SeverityError,
			})
		}
		if prev, dup := incoming[j.Child]; dup {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("instance %d has more than one incoming joint (%d and %d)", j.Child, prev.ID, j.ID),
				Severity: SeverityError,
			})
		} else {
			incoming[j.Child] = j
		}
		switch j.Kind {
		case JointRevolute, JointSlider, JointCylindrical:
			if j.Axis.IsZero() {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("%s joint %d has a zero axis", j.Kind, j.ID),
					Severity: SeverityError,
				})
			}
		}
	}

	// Cycle check: follow incoming joints from each instance toward
	// ground. Revisiting an instance on the same walk is a cycle.
	for _, inst := range d.Instances {
		onPath := map[InstanceID]bool{}
		cur := inst.ID
		for {
			j, ok := incoming[cur]
			if !ok || j.Parent == nil {
				break
			}
			if onPath[cur] {
				errs = append(errs, ValidationError{
					Message:  fmt.Sprintf("joint cycle detected involving instance %d", cur),
					Severity: SeverityError,
				})
				break
			}
			onPath[cur] = true
			cur = *j.Parent
		}
	}

	return errs
}
