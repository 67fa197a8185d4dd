package doc

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// profileGapTol is the maximum gap between consecutive sketch segment
// endpoints before the profile is flagged as open.
const profileGapTol = 1e-6

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(d *Document) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, node := range d.Nodes {
		e, w := validateNodeGeometry(node)
		errs = append(errs, e...)
		warnings = append(warnings, w...)
	}

	for _, r := range d.Roots {
		if _, ok := d.Materials[r.Material]; !ok && r.Material != "" {
			warnings = append(warnings, ValidationWarning{
				NodeID:  r.Root,
				Message: fmt.Sprintf("scene root uses material %q which is not in the material table", r.Material),
			})
		}
	}

	return errs, warnings
}

func validateNodeGeometry(node *Node) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	fail := func(format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   node.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}
	warn := func(format string, args ...any) {
		warnings = append(warnings, ValidationWarning{
			NodeID:  node.ID,
			Message: fmt.Sprintf(format, args...),
		})
	}
	checkSegments := func(segments int) {
		if segments != 0 && segments < 3 {
			fail("segments is %d, must be 0 (kernel default) or at least 3", segments)
		}
	}

	switch op := node.Op.(type) {
	case CubeOp:
		if op.Size.X <= 0 || op.Size.Y <= 0 || op.Size.Z <= 0 {
			fail("cube size (%.4f, %.4f, %.4f) must be positive in every axis", op.Size.X, op.Size.Y, op.Size.Z)
		}

	case CylinderOp:
		if op.Radius <= 0 {
			fail("cylinder radius is %.4f, must be positive", op.Radius)
		}
		if op.Height <= 0 {
			fail("cylinder height is %.4f, must be positive", op.Height)
		}
		checkSegments(op.Segments)

	case SphereOp:
		if op.Radius <= 0 {
			fail("sphere radius is %.4f, must be positive", op.Radius)
		}
		checkSegments(op.Segments)

	case ConeOp:
		if op.BottomRadius < 0 || op.TopRadius < 0 {
			fail("cone radii (%.4f, %.4f) must not be negative", op.BottomRadius, op.TopRadius)
		}
		if op.BottomRadius == 0 && op.TopRadius == 0 {
			fail("cone has zero radius at both ends")
		}
		if op.Height <= 0 {
			fail("cone height is %.4f, must be positive", op.Height)
		}
		checkSegments(op.Segments)

	case ScaleOp:
		if op.Factor.X == 0 || op.Factor.Y == 0 || op.Factor.Z == 0 {
			fail("scale factor (%.4f, %.4f, %.4f) must be non-zero in every axis", op.Factor.X, op.Factor.Y, op.Factor.Z)
		}

	case ShellOp:
		if op.Thickness <= 0 {
			fail("shell thickness is %.4f, must be positive", op.Thickness)
		}

	case FilletOp:
		if op.Radius <= 0 {
			fail("fillet radius is %.4f, must be positive", op.Radius)
		}

	case ChamferOp:
		if op.Distance <= 0 {
			fail("chamfer distance is %.4f, must be positive", op.Distance)
		}

	case LinearPatternOp:
		if op.Count < 1 {
			fail("pattern count is %d, must be at least 1", op.Count)
		}
		if op.Direction.IsZero() {
			fail("pattern direction is the zero vector")
		}
		if op.Spacing == 0 && op.Count > 1 {
			warn("pattern spacing is zero; all copies coincide")
		}

	case CircularPatternOp:
		if op.Count < 1 {
			fail("pattern count is %d, must be at least 1", op.Count)
		}
		if op.AxisDir.IsZero() {
			fail("pattern axis is the zero vector")
		}
		if op.AngleDeg == 0 && op.Count > 1 {
			warn("pattern angle is zero; all copies coincide")
		}

	case SketchOp:
		if len(op.Segments) == 0 {
			fail("sketch has no segments")
			break
		}
		if op.XDir.IsZero() || op.YDir.IsZero() {
			fail("sketch plane axes must be non-zero")
		}
		for i, seg := range op.Segments {
			if seg.Kind != SegmentLine && seg.Kind != SegmentArc {
				fail("segment %d has unknown type %q", i, seg.Kind)
			}
		}
		if gap := profileGap(op.Segments); gap > profileGapTol {
			warn("sketch profile is not closed (gap %.4f between consecutive segments)", gap)
		}

	case ExtrudeOp:
		if op.Direction.IsZero() {
			fail("extrude direction is the zero vector")
		}

	case RevolveOp:
		if op.AxisDir.IsZero() {
			fail("revolve axis is the zero vector")
		}
		if op.AngleDeg <= 0 {
			fail("revolve angle is %.4f, must be positive", op.AngleDeg)
		} else if op.AngleDeg > 360 {
			warn("revolve angle %.1f exceeds 360 and will be clamped", op.AngleDeg)
		}

	case SweepOp:
		if op.ScaleStart < 0 || op.ScaleEnd < 0 {
			fail("sweep scale factors (%.4f, %.4f) must not be negative", op.ScaleStart, op.ScaleEnd)
		}
		switch op.Path.Kind {
		case PathLine:
			if op.Path.Start.Sub(op.Path.End).IsZero() {
				fail("sweep path start and end coincide")
			}
		case PathHelix:
			if op.Path.Radius <= 0 {
				fail("helix radius is %.4f, must be positive", op.Path.Radius)
			}
			if op.Path.Turns <= 0 {
				fail("helix turns is %.4f, must be positive", op.Path.Turns)
			}
			if op.Path.Height <= 0 && op.Path.Pitch <= 0 {
				fail("helix needs a positive height or pitch")
			}
		default:
			fail("sweep path has unknown type %q", op.Path.Kind)
		}

	case LoftOp:
		if len(op.Sketches) < 2 {
			fail("loft needs at least 2 sketches, has %d", len(op.Sketches))
		}
	}

	return errs, warnings
}

// profileGap returns the largest gap between one segment's end and the
// next segment's start, including the wrap from last back to first.
func profileGap(segments []SketchSegment) float64 {
	if len(segments) < 2 {
		return 0
	}
	maxGap := 0.0
	for i, seg := range segments {
		next := segments[(i+1)%len(segments)]
		dx := seg.End.X - next.Start.X
		dy := seg.End.Y - next.Start.Y
		if gap := math.Hypot(dx, dy); gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}
