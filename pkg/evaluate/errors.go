package evaluate

import (
	"fmt"

	"github.com/perran/datum/pkg/doc"
)

// MissingNodeError reports a reference to a node id that is not in the
// document.
type MissingNodeError struct {
	ID doc.NodeID
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("node %d does not exist", e.ID)
}

// NotASketchError reports a sketch-consuming op whose sketch reference
// points at a node of a different kind.
type NotASketchError struct {
	Node doc.NodeID // the consuming node
	Op   string     // its op tag
	Ref  doc.NodeID // the referenced node
	Got  string     // the op tag actually found there
}

func (e *NotASketchError) Error() string {
	return fmt.Sprintf("%s node %d: node %d is %s, not %s", e.Op, e.Node, e.Ref, e.Got, doc.OpSketch)
}

// SketchAsSolidError reports a sketch node evaluated where a solid is
// required, e.g. as a scene root or a boolean operand. Sketches only
// produce geometry through extrude, revolve, sweep and loft.
type SketchAsSolidError struct {
	ID doc.NodeID
}

func (e *SketchAsSolidError) Error() string {
	return fmt.Sprintf("node %d is a sketch and produces no solid", e.ID)
}
