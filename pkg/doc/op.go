package doc

// Op is the interface for CSG operations stored in graph nodes.
// The set of implementations is closed: every variant lives in this
// package and is dispatched exhaustively by the evaluator.
type Op interface {
	op() // marker method restricting implementations to this package
}

// Op type tags as they appear in the serialized form and in error
// messages.
const (
	OpCube            = "cube"
	OpCylinder        = "cylinder"
	OpSphere          = "sphere"
	OpCone            = "cone"
	OpEmpty           = "empty"
	OpUnion           = "union"
	OpDifference      = "difference"
	OpIntersection    = "intersection"
	OpTranslate       = "translate"
	OpRotate          = "rotate"
	OpScale           = "scale"
	OpShell           = "shell"
	OpFillet          = "fillet"
	OpChamfer         = "chamfer"
	OpLinearPattern   = "linear_pattern"
	OpCircularPattern = "circular_pattern"
	OpSketch          = "sketch2d"
	OpExtrude         = "extrude"
	OpRevolve         = "revolve"
	OpSweep           = "sweep"
	OpLoft            = "loft"
)

// ---------------------------------------------------------------------------
// Leaf generators
// ---------------------------------------------------------------------------

// CubeOp is an axis-aligned box with its minimum corner at the origin.
type CubeOp struct {
	Size Vec3 `json:"size"`
}

// CylinderOp is a cylinder centered at the origin with its axis along Z.
type CylinderOp struct {
	Radius   float64 `json:"radius"`
	Height   float64 `json:"height"`
	Segments int     `json:"segments,omitempty"` // 0 = kernel default
}

// SphereOp is a sphere centered at the origin.
type SphereOp struct {
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

// ConeOp is a truncated cone centered at the origin with its axis along Z.
// TopRadius may be zero for a full cone.
type ConeOp struct {
	BottomRadius float64 `json:"bottom_radius"`
	TopRadius    float64 `json:"top_radius"`
	Height       float64 `json:"height"`
	Segments     int     `json:"segments,omitempty"`
}

// EmptyOp is the empty solid. Useful as a placeholder child for booleans.
type EmptyOp struct{}

func (CubeOp) op()     {}
func (CylinderOp) op() {}
func (SphereOp) op()   {}
func (ConeOp) op()     {}
func (EmptyOp) op()    {}

// ---------------------------------------------------------------------------
// Unary transforms and features
// ---------------------------------------------------------------------------

// TranslateOp shifts its child by Offset.
type TranslateOp struct {
	Child  NodeID `json:"child"`
	Offset Vec3   `json:"offset"`
}

// RotateOp rotates its child by Euler angles in degrees, applied X then
// Y then Z.
type RotateOp struct {
	Child  NodeID `json:"child"`
	Angles Vec3   `json:"angles"`
}

// ScaleOp scales its child about the origin. Negative factors mirror.
type ScaleOp struct {
	Child  NodeID `json:"child"`
	Factor Vec3   `json:"factor"`
}

// ShellOp hollows its child, leaving walls of the given thickness.
type ShellOp struct {
	Child     NodeID  `json:"child"`
	Thickness float64 `json:"thickness"`
}

// FilletOp rounds the edges of its child.
type FilletOp struct {
	Child  NodeID  `json:"child"`
	Radius float64 `json:"radius"`
}

// ChamferOp bevels the edges of its child.
type ChamferOp struct {
	Child    NodeID  `json:"child"`
	Distance float64 `json:"distance"`
}

// LinearPatternOp repeats its child Count times along Direction at the
// given spacing. The first copy is the unshifted child.
type LinearPatternOp struct {
	Child     NodeID  `json:"child"`
	Direction Vec3    `json:"direction"`
	Count     int     `json:"count"`
	Spacing   float64 `json:"spacing"`
}

// CircularPatternOp repeats its child Count times rotated about an axis.
// AngleDeg is the total sweep; 360 distributes copies over a full turn.
type CircularPatternOp struct {
	Child      NodeID  `json:"child"`
	AxisOrigin Vec3    `json:"axis_origin"`
	AxisDir    Vec3    `json:"axis_dir"`
	Count      int     `json:"count"`
	AngleDeg   float64 `json:"angle_deg"`
}

func (TranslateOp) op()       {}
func (RotateOp) op()          {}
func (ScaleOp) op()           {}
func (ShellOp) op()           {}
func (FilletOp) op()          {}
func (ChamferOp) op()         {}
func (LinearPatternOp) op()   {}
func (CircularPatternOp) op() {}

// ---------------------------------------------------------------------------
// Binary booleans
// ---------------------------------------------------------------------------

// UnionOp combines two solids.
type UnionOp struct {
	A NodeID `json:"a"`
	B NodeID `json:"b"`
}

// DifferenceOp subtracts B from A.
type DifferenceOp struct {
	A NodeID `json:"a"`
	B NodeID `json:"b"`
}

// IntersectionOp keeps the volume common to A and B.
type IntersectionOp struct {
	A NodeID `json:"a"`
	B NodeID `json:"b"`
}

func (UnionOp) op()        {}
func (DifferenceOp) op()   {}
func (IntersectionOp) op() {}

// ---------------------------------------------------------------------------
// Sketches and sketch-based solids
// ---------------------------------------------------------------------------

// SegmentKind distinguishes sketch segment shapes.
type SegmentKind string

const (
	SegmentLine SegmentKind = "line"
	SegmentArc  SegmentKind = "arc"
)

// SketchSegment is one edge of a closed 2D profile, in sketch-plane
// coordinates. Center and CCW apply to arcs only.
type SketchSegment struct {
	Kind   SegmentKind `json:"type"`
	Start  Vec2        `json:"start"`
	End    Vec2        `json:"end"`
	Center Vec2        `json:"center,omitempty"`
	CCW    bool        `json:"ccw,omitempty"`
}

// SketchOp is a closed 2D profile on an arbitrary plane. It produces no
// geometry itself; it is only referenced by extrude, revolve, sweep and
// loft nodes.
type SketchOp struct {
	Origin   Vec3            `json:"origin"`
	XDir     Vec3            `json:"x_dir"`
	YDir     Vec3            `json:"y_dir"`
	Segments []SketchSegment `json:"segments"`
}

// ExtrudeOp extrudes a sketch along Direction. The vector's length is
// the extrusion depth.
type ExtrudeOp struct {
	Sketch    NodeID `json:"sketch"`
	Direction Vec3   `json:"direction"`
}

// RevolveOp revolves a sketch about an axis by AngleDeg degrees. A
// zero AxisDir revolves about Y.
type RevolveOp struct {
	Sketch     NodeID  `json:"sketch"`
	AxisOrigin Vec3    `json:"axis_origin"`
	AxisDir    Vec3    `json:"axis_dir"`
	AngleDeg   float64 `json:"angle_deg"`
}

// PathKind distinguishes sweep path shapes.
type PathKind string

const (
	PathLine  PathKind = "line"
	PathHelix PathKind = "helix"
)

// SweepPath describes the trajectory of a sweep. Start and End apply to
// line paths; Radius, Pitch, Height and Turns apply to helix paths.
type SweepPath struct {
	Kind   PathKind `json:"type"`
	Start  Vec3     `json:"start"`
	End    Vec3     `json:"end"`
	Radius float64  `json:"radius"`
	Pitch  float64  `json:"pitch"`
	Height float64  `json:"height"`
	Turns  float64  `json:"turns"`
}

// SweepOp sweeps a sketch along a path with optional twist and scaling.
type SweepOp struct {
	Sketch     NodeID    `json:"sketch"`
	Path       SweepPath `json:"path"`
	TwistDeg   float64   `json:"twist_deg"`
	ScaleStart float64   `json:"scale_start"`
	ScaleEnd   float64   `json:"scale_end"`
}

// LoftOp interpolates a solid through a sequence of sketches.
type LoftOp struct {
	Sketches []NodeID `json:"sketches"`
	Closed   bool     `json:"closed,omitempty"`
}

func (SketchOp) op()  {}
func (ExtrudeOp) op() {}
func (RevolveOp) op() {}
func (SweepOp) op()   {}
func (LoftOp) op()    {}

// OpType returns the serialized type tag for an op.
func OpType(op Op) string {
	switch op.(type) {
	case CubeOp:
		return OpCube
	case CylinderOp:
		return OpCylinder
	case SphereOp:
		return OpSphere
	case ConeOp:
		return OpCone
	case EmptyOp:
		return OpEmpty
	case UnionOp:
		return OpUnion
	case DifferenceOp:
		return OpDifference
	case IntersectionOp:
		return OpIntersection
	case TranslateOp:
		return OpTranslate
	case RotateOp:
		return OpRotate
	case ScaleOp:
		return OpScale
	case ShellOp:
		return OpShell
	case FilletOp:
		return OpFillet
	case ChamferOp:
		return OpChamfer
	case LinearPatternOp:
		return OpLinearPattern
	case CircularPatternOp:
		return OpCircularPattern
	case SketchOp:
		return OpSketch
	case ExtrudeOp:
		return OpExtrude
	case RevolveOp:
		return OpRevolve
	case SweepOp:
		return OpSweep
	case LoftOp:
		return OpLoft
	default:
		return "unknown"
	}
}

// Children returns every node id an op references, in a stable order.
// Sketch references count: reachability and cycle checks treat them
// like any other edge.
func Children(op Op) []NodeID {
	switch o := op.(type) {
	case TranslateOp:
		return []NodeID{o.Child}
	case RotateOp:
		return []NodeID{o.Child}
	case ScaleOp:
		return []NodeID{o.Child}
	case ShellOp:
		return []NodeID{o.Child}
	case FilletOp:
		return []NodeID{o.Child}
	case ChamferOp:
		return []NodeID{o.Child}
	case LinearPatternOp:
		return []NodeID{o.Child}
	case CircularPatternOp:
		return []NodeID{o.Child}
	case UnionOp:
		return []NodeID{o.A, o.B}
	case DifferenceOp:
		return []NodeID{o.A, o.B}
	case IntersectionOp:
		return []NodeID{o.A, o.B}
	case ExtrudeOp:
		return []NodeID{o.Sketch}
	case RevolveOp:
		return []NodeID{o.Sketch}
	case SweepOp:
		return []NodeID{o.Sketch}
	case LoftOp:
		ids := make([]NodeID, len(o.Sketches))
		copy(ids, o.Sketches)
		return ids
	default:
		return nil
	}
}
