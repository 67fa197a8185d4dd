package doc

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// The serialized form keeps nodes as a string-keyed map, roots as an
// ordered array and ops as tagged unions ({"type": "cube", ...}).
// Output is deterministic: map keys are sorted by the encoder and
// struct fields keep declaration order, so equal documents marshal to
// identical bytes. Undo snapshots depend on that.

type nodeJSON struct {
	ID   NodeID          `json:"id"`
	Name string          `json:"name,omitempty"`
	Op   json.RawMessage `json:"op"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	op, err := marshalOp(n.Op)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", n.ID, err)
	}
	return json.Marshal(nodeJSON{ID: n.ID, Name: n.Name, Op: op})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var env nodeJSON
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	op, err := unmarshalOp(env.Op)
	if err != nil {
		return fmt.Errorf("node %d: %w", env.ID, err)
	}
	n.ID = env.ID
	n.Name = env.Name
	n.Op = op
	return nil
}

func marshalOp(op Op) ([]byte, error) {
	type tag struct {
		Type string `json:"type"`
	}
	switch o := op.(type) {
	case CubeOp:
		return json.Marshal(struct {
			tag
			CubeOp
		}{tag{OpCube}, o})
	case CylinderOp:
		return json.Marshal(struct {
			tag
			CylinderOp
		}{tag{OpCylinder}, o})
	case SphereOp:
		return json.Marshal(struct {
			tag
			SphereOp
		}{tag{OpSphere}, o})
	case ConeOp:
		return json.Marshal(struct {
			tag
			ConeOp
		}{tag{OpCone}, o})
	case EmptyOp:
		return json.Marshal(tag{OpEmpty})
	case UnionOp:
		return json.Marshal(struct {
			tag
			UnionOp
		}{tag{OpUnion}, o})
	case DifferenceOp:
		return json.Marshal(struct {
			tag
			DifferenceOp
		}{tag{OpDifference}, o})
	case IntersectionOp:
		return json.Marshal(struct {
			tag
			IntersectionOp
		}{tag{OpIntersection}, o})
	case TranslateOp:
		return json.Marshal(struct {
			tag
			TranslateOp
		}{tag{OpTranslate}, o})
	case RotateOp:
		return json.Marshal(struct {
			tag
			RotateOp
		}{tag{OpRotate}, o})
	case ScaleOp:
		return json.Marshal(struct {
			tag
			ScaleOp
		}{tag{OpScale}, o})
	case ShellOp:
		return json.Marshal(struct {
			tag
			ShellOp
		}{tag{OpShell}, o})
	case FilletOp:
		return json.Marshal(struct {
			tag
			FilletOp
		}{tag{OpFillet}, o})
	case ChamferOp:
		return json.Marshal(struct {
			tag
			ChamferOp
		}{tag{OpChamfer}, o})
	case LinearPatternOp:
		return json.Marshal(struct {
			tag
			LinearPatternOp
		}{tag{OpLinearPattern}, o})
	case CircularPatternOp:
		return json.Marshal(struct {
			tag
			CircularPatternOp
		}{tag{OpCircularPattern}, o})
	case SketchOp:
		return json.Marshal(struct {
			tag
			SketchOp
		}{tag{OpSketch}, o})
	case ExtrudeOp:
		return json.Marshal(struct {
			tag
			ExtrudeOp
		}{tag{OpExtrude}, o})
	case RevolveOp:
		return json.Marshal(struct {
			tag
			RevolveOp
		}{tag{OpRevolve}, o})
	case SweepOp:
		return json.Marshal(struct {
			tag
			SweepOp
		}{tag{OpSweep}, o})
	case LoftOp:
		return json.Marshal(struct {
			tag
			LoftOp
		}{tag{OpLoft}, o})
	default:
		return nil, fmt.Errorf("cannot serialize op %T", op)
	}
}

func unmarshalOp(b []byte) (Op, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, err
	}
	var (
		op  Op
		err error
	)
	switch probe.Type {
	case OpCube:
		var o CubeOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpCylinder:
		var o CylinderOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpSphere:
		var o SphereOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpCone:
		var o ConeOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpEmpty:
		op = EmptyOp{}
	case OpUnion:
		var o UnionOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpDifference:
		var o DifferenceOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpIntersection:
		var o IntersectionOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpTranslate:
		var o TranslateOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpRotate:
		var o RotateOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpScale:
		var o ScaleOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpShell:
		var o ShellOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpFillet:
		var o FilletOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpChamfer:
		var o ChamferOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpLinearPattern:
		var o LinearPatternOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpCircularPattern:
		var o CircularPatternOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpSketch:
		var o SketchOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpExtrude:
		var o ExtrudeOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpRevolve:
		var o RevolveOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpSweep:
		var o SweepOp
		err = json.Unmarshal(b, &o)
		op = o
	case OpLoft:
		var o LoftOp
		err = json.Unmarshal(b, &o)
		op = o
	case "":
		return nil, fmt.Errorf("op has no type tag")
	default:
		return nil, fmt.Errorf("unknown op type %q", probe.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("op %q: %w", probe.Type, err)
	}
	return op, nil
}

type documentJSON struct {
	Nodes        map[NodeID]*Node            `json:"nodes"`
	Roots        []SceneRoot                 `json:"roots"`
	Materials    map[MaterialKey]MaterialDef `json:"materials"`
	PartDefs     map[PartDefID]*PartDef      `json:"part_defs,omitempty"`
	Instances    []*PartInstance             `json:"instances,omitempty"`
	Joints       []*Joint                    `json:"joints,omitempty"`
	NextNode     NodeID                      `json:"next_id"`
	NextInstance InstanceID                  `json:"next_instance_id,omitempty"`
	NextJoint    JointID                     `json:"next_joint_id,omitempty"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	env := documentJSON{
		Nodes:        d.Nodes,
		Roots:        d.Roots,
		Materials:    d.Materials,
		NextNode:     d.nextNode,
		NextInstance: d.nextInstance,
		NextJoint:    d.nextJoint,
	}
	if env.Nodes == nil {
		env.Nodes = map[NodeID]*Node{}
	}
	if env.Roots == nil {
		env.Roots = []SceneRoot{}
	}
	if env.Materials == nil {
		env.Materials = map[MaterialKey]MaterialDef{}
	}
	if len(d.PartDefs) > 0 {
		env.PartDefs = d.PartDefs
	}
	if len(d.Instances) > 0 {
		env.Instances = d.Instances
	}
	if len(d.Joints) > 0 {
		env.Joints = d.Joints
	}
	return json.Marshal(env)
}

func (d *Document) UnmarshalJSON(b []byte) error {
	var env documentJSON
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	d.Nodes = env.Nodes
	if d.Nodes == nil {
		d.Nodes = make(map[NodeID]*Node)
	}
	d.Roots = env.Roots
	d.Materials = env.Materials
	if d.Materials == nil {
		d.Materials = make(map[MaterialKey]MaterialDef)
	}
	d.PartDefs = env.PartDefs
	if d.PartDefs == nil {
		d.PartDefs = make(map[PartDefID]*PartDef)
	}
	d.Instances = env.Instances
	d.Joints = env.Joints

	// Trust the stored counters but never let hand-edited files reuse
	// live ids.
	d.nextNode = env.NextNode
	for id := range d.Nodes {
		if id > d.nextNode {
			d.nextNode = id
		}
	}
	d.nextInstance = env.NextInstance
	for _, inst := range d.Instances {
		if inst.ID > d.nextInstance {
			d.nextInstance = inst.ID
		}
	}
	d.nextJoint = env.NextJoint
	for _, j := range d.Joints {
		if j.ID > d.nextJoint {
			d.nextJoint = j.ID
		}
	}
	return nil
}
