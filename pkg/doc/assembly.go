package doc

// PartDefID names a reusable part definition within a document.
type PartDefID string

// InstanceID is the integer handle of a placed part instance.
type InstanceID int64

// JointID is the integer handle of a kinematic joint.
type JointID int64

// PartDef is a reusable part definition: a subgraph root plus the
// material its instances render with.
type PartDef struct {
	Name     string      `json:"name"`
	Root     NodeID      `json:"root"`
	Material MaterialKey `json:"material"`
}

// PartInstance is one placement of a part definition in an assembly.
// Its pose comes from the kinematics solver, not from the node graph.
type PartInstance struct {
	ID   InstanceID `json:"id"`
	Def  PartDefID  `json:"def"`
	Name string     `json:"name,omitempty"`
}

// JointKind enumerates the supported joint types.
type JointKind int

const (
	JointFixed       JointKind = iota // rigid weld at the anchor pair
	JointRevolute                     // one rotation about Axis
	JointSlider                       // one translation along Axis
	JointCylindrical                  // rotation plus translation along Axis
	JointBall                         // free rotation about the anchor
)

func (k JointKind) String() string {
	switch k {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointSlider:
		return "slider"
	case JointCylindrical:
		return "cylindrical"
	case JointBall:
		return "ball"
	default:
		return "unknown"
	}
}

// ParseJointKind maps a kind name back to its JointKind. Names are the
// ones String returns.
func ParseJointKind(name string) (JointKind, bool) {
	switch name {
	case "fixed":
		return JointFixed, true
	case "revolute":
		return JointRevolute, true
	case "slider":
		return JointSlider, true
	case "cylindrical":
		return JointCylindrical, true
	case "ball":
		return JointBall, true
	default:
		return 0, false
	}
}

// Joint constrains a child instance relative to a parent instance, or
// to ground when Parent is nil. Anchors are body-local offsets; Axis
// is required for revolute, slider and cylindrical joints.
//
// State holds the joint's degrees of freedom:
//
//	Fixed:       unused
//	Revolute:    [0] angle in degrees
//	Slider:      [0] offset in mm
//	Cylindrical: [0] angle in degrees, [1] offset in mm
//	Ball:        [0..2] Euler XYZ angles in degrees
type Joint struct {
	ID           JointID     `json:"id"`
	Name         string      `json:"name,omitempty"`
	Parent       *InstanceID `json:"parent,omitempty"`
	Child        InstanceID  `json:"child"`
	ParentAnchor Vec3        `json:"parent_anchor"`
	ChildAnchor  Vec3        `json:"child_anchor"`
	Kind         JointKind   `json:"kind"`
	Axis         Vec3        `json:"axis"`
	State        [3]float64  `json:"state"`
}

// NewInstance allocates the next instance id and places a part
// definition under it.
func (d *Document) NewInstance(def PartDefID, name string) *PartInstance {
	d.nextInstance++
	inst := &PartInstance{ID: d.nextInstance, Def: def, Name: name}
	d.Instances = append(d.Instances, inst)
	return inst
}

// NewJoint allocates the next joint id and appends a joint connecting
// child to parent (ground when parent is nil).
func (d *Document) NewJoint(parent *InstanceID, child InstanceID, kind JointKind) *Joint {
	d.nextJoint++
	j := &Joint{ID: d.nextJoint, Parent: parent, Child: child, Kind: kind}
	d.Joints = append(d.Joints, j)
	return j
}

// Instance returns the placed instance with the given id, or nil.
func (d *Document) Instance(id InstanceID) *PartInstance {
	for _, inst := range d.Instances {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

// Joint returns the joint with the given id, or nil.
func (d *Document) Joint(id JointID) *Joint {
	for _, j := range d.Joints {
		if j.ID == id {
			return j
		}
	}
	return nil
}

// RemoveInstance deletes an instance and every joint that references
// it. It reports whether the instance existed.
func (d *Document) RemoveInstance(id InstanceID) bool {
	idx := -1
	for i, inst := range d.Instances {
		if inst.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	d.Instances = append(d.Instances[:idx], d.Instances[idx+1:]...)

	kept := d.Joints[:0]
	for _, j := range d.Joints {
		if j.Child == id || (j.Parent != nil && *j.Parent == id) {
			continue
		}
		kept = append(kept, j)
	}
	d.Joints = kept
	if len(d.Joints) == 0 {
		d.Joints = nil
	}
	if len(d.Instances) == 0 {
		d.Instances = nil
	}
	return true
}
