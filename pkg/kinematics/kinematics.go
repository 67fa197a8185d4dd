// Package kinematics computes world transforms for assembly instances
// from joint constraints. The joint graph must form a forest: each
// instance has at most one incoming joint, and following parents never
// loops. Solving walks each tree from its grounded root outward,
// composing joint-local transforms.
package kinematics

import (
	"fmt"
	"math"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/kernel"
)

// UnknownInstanceError reports a joint or ground reference to an
// instance id that is not in the assembly.
type UnknownInstanceError struct {
	Instance doc.InstanceID
}

func (e *UnknownInstanceError) Error() string {
	return fmt.Sprintf("kinematics: unknown instance %d", e.Instance)
}

// MultipleParentsError reports an instance with more than one incoming
// joint.
type MultipleParentsError struct {
	Instance doc.InstanceID
}

func (e *MultipleParentsError) Error() string {
	return fmt.Sprintf("kinematics: instance %d has more than one incoming joint", e.Instance)
}

// CycleError reports a cycle in the joint graph. Instance is one of the
// instances on the cycle.
type CycleError struct {
	Instance doc.InstanceID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("kinematics: joint cycle through instance %d", e.Instance)
}

// GroundedError reports a ground instance that has an incoming joint.
// The ground must be a root of the joint forest.
type GroundedError struct {
	Instance doc.InstanceID
}

func (e *GroundedError) Error() string {
	return fmt.Sprintf("kinematics: ground instance %d has an incoming joint", e.Instance)
}

// Solve computes the world transform of every instance. A joint with a
// nil parent attaches its child to the world frame; an instance with no
// incoming joint sits at identity. ground, when non-nil, names the
// instance anchoring the assembly and must itself have no incoming
// joint.
//
// The child's world transform is
//
//	parentWorld * T(parentAnchor) * jointLocal(state) * T(-childAnchor)
//
// so the two anchor points coincide when the joint state is zero.
func Solve(instances []*doc.PartInstance, joints []*doc.Joint, ground *doc.InstanceID) (map[doc.InstanceID]kernel.Mat4, error) {
	known := make(map[doc.InstanceID]bool, len(instances))
	for _, inst := range instances {
		known[inst.ID] = true
	}

	incoming := make(map[doc.InstanceID]*doc.Joint, len(joints))
	outgoing := make(map[doc.InstanceID][]*doc.Joint)
	for _, j := range joints {
		if !known[j.Child] {
			return nil, &UnknownInstanceError{Instance: j.Child}
		}
		if j.Parent != nil && !known[*j.Parent] {
			return nil, &UnknownInstanceError{Instance: *j.Parent}
		}
		if _, dup := incoming[j.Child]; dup {
			return nil, &MultipleParentsError{Instance: j.Child}
		}
		incoming[j.Child] = j
		if j.Parent != nil {
			outgoing[*j.Parent] = append(outgoing[*j.Parent], j)
		}
	}

	if ground != nil {
		if !known[*ground] {
			return nil, &UnknownInstanceError{Instance: *ground}
		}
		if _, jointed := incoming[*ground]; jointed {
			return nil, &GroundedError{Instance: *ground}
		}
	}

	poses := make(map[doc.InstanceID]kernel.Mat4, len(instances))
	queue := make([]doc.InstanceID, 0, len(instances))
	for _, inst := range instances {
		j, jointed := incoming[inst.ID]
		switch {
		case !jointed:
			poses[inst.ID] = kernel.Identity()
		case j.Parent == nil:
			poses[inst.ID] = childWorld(kernel.Identity(), j)
		default:
			continue
		}
		queue = append(queue, inst.ID)
	}

	// Each instance has one incoming joint and each parent is dequeued
	// once, so every reachable child is posed exactly once.
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, j := range outgoing[id] {
			poses[j.Child] = childWorld(poses[id], j)
			queue = append(queue, j.Child)
		}
	}

	for _, inst := range instances {
		if _, ok := poses[inst.ID]; !ok {
			return nil, &CycleError{Instance: inst.ID}
		}
	}
	return poses, nil
}

func childWorld(parent kernel.Mat4, j *doc.Joint) kernel.Mat4 {
	pa, ca := j.ParentAnchor, j.ChildAnchor
	m := parent.Mul(kernel.Translation(pa.X, pa.Y, pa.Z))
	m = m.Mul(jointLocal(j))
	return m.Mul(kernel.Translation(-ca.X, -ca.Y, -ca.Z))
}

// jointLocal maps a joint's kind and state to its relative transform.
// State layout per kind is documented on doc.Joint.
func jointLocal(j *doc.Joint) kernel.Mat4 {
	axis := [3]float64{j.Axis.X, j.Axis.Y, j.Axis.Z}
	switch j.Kind {
	case doc.JointFixed:
		return kernel.Identity()
	case doc.JointRevolute:
		return kernel.RotationAbout(axis, j.State[0])
	case doc.JointSlider:
		return slideAlong(axis, j.State[0])
	case doc.JointCylindrical:
		return slideAlong(axis, j.State[1]).Mul(kernel.RotationAbout(axis, j.State[0]))
	case doc.JointBall:
		rx := kernel.RotationAbout([3]float64{1, 0, 0}, j.State[0])
		ry := kernel.RotationAbout([3]float64{0, 1, 0}, j.State[1])
		rz := kernel.RotationAbout([3]float64{0, 0, 1}, j.State[2])
		return rz.Mul(ry).Mul(rx)
	}
	return kernel.Identity()
}

// slideAlong translates by distance along axis. A zero axis slides
// nowhere, mirroring RotationAbout's identity for a zero axis.
func slideAlong(axis [3]float64, distance float64) kernel.Mat4 {
	n := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if n == 0 {
		return kernel.Identity()
	}
	s := distance / n
	return kernel.Translation(axis[0]*s, axis[1]*s, axis[2]*s)
}
