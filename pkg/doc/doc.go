// Package doc defines the parametric document model for Datum.
// A document is a DAG of CSG operations: nodes live in an id-keyed
// table, reference each other by integer handle, and are designated
// renderable by scene roots. Assemblies add part definitions, placed
// instances and kinematic joints on top of the same node table.
// The document is pure data; evaluation, validation and history live
// in their own packages.
package doc

import "sort"

// NodeID is the integer handle of a graph node, unique within a
// document and assigned monotonically. Zero is never a valid id.
type NodeID int64

// Node is one operation in the CSG graph.
type Node struct {
	ID   NodeID
	Name string
	Op   Op
}

// SceneRoot designates one independently renderable part: a node to
// evaluate and the material to render it with.
type SceneRoot struct {
	Root     NodeID      `json:"root"`
	Material MaterialKey `json:"material"`
}

// Document is the top-level model: the node table, the scene roots,
// the material table, and (for assemblies) part definitions, instances
// and joints. Mutation goes through the session layer, which snapshots
// the document before every edit.
type Document struct {
	Nodes     map[NodeID]*Node
	Roots     []SceneRoot
	Materials map[MaterialKey]MaterialDef

	PartDefs  map[PartDefID]*PartDef
	Instances []*PartInstance
	Joints    []*Joint

	nextNode     NodeID
	nextInstance InstanceID
	nextJoint    JointID
}

// New creates an empty document.
func New() *Document {
	return &Document{
		Nodes:     make(map[NodeID]*Node),
		Materials: make(map[MaterialKey]MaterialDef),
		PartDefs:  make(map[PartDefID]*PartDef),
	}
}

// NewNode allocates the next node id, inserts a node with the given
// op, and returns it.
func (d *Document) NewNode(name string, op Op) *Node {
	d.nextNode++
	n := &Node{ID: d.nextNode, Name: name, Op: op}
	d.Nodes[n.ID] = n
	return n
}

// Get returns the node with the given id, or nil.
func (d *Document) Get(id NodeID) *Node {
	return d.Nodes[id]
}

// NodeCount returns the total number of nodes in the table.
func (d *Document) NodeCount() int {
	return len(d.Nodes)
}

// AddRoot registers a node as a scene root with the given material.
func (d *Document) AddRoot(id NodeID, material MaterialKey) {
	d.Roots = append(d.Roots, SceneRoot{Root: id, Material: material})
}

// RemoveRoot unregisters a scene root. It reports whether the root was
// present. Nodes are not removed; use PruneUnreachable for that.
func (d *Document) RemoveRoot(id NodeID) bool {
	for i, r := range d.Roots {
		if r.Root == id {
			d.Roots = append(d.Roots[:i], d.Roots[i+1:]...)
			return true
		}
	}
	return false
}

// IsAssembly reports whether the document has placed part instances.
// Assembly documents are evaluated through their instances rather than
// their scene roots.
func (d *Document) IsAssembly() bool {
	return len(d.Instances) > 0
}

// reachable returns the set of node ids reachable from scene roots and
// part definition roots.
func (d *Document) reachable() map[NodeID]bool {
	seen := make(map[NodeID]bool)
	var queue []NodeID
	mark := func(id NodeID) {
		if !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}
	for _, r := range d.Roots {
		mark(r.Root)
	}
	for _, def := range d.PartDefs {
		mark(def.Root)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := d.Nodes[id]
		if n == nil {
			continue
		}
		for _, cid := range Children(n.Op) {
			mark(cid)
		}
	}
	return seen
}

// Unreachable returns the ids of nodes not reachable from any scene
// root or part definition root, in ascending order. The nodes are left
// in place; use PruneUnreachable to remove them.
func (d *Document) Unreachable() []NodeID {
	seen := d.reachable()
	var ids []NodeID
	for id := range d.Nodes {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PruneUnreachable removes every node that is not reachable from a
// scene root or a part definition root, and returns how many were
// removed. Nodes shared with a surviving root are kept.
func (d *Document) PruneUnreachable() int {
	seen := d.reachable()
	removed := 0
	for id := range d.Nodes {
		if !seen[id] {
			delete(d.Nodes, id)
			removed++
		}
	}
	return removed
}

// Clone returns a deep copy of the document via its serialized form.
func (d *Document) Clone() (*Document, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, err
	}
	c := New()
	if err := c.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return c, nil
}
