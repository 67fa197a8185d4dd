package evaluate

import (
	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/kernel"
)

// Part is one evaluated scene entry: a triangle mesh plus the
// identifiers needed to render and report it.
type Part struct {
	Root     doc.NodeID
	Name     string
	Material doc.MaterialKey
	Mesh     *kernel.Mesh

	// Instance is set in assembly mode, where each part is one posed
	// part instance. Zero for plain part documents.
	Instance doc.InstanceID
}

// Clash is a non-empty overlap between two parts. A and B index into
// Scene.Parts, with A < B.
type Clash struct {
	A, B int
	Mesh *kernel.Mesh
}

// Scene is the result of one Evaluate call. Parts follow the order of
// the document's scene roots (or instances, for assemblies); clashes
// are ordered by their part indexes.
type Scene struct {
	Parts   []Part
	Clashes []Clash
}
