package evaluate

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/perran/datum/pkg/kernel"
)

// clashRectMin pads degenerate box extents so every solid yields a
// valid R-tree rectangle.
const clashRectMin = 1e-9

type clashEntry struct {
	index int
	rect  *rtreego.Rect
}

func (e *clashEntry) Bounds() *rtreego.Rect { return e.rect }

// findClashes records the overlap volume of every intersecting pair of
// parts. An R-tree over part bounding boxes narrows the pair set before
// the kernel computes exact intersections; a pair clashes when its
// intersection is non-empty and meshes to at least one vertex.
func (ev *evaluator) findClashes(scene *Scene, solids []kernel.Solid) error {
	if len(solids) < 2 {
		return nil
	}

	tree := rtreego.NewTree(3, 25, 50)
	entries := make([]*clashEntry, len(solids))
	for i, s := range solids {
		if s.IsEmpty() {
			continue
		}
		min, max := s.BoundingBox()
		lengths := make([]float64, 3)
		for d := 0; d < 3; d++ {
			lengths[d] = max[d] - min[d]
			if lengths[d] < clashRectMin {
				lengths[d] = clashRectMin
			}
		}
		rect, err := rtreego.NewRect(rtreego.Point{min[0], min[1], min[2]}, lengths)
		if err != nil {
			return fmt.Errorf("clash index for part %d: %w", i, err)
		}
		entries[i] = &clashEntry{index: i, rect: rect}
		tree.Insert(entries[i])
	}

	for i, e := range entries {
		if e == nil {
			continue
		}
		var hits []int
		for _, cand := range tree.SearchIntersect(e.rect) {
			o := cand.(*clashEntry)
			if o.index > i {
				hits = append(hits, o.index)
			}
		}
		// Tree order is insertion-dependent; sort for a stable report.
		sort.Ints(hits)
		for _, j := range hits {
			overlap := ev.track(solids[i].Intersection(solids[j]))
			if overlap.IsEmpty() {
				continue
			}
			mesh, err := overlap.Mesh()
			if err != nil {
				return fmt.Errorf("meshing clash of parts %d and %d: %w", i, j, err)
			}
			if len(mesh.Positions) == 0 {
				continue
			}
			scene.Clashes = append(scene.Clashes, Clash{A: i, B: j, Mesh: mesh})
		}
	}
	return nil
}
