// Package export writes evaluated geometry to interchange formats.
package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/perran/datum/pkg/kernel"
)

// stlHeader labels the 80-byte binary STL header. A binary STL must not
// begin with "solid", which readers take to mean the ASCII variant.
const stlHeader = "datum binary STL"

// WriteSTL encodes the meshes as a single binary STL solid. Facet
// normals are recomputed from the vertex winding, so any per-vertex
// normals on the meshes are ignored.
func WriteSTL(w io.Writer, meshes ...*kernel.Mesh) error {
	var header [80]byte
	copy(header[:], stlHeader)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("stl header: %w", err)
	}

	var count uint32
	for _, m := range meshes {
		count += uint32(m.TriangleCount())
	}
	var cbuf [4]byte
	binary.LittleEndian.PutUint32(cbuf[:], count)
	if _, err := w.Write(cbuf[:]); err != nil {
		return fmt.Errorf("stl triangle count: %w", err)
	}

	// Each record is 12 normal bytes, 36 vertex bytes, 2 attribute bytes.
	var rec [50]byte
	written := 0
	for _, m := range meshes {
		for t := 0; t < m.TriangleCount(); t++ {
			a, b, c := m.Triangle(t)
			putVec(rec[0:], facetNormal(a, b, c))
			putVec(rec[12:], a)
			putVec(rec[24:], b)
			putVec(rec[36:], c)
			rec[48], rec[49] = 0, 0
			if _, err := w.Write(rec[:]); err != nil {
				return fmt.Errorf("stl triangle %d: %w", written, err)
			}
			written++
		}
	}
	return nil
}

// WriteSTLFile writes the meshes to path as a binary STL file.
func WriteSTLFile(path string, meshes ...*kernel.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl file: %w", err)
	}
	if err := WriteSTL(f, meshes...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("stl file: %w", err)
	}
	return nil
}

func putVec(b []byte, v [3]float64) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v[0])))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v[1])))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v[2])))
}

// facetNormal is the unit normal of triangle (a, b, c) under the
// right-hand winding rule. Degenerate triangles get a zero normal,
// which STL readers accept.
func facetNormal(a, b, c [3]float64) [3]float64 {
	u := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	mag := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if mag == 0 {
		return [3]float64{}
	}
	return [3]float64{n[0] / mag, n[1] / mag, n[2] / mag}
}
