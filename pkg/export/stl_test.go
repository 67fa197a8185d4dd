package export

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/perran/datum/pkg/kernel"
)

// triMesh is a single right triangle in the XY plane, wound so the
// facet normal points along +Z.
func triMesh() *kernel.Mesh {
	return &kernel.Mesh{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
}

func readF32(t *testing.T, data []byte, off int) float32 {
	t.Helper()
	if off+4 > len(data) {
		t.Fatalf("offset %d past end of %d-byte output", off, len(data))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func TestWriteSTLLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, triMesh()); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	data := buf.Bytes()

	if len(data) != 84+50 {
		t.Fatalf("output length = %d, want %d", len(data), 84+50)
	}
	if !bytes.HasPrefix(data, []byte(stlHeader)) {
		t.Errorf("header = %q, want prefix %q", data[:20], stlHeader)
	}
	if bytes.HasPrefix(data, []byte("solid")) {
		t.Error("binary STL must not begin with 'solid'")
	}
	if n := binary.LittleEndian.Uint32(data[80:84]); n != 1 {
		t.Errorf("triangle count = %d, want 1", n)
	}

	// Facet normal for a CCW triangle in the XY plane is +Z.
	if nx, ny, nz := readF32(t, data, 84), readF32(t, data, 88), readF32(t, data, 92); nx != 0 || ny != 0 || nz != 1 {
		t.Errorf("normal = (%f %f %f), want (0 0 1)", nx, ny, nz)
	}

	// Vertices follow the normal: a at 96, b at 108, c at 120.
	if x := readF32(t, data, 108); x != 1 {
		t.Errorf("vertex b.x = %f, want 1", x)
	}
	if y := readF32(t, data, 124); y != 1 {
		t.Errorf("vertex c.y = %f, want 1", y)
	}

	if attr := binary.LittleEndian.Uint16(data[132:134]); attr != 0 {
		t.Errorf("attribute bytes = %d, want 0", attr)
	}
}

func TestWriteSTLMergesMeshes(t *testing.T) {
	second := &kernel.Mesh{
		Positions: []float32{5, 5, 5, 6, 5, 5, 5, 6, 5},
		Indices:   []uint32{0, 1, 2},
	}

	var buf bytes.Buffer
	if err := WriteSTL(&buf, triMesh(), second); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	data := buf.Bytes()

	if len(data) != 84+2*50 {
		t.Fatalf("output length = %d, want %d", len(data), 84+2*50)
	}
	if n := binary.LittleEndian.Uint32(data[80:84]); n != 2 {
		t.Errorf("triangle count = %d, want 2", n)
	}

	// The second record starts at 134; its first vertex is (5,5,5).
	if x := readF32(t, data, 134+12); x != 5 {
		t.Errorf("second mesh vertex a.x = %f, want 5", x)
	}
}

func TestWriteSTLEmptyMesh(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, &kernel.Mesh{}); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	if buf.Len() != 84 {
		t.Errorf("output length = %d, want header-only 84", buf.Len())
	}
	if n := binary.LittleEndian.Uint32(buf.Bytes()[80:84]); n != 0 {
		t.Errorf("triangle count = %d, want 0", n)
	}
}

func TestWriteSTLDegenerateTriangle(t *testing.T) {
	collapsed := &kernel.Mesh{
		Positions: []float32{1, 1, 1},
		Indices:   []uint32{0, 0, 0},
	}

	var buf bytes.Buffer
	if err := WriteSTL(&buf, collapsed); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	data := buf.Bytes()
	if nx, ny, nz := readF32(t, data, 84), readF32(t, data, 88), readF32(t, data, 92); nx != 0 || ny != 0 || nz != 0 {
		t.Errorf("degenerate normal = (%f %f %f), want zero", nx, ny, nz)
	}
}

func TestWriteSTLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.stl")
	if err := WriteSTLFile(path, triMesh()); err != nil {
		t.Fatalf("WriteSTLFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(data) != 84+50 {
		t.Errorf("file length = %d, want %d", len(data), 84+50)
	}
	if n := binary.LittleEndian.Uint32(data[80:84]); n != 1 {
		t.Errorf("triangle count = %d, want 1", n)
	}
}

func TestWriteSTLFileBadPath(t *testing.T) {
	err := WriteSTLFile(filepath.Join(t.TempDir(), "missing", "tri.stl"), triMesh())
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
