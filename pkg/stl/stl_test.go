package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/chazu/interlock/pkg/kernel"
)

// tetra is the unit right tetrahedron, outward wound.
func tetra() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1},
		Indices:  []uint32{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3},
	}
}

func TestEncodeLayout(t *testing.T) {
	data := Encode(tetra())

	// 80-byte header, uint32 count, 50 bytes per triangle.
	if want := 84 + 50*4; len(data) != want {
		t.Fatalf("encoded length = %d, want %d", len(data), want)
	}
	if n := binary.LittleEndian.Uint32(data[80:84]); n != 4 {
		t.Errorf("triangle count field = %d, want 4", n)
	}
}

func TestDecodeEncoded(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, tetra()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	m, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.TriangleCount() != 4 {
		t.Fatalf("decoded %d triangles, want 4", m.TriangleCount())
	}
	if got := m.Volume(); math.Abs(got-1.0/6.0) > 1e-6 {
		t.Errorf("decoded volume = %f, want %f", got, 1.0/6.0)
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
}

func TestDecodeTruncated(t *testing.T) {
	data := Encode(tetra())
	if _, err := DecodeBytes(data[:100]); err == nil {
		t.Fatal("expected error decoding truncated stream")
	}
}

func TestAnalyze(t *testing.T) {
	s := Analyze(tetra())
	if s.Triangles != 4 {
		t.Errorf("Triangles = %d, want 4", s.Triangles)
	}
	if math.Abs(s.Volume-1.0/6.0) > 1e-9 {
		t.Errorf("Volume = %f, want %f", s.Volume, 1.0/6.0)
	}
	if s.Min != [3]float64{0, 0, 0} || s.Max != [3]float64{1, 1, 1} {
		t.Errorf("bounds = %v %v, want [0 0 0] [1 1 1]", s.Min, s.Max)
	}

	if empty := Analyze(&kernel.Mesh{}); empty != (Stats{}) {
		t.Errorf("Analyze(empty) = %+v, want zero", empty)
	}
}
