// Package stl encodes and decodes binary stereolithography meshes and
// reports basic mesh statistics. Coordinates are millimeters; no other
// metadata is written.
package stl

import (
	"bytes"
	"io"

	"github.com/chazu/interlock/pkg/kernel"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Triangles converts a kernel mesh into model3d triangles.
func Triangles(m *kernel.Mesh) []*model3d.Triangle {
	tris := make([]*model3d.Triangle, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		c := m.Triangle(t)
		tris = append(tris, &model3d.Triangle{
			model3d.Coord3D{X: c[0][0], Y: c[0][1], Z: c[0][2]},
			model3d.Coord3D{X: c[1][0], Y: c[1][1], Z: c[1][2]},
			model3d.Coord3D{X: c[2][0], Y: c[2][1], Z: c[2][2]},
		})
	}
	return tris
}

// Encode returns the binary STL encoding of m.
func Encode(m *kernel.Mesh) []byte {
	return model3d.EncodeSTL(Triangles(m))
}

// Write writes the binary STL encoding of m to w.
func Write(w io.Writer, m *kernel.Mesh) error {
	if _, err := w.Write(Encode(m)); err != nil {
		return errors.Wrap(err, "write stl")
	}
	return nil
}

// Decode reads a binary STL stream into a kernel mesh with one vertex
// per triangle corner and flat normals.
func Decode(r io.Reader) (*kernel.Mesh, error) {
	tris, err := model3d.ReadSTL(r)
	if err != nil {
		return nil, errors.Wrap(err, "read stl")
	}
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, len(tris)*9),
		Normals:  make([]float32, 0, len(tris)*9),
		Indices:  make([]uint32, 0, len(tris)*3),
	}
	for i, t := range tris {
		n := t.Normal()
		for j, c := range t {
			m.Vertices = append(m.Vertices, float32(c.X), float32(c.Y), float32(c.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m, nil
}

// DecodeBytes decodes an in-memory STL stream.
func DecodeBytes(data []byte) (*kernel.Mesh, error) {
	return Decode(bytes.NewReader(data))
}

// Stats summarizes a mesh.
type Stats struct {
	Triangles int        `json:"triangles"`
	Volume    float64    `json:"volume"`
	Min       [3]float64 `json:"min"`
	Max       [3]float64 `json:"max"`
}

// Analyze computes triangle count, enclosed volume and bounds of m.
// An empty mesh yields zero stats.
func Analyze(m *kernel.Mesh) Stats {
	s := Stats{Triangles: m.TriangleCount()}
	if s.Triangles == 0 {
		return s
	}
	s.Volume = m.Volume()

	mesh := model3d.NewMeshTriangles(Triangles(m))
	min, max := mesh.Min(), mesh.Max()
	s.Min = [3]float64{min.X, min.Y, min.Z}
	s.Max = [3]float64{max.X, max.Y, max.Z}
	return s
}
