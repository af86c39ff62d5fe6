// Package tessellate converts named solids into triangle meshes using a
// geometry kernel and rejects meshes that do not enclose any volume.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/interlock/pkg/kernel"
	"github.com/chazu/interlock/pkg/part"
)

// MinVolume is the smallest enclosed volume, in mm³, a mesh may have
// before it is treated as degenerate.
const MinVolume = 1e-6

// Input pairs a solid with the name its mesh should carry.
type Input struct {
	Name  string
	Solid kernel.Solid
}

// Tessellate produces one mesh per input, in input order. The
// tessellator never mutates the solids.
//
// A solid whose mesh is empty, encloses less than MinVolume or is turned
// inside out fails with a TessellationFailure error naming the input.
func Tessellate(k kernel.Kernel, inputs []Input) ([]*kernel.Mesh, error) {
	meshes := make([]*kernel.Mesh, 0, len(inputs))
	for _, in := range inputs {
		m, err := One(k, in)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// One tessellates a single input.
func One(k kernel.Kernel, in Input) (*kernel.Mesh, error) {
	if in.Solid == nil {
		return nil, part.TessellationFailure(in.Name, "no solid")
	}

	mesh, err := k.ToMesh(in.Solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", in.Name, err)
	}
	mesh.PartName = in.Name

	if mesh.IsEmpty() || mesh.TriangleCount() == 0 {
		return nil, part.TessellationFailure(in.Name, "solid produced an empty mesh")
	}
	vol := mesh.Volume()
	if math.IsNaN(vol) || math.Abs(vol) < MinVolume {
		return nil, part.TessellationFailure(in.Name, "mesh encloses no volume (%g mm³)", vol)
	}
	if vol < 0 {
		return nil, part.TessellationFailure(in.Name, "mesh is inside out (volume %g mm³)", vol)
	}
	return mesh, nil
}
