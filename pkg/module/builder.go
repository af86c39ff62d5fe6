package module

import (
	"github.com/chazu/interlock/pkg/kernel"
	"github.com/chazu/interlock/pkg/part"
)

// socketOvershoot extends socket cutters past the face they open into so
// the subtraction never leaves a skin of coplanar material.
const socketOvershoot = 0.5

// Builder constructs base blocks.
type Builder struct {
	Kernel kernel.Kernel
}

// NewBuilder returns a Builder using k.
func NewBuilder(k kernel.Kernel) *Builder {
	return &Builder{Kernel: k}
}

// BuildBase returns a dims-sized block with a blind socket of the magnet
// size cut into the center of its top face.
//
// It fails with an InvalidDimension error, before any kernel call, when a
// dimension is not positive, the socket is as deep as the block or the
// socket is as wide as the narrower side of the face.
func (b *Builder) BuildBase(dims part.Dimensions, magnet part.SocketSpec) (*part.Part, error) {
	plan, err := planBase(dims, magnet)
	if err != nil {
		return nil, err
	}

	k := b.Kernel
	block := k.Translate(k.Box(dims.X, dims.Y, dims.Z), 0, 0, dims.Z/2)
	for _, f := range plan.Features {
		block = cutBlind(k, block, f)
	}
	return part.Assemble(plan.Name, block, dims, 0, dims.Z, plan.Features)
}

// planBase validates the base inputs and returns the solid-free plan.
func planBase(dims part.Dimensions, magnet part.SocketSpec) (*part.Part, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if err := magnet.Validate("magnet"); err != nil {
		return nil, err
	}
	if magnet.Depth >= dims.Z {
		return nil, part.InvalidDimension("magnet.depth", magnet.Depth,
			"socket depth must be below size_z %g", dims.Z)
	}
	if magnet.Diameter >= dims.MinXY() {
		return nil, part.InvalidDimension("magnet.diameter", magnet.Diameter,
			"socket must fit the %gx%g face", dims.X, dims.Y)
	}

	blank, err := part.Assemble("base", nil, dims, 0, dims.Z, nil)
	if err != nil {
		return nil, err
	}
	face := blank.MountFace()
	magnetSocket := part.Feature{
		Name:   "magnet",
		Kind:   part.FeatureSocket,
		Center: [2]float64{face.Centroid[0], face.Centroid[1]},
		Radius: magnet.Radius(),
		ZMin:   face.Centroid[2] - magnet.Depth,
		ZMax:   face.Centroid[2],
	}
	return part.Assemble("base", nil, dims, 0, dims.Z, []part.Feature{magnetSocket})
}

// cutBlind subtracts a socket feature that opens upward, extending the
// cutter by socketOvershoot above the opening.
func cutBlind(k kernel.Kernel, s kernel.Solid, f part.Feature) kernel.Solid {
	h := f.ZMax - f.ZMin + socketOvershoot
	cutter := k.Cylinder(h, f.Radius, 64)
	cutter = k.Translate(cutter, f.Center[0], f.Center[1], f.ZMin+h/2)
	return k.Difference(s, cutter)
}
