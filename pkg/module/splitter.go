package module

import (
	"fmt"
	"math"

	"github.com/chazu/interlock/pkg/kernel"
	"github.com/chazu/interlock/pkg/part"
)

// Part names given to the two halves.
const (
	LowerName = "lower"
	UpperName = "upper"
)

// Pair is the output of a split: two halves joined by a peg and socket.
// Lower owns the protruding peg; Upper carries the socket it mates with.
type Pair struct {
	Lower *part.Part
	Upper *part.Part

	// Peg is the solid unioned onto Lower. PegCutter is the solid
	// subtracted from Upper; with zero clearance it is Peg itself.
	Peg       kernel.Solid
	PegCutter kernel.Solid
}

// Splitter splits a base part into an interlocking pair.
type Splitter struct {
	Kernel    kernel.Kernel
	Clearance float64
}

// NewSplitter returns a Splitter using k with zero clearance.
func NewSplitter(k kernel.Kernel) *Splitter {
	return &Splitter{Kernel: k}
}

// splitPlan is the validated, solid-free outcome of a split.
type splitPlan struct {
	splitAt   float64
	peg       part.Feature
	pegSocket part.Feature
	lower     *part.Part
	upper     *part.Part
	secLower  part.Feature
	secUpper  part.Feature
}

// Split partitions base at z = splitAt, joins the halves with a peg and
// mating socket and cuts a secondary socket into each half's mounting
// face, offset by (size_x/4, size_y/4) from the face centroid.
//
// Errors: InvalidSplit when splitAt is not strictly inside the base's
// z-range; InvalidDimension when the peg or secondary socket does not fit;
// FeatureOverlap when a secondary socket or the peg would intersect
// another feature. All are reported before any boolean operation.
func (s *Splitter) Split(base *part.Part, splitAt float64, peg part.PegSpec, secondary part.SocketSpec) (*Pair, error) {
	if base == nil || base.Solid == nil {
		return nil, fmt.Errorf("split: base part has no solid")
	}
	plan, err := planSplit(base, splitAt, peg, secondary, s.Clearance)
	if err != nil {
		return nil, err
	}

	k := s.Kernel
	lowerBox, upperBox := halfSpaces(k, base, splitAt)
	lower := k.Intersection(base.Solid, lowerBox)
	upper := k.Intersection(base.Solid, upperBox)

	pegSolid := cylinderFeature(k, plan.peg)
	cutter := pegSolid
	if s.Clearance > 0 {
		cutter = cylinderFeature(k, plan.pegSocket)
	}

	// The peg goes on before the secondary sockets: it changes the lower
	// half's upward faces, and the mounting face was chosen with it in place.
	lower = k.Union(lower, pegSolid)
	upper = k.Difference(upper, cutter)

	lower = cutBlind(k, lower, plan.secLower)
	upper = cutBlind(k, upper, plan.secUpper)

	lowerPart, err := part.Assemble(LowerName, lower, base.Dims, base.ZMin, splitAt,
		append(append([]part.Feature(nil), plan.lower.Features...), plan.secLower))
	if err != nil {
		return nil, err
	}
	upperPart, err := part.Assemble(UpperName, upper, base.Dims, splitAt, base.ZMax,
		append(append([]part.Feature(nil), plan.upper.Features...), plan.secUpper))
	if err != nil {
		return nil, err
	}

	return &Pair{
		Lower:     lowerPart,
		Upper:     upperPart,
		Peg:       pegSolid,
		PegCutter: cutter,
	}, nil
}

// planSplit performs every check Split makes and computes the feature
// layout of both halves without touching the kernel.
func planSplit(base *part.Part, splitAt float64, peg part.PegSpec, secondary part.SocketSpec, clearance float64) (*splitPlan, error) {
	if base == nil {
		return nil, fmt.Errorf("split: nil base part")
	}
	if math.IsNaN(splitAt) || splitAt <= base.ZMin || splitAt >= base.ZMax {
		return nil, part.InvalidSplit(splitAt, "must lie strictly inside (%g, %g)", base.ZMin, base.ZMax)
	}
	if err := peg.Validate(); err != nil {
		return nil, err
	}
	if err := secondary.Validate("secondary"); err != nil {
		return nil, err
	}
	if err := validClearance(clearance); err != nil {
		return nil, err
	}

	dims := base.Dims
	lowerThickness := splitAt - base.ZMin
	upperThickness := base.ZMax - splitAt
	if peg.Diameter+2*clearance >= dims.MinXY() {
		return nil, part.InvalidDimension("peg.diameter", peg.Diameter,
			"peg socket must fit the %gx%g split face", dims.X, dims.Y)
	}
	if peg.Length > math.Min(lowerThickness, upperThickness) {
		return nil, part.InvalidDimension("peg.length", peg.Length,
			"peg must not exceed the thinner half (%g)", math.Min(lowerThickness, upperThickness))
	}
	if peg.Length+clearance >= upperThickness {
		return nil, part.InvalidDimension("peg.length", peg.Length,
			"peg socket would perforate the upper half (%g thick)", upperThickness)
	}

	pegFeature := part.Feature{
		Name:   "peg",
		Kind:   part.FeaturePeg,
		Radius: peg.Radius(),
		ZMin:   splitAt,
		ZMax:   splitAt + peg.Length,
	}
	socketFeature := part.Feature{
		Name:   "peg-socket",
		Kind:   part.FeatureSocket,
		Radius: peg.Radius() + clearance,
		ZMin:   splitAt,
		ZMax:   splitAt + peg.Length + clearance,
	}

	lowerFeatures := base.ClipFeatures(base.ZMin, splitAt)
	upperFeatures := base.ClipFeatures(splitAt, base.ZMax)
	if err := checkOverlap(pegFeature, lowerFeatures); err != nil {
		return nil, err
	}
	if err := checkOverlap(socketFeature, upperFeatures); err != nil {
		return nil, err
	}

	lower, err := part.Assemble(LowerName, nil, dims, base.ZMin, splitAt, append(lowerFeatures, pegFeature))
	if err != nil {
		return nil, err
	}
	upper, err := part.Assemble(UpperName, nil, dims, splitAt, base.ZMax, append(upperFeatures, socketFeature))
	if err != nil {
		return nil, err
	}

	secLower, err := placeSecondary(lower, secondary)
	if err != nil {
		return nil, err
	}
	secUpper, err := placeSecondary(upper, secondary)
	if err != nil {
		return nil, err
	}

	return &splitPlan{
		splitAt:   splitAt,
		peg:       pegFeature,
		pegSocket: socketFeature,
		lower:     lower,
		upper:     upper,
		secLower:  secLower,
		secUpper:  secUpper,
	}, nil
}

// placeSecondary positions the secondary socket on p's mounting face and
// checks that it fits the face, stays blind and clears every feature.
func placeSecondary(p *part.Part, spec part.SocketSpec) (part.Feature, error) {
	face := p.MountFace()
	f := part.Feature{
		Name:   "secondary",
		Kind:   part.FeatureSocket,
		Center: [2]float64{face.Centroid[0] + p.Dims.X/4, face.Centroid[1] + p.Dims.Y/4},
		Radius: spec.Radius(),
		ZMin:   face.Centroid[2] - spec.Depth,
		ZMax:   face.Centroid[2],
	}

	if math.Abs(f.Center[0])+f.Radius > p.Dims.X/2 || math.Abs(f.Center[1])+f.Radius > p.Dims.Y/2 {
		return part.Feature{}, part.InvalidDimension("secondary.diameter", spec.Diameter,
			"socket at (%g, %g) leaves the %s %s face", f.Center[0], f.Center[1], p.Name, face.Name)
	}
	if f.ZMin <= p.ZMin {
		return part.Feature{}, part.InvalidDimension("secondary.depth", spec.Depth,
			"socket would perforate the %s half (%g thick)", p.Name, face.Centroid[2]-p.ZMin)
	}

	// Feature names are only unique per part, so qualify them.
	if err := checkOverlap(part.Feature{
		Name: p.Name + " " + f.Name, Kind: f.Kind, Center: f.Center,
		Radius: f.Radius, ZMin: f.ZMin, ZMax: f.ZMax,
	}, p.Features); err != nil {
		return part.Feature{}, err
	}
	return f, nil
}

// checkOverlap returns a FeatureOverlap error for the first of others that
// f intersects.
func checkOverlap(f part.Feature, others []part.Feature) error {
	for _, o := range others {
		if f.Overlaps(o) {
			return part.FeatureOverlap(f.Name, o.Name)
		}
	}
	return nil
}

// halfSpaces returns two boxes meeting at z = splitAt, each far larger
// than base so intersecting with them only clips.
func halfSpaces(k kernel.Kernel, base *part.Part, splitAt float64) (lower, upper kernel.Solid) {
	d := base.Dims
	margin := math.Max(d.X, math.Max(d.Y, base.Bounds.Max[2]-base.Bounds.Min[2]))
	wx := 2*d.X + margin
	wy := 2*d.Y + margin

	lowBottom := base.Bounds.Min[2] - margin
	lowH := splitAt - lowBottom
	lower = k.Translate(k.Box(wx, wy, lowH), 0, 0, lowBottom+lowH/2)

	highTop := base.Bounds.Max[2] + margin
	highH := highTop - splitAt
	upper = k.Translate(k.Box(wx, wy, highH), 0, 0, splitAt+highH/2)
	return lower, upper
}

// cylinderFeature builds the exact cylinder of a feature.
func cylinderFeature(k kernel.Kernel, f part.Feature) kernel.Solid {
	h := f.ZMax - f.ZMin
	c := k.Cylinder(h, f.Radius, 64)
	return k.Translate(c, f.Center[0], f.Center[1], f.ZMin+h/2)
}
