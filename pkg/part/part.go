package part

import (
	"fmt"
	"math"

	"github.com/chazu/interlock/pkg/kernel"
)

// faceEps is the tolerance used when comparing face heights and areas.
const faceEps = 1e-9

// ---------------------------------------------------------------------------
// Faces
// ---------------------------------------------------------------------------

// FaceID is an index into Part.Faces.
type FaceID int

// NoFace marks an unset face reference.
const NoFace FaceID = -1

// FaceRole separates faces of the block body from faces contributed by
// sockets and pegs. Only body faces are eligible mounting faces.
type FaceRole int

const (
	RoleBody    FaceRole = iota // block top, bottom, sides, split face
	RoleFeature                 // socket floors/ceilings, peg caps
)

func (r FaceRole) String() string {
	if r == RoleFeature {
		return "feature"
	}
	return "body"
}

var (
	up    = [3]float64{0, 0, 1}
	down  = [3]float64{0, 0, -1}
	east  = [3]float64{1, 0, 0}
	west  = [3]float64{-1, 0, 0}
	north = [3]float64{0, 1, 0}
	south = [3]float64{0, -1, 0}
)

// Face is a planar boundary face of a part.
type Face struct {
	Name     string     `json:"name"`
	Normal   [3]float64 `json:"normal"` // outward unit normal
	Centroid [3]float64 `json:"centroid"`
	Area     float64    `json:"area"`
	Role     FaceRole   `json:"role"`
}

// FacesUp reports whether the outward normal is +Z.
func (f Face) FacesUp() bool {
	return f.Normal == up
}

// punch removes a disc of radius r centered at c from a Z-normal face,
// shifting the centroid to stay area-weighted.
func (f *Face) punch(c [2]float64, r float64) {
	a := math.Pi * r * r
	remaining := f.Area - a
	if remaining <= faceEps {
		f.Area = 0
		return
	}
	f.Centroid[0] = (f.Area*f.Centroid[0] - a*c[0]) / remaining
	f.Centroid[1] = (f.Area*f.Centroid[1] - a*c[1]) / remaining
	f.Area = remaining
}

// ---------------------------------------------------------------------------
// Features
// ---------------------------------------------------------------------------

// FeatureKind distinguishes removed from added material.
type FeatureKind int

const (
	FeatureSocket FeatureKind = iota // blind cylindrical cavity
	FeaturePeg                       // cylindrical protrusion
)

func (k FeatureKind) String() string {
	if k == FeaturePeg {
		return "peg"
	}
	return "socket"
}

// Feature is a Z-aligned cylindrical region cut into or added onto a part.
type Feature struct {
	Name   string      `json:"name"`
	Kind   FeatureKind `json:"kind"`
	Center [2]float64  `json:"center"`
	Radius float64     `json:"radius"`
	ZMin   float64     `json:"z_min"`
	ZMax   float64     `json:"z_max"`
}

// Volume returns the cylinder volume of the feature.
func (f Feature) Volume() float64 {
	return math.Pi * f.Radius * f.Radius * (f.ZMax - f.ZMin)
}

// Overlaps reports whether two features share any point: their discs
// intersect and their closed z-ranges meet. Tangent discs do not overlap.
func (f Feature) Overlaps(g Feature) bool {
	if f.ZMin > g.ZMax || g.ZMin > f.ZMax {
		return false
	}
	dx := f.Center[0] - g.Center[0]
	dy := f.Center[1] - g.Center[1]
	return math.Hypot(dx, dy) < f.Radius+g.Radius
}

// ---------------------------------------------------------------------------
// Part
// ---------------------------------------------------------------------------

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Part is a kernel solid together with the bookkeeping the kernel does
// not expose: its planar boundary faces, the sockets and pegs cut into
// it, and the face chosen for the next mounting operation.
//
// A Part covers a block slab spanning [ZMin, ZMax] over the full X/Y
// extents of Dims, centered on the Z axis, plus its features. Parts are
// never modified after Assemble returns them.
type Part struct {
	Name     string       `json:"name"`
	Solid    kernel.Solid `json:"-"`
	Dims     Dimensions   `json:"dims"`
	ZMin     float64      `json:"z_min"`
	ZMax     float64      `json:"z_max"`
	Faces    []Face       `json:"faces"`
	Features []Feature    `json:"features"`
	Mount    FaceID       `json:"mount"`
	Volume   float64      `json:"volume"` // nominal, from exact geometry
	Bounds   Bounds       `json:"bounds"`
}

// Assemble derives the face list, nominal volume, bounds and mounting
// face of a slab [zMin, zMax] of a dims-sized block carrying features.
//
// Face order is deterministic: top, bottom, +X, -X, +Y, -Y, then one cap
// per feature whose end lies inside the slab or above it (peg caps).
func Assemble(name string, solid kernel.Solid, dims Dimensions, zMin, zMax float64, features []Feature) (*Part, error) {
	if zMax-zMin <= faceEps {
		return nil, InvalidDimension(name, zMax-zMin, "slab thickness must be positive")
	}
	h := zMax - zMin
	midZ := (zMin + zMax) / 2
	hx, hy := dims.X/2, dims.Y/2

	faces := []Face{
		{Name: "top", Normal: up, Centroid: [3]float64{0, 0, zMax}, Area: dims.X * dims.Y},
		{Name: "bottom", Normal: down, Centroid: [3]float64{0, 0, zMin}, Area: dims.X * dims.Y},
		{Name: "+x", Normal: east, Centroid: [3]float64{hx, 0, midZ}, Area: dims.Y * h},
		{Name: "-x", Normal: west, Centroid: [3]float64{-hx, 0, midZ}, Area: dims.Y * h},
		{Name: "+y", Normal: north, Centroid: [3]float64{0, hy, midZ}, Area: dims.X * h},
		{Name: "-y", Normal: south, Centroid: [3]float64{0, -hy, midZ}, Area: dims.X * h},
	}
	const top, bottom = 0, 1

	volume := dims.X * dims.Y * h
	bounds := Bounds{
		Min: [3]float64{-hx, -hy, zMin},
		Max: [3]float64{hx, hy, zMax},
	}

	for _, f := range features {
		switch f.Kind {
		case FeatureSocket:
			if f.ZMin < zMin-faceEps || f.ZMax > zMax+faceEps {
				return nil, fmt.Errorf("part %s: socket %s spans z [%g, %g] outside slab [%g, %g]",
					name, f.Name, f.ZMin, f.ZMax, zMin, zMax)
			}
			volume -= f.Volume()
			if math.Abs(f.ZMax-zMax) <= faceEps {
				faces[top].punch(f.Center, f.Radius)
			} else {
				faces = append(faces, Face{
					Name: f.Name + "-ceiling", Normal: down, Role: RoleFeature,
					Centroid: [3]float64{f.Center[0], f.Center[1], f.ZMax},
					Area:     math.Pi * f.Radius * f.Radius,
				})
			}
			if math.Abs(f.ZMin-zMin) <= faceEps {
				faces[bottom].punch(f.Center, f.Radius)
			} else {
				faces = append(faces, Face{
					Name: f.Name + "-floor", Normal: up, Role: RoleFeature,
					Centroid: [3]float64{f.Center[0], f.Center[1], f.ZMin},
					Area:     math.Pi * f.Radius * f.Radius,
				})
			}
		case FeaturePeg:
			if math.Abs(f.ZMin-zMax) > faceEps {
				return nil, fmt.Errorf("part %s: peg %s must stand on the top face at z=%g, base is z=%g",
					name, f.Name, zMax, f.ZMin)
			}
			volume += f.Volume()
			faces[top].punch(f.Center, f.Radius)
			faces = append(faces, Face{
				Name: f.Name + "-cap", Normal: up, Role: RoleFeature,
				Centroid: [3]float64{f.Center[0], f.Center[1], f.ZMax},
				Area:     math.Pi * f.Radius * f.Radius,
			})
			bounds.Max[2] = math.Max(bounds.Max[2], f.ZMax)
		}
	}

	p := &Part{
		Name:     name,
		Solid:    solid,
		Dims:     dims,
		ZMin:     zMin,
		ZMax:     zMax,
		Faces:    faces,
		Features: append([]Feature(nil), features...),
		Volume:   volume,
		Bounds:   bounds,
		Mount:    NoFace,
	}
	mount, err := p.SelectMount()
	if err != nil {
		return nil, err
	}
	p.Mount = mount
	return p, nil
}

// SelectMount picks the mounting face: among body faces whose outward
// normal is +Z, the one with the highest centroid, ties broken by the
// larger area and then by the lower index.
func (p *Part) SelectMount() (FaceID, error) {
	best := NoFace
	for i, f := range p.Faces {
		if f.Role != RoleBody || !f.FacesUp() || f.Area <= faceEps {
			continue
		}
		if best == NoFace {
			best = FaceID(i)
			continue
		}
		b := p.Faces[best]
		dz := f.Centroid[2] - b.Centroid[2]
		switch {
		case dz > faceEps:
			best = FaceID(i)
		case dz >= -faceEps && f.Area > b.Area+faceEps:
			best = FaceID(i)
		}
	}
	if best == NoFace {
		return NoFace, fmt.Errorf("part %s: no upward body face", p.Name)
	}
	return best, nil
}

// Face returns the face with the given id.
func (p *Part) Face(id FaceID) Face {
	return p.Faces[id]
}

// MountFace returns the selected mounting face.
func (p *Part) MountFace() Face {
	return p.Face(p.Mount)
}

// Feature returns the feature with the given name.
func (p *Part) Feature(name string) (Feature, bool) {
	for _, f := range p.Features {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// Thickness returns the slab thickness, excluding pegs.
func (p *Part) Thickness() float64 {
	return p.ZMax - p.ZMin
}

// ClipFeatures returns the features of p restricted to the slab
// [zMin, zMax]. Sockets crossing a slab boundary are clamped; features
// entirely outside are dropped.
func (p *Part) ClipFeatures(zMin, zMax float64) []Feature {
	var out []Feature
	for _, f := range p.Features {
		lo := math.Max(f.ZMin, zMin)
		hi := math.Min(f.ZMax, zMax)
		if hi-lo <= faceEps {
			continue
		}
		f.ZMin, f.ZMax = lo, hi
		out = append(out, f)
	}
	return out
}
