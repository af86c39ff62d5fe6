package part

import "math"

// Dimensions are the block extents in millimeters.
type Dimensions struct {
	X float64 `json:"size_x" yaml:"size_x"`
	Y float64 `json:"size_y" yaml:"size_y"`
	Z float64 `json:"size_z" yaml:"size_z"`
}

// MinXY returns the smaller horizontal extent.
func (d Dimensions) MinXY() float64 {
	return math.Min(d.X, d.Y)
}

// Volume returns the volume of the unmodified block.
func (d Dimensions) Volume() float64 {
	return d.X * d.Y * d.Z
}

// Validate checks that every extent is strictly positive and finite.
func (d Dimensions) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"size_x", d.X}, {"size_y", d.Y}, {"size_z", d.Z}} {
		if err := positive(c.name, c.v); err != nil {
			return err
		}
	}
	return nil
}

// SocketSpec describes a blind cylindrical socket.
type SocketSpec struct {
	Diameter float64 `json:"diameter" yaml:"diameter"`
	Depth    float64 `json:"depth" yaml:"depth"`
}

// Radius returns half the diameter.
func (s SocketSpec) Radius() float64 {
	return s.Diameter / 2
}

// Validate checks that diameter and depth are strictly positive. The
// param prefix names the socket in errors, e.g. "magnet".
func (s SocketSpec) Validate(param string) error {
	if err := positive(param+".diameter", s.Diameter); err != nil {
		return err
	}
	return positive(param+".depth", s.Depth)
}

// PegSpec describes the interlocking peg.
type PegSpec struct {
	Diameter float64 `json:"diameter" yaml:"diameter"`
	Length   float64 `json:"length" yaml:"length"`
}

// Radius returns half the diameter.
func (p PegSpec) Radius() float64 {
	return p.Diameter / 2
}

// Validate checks that diameter and length are strictly positive.
func (p PegSpec) Validate() error {
	if err := positive("peg.diameter", p.Diameter); err != nil {
		return err
	}
	return positive("peg.length", p.Length)
}

func positive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidDimension(name, v, "must be finite")
	}
	if v <= 0 {
		return InvalidDimension(name, v, "must be positive, got %g", v)
	}
	return nil
}
