package module

import (
	"math"

	"github.com/chazu/interlock/pkg/part"
)

// Params is the full parameter set of one generation request.
type Params struct {
	Dims      part.Dimensions `json:"dims" yaml:"dims"`
	Magnet    part.SocketSpec `json:"magnet" yaml:"magnet"`
	Peg       part.PegSpec    `json:"peg" yaml:"peg"`
	Secondary part.SocketSpec `json:"secondary" yaml:"secondary"`
	SplitAt   float64         `json:"split_at" yaml:"split_at"`
	// Clearance widens and deepens the upper half's peg socket. Zero
	// gives an exact fit: the socket is cut with the peg solid itself.
	Clearance float64 `json:"clearance" yaml:"clearance"`
}

// DefaultParams returns a 30 mm cube with a 5x3 magnet socket, a 4x6 peg
// split at mid-height and a 5x3 secondary socket per half.
func DefaultParams() Params {
	return Params{
		Dims:      part.Dimensions{X: 30, Y: 30, Z: 30},
		Magnet:    part.SocketSpec{Diameter: 5, Depth: 3},
		Peg:       part.PegSpec{Diameter: 4, Length: 6},
		Secondary: part.SocketSpec{Diameter: 5, Depth: 3},
		SplitAt:   15,
	}
}

// Check validates p without building any geometry. It returns the same
// error Generate would.
func Check(p Params) error {
	base, err := planBase(p.Dims, p.Magnet)
	if err != nil {
		return err
	}
	_, err = planSplit(base, p.SplitAt, p.Peg, p.Secondary, p.Clearance)
	return err
}

func validClearance(c float64) error {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return part.InvalidDimension("clearance", c, "must be a finite value >= 0")
	}
	return nil
}
