package module

import (
	"fmt"

	"github.com/chazu/interlock/pkg/kernel"
)

// Generate runs the build and split stages for p on kernel k. It is a
// plain blocking call; each invocation builds fresh solids and shares
// nothing with concurrent calls.
func Generate(k kernel.Kernel, p Params) (*Pair, error) {
	if err := Check(p); err != nil {
		return nil, err
	}

	base, err := NewBuilder(k).BuildBase(p.Dims, p.Magnet)
	if err != nil {
		return nil, fmt.Errorf("build base: %w", err)
	}

	splitter := &Splitter{Kernel: k, Clearance: p.Clearance}
	pair, err := splitter.Split(base, p.SplitAt, p.Peg, p.Secondary)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	return pair, nil
}
