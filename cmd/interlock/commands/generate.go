package commands

import (
	"fmt"

	"github.com/chazu/interlock/pkg/module"
)

// Overrides are per-run geometry flags layered over the configuration.
// Unset flags keep the configured value.
type Overrides struct {
	SizeX             *float64 `name:"size-x" help:"Block width (mm)"`
	SizeY             *float64 `name:"size-y" help:"Block depth (mm)"`
	SizeZ             *float64 `name:"size-z" help:"Block height (mm)"`
	MagnetDiameter    *float64 `name:"magnet-diameter" help:"Magnet socket diameter (mm)"`
	MagnetDepth       *float64 `name:"magnet-depth" help:"Magnet socket depth (mm)"`
	PegDiameter       *float64 `name:"peg-diameter" help:"Peg diameter (mm)"`
	PegLength         *float64 `name:"peg-length" help:"Peg length (mm)"`
	SecondaryDiameter *float64 `name:"secondary-diameter" help:"Secondary socket diameter (mm)"`
	SecondaryDepth    *float64 `name:"secondary-depth" help:"Secondary socket depth (mm)"`
	SplitAt           *float64 `name:"split-at" help:"Split height (mm); defaults to half the block height"`
	Clearance         *float64 `help:"Extra radius and depth of the peg socket (mm)"`
}

// Apply returns p with every set flag written over it. Changing the
// height without an explicit split moves the split back to mid-height.
func (o Overrides) Apply(p module.Params) module.Params {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Dims.X, o.SizeX)
	set(&p.Dims.Y, o.SizeY)
	set(&p.Magnet.Diameter, o.MagnetDiameter)
	set(&p.Magnet.Depth, o.MagnetDepth)
	set(&p.Peg.Diameter, o.PegDiameter)
	set(&p.Peg.Length, o.PegLength)
	set(&p.Secondary.Diameter, o.SecondaryDiameter)
	set(&p.Secondary.Depth, o.SecondaryDepth)
	set(&p.Clearance, o.Clearance)
	if o.SizeZ != nil {
		p.Dims.Z = *o.SizeZ
		if o.SplitAt == nil {
			p.SplitAt = p.Dims.Z / 2
		}
	}
	set(&p.SplitAt, o.SplitAt)
	return p
}

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Overrides `embed:""`
	Output    string `short:"o" help:"Output directory (overrides export.out_dir)" type:"path"`
}

func (c *GenerateCmd) Run(g *Global, _ *CLI) error {
	if c.Output != "" {
		g.Config.Export.OutDir = c.Output
	}
	params := c.Apply(g.Config.Params())
	g.Logger.Info("Generating module",
		"size", fmt.Sprintf("%gx%gx%g", params.Dims.X, params.Dims.Y, params.Dims.Z),
		"split_at", params.SplitAt,
		"clearance", params.Clearance,
		"out_dir", g.Config.Export.OutDir)

	res, err := g.App().Generate(params)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return writeArtifacts(g, res)
}
