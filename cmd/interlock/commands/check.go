package commands

import (
	"fmt"

	"github.com/chazu/interlock/pkg/module"
	"github.com/chazu/interlock/pkg/part"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Overrides `embed:""`
}

func (c *CheckCmd) Run(g *Global, _ *CLI) error {
	params := c.Apply(g.Config.Params())
	if err := module.Check(params); err != nil {
		g.Logger.Error("Parameters rejected", "kind", part.KindOf(err).String(), "error", err)
		return err
	}
	fmt.Fprintln(g.Out, "ok")
	return nil
}
