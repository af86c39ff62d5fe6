package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/interlock/pkg/app"
)

// ErrScriptFailed is returned when a script evaluates with errors.
var ErrScriptFailed = errors.New("script failed")

// ScriptCmd implements the 'script' command.
type ScriptCmd struct {
	File   string `arg:"" help:"Module script to evaluate" type:"existingfile"`
	Output string `short:"o" help:"Output directory (overrides export.out_dir)" type:"path"`
}

func (c *ScriptCmd) Run(g *Global, _ *CLI) error {
	if c.Output != "" {
		g.Config.Export.OutDir = c.Output
	}
	return runScript(g, g.App(), c.File)
}

// runScript evaluates file, reports its errors and writes the artifacts
// of a successful generation.
func runScript(g *Global, a *app.App, file string) error {
	src, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	res := a.Evaluate(string(src))
	if len(res.Errors) > 0 {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msg := e.Message
			if e.Line > 0 {
				msg = fmt.Sprintf("line %d: %s", e.Line, msg)
			}
			msgs = append(msgs, msg)
		}
		return fmt.Errorf("%w: %s: %s", ErrScriptFailed, file, strings.Join(msgs, "; "))
	}
	return writeArtifacts(g, res.Result)
}
