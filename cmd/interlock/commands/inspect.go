package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/interlock/pkg/stl"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct {
	Files []string `arg:"" help:"STL files to inspect" type:"existingfile"`
	JSON  bool     `help:"Print one JSON object per file"`
}

type inspectLine struct {
	File string `json:"file"`
	stl.Stats
}

func (c *InspectCmd) Run(g *Global, _ *CLI) error {
	enc := json.NewEncoder(g.Out)
	for _, f := range c.Files {
		st, err := inspectFile(f)
		if err != nil {
			return err
		}
		if c.JSON {
			if err := enc.Encode(inspectLine{File: f, Stats: st}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(g.Out, "%s: %d triangles, volume %.3f mm^3, bounds [%.3f %.3f %.3f]..[%.3f %.3f %.3f]\n",
			f, st.Triangles, st.Volume,
			st.Min[0], st.Min[1], st.Min[2], st.Max[0], st.Max[1], st.Max[2])
	}
	return nil
}

func inspectFile(path string) (stl.Stats, error) {
	r, err := os.Open(path)
	if err != nil {
		return stl.Stats{}, err
	}
	defer r.Close()
	m, err := stl.Decode(r)
	if err != nil {
		return stl.Stats{}, fmt.Errorf("inspect %s: %w", path, err)
	}
	return stl.Analyze(m), nil
}
