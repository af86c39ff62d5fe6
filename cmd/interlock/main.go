// Command interlock generates magnet-socketed blocks split into an
// interlocking peg and socket pair, and writes both halves as STL.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/chazu/interlock/cmd/interlock/commands"
)

var version = "dev"

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("interlock"),
		kong.Description("Build interlocking magnet modules and export them as STL."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	g, err := commands.Setup(&cli, os.Stdout)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	runErr := ctx.Run(g, &cli)
	if err := cli.Finish(g); err != nil {
		g.Logger.Warn("Failed to write metrics", "error", err)
	}
	if runErr != nil {
		g.Logger.Error("Command failed", "command", ctx.Command(), "error", runErr)
		os.Exit(1)
	}
}
