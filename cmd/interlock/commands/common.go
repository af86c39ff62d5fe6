package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/chazu/interlock/pkg/app"
	"github.com/chazu/interlock/pkg/config"
	"github.com/chazu/interlock/pkg/export"
	"github.com/chazu/interlock/pkg/kernel/sdfx"
	"github.com/chazu/interlock/pkg/metrics"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger   *slog.Logger
	Config   *config.Config
	Recorder *metrics.PrometheusRecorder
	Out      io.Writer
}

// App returns an App configured from the loaded configuration.
func (g *Global) App() *app.App {
	return app.New(
		app.WithKernel(sdfx.NewWithCells(g.Config.Export.MeshCells)),
		app.WithLogger(g.Logger),
		app.WithRecorder(g.Recorder),
		app.WithNames(g.Config.Export.LowerName, g.Config.Export.UpperName),
	)
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (optional)" type:"path"`
	EnvFile     []string         `name:"env-file" help:"Dotenv files to load before reading the environment" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this file on exit" type:"path"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Generate the interlocking pair from configuration and flags"`
	Script   ScriptCmd   `cmd:"" help:"Evaluate a module script and write its STL files"`
	Check    CheckCmd    `cmd:"" help:"Validate parameters without building geometry"`
	Inspect  InspectCmd  `cmd:"" help:"Print triangle count, volume and bounds of STL files"`
	Watch    WatchCmd    `cmd:"" help:"Re-evaluate a module script whenever it changes"`
}

// Setup loads the configuration and builds the logger and recorder.
func Setup(c *CLI, out io.Writer) (*Global, error) {
	cfg, err := config.Load(c.Config, c.EnvFile...)
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Logging, c.Verbose, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return &Global{
		Logger:   logger,
		Config:   cfg,
		Recorder: metrics.NewPrometheusRecorder(nil),
		Out:      out,
	}, nil
}

// Finish flushes metrics when --metrics-file is set.
func (c *CLI) Finish(g *Global) error {
	if c.MetricsFile == "" || g == nil {
		return nil
	}
	if err := g.Recorder.WriteTextfile(c.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	g.Logger.Debug("metrics written", "path", c.MetricsFile)
	return nil
}

// NewLogger builds the process logger. Verbose forces debug level.
func NewLogger(lc config.LoggingConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// writeArtifacts writes a generation's artifacts into the configured
// output directory and reports each path.
func writeArtifacts(g *Global, res *app.Result) error {
	paths, err := export.WriteFiles(g.Config.Export.OutDir, res.Artifacts)
	if err != nil {
		return err
	}
	for i, p := range paths {
		a := res.Artifacts[i]
		g.Logger.Info("wrote artifact", app.Artifact(a.ID), app.Triangles(a.Triangles), "path", p)
		fmt.Fprintln(g.Out, p)
	}
	return nil
}
