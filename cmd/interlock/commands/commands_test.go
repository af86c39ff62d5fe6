package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/interlock/pkg/config"
	"github.com/chazu/interlock/pkg/metrics"
	"github.com/chazu/interlock/pkg/module"
	"github.com/chazu/interlock/pkg/part"
)

func testGlobal(t *testing.T) (*Global, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Export.OutDir = t.TempDir()
	cfg.Export.MeshCells = 32
	out := &bytes.Buffer{}
	return &Global{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   cfg,
		Recorder: metrics.NewPrometheusRecorder(nil),
		Out:      out,
	}, out
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func float(v float64) *float64 { return &v }

func TestOverridesApply(t *testing.T) {
	base := module.DefaultParams()

	assert.Equal(t, base, Overrides{}.Apply(base))

	p := Overrides{SizeX: float(40), Clearance: float(0.2)}.Apply(base)
	assert.Equal(t, 40.0, p.Dims.X)
	assert.Equal(t, 0.2, p.Clearance)
	assert.Equal(t, base.SplitAt, p.SplitAt)

	p = Overrides{SizeZ: float(40)}.Apply(base)
	assert.Equal(t, 20.0, p.SplitAt, "height change re-centers the split")

	p = Overrides{SizeZ: float(40), SplitAt: float(12)}.Apply(base)
	assert.Equal(t, 12.0, p.SplitAt)
}

func TestParseGenerateFlags(t *testing.T) {
	cli, ctx := parse(t, "generate", "--size-x", "40", "--clearance", "0.1", "-o", "build")
	assert.Equal(t, "generate", ctx.Command())
	require.NotNil(t, cli.Generate.SizeX)
	assert.Equal(t, 40.0, *cli.Generate.SizeX)
	require.NotNil(t, cli.Generate.Clearance)
	assert.Equal(t, 0.1, *cli.Generate.Clearance)
	assert.Nil(t, cli.Generate.SizeY)
	assert.True(t, strings.HasSuffix(cli.Generate.Output, "build"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, false, &buf)
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])

	buf.Reset()
	l, err = NewLogger(config.LoggingConfig{Level: "error", Format: "text"}, true, &buf)
	require.NoError(t, err)
	l.Debug("verbose wins")
	assert.Contains(t, buf.String(), "verbose wins")

	_, err = NewLogger(config.LoggingConfig{Level: "loud"}, false, &buf)
	assert.Error(t, err)
}

func TestCheckCmd(t *testing.T) {
	g, out := testGlobal(t)
	require.NoError(t, (&CheckCmd{}).Run(g, nil))
	assert.Equal(t, "ok\n", out.String())

	err := (&CheckCmd{Overrides: Overrides{SplitAt: float(30)}}).Run(g, nil)
	assert.ErrorIs(t, err, part.ErrInvalidSplit)
}

func TestGenerateAndInspect(t *testing.T) {
	g, out := testGlobal(t)
	require.NoError(t, (&GenerateCmd{}).Run(g, nil))

	paths := strings.Fields(out.String())
	require.Len(t, paths, 2)
	for i, prefix := range []string{"module1-", "module2-"} {
		assert.Equal(t, g.Config.Export.OutDir, filepath.Dir(paths[i]))
		assert.True(t, strings.HasPrefix(filepath.Base(paths[i]), prefix), paths[i])
	}

	out.Reset()
	require.NoError(t, (&InspectCmd{Files: paths, JSON: true}).Run(g, nil))
	dec := json.NewDecoder(out)
	for range paths {
		var line struct {
			File      string     `json:"file"`
			Triangles int        `json:"triangles"`
			Volume    float64    `json:"volume"`
			Max       [3]float64 `json:"max"`
		}
		require.NoError(t, dec.Decode(&line))
		assert.Positive(t, line.Triangles)
		assert.Positive(t, line.Volume)
		assert.InDelta(t, 15, line.Max[0], 1.5)
	}
}

func TestGenerateRejected(t *testing.T) {
	g, out := testGlobal(t)
	err := (&GenerateCmd{Overrides: Overrides{PegDiameter: float(30)}}).Run(g, nil)
	assert.ErrorIs(t, err, part.ErrInvalidDimension)
	assert.Empty(t, out.String())
}

func TestInspectRejectsGarbage(t *testing.T) {
	g, _ := testGlobal(t)
	bad := filepath.Join(t.TempDir(), "bad.stl")
	require.NoError(t, os.WriteFile(bad, []byte("not an stl"), 0o644))
	assert.Error(t, (&InspectCmd{Files: []string{bad}}).Run(g, nil))
}

func TestScriptCmd(t *testing.T) {
	g, out := testGlobal(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.lisp")
	require.NoError(t, os.WriteFile(good, []byte(`(interlock :size (vec3 20 20 20))`), 0o644))
	require.NoError(t, (&ScriptCmd{File: good}).Run(g, nil))
	assert.Len(t, strings.Fields(out.String()), 2)

	bad := filepath.Join(dir, "bad.lisp")
	require.NoError(t, os.WriteFile(bad, []byte(`(interlock :size (vec3 20 20 20)`), 0o644))
	assert.ErrorIs(t, (&ScriptCmd{File: bad}).Run(g, nil), ErrScriptFailed)

	rejected := filepath.Join(dir, "rejected.lisp")
	require.NoError(t, os.WriteFile(rejected, []byte(`(interlock :split-at 40)`), 0o644))
	err := (&ScriptCmd{File: rejected}).Run(g, nil)
	assert.ErrorIs(t, err, ErrScriptFailed)
	assert.Contains(t, err.Error(), "InvalidSplit", "the returned error carries the full report")
}

func TestFinishWritesMetrics(t *testing.T) {
	g, _ := testGlobal(t)
	g.Recorder.IncGenerationOutcome("success")

	path := filepath.Join(t.TempDir(), "interlock.prom")
	cli := &CLI{MetricsFile: path}
	require.NoError(t, cli.Finish(g))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interlock_generation_outcomes_total")

	assert.NoError(t, (&CLI{}).Finish(g))
}

func TestDebouncer(t *testing.T) {
	ch, trigger := debouncer(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		trigger()
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("debounced trigger never fired")
	}
	select {
	case <-ch:
		t.Fatal("burst fired more than once")
	case <-time.After(60 * time.Millisecond):
	}
}
