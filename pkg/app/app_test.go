package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/interlock/pkg/kernel/sdfx"
	"github.com/chazu/interlock/pkg/metrics"
	"github.com/chazu/interlock/pkg/module"
	"github.com/chazu/interlock/pkg/part"
	"github.com/chazu/interlock/pkg/stl"
)

// testRecorder counts recorder calls.
type testRecorder struct {
	mu             sync.Mutex
	stageDurations map[string]int
	stageResults   map[string]map[metrics.ResultLabel]int
	outcomes       map[string]int
	triangles      map[string]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[metrics.ResultLabel]int{},
		outcomes:       map[string]int{},
		triangles:      map[string]int{},
	}
}

func (r *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stageDurations[stage]++
}

func (r *testRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.stageResults[stage]
	if !ok {
		m = map[metrics.ResultLabel]int{}
		r.stageResults[stage] = m
	}
	m[result]++
}

func (r *testRecorder) IncGenerationOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *testRecorder) ObserveTriangles(part string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triangles[part] = n
}

func newTestApp(t *testing.T, opts ...Option) (*App, *testRecorder, *bytes.Buffer) {
	t.Helper()
	rec := newTestRecorder()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := []Option{WithKernel(sdfx.NewWithCells(32)), WithRecorder(rec), WithLogger(logger)}
	return New(append(base, opts...)...), rec, &logs
}

// TestGenerateDefaults runs the whole pipeline on the default parameters.
func TestGenerateDefaults(t *testing.T) {
	a, rec, logs := newTestApp(t)

	res, err := a.Generate(module.DefaultParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(res.Artifacts))
	}

	for i, hint := range []string{DefaultLowerName, DefaultUpperName} {
		art := res.Artifacts[i]
		if art.Hint != hint {
			t.Errorf("artifact %d hint = %q, want %q", i, art.Hint, hint)
		}
		m, err := stl.DecodeBytes(art.Data)
		if err != nil {
			t.Fatalf("artifact %s does not decode: %v", art.ID, err)
		}
		if m.TriangleCount() != art.Triangles || art.Triangles == 0 {
			t.Errorf("artifact %s: %d decoded triangles, %d reported", art.ID, m.TriangleCount(), art.Triangles)
		}
		if art.Volume <= 0 {
			t.Errorf("artifact %s volume = %f", art.ID, art.Volume)
		}
	}
	if res.Lower.Name != module.LowerName || res.Upper.Name != module.UpperName {
		t.Errorf("part names = %s, %s", res.Lower.Name, res.Upper.Name)
	}

	for _, stage := range []string{metrics.StageCheck, metrics.StageBuild, metrics.StageSplit, metrics.StageExport} {
		if rec.stageResults[stage][metrics.ResultSuccess] != 1 {
			t.Errorf("stage %s: results %v", stage, rec.stageResults[stage])
		}
	}
	if rec.outcomes[OutcomeSuccess] != 1 {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
	if rec.triangles[DefaultLowerName] == 0 || rec.triangles[DefaultUpperName] == 0 {
		t.Errorf("triangles = %v", rec.triangles)
	}
	if !strings.Contains(logs.String(), "stage=split") {
		t.Errorf("expected split stage in logs:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "part="+DefaultLowerName) {
		t.Errorf("expected per-part artifact logs:\n%s", logs.String())
	}
}

func TestGenerateRejected(t *testing.T) {
	a, rec, logs := newTestApp(t)
	p := module.DefaultParams()
	p.SplitAt = 30

	res, err := a.Generate(p)
	if res != nil {
		t.Error("expected no result")
	}
	if !errors.Is(err, part.ErrInvalidSplit) {
		t.Fatalf("err = %v, want InvalidSplit", err)
	}
	if rec.outcomes[OutcomeRejected] != 1 {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
	if rec.stageResults[metrics.StageCheck][metrics.ResultFailed] != 1 {
		t.Errorf("check stage results = %v", rec.stageResults[metrics.StageCheck])
	}
	if rec.stageDurations[metrics.StageBuild] != 0 {
		t.Error("build stage ran after a rejected check")
	}
	// The caller owns reporting the returned error.
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("rejection logged at error level:\n%s", logs.String())
	}
}

func TestWithNames(t *testing.T) {
	a, _, _ := newTestApp(t, WithNames("bottom", "top"))
	res, err := a.Generate(module.DefaultParams())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Artifacts[0].Hint != "bottom" || res.Artifacts[1].Hint != "top" {
		t.Errorf("hints = %s, %s", res.Artifacts[0].Hint, res.Artifacts[1].Hint)
	}
}

// TestEvaluateScript exercises script -> params -> geometry -> STL.
func TestEvaluateScript(t *testing.T) {
	a, rec, _ := newTestApp(t)

	out := a.Evaluate(`
(interlock :size (vec3 24 24 20)
           :magnet (socket :diameter 4 :depth 2)
           :peg (peg :diameter 3 :length 4)
           :secondary (socket :diameter 4 :depth 2))`)
	if len(out.Errors) > 0 {
		for _, e := range out.Errors {
			t.Errorf("error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if out.Result == nil || len(out.Result.Artifacts) != 2 {
		t.Fatalf("unexpected result %+v", out.Result)
	}
	if out.Result.Params.SplitAt != 10 {
		t.Errorf("split = %g, want 10", out.Result.Params.SplitAt)
	}
	if rec.stageResults[metrics.StageScript][metrics.ResultSuccess] != 1 {
		t.Errorf("script stage results = %v", rec.stageResults[metrics.StageScript])
	}
}

func TestEvaluateResultJSON(t *testing.T) {
	a, _, _ := newTestApp(t)
	out := a.Evaluate("(interlock :size 20 :secondary (socket :diameter 3 :depth 2))")
	if len(out.Errors) > 0 {
		t.Fatalf("errors: %v", out.Errors)
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"hint":"module1"`) || !strings.Contains(s, `"mount":0`) {
		t.Errorf("unexpected JSON: %.300s", s)
	}
	if strings.Contains(s, `"Data"`) {
		t.Error("artifact bytes must not be serialized")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	a, _, _ := newTestApp(t)
	out := a.Evaluate("(interlock :size 30")

	if len(out.Errors) == 0 {
		t.Fatal("expected errors for syntax error")
	}
	if out.Result != nil {
		t.Error("expected no result on error")
	}
}

// TestExampleScript evaluates the script shipped in examples/.
func TestExampleScript(t *testing.T) {
	source, err := os.ReadFile("../../examples/magnet_cube.lisp")
	if err != nil {
		t.Fatalf("failed to read example: %v", err)
	}

	a, _, _ := newTestApp(t)
	out := a.Evaluate(string(source))
	if len(out.Errors) > 0 {
		t.Fatalf("errors: %v", out.Errors)
	}
	if out.Result.Params != module.DefaultParams() {
		t.Errorf("example params = %+v, want defaults", out.Result.Params)
	}
}
