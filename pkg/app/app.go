// Package app wires the interlock pipeline together: module scripts or
// parameter sets in, STL artifacts out, with logging and metrics around
// every stage.
package app

import (
	"errors"
	"log/slog"
	"time"

	"github.com/chazu/interlock/pkg/engine"
	"github.com/chazu/interlock/pkg/export"
	"github.com/chazu/interlock/pkg/kernel"
	"github.com/chazu/interlock/pkg/kernel/sdfx"
	"github.com/chazu/interlock/pkg/metrics"
	"github.com/chazu/interlock/pkg/module"
	"github.com/chazu/interlock/pkg/part"
)

// Default artifact name hints for the two halves.
const (
	DefaultLowerName = "module1"
	DefaultUpperName = "module2"
)

// Generation outcomes reported to the metrics recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected" // parameters failed validation
	OutcomeFailed   = "failed"
)

// App runs generations. It holds no per-request state, so one App may
// serve concurrent callers as long as its kernel is stateless.
type App struct {
	engine    *engine.Engine
	kernel    kernel.Kernel
	log       *slog.Logger
	recorder  metrics.Recorder
	lowerName string
	upperName string
}

// Option configures an App.
type Option func(*App)

// WithKernel replaces the default sdfx kernel.
func WithKernel(k kernel.Kernel) Option { return func(a *App) { a.kernel = k } }

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *App) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithNames sets the artifact name hints of the lower and upper halves.
func WithNames(lower, upper string) Option {
	return func(a *App) { a.lowerName, a.upperName = lower, upper }
}

// New creates an App with an engine and the sdfx kernel.
func New(opts ...Option) *App {
	a := &App{
		engine:    engine.NewEngine(),
		kernel:    sdfx.New(),
		log:       slog.Default(),
		recorder:  metrics.NoopRecorder{},
		lowerName: DefaultLowerName,
		upperName: DefaultUpperName,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Result is the output of one generation.
type Result struct {
	Params    module.Params     `json:"params"`
	Lower     *part.Part        `json:"lower"`
	Upper     *part.Part        `json:"upper"`
	Artifacts []export.Artifact `json:"artifacts"` // lower first, then upper
}

// Generate validates p, builds the base, splits it and exports both
// halves. It returns nothing but the error if any stage fails.
func (a *App) Generate(p module.Params) (*Result, error) {
	start := time.Now()
	res, err := a.generate(p)

	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case isRejection(err):
		outcome = OutcomeRejected
	default:
		outcome = OutcomeFailed
	}
	a.recorder.IncGenerationOutcome(outcome)

	if err != nil {
		a.log.Debug("generation failed", slog.String("outcome", outcome), Kind(part.KindOf(err)), Error(err), Duration(time.Since(start)))
		return nil, err
	}
	a.log.Info("generation complete", slog.Int("artifacts", len(res.Artifacts)), Duration(time.Since(start)))
	return res, nil
}

func (a *App) generate(p module.Params) (*Result, error) {
	if err := a.stage(metrics.StageCheck, func() error { return module.Check(p) }); err != nil {
		return nil, err
	}

	var base *part.Part
	err := a.stage(metrics.StageBuild, func() (err error) {
		base, err = module.NewBuilder(a.kernel).BuildBase(p.Dims, p.Magnet)
		return err
	})
	if err != nil {
		return nil, err
	}

	var pair *module.Pair
	err = a.stage(metrics.StageSplit, func() (err error) {
		s := &module.Splitter{Kernel: a.kernel, Clearance: p.Clearance}
		pair, err = s.Split(base, p.SplitAt, p.Peg, p.Secondary)
		return err
	})
	if err != nil {
		return nil, err
	}

	var arts []export.Artifact
	err = a.stage(metrics.StageExport, func() (err error) {
		arts, err = export.New(a.kernel).Export(
			[]kernel.Solid{pair.Lower.Solid, pair.Upper.Solid},
			[]string{a.lowerName, a.upperName},
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, art := range arts {
		a.recorder.ObserveTriangles(art.Hint, art.Triangles)
		a.log.Debug("artifact ready", Part(art.Hint), Artifact(art.ID), Triangles(art.Triangles))
	}

	return &Result{Params: p, Lower: pair.Lower, Upper: pair.Upper, Artifacts: arts}, nil
}

// stage runs fn, recording its duration and result.
func (a *App) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)

	a.recorder.ObserveStageDuration(name, d)
	a.recorder.IncStageResult(name, metrics.Result(err))
	if err != nil {
		a.log.Debug("stage failed", Stage(name), Duration(d), Error(err))
		return err
	}
	a.log.Debug("stage complete", Stage(name), Duration(d))
	return nil
}

func isRejection(err error) bool {
	return errors.Is(err, part.ErrInvalidDimension) ||
		errors.Is(err, part.ErrInvalidSplit) ||
		errors.Is(err, part.ErrFeatureOverlap)
}

// ErrorData is a JSON-serializable script or generation error.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// EvalResult is the outcome of evaluating a module script.
type EvalResult struct {
	Result *Result     `json:"result,omitempty"`
	Errors []ErrorData `json:"errors"`
}

// Evaluate runs a module script and generates the module it describes.
// Script and generation problems are reported in Errors, never as a
// Go error, so callers can show them next to the source.
func (a *App) Evaluate(source string) EvalResult {
	out := EvalResult{Errors: []ErrorData{}}

	var (
		params   *module.Params
		evalErrs []engine.EvalError
	)
	err := a.stage(metrics.StageScript, func() (err error) {
		params, evalErrs, err = a.engine.Evaluate(source)
		if err == nil && len(evalErrs) > 0 {
			err = evalErrs[0]
		}
		return err
	})
	if err != nil {
		if len(evalErrs) == 0 {
			a.log.Debug("script evaluation aborted", Error(err))
			out.Errors = append(out.Errors, ErrorData{Message: err.Error()})
			return out
		}
		for _, e := range evalErrs {
			out.Errors = append(out.Errors, ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return out
	}

	res, err := a.Generate(*params)
	if err != nil {
		d := ErrorData{Message: err.Error()}
		if k := part.KindOf(err); k != part.KindUnknown {
			d.Kind = k.String()
		}
		out.Errors = append(out.Errors, d)
		return out
	}
	out.Result = res
	return out
}
