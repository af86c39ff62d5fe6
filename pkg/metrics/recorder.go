package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Pipeline stage names.
const (
	StageCheck  = "check"
	StageBuild  = "build"
	StageSplit  = "split"
	StageExport = "export"
	StageScript = "script"
)

// Recorder defines the observability hooks of one generation.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncGenerationOutcome(outcome string) // success | failed | rejected
	ObserveTriangles(part string, n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncGenerationOutcome(string)                {}
func (NoopRecorder) ObserveTriangles(string, int)               {}

// Result maps an error to a ResultLabel.
func Result(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
