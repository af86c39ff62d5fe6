package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "interlock"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	outcomes      *prom.CounterVec
	triangles     *prom.GaugeVec
}

// NewPrometheusRecorder constructs the collectors and registers them on
// reg. A nil reg gets a fresh registry, available from Registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generation_outcomes_total",
			Help:      "Generation requests by final status",
		}, []string{"outcome"}),
		triangles: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "mesh_triangles",
			Help:      "Triangle count of the last exported mesh per part",
		}, []string{"part"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.outcomes, pr.triangles)
	return pr
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncGenerationOutcome(outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveTriangles(part string, n int) {
	if p == nil || p.triangles == nil {
		return
	}
	p.triangles.WithLabelValues(part).Set(float64(n))
}

// WriteTextfile writes the gathered metrics to path in the Prometheus
// text exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
