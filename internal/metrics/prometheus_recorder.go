package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg          *prom.Registry
	postDuration prom.Histogram
	postResults  *prom.CounterVec
	runDuration  prom.Histogram
	runOutcome   *prom.CounterVec
	workers      prom.Gauge
}

// NewPrometheusRecorder constructs and registers the build metrics on reg, or
// on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		postDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "quire",
			Name:      "post_duration_seconds",
			Help:      "Duration of converting, rendering and writing one post",
			Buckets:   prom.DefBuckets,
		}),
		postResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "quire",
			Name:      "post_results_total",
			Help:      "Post results by the stage they ended in",
		}, []string{"stage", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "quire",
			Name:      "run_duration_seconds",
			Help:      "Total generation run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "quire",
			Name:      "run_outcomes_total",
			Help:      "Generation runs by final outcome",
		}, []string{"outcome"}),
		workers: prom.NewGauge(prom.GaugeOpts{
			Namespace: "quire",
			Name:      "workers",
			Help:      "Worker pool size of the last run",
		}),
	}
	reg.MustRegister(pr.postDuration, pr.postResults, pr.runDuration, pr.runOutcome, pr.workers)
	return pr
}

func (p *PrometheusRecorder) ObservePostDuration(d time.Duration) {
	p.postDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPostResult(stage string, result ResultLabel) {
	p.postResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetWorkers(n int) {
	p.workers.Set(float64(n))
}

// WriteTextfile dumps the registry to path in the text exposition format used
// by node_exporter's textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
