// Package metrics records build statistics. The pipeline only sees the
// Recorder interface; NoopRecorder is used when metrics are not requested.
package metrics

import "time"

// ResultLabel enumerates per-post result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for a generation run. Implementations
// must be safe for concurrent use by the worker pool.
type Recorder interface {
	ObservePostDuration(d time.Duration)
	IncPostResult(stage string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // outcome: clean|partial|aborted
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePostDuration(time.Duration) {}
func (NoopRecorder) IncPostResult(string, ResultLabel) {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) IncRunOutcome(string) {}
func (NoopRecorder) SetWorkers(int) {}
