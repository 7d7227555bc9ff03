package logfields

import "log/slog"

// Canonical log field names shared by the pipeline and the CLI.
const (
	KeyRunID      = "run_id"
	KeyRoot       = "root"
	KeyPost       = "post"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyWorkers    = "workers"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Root(p string) slog.Attr         { return slog.String(KeyRoot, p) }
func Post(name string) slog.Attr      { return slog.String(KeyPost, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
