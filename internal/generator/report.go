package generator

import (
	"fmt"
	"time"

	"github.com/andresfelipemendez/quire/internal/templates"
)

// Stage is the step of the per-post pipeline a failure happened in.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageRead     Stage = "read"
	StageConvert  Stage = "convert"
	StageRender   Stage = "render"
	StageWrite    Stage = "write"
)

// PostFailure records a post that was skipped.
type PostFailure struct {
	File  string
	Stage Stage
	Err   error
}

func (f PostFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.File, f.Stage, f.Err)
}

func (f PostFailure) Unwrap() error { return f.Err }

// DuplicateTargetError reports a source whose page name is already produced by
// an earlier source, such as a.MD next to a.md.
type DuplicateTargetError struct {
	Target string
	Owner  string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("page %s is already produced by %s", e.Target, e.Owner)
}

// DanglingLink is a wikilink whose target was not built in this run.
type DanglingLink struct {
	Post   string
	Target string
}

// Report summarizes a run.
type Report struct {
	RunID         string
	Discovered    int
	Converted     int
	Failures      []PostFailure
	Archive       []templates.ArchiveEntry
	DanglingLinks []DanglingLink
	Duration      time.Duration
}

// IndexError reports that the site index could not be rendered or written.
// Unlike per-post failures it ends the run.
type IndexError struct {
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("site index: %v", e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// Outcome is the three-valued result of a run.
type Outcome int

const (
	OutcomeClean Outcome = iota
	OutcomePartial
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomePartial:
		return "partial"
	default:
		return "aborted"
	}
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeClean:
		return 0
	case OutcomePartial:
		return 2
	default:
		return 1
	}
}

// Classify derives the outcome of a run from its report and fatal error.
func Classify(r *Report, err error) Outcome {
	switch {
	case err != nil || r == nil:
		return OutcomeAborted
	case len(r.Failures) > 0:
		return OutcomePartial
	default:
		return OutcomeClean
	}
}
