// Package pipeline composes the whole orchestration: allocate temp paths,
// export the target image, build the tool command, supervise the child
// process, load the result back, apply it to the host, and clean up every
// temp artifact on every exit path.
package pipeline

import (
	"time"

	"github.com/astrokit/crpipe/pkg/cerr"
	"github.com/astrokit/crpipe/pkg/host"
	"github.com/astrokit/crpipe/pkg/params"
	"github.com/astrokit/crpipe/pkg/proc"
	"github.com/astrokit/crpipe/pkg/tool"
)

// Status is the execution state of a Job.
type Status string

const (
	StatusPending       Status = "pending"
	StatusExporting     Status = "exporting"
	StatusRunning       Status = "running"
	StatusLoadingResult Status = "loading_result"
	StatusApplying      Status = "applying"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// ApplyMode selects what happens to the loaded result.
type ApplyMode string

const (
	// ApplyReplace mutates the target document in place, atomically.
	ApplyReplace ApplyMode = "replace"
	// ApplyNewDocument leaves the target untouched and presents the result
	// as a new, independent document.
	ApplyNewDocument ApplyMode = "new_document"
)

// Request describes one pipeline execution against one target.
type Request struct {
	Target  *host.Document
	Tool    *tool.Tool
	Params  *params.Set // nil means the tool's defaults
	Mode    ApplyMode   // empty means ApplyReplace
	Timeout time.Duration
}

// Job is the runtime record of one execution. It lives for exactly one run
// and owns its temp artifacts exclusively.
type Job struct {
	ID          string        `json:"id"`
	Tool        string        `json:"tool"`
	TargetID    string        `json:"target_id"`
	TargetName  string        `json:"target_name"`
	Status      Status        `json:"status"`
	FailureKind cerr.Code     `json:"failure_kind,omitempty"`
	InputPath   string        `json:"input_path,omitempty"`
	OutputDir   string        `json:"output_dir,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	ExitCode    *int          `json:"exit_code,omitempty"`
	Elapsed     time.Duration `json:"elapsed,omitempty"`
}

// Outcome is what a finished job reports to its caller. By the time the
// caller sees it, every temp artifact is gone; the captured process output
// is the only diagnostic trace.
type Outcome struct {
	Job         *Job
	Process     *proc.Result // nil when the tool never produced a result (timeout, launch failure)
	AppliedDoc  *host.Document
	MaskDoc     *host.Document
	FailureKind cerr.Code // empty on success
}

// Succeeded reports whether the job reached Completed.
func (o *Outcome) Succeeded() bool {
	return o.Job != nil && o.Job.Status == StatusCompleted
}
