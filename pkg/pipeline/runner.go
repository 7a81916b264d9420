package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/astrokit/crpipe/pkg/artifact"
	"github.com/astrokit/crpipe/pkg/cerr"
	"github.com/astrokit/crpipe/pkg/clog"
	"github.com/astrokit/crpipe/pkg/host"
	"github.com/astrokit/crpipe/pkg/imageio"
	"github.com/astrokit/crpipe/pkg/kv"
	"github.com/astrokit/crpipe/pkg/params"
	"github.com/astrokit/crpipe/pkg/proc"
	"github.com/astrokit/crpipe/pkg/tmpfile"
	"github.com/astrokit/crpipe/pkg/tool"
)

// DefaultTimeout bounds a run when neither the request nor the tool table
// sets a budget.
const DefaultTimeout = 10 * time.Minute

// lockGrace pads the target-lock TTL past the execution budget so a crashed
// process cannot wedge its target forever.
const lockGrace = time.Minute

// Runner executes jobs. One Runner serves many sequential jobs; each job is
// created for a single run and discarded afterwards.
type Runner struct {
	Workspace   *host.Workspace
	Tools       *tool.Registry
	Presets     *params.PresetStore
	Locks       kv.Store       // target locks; required
	Supervisor  *proc.Supervisor
	Diagnostics artifact.Store // optional archive of stdout/stderr/job record
	ToolsDir    string         // directory holding the tool scripts
	Interpreter string         // resolved via tool.ResolveInterpreter when empty
	TempDir     string         // empty means the system temp directory
	Timeout     time.Duration  // default budget when a request sets none
	Log         *clog.Logger
}

// Run executes one job through the full state machine:
//
//	pending → exporting → running → loading_result → applying → completed
//
// with failed as the terminal state of every unhappy path.
// Every failure is terminal for the job; there are no retries. Cleanup of
// all temp artifacts runs exactly once on every exit path before the
// outcome reaches the caller, and the target lock is released after that.
// On failure the returned Outcome still carries the job record and any
// captured process output; the error's code names the failure kind.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	log := r.Log
	if log == nil {
		log = clog.Nop()
	}

	job := &Job{
		ID:         uuid.NewString(),
		Tool:       req.Tool.Name,
		TargetID:   req.Target.ID(),
		TargetName: req.Target.Name(),
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}

	set := req.Params
	if set == nil {
		set = req.Tool.Schema.NewSet()
	}
	mode := req.Mode
	if mode == "" {
		mode = ApplyReplace
	}
	timeout := req.Timeout
	if timeout <= 0 {
		if req.Tool.Timeout > 0 {
			timeout = time.Duration(req.Tool.Timeout) * time.Millisecond
		} else if r.Timeout > 0 {
			timeout = r.Timeout
		} else {
			timeout = DefaultTimeout
		}
	}

	// One job per target: the lock outlives the budget by a grace period
	// only, so a crashed process cannot wedge its target forever.
	lock, acquired, err := kv.AcquireTarget(ctx, r.Locks, req.Target.ID(), job.ID, timeout+lockGrace)
	if err != nil {
		return r.fail(ctx, job, nil, cerr.New(cerr.CodeConflict, err))
	}
	if !acquired {
		return r.fail(ctx, job, nil, cerr.Newf(cerr.CodeConflict,
			"target %s (%s) is already owned by another job", job.TargetName, job.TargetID))
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release target lock", "target", job.TargetID, "error", err)
		}
	}()

	tracker := tmpfile.NewTracker()
	defer tracker.CleanupAll(log)

	// Validate before anything exists on disk or any process is spawned.
	// Normalization first, so dependent parameters are judged and used at
	// their effective values.
	if req.Tool.Normalize != nil {
		req.Tool.Normalize(set)
	}
	if err := set.Validate(); err != nil {
		return r.fail(ctx, job, nil, err)
	}
	interp := r.Interpreter
	if interp == "" {
		if interp, err = tool.ResolveInterpreter(nil); err != nil {
			return r.fail(ctx, job, nil, err)
		}
	}

	// Pending → Exporting: materialize the input temp file.
	job.Status = StatusExporting
	inputPath := tmpfile.Allocate(r.TempDir, "crpipe_"+req.Tool.Name, req.Tool.ExportFormat)
	inputArtifact := tracker.Add(inputPath)
	if err := imageio.Save(req.Target.Image(), inputPath); err != nil {
		return r.fail(ctx, job, nil, cerr.New(cerr.CodeExport, err))
	}
	job.InputPath = inputPath

	outputDir := tmpfile.AllocateDir(r.TempDir, "crpipe_out")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return r.fail(ctx, job, nil, cerr.New(cerr.CodeExport, err))
	}
	tracker.AddDir(outputDir)
	job.OutputDir = outputDir

	// Exporting → Running: build the real command and supervise the tool.
	argv, err := tool.BuildArgv(req.Tool, inputPath, outputDir, set)
	if err != nil {
		return r.fail(ctx, job, nil, err)
	}
	script := argv[0]
	if r.ToolsDir != "" && !filepath.IsAbs(script) {
		script = filepath.Join(r.ToolsDir, script)
	}
	full := append([]string{interp, script}, argv[1:]...)

	job.Status = StatusRunning
	log.Info("launching tool", "job", job.ID, "tool", req.Tool.Name, "target", job.TargetName, "timeout", timeout)
	sup := r.Supervisor
	if sup == nil {
		sup = &proc.Supervisor{Log: log}
	}
	res, err := sup.Run(ctx, full, timeout)
	if err != nil {
		return r.fail(ctx, job, nil, err)
	}

	// Exit-code gating: a nonzero exit never reaches the result loader.
	if res.ExitCode != 0 {
		return r.fail(ctx, job, res, cerr.Newf(cerr.CodeProcessFailure,
			"tool %s exited with code %d after %s: %s",
			req.Tool.Name, res.ExitCode, res.Elapsed.Round(time.Millisecond), stderrTail(res.Stderr)))
	}

	// Running → LoadingResult: read back everything before touching the
	// target, so a mask failure cannot leave a half-applied job.
	job.Status = StatusLoadingResult
	outPath := tool.OutputPath(req.Tool, inputPath, outputDir, set)
	outArtifact := tracker.Add(outPath)
	result, err := imageio.Load(outPath)
	if err != nil {
		return r.fail(ctx, job, res, err)
	}
	tracker.Consume(outArtifact)
	tracker.Consume(inputArtifact)

	var maskImg image.Image
	if req.Tool.WantsMask(set) {
		maskPath := tool.MaskPath(req.Tool, inputPath, outputDir, set)
		maskArtifact := tracker.Add(maskPath)
		if maskImg, err = imageio.Load(maskPath); err != nil {
			return r.fail(ctx, job, res, err)
		}
		tracker.Consume(maskArtifact)
	}

	// LoadingResult → Applying: commit into the host model.
	job.Status = StatusApplying
	outcome := &Outcome{Job: job, Process: res}
	switch mode {
	case ApplyReplace:
		update, err := req.Target.BeginUpdate()
		if err != nil {
			return r.fail(ctx, job, res, cerr.New(cerr.CodeConflict, err))
		}
		defer update.Abort()
		if err := update.Commit(result); err != nil {
			return r.fail(ctx, job, res, cerr.New(cerr.CodeConflict, err))
		}
		outcome.AppliedDoc = req.Target
	case ApplyNewDocument:
		name := job.TargetName + tool.ExpandedOutputSuffix(req.Tool, set)
		outcome.AppliedDoc = r.Workspace.NewDocument(name, result)
	default:
		return r.fail(ctx, job, res, cerr.Newf(cerr.CodeValidation, "unknown apply mode %q", mode))
	}

	if maskImg != nil {
		maskName := job.TargetName + tool.ExpandedMaskSuffix(req.Tool, set)
		outcome.MaskDoc = r.Workspace.NewDocument(maskName, maskImg)
	}

	now := time.Now()
	job.FinishedAt = &now
	job.Status = StatusCompleted
	ec := res.ExitCode
	job.ExitCode = &ec
	job.Elapsed = res.Elapsed

	r.archive(ctx, job, res)
	log.Info("job completed", "job", job.ID, "tool", req.Tool.Name,
		"elapsed", res.Elapsed.Round(time.Millisecond), "mask", outcome.MaskDoc != nil)
	return outcome, nil
}

// RunPreset is the non-interactive entry point: a previously persisted
// parameter set replayed against a target, same state machine, same
// cleanup guarantee.
func (r *Runner) RunPreset(ctx context.Context, target *host.Document, toolName, presetName string, mode ApplyMode, timeout time.Duration) (*Outcome, error) {
	t, err := r.Tools.Lookup(toolName)
	if err != nil {
		return nil, cerr.New(cerr.CodeValidation, err)
	}
	set, err := r.Presets.Load(presetName, t.Schema)
	if err != nil {
		return nil, cerr.New(cerr.CodeValidation, err)
	}
	return r.Run(ctx, Request{Target: target, Tool: t, Params: set, Mode: mode, Timeout: timeout})
}

// fail finalizes a job in Failed(kind) and returns the coded error. The
// deferred tracker cleanup and lock release run after this, before the
// caller sees anything.
func (r *Runner) fail(ctx context.Context, job *Job, res *proc.Result, err error) (*Outcome, error) {
	now := time.Now()
	job.FinishedAt = &now
	job.Status = StatusFailed
	job.FailureKind = cerr.CodeOf(err)
	if res != nil {
		ec := res.ExitCode
		job.ExitCode = &ec
		job.Elapsed = res.Elapsed
	}
	r.archive(ctx, job, res)
	if r.Log != nil {
		r.Log.Error("job failed", "job", job.ID, "tool", job.Tool, "kind", string(job.FailureKind), "error", err)
	}
	return &Outcome{Job: job, Process: res, FailureKind: job.FailureKind}, err
}

// archive uploads the job record and captured output to the diagnostics
// store, when one is configured. Temp files are gone once the job ends, so
// this is the only durable trace; archive failures are warnings and never
// change the job's outcome.
func (r *Runner) archive(ctx context.Context, job *Job, res *proc.Result) {
	if r.Diagnostics == nil {
		return
	}
	log := r.Log
	if log == nil {
		log = clog.Nop()
	}
	ctx = context.WithoutCancel(ctx)
	meta := map[string]string{"job_id": job.ID, "tool": job.Tool}

	record, err := json.MarshalIndent(job, "", "  ")
	if err == nil {
		if _, err = r.Diagnostics.Upload(ctx, artifact.JobKey(job.ID, "job.json"),
			strings.NewReader(string(record)), "application/json", meta); err != nil {
			log.Warn("failed to archive job record", "job", job.ID, "error", err)
		}
	}
	if res == nil {
		return
	}
	for name, body := range map[string]string{"stdout.log": res.Stdout, "stderr.log": res.Stderr} {
		if _, err := r.Diagnostics.Upload(ctx, artifact.JobKey(job.ID, name),
			strings.NewReader(body), "text/plain", meta); err != nil {
			log.Warn("failed to archive tool output", "job", job.ID, "file", name, "error", err)
		}
	}
}

// stderrTail keeps error messages diagnosable without dumping megabytes of
// tool chatter into them.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no stderr)"
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
