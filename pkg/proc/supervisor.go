// Package proc supervises one external tool process per job: it spawns the
// child, polls it on a short fixed interval so a host event loop can stay
// responsive, enforces a wall-clock timeout by killing the child, and
// captures exit code and both output streams in full.
package proc

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/astrokit/crpipe/pkg/cerr"
	"github.com/astrokit/crpipe/pkg/clog"
)

// DefaultPollInterval is the gap between completion checks. Tens of
// milliseconds keeps the loop cheap while a UI stays responsive.
const DefaultPollInterval = 25 * time.Millisecond

// reapTimeout bounds the wait for Wait to come back after the process group
// is killed. The group kill closes the inherited output pipes, so this only
// trips if the kernel is slow to reap.
const reapTimeout = 2 * time.Second

// Result holds what a finished process left behind. Immutable once the
// process has terminated. A nonzero exit code is not an error here; the
// pipeline decides what to do with it.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// Supervisor runs one child process and waits for it cooperatively.
type Supervisor struct {
	// PollInterval overrides DefaultPollInterval when positive.
	PollInterval time.Duration
	// OnPoll, when set, is invoked once per poll tick. Hosts with their own
	// event queue hang servicing off this hook.
	OnPoll func()
	// Log receives debug/warn records. Nil means silent.
	Log *clog.Logger
}

// Run spawns argv[0] with the remaining arguments, waits for it to finish,
// and returns the captured Result. If the wall clock exceeds timeout the
// child is forcibly terminated and Run returns a timeout error with no
// Result. A child that cannot be started at all is a launch error. Context
// cancellation terminates the child the same way the timeout does.
func (s *Supervisor) Run(ctx context.Context, argv []string, timeout time.Duration) (*Result, error) {
	if len(argv) == 0 {
		return nil, cerr.Newf(cerr.CodeLaunch, "empty command")
	}
	log := s.Log
	if log == nil {
		log = clog.Nop()
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Own process group, so a kill reaches interpreter children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, cerr.Newf(cerr.CodeLaunch, "starting %s: %v", argv[0], err)
	}
	log.Debug("tool started", "command", argv[0], "pid", cmd.Process.Pid, "timeout", timeout)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case waitErr := <-done:
			elapsed := time.Since(start)
			res := &Result{
				ExitCode: exitCode(cmd, waitErr),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
				Elapsed:  elapsed,
			}
			log.Debug("tool finished", "exit_code", res.ExitCode, "elapsed", elapsed.Round(time.Millisecond))
			return res, nil

		case <-ticker.C:
			if s.OnPoll != nil {
				s.OnPoll()
			}
			if elapsed := time.Since(start); elapsed > timeout {
				s.kill(cmd, done, log)
				return nil, cerr.Newf(cerr.CodeTimeout,
					"tool exceeded %s budget (ran %s), process killed", timeout, elapsed.Round(time.Millisecond))
			}

		case <-ctx.Done():
			s.kill(cmd, done, log)
			return nil, cerr.New(cerr.CodeTimeout, ctx.Err())
		}
	}
}

// kill terminates the child's whole process group and reaps it so nothing
// stays in the process table after Run returns. Killing only the direct
// child is not enough: the interpreter forks helpers that inherit the
// output pipes, and Wait cannot return while any of them keeps a pipe open.
func (s *Supervisor) kill(cmd *exec.Cmd, done <-chan error, log *clog.Logger) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		if err := cmd.Process.Kill(); err != nil {
			log.Warn("failed to kill tool process", "pid", cmd.Process.Pid, "error", err)
		}
	}
	select {
	case <-done:
	case <-time.After(reapTimeout):
		log.Warn("tool process not reaped after kill", "pid", cmd.Process.Pid)
	}
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	if waitErr == nil && cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}
