package tmpfile

import (
	"os"
	"sync"

	"github.com/astrokit/crpipe/pkg/clog"
)

// State is the lifecycle position of one tracked artifact.
type State string

const (
	StateCreated  State = "created"
	StateConsumed State = "consumed"
	StateRemoved  State = "removed"
)

// Artifact is a path plus its lifecycle flag. Artifacts are owned by exactly
// one Tracker and only that Tracker deletes them.
type Artifact struct {
	Path  string
	IsDir bool
	State State
}

// Tracker records every temp artifact a job creates. CleanupAll must run
// exactly once per job on every exit path; callers defer it right after the
// Tracker is constructed.
type Tracker struct {
	mu        sync.Mutex
	artifacts []*Artifact
	done      bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Add registers a file path for removal at cleanup time.
func (t *Tracker) Add(path string) *Artifact {
	return t.add(path, false)
}

// AddDir registers a directory for recursive removal at cleanup time.
func (t *Tracker) AddDir(path string) *Artifact {
	return t.add(path, true)
}

func (t *Tracker) add(path string, isDir bool) *Artifact {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := &Artifact{Path: path, IsDir: isDir, State: StateCreated}
	t.artifacts = append(t.artifacts, a)
	return a
}

// Consume marks an artifact as read back by the job. Purely informational;
// consumed artifacts are still removed at cleanup.
func (t *Tracker) Consume(a *Artifact) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if a.State == StateCreated {
		a.State = StateConsumed
	}
}

// Artifacts returns a snapshot of the tracked artifacts.
func (t *Tracker) Artifacts() []*Artifact {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Artifact, len(t.artifacts))
	copy(out, t.artifacts)
	return out
}

// CleanupAll attempts to remove every tracked artifact. A removal failure is
// downgraded to a warning and does not block removal of the remaining
// artifacts; the job's original outcome is never masked by cleanup. Calling
// CleanupAll more than once is a no-op after the first call.
func (t *Tracker) CleanupAll(log *clog.Logger) {
	if log == nil {
		log = clog.Nop()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true

	for _, a := range t.artifacts {
		if a.State == StateRemoved {
			continue
		}
		var err error
		if a.IsDir {
			err = os.RemoveAll(a.Path)
		} else {
			err = os.Remove(a.Path)
		}
		if err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove temp artifact", "path", a.Path, "error", err)
			continue
		}
		a.State = StateRemoved
	}
}

// AllRemoved reports whether every tracked artifact reached the removed
// state. Jobs assert this before reporting their outcome.
func (t *Tracker) AllRemoved() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range t.artifacts {
		if a.State != StateRemoved {
			return false
		}
	}
	return true
}
