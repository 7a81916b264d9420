// Package tmpfile produces collision-resistant temporary file paths and
// tracks them so a job can guarantee their removal on every exit path.
package tmpfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Allocate returns a path inside dir combining a millisecond timestamp and a
// random UUID fragment, so concurrent jobs allocating in the same millisecond
// still get distinct paths. It never creates or inspects the file; the caller
// writes to it and the owning Tracker removes it. An empty dir means the
// system temp directory.
func Allocate(dir, tag, ext string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	ext = strings.TrimPrefix(ext, ".")
	name := fmt.Sprintf("%s_%d_%s.%s", tag, time.Now().UnixMilli(), shortID(), ext)
	return filepath.Join(dir, name)
}

// AllocateDir returns a unique directory path inside dir, named the same way
// as Allocate. The caller is responsible for creating it.
func AllocateDir(dir, tag string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	name := fmt.Sprintf("%s_%d_%s", tag, time.Now().UnixMilli(), shortID())
	return filepath.Join(dir, name)
}

func shortID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
