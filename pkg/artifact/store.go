// Package artifact provides optional S3-compatible archival of job
// diagnostics. Temp files are always deleted when a job ends, so the
// captured stdout/stderr and the job record are the only durable trace of
// a run; sites that want that trace point the pipeline at a store and the
// diagnostics are uploaded before cleanup.
package artifact

import (
	"context"
	"io"
	"time"
)

// Artifact represents one stored object with metadata.
type Artifact struct {
	Key          string            `json:"key"`    // object key, e.g. "jobs/abc123/stderr.log"
	Bucket       string            `json:"bucket"` // bucket name
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata"`
}

// Store defines the interface for diagnostics storage.
type Store interface {
	// Upload stores data under key, which should come from JobKey.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, metadata map[string]string) (*Artifact, error)

	// Download retrieves an artifact by key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// List lists all artifacts with the given prefix, JobPrefix to list one
	// job's diagnostics.
	List(ctx context.Context, prefix string) ([]*Artifact, error)

	// Delete removes an artifact by key.
	Delete(ctx context.Context, key string) error

	// EnsureBucket ensures the bucket exists, creating it if necessary.
	EnsureBucket(ctx context.Context) error
}

// JobsRoot is the prefix under which all job diagnostics live.
const JobsRoot = "jobs/"

// JobPrefix returns the object prefix for one job's diagnostics.
func JobPrefix(jobID string) string {
	return JobsRoot + jobID + "/"
}

// JobKey returns the full object key for one diagnostic file.
func JobKey(jobID, filename string) string {
	return JobPrefix(jobID) + filename
}
