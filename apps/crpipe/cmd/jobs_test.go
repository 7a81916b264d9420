package cmd

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrokit/crpipe/pkg/artifact"
)

// memArtifactStore is an in-memory artifact.Store for exercising the jobs
// commands without an S3 endpoint.
type memArtifactStore struct {
	objects map[string][]byte
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{objects: make(map[string][]byte)}
}

func (s *memArtifactStore) Upload(ctx context.Context, key string, reader io.Reader, contentType string, metadata map[string]string) (*artifact.Artifact, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	s.objects[key] = data
	return &artifact.Artifact{Key: key, Size: int64(len(data)), ContentType: contentType, LastModified: time.Now(), Metadata: metadata}, nil
}

func (s *memArtifactStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, artifact.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memArtifactStore) List(ctx context.Context, prefix string) ([]*artifact.Artifact, error) {
	var out []*artifact.Artifact
	for key, data := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, &artifact.Artifact{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *memArtifactStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memArtifactStore) EnsureBucket(ctx context.Context) error { return nil }

var _ artifact.Store = (*memArtifactStore)(nil)

func seedJob(t *testing.T, store *memArtifactStore, jobID string) {
	t.Helper()
	ctx := context.Background()
	for name, body := range map[string]string{
		"job.json":   `{"id":"` + jobID + `","tool":"lacosmic"}`,
		"stdout.log": "cleaned 42 pixels\n",
		"stderr.log": "",
	} {
		_, err := store.Upload(ctx, artifact.JobKey(jobID, name), strings.NewReader(body), "text/plain", nil)
		require.NoError(t, err)
	}
}

func TestArchivedJobIDs(t *testing.T) {
	store := newMemArtifactStore()
	seedJob(t, store, "job-b")
	seedJob(t, store, "job-a")

	ids, err := archivedJobIDs(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-a", "job-b"}, ids)
}

func TestPrintArchivedJob(t *testing.T) {
	store := newMemArtifactStore()
	seedJob(t, store, "job-a")

	var buf bytes.Buffer
	require.NoError(t, printArchivedJob(context.Background(), store, &buf, "job-a"))

	out := buf.String()
	assert.Contains(t, out, `"tool":"lacosmic"`)
	assert.Contains(t, out, "cleaned 42 pixels")
	// Record first, logs after.
	assert.Less(t, strings.Index(out, "job.json"), strings.Index(out, "stdout.log"))

	err := printArchivedJob(context.Background(), store, &buf, "nonesuch")
	assert.Error(t, err)
}

func TestDeleteArchivedJob(t *testing.T) {
	store := newMemArtifactStore()
	seedJob(t, store, "job-a")
	seedJob(t, store, "job-b")

	n, err := deleteArchivedJob(context.Background(), store, "job-a")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err := archivedJobIDs(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-b"}, ids, "other jobs' diagnostics stay put")
}
