package tmpfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		p := Allocate(t.TempDir(), "crpipe_input", "tif")
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
}

func TestAllocate_NeverTouchesDisk(t *testing.T) {
	dir := t.TempDir()
	p := Allocate(dir, "crpipe_input", ".tif")

	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, dir, filepath.Dir(p))
	assert.Equal(t, ".tif", filepath.Ext(p))
}

func TestAllocate_DefaultsToSystemTemp(t *testing.T) {
	p := Allocate("", "crpipe_input", "png")
	assert.Equal(t, os.TempDir(), filepath.Dir(p))
}

func TestTracker_CleanupAll(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker()

	f := filepath.Join(dir, "input.tif")
	require.NoError(t, os.WriteFile(f, []byte("data"), 0o644))
	a := tr.Add(f)

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "input_crr.tif"), []byte("out"), 0o644))
	tr.AddDir(outDir)

	tr.Consume(a)
	tr.CleanupAll(nil)

	assert.True(t, tr.AllRemoved())
	_, err := os.Stat(f)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestTracker_MissingFileStillRemoved(t *testing.T) {
	tr := NewTracker()
	tr.Add(filepath.Join(t.TempDir(), "never-written.tif"))
	tr.CleanupAll(nil)
	assert.True(t, tr.AllRemoved())
}

func TestTracker_Idempotent(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "once.tif")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	tr := NewTracker()
	tr.Add(f)
	tr.CleanupAll(nil)
	tr.CleanupAll(nil)
	assert.True(t, tr.AllRemoved())
}
