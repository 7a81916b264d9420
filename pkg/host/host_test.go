package host

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_NewDocument(t *testing.T) {
	ws := NewWorkspace()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	doc := ws.NewDocument("m31", img)

	assert.NotEmpty(t, doc.ID())
	assert.Equal(t, "m31", doc.Name())
	assert.Equal(t, int64(0), doc.Revision())

	got, ok := ws.Get(doc.ID())
	require.True(t, ok)
	assert.Same(t, doc, got)
}

func TestUpdate_CommitReplacesAtomically(t *testing.T) {
	ws := NewWorkspace()
	before := image.NewGray(image.Rect(0, 0, 4, 4))
	doc := ws.NewDocument("m31", before)

	u, err := doc.BeginUpdate()
	require.NoError(t, err)

	after := image.NewGray(image.Rect(0, 0, 4, 4))
	require.NoError(t, u.Commit(after))

	assert.Same(t, image.Image(after), doc.Image())
	assert.Equal(t, int64(1), doc.Revision())
}

func TestUpdate_AbortLeavesDocumentUntouched(t *testing.T) {
	ws := NewWorkspace()
	before := image.NewGray(image.Rect(0, 0, 4, 4))
	doc := ws.NewDocument("m31", before)

	u, err := doc.BeginUpdate()
	require.NoError(t, err)
	u.Abort()

	assert.Same(t, image.Image(before), doc.Image())
	assert.Equal(t, int64(0), doc.Revision())

	// Bracket released: a new update can open.
	u2, err := doc.BeginUpdate()
	require.NoError(t, err)
	u2.Abort()
}

func TestUpdate_SecondBracketRejectedWhileOpen(t *testing.T) {
	ws := NewWorkspace()
	doc := ws.NewDocument("m31", image.NewGray(image.Rect(0, 0, 1, 1)))

	u, err := doc.BeginUpdate()
	require.NoError(t, err)
	defer u.Abort()

	_, err = doc.BeginUpdate()
	assert.Error(t, err)
}

func TestUpdate_AbortAfterCommitIsNoop(t *testing.T) {
	ws := NewWorkspace()
	doc := ws.NewDocument("m31", image.NewGray(image.Rect(0, 0, 1, 1)))

	u, err := doc.BeginUpdate()
	require.NoError(t, err)
	defer u.Abort()

	after := image.NewGray(image.Rect(0, 0, 1, 1))
	require.NoError(t, u.Commit(after))

	u.Abort()
	assert.Same(t, image.Image(after), doc.Image())
	assert.Equal(t, int64(1), doc.Revision())
}

func TestUpdate_CommitNilRejected(t *testing.T) {
	ws := NewWorkspace()
	doc := ws.NewDocument("m31", image.NewGray(image.Rect(0, 0, 1, 1)))

	u, err := doc.BeginUpdate()
	require.NoError(t, err)
	defer u.Abort()

	assert.Error(t, u.Commit(nil))
}
