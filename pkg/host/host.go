// Package host models the image-owning side of the pipeline: a workspace of
// in-memory documents that jobs export from and apply results back into.
//
// A real host environment (an interactive editor) satisfies the same
// contract; this implementation is what the batch CLI and the tests run
// against. Mutation only ever happens inside an Update bracket, so a
// failed job leaves the target bit-for-bit unchanged.
package host

import (
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
)

// Document is one in-memory image with identity and a revision counter.
type Document struct {
	mu       sync.Mutex
	id       string
	name     string
	img      image.Image
	revision int64
	updating bool
}

// ID returns the document's stable identifier.
func (d *Document) ID() string { return d.id }

// Name returns the document's display name.
func (d *Document) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// Image returns the current image. The returned value is the committed
// image itself; callers must not mutate its pixels.
func (d *Document) Image() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.img
}

// Revision increments on every committed update.
func (d *Document) Revision() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

// BeginUpdate opens the scoped mutation bracket. While the bracket is open
// no second bracket can be opened on the same document. The caller must end
// the bracket with exactly one Commit or Abort; deferring Abort right after
// BeginUpdate guarantees release on every path, because Abort after a
// Commit is a no-op.
func (d *Document) BeginUpdate() (*Update, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.updating {
		return nil, fmt.Errorf("document %s (%s) already has an open update", d.name, d.id)
	}
	d.updating = true
	return &Update{doc: d}, nil
}

// Update is an open mutation bracket on one document.
type Update struct {
	doc  *Document
	done bool
}

// Commit atomically replaces the document's image: after Commit the whole
// replacement is visible, before it none of it is.
func (u *Update) Commit(img image.Image) error {
	u.doc.mu.Lock()
	defer u.doc.mu.Unlock()
	if u.done {
		return fmt.Errorf("update on document %s already closed", u.doc.id)
	}
	if img == nil {
		return fmt.Errorf("refusing to commit nil image to document %s", u.doc.id)
	}
	u.doc.img = img
	u.doc.revision++
	u.doc.updating = false
	u.done = true
	return nil
}

// Abort closes the bracket leaving the document untouched. Safe to call
// after Commit.
func (u *Update) Abort() {
	u.doc.mu.Lock()
	defer u.doc.mu.Unlock()
	if u.done {
		return
	}
	u.doc.updating = false
	u.done = true
}

// Workspace owns a set of documents.
type Workspace struct {
	mu   sync.Mutex
	docs map[string]*Document
}

func NewWorkspace() *Workspace {
	return &Workspace{docs: make(map[string]*Document)}
}

// NewDocument adds an independent document holding img and returns it.
func (w *Workspace) NewDocument(name string, img image.Image) *Document {
	d := &Document{
		id:   uuid.NewString(),
		name: name,
		img:  img,
	}
	w.mu.Lock()
	w.docs[d.id] = d
	w.mu.Unlock()
	return d
}

// Get returns the document with the given ID.
func (w *Workspace) Get(id string) (*Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.docs[id]
	return d, ok
}

// Len returns the number of documents in the workspace.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.docs)
}
