// Package compose holds the post being edited: its text buffer, its ordered
// attachments, and the client-side checks applied before a publish.
package compose

import (
	"iter"
	"strings"

	"github.com/gorewood/echopost/internal/attach"
)

// Composition is the text and attachments currently bound to the editor.
// It is owned by the event loop and is not safe for concurrent use.
type Composition struct {
	text   string
	images *attach.List
}

// New returns an empty composition.
func New() *Composition {
	return &Composition{images: &attach.List{}}
}

// Text returns the text buffer.
func (c *Composition) Text() string {
	return c.text
}

// SetText replaces the text buffer.
func (c *Composition) SetText(text string) {
	c.text = text
}

// Images returns the attachment list. Mutations through it are visible
// to the composition.
func (c *Composition) Images() *attach.List {
	return c.images
}

// ImagePaths yields the server paths of the attachments in order.
func (c *Composition) ImagePaths() iter.Seq[string] {
	return c.images.Paths()
}

// IsEmpty reports whether there is nothing worth saving: no text other
// than whitespace and no attachments.
func (c *Composition) IsEmpty() bool {
	return strings.TrimSpace(c.text) == "" && c.images.Len() == 0
}

// Snapshot returns the text and a copy of the attachments.
func (c *Composition) Snapshot() (string, []attach.Attachment) {
	return c.text, c.images.Items()
}

// Load replaces the whole composition.
func (c *Composition) Load(text string, images []attach.Attachment) {
	c.text = text
	c.images.Replace(images)
}

// Reset clears the text and the attachments.
func (c *Composition) Reset() {
	c.text = ""
	c.images.Clear()
}
