// Package attach provides the ordered list of images attached to a post.
package attach

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Attachment is an uploaded image acknowledged by the server.
// ID is its identity; Path is the server-side path submitted with a publish.
type Attachment struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

// List is an ordered sequence of attachments with unique IDs.
// The zero value is an empty list ready to use. A List is owned by a single
// composition and is not safe for concurrent use.
type List struct {
	items []Attachment
	// encoded caches the JSON form; nil after any mutation.
	encoded []byte
}

// NewList creates a list from items, dropping repeated IDs (first wins).
func NewList(items ...Attachment) *List {
	l := &List{}
	l.Append(items...)
	return l
}

// Len returns the number of attachments.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns a copy of the attachments in order.
func (l *List) Items() []Attachment {
	return slices.Clone(l.items)
}

// IDs returns the attachment IDs in order.
func (l *List) IDs() []string {
	ids := make([]string, len(l.items))
	for i, item := range l.items {
		ids[i] = item.ID
	}
	return ids
}

// Index returns the position of id, or -1 if absent.
func (l *List) Index(id string) int {
	return slices.IndexFunc(l.items, func(a Attachment) bool { return a.ID == id })
}

// Append adds items to the end in the given order. An item whose ID is
// already present is ignored and the existing entry is kept.
// It returns the number of items actually added.
func (l *List) Append(items ...Attachment) int {
	added := 0
	for _, item := range items {
		if l.Index(item.ID) >= 0 {
			continue
		}
		l.items = append(l.items, item)
		added++
	}
	if added > 0 {
		l.invalidate()
	}
	return added
}

// Remove deletes the attachment with the given ID.
// It reports whether anything was removed.
func (l *List) Remove(id string) bool {
	idx := l.Index(id)
	if idx < 0 {
		return false
	}
	l.items = slices.Delete(l.items, idx, idx+1)
	l.invalidate()
	return true
}

// Reorder moves draggedID so that it sits immediately before targetID.
// The dragged item is taken out first and reinserted at the target's
// index in the shortened list, so the item always lands just before the
// target whether it moved forward or backward. Reorder is a no-op, and
// returns false, when the IDs are equal or either is absent.
func (l *List) Reorder(draggedID, targetID string) bool {
	if draggedID == targetID {
		return false
	}
	from := l.Index(draggedID)
	if from < 0 || l.Index(targetID) < 0 {
		return false
	}

	moved := l.items[from]
	l.items = slices.Delete(l.items, from, from+1)
	to := l.Index(targetID)
	l.items = slices.Insert(l.items, to, moved)
	l.invalidate()
	return true
}

// Paths yields the non-empty server paths in list order. Attachments
// whose upload never resolved a path are skipped so they are never
// submitted. The sequence reads the list lazily; do not mutate the list
// while ranging over it.
func (l *List) Paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, item := range l.items {
			if item.Path == "" {
				continue
			}
			if !yield(item.Path) {
				return
			}
		}
	}
}

// Replace discards the current contents and loads items (first ID wins).
func (l *List) Replace(items []Attachment) {
	l.items = nil
	l.invalidate()
	l.Append(items...)
}

// Clear removes every attachment.
func (l *List) Clear() {
	if len(l.items) == 0 {
		return
	}
	l.items = nil
	l.invalidate()
}

func (l *List) invalidate() {
	l.encoded = nil
}

// MarshalJSON encodes the list as a JSON array. The encoding is cached
// until the next mutation.
func (l *List) MarshalJSON() ([]byte, error) {
	if l.encoded != nil {
		return l.encoded, nil
	}
	items := l.items
	if items == nil {
		items = []Attachment{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding attachments: %w", err)
	}
	l.encoded = data
	return data, nil
}

// UnmarshalJSON decodes a JSON array, dropping repeated IDs.
// A JSON null decodes to an empty list.
func (l *List) UnmarshalJSON(data []byte) error {
	var items []Attachment
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decoding attachments: %w", err)
	}
	l.Replace(items)
	return nil
}
