// Package draft persists in-progress compositions as named drafts.
//
// A Store holds the whole draft collection plus an "active draft" pointer.
// Manager layers create/update/delete rules on top of a Store, and
// Autosaver debounces editor changes into Manager writes.
package draft

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorewood/echopost/internal/attach"
)

// ErrNotFound is returned when a draft id is not in the collection.
var ErrNotFound = errors.New("draft not found")

// Draft is a saved composition.
type Draft struct {
	ID        string              `json:"id"`
	Content   string              `json:"content"`
	Images    []attach.Attachment `json:"images"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Title returns the first line of the content, shortened to n characters.
func (d Draft) Title(n int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(d.Content), "\n")
	runes := []rune(line)
	if n > 0 && len(runes) > n {
		return string(runes[:n]) + "…"
	}
	return line
}

// Encode serializes a collection. A nil collection encodes as an empty array.
func Encode(drafts []Draft) ([]byte, error) {
	out := make([]Draft, len(drafts))
	for i, d := range drafts {
		if d.Images == nil {
			d.Images = []attach.Attachment{}
		}
		out[i] = d
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("serializing drafts: %w", err)
	}
	return data, nil
}

// Decode parses a persisted collection. Stored data carries no schema
// version, so decoding is lenient: empty input, null, or a document that
// is not an array yields an empty collection; entries that are not
// objects, lack an id, or repeat an earlier id are skipped.
func Decode(data []byte) []Draft {
	var raw []json.RawMessage
	if len(data) == 0 || json.Unmarshal(data, &raw) != nil {
		return []Draft{}
	}

	drafts := make([]Draft, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, msg := range raw {
		d, ok := decodeOne(msg)
		if !ok || seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		drafts = append(drafts, d)
	}
	return drafts
}

// Unreadable reports whether data is a non-empty document that Decode
// cannot parse as a collection. Backends keep such documents aside
// before overwriting them.
func Unreadable(data []byte) bool {
	if len(bytes.TrimSpace(data)) == 0 {
		return false
	}
	var raw []json.RawMessage
	return json.Unmarshal(data, &raw) != nil
}

// storedDraft accepts both the current shape and older ones, where ids
// were millisecond timestamps and fields could be missing or null.
type storedDraft struct {
	ID        json.RawMessage `json:"id"`
	Content   json.RawMessage `json:"content"`
	Images    json.RawMessage `json:"images"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

func decodeOne(msg json.RawMessage) (Draft, bool) {
	var s storedDraft
	if json.Unmarshal(msg, &s) != nil {
		return Draft{}, false
	}
	id := scalarString(s.ID)
	if id == "" {
		return Draft{}, false
	}

	d := Draft{ID: id, Content: scalarString(s.Content), Images: []attach.Attachment{}}
	var images attach.List
	if len(s.Images) > 0 && json.Unmarshal(s.Images, &images) == nil && images.Len() > 0 {
		d.Images = images.Items()
	}
	d.UpdatedAt = parseTime(s.UpdatedAt)
	return d, true
}

// scalarString reads a JSON string or number as a string.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// parseTime reads an RFC 3339 string or epoch milliseconds.
func parseTime(raw json.RawMessage) time.Time {
	v := scalarString(raw)
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
