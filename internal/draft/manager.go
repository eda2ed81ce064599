package draft

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gorewood/echopost/internal/attach"
)

// Manager applies the draft lifecycle rules to a Store.
// Every method reads the store fresh, so several managers (or processes)
// sharing a store see each other's writes.
type Manager struct {
	store Store
	now   func() time.Time
	newID func() string
}

// NewManager creates a Manager over store.
// If now is nil, uses time.Now. If newID is nil, uses random UUIDs.
func NewManager(store Store, now func() time.Time, newID func() string) *Manager {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Manager{store: store, now: now, newID: newID}
}

// List returns the collection, newest first.
func (m *Manager) List() ([]Draft, error) {
	return m.store.ListDrafts()
}

// Get returns the draft with the given id.
func (m *Manager) Get(id string) (Draft, error) {
	drafts, err := m.store.ListDrafts()
	if err != nil {
		return Draft{}, err
	}
	idx := indexOf(drafts, id)
	if idx < 0 {
		return Draft{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return drafts[idx], nil
}

// ActiveID returns the raw active pointer, which may name a draft that no
// longer exists.
func (m *Manager) ActiveID() (string, error) {
	return m.store.ActiveDraftID()
}

// Active returns the active draft, or nil when there is none. A pointer to
// a draft that no longer exists is cleared.
func (m *Manager) Active() (*Draft, error) {
	id, err := m.store.ActiveDraftID()
	if err != nil || id == "" {
		return nil, err
	}
	drafts, err := m.store.ListDrafts()
	if err != nil {
		return nil, err
	}
	idx := indexOf(drafts, id)
	if idx < 0 {
		return nil, m.store.SetActiveDraftID("")
	}
	d := drafts[idx]
	return &d, nil
}

// Create stores a new draft at the head of the collection and makes it active.
func (m *Manager) Create(content string, images []attach.Attachment) (Draft, error) {
	drafts, err := m.store.ListDrafts()
	if err != nil {
		return Draft{}, err
	}
	d := Draft{
		ID:        m.newID(),
		Content:   content,
		Images:    slices.Clone(images),
		UpdatedAt: m.now().UTC(),
	}
	if d.Images == nil {
		d.Images = []attach.Attachment{}
	}
	if err := m.store.SaveDrafts(slices.Insert(drafts, 0, d)); err != nil {
		return Draft{}, err
	}
	if err := m.store.SetActiveDraftID(d.ID); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// Update overwrites the content and images of an existing draft in place.
func (m *Manager) Update(id, content string, images []attach.Attachment) (Draft, error) {
	drafts, err := m.store.ListDrafts()
	if err != nil {
		return Draft{}, err
	}
	idx := indexOf(drafts, id)
	if idx < 0 {
		return Draft{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	d := &drafts[idx]
	d.Content = content
	d.Images = slices.Clone(images)
	if d.Images == nil {
		d.Images = []attach.Attachment{}
	}
	d.UpdatedAt = m.now().UTC()
	if err := m.store.SaveDrafts(drafts); err != nil {
		return Draft{}, err
	}
	return *d, nil
}

// Activate points the active pointer at id. An empty id clears it.
func (m *Manager) Activate(id string) error {
	if id != "" {
		if _, err := m.Get(id); err != nil {
			return err
		}
	}
	return m.store.SetActiveDraftID(id)
}

// Delete removes a draft. If it was active the pointer is cleared and
// wasActive is true. Deleting an absent id returns ErrNotFound, but a
// pointer naming that id is still cleared. The pointer is only touched
// once the collection has been written.
func (m *Manager) Delete(id string) (wasActive bool, err error) {
	activeID, err := m.store.ActiveDraftID()
	if err != nil {
		return false, err
	}
	drafts, err := m.store.ListDrafts()
	if err != nil {
		return false, err
	}

	idx := indexOf(drafts, id)
	if idx >= 0 {
		if err := m.store.SaveDrafts(slices.Delete(drafts, idx, idx+1)); err != nil {
			return false, err
		}
	}
	if activeID == id && id != "" {
		if err := m.store.SetActiveDraftID(""); err != nil {
			return false, err
		}
		wasActive = true
	}
	if idx < 0 {
		return wasActive, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return wasActive, nil
}

func indexOf(drafts []Draft, id string) int {
	return slices.IndexFunc(drafts, func(d Draft) bool { return d.ID == id })
}
