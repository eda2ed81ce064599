package draft

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gorewood/echopost/internal/attach"
)

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newTestManager(store Store) *Manager {
	n := 0
	return NewManager(store, func() time.Time { return testNow }, func() string {
		n++
		return fmt.Sprintf("d%d", n)
	})
}

func TestManager_CreatePrependsAndActivates(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)

	first, err := m.Create("one", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := m.Create("two", []attach.Attachment{{ID: "i", Path: "p"}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	drafts, _ := m.List()
	if len(drafts) != 2 || drafts[0].ID != second.ID || drafts[1].ID != first.ID {
		t.Fatalf("List() = %v, want newest first", drafts)
	}
	if drafts[1].Images == nil {
		t.Error("Create() with nil images should store an empty slice")
	}
	if !drafts[0].UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", drafts[0].UpdatedAt, testNow)
	}
	if id, _ := m.ActiveID(); id != second.ID {
		t.Errorf("ActiveID() = %q, want %q", id, second.ID)
	}
}

func TestManager_DefaultIDsAreUnique(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil, nil)
	a, _ := m.Create("a", nil)
	b, _ := m.Create("b", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids %q and %q should be distinct and non-empty", a.ID, b.ID)
	}
}

func TestManager_UpdateInPlace(t *testing.T) {
	m := newTestManager(NewMemoryStore())
	a, _ := m.Create("a", nil)
	b, _ := m.Create("b", nil)

	updated, err := m.Update(a.ID, "a2", []attach.Attachment{{ID: "x"}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Content != "a2" || len(updated.Images) != 1 {
		t.Errorf("Update() = %+v", updated)
	}

	drafts, _ := m.List()
	if drafts[0].ID != b.ID || drafts[1].ID != a.ID {
		t.Errorf("Update() reordered the collection: %v", drafts)
	}

	if _, err := m.Update("missing", "x", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestManager_ActiveClearsDanglingPointer(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)
	_ = store.SetActiveDraftID("gone")

	active, err := m.Active()
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active != nil {
		t.Errorf("Active() = %+v, want nil", active)
	}
	if id, _ := store.ActiveDraftID(); id != "" {
		t.Errorf("dangling pointer not cleared: %q", id)
	}
}

func TestManager_Activate(t *testing.T) {
	m := newTestManager(NewMemoryStore())
	a, _ := m.Create("a", nil)
	_, _ = m.Create("b", nil)

	if err := m.Activate(a.ID); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if active, _ := m.Active(); active == nil || active.ID != a.ID {
		t.Errorf("Active() = %v, want %s", active, a.ID)
	}
	if err := m.Activate("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Activate(nope) error = %v, want ErrNotFound", err)
	}
	if err := m.Activate(""); err != nil {
		t.Fatalf("Activate(\"\") error = %v", err)
	}
	if id, _ := m.ActiveID(); id != "" {
		t.Errorf("ActiveID() = %q after clearing", id)
	}
}

func TestManager_Delete(t *testing.T) {
	tests := []struct {
		name       string
		deleteIdx  int // index into created drafts, -1 for an unknown id
		wantActive bool
		wantErr    error
		wantLeft   int
		wantPtr    string
	}{
		{name: "inactive draft", deleteIdx: 0, wantActive: false, wantLeft: 1, wantPtr: "d2"},
		{name: "active draft clears pointer", deleteIdx: 1, wantActive: true, wantLeft: 1, wantPtr: ""},
		{name: "unknown id", deleteIdx: -1, wantErr: ErrNotFound, wantLeft: 2, wantPtr: "d2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(NewMemoryStore())
			d1, _ := m.Create("one", nil)
			d2, _ := m.Create("two", nil)
			ids := []string{d1.ID, d2.ID}

			id := "unknown"
			if tt.deleteIdx >= 0 {
				id = ids[tt.deleteIdx]
			}
			wasActive, err := m.Delete(id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Delete() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if wasActive != tt.wantActive {
				t.Errorf("wasActive = %v, want %v", wasActive, tt.wantActive)
			}
			if drafts, _ := m.List(); len(drafts) != tt.wantLeft {
				t.Errorf("len(List()) = %d, want %d", len(drafts), tt.wantLeft)
			}
			if ptr, _ := m.ActiveID(); ptr != tt.wantPtr {
				t.Errorf("ActiveID() = %q, want %q", ptr, tt.wantPtr)
			}
		})
	}
}

func TestManager_DeleteClearsPointerToMissingDraft(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)
	_ = store.SetActiveDraftID("ghost")

	wasActive, err := m.Delete("ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if !wasActive {
		t.Error("wasActive = false, want true")
	}
	if id, _ := store.ActiveDraftID(); id != "" {
		t.Errorf("pointer = %q, want cleared", id)
	}
}

type brokenSaveStore struct {
	*MemoryStore
}

func (brokenSaveStore) SaveDrafts([]Draft) error { return errors.New("disk full") }

func TestManager_DeleteKeepsPointerWhenSaveFails(t *testing.T) {
	mem := NewMemoryStore()
	m := newTestManager(mem)
	d, _ := m.Create("keep", nil)

	broken := newTestManager(brokenSaveStore{mem})
	if _, err := broken.Delete(d.ID); err == nil {
		t.Fatal("Delete() should surface the save error")
	}
	if id, _ := mem.ActiveDraftID(); id != d.ID {
		t.Errorf("pointer = %q, want %q kept", id, d.ID)
	}
	if drafts, _ := mem.ListDrafts(); len(drafts) != 1 {
		t.Errorf("drafts = %v, want the draft kept", drafts)
	}
}
