package draft

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/eventloop"
)

// fakeSource is a minimal editable composition.
type fakeSource struct {
	text   string
	images []attach.Attachment
}

func (s *fakeSource) Snapshot() (string, []attach.Attachment) { return s.text, s.images }
func (s *fakeSource) IsEmpty() bool {
	return strings.TrimSpace(s.text) == "" && len(s.images) == 0
}

type autosaveFixture struct {
	loop   *eventloop.Manual
	store  *MemoryStore
	mgr    *Manager
	source *fakeSource
	saver  *Autosaver
}

func newAutosaveFixture() *autosaveFixture {
	f := &autosaveFixture{
		loop:   eventloop.NewManual(testNow),
		store:  NewMemoryStore(),
		source: &fakeSource{},
	}
	f.mgr = newTestManager(f.store)
	f.saver = NewAutosaver(f.loop, f.mgr, f.source, 2*time.Second, zerolog.Nop())
	return f
}

func (f *autosaveFixture) edit(text string) {
	f.source.text = text
	f.saver.Touch()
}

func TestAutosave_DebounceCoalescesBurst(t *testing.T) {
	f := newAutosaveFixture()

	for i, text := range []string{"h", "he", "hel", "hell", "hello"} {
		f.edit(text)
		f.loop.Advance(500 * time.Millisecond)
		if f.store.Writes != 0 {
			t.Fatalf("write after edit %d, inside the debounce window", i)
		}
	}

	f.loop.Advance(2 * time.Second)
	if f.store.Writes != 1 {
		t.Fatalf("Writes = %d after the window, want 1", f.store.Writes)
	}
	active, _ := f.mgr.Active()
	if active == nil || active.Content != "hello" {
		t.Fatalf("active draft = %+v, want content hello", active)
	}

	f.edit("hello again")
	f.loop.Advance(2 * time.Second)
	if f.store.Writes != 2 {
		t.Errorf("Writes = %d after a later edit, want 2", f.store.Writes)
	}
	drafts, _ := f.mgr.List()
	if len(drafts) != 1 || drafts[0].Content != "hello again" {
		t.Errorf("drafts = %+v, want one updated draft", drafts)
	}
}

func TestAutosave_SingleTimer(t *testing.T) {
	f := newAutosaveFixture()
	f.edit("a")
	f.edit("ab")
	f.edit("abc")

	if n := f.loop.PendingTimers(); n != 1 {
		t.Errorf("PendingTimers() = %d, want 1", n)
	}
	if !f.saver.Pending() {
		t.Error("Pending() = false, want true")
	}
	f.loop.Advance(2 * time.Second)
	if f.saver.Pending() {
		t.Error("Pending() = true after firing")
	}
}

func TestAutosave_EmptyCompositionWithoutDraftWritesNothing(t *testing.T) {
	f := newAutosaveFixture()
	f.edit("   ")
	f.loop.Advance(3 * time.Second)

	if f.store.Writes != 0 {
		t.Errorf("Writes = %d, want 0", f.store.Writes)
	}
	if id, _ := f.mgr.ActiveID(); id != "" {
		t.Errorf("ActiveID() = %q, want none", id)
	}
}

func TestAutosave_ImagesOnlyCreatesDraft(t *testing.T) {
	f := newAutosaveFixture()
	f.source.images = []attach.Attachment{{ID: "i1", Path: "p1"}}
	f.saver.Touch()
	f.loop.Advance(2 * time.Second)

	active, _ := f.mgr.Active()
	if active == nil || len(active.Images) != 1 {
		t.Fatalf("active draft = %+v, want one with an image", active)
	}
}

func TestAutosave_EmptyCompositionOverwritesActiveDraft(t *testing.T) {
	f := newAutosaveFixture()
	if _, err := f.mgr.Create("saved text", nil); err != nil {
		t.Fatal(err)
	}

	f.edit("")
	f.loop.Advance(2 * time.Second)

	active, _ := f.mgr.Active()
	if active == nil || active.Content != "" {
		t.Errorf("active draft = %+v, want emptied content", active)
	}
}

func TestAutosave_Cancel(t *testing.T) {
	f := newAutosaveFixture()
	f.edit("discard me")
	f.saver.Cancel()
	f.loop.Advance(5 * time.Second)

	if f.store.Writes != 0 {
		t.Errorf("Writes = %d after Cancel, want 0", f.store.Writes)
	}
}

func TestAutosave_Flush(t *testing.T) {
	f := newAutosaveFixture()
	f.edit("now")

	d, saved, err := f.saver.Flush()
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !saved || d.Content != "now" {
		t.Errorf("Flush() = %+v, %v; want saved draft", d, saved)
	}
	if f.saver.Pending() {
		t.Error("Flush() left a pending timer")
	}

	f.loop.Advance(5 * time.Second)
	if f.store.Writes != 1 {
		t.Errorf("Writes = %d, want exactly the flushed one", f.store.Writes)
	}
}

func TestAutosave_StorageFailureIsSilentAndRetried(t *testing.T) {
	f := newAutosaveFixture()
	f.store.FailWrites = true

	f.edit("lost tick")
	f.loop.Advance(2 * time.Second)
	if f.saver.Pending() {
		t.Error("failed save should not reschedule itself")
	}

	f.store.FailWrites = false
	f.edit("next edit")
	f.loop.Advance(2 * time.Second)

	active, _ := f.mgr.Active()
	if active == nil || active.Content != "next edit" {
		t.Errorf("active draft = %+v, want the retried save", active)
	}
}
