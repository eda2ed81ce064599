package draft

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gorewood/echopost/internal/output"
)

// Store persists the draft collection and the active draft pointer.
// An empty id is the null pointer. SaveDrafts replaces the whole
// collection in one write.
type Store interface {
	ListDrafts() ([]Draft, error)
	SaveDrafts(drafts []Draft) error
	ActiveDraftID() (string, error)
	SetActiveDraftID(id string) error
}

// File names used by FileStore.
const (
	draftsFile = "drafts.json"
	activeFile = "active_draft"
	badSuffix  = ".bad"
)

// FileStore keeps drafts in a directory: the collection in drafts.json and
// the pointer in active_draft. Writes go to a temp file and are renamed
// into place, so readers never see a partial file.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the storage directory path.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// ListDrafts reads the collection. A missing file is an empty collection.
func (fs *FileStore) ListDrafts() ([]Draft, error) {
	data, err := fs.read(draftsFile)
	if err != nil {
		return nil, err
	}
	return Decode(data), nil
}

// SaveDrafts overwrites the collection. An existing drafts.json that
// cannot be parsed is renamed to drafts.json.bad first.
func (fs *FileStore) SaveDrafts(drafts []Draft) error {
	data, err := Encode(drafts)
	if err != nil {
		return output.NewSystemErrorWithCause("failed to serialize drafts", err)
	}
	if err := fs.keepUnreadable(); err != nil {
		return err
	}
	return fs.write(draftsFile, data)
}

func (fs *FileStore) keepUnreadable() error {
	current, err := fs.read(draftsFile)
	if err != nil || !Unreadable(current) {
		return err
	}
	path := filepath.Join(fs.dir, draftsFile)
	if err := os.Rename(path, path+badSuffix); err != nil {
		return output.NewSystemErrorWithCause("failed to set aside unreadable "+draftsFile, err)
	}
	return nil
}

// ActiveDraftID reads the pointer. A missing file is the null pointer.
func (fs *FileStore) ActiveDraftID() (string, error) {
	data, err := fs.read(activeFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SetActiveDraftID writes the pointer, or removes the file for "".
func (fs *FileStore) SetActiveDraftID(id string) error {
	if id == "" {
		err := os.Remove(filepath.Join(fs.dir, activeFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return output.NewSystemErrorWithCause("failed to clear active draft", err)
		}
		return nil
	}
	return fs.write(activeFile, []byte(id+"\n"))
}

func (fs *FileStore) read(name string) ([]byte, error) {
	path := filepath.Join(fs.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, output.NewSystemErrorWithCause("failed to read "+path, err)
	}
	return data, nil
}

func (fs *FileStore) write(name string, data []byte) error {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return output.NewSystemErrorWithCause("failed to create draft directory", err)
	}
	if err := atomicWrite(filepath.Join(fs.dir, name), data); err != nil {
		return output.NewSystemErrorWithCause("failed to write "+name, err)
	}
	return nil
}

// atomicWrite writes data to path using write-to-temp-then-rename.
// The temp file is created in the same directory as path.
func atomicWrite(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
// It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.Mutex
	drafts []Draft
	active string
	// FailWrites makes every write fail, for exercising error paths.
	FailWrites bool
	// Writes counts successful SaveDrafts calls.
	Writes int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ListDrafts returns a copy of the collection.
func (m *MemoryStore) ListDrafts() ([]Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneDrafts(m.drafts), nil
}

// SaveDrafts replaces the collection.
func (m *MemoryStore) SaveDrafts(drafts []Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("memory store: write refused")
	}
	m.drafts = cloneDrafts(drafts)
	m.Writes++
	return nil
}

// ActiveDraftID returns the pointer.
func (m *MemoryStore) ActiveDraftID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, nil
}

// SetActiveDraftID sets the pointer.
func (m *MemoryStore) SetActiveDraftID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("memory store: write refused")
	}
	m.active = id
	return nil
}

func cloneDrafts(drafts []Draft) []Draft {
	out := make([]Draft, len(drafts))
	for i, d := range drafts {
		d.Images = slices.Clone(d.Images)
		out[i] = d
	}
	return out
}
