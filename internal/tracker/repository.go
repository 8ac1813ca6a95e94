package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/lectern/internal/catalog"
)

// ErrSnapshotNotFound is returned when no persisted catalog exists yet.
var ErrSnapshotNotFound = errors.New("tracker: snapshot not found")

// SnapshotStore persists catalog snapshots.
type SnapshotStore interface {
	Load() (catalog.Catalog, error)
	Save(catalog.Catalog) error
}

// Repository stores the catalog snapshot as JSON on disk.
type Repository struct {
	path string
}

// NewRepository creates a repository backed by the given file.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the snapshot file location.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the persisted snapshot if present.
func (r *Repository) Load() (catalog.Catalog, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return catalog.Catalog{}, ErrSnapshotNotFound
		}
		return catalog.Catalog{}, err
	}
	var cat catalog.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return catalog.Catalog{}, fmt.Errorf("tracker: decode %s: %w", r.path, err)
	}
	return cat, nil
}

// Save writes the snapshot through a temp file and rename so readers never
// observe a half-written file.
func (r *Repository) Save(cat catalog.Catalog) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

// MemoryStore keeps the snapshot in memory. It is used by tests and by
// read-only commands that never persist.
type MemoryStore struct {
	cat   catalog.Catalog
	saved bool
}

// NewMemoryStore returns a store with no snapshot.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored snapshot.
func (m *MemoryStore) Load() (catalog.Catalog, error) {
	if !m.saved {
		return catalog.Catalog{}, ErrSnapshotNotFound
	}
	return m.cat.Clone(), nil
}

// Save replaces the stored snapshot.
func (m *MemoryStore) Save(cat catalog.Catalog) error {
	m.cat = cat.Clone()
	m.saved = true
	return nil
}
