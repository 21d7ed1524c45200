package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the seen set as a JSON array of IDs in a single file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the file. A missing file is the first run and yields an empty set.
func (f *FileStore) Load(_ context.Context) (Set, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading seen set: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parsing seen set %s: %w", f.path, err)
	}
	return NewSet(ids...), nil
}

// Save writes the sorted IDs to a temp file next to the target and renames it
// into place, so a crash mid-write leaves the previous file intact.
func (f *FileStore) Save(_ context.Context, s Set) error {
	data, err := json.MarshalIndent(s.Sorted(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding seen set: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating seen set directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".seen-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing seen set: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing seen set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing seen set: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replacing seen set: %w", err)
	}
	return nil
}
