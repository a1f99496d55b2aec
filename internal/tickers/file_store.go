package tickers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileStoreName = "tickers.json"

// FileStore persists entries as a JSON document under a data directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating the directory
// when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("data directory path %q is not a directory", dir)
		}
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create data directory: %w", mkErr)
		}
	default:
		return nil, fmt.Errorf("stat data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, fileStoreName)
}

// Load reads the persisted entries. A missing file yields an empty set.
func (s *FileStore) Load(_ context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read ticker store: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode ticker store: %w", err)
	}
	return entries, nil
}

// Save writes the entries atomically via a temp file and rename.
func (s *FileStore) Save(_ context.Context, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ticker store: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, fileStoreName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace ticker store: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() {}
