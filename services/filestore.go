package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore implements BlobStore on the local filesystem. Blobs are
// written under a single directory, named by their storage key (a UUID
// assigned at upload time, never the client-chosen object name).
type FileBlobStore struct {
	dir string
}

// NewFileBlobStore creates the storage directory if needed.
func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &FileBlobStore{dir: dir}, nil
}

func (s *FileBlobStore) path(storageKey string) (string, error) {
	// Storage keys are server-assigned UUIDs; reject anything that could
	// escape the directory.
	if storageKey == "" || strings.ContainsAny(storageKey, "/\\") || strings.Contains(storageKey, "..") {
		return "", fmt.Errorf("invalid storage key %q", storageKey)
	}
	return filepath.Join(s.dir, storageKey), nil
}

// Put writes a blob. Writes go through a temp file and rename so a crashed
// upload never leaves a partial blob under a valid key.
func (s *FileBlobStore) Put(_ context.Context, storageKey string, data []byte) error {
	path, err := s.path(storageKey)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalizing blob: %w", err)
	}
	return nil
}

// Get reads a blob back.
func (s *FileBlobStore) Get(_ context.Context, storageKey string) ([]byte, error) {
	path, err := s.path(storageKey)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}
