// Package fs implements filesystem-based blob storage for stardust.
//
// Each blob is a regular file under a base directory, named by its blob id.
// Writes go through a temporary file followed by an atomic rename so a
// crashed Save never leaves a half-written blob visible to readers.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/integrable/stardust/pkg/store/blob"
)

// FSBlobStore implements blob.Store using the local filesystem.
//
// Thread Safety:
// Individual operations are atomic at the OS level (rename-based writes).
// Concurrent Saves to the same id last-write-wins, which matches the
// overwrite semantics of the blob contract.
type FSBlobStore struct {
	basePath string
}

// NewFSBlobStore creates a filesystem-backed blob store rooted at basePath.
//
// The base directory is created with permissions 0755 if it does not exist.
//
// Parameters:
//   - ctx: Context for cancellation
//   - basePath: Root directory for blob files
//
// Returns:
//   - *FSBlobStore: Initialized store
//   - error: Directory creation failure or context cancellation
func NewFSBlobStore(ctx context.Context, basePath string) (*FSBlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSBlobStore{basePath: basePath}, nil
}

// blobPath returns the full path for a blob id.
//
// Ids are UUID strings (filesystem-safe), so they map directly to filenames
// with no escaping. filepath.Base guards against ids containing separators.
func (s *FSBlobStore) blobPath(id blob.ID) string {
	return filepath.Join(s.basePath, filepath.Base(string(id)))
}

// Save stores data under id, overwriting any previous content.
//
// The write goes to a ".tmp" sibling first and is renamed into place, so
// readers either see the old bytes or the new bytes, never a mix.
func (s *FSBlobStore) Save(ctx context.Context, id blob.ID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.blobPath(id)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", id, blob.ErrIO)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit blob %s: %w", id, blob.ErrIO)
	}

	return nil
}

// Load returns the complete content stored under id.
func (s *FSBlobStore) Load(ctx context.Context, id blob.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.blobPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", id, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", id, blob.ErrIO)
	}

	return data, nil
}

// Delete removes the content stored under id.
func (s *FSBlobStore) Delete(ctx context.Context, id blob.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.blobPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("blob %s: %w", id, blob.ErrNotFound)
		}
		return fmt.Errorf("failed to delete blob %s: %w", id, blob.ErrIO)
	}

	return nil
}

// Exists reports whether content is stored under id.
func (s *FSBlobStore) Exists(ctx context.Context, id blob.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.blobPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob %s: %w", id, blob.ErrIO)
	}

	return true, nil
}

// Rename atomically re-keys content from oldID to newID.
func (s *FSBlobStore) Rename(ctx context.Context, oldID, newID blob.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(s.blobPath(oldID), s.blobPath(newID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("blob %s: %w", oldID, blob.ErrNotFound)
		}
		return fmt.Errorf("failed to rename blob %s: %w", oldID, blob.ErrIO)
	}

	return nil
}

// List returns the ids of all stored blobs.
//
// In-flight ".tmp" files from concurrent Saves are skipped; they are not
// committed blobs.
func (s *FSBlobStore) List(ctx context.Context) ([]blob.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", blob.ErrIO)
	}

	ids := make([]blob.ID, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) == ".tmp" {
			continue
		}
		ids = append(ids, blob.ID(entry.Name()))
	}

	return ids, nil
}

// Close releases resources. The filesystem store holds none.
func (s *FSBlobStore) Close() error {
	return nil
}
