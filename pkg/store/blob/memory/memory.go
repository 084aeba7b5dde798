// Package memory implements in-memory blob storage for stardust.
//
// Content lives in a map guarded by a read-write mutex. Intended for tests
// and development; nothing survives a process restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/integrable/stardust/pkg/store/blob"
)

// MemoryBlobStore implements blob.Store backed by process memory.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[blob.ID][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		blobs: make(map[blob.ID][]byte),
	}
}

// Save stores a copy of data under id, overwriting any previous content.
// The input slice is copied so later caller mutations cannot corrupt the
// stored bytes.
func (s *MemoryBlobStore) Save(ctx context.Context, id blob.ID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = buf

	return nil
}

// Load returns a copy of the content stored under id.
func (s *MemoryBlobStore) Load(ctx context.Context, id blob.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, blob.ErrNotFound)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete removes the content stored under id.
func (s *MemoryBlobStore) Delete(ctx context.Context, id blob.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return fmt.Errorf("blob %s: %w", id, blob.ErrNotFound)
	}
	delete(s.blobs, id)

	return nil
}

// Exists reports whether content is stored under id.
func (s *MemoryBlobStore) Exists(ctx context.Context, id blob.ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blobs[id]
	return ok, nil
}

// Rename atomically re-keys content from oldID to newID.
func (s *MemoryBlobStore) Rename(ctx context.Context, oldID, newID blob.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[oldID]
	if !ok {
		return fmt.Errorf("blob %s: %w", oldID, blob.ErrNotFound)
	}
	s.blobs[newID] = data
	delete(s.blobs, oldID)

	return nil
}

// List returns the ids of all stored blobs.
func (s *MemoryBlobStore) List(ctx context.Context) ([]blob.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]blob.ID, 0, len(s.blobs))
	for id := range s.blobs {
		ids = append(ids, id)
	}
	return ids, nil
}

// Close releases resources. The memory store holds none.
func (s *MemoryBlobStore) Close() error {
	return nil
}
