// Package memory implements in-memory metadata storage for stardust.
//
// Records live in maps guarded by a read-write mutex. Intended for tests
// and development; nothing survives a process restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/integrable/stardust/pkg/store/meta"
)

// MemoryMetaStore implements meta.Store backed by process memory.
//
// Records are deep-copied on the way in and out, so callers can never
// mutate stored state through a retained pointer.
type MemoryMetaStore struct {
	mu     sync.RWMutex
	files  map[string]*meta.FileRecord
	groups map[string]*meta.GroupRecord
}

// NewMemoryMetaStore creates an empty in-memory metadata store.
func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{
		files:  make(map[string]*meta.FileRecord),
		groups: make(map[string]*meta.GroupRecord),
	}
}

// GetFile returns the file record with the given id.
func (s *MemoryMetaStore) GetFile(ctx context.Context, id string) (*meta.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, meta.ErrNotFound)
	}

	return record.Clone(), nil
}

// PutFile writes the file record, creating or replacing it.
func (s *MemoryMetaStore) PutFile(ctx context.Context, record *meta.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[record.ID] = record.Clone()

	return nil
}

// DeleteFile removes the file record with the given id.
func (s *MemoryMetaStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, meta.ErrNotFound)
	}
	delete(s.files, id)

	return nil
}

// ListFilesByGroup returns all file records referencing groupID.
func (s *MemoryMetaStore) ListFilesByGroup(ctx context.Context, groupID string) ([]*meta.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*meta.FileRecord
	for _, record := range s.files {
		if record.GroupID == groupID {
			records = append(records, record.Clone())
		}
	}

	return records, nil
}

// ListFileIDs returns the ids of all file records.
func (s *MemoryMetaStore) ListFileIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}

	return ids, nil
}

// GetGroup returns the group record with the given id.
func (s *MemoryMetaStore) GetGroup(ctx context.Context, id string) (*meta.GroupRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, meta.ErrNotFound)
	}

	return record.Clone(), nil
}

// PutGroup writes the group record, creating or replacing it.
func (s *MemoryMetaStore) PutGroup(ctx context.Context, record *meta.GroupRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[record.ID] = record.Clone()

	return nil
}

// CreateGroup writes a new group record, failing if the id is taken.
func (s *MemoryMetaStore) CreateGroup(ctx context.Context, record *meta.GroupRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[record.ID]; ok {
		return fmt.Errorf("group %s: %w", record.ID, meta.ErrAlreadyExists)
	}
	s.groups[record.ID] = record.Clone()

	return nil
}

// DeleteGroup removes the group record with the given id.
func (s *MemoryMetaStore) DeleteGroup(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("group %s: %w", id, meta.ErrNotFound)
	}
	delete(s.groups, id)

	return nil
}

// Close releases resources. The memory store holds none.
func (s *MemoryMetaStore) Close() error {
	return nil
}
