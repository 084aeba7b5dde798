// Package badger implements persistent metadata storage on BadgerDB.
//
// This is the production metadata backend: records survive restarts and
// crashes (WAL-based recovery), single-record writes are transactional,
// and group membership listing is a prefix scan over a maintained index.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/integrable/stardust/pkg/store/meta"
)

// BadgerMetaStore implements meta.Store using BadgerDB for persistence.
//
// Thread Safety:
// BadgerDB transactions provide isolation; no additional locking is needed
// for the single-record contract. The group index is written in the same
// transaction as the file record it tracks, so the two can never disagree.
type BadgerMetaStore struct {
	db *badger.DB
}

// BadgerMetaStoreConfig contains configuration for the BadgerDB metadata
// store.
type BadgerMetaStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	DBPath string `mapstructure:"db_path"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64).
	BlockCacheSizeMB int64 `mapstructure:"block_cache_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32).
	IndexCacheSizeMB int64 `mapstructure:"index_cache_mb"`
}

// NewBadgerMetaStore opens (or creates) a BadgerDB metadata store at the
// configured path.
//
// Options are tuned for a metadata workload: frequent small reads and
// writes with occasional prefix scans. Compression is disabled because the
// records are tiny.
//
// Parameters:
//   - ctx: Context for cancellation during initialization
//   - config: Store configuration
//
// Returns:
//   - *BadgerMetaStore: A store ready for concurrent use
//   - error: Database open failure or context cancellation
func NewBadgerMetaStore(ctx context.Context, config BadgerMetaStoreConfig) (*BadgerMetaStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if config.DBPath == "" {
		return nil, fmt.Errorf("badger metadata store: db_path is required")
	}

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}

	opts := badger.DefaultOptions(config.DBPath)
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerMetaStore{db: db}, nil
}

// GetFile returns the file record with the given id.
func (s *BadgerMetaStore) GetFile(ctx context.Context, id string) (*meta.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record *meta.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFile(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = decodeFileRecord(val)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("file %s: %w", id, meta.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get file %s: %w", id, meta.ErrIO)
	}

	return record, nil
}

// PutFile writes the file record and maintains the group index.
//
// When a record's GroupID changes, the previous index entry is removed in
// the same transaction, so a membership scan never returns a repointed
// file under its old group.
func (s *BadgerMetaStore) PutFile(ctx context.Context, record *meta.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := encodeFileRecord(record)
	if err != nil {
		return fmt.Errorf("failed to put file %s: %w", record.ID, meta.ErrIO)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		// Drop the stale index entry if the file moved between groups.
		prev, err := txn.Get(keyFile(record.ID))
		if err == nil {
			var prevRecord *meta.FileRecord
			if err := prev.Value(func(val []byte) error {
				prevRecord, err = decodeFileRecord(val)
				return err
			}); err != nil {
				return err
			}
			if prevRecord.GroupID != "" && prevRecord.GroupID != record.GroupID {
				if err := txn.Delete(keyGroupIndex(prevRecord.GroupID, record.ID)); err != nil {
					return err
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if record.GroupID != "" {
			if err := txn.Set(keyGroupIndex(record.GroupID, record.ID), []byte(record.ID)); err != nil {
				return err
			}
		}

		return txn.Set(keyFile(record.ID), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to put file %s: %w", record.ID, meta.ErrIO)
	}

	return nil
}

// DeleteFile removes the file record and its group index entry.
func (s *BadgerMetaStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyFile(id))
		if err != nil {
			return err
		}

		var record *meta.FileRecord
		if err := item.Value(func(val []byte) error {
			record, err = decodeFileRecord(val)
			return err
		}); err != nil {
			return err
		}

		if record.GroupID != "" {
			if err := txn.Delete(keyGroupIndex(record.GroupID, id)); err != nil {
				return err
			}
		}

		return txn.Delete(keyFile(id))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("file %s: %w", id, meta.ErrNotFound)
		}
		return fmt.Errorf("failed to delete file %s: %w", id, meta.ErrIO)
	}

	return nil
}

// ListFilesByGroup returns all file records referencing groupID, using a
// prefix scan over the group index.
func (s *BadgerMetaStore) ListFilesByGroup(ctx context.Context, groupID string) ([]*meta.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*meta.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := keyGroupIndexPrefix(groupID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var fileID string
			if err := it.Item().Value(func(val []byte) error {
				fileID = string(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := txn.Get(keyFile(fileID))
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				record, err := decodeFileRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files for group %s: %w", groupID, meta.ErrIO)
	}

	return records, nil
}

// ListFileIDs returns the ids of all file records, using a keys-only
// scan over the file namespace.
func (s *BadgerMetaStore) ListFileIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixFile)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			ids = append(ids, string(key[len(prefix):]))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list file ids: %w", meta.ErrIO)
	}

	return ids, nil
}

// GetGroup returns the group record with the given id.
func (s *BadgerMetaStore) GetGroup(ctx context.Context, id string) (*meta.GroupRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record *meta.GroupRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyGroup(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = decodeGroupRecord(val)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("group %s: %w", id, meta.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group %s: %w", id, meta.ErrIO)
	}

	return record, nil
}

// PutGroup writes the group record, creating or replacing it.
func (s *BadgerMetaStore) PutGroup(ctx context.Context, record *meta.GroupRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := encodeGroupRecord(record)
	if err != nil {
		return fmt.Errorf("failed to put group %s: %w", record.ID, meta.ErrIO)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyGroup(record.ID), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to put group %s: %w", record.ID, meta.ErrIO)
	}

	return nil
}

// CreateGroup writes a new group record, failing if the id is taken.
func (s *BadgerMetaStore) CreateGroup(ctx context.Context, record *meta.GroupRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := encodeGroupRecord(record)
	if err != nil {
		return fmt.Errorf("failed to create group %s: %w", record.ID, meta.ErrIO)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyGroup(record.ID))
		if err == nil {
			return meta.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(keyGroup(record.ID), encoded)
	})
	if err != nil {
		if errors.Is(err, meta.ErrAlreadyExists) {
			return fmt.Errorf("group %s: %w", record.ID, meta.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create group %s: %w", record.ID, meta.ErrIO)
	}

	return nil
}

// DeleteGroup removes the group record with the given id.
//
// Member files are not touched here; the orchestrator cascades member
// deletion before removing the group record.
func (s *BadgerMetaStore) DeleteGroup(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keyGroup(id)); err != nil {
			return err
		}
		return txn.Delete(keyGroup(id))
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("group %s: %w", id, meta.ErrNotFound)
		}
		return fmt.Errorf("failed to delete group %s: %w", id, meta.ErrIO)
	}

	return nil
}

// Close closes the underlying BadgerDB database.
func (s *BadgerMetaStore) Close() error {
	return s.db.Close()
}
