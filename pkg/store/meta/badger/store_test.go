package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/integrable/stardust/pkg/store/meta"
	metatesting "github.com/integrable/stardust/pkg/store/meta/testing"
)

// TestBadgerMetaStore runs the meta.Store test suite against the BadgerDB
// implementation.
func TestBadgerMetaStore(t *testing.T) {
	suite := &metatesting.StoreTestSuite{
		NewStore: func(t *testing.T) meta.Store {
			store, err := NewBadgerMetaStore(context.Background(), BadgerMetaStoreConfig{
				DBPath: t.TempDir(),
			})
			if err != nil {
				t.Fatalf("Failed to create BadgerMetaStore: %v", err)
			}
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerMetaStorePersistence verifies records survive a close/reopen
// cycle.
func TestBadgerMetaStorePersistence(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	store, err := NewBadgerMetaStore(ctx, BadgerMetaStoreConfig{DBPath: dbPath})
	require.NoError(t, err)

	record := &meta.FileRecord{
		ID:        "file-1",
		Filename:  "kept.bin",
		Owner:     "alice",
		MediaType: "application/octet-stream",
		Size:      42,
		Checksum:  "cafe",
	}
	require.NoError(t, store.PutFile(ctx, record))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerMetaStore(ctx, BadgerMetaStoreConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetFile(ctx, "file-1")
	require.NoError(t, err)
	require.Equal(t, "kept.bin", got.Filename)
	require.Equal(t, int64(42), got.Size)
}

// TestBadgerMetaStoreRequiresPath verifies configuration validation.
func TestBadgerMetaStoreRequiresPath(t *testing.T) {
	_, err := NewBadgerMetaStore(context.Background(), BadgerMetaStoreConfig{})
	require.Error(t, err)
}
