// Package testing provides a reusable test suite for blob.Store
// implementations.
package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integrable/stardust/pkg/store/blob"
)

// StoreTestSuite exercises the blob.Store interface contract, not
// implementation details, making it reusable across backends.
//
// Usage:
//
//	func TestMyBlobStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) blob.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh store for each test, ensuring isolation.
	NewStore func(t *testing.T) blob.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("SaveAndLoad", suite.testSaveAndLoad)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("LoadMissing", suite.testLoadMissing)
	t.Run("Delete", suite.testDelete)
	t.Run("DeleteMissing", suite.testDeleteMissing)
	t.Run("Exists", suite.testExists)
	t.Run("Rename", suite.testRename)
	t.Run("RenameMissing", suite.testRenameMissing)
	t.Run("EmptyContent", suite.testEmptyContent)
	t.Run("List", suite.testList)
}

func (suite *StoreTestSuite) testSaveAndLoad(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	data := []byte("hello stardust")
	require.NoError(t, store.Save(ctx, "id-1", data))

	got, err := store.Load(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func (suite *StoreTestSuite) testOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "id-1", []byte("first")))
	require.NoError(t, store.Save(ctx, "id-1", []byte("second")))

	got, err := store.Load(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func (suite *StoreTestSuite) testLoadMissing(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Load(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, blob.ErrNotFound))
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "id-1", []byte("bytes")))
	require.NoError(t, store.Delete(ctx, "id-1"))

	_, err := store.Load(ctx, "id-1")
	assert.True(t, errors.Is(err, blob.ErrNotFound))
}

func (suite *StoreTestSuite) testDeleteMissing(t *testing.T) {
	store := suite.NewStore(t)

	err := store.Delete(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, blob.ErrNotFound))
}

func (suite *StoreTestSuite) testExists(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "id-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, "id-1", []byte("bytes")))

	exists, err = store.Exists(ctx, "id-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *StoreTestSuite) testRename(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "staging", []byte("payload")))
	require.NoError(t, store.Rename(ctx, "staging", "final"))

	got, err := store.Load(ctx, "final")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	exists, err := store.Exists(ctx, "staging")
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *StoreTestSuite) testRenameMissing(t *testing.T) {
	store := suite.NewStore(t)

	err := store.Rename(context.Background(), "nope", "dest")
	require.Error(t, err)
	assert.True(t, errors.Is(err, blob.ErrNotFound))
}

func (suite *StoreTestSuite) testList(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Save(ctx, "id-1", []byte("a")))
	require.NoError(t, store.Save(ctx, "id-2", []byte("b")))

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []blob.ID{"id-1", "id-2"}, ids)

	require.NoError(t, store.Delete(ctx, "id-1"))

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []blob.ID{"id-2"}, ids)
}

func (suite *StoreTestSuite) testEmptyContent(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "empty", []byte{}))

	got, err := store.Load(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}
