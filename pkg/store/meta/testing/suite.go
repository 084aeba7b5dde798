// Package testing provides a reusable test suite for meta.Store
// implementations.
package testing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/integrable/stardust/pkg/permission"
	"github.com/integrable/stardust/pkg/store/meta"
)

// StoreTestSuite exercises the meta.Store interface contract against any
// backend.
//
// Usage:
//
//	func TestMyMetaStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) meta.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh store for each test, ensuring isolation.
	NewStore func(t *testing.T) meta.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("FileRoundTrip", suite.testFileRoundTrip)
	t.Run("FileMissing", suite.testFileMissing)
	t.Run("FileReplace", suite.testFileReplace)
	t.Run("FileDelete", suite.testFileDelete)
	t.Run("ListFilesByGroup", suite.testListFilesByGroup)
	t.Run("ListAfterGroupChange", suite.testListAfterGroupChange)
	t.Run("ListFileIDs", suite.testListFileIDs)
	t.Run("GroupRoundTrip", suite.testGroupRoundTrip)
	t.Run("GroupCreateConflict", suite.testGroupCreateConflict)
	t.Run("GroupDelete", suite.testGroupDelete)
}

func testFileRecord(id, groupID string) *meta.FileRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return &meta.FileRecord{
		ID:         id,
		Filename:   "report.pdf",
		Owner:      "alice",
		GroupID:    groupID,
		Permission: permission.RestrictedTo("alice"),
		MediaType:  "application/pdf",
		Size:       1024,
		Checksum:   "deadbeef",
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

func (suite *StoreTestSuite) testFileRoundTrip(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	record := testFileRecord("file-1", "")
	require.NoError(t, store.PutFile(ctx, record))

	got, err := store.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, record.Filename, got.Filename)
	assert.Equal(t, record.Owner, got.Owner)
	assert.Equal(t, record.Permission, got.Permission)
	assert.Equal(t, record.Size, got.Size)
	assert.Equal(t, record.Checksum, got.Checksum)
}

func (suite *StoreTestSuite) testFileMissing(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetFile(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, meta.ErrNotFound))
}

func (suite *StoreTestSuite) testFileReplace(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	record := testFileRecord("file-1", "")
	require.NoError(t, store.PutFile(ctx, record))

	record.Filename = "renamed.pdf"
	require.NoError(t, store.PutFile(ctx, record))

	got, err := store.GetFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", got.Filename)
}

func (suite *StoreTestSuite) testFileDelete(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutFile(ctx, testFileRecord("file-1", "")))
	require.NoError(t, store.DeleteFile(ctx, "file-1"))

	_, err := store.GetFile(ctx, "file-1")
	assert.True(t, errors.Is(err, meta.ErrNotFound))

	err = store.DeleteFile(ctx, "file-1")
	assert.True(t, errors.Is(err, meta.ErrNotFound))
}

func (suite *StoreTestSuite) testListFilesByGroup(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutFile(ctx, testFileRecord("file-1", "g1")))
	require.NoError(t, store.PutFile(ctx, testFileRecord("file-2", "g1")))
	require.NoError(t, store.PutFile(ctx, testFileRecord("file-3", "g2")))
	require.NoError(t, store.PutFile(ctx, testFileRecord("file-4", "")))

	records, err := store.ListFilesByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	ids := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []string{"file-1", "file-2"}, ids)

	records, err = store.ListFilesByGroup(ctx, "empty-group")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func (suite *StoreTestSuite) testListAfterGroupChange(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	record := testFileRecord("file-1", "g1")
	require.NoError(t, store.PutFile(ctx, record))

	record.GroupID = "g2"
	require.NoError(t, store.PutFile(ctx, record))

	records, err := store.ListFilesByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = store.ListFilesByGroup(ctx, "g2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "file-1", records[0].ID)
}

func (suite *StoreTestSuite) testListFileIDs(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	ids, err := store.ListFileIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.PutFile(ctx, testFileRecord("file-1", "g1")))
	require.NoError(t, store.PutFile(ctx, testFileRecord("file-2", "")))

	ids, err = store.ListFileIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"file-1", "file-2"}, ids)

	require.NoError(t, store.DeleteFile(ctx, "file-1"))

	ids, err = store.ListFileIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"file-2"}, ids)
}

func (suite *StoreTestSuite) testGroupRoundTrip(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	quota := int64(4096)
	now := time.Now().UTC().Truncate(time.Second)
	record := &meta.GroupRecord{
		ID:              "g1",
		Description:     "quarterly reports",
		Owner:           "alice",
		Permission:      permission.Public(),
		Quota:           &quota,
		AccumulatedSize: 0,
		CreatedAt:       now,
		ModifiedAt:      now,
	}

	require.NoError(t, store.CreateGroup(ctx, record))

	got, err := store.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, record.Description, got.Description)
	require.NotNil(t, got.Quota)
	assert.Equal(t, quota, *got.Quota)

	got.AccumulatedSize = 600
	require.NoError(t, store.PutGroup(ctx, got))

	got, err = store.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(600), got.AccumulatedSize)
}

func (suite *StoreTestSuite) testGroupCreateConflict(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	record := &meta.GroupRecord{ID: "g1", Owner: "alice"}
	require.NoError(t, store.CreateGroup(ctx, record))

	err := store.CreateGroup(ctx, &meta.GroupRecord{ID: "g1", Owner: "bob"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, meta.ErrAlreadyExists))

	// The original record must be untouched.
	got, err := store.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
}

func (suite *StoreTestSuite) testGroupDelete(t *testing.T) {
	store := suite.NewStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateGroup(ctx, &meta.GroupRecord{ID: "g1"}))
	require.NoError(t, store.DeleteGroup(ctx, "g1"))

	_, err := store.GetGroup(ctx, "g1")
	assert.True(t, errors.Is(err, meta.ErrNotFound))

	err = store.DeleteGroup(ctx, "g1")
	assert.True(t, errors.Is(err, meta.ErrNotFound))
}
