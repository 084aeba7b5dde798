// Package meta defines the metadata storage contract for stardust.
//
// The metadata store holds durable FileRecord and GroupRecord entities,
// keyed by id, with atomic single-record reads and writes. It promises
// nothing across records: the storage orchestrator sequences multi-record
// protocols (upload compensation, quota bookkeeping, cascade delete) on
// top of these primitives and must not assume cross-record transactions.
package meta

import (
	"context"
	"time"

	"github.com/integrable/stardust/pkg/permission"
)

// FileRecord is the metadata for one stored file.
//
// Size and Checksum describe the bytes currently held by the blob store
// under the same id; the orchestrator keeps them consistent.
type FileRecord struct {
	// ID is the system-generated opaque identifier. Immutable.
	ID string `json:"id"`

	// Filename is the caller-supplied display name.
	Filename string `json:"filename"`

	// Description is optional caller-supplied display metadata.
	Description string `json:"description,omitempty"`

	// Owner is the subject identifier of the uploading caller.
	Owner string `json:"owner"`

	// GroupID is an optional weak reference to a GroupRecord. The group
	// does not own the file; the reference can be cleared or repointed.
	GroupID string `json:"group_id,omitempty"`

	// Permission guards read and write access to this record.
	Permission permission.Spec `json:"permission"`

	// MediaType is the content-type label, validated at write time.
	MediaType string `json:"media_type"`

	// Size is the byte length of the stored blob.
	Size int64 `json:"size"`

	// Checksum is the hex-encoded SHA-256 of the stored blob.
	Checksum string `json:"checksum"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Clone returns a deep copy of the record.
func (f *FileRecord) Clone() *FileRecord {
	c := *f
	if f.Permission.Subjects != nil {
		c.Permission.Subjects = append([]string(nil), f.Permission.Subjects...)
	}
	return &c
}

// GroupRecord is the metadata for a quota-bounded namespace of files.
//
// Membership is derived, never stored: the files in a group are exactly
// the FileRecords whose GroupID equals this record's ID.
type GroupRecord struct {
	// ID is caller-chosen and unique. Immutable once created.
	ID string `json:"id"`

	// Description is optional caller-supplied display metadata.
	Description string `json:"description,omitempty"`

	// Owner is the subject identifier of the creating caller.
	Owner string `json:"owner"`

	// Permission guards read and write access to this record.
	Permission permission.Spec `json:"permission"`

	// Quota is the maximum cumulative byte size across member files.
	// nil means unlimited.
	Quota *int64 `json:"quota,omitempty"`

	// AccumulatedSize is the running total of member file sizes. Only the
	// orchestrator's quota accountant mutates it.
	AccumulatedSize int64 `json:"accumulated_size"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Clone returns a deep copy of the record.
func (g *GroupRecord) Clone() *GroupRecord {
	c := *g
	if g.Permission.Subjects != nil {
		c.Permission.Subjects = append([]string(nil), g.Permission.Subjects...)
	}
	if g.Quota != nil {
		q := *g.Quota
		c.Quota = &q
	}
	return &c
}

// Store provides durable keyed storage for file and group records.
//
// Implementations must be safe for concurrent use. Each call is atomic for
// a single record; no multi-record transaction is available or implied.
//
// Errors use the sentinel values declared in this package, wrapped with
// record detail.
type Store interface {
	// GetFile returns the file record with the given id.
	// Returns ErrNotFound if no such record exists.
	GetFile(ctx context.Context, id string) (*FileRecord, error)

	// PutFile writes the file record, creating or replacing it.
	PutFile(ctx context.Context, record *FileRecord) error

	// DeleteFile removes the file record with the given id.
	// Returns ErrNotFound if no such record exists.
	DeleteFile(ctx context.Context, id string) error

	// ListFilesByGroup returns all file records whose GroupID equals
	// groupID. Order is unspecified. An empty result is not an error.
	ListFilesByGroup(ctx context.Context, groupID string) ([]*FileRecord, error)

	// ListFileIDs returns the ids of all file records, in no particular
	// order. Used by the garbage collector to find referenced blobs.
	ListFileIDs(ctx context.Context) ([]string, error)

	// GetGroup returns the group record with the given id.
	// Returns ErrNotFound if no such record exists.
	GetGroup(ctx context.Context, id string) (*GroupRecord, error)

	// PutGroup writes the group record, creating or replacing it.
	PutGroup(ctx context.Context, record *GroupRecord) error

	// CreateGroup writes a new group record, failing with
	// ErrAlreadyExists if the id is already taken.
	CreateGroup(ctx context.Context, record *GroupRecord) error

	// DeleteGroup removes the group record with the given id.
	// Returns ErrNotFound if no such record exists.
	DeleteGroup(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
