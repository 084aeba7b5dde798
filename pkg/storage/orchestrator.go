// Package storage implements the stardust storage orchestrator.
//
// The orchestrator is the coordination core of the system: it keeps three
// independently-evolving pieces of state - a metadata record, a content
// blob, and a group's accumulated size - consistent across upload, update,
// and delete, under partial-failure conditions, while enforcing
// capability-based access control and quota admission.
//
// Consistency protocol:
//   - A file's metadata Size and Checksum always describe the bytes the
//     blob store holds under the file's id. On upload, metadata is written
//     before the blob so a failed blob write is compensated by deleting
//     the metadata (cheap and always possible); the reverse order would
//     risk orphan metadata pointing at missing content, which breaks
//     every read. On content replace, new bytes are staged under a
//     temporary blob id and committed with a rename after the metadata
//     write, so stored metadata never describes bytes that are not yet
//     durably written.
//   - A group's AccumulatedSize equals the sum of its member file sizes.
//     Quota admission and the matching size adjustment happen under a
//     per-group lock, so concurrent uploads cannot race past admission.
//   - Compensation failures are logged and the original error surfaced;
//     the system favors a clearly-reported inconsistency over retry loops.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/metrics"
	"github.com/integrable/stardust/pkg/permission"
	"github.com/integrable/stardust/pkg/store/blob"
	"github.com/integrable/stardust/pkg/store/meta"
)

// Orchestrator sequences metadata, blob, and quota operations.
//
// Safe for concurrent use. Operations on different file and group ids
// proceed independently; operations touching the same group serialize on
// that group's lock for the quota-critical section only.
type Orchestrator struct {
	meta    meta.Store
	blobs   blob.Store
	locks   *groupLocks
	metrics *metrics.StorageMetrics

	// sniffMediaType enables content-based media type detection when the
	// caller declares none.
	sniffMediaType bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics attaches a metrics collector. A nil collector is valid and
// records nothing.
func WithMetrics(m *metrics.StorageMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithMediaTypeSniffing enables content-based media type detection for
// uploads that declare no media type.
func WithMediaTypeSniffing() Option {
	return func(o *Orchestrator) { o.sniffMediaType = true }
}

// New creates an Orchestrator over the given stores.
func New(metaStore meta.Store, blobStore blob.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		meta:  metaStore,
		blobs: blobStore,
		locks: newGroupLocks(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// observe records one completed operation in the metrics collector.
func (o *Orchestrator) observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.metrics.ObserveOperation(operation, status, time.Since(start))
}

// checksum computes the hex-encoded SHA-256 of content.
func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// loadFile fetches a file record, translating store errors to operation
// error kinds.
func (o *Orchestrator) loadFile(ctx context.Context, id string) (*meta.FileRecord, error) {
	record, err := o.meta.GetFile(ctx, id)
	if err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrIO
	}
	return record, nil
}

// loadGroup fetches a group record, translating store errors to operation
// error kinds.
func (o *Orchestrator) loadGroup(ctx context.Context, id string) (*meta.GroupRecord, error) {
	record, err := o.meta.GetGroup(ctx, id)
	if err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, ErrIO
	}
	return record, nil
}

// GetFileRecord returns a file's metadata record.
//
// Fails with ErrNotFound if the file does not exist and ErrForbidden if
// the caller may not access it.
func (o *Orchestrator) GetFileRecord(ctx context.Context, caller identity.Identity, id string) (record *meta.FileRecord, err error) {
	start := time.Now()
	defer func() { o.observe("get_file_record", start, err) }()

	record, err = o.loadFile(ctx, id)
	if err != nil {
		return nil, err
	}

	if !permission.CanAccess(caller, record.Permission) {
		return nil, ErrForbidden
	}

	return record, nil
}

// GetFile returns a file's metadata record together with its content.
//
// A record whose blob is missing violates the store consistency contract
// and surfaces as ErrIO, never as ErrNotFound: the file exists, its bytes
// are unreadable.
func (o *Orchestrator) GetFile(ctx context.Context, caller identity.Identity, id string) (record *meta.FileRecord, content []byte, err error) {
	start := time.Now()
	defer func() { o.observe("get_file", start, err) }()

	record, err = o.loadFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !permission.CanAccess(caller, record.Permission) {
		return nil, nil, ErrForbidden
	}

	content, blobErr := o.blobs.Load(ctx, blob.ID(id))
	if blobErr != nil {
		logger.Error("file %s: metadata present but blob unreadable: %v", id, blobErr)
		return nil, nil, ErrIO
	}

	return record, content, nil
}

// GroupInfo is a group record together with its derived member file ids.
type GroupInfo struct {
	Record  *meta.GroupRecord
	FileIDs []string
}

// GetGroup returns a group's record and the ids of its member files.
//
// Membership is computed from the files' back-references, never stored in
// the group itself.
func (o *Orchestrator) GetGroup(ctx context.Context, caller identity.Identity, id string) (info *GroupInfo, err error) {
	start := time.Now()
	defer func() { o.observe("get_group", start, err) }()

	group, err := o.loadGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if !permission.CanAccess(caller, group.Permission) {
		return nil, ErrForbidden
	}

	members, listErr := o.meta.ListFilesByGroup(ctx, id)
	if listErr != nil {
		return nil, ErrIO
	}

	fileIDs := make([]string, 0, len(members))
	for _, member := range members {
		fileIDs = append(fileIDs, member.ID)
	}

	return &GroupInfo{Record: group, FileIDs: fileIDs}, nil
}
