package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/permission"
	"github.com/integrable/stardust/pkg/store/blob"
	"github.com/integrable/stardust/pkg/store/meta"
)

// UploadRequest carries the caller-supplied inputs for an upload.
type UploadRequest struct {
	// Content is the file's bytes.
	Content []byte

	// Filename is the required display name.
	Filename string

	// Description is optional display metadata.
	Description string

	// GroupID optionally places the file in an existing group.
	GroupID string

	// Permission optionally restricts access. nil means public.
	Permission *permission.Spec

	// MediaType optionally declares the content type. Empty defaults to
	// the generic binary type (or sniffed type when enabled).
	MediaType string

	// Owner optionally overrides the record owner. Empty means the
	// calling subject.
	Owner string
}

// Upload stores new content with a fresh system-generated id.
//
// Sequencing and compensation:
//  1. Validate media type and permission spec (no store mutation yet).
//  2. Under the group's lock (if grouped): load the group and check quota
//     admission.
//  3. Persist the metadata record.
//  4. Save the blob. On failure, compensate by deleting the just-written
//     record (best effort - a failed compensating delete is logged, not
//     retried) and report ErrIO. Quota is not yet incremented, so no
//     quota compensation is needed.
//  5. If grouped, record the new bytes against the group's accumulated
//     size.
//
// The group lock spans admission through the size increase, closing the
// race where two concurrent uploads both pass admission before either
// records its bytes.
func (o *Orchestrator) Upload(ctx context.Context, caller identity.Identity, req UploadRequest) (record *meta.FileRecord, err error) {
	start := time.Now()
	defer func() { o.observe("upload", start, err) }()

	mediaType, err := resolveMediaType(req.MediaType, req.Content, o.sniffMediaType)
	if err != nil {
		return nil, err
	}

	spec := permission.Public()
	if req.Permission != nil {
		if err = permission.Validate(caller, *req.Permission); err != nil {
			return nil, ErrBadPermissionSpec
		}
		spec = *req.Permission
	}

	if req.GroupID != "" {
		unlock := o.locks.lock(req.GroupID)
		defer unlock()
	}

	var group *meta.GroupRecord
	size := int64(len(req.Content))

	if req.GroupID != "" {
		group, err = o.loadGroup(ctx, req.GroupID)
		if err != nil {
			return nil, err
		}
		if !admit(group, size) {
			o.metrics.IncQuotaRejection()
			return nil, ErrQuotaExceeded
		}
	}

	owner := req.Owner
	if owner == "" {
		owner = caller.Subject
	}

	now := time.Now().UTC()
	record = &meta.FileRecord{
		ID:          uuid.NewString(),
		Filename:    req.Filename,
		Description: req.Description,
		Owner:       owner,
		GroupID:     req.GroupID,
		Permission:  spec,
		MediaType:   mediaType,
		Size:        size,
		Checksum:    checksum(req.Content),
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	// Metadata first: a failed blob write below is compensated by
	// deleting this record.
	if err = o.meta.PutFile(ctx, record); err != nil {
		return nil, ErrIO
	}

	if err = o.blobs.Save(ctx, blob.ID(record.ID), req.Content); err != nil {
		logger.Warn("upload %s: blob save failed, removing metadata record: %v", record.ID, err)
		o.metrics.IncCompensation("upload")
		if delErr := o.meta.DeleteFile(ctx, record.ID); delErr != nil {
			logger.Error("upload %s: compensating metadata delete failed: %v", record.ID, delErr)
		}
		return nil, ErrIO
	}

	o.metrics.AddBytesStored(size)

	if group != nil {
		if err = o.adjustGroupSize(ctx, group, size); err != nil {
			// Record and blob are committed; only the group's counter is
			// stale. Surface the failure rather than unwinding a
			// successful upload.
			logger.Error("upload %s: failed to record %d bytes against group %s: %v", record.ID, size, group.ID, err)
			return nil, ErrIO
		}
	}

	return record, nil
}
