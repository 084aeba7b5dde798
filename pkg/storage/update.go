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

// UpdateRequest carries the caller-supplied changes for an update.
//
// Partial semantics: nil fields leave the stored value untouched. A
// pointer to the empty string clears GroupID (removing the file from its
// group); for the other string fields an empty value is stored as given.
type UpdateRequest struct {
	// Content replaces the file's bytes when non-nil.
	Content []byte

	Filename    *string
	Description *string
	GroupID     *string
	Permission  *permission.Spec
	MediaType   *string
}

// Update applies metadata changes and optionally replaces a file's
// content.
//
// Content replacement protocol: the new bytes are saved under a staging
// blob id first, the metadata record (with the new size and checksum) is
// written second, and the staged blob is renamed over the file's blob id
// last. Stored metadata therefore never describes bytes that are not yet
// durably written. If the final rename fails, the metadata record is
// reverted to its pre-update values and ErrIO reported.
//
// Group reassignment reconciles both sides: the old group's accumulated
// size is decremented by the file's previous size and the new group is
// checked for admission and incremented, under both groups' locks. A
// content replace within one group adjusts that group's accumulated size
// by the size delta, with admission checked on growth.
func (o *Orchestrator) Update(ctx context.Context, caller identity.Identity, id string, req UpdateRequest) (record *meta.FileRecord, err error) {
	start := time.Now()
	defer func() { o.observe("update", start, err) }()

	original, err := o.loadFile(ctx, id)
	if err != nil {
		return nil, err
	}

	if !permission.CanAccess(caller, original.Permission) {
		return nil, ErrForbidden
	}

	if req.Permission != nil {
		if err = permission.Validate(caller, *req.Permission); err != nil {
			return nil, ErrBadPermissionSpec
		}
	}

	updated := original.Clone()

	if req.MediaType != nil {
		mediaType, mtErr := resolveMediaType(*req.MediaType, nil, false)
		if mtErr != nil || *req.MediaType == "" {
			return nil, ErrBadMediaType
		}
		updated.MediaType = mediaType
	}

	if req.Filename != nil {
		updated.Filename = *req.Filename
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Permission != nil {
		updated.Permission = *req.Permission
	}

	oldGroupID := original.GroupID
	newGroupID := oldGroupID
	if req.GroupID != nil {
		newGroupID = *req.GroupID
	}
	groupChanged := newGroupID != oldGroupID

	contentChanged := req.Content != nil
	oldSize := original.Size
	newSize := oldSize
	if contentChanged {
		newSize = int64(len(req.Content))
		updated.Size = newSize
		updated.Checksum = checksum(req.Content)
	}

	updated.GroupID = newGroupID
	updated.ModifiedAt = time.Now().UTC()

	// Quota-critical section: admission and the matching adjustments must
	// happen under the locks of every group involved.
	if groupChanged || (contentChanged && oldGroupID != "") {
		unlock := o.locks.lockAll(oldGroupID, newGroupID)
		defer unlock()
	}

	var oldGroup, newGroup *meta.GroupRecord

	switch {
	case groupChanged:
		if newGroupID != "" {
			newGroup, err = o.loadGroup(ctx, newGroupID)
			if err != nil {
				return nil, err
			}
			if !admit(newGroup, newSize) {
				o.metrics.IncQuotaRejection()
				return nil, ErrQuotaExceeded
			}
		}
		if oldGroupID != "" {
			oldGroup, err = o.loadGroup(ctx, oldGroupID)
			if err != nil {
				// The old group is gone; nothing to reconcile.
				logger.Warn("update %s: old group %s not loadable: %v", id, oldGroupID, err)
				oldGroup, err = nil, nil
			}
		}

	case contentChanged && oldGroupID != "":
		oldGroup, err = o.loadGroup(ctx, oldGroupID)
		if err != nil {
			return nil, err
		}
		if delta := newSize - oldSize; delta > 0 && !admit(oldGroup, delta) {
			o.metrics.IncQuotaRejection()
			return nil, ErrQuotaExceeded
		}
	}

	if contentChanged {
		if err = o.commitContent(ctx, original, updated, req.Content); err != nil {
			return nil, err
		}
		o.metrics.AddBytesStored(newSize - oldSize)
	} else {
		if err = o.meta.PutFile(ctx, updated); err != nil {
			return nil, ErrIO
		}
	}

	// Metadata and blob are committed; reconcile group accounting.
	switch {
	case groupChanged:
		if oldGroup != nil {
			if err = o.adjustGroupSize(ctx, oldGroup, -oldSize); err != nil {
				logger.Error("update %s: failed to release %d bytes from group %s: %v", id, oldSize, oldGroupID, err)
				return nil, ErrIO
			}
		}
		if newGroup != nil {
			if err = o.adjustGroupSize(ctx, newGroup, newSize); err != nil {
				logger.Error("update %s: failed to record %d bytes against group %s: %v", id, newSize, newGroupID, err)
				return nil, ErrIO
			}
		}

	case contentChanged && oldGroup != nil:
		if delta := newSize - oldSize; delta != 0 {
			if err = o.adjustGroupSize(ctx, oldGroup, delta); err != nil {
				logger.Error("update %s: failed to adjust group %s by %d bytes: %v", id, oldGroupID, delta, err)
				return nil, ErrIO
			}
		}
	}

	return updated, nil
}

// commitContent replaces a file's bytes using the stage-write-rename
// protocol described on Update.
func (o *Orchestrator) commitContent(ctx context.Context, original, updated *meta.FileRecord, content []byte) error {
	stagingID := blob.ID(updated.ID + ".staging." + uuid.NewString())

	if err := o.blobs.Save(ctx, stagingID, content); err != nil {
		// Nothing committed yet.
		return ErrIO
	}

	if err := o.meta.PutFile(ctx, updated); err != nil {
		o.discardStaging(ctx, stagingID)
		return ErrIO
	}

	if err := o.blobs.Rename(ctx, stagingID, blob.ID(updated.ID)); err != nil {
		// The record now describes bytes that never reached the file's
		// blob id. Revert it to the pre-update values.
		logger.Warn("update %s: blob commit failed, reverting metadata: %v", updated.ID, err)
		o.metrics.IncCompensation("update")
		if revertErr := o.meta.PutFile(ctx, original); revertErr != nil {
			logger.Error("update %s: compensating metadata revert failed: %v", updated.ID, revertErr)
		}
		o.discardStaging(ctx, stagingID)
		return ErrIO
	}

	return nil
}

// discardStaging removes a staged blob, best effort.
func (o *Orchestrator) discardStaging(ctx context.Context, stagingID blob.ID) {
	if err := o.blobs.Delete(ctx, stagingID); err != nil {
		logger.Warn("failed to discard staged blob %s: %v", stagingID, err)
	}
}
