package storage

import (
	"context"
	"errors"
	"time"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/permission"
	"github.com/integrable/stardust/pkg/store/blob"
	"github.com/integrable/stardust/pkg/store/meta"
)

// Delete removes a file: its metadata record, its blob, and its share of
// the owning group's accumulated size.
//
// The metadata delete is the commit point. Once the record is gone the
// file is deleted from the caller's point of view; a crash afterwards
// can leave an orphan blob or a stale group size, and a retried delete
// (or a later delete of the same id) repairs neither, so blob removal
// tolerates ErrNotFound and the group adjustment is skipped when the
// group no longer exists.
func (o *Orchestrator) Delete(ctx context.Context, caller identity.Identity, id string) (err error) {
	start := time.Now()
	defer func() { o.observe("delete", start, err) }()

	record, err := o.loadFile(ctx, id)
	if err != nil {
		return err
	}

	if !permission.CanAccess(caller, record.Permission) {
		return ErrForbidden
	}

	if record.GroupID != "" {
		unlock := o.locks.lock(record.GroupID)
		defer unlock()
	}

	if err = o.deleteFile(ctx, record); err != nil {
		return err
	}

	return nil
}

// deleteFile performs the store-level removal of an already-authorized
// file. Callers must hold the lock for record.GroupID when it is set.
func (o *Orchestrator) deleteFile(ctx context.Context, record *meta.FileRecord) error {
	if err := o.meta.DeleteFile(ctx, record.ID); err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return ErrNotFound
		}
		return ErrIO
	}

	// Commit point passed. Failures below are logged and surfaced but
	// must not resurrect the record.
	if record.GroupID != "" {
		group, err := o.loadGroup(ctx, record.GroupID)
		if err != nil {
			logger.Warn("delete %s: group %s not loadable, skipping size release: %v", record.ID, record.GroupID, err)
		} else if err := o.adjustGroupSize(ctx, group, -record.Size); err != nil {
			logger.Error("delete %s: failed to release %d bytes from group %s: %v", record.ID, record.Size, record.GroupID, err)
			return ErrIO
		}
	}

	if err := o.blobs.Delete(ctx, blob.ID(record.ID)); err != nil && !errors.Is(err, blob.ErrNotFound) {
		logger.Error("delete %s: blob removal failed, orphan blob left behind: %v", record.ID, err)
		return ErrIO
	}

	o.metrics.AddBytesStored(-record.Size)

	return nil
}
