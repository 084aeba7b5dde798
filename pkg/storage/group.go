package storage

import (
	"context"
	"errors"
	"time"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/pkg/identity"
	"github.com/integrable/stardust/pkg/permission"
	"github.com/integrable/stardust/pkg/store/meta"
)

// CreateGroupRequest carries the caller-supplied fields for a new group.
// The id is chosen by the caller, unlike file ids.
type CreateGroupRequest struct {
	ID          string
	Description string

	// Owner defaults to the caller's subject when empty.
	Owner string

	// Quota is the byte limit for the group's accumulated size; nil
	// means unlimited.
	Quota *int64

	// Permission defaults to public when nil.
	Permission *permission.Spec
}

// CreateGroup registers a new, empty group. It fails with ErrConflict
// when the id is already taken.
func (o *Orchestrator) CreateGroup(ctx context.Context, caller identity.Identity, req CreateGroupRequest) (record *meta.GroupRecord, err error) {
	start := time.Now()
	defer func() { o.observe("create_group", start, err) }()

	spec := permission.Public()
	if req.Permission != nil {
		spec = *req.Permission
		if err = permission.Validate(caller, spec); err != nil {
			return nil, ErrBadPermissionSpec
		}
	}

	owner := req.Owner
	if owner == "" {
		owner = caller.Subject
	}

	now := time.Now().UTC()
	record = &meta.GroupRecord{
		ID:          req.ID,
		Description: req.Description,
		Owner:       owner,
		Permission:  spec,
		Quota:       req.Quota,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	if err = o.meta.CreateGroup(ctx, record); err != nil {
		if errors.Is(err, meta.ErrAlreadyExists) {
			return nil, ErrConflict
		}
		return nil, ErrIO
	}

	logger.Info("created group %s (owner %s)", record.ID, owner)

	return record, nil
}

// DeleteGroup deletes a group and all of its member files.
//
// The cascade is deliberately non-atomic: members are deleted one at a
// time, and the first failure aborts the whole operation with the group
// record and the remaining members intact. Already-deleted members stay
// deleted, so a retry resumes where the failed attempt stopped; members
// whose records vanished between enumeration and deletion count as
// already gone. The group record itself is removed only after every
// member is.
func (o *Orchestrator) DeleteGroup(ctx context.Context, caller identity.Identity, id string) (err error) {
	start := time.Now()
	defer func() { o.observe("delete_group", start, err) }()

	group, err := o.loadGroup(ctx, id)
	if err != nil {
		return err
	}

	if !permission.CanAccess(caller, group.Permission) {
		return ErrForbidden
	}

	members, err := o.meta.ListFilesByGroup(ctx, id)
	if err != nil {
		return ErrIO
	}

	unlock := o.locks.lock(id)
	defer unlock()

	for _, member := range members {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warn("delete group %s: interrupted after partial cascade: %v", id, ctxErr)
			return ctxErr
		}

		if delErr := o.deleteFile(ctx, member); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			logger.Error("delete group %s: cascade aborted at file %s: %v", id, member.ID, delErr)
			return ErrIO
		}
	}

	if err = o.meta.DeleteGroup(ctx, id); err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return ErrGroupNotFound
		}
		return ErrIO
	}

	logger.Info("deleted group %s and %d member files", id, len(members))

	return nil
}
