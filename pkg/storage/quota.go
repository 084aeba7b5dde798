package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/integrable/stardust/pkg/store/meta"
)

// Quota Accounting
// ================
//
// A group's AccumulatedSize is mutated only here, and only while holding
// that group's lock. Admission (admit) and the subsequent increase must
// happen under one lock acquisition: two concurrent uploads into the same
// group could otherwise both pass admission before either records its
// bytes, transiently exceeding the quota. Operations on different group
// ids proceed independently.

// groupLocks is a keyed mutex set, one lock per group id.
//
// Locks are created on first use and never released back; the set grows
// with the number of distinct groups touched by the process, which is
// bounded by the number of groups in the store.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for a single group id and returns its unlock
// function.
func (g *groupLocks) lock(id string) func() {
	g.mu.Lock()
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// lockAll acquires the mutexes for a set of group ids in sorted order
// (consistent ordering prevents deadlock between operations touching the
// same pair of groups) and returns a single unlock function.
func (g *groupLocks) lockAll(ids ...string) func() {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	sort.Strings(unique)

	unlocks := make([]func(), 0, len(unique))
	for _, id := range unique {
		unlocks = append(unlocks, g.lock(id))
	}

	return func() {
		// Release in reverse acquisition order.
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// admit reports whether a group can accept incoming bytes without
// exceeding its quota. Groups without a quota admit everything.
//
// Callers must hold the group's lock and must apply the corresponding
// increase under the same lock acquisition.
func admit(group *meta.GroupRecord, incoming int64) bool {
	if group.Quota == nil {
		return true
	}
	return group.AccumulatedSize+incoming <= *group.Quota
}

// adjustGroupSize applies a delta to a group's AccumulatedSize and
// persists the record. Callers must hold the group's lock.
func (o *Orchestrator) adjustGroupSize(ctx context.Context, group *meta.GroupRecord, delta int64) error {
	group.AccumulatedSize += delta
	group.ModifiedAt = time.Now().UTC()

	if err := o.meta.PutGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to persist group %s size: %w", group.ID, ErrIO)
	}

	return nil
}
