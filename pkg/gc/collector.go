// Package gc removes orphaned blobs from the content store.
//
// The storage protocol deliberately tolerates orphaned blobs: a crash
// between metadata commit and blob delete, an aborted group cascade, or
// an abandoned staging blob all leave content behind that no record
// references. The collector reconciles the two stores out-of-band by
// listing referenced ids from metadata, listing stored ids from the
// blob store, and deleting the difference.
//
// A collection run can race an in-flight upload or content replace: a
// blob written after the metadata listing was taken looks orphaned.
// The window is tiny relative to the collection interval and a deleted
// in-flight blob surfaces as an upload failure, never as corruption,
// so the race is accepted rather than locked around.
package gc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/integrable/stardust/internal/logger"
	"github.com/integrable/stardust/pkg/store/blob"
	"github.com/integrable/stardust/pkg/store/meta"
)

// Collector performs periodic garbage collection on the blob store.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	meta   meta.Store
	blobs  blob.Store
	config Config
	stopCh chan struct{}
	doneCh chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether garbage collection is active (default: false)
	Enabled bool

	// Interval is how often to run garbage collection (default: 24h)
	Interval time.Duration

	// DryRun mode logs what would be deleted without actually deleting
	// (default: false). Useful for validating a deployment before
	// letting the collector loose on real content.
	DryRun bool
}

// NewCollector creates a new garbage collector.
//
// The collector is initialized but not started. Call Start() to begin
// background collection.
func NewCollector(metaStore meta.Store, blobStore blob.Store, config Config) *Collector {
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &Collector{
		meta:   metaStore,
		blobs:  blobStore,
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins background garbage collection.
//
// This starts a goroutine that runs collection at the configured
// interval until Stop() is called. A no-op when collection is disabled.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	logger.Info("Starting garbage collector: interval=%s dry_run=%v",
		c.config.Interval, c.config.DryRun)

	go c.worker()
}

// Stop stops the garbage collector and waits for it to finish.
//
// Parameters:
//   - ctx: Context for timeout (shutdown is abandoned if it expires)
//
// Returns:
//   - error: Returns error if context expires before shutdown completes
func (c *Collector) Stop(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	logger.Info("Stopping garbage collector...")
	close(c.stopCh)

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate collection run.
//
// Blocks until collection completes or the context is cancelled. Works
// even when periodic collection is disabled, which makes it useful for
// one-shot cleanup on startup and for tests.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - *Stats: Collection statistics
//   - error: Returns error if collection fails or context is cancelled
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)...")
	return c.collect(ctx)
}

// worker is the background goroutine that runs periodic collection.
func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect performs a single collection run.
//
// The algorithm:
//  1. List all blob ids referenced by file records
//  2. List all blob ids present in the blob store
//  3. Compute orphaned = existing - referenced
//  4. Delete the orphans one by one
//
// Metadata is listed before content, so a record committed between the
// two listings can only make its blob look referenced-but-missing (a
// no-op here), never orphaned.
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	referenced, err := c.meta.ListFileIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list referenced blobs: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	referencedSet := make(map[blob.ID]struct{}, len(referenced))
	for _, id := range referenced {
		referencedSet[blob.ID(id)] = struct{}{}
	}

	existing, err := c.blobs.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list stored blobs: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	orphaned := make([]blob.ID, 0)
	for _, id := range existing {
		if _, ok := referencedSet[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if len(orphaned) == 0 {
		logger.Debug("GC: no orphaned blobs found (referenced=%d existing=%d)",
			stats.ReferencedCount, stats.ExistingCount)
		stats.EndTime = time.Now()
		return stats, nil
	}

	logger.Info("GC: found %d orphaned blobs", stats.OrphanedCount)

	if c.config.DryRun {
		for i, id := range orphaned {
			if i == 10 {
				logger.Info("GC: dry run - ... and %d more", len(orphaned)-10)
				break
			}
			logger.Info("GC: dry run - would delete %s", id)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for _, id := range orphaned {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		err := c.blobs.Delete(ctx, id)
		switch {
		case err == nil:
			stats.DeletedCount++
		case errors.Is(err, blob.ErrNotFound):
			// Someone else removed it since the listing. Fine.
			stats.DeletedCount++
		default:
			logger.Warn("GC: failed to delete orphaned blob %s: %v", id, err)
			stats.FailedCount++
		}
	}

	stats.EndTime = time.Now()

	logger.Info("GC: completed - deleted %d blobs, %d failed, duration=%s",
		stats.DeletedCount, stats.FailedCount, stats.Duration())

	return stats, nil
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ReferencedCount uint64    // Number of blob ids referenced by file records
	ExistingCount   uint64    // Number of blob ids in the blob store
	OrphanedCount   uint64    // Number of orphaned blob ids found
	DeletedCount    uint64    // Number of orphans successfully deleted
	FailedCount     uint64    // Number of orphans that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
