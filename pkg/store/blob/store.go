// Package blob defines the content-blob storage contract for stardust.
//
// A blob store holds the raw bytes of uploaded files, keyed by the opaque
// file id assigned at upload time. It knows nothing about metadata records,
// groups, or permissions; the storage orchestrator coordinates blob writes
// with the metadata store.
package blob

import "context"

// ID is the opaque identifier a blob is stored under.
//
// IDs are the file ids generated by the orchestrator (UUID strings), never
// content hashes: stardust does not deduplicate, and saving under an
// existing id overwrites the previous bytes.
type ID string

// Store provides keyed byte storage for file content.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same id are the orchestrator's responsibility
// to serialize; implementations only guarantee that each individual
// operation is atomic with respect to readers (a Load never observes a
// half-written Save).
//
// All operations respect context cancellation. Errors use the sentinel
// values declared in this package, wrapped with operation detail:
//
//	if errors.Is(err, blob.ErrNotFound) { ... }
type Store interface {
	// Save stores data under id, overwriting any previous content.
	Save(ctx context.Context, id ID, data []byte) error

	// Load returns the complete content stored under id.
	// Returns ErrNotFound if no content exists for the id.
	Load(ctx context.Context, id ID) ([]byte, error)

	// Delete removes the content stored under id.
	// Returns ErrNotFound if no content exists for the id.
	Delete(ctx context.Context, id ID) error

	// Exists reports whether content is stored under id.
	Exists(ctx context.Context, id ID) (bool, error)

	// Rename atomically re-keys content from oldID to newID, replacing any
	// content already stored under newID. Used by the orchestrator to
	// commit staged writes. Returns ErrNotFound if oldID has no content.
	Rename(ctx context.Context, oldID, newID ID) error

	// List returns the ids of all stored blobs, in no particular order.
	// Used by the garbage collector to find orphaned content; the listing
	// is a snapshot and may not reflect concurrent writes.
	List(ctx context.Context) ([]ID, error)

	// Close releases any resources held by the store.
	Close() error
}
