package blob

import "errors"

// Standard Blob Store Errors
// ==========================
//
// All Store implementations return these sentinel errors so callers can
// branch with errors.Is regardless of the backend:
//
//	data, err := store.Load(ctx, id)
//	if errors.Is(err, blob.ErrNotFound) {
//	    // map to 404 at the transport boundary
//	}
//
// Backends wrap the sentinels with context:
//
//	return fmt.Errorf("blob %s: %w", id, blob.ErrNotFound)
var (
	// ErrNotFound indicates no content is stored under the requested id.
	ErrNotFound = errors.New("blob not found")

	// ErrIO indicates the backend failed to read or write content.
	// This covers disk failures, network errors to object storage, and
	// any other infrastructure-level fault. The orchestrator treats it
	// as the trigger for compensation.
	ErrIO = errors.New("blob i/o failure")
)
