package meta

import "errors"

// Standard Metadata Store Errors
// ==============================
//
// All Store implementations return these sentinels so callers can branch
// with errors.Is regardless of the backend:
//
//	record, err := store.GetFile(ctx, id)
//	if errors.Is(err, meta.ErrNotFound) {
//	    // map to 404 at the transport boundary
//	}
var (
	// ErrNotFound indicates no record exists for the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a record with the id already exists.
	// Returned by CreateGroup; group ids are caller-chosen and must be
	// unique.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrIO indicates the backend failed to read or write a record.
	ErrIO = errors.New("metadata i/o failure")
)
