package storage

import "errors"

// Storage Operation Errors
// ========================
//
// Every orchestrator operation reports its outcome through one of these
// sentinel kinds, wrapped with detail. Validation errors (ErrBadMediaType,
// ErrBadPermissionSpec, ErrQuotaExceeded) are always detected before any
// mutating store call and never require compensation. ErrIO can surface
// after a partial mutation; the per-operation compensation protocol is
// documented on each operation.
//
// The transport adapter maps the kinds to status codes: not-found becomes
// 404, forbidden and quota-exceeded 403, bad input 400, conflict 409, and
// i/o failure 500.
var (
	// ErrNotFound indicates the requested file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrGroupNotFound indicates the referenced group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrForbidden indicates the caller is not permitted to access the
	// entity.
	ErrForbidden = errors.New("access forbidden")

	// ErrBadMediaType indicates a declared media type that does not parse.
	ErrBadMediaType = errors.New("bad media type")

	// ErrBadPermissionSpec indicates a malformed permission spec, or one
	// that does not include the caller's own subject.
	ErrBadPermissionSpec = errors.New("bad permission spec")

	// ErrQuotaExceeded indicates the target group cannot admit the
	// incoming bytes without exceeding its quota.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrConflict indicates a caller-chosen group id is already taken.
	ErrConflict = errors.New("group id already exists")

	// ErrIO indicates a blob or metadata store failure. When it surfaces
	// after a partial mutation, the operation has already applied its
	// documented compensation (or logged its failure to do so).
	ErrIO = errors.New("storage i/o failure")
)
