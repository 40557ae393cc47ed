package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoConnection indicates no registered connection matches a URL.
	ErrNoConnection = errors.New("no connection matches URL")

	// Extraction errors. These are precondition failures local to a
	// connection; they abort the job before any submission occurs and are
	// never retried automatically.

	// ErrDocumentTooShort indicates the source document does not have
	// enough content to be converted into a space.
	ErrDocumentTooShort = errors.New("document is too short to be converted into a space")

	// ErrSchemaMismatch indicates a record batch violated the homogeneous
	// schema invariant.
	ErrSchemaMismatch = errors.New("record schema mismatch")

	// ErrAuthRequired indicates the user is not authenticated with the
	// backend host (no session cookie available).
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates a third-party API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Relay errors.

	// ErrUnknownSession indicates a message was addressed to a session id
	// with no registered owner.
	ErrUnknownSession = errors.New("unknown relay session")
)
