// Package audit provides sentinel errors for audit store operations.
package audit

import "errors"

// Sentinel errors for audit store operations.
var (
	// ErrNotFound is returned when a requested entity is not found.
	ErrNotFound = errors.New("entity not found")

	// ErrEventNotFound is returned when an audit event is not found.
	ErrEventNotFound = errors.New("audit event not found")

	// ErrBatchNotFound is returned when a merkle batch is not found.
	ErrBatchNotFound = errors.New("merkle batch not found")

	// ErrProofNotFound is returned when an event proof is not found.
	ErrProofNotFound = errors.New("event proof not found")

	// ErrAnchorNotFound is returned when an anchor record is not found.
	ErrAnchorNotFound = errors.New("anchor record not found")

	// ErrCursorNotFound is returned when a sync cursor is not found.
	ErrCursorNotFound = errors.New("sync cursor not found")

	// ErrCheckpointNotFound is returned when an orchestrator checkpoint is
	// not found for the requested thread.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrDuplicateEvent signals a unique-constraint collision on an audit
	// event's natural key; callers treat this as an idempotent no-op, not a
	// failure.
	ErrDuplicateEvent = errors.New("duplicate audit event")
)
