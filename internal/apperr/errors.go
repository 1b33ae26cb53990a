// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrAccessDenied marks a path outside the configured allow-list.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound marks a missing file, node, or path segment.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists marks a write refused because the target exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrFormat marks an unreadable archive or unparsable payload.
	ErrFormat = errors.New("invalid archive format")
	// ErrReference marks a title-based reference that resolves to no topic.
	ErrReference = errors.New("unresolved reference")
	// ErrValidation marks rejected input (bad extension, bad field values).
	ErrValidation = errors.New("validation failed")
)
