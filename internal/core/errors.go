package core

import "errors"

var (
	// ErrStoreUnavailable wraps failures talking to the content store.
	ErrStoreUnavailable = errors.New("content store unavailable")
	// ErrNotFound is returned by lookups that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when an insert collides with an existing
	// normalized artist name.
	ErrDuplicateName = errors.New("duplicate artist name")
	// ErrNotConfigured is returned by optional collaborators that lack
	// credentials.
	ErrNotConfigured = errors.New("not configured")
)
