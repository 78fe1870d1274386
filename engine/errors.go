package engine

import "errors"

// Structural errors. These are deterministic conditions, not transient
// failures: a rejected edit leaves buffer and document in their last
// consistent state, and there is no retry policy.
var (
	// ErrMalformedEdit indicates an edit request inconsistent with the
	// current buffer state: a range crossing buffer bounds, or a referenced
	// item/container id that cannot be resolved. The mutation is not applied.
	ErrMalformedEdit = errors.New("edit inconsistent with buffer state")
)
