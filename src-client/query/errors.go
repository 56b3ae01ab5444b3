package query

import "errors"

// ErrCancelled is returned to callers waiting on a fetch that was cancelled.
// It is never stored as an entry error.
var ErrCancelled = errors.New("query: fetch cancelled")

// ErrStaleResponse marks a response that arrived after its request was
// superseded by a newer generation. The cache discards such responses.
var ErrStaleResponse = errors.New("query: stale response")

// ErrNoFetchFunc is returned when a key is fetched before any fetch function
// was ever attached to it.
var ErrNoFetchFunc = errors.New("query: no fetch function for key")

// ErrMutationPanic wraps a panic raised by a mutation function.
var ErrMutationPanic = errors.New("query: mutation panicked")
