package app

import "errors"

var (
	// ErrNoStore indicates the service was constructed without a store.
	ErrNoStore = errors.New("store is required")
	// ErrQueueFull indicates a recompute job could not be enqueued.
	ErrQueueFull = errors.New("recompute queue full")
	// ErrInvalidKind indicates an unknown collection kind.
	ErrInvalidKind = errors.New("invalid collection kind")
	// ErrNotRoster indicates a roster-only analysis was requested on a
	// shortlist or watchlist.
	ErrNotRoster = errors.New("collection is not a roster")
)
