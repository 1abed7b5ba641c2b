package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidLimit     = errors.New("invalid limit")
)
