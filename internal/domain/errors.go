package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrAlreadyBorrowed  = errors.New("book is already borrowed")
	ErrAlreadyAvailable = errors.New("book is already available")
	ErrConfirmRequired  = errors.New("deletion requires confirmation")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrCoverUnavailable covers every cover fetch or decode failure.
	// It is always non-fatal; callers degrade to a placeholder.
	ErrCoverUnavailable = errors.New("cover unavailable")

	// ErrStale marks a cover result whose generation token was
	// superseded by a newer selection.
	ErrStale = errors.New("stale cover generation")
)
