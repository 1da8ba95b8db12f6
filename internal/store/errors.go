package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when an insert loses to the unique
// constraint on usernames. The constraint, not the caller's pre-check,
// is authoritative.
var ErrDuplicateUsername = errors.New("username already exists")
